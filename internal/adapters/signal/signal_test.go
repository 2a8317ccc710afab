package signal

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Sketch/internal/app"
	"github.com/dkeye/Sketch/internal/app/orch"
	"github.com/dkeye/Sketch/internal/core"
	"github.com/dkeye/Sketch/internal/domain"
	"github.com/dkeye/Sketch/internal/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type message struct {
	Type         string                `json:"type"`
	Op           string                `json:"op"`
	Kind         domain.FaultKind      `json:"kind"`
	Error        string                `json:"error"`
	Code         string                `json:"code"`
	Player       string                `json:"player"`
	Username     string                `json:"username"`
	Subscription string                `json:"subscription"`
	Success      bool                  `json:"success"`
	Room         domain.RoomSnapshot   `json:"room"`
	Rooms        []domain.RoomSnapshot `json:"rooms"`
}

func newController(t *testing.T) (*SignalWSController, *mocks.MockMailSender) {
	ctrl := gomock.NewController(t)
	mail := mocks.NewMockMailSender(ctrl)
	dir := core.NewRoomDirectoryNotifier()
	rooms := app.NewRoomRegistry(app.NewCodeGenerator(), dir)
	o := &orch.Orchestrator{
		Sessions:    app.NewSessions(),
		Rooms:       rooms,
		Directory:   dir,
		Invitations: app.NewInvitationManager(rooms, mail, app.InvitationConfig{Secret: []byte("s"), BaseURL: "http://localhost"}),
	}
	return NewSignalWSController(o, NewRoomRateLimiter(1, time.Minute), Options{}), mail
}

func attach(ctl *SignalWSController, sid app.SessionID) *WsSignalConn {
	c := newConn(nil)
	ctl.Orch.Connect(sid, c, nil)
	return c
}

func next(t *testing.T, c *WsSignalConn) message {
	t.Helper()
	select {
	case b := <-c.send:
		var m message
		require.NoError(t, json.Unmarshal(b, &m))
		return m
	default:
		t.Fatal("no message queued")
		return message{}
	}
}

func drain(c *WsSignalConn) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func TestSignal_RenameCreateJoin(t *testing.T) {
	r := require.New(t)
	ctl, _ := newController(t)
	ana := attach(ctl, "sid-ana")
	beto := attach(ctl, "sid-beto")

	// create needs a name
	ctl.handleSignal("sid-ana", ana, []byte(`{"type":"create","rounds":3,"secondsPerRound":60}`))
	m := next(t, ana)
	r.Equal("error", m.Type)
	r.Equal("create", m.Op)
	r.Equal(domain.KindValidation, m.Kind)

	ctl.handleSignal("sid-ana", ana, []byte(`{"type":"rename","name":"Ana"}`))
	r.Equal("Ana", next(t, ana).Username)
	ctl.handleSignal("sid-beto", beto, []byte(`{"type":"rename","name":"Beto"}`))
	drain(beto)

	// Ana creates a room
	ctl.handleSignal("sid-ana", ana, []byte(`{"type":"create","rounds":3,"secondsPerRound":60,"difficulty":"hard"}`))
	m = next(t, ana)
	r.Equal("room_created", m.Type)
	r.Equal([]string{"Ana"}, m.Room.Players)
	r.Equal(domain.DifficultyHard, m.Room.Config.Difficulty)
	code := m.Room.Code
	drain(ana)

	// Beto joins with a lower-case code
	ctl.handleSignal("sid-beto", beto, []byte(`{"type":"join","code":"`+strings.ToLower(code)+`"}`))
	m = next(t, beto)
	r.Equal("room_updated", m.Type)
	m = next(t, beto)
	r.Equal("room_state", m.Type)
	r.Equal([]string{"Ana", "Beto"}, m.Room.Players)

	// Ana hears about it
	m = next(t, ana)
	r.Equal(string(core.EventPlayerJoined), m.Type)
	r.Equal("Beto", m.Player)
}

func TestSignal_JoinErrorsCarryKind(t *testing.T) {
	r := require.New(t)
	ctl, _ := newController(t)
	c := attach(ctl, "sid-beto")
	ctl.handleSignal("sid-beto", c, []byte(`{"type":"rename","name":"Beto"}`))
	drain(c)

	ctl.handleSignal("sid-beto", c, []byte(`{"type":"join","code":"ZZZZZZ"}`))
	m := next(t, c)
	r.Equal("error", m.Type)
	r.Equal(domain.KindNotFound, m.Kind)

	ctl.handleSignal("sid-beto", c, []byte(`{"type":"join","code":`))
	r.Equal("bad_payload", next(t, c).Error)

	ctl.handleSignal("sid-beto", c, []byte(`{"type":"dance"}`))
	r.Equal("unknown_type", next(t, c).Error)
}

func TestSignal_LobbyAndPing(t *testing.T) {
	r := require.New(t)
	ctl, _ := newController(t)
	c := attach(ctl, "sid-ana")

	ctl.handleSignal("sid-ana", c, []byte(`{"type":"ping"}`))
	r.Equal("pong", next(t, c).Type)

	ctl.handleSignal("sid-ana", c, []byte(`{"type":"list"}`))
	m := next(t, c)
	r.Equal("room_list", m.Type)
	r.Empty(m.Rooms)

	ctl.handleSignal("sid-ana", c, []byte(`{"type":"subscribe_rooms"}`))
	r.Equal(string(core.EventRoomListUpdated), next(t, c).Type)
	m = next(t, c)
	r.Equal("subscribed", m.Type)
	r.NotEmpty(m.Subscription)

	ctl.handleSignal("sid-ana", c, []byte(`{"type":"unsubscribe_rooms","subscription":"`+m.Subscription+`"}`))
	r.Equal("unsubscribed", next(t, c).Type)
	ctl.handleSignal("sid-ana", c, []byte(`{"type":"unsubscribe_rooms","subscription":"`+m.Subscription+`"}`))
	r.Equal(domain.KindNotFound, next(t, c).Kind)
}

func TestSignal_InviteIsRateLimited(t *testing.T) {
	r := require.New(t)
	ctl, mail := newController(t)
	c := attach(ctl, "sid-ana")
	ctl.handleSignal("sid-ana", c, []byte(`{"type":"rename","name":"Ana"}`))
	ctl.handleSignal("sid-ana", c, []byte(`{"type":"create","rounds":3,"secondsPerRound":60}`))
	drain(c)
	code := ctl.Orch.ListRooms()[0].Code
	mail.EXPECT().Send(gomock.Any(), "beto@example.com", gomock.Any(), gomock.Any()).Return(nil).Times(1)

	invite := []byte(`{"type":"invite","code":"` + code + `","email":"beto@example.com"}`)
	ctl.handleSignal("sid-ana", c, invite)
	m := next(t, c)
	r.Equal("invite_result", m.Type)
	r.True(m.Success)

	ctl.handleSignal("sid-ana", c, invite)
	m = next(t, c)
	r.Equal("error", m.Type)
	r.Equal(domain.KindResourceExhausted, m.Kind)
}

func TestWsSignalConn_SendReportsDeadChannel(t *testing.T) {
	r := require.New(t)
	c := newConn(nil)

	for i := 0; i < sendBuffer; i++ {
		r.NoError(c.Send(core.Event{Type: core.EventRoomUpdated}))
	}
	err := c.Send(core.Event{Type: core.EventRoomUpdated})
	r.ErrorIs(err, core.ErrChannelDead)
	r.Contains(err.Error(), ErrBackpressure.Error())

	c.Close()
	c.Close()
	err = c.TrySend([]byte("{}"))
	r.True(errors.Is(err, ErrConnClosed))
	r.ErrorIs(c.Send(core.Event{}), core.ErrChannelDead)
}

func TestRoomRateLimiter_Window(t *testing.T) {
	r := require.New(t)
	rl := NewRoomRateLimiter(2, time.Minute)
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r.True(rl.Allow("u1"))
	r.True(rl.Allow("u1"))
	r.False(rl.Allow("u1"))
	r.True(rl.Allow("u2"))

	now = now.Add(61 * time.Second)
	r.True(rl.Allow("u1"))
}
