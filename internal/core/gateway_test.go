package core_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/Sketch/internal/core"
	"github.com/dkeye/Sketch/internal/domain"
	"github.com/dkeye/Sketch/internal/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// recorder is a NotificationChannel that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []core.Event
	fail   error
}

func (c *recorder) Send(evt core.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	c.events = append(c.events, evt)
	return nil
}

func (c *recorder) types() []core.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.EventType, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

func (c *recorder) last() core.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events[len(c.events)-1]
}

func snapOf(players ...string) domain.RoomSnapshot {
	return domain.RoomSnapshot{Code: "ABC234", Creator: players[0], Players: players}
}

func TestGateway_NotifyJoinSkipsNewcomer(t *testing.T) {
	r := require.New(t)

	// Given Ana and Beto registered
	gw := core.NewNotificationGateway("ABC234")
	ana, beto := &recorder{}, &recorder{}
	gw.Register("Ana", ana)
	gw.Register("Beto", beto)

	// When Beto's join is announced
	res := gw.NotifyJoin("beto", snapOf("Ana", "Beto"))

	// Then only Ana hears player_joined, both get the update
	r.Equal([]core.EventType{core.EventPlayerJoined, core.EventRoomUpdated}, ana.types())
	r.Equal([]core.EventType{core.EventRoomUpdated}, beto.types())
	r.Equal(3, res.SendTo)
	r.Empty(res.Dropped)
	r.Equal([]string{"Ana", "Beto"}, beto.last().Room.Players)
}

func TestGateway_NotifyAction(t *testing.T) {
	r := require.New(t)
	gw := core.NewNotificationGateway("ABC234")
	ana := &recorder{}
	gw.Register("Ana", ana)

	gw.NotifyAction(core.EventPlayerBanned, "Beto", snapOf("Ana"))

	r.Equal([]core.EventType{core.EventPlayerBanned, core.EventRoomUpdated}, ana.types())
	r.Equal("Beto", ana.events[0].Player)
}

func TestGateway_DeadChannelIsPrunedOnce(t *testing.T) {
	r := require.New(t)
	ctrl := gomock.NewController(t)

	// Given a live channel and a dead one
	gw := core.NewNotificationGateway("ABC234")
	live := &recorder{}
	dead := mocks.NewMockNotificationChannel(ctrl)
	dead.EXPECT().Send(gomock.Any()).Return(core.ErrChannelDead).Times(1)
	gw.Register("Ana", live)
	gw.Register("Beto", dead)

	// When two broadcasts go out
	first := gw.NotifyUpdated(snapOf("Ana", "Beto"))
	second := gw.NotifyUpdated(snapOf("Ana", "Beto"))

	// Then the dead channel is tried once and removed
	r.Equal([]string{"Beto"}, first.Dropped)
	r.Empty(second.Dropped)
	r.Equal(1, second.SendTo)
	r.False(gw.Has("Beto"))
	r.True(gw.Has("Ana"))
}

func TestGateway_PruneKeepsReplacedRegistration(t *testing.T) {
	r := require.New(t)
	ctrl := gomock.NewController(t)

	// Given Beto's old channel fails while he reconnects mid-broadcast
	gw := core.NewNotificationGateway("ABC234")
	fresh := &recorder{}
	old := mocks.NewMockNotificationChannel(ctrl)
	old.EXPECT().Send(gomock.Any()).DoAndReturn(func(core.Event) error {
		gw.Register("Beto", fresh)
		return errors.New("write: broken pipe")
	})
	gw.Register("Beto", old)

	// When the broadcast completes
	res := gw.NotifyUpdated(snapOf("Ana", "Beto"))

	// Then the new registration survives
	r.Equal([]string{"Beto"}, res.Dropped)
	r.True(gw.Has("Beto"))
	r.True(gw.Notify("beto", core.Event{Type: core.EventRoomUpdated}))
	r.Len(fresh.events, 1)
}

func TestGateway_RegisterReplacesAndUnregister(t *testing.T) {
	r := require.New(t)
	gw := core.NewNotificationGateway("ABC234")
	first, second := &recorder{}, &recorder{}

	gw.Register("Ana", first)
	gw.Register("ANA", second)
	gw.Register("Beto", nil)

	r.Equal(1, gw.Len())
	r.False(gw.Has("Beto"))
	r.Same(second, gw.Unregister("ana"))
	r.Nil(gw.Unregister("ana"))
	r.Equal(0, gw.Len())
}

func TestGateway_NotifyUnknownPlayer(t *testing.T) {
	r := require.New(t)
	gw := core.NewNotificationGateway("ABC234")

	r.False(gw.Notify("ghost", core.Event{Type: core.EventRoomUpdated}))
}

func TestGateway_CloseDropsRegistrations(t *testing.T) {
	r := require.New(t)
	gw := core.NewNotificationGateway("ABC234")
	ana := &recorder{}
	gw.Register("Ana", ana)

	gw.NotifyCancelled(snapOf("Ana"))
	gw.Close()

	r.Equal([]core.EventType{core.EventRoomCancelled}, ana.types())
	r.Equal(0, gw.Len())
	r.Equal(0, gw.NotifyUpdated(snapOf("Ana")).SendTo)
}
