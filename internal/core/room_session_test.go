package core_test

import (
	"sync"
	"testing"

	"github.com/dkeye/Sketch/internal/core"
	"github.com/dkeye/Sketch/internal/domain"
	"github.com/stretchr/testify/require"
)

func newRoom() *core.RoomSession {
	return core.NewRoomSession("ABC234", "Ana", domain.RoomConfig{Rounds: 3, SecondsPerRound: 60, Difficulty: domain.DifficultyNormal})
}

func TestRoomSession_CreatorIsSeated(t *testing.T) {
	r := require.New(t)

	// Given a fresh room
	room := newRoom()

	// Then the creator is the only player
	snap := room.Snapshot()
	r.Equal([]string{"Ana"}, snap.Players)
	r.True(room.IsCreator("ana"))
	r.False(room.ShouldDelete())
}

func TestRoomSession_AddPlayer(t *testing.T) {
	r := require.New(t)

	// Given a room with its creator
	room := newRoom()

	// When Beto joins twice with different casing
	_, added, err := room.AddPlayer("Beto")
	r.NoError(err)
	r.True(added)
	snap, added, err := room.AddPlayer("BETO")

	// Then the second join is idempotent
	r.NoError(err)
	r.False(added)
	r.Equal([]string{"Ana", "Beto"}, snap.Players)
}

func TestRoomSession_AddPlayer_Full(t *testing.T) {
	r := require.New(t)

	// Given a room at capacity
	room := newRoom()
	for _, p := range []string{"Beto", "Carlos", "Dora"} {
		_, _, err := room.AddPlayer(p)
		r.NoError(err)
	}

	// When a fifth player joins
	_, _, err := room.AddPlayer("Eva")

	// Then the room is full
	r.ErrorIs(err, domain.ErrRoomFull)
	r.Equal(domain.MaxPlayers, room.PlayerCount())

	// But a seated player rejoining still succeeds
	_, added, err := room.AddPlayer("dora")
	r.NoError(err)
	r.False(added)
}

func TestRoomSession_AddPlayer_StartedAndBanned(t *testing.T) {
	r := require.New(t)

	// Given a started room where Carlos is banned
	room := newRoom()
	_, _, err := room.AddPlayer("Beto")
	r.NoError(err)
	_, err = room.Evict("Carlos", true)
	r.NoError(err)
	_, err = room.Start("Ana")
	r.NoError(err)

	// When Carlos and Dora try to join
	_, _, errBanned := room.AddPlayer("carlos")
	_, _, errStarted := room.AddPlayer("Dora")

	// Then the ban is reported before the started state
	r.ErrorIs(errBanned, domain.ErrPlayerBanned)
	r.ErrorIs(errStarted, domain.ErrRoomStarted)
}

func TestRoomSession_Leave(t *testing.T) {
	tests := []struct {
		name          string
		joined        []string
		leaver        string
		wantDissolved bool
		wantPlayers   []string
		wantErr       error
	}{
		{name: "regular player leaves", joined: []string{"Beto", "Carlos"}, leaver: "Beto", wantPlayers: []string{"Ana", "Carlos"}},
		{name: "creator leaves", joined: []string{"Beto"}, leaver: "ANA", wantDissolved: true, wantPlayers: []string{"Beto"}},
		{name: "unknown player", joined: []string{"Beto"}, leaver: "Zoe", wantErr: domain.ErrPlayerNotInRoom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := require.New(t)
			room := newRoom()
			for _, p := range tt.joined {
				_, _, err := room.AddPlayer(p)
				r.NoError(err)
			}

			dep, err := room.Leave(tt.leaver)

			if tt.wantErr != nil {
				r.ErrorIs(err, tt.wantErr)
				return
			}
			r.NoError(err)
			r.True(dep.Removed)
			r.Equal(tt.wantDissolved, dep.Dissolved)
			r.Equal(tt.wantDissolved, room.ShouldDelete())
			r.Equal(tt.wantPlayers, dep.Snapshot.Players)
		})
	}
}

func TestRoomSession_DeletedRoomRejectsEverything(t *testing.T) {
	r := require.New(t)

	// Given a room whose creator left
	room := newRoom()
	_, err := room.Leave("Ana")
	r.NoError(err)

	// Then every mutation reports the room as gone
	_, _, err = room.AddPlayer("Beto")
	r.ErrorIs(err, domain.ErrRoomNotFound)
	_, err = room.Leave("Ana")
	r.ErrorIs(err, domain.ErrRoomNotFound)
	_, err = room.Evict("Beto", false)
	r.ErrorIs(err, domain.ErrRoomNotFound)
	_, err = room.Start("Ana")
	r.ErrorIs(err, domain.ErrRoomNotFound)
}

func TestRoomSession_Evict(t *testing.T) {
	r := require.New(t)

	// Given Ana's room with Beto
	room := newRoom()
	_, _, err := room.AddPlayer("Beto")
	r.NoError(err)

	// When the creator is targeted
	_, err = room.Evict("ana", false)

	// Then it is refused
	r.Equal(domain.KindValidation, domain.KindOf(err))

	// When Beto is expelled without a ban
	dep, err := room.Evict("Beto", false)
	r.NoError(err)
	r.True(dep.Removed)
	r.False(dep.Dissolved)

	// Then he may come back
	r.False(room.IsBanned("Beto"))
	_, added, err := room.AddPlayer("Beto")
	r.NoError(err)
	r.True(added)

	// When expelled again, now banned
	dep, err = room.Evict("beto", true)
	r.NoError(err)
	r.True(dep.Removed)
	r.True(room.IsBanned("Beto"))

	// And evicting an absent player is a no-op
	dep, err = room.Evict("Zoe", false)
	r.NoError(err)
	r.False(dep.Removed)
}

func TestRoomSession_StartAndFinish(t *testing.T) {
	r := require.New(t)
	room := newRoom()

	// Not enough players
	_, err := room.Start("Ana")
	r.Equal(domain.KindValidation, domain.KindOf(err))

	_, _, err = room.AddPlayer("Beto")
	r.NoError(err)

	// Only the creator starts
	_, err = room.Start("Beto")
	r.ErrorIs(err, domain.ErrNotCreator)

	// Cannot finish before start
	_, err = room.Finish()
	r.Equal(domain.KindValidation, domain.KindOf(err))

	snap, err := room.Start("ana")
	r.NoError(err)
	r.True(snap.Started)

	_, err = room.Start("Ana")
	r.ErrorIs(err, domain.ErrRoomStarted)

	snap, err = room.Finish()
	r.NoError(err)
	r.True(snap.Finished)
	_, err = room.Finish()
	r.NoError(err)
}

func TestRoomSession_ConcurrentJoinsNeverExceedCapacity(t *testing.T) {
	r := require.New(t)
	room := newRoom()

	var wg sync.WaitGroup
	names := []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"}
	for _, n := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = room.AddPlayer(n)
		}()
	}
	wg.Wait()

	r.Equal(domain.MaxPlayers, room.PlayerCount())
}

func TestRoomSession_SnapshotIsDetached(t *testing.T) {
	r := require.New(t)
	room := newRoom()

	snap := room.Snapshot()
	snap.Players[0] = "Mallory"

	r.Equal("Ana", room.Snapshot().Players[0])
}
