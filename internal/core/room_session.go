package core

import (
	"slices"
	"sync"

	"github.com/dkeye/Sketch/internal/domain"
)

// Departure describes the outcome of a player leaving a room.
type Departure struct {
	Snapshot domain.RoomSnapshot
	Removed  bool
	// Dissolved is set when the room must be purged: the creator left or nobody is left.
	Dissolved bool
}

// RoomSession is a threadsafe in-memory room.
// Only the room registry mutates it; everybody else reads snapshots.
type RoomSession struct {
	code    string
	creator string
	config  domain.RoomConfig

	mu           sync.RWMutex
	players      []string
	banned       map[string]struct{}
	started      bool
	finished     bool
	shouldDelete bool
}

// NewRoomSession seats the creator as the first player.
func NewRoomSession(code, creator string, config domain.RoomConfig) *RoomSession {
	return &RoomSession{
		code:    code,
		creator: creator,
		config:  config,
		players: []string{creator},
		banned:  make(map[string]struct{}),
	}
}

func (r *RoomSession) Code() string    { return r.code }
func (r *RoomSession) Creator() string { return r.creator }

func (r *RoomSession) IsCreator(name string) bool {
	return domain.SameName(r.creator, name)
}

func (r *RoomSession) ShouldDelete() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.shouldDelete
}

func (r *RoomSession) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

func (r *RoomSession) Snapshot() domain.RoomSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *RoomSession) snapshotLocked() domain.RoomSnapshot {
	return domain.RoomSnapshot{
		Code:     r.code,
		Creator:  r.creator,
		Config:   r.config,
		Players:  slices.Clone(r.players),
		Started:  r.started,
		Finished: r.finished,
	}
}

func (r *RoomSession) indexLocked(name string) int {
	return slices.IndexFunc(r.players, func(p string) bool { return domain.SameName(p, name) })
}

// AddPlayer seats a player. added is false when the player was already seated.
// Checks run in order: deleted, already present, banned, started, full.
func (r *RoomSession) AddPlayer(name string) (snap domain.RoomSnapshot, added bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shouldDelete {
		return domain.RoomSnapshot{}, false, domain.ErrRoomNotFound
	}
	if r.indexLocked(name) >= 0 {
		return r.snapshotLocked(), false, nil
	}
	if _, ok := r.banned[domain.NameKey(name)]; ok {
		return domain.RoomSnapshot{}, false, domain.ErrPlayerBanned
	}
	if r.started {
		return domain.RoomSnapshot{}, false, domain.ErrRoomStarted
	}
	if len(r.players) >= domain.MaxPlayers {
		return domain.RoomSnapshot{}, false, domain.ErrRoomFull
	}
	r.players = append(r.players, name)
	return r.snapshotLocked(), true, nil
}

// Leave removes a player of their own accord. A creator leaving dissolves the room.
func (r *RoomSession) Leave(name string) (Departure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shouldDelete {
		return Departure{}, domain.ErrRoomNotFound
	}
	i := r.indexLocked(name)
	if i < 0 {
		return Departure{}, domain.ErrPlayerNotInRoom
	}
	r.players = slices.Delete(r.players, i, i+1)
	if domain.SameName(r.creator, name) || len(r.players) == 0 {
		r.shouldDelete = true
	}
	return Departure{Snapshot: r.snapshotLocked(), Removed: true, Dissolved: r.shouldDelete}, nil
}

// Evict forcibly removes a non-creator player. With ban set the name is also
// barred from rejoining, even when it was not seated.
func (r *RoomSession) Evict(name string, ban bool) (Departure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shouldDelete {
		return Departure{}, domain.ErrRoomNotFound
	}
	if domain.SameName(r.creator, name) {
		return Departure{}, domain.NewFault(domain.KindValidation, "the room creator cannot be removed")
	}
	if ban {
		r.banned[domain.NameKey(name)] = struct{}{}
	}
	i := r.indexLocked(name)
	if i < 0 {
		return Departure{Snapshot: r.snapshotLocked()}, nil
	}
	r.players = slices.Delete(r.players, i, i+1)
	return Departure{Snapshot: r.snapshotLocked(), Removed: true}, nil
}

func (r *RoomSession) IsBanned(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.banned[domain.NameKey(name)]
	return ok
}

// Start flips the started flag. Only the creator may start and at least
// domain.MinStartPlayers must be seated.
func (r *RoomSession) Start(requester string) (domain.RoomSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.shouldDelete:
		return domain.RoomSnapshot{}, domain.ErrRoomNotFound
	case !domain.SameName(r.creator, requester):
		return domain.RoomSnapshot{}, domain.ErrNotCreator
	case r.started:
		return domain.RoomSnapshot{}, domain.ErrRoomStarted
	case len(r.players) < domain.MinStartPlayers:
		return domain.RoomSnapshot{}, domain.Faultf(domain.KindValidation, "at least %d players are needed to start", domain.MinStartPlayers)
	}
	r.started = true
	return r.snapshotLocked(), nil
}

// Finish marks a started room as finished. Finishing twice is a no-op.
func (r *RoomSession) Finish() (domain.RoomSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shouldDelete {
		return domain.RoomSnapshot{}, domain.ErrRoomNotFound
	}
	if !r.started {
		return domain.RoomSnapshot{}, domain.NewFault(domain.KindValidation, "room has not started")
	}
	r.finished = true
	return r.snapshotLocked(), nil
}

// MarkDeleted is terminal.
func (r *RoomSession) MarkDeleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shouldDelete = true
}
