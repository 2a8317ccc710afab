package app

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"github.com/dkeye/Sketch/internal/core"
	"github.com/dkeye/Sketch/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type roomEntry struct {
	session *core.RoomSession
	gateway *core.NotificationGateway
}

// RoomRegistry owns every live room and routes membership changes to it.
// The map lock guards create/delete only; each room serialises its own state.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*roomEntry

	codes     *CodeGenerator
	directory *core.RoomDirectoryNotifier
}

func NewRoomRegistry(codes *CodeGenerator, directory *core.RoomDirectoryNotifier) *RoomRegistry {
	return &RoomRegistry{
		rooms:     make(map[string]*roomEntry),
		codes:     codes,
		directory: directory,
	}
}

// NormalizeCode upper-cases a client supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateRoom seats the creator in a new room under a fresh code.
func (r *RoomRegistry) CreateRoom(creator string, cfg domain.RoomConfig) (domain.RoomSnapshot, error) {
	creator, err := domain.ValidateUsername(creator)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	cfg, err = cfg.Normalize()
	if err != nil {
		return domain.RoomSnapshot{}, err
	}

	r.mu.Lock()
	code, err := r.codes.GenerateCode(func(c string) bool {
		_, ok := r.rooms[c]
		return ok
	})
	if err != nil {
		r.mu.Unlock()
		return domain.RoomSnapshot{}, err
	}
	e := &roomEntry{
		session: core.NewRoomSession(code, creator, cfg),
		gateway: core.NewNotificationGateway(code),
	}
	r.rooms[code] = e
	r.mu.Unlock()

	log.Info().Str("module", "app.registry").Str("room", code).Str("creator", creator).Msg("room created")
	r.publishDirectory()
	return e.session.Snapshot(), nil
}

// JoinRoom seats player and binds ch to them. Joining again only rebinds the channel.
func (r *RoomRegistry) JoinRoom(code, player string, ch core.NotificationChannel) (domain.RoomSnapshot, error) {
	player, err := domain.ValidateUsername(player)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	e, err := r.lookup(code)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}

	snap, added, err := e.session.AddPlayer(player)
	if err != nil {
		log.Debug().Err(err).Str("module", "app.registry").Str("room", e.session.Code()).Str("player", player).Msg("join refused")
		return domain.RoomSnapshot{}, err
	}
	e.gateway.Register(player, ch)
	if !added {
		return snap, nil
	}

	log.Info().Str("module", "app.registry").Str("room", snap.Code).Str("player", player).Int("players", len(snap.Players)).Msg("player joined")
	e.gateway.NotifyJoin(player, snap)
	r.publishDirectory()
	return snap, nil
}

// AbandonRoom removes a player of their own accord. The room is dissolved
// when its creator or its last player leaves.
func (r *RoomRegistry) AbandonRoom(code, player string) error {
	e, err := r.lookup(code)
	if err != nil {
		return err
	}
	dep, err := e.session.Leave(player)
	if err != nil {
		return err
	}
	e.gateway.Unregister(player)

	if dep.Dissolved {
		e.gateway.NotifyCancelled(dep.Snapshot)
		r.purge(e)
	} else {
		log.Info().Str("module", "app.registry").Str("room", dep.Snapshot.Code).Str("player", player).Msg("player left")
		e.gateway.NotifyLeave(player, dep.Snapshot)
	}
	r.publishDirectory()
	return nil
}

// ExpelPlayer lets the creator remove target. An absent target is not an error.
func (r *RoomRegistry) ExpelPlayer(code, requester, target string) error {
	e, err := r.lookup(code)
	if err != nil {
		return err
	}
	if !e.session.IsCreator(requester) {
		return domain.ErrNotCreator
	}
	return r.evict(e, target, false)
}

// BanPlayer removes target without an authorization check and bars the name
// from rejoining.
func (r *RoomRegistry) BanPlayer(code, target string) error {
	e, err := r.lookup(code)
	if err != nil {
		return err
	}
	return r.evict(e, target, true)
}

func (r *RoomRegistry) evict(e *roomEntry, target string, ban bool) error {
	dep, err := e.session.Evict(target, ban)
	if err != nil {
		return err
	}
	if !dep.Removed {
		return nil
	}

	kind := core.EventPlayerExpelled
	if ban {
		kind = core.EventPlayerBanned
	}
	ch := e.gateway.Unregister(target)
	e.gateway.NotifyAction(kind, target, dep.Snapshot)
	if ch != nil {
		if err := ch.Send(core.Event{Type: kind, Code: dep.Snapshot.Code, Player: target}); err != nil {
			log.Debug().Err(err).Str("module", "app.registry").Str("room", dep.Snapshot.Code).Str("player", target).Msg("removed player unreachable")
		}
	}

	log.Info().Str("module", "app.registry").Str("room", dep.Snapshot.Code).Str("player", target).Str("action", string(kind)).Msg("player removed")
	r.publishDirectory()
	return nil
}

// StartRoom closes the room to new players.
func (r *RoomRegistry) StartRoom(code, requester string) (domain.RoomSnapshot, error) {
	e, err := r.lookup(code)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	snap, err := e.session.Start(requester)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	log.Info().Str("module", "app.registry").Str("room", snap.Code).Int("players", len(snap.Players)).Msg("room started")
	e.gateway.NotifyUpdated(snap)
	r.publishDirectory()
	return snap, nil
}

func (r *RoomRegistry) FinishRoom(code string) (domain.RoomSnapshot, error) {
	e, err := r.lookup(code)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	snap, err := e.session.Finish()
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	e.gateway.NotifyUpdated(snap)
	r.publishDirectory()
	return snap, nil
}

func (r *RoomRegistry) Room(code string) (domain.RoomSnapshot, error) {
	e, err := r.lookup(code)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	return e.session.Snapshot(), nil
}

// ListRooms returns every live room ordered by code.
func (r *RoomRegistry) ListRooms() []domain.RoomSnapshot {
	r.mu.RLock()
	entries := lo.Values(r.rooms)
	r.mu.RUnlock()

	out := lo.FilterMap(entries, func(e *roomEntry, _ int) (domain.RoomSnapshot, bool) {
		if e.session.ShouldDelete() {
			return domain.RoomSnapshot{}, false
		}
		return e.session.Snapshot(), true
	})
	slices.SortFunc(out, func(a, b domain.RoomSnapshot) int { return cmp.Compare(a.Code, b.Code) })
	return out
}

func (r *RoomRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *RoomRegistry) lookup(code string) (*roomEntry, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, domain.NewFault(domain.KindValidation, "room code is required")
	}
	r.mu.RLock()
	e, ok := r.rooms[code]
	r.mu.RUnlock()
	if !ok || e.session.ShouldDelete() {
		return nil, domain.ErrRoomNotFound
	}
	return e, nil
}

func (r *RoomRegistry) purge(e *roomEntry) {
	code := e.session.Code()
	r.mu.Lock()
	if cur, ok := r.rooms[code]; ok && cur == e {
		delete(r.rooms, code)
	}
	r.mu.Unlock()
	e.gateway.Close()
	log.Info().Str("module", "app.registry").Str("room", code).Msg("room dissolved")
}

func (r *RoomRegistry) publishDirectory() {
	if r.directory == nil {
		return
	}
	r.directory.PublishToAll(r.ListRooms())
}
