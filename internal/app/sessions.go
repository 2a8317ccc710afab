package app

import (
	"context"
	"sort"
	"sync"

	"github.com/dkeye/Sketch/internal/core"
	"github.com/dkeye/Sketch/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// SessionID is the client token kept in the session cookie.
type SessionID string

type sessionEntry struct {
	User    domain.User
	Channel core.NotificationChannel
	Cancel  context.CancelFunc
	rooms   map[string]struct{}
	subs    map[string]struct{}
}

// Sessions tracks live connections: who they are, their channel, the rooms
// they sit in and their lobby subscriptions.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[SessionID]*sessionEntry
	names    map[string]SessionID
}

// ErrNameTaken is returned when another live session holds the name.
var ErrNameTaken = domain.NewFault(domain.KindValidation, "player name already in use")

func NewSessions() *Sessions {
	return &Sessions{
		sessions: make(map[SessionID]*sessionEntry),
		names:    make(map[string]SessionID),
	}
}

// Bind attaches a connection. Rebinding keeps the name and tracked rooms.
func (s *Sessions) Bind(sid SessionID, ch core.NotificationChannel, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sid]
	if !ok {
		e = &sessionEntry{
			User:  domain.User{ID: domain.UserID(sid)},
			rooms: make(map[string]struct{}),
			subs:  make(map[string]struct{}),
		}
		s.sessions[sid] = e
	}
	e.Channel = ch
	e.Cancel = cancel
	log.Info().Str("module", "app.sessions").Str("sid", string(sid)).Bool("rebind", ok).Msg("bound session")
}

// SetName renames the player. Names are unique among live sessions,
// ignoring case. A rename is refused while they sit in a room since rooms
// identify players by name.
func (s *Sessions) SetName(sid SessionID, name string) (string, error) {
	name, err := domain.ValidateUsername(name)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sid]
	if !ok {
		return "", domain.NewFault(domain.KindNotFound, "unknown session")
	}
	if len(e.rooms) > 0 && !domain.SameName(e.User.Username, name) {
		return "", domain.NewFault(domain.KindValidation, "leave your rooms before renaming")
	}
	key := domain.NameKey(name)
	if owner, held := s.names[key]; held && owner != sid {
		return "", ErrNameTaken
	}
	if old := e.User.Username; old != "" && s.names[domain.NameKey(old)] == sid {
		delete(s.names, domain.NameKey(old))
	}
	s.names[key] = sid
	e.User.Username = name
	log.Info().Str("module", "app.sessions").Str("sid", string(sid)).Str("username", name).Msg("updated username")
	return name, nil
}

func (s *Sessions) User(sid SessionID) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[sid]
	if !ok {
		return domain.User{}, false
	}
	return e.User, true
}

// Name returns the player name, empty when none was chosen yet.
func (s *Sessions) Name(sid SessionID) string {
	u, _ := s.User(sid)
	return u.Username
}

func (s *Sessions) Channel(sid SessionID) (core.NotificationChannel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[sid]
	if !ok || e.Channel == nil {
		return nil, false
	}
	return e.Channel, true
}

func (s *Sessions) TrackRoom(sid SessionID, code string) {
	s.update(sid, func(e *sessionEntry) { e.rooms[code] = struct{}{} })
}

func (s *Sessions) UntrackRoom(sid SessionID, code string) {
	s.update(sid, func(e *sessionEntry) { delete(e.rooms, code) })
}

// Rooms lists the tracked room codes in order.
func (s *Sessions) Rooms(sid SessionID) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[sid]
	if !ok {
		return nil
	}
	out := lo.Keys(e.rooms)
	sort.Strings(out)
	return out
}

func (s *Sessions) TrackSubscription(sid SessionID, id string) {
	s.update(sid, func(e *sessionEntry) { e.subs[id] = struct{}{} })
}

// UntrackSubscription reports whether sid owned the subscription.
func (s *Sessions) UntrackSubscription(sid SessionID, id string) bool {
	owned := false
	s.update(sid, func(e *sessionEntry) {
		_, owned = e.subs[id]
		delete(e.subs, id)
	})
	return owned
}

func (s *Sessions) Subscriptions(sid SessionID) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[sid]
	if !ok {
		return nil
	}
	return lo.Keys(e.subs)
}

func (s *Sessions) Unbind(sid SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[sid]; ok && e.User.Username != "" {
		key := domain.NameKey(e.User.Username)
		if s.names[key] == sid {
			delete(s.names, key)
		}
	}
	delete(s.sessions, sid)
	log.Info().Str("module", "app.sessions").Str("sid", string(sid)).Msg("unbind session")
}

// Cancel stops the connection's pumps.
func (s *Sessions) Cancel(sid SessionID) bool {
	s.mu.RLock()
	e, ok := s.sessions[sid]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.sessions").Str("sid", string(sid)).Msg("canceled session")
	return true
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Sessions) update(sid SessionID, fn func(e *sessionEntry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[sid]; ok {
		fn(e)
	}
}
