package core

import (
	"errors"
	"sync"

	"github.com/dkeye/Sketch/internal/domain"
	"github.com/rs/zerolog/log"
)

// PublishResult reports delivery stats of one fan-out.
type PublishResult struct {
	SendTo  int
	Dropped []string
}

type subscriber struct {
	name string
	ch   NotificationChannel
	seq  uint64
}

// NotificationGateway maps the players of one room to their notification
// channels. A channel that fails a delivery is pruned; the client has to
// join again to get a new one registered.
type NotificationGateway struct {
	code string

	mu   sync.RWMutex
	subs map[string]subscriber
	seq  uint64
}

func NewNotificationGateway(code string) *NotificationGateway {
	return &NotificationGateway{code: code, subs: make(map[string]subscriber)}
}

// Register binds a channel to a player, replacing any previous one (reconnect).
func (g *NotificationGateway) Register(player string, ch NotificationChannel) {
	if ch == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.subs[domain.NameKey(player)] = subscriber{name: player, ch: ch, seq: g.seq}
	log.Debug().Str("module", "core.gateway").Str("room", g.code).Str("player", player).Msg("channel registered")
}

// Unregister drops the player's channel and hands it back, nil if there was none.
func (g *NotificationGateway) Unregister(player string) NotificationChannel {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := domain.NameKey(player)
	s, ok := g.subs[key]
	if !ok {
		return nil
	}
	delete(g.subs, key)
	return s.ch
}

func (g *NotificationGateway) Has(player string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.subs[domain.NameKey(player)]
	return ok
}

func (g *NotificationGateway) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.subs)
}

// Close drops every registration. Channels stay open; they belong to the adapter.
func (g *NotificationGateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	clear(g.subs)
}

// NotifyJoin tells everybody but the newcomer, then refreshes the whole room.
func (g *NotificationGateway) NotifyJoin(player string, snap domain.RoomSnapshot) PublishResult {
	res := g.broadcast(Event{Type: EventPlayerJoined, Code: g.code, Player: player}, player)
	return merge(res, g.NotifyUpdated(snap))
}

func (g *NotificationGateway) NotifyLeave(player string, snap domain.RoomSnapshot) PublishResult {
	res := g.broadcast(Event{Type: EventPlayerLeft, Code: g.code, Player: player}, "")
	return merge(res, g.NotifyUpdated(snap))
}

// NotifyAction broadcasts a forced removal (EventPlayerExpelled or EventPlayerBanned).
func (g *NotificationGateway) NotifyAction(kind EventType, player string, snap domain.RoomSnapshot) PublishResult {
	res := g.broadcast(Event{Type: kind, Code: g.code, Player: player}, "")
	return merge(res, g.NotifyUpdated(snap))
}

func (g *NotificationGateway) NotifyCancelled(snap domain.RoomSnapshot) PublishResult {
	return g.broadcast(Event{Type: EventRoomCancelled, Code: g.code, Player: snap.Creator, Room: &snap}, "")
}

func (g *NotificationGateway) NotifyUpdated(snap domain.RoomSnapshot) PublishResult {
	return g.broadcast(Event{Type: EventRoomUpdated, Code: g.code, Room: &snap}, "")
}

// Notify delivers to one player only.
func (g *NotificationGateway) Notify(player string, evt Event) bool {
	g.mu.RLock()
	s, ok := g.subs[domain.NameKey(player)]
	g.mu.RUnlock()
	if !ok {
		return false
	}
	if err := s.ch.Send(evt); err != nil {
		g.logDrop(s, evt, err)
		g.prune([]subscriber{s})
		return false
	}
	return true
}

func (g *NotificationGateway) broadcast(evt Event, except string) PublishResult {
	skip := domain.NameKey(except)

	g.mu.RLock()
	targets := make([]subscriber, 0, len(g.subs))
	for key, s := range g.subs {
		if except != "" && key == skip {
			continue
		}
		targets = append(targets, s)
	}
	g.mu.RUnlock()

	res := PublishResult{}
	var dead []subscriber
	for _, s := range targets {
		if err := s.ch.Send(evt); err != nil {
			g.logDrop(s, evt, err)
			dead = append(dead, s)
			res.Dropped = append(res.Dropped, s.name)
			continue
		}
		res.SendTo++
	}

	// Cleanup is done outside the RLock.
	if len(dead) > 0 {
		g.prune(dead)
	}
	log.Debug().Str("module", "core.gateway").Str("room", g.code).Str("event", string(evt.Type)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

// prune removes failed subscribers unless they re-registered in the meantime.
func (g *NotificationGateway) prune(dead []subscriber) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, s := range dead {
		key := domain.NameKey(s.name)
		if cur, ok := g.subs[key]; ok && cur.seq == s.seq {
			delete(g.subs, key)
		}
	}
}

func (g *NotificationGateway) logDrop(s subscriber, evt Event, err error) {
	ev := log.Debug()
	if !errors.Is(err, ErrChannelDead) {
		ev = log.Warn()
	}
	ev.Err(err).Str("module", "core.gateway").Str("room", g.code).Str("player", s.name).Str("event", string(evt.Type)).Msg("delivery failed, pruning channel")
}

func merge(a, b PublishResult) PublishResult {
	return PublishResult{SendTo: a.SendTo + b.SendTo, Dropped: append(a.Dropped, b.Dropped...)}
}
