package core

import (
	"sync"

	"github.com/dkeye/Sketch/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RoomDirectoryNotifier pushes the global room list to lobby observers.
// It is independent from any single room.
type RoomDirectoryNotifier struct {
	mu   sync.RWMutex
	subs map[string]NotificationChannel
}

func NewRoomDirectoryNotifier() *RoomDirectoryNotifier {
	return &RoomDirectoryNotifier{subs: make(map[string]NotificationChannel)}
}

// Subscribe returns an id for the new subscription. One channel may hold many.
func (d *RoomDirectoryNotifier) Subscribe(ch NotificationChannel) string {
	id := uuid.NewString()
	d.mu.Lock()
	d.subs[id] = ch
	d.mu.Unlock()
	log.Info().Str("module", "core.directory").Str("subscription", id).Msg("lobby subscribed")
	return id
}

func (d *RoomDirectoryNotifier) Unsubscribe(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.subs[id]
	delete(d.subs, id)
	return ok
}

// UnsubscribeByChannel drops every subscription held by ch, e.g. on disconnect.
func (d *RoomDirectoryNotifier) UnsubscribeByChannel(ch NotificationChannel) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for id, c := range d.subs {
		if c == ch {
			delete(d.subs, id)
			n++
		}
	}
	return n
}

func (d *RoomDirectoryNotifier) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}

// PublishToOne seeds a fresh subscriber. A dead channel loses all its subscriptions.
func (d *RoomDirectoryNotifier) PublishToOne(ch NotificationChannel, rooms []domain.RoomSnapshot) error {
	if err := ch.Send(listEvent(rooms)); err != nil {
		n := d.UnsubscribeByChannel(ch)
		log.Debug().Err(err).Str("module", "core.directory").Int("removed", n).Msg("seed delivery failed")
		return err
	}
	return nil
}

// PublishToAll broadcasts the room list; subscribers that fail are removed for good.
func (d *RoomDirectoryNotifier) PublishToAll(rooms []domain.RoomSnapshot) PublishResult {
	d.mu.RLock()
	targets := make(map[string]NotificationChannel, len(d.subs))
	for id, ch := range d.subs {
		targets[id] = ch
	}
	d.mu.RUnlock()

	evt := listEvent(rooms)
	res := PublishResult{}
	for id, ch := range targets {
		if err := ch.Send(evt); err != nil {
			log.Debug().Err(err).Str("module", "core.directory").Str("subscription", id).Msg("delivery failed, removing subscriber")
			res.Dropped = append(res.Dropped, id)
			continue
		}
		res.SendTo++
	}

	if len(res.Dropped) > 0 {
		d.mu.Lock()
		for _, id := range res.Dropped {
			delete(d.subs, id)
		}
		d.mu.Unlock()
	}
	return res
}

func listEvent(rooms []domain.RoomSnapshot) Event {
	if rooms == nil {
		rooms = []domain.RoomSnapshot{}
	}
	return Event{Type: EventRoomListUpdated, Rooms: rooms}
}
