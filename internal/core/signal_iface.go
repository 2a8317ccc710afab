package core

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/Sketch/internal/domain"
)

// ErrChannelDead is returned by a NotificationChannel whose client is gone
// (closed connection, write timeout, full send buffer).
var ErrChannelDead = errors.New("notification channel dead")

type EventType string

const (
	EventPlayerJoined    EventType = "player_joined"
	EventPlayerLeft      EventType = "player_left"
	EventPlayerExpelled  EventType = "player_expelled"
	EventPlayerBanned    EventType = "player_banned"
	EventRoomUpdated     EventType = "room_updated"
	EventRoomCancelled   EventType = "room_cancelled"
	EventRoomListUpdated EventType = "room_list_updated"
)

// Event is pushed to clients over a NotificationChannel.
type Event struct {
	Type   EventType             `json:"type"`
	Code   string                `json:"code,omitempty"`
	Player string                `json:"player,omitempty"`
	Room   *domain.RoomSnapshot  `json:"room,omitempty"`
	Rooms  []domain.RoomSnapshot `json:"rooms,omitempty"`
}

// MarshalJSON always writes rooms on a room list update, so an empty lobby
// arrives as [] rather than a missing key.
func (e Event) MarshalJSON() ([]byte, error) {
	type wire Event
	if e.Type != EventRoomListUpdated {
		return json.Marshal(wire(e))
	}
	rooms := e.Rooms
	if rooms == nil {
		rooms = []domain.RoomSnapshot{}
	}
	return json.Marshal(struct {
		wire
		Rooms []domain.RoomSnapshot `json:"rooms"`
	}{wire(e), rooms})
}

// NotificationChannel abstracts a push endpoint to one client.
// Owned by the adapter; the core never closes it.
// Implementations must be comparable (pointer receivers).
type NotificationChannel interface {
	Send(Event) error
}
