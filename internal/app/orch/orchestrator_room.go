package orch

import (
	"errors"

	"github.com/dkeye/Sketch/internal/app"
	"github.com/dkeye/Sketch/internal/domain"
	"github.com/rs/zerolog/log"
)

// CreateRoom creates a room and binds the creator's channel to it.
func (o *Orchestrator) CreateRoom(sid app.SessionID, cfg domain.RoomConfig) (domain.RoomSnapshot, error) {
	name, err := o.player(sid)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	snap, err := o.Rooms.CreateRoom(name, cfg)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	o.Sessions.TrackRoom(sid, snap.Code)
	if ch, ok := o.Sessions.Channel(sid); ok {
		if snap, err = o.Rooms.JoinRoom(snap.Code, name, ch); err != nil {
			return domain.RoomSnapshot{}, err
		}
	}
	return snap, nil
}

func (o *Orchestrator) JoinRoom(sid app.SessionID, code string) (domain.RoomSnapshot, error) {
	name, err := o.player(sid)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	ch, _ := o.Sessions.Channel(sid)
	snap, err := o.Rooms.JoinRoom(code, name, ch)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	o.Sessions.TrackRoom(sid, snap.Code)
	return snap, nil
}

func (o *Orchestrator) LeaveRoom(sid app.SessionID, code string) error {
	name, err := o.player(sid)
	if err != nil {
		return err
	}
	code = app.NormalizeCode(code)
	err = o.Rooms.AbandonRoom(code, name)
	if err == nil || errors.Is(err, domain.ErrRoomNotFound) {
		o.Sessions.UntrackRoom(sid, code)
	}
	return err
}

func (o *Orchestrator) Expel(sid app.SessionID, code, target string) error {
	name, err := o.player(sid)
	if err != nil {
		return err
	}
	if err := o.Rooms.ExpelPlayer(code, name, target); err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("room", code).Msg("expel refused")
		return err
	}
	return nil
}

func (o *Orchestrator) Start(sid app.SessionID, code string) (domain.RoomSnapshot, error) {
	name, err := o.player(sid)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	return o.Rooms.StartRoom(code, name)
}

func (o *Orchestrator) ListRooms() []domain.RoomSnapshot {
	return o.Rooms.ListRooms()
}

func (o *Orchestrator) Room(code string) (domain.RoomSnapshot, error) {
	return o.Rooms.Room(code)
}
