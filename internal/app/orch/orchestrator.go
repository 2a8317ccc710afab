package orch

import (
	"context"
	"errors"

	"github.com/dkeye/Sketch/internal/app"
	"github.com/dkeye/Sketch/internal/core"
	"github.com/dkeye/Sketch/internal/domain"
	"github.com/rs/zerolog/log"
)

var ErrNameRequired = domain.NewFault(domain.KindValidation, "choose a player name first")

// Orchestrator is what transports call. It maps a connection to a player and
// keeps the per-connection bookkeeping in step with the registry.
type Orchestrator struct {
	Sessions    *app.Sessions
	Rooms       *app.RoomRegistry
	Directory   *core.RoomDirectoryNotifier
	Invitations *app.InvitationManager
	Reports     *app.ReportService
}

func (o *Orchestrator) Connect(sid app.SessionID, ch core.NotificationChannel, cancel context.CancelFunc) {
	o.Sessions.Bind(sid, ch, cancel)
}

// Rename forgets rooms that no longer seat the player before renaming.
func (o *Orchestrator) Rename(sid app.SessionID, name string) (string, error) {
	o.pruneRooms(sid)
	return o.Sessions.SetName(sid, name)
}

func (o *Orchestrator) WhoAmI(sid app.SessionID) (domain.User, []string) {
	u, _ := o.Sessions.User(sid)
	return u, o.Sessions.Rooms(sid)
}

// OnDisconnect abandons every room the connection sat in and drops its
// lobby subscriptions. A connection already replaced by a newer one only
// loses its own subscriptions.
func (o *Orchestrator) OnDisconnect(sid app.SessionID, ch core.NotificationChannel) {
	if o.Directory != nil && ch != nil {
		o.Directory.UnsubscribeByChannel(ch)
	}
	if cur, ok := o.Sessions.Channel(sid); ok && ch != nil && cur != ch {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("stale connection closed")
		return
	}

	name := o.Sessions.Name(sid)
	for _, code := range o.Sessions.Rooms(sid) {
		if err := o.Rooms.AbandonRoom(code, name); err != nil && !errors.Is(err, domain.ErrRoomNotFound) {
			log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("room", code).Msg("abandon on disconnect")
		}
	}
	o.Sessions.Unbind(sid)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("player", name).Msg("disconnected")
}

func (o *Orchestrator) player(sid app.SessionID) (string, error) {
	name := o.Sessions.Name(sid)
	if name == "" {
		return "", ErrNameRequired
	}
	return name, nil
}

func (o *Orchestrator) pruneRooms(sid app.SessionID) {
	name := o.Sessions.Name(sid)
	for _, code := range o.Sessions.Rooms(sid) {
		snap, err := o.Rooms.Room(code)
		if err != nil || !snap.HasPlayer(name) {
			o.Sessions.UntrackRoom(sid, code)
		}
	}
}
