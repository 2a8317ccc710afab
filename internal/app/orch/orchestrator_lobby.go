package orch

import (
	"context"

	"github.com/dkeye/Sketch/internal/app"
	"github.com/dkeye/Sketch/internal/core"
	"github.com/dkeye/Sketch/internal/domain"
)

// SubscribeRooms registers the connection as a lobby observer and seeds it
// with the current list.
func (o *Orchestrator) SubscribeRooms(sid app.SessionID) (string, error) {
	ch, ok := o.Sessions.Channel(sid)
	if !ok {
		return "", domain.NewFault(domain.KindNotFound, "no live connection for session")
	}
	id := o.Directory.Subscribe(ch)
	o.Sessions.TrackSubscription(sid, id)
	if err := o.Directory.PublishToOne(ch, o.Rooms.ListRooms()); err != nil {
		o.Sessions.UntrackSubscription(sid, id)
		return "", domain.NewFault(domain.KindDeliveryFailed, "room list could not be delivered")
	}
	return id, nil
}

func (o *Orchestrator) UnsubscribeRooms(sid app.SessionID, id string) error {
	if !o.Sessions.UntrackSubscription(sid, id) {
		return domain.NewFault(domain.KindNotFound, "unknown subscription")
	}
	o.Directory.Unsubscribe(id)
	return nil
}

// Observe subscribes a channel that is not tied to a connection, like a
// broker mirror.
func (o *Orchestrator) Observe(ch core.NotificationChannel) string {
	return o.Directory.Subscribe(ch)
}

func (o *Orchestrator) Invite(ctx context.Context, code, email string) domain.Result {
	return o.Invitations.SendInvitation(ctx, code, email)
}

// Report files a report from the session's user against another player.
// Without an account id the player name key identifies the target.
func (o *Orchestrator) Report(ctx context.Context, sid app.SessionID, target domain.UserID, targetName, reason string) (int, error) {
	if name := o.Sessions.Name(sid); name != "" && domain.SameName(name, targetName) {
		return 0, domain.NewFault(domain.KindValidation, "players cannot report themselves")
	}
	if target == "" {
		target = domain.UserID(domain.NameKey(targetName))
	}
	return o.Reports.FileReport(ctx, core.Report{
		ReporterID:   domain.UserID(sid),
		TargetUserID: target,
		TargetName:   targetName,
		Reason:       reason,
	})
}
