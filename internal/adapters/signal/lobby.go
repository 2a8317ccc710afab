package signal

import (
	"context"
	"time"

	"github.com/dkeye/Sketch/internal/app"
	"github.com/dkeye/Sketch/internal/domain"
)

const inviteTimeout = 15 * time.Second

func (ctl *SignalWSController) handleList(conn *WsSignalConn) {
	rooms := ctl.Orch.ListRooms()
	if rooms == nil {
		rooms = []domain.RoomSnapshot{}
	}
	ctl.sendJSON(conn, struct {
		Type  string                `json:"type"`
		Rooms []domain.RoomSnapshot `json:"rooms"`
	}{
		Type:  "room_list",
		Rooms: rooms,
	})
}

func (ctl *SignalWSController) handleSubscribeRooms(sid app.SessionID, conn *WsSignalConn) {
	id, err := ctl.Orch.SubscribeRooms(sid)
	if err != nil {
		ctl.sendError(conn, "subscribe_rooms", err)
		return
	}
	ctl.sendJSON(conn, map[string]any{
		"type":         "subscribed",
		"subscription": id,
	})
}

func (ctl *SignalWSController) handleUnsubscribeRooms(sid app.SessionID, conn *WsSignalConn, data []byte) {
	var p struct {
		Type         string `json:"type"`
		Subscription string `json:"subscription"`
	}
	if !ctl.decode(conn, "unsubscribe_rooms", data, &p) {
		return
	}
	if err := ctl.Orch.UnsubscribeRooms(sid, p.Subscription); err != nil {
		ctl.sendError(conn, "unsubscribe_rooms", err)
		return
	}
	ctl.sendJSON(conn, map[string]any{
		"type":         "unsubscribed",
		"subscription": p.Subscription,
	})
}

func (ctl *SignalWSController) handleInvite(sid app.SessionID, conn *WsSignalConn, data []byte) {
	var p struct {
		Type  string `json:"type"`
		Code  string `json:"code"`
		Email string `json:"email"`
	}
	if !ctl.decode(conn, "invite", data, &p) {
		return
	}
	if ctl.Invites != nil && !ctl.Invites.Allow(domain.UserID(sid)) {
		ctl.sendError(conn, "invite", domain.NewFault(domain.KindResourceExhausted, "too many invitations, try again later"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), inviteTimeout)
	defer cancel()
	res := ctl.Orch.Invite(ctx, p.Code, p.Email)
	ctl.sendJSON(conn, struct {
		Type string `json:"type"`
		domain.Result
	}{
		Type:   "invite_result",
		Result: res,
	})
}
