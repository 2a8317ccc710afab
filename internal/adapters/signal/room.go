package signal

import (
	"github.com/dkeye/Sketch/internal/app"
	"github.com/dkeye/Sketch/internal/domain"
	"github.com/rs/zerolog/log"
)

type roomState struct {
	Type string              `json:"type"`
	Room domain.RoomSnapshot `json:"room"`
}

type codePayload struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

func (ctl *SignalWSController) handleCreate(
	sid app.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	type createPayload struct {
		Type string `json:"type"`
		domain.RoomConfig
	}
	var p createPayload
	if !ctl.decode(conn, "create", data, &p) {
		return
	}

	snap, err := ctl.Orch.CreateRoom(sid, p.RoomConfig)
	if err != nil {
		ctl.sendError(conn, "create", err)
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", snap.Code).Msg("create")
	ctl.sendJSON(conn, roomState{Type: "room_created", Room: snap})
}

func (ctl *SignalWSController) handleJoin(
	sid app.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p codePayload
	if !ctl.decode(conn, "join", data, &p) {
		return
	}

	snap, err := ctl.Orch.JoinRoom(sid, p.Code)
	if err != nil {
		ctl.sendError(conn, "join", err)
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", snap.Code).Msg("join")
	ctl.sendJSON(conn, roomState{Type: "room_state", Room: snap})
}

// handleLeave leaves one room; the connection stays open.
func (ctl *SignalWSController) handleLeave(
	sid app.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p codePayload
	if !ctl.decode(conn, "leave", data, &p) {
		return
	}

	if err := ctl.Orch.LeaveRoom(sid, p.Code); err != nil {
		ctl.sendError(conn, "leave", err)
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.Code).Msg("leave")
	ctl.sendJSON(conn, map[string]any{
		"type": "left",
		"code": app.NormalizeCode(p.Code),
	})
}

func (ctl *SignalWSController) handleExpel(
	sid app.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	type expelPayload struct {
		Type   string `json:"type"`
		Code   string `json:"code"`
		Player string `json:"player"`
	}
	var p expelPayload
	if !ctl.decode(conn, "expel", data, &p) {
		return
	}

	if err := ctl.Orch.Expel(sid, p.Code, p.Player); err != nil {
		ctl.sendError(conn, "expel", err)
		return
	}
	ctl.sendJSON(conn, map[string]any{
		"type":   "expelled",
		"code":   app.NormalizeCode(p.Code),
		"player": p.Player,
	})
}

func (ctl *SignalWSController) handleStart(
	sid app.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p codePayload
	if !ctl.decode(conn, "start", data, &p) {
		return
	}

	snap, err := ctl.Orch.Start(sid, p.Code)
	if err != nil {
		ctl.sendError(conn, "start", err)
		return
	}
	ctl.sendJSON(conn, roomState{Type: "room_started", Room: snap})
}
