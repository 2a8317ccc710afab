package signal

import (
	"github.com/dkeye/Sketch/internal/app"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleRename(
	sid app.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	type renamePayload struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	var p renamePayload
	if !ctl.decode(conn, "rename", data, &p) {
		return
	}

	name, err := ctl.Orch.Rename(sid, p.Name)
	if err != nil {
		ctl.sendError(conn, "rename", err)
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("name", name).Msg("rename")
	ctl.handleWhoAmI(sid, conn)
}

func (ctl *SignalWSController) handleWhoAmI(
	sid app.SessionID,
	conn *WsSignalConn,
) {
	user, rooms := ctl.Orch.WhoAmI(sid)

	resp := struct {
		Type     string   `json:"type"`
		Username string   `json:"username"`
		Rooms    []string `json:"rooms,omitempty"`
	}{
		Type:     "whoami",
		Username: user.Username,
		Rooms:    rooms,
	}
	ctl.sendJSON(conn, resp)
}
