package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/Sketch/internal/app"
	"github.com/dkeye/Sketch/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid app.SessionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		cancel()
		c.Close()
		ctl.Orch.OnDisconnect(sid, c)
	}()

	pongWait := ctl.opts.PingPeriod * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleSignal(sid, c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(sid app.SessionID, c *WsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, "", domain.NewFault(domain.KindValidation, "bad_payload"))
		return
	}

	switch env.Type {
	case "create":
		ctl.handleCreate(sid, c, data)
	case "join":
		ctl.handleJoin(sid, c, data)
	case "leave":
		ctl.handleLeave(sid, c, data)
	case "expel":
		ctl.handleExpel(sid, c, data)
	case "start":
		ctl.handleStart(sid, c, data)
	case "list":
		ctl.handleList(c)
	case "subscribe_rooms":
		ctl.handleSubscribeRooms(sid, c)
	case "unsubscribe_rooms":
		ctl.handleUnsubscribeRooms(sid, c, data)
	case "invite":
		ctl.handleInvite(sid, c, data)
	case "ping":
		ctl.handlePing(c)
	case "rename":
		ctl.handleRename(sid, c, data)
	case "whoami":
		ctl.handleWhoAmI(sid, c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.sendError(c, env.Type, domain.NewFault(domain.KindValidation, "unknown_type"))
	}
}

// decode reports a bad payload to the client itself.
func (ctl *SignalWSController) decode(c *WsSignalConn, op string, data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("op", op).Msg("bad payload")
		ctl.sendError(c, op, domain.NewFault(domain.KindValidation, "bad_payload"))
		return false
	}
	return true
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, op string, err error) {
	res := domain.ResultOf(err)
	ctl.sendJSON(c, struct {
		Type    string           `json:"type"`
		Op      string           `json:"op,omitempty"`
		Kind    domain.FaultKind `json:"kind"`
		Message string           `json:"error"`
	}{
		Type:    "error",
		Op:      op,
		Kind:    res.Kind,
		Message: res.Message,
	})
}
