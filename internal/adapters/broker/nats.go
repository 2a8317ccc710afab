package broker

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Sketch/internal/core"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Publisher is the part of *nats.Conn the mirror needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Connect dials NATS and keeps reconnecting for the life of the process.
func Connect(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(
		url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Str("module", "adapters.broker").Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("module", "adapters.broker").Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return conn, nil
}

// LobbyMirror is a lobby observer that republishes every room list on a
// NATS subject for other processes.
type LobbyMirror struct {
	pub     Publisher
	subject string
}

func NewLobbyMirror(pub Publisher, subject string) *LobbyMirror {
	return &LobbyMirror{pub: pub, subject: subject}
}

// Send publishes the event. Only a closed connection ends the mirror; other
// publish failures (reconnecting, full reconnect buffer) skip this update and
// keep the subscription, since the next room list supersedes it.
func (m *LobbyMirror) Send(evt core.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = m.pub.Publish(m.subject, data)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, nats.ErrConnectionClosed):
		return fmt.Errorf("%w: publish %s: %v", core.ErrChannelDead, m.subject, err)
	default:
		log.Warn().Err(err).Str("module", "adapters.broker").Str("subject", m.subject).Msg("room list not mirrored")
		return nil
	}
}
