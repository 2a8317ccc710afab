package mail

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogSender writes mail to the log instead of sending it. Used when no SMTP
// host is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, subject, body string) error {
	log.Info().Str("module", "adapters.mail").Str("to", to).Str("subject", subject).Str("body", body).Msg("mail not sent, no smtp host")
	return nil
}
