package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/Sketch/internal/config"
	"github.com/rs/zerolog/log"
	gomail "gopkg.in/mail.v2"
)

const dialTimeout = 10 * time.Second

// SMTPSender delivers plain-text mail through one SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.Timeout = dialTimeout
	return &SMTPSender{dialer: d, from: cfg.From}
}

func (s *SMTPSender) message(to, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return m
}

// Send gives up when ctx ends; the dial itself is bounded by the dialer timeout.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := s.message(to, subject, body)

	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", s.dialer.Host, err)
		}
		log.Debug().Str("module", "adapters.mail").Str("host", s.dialer.Host).Msg("mail sent")
		return nil
	}
}
