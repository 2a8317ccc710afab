package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Sketch/internal/adapters/broker"
	router "github.com/dkeye/Sketch/internal/adapters/http"
	"github.com/dkeye/Sketch/internal/adapters/mail"
	wsignal "github.com/dkeye/Sketch/internal/adapters/signal"
	"github.com/dkeye/Sketch/internal/adapters/store"
	"github.com/dkeye/Sketch/internal/app"
	"github.com/dkeye/Sketch/internal/app/orch"
	"github.com/dkeye/Sketch/internal/config"
	"github.com/dkeye/Sketch/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.Server.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	reports, closeStore, err := store.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open report store")
	}

	var sender core.MailSender = mail.LogSender{}
	if cfg.SMTP.Host != "" {
		sender = mail.NewSMTPSender(cfg.SMTP)
	}

	directory := core.NewRoomDirectoryNotifier()
	rooms := app.NewRoomRegistry(app.NewCodeGenerator(), directory)
	o := &orch.Orchestrator{
		Sessions:  app.NewSessions(),
		Rooms:     rooms,
		Directory: directory,
		Invitations: app.NewInvitationManager(rooms, sender, app.InvitationConfig{
			Secret:  []byte(cfg.Server.Secret),
			BaseURL: cfg.Invite.BaseURL,
			TTL:     cfg.Invite.TokenTTL,
		}),
		Reports: app.NewReportService(reports, app.NewExpulsionPolicy(rooms, cfg.Rooms.ReportThreshold)),
	}

	if cfg.NATS.URL != "" {
		nc, err := broker.Connect(cfg.NATS.URL, "sketch-server")
		if err != nil {
			log.Error().Err(err).Msg("lobby mirroring disabled")
		} else {
			defer nc.Drain()
			o.Observe(broker.NewLobbyMirror(nc, cfg.NATS.Subject))
			log.Info().Str("subject", cfg.NATS.Subject).Msg("mirroring room list to nats")
		}
	}

	ws := wsignal.NewSignalWSController(o,
		wsignal.NewRoomRateLimiter(cfg.Invite.RateLimit, cfg.Invite.RateInterval),
		wsignal.Options{ReadLimit: cfg.Server.ReadLimit, PingPeriod: cfg.Server.PingPeriod},
	)
	r := router.SetupRouter(ctx, cfg, o, ws)
	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Sketch server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := closeStore(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("closing report store")
	}
	log.Info().Msg("Server exited gracefully")
}
