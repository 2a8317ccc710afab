package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dkeye/Sketch/internal/core"
	"github.com/dkeye/Sketch/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

var ErrInvalidInvitation = domain.NewFault(domain.KindUnauthorized, "invalid or expired invitation")

// InviteClaims are carried by the join link of an invitation mail.
type InviteClaims struct {
	RoomCode string `json:"roomCode"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// RoomLookup resolves a live room.
type RoomLookup interface {
	Room(code string) (domain.RoomSnapshot, error)
}

type InvitationConfig struct {
	Secret  []byte
	BaseURL string
	TTL     time.Duration
}

// InvitationManager mails room invitations with a signed join link.
type InvitationManager struct {
	rooms RoomLookup
	mail  core.MailSender
	cfg   InvitationConfig
	now   func() time.Time
}

func NewInvitationManager(rooms RoomLookup, mail core.MailSender, cfg InvitationConfig) *InvitationManager {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &InvitationManager{rooms: rooms, mail: mail, cfg: cfg, now: time.Now}
}

// SendInvitation never returns transport errors; every outcome is a Result.
func (m *InvitationManager) SendInvitation(ctx context.Context, code, email string) domain.Result {
	code = NormalizeCode(code)
	email = strings.TrimSpace(email)
	if code == "" || email == "" {
		return domain.ResultOf(domain.NewFault(domain.KindValidation, "room code and email are required"))
	}
	if err := domain.Validator().Var(email, "email"); err != nil {
		return domain.ResultOf(domain.NewFault(domain.KindValidation, "invalid email address"))
	}

	room, err := m.rooms.Room(code)
	if err != nil {
		return domain.ResultOf(err)
	}

	link, err := m.joinLink(room.Code, email)
	if err != nil {
		log.Error().Err(err).Str("module", "app.invitation").Str("room", room.Code).Msg("sign invitation")
		return domain.ResultOf(err)
	}

	subject := fmt.Sprintf("%s invites you to a Sketch room", room.Creator)
	if err := m.mail.Send(ctx, email, subject, invitationBody(room, link)); err != nil {
		log.Warn().Err(err).Str("module", "app.invitation").Str("room", room.Code).Msg("invitation not delivered")
		return domain.ResultOf(domain.NewFault(domain.KindDeliveryFailed, "invitation could not be delivered"))
	}

	log.Info().Str("module", "app.invitation").Str("room", room.Code).Msg("invitation sent")
	return domain.ResultOf(nil)
}

// ValidateInvitation checks a join link token and returns its claims.
func (m *InvitationManager) ValidateInvitation(token string) (*InviteClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &InviteClaims{}, func(t *jwt.Token) (interface{}, error) {
		return m.cfg.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Debug().Str("module", "app.invitation").Msg("expired invitation")
		}
		return nil, ErrInvalidInvitation
	}
	claims, ok := parsed.Claims.(*InviteClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidInvitation
	}
	return claims, nil
}

func (m *InvitationManager) joinLink(code, email string) (string, error) {
	now := m.now()
	claims := &InviteClaims{
		RoomCode: code,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign invitation: %w", err)
	}
	q := url.Values{"code": {code}, "token": {signed}}
	return strings.TrimRight(m.cfg.BaseURL, "/") + "/join?" + q.Encode(), nil
}

func invitationBody(room domain.RoomSnapshot, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s created a room and wants you to play.\n\n", room.Creator)
	fmt.Fprintf(&b, "Room code: %s\n", room.Code)
	fmt.Fprintf(&b, "Rounds: %d, %d seconds each, %s difficulty\n", room.Config.Rounds, room.Config.SecondsPerRound, room.Config.Difficulty)
	fmt.Fprintf(&b, "Players: %d/%d\n\n", len(room.Players), domain.MaxPlayers)
	fmt.Fprintf(&b, "Join here: %s\n", link)
	return b.String()
}
