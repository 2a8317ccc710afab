//go:generate go run go.uber.org/mock/mockgen -source=interfaces.go -destination=../mocks/mock_collaborators.go -package=mocks
//go:generate go run go.uber.org/mock/mockgen -source=signal_iface.go -destination=../mocks/mock_channel.go -package=mocks
package core

import (
	"context"
	"time"

	"github.com/dkeye/Sketch/internal/domain"
)

// Report is one player reporting another.
type Report struct {
	ID           string        `json:"id" bson:"_id"`
	ReporterID   domain.UserID `json:"reporterId" bson:"reporterId" validate:"required,max=36"`
	TargetUserID domain.UserID `json:"targetUserId" bson:"targetUserId" validate:"required,max=36"`
	TargetName   string        `json:"targetName" bson:"targetName" validate:"required,max=36"`
	Reason       string        `json:"reason" bson:"reason" validate:"max=280"`
	CreatedAt    time.Time     `json:"createdAt" bson:"createdAt"`
}

// ReportStore persists player reports.
type ReportStore interface {
	AddReport(ctx context.Context, r Report) error
	CountReportsAgainst(ctx context.Context, userID domain.UserID) (int, error)
}

// MailSender delivers one plain-text message.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}
