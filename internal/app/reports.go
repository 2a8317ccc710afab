package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dkeye/Sketch/internal/core"
	"github.com/dkeye/Sketch/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReportService stores player reports and runs the expulsion policy on the new total.
type ReportService struct {
	Store  core.ReportStore
	Policy Policy
	now    func() time.Time
}

func NewReportService(store core.ReportStore, policy Policy) *ReportService {
	return &ReportService{Store: store, Policy: policy, now: time.Now}
}

// FileReport returns the number of reports now held against the target.
func (s *ReportService) FileReport(ctx context.Context, r core.Report) (int, error) {
	r.TargetName = strings.TrimSpace(r.TargetName)
	if err := domain.Validator().Struct(r); err != nil {
		return 0, domain.Faultf(domain.KindValidation, "invalid report: %v", err)
	}
	if r.ReporterID == r.TargetUserID {
		return 0, domain.NewFault(domain.KindValidation, "players cannot report themselves")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = s.now().UTC()

	if err := s.Store.AddReport(ctx, r); err != nil {
		return 0, fmt.Errorf("add report: %w", err)
	}
	total, err := s.Store.CountReportsAgainst(ctx, r.TargetUserID)
	if err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}

	log.Info().Str("module", "app.reports").Str("target", string(r.TargetUserID)).Int("total", total).Msg("report filed")
	if s.Policy != nil {
		s.Policy.ApplyIfThresholdReached(r.TargetUserID, r.TargetName, total)
	}
	return total, nil
}
