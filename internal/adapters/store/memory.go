package store

import (
	"context"
	"sync"

	"github.com/dkeye/Sketch/internal/core"
	"github.com/dkeye/Sketch/internal/domain"
)

// MemoryReportStore keeps reports for the life of the process.
type MemoryReportStore struct {
	mu      sync.RWMutex
	reports []core.Report
	counts  map[domain.UserID]int
}

func NewMemoryReportStore() *MemoryReportStore {
	return &MemoryReportStore{counts: make(map[domain.UserID]int)}
}

func (s *MemoryReportStore) AddReport(ctx context.Context, r core.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	s.counts[r.TargetUserID]++
	return nil
}

func (s *MemoryReportStore) CountReportsAgainst(ctx context.Context, userID domain.UserID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[userID], nil
}
