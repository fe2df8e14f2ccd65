package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"budgetwise/internal/core"
)

// Store keeps exported reports in memory. It stands in for Google Sheets in
// development and tests.
type Store struct {
	mu      sync.Mutex
	reports []core.Report
}

func New() *Store {
	return &Store{}
}

// ExportReport records the report and returns a synthetic row reference.
func (s *Store) ExportReport(_ context.Context, r core.Report) (string, error) {
	if r.ID == "" {
		return "", errors.New("report has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return fmt.Sprintf("mem:%d", len(s.reports)), nil
}

// Reports returns the exported reports in export order.
func (s *Store) Reports() []core.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Report(nil), s.reports...)
}
