package services

import (
	"context"
	"fmt"
	"time"

	"budgetwise/internal/analysis"
	"budgetwise/internal/core"
	"budgetwise/internal/log"
	"budgetwise/internal/sheets"
	"budgetwise/internal/state"
)

// FinanceService orchestrates operations that span more than one store:
// budget spending follows the ledger, analytics are derived from both, and
// generated reports are exported when an exporter is configured.
type FinanceService struct {
	app      *state.App
	exporter sheets.ReportExporter
	logger   *log.Logger
	now      func() time.Time
}

type Option func(*FinanceService)

// WithExporter sends every generated report to e. Export failures are logged.
func WithExporter(e sheets.ReportExporter) Option {
	return func(s *FinanceService) { s.exporter = e }
}

func WithLogger(l *log.Logger) Option {
	return func(s *FinanceService) { s.logger = l.WithComponent(log.ComponentFinance) }
}

func WithClock(now func() time.Time) Option {
	return func(s *FinanceService) { s.now = now }
}

func NewFinanceService(app *state.App, opts ...Option) *FinanceService {
	s := &FinanceService{
		app:    app,
		logger: log.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FinanceService) App() *state.App {
	return s.app
}

// RecordTransaction adds a transaction and charges expenses to the budgets
// of its category.
func (s *FinanceService) RecordTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	in.Amount = in.Amount.Abs()
	if err := in.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("invalid transaction: %w", err)
	}

	tx := s.app.Transactions.Add(in)
	if tx.Type == core.Expense {
		n := s.app.Budgets.AccumulateSpent(tx.Category, tx.Amount)
		s.logger.DebugContext(ctx, "Expense charged to budgets", log.FieldID, tx.ID, log.FieldCategory, tx.Category, log.FieldCount, n)
	}
	return tx, nil
}

// EditTransaction replaces a transaction, reversing the old expense and
// charging the new one. It returns false for an unknown id.
func (s *FinanceService) EditTransaction(ctx context.Context, tx core.Transaction) (bool, error) {
	tx.Amount = tx.Amount.Abs()
	if err := tx.Validate(); err != nil {
		return false, fmt.Errorf("invalid transaction: %w", err)
	}

	old, ok := s.app.Transactions.Get(tx.ID)
	if !ok {
		return false, nil
	}
	if !s.app.Transactions.Update(tx) {
		return false, nil
	}

	if old.Type == core.Expense {
		s.app.Budgets.AccumulateSpent(old.Category, old.Amount.Neg())
	}
	if tx.Type == core.Expense {
		s.app.Budgets.AccumulateSpent(tx.Category, tx.Amount)
	}
	s.logger.DebugContext(ctx, "Transaction edited", log.FieldID, tx.ID)
	return true, nil
}

// RemoveTransaction deletes a transaction and reverses its expense.
func (s *FinanceService) RemoveTransaction(ctx context.Context, id string) bool {
	old, ok := s.app.Transactions.Get(id)
	if !ok || !s.app.Transactions.Delete(id) {
		return false
	}
	if old.Type == core.Expense {
		s.app.Budgets.AccumulateSpent(old.Category, old.Amount.Neg())
	}
	s.logger.DebugContext(ctx, "Transaction removed", log.FieldID, id)
	return true
}

// RefreshResult is what a RefreshAnalytics run produced.
type RefreshResult struct {
	Patterns    core.SpendingPattern `json:"spendingPatterns"`
	Predictions core.Prediction      `json:"predictions"`
	NewInsights []core.Insight       `json:"newInsights"`
}

// RefreshAnalytics recomputes trends and predictions from the current ledger
// and budgets and records derived insights. An insight with the same type,
// title and category as one already recorded this calendar month is skipped,
// dismissed ones included.
func (s *FinanceService) RefreshAnalytics(ctx context.Context) RefreshResult {
	now := s.now()
	txs := s.app.Transactions.All()
	budgets := s.app.Budgets.All()

	res := RefreshResult{
		Patterns:    s.app.Analytics.UpdateSpendingPatterns(analysis.Trends(txs, now)),
		Predictions: s.app.Analytics.UpdatePredictions(analysis.Predict(txs, budgets, now)),
		NewInsights: []core.Insight{},
	}

	seen := map[string]bool{}
	for _, in := range s.app.Analytics.Insights() {
		if sameMonth(in.Date, now) {
			seen[insightKey(in.Type, in.Title, in.Category)] = true
		}
	}
	for _, in := range analysis.Insights(txs, budgets, now) {
		key := insightKey(in.Type, in.Title, in.Category)
		if seen[key] {
			continue
		}
		seen[key] = true
		res.NewInsights = append(res.NewInsights, s.app.Analytics.AddInsight(in))
	}

	s.logger.InfoContext(ctx, "Analytics refreshed", log.FieldCount, len(res.NewInsights))
	return res
}

func insightKey(t core.InsightType, title, category string) string {
	return string(t) + "\x00" + title + "\x00" + category
}

func sameMonth(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// GenerateReport summarizes the last complete period before ref, stores the
// report and exports it when an exporter is configured.
func (s *FinanceService) GenerateReport(ctx context.Context, period core.Period, ref time.Time) (core.Report, error) {
	start, end, err := analysis.ReportWindow(period, ref)
	if err != nil {
		return core.Report{}, err
	}

	report, err := s.app.Analytics.GenerateReport(analysis.Summarize(period, s.app.Transactions.All(), start, end))
	if err != nil {
		return core.Report{}, err
	}

	if s.exporter != nil {
		rowRef, err := s.exporter.ExportReport(ctx, report)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to export report",
				log.FieldOperation, log.OpExport, log.FieldID, report.ID, log.FieldError, err)
		} else {
			s.logger.InfoContext(ctx, "Report exported",
				log.FieldOperation, log.OpExport, log.FieldID, report.ID, "ref", rowRef)
		}
	}
	return report, nil
}

// ScheduledReport generates the report for period unless the matching
// notification preference is off. Yearly reports are always generated.
func (s *FinanceService) ScheduledReport(ctx context.Context, period core.Period) (core.Report, bool, error) {
	n := s.app.Settings.Notifications()
	switch {
	case period == core.Weekly && !n.WeeklyReports,
		period == core.Monthly && !n.MonthlyReports:
		s.logger.DebugContext(ctx, "Scheduled report disabled", log.FieldPeriod, period)
		return core.Report{}, false, nil
	}
	report, err := s.GenerateReport(ctx, period, s.now())
	if err != nil {
		return core.Report{}, false, err
	}
	return report, true, nil
}

// RolloverExpired starts a new period for every budget whose period ended
// before today.
func (s *FinanceService) RolloverExpired(ctx context.Context) []string {
	ids := s.app.Budgets.RolloverExpired(s.now())
	if len(ids) > 0 {
		s.logger.InfoContext(ctx, "Expired budgets rolled over", log.FieldOperation, log.OpRollover, log.FieldCount, len(ids))
	}
	return ids
}
