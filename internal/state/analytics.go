package state

import (
	"fmt"
	"slices"
	"sync"

	"budgetwise/internal/core"
	"budgetwise/internal/log"
	"budgetwise/internal/storage"
)

// Analytics owns derived data: insights, spending patterns, predictions and
// the report history. It never owns ledger or budget records.
type Analytics struct {
	mu          sync.RWMutex
	insights    []core.Insight
	patterns    core.SpendingPattern
	predictions core.Prediction
	reports     core.ReportHistory
	deps        Deps
}

func NewAnalytics(deps Deps) *Analytics {
	deps = deps.withDefaults()
	deps.Logger = deps.Logger.WithComponent(log.ComponentAnalytics)
	a := &Analytics{deps: deps}
	a.reset()
	return a
}

func (a *Analytics) reset() {
	a.insights = []core.Insight{}
	a.patterns = core.SpendingPattern{
		WeeklyTrends:   []core.WeekAmount{},
		MonthlyTrends:  []core.MonthAmount{},
		CategoryTrends: []core.CategoryShare{},
	}
	a.predictions = core.Prediction{BudgetRisk: []core.BudgetRisk{}}
	a.reports = core.ReportHistory{
		Weekly:  []core.Report{},
		Monthly: []core.Report{},
		Yearly:  []core.Report{},
	}
}

// AddInsight stamps and prepends a new, undismissed insight.
func (a *Analytics) AddInsight(in core.InsightInput) core.Insight {
	ins := core.Insight{
		ID:          a.deps.NewID(),
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		Action:      in.Action,
		Category:    in.Category,
		Date:        a.deps.Now().UTC(),
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.insights = slices.Insert(a.insights, 0, ins)
	a.deps.Persister.Persist(storage.KeyInsights, slices.Clone(a.insights))
	return ins
}

// DismissInsight soft-deletes an insight.
func (a *Analytics) DismissInsight(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := slices.IndexFunc(a.insights, func(x core.Insight) bool { return x.ID == id })
	if i < 0 {
		return false
	}
	a.insights[i].Dismissed = true
	a.deps.Persister.Persist(storage.KeyInsights, slices.Clone(a.insights))
	return true
}

// PurgeDismissed removes dismissed insights and returns how many went.
func (a *Analytics) PurgeDismissed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	before := len(a.insights)
	a.insights = slices.DeleteFunc(a.insights, func(x core.Insight) bool { return x.Dismissed })
	a.deps.Persister.Persist(storage.KeyInsights, slices.Clone(a.insights))
	return before - len(a.insights)
}

func (a *Analytics) Insights() []core.Insight {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.insights)
}

func (a *Analytics) ActiveInsights() []core.Insight {
	return a.filterInsights(func(x core.Insight) bool { return !x.Dismissed })
}

// InsightsByType lists active insights of one type.
func (a *Analytics) InsightsByType(t core.InsightType) []core.Insight {
	return a.filterInsights(func(x core.Insight) bool { return !x.Dismissed && x.Type == t })
}

func (a *Analytics) filterInsights(keep func(core.Insight) bool) []core.Insight {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := []core.Insight{}
	for _, x := range a.insights {
		if keep(x) {
			out = append(out, x)
		}
	}
	return out
}

// UpdateSpendingPatterns merges the patch and stamps LastUpdated.
func (a *Analytics) UpdateSpendingPatterns(p core.SpendingPatternPatch) core.SpendingPattern {
	now := a.deps.Now().UTC()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.patterns = a.patterns.Apply(p)
	a.patterns.LastUpdated = &now
	a.deps.Persister.Persist(storage.KeySpendingPatterns, a.patterns)
	return a.patterns
}

// UpdatePredictions merges the patch and stamps LastUpdated.
func (a *Analytics) UpdatePredictions(p core.PredictionPatch) core.Prediction {
	now := a.deps.Now().UTC()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.predictions = a.predictions.Apply(p)
	a.predictions.LastUpdated = &now
	a.deps.Persister.Persist(storage.KeyPredictions, a.predictions)
	return a.predictions
}

func (a *Analytics) SpendingPatterns() core.SpendingPattern {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.patterns
}

func (a *Analytics) Predictions() core.Prediction {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.predictions
}

// GenerateReport stamps the report, prepends it to its period's history and
// drops the oldest entries beyond the period's retention.
func (a *Analytics) GenerateReport(in core.ReportInput) (core.Report, error) {
	if !in.Period.IsValid() {
		return core.Report{}, fmt.Errorf("%w: %q", core.ErrInvalidPeriod, in.Period)
	}
	if in.TopCategories == nil {
		in.TopCategories = []core.CategoryAmount{}
	}
	report := in.WithID(a.deps.NewID(), a.deps.Now().UTC())

	a.mu.Lock()
	defer a.mu.Unlock()
	list := a.reports.List(in.Period)
	*list = slices.Insert(*list, 0, report)
	if keep := in.Period.ReportRetention(); len(*list) > keep {
		*list = slices.Clone((*list)[:keep])
	}
	a.deps.Persister.Persist(storage.KeyReports, a.reportsSnapshot())
	a.deps.Logger.Info("Report generated", log.FieldOperation, log.OpReport, log.FieldPeriod, in.Period, log.FieldID, report.ID)
	return report, nil
}

// Reports returns a period's history, newest first. Unknown periods yield an
// empty list.
func (a *Analytics) Reports(p core.Period) []core.Report {
	a.mu.RLock()
	defer a.mu.RUnlock()
	list := a.reports.List(p)
	if list == nil {
		return []core.Report{}
	}
	return slices.Clone(*list)
}

func (a *Analytics) LatestReport(p core.Period) (core.Report, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	list := a.reports.List(p)
	if list == nil || len(*list) == 0 {
		return core.Report{}, false
	}
	return (*list)[0], true
}

func (a *Analytics) ReportHistory() core.ReportHistory {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.reportsSnapshot()
}

func (a *Analytics) reportsSnapshot() core.ReportHistory {
	return core.ReportHistory{
		Weekly:  slices.Clone(a.reports.Weekly),
		Monthly: slices.Clone(a.reports.Monthly),
		Yearly:  slices.Clone(a.reports.Yearly),
	}
}

// ClearAll resets every derived cache and persists the empty state.
func (a *Analytics) ClearAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
	a.deps.Persister.Persist(storage.KeyInsights, a.insights)
	a.deps.Persister.Persist(storage.KeySpendingPatterns, a.patterns)
	a.deps.Persister.Persist(storage.KeyPredictions, a.predictions)
	a.deps.Persister.Persist(storage.KeyReports, a.reportsSnapshot())
}

func (a *Analytics) hydrate(insights []core.Insight, patterns *core.SpendingPattern, predictions *core.Prediction, reports *core.ReportHistory) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if insights != nil {
		a.insights = insights
	}
	if patterns != nil {
		a.patterns = *patterns
	}
	if predictions != nil {
		a.predictions = *predictions
	}
	if reports != nil {
		a.reports = *reports
	}
}
