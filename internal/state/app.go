package state

import (
	"context"

	"budgetwise/internal/core"
	"budgetwise/internal/log"
	"budgetwise/internal/storage"
)

// Loader reads persisted values. storage.Store satisfies it.
type Loader interface {
	Load(ctx context.Context, key string, dst any) bool
}

// App groups the four stores of one running session.
type App struct {
	Transactions *Ledger
	Budgets      *Registry
	Settings     *Settings
	Analytics    *Analytics
}

// NewApp builds empty stores with default settings.
func NewApp(deps Deps) *App {
	return &App{
		Transactions: NewLedger(deps),
		Budgets:      NewRegistry(deps),
		Settings:     NewSettings(deps),
		Analytics:    NewAnalytics(deps),
	}
}

// Load hydrates every store from persisted data without writing anything
// back. Missing or unreadable keys keep their defaults.
func (a *App) Load(ctx context.Context, src Loader) {
	logger := a.Transactions.deps.Logger.WithComponent(log.ComponentApp)
	loaded := 0

	var txs []core.Transaction
	if src.Load(ctx, storage.KeyTransactions, &txs) {
		a.Transactions.hydrate(txs)
		loaded++
	}

	var budgets []core.Budget
	if src.Load(ctx, storage.KeyBudgets, &budgets) {
		a.Budgets.hydrate(budgets)
		loaded++
	}

	// groups start from defaults so fields missing in stored data keep them
	settings := core.DefaultSettings()
	for key, dst := range map[string]any{
		GroupProfile:       &settings.Profile,
		GroupNotifications: &settings.Notifications,
		GroupSecurity:      &settings.Security,
		GroupAppearance:    &settings.Appearance,
		GroupPreferences:   &settings.Preferences,
	} {
		if src.Load(ctx, key, dst) {
			loaded++
		}
	}
	a.Settings.hydrate(settings)

	var (
		insights    []core.Insight
		patterns    *core.SpendingPattern
		predictions *core.Prediction
		reports     *core.ReportHistory
	)
	if src.Load(ctx, storage.KeyInsights, &insights) {
		loaded++
	}
	var p core.SpendingPattern
	if src.Load(ctx, storage.KeySpendingPatterns, &p) {
		patterns = &p
		loaded++
	}
	var pr core.Prediction
	if src.Load(ctx, storage.KeyPredictions, &pr) {
		if pr.BudgetRisk == nil {
			pr.BudgetRisk = []core.BudgetRisk{}
		}
		predictions = &pr
		loaded++
	}
	var rh core.ReportHistory
	if src.Load(ctx, storage.KeyReports, &rh) {
		for _, period := range []core.Period{core.Weekly, core.Monthly, core.Yearly} {
			if list := rh.List(period); *list == nil {
				*list = []core.Report{}
			}
		}
		reports = &rh
		loaded++
	}
	a.Analytics.hydrate(insights, patterns, predictions, reports)

	logger.InfoContext(ctx, "State loaded", log.FieldOperation, log.OpStartup, log.FieldCount, loaded)
}
