package analysis

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"budgetwise/internal/core"
)

// HistoryMonths is the number of complete months a prediction looks at.
const HistoryMonths = 6

// Predict fits a least-squares line through the expense totals of the last
// HistoryMonths complete months and evaluates it at the coming month. The
// savings projection is mean monthly income over the same months minus the
// predicted spending.
func Predict(txs []core.Transaction, budgets []core.Budget, now time.Time) core.PredictionPatch {
	xs := make([]float64, HistoryMonths)
	expenses := make([]float64, HistoryMonths)
	var income core.Money
	for i := 0; i < HistoryMonths; i++ {
		start, end := monthBounds(now, i-HistoryMonths)
		xs[i] = float64(i)
		expenses[i] = float64(sumType(txs, core.Expense, start, end).Cents)
		income = income.Add(sumType(txs, core.Income, start, end))
	}

	// x = HistoryMonths is the current month; the coming month is one after.
	alpha, beta := stat.LinearRegression(xs, expenses, nil, false)
	predicted := alpha + beta*float64(HistoryMonths+1)
	if math.IsNaN(predicted) || predicted < 0 {
		predicted = 0
	}
	next := core.Money{Cents: int64(math.Round(predicted))}

	meanIncome := core.Money{Cents: int64(math.Round(float64(income.Cents) / HistoryMonths))}
	savings := meanIncome.Sub(next)

	risks := BudgetRisks(budgets, now)

	return core.PredictionPatch{
		NextMonthSpending: &next,
		BudgetRisk:        &risks,
		SavingsProjection: &savings,
	}
}

// BudgetRisks projects each budget's spending to the end of its period at the
// pace seen so far. Projected spend at or above the cap is high risk, at or
// above the alert threshold medium, otherwise low.
func BudgetRisks(budgets []core.Budget, now time.Time) []core.BudgetRisk {
	today := core.DateOf(now)
	risks := make([]core.BudgetRisk, 0, len(budgets))
	for _, b := range budgets {
		if b.BudgetAmount.Cents <= 0 {
			continue
		}
		projected := float64(b.SpentAmount.Cents) / elapsedFraction(b, today)
		ratio := projected / float64(b.BudgetAmount.Cents) * 100

		level := core.RiskLow
		switch {
		case ratio >= 100:
			level = core.RiskHigh
		case ratio >= b.AlertThreshold:
			level = core.RiskMedium
		}
		risks = append(risks, core.BudgetRisk{Category: b.Category, RiskLevel: level})
	}
	return risks
}

// elapsedFraction is the share of the budget period that has passed, in
// (0, 1]. Periods without usable dates count as fully elapsed.
func elapsedFraction(b core.Budget, today core.Date) float64 {
	if b.StartDate.IsZero() || b.EndDate.IsZero() || !b.EndDate.After(b.StartDate.Time) {
		return 1
	}
	total := b.EndDate.Sub(b.StartDate.Time).Hours()/24 + 1
	passed := today.Sub(b.StartDate.Time).Hours()/24 + 1
	switch {
	case passed <= 0:
		return 1 / total
	case passed >= total:
		return 1
	}
	return passed / total
}
