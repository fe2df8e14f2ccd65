package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetwise/internal/core"
)

func expense(category string, cents int64, date core.Date) core.Transaction {
	return core.Transaction{Description: category, Amount: core.Money{Cents: cents}, Type: core.Expense, Category: category, Date: date}
}

func income(cents int64, date core.Date) core.Transaction {
	return core.Transaction{Description: "Salary", Amount: core.Money{Cents: cents}, Type: core.Income, Category: "Salary", Date: date}
}

func TestReportWindow(t *testing.T) {
	ref := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		period core.Period
		start  string
		end    string
	}{
		{core.Weekly, "2024-03-08", "2024-03-14"},
		{core.Monthly, "2024-02-01", "2024-02-29"},
		{core.Yearly, "2023-01-01", "2023-12-31"},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			start, end, err := ReportWindow(tt.period, ref)
			require.NoError(t, err)
			assert.Equal(t, tt.start, start.String())
			assert.Equal(t, tt.end, end.String())
		})
	}

	t.Run("january rolls back a year", func(t *testing.T) {
		start, end, err := ReportWindow(core.Monthly, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, "2023-12-01", start.String())
		assert.Equal(t, "2023-12-31", end.String())
	})

	t.Run("unknown period", func(t *testing.T) {
		_, _, err := ReportWindow("daily", ref)
		assert.ErrorIs(t, err, core.ErrInvalidPeriod)
	})
}

func TestSummarize(t *testing.T) {
	start, end := core.NewDate(2024, 2, 1), core.NewDate(2024, 2, 29)
	txs := []core.Transaction{
		income(300000, core.NewDate(2024, 2, 1)),
		expense("Food", 4000, core.NewDate(2024, 2, 3)),
		expense("Food", 6000, core.NewDate(2024, 2, 29)),
		expense("Rent", 90000, core.NewDate(2024, 2, 5)),
		expense("Fun", 1000, core.NewDate(2024, 2, 6)),
		expense("Gifts", 1000, core.NewDate(2024, 2, 7)),
		expense("Health", 500, core.NewDate(2024, 2, 8)),
		expense("Travel", 200, core.NewDate(2024, 2, 9)),
		expense("Food", 99999, core.NewDate(2024, 3, 1)),
	}

	got := Summarize(core.Monthly, txs, start, end)

	assert.Equal(t, core.Monthly, got.Period)
	assert.Equal(t, int64(300000), got.TotalIncome.Cents)
	assert.Equal(t, int64(102700), got.TotalExpenses.Cents)
	assert.Equal(t, int64(197300), got.NetAmount.Cents)
	require.Len(t, got.TopCategories, TopCategoryCount)
	assert.Equal(t, []string{"Rent", "Food", "Fun", "Gifts", "Health"}, categoryNames(got.TopCategories))
}

func categoryNames(in []core.CategoryAmount) []string {
	out := make([]string, len(in))
	for i, c := range in {
		out[i] = c.Category
	}
	return out
}

func TestTrends(t *testing.T) {
	now := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		expense("Food", 10000, core.NewDate(2024, 3, 20)),
		expense("Rent", 20000, core.NewDate(2024, 3, 13)),
		expense("Food", 5000, core.NewDate(2024, 2, 10)),
		income(500000, core.NewDate(2024, 3, 1)),
	}

	patch := Trends(txs, now)

	require.NotNil(t, patch.WeeklyTrends)
	weekly := *patch.WeeklyTrends
	require.Len(t, weekly, 4)
	assert.Equal(t, "Week 1", weekly[0].Week)
	assert.Equal(t, "Week 4", weekly[3].Week)
	assert.Equal(t, int64(10000), weekly[3].Amount.Cents)
	assert.Equal(t, int64(20000), weekly[2].Amount.Cents)

	require.NotNil(t, patch.MonthlyTrends)
	monthly := *patch.MonthlyTrends
	require.Len(t, monthly, 6)
	labels := make([]string, len(monthly))
	for i, m := range monthly {
		labels[i] = m.Month
	}
	assert.Equal(t, []string{"Oct", "Nov", "Dec", "Jan", "Feb", "Mar"}, labels)
	assert.Equal(t, int64(5000), monthly[4].Amount.Cents)
	assert.Equal(t, int64(30000), monthly[5].Amount.Cents)

	require.NotNil(t, patch.CategoryTrends)
	shares := *patch.CategoryTrends
	require.Len(t, shares, 2)
	assert.Equal(t, core.CategoryShare{Category: "Rent", Amount: core.Money{Cents: 20000}, Percentage: 67}, shares[0])
	assert.Equal(t, core.CategoryShare{Category: "Food", Amount: core.Money{Cents: 10000}, Percentage: 33}, shares[1])
}

func TestCategorySharesEmpty(t *testing.T) {
	shares := CategoryShares(nil, core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31))
	assert.Empty(t, shares)
}

func TestPredict(t *testing.T) {
	now := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
	var txs []core.Transaction
	for m := 1; m <= 6; m++ {
		txs = append(txs,
			expense("Food", int64(m*10000), core.NewDate(2024, m, 10)),
			income(100000, core.NewDate(2024, m, 1)),
		)
	}
	// current month is not part of the history
	txs = append(txs, expense("Food", 999999, core.NewDate(2024, 7, 2)))

	budgets := []core.Budget{
		{Category: "Food", BudgetAmount: core.Money{Cents: 1000}, SpentAmount: core.Money{Cents: 500}, Period: core.Monthly,
			StartDate: core.NewDate(2024, 7, 1), EndDate: core.NewDate(2024, 7, 31), AlertThreshold: 80},
		{Category: "Fun", BudgetAmount: core.Money{Cents: 1000}, SpentAmount: core.Money{Cents: 400}, Period: core.Monthly,
			StartDate: core.NewDate(2024, 7, 1), EndDate: core.NewDate(2024, 7, 31), AlertThreshold: 80},
		{Category: "Gifts", BudgetAmount: core.Money{Cents: 1000}, SpentAmount: core.Money{Cents: 100}, Period: core.Monthly,
			StartDate: core.NewDate(2024, 7, 1), EndDate: core.NewDate(2024, 7, 31), AlertThreshold: 80},
	}

	patch := Predict(txs, budgets, now)

	require.NotNil(t, patch.NextMonthSpending)
	assert.Equal(t, int64(80000), patch.NextMonthSpending.Cents)
	require.NotNil(t, patch.SavingsProjection)
	assert.Equal(t, int64(20000), patch.SavingsProjection.Cents)
	require.NotNil(t, patch.BudgetRisk)
	assert.Equal(t, []core.BudgetRisk{
		{Category: "Food", RiskLevel: core.RiskHigh},
		{Category: "Fun", RiskLevel: core.RiskMedium},
		{Category: "Gifts", RiskLevel: core.RiskLow},
	}, *patch.BudgetRisk)
}

func TestPredictClampsAtZero(t *testing.T) {
	now := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		expense("Food", 100000, core.NewDate(2024, 1, 5)),
		expense("Food", 10, core.NewDate(2024, 6, 5)),
	}

	patch := Predict(txs, nil, now)

	assert.Equal(t, int64(0), patch.NextMonthSpending.Cents)
	assert.Equal(t, int64(0), patch.SavingsProjection.Cents)
	assert.Empty(t, *patch.BudgetRisk)
}

func TestBudgetRisksWithoutDates(t *testing.T) {
	risks := BudgetRisks([]core.Budget{
		{Category: "Food", BudgetAmount: core.Money{Cents: 1000}, SpentAmount: core.Money{Cents: 900}, AlertThreshold: 80},
		{Category: "Empty", AlertThreshold: 80},
	}, time.Now())

	assert.Equal(t, []core.BudgetRisk{{Category: "Food", RiskLevel: core.RiskMedium}}, risks)
}

func TestInsights(t *testing.T) {
	now := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
	budgets := []core.Budget{
		{Category: "Transport", BudgetAmount: core.Money{Cents: 10000}, SpentAmount: core.Money{Cents: 8500}, Period: core.Monthly, AlertThreshold: 80},
		{Category: "Food", BudgetAmount: core.Money{Cents: 10000}, SpentAmount: core.Money{Cents: 15000}, Period: core.Monthly, AlertThreshold: 80},
		{Category: "Rent", BudgetAmount: core.Money{Cents: 10000}, SpentAmount: core.Money{Cents: 1000}, Period: core.Monthly, AlertThreshold: 80},
	}
	txs := []core.Transaction{
		expense("Food", 10000, core.NewDate(2024, 6, 10)),
		expense("Food", 15000, core.NewDate(2024, 7, 10)),
		expense("Rent", 10000, core.NewDate(2024, 6, 1)),
		expense("Rent", 10500, core.NewDate(2024, 7, 1)),
		income(100000, core.NewDate(2024, 7, 1)),
	}

	got := Insights(txs, budgets, now)

	require.Len(t, got, 4)
	assert.Equal(t, core.InsightError, got[0].Type)
	assert.Equal(t, "Food", got[0].Category)
	assert.Equal(t, "Food budget exceeded", got[0].Title)

	assert.Equal(t, core.InsightWarning, got[1].Type)
	assert.Equal(t, "Transport", got[1].Category)

	assert.Equal(t, core.InsightWarning, got[2].Type)
	assert.Equal(t, "Your food expenses increased by 50% this month", got[2].Description)
	assert.Equal(t, "Review recent purchases", got[2].Action)

	assert.Equal(t, core.InsightSuccess, got[3].Type)
	assert.Equal(t, "You have saved 745.00 so far this month", got[3].Description)
}

func TestInsightsNothingToSay(t *testing.T) {
	now := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
	txs := []core.Transaction{expense("Food", 500, core.NewDate(2024, 7, 1))}

	assert.Empty(t, Insights(txs, nil, now))
}
