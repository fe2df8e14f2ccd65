package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"budgetwise/internal/core"
)

// IncreaseThreshold is the month-over-month growth, in percent, above which
// a category gets a warning.
const IncreaseThreshold = 10

// Insights derives observations from the current budgets and this month's
// transactions compared with last month's.
func Insights(txs []core.Transaction, budgets []core.Budget, now time.Time) []core.InsightInput {
	var out []core.InsightInput

	sorted := append([]core.Budget(nil), budgets...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Category != sorted[j].Category {
			return sorted[i].Category < sorted[j].Category
		}
		return sorted[i].Period < sorted[j].Period
	})
	for _, b := range sorted {
		switch {
		case b.IsOver():
			out = append(out, core.InsightInput{
				Type:        core.InsightError,
				Title:       fmt.Sprintf("%s budget exceeded", b.Category),
				Description: fmt.Sprintf("You have spent %s of your %s %s budget (%d%%)", b.SpentAmount, b.Period, b.BudgetAmount, int(math.Round(b.Percentage()))),
				Action:      fmt.Sprintf("Review recent %s expenses", strings.ToLower(b.Category)),
				Category:    b.Category,
			})
		case b.ReachedThreshold():
			out = append(out, core.InsightInput{
				Type:        core.InsightWarning,
				Title:       fmt.Sprintf("%s budget alert", b.Category),
				Description: fmt.Sprintf("You have used %d%% of your %s %s budget", int(math.Round(b.Percentage())), b.Period, strings.ToLower(b.Category)),
				Action:      "Slow down spending in this category",
				Category:    b.Category,
			})
		}
	}

	curStart, curEnd := monthBounds(now, 0)
	prevStart, prevEnd := monthBounds(now, -1)
	current := categoryTotals(txs, curStart, curEnd)
	previous := categoryTotals(txs, prevStart, prevEnd)

	categories := make([]string, 0, len(current))
	for c := range current {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		prev := previous[c]
		if prev.Cents <= 0 {
			continue
		}
		growth := float64(current[c].Cents-prev.Cents) / float64(prev.Cents) * 100
		if growth > IncreaseThreshold {
			out = append(out, core.InsightInput{
				Type:        core.InsightWarning,
				Title:       fmt.Sprintf("%s spending alert", c),
				Description: fmt.Sprintf("Your %s expenses increased by %d%% this month", strings.ToLower(c), int(math.Round(growth))),
				Action:      "Review recent purchases",
				Category:    c,
			})
		}
	}

	net := sumType(txs, core.Income, curStart, curEnd).Sub(sumType(txs, core.Expense, curStart, curEnd))
	if net.Cents > 0 {
		out = append(out, core.InsightInput{
			Type:        core.InsightSuccess,
			Title:       "Positive cash flow",
			Description: fmt.Sprintf("You have saved %s so far this month", net),
		})
	}

	return out
}

func categoryTotals(txs []core.Transaction, start, end core.Date) map[string]core.Money {
	totals := map[string]core.Money{}
	for _, tx := range txs {
		if tx.Type == core.Expense && within(tx.Date, start, end) {
			totals[tx.Category] = totals[tx.Category].Add(tx.Amount)
		}
	}
	return totals
}
