package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"budgetwise/internal/core"
)

const (
	weeklyBuckets  = 4
	monthlyBuckets = 6
)

// Trends computes expense totals for the last four 7-day buckets ending
// today, the last six calendar months including the current one, and the
// current month's category shares.
func Trends(txs []core.Transaction, now time.Time) core.SpendingPatternPatch {
	today := core.DateOf(now)
	expenses := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Type == core.Expense {
			expenses = append(expenses, tx)
		}
	}

	weekly := make([]core.WeekAmount, weeklyBuckets)
	for i := range weekly {
		end := today.AddDays(-7 * (weeklyBuckets - 1 - i))
		start := end.AddDays(-6)
		weekly[i] = core.WeekAmount{
			Week:   fmt.Sprintf("Week %d", i+1),
			Amount: sum(expenses, start, end),
		}
	}

	monthly := make([]core.MonthAmount, monthlyBuckets)
	for i := range monthly {
		start, end := monthBounds(now, i-(monthlyBuckets-1))
		monthly[i] = core.MonthAmount{
			Month:  start.Month().String()[:3],
			Amount: sum(expenses, start, end),
		}
	}

	start, end := monthBounds(now, 0)
	categories := CategoryShares(expenses, start, end)

	return core.SpendingPatternPatch{
		WeeklyTrends:   &weekly,
		MonthlyTrends:  &monthly,
		CategoryTrends: &categories,
	}
}

// CategoryShares groups expenses in [start, end] by category with whole
// percentages of the total, largest first.
func CategoryShares(txs []core.Transaction, start, end core.Date) []core.CategoryShare {
	byCategory := map[string]core.Money{}
	var total core.Money
	for _, tx := range txs {
		if tx.Type != core.Expense || !within(tx.Date, start, end) {
			continue
		}
		byCategory[tx.Category] = byCategory[tx.Category].Add(tx.Amount)
		total = total.Add(tx.Amount)
	}

	shares := make([]core.CategoryShare, 0, len(byCategory))
	for c, m := range byCategory {
		pct := 0
		if total.Cents > 0 {
			pct = int(math.Round(float64(m.Cents) / float64(total.Cents) * 100))
		}
		shares = append(shares, core.CategoryShare{Category: c, Amount: m, Percentage: pct})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Amount.Cents != shares[j].Amount.Cents {
			return shares[i].Amount.Cents > shares[j].Amount.Cents
		}
		return shares[i].Category < shares[j].Category
	})
	return shares
}

func sum(txs []core.Transaction, start, end core.Date) core.Money {
	var total core.Money
	for _, tx := range txs {
		if within(tx.Date, start, end) {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

func sumType(txs []core.Transaction, t core.TransactionType, start, end core.Date) core.Money {
	var total core.Money
	for _, tx := range txs {
		if tx.Type == t && within(tx.Date, start, end) {
			total = total.Add(tx.Amount)
		}
	}
	return total
}
