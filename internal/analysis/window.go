// Package analysis derives reports, trends, predictions and insights from
// snapshots of the ledger and budget registry. Everything here is pure.
package analysis

import (
	"fmt"
	"sort"
	"time"

	"budgetwise/internal/core"
)

// TopCategoryCount is how many expense categories a report lists.
const TopCategoryCount = 5

// ReportWindow returns the last complete period before ref: the seven days
// before ref's day, the previous calendar month or the previous calendar year.
func ReportWindow(p core.Period, ref time.Time) (start, end core.Date, err error) {
	day := core.DateOf(ref)
	switch p {
	case core.Weekly:
		return day.AddDays(-7), day.AddDays(-1), nil
	case core.Monthly:
		first := core.NewDate(day.Year(), int(day.Month()), 1)
		prevFirst := core.Date{Time: first.AddDate(0, -1, 0)}
		return prevFirst, first.AddDays(-1), nil
	case core.Yearly:
		return core.NewDate(day.Year()-1, 1, 1), core.NewDate(day.Year()-1, 12, 31), nil
	}
	return core.Date{}, core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidPeriod, p)
}

// within reports d in [start, end], both inclusive.
func within(d, start, end core.Date) bool {
	return !d.Before(start.Time) && !d.After(end.Time)
}

// Summarize totals the transactions dated inside [start, end].
func Summarize(p core.Period, txs []core.Transaction, start, end core.Date) core.ReportInput {
	var income, expenses core.Money
	byCategory := map[string]core.Money{}
	for _, tx := range txs {
		if !within(tx.Date, start, end) {
			continue
		}
		switch tx.Type {
		case core.Income:
			income = income.Add(tx.Amount)
		case core.Expense:
			expenses = expenses.Add(tx.Amount)
			byCategory[tx.Category] = byCategory[tx.Category].Add(tx.Amount)
		}
	}

	return core.ReportInput{
		Period:        p,
		StartDate:     start,
		EndDate:       end,
		TotalIncome:   income,
		TotalExpenses: expenses,
		NetAmount:     income.Sub(expenses),
		TopCategories: topCategories(byCategory, TopCategoryCount),
	}
}

// topCategories sorts by amount descending, then name.
func topCategories(byCategory map[string]core.Money, n int) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(byCategory))
	for c, m := range byCategory {
		out = append(out, core.CategoryAmount{Category: c, Amount: m})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category < out[j].Category
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func monthStart(t time.Time) core.Date {
	return core.NewDate(t.Year(), int(t.Month()), 1)
}

// monthBounds returns the first and last day of the month offset months
// away from ref's month.
func monthBounds(ref time.Time, offset int) (core.Date, core.Date) {
	first := core.Date{Time: monthStart(ref).AddDate(0, offset, 0)}
	last := core.Date{Time: first.AddDate(0, 1, -1)}
	return first, last
}
