package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetwise/internal/core"
	"budgetwise/internal/storage"
)

func txInput(desc string, cents int64, typ core.TransactionType, category string) core.TransactionInput {
	return core.TransactionInput{
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Type:        typ,
		Category:    category,
		Date:        core.NewDate(2024, 1, 15),
	}
}

func TestLedger_AddPrependsWithUniqueID(t *testing.T) {
	deps, rec := testDeps(testNow)
	l := NewLedger(deps)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		before := l.Len()
		tx := l.Add(txInput("Coffee", 450, core.Expense, "Food"))
		assert.Equal(t, before+1, l.Len())
		assert.False(t, seen[tx.ID], "duplicate id %s", tx.ID)
		seen[tx.ID] = true
		assert.Equal(t, tx.ID, l.All()[0].ID, "new entry goes first")
	}
	assert.Equal(t, 5, rec.count(storage.KeyTransactions))
}

func TestLedger_UpdateUnknownIDIsNoop(t *testing.T) {
	deps, rec := testDeps(testNow)
	l := NewLedger(deps)
	l.Add(txInput("Salary", 260000, core.Income, "Salary"))
	before := l.All()
	persisted := rec.count(storage.KeyTransactions)

	ok := l.Update(core.Transaction{ID: "missing", Description: "x", Amount: core.Money{Cents: 1}, Type: core.Expense, Category: "Food"})

	assert.False(t, ok)
	assert.Equal(t, before, l.All())
	assert.Equal(t, persisted, rec.count(storage.KeyTransactions))
}

func TestLedger_UpdateDeleteAndSelectors(t *testing.T) {
	deps, rec := testDeps(testNow)
	l := NewLedger(deps)
	salary := l.Add(txInput("Salary", 260000, core.Income, "Salary"))
	food := l.Add(txInput("Groceries", 8550, core.Expense, "Food"))
	l.Add(txInput("Bus", 250, core.Expense, "Transport"))

	food.Amount = core.Money{Cents: 9000}
	require.True(t, l.Update(food))
	got, ok := l.Get(food.ID)
	require.True(t, ok)
	assert.Equal(t, int64(9000), got.Amount.Cents)

	assert.Len(t, l.ByType(core.Expense), 2)
	assert.Len(t, l.ByCategory("Salary"), 1)
	assert.Empty(t, l.ByCategory("Nope"))

	income, expenses := l.Totals()
	assert.Equal(t, int64(260000), income.Cents)
	assert.Equal(t, int64(9250), expenses.Cents)

	assert.Len(t, l.Recent(2), 2)
	assert.Len(t, l.Recent(0), 3)

	require.True(t, l.Delete(salary.ID))
	assert.False(t, l.Delete(salary.ID))
	assert.Equal(t, 2, l.Len())

	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, "[]", rec.last[storage.KeyTransactions])
}

func TestLedger_RecentDefault(t *testing.T) {
	deps, _ := testDeps(testNow)
	l := NewLedger(deps)
	for i := 0; i < 8; i++ {
		l.Add(txInput("t", 100, core.Expense, "Food"))
	}
	assert.Len(t, l.Recent(-1), DefaultRecent)
	assert.Len(t, l.Recent(20), 8)
}
