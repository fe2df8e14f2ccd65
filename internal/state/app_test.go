package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetwise/internal/core"
	"budgetwise/internal/storage"
	"budgetwise/internal/storage/memory"
)

func TestApp_PersistAndReload(t *testing.T) {
	ctx := context.Background()
	store := storage.NewStore(memory.New())
	writer := storage.NewWriter(store)

	deps, _ := testDeps(testNow)
	deps.Persister = writer
	app := NewApp(deps)

	tx := app.Transactions.Add(txInput("Salary", 260000, core.Income, "Salary"))
	b, err := app.Budgets.Add(budgetInput("Food", 80000, core.Monthly))
	require.NoError(t, err)
	name := "Ada"
	app.Settings.UpdateProfile(core.ProfilePatch{Name: &name})
	app.Analytics.AddInsight(core.InsightInput{Type: core.InsightInfo, Title: "hello"})
	_, err = app.Analytics.GenerateReport(core.ReportInput{Period: core.Monthly})
	require.NoError(t, err)

	flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, writer.Flush(flushCtx))
	require.NoError(t, writer.Close(ctx))

	reloaded := NewApp(Deps{})
	reloaded.Load(ctx, store)

	got, ok := reloaded.Transactions.Get(tx.ID)
	require.True(t, ok)
	assert.Equal(t, tx.Amount, got.Amount)
	gotBudget, ok := reloaded.Budgets.Get(b.ID)
	require.True(t, ok)
	assert.Equal(t, b.EndDate.String(), gotBudget.EndDate.String())
	assert.Equal(t, "Ada", reloaded.Settings.Profile().Name)
	assert.Equal(t, core.DefaultSettings().Security, reloaded.Settings.Security())
	assert.Len(t, reloaded.Analytics.Insights(), 1)
	assert.Len(t, reloaded.Analytics.Reports(core.Monthly), 1)
	assert.Empty(t, reloaded.Analytics.Reports(core.Weekly))
}

func TestApp_LoadNormalizesLegacySignedAmounts(t *testing.T) {
	ctx := context.Background()
	store := storage.NewStore(memory.New(), storage.WithCodec(storage.Base64Codec{}))
	require.True(t, store.SaveRaw(ctx, storage.KeyTransactions, []byte(
		`[{"id":"2","description":"Grocery Store","amount":-85.5,"type":"expense","category":"Food","date":"2024-01-15T00:00:00.000Z"}]`)))

	app := NewApp(Deps{})
	app.Load(ctx, store)

	tx, ok := app.Transactions.Get("2")
	require.True(t, ok)
	assert.Equal(t, int64(8550), tx.Amount.Cents)
	assert.Equal(t, int64(-8550), tx.Signed().Cents)
	assert.Equal(t, "2024-01-15", tx.Date.String())
}

func TestApp_LoadEmptyStoreKeepsDefaults(t *testing.T) {
	app := NewApp(Deps{})
	app.Load(context.Background(), storage.NewStore(memory.New()))

	assert.Zero(t, app.Transactions.Len())
	assert.Empty(t, app.Budgets.All())
	assert.Equal(t, core.DefaultSettings(), app.Settings.Snapshot())
}
