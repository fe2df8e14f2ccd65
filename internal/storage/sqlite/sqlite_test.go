package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend_CRUD(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "budgetwise.db")

	b, err := Open(dbPath)
	require.NoError(t, err)
	defer b.Close()

	_, found, err := b.Get(ctx, "budgetwise_transactions")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, b.Set(ctx, "budgetwise_transactions", "[]"))
	require.NoError(t, b.Set(ctx, "budgetwise_transactions", `[{"id":"1"}]`))
	require.NoError(t, b.Set(ctx, "budgetwiseXbudgets", "x"))
	require.NoError(t, b.Set(ctx, "other", "y"))

	v, found, err := b.Get(ctx, "budgetwise_transactions")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `[{"id":"1"}]`, v)

	keys, err := b.Keys(ctx, "budgetwise_")
	require.NoError(t, err)
	assert.Equal(t, []string{"budgetwise_transactions"}, keys, "underscore must not act as a wildcard")

	require.NoError(t, b.Delete(ctx, "budgetwise_transactions"))
	_, found, err = b.Get(ctx, "budgetwise_transactions")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBackend_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "budgetwise.db")

	b, err := Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, b.Set(ctx, "budgetwise_profile", `{"name":"A"}`))
	require.NoError(t, b.Close())

	b, err = Open(dbPath)
	require.NoError(t, err)
	defer b.Close()

	v, found, err := b.Get(ctx, "budgetwise_profile")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"name":"A"}`, v)
}
