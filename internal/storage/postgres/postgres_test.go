package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgresql://u:p@db:5432/bw", "postgres://u:p@db:5432/bw?sslmode=disable"},
		{"postgres://db/bw?application_name=x", "postgres://db/bw?application_name=x&sslmode=disable"},
		{"postgres://db/bw?sslmode=require", "postgres://db/bw?sslmode=require"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeURL(tt.in))
	}
}

func TestBackend_Integration(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	b, err := Open(ctx, url)
	require.NoError(t, err)
	defer b.Close()

	const key = "budgetwise_test_profile"
	require.NoError(t, b.Set(ctx, key, `{"name":"A"}`))
	defer func() { _ = b.Delete(ctx, key) }()

	v, found, err := b.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"name":"A"}`, v)

	keys, err := b.Keys(ctx, "budgetwise_test_")
	require.NoError(t, err)
	assert.Contains(t, keys, key)
}
