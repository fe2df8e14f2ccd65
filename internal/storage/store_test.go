package storage_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetwise/internal/cache"
	"budgetwise/internal/storage"
	"budgetwise/internal/storage/memory"
)

// countingBackend records writes and can be told to fail.
type countingBackend struct {
	*memory.Backend
	sets    atomic.Int64
	failSet map[string]bool
	failGet bool
}

func newCountingBackend() *countingBackend {
	return &countingBackend{Backend: memory.New(), failSet: map[string]bool{}}
}

func (b *countingBackend) Set(ctx context.Context, key, value string) error {
	b.sets.Add(1)
	if b.failSet[key] {
		return errors.New("disk full")
	}
	return b.Backend.Set(ctx, key, value)
}

func (b *countingBackend) Get(ctx context.Context, key string) (string, bool, error) {
	if b.failGet {
		return "", false, errors.New("storage unavailable")
	}
	return b.Backend.Get(ctx, key)
}

// gatedBackend holds Set until released once entered is armed.
type gatedBackend struct {
	*memory.Backend
	entered chan struct{}
	release chan struct{}
}

func (b *gatedBackend) Set(ctx context.Context, key, value string) error {
	if b.entered != nil {
		b.entered <- struct{}{}
		<-b.release
	}
	return b.Backend.Set(ctx, key, value)
}

func TestStore_SaveLoadRemove(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	s := storage.NewStore(backend)

	require.True(t, s.Save(ctx, "profile", map[string]string{"name": "Ada"}))

	raw, ok, err := backend.Get(ctx, "budgetwise_profile")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"Ada"}`, raw)

	var got map[string]string
	require.True(t, s.Load(ctx, "profile", &got))
	assert.Equal(t, "Ada", got["name"])

	assert.True(t, s.Remove(ctx, "profile"))
	assert.False(t, s.Load(ctx, "profile", &got))
}

func TestStore_LoadMissingOrCorrupt(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	s := storage.NewStore(backend, storage.WithCodec(storage.Base64Codec{}))

	var v any
	assert.False(t, s.Load(ctx, "transactions", &v))

	require.NoError(t, backend.Set(ctx, "budgetwise_transactions", "%%% not base64"))
	assert.False(t, s.Load(ctx, "transactions", &v))

	require.NoError(t, backend.Set(ctx, "budgetwise_budgets", "bnVsbA==")) // null
	assert.False(t, s.Load(ctx, "budgets", &v))
}

func TestStore_LoadBackendFailure(t *testing.T) {
	backend := newCountingBackend()
	backend.failGet = true
	s := storage.NewStore(backend)

	var v any
	assert.False(t, s.Load(context.Background(), "transactions", &v))
}

func TestStore_ClearAllKeepsForeignKeys(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	s := storage.NewStore(backend)

	require.NoError(t, backend.Set(ctx, "other_app_key", "x"))
	require.True(t, s.Save(ctx, "transactions", []int{1}))
	require.True(t, s.Save(ctx, "budgets", []int{2}))

	require.True(t, s.ClearAll(ctx))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
	_, ok, _ := backend.Get(ctx, "other_app_key")
	assert.True(t, ok)
}

func TestStore_CacheInvalidatedOnWrite(t *testing.T) {
	ctx := context.Background()
	s := storage.NewStore(memory.New(), storage.WithCache(cache.NewLRUCache[[]byte](16, time.Minute)))

	require.True(t, s.Save(ctx, "budgets", []string{"a"}))
	var got []string
	require.True(t, s.Load(ctx, "budgets", &got))

	require.True(t, s.Save(ctx, "budgets", []string{"b"}))
	require.True(t, s.Load(ctx, "budgets", &got))
	assert.Equal(t, []string{"b"}, got)
}

func TestStore_LoadDuringSaveDoesNotPinOldValue(t *testing.T) {
	ctx := context.Background()
	backend := &gatedBackend{Backend: memory.New()}
	s := storage.NewStore(backend, storage.WithCache(cache.NewLRUCache[[]byte](16, 0)))
	require.True(t, s.Save(ctx, "profile", map[string]string{"name": "old"}))

	backend.entered = make(chan struct{})
	backend.release = make(chan struct{})
	saved := make(chan bool)
	go func() { saved <- s.Save(ctx, "profile", map[string]string{"name": "new"}) }()
	<-backend.entered

	var got map[string]string
	require.True(t, s.Load(ctx, "profile", &got))
	assert.Equal(t, "old", got["name"])

	close(backend.release)
	require.True(t, <-saved)

	got = nil
	require.True(t, s.Load(ctx, "profile", &got))
	assert.Equal(t, "new", got["name"])
}

func TestStore_LoadRawReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := storage.NewStore(memory.New(), storage.WithCache(cache.NewLRUCache[[]byte](16, time.Minute)))
	require.True(t, s.SaveRaw(ctx, "insights", []byte(`[1]`)))

	first, ok := s.LoadRaw(ctx, "insights")
	require.True(t, ok)
	first[1] = '9'

	second, ok := s.LoadRaw(ctx, "insights")
	require.True(t, ok)
	assert.Equal(t, `[1]`, string(second))
}

func TestStore_BackupReadsWritesFromOtherStores(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	cached := storage.NewStore(backend, storage.WithCache(cache.NewLRUCache[[]byte](16, time.Hour)))
	other := storage.NewStore(backend)

	require.True(t, other.SaveRaw(ctx, "profile", []byte(`{"name":"old","email":"a@b.c","currency":"EUR"}`)))
	_, ok := cached.LoadRaw(ctx, "profile")
	require.True(t, ok)
	require.True(t, other.SaveRaw(ctx, "profile", []byte(`{"name":"new"}`)))

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(cached.CreateBackup(ctx), &doc))
	assert.JSONEq(t, `{"name":"new"}`, string(doc["profile"]))

	report := cached.VerifyDataIntegrity(ctx)
	assert.Equal(t, []string{"Profile: Missing required fields"}, report.Issues)
}

func TestStore_BackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	src := storage.NewStore(memory.New(), storage.WithClock(func() time.Time { return fixed }))

	values := map[string]string{
		"transactions": `[{"id":"1","description":"Salary","amount":2600,"type":"income","category":"Salary","date":"2024-01-15"}]`,
		"budgets":      `[{"id":"b1","category":"Food","budgetAmount":300,"spentAmount":0}]`,
		"profile":      `{"name":"John Doe","email":"john.doe@example.com","currency":"USD"}`,
		"insights":     `[]`,
	}
	for k, v := range values {
		require.True(t, src.SaveRaw(ctx, k, []byte(v)))
	}

	doc := src.CreateBackup(ctx)
	require.NotNil(t, doc)

	var parsed map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc, &parsed))
	assert.JSONEq(t, `"2024-03-01T09:30:00.000Z"`, string(parsed["backupDate"]))
	assert.JSONEq(t, `"1.0.0"`, string(parsed["version"]))

	dst := storage.NewStore(memory.New())
	require.True(t, dst.RestoreFromBackup(ctx, doc))

	for k, v := range values {
		raw, ok := dst.LoadRaw(ctx, k)
		require.True(t, ok, k)
		assert.JSONEq(t, v, string(raw), k)
	}
	keys, err := dst.Keys(ctx)
	require.NoError(t, err)
	assert.NotContains(t, keys, "backupDate")
	assert.NotContains(t, keys, "version")
}

func TestStore_RestoreRejectsWithoutWrites(t *testing.T) {
	docs := []string{
		`{"insights":[],"settings":{"theme":"dark"},"backupDate":"2024-01-01T00:00:00.000Z","version":"1.0.0"}`,
		`{"transactions":null,"budgets":null,"profile":null,"insights":[]}`,
		`not json`,
		`null`,
		`[1,2,3]`,
	}
	for _, doc := range docs {
		backend := newCountingBackend()
		s := storage.NewStore(backend)
		written, err := s.Restore(context.Background(), []byte(doc))
		assert.ErrorIs(t, err, storage.ErrBackupRejected, doc)
		assert.Empty(t, written, doc)
		assert.False(t, s.RestoreFromBackup(context.Background(), []byte(doc)), doc)
		assert.Zero(t, backend.sets.Load(), doc)
	}
}

func TestStore_RestorePartialFailure(t *testing.T) {
	ctx := context.Background()
	backend := newCountingBackend()
	backend.failSet["budgetwise_budgets"] = true
	s := storage.NewStore(backend)

	doc := []byte(`{"transactions":[],"budgets":[{"id":"b"}],"profile":{"name":"A"}}`)
	written, err := s.Restore(ctx, doc)
	var restoreErr *storage.RestoreError
	require.ErrorAs(t, err, &restoreErr)
	assert.NotErrorIs(t, err, storage.ErrBackupRejected)
	assert.Equal(t, []string{"budgets"}, restoreErr.Failed)
	assert.Equal(t, []string{"profile", "transactions"}, written)
	assert.False(t, s.RestoreFromBackup(ctx, doc))

	// no rollback of the keys that did save
	_, found := s.LoadRaw(ctx, "profile")
	assert.True(t, found)
}

func TestStore_VerifyDataIntegrity(t *testing.T) {
	ctx := context.Background()
	s := storage.NewStore(memory.New())

	report := s.VerifyDataIntegrity(ctx)
	assert.True(t, report.IsValid)
	assert.Empty(t, report.Issues)

	require.True(t, s.SaveRaw(ctx, "transactions", []byte(`[
		{"id":"1","description":"ok","amount":5},
		{"id":"2","amount":5},
		{"id":"3","description":"ok","amount":"5"}
	]`)))
	require.True(t, s.SaveRaw(ctx, "budgets", []byte(`[{"id":"b1","category":"Food"}]`)))
	require.True(t, s.SaveRaw(ctx, "profile", []byte(`{"name":"A","email":""}`)))

	report = s.VerifyDataIntegrity(ctx)
	assert.False(t, report.IsValid)
	assert.Equal(t, []string{
		"Transaction 1: Missing required fields",
		"Transaction 2: Missing required fields",
		"Budget 0: Missing required fields",
		"Profile: Missing required fields",
	}, report.Issues)
}

func TestStore_VerifySingleMissingDescription(t *testing.T) {
	ctx := context.Background()
	s := storage.NewStore(memory.New())
	require.True(t, s.SaveRaw(ctx, "transactions", []byte(`[{"id":"a","description":"x","amount":1},{"id":"b","amount":2}]`)))

	report := s.VerifyDataIntegrity(ctx)
	assert.False(t, report.IsValid)
	require.Len(t, report.Issues, 1)
	assert.True(t, strings.HasPrefix(report.Issues[0], "Transaction 1:"))
}

func TestStore_VerifyBackendFailure(t *testing.T) {
	backend := newCountingBackend()
	backend.failGet = true
	s := storage.NewStore(backend)

	report := s.VerifyDataIntegrity(context.Background())
	assert.False(t, report.IsValid)
	assert.Equal(t, []string{"Data integrity check failed"}, report.Issues)
}
