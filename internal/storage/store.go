// Package storage is the namespaced key-value facade every state store
// persists through. Faults are logged and reported as false/nil, never
// returned to callers.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetwise/internal/cache"
	"budgetwise/internal/log"
)

// DefaultPrefix namespaces every key written by the app.
const DefaultPrefix = "budgetwise_"

// Recognized storage keys.
const (
	KeyTransactions     = "transactions"
	KeyBudgets          = "budgets"
	KeyProfile          = "profile"
	KeyNotifications    = "notifications"
	KeySecurity         = "security"
	KeyAppearance       = "appearance"
	KeyPreferences      = "preferences"
	KeyInsights         = "insights"
	KeySpendingPatterns = "spendingPatterns"
	KeyPredictions      = "predictions"
	KeyReports          = "reports"
)

// Backup document metadata fields.
const (
	BackupDateField    = "backupDate"
	BackupVersionField = "version"
	BackupVersion      = "1.0.0"
)

// backupDateLayout matches a JavaScript ISO string (millisecond precision, Z).
const backupDateLayout = "2006-01-02T15:04:05.000Z07:00"

// RequiredBackupKeys are the keys of which a backup must contain at least one.
var RequiredBackupKeys = []string{KeyTransactions, KeyBudgets, KeyProfile}

// Backend is raw text storage keyed by full (prefixed) keys.
type Backend interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Keys lists every stored key starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// IntegrityReport is the outcome of VerifyDataIntegrity.
type IntegrityReport struct {
	IsValid bool     `json:"isValid"`
	Issues  []string `json:"issues"`
}

// ErrBackupRejected means a backup document was refused and nothing was written.
var ErrBackupRejected = errors.New("backup document rejected")

// RestoreError reports the keys a restore could not write. Keys written
// before the failure stay written.
type RestoreError struct {
	Failed []string
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("restore incomplete: failed keys %s", strings.Join(e.Failed, ", "))
}

type Store struct {
	backend Backend
	codec   Codec
	prefix  string
	cache   cache.Cache[[]byte]
	logger  *log.Logger
	now     func() time.Time
	workers int

	// Invalidation stamps. A value read from the backend is only cached if
	// its key was not invalidated while the read was in flight.
	stampMu sync.Mutex
	seq     uint64
	cleared uint64
	stamps  map[string]uint64
}

type Option func(*Store)

func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

func WithCodec(c Codec) Option {
	return func(s *Store) { s.codec = c }
}

// WithCache puts a cache of decoded values in front of the backend.
func WithCache(c cache.Cache[[]byte]) Option {
	return func(s *Store) { s.cache = c }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentStorage) }
}

// WithClock overrides the time source used for backup timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		codec:   PlainCodec{},
		prefix:  DefaultPrefix,
		cache:   cache.NewLRUCache[[]byte](0, 0),
		logger:  log.Nop(),
		now:     time.Now,
		workers: 8,
		stamps:  map[string]uint64{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Prefix() string { return s.prefix }

func (s *Store) Codec() Codec { return s.codec }

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Save serializes value as JSON and stores it under key.
func (s *Store) Save(ctx context.Context, key string, value any) bool {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to serialize value", log.FieldKey, key, log.FieldError, err)
		return false
	}
	return s.SaveRaw(ctx, key, data)
}

// SaveRaw stores already-serialized JSON under key.
func (s *Store) SaveRaw(ctx context.Context, key string, data []byte) bool {
	encoded, err := s.codec.Encode(key, data)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to encode value", log.FieldKey, key, log.FieldError, err)
		return false
	}
	s.invalidate(key)
	defer s.invalidate(key)
	if err := s.backend.Set(ctx, s.prefix+key, encoded); err != nil {
		s.logger.ErrorContext(ctx, "Storage save failed", log.FieldKey, key, log.FieldError, err)
		return false
	}
	s.logger.DebugContext(ctx, "Value saved", log.FieldKey, key, log.FieldBytes, len(data))
	return true
}

// Load decodes the value under key into dst. It reports false when the key
// is absent, holds null, or cannot be decoded.
func (s *Store) Load(ctx context.Context, key string, dst any) bool {
	data, ok := s.LoadRaw(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.WarnContext(ctx, "Stored value has unexpected shape", log.FieldKey, key, log.FieldError, err)
		return false
	}
	return true
}

// LoadRaw returns a copy of the decoded JSON under key.
func (s *Store) LoadRaw(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := s.load(ctx, key)
	if err != nil {
		s.logger.ErrorContext(ctx, "Storage load failed", log.FieldKey, key, log.FieldError, err)
		return nil, false
	}
	return bytes.Clone(data), ok
}

// load reads through the cache. It only returns an error for backend faults.
func (s *Store) load(ctx context.Context, key string) ([]byte, bool, error) {
	if data, ok := s.cache.Get(key); ok {
		return data, true, nil
	}
	stamp := s.stamp(key)
	data, ok, err := s.fetch(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	s.remember(key, stamp, data)
	return data, true, nil
}

// fetch reads key from the backend, bypassing the cache. Undecodable values
// are logged and reported as absent.
func (s *Store) fetch(ctx context.Context, key string) ([]byte, bool, error) {
	stored, found, err := s.backend.Get(ctx, s.prefix+key)
	if err != nil {
		return nil, false, err
	}
	if !found || stored == "" {
		return nil, false, nil
	}
	data, err := s.codec.Decode(key, stored)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to decode stored value", log.FieldKey, key, log.FieldError, err)
		return nil, false, nil
	}
	if !json.Valid(data) {
		s.logger.WarnContext(ctx, "Stored value is not valid JSON", log.FieldKey, key)
		return nil, false, nil
	}
	if isNull(data) {
		return nil, false, nil
	}
	return data, true, nil
}

func (s *Store) stamp(key string) uint64 {
	s.stampMu.Lock()
	defer s.stampMu.Unlock()
	return max(s.stamps[key], s.cleared)
}

func (s *Store) invalidate(key string) {
	s.stampMu.Lock()
	defer s.stampMu.Unlock()
	s.seq++
	s.stamps[key] = s.seq
	s.cache.Delete(key)
}

func (s *Store) invalidateAll() {
	s.stampMu.Lock()
	defer s.stampMu.Unlock()
	s.seq++
	s.cleared = s.seq
	clear(s.stamps)
	s.cache.Clear()
}

// remember caches data read under stamp unless key changed since.
func (s *Store) remember(key string, stamp uint64, data []byte) {
	s.stampMu.Lock()
	defer s.stampMu.Unlock()
	if max(s.stamps[key], s.cleared) == stamp {
		s.cache.Set(key, data)
	}
}

func (s *Store) Remove(ctx context.Context, key string) bool {
	s.invalidate(key)
	defer s.invalidate(key)
	if err := s.backend.Delete(ctx, s.prefix+key); err != nil {
		s.logger.ErrorContext(ctx, "Storage remove failed", log.FieldKey, key, log.FieldError, err)
		return false
	}
	return true
}

// Keys lists the stored keys without the prefix, sorted.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	full, err := s.backend.Keys(ctx, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	keys := make([]string, 0, len(full))
	for _, k := range full {
		if strings.HasPrefix(k, s.prefix) {
			keys = append(keys, strings.TrimPrefix(k, s.prefix))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// ClearAll removes every prefixed key. Unrelated keys are left alone.
func (s *Store) ClearAll(ctx context.Context) bool {
	s.invalidateAll()
	defer s.invalidateAll()
	keys, err := s.Keys(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Storage clear failed", log.FieldOperation, log.OpClear, log.FieldError, err)
		return false
	}
	for _, k := range keys {
		if err := s.backend.Delete(ctx, s.prefix+k); err != nil {
			s.logger.ErrorContext(ctx, "Storage clear failed", log.FieldKey, k, log.FieldError, err)
			return false
		}
	}
	s.logger.InfoContext(ctx, "Storage cleared", log.FieldCount, len(keys))
	return true
}

// CreateBackup bundles every stored value into one indented JSON document,
// tagged with backupDate and version. Values are read from the backend, not
// the cache, so writes made by other processes are included. Returns nil on
// failure.
func (s *Store) CreateBackup(ctx context.Context) []byte {
	keys, err := s.Keys(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Backup creation failed", log.FieldOperation, log.OpBackup, log.FieldError, err)
		return nil
	}

	var mu sync.Mutex
	doc := make(map[string]json.RawMessage, len(keys)+2)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, key := range keys {
		g.Go(func() error {
			data, ok, err := s.fetch(gctx, key)
			if err != nil {
				return fmt.Errorf("read %s: %w", key, err)
			}
			if !ok {
				data = json.RawMessage("null")
			}
			mu.Lock()
			doc[key] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Backup creation failed", log.FieldOperation, log.OpBackup, log.FieldError, err)
		return nil
	}

	date, _ := json.Marshal(s.now().UTC().Format(backupDateLayout))
	version, _ := json.Marshal(BackupVersion)
	doc[BackupDateField] = date
	doc[BackupVersionField] = version

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		s.logger.ErrorContext(ctx, "Backup creation failed", log.FieldOperation, log.OpBackup, log.FieldError, err)
		return nil
	}
	s.logger.InfoContext(ctx, "Backup created", log.FieldCount, len(keys), log.FieldBytes, len(out))
	return out
}

// RestoreFromBackup re-persists every non-metadata field of a backup
// document and reports whether all of them were written. See Restore.
func (s *Store) RestoreFromBackup(ctx context.Context, doc []byte) bool {
	_, err := s.Restore(ctx, doc)
	return err == nil
}

// Restore re-persists every non-metadata field of a backup document and
// returns the keys written. A document without any of RequiredBackupKeys
// fails with ErrBackupRejected and nothing is written. Keys are saved
// independently with no rollback; if some fail the error is a *RestoreError
// and the returned keys are the ones that did land.
func (s *Store) Restore(ctx context.Context, doc []byte) ([]string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc, &fields); err != nil || fields == nil {
		s.logger.WarnContext(ctx, "Backup restore rejected: invalid document", log.FieldOperation, log.OpRestore, log.FieldError, err)
		return nil, fmt.Errorf("%w: invalid document", ErrBackupRejected)
	}

	hasRequired := false
	for _, k := range RequiredBackupKeys {
		if present(fields[k]) {
			hasRequired = true
			break
		}
	}
	if !hasRequired {
		s.logger.WarnContext(ctx, "Backup restore rejected: missing required fields", log.FieldOperation, log.OpRestore)
		return nil, fmt.Errorf("%w: none of %s present", ErrBackupRejected, strings.Join(RequiredBackupKeys, ", "))
	}

	var written, failed []string
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.workers)
	for key, raw := range fields {
		if key == BackupDateField || key == BackupVersionField || !present(raw) {
			continue
		}
		g.Go(func() error {
			var compact bytes.Buffer
			data := []byte(raw)
			if err := json.Compact(&compact, raw); err == nil {
				data = compact.Bytes()
			}
			ok := s.SaveRaw(ctx, key, data)
			mu.Lock()
			defer mu.Unlock()
			if ok {
				written = append(written, key)
			} else {
				failed = append(failed, key)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(written)
	if len(failed) > 0 {
		sort.Strings(failed)
		s.logger.ErrorContext(ctx, "Backup restore incomplete", log.FieldOperation, log.OpRestore, "failed_keys", failed)
		return written, &RestoreError{Failed: failed}
	}
	s.logger.InfoContext(ctx, "Backup restored", log.FieldOperation, log.OpRestore, log.FieldCount, len(written))
	return written, nil
}

// VerifyDataIntegrity scans the stored transactions, budgets and profile for
// records missing required fields and reports every problem found.
func (s *Store) VerifyDataIntegrity(ctx context.Context) IntegrityReport {
	issues, err := s.integrityIssues(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Data integrity check failed", log.FieldOperation, log.OpVerify, log.FieldError, err)
		return IntegrityReport{IsValid: false, Issues: []string{"Data integrity check failed"}}
	}
	return IntegrityReport{IsValid: len(issues) == 0, Issues: issues}
}

func (s *Store) integrityIssues(ctx context.Context) ([]string, error) {
	issues := []string{}

	records := func(key string) ([]map[string]any, error) {
		data, ok, err := s.fetch(ctx, key)
		if err != nil || !ok {
			return nil, err
		}
		var list []any
		if json.Unmarshal(data, &list) != nil {
			return nil, nil
		}
		out := make([]map[string]any, len(list))
		for i, item := range list {
			m, _ := item.(map[string]any)
			out[i] = m
		}
		return out, nil
	}

	txs, err := records(KeyTransactions)
	if err != nil {
		return nil, err
	}
	for i, tx := range txs {
		if !truthy(tx["id"]) || !truthy(tx["description"]) || !isNumber(tx["amount"]) {
			issues = append(issues, fmt.Sprintf("Transaction %d: Missing required fields", i))
		}
	}

	budgets, err := records(KeyBudgets)
	if err != nil {
		return nil, err
	}
	for i, b := range budgets {
		if !truthy(b["id"]) || !truthy(b["category"]) || !isNumber(b["budgetAmount"]) {
			issues = append(issues, fmt.Sprintf("Budget %d: Missing required fields", i))
		}
	}

	data, ok, err := s.fetch(ctx, KeyProfile)
	if err != nil {
		return nil, err
	}
	if ok {
		var profile map[string]any
		if json.Unmarshal(data, &profile) == nil && profile != nil {
			if !truthy(profile["name"]) || !truthy(profile["email"]) || !truthy(profile["currency"]) {
				issues = append(issues, "Profile: Missing required fields")
			}
		}
	}

	return issues, nil
}

// present reports whether a backup field carries a usable value: anything
// except null, false, 0 and "".
func present(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var v any
	if json.Unmarshal(raw, &v) != nil {
		return false
	}
	return truthy(v)
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	}
	return true
}

func isNumber(v any) bool {
	_, ok := v.(float64)
	return ok
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}
