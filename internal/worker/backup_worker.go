package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"budgetwise/internal/amqp"
	"budgetwise/internal/log"
)

const (
	backupPrefix = "budgetwise-"
	backupSuffix = ".json"
	// sortable and free of characters that are awkward in file names
	backupStampLayout = "20060102T150405.000Z"
)

// BackupSource produces a backup document. storage.Store satisfies it.
type BackupSource interface {
	CreateBackup(ctx context.Context) []byte
}

// BackupConfig controls where and how often backups are written.
type BackupConfig struct {
	Dir         string
	Retention   int
	MinInterval time.Duration
}

// BackupWorker writes rotating backup files in response to change events.
// At most one backup is written per MinInterval; changes arriving inside the
// interval mark the worker dirty and are picked up by Run.
type BackupWorker struct {
	src    BackupSource
	cfg    BackupConfig
	logger *log.Logger
	now    func() time.Time

	mu    sync.Mutex
	last  time.Time
	dirty bool
}

type Option func(*BackupWorker)

func WithLogger(l *log.Logger) Option {
	return func(w *BackupWorker) { w.logger = l.WithComponent(log.ComponentWorker) }
}

func WithClock(now func() time.Time) Option {
	return func(w *BackupWorker) { w.now = now }
}

func NewBackupWorker(src BackupSource, cfg BackupConfig, opts ...Option) *BackupWorker {
	if cfg.Retention < 1 {
		cfg.Retention = 1
	}
	w := &BackupWorker{
		src:    src,
		cfg:    cfg,
		logger: log.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// HandleChange processes a single change message from AMQP.
func (w *BackupWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	w.logger.DebugContext(ctx, "Processing change message", log.FieldKey, msg.Key)

	w.mu.Lock()
	w.dirty = true
	due := w.dueLocked()
	w.mu.Unlock()

	if !due {
		return nil
	}
	_, err := w.Backup(ctx)
	return err
}

// Dirty reports whether changes arrived since the last backup.
func (w *BackupWorker) Dirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dirty
}

func (w *BackupWorker) dueLocked() bool {
	return w.last.IsZero() || w.now().Sub(w.last) >= w.cfg.MinInterval
}

// Run writes deferred backups until ctx ends.
func (w *BackupWorker) Run(ctx context.Context) error {
	interval := w.cfg.MinInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.FlushPending(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Deferred backup failed", log.FieldError, err)
			}
		}
	}
}

// FlushPending writes a backup if changes are pending and the interval has
// passed. It returns the written path or "".
func (w *BackupWorker) FlushPending(ctx context.Context) (string, error) {
	w.mu.Lock()
	due := w.dirty && w.dueLocked()
	w.mu.Unlock()
	if !due {
		return "", nil
	}
	return w.Backup(ctx)
}

// Backup writes a backup file now and prunes files beyond the retention.
func (w *BackupWorker) Backup(ctx context.Context) (string, error) {
	doc := w.src.CreateBackup(ctx)
	if doc == nil {
		return "", errors.New("backup source returned no document")
	}

	if err := os.MkdirAll(w.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	now := w.now()
	path := filepath.Join(w.cfg.Dir, backupPrefix+now.UTC().Format(backupStampLayout)+backupSuffix)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, doc, 0o600); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("rename backup: %w", err)
	}

	w.mu.Lock()
	w.last = now
	w.dirty = false
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Backup written", log.FieldOperation, log.OpBackup, "path", path, log.FieldBytes, len(doc))

	if removed, err := w.prune(); err != nil {
		w.logger.WarnContext(ctx, "Failed to prune old backups", log.FieldError, err)
	} else if removed > 0 {
		w.logger.DebugContext(ctx, "Old backups pruned", log.FieldCount, removed)
	}
	return path, nil
}

// List returns backup file paths, oldest first.
func (w *BackupWorker) List() ([]string, error) {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(name, backupPrefix) && strings.HasSuffix(name, backupSuffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(w.cfg.Dir, n)
	}
	return paths, nil
}

func (w *BackupWorker) prune() (int, error) {
	paths, err := w.List()
	if err != nil {
		return 0, err
	}
	excess := len(paths) - w.cfg.Retention
	removed := 0
	for i := 0; i < excess; i++ {
		if err := os.Remove(paths[i]); err != nil {
			return removed, fmt.Errorf("remove %s: %w", paths[i], err)
		}
		removed++
	}
	return removed, nil
}
