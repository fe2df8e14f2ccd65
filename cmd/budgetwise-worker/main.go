package main

import (
	"context"
	"errors"
	"os"
	"time"

	"budgetwise/internal/cli"
	"budgetwise/internal/log"
	"budgetwise/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap()
	logger.Info("Starting budgetwise-worker", "backend", cfg.DataBackend, "backup_dir", cfg.BackupDir)

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required to run the backup worker")
		os.Exit(1)
	}

	// every write comes from the API process, so a local cache would never
	// be invalidated
	cfg.CacheSize = 0
	res := cli.InitBackend(context.Background(), logger, cfg)
	if res.Events == nil {
		logger.Error("Change events unavailable, nothing to consume")
		_ = res.Cleanup()
		os.Exit(1)
	}

	bw := worker.NewBackupWorker(res.Store, worker.BackupConfig{
		Dir:         cfg.BackupDir,
		Retention:   cfg.BackupRetention,
		MinInterval: cfg.BackupMinInterval,
	}, worker.WithLogger(logger))

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		// changes seen since the last backup must not be lost
		if bw.Dirty() {
			if path, err := bw.Backup(ctx); err != nil {
				logger.Error("Final backup failed", log.FieldOperation, log.OpBackup, log.FieldError, err)
			} else {
				logger.Info("Final backup written", log.FieldOperation, log.OpBackup, "path", path)
			}
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	})

	go func() {
		if err := bw.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Backup loop stopped", log.FieldError, err)
		}
	}()

	go func() {
		if err := res.Events.ConsumeWithRetry(ctx, bw.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Change consumption stopped", log.FieldError, err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
