package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budgetwise/internal/cli"
	apphttp "budgetwise/internal/http"
	"budgetwise/internal/log"
	"budgetwise/internal/scheduler"
	"budgetwise/internal/services"
	gsheet "budgetwise/internal/sheets/google"
	"budgetwise/internal/state"
	"budgetwise/internal/storage"
)

const (
	shutdownTimeout = 30 * time.Second
	jobTimeout      = 2 * time.Minute
)

func main() {
	cfg, logger := cli.Bootstrap()
	logger.Info("Starting budgetwise", "port", cfg.Port, "backend", cfg.DataBackend, log.FieldOperation, log.OpStartup)

	ctx := context.Background()
	res := cli.InitBackend(ctx, logger, cfg)

	// Every state mutation is queued here and published once written.
	writerOpts := []storage.WriterOption{storage.WithWriterLogger(logger)}
	if res.Events != nil {
		writerOpts = append(writerOpts, storage.WithNotifier(res.Events))
	}
	writer := storage.NewWriter(res.Store, writerOpts...)

	app := state.NewApp(state.Deps{Persister: writer, Logger: logger})
	app.Load(ctx, res.Store)

	svcOpts := []services.Option{services.WithLogger(logger)}
	if cfg.SheetsEnabled() {
		exporter, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleReportsSheetName)
		if err != nil {
			logger.Warn("Google Sheets export disabled", log.FieldError, err)
		} else {
			svcOpts = append(svcOpts, services.WithExporter(exporter))
			logger.Info("Reports exported to Google Sheets", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		}
	}
	svc := services.NewFinanceService(app, svcOpts...)

	sched := scheduler.New(logger, jobTimeout)
	if err := scheduler.RegisterFinanceJobs(sched, svc, scheduler.Schedules{
		Daily:   cfg.ScheduleDaily,
		Weekly:  cfg.ScheduleWeekly,
		Monthly: cfg.ScheduleMonthly,
		Yearly:  cfg.ScheduleYearly,
	}); err != nil {
		logger.Error("Failed to register scheduled jobs", log.FieldError, err)
		os.Exit(1)
	}
	// budgets that expired while the process was down roll over now
	_ = sched.RunNow(ctx, scheduler.MaintenanceJob(svc))
	sched.Start()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Service:            svc,
		Store:              res.Store,
		Flusher:            writer,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	runCtx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		sched.Stop(ctx)
		if err := writer.Close(ctx); err != nil {
			logger.Error("Pending writes lost on shutdown", log.FieldError, err, log.FieldCount, writer.Pending())
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	})

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(runCtx, done)
	logger.Info("Server stopped gracefully")
}
