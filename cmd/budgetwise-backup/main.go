// Command budgetwise-backup exports, restores and verifies the stored data
// without running the server.
//
//	budgetwise-backup export [-o file]
//	budgetwise-backup restore <file>
//	budgetwise-backup verify
//	budgetwise-backup list
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"budgetwise/internal/backend"
	"budgetwise/internal/cli"
	"budgetwise/internal/config"
	"budgetwise/internal/log"
	"budgetwise/internal/storage"
	"budgetwise/internal/worker"
)

const commandTimeout = 2 * time.Minute

func usage() {
	fmt.Fprintf(os.Stderr, `usage: budgetwise-backup <command> [args]

commands:
  export [-o file]   write a backup document to file (default: stdout)
  restore <file>     restore a backup document ("-" reads stdin)
  verify             check stored records for missing fields
  list               list backup files written by budgetwise-worker
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLoggerTo(cfg.LogLevel, os.Stderr)
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "export":
		err = withStore(ctx, logger, cfg, func(s *storage.Store) error { return export(ctx, s, args) })
	case "restore":
		err = withStore(ctx, logger, cfg, func(s *storage.Store) error { return restore(ctx, s, args) })
	case "verify":
		err = withStore(ctx, logger, cfg, func(s *storage.Store) error { return verify(ctx, s) })
	case "list":
		err = list(cfg, logger)
	case "-h", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("Command failed", "command", os.Args[1], log.FieldError, err)
		os.Exit(1)
	}
}

// withStore opens the backend without change events or a value cache:
// restores from this tool are not announced to workers, and another process
// may be writing the same keys.
func withStore(ctx context.Context, logger *log.Logger, cfg *config.Config, fn func(*storage.Store) error) error {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	bcfg.AMQPURL = ""
	bcfg.CacheSize = 0
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	return errors.Join(fn(res.Store), res.Cleanup())
}

func export(ctx context.Context, s *storage.Store, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("o", "", "output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	doc := s.CreateBackup(ctx)
	if doc == nil {
		return errors.New("backup failed")
	}
	if *out == "" {
		_, err := os.Stdout.Write(append(doc, '\n'))
		return err
	}
	if err := os.WriteFile(*out, doc, 0o600); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	fmt.Fprintf(os.Stderr, "backup written to %s (%d bytes)\n", *out, len(doc))
	return nil
}

func restore(ctx context.Context, s *storage.Store, args []string) error {
	if len(args) != 1 {
		return errors.New("restore takes exactly one file argument")
	}

	var doc []byte
	var err error
	if args[0] == "-" {
		doc, err = io.ReadAll(os.Stdin)
	} else {
		doc, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	written, err := s.Restore(ctx, doc)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "backup restored (%d keys)\n", len(written))
	return nil
}

func verify(ctx context.Context, s *storage.Store) error {
	report := s.VerifyDataIntegrity(ctx)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if !report.IsValid {
		return fmt.Errorf("%d integrity issues found", len(report.Issues))
	}
	return nil
}

func list(cfg *config.Config, logger *log.Logger) error {
	bw := worker.NewBackupWorker(nil, worker.BackupConfig{
		Dir:       cfg.BackupDir,
		Retention: cfg.BackupRetention,
	}, worker.WithLogger(logger))
	files, err := bw.List()
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Println(f)
	}
	return nil
}
