package http

import (
	"errors"
	"fmt"
	"net/http"

	"budgetwise/internal/log"
	"budgetwise/internal/storage"
)

// RestoreResponse lists the keys a restore wrote and, on a partial restore,
// the ones it could not.
type RestoreResponse struct {
	Restored bool     `json:"restored"`
	Keys     []string `json:"keys"`
	Failed   []string `json:"failed,omitempty"`
}

// handleCreateBackup flushes queued writes and returns the backup document
// as a download.
func (s *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	if err := s.flush(ctx); err != nil {
		logger.WarnContext(ctx, "Backup taken with writes still pending", log.FieldOperation, log.OpBackup, log.FieldError, err)
	}

	doc := s.store.CreateBackup(ctx)
	if doc == nil {
		InternalServerError("backup failed").Write(w)
		return
	}

	name := fmt.Sprintf("budgetwise-backup-%s.json", s.now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
	logger.InfoContext(ctx, "Backup downloaded", log.FieldOperation, log.OpBackup, log.FieldBytes, len(doc))
}

// handleRestoreBackup writes a backup document into the store and reloads
// the in-memory state from it.
func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := ReadBody(w, r, maxBackupBytes)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	// pending snapshots would overwrite restored keys
	if err := s.flush(ctx); err != nil {
		ErrorResponse(http.StatusServiceUnavailable, "pending writes did not complete").Write(w)
		return
	}

	written, err := s.store.Restore(ctx, doc)
	if errors.Is(err, storage.ErrBackupRejected) {
		BadRequestError("invalid backup document").Write(w)
		return
	}
	// keys that did land must be reflected in memory, or the next mutation
	// would overwrite them
	s.app.Load(ctx, s.store)
	if written == nil {
		written = []string{}
	}

	logger := log.FromContext(ctx)
	var restoreErr *storage.RestoreError
	if errors.As(err, &restoreErr) {
		logger.ErrorContext(ctx, "Backup partially restored", log.FieldOperation, log.OpRestore, "failed_keys", restoreErr.Failed)
		JSON(http.StatusInternalServerError, RestoreResponse{Keys: written, Failed: restoreErr.Failed}).Write(w)
		return
	}
	if err != nil {
		InternalServerError("restore failed").Write(w)
		return
	}
	logger.InfoContext(ctx, "Backup restored", log.FieldOperation, log.OpRestore, log.FieldBytes, len(doc))
	JSON(http.StatusOK, RestoreResponse{Restored: true, Keys: written}).Write(w)
}

func (s *Server) handleVerifyIntegrity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.flush(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Verifying with writes still pending", log.FieldOperation, log.OpVerify, log.FieldError, err)
	}
	report := s.store.VerifyDataIntegrity(ctx)
	if report.Issues == nil {
		report.Issues = []string{}
	}
	JSON(http.StatusOK, report).Write(w)
}
