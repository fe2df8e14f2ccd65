package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"budgetwise/internal/core"
	"budgetwise/internal/log"
	"budgetwise/internal/state"
)

// flushTimeout bounds how long a request waits for queued writes.
const flushTimeout = 10 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	JSON(http.StatusOK, map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	pending := 0
	if s.flusher != nil {
		pending = s.flusher.Pending()
	}
	JSON(http.StatusOK, map[string]any{"status": "ready", "pendingWrites": pending}).Write(w)
}

// handleFlush waits until every queued write has reached the backend.
func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	if err := s.flush(r.Context()); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Flush failed", log.FieldOperation, log.OpPersist, log.FieldError, err)
		ErrorResponse(http.StatusServiceUnavailable, "pending writes did not complete").Write(w)
		return
	}
	NoContent().Write(w)
}

func (s *Server) flush(ctx context.Context) error {
	if s.flusher == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	return s.flusher.Flush(ctx)
}

// writeError maps domain errors to status codes: duplicates conflict,
// unknown settings groups are not found and everything else is a bad request.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrDuplicateBudget):
		ConflictError(err.Error()).Write(w)
	case errors.Is(err, state.ErrUnknownGroup):
		NotFoundError(err.Error()).Write(w)
	default:
		BadRequestError(err.Error()).Write(w)
	}
}
