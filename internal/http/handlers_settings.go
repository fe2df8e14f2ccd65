package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"budgetwise/internal/log"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	JSON(http.StatusOK, s.app.Settings.Snapshot()).Write(w)
}

// handleUpdateSettingsGroup merges a partial update into one settings group
// and returns the whole group.
func (s *Server) handleUpdateSettingsGroup(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "group")
	raw, err := ReadBody(w, r, maxBodyBytes)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if !json.Valid(raw) {
		BadRequestError("invalid JSON body").Write(w)
		return
	}

	updated, err := s.app.Settings.UpdateGroup(group, raw)
	if err != nil {
		writeError(w, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Settings updated", log.FieldOperation, log.OpUpdate, log.FieldKey, group)
	JSON(http.StatusOK, updated).Write(w)
}

func (s *Server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	settings := s.app.Settings.ResetAll()
	log.FromContext(r.Context()).InfoContext(r.Context(), "Settings reset", log.FieldOperation, log.OpClear)
	JSON(http.StatusOK, settings).Write(w)
}
