package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"budgetwise/internal/core"
	"budgetwise/internal/log"
)

// handleListInsights lists insights. ?active=true hides dismissed ones and
// ?type= keeps a single type of active insight.
func (s *Server) handleListInsights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	active, _, err := ParseBool(q, "active")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	if v := strings.TrimSpace(q.Get("type")); v != "" {
		t := core.InsightType(v)
		if !t.IsValid() {
			BadRequestError("invalid insight type").Write(w)
			return
		}
		JSON(http.StatusOK, s.app.Analytics.InsightsByType(t)).Write(w)
		return
	}
	if active {
		JSON(http.StatusOK, s.app.Analytics.ActiveInsights()).Write(w)
		return
	}
	JSON(http.StatusOK, s.app.Analytics.Insights()).Write(w)
}

func (s *Server) handleAddInsight(w http.ResponseWriter, r *http.Request) {
	var in core.InsightInput
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	in.Title = sanitizeInput(in.Title)
	in.Description = sanitizeInput(in.Description)
	in.Action = sanitizeInput(in.Action)
	in.Category = sanitizeInput(in.Category)
	if !in.Type.IsValid() {
		BadRequestError("invalid insight type").Write(w)
		return
	}
	if in.Title == "" {
		BadRequestError("insight title is required").Write(w)
		return
	}
	JSON(http.StatusCreated, s.app.Analytics.AddInsight(in)).Write(w)
}

func (s *Server) handleDismissInsight(w http.ResponseWriter, r *http.Request) {
	if !s.app.Analytics.DismissInsight(chi.URLParam(r, "id")) {
		NotFoundError("insight not found").Write(w)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handlePurgeInsights(w http.ResponseWriter, r *http.Request) {
	n := s.app.Analytics.PurgeDismissed()
	JSON(http.StatusOK, map[string]int{"removed": n}).Write(w)
}

func (s *Server) handleSpendingPatterns(w http.ResponseWriter, r *http.Request) {
	JSON(http.StatusOK, s.app.Analytics.SpendingPatterns()).Write(w)
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	JSON(http.StatusOK, s.app.Analytics.Predictions()).Write(w)
}

// handleListReports returns the history of ?period=, or all three histories.
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query().Get("period")
	if v == "" {
		JSON(http.StatusOK, s.app.Analytics.ReportHistory()).Write(w)
		return
	}
	p, err := ParsePeriod(v)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	JSON(http.StatusOK, s.app.Analytics.Reports(p)).Write(w)
}

func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	report, ok := s.app.Analytics.LatestReport(p)
	if !ok {
		NotFoundError("no report generated for this period").Write(w)
		return
	}
	JSON(http.StatusOK, report).Write(w)
}

// handleGenerateReport summarizes the last complete period before ?date=
// (today by default).
func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	ref, err := ParseRefDate(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	report, err := s.svc.GenerateReport(r.Context(), p, ref)
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(http.StatusCreated, report).Write(w)
}

func (s *Server) handleRefreshAnalytics(w http.ResponseWriter, r *http.Request) {
	res := s.svc.RefreshAnalytics(r.Context())
	if res.NewInsights == nil {
		res.NewInsights = []core.Insight{}
	}
	JSON(http.StatusOK, res).Write(w)
}

func (s *Server) handleClearAnalytics(w http.ResponseWriter, r *http.Request) {
	s.app.Analytics.ClearAll()
	log.FromContext(r.Context()).InfoContext(r.Context(), "Analytics cleared", log.FieldOperation, log.OpClear)
	NoContent().Write(w)
}
