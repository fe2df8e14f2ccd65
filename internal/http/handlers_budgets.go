package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"budgetwise/internal/core"
	"budgetwise/internal/log"
)

// BudgetView is a budget with its derived figures.
type BudgetView struct {
	core.Budget
	Percentage float64           `json:"percentage"`
	Remaining  core.Money        `json:"remaining"`
	Status     core.BudgetStatus `json:"status"`
}

func viewOf(b core.Budget) BudgetView {
	return BudgetView{Budget: b, Percentage: b.Percentage(), Remaining: b.Remaining(), Status: b.Status()}
}

func viewsOf(budgets []core.Budget) []BudgetView {
	out := make([]BudgetView, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, viewOf(b))
	}
	return out
}

// handleListBudgets lists budgets, optionally only those of ?category=.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	var budgets []core.Budget
	if category := sanitizeInput(r.URL.Query().Get("category")); category != "" {
		budgets = s.app.Budgets.ByCategory(category)
	} else {
		budgets = s.app.Budgets.All()
	}
	JSON(http.StatusOK, viewsOf(budgets)).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var in core.BudgetInput
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	in.Category = sanitizeInput(in.Category)
	in.Period = core.Period(strings.ToLower(string(in.Period)))

	b, err := s.app.Budgets.Add(in)
	if err != nil {
		writeError(w, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Budget created",
		log.FieldOperation, log.OpCreate, log.FieldID, b.ID, log.FieldCategory, b.Category, log.FieldPeriod, b.Period)
	JSON(http.StatusCreated, viewOf(b)).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	b, ok := s.app.Budgets.Get(chi.URLParam(r, "id"))
	if !ok {
		NotFoundError("budget not found").Write(w)
		return
	}
	JSON(http.StatusOK, viewOf(b)).Write(w)
}

// handleUpdateBudget replaces the editable fields of a budget. Spending is
// kept; dates left out keep their current values.
func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in core.BudgetInput
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	cur, ok := s.app.Budgets.Get(id)
	if !ok {
		NotFoundError("budget not found").Write(w)
		return
	}
	b := cur
	b.Category = sanitizeInput(in.Category)
	b.BudgetAmount = in.BudgetAmount
	b.Period = core.Period(strings.ToLower(string(in.Period)))
	b.AlertThreshold = in.AlertThreshold
	if !in.StartDate.IsZero() {
		b.StartDate = in.StartDate
	}
	if !in.EndDate.IsZero() {
		b.EndDate = in.EndDate
	} else if b.Period != cur.Period || !b.StartDate.Equal(cur.StartDate.Time) {
		end, err := b.Period.EndFrom(b.StartDate)
		if err != nil {
			writeError(w, err)
			return
		}
		b.EndDate = end
	}

	updated, err := s.app.Budgets.Update(b)
	if err != nil {
		writeError(w, err)
		return
	}
	if !updated {
		NotFoundError("budget not found").Write(w)
		return
	}
	JSON(http.StatusOK, viewOf(b)).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.app.Budgets.Delete(id) {
		NotFoundError("budget not found").Write(w)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Budget deleted", log.FieldOperation, log.OpDelete, log.FieldID, id)
	NoContent().Write(w)
}

// handleRolloverBudget starts a new period today for one budget.
func (s *Server) handleRolloverBudget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.app.Budgets.RolloverPeriod(id) {
		NotFoundError("budget not found").Write(w)
		return
	}
	b, _ := s.app.Budgets.Get(id)
	JSON(http.StatusOK, viewOf(b)).Write(w)
}

// RolloverResponse lists the budgets that started a new period.
type RolloverResponse struct {
	RolledOver []string `json:"rolledOver"`
}

func (s *Server) handleRolloverExpired(w http.ResponseWriter, r *http.Request) {
	ids := s.svc.RolloverExpired(r.Context())
	if ids == nil {
		ids = []string{}
	}
	JSON(http.StatusOK, RolloverResponse{RolledOver: ids}).Write(w)
}

// SpentRequest adjusts the spending of every budget in a category. Negative
// amounts reverse earlier spending.
type SpentRequest struct {
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
}

func (s *Server) handleAccumulateSpent(w http.ResponseWriter, r *http.Request) {
	var req SpentRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	req.Category = sanitizeInput(req.Category)
	if req.Category == "" {
		BadRequestError(core.ErrEmptyCategory.Error()).Write(w)
		return
	}
	if req.Amount.IsZero() {
		BadRequestError(core.ErrInvalidAmount.Error()).Write(w)
		return
	}

	n := s.app.Budgets.AccumulateSpent(req.Category, req.Amount)
	JSON(http.StatusOK, map[string]int{"updated": n}).Write(w)
}

// BudgetSummary aggregates all budgets.
type BudgetSummary struct {
	TotalBudget core.Money   `json:"totalBudget"`
	TotalSpent  core.Money   `json:"totalSpent"`
	Remaining   core.Money   `json:"remaining"`
	Count       int          `json:"count"`
	OverBudget  []BudgetView `json:"overBudget"`
	Alerts      []BudgetView `json:"alerts"`
}

func (s *Server) handleBudgetSummary(w http.ResponseWriter, r *http.Request) {
	total := s.app.Budgets.TotalBudget()
	spent := s.app.Budgets.TotalSpent()
	JSON(http.StatusOK, BudgetSummary{
		TotalBudget: total,
		TotalSpent:  spent,
		Remaining:   total.Sub(spent),
		Count:       len(s.app.Budgets.All()),
		OverBudget:  viewsOf(s.app.Budgets.OverBudget()),
		Alerts:      viewsOf(s.app.Budgets.Alerts()),
	}).Write(w)
}
