package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"budgetwise/internal/core"
	"budgetwise/internal/log"
)

// handleListTransactions lists the ledger newest first, optionally filtered
// by ?type= and ?category= and capped by ?limit=.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := ParseLimit(q)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	typ := core.TransactionType(strings.TrimSpace(q.Get("type")))
	if typ != "" && !typ.IsValid() {
		BadRequestError(core.ErrInvalidType.Error()).Write(w)
		return
	}
	category := sanitizeInput(q.Get("category"))

	var txs []core.Transaction
	switch {
	case typ == "" && category == "" && limit > 0:
		txs = s.app.Transactions.Recent(limit)
	case typ != "" && category == "":
		txs = s.app.Transactions.ByType(typ)
	case category != "":
		txs = s.app.Transactions.ByCategory(category)
		if typ != "" {
			txs = filterType(txs, typ)
		}
	default:
		txs = s.app.Transactions.All()
	}
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	JSON(http.StatusOK, txs).Write(w)
}

func filterType(txs []core.Transaction, typ core.TransactionType) []core.Transaction {
	out := txs[:0:0]
	for _, tx := range txs {
		if tx.Type == typ {
			out = append(out, tx)
		}
	}
	return out
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in core.TransactionInput
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.normalizeTransaction(&in)

	tx, err := s.svc.RecordTransaction(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction recorded",
		log.FieldOperation, log.OpCreate, log.FieldID, tx.ID, log.FieldCategory, tx.Category, log.FieldAmountCents, tx.Amount.Cents)
	JSON(http.StatusCreated, tx).Write(w)
}

// normalizeTransaction cleans free text and dates a transaction today when
// the client sent no date.
func (s *Server) normalizeTransaction(in *core.TransactionInput) {
	in.Description = sanitizeInput(in.Description)
	in.Category = sanitizeInput(in.Category)
	in.Notes = sanitizeInput(in.Notes)
	if in.Date.IsZero() {
		in.Date = core.DateOf(s.now())
	}
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := s.app.Transactions.Get(chi.URLParam(r, "id"))
	if !ok {
		NotFoundError("transaction not found").Write(w)
		return
	}
	JSON(http.StatusOK, tx).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in core.TransactionInput
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.normalizeTransaction(&in)

	tx := in.WithID(id)
	ok, err := s.svc.EditTransaction(r.Context(), tx)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		NotFoundError("transaction not found").Write(w)
		return
	}
	tx, _ = s.app.Transactions.Get(id)
	JSON(http.StatusOK, tx).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.svc.RemoveTransaction(r.Context(), id) {
		NotFoundError("transaction not found").Write(w)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction deleted", log.FieldOperation, log.OpDelete, log.FieldID, id)
	NoContent().Write(w)
}

// TotalsResponse sums the ledger.
type TotalsResponse struct {
	Income   core.Money `json:"income"`
	Expenses core.Money `json:"expenses"`
	Balance  core.Money `json:"balance"`
	Count    int        `json:"count"`
}

func (s *Server) handleTransactionTotals(w http.ResponseWriter, r *http.Request) {
	income, expenses := s.app.Transactions.Totals()
	JSON(http.StatusOK, TotalsResponse{
		Income:   income,
		Expenses: expenses,
		Balance:  income.Sub(expenses),
		Count:    s.app.Transactions.Len(),
	}).Write(w)
}
