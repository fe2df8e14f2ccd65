package state

import (
	"slices"
	"sync"

	"budgetwise/internal/core"
	"budgetwise/internal/log"
	"budgetwise/internal/storage"
)

// DefaultRecent is the number of transactions Recent returns for n <= 0.
const DefaultRecent = 5

// Ledger is the ordered transaction collection, newest first by insertion.
type Ledger struct {
	mu   sync.RWMutex
	txs  []core.Transaction
	deps Deps
}

func NewLedger(deps Deps) *Ledger {
	deps = deps.withDefaults()
	deps.Logger = deps.Logger.WithComponent(log.ComponentLedger)
	return &Ledger{txs: []core.Transaction{}, deps: deps}
}

// persist must be called with mu held.
func (l *Ledger) persist() {
	l.deps.Persister.Persist(storage.KeyTransactions, slices.Clone(l.txs))
}

// Add assigns a new id and inserts the transaction at the front.
func (l *Ledger) Add(in core.TransactionInput) core.Transaction {
	tx := in.WithID(l.deps.NewID())

	l.mu.Lock()
	defer l.mu.Unlock()
	l.txs = slices.Insert(l.txs, 0, tx)
	l.persist()
	l.deps.Logger.Debug("Transaction added", log.FieldID, tx.ID, log.FieldCategory, tx.Category, log.FieldAmountCents, tx.Amount.Cents)
	return tx
}

// Update replaces the transaction with the same id. Unknown ids are a no-op.
func (l *Ledger) Update(tx core.Transaction) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.index(tx.ID)
	if i < 0 {
		return false
	}
	l.txs[i] = tx
	l.persist()
	return true
}

func (l *Ledger) Delete(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.txs = slices.Delete(l.txs, i, i+1)
	l.persist()
	return true
}

// ReplaceAll swaps the whole collection.
func (l *Ledger) ReplaceAll(txs []core.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txs = append([]core.Transaction{}, txs...)
	l.persist()
}

func (l *Ledger) Clear() {
	l.ReplaceAll(nil)
}

func (l *Ledger) Get(id string) (core.Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.index(id); i >= 0 {
		return l.txs[i], true
	}
	return core.Transaction{}, false
}

func (l *Ledger) All() []core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.txs)
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.txs)
}

func (l *Ledger) ByType(t core.TransactionType) []core.Transaction {
	return l.filter(func(tx core.Transaction) bool { return tx.Type == t })
}

func (l *Ledger) ByCategory(category string) []core.Transaction {
	return l.filter(func(tx core.Transaction) bool { return tx.Category == category })
}

// Recent returns the first n transactions (DefaultRecent when n <= 0).
func (l *Ledger) Recent(n int) []core.Transaction {
	if n <= 0 {
		n = DefaultRecent
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	n = min(n, len(l.txs))
	return slices.Clone(l.txs[:n])
}

// Totals sums income and expense magnitudes.
func (l *Ledger) Totals() (income, expenses core.Money) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, tx := range l.txs {
		switch tx.Type {
		case core.Income:
			income = income.Add(tx.Amount)
		case core.Expense:
			expenses = expenses.Add(tx.Amount)
		}
	}
	return income, expenses
}

func (l *Ledger) filter(keep func(core.Transaction) bool) []core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := []core.Transaction{}
	for _, tx := range l.txs {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	return out
}

func (l *Ledger) index(id string) int {
	return slices.IndexFunc(l.txs, func(tx core.Transaction) bool { return tx.ID == id })
}

// hydrate replaces the collection with stored data without persisting it.
func (l *Ledger) hydrate(txs []core.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if txs == nil {
		txs = []core.Transaction{}
	}
	l.txs = txs
}
