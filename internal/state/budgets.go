package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"budgetwise/internal/core"
	"budgetwise/internal/log"
	"budgetwise/internal/storage"
)

// Registry holds category budgets. A category has at most one budget per
// period.
type Registry struct {
	mu      sync.RWMutex
	budgets []core.Budget
	deps    Deps
}

func NewRegistry(deps Deps) *Registry {
	deps = deps.withDefaults()
	deps.Logger = deps.Logger.WithComponent(log.ComponentBudgets)
	return &Registry{budgets: []core.Budget{}, deps: deps}
}

func (r *Registry) persist() {
	r.deps.Persister.Persist(storage.KeyBudgets, slices.Clone(r.budgets))
}

func (r *Registry) today() core.Date {
	return core.DateOf(r.deps.Now())
}

// Add validates the input and appends a budget with nothing spent. Missing
// dates default to a period starting today.
func (r *Registry) Add(in core.BudgetInput) (core.Budget, error) {
	if in.StartDate.IsZero() {
		in.StartDate = r.today()
	}
	if in.EndDate.IsZero() {
		end, err := in.Period.EndFrom(in.StartDate)
		if err != nil {
			return core.Budget{}, err
		}
		in.EndDate = end
	}
	if err := in.Validate(); err != nil {
		return core.Budget{}, err
	}

	b := core.Budget{
		ID:             r.deps.NewID(),
		Category:       in.Category,
		BudgetAmount:   in.BudgetAmount,
		Period:         in.Period,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		AlertThreshold: in.AlertThreshold,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts(b) {
		return core.Budget{}, fmt.Errorf("%w: %s %s", core.ErrDuplicateBudget, b.Category, b.Period)
	}
	r.budgets = append(r.budgets, b)
	r.persist()
	r.deps.Logger.Debug("Budget added", log.FieldID, b.ID, log.FieldCategory, b.Category, log.FieldPeriod, b.Period)
	return b, nil
}

// Update replaces the budget with the same id. It reports false for an
// unknown id.
func (r *Registry) Update(b core.Budget) (bool, error) {
	if err := b.Validate(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(b.ID)
	if i < 0 {
		return false, nil
	}
	if r.conflicts(b) {
		return false, fmt.Errorf("%w: %s %s", core.ErrDuplicateBudget, b.Category, b.Period)
	}
	r.budgets[i] = b
	r.persist()
	return true, nil
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return false
	}
	r.budgets = slices.Delete(r.budgets, i, i+1)
	r.persist()
	return true
}

// AccumulateSpent adds delta to every budget of category and returns how many
// were touched. Negative deltas reverse earlier spending; nothing is clamped.
func (r *Registry) AccumulateSpent(category string, delta core.Money) int {
	if delta.IsZero() {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for i := range r.budgets {
		if r.budgets[i].Category == category {
			r.budgets[i].SpentAmount = r.budgets[i].SpentAmount.Add(delta)
			n++
		}
	}
	if n > 0 {
		r.persist()
	}
	return n
}

// RolloverPeriod zeroes spending and starts a new period today.
func (r *Registry) RolloverPeriod(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return false
	}
	if !r.rollover(i, r.today()) {
		return false
	}
	r.persist()
	return true
}

// RolloverExpired rolls over every budget whose end date lies before now's
// calendar day and returns their ids.
func (r *Registry) RolloverExpired(now time.Time) []string {
	today := core.DateOf(now)

	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for i := range r.budgets {
		if r.budgets[i].EndDate.Before(today.Time) && r.rollover(i, today) {
			ids = append(ids, r.budgets[i].ID)
		}
	}
	if len(ids) > 0 {
		r.persist()
		r.deps.Logger.Info("Budgets rolled over", log.FieldOperation, log.OpRollover, log.FieldCount, len(ids))
	}
	return ids
}

func (r *Registry) rollover(i int, today core.Date) bool {
	b := &r.budgets[i]
	end, err := b.Period.EndFrom(today)
	if err != nil {
		r.deps.Logger.Warn("Cannot roll over budget", log.FieldID, b.ID, log.FieldError, err)
		return false
	}
	b.SpentAmount = core.Money{}
	b.StartDate = today
	b.EndDate = end
	return true
}

// ReplaceAll swaps the whole collection.
func (r *Registry) ReplaceAll(budgets []core.Budget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.budgets = append([]core.Budget{}, budgets...)
	r.persist()
}

func (r *Registry) Clear() {
	r.ReplaceAll(nil)
}

func (r *Registry) Get(id string) (core.Budget, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.index(id); i >= 0 {
		return r.budgets[i], true
	}
	return core.Budget{}, false
}

func (r *Registry) All() []core.Budget {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.budgets)
}

func (r *Registry) ByCategory(category string) []core.Budget {
	return r.filter(func(b core.Budget) bool { return b.Category == category })
}

// OverBudget lists budgets with spending strictly above the cap.
func (r *Registry) OverBudget() []core.Budget {
	return r.filter(core.Budget.IsOver)
}

// Alerts lists budgets at or above their alert threshold.
func (r *Registry) Alerts() []core.Budget {
	return r.filter(core.Budget.ReachedThreshold)
}

func (r *Registry) TotalBudget() core.Money {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total core.Money
	for _, b := range r.budgets {
		total = total.Add(b.BudgetAmount)
	}
	return total
}

func (r *Registry) TotalSpent() core.Money {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total core.Money
	for _, b := range r.budgets {
		total = total.Add(b.SpentAmount)
	}
	return total
}

func (r *Registry) filter(keep func(core.Budget) bool) []core.Budget {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []core.Budget{}
	for _, b := range r.budgets {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func (r *Registry) index(id string) int {
	return slices.IndexFunc(r.budgets, func(b core.Budget) bool { return b.ID == id })
}

// conflicts reports another budget with the same category and period.
func (r *Registry) conflicts(b core.Budget) bool {
	return slices.ContainsFunc(r.budgets, func(o core.Budget) bool {
		return o.ID != b.ID && o.Category == b.Category && o.Period == b.Period
	})
}

func (r *Registry) hydrate(budgets []core.Budget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if budgets == nil {
		budgets = []core.Budget{}
	}
	r.budgets = budgets
}
