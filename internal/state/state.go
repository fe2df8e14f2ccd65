// Package state holds the in-memory stores of the app. Every effective
// mutation updates memory under the store's lock and hands a snapshot of the
// affected collection to a Persister; persistence never blocks the caller.
package state

import (
	"time"

	"github.com/google/uuid"

	"budgetwise/internal/log"
)

// Persister receives snapshots to write under a storage key.
type Persister interface {
	Persist(key string, value any)
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(key string, value any)

func (f PersisterFunc) Persist(key string, value any) { f(key, value) }

// Deps are shared by every store. Zero fields get defaults.
type Deps struct {
	Persister Persister
	Logger    *log.Logger
	Now       func() time.Time
	NewID     func() string
}

func (d Deps) withDefaults() Deps {
	if d.Persister == nil {
		d.Persister = PersisterFunc(func(string, any) {})
	}
	if d.Logger == nil {
		d.Logger = log.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return d
}
