package state

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// recorder keeps the JSON of every persisted snapshot.
type recorder struct {
	mu    sync.Mutex
	last  map[string]string
	calls []string
}

func newRecorder() *recorder {
	return &recorder{last: map[string]string{}}
}

func (r *recorder) Persist(key string, value any) {
	b, err := json.Marshal(value)
	if err != nil {
		panic(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last[key] = string(b)
	r.calls = append(r.calls, key)
}

func (r *recorder) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, k := range r.calls {
		if k == key {
			n++
		}
	}
	return n
}

// testDeps returns deps with a fixed clock and sequential ids.
func testDeps(now time.Time) (Deps, *recorder) {
	rec := newRecorder()
	var mu sync.Mutex
	seq := 0
	return Deps{
		Persister: rec,
		Now:       func() time.Time { return now },
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	}, rec
}

var testNow = time.Date(2024, 1, 20, 15, 4, 5, 0, time.UTC)
