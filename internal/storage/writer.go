package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"budgetwise/internal/log"
)

// Saver is the part of Store the Writer drains into.
type Saver interface {
	SaveRaw(ctx context.Context, key string, data []byte) bool
}

// Notifier is told about every key the Writer persisted successfully.
type Notifier interface {
	NotifyChange(ctx context.Context, key string) error
}

// Writer persists snapshots in the background. Persist never blocks on I/O:
// pending values are coalesced per key (last write wins) and drained by one
// goroutine in the order keys were first queued.
type Writer struct {
	saver    Saver
	notifier Notifier
	logger   *log.Logger
	timeout  time.Duration

	mu      sync.Mutex
	pending map[string][]byte
	order   []string
	idle    chan struct{} // closed while nothing is pending or being written
	isIdle  bool
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

type WriterOption func(*Writer)

func WithNotifier(n Notifier) WriterOption {
	return func(w *Writer) { w.notifier = n }
}

func WithWriterLogger(l *log.Logger) WriterOption {
	return func(w *Writer) { w.logger = l.WithComponent(log.ComponentWriter) }
}

// WithWriteTimeout bounds each backend write.
func WithWriteTimeout(d time.Duration) WriterOption {
	return func(w *Writer) { w.timeout = d }
}

func NewWriter(saver Saver, opts ...WriterOption) *Writer {
	idle := make(chan struct{})
	close(idle)
	w := &Writer{
		saver:   saver,
		logger:  log.Nop(),
		timeout: 10 * time.Second,
		pending: make(map[string][]byte),
		idle:    idle,
		isIdle:  true,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.run()
	return w
}

// Persist snapshots value and queues it for key. Serialization errors are
// logged and the value dropped. After Close the value is written inline.
func (w *Writer) Persist(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		w.logger.Error("Failed to serialize value", log.FieldKey, key, log.FieldError, err)
		return
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.write(key, data)
		return
	}
	if _, queued := w.pending[key]; !queued {
		w.order = append(w.order, key)
	}
	w.pending[key] = data
	if w.isIdle {
		w.idle = make(chan struct{})
		w.isIdle = false
	}
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of keys waiting to be written.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.order)
}

// Flush waits until every value queued before the call has been written.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	idle := w.idle
	w.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains pending writes and stops the background goroutine.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		w.mu.Lock()
		if len(w.order) == 0 {
			if !w.isIdle {
				close(w.idle)
				w.isIdle = true
			}
			w.mu.Unlock()
			return
		}
		key := w.order[0]
		w.order = w.order[1:]
		data := w.pending[key]
		delete(w.pending, key)
		w.mu.Unlock()

		w.write(key, data)
	}
}

func (w *Writer) write(key string, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if !w.saver.SaveRaw(ctx, key, data) {
		w.logger.Warn("Background write failed", log.FieldKey, key)
		return
	}
	if w.notifier == nil {
		return
	}
	if err := w.notifier.NotifyChange(ctx, key); err != nil {
		w.logger.Warn("Failed to publish change", log.FieldKey, key, log.FieldError, err)
	}
}
