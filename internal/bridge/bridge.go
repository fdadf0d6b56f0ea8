package bridge

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"docsync/internal/metrics"
	"docsync/internal/store"
)

const (
	defaultWorkers = 8
	defaultTimeout = 5 * time.Second
)

// Bridge routes document store calls through a bounded worker pool so a slow
// or hung store stalls only the issuing handler, never fan-out for other
// rooms. Each call carries its own deadline detached from the connection's
// context: a disconnect must not cancel a save already issued.
type Bridge struct {
	store   store.DocumentStore
	log     *zap.SugaredLogger
	tasks   chan func()
	timeout time.Duration
}

func New(st store.DocumentStore, log *zap.SugaredLogger, workers int, timeout time.Duration) *Bridge {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	b := &Bridge{
		store:   st,
		log:     log,
		tasks:   make(chan func(), workers*2),
		timeout: timeout,
	}
	for i := 0; i < workers; i++ {
		go b.worker()
	}
	return b
}

func (b *Bridge) worker() {
	for fn := range b.tasks {
		fn()
	}
}

// Save writes content for the document and blocks the caller until the write
// completes or times out. A document deleted by the CRUD system makes the
// save a silent no-op.
func (b *Bridge) Save(id, content string) error {
	done := make(chan error, 1)
	b.tasks <- func() {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		start := time.Now()
		err := b.store.Save(ctx, id, content)
		metrics.SaveDuration.Observe(time.Since(start).Seconds())

		if errors.Is(err, store.ErrNotFound) {
			err = nil
		}
		done <- err
	}

	if err := <-done; err != nil {
		metrics.SaveFailures.Inc()
		b.log.Errorw("document save failed", "document_id", id, "error", err)
		return err
	}
	return nil
}

// Load returns the current content for the document, or an empty string if it
// does not exist.
func (b *Bridge) Load(ctx context.Context, id string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	type result struct {
		content string
		err     error
	}
	done := make(chan result, 1)
	b.tasks <- func() {
		content, err := b.store.Load(ctx, id)
		done <- result{content, err}
	}

	res := <-done
	if errors.Is(res.err, store.ErrNotFound) {
		return "", nil
	}
	return res.content, res.err
}

// Close stops the worker pool. No calls may be in flight.
func (b *Bridge) Close() {
	close(b.tasks)
}
