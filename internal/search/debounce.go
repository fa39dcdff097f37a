// Package search implements search-as-you-type: keystrokes are debounced
// and a response is applied only if no newer keystroke arrived meanwhile.
package search

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay sits in the 300–350ms band operators are used to.
const DefaultDelay = 300 * time.Millisecond

type FetchFunc[T any] func(ctx context.Context, keyword string) (T, error)

// ApplyFunc receives the result for the latest keyword. It runs while the
// debouncer holds its lock, so it must not call Query or Cancel.
type ApplyFunc[T any] func(keyword string, result T, err error)

// Debouncer issues a generation number per keystroke. Every response is
// checked against the latest generation when it arrives and dropped if stale.
type Debouncer[T any] struct {
	delay time.Duration
	fetch FetchFunc[T]
	apply ApplyFunc[T]

	mu     sync.Mutex
	timer  *time.Timer
	gen    uint64
	cancel context.CancelFunc
}

func New[T any](delay time.Duration, fetch FetchFunc[T], apply ApplyFunc[T]) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{delay: delay, fetch: fetch, apply: apply}
}

// Query records a keystroke. Any pending timer is replaced and any
// in-flight response becomes stale.
func (d *Debouncer[T]) Query(keyword string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.run(gen, keyword) })
}

// Cancel is called on teardown: the pending timer stops, in-flight
// requests are cancelled and their results discarded.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Debouncer[T]) run(gen uint64, keyword string) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.mu.Unlock()

	result, err := d.fetch(ctx, keyword)

	d.mu.Lock()
	defer d.mu.Unlock()
	cancel()
	if gen != d.gen {
		return
	}
	d.cancel = nil
	d.apply(keyword, result, err)
}
