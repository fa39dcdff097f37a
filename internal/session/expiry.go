package session

import (
	"sync"
	"time"
)

// expiryTask is a cancellable delayed task. At most one callback is pending;
// scheduling replaces the previous one, and a callback that lost the race
// against Cancel or a newer Schedule does nothing when it fires.
type expiryTask struct {
	clock Clock

	mu    sync.Mutex
	timer Timer
	gen   uint64
}

func newExpiryTask(c Clock) *expiryTask {
	return &expiryTask{clock: c}
}

func (t *expiryTask) Schedule(d time.Duration, fire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	gen := t.gen
	t.timer = t.clock.AfterFunc(d, func() {
		t.mu.Lock()
		if t.gen != gen {
			t.mu.Unlock()
			return
		}
		t.timer = nil
		t.mu.Unlock()
		fire()
	})
}

// Cancel is idempotent.
func (t *expiryTask) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.gen++
}

func (t *expiryTask) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

func (t *expiryTask) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
