package session

import (
	"testing"
	"time"
)

func TestExpiryTaskCancelIsIdempotent(t *testing.T) {
	clock := newFakeClock()
	task := newExpiryTask(clock)
	fired := 0

	task.Schedule(time.Minute, func() { fired++ })
	task.Cancel()
	task.Cancel()
	clock.Advance(2 * time.Minute)

	if fired != 0 || task.Pending() {
		t.Fatalf("fired=%d pending=%v after cancel", fired, task.Pending())
	}
}

func TestExpiryTaskRescheduleReplaces(t *testing.T) {
	clock := newFakeClock()
	task := newExpiryTask(clock)
	var got []string

	task.Schedule(time.Minute, func() { got = append(got, "first") })
	task.Schedule(3*time.Minute, func() { got = append(got, "second") })
	clock.Advance(2 * time.Minute)
	if len(got) != 0 {
		t.Fatalf("replaced task fired: %v", got)
	}
	clock.Advance(time.Minute)
	if len(got) != 1 || got[0] != "second" {
		t.Fatalf("got %v", got)
	}
}

func TestExpiryTaskStaleCallbackIgnored(t *testing.T) {
	clock := newFakeClock()
	task := newExpiryTask(clock)
	fired := false

	task.Schedule(time.Minute, func() { fired = true })
	// simulate the old timer firing after a newer schedule already won
	stale := clock.timers[0]
	task.Schedule(time.Hour, func() {})
	stale.f()

	if fired {
		t.Fatal("stale callback ran")
	}
	if !task.Pending() {
		t.Fatal("newer task lost")
	}
}
