package search

import (
	"context"
	"sync"
	"testing"
	"time"
)

// gatedFetch blocks each keyword until the test releases it.
type gatedFetch struct {
	started chan string
	mu      sync.Mutex
	gates   map[string]chan struct{}
}

func newGatedFetch() *gatedFetch {
	return &gatedFetch{started: make(chan string, 10), gates: map[string]chan struct{}{}}
}

func (g *gatedFetch) gate(kw string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gates[kw] == nil {
		g.gates[kw] = make(chan struct{})
	}
	return g.gates[kw]
}

func (g *gatedFetch) fetch(ctx context.Context, kw string) (string, error) {
	g.started <- kw
	<-g.gate(kw)
	return "result:" + kw, nil
}

type recorder struct {
	mu   sync.Mutex
	got  []string
	done chan struct{}
}

func (r *recorder) apply(kw, result string, err error) {
	r.mu.Lock()
	r.got = append(r.got, result)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func waitStarted(t *testing.T, g *gatedFetch, want string) {
	t.Helper()
	select {
	case kw := <-g.started:
		if kw != want {
			t.Fatalf("fetch started for %q, want %q", kw, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("fetch for %q never started", want)
	}
}

func TestStaleResponseIsDropped(t *testing.T) {
	g := newGatedFetch()
	rec := &recorder{done: make(chan struct{}, 10)}
	deb := New[string](10*time.Millisecond, g.fetch, rec.apply)

	deb.Query("ao")
	waitStarted(t, g, "ao")
	deb.Query("ao thun")
	waitStarted(t, g, "ao thun")

	// newer response lands first, then the older one
	close(g.gate("ao thun"))
	<-rec.done
	close(g.gate("ao"))

	select {
	case <-rec.done:
		t.Fatal("stale response was applied")
	case <-time.After(100 * time.Millisecond):
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.got) != 1 || rec.got[0] != "result:ao thun" {
		t.Fatalf("applied %v", rec.got)
	}
}

func TestKeystrokesAreDebounced(t *testing.T) {
	var mu sync.Mutex
	var fetched []string
	done := make(chan struct{}, 10)
	deb := New[string](50*time.Millisecond,
		func(_ context.Context, kw string) (string, error) {
			mu.Lock()
			fetched = append(fetched, kw)
			mu.Unlock()
			return kw, nil
		},
		func(string, string, error) { done <- struct{}{} },
	)

	for _, kw := range []string{"s", "sh", "shi", "shirt"} {
		deb.Query(kw)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("no result")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(fetched) != 1 || fetched[0] != "shirt" {
		t.Fatalf("fetched %v, want only the last keystroke", fetched)
	}
}

func TestCancelSuppressesPendingResult(t *testing.T) {
	g := newGatedFetch()
	rec := &recorder{done: make(chan struct{}, 10)}
	deb := New[string](10*time.Millisecond, g.fetch, rec.apply)

	deb.Query("cap")
	waitStarted(t, g, "cap")
	deb.Cancel()
	close(g.gate("cap"))

	select {
	case <-rec.done:
		t.Fatal("result applied after cancel")
	case <-time.After(100 * time.Millisecond):
	}
}
