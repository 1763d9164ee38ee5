package progress

import (
	"sync"
	"testing"
	"time"

	"microgen-architect/internal/state"
)

// labelRecorder collects emitted labels across goroutines.
type labelRecorder struct {
	mu     sync.Mutex
	labels []string
}

func (r *labelRecorder) emit(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels = append(r.labels, label)
}

func (r *labelRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.labels...)
}

// TestPresenterCyclesPhasesInOrder checks ordering and wrap-around.
func TestPresenterCyclesPhasesInOrder(t *testing.T) {
	recorder := &labelRecorder{}
	p := New(recorder.emit)
	p.Interval = 5 * time.Millisecond

	p.Start()
	defer p.Stop()

	waitForLabels(t, recorder, len(Phases)+2)

	labels := recorder.snapshot()
	for i, label := range labels[:len(Phases)+2] {
		if label != Phases[i%len(Phases)] {
			t.Fatalf("labels[%d] = %q, want %q", i, label, Phases[i%len(Phases)])
		}
	}
}

// TestPresenterStopReleasesTicker checks no emission survives Stop.
func TestPresenterStopReleasesTicker(t *testing.T) {
	recorder := &labelRecorder{}
	p := New(recorder.emit)
	p.Interval = 5 * time.Millisecond

	p.Start()
	waitForLabels(t, recorder, 2)
	p.Stop()

	if p.Running() {
		t.Fatal("presenter still running after stop")
	}

	count := len(recorder.snapshot())
	time.Sleep(40 * time.Millisecond)
	if got := len(recorder.snapshot()); got > count+1 {
		t.Fatalf("emissions after stop: %d -> %d", count, got)
	}

	// Repeated stops must stay safe.
	p.Stop()
	p.Stop()
}

// TestPresenterStartIsIdempotent checks no duplicate cycle goroutines.
func TestPresenterStartIsIdempotent(t *testing.T) {
	recorder := &labelRecorder{}
	p := New(recorder.emit)
	p.Interval = time.Hour

	p.Start()
	p.Start()
	defer p.Stop()

	time.Sleep(20 * time.Millisecond)
	if got := len(recorder.snapshot()); got != 1 {
		t.Fatalf("initial emissions = %d, want 1", got)
	}
}

// TestPresenterFollowsGeneratingFlag checks store-driven start and stop on
// every exit path out of the generating state.
func TestPresenterFollowsGeneratingFlag(t *testing.T) {
	recorder := &labelRecorder{}
	p := New(recorder.emit)
	p.Interval = 5 * time.Millisecond

	store := state.NewStore()
	detach := p.Attach(store)
	defer detach()
	defer p.Stop()

	store.SetGenerating(true)
	if !p.Running() {
		t.Fatal("presenter not started with generating flag")
	}

	store.SetGenerating(false)
	if p.Running() {
		t.Fatal("presenter not stopped with generating flag")
	}

	store.BeginSubmission()
	if !p.Running() {
		t.Fatal("presenter not restarted on new submission")
	}
	store.SetGenerating(false)
	if p.Running() {
		t.Fatal("presenter not stopped after second run")
	}
}

// waitForLabels polls until at least n labels were emitted.
func waitForLabels(t *testing.T, recorder *labelRecorder, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(recorder.snapshot()) >= n {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d labels, have %d", n, len(recorder.snapshot()))
}
