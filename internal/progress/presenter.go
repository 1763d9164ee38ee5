package progress

import (
	"sync"
	"time"

	"microgen-architect/internal/state"
)

// Phases are the decorative labels cycled while a job is generating. They
// have no connection to actual backend progress.
var Phases = []string{
	"Analyzing Intent...",
	"Architecting Microservice...",
	"Generating Components...",
	"Enforcing Governance...",
	"Finalizing Artifacts...",
}

// DefaultInterval is the pacing between phase labels.
const DefaultInterval = 1500 * time.Millisecond

// Presenter cycles phase labels on a ticker while generation is in
// progress. The ticker is released on every transition out of the
// generating state and on teardown; Start and Stop are idempotent.
type Presenter struct {
	Interval time.Duration

	emit func(label string)

	mu   sync.Mutex
	stop chan struct{}
}

// New creates a presenter that reports each phase label through emit.
func New(emit func(label string)) *Presenter {
	return &Presenter{
		Interval: DefaultInterval,
		emit:     emit,
	}
}

// Attach drives the presenter from the store's generating flag and returns
// an unsubscribe function. Callers still own teardown via Stop.
func (p *Presenter) Attach(store *state.Store) func() {
	if store.Snapshot().Generating {
		p.Start()
	}
	return store.Subscribe(func(snap state.Snapshot) {
		if snap.Generating {
			p.Start()
		} else {
			p.Stop()
		}
	})
}

// Start begins cycling from the first phase. No-op while already running.
func (p *Presenter) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop != nil {
		return
	}
	stop := make(chan struct{})
	p.stop = stop
	go p.cycle(stop)
}

// Stop halts the cycle and releases the ticker. Safe to call repeatedly.
func (p *Presenter) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop == nil {
		return
	}
	close(p.stop)
	p.stop = nil
}

// Running reports whether the cycle is active.
func (p *Presenter) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil
}

// cycle emits the first phase immediately, then advances on each tick until
// stopped.
func (p *Presenter) cycle(stop <-chan struct{}) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	index := 0
	p.emit(Phases[index])
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			index = (index + 1) % len(Phases)
			p.emit(Phases[index])
		}
	}
}
