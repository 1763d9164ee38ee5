package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"microgen-architect/internal/domain"
	"microgen-architect/internal/state"
	"microgen-architect/internal/synthesis"
)

// fakeService allows injecting custom generate behavior per test.
type fakeService struct {
	generate func(ctx context.Context, prompt string) (synthesis.Response, error)
}

// Generate delegates to the injected function.
func (s *fakeService) Generate(ctx context.Context, prompt string) (synthesis.Response, error) {
	if s.generate == nil {
		return synthesis.Response{}, nil
	}
	return s.generate(ctx, prompt)
}

// DownloadURL builds a deterministic archive URL.
func (s *fakeService) DownloadURL(jobID string) string {
	return "http://localhost:8081/api/download/" + jobID
}

// newTestOrchestrator builds an orchestrator with a short grace delay.
func newTestOrchestrator(store *state.Store, service Service) *Orchestrator {
	o := New(store, service)
	o.CompletionGrace = 20 * time.Millisecond
	return o
}

// TestSubmitRejectsEmptyPrompt checks the non-empty precondition.
func TestSubmitRejectsEmptyPrompt(t *testing.T) {
	store := state.NewStore()
	o := newTestOrchestrator(store, &fakeService{})

	if err := o.Submit("   "); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("error = %v, want %v", err, ErrEmptyPrompt)
	}
	if store.Snapshot().Generating {
		t.Fatal("rejected submit must not raise generating")
	}
}

// TestSubmitCompletedAdoptsFilesBeforeGraceElapses checks that the file map
// is visible immediately while the flag drops only after the delay.
func TestSubmitCompletedAdoptsFilesBeforeGraceElapses(t *testing.T) {
	store := state.NewStore()
	service := &fakeService{generate: func(ctx context.Context, prompt string) (synthesis.Response, error) {
		return synthesis.Response{
			ID:             "job-1",
			Status:         domain.JobStatusCompleted,
			GeneratedFiles: domain.FileMap{"src/Order.java": "class Order {}"},
		}, nil
	}}
	o := newTestOrchestrator(store, service)
	o.CompletionGrace = 200 * time.Millisecond

	if err := o.Submit("Order service with PostgreSQL"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	waitFor(t, func() bool {
		return len(store.Snapshot().GeneratedFiles) == 1
	}, "files adopted")

	snap := store.Snapshot()
	if !snap.Generating {
		t.Fatal("generating dropped before grace delay")
	}
	if snap.Job.ID != "job-1" || snap.Job.Status != domain.JobStatusCompleted {
		t.Fatalf("job = %+v", snap.Job)
	}

	waitFor(t, func() bool {
		return !store.Snapshot().Generating
	}, "generating cleared after grace delay")

	snap = store.Snapshot()
	if snap.JobError != "" {
		t.Fatalf("error = %q, want empty", snap.JobError)
	}
	if snap.GeneratedFiles["src/Order.java"] != "class Order {}" {
		t.Fatalf("files = %v", snap.GeneratedFiles)
	}
}

// TestSubmitFailedSurfacesBusinessError checks the FAILED path.
func TestSubmitFailedSurfacesBusinessError(t *testing.T) {
	store := state.NewStore()
	service := &fakeService{generate: func(ctx context.Context, prompt string) (synthesis.Response, error) {
		return synthesis.Response{
			ID:     "job-2",
			Status: domain.JobStatusFailed,
			Error:  "LLM provider timeout",
		}, nil
	}}
	o := newTestOrchestrator(store, service)

	if err := o.Submit("bad request"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitFor(t, func() bool {
		return !store.Snapshot().Generating
	}, "generating cleared")

	snap := store.Snapshot()
	if snap.JobError != "LLM provider timeout" {
		t.Fatalf("error = %q", snap.JobError)
	}
	if len(snap.GeneratedFiles) != 0 {
		t.Fatalf("files = %v, want empty", snap.GeneratedFiles)
	}
	if snap.Job.ID != "job-2" || snap.Job.Status != domain.JobStatusFailed {
		t.Fatalf("job = %+v", snap.Job)
	}
}

// TestSubmitFailedWithoutMessageUsesFallback checks the generic message.
func TestSubmitFailedWithoutMessageUsesFallback(t *testing.T) {
	store := state.NewStore()
	service := &fakeService{generate: func(ctx context.Context, prompt string) (synthesis.Response, error) {
		return synthesis.Response{ID: "job-3", Status: domain.JobStatusFailed}, nil
	}}
	o := newTestOrchestrator(store, service)

	if err := o.Submit("bad request"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitFor(t, func() bool {
		return !store.Snapshot().Generating
	}, "generating cleared")

	if got := store.Snapshot().JobError; got != GenericFailureMessage {
		t.Fatalf("error = %q, want generic fallback", got)
	}
}

// TestSubmitTransportFailure checks the distinct transport outcome: generic
// message, ERROR phase, job id left as it was.
func TestSubmitTransportFailure(t *testing.T) {
	store := state.NewStore()
	service := &fakeService{generate: func(ctx context.Context, prompt string) (synthesis.Response, error) {
		return synthesis.Response{}, &synthesis.TransportError{Op: "post generate", Err: errors.New("connection refused")}
	}}
	o := newTestOrchestrator(store, service)

	if err := o.Submit("anything"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitFor(t, func() bool {
		return !store.Snapshot().Generating
	}, "generating cleared")

	snap := store.Snapshot()
	if snap.JobError != TransportFailureMessage {
		t.Fatalf("error = %q, want transport message", snap.JobError)
	}
	if snap.Job.ID != "" {
		t.Fatalf("job id = %q, want unchanged empty id", snap.Job.ID)
	}
	if snap.Job.Status != domain.JobStatusTransportError {
		t.Fatalf("status = %q, want %q", snap.Job.Status, domain.JobStatusTransportError)
	}
	if len(snap.GeneratedFiles) != 0 {
		t.Fatalf("files = %v, want empty", snap.GeneratedFiles)
	}
}

// TestSubmitUnrecognizedStatusIsSilentlyTerminal checks unknown statuses.
func TestSubmitUnrecognizedStatusIsSilentlyTerminal(t *testing.T) {
	store := state.NewStore()
	service := &fakeService{generate: func(ctx context.Context, prompt string) (synthesis.Response, error) {
		return synthesis.Response{ID: "job-4", Status: "QUEUED"}, nil
	}}
	o := newTestOrchestrator(store, service)

	if err := o.Submit("anything"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitFor(t, func() bool {
		return !store.Snapshot().Generating
	}, "generating cleared")

	snap := store.Snapshot()
	if snap.JobError != "" {
		t.Fatalf("error = %q, want none", snap.JobError)
	}
	if snap.Job.ID != "job-4" || snap.Job.Status != "QUEUED" {
		t.Fatalf("job = %+v, want id and raw status kept", snap.Job)
	}
	if len(snap.GeneratedFiles) != 0 {
		t.Fatalf("files = %v, want empty", snap.GeneratedFiles)
	}
}

// TestSubmitClearsPreviousResultsImmediately checks the clear-on-submit
// invariant before the new response arrives.
func TestSubmitClearsPreviousResultsImmediately(t *testing.T) {
	store := state.NewStore()
	release := make(chan struct{})
	service := &fakeService{generate: func(ctx context.Context, prompt string) (synthesis.Response, error) {
		<-release
		return synthesis.Response{
			ID:             "job-6",
			Status:         domain.JobStatusCompleted,
			GeneratedFiles: domain.FileMap{"b.txt": "new"},
		}, nil
	}}
	o := newTestOrchestrator(store, service)

	store.Update(func(snap *state.Snapshot) {
		snap.Job = domain.Job{ID: "job-5", Status: domain.JobStatusCompleted}
		snap.GeneratedFiles = domain.FileMap{"a.txt": "old"}
	})

	if err := o.Submit("regenerate"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	snap := store.Snapshot()
	if len(snap.GeneratedFiles) != 0 || snap.Job.ID != "" {
		t.Fatalf("previous results still visible: %+v", snap)
	}
	if !snap.Generating {
		t.Fatal("generating not raised")
	}

	close(release)
	waitFor(t, func() bool {
		return !store.Snapshot().Generating
	}, "generating cleared")

	snap = store.Snapshot()
	if _, ok := snap.GeneratedFiles["a.txt"]; ok {
		t.Fatal("stale file survived resubmission")
	}
	if snap.GeneratedFiles["b.txt"] != "new" {
		t.Fatalf("files = %v", snap.GeneratedFiles)
	}
}

// TestSupersededResponseIsDropped checks that only the newest submission's
// response may write terminal state.
func TestSupersededResponseIsDropped(t *testing.T) {
	store := state.NewStore()
	releaseFirst := make(chan struct{})
	service := &fakeService{generate: func(ctx context.Context, prompt string) (synthesis.Response, error) {
		if prompt == "first" {
			<-releaseFirst
			return synthesis.Response{
				ID:             "job-A",
				Status:         domain.JobStatusCompleted,
				GeneratedFiles: domain.FileMap{"old.java": "stale"},
			}, nil
		}
		return synthesis.Response{ID: "job-B", Status: domain.JobStatusFailed, Error: "quota exceeded"}, nil
	}}
	o := newTestOrchestrator(store, service)

	if err := o.Submit("first"); err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if err := o.Submit("second"); err != nil {
		t.Fatalf("second Submit() error = %v", err)
	}

	waitFor(t, func() bool {
		snap := store.Snapshot()
		return snap.Job.ID == "job-B" && !snap.Generating
	}, "second job applied")

	close(releaseFirst)
	time.Sleep(50 * time.Millisecond)

	snap := store.Snapshot()
	if snap.Job.ID != "job-B" || snap.Job.Status != domain.JobStatusFailed {
		t.Fatalf("job = %+v, want job-B failure preserved", snap.Job)
	}
	if len(snap.GeneratedFiles) != 0 {
		t.Fatalf("files = %v, want stale completion dropped", snap.GeneratedFiles)
	}
	if snap.JobError != "quota exceeded" {
		t.Fatalf("error = %q", snap.JobError)
	}
}

// TestSubmitPublishesEvents checks the event trail for a completed job.
func TestSubmitPublishesEvents(t *testing.T) {
	store := state.NewStore()
	service := &fakeService{generate: func(ctx context.Context, prompt string) (synthesis.Response, error) {
		return synthesis.Response{
			ID:             "job-1",
			Status:         domain.JobStatusCompleted,
			GeneratedFiles: domain.FileMap{"src/Order.java": "class Order {}"},
		}, nil
	}}
	o := newTestOrchestrator(store, service)

	var pushed []Event
	o.OnEvent = func(event Event) {
		pushed = append(pushed, event)
	}

	if err := o.Submit("Order service"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitFor(t, func() bool {
		return !store.Snapshot().Generating
	}, "generating cleared")

	events := o.Events(0)
	assertEventTypeExists(t, events, EventTypeSubmitted)
	assertEventTypeExists(t, events, EventTypeResult)
	if len(pushed) != len(events) {
		t.Fatalf("pushed %d events, buffered %d", len(pushed), len(events))
	}
}

// TestDownload checks URL construction and the empty-id guard.
func TestDownload(t *testing.T) {
	store := state.NewStore()
	o := newTestOrchestrator(store, &fakeService{})

	var opened string
	o.Navigate = func(url string) {
		opened = url
	}

	if err := o.Download(""); !errors.Is(err, ErrNoJob) {
		t.Fatalf("error = %v, want %v", err, ErrNoJob)
	}
	if err := o.Download("job-7"); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if opened != "http://localhost:8081/api/download/job-7" {
		t.Fatalf("opened = %q", opened)
	}
}

// waitFor polls until the condition holds or times out.
func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// assertEventTypeExists verifies at least one event of given type exists.
func assertEventTypeExists(t *testing.T, events []Event, want EventType) {
	t.Helper()
	for _, event := range events {
		if event.Type == want {
			return
		}
	}
	t.Fatalf("event type %s not found", want)
}
