package jobs

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"microgen-architect/internal/domain"
	"microgen-architect/internal/state"
	"microgen-architect/internal/synthesis"
)

// ErrEmptyPrompt is returned when submit is called without prompt text.
var ErrEmptyPrompt = errors.New("prompt is empty")

// ErrNoJob is returned when download is requested without a completed job.
var ErrNoJob = errors.New("no job to download")

// GenericFailureMessage is shown when the service reports FAILED without an
// explanation.
const GenericFailureMessage = "Synthesis failed due to LLM provider error."

// TransportFailureMessage is shown when the request itself could not be
// completed, distinct from any business failure message.
const TransportFailureMessage = "Could not reach the synthesis service."

// DefaultCompletionGrace lets the completion UI settle before the generating
// flag drops. It never delays file visibility.
const DefaultCompletionGrace = 800 * time.Millisecond

// Service is the remote synthesis engine as seen by the orchestrator.
type Service interface {
	Generate(ctx context.Context, prompt string) (synthesis.Response, error)
	DownloadURL(jobID string) string
}

// Orchestrator drives one generation job at a time through the state store.
// It is the only component that mutates job identity, generated files, and
// the error field as business logic.
//
// Each submission takes a monotonic token; a response may only write
// terminal state while its token is still the newest, so results of a
// superseded submission are dropped rather than racing the current one.
type Orchestrator struct {
	store   *state.Store
	service Service
	events  *EventBus

	// CompletionGrace delays only the generating-flag drop after COMPLETED.
	CompletionGrace time.Duration

	// Navigate opens a URL in the platform browser. Nil disables downloads.
	Navigate func(url string)

	// OnEvent receives every published event, after buffering.
	OnEvent func(Event)

	// Logger records submissions and outcomes. Nil disables logging.
	Logger *log.Logger

	latest atomic.Uint64
}

// New creates an orchestrator bound to the store and synthesis service.
func New(store *state.Store, service Service) *Orchestrator {
	return &Orchestrator{
		store:           store,
		service:         service,
		events:          NewEventBus(500),
		CompletionGrace: DefaultCompletionGrace,
	}
}

// Events returns buffered events with sequence greater than sinceSeq.
func (o *Orchestrator) Events(sinceSeq int64) []Event {
	return o.events.Since(sinceSeq)
}

// Submit clears previous job state, marks generation in progress, and issues
// one request to the synthesis service. Effects are observed through the
// store; the request itself runs asynchronously.
func (o *Orchestrator) Submit(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}

	token := o.latest.Add(1)
	o.store.BeginSubmission()
	o.publish(Event{Type: EventTypeSubmitted, Message: "Generation request submitted"})
	o.logf("submit: request issued")

	go o.run(token, prompt)
	return nil
}

// Download navigates to the archive URL for the given job. Fire-and-forget;
// the outcome of the download is not observed.
func (o *Orchestrator) Download(jobID string) error {
	if jobID == "" {
		return ErrNoJob
	}
	if o.Navigate != nil {
		o.Navigate(o.service.DownloadURL(jobID))
	}
	return nil
}

// run awaits the service response and applies exactly one terminal outcome.
func (o *Orchestrator) run(token uint64, prompt string) {
	resp, err := o.service.Generate(context.Background(), prompt)

	if !o.isLatest(token) {
		o.logf("submit: response for superseded request dropped")
		return
	}

	if err != nil {
		o.applyTransportFailure(err)
		return
	}

	switch resp.Status {
	case domain.JobStatusCompleted:
		o.applyCompletion(token, resp)
	case domain.JobStatusFailed:
		o.applyFailure(resp)
	default:
		o.applyUnrecognized(resp)
	}
}

// applyCompletion adopts the file map immediately, then drops the generating
// flag after the grace delay.
func (o *Orchestrator) applyCompletion(token uint64, resp synthesis.Response) {
	files := resp.GeneratedFiles
	if files == nil {
		files = domain.FileMap{}
	}

	o.store.Update(func(snap *state.Snapshot) {
		snap.Job = domain.Job{ID: resp.ID, Status: domain.JobStatusCompleted}
		snap.GeneratedFiles = files.Clone()
	})
	o.publish(Event{
		JobID:     resp.ID,
		Type:      EventTypeResult,
		Status:    domain.JobStatusCompleted,
		Message:   "Generation complete",
		FileCount: len(files),
	})
	o.logf("job %s completed with %d files", resp.ID, len(files))

	time.Sleep(o.CompletionGrace)
	if !o.isLatest(token) {
		return
	}
	o.store.SetGenerating(false)
}

// applyFailure surfaces the business error and clears results immediately.
func (o *Orchestrator) applyFailure(resp synthesis.Response) {
	message := resp.Error
	if message == "" {
		message = GenericFailureMessage
	}

	o.store.Update(func(snap *state.Snapshot) {
		snap.Job = domain.Job{ID: resp.ID, Status: domain.JobStatusFailed}
		snap.GeneratedFiles = domain.FileMap{}
		snap.Generating = false
		snap.JobError = message
	})
	o.publish(Event{
		JobID:   resp.ID,
		Type:    EventTypeError,
		Status:  domain.JobStatusFailed,
		Message: message,
	})
	o.logf("job %s failed: %s", resp.ID, message)
}

// applyUnrecognized treats unknown statuses as silently terminal: the job id
// stays visible, no error is recorded.
func (o *Orchestrator) applyUnrecognized(resp synthesis.Response) {
	o.store.Update(func(snap *state.Snapshot) {
		snap.Job = domain.Job{ID: resp.ID, Status: resp.Status}
		snap.GeneratedFiles = domain.FileMap{}
		snap.Generating = false
	})
	o.publish(Event{
		JobID:   resp.ID,
		Type:    EventTypeStatus,
		Status:  resp.Status,
		Message: "Job ended in unrecognized status",
	})
	o.logf("job %s ended with unrecognized status %q", resp.ID, resp.Status)
}

// applyTransportFailure records the generic transport message. The job id is
// left as whatever was set before the failure was observed.
func (o *Orchestrator) applyTransportFailure(err error) {
	o.store.Update(func(snap *state.Snapshot) {
		snap.Job.Status = domain.JobStatusTransportError
		snap.Generating = false
		snap.JobError = TransportFailureMessage
	})
	o.publish(Event{
		Type:    EventTypeError,
		Status:  domain.JobStatusTransportError,
		Message: TransportFailureMessage,
	})
	o.logf("submit failed: %v", err)
}

// isLatest reports whether the token still identifies the newest submission.
func (o *Orchestrator) isLatest(token uint64) bool {
	return o.latest.Load() == token
}

// publish buffers the event and forwards it to the push hook.
func (o *Orchestrator) publish(event Event) {
	published := o.events.Publish(event)
	if o.OnEvent != nil {
		o.OnEvent(published)
	}
}

// logf writes one log line when a logger is configured.
func (o *Orchestrator) logf(format string, args ...any) {
	if o.Logger != nil {
		o.Logger.Printf(format, args...)
	}
}
