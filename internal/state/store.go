package state

import (
	"sync"

	"microgen-architect/internal/domain"
)

// Snapshot is the complete client state at one point in time. Snapshots are
// value copies; holding one never observes later mutations.
type Snapshot struct {
	Prompt         string                  `json:"prompt"`
	Config         domain.GenerationConfig `json:"config"`
	Job            domain.Job              `json:"job"`
	GeneratedFiles domain.FileMap          `json:"generatedFiles"`
	Generating     bool                    `json:"generating"`
	JobError       string                  `json:"jobError"`
}

// clone deep-copies the snapshot so the file map cannot be shared.
func (s Snapshot) clone() Snapshot {
	s.GeneratedFiles = s.GeneratedFiles.Clone()
	return s
}

// Store is the single process-wide state container. All components read and
// mutate client state exclusively through it. Subscribers are notified
// synchronously, in registration order, before the mutating call returns;
// callbacks receive the new snapshot and must not call back into the store.
type Store struct {
	mu          sync.Mutex
	current     Snapshot
	subscribers []subscriber
	nextSubID   int
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// NewStore creates a store holding process-start defaults.
func NewStore() *Store {
	return &Store{
		current: Snapshot{
			Config:         domain.DefaultGenerationConfig(),
			GeneratedFiles: domain.FileMap{},
		},
	}
}

// Snapshot returns an isolated copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.clone()
}

// Subscribe registers fn for every subsequent state change and returns an
// unsubscribe function.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Update applies one atomic mutation and notifies subscribers once. Multi
// field transitions (submission start, terminal outcomes) go through here so
// intermediate states are never observable.
func (s *Store) Update(mutate func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.current.clone()
	mutate(&working)
	s.current = working

	notified := s.current.clone()
	for _, sub := range s.subscribers {
		sub.fn(notified)
	}
}

// SetPrompt replaces the prompt text.
func (s *Store) SetPrompt(prompt string) {
	s.Update(func(snap *Snapshot) {
		snap.Prompt = prompt
	})
}

// MergeConfig merges a partial config update field-by-field; unspecified
// fields are retained. The patch must already be validated.
func (s *Store) MergeConfig(patch domain.ConfigPatch) {
	s.Update(func(snap *Snapshot) {
		snap.Config = patch.Apply(snap.Config)
	})
}

// SetGeneratedFiles replaces the file map wholesale.
func (s *Store) SetGeneratedFiles(files domain.FileMap) {
	s.Update(func(snap *Snapshot) {
		if files == nil {
			files = domain.FileMap{}
		}
		snap.GeneratedFiles = files.Clone()
	})
}

// SetGenerating replaces the job-in-progress flag.
func (s *Store) SetGenerating(generating bool) {
	s.Update(func(snap *Snapshot) {
		snap.Generating = generating
	})
}

// BeginSubmission atomically clears the previous job's identifier, files,
// and error and raises the generating flag, so stale results are never
// visible while a new request is in flight.
func (s *Store) BeginSubmission() {
	s.Update(func(snap *Snapshot) {
		snap.Job = domain.Job{Status: domain.JobStatusGenerating}
		snap.GeneratedFiles = domain.FileMap{}
		snap.JobError = ""
		snap.Generating = true
	})
}
