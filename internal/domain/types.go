package domain

// JobStatus tracks the lifecycle phase of a single synthesis job.
//
// Generating, Completed, and Failed arrive from the remote service;
// TransportError is assigned by the client when the request itself fails.
type JobStatus string

const (
	JobStatusGenerating     JobStatus = "GENERATING"
	JobStatusCompleted      JobStatus = "COMPLETED"
	JobStatusFailed         JobStatus = "FAILED"
	JobStatusTransportError JobStatus = "ERROR"
)

// Job stores the current job identity and lifecycle status. The identifier
// is assigned by the remote service; a job is never mutated once observed.
type Job struct {
	ID     string    `json:"id"`
	Status JobStatus `json:"status"`
}

// FileMap is the complete set of source files returned by a completed job,
// keyed by slash-separated path.
type FileMap map[string]string

// Clone returns an independent copy so callers cannot mutate shared state.
func (m FileMap) Clone() FileMap {
	if m == nil {
		return nil
	}

	out := make(FileMap, len(m))
	for path, content := range m {
		out[path] = content
	}
	return out
}

// Settings contains persisted client configuration for reaching the
// synthesis service. Generation state itself is never persisted.
type Settings struct {
	BaseURL            string `json:"baseUrl"`
	RequestTimeoutSecs int    `json:"requestTimeoutSecs"`
}
