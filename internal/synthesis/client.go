package synthesis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"microgen-architect/internal/domain"
)

// Request is the body sent to the generation endpoint.
type Request struct {
	Prompt string `json:"prompt"`
}

// Response is the synthesis service reply for one generation job. Status may
// carry values outside the known set; callers decide how to treat those.
type Response struct {
	ID             string           `json:"id"`
	Status         domain.JobStatus `json:"status"`
	GeneratedFiles domain.FileMap   `json:"generatedFiles,omitempty"`
	Error          string           `json:"error,omitempty"`
}

// TransportError marks failures of the request itself (network error,
// non-2xx status, malformed body), as opposed to a FAILED business status
// carried inside a valid response.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

// Error formats the transport failure for logs.
func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Client talks to the remote synthesis service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL with a request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Generate submits one prompt and decodes the job response. Any failure to
// complete the exchange is returned as a *TransportError.
func (c *Client) Generate(ctx context.Context, prompt string) (Response, error) {
	body, err := json.Marshal(Request{Prompt: prompt})
	if err != nil {
		return Response{}, &TransportError{Op: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return Response{}, &TransportError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, &TransportError{Op: "post generate", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return Response{}, &TransportError{Op: "post generate", StatusCode: resp.StatusCode}
	}

	var decoded Response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Response{}, &TransportError{Op: "decode response", Err: err}
	}
	if decoded.ID == "" {
		return Response{}, &TransportError{Op: "decode response", Err: fmt.Errorf("missing job id")}
	}

	return decoded, nil
}

// DownloadURL returns the archive location for a completed job. The client
// only navigates to it; the download itself is not tracked.
func (c *Client) DownloadURL(jobID string) string {
	return c.baseURL + "/api/download/" + jobID
}
