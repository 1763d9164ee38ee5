package diagnostics

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"microgen-architect/internal/domain"
)

// Checker validates client settings and probes the synthesis endpoint at
// startup so misconfiguration surfaces before the first submission.
type Checker struct {
	probe func(baseURL string) error
}

// NewChecker builds a checker using a real HTTP probe.
func NewChecker() *Checker {
	client := &http.Client{Timeout: 2 * time.Second}
	return &Checker{
		probe: func(baseURL string) error {
			resp, err := client.Get(baseURL + "/")
			if err != nil {
				return err
			}
			// Any HTTP answer means the endpoint is alive.
			resp.Body.Close()
			return nil
		},
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkBaseURL(settings.BaseURL),
		c.checkTimeout(settings.RequestTimeoutSecs),
	}
	items = append(items, c.checkReachability(settings.BaseURL, items[0]))

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkBaseURL validates the configured endpoint shape.
func (c *Checker) checkBaseURL(baseURL string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "base-url",
		Name: "Synthesis service URL",
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("invalid base URL %q", baseURL)
		item.Hint = "Set an http(s) URL in settings, e.g. http://localhost:8081"
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = baseURL
	return item
}

// checkTimeout validates the request timeout bounds.
func (c *Checker) checkTimeout(secs int) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "request-timeout",
		Name: "Request timeout",
	}

	if secs <= 0 {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("timeout must be positive, got %d", secs)
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("%ds", secs)
	return item
}

// checkReachability probes the endpoint. Unreachable is a warning, not a
// failure: the service may simply not be started yet.
func (c *Checker) checkReachability(baseURL string, urlCheck domain.DiagnosticItem) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "endpoint-reachable",
		Name: "Synthesis service reachable",
	}

	if urlCheck.Status == domain.DiagnosticStatusFail {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = "skipped: base URL is invalid"
		return item
	}

	if err := c.probe(baseURL); err != nil {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = fmt.Sprintf("no response from %s", baseURL)
		item.Hint = "Start the synthesis service, then refresh diagnostics"
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = "endpoint responded"
	return item
}
