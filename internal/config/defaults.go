package config

import (
	"strings"

	"microgen-architect/internal/domain"
)

// DefaultBaseURL is the synthesis service endpoint used on first launch.
const DefaultBaseURL = "http://localhost:8081"

// DefaultRequestTimeoutSecs bounds one generation request. Synthesis runs
// can take minutes, so this is generous.
const DefaultRequestTimeoutSecs = 300

// DefaultSettings returns baseline client configuration for first launch.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		BaseURL:            DefaultBaseURL,
		RequestTimeoutSecs: DefaultRequestTimeoutSecs,
	}
}

// Normalize trims user inputs and applies defaults for empty or out-of-range
// values.
func Normalize(settings domain.Settings) domain.Settings {
	settings.BaseURL = strings.TrimRight(strings.TrimSpace(settings.BaseURL), "/")
	if settings.BaseURL == "" {
		settings.BaseURL = DefaultBaseURL
	}
	if settings.RequestTimeoutSecs <= 0 {
		settings.RequestTimeoutSecs = DefaultRequestTimeoutSecs
	}
	return settings
}
