package domain

import "fmt"

// GenerationConfig holds the mutually-exclusive generation choices sent to
// the synthesis service. Each field is a value from a closed enumerated set
// and is mutated only by whole-field replacement.
type GenerationConfig struct {
	ServiceType  string `json:"serviceType"`
	Auth         string `json:"auth"`
	Database     string `json:"database"`
	Persistence  string `json:"persistence"`
	Architecture string `json:"architecture"`
	Language     string `json:"language"`
}

// ConfigPatch is a partial GenerationConfig update. Nil fields are retained
// from the current config; non-nil fields replace it.
type ConfigPatch struct {
	ServiceType  *string `json:"serviceType,omitempty"`
	Auth         *string `json:"auth,omitempty"`
	Database     *string `json:"database,omitempty"`
	Persistence  *string `json:"persistence,omitempty"`
	Architecture *string `json:"architecture,omitempty"`
	Language     *string `json:"language,omitempty"`
}

// ConfigOption describes one selectable choice group for the UI.
type ConfigOption struct {
	Key    string   `json:"key"`
	Label  string   `json:"label"`
	Values []string `json:"values"`
}

// ConfigOptions returns the choice groups in display order.
func ConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "serviceType", Label: "Service Type", Values: []string{"AUTH", "INVENTORY", "ORDER", "PAYMENT", "GATEWAY"}},
		{Key: "auth", Label: "Security Strategy", Values: []string{"JWT", "OAUTH2", "NONE"}},
		{Key: "database", Label: "Database Engine", Values: []string{"MYSQL", "POSTGRESQL", "H2", "NONE"}},
		{Key: "persistence", Label: "Persistence Layer", Values: []string{"JPA", "MYBATIS", "NONE"}},
		{Key: "architecture", Label: "Architecture", Values: []string{"LAYERED", "HEXAGONAL"}},
		{Key: "language", Label: "Language", Values: []string{"JAVA"}},
	}
}

// DefaultGenerationConfig returns the fixed process-start defaults.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		ServiceType:  "AUTH",
		Auth:         "JWT",
		Database:     "MYSQL",
		Persistence:  "JPA",
		Architecture: "LAYERED",
		Language:     "JAVA",
	}
}

// Validate rejects patches carrying values outside the enumerated sets, so
// invalid selections never reach the orchestrator.
func (p ConfigPatch) Validate() error {
	checks := []struct {
		key   string
		value *string
	}{
		{"serviceType", p.ServiceType},
		{"auth", p.Auth},
		{"database", p.Database},
		{"persistence", p.Persistence},
		{"architecture", p.Architecture},
		{"language", p.Language},
	}

	for _, check := range checks {
		if check.value == nil {
			continue
		}
		if !optionAllows(check.key, *check.value) {
			return fmt.Errorf("invalid %s value: %q", check.key, *check.value)
		}
	}
	return nil
}

// Apply merges the patch into cfg field-by-field and returns the result.
func (p ConfigPatch) Apply(cfg GenerationConfig) GenerationConfig {
	if p.ServiceType != nil {
		cfg.ServiceType = *p.ServiceType
	}
	if p.Auth != nil {
		cfg.Auth = *p.Auth
	}
	if p.Database != nil {
		cfg.Database = *p.Database
	}
	if p.Persistence != nil {
		cfg.Persistence = *p.Persistence
	}
	if p.Architecture != nil {
		cfg.Architecture = *p.Architecture
	}
	if p.Language != nil {
		cfg.Language = *p.Language
	}
	return cfg
}

// optionAllows reports whether value belongs to the group's enumerated set.
func optionAllows(key, value string) bool {
	for _, option := range ConfigOptions() {
		if option.Key != key {
			continue
		}
		for _, allowed := range option.Values {
			if allowed == value {
				return true
			}
		}
		return false
	}
	return false
}
