package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all hotsurvey configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Template contract: header phrases, rating vocabulary, checkbox glyphs
	Template TemplateConfig `yaml:"template"`

	// Participant source
	Records RecordsConfig `yaml:"records"`

	// Optional AI commentary
	Commentary CommentaryConfig `yaml:"commentary"`

	// Generated archive
	Output OutputConfig `yaml:"output"`

	// Batch execution
	Batch BatchConfig `yaml:"batch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// TemplateConfig configures how templates are read.
type TemplateConfig struct {
	Path string `yaml:"path"`

	// Headers maps a section name (course_choice, satisfaction,
	// accessibility) to its header phrases. A section listed here replaces
	// the built-in phrases of that section; absent sections keep them.
	Headers map[string][]string `yaml:"headers,omitempty"`

	// Ratings is the satisfaction vocabulary; one is drawn per question.
	Ratings []string `yaml:"ratings"`

	Markers        []string `yaml:"markers"`
	CheckedGlyph   string   `yaml:"checked_glyph"`
	UncheckedGlyph string   `yaml:"unchecked_glyph"`

	// NotApplicable phrases select the accessibility answer.
	NotApplicable []string `yaml:"not_applicable"`
}

// RecordsConfig configures the participant source.
type RecordsConfig struct {
	Path           string `yaml:"path"`
	Sheet          string `yaml:"sheet"` // empty = active sheet
	DefaultTrainer string `yaml:"default_trainer"`
}

// CommentaryConfig configures the commentary service.
type CommentaryConfig struct {
	Provider string `yaml:"provider"` // none, gemini, openai, file

	GeminiAPIKey  string `yaml:"gemini_api_key,omitempty"`
	OpenAIAPIKey  string `yaml:"openai_api_key,omitempty"`
	OpenAIBaseURL string `yaml:"openai_base_url,omitempty"`

	Model   string `yaml:"model,omitempty"`
	File    string `yaml:"file,omitempty"` // canned comments for the file provider
	Timeout string `yaml:"timeout"`

	// SampleRate is the fraction of participants that get commentary.
	SampleRate float64 `yaml:"sample_rate"`

	StrengthsPrompt string `yaml:"strengths_prompt,omitempty"`
	RemarksPrompt   string `yaml:"remarks_prompt,omitempty"`
}

// OutputConfig configures the generated archive.
type OutputConfig struct {
	Archive string `yaml:"archive"`
}

// BatchConfig configures batch execution.
type BatchConfig struct {
	Workers int    `yaml:"workers"`
	Seed    uint64 `yaml:"seed"` // 0 = random per run
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`                // debug, info, warn, error
	Format     string          `yaml:"format"`               // json, console
	File       string          `yaml:"file"`                 // empty = stderr
	Categories map[string]bool `yaml:"categories,omitempty"` // per-category toggles
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Categories not listed are enabled.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}

// ValidSections lists the section names accepted in TemplateConfig.Headers.
var ValidSections = []string{"course_choice", "satisfaction", "accessibility"}

// ValidProviders lists the accepted commentary providers.
var ValidProviders = []string{"none", "gemini", "openai", "file"}

// ValidLogLevels lists the accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// MaxRatings bounds the satisfaction vocabulary.
const MaxRatings = 4

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "hotsurvey",
		Version: "1.0.0",

		Template: TemplateConfig{
			Path:           "template.docx",
			Ratings:        []string{"Très satisfait", "Satisfait"},
			Markers:        []string{"☐", "□"},
			CheckedGlyph:   "☒",
			UncheckedGlyph: "☐",
			NotApplicable:  []string{"not applicable", "non applicable", "non concerné", "sans objet"},
		},

		Records: RecordsConfig{
			Path:           "participants.xlsx",
			DefaultTrainer: "Jean Dupont",
		},

		Commentary: CommentaryConfig{
			Provider:   "none",
			Timeout:    "10s",
			SampleRate: 1,
		},

		Output: OutputConfig{
			Archive: "questionnaires.zip",
		},

		Batch: BatchConfig{
			Workers: 4,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides. API keys are
// stored per provider so a --commentary flag can pick any of them later.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Commentary.GeminiAPIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Commentary.OpenAIAPIKey = key
	}
	if url := os.Getenv("OPENAI_BASE_URL"); url != "" {
		c.Commentary.OpenAIBaseURL = url
	}
	if model := os.Getenv("HOTSURVEY_MODEL"); model != "" {
		c.Commentary.Model = model
	}
	if trainer := os.Getenv("HOTSURVEY_DEFAULT_TRAINER"); trainer != "" {
		c.Records.DefaultTrainer = trainer
	}
	if level := os.Getenv("HOTSURVEY_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
}

// APIKey returns the key of the active commentary provider.
func (c *CommentaryConfig) APIKey() string {
	switch c.Provider {
	case "gemini":
		return c.GeminiAPIKey
	case "openai":
		return c.OpenAIAPIKey
	}
	return ""
}

// Enabled reports whether a commentary provider is selected.
func (c *CommentaryConfig) Enabled() bool {
	return c.Provider != "" && c.Provider != "none"
}

// GetCommentaryTimeout returns the per-request commentary timeout.
func (c *Config) GetCommentaryTimeout() time.Duration {
	d, err := time.ParseDuration(c.Commentary.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// GetWorkers returns the batch concurrency, at least 1.
func (c *Config) GetWorkers() int {
	if c.Batch.Workers < 1 {
		return 1
	}
	return c.Batch.Workers
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	t := c.Template
	if len(t.Ratings) == 0 || len(t.Ratings) > MaxRatings {
		return fmt.Errorf("template.ratings must list 1 to %d labels, got %d", MaxRatings, len(t.Ratings))
	}
	seen := make(map[string]bool, len(t.Ratings))
	for _, r := range t.Ratings {
		k := strings.ToLower(strings.TrimSpace(r))
		if k == "" {
			return fmt.Errorf("template.ratings contains an empty label")
		}
		if seen[k] {
			return fmt.Errorf("template.ratings contains %q twice", r)
		}
		seen[k] = true
	}
	if strings.TrimSpace(strings.Join(t.Markers, "")) == "" {
		return fmt.Errorf("template.markers must not be empty")
	}
	if t.CheckedGlyph == "" || t.UncheckedGlyph == "" {
		return fmt.Errorf("template.checked_glyph and template.unchecked_glyph are required")
	}
	for name := range t.Headers {
		if !contains(ValidSections, name) {
			return fmt.Errorf("invalid template.headers section: %s (valid: %v)", name, ValidSections)
		}
	}

	cc := c.Commentary
	if cc.Provider != "" && !contains(ValidProviders, cc.Provider) {
		return fmt.Errorf("invalid commentary provider: %s (valid: %v)", cc.Provider, ValidProviders)
	}
	switch cc.Provider {
	case "gemini":
		if cc.GeminiAPIKey == "" {
			return fmt.Errorf("gemini commentary requires an API key (set GEMINI_API_KEY)")
		}
	case "openai":
		if cc.OpenAIAPIKey == "" {
			return fmt.Errorf("openai commentary requires an API key (set OPENAI_API_KEY)")
		}
	case "file":
		if cc.File == "" {
			return fmt.Errorf("file commentary requires commentary.file")
		}
	}
	if cc.SampleRate <= 0 || cc.SampleRate > 1 {
		return fmt.Errorf("commentary.sample_rate must be within (0, 1], got %g", cc.SampleRate)
	}
	if cc.Timeout != "" {
		if _, err := time.ParseDuration(cc.Timeout); err != nil {
			return fmt.Errorf("invalid commentary.timeout: %w", err)
		}
	}

	if c.Batch.Workers < 0 {
		return fmt.Errorf("batch.workers must not be negative")
	}
	if c.Logging.Level != "" && !contains(ValidLogLevels, c.Logging.Level) {
		return fmt.Errorf("invalid logging level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %s (valid: json, console)", c.Logging.Format)
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
