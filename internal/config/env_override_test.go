package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOverrides_Commentary(t *testing.T) {
	t.Run("keys are stored per provider", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "g-key")
		t.Setenv("OPENAI_API_KEY", "oa-key")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "g-key", cfg.Commentary.GeminiAPIKey)
		assert.Equal(t, "oa-key", cfg.Commentary.OpenAIAPIKey)
		assert.Empty(t, cfg.Commentary.Provider, "a key alone does not enable commentary")
		assert.False(t, cfg.Commentary.Enabled())
	})

	t.Run("APIKey follows the provider", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "g-key")
		t.Setenv("OPENAI_API_KEY", "oa-key")

		cfg := &Config{Commentary: CommentaryConfig{Provider: "openai"}}
		cfg.applyEnvOverrides()
		assert.Equal(t, "oa-key", cfg.Commentary.APIKey())

		cfg.Commentary.Provider = "gemini"
		assert.Equal(t, "g-key", cfg.Commentary.APIKey())

		cfg.Commentary.Provider = "file"
		assert.Empty(t, cfg.Commentary.APIKey())
	})

	t.Run("OPENAI_BASE_URL and HOTSURVEY_MODEL", func(t *testing.T) {
		t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1")
		t.Setenv("HOTSURVEY_MODEL", "llama3")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "http://localhost:11434/v1", cfg.Commentary.OpenAIBaseURL)
		assert.Equal(t, "llama3", cfg.Commentary.Model)
	})

	t.Run("empty env leaves file values", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")

		cfg := &Config{Commentary: CommentaryConfig{GeminiAPIKey: "from-file"}}
		cfg.applyEnvOverrides()

		assert.Equal(t, "from-file", cfg.Commentary.GeminiAPIKey)
	})
}

func TestEnvOverrides_RecordsAndLogging(t *testing.T) {
	t.Setenv("HOTSURVEY_DEFAULT_TRAINER", "A. Dupuis")
	t.Setenv("HOTSURVEY_LOG_LEVEL", "DEBUG")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "A. Dupuis", cfg.Records.DefaultTrainer)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}
