package commentary

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Provider names accepted in configuration.
const (
	ProviderNone   = "none"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderFile   = "file"
)

// ProviderNames lists the accepted provider names.
var ProviderNames = []string{ProviderNone, ProviderGemini, ProviderOpenAI, ProviderFile}

// ProviderConfig selects and configures a provider.
type ProviderConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	File     string // file only
	Timeout  time.Duration
}

// NewProvider builds the configured provider. "none" (or empty) returns a
// nil Provider, which NewService treats as disabled.
func NewProvider(ctx context.Context, cfg ProviderConfig) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderNone:
		return nil, nil
	case ProviderGemini:
		p, err := NewGeminiProvider(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderOpenAI:
		p, err := NewOpenAIProvider(OpenAIConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Timeout:    cfg.Timeout,
			MaxRetries: 2,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderFile:
		if cfg.File == "" {
			return nil, fmt.Errorf("file provider requires a comments file")
		}
		p, err := LoadFileProvider(cfg.File)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown commentary provider %q (want one of %s)", cfg.Provider, strings.Join(ProviderNames, ", "))
	}
}
