package main

import (
	"context"

	"hotsurvey/internal/commentary"
	"hotsurvey/internal/config"
	"hotsurvey/internal/engine"
	"hotsurvey/internal/logging"
)

// engineOptions maps the template section of the configuration onto the
// engine's options. Empty settings keep the built-in contract.
func engineOptions(t config.TemplateConfig) (engine.Options, error) {
	opts := engine.DefaultOptions()

	if len(t.Headers) > 0 {
		phrases := make(map[engine.Section][]string, len(engine.DefaultHeaderPhrases))
		for s, list := range engine.DefaultHeaderPhrases {
			phrases[s] = list
		}
		for name, list := range t.Headers {
			s, err := engine.ParseSection(name)
			if err != nil {
				return engine.Options{}, err
			}
			phrases[s] = list
		}
		opts.Catalog = engine.NewCatalog(phrases)
	}
	if len(t.Ratings) > 0 {
		opts.Ratings = t.Ratings
	}
	if len(t.Markers) > 0 {
		opts.Markers = t.Markers
	}
	if t.CheckedGlyph != "" {
		opts.CheckedGlyph = t.CheckedGlyph
	}
	if t.UncheckedGlyph != "" {
		opts.UncheckedGlyph = t.UncheckedGlyph
	}
	if len(t.NotApplicable) > 0 {
		opts.NotApplicable = t.NotApplicable
	}
	return opts, nil
}

func newEngine(c *config.Config, l *logging.Logger) (*engine.Engine, error) {
	opts, err := engineOptions(c.Template)
	if err != nil {
		return nil, err
	}
	return engine.New(opts, l.For(logging.CategoryEngine))
}

// newCommentaryService returns nil when commentary is disabled.
func newCommentaryService(ctx context.Context, c *config.Config, l *logging.Logger) (*commentary.Service, error) {
	if !c.Commentary.Enabled() {
		return nil, nil
	}
	cc := c.Commentary
	baseURL := ""
	if cc.Provider == commentary.ProviderOpenAI {
		baseURL = cc.OpenAIBaseURL
	}

	p, err := commentary.NewProvider(ctx, commentary.ProviderConfig{
		Provider: cc.Provider,
		APIKey:   cc.APIKey(),
		BaseURL:  baseURL,
		Model:    cc.Model,
		File:     cc.File,
		Timeout:  c.GetCommentaryTimeout(),
	})
	if err != nil {
		return nil, err
	}
	return commentary.NewService(p, commentary.Options{
		Timeout:         c.GetCommentaryTimeout(),
		SampleRate:      cc.SampleRate,
		StrengthsPrompt: cc.StrengthsPrompt,
		RemarksPrompt:   cc.RemarksPrompt,
	}, l.For(logging.CategoryCommentary)), nil
}
