// Package commentary fetches optional free-text "strengths" and "remarks"
// comments for a course from an external text-generation service.
//
// The service is strictly best effort: every failure (transport, timeout,
// empty or malformed answer) degrades to an empty comment and is only logged.
package commentary

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Provider generates text for a prompt.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Kind is the comment requested from a provider.
type Kind string

const (
	KindStrengths Kind = "strengths"
	KindRemarks   Kind = "remarks"
)

// CourseProvider is implemented by providers that answer from the course
// name directly instead of a rendered prompt.
type CourseProvider interface {
	Comment(ctx context.Context, kind Kind, course string) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, prompt string) (string, error)

func (f ProviderFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Commentary is what the generator injects into {{points_forts}} and
// {{remarques}}. Zero value means "no commentary".
type Commentary struct {
	Strengths string
	Remarks   string
}

// CoursePlaceholder is replaced by the course name in prompt templates.
const CoursePlaceholder = "{course}"

const (
	DefaultStrengthsPrompt = "Tu es un stagiaire qui vient de suivre la formation « {course} ». " +
		"Propose 3 courtes phrases, numérotées, décrivant un point fort de la formation. " +
		"Une phrase par ligne, sans autre texte."
	DefaultRemarksPrompt = "Tu es un stagiaire qui vient de suivre la formation « {course} ». " +
		"Propose 3 courtes remarques constructives, numérotées, pour améliorer la formation. " +
		"Une remarque par ligne, sans autre texte."
	DefaultTimeout = 10 * time.Second
)

// Options tunes a Service.
type Options struct {
	Timeout         time.Duration // per request
	SampleRate      float64       // fraction of participants that get commentary, (0,1]; 0 means 1
	StrengthsPrompt string
	RemarksPrompt   string
}

func (o *Options) defaults() {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.SampleRate <= 0 || o.SampleRate > 1 {
		o.SampleRate = 1
	}
	if strings.TrimSpace(o.StrengthsPrompt) == "" {
		o.StrengthsPrompt = DefaultStrengthsPrompt
	}
	if strings.TrimSpace(o.RemarksPrompt) == "" {
		o.RemarksPrompt = DefaultRemarksPrompt
	}
}

// Service wraps a Provider with the timeout and fallback policy. A nil
// *Service is valid and always returns empty commentary.
type Service struct {
	provider Provider
	opts     Options
	logger   *zap.Logger
}

// NewService returns a Service around p. A nil p disables commentary.
func NewService(p Provider, opts Options, logger *zap.Logger) *Service {
	opts.defaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{provider: p, opts: opts, logger: logger}
}

// Enabled reports whether the service will ever call its provider.
func (s *Service) Enabled() bool {
	return s != nil && s.provider != nil
}

// Options returns the effective options.
func (s *Service) Options() Options {
	return s.opts
}

// For returns the commentary for one participant of course. rng drives both
// the sampling decision and the choice among multi-entry answers; it must not
// be shared between goroutines.
func (s *Service) For(ctx context.Context, course string, rng *rand.Rand) Commentary {
	if !s.Enabled() || strings.TrimSpace(course) == "" || rng == nil {
		return Commentary{}
	}
	if s.opts.SampleRate < 1 && rng.Float64() >= s.opts.SampleRate {
		return Commentary{}
	}
	return Commentary{
		Strengths: s.ask(ctx, KindStrengths, s.opts.StrengthsPrompt, course, rng),
		Remarks:   s.ask(ctx, KindRemarks, s.opts.RemarksPrompt, course, rng),
	}
}

func (s *Service) ask(ctx context.Context, kind Kind, template, course string, rng *rand.Rand) string {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	start := time.Now()
	text, err := s.complete(ctx, kind, course, strings.ReplaceAll(template, CoursePlaceholder, course))
	if err != nil {
		s.logger.Warn("commentary unavailable",
			zap.String("kind", string(kind)),
			zap.String("course", course),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return ""
	}

	entry := PickEntry(text, rng)
	s.logger.Debug("commentary received",
		zap.String("kind", string(kind)),
		zap.String("course", course),
		zap.Int("entries", len(SplitEntries(text))),
		zap.Duration("elapsed", time.Since(start)))
	return entry
}

// complete shields the pipeline from a misbehaving provider, panics included.
func (s *Service) complete(ctx context.Context, kind Kind, course, prompt string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", &PanicError{Value: r}
		}
	}()
	if cp, ok := s.provider.(CourseProvider); ok {
		return cp.Comment(ctx, kind, course)
	}
	return s.provider.Complete(ctx, prompt)
}
