// Package engine instantiates a questionnaire template for one participant.
//
// Filling runs three passes over a freshly loaded document:
//  1. placeholders: {{token}} substitution across runs and table cells
//  2. sections: a header phrase catalog drives an explicit section cursor
//  3. checkboxes: every marker-bearing block under the cursor is resolved to
//     checked or unchecked and rewritten as glyph + label
//
// Satisfaction answers are drawn once per header instance so exactly one
// option per question ends up checked.
package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"hotsurvey/internal/docx"
	"hotsurvey/internal/records"
)

// Options configures the template contract.
type Options struct {
	Catalog        *Catalog
	Ratings        []string
	Markers        []string
	CheckedGlyph   string
	UncheckedGlyph string
	NotApplicable  []string
}

// DefaultOptions returns the built-in template contract.
func DefaultOptions() Options {
	return Options{
		Catalog:        DefaultCatalog(),
		Ratings:        append([]string(nil), DefaultRatings...),
		Markers:        append([]string(nil), DefaultMarkers...),
		CheckedGlyph:   DefaultCheckedGlyph,
		UncheckedGlyph: DefaultUncheckedGlyph,
		NotApplicable:  append([]string(nil), DefaultNotApplicable...),
	}
}

// Engine fills templates. It holds no per-participant state and is safe for
// concurrent use as long as each goroutine passes its own document and rng.
type Engine struct {
	opts          Options
	notApplicable []string // folded
	logger        *zap.Logger
}

// New validates opts and returns an Engine.
func New(opts Options, logger *zap.Logger) (*Engine, error) {
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog()
	}
	if len(opts.Ratings) == 0 {
		return nil, errors.New("rating vocabulary is empty")
	}

	markers := opts.Markers[:0:0]
	for _, m := range opts.Markers {
		if m != "" {
			markers = append(markers, m)
		}
	}
	if len(markers) == 0 {
		return nil, errors.New("no checkbox marker configured")
	}
	opts.Markers = markers

	if opts.CheckedGlyph == "" || opts.UncheckedGlyph == "" {
		return nil, errors.New("checkbox glyphs must not be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{opts: opts, logger: logger}
	for _, p := range opts.NotApplicable {
		if f := fold(p); f != "" {
			e.notApplicable = append(e.notApplicable, f)
		}
	}
	return e, nil
}

// Options returns the engine's effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// InstanceResult summarizes one header instance after filling.
type InstanceResult struct {
	Instance int
	Section  Section
	Header   string
	Rating   string
	Options  int
	Checked  int
}

// Outcome reports what Fill did to a document.
type Outcome struct {
	Replaced     int
	Instances    []InstanceResult
	Unclassified int
}

// Fill instantiates doc in place for participant p.
func (e *Engine) Fill(doc *docx.Document, p records.Participant, ph Placeholders, rng *rand.Rand) (*Outcome, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}
	if rng == nil {
		return nil, errors.New("nil random source")
	}

	// Blocks are classified on the template text, so participant values and
	// commentary never open a section.
	paras := doc.Paragraphs()
	raw := make([]string, len(paras))
	for i, para := range paras {
		raw[i] = para.Text()
	}

	out := &Outcome{
		Replaced: ResolvePlaceholders(doc, ph),
	}

	cls := NewClassifier(e.opts.Catalog, e.opts.Ratings, rng)
	var st State
	for i, para := range paras {
		text := raw[i]

		if next, ok := e.step(cls, st, text); ok {
			st = next
			out.Instances = append(out.Instances, InstanceResult{
				Instance: st.Instance,
				Section:  st.Section,
				Header:   st.Header,
				Rating:   st.Rating,
			})
			continue
		}

		if !HasMarker(text, e.opts.Markers) {
			continue
		}

		label := ExtractLabel(para.Text(), e.opts.Markers)
		checked := e.decide(st, label, p.Course)
		para.SetPlainText(e.render(checked, label))

		if st.Section == SectionNone {
			out.Unclassified++
			e.logger.Warn("checkbox outside any recognized section",
				zap.String("label", label),
				zap.String("participant", p.DisplayName()))
			continue
		}
		cur := &out.Instances[len(out.Instances)-1]
		cur.Options++
		if checked {
			cur.Checked++
		}
	}

	for _, inst := range out.Instances {
		if inst.Options > 0 && inst.Checked != 1 {
			e.logger.Warn("question does not have exactly one checked option",
				zap.Int("instance", inst.Instance),
				zap.Stringer("section", inst.Section),
				zap.String("header", inst.Header),
				zap.Int("checked", inst.Checked),
				zap.String("participant", p.DisplayName()))
		}
	}

	e.logger.Debug("template filled",
		zap.String("participant", p.DisplayName()),
		zap.Int("replaced", out.Replaced),
		zap.Int("instances", len(out.Instances)),
		zap.Int("unclassified", out.Unclassified))

	return out, nil
}

// step advances the classifier on one block. Inside a section, a block that
// starts with a checkbox marker is an option even when its label contains a
// header phrase ("☐ Accessibilité numérique").
func (e *Engine) step(cls *Classifier, st State, text string) (State, bool) {
	if st.Section != SectionNone && leadsWithMarker(text, e.opts.Markers) {
		return st, false
	}
	return cls.Step(st, text)
}

// String renders an instance for logs and the inspect command.
func (r InstanceResult) String() string {
	return fmt.Sprintf("#%d %s %q options=%d checked=%d", r.Instance, r.Section, r.Header, r.Options, r.Checked)
}
