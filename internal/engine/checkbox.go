package engine

import (
	"regexp"
	"strings"
)

// Default checkbox contract.
var (
	DefaultMarkers        = []string{"☐", "□"}
	DefaultCheckedGlyph   = "☒"
	DefaultUncheckedGlyph = "☐"

	// DefaultRatings is the satisfaction vocabulary. Templates list these
	// labels as options under every satisfaction header.
	DefaultRatings = []string{"Très satisfait", "Satisfait"}

	// DefaultNotApplicable are the accessibility answers selected when the
	// participant record carries no accommodation need.
	DefaultNotApplicable = []string{"not applicable", "non applicable", "non concerné", "sans objet"}
)

var bracketPattern = regexp.MustCompile(`\[([^\[\]]*)\]`)

// HasMarker reports whether text contains any checkbox marker.
func HasMarker(text string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// leadsWithMarker reports whether text, ignoring leading spaces, starts with
// a checkbox marker.
func leadsWithMarker(text string, markers []string) bool {
	text = strings.TrimSpace(text)
	for _, m := range markers {
		if m != "" && strings.HasPrefix(text, m) {
			return true
		}
	}
	return false
}

// ExtractLabel strips the markers from text and returns the option label. A
// non-empty [bracketed] segment is the canonical label and the surrounding
// description is dropped.
func ExtractLabel(text string, markers []string) string {
	for _, m := range markers {
		if m != "" {
			text = strings.ReplaceAll(text, m, "")
		}
	}
	for _, m := range bracketPattern.FindAllStringSubmatch(text, -1) {
		if inner := strings.TrimSpace(m[1]); inner != "" {
			return inner
		}
	}
	return strings.Join(strings.Fields(text), " ")
}

// decide applies the active section's rule to one option.
func (e *Engine) decide(st State, label, course string) bool {
	switch st.Section {
	case SectionCourseChoice:
		want := normalize(course)
		return want != "" && normalize(label) == want
	case SectionSatisfaction:
		return st.Rating != "" && normalize(label) == normalize(st.Rating)
	case SectionAccessibility:
		l := fold(label)
		for _, phrase := range e.notApplicable {
			if phrase != "" && strings.Contains(l, phrase) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// render builds the replacement text for an option.
func (e *Engine) render(checked bool, label string) string {
	glyph := e.opts.UncheckedGlyph
	if checked {
		glyph = e.opts.CheckedGlyph
	}
	if label == "" {
		return glyph
	}
	return glyph + " " + label
}
