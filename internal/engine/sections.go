package engine

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
)

// Section is the logical part of the questionnaire a block belongs to.
type Section int

const (
	SectionNone Section = iota
	SectionCourseChoice
	SectionSatisfaction
	SectionAccessibility
)

var sectionNames = map[Section]string{
	SectionNone:          "none",
	SectionCourseChoice:  "course_choice",
	SectionSatisfaction:  "satisfaction",
	SectionAccessibility: "accessibility",
}

func (s Section) String() string {
	if name, ok := sectionNames[s]; ok {
		return name
	}
	return fmt.Sprintf("section(%d)", int(s))
}

// ParseSection maps a configuration name back to a Section.
func ParseSection(name string) (Section, error) {
	for s, n := range sectionNames {
		if n == strings.TrimSpace(strings.ToLower(name)) {
			return s, nil
		}
	}
	return SectionNone, fmt.Errorf("unknown section %q", name)
}

// =============================================================================
// HEADER CATALOG
// =============================================================================

// DefaultHeaderPhrases is the recognized template contract for section
// headers, French first with English equivalents.
var DefaultHeaderPhrases = map[Section][]string{
	SectionCourseChoice: {
		"formation suivie",
		"intitulé de la formation",
		"choix de la formation",
		"course attended",
	},
	SectionSatisfaction: {
		"qualité du contenu",
		"pertinence",
		"clarté",
		"supports",
		"compétence du formateur",
		"compétences du formateur",
		"réactivité",
		"appréciation générale",
		"appréciation globale",
		"satisfaction globale",
		"note globale",
		"content quality",
		"relevance",
		"clarity",
		"materials",
		"trainer competence",
		"responsiveness",
		"overall rating",
	},
	SectionAccessibility: {
		"handicap",
		"accessibilité",
		"disability",
		"accessibility",
	},
}

type catalogEntry struct {
	section Section
	phrase  string // folded
}

// Catalog recognizes section headers by case- and accent-insensitive
// substring match.
type Catalog struct {
	entries []catalogEntry
}

// NewCatalog builds a catalog. SectionNone phrases are ignored.
func NewCatalog(phrases map[Section][]string) *Catalog {
	c := &Catalog{}
	for section, list := range phrases {
		if section == SectionNone {
			continue
		}
		for _, p := range list {
			if f := fold(p); f != "" {
				c.entries = append(c.entries, catalogEntry{section: section, phrase: f})
			}
		}
	}
	// Longest phrase first; the first match wins.
	sort.Slice(c.entries, func(i, j int) bool {
		a, b := c.entries[i], c.entries[j]
		if len(a.phrase) != len(b.phrase) {
			return len(a.phrase) > len(b.phrase)
		}
		if a.section != b.section {
			return a.section < b.section
		}
		return a.phrase < b.phrase
	})
	return c
}

// DefaultCatalog returns a catalog of DefaultHeaderPhrases.
func DefaultCatalog() *Catalog {
	return NewCatalog(DefaultHeaderPhrases)
}

// Match reports which section text announces, if any.
func (c *Catalog) Match(text string) (Section, bool) {
	f := fold(text)
	if f == "" {
		return SectionNone, false
	}
	for _, e := range c.entries {
		if strings.Contains(f, e.phrase) {
			return e.section, true
		}
	}
	return SectionNone, false
}

// Len returns the number of phrases.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// =============================================================================
// CLASSIFIER STATE MACHINE
// =============================================================================

// State is the classifier cursor. It is threaded explicitly through the block
// scan; a header replaces it, any other block leaves it unchanged.
type State struct {
	Section  Section
	Header   string // text of the header that opened the instance
	Rating   string // satisfaction answer drawn for this instance
	Instance int    // 1-based header instance, 0 before the first header
}

// Classifier turns header blocks into state transitions.
type Classifier struct {
	catalog *Catalog
	ratings []string
	rng     *rand.Rand
}

// NewClassifier returns a classifier drawing satisfaction answers from
// ratings with rng. A nil rng disables the draw (used for inspection).
func NewClassifier(catalog *Catalog, ratings []string, rng *rand.Rand) *Classifier {
	return &Classifier{catalog: catalog, ratings: ratings, rng: rng}
}

// Step consumes one block's text. When the block is a header it returns the
// state of the new instance and true; otherwise st unchanged and false.
func (c *Classifier) Step(st State, text string) (State, bool) {
	section, ok := c.catalog.Match(text)
	if !ok {
		return st, false
	}

	next := State{
		Section:  section,
		Header:   strings.TrimSpace(text),
		Instance: st.Instance + 1,
	}
	if section == SectionSatisfaction && c.rng != nil && len(c.ratings) > 0 {
		next.Rating = c.ratings[c.rng.IntN(len(c.ratings))]
	}
	return next, true
}
