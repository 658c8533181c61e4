package engine

import (
	"regexp"
	"sort"
	"strings"

	"hotsurvey/internal/docx"
	"hotsurvey/internal/records"
)

// Recognized template tokens.
const (
	TokenLastName  = "{{nom}}"
	TokenFirstName = "{{prenom}}"
	TokenEmail     = "{{email}}"
	TokenSession   = "{{ref_session}}"
	TokenCourse    = "{{formation}}"
	TokenTrainer   = "{{formateur}}"
	TokenStrengths = "{{points_forts}}"
	TokenRemarks   = "{{remarques}}"
)

// KnownTokens lists every token the generator fills, in template order.
var KnownTokens = []string{
	TokenLastName, TokenFirstName, TokenEmail, TokenSession,
	TokenCourse, TokenTrainer, TokenStrengths, TokenRemarks,
}

var tokenPattern = regexp.MustCompile(`\{\{[^{}]+\}\}`)

// Placeholders maps a literal token to its replacement.
type Placeholders map[string]string

// NewPlaceholders builds the token map for one participant. Empty commentary
// removes the corresponding tokens from the output.
func NewPlaceholders(p records.Participant, strengths, remarks string) Placeholders {
	return Placeholders{
		TokenLastName:  p.LastName,
		TokenFirstName: p.FirstName,
		TokenEmail:     p.Email,
		TokenSession:   p.SessionID,
		TokenCourse:    p.Course,
		TokenTrainer:   p.Trainer,
		TokenStrengths: strengths,
		TokenRemarks:   remarks,
	}
}

// replacer substitutes all tokens in one pass so a value is never rescanned
// for further tokens. Longer keys come first; ties are ordered lexically to
// keep the result independent of map iteration.
func (ph Placeholders) replacer() *strings.Replacer {
	keys := make([]string, 0, len(ph))
	for k := range ph {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, ph[k])
	}
	return strings.NewReplacer(pairs...)
}

// ResolvePlaceholders rewrites every paragraph of doc, table cells included,
// whose text contains a token of ph. The paragraph's runs are flattened first
// so tokens split across runs are found, then re-emitted as one run with the
// first run's formatting. Paragraphs without tokens are left untouched.
// It returns the number of rewritten paragraphs.
func ResolvePlaceholders(doc *docx.Document, ph Placeholders) int {
	if len(ph) == 0 {
		return 0
	}
	r := ph.replacer()

	rewritten := 0
	for _, p := range doc.Paragraphs() {
		text := p.Text()
		if !strings.Contains(text, "{{") {
			continue
		}
		out := r.Replace(text)
		if out == text {
			continue
		}
		p.SetText(out)
		rewritten++
	}
	return rewritten
}

// FindTokens returns the distinct {{...}} tokens present in text, in order of
// first appearance.
func FindTokens(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range tokenPattern.FindAllString(text, -1) {
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}
