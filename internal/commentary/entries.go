package commentary

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
)

// entryPrefix matches list markers: "1.", "2)", "-", "*", "•".
var entryPrefix = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s*`)

// SplitEntries breaks a provider answer into its list entries. An answer
// without list markers is a single entry, whatever its line count.
func SplitEntries(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	listed := false
	for _, l := range lines {
		if entryPrefix.MatchString(l) {
			listed = true
			break
		}
	}
	if !listed {
		if t := clean(text); t != "" {
			return []string{t}
		}
		return nil
	}

	var out []string
	for _, l := range lines {
		if !entryPrefix.MatchString(l) {
			// continuation of the previous entry, or preamble
			if t := clean(l); t != "" && len(out) > 0 {
				out[len(out)-1] += " " + t
			}
			continue
		}
		if t := clean(entryPrefix.ReplaceAllString(l, "")); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// PickEntry returns one entry of text chosen uniformly with rng, or "" when
// the answer is empty.
func PickEntry(text string, rng *rand.Rand) string {
	entries := SplitEntries(text)
	switch len(entries) {
	case 0:
		return ""
	case 1:
		return entries[0]
	}
	return entries[rng.IntN(len(entries))]
}

func clean(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, `"«» `)
}

// PanicError reports a provider that panicked instead of returning an error.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("provider panicked: %v", e.Value)
}
