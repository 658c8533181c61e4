package engine

import (
	"hotsurvey/internal/docx"
)

// InspectedInstance is a header instance with the option labels found under it.
type InspectedInstance struct {
	Instance int
	Section  Section
	Header   string
	Labels   []string
}

// Inspection describes a template without filling it.
type Inspection struct {
	Paragraphs   int
	Tokens       []string // recognized tokens present
	Unknown      []string // {{...}} tokens the generator does not fill
	Missing      []string // recognized tokens absent from the template
	Instances    []InspectedInstance
	Unclassified []string // option labels before the first header
}

// Inspect classifies doc's blocks the way Fill would, without drawing
// ratings or mutating the document.
func (e *Engine) Inspect(doc *docx.Document) *Inspection {
	known := make(map[string]bool, len(KnownTokens))
	for _, t := range KnownTokens {
		known[t] = true
	}

	ins := &Inspection{}
	present := make(map[string]bool)
	cls := NewClassifier(e.opts.Catalog, e.opts.Ratings, nil)
	var st State

	for _, para := range doc.Paragraphs() {
		ins.Paragraphs++
		text := para.Text()

		for _, tok := range FindTokens(text) {
			if present[tok] {
				continue
			}
			present[tok] = true
			if known[tok] {
				ins.Tokens = append(ins.Tokens, tok)
			} else {
				ins.Unknown = append(ins.Unknown, tok)
			}
		}

		if next, ok := e.step(cls, st, text); ok {
			st = next
			ins.Instances = append(ins.Instances, InspectedInstance{
				Instance: st.Instance,
				Section:  st.Section,
				Header:   st.Header,
			})
			continue
		}
		if !HasMarker(text, e.opts.Markers) {
			continue
		}

		label := ExtractLabel(text, e.opts.Markers)
		if st.Section == SectionNone {
			ins.Unclassified = append(ins.Unclassified, label)
			continue
		}
		cur := &ins.Instances[len(ins.Instances)-1]
		cur.Labels = append(cur.Labels, label)
	}

	for _, t := range KnownTokens {
		if !present[t] {
			ins.Missing = append(ins.Missing, t)
		}
	}
	return ins
}
