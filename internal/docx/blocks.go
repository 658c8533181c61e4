package docx

import (
	"encoding/xml"
	"strings"
)

// w is the conventional WordprocessingML prefix. Word always writes it; files
// produced with another prefix are not supported.
const w = "w"

// Block is a body-level content unit: *Paragraph or *Table.
type Block interface {
	isBlock()
}

func blocksOf(n *node) []Block {
	var out []Block
	for _, el := range n.elements() {
		switch {
		case el.is(w, "p"):
			out = append(out, &Paragraph{n: el})
		case el.is(w, "tbl"):
			out = append(out, &Table{n: el})
		case el.is(w, "sdt"):
			if content := el.child(w, "sdtContent"); content != nil {
				out = append(out, blocksOf(content)...)
			}
		case el.is(w, "customXml"):
			out = append(out, blocksOf(el)...)
		}
	}
	return out
}

// =============================================================================
// PARAGRAPHS AND RUNS
// =============================================================================

// Paragraph is a w:p element.
type Paragraph struct {
	n *node
}

func (*Paragraph) isBlock() {}

// runContainers hold runs without being runs themselves.
var runContainers = map[string]bool{
	"hyperlink":  true,
	"smartTag":   true,
	"ins":        true,
	"sdt":        true,
	"sdtContent": true,
	"fldSimple":  true,
	"customXml":  true,
	"dir":        true,
	"bdo":        true,
}

// Runs returns the paragraph's runs in order, including runs nested in
// hyperlinks, insertions and content controls. Deleted runs are skipped.
func (p *Paragraph) Runs() []*Run {
	var out []*Run
	var walk func(n *node)
	walk = func(n *node) {
		for _, el := range n.elements() {
			if el.name.Space != w {
				continue
			}
			switch {
			case el.name.Local == "r":
				out = append(out, &Run{n: el})
			case runContainers[el.name.Local]:
				walk(el)
			}
		}
	}
	walk(p.n)
	return out
}

// Text returns the concatenated text of all runs.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs() {
		sb.WriteString(r.Text())
	}
	return sb.String()
}

// StyleID returns the paragraph style (w:pStyle), if any.
func (p *Paragraph) StyleID() string {
	if ppr := p.n.child(w, "pPr"); ppr != nil {
		if ps := ppr.child(w, "pStyle"); ps != nil {
			v, _ := ps.attr("val")
			return v
		}
	}
	return ""
}

// SetText replaces the paragraph content with a single run carrying the
// character formatting of the first original run. A paragraph without runs
// gets an unstyled run. Paragraph properties, bookmarks and the inline
// objects of top-level runs (drawings, footnote and comment references) are
// kept. Fields and hyperlinks are flattened to their displayed text.
func (p *Paragraph) SetText(text string) {
	var rPr *node
	if runs := p.Runs(); len(runs) > 0 {
		rPr = runs[0].n.child(w, "rPr")
	}
	p.rebuild(rPr, text)
}

// SetPlainText replaces the paragraph content with a single run without
// character formatting. It keeps what SetText keeps.
func (p *Paragraph) SetPlainText(text string) {
	p.rebuild(nil, text)
}

func (p *Paragraph) rebuild(rPr *node, text string) {
	var ppr *node
	var starts, ends, objects []any
	for _, el := range p.n.elements() {
		switch {
		case el.is(w, "pPr"):
			ppr = el
		case el.is(w, "bookmarkStart"):
			starts = append(starts, el)
		case el.is(w, "bookmarkEnd"):
			ends = append(ends, el)
		case el.is(w, "r"):
			if obj := inlineObjects(el); obj != nil {
				objects = append(objects, obj)
			}
		}
	}

	run := newNode(w, "r")
	if rPr != nil {
		run.append(rPr.clone())
	}
	run.append(textNodes(text)...)

	children := make([]any, 0, len(starts)+len(ends)+len(objects)+2)
	if ppr != nil {
		children = append(children, ppr)
	}
	children = append(children, starts...)
	children = append(children, run)
	children = append(children, objects...)
	children = append(children, ends...)
	p.n.children = children
}

// inlineRunObjects are run children that carry no text of their own.
var inlineRunObjects = map[string]bool{
	"drawing":           true,
	"pict":              true,
	"object":            true,
	"footnoteReference": true,
	"endnoteReference":  true,
	"commentReference":  true,
}

// inlineObjects returns r reduced to its rPr and inline objects, or nil when
// it has none.
func inlineObjects(r *node) *node {
	var kept []any
	var rPr *node
	for _, el := range r.elements() {
		switch {
		case el.is(w, "rPr"):
			rPr = el
		case el.name.Space == w && inlineRunObjects[el.name.Local]:
			kept = append(kept, el)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	out := newNode(w, "r")
	if rPr != nil {
		out.append(rPr)
	}
	out.append(kept...)
	return out
}

// textNodes renders text as w:t elements, turning tabs and line breaks
// (LF, CRLF and the vertical tab of spreadsheet cells) into w:tab and w:br.
// Other control characters are dropped.
func textNodes(text string) []any {
	var out []any
	var seg strings.Builder
	flush := func() {
		if seg.Len() == 0 {
			return
		}
		t := newNode(w, "t", xml.Attr{Name: xml.Name{Space: "xml", Local: "space"}, Value: "preserve"})
		t.append(xml.CharData(seg.String()))
		out = append(out, t)
		seg.Reset()
	}
	for _, r := range text {
		switch r {
		case '\t':
			flush()
			out = append(out, newNode(w, "tab"))
		case '\n', '\v':
			flush()
			out = append(out, newNode(w, "br"))
		case '\r':
		default:
			if legalXMLChar(r) {
				seg.WriteRune(r)
			}
		}
	}
	flush()
	return out
}

// Run is a w:r element: a span of text sharing one character format.
type Run struct {
	n *node
}

// Text returns the run's visible text.
func (r *Run) Text() string {
	var sb strings.Builder
	for _, el := range r.n.elements() {
		if el.name.Space != w {
			continue
		}
		switch el.name.Local {
		case "t":
			sb.WriteString(el.text())
		case "tab":
			sb.WriteByte('\t')
		case "br", "cr":
			sb.WriteByte('\n')
		case "noBreakHyphen":
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// RunStyle is the subset of character formatting the generator cares about.
// Size is in half-points, as stored by Word.
type RunStyle struct {
	Bold      bool
	Italic    bool
	Underline string
	Size      string
	Color     string
	Font      string
}

// Style reads the run's direct character formatting.
func (r *Run) Style() RunStyle {
	var s RunStyle
	rPr := r.n.child(w, "rPr")
	if rPr == nil {
		return s
	}
	for _, el := range rPr.elements() {
		if el.name.Space != w {
			continue
		}
		val, _ := el.attr("val")
		switch el.name.Local {
		case "b":
			s.Bold = onOff(el)
		case "i":
			s.Italic = onOff(el)
		case "u":
			if val != "none" {
				s.Underline = val
			}
		case "sz":
			s.Size = val
		case "color":
			s.Color = val
		case "rFonts":
			s.Font, _ = el.attr("ascii")
		}
	}
	return s
}

func onOff(el *node) bool {
	v, ok := el.attr("val")
	if !ok {
		return true
	}
	switch strings.ToLower(v) {
	case "0", "false", "off":
		return false
	}
	return true
}

// =============================================================================
// TABLES
// =============================================================================

// Table is a w:tbl element.
type Table struct {
	n *node
}

func (*Table) isBlock() {}

// Rows returns the table rows.
func (t *Table) Rows() []*Row {
	var out []*Row
	for _, el := range t.n.elements() {
		if el.is(w, "tr") {
			out = append(out, &Row{n: el})
		}
	}
	return out
}

// Row is a w:tr element.
type Row struct {
	n *node
}

// Cells returns the row's cells.
func (r *Row) Cells() []*Cell {
	var out []*Cell
	for _, el := range r.n.elements() {
		if el.is(w, "tc") {
			out = append(out, &Cell{n: el})
		}
	}
	return out
}

// Cell is a w:tc element.
type Cell struct {
	n *node
}

// Blocks returns the blocks nested in the cell (paragraphs and tables).
func (c *Cell) Blocks() []Block {
	return blocksOf(c.n)
}
