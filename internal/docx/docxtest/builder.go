// Package docxtest builds small in-memory .docx files for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"strings"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/><Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/></Types>`

const rels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

// Styles is the word/styles.xml written by Builder; tests compare against it
// to check that untouched parts survive a round trip.
const Styles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:style w:type="paragraph" w:styleId="ListParagraph"><w:name w:val="List Paragraph"/></w:style></w:styles>`

// Run is one styled span of a paragraph.
type Run struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline string
	Size      string
	Color     string
	Font      string
}

// Builder accumulates body XML.
type Builder struct {
	body strings.Builder
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{}
}

// Paragraph adds a paragraph with one unstyled run.
func (b *Builder) Paragraph(text string) *Builder {
	return b.Runs(Run{Text: text})
}

// StyledParagraph adds a paragraph with a w:pStyle and one unstyled run.
func (b *Builder) StyledParagraph(styleID, text string) *Builder {
	b.body.WriteString(`<w:p><w:pPr><w:pStyle w:val="`)
	b.body.WriteString(esc(styleID))
	b.body.WriteString(`"/></w:pPr>`)
	writeRun(&b.body, Run{Text: text})
	b.body.WriteString(`</w:p>`)
	return b
}

// Runs adds a paragraph made of the given runs.
func (b *Builder) Runs(runs ...Run) *Builder {
	b.body.WriteString(paragraphXML(runs...))
	return b
}

// Table adds a table; each cell holds one plain paragraph.
func (b *Builder) Table(rows ...[]string) *Builder {
	b.body.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/></w:tblPr>`)
	for _, row := range rows {
		b.body.WriteString(`<w:tr>`)
		for _, cell := range row {
			b.body.WriteString(`<w:tc><w:tcPr><w:tcW w:w="2000" w:type="dxa"/></w:tcPr>`)
			b.body.WriteString(paragraphXML(Run{Text: cell}))
			b.body.WriteString(`</w:tc>`)
		}
		b.body.WriteString(`</w:tr>`)
	}
	b.body.WriteString(`</w:tbl>`)
	return b
}

// Raw appends body XML verbatim.
func (b *Builder) Raw(xmlText string) *Builder {
	b.body.WriteString(xmlText)
	return b
}

// DocumentXML returns the word/document.xml content.
func (b *Builder) DocumentXML() string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n" +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body>` +
		b.body.String() +
		`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr></w:body></w:document>`
}

// Bytes returns the finished .docx archive.
func (b *Builder) Bytes() []byte {
	return Archive(map[string]string{
		"word/document.xml": b.DocumentXML(),
	})
}

// Archive zips the standard package parts plus the given overrides, in a
// stable order.
func Archive(overrides map[string]string) []byte {
	parts := []struct{ name, data string }{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", rels},
		{"word/document.xml", ""},
		{"word/styles.xml", Styles},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		data := p.data
		if o, ok := overrides[p.name]; ok {
			data = o
		}
		if p.name == "word/document.xml" && data == "" {
			continue
		}
		fw, err := zw.Create(p.name)
		if err != nil {
			panic(err)
		}
		if _, err := fw.Write([]byte(data)); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func paragraphXML(runs ...Run) string {
	var sb strings.Builder
	sb.WriteString(`<w:p>`)
	for _, r := range runs {
		writeRun(&sb, r)
	}
	sb.WriteString(`</w:p>`)
	return sb.String()
}

func writeRun(sb *strings.Builder, r Run) {
	sb.WriteString(`<w:r>`)
	var props strings.Builder
	if r.Font != "" {
		props.WriteString(`<w:rFonts w:ascii="` + esc(r.Font) + `" w:hAnsi="` + esc(r.Font) + `"/>`)
	}
	if r.Bold {
		props.WriteString(`<w:b/>`)
	}
	if r.Italic {
		props.WriteString(`<w:i/>`)
	}
	if r.Color != "" {
		props.WriteString(`<w:color w:val="` + esc(r.Color) + `"/>`)
	}
	if r.Size != "" {
		props.WriteString(`<w:sz w:val="` + esc(r.Size) + `"/>`)
	}
	if r.Underline != "" {
		props.WriteString(`<w:u w:val="` + esc(r.Underline) + `"/>`)
	}
	if props.Len() > 0 {
		sb.WriteString(`<w:rPr>` + props.String() + `</w:rPr>`)
	}
	sb.WriteString(`<w:t xml:space="preserve">` + esc(r.Text) + `</w:t></w:r>`)
}

func esc(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
