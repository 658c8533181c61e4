// Package docx loads Word (.docx) documents into a mutable block tree and
// writes them back without disturbing the parts it does not understand.
//
// A .docx file is a zip archive; only word/document.xml is parsed. Every other
// part (styles, numbering, media, relationships) is carried over byte for byte.
//
// Usage:
//
//	doc, err := docx.Load(data)
//	for _, p := range doc.Paragraphs() {
//		fmt.Println(p.Text())
//	}
//	out, err := doc.Bytes()
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"
)

// MainPart is the zip entry holding the document body.
const MainPart = "word/document.xml"

// ErrNotDocx is returned for archives that do not contain a document body.
var ErrNotDocx = errors.New("not a docx document: " + MainPart + " not found")

// part is one zip entry kept verbatim.
type part struct {
	name     string
	method   uint16
	modified time.Time
	data     []byte
}

// Document is an in-memory .docx. It is not safe for concurrent use; load one
// per goroutine.
type Document struct {
	parts []part
	main  *tree
	body  *node
}

// Load parses a .docx from its raw bytes. Each call returns an independent
// document: nothing is shared with other loads of the same bytes.
func Load(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	doc := &Document{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}

		doc.parts = append(doc.parts, part{
			name:     f.Name,
			method:   f.Method,
			modified: f.Modified,
			data:     content,
		})

		if f.Name == MainPart {
			t, err := parseTree(content)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", MainPart, err)
			}
			doc.main = t
		}
	}

	if doc.main == nil {
		return nil, ErrNotDocx
	}
	doc.body = doc.main.root.child(w, "body")
	if doc.body == nil {
		return nil, fmt.Errorf("parse %s: missing w:body", MainPart)
	}
	return doc, nil
}

// Blocks returns the top-level body blocks in document order.
func (d *Document) Blocks() []Block {
	return blocksOf(d.body)
}

// Paragraphs returns every paragraph in reading order, descending into
// table cells.
func (d *Document) Paragraphs() []*Paragraph {
	var out []*Paragraph
	walkParagraphs(d.Blocks(), func(p *Paragraph) {
		out = append(out, p)
	})
	return out
}

// Text returns the document's paragraph texts joined by newlines.
func (d *Document) Text() string {
	var buf bytes.Buffer
	for i, p := range d.Paragraphs() {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(p.Text())
	}
	return buf.String()
}

// Bytes serializes the document back into a .docx archive. Parts keep their
// original order, which matters for [Content_Types].xml.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, p := range d.parts {
		data := p.data
		if p.name == MainPart {
			data = d.main.bytes()
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     p.name,
			Method:   p.method,
			Modified: p.modified,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

func walkParagraphs(blocks []Block, fn func(*Paragraph)) {
	for _, b := range blocks {
		switch v := b.(type) {
		case *Paragraph:
			fn(v)
		case *Table:
			for _, row := range v.Rows() {
				for _, cell := range row.Cells() {
					walkParagraphs(cell.Blocks(), fn)
				}
			}
		}
	}
}
