package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// =============================================================================
// RAW XML TREE
// =============================================================================
//
// WordprocessingML is namespace-heavy and Word is strict about prefixes, so the
// tree keeps names exactly as written (prefix in Name.Space, via RawToken) and
// serializes them back by hand. Unknown elements round-trip untouched.

// node is one XML element.
type node struct {
	name     xml.Name
	attrs    []xml.Attr
	children []any // *node, xml.CharData, xml.Comment, xml.ProcInst, xml.Directive
}

func newNode(prefix, local string, attrs ...xml.Attr) *node {
	return &node{name: xml.Name{Space: prefix, Local: local}, attrs: attrs}
}

// is reports whether the element is prefix:local.
func (n *node) is(prefix, local string) bool {
	return n.name.Space == prefix && n.name.Local == local
}

func (n *node) attr(local string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) elements() []*node {
	out := make([]*node, 0, len(n.children))
	for _, c := range n.children {
		if el, ok := c.(*node); ok {
			out = append(out, el)
		}
	}
	return out
}

func (n *node) child(prefix, local string) *node {
	for _, c := range n.children {
		if el, ok := c.(*node); ok && el.is(prefix, local) {
			return el
		}
	}
	return nil
}

func (n *node) append(children ...any) {
	n.children = append(n.children, children...)
}

// text returns the concatenated character data of the element's direct children.
func (n *node) text() string {
	var sb strings.Builder
	for _, c := range n.children {
		if cd, ok := c.(xml.CharData); ok {
			sb.Write(cd)
		}
	}
	return sb.String()
}

// clone returns a deep copy sharing nothing with n.
func (n *node) clone() *node {
	cp := &node{name: n.name}
	if len(n.attrs) > 0 {
		cp.attrs = make([]xml.Attr, len(n.attrs))
		copy(cp.attrs, n.attrs)
	}
	cp.children = make([]any, 0, len(n.children))
	for _, c := range n.children {
		switch v := c.(type) {
		case *node:
			cp.children = append(cp.children, v.clone())
		case xml.CharData:
			cp.children = append(cp.children, v.Copy())
		case xml.Comment:
			cp.children = append(cp.children, v.Copy())
		case xml.ProcInst:
			cp.children = append(cp.children, v.Copy())
		case xml.Directive:
			cp.children = append(cp.children, v.Copy())
		}
	}
	return cp
}

// tree is a whole XML part: prolog tokens plus the root element.
type tree struct {
	prolog []any
	root   *node
}

// parseTree decodes an XML part without namespace translation.
func parseTree(data []byte) (*tree, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	t := &tree{}
	var stack []*node

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}

		switch v := tok.(type) {
		case xml.StartElement:
			el := &node{name: v.Name}
			if len(v.Attr) > 0 {
				el.attrs = make([]xml.Attr, len(v.Attr))
				copy(el.attrs, v.Attr)
			}
			if len(stack) == 0 {
				if t.root != nil {
					return nil, fmt.Errorf("decode xml: multiple root elements")
				}
				t.root = el
			} else {
				stack[len(stack)-1].append(el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("decode xml: unexpected </%s>", qualified(v.Name))
			}
			top := stack[len(stack)-1]
			if top.name != v.Name {
				return nil, fmt.Errorf("decode xml: </%s> closes <%s>", qualified(v.Name), qualified(top.name))
			}
			stack = stack[:len(stack)-1]
		default:
			cp := xml.CopyToken(tok)
			if len(stack) == 0 {
				// Whitespace around the root element carries no meaning.
				if cd, ok := cp.(xml.CharData); ok && len(bytes.TrimSpace(cd)) == 0 {
					continue
				}
				t.prolog = append(t.prolog, cp)
				continue
			}
			stack[len(stack)-1].append(cp)
		}
	}

	if t.root == nil {
		return nil, fmt.Errorf("decode xml: no root element")
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("decode xml: unclosed <%s>", qualified(stack[len(stack)-1].name))
	}
	return t, nil
}

// bytes serializes the tree.
func (t *tree) bytes() []byte {
	var buf bytes.Buffer
	for _, p := range t.prolog {
		writeToken(&buf, p)
		if _, ok := p.(xml.ProcInst); ok {
			buf.WriteString("\r\n")
		}
	}
	writeNode(&buf, t.root)
	return buf.Bytes()
}

func writeNode(buf *bytes.Buffer, n *node) {
	buf.WriteByte('<')
	buf.WriteString(qualified(n.name))
	for _, a := range n.attrs {
		buf.WriteByte(' ')
		buf.WriteString(qualified(a.Name))
		buf.WriteString(`="`)
		escape(buf, a.Value)
		buf.WriteByte('"')
	}
	if len(n.children) == 0 {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	for _, c := range n.children {
		if el, ok := c.(*node); ok {
			writeNode(buf, el)
			continue
		}
		writeToken(buf, c)
	}
	buf.WriteString("</")
	buf.WriteString(qualified(n.name))
	buf.WriteByte('>')
}

func writeToken(buf *bytes.Buffer, tok any) {
	switch v := tok.(type) {
	case xml.CharData:
		escape(buf, string(v))
	case xml.Comment:
		buf.WriteString("<!--")
		buf.Write(v)
		buf.WriteString("-->")
	case xml.ProcInst:
		buf.WriteString("<?")
		buf.WriteString(v.Target)
		if len(v.Inst) > 0 {
			buf.WriteByte(' ')
			buf.Write(v.Inst)
		}
		buf.WriteString("?>")
	case xml.Directive:
		buf.WriteString("<!")
		buf.Write(v)
		buf.WriteByte('>')
	}
}

// escape writes s with the five XML special characters escaped. Tabs and
// newlines are kept literal, unlike xml.EscapeText. Characters XML 1.0 does
// not allow are dropped.
func escape(buf *bytes.Buffer, s string) {
	for _, r := range s {
		if !legalXMLChar(r) {
			continue
		}
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&apos;")
		default:
			buf.WriteRune(r)
		}
	}
}

// legalXMLChar reports whether r is in the XML 1.0 Char production.
func legalXMLChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
