package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotsurvey/internal/docx/docxtest"
)

func readPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(b)
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func texts(doc *Document) []string {
	var out []string
	for _, p := range doc.Paragraphs() {
		out = append(out, p.Text())
	}
	return out
}

func TestLoad_Errors(t *testing.T) {
	t.Run("not a zip", func(t *testing.T) {
		_, err := Load([]byte("plain text"))
		require.Error(t, err)
	})

	t.Run("zip without document part", func(t *testing.T) {
		data := docxtest.Archive(nil)
		_, err := Load(data)
		assert.True(t, errors.Is(err, ErrNotDocx), "got %v", err)
	})

	t.Run("malformed body", func(t *testing.T) {
		data := docxtest.Archive(map[string]string{
			"word/document.xml": `<w:document xmlns:w="x"><w:body><w:p></w:body></w:document>`,
		})
		_, err := Load(data)
		require.Error(t, err)
	})
}

func TestParagraphs_ReadingOrder(t *testing.T) {
	data := docxtest.New().
		Paragraph("intro").
		Table([]string{"a1", "a2"}, []string{"b1", "b2"}).
		Paragraph("outro").
		Bytes()

	doc, err := Load(data)
	require.NoError(t, err)

	want := []string{"intro", "a1", "a2", "b1", "b2", "outro"}
	if diff := cmp.Diff(want, texts(doc)); diff != "" {
		t.Errorf("paragraph order mismatch (-want +got):\n%s", diff)
	}

	blocks := doc.Blocks()
	require.Len(t, blocks, 3)
	tbl, ok := blocks[1].(*Table)
	require.True(t, ok)
	assert.Len(t, tbl.Rows(), 2)
	assert.Len(t, tbl.Rows()[0].Cells(), 2)
}

func TestParagraph_TextAcrossRunsAndContainers(t *testing.T) {
	data := docxtest.New().
		Raw(`<w:p><w:r><w:t>{{pre</w:t></w:r><w:hyperlink r:id="rId9"><w:r><w:t>nom}}</w:t></w:r></w:hyperlink><w:r><w:tab/><w:t>x</w:t></w:r><w:del><w:r><w:delText>gone</w:delText></w:r></w:del></w:p>`).
		Bytes()

	doc, err := Load(data)
	require.NoError(t, err)
	require.Len(t, doc.Paragraphs(), 1)
	assert.Equal(t, "{{prenom}}\tx", doc.Paragraphs()[0].Text())
	assert.Len(t, doc.Paragraphs()[0].Runs(), 3)
}

func TestRun_Style(t *testing.T) {
	data := docxtest.New().
		Runs(docxtest.Run{Text: "styled", Bold: true, Italic: true, Underline: "single", Size: "28", Color: "FF0000", Font: "Arial"}).
		Raw(`<w:p><w:r><w:rPr><w:b w:val="0"/><w:u w:val="none"/></w:rPr><w:t>plain</w:t></w:r></w:p>`).
		Bytes()

	doc, err := Load(data)
	require.NoError(t, err)

	got := doc.Paragraphs()[0].Runs()[0].Style()
	want := RunStyle{Bold: true, Italic: true, Underline: "single", Size: "28", Color: "FF0000", Font: "Arial"}
	assert.Equal(t, want, got)

	assert.Equal(t, RunStyle{}, doc.Paragraphs()[1].Runs()[0].Style())
}

func TestParagraph_SetTextKeepsFirstRunFormatting(t *testing.T) {
	data := docxtest.New().
		Runs(
			docxtest.Run{Text: "Bonjour {{pre", Bold: true, Color: "1F4E79", Font: "Calibri", Size: "24"},
			docxtest.Run{Text: "nom}}", Italic: true},
		).
		Bytes()

	doc, err := Load(data)
	require.NoError(t, err)
	p := doc.Paragraphs()[0]
	p.SetText("Bonjour Léa")

	out, err := doc.Bytes()
	require.NoError(t, err)
	reloaded, err := Load(out)
	require.NoError(t, err)

	rp := reloaded.Paragraphs()[0]
	require.Len(t, rp.Runs(), 1)
	assert.Equal(t, "Bonjour Léa", rp.Text())
	assert.Equal(t, RunStyle{Bold: true, Color: "1F4E79", Font: "Calibri", Size: "24"}, rp.Runs()[0].Style())
}

func TestParagraph_SetTextWithoutRuns(t *testing.T) {
	data := docxtest.New().Raw(`<w:p><w:pPr><w:jc w:val="center"/></w:pPr></w:p>`).Bytes()

	doc, err := Load(data)
	require.NoError(t, err)
	p := doc.Paragraphs()[0]
	p.SetText("new\tline\nnext")

	assert.Equal(t, "new\tline\nnext", p.Text())
	require.Len(t, p.Runs(), 1)
	assert.Equal(t, RunStyle{}, p.Runs()[0].Style())
	assert.NotNil(t, p.n.child(w, "pPr"))
}

func TestParagraph_SetPlainTextKeepsParagraphStyle(t *testing.T) {
	data := docxtest.New().
		Raw(`<w:p><w:pPr><w:pStyle w:val="ListParagraph"/></w:pPr><w:bookmarkStart w:id="0" w:name="q1"/><w:r><w:rPr><w:b/></w:rPr><w:t>☐ Option</w:t></w:r><w:bookmarkEnd w:id="0"/></w:p>`).
		Bytes()

	doc, err := Load(data)
	require.NoError(t, err)
	p := doc.Paragraphs()[0]
	p.SetPlainText("☒ Option")

	assert.Equal(t, "ListParagraph", p.StyleID())
	assert.Equal(t, "☒ Option", p.Text())
	assert.False(t, p.Runs()[0].Style().Bold)
	assert.NotNil(t, p.n.child(w, "bookmarkStart"))
	assert.NotNil(t, p.n.child(w, "bookmarkEnd"))
}

func TestBytes_RoundTripPreservesParts(t *testing.T) {
	b := docxtest.New().
		StyledParagraph("Title", "Questionnaire & satisfaction <chaud>").
		Table([]string{"☐ Oui", "☐ Non"})
	data := b.Bytes()

	doc, err := Load(data)
	require.NoError(t, err)
	out, err := doc.Bytes()
	require.NoError(t, err)

	assert.Equal(t, docxtest.Styles, readPart(t, out, "word/styles.xml"))

	body := readPart(t, out, MainPart)
	assert.True(t, strings.HasPrefix(body, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`))
	assert.Contains(t, body, `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`)
	assert.Contains(t, body, `<w:body>`)
	assert.Contains(t, body, `Questionnaire &amp; satisfaction &lt;chaud&gt;`)
	assert.Contains(t, body, `<w:pgSz w:w="11906" w:h="16838"/>`)

	reloaded, err := Load(out)
	require.NoError(t, err)
	if diff := cmp.Diff(texts(doc), texts(reloaded)); diff != "" {
		t.Errorf("round trip changed text (-before +after):\n%s", diff)
	}
}

func TestLoad_IndependentInstances(t *testing.T) {
	data := docxtest.New().Paragraph("{{nom}}").Bytes()

	first, err := Load(data)
	require.NoError(t, err)
	second, err := Load(data)
	require.NoError(t, err)

	first.Paragraphs()[0].SetText("Martin")

	assert.Equal(t, "Martin", first.Paragraphs()[0].Text())
	assert.Equal(t, "{{nom}}", second.Paragraphs()[0].Text())
}

func TestNodeClone_IsDeep(t *testing.T) {
	data := docxtest.New().Runs(docxtest.Run{Text: "x", Bold: true}).Bytes()
	doc, err := Load(data)
	require.NoError(t, err)

	orig := doc.Paragraphs()[0].Runs()[0].n.child(w, "rPr")
	cp := orig.clone()
	cp.children = nil

	assert.NotEmpty(t, orig.children)
}

func TestParagraph_SetTextDropsIllegalXMLCharacters(t *testing.T) {
	data := docxtest.New().Paragraph("{{nom}}").Bytes()
	doc, err := Load(data)
	require.NoError(t, err)

	doc.Paragraphs()[0].SetText("Martin\x0bDupont\x00 \x1f& Fils\r\n")
	out, err := doc.Bytes()
	require.NoError(t, err)

	reloaded, err := Load(out)
	require.NoError(t, err, "output must stay well-formed XML")
	assert.Equal(t, "Martin\nDupont & Fils\n", reloaded.Paragraphs()[0].Text())
}

func TestEscape_DropsIllegalXMLCharacters(t *testing.T) {
	var buf bytes.Buffer
	escape(&buf, "a\x01b\tc\ufffed<")
	assert.Equal(t, "ab\tcd&lt;", buf.String())
}

func TestParagraph_SetTextKeepsInlineObjects(t *testing.T) {
	data := docxtest.New().
		Raw(`<w:p><w:r><w:t>Logo {{formation}}</w:t></w:r><w:r><w:rPr><w:noProof/></w:rPr><w:drawing><wp:inline/></w:drawing></w:r><w:r><w:footnoteReference w:id="2"/></w:r></w:p>`).
		Bytes()

	doc, err := Load(data)
	require.NoError(t, err)
	p := doc.Paragraphs()[0]
	p.SetText("Logo Excel avancé")

	out, err := doc.Bytes()
	require.NoError(t, err)
	body := readPart(t, out, MainPart)
	assert.Contains(t, body, `<w:r><w:rPr><w:noProof/></w:rPr><w:drawing><wp:inline/></w:drawing></w:r>`)
	assert.Contains(t, body, `<w:footnoteReference w:id="2"/>`)

	reloaded, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, "Logo Excel avancé", reloaded.Paragraphs()[0].Text())
}
