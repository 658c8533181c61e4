package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"hotsurvey/internal/commentary"
	"hotsurvey/internal/docx"
	"hotsurvey/internal/docx/docxtest"
	"hotsurvey/internal/engine"
	"hotsurvey/internal/records"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// =============================================================================
// FIXTURES
// =============================================================================

func template() []byte {
	return docxtest.New().
		Paragraph("Questionnaire de {{prenom}} {{nom}} ({{ref_session}})").
		Paragraph("Points forts : {{points_forts}}").
		Paragraph("Formation suivie").
		Paragraph("☐ Excel avancé").
		Paragraph("☐ Word avancé").
		Paragraph("Qualité du contenu").
		Paragraph("☐ Très satisfait").
		Paragraph("☐ Satisfait").
		Paragraph("Pertinence").
		Paragraph("☐ Très satisfait").
		Paragraph("☐ Satisfait").
		Bytes()
}

func participant(row int, first, last, course string) records.Participant {
	return records.Participant{
		Row:       row,
		FirstName: first,
		LastName:  last,
		Email:     strings.ToLower(first) + "@x.com",
		SessionID: "S1",
		Course:    course,
		Trainer:   records.DefaultTrainer,
	}
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.DefaultOptions(), zap.NewNop())
	require.NoError(t, err)
	return e
}

// readArchive returns entry name -> document paragraphs.
func readArchive(t *testing.T, data []byte) map[string][]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := make(map[string][]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)

		doc, err := docx.Load(b)
		require.NoError(t, err, f.Name)
		var texts []string
		for _, p := range doc.Paragraphs() {
			texts = append(texts, p.Text())
		}
		out[f.Name] = texts
	}
	return out
}

type failingFiller struct {
	Filler
	failFor string
	panics  bool
}

func (f failingFiller) Fill(doc *docx.Document, p records.Participant, ph engine.Placeholders, rng *rand.Rand) (*engine.Outcome, error) {
	if p.LastName == f.failFor {
		if f.panics {
			panic("corrupt record")
		}
		return nil, errors.New("simulated failure")
	}
	return f.Filler.Fill(doc, p, ph, rng)
}

// =============================================================================
// NAMING
// =============================================================================

func TestFileName(t *testing.T) {
	got := FileName("Jean-Pierre", "O'Brien", "2024-Q1")
	assert.Equal(t, "Questionnaire_Jean_Pierre_O_Brien_2024_Q1.docx", got)
	assert.Equal(t, got, FileName("Jean-Pierre", "O'Brien", "2024-Q1"))

	base := strings.TrimSuffix(got, ".docx")
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9_]+$`), base)

	assert.Equal(t, "Questionnaire_L_a_Martin_S_1.docx", FileName("Léa", "Martin", "S 1"))
}

// =============================================================================
// ARCHIVE
// =============================================================================

func TestArchive_LastWriteWins(t *testing.T) {
	var buf bytes.Buffer
	a := NewArchive(&buf)

	replaced, err := a.Add("b.docx", []byte("first"))
	require.NoError(t, err)
	assert.False(t, replaced)
	_, err = a.Add("a.docx", []byte("other"))
	require.NoError(t, err)
	replaced, err = a.Add("b.docx", []byte("second"))
	require.NoError(t, err)
	assert.True(t, replaced)

	assert.Equal(t, 2, a.Len())
	assert.Equal(t, []string{"a.docx", "b.docx"}, a.Names())
	require.NoError(t, a.Close())

	_, err = a.Add("c.docx", nil)
	assert.ErrorIs(t, err, ErrArchiveClosed)
	assert.ErrorIs(t, a.Close(), ErrArchiveClosed)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

// =============================================================================
// RUNNER
// =============================================================================

func TestRunner_EndToEnd(t *testing.T) {
	people := []records.Participant{
		participant(2, "Léa", "Martin", "Excel avancé"),
		participant(3, "Hugo", "Petit", "Word avancé"),
	}
	var buf bytes.Buffer
	archive := NewArchive(&buf)

	r := NewRunner(newEngine(t), nil, Options{Seed: 1}, zap.NewNop())
	report, err := r.Run(context.Background(), people, template(), archive)
	require.NoError(t, err)
	require.NoError(t, archive.Close())

	assert.NotEqual(t, uuid.Nil, report.BatchID)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Succeeded)
	assert.Empty(t, report.Failures)
	assert.Zero(t, report.Anomalies)
	assert.Equal(t, []string{
		"Questionnaire_L_a_Martin_S1.docx",
		"Questionnaire_Hugo_Petit_S1.docx",
	}, report.Files)

	docs := readArchive(t, buf.Bytes())
	lea := docs["Questionnaire_L_a_Martin_S1.docx"]
	require.NotEmpty(t, lea)
	assert.Equal(t, "Questionnaire de Léa Martin (S1)", lea[0])
	assert.Equal(t, "Points forts : ", lea[1])
	assert.Equal(t, "☒ Excel avancé", lea[3])
	assert.Equal(t, "☐ Word avancé", lea[4])

	// no leakage between participants
	hugo := strings.Join(docs["Questionnaire_Hugo_Petit_S1.docx"], "\n")
	assert.NotContains(t, hugo, "Léa")
	assert.NotContains(t, hugo, "Martin")
	assert.Contains(t, hugo, "☒ Word avancé")
	assert.Contains(t, hugo, "☐ Excel avancé")
}

func TestRunner_OneFailureDoesNotStopTheBatch(t *testing.T) {
	for _, workers := range []int{1, 4} {
		for _, panics := range []bool{false, true} {
			people := []records.Participant{
				participant(2, "Léa", "Martin", "Excel avancé"),
				participant(3, "Hugo", "Petit", "Word avancé"),
				participant(4, "Zoé", "Durand", "Excel avancé"),
				participant(5, "Inès", "Roux", "Word avancé"),
			}
			filler := failingFiller{Filler: newEngine(t), failFor: "Petit", panics: panics}

			var buf bytes.Buffer
			archive := NewArchive(&buf)
			report, err := NewRunner(filler, nil, Options{Workers: workers, Seed: 5}, nil).
				Run(context.Background(), people, template(), archive)
			require.NoError(t, err)
			require.NoError(t, archive.Close())

			assert.Equal(t, 3, report.Succeeded)
			require.Len(t, report.Failures, 1)
			assert.Equal(t, 3, report.Failures[0].Participant.Row)
			assert.Contains(t, report.Failures[0].Error(), "Hugo Petit")

			docs := readArchive(t, buf.Bytes())
			assert.Len(t, docs, 3)
			assert.NotContains(t, docs, "Questionnaire_Hugo_Petit_S1.docx")
		}
	}
}

func TestRunner_InvalidParticipantIsAFailure(t *testing.T) {
	bad := participant(3, "Hugo", "Petit", "Word avancé")
	bad.Email = ""

	archive := NewArchive(io.Discard)
	report, err := NewRunner(newEngine(t), nil, Options{}, nil).Run(context.Background(),
		[]records.Participant{participant(2, "Léa", "Martin", "Excel avancé"), bad}, template(), archive)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0].Err.Error(), "email")
	assert.Equal(t, 1, archive.Len())
}

func TestRunner_InvalidTemplateRejectsBatch(t *testing.T) {
	archive := NewArchive(io.Discard)
	_, err := NewRunner(newEngine(t), nil, Options{}, nil).Run(context.Background(),
		[]records.Participant{participant(2, "Léa", "Martin", "Excel avancé")}, []byte("not a docx"), archive)
	require.Error(t, err)
	assert.Zero(t, archive.Len())
}

func TestRunner_ReproducibleAcrossWorkerCounts(t *testing.T) {
	var people []records.Participant
	for i := 0; i < 12; i++ {
		people = append(people, participant(i+2, "P"+string(rune('A'+i)), "Nom", "Excel avancé"))
	}

	run := func(workers int) map[string][]string {
		var buf bytes.Buffer
		archive := NewArchive(&buf)
		_, err := NewRunner(newEngine(t), nil, Options{Workers: workers, Seed: 99}, nil).
			Run(context.Background(), people, template(), archive)
		require.NoError(t, err)
		require.NoError(t, archive.Close())
		return readArchive(t, buf.Bytes())
	}

	sequential, parallel := run(1), run(6)
	assert.Len(t, sequential, 12)
	if diff := cmp.Diff(sequential, parallel); diff != "" {
		t.Errorf("parallel run differs from sequential (-seq +par):\n%s", diff)
	}
}

func TestRunner_CommentaryIsInjected(t *testing.T) {
	svc := commentary.NewService(commentary.ProviderFunc(func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "Excel") {
			return "1. Les TCD", nil
		}
		return "", errors.New("unavailable")
	}), commentary.Options{StrengthsPrompt: "{course}", RemarksPrompt: "{course}"}, nil)

	var buf bytes.Buffer
	archive := NewArchive(&buf)
	report, err := NewRunner(newEngine(t), svc, Options{Workers: 2}, nil).Run(context.Background(),
		[]records.Participant{
			participant(2, "Léa", "Martin", "Excel avancé"),
			participant(3, "Hugo", "Petit", "Word avancé"),
		}, template(), archive)
	require.NoError(t, err)
	require.NoError(t, archive.Close())
	assert.Equal(t, 2, report.Succeeded)

	docs := readArchive(t, buf.Bytes())
	assert.Equal(t, "Points forts : Les TCD", docs["Questionnaire_L_a_Martin_S1.docx"][1])
	assert.Equal(t, "Points forts : ", docs["Questionnaire_Hugo_Petit_S1.docx"][1])
}

func TestRunner_CollisionOverwrites(t *testing.T) {
	first := participant(2, "Léa", "Martin", "Excel avancé")
	second := participant(3, "Léa", "Martin", "Word avancé")

	other := participant(4, "Hugo", "Petit", "Excel avancé")

	for _, workers := range []int{1, 4} {
		var buf bytes.Buffer
		archive := NewArchive(&buf)
		report, err := NewRunner(newEngine(t), nil, Options{Workers: workers}, nil).Run(context.Background(),
			[]records.Participant{first, other, second}, template(), archive)
		require.NoError(t, err)
		require.NoError(t, archive.Close())

		assert.Equal(t, 3, report.Succeeded)
		assert.Equal(t, 1, report.Replaced)
		assert.Equal(t, 2, report.Archived())
		assert.Equal(t, []string{
			"Questionnaire_Hugo_Petit_S1.docx",
			"Questionnaire_L_a_Martin_S1.docx",
		}, report.Files)

		docs := readArchive(t, buf.Bytes())
		require.Len(t, docs, report.Archived())
		assert.Contains(t, docs["Questionnaire_L_a_Martin_S1.docx"], "☒ Word avancé", "workers=%d", workers)
	}
}

func TestRunner_ControlCharactersInRecords(t *testing.T) {
	p := participant(2, "Léa", "Martin\x0bDupont", "Excel avancé")

	var buf bytes.Buffer
	archive := NewArchive(&buf)
	report, err := NewRunner(newEngine(t), nil, Options{}, nil).Run(context.Background(),
		[]records.Participant{p}, template(), archive)
	require.NoError(t, err)
	require.NoError(t, archive.Close())
	require.Equal(t, 1, report.Succeeded)

	docs := readArchive(t, buf.Bytes())
	doc := docs["Questionnaire_L_a_Martin_Dupont_S1.docx"]
	require.NotEmpty(t, doc)
	assert.Equal(t, "Questionnaire de Léa Martin\nDupont (S1)", doc[0])
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	archive := NewArchive(io.Discard)
	report, err := NewRunner(newEngine(t), nil, Options{Workers: 3}, nil).Run(ctx,
		[]records.Participant{participant(2, "Léa", "Martin", "Excel avancé")}, template(), archive)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Zero(t, report.Succeeded)
	assert.Empty(t, report.Failures)
}
