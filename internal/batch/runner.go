// Package batch turns a participant list and a template into an archive of
// filled questionnaires.
package batch

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"hotsurvey/internal/commentary"
	"hotsurvey/internal/docx"
	"hotsurvey/internal/engine"
	"hotsurvey/internal/records"
)

// Filler instantiates one document for one participant. *engine.Engine
// implements it.
type Filler interface {
	Fill(doc *docx.Document, p records.Participant, ph engine.Placeholders, rng *rand.Rand) (*engine.Outcome, error)
}

// Options tunes a Runner.
type Options struct {
	// Workers is the number of participants processed concurrently; values
	// below 2 process sequentially.
	Workers int
	// Seed makes the random draws reproducible. Each participant derives its
	// own stream from Seed and its position, so results do not depend on
	// scheduling.
	Seed uint64
}

// Runner processes a batch.
type Runner struct {
	filler     Filler
	commentary *commentary.Service
	workers    int
	seed       uint64
	logger     *zap.Logger
}

// NewRunner creates a runner. commentary may be nil.
func NewRunner(filler Filler, svc *commentary.Service, opts Options, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		filler:     filler,
		commentary: svc,
		workers:    workers,
		seed:       opts.Seed,
		logger:     logger,
	}
}

// Failure records a participant that produced no document.
type Failure struct {
	Participant records.Participant
	Err         error
}

func (f Failure) Error() string {
	return fmt.Sprintf("row %d (%s): %v", f.Participant.Row, f.Participant.DisplayName(), f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Report summarizes a batch.
type Report struct {
	BatchID   uuid.UUID
	Seed      uint64
	Total     int
	Succeeded int      // participants whose document was generated
	Files     []string // archive entries, in participant order
	Replaced  int      // documents overwritten by a later participant with the same file name
	Anomalies int      // questions without exactly one checked option
	Failures  []Failure
	Rejected  []*records.RowError // filled in by the caller from the record source
	Duration  time.Duration
}

// Archived returns the number of documents in the archive, which is
// Succeeded minus Replaced.
func (r *Report) Archived() int {
	return len(r.Files)
}

// Failed returns the number of participants without a document, rejected
// rows included.
func (r *Report) Failed() int {
	return len(r.Failures) + len(r.Rejected)
}

type result struct {
	file      string
	data      []byte
	anomalies int
	err       error
}

// Run fills template once per participant and adds each document to out. The
// template is validated before any participant is processed; an invalid
// template is the only per-batch error besides ctx cancellation. A
// participant either ends up in out or in Report.Failures, never half-done.
// Documents are added to out in participant order once every worker is done,
// so on a file name collision the later participant wins whatever the
// scheduling.
func (r *Runner) Run(ctx context.Context, participants []records.Participant, template []byte, out *Archive) (*Report, error) {
	start := time.Now()
	report := &Report{
		BatchID: uuid.New(),
		Seed:    r.seed,
		Total:   len(participants),
	}
	log := r.logger.With(zap.String("batch_id", report.BatchID.String()))

	if _, err := docx.Load(template); err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}
	log.Info("batch started",
		zap.Int("participants", len(participants)),
		zap.Int("workers", r.workers),
		zap.Uint64("seed", r.seed),
		zap.Bool("commentary", r.commentary.Enabled()))

	results := make([]result, len(participants))
	var done atomic.Int32

	work := func(i int) {
		p := participants[i]
		name, data, anomalies, err := r.process(ctx, i, p, template)
		results[i] = result{file: name, data: data, anomalies: anomalies, err: err}
		if err != nil {
			log.Warn("participant skipped",
				zap.Int("row", p.Row),
				zap.String("participant", p.DisplayName()),
				zap.Error(err))
			return
		}
		log.Info("questionnaire generated",
			zap.String("file", name),
			zap.Int32("done", done.Add(1)),
			zap.Int("total", len(participants)))
	}

	if r.workers > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.workers)
		for i := range participants {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				work(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range participants {
			if ctx.Err() != nil {
				break
			}
			work(i)
		}
	}

	for i, res := range results {
		if res.file == "" && res.err == nil {
			continue // not started: cancelled
		}
		if res.err == nil {
			var replaced bool
			replaced, res.err = out.Add(res.file, res.data)
			if replaced {
				report.Replaced++
				report.Files = removeName(report.Files, res.file)
				log.Warn("file name collision, previous questionnaire overwritten",
					zap.String("file", res.file),
					zap.Int("row", participants[i].Row))
			}
		}
		if res.err != nil {
			report.Failures = append(report.Failures, Failure{Participant: participants[i], Err: res.err})
			continue
		}
		report.Succeeded++
		report.Anomalies += res.anomalies
		report.Files = append(report.Files, res.file)
	}
	sort.SliceStable(report.Failures, func(a, b int) bool {
		return report.Failures[a].Participant.Row < report.Failures[b].Participant.Row
	})
	report.Duration = time.Since(start)

	log.Info("batch finished",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("archived", report.Archived()),
		zap.Int("failed", len(report.Failures)),
		zap.Int("anomalies", report.Anomalies),
		zap.Duration("duration", report.Duration))

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("batch interrupted: %w", err)
	}
	return report, nil
}

// process builds one participant's document from a fresh copy of template.
// Panics are turned into errors so one bad record cannot abort the batch.
func (r *Runner) process(ctx context.Context, i int, p records.Participant, template []byte) (name string, data []byte, anomalies int, err error) {
	name = FileNameFor(p)
	defer func() {
		if rec := recover(); rec != nil {
			data, anomalies, err = nil, 0, fmt.Errorf("panic while filling: %v", rec)
		}
	}()

	if err := p.Validate(); err != nil {
		return name, nil, 0, err
	}

	fillRNG, commentRNG := r.streams(i)
	c := r.commentary.For(ctx, p.Course, commentRNG)

	doc, err := docx.Load(template)
	if err != nil {
		return name, nil, 0, fmt.Errorf("load template: %w", err)
	}
	outcome, err := r.filler.Fill(doc, p, engine.NewPlaceholders(p, c.Strengths, c.Remarks), fillRNG)
	if err != nil {
		return name, nil, 0, fmt.Errorf("fill: %w", err)
	}
	for _, inst := range outcome.Instances {
		if inst.Options > 0 && inst.Checked != 1 {
			anomalies++
		}
	}

	data, err = doc.Bytes()
	if err != nil {
		return name, nil, 0, fmt.Errorf("serialize: %w", err)
	}
	return name, data, anomalies, nil
}

func removeName(names []string, name string) []string {
	for i, n := range names {
		if n == name {
			return append(names[:i], names[i+1:]...)
		}
	}
	return names
}

// streams returns the independent random sources of participant i.
func (r *Runner) streams(i int) (fill, comment *rand.Rand) {
	k := uint64(i) << 1
	return rand.New(rand.NewPCG(r.seed, k)), rand.New(rand.NewPCG(r.seed, k|1))
}
