package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hotsurvey/internal/batch"
	"hotsurvey/internal/logging"
	"hotsurvey/internal/records"
)

var (
	participantsPath   string
	templatePath       string
	outPath            string
	sheetName          string
	seed               uint64
	workers            int
	commentaryProvider string
	commentaryFile     string
)

// generateCmd fills the template for every participant
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one questionnaire per participant into a zip archive",
	Long: `Reads the participant spreadsheet, fills the template for each valid row and
writes every questionnaire to a single zip archive.

Rows with an empty field are skipped and reported; a missing required column
rejects the whole spreadsheet. A participant whose questionnaire cannot be
produced is reported and skipped without stopping the batch.

Example:
  hotsurvey generate -p participants.xlsx -t questionnaire.docx -o session.zip
  hotsurvey generate -p export.csv -t questionnaire.docx --commentary gemini --seed 42`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

// applyGenerateFlags lets command-line flags override the configuration.
func applyGenerateFlags() {
	if participantsPath != "" {
		cfg.Records.Path = participantsPath
	}
	if templatePath != "" {
		cfg.Template.Path = templatePath
	}
	if outPath != "" {
		cfg.Output.Archive = outPath
	}
	if sheetName != "" {
		cfg.Records.Sheet = sheetName
	}
	if seed != 0 {
		cfg.Batch.Seed = seed
	}
	if workers != 0 {
		cfg.Batch.Workers = workers
	}
	if commentaryProvider != "" {
		cfg.Commentary.Provider = commentaryProvider
	}
	if commentaryFile != "" {
		cfg.Commentary.File = commentaryFile
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	applyGenerateFlags()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	sheet, err := loadParticipants()
	if err != nil {
		return err
	}

	template, err := os.ReadFile(cfg.Template.Path)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	svc, err := newCommentaryService(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("commentary: %w", err)
	}

	runSeed := cfg.Batch.Seed
	if runSeed == 0 {
		runSeed = rand.Uint64()
	}

	// The archive is written next to its target and renamed once complete.
	dir := filepath.Dir(cfg.Output.Archive)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".hotsurvey-*.zip")
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	archive := batch.NewArchive(tmp)
	runner := batch.NewRunner(eng, svc, batch.Options{
		Workers: cfg.GetWorkers(),
		Seed:    runSeed,
	}, logger.For(logging.CategoryBatch))

	report, runErr := runner.Run(ctx, sheet.Participants(), template, archive)
	if report == nil {
		return runErr
	}
	report.Rejected = sheet.Rejected()

	if report.Succeeded == 0 {
		printSummary(os.Stdout, report, "")
		if runErr != nil {
			return runErr
		}
		return errors.New("no questionnaire generated")
	}

	if err := archive.Close(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), cfg.Output.Archive); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	printSummary(os.Stdout, report, cfg.Output.Archive)
	return runErr
}

// loadParticipants reads the configured source and logs rejected rows.
func loadParticipants() (*records.Sheet, error) {
	log := logger.For(logging.CategoryRecords)

	sheet, err := records.Load(cfg.Records.Path, records.Options{
		Sheet:          cfg.Records.Sheet,
		DefaultTrainer: cfg.Records.DefaultTrainer,
	})
	if err != nil {
		var mce *records.MissingColumnsError
		if errors.As(err, &mce) {
			log.Error("participant file rejected", zap.Strings("missing", mce.Missing))
		}
		return nil, fmt.Errorf("participants: %w", err)
	}

	for _, rej := range sheet.Rejected() {
		log.Warn("row skipped", zap.Int("row", rej.Participant.Row), zap.Error(rej.Err))
	}
	log.Info("participants loaded",
		zap.String("path", cfg.Records.Path),
		zap.Int("valid", len(sheet.Participants())),
		zap.Int("rejected", len(sheet.Rejected())))
	return sheet, nil
}
