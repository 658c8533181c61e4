// Package logging builds the structured loggers used across hotsurvey.
// Each subsystem logs through a named child logger (its category) which can
// be silenced individually from the configuration.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"hotsurvey/internal/config"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot       Category = "boot"       // Startup, configuration
	CategoryRecords    Category = "records"    // Participant source parsing
	CategoryTemplate   Category = "template"   // Template loading and inspection
	CategoryEngine     Category = "engine"     // Placeholder, section and checkbox passes
	CategoryCommentary Category = "commentary" // External commentary calls
	CategoryBatch      Category = "batch"      // Batch orchestration, archive
)

// AllCategories lists every category, in display order.
var AllCategories = []Category{
	CategoryBoot, CategoryRecords, CategoryTemplate,
	CategoryEngine, CategoryCommentary, CategoryBatch,
}

// Logger is the root logger plus the category toggles.
type Logger struct {
	*zap.Logger
	cfg config.LoggingConfig
}

// New builds a logger from cfg. verbose forces the debug level.
func New(cfg config.LoggingConfig, verbose bool) (*Logger, error) {
	var zc zap.Config
	switch strings.ToLower(cfg.Format) {
	case "json":
		zc = zap.NewProductionConfig()
	case "", "console":
		zc = zap.NewDevelopmentConfig()
		zc.DisableStacktrace = true
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	// every participant matters in a batch report
	zc.Sampling = nil

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		level = l
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	if cfg.File != "" {
		zc.OutputPaths = []string{cfg.File}
	} else {
		zc.OutputPaths = []string{"stderr"}
	}
	zc.ErrorOutputPaths = []string{"stderr"}

	zl, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return &Logger{Logger: zl, cfg: cfg}, nil
}

// Wrap adapts an existing zap logger, all categories enabled.
func Wrap(zl *zap.Logger) *Logger {
	if zl == nil {
		zl = zap.NewNop()
	}
	return &Logger{Logger: zl}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return Wrap(zap.NewNop())
}

// For returns the named logger of a category, or a no-op logger when the
// category is disabled.
func (l *Logger) For(c Category) *zap.Logger {
	if l == nil || l.Logger == nil {
		return zap.NewNop()
	}
	if !l.cfg.IsCategoryEnabled(string(c)) {
		return zap.NewNop()
	}
	return l.Named(string(c))
}

// Close flushes buffered entries.
func (l *Logger) Close() {
	if l != nil && l.Logger != nil {
		_ = l.Sync()
	}
}
