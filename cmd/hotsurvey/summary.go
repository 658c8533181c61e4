package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"hotsurvey/internal/batch"
)

// Semantic colors
var (
	colorSuccess = lipgloss.Color("#8BC34A")
	colorWarning = lipgloss.Color("#FFC107")
	colorError   = lipgloss.Color("#e53935")
	colorMuted   = lipgloss.Color("#8a94a6")
	colorPrimary = lipgloss.Color("#2196F3")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
)

// printSummary renders the end-of-batch report. archivePath is empty when no
// archive was written.
func printSummary(w io.Writer, r *batch.Report, archivePath string) {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Batch "+r.BatchID.String()) + "\n")
	fmt.Fprintf(&sb, "%s %d participant(s) in %s (seed %d)\n",
		mutedStyle.Render("Processed:"), r.Total, r.Duration.Round(time.Millisecond), r.Seed)

	generated := fmt.Sprintf("✓ %d questionnaire(s) generated", r.Succeeded)
	if r.Replaced > 0 {
		generated += fmt.Sprintf(", %d in the archive", r.Archived())
	}
	sb.WriteString(successStyle.Render(generated) + "\n")
	if r.Replaced > 0 {
		sb.WriteString(warningStyle.Render(fmt.Sprintf("⚠ %d file name collision(s): earlier questionnaires overwritten", r.Replaced)) + "\n")
	}
	if r.Anomalies > 0 {
		sb.WriteString(warningStyle.Render(fmt.Sprintf("⚠ %d question(s) without exactly one checked option (see logs)", r.Anomalies)) + "\n")
	}
	for _, rej := range r.Rejected {
		sb.WriteString(warningStyle.Render("⚠ skipped "+rej.Error()) + "\n")
	}
	for _, f := range r.Failures {
		sb.WriteString(errorStyle.Render("✗ failed ") + f.Error() + "\n")
	}

	if archivePath != "" {
		sb.WriteString(mutedStyle.Render("Archive: ") + archivePath)
	} else {
		sb.WriteString(errorStyle.Render("No archive written"))
	}

	fmt.Fprintln(w, boxStyle.Render(sb.String()))
}
