package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hotsurvey/internal/docx"
	"hotsurvey/internal/logging"
)

// inspectCmd shows how a template will be read
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the sections, options and placeholders found in a template",
	Long: `Classifies the template exactly as generate would, without filling it, and
prints every header instance with its options, the placeholders it uses and
the checkboxes that fall outside any recognized section.

Use it to check a new template before running a batch.`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	if templatePath != "" {
		cfg.Template.Path = templatePath
	}

	data, err := os.ReadFile(cfg.Template.Path)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}
	doc, err := docx.Load(data)
	if err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	ins := eng.Inspect(doc)
	logger.For(logging.CategoryTemplate).Debug("template inspected",
		zap.String("path", cfg.Template.Path),
		zap.Int("paragraphs", ins.Paragraphs),
		zap.Int("instances", len(ins.Instances)))

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Template "+cfg.Template.Path) + "\n")
	fmt.Fprintf(&sb, "%s %d paragraphs, %d header instances\n\n",
		mutedStyle.Render("Structure:"), ins.Paragraphs, len(ins.Instances))

	sb.WriteString(headerStyle.Render("Placeholders") + "\n")
	writeList(&sb, "used", ins.Tokens, successStyle)
	writeList(&sb, "not used", ins.Missing, mutedStyle)
	writeList(&sb, "unknown (left as is)", ins.Unknown, warningStyle)
	sb.WriteString("\n")

	sb.WriteString(headerStyle.Render("Sections") + "\n")
	for _, inst := range ins.Instances {
		fmt.Fprintf(&sb, "  #%-3d %-14s %s\n", inst.Instance, inst.Section, inst.Header)
		if len(inst.Labels) == 0 {
			sb.WriteString("       " + warningStyle.Render("no options") + "\n")
		}
		for _, l := range inst.Labels {
			sb.WriteString("       " + cfg.Template.UncheckedGlyph + " " + l + "\n")
		}
	}
	if len(ins.Instances) == 0 {
		sb.WriteString("  " + warningStyle.Render("no recognized section header") + "\n")
	}
	if len(ins.Unclassified) > 0 {
		sb.WriteString("\n" + warningStyle.Render(fmt.Sprintf("%d checkbox(es) outside any section, left unchecked:", len(ins.Unclassified))) + "\n")
		for _, l := range ins.Unclassified {
			sb.WriteString("  " + l + "\n")
		}
	}

	fmt.Print(sb.String())
	return nil
}

func writeList(sb *strings.Builder, label string, items []string, style interface{ Render(...string) string }) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "  %-22s %s\n", label+":", style.Render(strings.Join(items, " ")))
}
