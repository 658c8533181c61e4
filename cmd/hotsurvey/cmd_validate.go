package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// validateCmd checks a participant spreadsheet without generating anything
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a participant spreadsheet",
	Long: `Reads the participant spreadsheet and reports missing columns and rows that
generate would skip. Exits non-zero only when the whole file is rejected.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	if participantsPath != "" {
		cfg.Records.Path = participantsPath
	}
	if sheetName != "" {
		cfg.Records.Sheet = sheetName
	}

	sheet, err := loadParticipants()
	if err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Participants "+cfg.Records.Path) + "\n")
	fmt.Fprintf(&sb, "%s %s\n", mutedStyle.Render("Columns:"), strings.Join(sheet.Columns, ", "))
	sb.WriteString(successStyle.Render(fmt.Sprintf("✓ %d valid row(s)", len(sheet.Participants()))) + "\n")
	if rejected := sheet.Rejected(); len(rejected) > 0 {
		sb.WriteString(warningStyle.Render(fmt.Sprintf("⚠ %d row(s) will be skipped:", len(rejected))) + "\n")
		for _, r := range rejected {
			sb.WriteString("  " + r.Error() + "\n")
		}
	}
	fmt.Print(sb.String())
	return nil
}
