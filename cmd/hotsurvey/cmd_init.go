package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hotsurvey/internal/config"
)

var forceInit bool

// initCmd writes a default configuration file
var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Long: `Writes the default configuration to path (default: the --config path) so it
can be edited: header phrases, rating vocabulary, checkbox glyphs, commentary
provider, output archive and logging.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) == 1 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Wrote " + path))
	return nil
}
