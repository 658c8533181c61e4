package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hotsurvey/internal/config"
	"hotsurvey/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *logging.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hotsurvey",
	Short: "Bulk-generate personalized hot satisfaction questionnaires",
	Long: `hotsurvey fills a Word questionnaire template once per training participant
and packages the results into a single zip archive.

The template carries {{placeholder}} tokens (nom, prenom, email, ref_session,
formation, formateur, points_forts, remarques) and checkbox options (☐) grouped
under recognized section headers: course choice, satisfaction questions and
accessibility. Each participant gets their course checked, one satisfaction
answer drawn per question, and the "not applicable" accessibility answer.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return err
		}
		logger.For(logging.CategoryBoot).Debug("configuration loaded",
			zap.String("path", configPath),
			zap.String("commentary", cfg.Commentary.Provider),
			zap.Int("workers", cfg.GetWorkers()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Close()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "hotsurvey.yaml", "Configuration file (defaults apply when missing)")

	// Generate flags
	generateCmd.Flags().StringVarP(&participantsPath, "participants", "p", "", "Participant spreadsheet (.xlsx, .xlsm or .csv)")
	generateCmd.Flags().StringVarP(&templatePath, "template", "t", "", "Questionnaire template (.docx)")
	generateCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output archive (.zip)")
	generateCmd.Flags().StringVar(&sheetName, "sheet", "", "Worksheet to read (default: active sheet)")
	generateCmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed for satisfaction answers (0: random)")
	generateCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Participants processed in parallel")
	generateCmd.Flags().StringVar(&commentaryProvider, "commentary", "", "Commentary provider: none, gemini, openai, file")
	generateCmd.Flags().StringVar(&commentaryFile, "comments-file", "", "Canned comments file for --commentary file")

	// Inspect flags
	inspectCmd.Flags().StringVarP(&templatePath, "template", "t", "", "Questionnaire template (.docx)")

	// Validate flags
	validateCmd.Flags().StringVarP(&participantsPath, "participants", "p", "", "Participant spreadsheet (.xlsx, .xlsm or .csv)")
	validateCmd.Flags().StringVar(&sheetName, "sheet", "", "Worksheet to read (default: active sheet)")

	// Init flags
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing configuration file")

	// Add commands to root
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}
