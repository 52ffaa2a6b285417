package cli

import (
	"fmt"
	"os"

	"github.com/haytac/emoji-scrub/internal/config"
	"github.com/haytac/emoji-scrub/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	dryRun      bool
	journalPath string
	AppCfg      *config.AppConfig // Populated in PersistentPreRunE
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "emoji-scrub",
		Short: "Strip emoji from every text file in a directory tree.",
		Long: `emoji-scrub walks a directory tree, removes emoji from each file it can read
as text and rewrites the files whose content changed. Version-control metadata
directories are skipped.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loadedCfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			AppCfg = loadedCfg

			logging.Setup(AppCfg.Log)
			if cmd.Flags().Changed("dry-run") {
				AppCfg.DryRun = dryRun
			}
			if cmd.Flags().Changed("journal") {
				AppCfg.JournalPath = journalPath
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml, $HOME/.emoji-scrub/config.yaml)")
	root.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "report files that would change without writing them")
	root.PersistentFlags().StringVar(&journalPath, "journal", "", "SQLite journal recording each run (disabled when empty)")

	root.AddCommand(NewCleanCmd())
	root.AddCommand(NewHistoryCmd())
	root.AddCommand(NewDbCmd())
	root.AddCommand(NewConfigCmd())
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
