package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/haytac/emoji-scrub/internal/app"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewCleanCmd creates the clean command.
func NewCleanCmd() *cobra.Command {
	var (
		excludeDirs []string
		encoding    string
		metricsFile string
		writeRate   float64
	)

	cmd := &cobra.Command{
		Use:   "clean [root]",
		Short: "Remove emoji from all files under root",
		Long: `Walks root recursively, strips emoji from every readable file and rewrites
the files whose content changed. Prints "Cleaned: <path>" for each rewritten
file and "Skipped (no permission): <path>" for files that could not be written.
The root may also come from the config file or EMOJI_SCRUB_ROOT.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if AppCfg == nil {
				return fmt.Errorf("critical: AppCfg not loaded")
			}
			if len(args) == 1 {
				AppCfg.Root = args[0]
			}
			flags := cmd.Flags()
			if flags.Changed("exclude") {
				AppCfg.ExcludeDirs = excludeDirs
			}
			if flags.Changed("encoding") {
				AppCfg.Encoding = encoding
			}
			if flags.Changed("metrics-file") {
				AppCfg.MetricsFile = metricsFile
			}
			if flags.Changed("write-rate") {
				AppCfg.WriteRate = writeRate
			}

			application, err := app.NewApplication(AppCfg, cmd.OutOrStdout(), app.Options{})
			if err != nil {
				log.Error().Err(err).Msg("Failed to initialize application")
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer func() {
				if err := application.Close(); err != nil {
					log.Error().Err(err).Msg("Error closing journal")
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			_, err = application.Run(ctx)
			return err
		},
	}

	cmd.Flags().StringSliceVar(&excludeDirs, "exclude", nil, "directory names to skip (repeatable, replaces the configured list)")
	cmd.Flags().StringVar(&encoding, "encoding", "", "text encoding for reading and writing files (default utf-8)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format to this path")
	cmd.Flags().Float64Var(&writeRate, "write-rate", 0, "maximum file writes per second (0 = unlimited)")
	return cmd
}
