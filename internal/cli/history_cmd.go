package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/haytac/emoji-scrub/internal/database"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the 'history' command for inspecting the run journal.
func NewHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previous runs recorded in the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openJournal()
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := database.NewRunStore(db).ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTARTED\tROOT\tMODE\tSCANNED\tCLEANED\tSKIPPED\tSTATUS")
			for _, r := range runs {
				mode := "write"
				cleaned := r.Cleaned
				if r.DryRun {
					mode = "dry-run"
					cleaned = r.WouldClean
				}
				status := "finished"
				if r.FinishedAt == nil {
					status = "incomplete"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					r.ID, r.StartedAt.Local().Format(time.DateTime), r.Root, mode,
					r.Scanned, cleaned, r.SkippedPermission+r.SkippedWrite, status)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show (0 = all)")

	cmd.AddCommand(newHistoryShowCmd())
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "List the files a run rewrote or failed to rewrite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openJournal()
			if err != nil {
				return err
			}
			defer db.Close()

			store := database.NewRunStore(db)
			run, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load run: %w", err)
			}
			if run == nil {
				return fmt.Errorf("run %s not found", args[0])
			}
			files, err := store.ListRunFiles(cmd.Context(), run.ID)
			if err != nil {
				return fmt.Errorf("failed to list run files: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s on %s (%d files scanned, %d bytes removed)\n",
				run.ID, run.Root, run.Scanned, run.BytesRemoved)
			for _, f := range files {
				line := fmt.Sprintf("  %-18s %s", f.Outcome, f.Path)
				if f.Error != nil {
					line += " (" + *f.Error + ")"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func openJournal() (*database.DB, error) {
	if AppCfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	if AppCfg.JournalPath == "" {
		return nil, fmt.Errorf("journal_path is not configured (use --journal or EMOJI_SCRUB_JOURNAL_PATH)")
	}
	db, err := database.Connect(AppCfg.JournalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
