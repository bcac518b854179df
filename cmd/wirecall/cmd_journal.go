package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wirecall/internal/enum"
)

func newJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the local call journal",
		Long: `Reads the SQLite journal that records every call made while the journal is
enabled (journal.enabled in config, WIRECALL_JOURNAL, or --journal).`,
	}
	cmd.AddCommand(newJournalListCmd(), newJournalStatsCmd())
	return cmd
}

func newJournalListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the most recent calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			store, err := openJournal(ctx)
			if err != nil {
				return err
			}
			entries, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, styles.Title.Render(fmt.Sprintf("Recent calls (%s)", store.Path())))
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				result := styles.Success.Render("ok")
				if !e.OK() {
					result = styles.Error.Render(e.Kind)
					if e.Code != "" {
						result += " " + e.Code
					}
				}
				rows = append(rows, []string{
					e.Started.Local().Format(time.DateTime),
					e.Service + "." + e.Operation,
					fmt.Sprint(e.Attempts),
					e.Duration.Round(time.Millisecond).String(),
					e.RequestID,
					result,
				})
			}
			printRows(w, []string{"STARTED", "OPERATION", "ATTEMPTS", "DURATION", "REQUEST ID", "RESULT"}, rows)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of calls to show")
	return cmd
}

func newJournalStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize calls per operation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			store, err := openJournal(ctx)
			if err != nil {
				return err
			}
			stats, err := store.Stats(ctx)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, styles.Title.Render("Call statistics"))
			rows := make([][]string, 0, len(stats))
			for _, s := range stats {
				rows = append(rows, []string{
					s.Service + "." + s.Operation,
					fmt.Sprint(s.Calls),
					fmt.Sprint(s.Failures),
					s.AvgDuration.Round(time.Millisecond).String(),
				})
			}
			printRows(w, []string{"OPERATION", "CALLS", "FAILURES", "AVG DURATION"}, rows)
			return nil
		},
	}
}

func newEnumsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enums",
		Short: "List every known enum and its wire names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(cmd, "Enums", enumTables())
		},
	}
}

func enumTables() map[string][]string {
	tables := enum.Registered()
	out := make(map[string][]string, len(tables))
	for _, t := range tables {
		out[t.Type] = t.Names
	}
	return out
}
