package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelsync/internal/config"
	"reelsync/internal/report"
	"reelsync/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show catalog table counts and staging progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				snapshot, err := report.New(st).Snapshot(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				fmt.Fprintf(out, "Database: %s\n\n", st.Path())
				fmt.Fprintln(out, "Pipeline")
				for _, rel := range snapshot.Relations {
					remaining := rel.Staged - rel.Processed
					kind := statusOK
					message := "drained"
					switch {
					case rel.Staged == 0:
						kind = statusWarn
						message = "nothing staged"
					case remaining > 0:
						kind = statusWarn
						message = fmt.Sprintf("%d candidates remaining", remaining)
					}
					fmt.Fprintln(out, renderStatusLine(string(rel.Kind), kind, message, colorize))
				}
				for _, run := range snapshot.LatestRuns {
					if run.Status == store.RunFailed {
						fmt.Fprintln(out, renderStatusLine(run.Subject, statusError, "last run failed: "+run.ErrorMessage, colorize))
					}
				}

				fmt.Fprintln(out)
				fmt.Fprintln(out, report.RenderSnapshot(snapshot))
				return nil
			})
		},
	}
}

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var (
		subject string
		limit   int
		summary bool
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show run history or the per-subject summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				reporter := report.New(st)
				out := cmd.OutOrStdout()

				if summary {
					summaries, err := reporter.Summary(cmd.Context())
					if err != nil {
						return err
					}
					if len(summaries) == 0 {
						fmt.Fprintln(out, "No runs recorded yet")
						return nil
					}
					fmt.Fprintln(out, report.RenderDashboard(summaries))
					return nil
				}

				runs, err := reporter.Runs(cmd.Context(), subject, limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded yet")
					return nil
				}
				fmt.Fprintln(out, report.RenderRuns(runs))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Filter runs by subject")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&summary, "summary", false, "Show the per-subject aggregate dashboard")
	return cmd
}
