package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"reelsync/internal/catalog"
	"reelsync/internal/config"
	"reelsync/internal/ingest"
	"reelsync/internal/reconcile"
	"reelsync/internal/store"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <csv-path>",
		Short: "Load the denormalized titles CSV into the source table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				engine := newEngine(cfg, st, logger)
				loader := ingest.NewLoader(st, logger)

				counts, err := engine.TrackRun(cmd.Context(), reconcile.SubjectSource, "load titles csv",
					func(runCtx context.Context) (reconcile.Counts, error) {
						rows, err := loader.Load(runCtx, args[0])
						if err != nil {
							return reconcile.Counts{}, err
						}
						return reconcile.Counts{Processed: int64(rows), Created: int64(rows)}, nil
					})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d source rows from %s\n", counts.Created, args[0])
				return nil
			})
		},
	}
}

func newStageCommand(ctx *commandContext) *cobra.Command {
	var relationFlag string

	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Explode multi-valued source fields into staging candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				engine := newEngine(cfg, st, logger)
				out := cmd.OutOrStdout()

				relations := catalog.Relations()
				if relationFlag != "" {
					rel, err := relationFromFlag(relationFlag)
					if err != nil {
						return err
					}
					relations = []catalog.Relation{rel}
				}

				for _, rel := range relations {
					counts, err := engine.StageRelation(cmd.Context(), rel)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Staged %d %s candidates\n", counts.Created, rel.Kind)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&relationFlag, "relation", "r", "", "Stage a single relation (actors, directors, categories, countries)")
	return cmd
}

func newTitlesCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "titles",
		Short: "Materialize title rows from the ingested source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				counts, err := newEngine(cfg, st, logger).BuildTitles(cmd.Context(), force)
				if errors.Is(err, reconcile.ErrRecentlyCompleted) {
					fmt.Fprintln(cmd.OutOrStdout(), "Titles were built recently; use --force to rebuild")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Titles: %d created, %d skipped\n", counts.Created, counts.Skipped)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Run even if the subject completed recently")
	return cmd
}

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	var (
		relationFlag string
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Drain staged candidates into the junction tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				engine := newEngine(cfg, st, logger)
				out := cmd.OutOrStdout()

				relations := catalog.Relations()
				if relationFlag != "" {
					rel, err := relationFromFlag(relationFlag)
					if err != nil {
						return err
					}
					relations = []catalog.Relation{rel}
				}

				for _, rel := range relations {
					counts, err := engine.Reconcile(cmd.Context(), rel, force)
					if errors.Is(err, reconcile.ErrRecentlyCompleted) {
						fmt.Fprintf(out, "%s: completed recently, skipping (use --force)\n", rel.Kind)
						continue
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s: %d processed, %d created, %d skipped\n",
						rel.Kind, counts.Processed, counts.Created, counts.Skipped)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&relationFlag, "relation", "r", "", "Reconcile a single relation (actors, directors, categories, countries)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Run even if the subject completed recently")
	return cmd
}

func newBackfillCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Infer missing directors via the disambiguation service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				if !cfg.Gemini.Enabled {
					return errors.New("backfill requires [gemini] enabled = true in the configuration")
				}
				counts, err := newEngine(cfg, st, logger).BackfillDirectors(cmd.Context(), limit)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Backfill: %d updated, %d skipped\n", counts.Created, counts.Skipped)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "Maximum number of titles to backfill")
	return cmd
}

func relationFromFlag(value string) (catalog.Relation, error) {
	kind, ok := catalog.ParseRelationKind(value)
	if !ok {
		var known []string
		for _, rel := range catalog.Relations() {
			known = append(known, string(rel.Kind))
		}
		return catalog.Relation{}, fmt.Errorf("unknown relation %q (known: %s)", value, strings.Join(known, ", "))
	}
	rel, ok := catalog.RelationByKind(kind)
	if !ok {
		return catalog.Relation{}, fmt.Errorf("unknown relation %q", value)
	}
	return rel, nil
}
