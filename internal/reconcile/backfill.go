package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"reelsync/internal/logging"
	"reelsync/internal/services/gemini"
	"reelsync/internal/store"
)

// DirectorFinder names directors for a title from its surrounding fields.
// The gemini client implements it.
type DirectorFinder interface {
	InferDirectors(ctx context.Context, title gemini.TitleContext) (string, error)
}

// Backfiller fills empty director fields on source rows by asking the
// disambiguation service, so a later staging pass can pick them up.
type Backfiller struct {
	store  *store.Store
	finder DirectorFinder
	logger *slog.Logger
}

// NewBackfiller constructs a Backfiller.
func NewBackfiller(st *store.Store, finder DirectorFinder, logger *slog.Logger) *Backfiller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Backfiller{
		store:  st,
		finder: finder,
		logger: logging.WithComponent(logger, "backfill"),
	}
}

// Run asks the finder for directors of up to limit source rows with an empty
// director field and writes the answers back. Unknown answers count as
// skipped; a finder error skips the row rather than aborting the batch.
func (b *Backfiller) Run(ctx context.Context, limit int) (Counts, error) {
	var totals Counts

	rows, err := b.store.MissingDirectorTitles(ctx, limit)
	if err != nil {
		return totals, fmt.Errorf("backfill directors: %w", err)
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return totals, err
		}

		directors, err := b.finder.InferDirectors(ctx, gemini.TitleContext{
			Type:        row.Type,
			Title:       row.Title,
			Cast:        row.CastMembers,
			Country:     row.Country,
			ReleaseYear: row.ReleaseYear,
		})
		if err != nil {
			b.logger.Warn("director lookup failed",
				slog.String("show_id", row.ShowID),
				slog.String("title", row.Title),
				logging.Error(err))
			totals.Processed++
			totals.Skipped++
			continue
		}
		if directors == "" {
			totals.Processed++
			totals.Skipped++
			continue
		}

		if err := b.store.UpdateSourceDirector(ctx, row.ShowID, directors); err != nil {
			return totals, fmt.Errorf("backfill %s: %w", row.ShowID, err)
		}
		b.logger.Info("director backfilled",
			slog.String("show_id", row.ShowID),
			slog.String("directors", directors))
		totals.Processed++
		totals.Created++
	}

	return totals, nil
}
