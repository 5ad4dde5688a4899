package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"reelsync/internal/catalog"
	"reelsync/internal/logging"
	"reelsync/internal/resolve"
	"reelsync/internal/store"
)

// TitlesBuilder populates the titles table from ingested source rows. Ratings
// and title types resolve through the same get-or-create path the junction
// builder uses, so re-ingesting never duplicates them.
type TitlesBuilder struct {
	store  *store.Store
	logger *slog.Logger
}

// NewTitlesBuilder constructs a TitlesBuilder.
func NewTitlesBuilder(st *store.Store, logger *slog.Logger) *TitlesBuilder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &TitlesBuilder{
		store:  st,
		logger: logging.WithComponent(logger, "titles"),
	}
}

// Build inserts one title per source row that does not already have one.
// Existing codes are skipped, making the operation resumable and idempotent.
func (tb *TitlesBuilder) Build(ctx context.Context, onPage func(Counts) error) (Counts, error) {
	var totals Counts

	rows, err := tb.store.SourceTitles(ctx)
	if err != nil {
		return totals, fmt.Errorf("build titles: %w", err)
	}
	index, err := tb.store.TitleCodeIndex(ctx)
	if err != nil {
		return totals, fmt.Errorf("build titles: %w", err)
	}

	ratings := resolve.New(tb.store, catalog.KindRating, resolve.WithLogger(tb.logger))
	titleTypes := resolve.New(tb.store, catalog.KindTitleType, resolve.WithLogger(tb.logger))

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return totals, err
		}

		if _, exists := index[row.ShowID]; exists {
			totals.Processed++
			totals.Skipped++
			continue
		}

		title, err := tb.buildTitle(ctx, row, ratings, titleTypes)
		if err != nil {
			return totals, fmt.Errorf("build title %s: %w", row.ShowID, err)
		}

		id, err := tb.store.InsertTitle(ctx, title)
		if err != nil {
			return totals, fmt.Errorf("insert title %s: %w", row.ShowID, err)
		}
		index[row.ShowID] = id
		totals.Processed++
		totals.Created++

		if onPage != nil && (i+1)%100 == 0 {
			if err := onPage(totals); err != nil {
				return totals, err
			}
		}
	}

	tb.logger.Info("titles built",
		slog.Int64("created", totals.Created),
		slog.Int64("skipped", totals.Skipped))
	return totals, nil
}

func (tb *TitlesBuilder) buildTitle(ctx context.Context, row store.SourceTitle, ratings, titleTypes *resolve.Resolver) (store.Title, error) {
	ratingID, err := ratings.Resolve(ctx, row.Rating)
	if err != nil && !errors.Is(err, resolve.ErrEmptyValue) {
		return store.Title{}, err
	}
	typeID, err := titleTypes.Resolve(ctx, row.Type)
	if err != nil && !errors.Is(err, resolve.ErrEmptyValue) {
		return store.Title{}, err
	}

	minutes, seasons := catalog.ParseDuration(row.Duration)
	return store.Title{
		Code:            row.ShowID,
		Name:            row.Title,
		TitleTypeID:     typeID,
		RatingID:        ratingID,
		ReleaseYear:     row.ReleaseYear,
		DateAdded:       row.DateAdded,
		Duration:        row.Duration,
		DurationMinutes: minutes,
		TotalSeasons:    seasons,
		Description:     row.Description,
	}, nil
}
