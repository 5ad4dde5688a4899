// Package ingest loads the denormalized titles dataset into the source table.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"reelsync/internal/logging"
	"reelsync/internal/store"
)

// Loader reads a titles CSV and replaces the source table with its rows.
type Loader struct {
	store  *store.Store
	logger *slog.Logger
}

// NewLoader constructs a Loader.
func NewLoader(st *store.Store, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Loader{
		store:  st,
		logger: logging.WithComponent(logger, "ingest"),
	}
}

// Load parses the CSV at path and swaps it into the source table. The parser
// tolerates ragged rows and unescaped quotes, which the public dataset
// contains. Returns the number of rows loaded.
func (l *Loader) Load(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	rows, err := l.parse(f)
	if err != nil {
		return 0, err
	}

	if err := l.store.ReplaceSourceTitles(ctx, rows); err != nil {
		return 0, err
	}

	l.logger.Info("source titles loaded",
		slog.String("path", path),
		slog.Int("rows", len(rows)))
	return len(rows), nil
}

func (l *Loader) parse(r io.Reader) ([]store.SourceTitle, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	columns, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var rows []store.SourceTitle
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		row := buildRow(record, columns)
		if row.ShowID == "" {
			l.logger.Warn("skipping row without show id", slog.Int("line", line))
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// columnIndex maps each source field to its position in the header, or -1
// when the column is absent.
type columnIndex struct {
	showID      int
	titleType   int
	title       int
	director    int
	cast        int
	country     int
	dateAdded   int
	releaseYear int
	rating      int
	duration    int
	listedIn    int
	description int
}

// mapHeader locates the known columns by name. The dataset's "cast" column
// maps onto the cast_members field; extra columns are ignored.
func mapHeader(header []string) (columnIndex, error) {
	idx := columnIndex{
		showID: -1, titleType: -1, title: -1, director: -1, cast: -1,
		country: -1, dateAdded: -1, releaseYear: -1, rating: -1,
		duration: -1, listedIn: -1, description: -1,
	}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "show_id":
			idx.showID = i
		case "type":
			idx.titleType = i
		case "title":
			idx.title = i
		case "director":
			idx.director = i
		case "cast", "cast_members":
			idx.cast = i
		case "country":
			idx.country = i
		case "date_added":
			idx.dateAdded = i
		case "release_year":
			idx.releaseYear = i
		case "rating":
			idx.rating = i
		case "duration":
			idx.duration = i
		case "listed_in":
			idx.listedIn = i
		case "description":
			idx.description = i
		}
	}
	if idx.showID < 0 {
		return idx, fmt.Errorf("csv header missing show_id column: %v", header)
	}
	if idx.title < 0 {
		return idx, fmt.Errorf("csv header missing title column: %v", header)
	}
	return idx, nil
}

func buildRow(record []string, idx columnIndex) store.SourceTitle {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	year := 0
	if raw := field(idx.releaseYear); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			year = parsed
		}
	}

	return store.SourceTitle{
		ShowID:      field(idx.showID),
		Type:        field(idx.titleType),
		Title:       field(idx.title),
		Director:    field(idx.director),
		CastMembers: field(idx.cast),
		Country:     field(idx.country),
		DateAdded:   field(idx.dateAdded),
		ReleaseYear: year,
		Rating:      field(idx.rating),
		Duration:    field(idx.duration),
		ListedIn:    field(idx.listedIn),
		Description: field(idx.description),
	}
}
