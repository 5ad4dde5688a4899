package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"reelsync/internal/store"
)

// RenderSnapshot renders the catalog status view.
func RenderSnapshot(snapshot *Snapshot) string {
	var b strings.Builder

	b.WriteString("Catalog\n")
	b.WriteString(renderTable(
		[]string{"Table", "Rows"},
		[][]string{
			{"source_titles", fmt.Sprintf("%d", snapshot.SourceRows)},
			{"titles", fmt.Sprintf("%d", snapshot.Titles)},
			{"people", fmt.Sprintf("%d", snapshot.Entities["person"])},
			{"categories", fmt.Sprintf("%d", snapshot.Entities["category"])},
			{"countries", fmt.Sprintf("%d", snapshot.Entities["country"])},
			{"ratings", fmt.Sprintf("%d", snapshot.Entities["rating"])},
			{"title_types", fmt.Sprintf("%d", snapshot.Entities["title_type"])},
		},
		[]columnAlignment{alignLeft, alignRight},
	))
	b.WriteString("\n\nRelations\n")

	relationRows := make([][]string, 0, len(snapshot.Relations))
	for _, rel := range snapshot.Relations {
		remaining := rel.Staged - rel.Processed
		relationRows = append(relationRows, []string{
			string(rel.Kind),
			fmt.Sprintf("%d", rel.Staged),
			fmt.Sprintf("%d", rel.Processed),
			fmt.Sprintf("%d", remaining),
			fmt.Sprintf("%d", rel.Linked),
		})
	}
	b.WriteString(renderTable(
		[]string{"Relation", "Staged", "Processed", "Remaining", "Linked"},
		relationRows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
	))

	if len(snapshot.LatestRuns) > 0 {
		b.WriteString("\n\nLatest runs\n")
		b.WriteString(RenderRuns(snapshot.LatestRuns))
	}

	return b.String()
}

// RenderDashboard renders the per-subject run aggregation.
func RenderDashboard(summaries []store.SubjectSummary) string {
	rows := make([][]string, 0, len(summaries))
	for _, summary := range summaries {
		rows = append(rows, []string{
			summary.Subject,
			fmt.Sprintf("%d", summary.TotalRuns),
			fmt.Sprintf("%d", summary.CompletedRuns),
			fmt.Sprintf("%d", summary.FailedRuns),
			fmt.Sprintf("%d", summary.RecordsProcessed),
			fmt.Sprintf("%d", summary.RecordsCreated),
			formatTime(summary.LastRunTime),
		})
	}
	return renderTable(
		[]string{"Subject", "Runs", "Completed", "Failed", "Processed", "Created", "Last Run"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}

// RenderRuns renders run history rows.
func RenderRuns(runs []*store.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			run.Subject,
			string(run.Status),
			fmt.Sprintf("%d", run.RecordsProcessed),
			fmt.Sprintf("%d", run.RecordsCreated),
			fmt.Sprintf("%d", run.RecordsSkipped),
			formatTime(run.StartTime),
			formatDuration(run),
		})
	}
	return renderTable(
		[]string{"Run", "Subject", "Status", "Processed", "Created", "Skipped", "Started", "Duration"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignRight},
	)
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatDuration(run *store.Run) string {
	if run.EndTime == nil {
		return "-"
	}
	return run.EndTime.Sub(run.StartTime).Round(time.Millisecond).String()
}
