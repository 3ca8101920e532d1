// Package report renders the dashboard panels as markdown and the audit
// trail as a downloadable CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"stockaudit/internal/analysis"
	"stockaudit/internal/dataset"
	"stockaudit/internal/storage"
	"stockaudit/internal/storage/models"
)

// AuditCSVHeader is the header row of the exported audit log
var AuditCSVHeader = []string{"id", "timestamp", "dataset_name", "description", "row_count", "column_count"}

// AuditCSV writes entries in the order given
func AuditCSV(w io.Writer, entries []models.AuditEntry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(AuditCSVHeader); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writer.Write([]string{
			strconv.FormatInt(e.ID, 10),
			e.Timestamp.UTC().Format(storage.TimestampFormat),
			e.DatasetName,
			e.Description,
			strconv.Itoa(e.RowCount),
			strconv.Itoa(e.ColumnCount),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Dashboard is everything rendered by Markdown. Nil sections are skipped.
type Dashboard struct {
	Summary *analysis.Summary
	// RawData adds the ticker's rows of the merged dataset
	RawData bool
	Entries []models.AuditEntry
	Shapes  []models.AuditEntry
}

// Markdown renders the dashboard
func Markdown(d Dashboard) string {
	var b strings.Builder

	b.WriteString("# Stock Sentiment Analysis\n\n")

	if s := d.Summary; s != nil {
		fmt.Fprintf(&b, "## Analysis for %s\n\n", s.Ticker)

		b.WriteString("### Sentiment Hit Rate\n\n")
		fmt.Fprintf(&b, "- Positive sentiment hit rate: **%s**\n", formatRate(s.Positive))
		fmt.Fprintf(&b, "- Negative sentiment hit rate: **%s**\n\n", formatRate(s.Negative))

		b.WriteString("### Average Daily Return by Sentiment\n\n")
		b.WriteString("| Sentiment | Items | Average Daily Return |\n|---|---:|---:|\n")
		for _, r := range s.AverageReturn {
			fmt.Fprintf(&b, "| %s | %d | %s |\n", cell(r.Sentiment), r.Count, r.Average.StringFixed(4))
		}
		b.WriteString("\n")

		if len(s.Points) > 0 {
			b.WriteString("### Sentiment vs Daily Price Change\n\n")
			b.WriteString("| Date | Sentiment | Daily Diff |\n|---|---:|---:|\n")
			for _, p := range s.Points {
				fmt.Fprintf(&b, "| %s | %+d | %s |\n", cell(p.Date), p.Sentiment, p.DailyDiff.String())
			}
			b.WriteString("\n")
		}

		if d.RawData && s.Data != nil {
			b.WriteString("### Raw Merged Dataset\n\n")
			writeFrame(&b, s.Data)
		}
	}

	if d.Entries != nil {
		b.WriteString("## Audit Trail\n\n")
		if len(d.Entries) == 0 {
			b.WriteString("_No audit entries._\n\n")
		} else {
			writeEntries(&b, d.Entries)
		}
	}

	if d.Shapes != nil {
		b.WriteString("## Dataset Sizes Logged\n\n")
		writeEntries(&b, d.Shapes)
	}

	return b.String()
}

func writeEntries(b *strings.Builder, entries []models.AuditEntry) {
	b.WriteString("| ID | Timestamp | Dataset | Description | Rows | Columns |\n|---:|---|---|---|---:|---:|\n")
	for _, e := range entries {
		fmt.Fprintf(b, "| %d | %s | %s | %s | %d | %d |\n",
			e.ID,
			e.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			cell(e.DatasetName),
			cell(e.Description),
			e.RowCount,
			e.ColumnCount)
	}
	b.WriteString("\n")
}

func writeFrame(b *strings.Builder, f *dataset.Frame) {
	if len(f.Rows) == 0 {
		b.WriteString("_No rows._\n\n")
		return
	}

	header := make([]string, len(f.Columns))
	sep := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		header[i] = cell(c)
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	b.WriteString("|" + strings.Join(sep, "|") + "|\n")

	for _, row := range f.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = cell(v)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	b.WriteString("\n")
}

func formatRate(h analysis.HitRate) string {
	if h.Percent == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%% (%d/%d)", *h.Percent, h.Hits, h.Total)
}

// cell escapes text for a markdown table cell
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
