package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ppiankov/rollcall/internal/model"
)

// SummaryTable renders the counters of a run as a two-column table
func SummaryTable(s *model.RunSummary) string {
	rows := [][]string{
		{"Considered", strconv.Itoa(s.Considered)},
	}

	switch s.Kind {
	case "resolve":
		rows = append(rows, []string{"Matched", strconv.Itoa(s.TotalMatched())})
		for _, m := range sortedKeys(s.Matched) {
			rows = append(rows, []string{"  " + m, strconv.Itoa(s.Matched[model.Method(m)])})
		}
		rows = append(rows, []string{"Unresolved", strconv.Itoa(s.TotalUnresolved())})
		for _, r := range sortedKeys(s.Unresolved) {
			rows = append(rows, []string{"  " + r, strconv.Itoa(s.Unresolved[model.UnresolvedReason(r)])})
		}
		rows = append(rows, []string{"Updated", strconv.Itoa(s.Updated)})
	case "reconcile":
		rows = append(rows,
			[]string{"Inserted", strconv.Itoa(s.Inserted)},
			[]string{"Updated", strconv.Itoa(s.Updated)},
			[]string{"Unchanged", strconv.Itoa(s.Skipped)},
		)
	case "import":
		rows = append(rows,
			[]string{"Inserted", strconv.Itoa(s.Inserted)},
			[]string{"Updated", strconv.Itoa(s.Updated)},
		)
	default:
		rows = append(rows, []string{"Written", strconv.Itoa(len(s.Outputs))})
	}

	return renderTable([]string{"Metric", "Count"}, rows)
}

// PrintSummary writes the run banner, the counters and the output files
func PrintSummary(w io.Writer, s *model.RunSummary) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  Run %s (%s)\n", s.RunID, s.Kind)
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintln(w, SummaryTable(s))
	if !s.FinishedAt.IsZero() {
		fmt.Fprintf(w, "  Duration: %v\n", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	}
	for _, out := range s.Outputs {
		fmt.Fprintf(w, "✓ Wrote %s\n", out)
	}
	fmt.Fprintf(w, "\n")
}

func sortedKeys[K ~string](m map[K]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

func renderTable(headers []string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
