package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/mselser95/betview/internal/report"
)

// formatValue renders a slot value on one line. Tables become
// "row; row" with cells separated by " | ".
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.ReplaceAll(val, "\n", " / ")
	case report.Table:
		return formatRows(val)
	case [][]string:
		return formatRows(val)
	case []any:
		rows := make([][]string, 0, len(val))
		for _, row := range val {
			cells, ok := row.([]any)
			if !ok {
				return fmt.Sprint(v)
			}
			strs := make([]string, 0, len(cells))
			for _, c := range cells {
				strs = append(strs, fmt.Sprint(c))
			}
			rows = append(rows, strs)
		}
		return formatRows(rows)
	default:
		return fmt.Sprint(v)
	}
}

func formatRows(rows [][]string) string {
	parts := make([]string, 0, len(rows))
	for _, row := range rows {
		parts = append(parts, strings.Join(row, " | "))
	}
	return strings.Join(parts, "; ")
}

func visibility(visible bool) string {
	if visible {
		return "visible"
	}
	return "hidden"
}

// printSlots writes one line per slot, sorted by key.
func printSlots[S any](out io.Writer, slots map[string]S, split func(S) (any, bool)) {
	keys := make([]string, 0, len(slots))
	for k := range slots {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		value, visible := split(slots[k])
		fmt.Fprintf(w, "%s\t%s\t%s\n", k, visibility(visible), formatValue(value))
	}
	w.Flush()
}

// printTable writes a table with aligned columns.
func printTable(out io.Writer, t report.Table) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, row := range t {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}
