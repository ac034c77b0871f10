package ui

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
)

// Table displays data in a formatted table. Multi-line cell values are
// flattened so rows stay aligned.
func Table(headers []string, rows [][]string) {
	if quietFlag {
		return
	}
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(headers, "\t"))

	separator := make([]string, len(headers))
	for i := range separator {
		separator[i] = strings.Repeat("-", len(headers[i]))
	}
	fmt.Fprintln(w, strings.Join(separator, "\t"))

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(c, "\n", " / ")
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}

	_ = w.Flush()
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	d = d.Round(time.Second)

	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// KeyValue displays a key-value pair in a formatted way.
func KeyValue(key, value string) {
	if quietFlag {
		return
	}
	fmt.Fprintf(stdout, "  %s: %s\n", key, value)
}
