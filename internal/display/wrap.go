package display

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

const (
	DefaultWidth = 80

	defaultColumnRows = 5
)

// Wrap word-wraps text to DefaultWidth, preserving ANSI escape sequences.
func Wrap(text string) string {
	return wordwrap.String(text, DefaultWidth)
}

// Columns lays labels out as a numbered menu that fits DefaultWidth. Columns
// fill top to bottom, left to right, with at least defaultColumnRows rows
// before a new column starts.
func Columns(labels []string) []string {
	labelWidth := 0
	for _, l := range labels {
		labelWidth = max(labelWidth, len(l))
	}
	entryWidth := labelWidth + 6 // "nn. " plus two spaces of padding

	numCols := max(DefaultWidth/entryWidth, 1)
	numRows := max((len(labels)+numCols-1)/numCols, defaultColumnRows)

	rows := make([]string, numRows)
	for i, l := range labels {
		rows[i%numRows] += fmt.Sprintf("%2d. %-*s  ", i+1, labelWidth, l)
	}

	out := rows[:0]
	for _, r := range rows {
		if r = strings.TrimRight(r, " "); r != "" {
			out = append(out, r)
		}
	}
	return out
}
