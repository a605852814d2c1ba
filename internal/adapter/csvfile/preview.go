package csvfile

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Preview renders the header and up to maxRows rows of t as an aligned
// terminal table, followed by a row count when rows were left out.
func Preview(t domain.Table, maxRows int) string {
	rows := t.Rows
	if maxRows >= 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}

	widths := make([]int, len(t.Header))
	for i, h := range t.Header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, c := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(c))
			}
		}
	}
	for i := range widths {
		widths[i] += 2
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(t.Name))
	sb.WriteString("\n")

	sep := mutedStyle.Render("|")
	writeLine := func(cells []string, style lipgloss.Style) {
		for i := range widths {
			var c string
			if i < len(cells) {
				c = cells[i]
			}
			sb.WriteString(style.Width(widths[i]).Render(c))
			if i < len(widths)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}

	writeLine(t.Header, headerStyle)
	total := 0
	for _, w := range widths {
		total += w
	}
	sb.WriteString(mutedStyle.Render(strings.Repeat("-", total+len(widths)-1)))
	sb.WriteString("\n")
	for _, row := range rows {
		writeLine(row, cellStyle)
	}
	if hidden := len(t.Rows) - len(rows); hidden > 0 {
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("… %d more rows", hidden)))
		sb.WriteString("\n")
	}
	return sb.String()
}
