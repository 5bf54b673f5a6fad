// Package report renders aggregated article records as a JSON checkpoint,
// Markdown and HTML reports.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"xwikireport/internal/models"
)

var tableHeader = []string{"**Article**", "**Created**", "**Modified**", "**Modifier**"}

// Markdown renders the report for one space. The table is aligned by display
// width so that wide characters in titles keep the columns straight.
func Markdown(label string, records []models.ArticleRecord, diags []models.Diagnostic, at time.Time) []byte {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# XWiki articles in %s space as of %s\n\n", label, Stamp(at))

	rows := make([][]string, 0, len(records)+2)
	rows = append(rows, tableHeader, []string{"---", "---", "---", "---"})

	for _, r := range records {
		rows = append(rows, []string{
			fmt.Sprintf("[%s](%s)", escapeCell(r.Title), r.PageURL),
			ShortDate(r.Created),
			ShortDate(r.LatestModified),
			escapeCell(r.Modifier),
		})
	}

	for _, line := range alignTable(rows) {
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if len(diags) > 0 {
		sb.WriteString("\n## Skipped articles\n\n")

		for _, d := range diags {
			fmt.Fprintf(&sb, "- [%s](%s): %s", escapeCell(d.Title), d.PageURL, d.Kind)

			if d.Reason != "" {
				fmt.Fprintf(&sb, " (%s)", d.Reason)
			}

			if d.RedirectURL != "" {
				fmt.Fprintf(&sb, ", see [alternate portal](%s)", d.RedirectURL)
			}

			sb.WriteString("\n")
		}
	}

	return []byte(sb.String())
}

// FormatTables re-aligns every pipe table found in content and leaves other
// lines untouched.
func FormatTables(content string) string {
	lines := strings.Split(content, "\n")

	var formatted []string

	var table [][]string

	flush := func() {
		if len(table) > 0 {
			formatted = append(formatted, alignTable(table)...)
			table = nil
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") {
			table = append(table, splitRow(trimmed))

			continue
		}

		flush()

		formatted = append(formatted, line)
	}

	flush()

	return strings.Join(formatted, "\n")
}

// escapeCell keeps a value from breaking out of its table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")

	return strings.ReplaceAll(s, "|", `\|`)
}

// splitRow splits "| a | b |" into trimmed cells. Escaped pipes stay inside
// their cell.
func splitRow(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")

	if strings.HasSuffix(row, "|") && !strings.HasSuffix(row, `\|`) {
		row = row[:len(row)-1]
	}

	var cells []string

	var cell strings.Builder

	for i := 0; i < len(row); i++ {
		switch {
		case row[i] == '\\' && i+1 < len(row) && row[i+1] == '|':
			cell.WriteString(`\|`)
			i++
		case row[i] == '|':
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		default:
			cell.WriteByte(row[i])
		}
	}

	return append(cells, strings.TrimSpace(cell.String()))
}

func isSeparatorRow(row []string) bool {
	for _, cell := range row {
		trim := strings.NewReplacer("-", "", ":", "", " ", "").Replace(cell)
		if trim != "" || cell == "" {
			return false
		}
	}

	return len(row) > 0
}

// alignTable pads every cell to its column's display width. The second row
// is treated as the header separator when it consists of dashes only.
func alignTable(table [][]string) []string {
	if len(table) < 2 {
		out := make([]string, 0, len(table))
		for _, row := range table {
			out = append(out, "| "+strings.Join(row, " | ")+" |")
		}

		return out
	}

	colCount := 0
	for _, row := range table {
		colCount = max(colCount, len(row))
	}

	separatorRowIdx := -1
	if isSeparatorRow(table[1]) {
		separatorRowIdx = 1
	}

	colWidths := make([]int, colCount)

	for rIdx, row := range table {
		if rIdx == separatorRowIdx {
			continue
		}

		for i, cell := range row {
			colWidths[i] = max(colWidths[i], runewidth.StringWidth(cell))
		}
	}

	// "---" is the narrowest valid separator.
	for i := range colWidths {
		colWidths[i] = max(colWidths[i], 3)
	}

	result := make([]string, 0, len(table))

	for i, row := range table {
		var sb strings.Builder

		sb.WriteString("|")

		for j := 0; j < colCount; j++ {
			sb.WriteString(" ")

			if i == separatorRowIdx {
				sb.WriteString(strings.Repeat("-", colWidths[j]))
			} else {
				content := ""
				if j < len(row) {
					content = row[j]
				}

				sb.WriteString(content)

				if padding := colWidths[j] - runewidth.StringWidth(content); padding > 0 {
					sb.WriteString(strings.Repeat(" ", padding))
				}
			}

			sb.WriteString(" |")
		}

		result = append(result, sb.String())
	}

	return result
}
