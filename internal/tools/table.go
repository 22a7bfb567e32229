package tools

import (
	"strings"
	"unicode/utf8"
)

// FormatTable renders rows as a bordered text table. Each column is as wide as
// the longest of its header and cells.
func FormatTable(columns []string, rows [][]string) string {
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, row := range rows {
		for i := range columns {
			if n := utf8.RuneCountInString(cell(row, i)); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var b strings.Builder
	border := func() {
		b.WriteByte('+')
		for _, w := range widths {
			b.WriteString(strings.Repeat("-", w+2))
			b.WriteByte('+')
		}
		b.WriteByte('\n')
	}
	line := func(values func(int) string) {
		b.WriteByte('|')
		for i, w := range widths {
			v := values(i)
			b.WriteByte(' ')
			b.WriteString(v)
			b.WriteString(strings.Repeat(" ", w-utf8.RuneCountInString(v)))
			b.WriteString(" |")
		}
		b.WriteByte('\n')
	}

	border()
	line(func(i int) string { return columns[i] })
	border()
	for _, row := range rows {
		line(func(i int) string { return cell(row, i) })
	}
	border()
	return b.String()
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
