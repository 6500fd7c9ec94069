// Package render turns retrieved row sets into markdown. Models read
// markdown tables more reliably than raw JSON, so every row set handed to a
// prompt goes through here.
package render

import (
	"fmt"
	"strings"

	"text2sql-be/pkg/sqlrag"
)

// RowSet renders one row set as a markdown table, columns in result-set order.
func RowSet(rs *sqlrag.RowSet) string {
	if rs.Empty() {
		return ""
	}

	var md strings.Builder
	md.WriteString("| " + strings.Join(rs.Columns, " | ") + " |\n")
	md.WriteString("|" + strings.Repeat(" --- |", len(rs.Columns)) + "\n")
	for _, row := range rs.Rows {
		cells := make([]string, len(rs.Columns))
		for i, col := range rs.Columns {
			cells[i] = cell(row[col])
		}
		md.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return md.String()
}

// RowSets renders several row sets joined with blank lines, preserving the
// per-statement grouping.
func RowSets(sets []*sqlrag.RowSet) string {
	var parts []string
	for _, rs := range sets {
		if table := RowSet(rs); table != "" {
			parts = append(parts, table)
		}
	}
	return strings.Join(parts, "\n\n")
}

func cell(v interface{}) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case []byte:
		return sanitize(string(t))
	case string:
		return sanitize(t)
	default:
		return sanitize(fmt.Sprint(t))
	}
}

// sanitize keeps cell text from breaking the table layout.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}
