// Package catalog reads the database's own description of itself: the table
// list, the offline-generated table descriptions, and per-table schema plus
// sample rows rendered as markdown for prompts.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"text2sql-be/pkg/sqlrag"

	"gorm.io/gorm"
)

// DescriptionTable stores the offline summaries and is never itself a
// candidate for querying.
const DescriptionTable = "description_table"

// EmbeddingColumnPrefix marks vector columns that must stay out of schema
// samples and prompts.
const EmbeddingColumnPrefix = "useembed_"

// DefaultSampleLimit is how many rows a schema sample includes.
const DefaultSampleLimit = 5

type ISchemaCatalog interface {
	ListTables(ctx context.Context) ([]string, error)
	Descriptions(ctx context.Context) ([]sqlrag.TableDescription, error)
	SchemaAndSample(ctx context.Context, table string, limit int) (string, error)
}

type schemaCatalog struct {
	db *gorm.DB
}

func NewSchemaCatalog(db *gorm.DB) ISchemaCatalog {
	return &schemaCatalog{db: db}
}

// ListTables returns every public table except the description store.
func (c *schemaCatalog) ListTables(ctx context.Context) ([]string, error) {
	var names []string
	err := c.db.WithContext(ctx).
		Raw("SELECT table_name FROM information_schema.tables WHERE table_schema = 'public'").
		Scan(&names).Error
	if err != nil {
		return nil, err
	}

	tables := make([]string, 0, len(names))
	for _, name := range names {
		if name != DescriptionTable {
			tables = append(tables, name)
		}
	}
	return tables, nil
}

// Descriptions loads the description store.
func (c *schemaCatalog) Descriptions(ctx context.Context) ([]sqlrag.TableDescription, error) {
	type row struct {
		TName       string
		Description string
	}
	var rows []row
	err := c.db.WithContext(ctx).
		Raw(fmt.Sprintf("SELECT t_name, description FROM %s", DescriptionTable)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	descriptions := make([]sqlrag.TableDescription, len(rows))
	for i, r := range rows {
		descriptions[i] = sqlrag.TableDescription{Name: r.TName, Description: r.Description}
	}
	return descriptions, nil
}

type columnInfo struct {
	ColumnName    string
	DataType      string
	IsNullable    string
	ColumnDefault *string
}

// SchemaAndSample renders one table's column schema and its first rows as
// markdown. Embedding columns are dropped from both sections so the raw
// vectors never reach a prompt.
func (c *schemaCatalog) SchemaAndSample(ctx context.Context, table string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultSampleLimit
	}

	var columns []columnInfo
	err := c.db.WithContext(ctx).
		Raw(`SELECT column_name, data_type, is_nullable, column_default
		     FROM information_schema.columns
		     WHERE table_schema = 'public' AND table_name = ?
		     ORDER BY ordinal_position`, table).
		Scan(&columns).Error
	if err != nil {
		return "", err
	}

	visible := make([]columnInfo, 0, len(columns))
	for _, col := range columns {
		if !strings.HasPrefix(col.ColumnName, EmbeddingColumnPrefix) {
			visible = append(visible, col)
		}
	}
	if len(visible) == 0 {
		return "", fmt.Errorf("table %q has no columns", table)
	}

	var md strings.Builder
	fmt.Fprintf(&md, "## Schema of table `%s`\n\n", table)
	md.WriteString("| Column Name | Data Type | Is Nullable | Default |\n")
	md.WriteString("|-------------|-----------|-------------|---------|\n")
	for _, col := range visible {
		def := ""
		if col.ColumnDefault != nil {
			def = *col.ColumnDefault
		}
		fmt.Fprintf(&md, "| %s | %s | %s | %s |\n", col.ColumnName, col.DataType, col.IsNullable, def)
	}

	names := make([]string, len(visible))
	quoted := make([]string, len(visible))
	for i, col := range visible {
		names[i] = col.ColumnName
		quoted[i] = fmt.Sprintf("%q", col.ColumnName)
	}

	rows, err := c.db.WithContext(ctx).
		Raw(fmt.Sprintf("SELECT %s FROM %q LIMIT ?", strings.Join(quoted, ", "), table), limit).
		Rows()
	if err != nil {
		return "", err
	}
	defer rows.Close()

	fmt.Fprintf(&md, "\n## Markdown version of first %d rows\n\n", limit)
	md.WriteString("| " + strings.Join(names, " | ") + " |\n")
	md.WriteString("| " + strings.Join(repeat("---", len(names)), " | ") + " |\n")

	values := make([]interface{}, len(names))
	pointers := make([]interface{}, len(names))
	for i := range values {
		pointers[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return "", err
		}
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = renderValue(v)
		}
		md.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	return md.String(), nil
}

func renderValue(v interface{}) string {
	if v == nil {
		return ""
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}
