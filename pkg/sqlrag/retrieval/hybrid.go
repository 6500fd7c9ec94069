package retrieval

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"text2sql-be/pkg/sqlrag"
	"text2sql-be/pkg/sqlrag/fusion"

	"github.com/pgvector/pgvector-go"
)

// hybridPlan is the decomposed form of a rank-fusion statement: enough
// structure to run the semantic and lexical legs separately and hydrate the
// fused ids afterwards.
type hybridPlan struct {
	table    string
	idColumn string
	embedCol string
	textCol  string
}

var (
	semanticCTERe = regexp.MustCompile(`(?is)semantic_search\s+AS\s*\(\s*SELECT\s+([A-Za-z_][\w]*)\s*,.*?FROM\s+("?[A-Za-z_][\w]*"?)`)
	embedColRe    = regexp.MustCompile(`useembed_[A-Za-z_]\w*`)
)

// liftStatement parses a generated rank-fusion statement into a hybridPlan.
// It relies on the shape the generation prompt teaches: a semantic_search CTE
// selecting the id column from one table, ordered by a useembed_ column. A
// statement that doesn't match keeps its verbatim execution path.
func liftStatement(stmt string) (*hybridPlan, bool) {
	cte := semanticCTERe.FindStringSubmatch(stmt)
	if cte == nil {
		return nil, false
	}
	embedCol := embedColRe.FindString(stmt)
	if embedCol == "" {
		return nil, false
	}

	return &hybridPlan{
		table:    strings.Trim(cte[2], `"`),
		idColumn: cte[1],
		embedCol: embedCol,
		textCol:  "usevec_" + strings.TrimPrefix(embedCol, "useembed_"),
	}, true
}

// runHybrid executes the two legs as ranked-id queries, fuses the rankings
// with reciprocal rank fusion, and hydrates the winning rows in fused order.
func (e *executor) runHybrid(ctx context.Context, plan *hybridPlan, effective string, vector *pgvector.Vector) (*sqlrag.RowSet, error) {
	if vector == nil {
		return nil, fmt.Errorf("no query vector available for semantic search")
	}

	// Identifiers are used unquoted, exactly as the generated statement spelled
	// them, so case folding matches the statement's own behavior.
	semanticSQL := fmt.Sprintf(
		`SELECT %s FROM %s ORDER BY %s <=> @embedding LIMIT @k`,
		plan.idColumn, plan.table, plan.embedCol,
	)
	semantic, err := e.rankedIDs(ctx, semanticSQL, effective, vector)
	if err != nil {
		return nil, err
	}

	lexicalSQL := fmt.Sprintf(
		`SELECT %s FROM %s
		 WHERE to_tsvector('english', %s) @@ plainto_tsquery('english', @query)
		 ORDER BY ts_rank_cd(to_tsvector('english', %s), plainto_tsquery('english', @query)) DESC
		 LIMIT @k`,
		plan.idColumn, plan.table, plan.textCol, plan.textCol,
	)
	lexical, err := e.rankedIDs(ctx, lexicalSQL, effective, vector)
	if err != nil {
		return nil, err
	}

	fused := fusion.Fuse(semantic, lexical, e.k)
	if len(fused) == 0 {
		return &sqlrag.RowSet{}, nil
	}

	return e.hydrate(ctx, plan, fused)
}

// rankedIDs runs one leg and returns its id column as an ordered string list.
func (e *executor) rankedIDs(ctx context.Context, legSQL, effective string, vector *pgvector.Vector) ([]string, error) {
	rs, err := e.runRaw(ctx, legSQL, effective, vector)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		ids = append(ids, fmt.Sprint(row[rs.Columns[0]]))
	}
	return ids, nil
}

// hydrate fetches the readable columns of the fused ids and reorders the rows
// to the fused ranking. Embedding columns never leave the database.
func (e *executor) hydrate(ctx context.Context, plan *hybridPlan, fused []fusion.Scored) (*sqlrag.RowSet, error) {
	columns, err := e.readableColumns(ctx, plan.table)
	if err != nil {
		return nil, err
	}

	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = fmt.Sprintf("%q", col)
	}
	hydrateSQL := fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s::text IN ?`,
		strings.Join(quoted, ", "), plan.table, plan.idColumn,
	)

	rs, err := scanRowSet(e.db.WithContext(ctx).Raw(hydrateSQL, fusion.IDs(fused)))
	if err != nil {
		return nil, err
	}

	// The statement may spell the id column in a different case than the
	// catalog stores it.
	idKey := plan.idColumn
	for _, col := range rs.Columns {
		if strings.EqualFold(col, plan.idColumn) {
			idKey = col
			break
		}
	}

	byID := make(map[string]map[string]interface{}, len(rs.Rows))
	for _, row := range rs.Rows {
		byID[fmt.Sprint(row[idKey])] = row
	}

	ordered := &sqlrag.RowSet{Columns: rs.Columns}
	for _, scored := range fused {
		if row, ok := byID[scored.ID]; ok {
			ordered.Rows = append(ordered.Rows, row)
		}
	}
	return ordered, nil
}

// readableColumns lists the table's columns minus the embedding vectors.
func (e *executor) readableColumns(ctx context.Context, table string) ([]string, error) {
	var names []string
	err := e.db.WithContext(ctx).
		Raw(`SELECT column_name FROM information_schema.columns
		     WHERE table_schema = 'public' AND table_name = ?
		     ORDER BY ordinal_position`, table).
		Scan(&names).Error
	if err != nil {
		return nil, err
	}

	readable := make([]string, 0, len(names))
	for _, name := range names {
		if !strings.HasPrefix(name, "useembed_") {
			readable = append(readable, name)
		}
	}
	if len(readable) == 0 {
		return nil, fmt.Errorf("table %q has no readable columns", table)
	}
	return readable, nil
}
