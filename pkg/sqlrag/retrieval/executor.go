// Package retrieval executes generated SQL against the store. Plain
// statements run verbatim with the placeholder parameters bound; hybrid
// statements are decomposed into a semantic and a lexical leg whose ranked
// ids are fused in Go before the rows are hydrated.
package retrieval

import (
	"context"
	"strings"

	"text2sql-be/pkg/embedding"
	"text2sql-be/pkg/events"
	"text2sql-be/pkg/sqlrag"
	"text2sql-be/pkg/sqlrag/fusion"
	"text2sql-be/pkg/sqlrag/state"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

const toolCallID = "PGRetriever"

type IExecutor interface {
	Execute(ctx context.Context, emitter *events.Emitter, st *state.PipelineState) error
}

type executor struct {
	db       *gorm.DB
	embedder embedding.Provider
	k        int
}

// Option configures an executor.
type Option func(*executor)

// WithTopK overrides the result cutoff bound to the k placeholder.
func WithTopK(k int) Option {
	return func(e *executor) {
		if k > 0 {
			e.k = k
		}
	}
}

func NewExecutor(db *gorm.DB, embedder embedding.Provider, opts ...Option) IExecutor {
	e := &executor{db: db, embedder: embedder, k: fusion.DefaultK}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs every statement in order. A statement failure is recoverable:
// it is recorded on the state as query_error, partial rows are discarded, and
// the method returns nil so the orchestrator can loop back to generation.
// Only infrastructure failures outside statement execution return an error.
func (e *executor) Execute(ctx context.Context, emitter *events.Emitter, st *state.PipelineState) error {
	effective := st.EffectiveQuery()

	var vector *pgvector.Vector
	for _, stmt := range st.SQLStatements {
		if strings.Contains(stmt, sqlrag.EmbeddingPlaceholder) {
			vec, err := embedding.EmbedOne(ctx, e.embedder, effective)
			if err != nil {
				return &sqlrag.RetrievalError{Err: err}
			}
			v := pgvector.NewVector(vec)
			vector = &v
			break
		}
	}

	st.QueryError = ""
	st.Retrieved = nil
	for _, stmt := range st.SQLStatements {
		payload := map[string]interface{}{
			"sql_query":    stmt,
			"tool_call_id": toolCallID,
		}
		if strings.Contains(stmt, sqlrag.EmbeddingPlaceholder) {
			payload["user_query"] = effective
		}
		emitter.Emit("on_retriever_start", payload)

		rs, err := e.runStatement(ctx, stmt, effective, vector)
		if err != nil {
			execErr := &sqlrag.ExecutionError{Statement: stmt, Message: err.Error()}
			emitter.Emit("on_retriever_error", map[string]interface{}{
				"error":        execErr.Error(),
				"tool_call_id": toolCallID,
			})
			st.RecordError(execErr.Error())
			return nil
		}
		st.RecordRows(rs)

		emitter.Emit("on_retriever_end", map[string]interface{}{
			"result":       rs.Rows,
			"tool_call_id": toolCallID,
		})
	}
	return nil
}

// runStatement picks the execution strategy. Statements carrying both the
// embedding and the query placeholder are rank-fusion queries; those are
// lifted into two ranked-id legs and fused in Go. Everything else, and any
// statement the lift cannot parse, runs verbatim.
func (e *executor) runStatement(ctx context.Context, stmt, effective string, vector *pgvector.Vector) (*sqlrag.RowSet, error) {
	if strings.Contains(stmt, sqlrag.EmbeddingPlaceholder) && strings.Contains(stmt, sqlrag.QueryPlaceholder) {
		if plan, ok := liftStatement(stmt); ok {
			return e.runHybrid(ctx, plan, effective, vector)
		}
	}
	return e.runRaw(ctx, stmt, effective, vector)
}

// runRaw executes one statement with every placeholder bound. Placeholders a
// statement doesn't use are bound to null, matching the binder's contract.
// Statements without any named parameter run without arguments: handing gorm
// the map anyway would send it to the driver as positional $1.
func (e *executor) runRaw(ctx context.Context, stmt, effective string, vector *pgvector.Vector) (*sqlrag.RowSet, error) {
	if !strings.Contains(stmt, "@") {
		return scanRowSet(e.db.WithContext(ctx).Raw(stmt))
	}

	args := map[string]interface{}{
		sqlrag.EmbeddingPlaceholder: nil,
		sqlrag.QueryPlaceholder:     nil,
		sqlrag.KPlaceholder:         e.k,
	}
	if strings.Contains(stmt, sqlrag.EmbeddingPlaceholder) && vector != nil {
		args[sqlrag.EmbeddingPlaceholder] = *vector
	}
	if strings.Contains(stmt, sqlrag.QueryPlaceholder) {
		args[sqlrag.QueryPlaceholder] = effective
	}
	return scanRowSet(e.db.WithContext(ctx).Raw(stmt, args))
}

// scanRowSet drains a raw query into a RowSet, keeping result-set column
// order.
func scanRowSet(tx *gorm.DB) (*sqlrag.RowSet, error) {
	rows, err := tx.Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &sqlrag.RowSet{Columns: columns}
	values := make([]interface{}, len(columns))
	pointers := make([]interface{}, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}
