// Package query turns a question plus selected table schemas into SQL. The
// same call path serves first-time generation and error correction: on a
// correction pass the state carries the previous statements and the database
// error text, and both go into the prompt unchanged.
package query

import (
	"context"
	"strings"

	"text2sql-be/pkg/events"
	"text2sql-be/pkg/llm"
	"text2sql-be/pkg/sqlrag/catalog"
	"text2sql-be/pkg/sqlrag/output"
	"text2sql-be/pkg/sqlrag/prompt"
	"text2sql-be/pkg/sqlrag/state"
)

type IGenerator interface {
	Generate(ctx context.Context, provider llm.Provider, emitter *events.Emitter, st *state.PipelineState) error
}

type generator struct {
	catalog catalog.ISchemaCatalog
}

func NewGenerator(cat catalog.ISchemaCatalog) IGenerator {
	return &generator{catalog: cat}
}

// Generate produces the next statement set and replaces the state's
// statements with it. Rows from a previous failed attempt are dropped by
// SetStatements so the execution step always runs against fresh SQL.
func (g *generator) Generate(ctx context.Context, provider llm.Provider, emitter *events.Emitter, st *state.PipelineState) error {
	emitter.Emit("on_generate_query_start", map[string]interface{}{
		"query":       st.UserQuery,
		"query_error": st.QueryError,
	})

	samples := make([]string, 0, len(st.SelectedTables))
	for _, table := range st.SelectedTables {
		sample, err := g.catalog.SchemaAndSample(ctx, table, catalog.DefaultSampleLimit)
		if err != nil {
			return err
		}
		samples = append(samples, sample)
	}

	history := []llm.Message{
		{Role: llm.RoleSystem, Content: prompt.SQLGenerationSystem()},
		{Role: llm.RoleUser, Content: prompt.SQLGeneration(
			strings.Join(samples, "\n\n"),
			strings.Join(st.SQLStatements, "\n"),
			st.QueryError,
			st.UserQuery,
		)},
	}

	raw, err := provider.Chat(ctx, history)
	if err != nil {
		return err
	}

	statements, err := output.ParseQueries(raw)
	if err != nil {
		return err
	}
	st.SetStatements(statements)

	emitter.Emit("on_generate_query_end", map[string]interface{}{
		"result": strings.Join(statements, "\n"),
	})
	return nil
}
