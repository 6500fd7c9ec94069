// Package tables narrows the catalog to the tables relevant to one question.
// The selector runs exactly once per pipeline invocation, before any SQL is
// generated.
package tables

import (
	"context"
	"strings"

	"text2sql-be/pkg/events"
	"text2sql-be/pkg/llm"
	"text2sql-be/pkg/sqlrag"
	"text2sql-be/pkg/sqlrag/catalog"
	"text2sql-be/pkg/sqlrag/output"
	"text2sql-be/pkg/sqlrag/prompt"
	"text2sql-be/pkg/sqlrag/render"
	"text2sql-be/pkg/sqlrag/state"
)

const toolCallID = "GetRequiredTables"

type ISelector interface {
	Select(ctx context.Context, provider llm.Provider, emitter *events.Emitter, st *state.PipelineState) error
}

type selector struct {
	catalog catalog.ISchemaCatalog
}

func NewSelector(cat catalog.ISchemaCatalog) ISelector {
	return &selector{catalog: cat}
}

// Select asks the model which tables the question needs, validates the answer
// against the catalog, and stores the surviving names on the state.
func (s *selector) Select(ctx context.Context, provider llm.Provider, emitter *events.Emitter, st *state.PipelineState) error {
	emitter.Emit("on_get_tables_start", map[string]interface{}{
		"query":        st.UserQuery,
		"tool_call_id": toolCallID,
	})

	descriptions, err := s.catalog.Descriptions(ctx)
	if err != nil {
		return err
	}

	p := prompt.TableSelection(descriptionsMarkdown(descriptions), st.UserQuery)
	raw, err := provider.Generate(ctx, p)
	if err != nil {
		return err
	}

	names, err := output.ParseTableNames(raw)
	if err != nil {
		return err
	}

	selected := filterKnown(names, descriptions)
	if len(selected) == 0 {
		return &sqlrag.SelectionError{Question: st.UserQuery}
	}
	st.SelectedTables = selected

	emitter.Emit("on_get_tables_end", map[string]interface{}{
		"result":       strings.Join(selected, ", "),
		"tool_call_id": toolCallID,
	})
	return nil
}

func descriptionsMarkdown(descriptions []sqlrag.TableDescription) string {
	rs := &sqlrag.RowSet{Columns: []string{"t_name", "description"}}
	for _, d := range descriptions {
		rs.Rows = append(rs.Rows, map[string]interface{}{
			"t_name":      d.Name,
			"description": d.Description,
		})
	}
	return render.RowSet(rs)
}

// filterKnown keeps only names the catalog actually has, matched without
// case sensitivity, and returns them in the catalog's canonical casing.
func filterKnown(names []string, descriptions []sqlrag.TableDescription) []string {
	canonical := make(map[string]string, len(descriptions))
	for _, d := range descriptions {
		canonical[strings.ToLower(d.Name)] = d.Name
	}

	var selected []string
	seen := make(map[string]bool)
	for _, name := range names {
		table, ok := canonical[strings.ToLower(strings.TrimSpace(name))]
		if !ok || seen[table] {
			continue
		}
		seen[table] = true
		selected = append(selected, table)
	}
	return selected
}
