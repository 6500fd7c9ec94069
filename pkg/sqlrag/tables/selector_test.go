package tables

import (
	"context"
	"errors"
	"testing"

	"text2sql-be/pkg/events"
	"text2sql-be/pkg/llm"
	"text2sql-be/pkg/sqlrag"
	"text2sql-be/pkg/sqlrag/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	descriptions []sqlrag.TableDescription
}

func (f *fakeCatalog) ListTables(ctx context.Context) ([]string, error) {
	names := make([]string, len(f.descriptions))
	for i, d := range f.descriptions {
		names[i] = d.Name
	}
	return names, nil
}

func (f *fakeCatalog) Descriptions(ctx context.Context) ([]sqlrag.TableDescription, error) {
	return f.descriptions, nil
}

func (f *fakeCatalog) SchemaAndSample(ctx context.Context, table string, limit int) (string, error) {
	return "## Schema of table `" + table + "`", nil
}

type fakeProvider struct {
	response string
	prompts  []string
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.prompts = append(f.prompts, history[len(history)-1].Content)
	return f.response, nil
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, nil
}

type captureSink struct {
	names []string
}

func (c *captureSink) Emit(name string, payload map[string]interface{}, correlationID string) {
	c.names = append(c.names, name)
}

func goodsCatalog() *fakeCatalog {
	return &fakeCatalog{descriptions: []sqlrag.TableDescription{
		{Name: "Goods", Description: "Products with taxes and descriptions"},
		{Name: "Places", Description: "Locations with coordinates"},
	}}
}

func TestSelectKeepsKnownTables(t *testing.T) {
	provider := &fakeProvider{response: `{"table_names": ["goods", "Unknown", "Places", "Goods"]}`}
	sink := &captureSink{}
	st := state.New("what are the products with 5% tax?")

	err := NewSelector(goodsCatalog()).Select(context.Background(), provider, events.NewEmitter(sink, "run-1"), st)

	require.NoError(t, err)
	assert.Equal(t, []string{"Goods", "Places"}, st.SelectedTables)
	assert.Equal(t, []string{"on_get_tables_start", "on_get_tables_end"}, sink.names)
}

func TestSelectPromptsWithDescriptions(t *testing.T) {
	provider := &fakeProvider{response: `{"table_names": ["Goods"]}`}
	st := state.New("what are the products with 5% tax?")

	err := NewSelector(goodsCatalog()).Select(context.Background(), provider, events.NewEmitter(nil, "run-1"), st)

	require.NoError(t, err)
	require.Len(t, provider.prompts, 1)
	assert.Contains(t, provider.prompts[0], "Products with taxes and descriptions")
	assert.Contains(t, provider.prompts[0], "what are the products with 5% tax?")
}

func TestSelectNoSurvivorsIsSelectionError(t *testing.T) {
	provider := &fakeProvider{response: `{"table_names": ["Nonexistent"]}`}
	st := state.New("question")

	err := NewSelector(goodsCatalog()).Select(context.Background(), provider, events.NewEmitter(nil, "run-1"), st)

	var selErr *sqlrag.SelectionError
	require.True(t, errors.As(err, &selErr))
	assert.Equal(t, "question", selErr.Question)
}

func TestSelectMalformedOutputIsGenerationError(t *testing.T) {
	provider := &fakeProvider{response: "the Goods table looks right"}
	st := state.New("question")

	err := NewSelector(goodsCatalog()).Select(context.Background(), provider, events.NewEmitter(nil, "run-1"), st)

	var genErr *sqlrag.GenerationError
	require.True(t, errors.As(err, &genErr))
}
