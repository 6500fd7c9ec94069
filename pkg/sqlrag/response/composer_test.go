package response

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"text2sql-be/pkg/events"
	"text2sql-be/pkg/llm"
	"text2sql-be/pkg/sqlrag"
	"text2sql-be/pkg/sqlrag/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	response string
	err      error
	prompt   string
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.prompt = history[len(history)-1].Content
	return f.response, f.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

type fakeStreamingProvider struct {
	fakeProvider
	tokens []string
}

func (f *fakeStreamingProvider) ChatStream(ctx context.Context, history []llm.Message, onToken func(string), options ...llm.Option) (string, error) {
	f.prompt = history[len(history)-1].Content
	for _, token := range f.tokens {
		onToken(token)
	}
	return strings.Join(f.tokens, ""), nil
}

func stateWithRows() *state.PipelineState {
	st := state.New("what are the products with 5% tax?")
	st.RecordRows(&sqlrag.RowSet{
		Columns: []string{"id", "Name", "Tax"},
		Rows:    []map[string]interface{}{{"id": 1, "Name": "Milk", "Tax": 5}},
	})
	return st
}

func TestComposeGroundsPromptOnRows(t *testing.T) {
	provider := &fakeProvider{response: "  Milk has a 5% tax.  "}
	st := stateWithRows()

	answer, err := NewComposer().Compose(context.Background(), provider, events.NewEmitter(nil, "run-1"), st)

	require.NoError(t, err)
	assert.Equal(t, "Milk has a 5% tax.", answer)
	assert.Contains(t, provider.prompt, "| id | Name | Tax |")
	assert.Contains(t, provider.prompt, "what are the products with 5% tax?")
}

func TestComposeWrapsProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: fmt.Errorf("model unavailable")}
	st := stateWithRows()

	_, err := NewComposer().Compose(context.Background(), provider, events.NewEmitter(nil, "run-1"), st)

	var compErr *sqlrag.CompositionError
	require.True(t, errors.As(err, &compErr))
}

func TestComposeStreamForwardsTokens(t *testing.T) {
	provider := &fakeStreamingProvider{tokens: []string{"Milk ", "has ", "5% tax."}}
	st := stateWithRows()

	var streamed []string
	answer, err := NewComposer().ComposeStream(context.Background(), provider, events.NewEmitter(nil, "run-1"), st, func(token string) {
		streamed = append(streamed, token)
	})

	require.NoError(t, err)
	assert.Equal(t, "Milk has 5% tax.", answer)
	assert.Equal(t, []string{"Milk ", "has ", "5% tax."}, streamed)
}

func TestComposeStreamFallsBackWithoutStreamingSupport(t *testing.T) {
	provider := &fakeProvider{response: "Milk has a 5% tax."}
	st := stateWithRows()

	var streamed []string
	answer, err := NewComposer().ComposeStream(context.Background(), provider, events.NewEmitter(nil, "run-1"), st, func(token string) {
		streamed = append(streamed, token)
	})

	require.NoError(t, err)
	assert.Equal(t, "Milk has a 5% tax.", answer)
	assert.Equal(t, []string{"Milk has a 5% tax."}, streamed)
}
