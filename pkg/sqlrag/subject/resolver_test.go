package subject

import (
	"context"
	"testing"

	"text2sql-be/pkg/events"
	"text2sql-be/pkg/llm"
	"text2sql-be/pkg/sqlrag/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	response string
	calls    int
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	return f.response, nil
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.calls++
	return f.response, nil
}

func TestResolveTrimsAndStores(t *testing.T) {
	provider := &fakeProvider{response: "\"dairy like milk lassi butter\"\n"}
	st := state.New("What is the average CGST price of dairy products like milk, lassi, butter, etc?")

	err := NewResolver().Resolve(context.Background(), provider, events.NewEmitter(nil, "run-1"), st)

	require.NoError(t, err)
	assert.Equal(t, "dairy like milk lassi butter", st.CoreSubject)
	assert.Equal(t, "dairy like milk lassi butter", st.EffectiveQuery())
}

func TestResolveDoesNotOverwriteExistingSubject(t *testing.T) {
	provider := &fakeProvider{response: "something else"}
	st := state.New("question")
	st.SetCoreSubject("dairy products")

	err := NewResolver().Resolve(context.Background(), provider, events.NewEmitter(nil, "run-1"), st)

	require.NoError(t, err)
	assert.Equal(t, "dairy products", st.CoreSubject)
}
