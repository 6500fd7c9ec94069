// Package response generates the final natural language answer from the
// retrieved rows. The composer is grounded strictly on the row sets: the
// prompt forbids the model from using anything else.
package response

import (
	"context"
	"strings"

	"text2sql-be/pkg/events"
	"text2sql-be/pkg/llm"
	"text2sql-be/pkg/sqlrag"
	"text2sql-be/pkg/sqlrag/prompt"
	"text2sql-be/pkg/sqlrag/render"
	"text2sql-be/pkg/sqlrag/state"
)

type IComposer interface {
	Compose(ctx context.Context, provider llm.Provider, emitter *events.Emitter, st *state.PipelineState) (string, error)

	// ComposeStream behaves like Compose but forwards tokens as they arrive
	// when the provider supports streaming.
	ComposeStream(ctx context.Context, provider llm.Provider, emitter *events.Emitter, st *state.PipelineState, onToken func(token string)) (string, error)
}

type composer struct{}

func NewComposer() IComposer {
	return &composer{}
}

func (c *composer) Compose(ctx context.Context, provider llm.Provider, emitter *events.Emitter, st *state.PipelineState) (string, error) {
	emitter.Emit("on_generate_response_start", map[string]interface{}{
		"query": st.UserQuery,
	})

	answer, err := provider.Generate(ctx, c.buildPrompt(st))
	if err != nil {
		return "", &sqlrag.CompositionError{Err: err}
	}
	answer = strings.TrimSpace(answer)

	emitter.Emit("on_generate_response_end", map[string]interface{}{
		"result": answer,
	})
	return answer, nil
}

func (c *composer) ComposeStream(ctx context.Context, provider llm.Provider, emitter *events.Emitter, st *state.PipelineState, onToken func(token string)) (string, error) {
	streaming, ok := provider.(llm.StreamingProvider)
	if !ok {
		answer, err := c.Compose(ctx, provider, emitter, st)
		if err == nil && onToken != nil {
			onToken(answer)
		}
		return answer, err
	}

	emitter.Emit("on_generate_response_start", map[string]interface{}{
		"query": st.UserQuery,
	})

	history := []llm.Message{{Role: llm.RoleUser, Content: c.buildPrompt(st)}}
	answer, err := streaming.ChatStream(ctx, history, onToken)
	if err != nil {
		return "", &sqlrag.CompositionError{Err: err}
	}
	answer = strings.TrimSpace(answer)

	emitter.Emit("on_generate_response_end", map[string]interface{}{
		"result": answer,
	})
	return answer, nil
}

func (c *composer) buildPrompt(st *state.PipelineState) string {
	return prompt.ResponseComposition(render.RowSets(st.Retrieved), st.UserQuery)
}
