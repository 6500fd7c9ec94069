// Package subject distills a question into the short phrase used as semantic
// search input. "What is the average CGST price of dairy products like milk,
// lassi, butter?" becomes "dairy like milk lassi butter", which embeds far
// better than the full question.
package subject

import (
	"context"
	"strings"

	"text2sql-be/pkg/events"
	"text2sql-be/pkg/llm"
	"text2sql-be/pkg/sqlrag/prompt"
	"text2sql-be/pkg/sqlrag/state"
)

const toolCallID = "GetCoreSubject"

type IResolver interface {
	Resolve(ctx context.Context, provider llm.Provider, emitter *events.Emitter, st *state.PipelineState) error
}

type resolver struct{}

func NewResolver() IResolver {
	return &resolver{}
}

// Resolve extracts the core subject and stores it on the state. The state
// keeps the first resolved subject for the rest of the invocation, so later
// correction cycles never re-run this call.
func (r *resolver) Resolve(ctx context.Context, provider llm.Provider, emitter *events.Emitter, st *state.PipelineState) error {
	emitter.Emit("on_get_core_subject_start", map[string]interface{}{
		"input":        st.UserQuery,
		"tool_call_id": toolCallID,
	})

	raw, err := provider.Generate(ctx, prompt.CoreSubject(st.UserQuery))
	if err != nil {
		return err
	}
	subject := strings.Trim(strings.TrimSpace(raw), `"`)
	st.SetCoreSubject(subject)

	emitter.Emit("on_get_core_subject_end", map[string]interface{}{
		"result":       subject,
		"tool_call_id": toolCallID,
	})
	return nil
}
