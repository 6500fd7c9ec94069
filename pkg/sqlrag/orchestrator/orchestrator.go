// Package orchestrator drives the text-to-SQL pipeline: select tables,
// generate SQL, resolve the semantic subject when needed, execute, and
// compose the answer. Failed executions loop back to generation with the
// database error until the retry bound is hit.
package orchestrator

import (
	"context"

	"text2sql-be/pkg/events"
	"text2sql-be/pkg/llm"
	"text2sql-be/pkg/llm/registry"
	"text2sql-be/pkg/sqlrag"
	"text2sql-be/pkg/sqlrag/query"
	"text2sql-be/pkg/sqlrag/response"
	"text2sql-be/pkg/sqlrag/retrieval"
	"text2sql-be/pkg/sqlrag/state"
	"text2sql-be/pkg/sqlrag/subject"
	"text2sql-be/pkg/sqlrag/tables"
)

// DefaultMaxRetries bounds the generate/execute correction cycles per
// invocation.
const DefaultMaxRetries = 3

// Request is one pipeline invocation.
type Request struct {
	Question string
	// Model picks a registry entry; empty means the default model.
	Model string
	RunID string
	// OnToken, when set, streams the final answer token by token.
	OnToken func(token string)
}

// Result is what a completed invocation returns.
type Result struct {
	Answer         string
	SelectedTables []string
	SQLStatements  []string
	Attempts       int
}

type IOrchestrator interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

type orchestrator struct {
	models     *registry.Registry
	selector   tables.ISelector
	generator  query.IGenerator
	resolver   subject.IResolver
	executor   retrieval.IExecutor
	composer   response.IComposer
	sink       events.Sink
	maxRetries int
}

func NewOrchestrator(
	models *registry.Registry,
	selector tables.ISelector,
	generator query.IGenerator,
	resolver subject.IResolver,
	executor retrieval.IExecutor,
	composer response.IComposer,
	sink events.Sink,
	maxRetries int,
) IOrchestrator {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &orchestrator{
		models:     models,
		selector:   selector,
		generator:  generator,
		resolver:   resolver,
		executor:   executor,
		composer:   composer,
		sink:       sink,
		maxRetries: maxRetries,
	}
}

// Run walks the pipeline for one question. Table selection happens exactly
// once; the generate/resolve/execute cycle repeats on SQL errors until it
// succeeds or the retry bound trips.
func (o *orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	entry, err := o.models.Resolve(req.Model)
	if err != nil {
		return nil, err
	}
	provider := entry.Provider

	emitter := events.NewEmitter(o.sink, req.RunID)
	st := state.New(req.Question)

	if err := o.selector.Select(ctx, provider, emitter, st); err != nil {
		return nil, err
	}

	for {
		if st.Attempts >= o.maxRetries {
			return nil, &sqlrag.MaxRetriesExceededError{
				Attempts:  st.Attempts,
				LastError: st.QueryError,
			}
		}
		st.Attempts++

		if err := o.generator.Generate(ctx, provider, emitter, st); err != nil {
			return nil, err
		}

		if st.NeedsSubject() {
			if err := o.resolver.Resolve(ctx, provider, emitter, st); err != nil {
				return nil, err
			}
		}

		if err := o.executor.Execute(ctx, emitter, st); err != nil {
			return nil, err
		}
		if st.QueryError == "" {
			break
		}
	}

	answer, err := o.composeAnswer(ctx, provider, emitter, st, req.OnToken)
	if err != nil {
		return nil, err
	}

	return &Result{
		Answer:         answer,
		SelectedTables: st.SelectedTables,
		SQLStatements:  st.SQLStatements,
		Attempts:       st.Attempts,
	}, nil
}

func (o *orchestrator) composeAnswer(ctx context.Context, provider llm.Provider, emitter *events.Emitter, st *state.PipelineState, onToken func(string)) (string, error) {
	if onToken != nil {
		return o.composer.ComposeStream(ctx, provider, emitter, st, onToken)
	}
	return o.composer.Compose(ctx, provider, emitter, st)
}
