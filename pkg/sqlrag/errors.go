package sqlrag

import "fmt"

// SelectionError means no usable table survived catalog filtering.
// Fatal: the pipeline cannot generate SQL without at least one table.
type SelectionError struct {
	Question string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("no valid tables resolved for question: %s", e.Question)
}

// GenerationError means the model's structured output failed schema parsing.
// This is distinct from a SQL runtime failure and is never fed back into
// the correction loop.
type GenerationError struct {
	Raw string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("structured output parse failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ExecutionError is a SQL execution failure at the store. Recoverable: its
// Message is carried back into the next generation call as query_error.
type ExecutionError struct {
	Statement string
	Message   string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("Error: %s", e.Message)
}

// RetrievalError wraps any failure inside the hybrid retrieval path that is
// not a plain statement execution error.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("hybrid retrieval failed: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// MaxRetriesExceededError means the generate/execute cycle hit its bound.
type MaxRetriesExceededError struct {
	Attempts  int
	LastError string
}

func (e *MaxRetriesExceededError) Error() string {
	return fmt.Sprintf("query correction exceeded %d attempts, last error: %s", e.Attempts, e.LastError)
}

// CompositionError means the final answer generation call failed.
type CompositionError struct {
	Err error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("response composition failed: %v", e.Err)
}

func (e *CompositionError) Unwrap() error {
	return e.Err
}
