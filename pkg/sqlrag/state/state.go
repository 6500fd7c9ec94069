package state

import (
	"strings"

	"text2sql-be/pkg/sqlrag"
)

// PipelineState is the per-invocation working state of the orchestrator.
// One invocation owns exactly one PipelineState; nothing here is shared
// between concurrent runs.
type PipelineState struct {
	UserQuery      string
	SelectedTables []string
	SQLStatements  []string
	QueryError     string
	CoreSubject    string
	Retrieved      []*sqlrag.RowSet

	// Attempts counts generate/execute cycles. It lives in the state rather
	// than in call-stack depth so the retry bound is an explicit guard.
	Attempts int
}

// New creates the state for a single invocation.
func New(userQuery string) *PipelineState {
	return &PipelineState{UserQuery: strings.TrimSpace(userQuery)}
}

// SetStatements replaces the statement set with this generation's output and
// clears the rows of the previous attempt.
func (s *PipelineState) SetStatements(statements []string) {
	s.SQLStatements = statements
	s.Retrieved = nil
}

// RecordError marks the last execution attempt as failed. Rows from the
// failed attempt are discarded so the error invariant holds.
func (s *PipelineState) RecordError(message string) {
	s.QueryError = message
	s.Retrieved = nil
}

// RecordRows appends a successful statement's rows and clears any prior error.
func (s *PipelineState) RecordRows(rows *sqlrag.RowSet) {
	s.QueryError = ""
	s.Retrieved = append(s.Retrieved, rows)
}

// SetCoreSubject stores the resolved subject. It is set at most once per
// invocation; later calls with a subject already present are ignored.
func (s *PipelineState) SetCoreSubject(subject string) {
	if s.CoreSubject != "" {
		return
	}
	s.CoreSubject = strings.TrimSpace(subject)
}

// EffectiveQuery is the text used for semantic retrieval: the core subject
// once resolved, the raw question otherwise.
func (s *PipelineState) EffectiveQuery() string {
	if s.CoreSubject != "" {
		return s.CoreSubject
	}
	return s.UserQuery
}

// NeedsSubject reports whether the subject resolver should run: never once a
// subject exists, otherwise only when some statement wants a query embedding.
func (s *PipelineState) NeedsSubject() bool {
	if s.CoreSubject != "" {
		return false
	}
	for _, stmt := range s.SQLStatements {
		if strings.Contains(stmt, sqlrag.EmbeddingPlaceholder) {
			return true
		}
	}
	return false
}
