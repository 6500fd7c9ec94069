package state

import (
	"testing"

	"text2sql-be/pkg/sqlrag"

	"github.com/stretchr/testify/assert"
)

func TestSetStatementsClearsPreviousRows(t *testing.T) {
	st := New("question")
	st.RecordRows(&sqlrag.RowSet{Columns: []string{"id"}, Rows: []map[string]interface{}{{"id": 1}}})

	st.SetStatements([]string{"SELECT 1;"})

	assert.Equal(t, []string{"SELECT 1;"}, st.SQLStatements)
	assert.Nil(t, st.Retrieved)
}

func TestRecordErrorDiscardsPartialRows(t *testing.T) {
	st := New("question")
	st.RecordRows(&sqlrag.RowSet{Columns: []string{"id"}, Rows: []map[string]interface{}{{"id": 1}}})

	st.RecordError("Error: relation \"goods\" does not exist")

	assert.Equal(t, "Error: relation \"goods\" does not exist", st.QueryError)
	assert.Nil(t, st.Retrieved)
}

func TestRecordRowsClearsError(t *testing.T) {
	st := New("question")
	st.RecordError("Error: boom")

	st.RecordRows(&sqlrag.RowSet{Columns: []string{"id"}, Rows: []map[string]interface{}{{"id": 1}}})

	assert.Empty(t, st.QueryError)
	assert.Len(t, st.Retrieved, 1)
}

func TestCoreSubjectSetOnce(t *testing.T) {
	st := New("what are the dairy products?")
	st.SetCoreSubject("dairy products")
	st.SetCoreSubject("something else")

	assert.Equal(t, "dairy products", st.CoreSubject)
	assert.Equal(t, "dairy products", st.EffectiveQuery())
}

func TestEffectiveQueryFallsBackToQuestion(t *testing.T) {
	st := New("  what are the dairy products?  ")
	assert.Equal(t, "what are the dairy products?", st.EffectiveQuery())
}

func TestNeedsSubject(t *testing.T) {
	tests := []struct {
		name       string
		subject    string
		statements []string
		want       bool
	}{
		{
			name:       "semantic statement without subject",
			statements: []string{"SELECT id FROM Places ORDER BY useembed_Desc <=> @embedding LIMIT @k"},
			want:       true,
		},
		{
			name:       "plain statement",
			statements: []string{"SELECT id FROM Goods WHERE Tax = 5;"},
			want:       false,
		},
		{
			name:       "subject already resolved",
			subject:    "places near river banks",
			statements: []string{"SELECT id FROM Places ORDER BY useembed_Desc <=> @embedding LIMIT @k"},
			want:       false,
		},
		{
			name: "no statements",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := New("q")
			st.SetCoreSubject(tt.subject)
			st.SetStatements(tt.statements)
			assert.Equal(t, tt.want, st.NeedsSubject())
		})
	}
}
