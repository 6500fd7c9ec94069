package output

import (
	"errors"
	"testing"

	"text2sql-be/pkg/sqlrag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueries(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{
			name: "plain JSON",
			raw:  `{"queries": ["SELECT 1;"]}`,
			want: []string{"SELECT 1;"},
		},
		{
			name: "json fence",
			raw:  "```json\n{\"queries\": [\"SELECT id FROM Goods WHERE Tax = 5;\"]}\n```",
			want: []string{"SELECT id FROM Goods WHERE Tax = 5;"},
		},
		{
			name: "bare fence with surrounding prose",
			raw:  "Here is the query:\n{\"queries\": [\"SELECT 1;\"]}\nLet me know if you need more.",
			want: []string{"SELECT 1;"},
		},
		{
			name: "whitespace entries dropped",
			raw:  `{"queries": ["  SELECT 1;  ", "   "]}`,
			want: []string{"SELECT 1;"},
		},
		{
			name:    "missing field",
			raw:     `{"statements": ["SELECT 1;"]}`,
			wantErr: true,
		},
		{
			name:    "empty list",
			raw:     `{"queries": []}`,
			wantErr: true,
		},
		{
			name:    "not JSON at all",
			raw:     "SELECT 1;",
			wantErr: true,
		},
		{
			name:    "malformed JSON",
			raw:     `{"queries": ["SELECT 1;"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQueries(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				var genErr *sqlrag.GenerationError
				require.True(t, errors.As(err, &genErr))
				assert.Equal(t, tt.raw, genErr.Raw)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTableNames(t *testing.T) {
	got, err := ParseTableNames("```json\n{\"table_names\": [\"Goods\", \"Products\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"Goods", "Products"}, got)

	// An empty list is valid here; the selection step decides whether that is
	// fatal.
	got, err = ParseTableNames(`{"table_names": []}`)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseTableNames(`{"tables": ["Goods"]}`)
	var genErr *sqlrag.GenerationError
	require.True(t, errors.As(err, &genErr))
}
