package sqlrag

// TableDescription is one row of the description store: a table name and the
// free-text description produced offline by the ingest command.
type TableDescription struct {
	Name        string `json:"table_name"`
	Description string `json:"description"`
}

// RowSet holds the rows returned by one executed statement. Columns preserves
// the result-set order so markdown rendering matches what the store returned.
type RowSet struct {
	Columns []string
	Rows    []map[string]interface{}
}

// Empty reports whether the row set carries no rows.
func (rs *RowSet) Empty() bool {
	return rs == nil || len(rs.Rows) == 0
}

const (
	// EmbeddingPlaceholder marks a statement that needs a query vector bound.
	EmbeddingPlaceholder = "embedding"
	// QueryPlaceholder marks a statement that needs the raw query text bound.
	QueryPlaceholder = "query"
	// KPlaceholder is the shared cutoff / RRF smoothing constant.
	KPlaceholder = "k"
)
