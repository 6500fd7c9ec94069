package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSQLGenerationSystemCarriesFewShotExamples(t *testing.T) {
	got := SQLGenerationSystem()

	assert.Contains(t, got, "You are a PostgresSQL expert")
	assert.Contains(t, got, "semantic_search AS (")
	assert.Contains(t, got, "@embedding")
	assert.Contains(t, got, "@query")
	assert.Contains(t, got, "@k")
	assert.Contains(t, got, "FULL OUTER JOIN")
	assert.Equal(t, 3, strings.Count(got, "### Example:"))
}

func TestSQLGenerationCarriesErrorVerbatim(t *testing.T) {
	dbError := `Error: column "tax" does not exist (SQLSTATE 42703)`
	got := SQLGeneration("## Schema of table `Goods`", "SELECT tax FROM Goods;", dbError, "products with 5% tax?")

	assert.Contains(t, got, dbError)
	assert.Contains(t, got, "SELECT tax FROM Goods;")
	assert.Contains(t, got, "products with 5% tax?")
	assert.Contains(t, got, `"queries"`)
}

func TestTableSelectionIncludesFormatInstructions(t *testing.T) {
	got := TableSelection("| t_name | description |", "what are the fruits?")

	assert.Contains(t, got, "| t_name | description |")
	assert.Contains(t, got, `"table_names"`)
	assert.Contains(t, got, "what are the fruits?")
}

func TestCoreSubjectEndsWithOutputCue(t *testing.T) {
	got := CoreSubject("what are the dairy products like milk?")

	assert.Contains(t, got, "what are the dairy products like milk?")
	assert.True(t, strings.HasSuffix(got, "Output:"))
}

func TestTableDescription(t *testing.T) {
	got := TableDescription("Goods", "## Schema of table `Goods`")

	assert.Contains(t, got, "Goods")
	assert.Contains(t, got, "ONLY be a text description")
}
