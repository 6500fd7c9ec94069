package catalog

import (
	"context"
	"testing"

	"text2sql-be/pkg/sqlrag"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestListTablesExcludesDescriptionStore(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("Goods").
			AddRow("description_table").
			AddRow("Places"))

	tables, err := NewSchemaCatalog(db).ListTables(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Goods", "Places"}, tables)
}

func TestDescriptions(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("FROM description_table").
		WillReturnRows(sqlmock.NewRows([]string{"t_name", "description"}).
			AddRow("Goods", "Products with taxes").
			AddRow("Places", "Locations"))

	descriptions, err := NewSchemaCatalog(db).Descriptions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []sqlrag.TableDescription{
		{Name: "Goods", Description: "Products with taxes"},
		{Name: "Places", Description: "Locations"},
	}, descriptions)
}

func TestSchemaAndSampleExcludesEmbeddingColumns(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("information_schema.columns").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default"}).
			AddRow("id", "integer", "NO", nil).
			AddRow("Name", "text", "YES", nil).
			AddRow("usevec_Description", "text", "YES", nil).
			AddRow("useembed_Description", "USER-DEFINED", "YES", nil))
	mock.ExpectQuery(`SELECT "id", "Name", "usevec_Description" FROM "Goods"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "Name", "usevec_Description"}).
			AddRow(1, "Milk", "fresh dairy milk").
			AddRow(2, "Lassi", "sweet yogurt drink"))

	md, err := NewSchemaCatalog(db).SchemaAndSample(context.Background(), "Goods", 5)

	require.NoError(t, err)
	assert.Contains(t, md, "## Schema of table `Goods`")
	assert.Contains(t, md, "| usevec_Description | text | YES |  |")
	assert.NotContains(t, md, "useembed_Description")
	assert.Contains(t, md, "## Markdown version of first 5 rows")
	assert.Contains(t, md, "| 1 | Milk | fresh dairy milk |")
}

func TestSchemaAndSampleUnknownTable(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("information_schema.columns").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default"}))

	_, err := NewSchemaCatalog(db).SchemaAndSample(context.Background(), "Nope", 5)

	require.Error(t, err)
}
