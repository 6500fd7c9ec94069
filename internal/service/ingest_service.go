package service

import (
	"context"
	"fmt"
	"strings"

	"text2sql-be/internal/pkg/logger"
	"text2sql-be/pkg/embedding"
	"text2sql-be/pkg/llm"
	"text2sql-be/pkg/sqlrag/catalog"
	"text2sql-be/pkg/sqlrag/prompt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// IIngestService prepares a database for the query pipeline: it embeds chosen
// text columns into paired vector columns and fills the description store the
// table selector reads from.
type IIngestService interface {
	// TextColumns lists a table's plain text columns that are not yet part of
	// a usevec_/useembed_ pair.
	TextColumns(ctx context.Context, table string) ([]string, error)

	// ProcessTable embeds the given columns of one table and refreshes its
	// entry in the description store.
	ProcessTable(ctx context.Context, table string, columns []string) error
}

type ingestService struct {
	db       *gorm.DB
	catalog  catalog.ISchemaCatalog
	embedder embedding.Provider
	provider llm.Provider
	logger   logger.ILogger
}

func NewIngestService(
	db *gorm.DB,
	cat catalog.ISchemaCatalog,
	embedder embedding.Provider,
	provider llm.Provider,
	sysLogger logger.ILogger,
) IIngestService {
	return &ingestService{
		db:       db,
		catalog:  cat,
		embedder: embedder,
		provider: provider,
		logger:   sysLogger,
	}
}

func (s *ingestService) TextColumns(ctx context.Context, table string) ([]string, error) {
	type row struct {
		ColumnName string
		DataType   string
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Raw(`SELECT column_name, data_type FROM information_schema.columns
		     WHERE table_schema = 'public' AND table_name = ?`, table).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var columns []string
	for _, r := range rows {
		if r.DataType != "text" && r.DataType != "character varying" {
			continue
		}
		if strings.HasPrefix(r.ColumnName, "usevec_") || strings.HasPrefix(r.ColumnName, catalog.EmbeddingColumnPrefix) {
			continue
		}
		columns = append(columns, r.ColumnName)
	}
	return columns, nil
}

func (s *ingestService) ProcessTable(ctx context.Context, table string, columns []string) error {
	for _, column := range columns {
		if err := s.embedColumn(ctx, table, column); err != nil {
			return fmt.Errorf("embed column %s.%s: %w", table, column, err)
		}
	}

	if err := s.ensureDescriptionTable(ctx); err != nil {
		return err
	}
	return s.describeTable(ctx, table)
}

// embedColumn renames column to usevec_column, adds useembed_column, and
// fills the vectors row by row keyed on id.
func (s *ingestService) embedColumn(ctx context.Context, table, column string) error {
	type row struct {
		ID    interface{}
		Value *string
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Raw(fmt.Sprintf(`SELECT id AS id, %q AS value FROM %q`, column, table)).
		Scan(&rows).Error
	if err != nil {
		return err
	}

	texts := make([]string, len(rows))
	for i, r := range rows {
		if r.Value != nil {
			texts[i] = *r.Value
		}
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		renamed := "usevec_" + column
		embedded := catalog.EmbeddingColumnPrefix + column

		if err := tx.Exec(fmt.Sprintf(`ALTER TABLE %q RENAME %q TO %q`, table, column, renamed)).Error; err != nil {
			return err
		}
		if err := tx.Exec(fmt.Sprintf(`ALTER TABLE %q ADD COLUMN %q vector(%d)`, table, embedded, s.embedder.Dimensions())).Error; err != nil {
			return err
		}

		for i, r := range rows {
			err := tx.Exec(
				fmt.Sprintf(`UPDATE %q SET %q = ? WHERE id = ?`, table, embedded),
				pgvector.NewVector(vectors[i]), r.ID,
			).Error
			if err != nil {
				return err
			}
		}

		s.logger.Info("ingest_service", "column embedded", map[string]interface{}{
			"table":  table,
			"column": renamed,
			"rows":   len(rows),
		})
		return nil
	})
}

func (s *ingestService) ensureDescriptionTable(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec(
		`CREATE TABLE IF NOT EXISTS description_table (t_name TEXT PRIMARY KEY, description TEXT NOT NULL)`,
	).Error
}

// describeTable asks the model for a table summary over the schema sample and
// upserts it into the description store.
func (s *ingestService) describeTable(ctx context.Context, table string) error {
	sample, err := s.catalog.SchemaAndSample(ctx, table, catalog.DefaultSampleLimit)
	if err != nil {
		return err
	}

	description, err := s.provider.Generate(ctx, prompt.TableDescription(table, sample))
	if err != nil {
		return err
	}
	description = strings.TrimSpace(description)

	err = s.db.WithContext(ctx).Exec(
		`INSERT INTO description_table (t_name, description) VALUES (?, ?)
		 ON CONFLICT (t_name) DO UPDATE SET description = EXCLUDED.description`,
		table, description,
	).Error
	if err != nil {
		return err
	}

	s.logger.Info("ingest_service", "table described", map[string]interface{}{
		"table": table,
	})
	return nil
}
