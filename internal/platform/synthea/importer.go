package synthea

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Importer replaces the EHR tables with a parsed dataset.
type Importer struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewImporter(pool *pgxpool.Pool, logger zerolog.Logger) *Importer {
	return &Importer{pool: pool, logger: logger}
}

// Import clears all EHR and conversation rows and copies ds in, all in one
// transaction. It returns the number of rows written per table.
func (im *Importer) Import(ctx context.Context, ds *Dataset) (map[string]int64, error) {
	tx, err := im.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	im.logger.Info().Msg("clearing existing EHR data")
	for _, table := range clearOrder {
		if _, err := tx.Exec(ctx, "DELETE FROM "+pgx.Identifier{table}.Sanitize()); err != nil {
			return nil, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	counts := make(map[string]int64, len(ds.Tables))
	for _, t := range ds.Tables {
		if len(t.Rows) == 0 {
			im.logger.Info().Str("table", t.Name).Msg("no rows, skipping")
			continue
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{t.Name}, t.Columns, pgx.CopyFromRows(t.Rows))
		if err != nil {
			return nil, fmt.Errorf("copy %s: %w", t.Name, err)
		}
		counts[t.Name] = n
		im.logger.Info().Str("table", t.Name).Int64("rows", n).Msg("table loaded")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return counts, nil
}
