package importer

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/nimasrn/customer-gateway/internal/model"
	"github.com/nimasrn/customer-gateway/pkg/logger"
)

// CopyLoader appends CSV rows into customers through COPY FROM STDIN.
// The whole file loads inside one transaction: any bad row rolls back
// everything already sent.
type CopyLoader struct {
	db    *sql.DB
	table string
}

func NewCopyLoader(db *sql.DB) *CopyLoader {
	return &CopyLoader{
		db:    db,
		table: "customers",
	}
}

// copyArgs maps CSV fields onto COPY arguments. Empty fields become SQL
// NULL; the customers schema keeps every non-key column nullable so such
// rows load cleanly.
func copyArgs(fields []string) []interface{} {
	args := make([]interface{}, len(fields))
	for i, value := range fields {
		if strings.TrimSpace(value) == "" {
			args[i] = nil
		} else {
			args[i] = value
		}
	}
	return args
}

func (l *CopyLoader) Load(ctx context.Context, path string, filter RowFilter) (model.ImportStats, error) {
	start := time.Now()
	var stats model.ImportStats

	reader, err := OpenCSV(path)
	if err != nil {
		return stats, err
	}
	defer reader.Close()

	txn, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("beginning transaction: %w", err)
	}

	stmt, err := txn.PrepareContext(ctx, pq.CopyIn(l.table, CopyColumns...))
	if err != nil {
		_ = txn.Rollback()
		return stats, fmt.Errorf("preparing copy statement: %w", err)
	}

	for {
		row, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			_ = stmt.Close()
			_ = txn.Rollback()
			return stats, err
		}
		stats.RowsRead++

		if filter != nil && !filter(row) {
			stats.RowsSkipped++
			continue
		}

		if _, err := stmt.ExecContext(ctx, copyArgs(row.Fields)...); err != nil {
			_ = stmt.Close()
			_ = txn.Rollback()
			return stats, fmt.Errorf("copying line %d: %w", row.Line, err)
		}
		stats.RowsLoaded++
	}

	// flush the copy buffer
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		_ = txn.Rollback()
		return stats, fmt.Errorf("flushing copy statement: %w", err)
	}

	if err := stmt.Close(); err != nil {
		_ = txn.Rollback()
		return stats, fmt.Errorf("closing copy statement: %w", err)
	}

	if err := txn.Commit(); err != nil {
		return stats, fmt.Errorf("committing copy transaction: %w", err)
	}

	stats.Duration = time.Since(start)
	logger.Info("copy load finished",
		"path", path,
		"rows_read", stats.RowsRead,
		"rows_loaded", stats.RowsLoaded,
		"rows_skipped", stats.RowsSkipped,
		"duration", stats.Duration.String(),
	)
	return stats, nil
}
