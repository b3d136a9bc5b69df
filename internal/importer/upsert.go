package importer

import (
	"context"
	"io"
	"time"

	"github.com/nimasrn/customer-gateway/internal/model"
	"github.com/nimasrn/customer-gateway/pkg/logger"
)

const DefaultBatchSize = 1000

// CustomerWriter is the repository surface the upsert loader needs.
type CustomerWriter interface {
	UpsertBatch(ctx context.Context, customers []*model.Customer) error
}

// UpsertLoader loads CSV rows in batches with ON CONFLICT (customer_id)
// DO UPDATE. Re-running the same file leaves the row count unchanged and
// refreshes mutable columns; each batch commits independently.
type UpsertLoader struct {
	customers CustomerWriter
	batchSize int
}

func NewUpsertLoader(customers CustomerWriter, batchSize int) *UpsertLoader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &UpsertLoader{
		customers: customers,
		batchSize: batchSize,
	}
}

func (l *UpsertLoader) Load(ctx context.Context, path string, filter RowFilter) (model.ImportStats, error) {
	start := time.Now()
	var stats model.ImportStats

	reader, err := OpenCSV(path)
	if err != nil {
		return stats, err
	}
	defer reader.Close()

	batch := make([]*model.Customer, 0, l.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := l.customers.UpsertBatch(ctx, batch); err != nil {
			return err
		}
		stats.RowsLoaded += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	for {
		row, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return stats, err
		}
		stats.RowsRead++

		if filter != nil && !filter(row) {
			stats.RowsSkipped++
			continue
		}

		customer, err := rowToCustomer(row)
		if err != nil {
			return stats, err
		}

		batch = append(batch, customer)
		if len(batch) >= l.batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}

	if err := flush(); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	logger.Info("upsert load finished",
		"path", path,
		"rows_read", stats.RowsRead,
		"rows_loaded", stats.RowsLoaded,
		"rows_skipped", stats.RowsSkipped,
		"duration", stats.Duration.String(),
	)
	return stats, nil
}
