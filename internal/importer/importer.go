package importer

import (
	"context"
	"fmt"

	"github.com/nimasrn/customer-gateway/internal/model"
	"github.com/nimasrn/customer-gateway/pkg/prom"
)

// Loader runs one import mode against the customers relation.
type Loader interface {
	Load(ctx context.Context, path string, filter RowFilter) (model.ImportStats, error)
}

// Importer dispatches an import job to the loader for its mode.
type Importer struct {
	copyLoader   Loader
	upsertLoader Loader
}

func NewImporter(copyLoader, upsertLoader Loader) *Importer {
	return &Importer{
		copyLoader:   copyLoader,
		upsertLoader: upsertLoader,
	}
}

func (i *Importer) Run(ctx context.Context, job *model.ImportJob) (model.ImportStats, error) {
	if err := job.Validate(); err != nil {
		return model.ImportStats{}, err
	}

	var loader Loader
	switch job.Mode {
	case model.ImportModeCopy:
		loader = i.copyLoader
	case model.ImportModeUpsert:
		loader = i.upsertLoader
	default:
		return model.ImportStats{}, fmt.Errorf("no loader for mode %q", job.Mode)
	}

	filter := PrefixFilter(job.FirstNamePrefix, job.LastNamePrefix)

	stats, err := loader.Load(ctx, job.Path, filter)
	if err != nil {
		prom.IncCounterVec(prom.SystemImports, prom.MetricImportFailures, string(job.Mode))
		return stats, err
	}

	prom.AddCounterVec(prom.SystemImports, prom.MetricImportRows, float64(stats.RowsLoaded), string(job.Mode))
	prom.AddHistogramVec(prom.SystemImports, prom.MetricImportDuration, stats.Duration.Seconds(), string(job.Mode))

	return stats, nil
}
