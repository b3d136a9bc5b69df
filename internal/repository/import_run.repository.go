package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/customer-gateway/internal/model"
	"github.com/nimasrn/customer-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrImportRunNotFound is returned when an import run does not exist.
	ErrImportRunNotFound = errors.New("import run not found")
)

type ImportRunRepository struct {
	*pg.DB
}

func NewImportRunRepository(db *pg.DB) *ImportRunRepository {
	return &ImportRunRepository{
		db,
	}
}

func (r *ImportRunRepository) Create(ctx context.Context, run *model.ImportRun) (*model.ImportRun, error) {
	entity := toImportRunEntity(run)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toImportRunModel(entity), nil
}

// Finish records the terminal state of a run together with its row counts.
func (r *ImportRunRepository) Finish(ctx context.Context, id int64, status model.ImportRunStatus, stats model.ImportStats, runErr string) error {
	now := time.Now()
	result := r.Write(ctx).WithContext(ctx).
		Model(&ImportRunEntity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       string(status),
			"rows_read":    stats.RowsRead,
			"rows_loaded":  stats.RowsLoaded,
			"rows_skipped": stats.RowsSkipped,
			"error":        runErr,
			"finished_at":  &now,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrImportRunNotFound
	}
	return nil
}

func (r *ImportRunRepository) Get(ctx context.Context, id int64) (*model.ImportRun, error) {
	var entity ImportRunEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImportRunNotFound
		}
		return nil, err
	}

	return toImportRunModel(&entity), nil
}

func (r *ImportRunRepository) List(ctx context.Context, f model.ImportRunFilter) ([]*model.ImportRun, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&ImportRunEntity{})

	if f.JobID != nil && *f.JobID != "" {
		q = q.Where("job_id = ?", *f.JobID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "started_at"
	if f.Desc {
		order += " DESC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*ImportRunEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toImportRunModels(entities), total, nil
}
