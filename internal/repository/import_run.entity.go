package repository

import (
	"time"

	"github.com/nimasrn/customer-gateway/internal/model"
)

type ImportRunEntity struct {
	ID          int64      `db:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	JobID       string     `db:"job_id"       gorm:"column:job_id;not null;index"`
	Path        string     `db:"path"         gorm:"column:path;not null"`
	Mode        string     `db:"mode"         gorm:"column:mode;not null"`
	Status      string     `db:"status"       gorm:"column:status;not null"`
	RowsRead    int64      `db:"rows_read"    gorm:"column:rows_read;not null;default:0"`
	RowsLoaded  int64      `db:"rows_loaded"  gorm:"column:rows_loaded;not null;default:0"`
	RowsSkipped int64      `db:"rows_skipped" gorm:"column:rows_skipped;not null;default:0"`
	Error       string     `db:"error"        gorm:"column:error"`
	StartedAt   time.Time  `db:"started_at"   gorm:"column:started_at"`
	FinishedAt  *time.Time `db:"finished_at"  gorm:"column:finished_at"`
}

func (ImportRunEntity) TableName() string {
	return "import_runs"
}

func toImportRunEntity(m *model.ImportRun) *ImportRunEntity {
	if m == nil {
		return nil
	}
	return &ImportRunEntity{
		ID:          m.ID,
		JobID:       m.JobID,
		Path:        m.Path,
		Mode:        string(m.Mode),
		Status:      string(m.Status),
		RowsRead:    m.RowsRead,
		RowsLoaded:  m.RowsLoaded,
		RowsSkipped: m.RowsSkipped,
		Error:       m.Error,
		StartedAt:   m.StartedAt,
		FinishedAt:  m.FinishedAt,
	}
}

func toImportRunModel(e *ImportRunEntity) *model.ImportRun {
	if e == nil {
		return nil
	}
	return &model.ImportRun{
		ID:          e.ID,
		JobID:       e.JobID,
		Path:        e.Path,
		Mode:        model.ImportMode(e.Mode),
		Status:      model.ImportRunStatus(e.Status),
		RowsRead:    e.RowsRead,
		RowsLoaded:  e.RowsLoaded,
		RowsSkipped: e.RowsSkipped,
		Error:       e.Error,
		StartedAt:   e.StartedAt,
		FinishedAt:  e.FinishedAt,
	}
}

func toImportRunModels(entities []*ImportRunEntity) []*model.ImportRun {
	if entities == nil {
		return nil
	}
	models := make([]*model.ImportRun, len(entities))
	for i, e := range entities {
		models[i] = toImportRunModel(e)
	}
	return models
}
