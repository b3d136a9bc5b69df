package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/customer-gateway/internal/model"
	"github.com/nimasrn/customer-gateway/pkg/logger"
)

var (
	ErrEmptyPath   = errors.New("import path cannot be empty")
	ErrInvalidMode = errors.New("unknown import mode")
)

// ImportQueue is the publishing side of the import queue.
type ImportQueue interface {
	PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error)
}

type ImportRunRepository interface {
	List(ctx context.Context, f model.ImportRunFilter) ([]*model.ImportRun, int64, error)
	Get(ctx context.Context, id int64) (*model.ImportRun, error)
}

type ImportService struct {
	queue ImportQueue
	runs  ImportRunRepository
}

func NewImportService(queue ImportQueue, runs ImportRunRepository) *ImportService {
	return &ImportService{
		queue: queue,
		runs:  runs,
	}
}

type ImportRequest struct {
	Path            string           `json:"path"`
	Mode            model.ImportMode `json:"mode"`
	FirstNamePrefix string           `json:"first_name_prefix"`
	LastNamePrefix  string           `json:"last_name_prefix"`
}

// Submit validates the request and publishes an import job. The CSV path
// is resolved on the importer host, so existence is not checked here.
func (s *ImportService) Submit(ctx context.Context, req ImportRequest) (*model.ImportJob, error) {
	if req.Path == "" {
		return nil, ErrEmptyPath
	}

	mode := req.Mode
	if mode == "" {
		mode = model.ImportModeCopy
	}
	switch mode {
	case model.ImportModeCopy, model.ImportModeUpsert:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
	}

	job := &model.ImportJob{
		ID:              uuid.New().String(),
		Path:            req.Path,
		Mode:            mode,
		FirstNamePrefix: req.FirstNamePrefix,
		LastNamePrefix:  req.LastNamePrefix,
		RequestedAt:     time.Now(),
	}

	msgID, err := s.queue.PublishJSON(ctx, job, map[string]string{"job_id": job.ID})
	if err != nil {
		return nil, fmt.Errorf("publishing import job: %w", err)
	}

	logger.Info("import job submitted", "job_id", job.ID, "queue_msg_id", msgID, "path", job.Path, "mode", job.Mode)
	return job, nil
}

func (s *ImportService) ListRuns(ctx context.Context, f model.ImportRunFilter) ([]*model.ImportRun, int64, error) {
	return s.runs.List(ctx, f)
}

func (s *ImportService) GetRun(ctx context.Context, id int64) (*model.ImportRun, error) {
	return s.runs.Get(ctx, id)
}
