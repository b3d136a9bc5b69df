package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nimasrn/customer-gateway/internal/config"
	"github.com/nimasrn/customer-gateway/internal/model"
	"github.com/nimasrn/customer-gateway/internal/queue"
	"github.com/nimasrn/customer-gateway/pkg/logger"
	"github.com/nimasrn/customer-gateway/pkg/redis"
	"github.com/nimasrn/customer-gateway/pkg/worker"
)

const ProcessingTimeout = time.Minute * 10
const HealthInterval = time.Second * 30
const ShutdownTimeout = time.Minute

// CustomersRevisionKey is bumped after every successful load; the query
// cache keys on it, so bumping invalidates cached reads.
const CustomersRevisionKey = "customers:rev"

type ImportRunRepository interface {
	Create(ctx context.Context, run *model.ImportRun) (*model.ImportRun, error)
	Finish(ctx context.Context, id int64, status model.ImportRunStatus, stats model.ImportStats, runErr string) error
}

// Service consumes import jobs from the queue and executes them through
// the worker pool, one run record per job.
type Service struct {
	adapter     redis.RedisAdapter
	queues      []*queue.Queue
	importer    *Importer
	runs        ImportRunRepository
	idempotency *IdempotencyService
	metrics     *ServiceMetrics
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	worker      *worker.WorkerManager
}

func NewService(adapter redis.RedisAdapter, imp *Importer, runs ImportRunRepository, idempotency *IdempotencyService) (*Service, error) {
	ctx, cancel := context.WithCancel(context.Background())

	workers := config.Get().ImportWorkers
	if workers <= 0 {
		workers = 4
	}

	return &Service{
		adapter:     adapter,
		queues:      make([]*queue.Queue, 0),
		importer:    imp,
		runs:        runs,
		idempotency: idempotency,
		metrics:     NewServiceMetrics(),
		ctx:         ctx,
		cancel:      cancel,
		worker:      worker.NewWorkerManager(1_000, workers, nil),
	}, nil
}

// Start starts the import service
func (s *Service) Start() error {
	logger.Info("starting import service...")

	s.worker.SetWorker(s.workerHandler)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.worker.Start(); err != nil {
			logger.Error("worker manager stopped", "error", err)
		}
	}()

	queueConfig := queue.QueueConfig{
		Name:              config.Get().QueueName,
		ConsumerGroup:     config.Get().QueueConsumerGroup,
		ConsumerName:      config.Get().QueueConsumerName,
		MaxRetries:        config.Get().QueueMaxRetries,
		VisibilityTimeout: config.Get().QueueVisibilityTimeout,
		PollInterval:      config.Get().QueuePollInterval,
		BatchSize:         config.Get().QueueBatchSize,
		MaxLen:            config.Get().QueueMaxLen,
		EnableDLQ:         config.Get().QueueEnableDLQ,
	}

	q, err := queue.NewQueue(s.adapter, queueConfig)
	if err != nil {
		return fmt.Errorf("failed to create queue: %w", err)
	}

	if err := q.Consume(s.messageHandler); err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}
	s.queues = append(s.queues, q)

	s.wg.Add(2)
	go s.metricsReporter()
	go s.healthChecker()

	logger.Info("import service started", "consumers", len(s.queues))
	return nil
}

func (s *Service) metricsReporter() {
	defer s.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reportMetrics()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) reportMetrics() {
	stats := s.metrics.GetStats()

	logger.Info("import metrics",
		"total_jobs", stats["total_jobs"],
		"total_failed", stats["total_failed"],
		"total_rows", stats["total_rows"],
		"rows_per_second", stats["rows_per_second"],
		"avg_duration_ms", stats["avg_duration_ms"],
		"uptime_seconds", stats["uptime_seconds"])

	for i, q := range s.queues {
		if qStats, err := q.GetStats(); err == nil {
			logger.Info("queue stats", "queue", i, "total", qStats.TotalMessages, "pending", qStats.PendingMessages)
		}
	}
}

func (s *Service) healthChecker() {
	defer s.wg.Done()

	ticker := time.NewTicker(HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.performHealthCheck()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) performHealthCheck() {
	if err := s.adapter.Client().Ping(context.Background()).Err(); err != nil {
		logger.Error("health check failed: redis connection error", "error", err)
		return
	}

	for i, q := range s.queues {
		stats, err := q.GetStats()
		if err != nil {
			logger.Warn("health check warning: queue stats unavailable", "queue", i, "error", err)
			continue
		}

		if stats.PendingMessages > 1000 {
			logger.Warn("health check warning: queue has high lag", "queue", i, "pending_messages", stats.PendingMessages)
		}
	}
}

// Stop gracefully stops the service
func (s *Service) Stop() {
	logger.Info("shutting down import service...")

	s.cancel()

	timeout := ShutdownTimeout
	stopChan := make(chan bool, len(s.queues))

	for i, q := range s.queues {
		go func(index int, queue *queue.Queue) {
			if err := queue.Stop(timeout); err != nil {
				logger.Error("error stopping queue", "queue", index, "error", err)
			}
			stopChan <- true
		}(i, q)
	}

	for range s.queues {
		select {
		case <-stopChan:
		case <-time.After(timeout + 5*time.Second):
			logger.Warn("timeout waiting for queues to stop")
		}
	}

	s.worker.Exit()
	s.wg.Wait()
	s.reportMetrics()

	logger.Info("import service stopped")
}

type jobResult struct {
	msg        *queue.Message
	resultChan chan error
	ctx        context.Context
}

// messageHandler receives messages from the queue and enqueues them onto
// the worker pool, blocking until the worker reports back.
func (s *Service) messageHandler(ctx context.Context, msg *queue.Message) error {
	resultChan := make(chan error, 1)

	msgCtx, cancel := context.WithTimeout(ctx, ProcessingTimeout+time.Second)
	defer cancel()

	job := &jobResult{
		msg:        msg,
		resultChan: resultChan,
		ctx:        msgCtx,
	}

	s.worker.Enqueue(job)

	select {
	case err := <-resultChan:
		return err
	case <-msgCtx.Done():
		return fmt.Errorf("timeout waiting for worker to process import job: %w", msgCtx.Err())
	}
}

// workerHandler runs import jobs in the worker pool
func (s *Service) workerHandler(workerIndex int, job interface{}) {
	jobRes, ok := job.(*jobResult)
	if !ok {
		logger.Error("invalid job type in worker", "worker", workerIndex)
		return
	}

	select {
	case <-jobRes.ctx.Done():
		logger.Warn("job context cancelled before processing started", "worker", workerIndex)
		return
	default:
	}

	resultErr := s.process(jobRes.ctx, jobRes.msg)

	// Non-blocking send: if messageHandler timed out there is no receiver.
	select {
	case jobRes.resultChan <- resultErr:
	case <-jobRes.ctx.Done():
		logger.Warn("context cancelled while sending result", "worker", workerIndex)
	}
}

// process executes one import job end to end: idempotency lock, run
// record, load, terminal state.
func (s *Service) process(ctx context.Context, msg *queue.Message) error {
	var job model.ImportJob
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		logger.Error("failed to unmarshal import job", "error", err)
		s.metrics.RecordFailure()
		return err // move to DLQ after retries
	}

	ic, err := s.idempotency.AcquireImportLock(ctx, job.ID)
	if err != nil {
		if errors.Is(err, ErrAlreadyImported) {
			// already ran to completion - ACK to drop from the queue
			return nil
		}
		if errors.Is(err, ErrLockAcquireFailed) {
			// another consumer is on it - NACK, retried later
			return err
		}
		if errors.Is(err, ErrMaxRetriesExceeded) {
			logger.Error("giving up on import job", "job_id", job.ID)
			return nil // ACK - retrying won't help
		}
		return err
	}

	run, err := s.runs.Create(ctx, &model.ImportRun{
		JobID:     job.ID,
		Path:      job.Path,
		Mode:      job.Mode,
		Status:    model.ImportRunStatusRunning,
		StartedAt: time.Now(),
	})
	if err != nil {
		_ = s.idempotency.ReleaseLock(ctx, ic)
		return fmt.Errorf("recording import run: %w", err)
	}

	start := time.Now()
	stats, runErr := s.importer.Run(ctx, &job)
	if runErr != nil {
		s.metrics.RecordFailure()
		_ = s.runs.Finish(ctx, run.ID, model.ImportRunStatusFailed, stats, runErr.Error())
		_ = s.idempotency.MarkFailure(ctx, ic, runErr)
		logger.Error("import job failed", "job_id", job.ID, "path", job.Path, "error", runErr)
		return runErr
	}

	if err := s.runs.Finish(ctx, run.ID, model.ImportRunStatusCompleted, stats, ""); err != nil {
		logger.Warn("failed to finalize import run", "run_id", run.ID, "error", err)
	}
	if err := s.idempotency.MarkSuccess(ctx, ic); err != nil {
		logger.Warn("failed to mark job completed", "job_id", job.ID, "error", err)
	}

	// cached reads are stale now
	if _, err := s.adapter.Incr(CustomersRevisionKey); err != nil {
		logger.Warn("failed to bump customers revision", "error", err)
	}

	s.metrics.RecordSuccess(stats.RowsLoaded, time.Since(start))
	return nil
}
