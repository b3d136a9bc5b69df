package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/customer-gateway/pkg/logger"
	"github.com/nimasrn/customer-gateway/pkg/redis"
)

var (
	ErrAlreadyImported    = errors.New("import job already completed")
	ErrLockAcquireFailed  = errors.New("failed to acquire import lock")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
)

type IdempotencyConfig struct {
	LockTTL time.Duration

	ProcessedTTL time.Duration

	MaxRetries int

	RetryKeyPrefix string

	LockKeyPrefix string

	ProcessedKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:            10 * time.Minute,
		ProcessedTTL:       24 * time.Hour,
		MaxRetries:         3,
		RetryKeyPrefix:     "import:retry:",
		LockKeyPrefix:      "import:lock:",
		ProcessedKeyPrefix: "import:done:",
	}
}

// IdempotencyService guards import jobs against redelivery. A redelivered
// job that already ran to completion is skipped; a job currently being
// imported by another consumer is locked out.
type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(redisAdapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{
		redis:  redisAdapter,
		config: config,
	}
}

type ImportContext struct {
	JobID        string
	RetryCount   int
	IsRetry      bool
	lockAcquired bool
	service      *IdempotencyService
}

func (s *IdempotencyService) AcquireImportLock(ctx context.Context, jobID string) (*ImportContext, error) {
	// Step 1: check the long-term completed marker
	processedKey := s.config.ProcessedKeyPrefix + jobID
	exists, err := s.redis.Exist(processedKey)
	if err != nil {
		logger.Warn("failed to check completed status", "job_id", jobID, "error", err)
		// Continue even if the check fails - better to risk a duplicate
		// upsert than to block imports
	} else if exists > 0 {
		logger.Info("import job already completed, skipping", "job_id", jobID)
		return nil, ErrAlreadyImported
	}

	// Step 2: current retry count
	retryKey := s.config.RetryKeyPrefix + jobID
	retryCountBytes, err := s.redis.Get(retryKey)
	retryCount := 0
	if err == nil && len(retryCountBytes) > 0 {
		fmt.Sscanf(string(retryCountBytes), "%d", &retryCount)
	}

	if retryCount >= s.config.MaxRetries {
		logger.Error("max retries exceeded for import job", "job_id", jobID, "retry_count", retryCount)
		return nil, fmt.Errorf("%w: job_id=%s, retries=%d", ErrMaxRetriesExceeded, jobID, retryCount)
	}

	// Step 3: short-term lock against concurrent consumers
	lockKey := s.config.LockKeyPrefix + jobID
	lockValue := []byte(fmt.Sprintf("%d", time.Now().UnixNano()))

	acquired, err := s.redis.SetNX(lockKey, lockValue, s.config.LockTTL)
	if err != nil {
		logger.Error("failed to acquire lock", "job_id", jobID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}

	if !acquired {
		logger.Info("lock already held by another consumer", "job_id", jobID)
		return nil, ErrLockAcquireFailed
	}

	logger.Info("import lock acquired",
		"job_id", jobID,
		"retry_count", retryCount,
		"lock_ttl", s.config.LockTTL)

	return &ImportContext{
		JobID:        jobID,
		RetryCount:   retryCount,
		IsRetry:      retryCount > 0,
		lockAcquired: true,
		service:      s,
	}, nil
}

func (s *IdempotencyService) MarkSuccess(ctx context.Context, ic *ImportContext) error {
	jobID := ic.JobID

	processedKey := s.config.ProcessedKeyPrefix + jobID
	if err := s.redis.Set(processedKey, []byte("1"), s.config.ProcessedTTL); err != nil {
		logger.Error("failed to mark job as completed", "job_id", jobID, "error", err)
		return fmt.Errorf("failed to mark as completed: %w", err)
	}

	s.cleanup(ctx, ic)

	logger.Info("import job marked completed",
		"job_id", jobID,
		"retry_count", ic.RetryCount)

	return nil
}

func (s *IdempotencyService) MarkFailure(ctx context.Context, ic *ImportContext, reason error) error {
	jobID := ic.JobID

	retryKey := s.config.RetryKeyPrefix + jobID
	newRetryCount := ic.RetryCount + 1
	retryValue := []byte(fmt.Sprintf("%d", newRetryCount))

	// Keep the counter for longer to track across retries
	if err := s.redis.Set(retryKey, retryValue, s.config.ProcessedTTL); err != nil {
		logger.Error("failed to increment retry counter", "job_id", jobID, "error", err)
	}

	lockKey := s.config.LockKeyPrefix + jobID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("failed to remove lock", "job_id", jobID, "error", err)
	}

	logger.Warn("import job failed, will retry",
		"job_id", jobID,
		"retry_count", newRetryCount,
		"max_retries", s.config.MaxRetries,
		"reason", reason)

	return nil
}

func (s *IdempotencyService) ReleaseLock(ctx context.Context, ic *ImportContext) error {
	if ic == nil || !ic.lockAcquired {
		return nil
	}

	lockKey := s.config.LockKeyPrefix + ic.JobID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("failed to release lock", "job_id", ic.JobID, "error", err)
		return err
	}

	ic.lockAcquired = false
	logger.Debug("import lock released", "job_id", ic.JobID)
	return nil
}

func (s *IdempotencyService) cleanup(ctx context.Context, ic *ImportContext) {
	jobID := ic.JobID

	lockKey := s.config.LockKeyPrefix + jobID
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("failed to cleanup lock", "job_id", jobID, "error", err)
	}

	retryKey := s.config.RetryKeyPrefix + jobID
	if err := s.redis.Del(retryKey); err != nil {
		logger.Warn("failed to cleanup retry counter", "job_id", jobID, "error", err)
	}

	ic.lockAcquired = false
}

func (s *IdempotencyService) GetRetryCount(ctx context.Context, jobID string) (int, error) {
	retryKey := s.config.RetryKeyPrefix + jobID
	retryCountBytes, err := s.redis.Get(retryKey)
	if err != nil {
		if err == redis.NilError {
			return 0, nil
		}
		return 0, err
	}

	retryCount := 0
	fmt.Sscanf(string(retryCountBytes), "%d", &retryCount)
	return retryCount, nil
}

func (s *IdempotencyService) IsCompleted(ctx context.Context, jobID string) (bool, error) {
	processedKey := s.config.ProcessedKeyPrefix + jobID
	exists, err := s.redis.Exist(processedKey)
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
