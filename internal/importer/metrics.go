package importer

import (
	"sync/atomic"
	"time"
)

type ServiceMetrics struct {
	totalJobs       int64
	totalFailed     int64
	totalRowsLoaded int64
	totalDurationNs int64
	lastResetNs     int64
}

func NewServiceMetrics() *ServiceMetrics {
	return &ServiceMetrics{
		lastResetNs: time.Now().UnixNano(),
	}
}

func (m *ServiceMetrics) RecordSuccess(rowsLoaded int64, duration time.Duration) {
	atomic.AddInt64(&m.totalJobs, 1)
	atomic.AddInt64(&m.totalRowsLoaded, rowsLoaded)
	atomic.AddInt64(&m.totalDurationNs, int64(duration))
}

func (m *ServiceMetrics) RecordFailure() {
	atomic.AddInt64(&m.totalFailed, 1)
}

func (m *ServiceMetrics) GetStats() map[string]interface{} {
	jobs := atomic.LoadInt64(&m.totalJobs)
	failed := atomic.LoadInt64(&m.totalFailed)
	rows := atomic.LoadInt64(&m.totalRowsLoaded)
	durationNs := atomic.LoadInt64(&m.totalDurationNs)
	lastResetNs := atomic.LoadInt64(&m.lastResetNs)

	elapsed := time.Since(time.Unix(0, lastResetNs)).Seconds()

	rowRate := 0.0
	if elapsed > 0 {
		rowRate = float64(rows) / elapsed
	}

	avgDuration := time.Duration(0)
	if jobs > 0 {
		avgDuration = time.Duration(durationNs / jobs)
	}

	return map[string]interface{}{
		"total_jobs":      jobs,
		"total_failed":    failed,
		"total_rows":      rows,
		"rows_per_second": rowRate,
		"avg_duration_ms": avgDuration.Milliseconds(),
		"uptime_seconds":  elapsed,
	}
}

func (m *ServiceMetrics) Reset() {
	atomic.StoreInt64(&m.totalJobs, 0)
	atomic.StoreInt64(&m.totalFailed, 0)
	atomic.StoreInt64(&m.totalRowsLoaded, 0)
	atomic.StoreInt64(&m.totalDurationNs, 0)
	atomic.StoreInt64(&m.lastResetNs, time.Now().UnixNano())
}
