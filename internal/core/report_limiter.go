package core

// report_limiter.go bounds how many reports are generated at once.
//
// Report generation walks the whole table, so a burst of requests could pin
// every CPU. The limiter is a semaphore; requests that cannot get a slot
// within maxWait fail with ErrTooManyReports.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyReports is returned when no report slot frees up in time.
var ErrTooManyReports = errors.New("too many reports in progress")

// DefaultMaxConcurrentReports is the default number of parallel reports.
const DefaultMaxConcurrentReports = 4

// DefaultReportWait is how long to wait for a slot before rejecting.
const DefaultReportWait = 5 * time.Second

// ReportLimiter controls concurrent report generation.
type ReportLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewReportLimiter allows at most maxConcurrent simultaneous reports.
func NewReportLimiter(maxConcurrent int, maxWait time.Duration) *ReportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentReports
	}
	if maxWait <= 0 {
		maxWait = DefaultReportWait
	}
	return &ReportLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire waits for a slot. The caller must Release after a nil return.
func (l *ReportLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyReports
	}
}

// TryAcquire takes a slot without blocking.
func (l *ReportLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *ReportLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.semaphore
}

// ReportLimiterStatus is a snapshot of limiter usage.
type ReportLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"maxConcurrent"`
}

// Status returns the current usage.
func (l *ReportLimiter) Status() ReportLimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return ReportLimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}

// WaitForDrain blocks until no report is running or ctx is done.
func (l *ReportLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		l.mu.RLock()
		active := l.active
		l.mu.RUnlock()
		if active == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
