package core

// ingest_limiter.go bounds how many ingestions run at once.
//
// Every ingestion holds one unit of a weighted semaphore for its whole
// lifetime (decode plus inserts). Callers that cannot get a unit within
// maxWait fail with ErrTooManyUploads. WaitForDrain takes every unit, which
// only succeeds once all running ingestions have released theirs.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyUploads is returned when every ingestion slot stays occupied for
// longer than the limiter's wait time. Clients should retry after a short delay.
var ErrTooManyUploads = errors.New("too many concurrent uploads, please try again later")

// DefaultMaxConcurrentIngests is the default limit for parallel ingestions.
const DefaultMaxConcurrentIngests = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// IngestLimiter controls concurrent ingestion.
type IngestLimiter struct {
	sem     *semaphore.Weighted
	size    int64
	maxWait time.Duration
	active  atomic.Int64
}

// NewIngestLimiter creates a limiter admitting at most maxConcurrent
// ingestions. Non-positive arguments select the defaults.
func NewIngestLimiter(maxConcurrent int, maxWait time.Duration) *IngestLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentIngests
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &IngestLimiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		size:    int64(maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits up to the limiter's wait time for a slot. It returns
// ErrTooManyUploads on timeout and ctx's error if ctx ends first.
// Every successful Acquire must be paired with Release.
func (l *IngestLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyUploads
	}
	l.active.Add(1)
	return nil
}

// Release returns a slot taken by Acquire.
func (l *IngestLimiter) Release() {
	l.active.Add(-1)
	l.sem.Release(1)
}

// ActiveCount returns the number of ingestions holding a slot.
func (l *IngestLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// MaxConcurrent returns the slot count.
func (l *IngestLimiter) MaxConcurrent() int {
	return int(l.size)
}

// Available returns the number of free slots.
func (l *IngestLimiter) Available() int {
	return int(l.size) - l.ActiveCount()
}

// WaitForDrain blocks until no ingestion holds a slot, or ctx ends.
// Used on shutdown so in-flight ingestions finish before the store closes.
func (l *IngestLimiter) WaitForDrain(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, l.size); err != nil {
		return err
	}
	l.sem.Release(l.size)
	return nil
}

// IngestLimiterStatus is a snapshot of the limiter's state.
type IngestLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for the health endpoint.
func (l *IngestLimiter) Status() IngestLimiterStatus {
	active := l.ActiveCount()
	return IngestLimiterStatus{
		Active:        active,
		Available:     int(l.size) - active,
		MaxConcurrent: int(l.size),
	}
}
