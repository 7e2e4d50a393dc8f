package rest

import (
	"fmt"
	"sync"
	"time"
)

// RateLimitMetrics accumulates rate-limit counters across all logical requests
// made by a client session. The client records into it on every 429; tests
// read from it at any time. All methods are safe for concurrent use.
//
// Counters only ever increase. There is no reset: tests that need isolated
// measurements construct a fresh client/metrics pair instead.
type RateLimitMetrics struct {
	lock             sync.Mutex
	totalRateLimited int
	totalRetries     int
	totalBackoff     time.Duration
	maxBackoff       time.Duration
	timestamps       []time.Time
}

// NewRateLimitMetrics creates an empty collector.
func NewRateLimitMetrics() *RateLimitMetrics {
	return &RateLimitMetrics{}
}

// RecordRateLimit records one observed 429 response and the backoff that will
// be waited because of it (zero when the request terminated without waiting).
func (m *RateLimitMetrics) RecordRateLimit(backoff time.Duration) {
	m.lock.Lock()
	m.totalRateLimited++
	m.totalBackoff += backoff
	if backoff > m.maxBackoff {
		m.maxBackoff = backoff
	}
	m.timestamps = append(m.timestamps, time.Now())
	m.lock.Unlock()
}

// RecordRetry records one retry attempt issued because of a 429.
func (m *RateLimitMetrics) RecordRetry() {
	m.lock.Lock()
	m.totalRetries++
	m.lock.Unlock()
}

// TotalRateLimited returns the number of 429 responses observed.
func (m *RateLimitMetrics) TotalRateLimited() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.totalRateLimited
}

// TotalRetries returns the number of retry attempts issued.
func (m *RateLimitMetrics) TotalRetries() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.totalRetries
}

// TotalBackoff returns the sum of all backoff waits.
func (m *RateLimitMetrics) TotalBackoff() time.Duration {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.totalBackoff
}

// MaxBackoff returns the largest single backoff wait observed.
func (m *RateLimitMetrics) MaxBackoff() time.Duration {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.maxBackoff
}

// Timestamps returns a copy of the rate-limit event times, in order.
func (m *RateLimitMetrics) Timestamps() []time.Time {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]time.Time(nil), m.timestamps...)
}

// String renders the counters for debug output.
func (m *RateLimitMetrics) String() string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return fmt.Sprintf(
		"RateLimitMetrics(rate_limited=%d, total_retries=%d, total_backoff_seconds=%.2f, max_backoff_seconds=%.2f)",
		m.totalRateLimited, m.totalRetries,
		m.totalBackoff.Seconds(), m.maxBackoff.Seconds())
}
