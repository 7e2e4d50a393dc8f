package rest

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsAccumulation(t *testing.T) {
	m := NewRateLimitMetrics()
	assert.Equal(t, 0, m.TotalRateLimited())
	assert.Equal(t, 0, m.TotalRetries())
	assert.Equal(t, time.Duration(0), m.TotalBackoff())
	assert.Equal(t, time.Duration(0), m.MaxBackoff())
	assert.Len(t, m.Timestamps(), 0)

	m.RecordRateLimit(2 * time.Second)
	m.RecordRetry()
	m.RecordRateLimit(5 * time.Second)
	m.RecordRetry()
	m.RecordRateLimit(0) // terminal 429, no wait

	assert.Equal(t, 3, m.TotalRateLimited())
	assert.Equal(t, 2, m.TotalRetries())
	assert.Equal(t, 7*time.Second, m.TotalBackoff())
	assert.Equal(t, 5*time.Second, m.MaxBackoff())
	assert.Len(t, m.Timestamps(), 3)
}

func TestMetricsMaxTracksLargestSingleWait(t *testing.T) {
	m := NewRateLimitMetrics()
	m.RecordRateLimit(8 * time.Second)
	m.RecordRateLimit(3 * time.Second)
	assert.Equal(t, 8*time.Second, m.MaxBackoff())
}

func TestMetricsTimestampsAreCopied(t *testing.T) {
	m := NewRateLimitMetrics()
	m.RecordRateLimit(time.Second)
	first := m.Timestamps()
	first[0] = time.Time{}
	assert.False(t, m.Timestamps()[0].IsZero())
}

func TestMetricsString(t *testing.T) {
	m := NewRateLimitMetrics()
	m.RecordRateLimit(1500 * time.Millisecond)
	m.RecordRetry()
	assert.Equal(t,
		"RateLimitMetrics(rate_limited=1, total_retries=1, total_backoff_seconds=1.50, max_backoff_seconds=1.50)",
		m.String())
}

func TestMetricsConcurrentRecording(t *testing.T) {
	m := NewRateLimitMetrics()
	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			m.RecordRateLimit(time.Second)
			m.RecordRetry()
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, m.TotalRateLimited())
	assert.Equal(t, workers, m.TotalRetries())
	assert.Equal(t, workers*int(time.Second), int(m.TotalBackoff()))
	assert.Len(t, m.Timestamps(), workers)
}
