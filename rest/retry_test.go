package rest

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noJitterPolicy() RetryPolicy {
	p := DefaultRetryPolicy()
	p.Jitter = false
	return p
}

func TestRetryPolicyValidate(t *testing.T) {
	require.NoError(t, DefaultRetryPolicy().Validate())

	t.Run("negative MaxRetries", func(t *testing.T) {
		p := DefaultRetryPolicy()
		p.MaxRetries = -1
		assert.Error(t, p.Validate())
	})

	t.Run("negative backoffs", func(t *testing.T) {
		p := DefaultRetryPolicy()
		p.InitialBackoff = -time.Second
		assert.Error(t, p.Validate())

		p = DefaultRetryPolicy()
		p.MaxBackoff = -time.Second
		assert.Error(t, p.Validate())
	})

	t.Run("multiplier below one", func(t *testing.T) {
		p := DefaultRetryPolicy()
		p.BackoffMultiplier = 0.5
		assert.Error(t, p.Validate())
	})

	t.Run("breaker threshold below one", func(t *testing.T) {
		p := DefaultRetryPolicy()
		p.CircuitBreakerThreshold = 0
		assert.Error(t, p.Validate())
	})
}

func TestComputeBackoffExponentialGrowth(t *testing.T) {
	p := noJitterPolicy()

	assert.Equal(t, time.Second, p.ComputeBackoff(0, 0, false))
	assert.Equal(t, 2*time.Second, p.ComputeBackoff(1, 0, false))
	assert.Equal(t, 4*time.Second, p.ComputeBackoff(2, 0, false))
	assert.Equal(t, 8*time.Second, p.ComputeBackoff(3, 0, false))
}

func TestComputeBackoffCapsAtCeiling(t *testing.T) {
	p := noJitterPolicy()

	// 2^5 = 32s would exceed the 30s ceiling
	assert.Equal(t, p.MaxBackoff, p.ComputeBackoff(5, 0, false))
	assert.Equal(t, p.MaxBackoff, p.ComputeBackoff(100, 0, false))
	// large exponents must saturate, not overflow or go negative
	assert.Equal(t, p.MaxBackoff, p.ComputeBackoff(100000, 0, false))
}

func TestComputeBackoffHonorsRetryAfterHint(t *testing.T) {
	p := noJitterPolicy()

	t.Run("hint overrides the exponential formula", func(t *testing.T) {
		got := p.ComputeBackoff(0, 7*time.Second, true)
		assert.Equal(t, 7*time.Second, got)
	})

	t.Run("hint is capped at the ceiling", func(t *testing.T) {
		got := p.ComputeBackoff(0, 99999*time.Second, true)
		assert.Equal(t, p.MaxBackoff, got)
	})

	t.Run("zero hint means an immediate retry", func(t *testing.T) {
		assert.Equal(t, time.Duration(0), p.ComputeBackoff(0, 0, true))
	})
}

func TestComputeBackoffJitter(t *testing.T) {
	p := DefaultRetryPolicy()
	p.InitialBackoff = 10 * time.Second

	const samples = 20
	low := 10 * time.Second * 8 / 10
	high := 10 * time.Second * 12 / 10
	distinct := make(map[time.Duration]bool)
	for i := 0; i < samples; i++ {
		got := p.ComputeBackoff(0, 0, false)
		assert.GreaterOrEqual(t, got, low)
		assert.LessOrEqual(t, got, high)
		distinct[got] = true
	}
	// 20 draws from a continuous range collapsing to one value would mean the
	// perturbation is not being applied
	assert.Greater(t, len(distinct), 1)
}

func TestComputeBackoffNeverNegative(t *testing.T) {
	p := noJitterPolicy()
	p.InitialBackoff = 0
	assert.Equal(t, time.Duration(0), p.ComputeBackoff(0, 0, false))
	assert.GreaterOrEqual(t, p.ComputeBackoff(50, 0, false), time.Duration(0))
}

func TestParseRetryAfterDeltaSeconds(t *testing.T) {
	for _, test := range []struct {
		input    string
		expected time.Duration
		ok       bool
	}{
		{"120", 120 * time.Second, true},
		{"0", 0, true},
		{"1.5", 1500 * time.Millisecond, true},
		{"  30  ", 30 * time.Second, true},
		{"", 0, false},
		{"-5", 0, false},
		{"garbage", 0, false},
		{"Inf", 0, false},
		{"NaN", 0, false},
	} {
		t.Run(fmt.Sprintf("%q", test.input), func(t *testing.T) {
			got, ok := ParseRetryAfter(test.input)
			assert.Equal(t, test.ok, ok)
			assert.Equal(t, test.expected, got)
		})
	}
}

func TestParseRetryAfterHTTPDate(t *testing.T) {
	t.Run("future date yields the remaining wait", func(t *testing.T) {
		target := time.Now().Add(90 * time.Second).UTC()
		got, ok := ParseRetryAfter(target.Format(http.TimeFormat))
		require.True(t, ok)
		assert.Greater(t, got, 80*time.Second)
		assert.LessOrEqual(t, got, 90*time.Second)
	})

	t.Run("past date floors at zero", func(t *testing.T) {
		target := time.Now().Add(-time.Hour).UTC()
		got, ok := ParseRetryAfter(target.Format(http.TimeFormat))
		require.True(t, ok)
		assert.Equal(t, time.Duration(0), got)
	})

	t.Run("malformed date is absent", func(t *testing.T) {
		_, ok := ParseRetryAfter("Wed, 99 Foo 2026")
		assert.False(t, ok)
	})
}
