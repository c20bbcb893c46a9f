package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"creator-trips/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(max int) *RetryConfig {
	return &RetryConfig{MaxRetries: max, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"write: broken pipe", true},
		{"rpc error: code = NotFound desc = job not found", false},
		{"permission denied", false},
	}
	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(errors.New(tt.err)))
		})
	}
}

func TestBackoff(t *testing.T) {
	rc := &RetryConfig{BaseDelay: time.Second, MaxDelay: 10 * time.Second}
	assert.Equal(t, time.Second, Backoff(rc, 0))
	assert.Equal(t, 4*time.Second, Backoff(rc, 2))
	assert.Equal(t, 10*time.Second, Backoff(rc, 5))
	assert.Equal(t, 10*time.Second, Backoff(rc, 70), "overflow is capped")
}

func TestRetry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		var retries []int
		err := Retry(context.Background(), fastRetry(5), func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		}, func(attempt int, _ time.Duration, _ error) {
			retries = append(retries, attempt)
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []int{1, 2}, retries)
	})

	t.Run("permanent error stops immediately", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), fastRetry(5), func(context.Context) error {
			calls++
			return errors.New("permission denied")
		}, nil)
		assert.EqualError(t, err, "permission denied")
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), fastRetry(2), func(context.Context) error {
			calls++
			return errors.New("unavailable")
		}, nil)
		assert.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		rc := &RetryConfig{MaxRetries: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}
		err := Retry(ctx, rc, func(context.Context) error {
			cancel()
			return errors.New("timeout")
		}, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestConfigFrom(t *testing.T) {
	cc := ConfigFrom(config.CamundaConfig{BrokerAddress: "zeebe:26500", Timeout: 2500})
	assert.Equal(t, "zeebe:26500", cc.GatewayAddress)
	assert.Equal(t, 2500*time.Millisecond, cc.ConnectionTimeout)
	assert.True(t, cc.UsePlaintextConnection)

	assert.Equal(t, 10*time.Second, ConfigFrom(config.CamundaConfig{}).ConnectionTimeout)
}

func TestJobTimeout(t *testing.T) {
	assert.Equal(t, 35*time.Second, jobTimeout(config.WorkerConfig{}))
	assert.Equal(t, 20*time.Second, jobTimeout(config.WorkerConfig{Timeout: 15000}))
}
