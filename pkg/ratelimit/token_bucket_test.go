package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"resume-tailor/pkg/llm"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketAllow(t *testing.T) {
	tb := NewTokenBucket(60, 2)
	fixed := time.Now()
	tb.now = func() time.Time { return fixed }
	tb.lastRefillTime = fixed

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "容量耗尽后应拒绝")

	// 60 QPM 即每秒一个令牌
	fixed = fixed.Add(1500 * time.Millisecond)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestTokenBucketRefillCapped(t *testing.T) {
	tb := NewTokenBucket(600, 3)
	fixed := time.Now()
	tb.now = func() time.Time { return fixed }
	tb.lastRefillTime = fixed

	fixed = fixed.Add(time.Hour)
	assert.InDelta(t, 3.0, tb.Tokens(), 1e-9)
}

func TestTokenBucketDefaults(t *testing.T) {
	tb := NewTokenBucket(0, 0)
	assert.InDelta(t, float64(DefaultQPM)/60.0, tb.rate, 1e-9)
	assert.InDelta(t, float64(DefaultQPM/2), tb.capacity, 1e-9)
}

func TestTokenBucketWaitCancelled(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryWithBackoff(t *testing.T) {
	tb := NewTokenBucket(6000, 10).WithRetryPolicy(time.Millisecond, 3)

	attempts := 0
	err := tb.RetryWithBackoff(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("API 请求失败，状态 429 Too Many Requests")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	attempts = 0
	permanent := errors.New("invalid api key")
	err = tb.RetryWithBackoff(context.Background(), func() error {
		attempts++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts, "不可重试的错误只执行一次")
}

func TestRetryWithBackoffGivesUp(t *testing.T) {
	tb := NewTokenBucket(6000, 10).WithRetryPolicy(time.Millisecond, 2)
	attempts := 0
	err := tb.RetryWithBackoff(context.Background(), func() error {
		attempts++
		return fmt.Errorf("upstream: %w", context.DeadlineExceeded)
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 3, attempts)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(errors.New("read: connection reset by peer")))
	assert.True(t, IsRetryable(errors.New("服务器繁忙，请稍后再试")))
	assert.False(t, IsRetryable(errors.New("bad request")))
}

func TestLimitedChatModelRetries(t *testing.T) {
	mock := llm.NewMockChatModelSequential(
		llm.MockResponse{Error: errors.New("503 service unavailable")},
		llm.MockResponse{Content: "tailored"},
	)
	limited := NewLimitedChatModel(mock, 6000).WithRetryPolicy(time.Millisecond, 2)

	msg, err := limited.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "tailored", msg.Content)
	assert.Equal(t, 2, mock.Calls())

	bound, err := limited.WithTools(nil)
	require.NoError(t, err)
	lb, ok := bound.(*LimitedChatModel)
	require.True(t, ok)
	assert.Same(t, limited.rateLimiter, lb.rateLimiter, "绑定工具后共享同一个令牌桶")
}

func TestNewModelWithRateLimit(t *testing.T) {
	mock := llm.NewMockChatModel("ok", nil)
	limits := map[string]int{"qwen-plus": 1000}

	m := NewModelWithRateLimit(mock, "qwen-plus", limits, 10, 0, 0, zerolog.Nop())
	assert.InDelta(t, 900.0/60.0, m.rateLimiter.rate, 1e-9)
	assert.Equal(t, DefaultMaxRetries, m.rateLimiter.maxRetries)

	m = NewModelWithRateLimit(mock, "unknown", limits, 0, 1, time.Millisecond, zerolog.Nop())
	assert.InDelta(t, float64(DefaultQPM)/60.0, m.rateLimiter.rate, 1e-9)
	assert.Equal(t, 1, m.rateLimiter.maxRetries)
}
