package ratelimit

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

// LimitedChatModel 对聊天模型的调用进行限流和重试的代理
type LimitedChatModel struct {
	original    model.ToolCallingChatModel
	rateLimiter *TokenBucket
}

var _ model.ToolCallingChatModel = (*LimitedChatModel)(nil)

// NewLimitedChatModel 创建一个新的限流模型代理
func NewLimitedChatModel(original model.ToolCallingChatModel, qpm int) *LimitedChatModel {
	return &LimitedChatModel{
		original:    original,
		rateLimiter: NewTokenBucket(qpm, qpm/2), // 容量设为QPM的一半，允许一定的突发流量
	}
}

// WithRetryPolicy 设置重试策略
func (rl *LimitedChatModel) WithRetryPolicy(waitTime time.Duration, maxRetries int) *LimitedChatModel {
	rl.rateLimiter.WithRetryPolicy(waitTime, maxRetries)
	return rl
}

// WithLogger 设置重试日志
func (rl *LimitedChatModel) WithLogger(logger zerolog.Logger) *LimitedChatModel {
	rl.rateLimiter.WithLogger(logger)
	return rl
}

// Generate 代理Generate方法，增加限流和重试逻辑
func (rl *LimitedChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	var response *schema.Message

	err := rl.rateLimiter.RetryWithBackoff(ctx, func() error {
		var genErr error
		response, genErr = rl.original.Generate(ctx, messages, options...)
		return genErr
	})

	return response, err
}

// Stream 代理Stream方法，只对建立流的调用做限流和重试
func (rl *LimitedChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	var stream *schema.StreamReader[*schema.Message]

	err := rl.rateLimiter.RetryWithBackoff(ctx, func() error {
		var streamErr error
		stream, streamErr = rl.original.Stream(ctx, messages, options...)
		return streamErr
	})

	return stream, err
}

// WithTools 代理WithTools方法，新代理与原代理共享同一个令牌桶
func (rl *LimitedChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	newModel, err := rl.original.WithTools(tools)
	if err != nil {
		return nil, err
	}

	return &LimitedChatModel{
		original:    newModel,
		rateLimiter: rl.rateLimiter,
	}, nil
}

// NewModelWithRateLimit 根据模型QPM配置创建带限流的模型
// 配置中存在模型对应的限额时取其90%，否则使用customQPM，两者都没有时使用DefaultQPM
func NewModelWithRateLimit(original model.ToolCallingChatModel, modelName string, limits map[string]int, customQPM int, maxRetries int, retryWaitTime time.Duration, logger zerolog.Logger) *LimitedChatModel {
	qpm := customQPM

	if limits != nil && modelName != "" {
		if modelQPM, ok := limits[modelName]; ok && modelQPM > 0 {
			qpm = int(float64(modelQPM) * 0.9)
		}
	}

	if qpm <= 0 {
		qpm = DefaultQPM
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	return NewLimitedChatModel(original, qpm).
		WithRetryPolicy(retryWaitTime, maxRetries).
		WithLogger(logger.With().Str("model", modelName).Int("qpm", qpm).Logger())
}
