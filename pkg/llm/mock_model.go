package llm

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ErrMockExhausted 顺序响应已全部用完
var ErrMockExhausted = errors.New("mock model has run out of sequential responses")

// MockResponse 定义了 MockChatModel 的单次预期响应
type MockResponse struct {
	Content string
	Error   error
}

// MockChatModel 是用于测试的模型实现，可并发调用
type MockChatModel struct {
	mu sync.Mutex

	// 固定响应
	expectedResponse string
	expectedError    error

	// 顺序响应
	sequential []MockResponse
	index      int
	isSeq      bool

	calls    int
	received [][]*schema.Message
}

// NewMockChatModel 创建一个返回固定响应的模型
func NewMockChatModel(expectedResponse string, expectedError error) *MockChatModel {
	return &MockChatModel{
		expectedResponse: expectedResponse,
		expectedError:    expectedError,
	}
}

// NewMockChatModelSequential 创建一个按顺序返回不同响应的模型
func NewMockChatModelSequential(responses ...MockResponse) *MockChatModel {
	return &MockChatModel{
		sequential: responses,
		isSeq:      true,
	}
}

// Generate 按配置返回响应并记录收到的消息
func (m *MockChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	snapshot := make([]*schema.Message, len(input))
	copy(snapshot, input)
	m.received = append(m.received, snapshot)

	if m.isSeq {
		if m.index >= len(m.sequential) {
			return nil, ErrMockExhausted
		}
		resp := m.sequential[m.index]
		m.index++
		if resp.Error != nil {
			return nil, resp.Error
		}
		return schema.AssistantMessage(resp.Content, nil), nil
	}

	if m.expectedError != nil {
		return nil, m.expectedError
	}
	return schema.AssistantMessage(m.expectedResponse, nil), nil
}

// Stream 以单个分片返回 Generate 的结果
func (m *MockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// BindTools 不做任何处理
func (m *MockChatModel) BindTools(tools []*schema.ToolInfo) error {
	return nil
}

// WithTools 返回自身
func (m *MockChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

// Calls 返回 Generate 被调用的次数
func (m *MockChatModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ReceivedMessages 返回每次调用收到的消息
func (m *MockChatModel) ReceivedMessages() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]*schema.Message, len(m.received))
	copy(out, m.received)
	return out
}

var (
	_ model.ChatModel            = (*MockChatModel)(nil)
	_ model.ToolCallingChatModel = (*MockChatModel)(nil)
)
