package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

const (
	// DefaultAPIURL OpenAI 兼容的 DashScope 接口地址
	DefaultAPIURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	// DefaultModelName 默认模型
	DefaultModelName = "qwen-plus"
	// DefaultTimeout 单次请求超时
	DefaultTimeout = 120 * time.Second

	maxLoggedBody = 512
)

// ErrEmptyChoices 接口返回了空的 choices
var ErrEmptyChoices = errors.New("模型未返回任何候选结果")

// APIError 接口返回非200状态码
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API 请求失败，状态 %s: %s", e.Status, e.Body)
}

// --- OpenAI 兼容的请求/响应结构 ---

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    *string        `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []chatTool    `json:"tools,omitempty"`
	Temperature *float32      `json:"temperature,omitempty"`
	TopP        *float32      `json:"top_p,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *chatUsage   `json:"usage,omitempty"`
}

// ChatModel 通过 OpenAI 兼容接口调用大模型，实现 model.ChatModel 和 model.ToolCallingChatModel
type ChatModel struct {
	apiKey      string
	modelName   string
	apiURL      string
	httpClient  *http.Client
	temperature *float32
	maxTokens   *int
	tools       []chatTool
	logger      zerolog.Logger
}

// Option 配置 ChatModel
type Option func(*ChatModel)

// WithHTTPClient 使用自定义 HTTP 客户端
func WithHTTPClient(c *http.Client) Option {
	return func(m *ChatModel) {
		if c != nil {
			m.httpClient = c
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger zerolog.Logger) Option {
	return func(m *ChatModel) {
		m.logger = logger.With().Str("component", "chat_model").Logger()
	}
}

// WithTemperature 设置默认采样温度，调用时的 model.WithTemperature 优先
func WithTemperature(t float32) Option {
	return func(m *ChatModel) {
		m.temperature = &t
	}
}

// WithMaxTokens 设置默认最大输出长度
func WithMaxTokens(n int) Option {
	return func(m *ChatModel) {
		if n > 0 {
			m.maxTokens = &n
		}
	}
}

// NewChatModel 创建一个新的 ChatModel 实例
func NewChatModel(apiKey, modelName, apiURL string, opts ...Option) (*ChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空")
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = DefaultModelName
	}
	if strings.TrimSpace(apiURL) == "" {
		apiURL = DefaultAPIURL
	}

	m := &ChatModel{
		apiKey:     apiKey,
		modelName:  modelName,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.logger.Debug().Str("api_url", apiURL).Str("model", modelName).Msg("聊天模型客户端已创建")
	return m, nil
}

// ModelName 返回默认模型名
func (m *ChatModel) ModelName() string {
	return m.modelName
}

// Generate 实现 model.ChatModel 接口
func (m *ChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	common := model.GetCommonOptions(&model.Options{
		Model:       &m.modelName,
		Temperature: m.temperature,
		MaxTokens:   m.maxTokens,
	}, opts...)

	reqPayload := chatCompletionRequest{
		Model:       m.modelName,
		Messages:    toChatMessages(messages),
		Tools:       m.tools,
		Temperature: common.Temperature,
		TopP:        common.TopP,
		MaxTokens:   common.MaxTokens,
		Stop:        common.Stop,
	}
	if common.Model != nil && *common.Model != "" {
		reqPayload.Model = *common.Model
	}

	jsonData, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建 HTTP 请求失败: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	m.logger.Debug().
		Str("model", reqPayload.Model).
		Int("messages", len(reqPayload.Messages)).
		Int("request_bytes", len(jsonData)).
		Msg("发送模型请求")

	httpResp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("发送 HTTP 请求失败: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	m.logger.Debug().
		Int("status", httpResp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Int("response_bytes", len(bodyBytes)).
		Msg("收到模型响应")

	if httpResp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: httpResp.StatusCode,
			Status:     httpResp.Status,
			Body:       truncate(string(bodyBytes), maxLoggedBody),
		}
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(bodyBytes, &resp); err != nil {
		return nil, fmt.Errorf("反序列化 API 响应失败: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyChoices
	}

	return fromChatChoice(resp.Choices[0], resp.Usage), nil
}

// Stream 以单个分片的形式返回 Generate 的结果
func (m *ChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// BindTools 实现 model.ChatModel 接口，工具参数统一声明为空对象
func (m *ChatModel) BindTools(tools []*schema.ToolInfo) error {
	m.tools = toChatTools(tools)
	return nil
}

// WithTools 返回绑定了工具的新实例，原实例不受影响
func (m *ChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	clone := *m
	clone.tools = toChatTools(tools)
	return &clone, nil
}

var (
	_ model.ChatModel            = (*ChatModel)(nil)
	_ model.ToolCallingChatModel = (*ChatModel)(nil)
)

func toChatTools(tools []*schema.ToolInfo) []chatTool {
	out := make([]chatTool, 0, len(tools))
	for _, info := range tools {
		if info == nil {
			continue
		}
		out = append(out, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        info.Name,
				Description: info.Desc,
				Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
			},
		})
	}
	return out
}

func toChatMessages(messages []*schema.Message) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		content := msg.Content
		cm := chatMessage{
			Role:       string(msg.Role),
			Content:    &content,
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			call := chatToolCall{ID: tc.ID, Type: "function"}
			call.Function.Name = tc.Function.Name
			call.Function.Arguments = tc.Function.Arguments
			cm.ToolCalls = append(cm.ToolCalls, call)
		}
		out = append(out, cm)
	}
	return out
}

func fromChatChoice(choice chatChoice, usage *chatUsage) *schema.Message {
	content := ""
	if choice.Message.Content != nil {
		content = *choice.Message.Content
	}

	role := schema.RoleType(choice.Message.Role)
	if role == "" {
		role = schema.Assistant
	}

	msg := &schema.Message{
		Role:    role,
		Content: content,
		ResponseMeta: &schema.ResponseMeta{
			FinishReason: choice.FinishReason,
		},
	}
	if usage != nil {
		msg.ResponseMeta.Usage = &schema.TokenUsage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		}
	}
	for _, tc := range choice.Message.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, schema.ToolCall{
			ID: tc.ID,
			Function: schema.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return msg
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
