package storage

import (
	"context"
	"time"
)

// EventRunCompleted 定制完成事件类型
const EventRunCompleted = "tailor.run.completed"

// RunCompletedEvent 定制完成后发布的消息
type RunCompletedEvent struct {
	EventType   string               `json:"event_type"`
	RunID       string               `json:"run_id"`
	Model       string               `json:"model"`
	Tone        string               `json:"tone"`
	Cached      bool                 `json:"cached"`
	TokensUsed  int                  `json:"tokens_used"`
	SectionKeys []string             `json:"section_keys"`
	Artifacts   []RunArtifactMessage `json:"artifacts,omitempty"`
	Improvement float64              `json:"improvement_percentage"`
	CompletedAt time.Time            `json:"completed_at"`
}

// RunArtifactMessage 事件中的文档信息
type RunArtifactMessage struct {
	Format   string `json:"format"`
	Location string `json:"location,omitempty"`
	Size     int    `json:"size"`
}

// EventPublisher 发布定制事件
type EventPublisher interface {
	PublishRunCompleted(ctx context.Context, event RunCompletedEvent) error
}
