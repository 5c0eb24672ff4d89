package models

import (
	"encoding/json"
	"time"

	"github.com/gofrs/uuid/v5"
	"gorm.io/datatypes"
)

// TailorRun 一次简历定制的记录
type TailorRun struct {
	RunID      string         `gorm:"type:char(36);primaryKey" json:"run_id"`
	Model      string         `gorm:"type:varchar(100);not null" json:"model"`
	Tone       string         `gorm:"type:varchar(20)" json:"tone"`
	FocusAreas datatypes.JSON `gorm:"type:json" json:"focus_areas,omitempty"`
	CacheKey   string         `gorm:"type:varchar(80);index:idx_tr_cache_key" json:"cache_key"`
	Cached     bool           `json:"cached"`
	TokensUsed int            `json:"tokens_used"`
	// 规范化后的章节键，按输出顺序
	SectionKeys datatypes.JSON `gorm:"type:json" json:"section_keys"`
	// []RunArtifact
	Artifacts datatypes.JSON `gorm:"type:json" json:"artifacts"`

	OriginalKeywordMatch  float64 `json:"original_keyword_match"`
	TailoredKeywordMatch  float64 `json:"tailored_keyword_match"`
	ImprovementPercentage float64 `json:"improvement_percentage"`

	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_tr_created_at" json:"created_at"`
}

func (TailorRun) TableName() string {
	return "tailor_runs"
}

// RunArtifact 记录中保存的文档信息，不含内容
type RunArtifact struct {
	Format      string `json:"format"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	Location    string `json:"location,omitempty"`
}

// NewRunID 生成按时间有序的 UUIDv7，失败时退回 v4
func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Must(uuid.NewV4()).String()
	}
	return id.String()
}

// ToJSON Helper function to convert any value to datatypes.JSON
func ToJSON(v interface{}) (datatypes.JSON, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}
