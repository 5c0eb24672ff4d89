package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"resume-tailor/internal/storage/models"
)

// ErrRunNotFound 定制记录不存在
var ErrRunNotFound = errors.New("定制记录不存在")

// DefaultHistoryLimit ListRuns 的默认与最大条数
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// RunHistory 保存定制记录
type RunHistory interface {
	SaveRun(ctx context.Context, run *models.TailorRun) error
	GetRun(ctx context.Context, runID string) (*models.TailorRun, error)
	// ListRuns 按创建时间倒序
	ListRuns(ctx context.Context, limit int) ([]models.TailorRun, error)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

// MemoryHistory 进程内记录，只保留最近 capacity 条，未配置 MySQL 时使用
type MemoryHistory struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	runs     map[string]models.TailorRun
}

var _ RunHistory = (*MemoryHistory)(nil)

// NewMemoryHistory capacity 不大于 0 时取 MaxHistoryLimit
func NewMemoryHistory(capacity int) *MemoryHistory {
	if capacity <= 0 {
		capacity = MaxHistoryLimit
	}
	return &MemoryHistory{capacity: capacity, runs: make(map[string]models.TailorRun)}
}

func (h *MemoryHistory) SaveRun(ctx context.Context, run *models.TailorRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if run == nil || run.RunID == "" {
		return errors.New("定制记录缺少 run_id")
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.runs[run.RunID]; !ok {
		h.order = append(h.order, run.RunID)
	}
	h.runs[run.RunID] = *run
	for len(h.order) > h.capacity {
		delete(h.runs, h.order[0])
		h.order = h.order[1:]
	}
	return nil
}

func (h *MemoryHistory) GetRun(ctx context.Context, runID string) (*models.TailorRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	run, ok := h.runs[runID]
	if !ok {
		return nil, ErrRunNotFound
	}
	return &run, nil
}

func (h *MemoryHistory) ListRuns(ctx context.Context, limit int) ([]models.TailorRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	h.mu.RLock()
	out := make([]models.TailorRun, 0, len(h.order))
	for i := len(h.order) - 1; i >= 0; i-- {
		out = append(out, h.runs[h.order[i]])
	}
	h.mu.RUnlock()

	// CreatedAt 相同时后保存的在前
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
