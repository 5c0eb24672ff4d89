package handler

import (
	"context"
	"errors"
	"strconv"

	"resume-tailor/internal/storage"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
)

// HandleGetRun 查询一次定制的记录
// GET /api/v1/runs/:run_id
func (h *Handler) HandleGetRun(ctx context.Context, c *app.RequestContext) {
	if h.history == nil {
		c.JSON(consts.StatusNotFound, utils.H{"error": "未启用定制记录"})
		return
	}
	runID := c.Param("run_id")
	if _, err := uuid.Parse(runID); err != nil {
		badRequest(c, errors.New("run_id 无效"))
		return
	}

	run, err := h.history.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrRunNotFound) {
			c.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
			return
		}
		h.logger.Error().Err(err).Str("run_id", runID).Msg("查询定制记录失败")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "查询定制记录失败"})
		return
	}
	c.JSON(consts.StatusOK, run)
}

// HandleListRuns 最近的定制记录
// GET /api/v1/runs?limit=20
func (h *Handler) HandleListRuns(ctx context.Context, c *app.RequestContext) {
	if h.history == nil {
		c.JSON(consts.StatusNotFound, utils.H{"error": "未启用定制记录"})
		return
	}
	limit := storage.DefaultHistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(c, errors.New("limit 必须是正整数"))
			return
		}
		limit = n
	}

	runs, err := h.history.ListRuns(ctx, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("查询定制记录失败")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "查询定制记录失败"})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"runs": runs, "count": len(runs)})
}
