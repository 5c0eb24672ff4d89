package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"resume-tailor/pkg/normalizer"
	"resume-tailor/pkg/render"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// NormalizeRequest 规范化请求
type NormalizeRequest struct {
	Text string `json:"text"`
}

// NormalizeResponse 规范化结果
type NormalizeResponse struct {
	Sections *normalizer.SectionModel `json:"sections"`
	Text     string                   `json:"text"`
}

// RenderRequest 渲染请求，format 为空时输出 markdown
type RenderRequest struct {
	Text   string `json:"text"`
	Format string `json:"format"`
	Style  string `json:"style"`
}

// bindJSON 解析 JSON 请求体
func bindJSON(c *app.RequestContext, dst any) error {
	if err := json.Unmarshal(c.Request.Body(), dst); err != nil {
		return fmt.Errorf("请求体不是有效的 JSON: %w", err)
	}
	return nil
}

// formText multipart 请求中的文本：优先上传文件，其次 text 字段
func (h *Handler) formText(ctx context.Context, c *app.RequestContext) (string, int, error) {
	uploaded, err := h.readUpload(ctx, c, "file")
	if err != nil {
		return "", extractStatus(err), err
	}
	if uploaded == "" {
		uploaded = c.PostForm("text")
	}
	if strings.TrimSpace(uploaded) == "" {
		return "", consts.StatusBadRequest, errMissingText
	}
	return uploaded, 0, nil
}

// HandleNormalize 把简历文本整理为章节模型
// POST /api/v1/normalize
func (h *Handler) HandleNormalize(ctx context.Context, c *app.RequestContext) {
	var req NormalizeRequest
	if isMultipart(c) {
		text, status, err := h.formText(ctx, c)
		if err != nil {
			c.JSON(status, utils.H{"error": err.Error()})
			return
		}
		req.Text = text
	} else {
		if err := bindJSON(c, &req); err != nil {
			badRequest(c, err)
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			badRequest(c, errMissingText)
			return
		}
	}

	model := h.normalizer.Normalize(req.Text)
	c.JSON(consts.StatusOK, NormalizeResponse{Sections: model, Text: model.Text()})
}

// HandleRender 规范化后渲染为指定格式并直接返回文件
// POST /api/v1/render
func (h *Handler) HandleRender(ctx context.Context, c *app.RequestContext) {
	var req RenderRequest
	if isMultipart(c) {
		text, status, err := h.formText(ctx, c)
		if err != nil {
			c.JSON(status, utils.H{"error": err.Error()})
			return
		}
		req = RenderRequest{Text: text, Format: c.PostForm("format"), Style: c.PostForm("style")}
	} else {
		if err := bindJSON(c, &req); err != nil {
			badRequest(c, err)
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			badRequest(c, errMissingText)
			return
		}
	}

	format := render.FormatMarkdown
	if req.Format != "" {
		f, err := render.ParseFormat(req.Format)
		if err != nil {
			badRequest(c, err)
			return
		}
		format = f
	}
	style, err := render.ParseStyle(req.Style)
	if err != nil {
		badRequest(c, err)
		return
	}

	opts := append([]render.Option{render.WithClassifier(h.normalizer)}, h.renderOpts...)
	opts = append(opts, render.WithStyle(style))
	r, err := render.New(format, opts...)
	if err != nil {
		badRequest(c, err)
		return
	}

	model := h.normalizer.Normalize(req.Text)
	data, err := r.Render(ctx, model)
	if err != nil {
		status := consts.StatusInternalServerError
		if errors.Is(err, render.ErrEmptyModel) {
			status = consts.StatusUnprocessableEntity
		}
		h.logger.Error().Err(err).Str("format", string(format)).Msg("渲染失败")
		c.JSON(status, utils.H{"error": err.Error()})
		return
	}

	writeFile(c, format, "resume."+format.Extension(), data)
}

func writeFile(c *app.RequestContext, format render.Format, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(consts.StatusOK, format.ContentType(), data)
}
