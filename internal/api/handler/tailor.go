package handler

import (
	"context"
	"errors"
	"path"
	"strconv"
	"strings"

	"resume-tailor/internal/storage"
	"resume-tailor/internal/tailor"
	"resume-tailor/pkg/llm"
	"resume-tailor/pkg/render"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
)

// TailorRequest 定制请求
type TailorRequest struct {
	Resume         string   `json:"resume"`
	JobDescription string   `json:"job_description"`
	Tone           string   `json:"tone,omitempty"`
	FocusAreas     []string `json:"focus_areas,omitempty"`
	Formats        []string `json:"formats,omitempty"`
	Style          string   `json:"style,omitempty"`
	SkipCache      bool     `json:"skip_cache,omitempty"`
	IncludeFiles   bool     `json:"include_files,omitempty"` // 在响应中附带 base64 编码的文件内容
}

// TailorResponse 定制结果，Files 仅在 include_files 时返回
type TailorResponse struct {
	*tailor.Result
	Files map[render.Format][]byte `json:"files,omitempty"`
}

// HandleTailor 按职位描述定制简历
// POST /api/v1/tailor
//
// multipart 表单字段：resume(文件) 或 resume_text，job_description 或 job_description_file，
// tone、focus_areas(逗号分隔)、formats(逗号分隔)、style、skip_cache、include_files。
func (h *Handler) HandleTailor(ctx context.Context, c *app.RequestContext) {
	if h.service == nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": errTailorDisabled.Error()})
		return
	}

	var req TailorRequest
	if isMultipart(c) {
		r, status, err := h.bindTailorForm(ctx, c)
		if err != nil {
			c.JSON(status, utils.H{"error": err.Error()})
			return
		}
		req = r
	} else if err := bindJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	treq := tailor.Request{
		Resume:         req.Resume,
		JobDescription: req.JobDescription,
		Tone:           req.Tone,
		FocusAreas:     req.FocusAreas,
		SkipCache:      req.SkipCache,
	}
	for _, name := range req.Formats {
		f, err := render.ParseFormat(name)
		if err != nil {
			badRequest(c, err)
			return
		}
		treq.Formats = append(treq.Formats, f)
	}
	if req.Style != "" {
		style, err := render.ParseStyle(req.Style)
		if err != nil {
			badRequest(c, err)
			return
		}
		treq.Style = style
	}

	runCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	result, err := h.service.Tailor(runCtx, treq)
	if err != nil {
		status := tailorStatus(err)
		if runCtx.Err() == context.DeadlineExceeded {
			status = consts.StatusGatewayTimeout
		}
		ev := h.logger.Error()
		if status < consts.StatusInternalServerError {
			ev = h.logger.Warn()
		}
		ev.Err(err).Int("status", status).Msg("简历定制失败")
		c.JSON(status, utils.H{"error": err.Error()})
		return
	}

	resp := TailorResponse{Result: result}
	if req.IncludeFiles {
		resp.Files = make(map[render.Format][]byte, len(result.Artifacts))
		for _, a := range result.Artifacts {
			resp.Files[a.Format] = a.Data
		}
	}
	c.JSON(consts.StatusOK, resp)
}

func (h *Handler) bindTailorForm(ctx context.Context, c *app.RequestContext) (TailorRequest, int, error) {
	req := TailorRequest{
		Resume:         c.PostForm("resume_text"),
		JobDescription: c.PostForm("job_description"),
		Tone:           c.PostForm("tone"),
		FocusAreas:     llm.SplitFocusAreas(c.PostForm("focus_areas")),
		Style:          c.PostForm("style"),
	}
	for _, f := range strings.Split(c.PostForm("formats"), ",") {
		if f = strings.TrimSpace(f); f != "" {
			req.Formats = append(req.Formats, f)
		}
	}
	req.SkipCache, _ = strconv.ParseBool(c.PostForm("skip_cache"))
	req.IncludeFiles, _ = strconv.ParseBool(c.PostForm("include_files"))

	resume, err := h.readUpload(ctx, c, "resume")
	if err != nil {
		return req, extractStatus(err), err
	}
	if resume != "" {
		req.Resume = resume
	}
	jd, err := h.readUpload(ctx, c, "job_description_file")
	if err != nil {
		return req, extractStatus(err), err
	}
	if jd != "" {
		req.JobDescription = jd
	}
	return req, 0, nil
}

// tailorStatus 定制错误对应的状态码
func tailorStatus(err error) int {
	switch {
	case errors.Is(err, tailor.ErrInvalidRequest):
		return consts.StatusBadRequest
	case errors.Is(err, tailor.ErrModelFailed), errors.Is(err, tailor.ErrEmptyModelOutput):
		return consts.StatusBadGateway
	case errors.Is(err, tailor.ErrEmptyResult):
		return consts.StatusUnprocessableEntity
	}
	return consts.StatusInternalServerError
}

// HandleDownload 下载已保存的生成文档
// GET /api/v1/runs/:run_id/:file
func (h *Handler) HandleDownload(ctx context.Context, c *app.RequestContext) {
	if h.store == nil {
		c.JSON(consts.StatusNotFound, utils.H{"error": "未配置文档存储"})
		return
	}

	runID := c.Param("run_id")
	if _, err := uuid.Parse(runID); err != nil {
		badRequest(c, errors.New("run_id 无效"))
		return
	}
	file := c.Param("file")
	ext := path.Ext(file)
	if strings.TrimSuffix(file, ext) != "resume" {
		c.JSON(consts.StatusNotFound, utils.H{"error": "文件不存在"})
		return
	}
	format, err := render.ParseFormat(ext)
	if err != nil {
		c.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
		return
	}

	data, err := h.store.Load(ctx, storage.ArtifactKey(runID, format.Extension()))
	if err != nil {
		if errors.Is(err, storage.ErrArtifactNotFound) {
			c.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
			return
		}
		h.logger.Error().Err(err).Str("run_id", runID).Msg("读取文档失败")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "读取文档失败"})
		return
	}
	writeFile(c, format, "resume."+format.Extension(), data)
}
