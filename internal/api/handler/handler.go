package handler

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"resume-tailor/internal/extract"
	"resume-tailor/internal/storage"
	"resume-tailor/internal/tailor"
	"resume-tailor/pkg/llm"
	"resume-tailor/pkg/normalizer"
	"resume-tailor/pkg/render"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rs/zerolog"
)

// DefaultRequestTimeout 单个定制请求的默认超时
const DefaultRequestTimeout = 3 * time.Minute

var (
	errTailorDisabled = errors.New("未配置大模型，定制接口不可用")
	errMissingText    = errors.New("text 或上传文件不能为空")
)

// Handler 简历接口处理器
type Handler struct {
	normalizer *normalizer.Normalizer
	service    *tailor.Service // 为 nil 时定制接口返回 503
	extractor  *extract.Extractor
	store      storage.ArtifactStore
	history    storage.RunHistory
	renderOpts []render.Option
	timeout    time.Duration
	logger     zerolog.Logger
}

// Option Handler 配置项
type Option func(*Handler)

// WithTailorService 启用定制接口
func WithTailorService(s *tailor.Service) Option {
	return func(h *Handler) { h.service = s }
}

// WithExtractor 启用 multipart 文件上传
func WithExtractor(e *extract.Extractor) Option {
	return func(h *Handler) { h.extractor = e }
}

// WithArtifactStore 启用生成文档下载
func WithArtifactStore(s storage.ArtifactStore) Option {
	return func(h *Handler) { h.store = s }
}

// WithRunHistory 启用定制记录查询
func WithRunHistory(r storage.RunHistory) Option {
	return func(h *Handler) { h.history = r }
}

// WithRenderOptions 渲染器公共选项
func WithRenderOptions(opts ...render.Option) Option {
	return func(h *Handler) { h.renderOpts = append(h.renderOpts, opts...) }
}

// WithRequestTimeout 设置定制请求超时
func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger zerolog.Logger) Option {
	return func(h *Handler) { h.logger = logger.With().Str("component", "api").Logger() }
}

// NewHandler 创建处理器，n 为 nil 时使用默认规范化配置
func NewHandler(n *normalizer.Normalizer, opts ...Option) *Handler {
	if n == nil {
		n = normalizer.Default()
	}
	h := &Handler{
		normalizer: n,
		timeout:    DefaultRequestTimeout,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleHealth 健康检查
// GET /api/v1/health
func (h *Handler) HandleHealth(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{
		"status":    "ok",
		"tailor":    h.service != nil,
		"uploads":   h.extractor != nil,
		"artifacts": h.store != nil,
		"history":   h.history != nil,
	})
}

// HandleOptions 返回支持的语气、格式和样式
// GET /api/v1/options
func (h *Handler) HandleOptions(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{
		"tones":   llm.Tones,
		"formats": render.Formats,
		"styles":  []render.Style{render.StyleModern, render.StyleClassic, render.StyleMinimal},
	})
}

func isMultipart(c *app.RequestContext) bool {
	return strings.HasPrefix(string(c.ContentType()), "multipart/form-data")
}

// readUpload 读取 multipart 中的文件字段并提取文本；字段不存在时返回空字符串
func (h *Handler) readUpload(ctx context.Context, c *app.RequestContext, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}
	if h.extractor == nil {
		return "", fmt.Errorf("%w: 服务未启用文件上传", extract.ErrUnsupportedType)
	}
	return h.extractHeader(ctx, fh)
}

func (h *Handler) extractHeader(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if fh.Size > extract.MaxFileSize {
		return "", fmt.Errorf("%w: %s", extract.ErrFileTooLarge, fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("打开上传文件失败: %w", err)
	}
	defer f.Close()

	res, err := h.extractor.Extract(ctx, f, fh.Filename)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// badRequest 统一的 400 响应
func badRequest(c *app.RequestContext, err error) {
	c.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
}

// extractStatus 文件提取错误对应的状态码
func extractStatus(err error) int {
	switch {
	case errors.Is(err, extract.ErrFileTooLarge):
		return consts.StatusRequestEntityTooLarge
	case errors.Is(err, extract.ErrUnsupportedType):
		return consts.StatusUnsupportedMediaType
	case errors.Is(err, extract.ErrEmptyDocument), errors.Is(err, extract.ErrInvalidEncoding):
		return consts.StatusUnprocessableEntity
	}
	return consts.StatusBadRequest
}
