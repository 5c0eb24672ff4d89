// Package tailor 把简历按职位描述交给大模型改写，再规范化、渲染并保存结果
package tailor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"resume-tailor/internal/storage"
	"resume-tailor/internal/storage/models"
	"resume-tailor/internal/tracing"
	"resume-tailor/pkg/llm"
	"resume-tailor/pkg/normalizer"
	"resume-tailor/pkg/render"

	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("resume-tailor/tailor")

// DefaultCacheTTL 模型输出的缓存时间
const DefaultCacheTTL = 24 * time.Hour

// Request 一次定制请求
type Request struct {
	Resume         string          `json:"resume"`
	JobDescription string          `json:"job_description"`
	Tone           string          `json:"tone,omitempty"`
	FocusAreas     []string        `json:"focus_areas,omitempty"`
	Formats        []render.Format `json:"formats,omitempty"`
	Style          render.Style    `json:"style,omitempty"`
	SkipCache      bool            `json:"skip_cache,omitempty"`
}

// Artifact 一个渲染结果
type Artifact struct {
	Format      render.Format `json:"format"`
	ContentType string        `json:"content_type"`
	Size        int           `json:"size"`
	Location    string        `json:"location,omitempty"` // 配置了文档存储时的保存位置
	Data        []byte        `json:"-"`
}

// Result 定制结果
type Result struct {
	RunID      string                   `json:"run_id"`
	Model      string                   `json:"model"`
	Tone       llm.Tone                 `json:"tone"`
	Cached     bool                     `json:"cached"`
	TokensUsed int                      `json:"tokens_used"`
	Sections   *normalizer.SectionModel `json:"sections"`
	Text       string                   `json:"text"`
	Artifacts  []Artifact               `json:"artifacts"`
	Metrics    Metrics                  `json:"metrics"`
	Duration   time.Duration            `json:"duration_ns"`
}

// cachedOutput 缓存中保存的模型输出
type cachedOutput struct {
	Content    string `json:"content"`
	TokensUsed int    `json:"tokens_used"`
}

// Service 定制服务，可被多个 goroutine 并发使用
type Service struct {
	chatModel      model.BaseChatModel
	modelName      string
	normalizer     *normalizer.Normalizer
	cache          storage.Cache
	store          storage.ArtifactStore
	history        storage.RunHistory
	events         storage.EventPublisher
	cacheTTL       time.Duration
	renderOpts     []render.Option
	defaultFormats []render.Format
	logger         zerolog.Logger
	newID          func() string
}

// Option Service 配置项
type Option func(*Service)

// WithCache 设置模型输出缓存
func WithCache(c storage.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithArtifactStore 设置文档存储
func WithArtifactStore(store storage.ArtifactStore) Option {
	return func(s *Service) { s.store = store }
}

// WithRunHistory 保存每次定制的记录
func WithRunHistory(h storage.RunHistory) Option {
	return func(s *Service) { s.history = h }
}

// WithEventPublisher 定制完成后发布事件
func WithEventPublisher(p storage.EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithRenderOptions 设置渲染器公共选项
func WithRenderOptions(opts ...render.Option) Option {
	return func(s *Service) { s.renderOpts = append(s.renderOpts, opts...) }
}

// WithDefaultFormats 请求未指定格式时使用
func WithDefaultFormats(formats ...render.Format) Option {
	return func(s *Service) { s.defaultFormats = formats }
}

// WithLogger 设置日志记录器
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger.With().Str("component", "tailor").Logger() }
}

// NewService 创建定制服务。modelName 只用于缓存键与结果展示。
func NewService(chatModel model.BaseChatModel, modelName string, n *normalizer.Normalizer, opts ...Option) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model 不能为空")
	}
	if n == nil {
		n = normalizer.Default()
	}
	s := &Service{
		chatModel:      chatModel,
		modelName:      modelName,
		normalizer:     n,
		cacheTTL:       DefaultCacheTTL,
		defaultFormats: []render.Format{render.FormatMarkdown},
		logger:         zerolog.Nop(),
		newID:          models.NewRunID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Normalizer 服务使用的规范化器
func (s *Service) Normalizer() *normalizer.Normalizer { return s.normalizer }

// Tailor 执行一次完整定制：调用模型、规范化、渲染、保存
func (s *Service) Tailor(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	runID := s.newID()

	ctx, span := tracer.Start(ctx, "Tailor.Run", trace.WithAttributes(
		attribute.String("tailor.run_id", runID),
		attribute.String("llm.model", s.modelName),
	))
	defer span.End()

	log := s.logger.With().Str("run_id", runID).Logger()

	tone, err := llm.ParseTone(req.Tone)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, newError("validate", runID, ErrInvalidRequest, err)
	}
	prompt := llm.TailorPrompt{
		Resume:         req.Resume,
		JobDescription: req.JobDescription,
		Tone:           tone,
		FocusAreas:     req.FocusAreas,
	}
	if err := prompt.Validate(); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, newError("validate", runID, ErrInvalidRequest, err)
	}
	formats := req.Formats
	if len(formats) == 0 {
		formats = s.defaultFormats
	}
	renderers, err := s.renderers(formats, req.Style)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, newError("validate", runID, ErrInvalidRequest, err)
	}

	span.SetAttributes(
		attribute.String("tailor.tone", string(tone)),
		attribute.String("tailor.resume", tracing.SafeResumeContent(req.Resume)),
		attribute.Int("tailor.job_description_length", len(req.JobDescription)),
	)

	cacheKey := CacheKey(s.modelName, prompt)
	output, cached, err := s.generate(ctx, cacheKey, prompt, req.SkipCache, log)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, newError("generate", runID, ErrModelFailed, err)
	}
	if strings.TrimSpace(output.Content) == "" {
		tracing.RecordError(span, ErrEmptyModelOutput, tracing.ErrorTypeLLM)
		return nil, newError("generate", runID, ErrEmptyModelOutput, nil)
	}

	sections := s.normalizer.Normalize(output.Content)
	if sections.IsEmpty() {
		tracing.RecordError(span, ErrEmptyResult, tracing.ErrorTypeInternal)
		return nil, newError("normalize", runID, ErrEmptyResult, nil)
	}
	span.SetAttributes(
		attribute.String("tailor.candidate_name", tracing.SafeAttributeValue("candidate.name", sections.Header().Name, tracing.DefaultMaxLength)),
		attribute.Int("tailor.sections", sections.Len()),
	)
	text := sections.Text()

	artifacts, err := s.renderAll(ctx, runID, renderers, sections)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRender)
		return nil, err
	}

	result := &Result{
		RunID:      runID,
		Model:      s.modelName,
		Tone:       tone,
		Cached:     cached,
		TokensUsed: output.TokensUsed,
		Sections:   sections,
		Text:       text,
		Artifacts:  artifacts,
		Metrics:    CalculateMetrics(req.Resume, text, req.JobDescription),
		Duration:   time.Since(start),
	}
	s.record(ctx, result, prompt, cacheKey, log)

	log.Info().
		Bool("cached", cached).
		Int("sections", sections.Len()).
		Int("artifacts", len(artifacts)).
		Float64("improvement", result.Metrics.ImprovementPercentage).
		Dur("elapsed", result.Duration).
		Msg("简历定制完成")
	return result, nil
}

func (s *Service) renderers(formats []render.Format, style render.Style) ([]render.Renderer, error) {
	opts := append([]render.Option(nil), s.renderOpts...)
	if style != "" {
		opts = append(opts, render.WithStyle(style))
	}
	seen := make(map[render.Format]bool, len(formats))
	out := make([]render.Renderer, 0, len(formats))
	for _, f := range formats {
		if seen[f] {
			continue
		}
		seen[f] = true
		r, err := render.New(f, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// generate 先查缓存，未命中再调用模型并回写缓存；缓存读写失败只记录日志
func (s *Service) generate(ctx context.Context, key string, prompt llm.TailorPrompt, skipCache bool, log zerolog.Logger) (cachedOutput, bool, error) {
	if s.cache != nil && !skipCache {
		data, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var out cachedOutput
			if jerr := json.Unmarshal(data, &out); jerr == nil && out.Content != "" {
				log.Debug().Str("cache_key", key).Msg("命中模型输出缓存")
				return out, true, nil
			}
			log.Warn().Str("cache_key", key).Msg("缓存内容无法解析，重新调用模型")
		case errors.Is(err, storage.ErrCacheMiss):
		default:
			log.Warn().Err(err).Msg("读取缓存失败")
		}
	}

	messages, err := prompt.Messages()
	if err != nil {
		return cachedOutput{}, false, err
	}

	ctx, span := tracer.Start(ctx, "Tailor.Generate")
	defer span.End()

	resp, err := s.chatModel.Generate(ctx, messages)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return cachedOutput{}, false, err
	}

	out := cachedOutput{Content: strings.TrimSpace(resp.Content)}
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		out.TokensUsed = resp.ResponseMeta.Usage.TotalTokens
	}
	span.SetAttributes(
		attribute.Int("llm.output_length", len(out.Content)),
		attribute.Int("llm.tokens_used", out.TokensUsed),
	)

	if s.cache != nil && out.Content != "" {
		data, _ := json.Marshal(out)
		if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
			log.Warn().Err(err).Msg("写入缓存失败")
		}
	}
	return out, false, nil
}

func (s *Service) renderAll(ctx context.Context, runID string, renderers []render.Renderer, sections *normalizer.SectionModel) ([]Artifact, error) {
	ctx, span := tracer.Start(ctx, "Tailor.Render")
	defer span.End()

	artifacts := make([]Artifact, 0, len(renderers))
	for _, r := range renderers {
		f := r.Format()
		data, err := r.Render(ctx, sections)
		if err != nil {
			return nil, newError("render", runID, ErrRenderFailed, fmt.Errorf("%s: %w", f, err))
		}
		a := Artifact{Format: f, ContentType: f.ContentType(), Size: len(data), Data: data}
		if s.store != nil {
			loc, err := s.store.Save(ctx, storage.ArtifactKey(runID, f.Extension()), data, a.ContentType)
			if err != nil {
				tracing.RecordError(span, err, tracing.ErrorTypeStorage)
				return nil, newError("store", runID, ErrStoreFailed, err)
			}
			a.Location = loc
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}

// record 保存定制记录并发布完成事件，失败只记录日志
func (s *Service) record(ctx context.Context, r *Result, prompt llm.TailorPrompt, cacheKey string, log zerolog.Logger) {
	if s.history != nil {
		run, err := newRunRecord(r, prompt.FocusAreas, cacheKey)
		if err == nil {
			err = s.history.SaveRun(ctx, run)
		}
		if err != nil {
			log.Warn().Err(err).Msg("保存定制记录失败")
		}
	}
	if s.events != nil {
		if err := s.events.PublishRunCompleted(ctx, newRunEvent(r)); err != nil {
			log.Warn().Err(err).Msg("发布定制事件失败")
		}
	}
}

func newRunRecord(r *Result, focusAreas []string, cacheKey string) (*models.TailorRun, error) {
	focus, err := models.ToJSON(focusAreas)
	if err != nil {
		return nil, err
	}
	keys, err := models.ToJSON(r.Sections.Keys())
	if err != nil {
		return nil, err
	}
	arts := make([]models.RunArtifact, 0, len(r.Artifacts))
	for _, a := range r.Artifacts {
		arts = append(arts, models.RunArtifact{
			Format:      string(a.Format),
			ContentType: a.ContentType,
			Size:        a.Size,
			Location:    a.Location,
		})
	}
	artifacts, err := models.ToJSON(arts)
	if err != nil {
		return nil, err
	}
	return &models.TailorRun{
		RunID:                 r.RunID,
		Model:                 r.Model,
		Tone:                  string(r.Tone),
		FocusAreas:            focus,
		CacheKey:              cacheKey,
		Cached:                r.Cached,
		TokensUsed:            r.TokensUsed,
		SectionKeys:           keys,
		Artifacts:             artifacts,
		OriginalKeywordMatch:  r.Metrics.OriginalKeywordMatch,
		TailoredKeywordMatch:  r.Metrics.TailoredKeywordMatch,
		ImprovementPercentage: r.Metrics.ImprovementPercentage,
		DurationMS:            r.Duration.Milliseconds(),
		CreatedAt:             time.Now(),
	}, nil
}

func newRunEvent(r *Result) storage.RunCompletedEvent {
	ev := storage.RunCompletedEvent{
		EventType:   storage.EventRunCompleted,
		RunID:       r.RunID,
		Model:       r.Model,
		Tone:        string(r.Tone),
		Cached:      r.Cached,
		TokensUsed:  r.TokensUsed,
		SectionKeys: r.Sections.Keys(),
		Improvement: r.Metrics.ImprovementPercentage,
		CompletedAt: time.Now(),
	}
	for _, a := range r.Artifacts {
		ev.Artifacts = append(ev.Artifacts, storage.RunArtifactMessage{
			Format:   string(a.Format),
			Location: a.Location,
			Size:     a.Size,
		})
	}
	return ev
}

// CacheKey 对模型名、语气、关注点、简历和职位描述取 SHA-256
func CacheKey(modelName string, p llm.TailorPrompt) string {
	focus := make([]string, 0, len(p.FocusAreas))
	for _, f := range p.FocusAreas {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			focus = append(focus, f)
		}
	}

	h := sha256.New()
	for _, part := range []string{
		modelName,
		string(p.Tone),
		strings.Join(focus, ","),
		strings.TrimSpace(p.Resume),
		strings.TrimSpace(p.JobDescription),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "tailor:" + hex.EncodeToString(h.Sum(nil))
}
