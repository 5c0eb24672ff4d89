// Package normalizer 把 LLM 生成的简历文本整理为结构化的章节模型。
//
// 流水线依次为：去除套话、修复字符瑕疵、重组头部、删除重复内容块、
// 统一 markdown 标记、按章节切分、按章节类型整理内容。每个阶段都是
// 纯函数，可单独调用和测试；Normalize 串联全部阶段且从不返回错误。
package normalizer

import (
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Normalizer 持有编译好的配置，构造后只读，可在多个 goroutine 间共享
type Normalizer struct {
	cfg      Config
	sections []compiledSection
	scaffold scaffold

	roleRegex        *regexp.Regexp
	institutionRegex *regexp.Regexp
	locationRegex    *regexp.Regexp

	logger zerolog.Logger
}

// Option Normalizer 选项
type Option func(*Normalizer)

// WithLogger 设置日志记录器，默认不输出
func WithLogger(logger zerolog.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logger.With().Str("component", "normalizer").Logger()
	}
}

// New 校验并编译配置
func New(cfg Config, opts ...Option) (*Normalizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	sections, err := compileSections(cfg.CanonicalSections)
	if err != nil {
		return nil, newConfigError("canonical_sections", "编译章节表失败", err)
	}

	n := &Normalizer{
		cfg:              cfg,
		sections:         sections,
		scaffold:         compileScaffold(cfg.ScaffoldMarkers),
		roleRegex:        keywordRegex(cfg.RoleKeywords),
		institutionRegex: keywordRegex(cfg.InstitutionKeywords),
		locationRegex:    keywordRegex(cfg.LocationKeywords),
		logger:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// MustNew 与 New 相同，配置非法时 panic，用于默认配置和测试
func MustNew(cfg Config, opts ...Option) *Normalizer {
	n, err := New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return n
}

// Default 使用默认配置
func Default(opts ...Option) *Normalizer {
	return MustNew(DefaultConfig(), opts...)
}

// Config 返回生效的配置
func (n *Normalizer) Config() Config {
	return n.cfg
}

// Normalize 执行完整流水线。空输入返回空模型。
func (n *Normalizer) Normalize(raw string) *SectionModel {
	start := time.Now()
	if strings.TrimSpace(raw) == "" {
		return newSectionModel(HeaderBlock{}, nil)
	}

	text := n.StripScaffold(raw)
	text = RepairArtifacts(text)
	lines := splitLines(text)

	hdr := n.RestructureHeader(lines)
	body := lines[hdr.Consumed:]

	body, stats := n.eliminateDuplicates(body)
	body = splitLines(NormalizeMarkup(strings.Join(body, "\n")))

	buckets := n.Partition(body)
	sections := make([]Section, 0, len(buckets))
	for _, b := range buckets {
		content := n.FormatSection(b.Name, b.Lines)
		if b.Name == SectionHeader && content == "" {
			continue
		}
		sections = append(sections, Section{
			Key:     b.Key,
			Name:    b.Name,
			Title:   b.Title,
			Content: content,
		})
	}

	model := newSectionModel(hdr.Block, sections)
	n.logger.Debug().
		Bool("header", hdr.OK).
		Int("sections", model.Len()).
		Int("duplicate_blocks", stats.RawBlocks-stats.Kept).
		Dur("elapsed", time.Since(start)).
		Msg("简历文本规范化完成")
	return model
}
