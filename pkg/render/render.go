// Package render 将规范化后的简历模型输出为 Markdown、HTML、PDF 和 DOCX 文件。
// 渲染器只读取 normalizer.SectionModel，不再对文本做任何清洗。
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resume-tailor/pkg/normalizer"
)

// Format 输出格式
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
)

// Formats 支持的全部格式
var Formats = []Format{FormatMarkdown, FormatHTML, FormatPDF, FormatDOCX}

var (
	// ErrUnsupportedFormat 不支持的输出格式
	ErrUnsupportedFormat = errors.New("不支持的输出格式")
	// ErrUnsupportedStyle 不支持的样式
	ErrUnsupportedStyle = errors.New("不支持的样式")
	// ErrEmptyModel 模型中没有任何内容
	ErrEmptyModel = errors.New("简历模型为空")
)

// ParseFormat 解析格式名，接受 markdown、htm 等别名
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "pdf":
		return FormatPDF, nil
	case "docx", "word":
		return FormatDOCX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Extension 文件扩展名，不含点
func (f Format) Extension() string {
	return string(f)
}

// ContentType 对应的 MIME 类型
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

// Style 视觉样式
type Style string

const (
	StyleModern  Style = "modern"
	StyleClassic Style = "classic"
	StyleMinimal Style = "minimal"
)

// ParseStyle 解析样式名，空字符串返回 modern
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case "", StyleModern:
		return StyleModern, nil
	case StyleClassic:
		return StyleClassic, nil
	case StyleMinimal:
		return StyleMinimal, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedStyle, s)
}

// Renderer 把简历模型渲染为某种格式的字节
type Renderer interface {
	Format() Format
	Render(ctx context.Context, model *normalizer.SectionModel) ([]byte, error)
}

// ContactClassifier 识别联系方式类别，用于生成链接
type ContactClassifier interface {
	ClassifyContact(item string) normalizer.ContactKind
}

// Options 渲染器公共选项
type Options struct {
	Style      Style
	Classifier ContactClassifier
	PDF        PDFOptions
}

// Option 修改渲染选项
type Option func(*Options)

// WithStyle 设置视觉样式
func WithStyle(s Style) Option {
	return func(o *Options) { o.Style = s }
}

// WithClassifier 设置联系方式识别器，默认使用 normalizer.Default()
func WithClassifier(c ContactClassifier) Option {
	return func(o *Options) { o.Classifier = c }
}

// WithPDFOptions 设置 PDF 渲染参数
func WithPDFOptions(p PDFOptions) Option {
	return func(o *Options) { o.PDF = p }
}

func buildOptions(opts []Option) Options {
	o := Options{Style: StyleModern}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Style == "" {
		o.Style = StyleModern
	}
	if o.Classifier == nil {
		o.Classifier = normalizer.Default()
	}
	return o
}

// New 按格式创建渲染器
func New(format Format, opts ...Option) (Renderer, error) {
	o := buildOptions(opts)
	if _, err := ParseStyle(string(o.Style)); err != nil {
		return nil, err
	}
	switch format {
	case FormatMarkdown:
		return &MarkdownRenderer{}, nil
	case FormatHTML:
		return &HTMLRenderer{opts: o}, nil
	case FormatPDF:
		return &PDFRenderer{html: &HTMLRenderer{opts: o}, opts: o.PDF.withDefaults()}, nil
	case FormatDOCX:
		return &DOCXRenderer{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

func checkModel(model *normalizer.SectionModel) error {
	if model == nil || model.IsEmpty() {
		return ErrEmptyModel
	}
	return nil
}
