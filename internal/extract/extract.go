// Package extract 把上传的简历或职位描述文件转换成纯文本
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout 单个文件的解析超时
	DefaultTimeout = 30 * time.Second
	// MaxFileSize 可接受的最大文件
	MaxFileSize = 10 << 20
)

var (
	ErrUnsupportedType = errors.New("不支持的文件类型")
	ErrEmptyDocument   = errors.New("文件中没有可提取的文本")
	ErrFileTooLarge    = errors.New("文件过大")
	ErrInvalidEncoding = errors.New("文本文件不是有效的 UTF-8")
)

// Result 提取结果
type Result struct {
	Text     string         `json:"text"`
	Source   string         `json:"source"`
	Kind     string         `json:"kind"` // pdf 或 text
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Extractor 按扩展名分派：PDF 走 Eino 解析器，文本类直接读取
type Extractor struct {
	parser  *pdf.PDFParser
	logger  zerolog.Logger
	timeout time.Duration
}

// Option Extractor 配置项
type Option func(*Extractor)

// WithLogger 设置日志记录器
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger.With().Str("component", "extract").Logger()
	}
}

// WithTimeout 设置 PDF 解析超时
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// New 创建提取器。PDF 不按页拆分，整份文档作为一段文本返回。
func New(ctx context.Context, opts ...Option) (*Extractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("创建 PDF 解析器失败: %w", err)
	}
	e := &Extractor{
		parser:  p,
		logger:  zerolog.Nop(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

var textExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".text":     true,
}

// Supported 是否能处理该文件名
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".pdf" || textExtensions[ext]
}

// ExtractFile 读取本地文件
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*Result, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开文件 %s 失败: %w", path, err)
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %s (%d 字节)", ErrFileTooLarge, path, info.Size())
	}
	return e.Extract(ctx, f, path)
}

// Extract 按 name 的扩展名解析 reader 中的内容
func (e *Extractor) Extract(ctx context.Context, r io.Reader, name string) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(name))
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", name, err)
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, name)
	}

	switch {
	case ext == ".pdf":
		return e.extractPDF(ctx, data, name)
	case textExtensions[ext]:
		return extractText(data, name)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
}

func extractText(data []byte, name string) (*Result, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEncoding, name)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, name)
	}
	return &Result{Text: text, Source: name, Kind: "text"}, nil
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte, name string) (*Result, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	docs, err := e.parser.Parse(ctx, bytes.NewReader(data),
		einoParser.WithURI(name),
		einoParser.WithExtraMeta(map[string]any{"source": name}),
	)
	if err != nil {
		e.logger.Warn().Err(err).Str("source", name).Dur("elapsed", time.Since(start)).Msg("PDF 解析失败")
		return nil, fmt.Errorf("解析 PDF %s 失败: %w", name, err)
	}

	var b strings.Builder
	meta := map[string]any{}
	for i, doc := range docs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(doc.Content)
		if i == 0 {
			for k, v := range doc.MetaData {
				meta[k] = v
			}
		}
	}
	text := b.String()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, name)
	}

	meta["document_count"] = len(docs)
	meta["processing_duration_ms"] = time.Since(start).Milliseconds()
	e.logger.Debug().
		Str("source", name).
		Int("chars", utf8.RuneCountInString(text)).
		Dur("elapsed", time.Since(start)).
		Msg("PDF 文本提取完成")
	return &Result{Text: text, Source: name, Kind: "pdf", Metadata: meta}, nil
}
