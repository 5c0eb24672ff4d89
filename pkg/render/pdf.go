package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"resume-tailor/pkg/normalizer"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const (
	// DefaultPDFTimeout 启动浏览器并打印的总超时
	DefaultPDFTimeout = 60 * time.Second

	// A4 纸张尺寸，单位英寸
	a4WidthInches  = 8.27
	a4HeightInches = 11.69
)

// PDFOptions 无头浏览器参数
type PDFOptions struct {
	ExecPath string        `yaml:"exec_path"` // 浏览器路径，为空时读取 CHROME_PATH 环境变量
	Timeout  time.Duration `yaml:"timeout"`
}

func (o PDFOptions) withDefaults() PDFOptions {
	if o.ExecPath == "" {
		o.ExecPath = os.Getenv("CHROME_PATH")
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultPDFTimeout
	}
	return o
}

// PDFRenderer 先渲染 HTML，再由无头 Chrome 打印为 PDF
type PDFRenderer struct {
	html *HTMLRenderer
	opts PDFOptions
}

// NewPDFRenderer 创建 PDF 渲染器
func NewPDFRenderer(opts ...Option) *PDFRenderer {
	o := buildOptions(opts)
	return &PDFRenderer{html: &HTMLRenderer{opts: o}, opts: o.PDF.withDefaults()}
}

func (r *PDFRenderer) Format() Format { return FormatPDF }

// Render 渲染 PDF
func (r *PDFRenderer) Render(ctx context.Context, model *normalizer.SectionModel) ([]byte, error) {
	html, err := r.html.Render(ctx, model)
	if err != nil {
		return nil, err
	}
	return r.PrintHTML(ctx, html)
}

// PrintHTML 把 HTML 写入临时目录后用浏览器打开并打印
func (r *PDFRenderer) PrintHTML(ctx context.Context, html []byte) ([]byte, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, r.opts.Timeout)
	defer cancelRun()

	tmpDir, err := os.MkdirTemp("", "resume-render-")
	if err != nil {
		return nil, fmt.Errorf("创建临时目录失败: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	htmlPath := filepath.Join(tmpDir, "index.html")
	if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
		return nil, fmt.Errorf("写入临时 HTML 失败: %w", err)
	}

	var pdf []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate("file://"+htmlPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4WidthInches).
				WithPaperHeight(a4HeightInches).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("浏览器打印 PDF 失败: %w", err)
	}
	return pdf, nil
}
