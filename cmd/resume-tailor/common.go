package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"resume-tailor/internal/config"
	"resume-tailor/internal/extract"
	"resume-tailor/internal/logger"
	"resume-tailor/internal/storage"
	"resume-tailor/internal/tailor"
	"resume-tailor/pkg/llm"
	"resume-tailor/pkg/normalizer"
	"resume-tailor/pkg/ratelimit"
	"resume-tailor/pkg/render"

	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

var errNoAPIKey = fmt.Errorf("未配置大模型 API Key，请设置 llm.api_key 或环境变量 %s", config.EnvLLMAPIKey)

// globalFlags 每个子命令都支持的参数
type globalFlags struct {
	configPath string
	verbose    bool
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&g.configPath, "config", "c", "", "配置文件路径，为空时按默认位置查找")
	fs.BoolVarP(&g.verbose, "verbose", "v", false, "输出调试日志")
}

// app 子命令共享的组件
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	norm   *normalizer.Normalizer
}

func newApp(g globalFlags) (*app, error) {
	cfg, err := config.LoadConfig(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	if g.verbose {
		cfg.Logger.Level = "debug"
	}
	if err := logger.Init(cfg.Logger); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	l := logger.Logger
	norm, err := cfg.NewNormalizer(normalizer.WithLogger(l))
	if err != nil {
		return nil, fmt.Errorf("初始化规范化器失败: %w", err)
	}
	return &app{cfg: cfg, logger: l, norm: norm}, nil
}

// renderOptions 配置中的渲染参数，style 为空时使用配置默认值
func (a *app) renderOptions(style string) ([]render.Option, error) {
	if style == "" {
		style = a.cfg.Render.Style
	}
	s, err := render.ParseStyle(style)
	if err != nil {
		return nil, err
	}
	return []render.Option{
		render.WithStyle(s),
		render.WithClassifier(a.norm),
		render.WithPDFOptions(render.PDFOptions{
			ExecPath: a.cfg.Render.ChromePath,
			Timeout:  config.GetDuration(a.cfg.Render.PDFTimeout, render.DefaultPDFTimeout),
		}),
	}, nil
}

// parseFormats 解析逗号分隔的格式列表，为空时使用配置默认值
func (a *app) parseFormats(list string) ([]render.Format, error) {
	names := a.cfg.Render.Formats
	if strings.TrimSpace(list) != "" {
		names = strings.Split(list, ",")
	}
	var formats []render.Format
	seen := make(map[render.Format]bool)
	for _, n := range names {
		if n = strings.TrimSpace(n); n == "" {
			continue
		}
		f, err := render.ParseFormat(n)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	if len(formats) == 0 {
		formats = []render.Format{render.FormatMarkdown}
	}
	return formats, nil
}

// chatModel 创建带限流与重试的聊天模型
func (a *app) chatModel() (model.ToolCallingChatModel, error) {
	c := a.cfg.LLM
	if c.APIKey == "" {
		return nil, errNoAPIKey
	}
	m, err := llm.NewChatModel(c.APIKey, c.Model, c.APIURL,
		llm.WithHTTPClient(&http.Client{Timeout: config.GetDuration(c.Timeout, llm.DefaultTimeout)}),
		llm.WithTemperature(float32(c.Temperature)),
		llm.WithMaxTokens(c.MaxTokens),
		llm.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}
	return ratelimit.NewModelWithRateLimit(m, c.Model, a.cfg.ModelQPMLimits, c.QPM, c.MaxRetries, a.cfg.RetryWait(), a.logger), nil
}

// tailorService 组装定制服务
func (a *app) tailorService(store *storage.Storage, style string) (*tailor.Service, error) {
	m, err := a.chatModel()
	if err != nil {
		return nil, err
	}
	renderOpts, err := a.renderOptions(style)
	if err != nil {
		return nil, err
	}
	formats, err := a.parseFormats("")
	if err != nil {
		return nil, err
	}

	opts := []tailor.Option{
		tailor.WithRenderOptions(renderOpts...),
		tailor.WithDefaultFormats(formats...),
		tailor.WithLogger(a.logger),
	}
	if store != nil {
		opts = append(opts, tailor.WithCache(store.Cache, a.cfg.CacheTTL()))
		if store.Artifacts != nil {
			opts = append(opts, tailor.WithArtifactStore(store.Artifacts))
		}
		if store.Runs != nil {
			opts = append(opts, tailor.WithRunHistory(store.Runs))
		}
		if store.Events != nil {
			opts = append(opts, tailor.WithEventPublisher(store.Events))
		}
	}
	return tailor.NewService(m, a.cfg.LLM.Model, a.norm, opts...)
}

// readInput 读取简历或职位描述文件，"-" 表示标准输入（按纯文本处理）
func readInput(ctx context.Context, ex *extract.Extractor, path string) (string, error) {
	if path == "" {
		return "", errors.New("未指定输入文件")
	}
	var (
		res *extract.Result
		err error
	)
	if path == "-" {
		res, err = ex.Extract(ctx, os.Stdin, "stdin.txt")
	} else {
		res, err = ex.ExtractFile(ctx, path)
	}
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// writeOutput 写入文件，path 为空或 "-" 时写标准输出
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建目录 %s 失败: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return nil
}

// baseName 输入文件名去掉扩展名，用于输出文件命名
func baseName(path string) string {
	if path == "" || path == "-" {
		return "resume"
	}
	b := filepath.Base(path)
	return strings.TrimSuffix(b, filepath.Ext(b))
}
