package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"resume-tailor/internal/config"
	"resume-tailor/internal/extract"
	"resume-tailor/internal/storage"
	"resume-tailor/internal/tailor"
	"resume-tailor/internal/tracing"
	"resume-tailor/pkg/llm"

	"github.com/spf13/pflag"
)

// runTailor resume-tailor tailor -i resume.pdf --jd job.txt --tone confident --formats pdf,md
func runTailor(args []string) error {
	var (
		g       globalFlags
		input   string
		jdFile  string
		jdText  string
		tone    string
		focus   string
		formats string
		style   string
		outDir  string
		noCache bool
	)
	fs := pflag.NewFlagSet("tailor", pflag.ExitOnError)
	g.register(fs)
	fs.StringVarP(&input, "input", "i", "", "简历文件 (.pdf/.txt/.md) (必填)")
	fs.StringVar(&jdFile, "jd", "", "职位描述文件")
	fs.StringVar(&jdText, "jd-text", "", "职位描述文本，与 --jd 二选一")
	fs.StringVarP(&tone, "tone", "t", "professional", "语气: professional, confident, friendly")
	fs.StringVar(&focus, "focus", "", "需要突出的方面，逗号分隔")
	fs.StringVarP(&formats, "formats", "f", "", "输出格式，逗号分隔 (md,html,pdf,docx)，为空时使用配置")
	fs.StringVarP(&style, "style", "s", "", "样式: modern, classic, minimal")
	fs.StringVar(&outDir, "out-dir", "output", "输出目录")
	fs.BoolVar(&noCache, "no-cache", false, "忽略已缓存的模型输出")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if jdFile == "" && jdText == "" {
		return errors.New("必须通过 --jd 或 --jd-text 提供职位描述")
	}

	a, err := newApp(g)
	if err != nil {
		return err
	}
	ctx := context.Background()

	shutdown, err := tracing.InitProvider(ctx, a.cfg.Tracing, version)
	if err != nil {
		a.logger.Warn().Err(err).Msg("初始化链路追踪失败，继续执行")
	} else {
		defer shutdown(context.Background())
	}

	fmtList, err := a.parseFormats(formats)
	if err != nil {
		return err
	}

	ex, err := extract.New(ctx, extract.WithLogger(a.logger))
	if err != nil {
		return err
	}
	resume, err := readInput(ctx, ex, input)
	if err != nil {
		return fmt.Errorf("读取简历失败: %w", err)
	}
	jd := jdText
	if jdFile != "" {
		if jd, err = readInput(ctx, ex, jdFile); err != nil {
			return fmt.Errorf("读取职位描述失败: %w", err)
		}
	}

	store, err := storage.NewStorage(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	svc, err := a.tailorService(store, style)
	if err != nil {
		return err
	}

	timeout := config.GetDuration(a.cfg.Server.RequestTimeout, 0)
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := svc.Tailor(ctx, tailor.Request{
		Resume:         resume,
		JobDescription: jd,
		Tone:           tone,
		FocusAreas:     llm.SplitFocusAreas(focus),
		Formats:        fmtList,
		SkipCache:      noCache,
	})
	if err != nil {
		return err
	}

	base := baseName(input) + "_tailored"
	for _, art := range result.Artifacts {
		p := filepath.Join(outDir, base+"."+art.Format.Extension())
		if err := writeOutput(p, art.Data); err != nil {
			return err
		}
		fmt.Println(p)
	}

	m := result.Metrics
	a.logger.Info().
		Str("run_id", result.RunID).
		Bool("cached", result.Cached).
		Int("tokens", result.TokensUsed).
		Float64("original_match", m.OriginalKeywordMatch).
		Float64("tailored_match", m.TailoredKeywordMatch).
		Float64("improvement", m.ImprovementPercentage).
		Msg("定制完成")
	return nil
}
