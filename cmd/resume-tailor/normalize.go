package main

import (
	"context"
	"encoding/json"
	"fmt"

	"resume-tailor/internal/extract"
	"resume-tailor/pkg/render"

	"github.com/spf13/pflag"
)

// runNormalize resume-tailor normalize -i resume.pdf [--output json|text|md] [-o out]
func runNormalize(args []string) error {
	var (
		g      globalFlags
		input  string
		output string
		format string
	)
	fs := pflag.NewFlagSet("normalize", pflag.ExitOnError)
	g.register(fs)
	fs.StringVarP(&input, "input", "i", "", "输入文件 (.pdf/.txt/.md)，\"-\" 表示标准输入 (必填)")
	fs.StringVarP(&output, "out", "o", "", "输出文件，为空时写标准输出")
	fs.StringVar(&format, "output", "json", "输出形式: json, text, md")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if input == "" && fs.NArg() > 0 {
		input = fs.Arg(0)
	}

	a, err := newApp(g)
	if err != nil {
		return err
	}
	ctx := context.Background()

	ex, err := extract.New(ctx, extract.WithLogger(a.logger))
	if err != nil {
		return err
	}
	text, err := readInput(ctx, ex, input)
	if err != nil {
		return err
	}

	model := a.norm.Normalize(text)
	var data []byte
	switch format {
	case "json":
		data, err = json.MarshalIndent(model, "", "  ")
		if err != nil {
			return fmt.Errorf("序列化结果失败: %w", err)
		}
		data = append(data, '\n')
	case "text":
		data = []byte(model.Text() + "\n")
	case "md", "markdown":
		r, err := render.New(render.FormatMarkdown)
		if err != nil {
			return err
		}
		if data, err = r.Render(ctx, model); err != nil {
			return err
		}
	default:
		return fmt.Errorf("不支持的输出形式 %q", format)
	}

	a.logger.Debug().Int("sections", model.Len()).Str("header", model.Header().Name).Msg("规范化完成")
	return writeOutput(output, data)
}
