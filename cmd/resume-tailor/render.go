package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"resume-tailor/internal/extract"
	"resume-tailor/pkg/normalizer"
	"resume-tailor/pkg/render"

	"github.com/spf13/pflag"
)

// runRender resume-tailor render -i resume.txt --formats pdf,docx --out-dir output
func runRender(args []string) error {
	var (
		g       globalFlags
		input   string
		formats string
		style   string
		outDir  string
	)
	fs := pflag.NewFlagSet("render", pflag.ExitOnError)
	g.register(fs)
	fs.StringVarP(&input, "input", "i", "", "输入文件 (.pdf/.txt/.md)，\"-\" 表示标准输入 (必填)")
	fs.StringVarP(&formats, "formats", "f", "", "输出格式，逗号分隔 (md,html,pdf,docx)，为空时使用配置")
	fs.StringVarP(&style, "style", "s", "", "样式: modern, classic, minimal")
	fs.StringVar(&outDir, "out-dir", "output", "输出目录")
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

	fmtList, err := a.parseFormats(formats)
	if err != nil {
		return err
	}
	opts, err := a.renderOptions(style)
	if err != nil {
		return err
	}

	ex, err := extract.New(ctx, extract.WithLogger(a.logger))
	if err != nil {
		return err
	}
	text, err := readInput(ctx, ex, input)
	if err != nil {
		return err
	}

	model := a.norm.Normalize(text)
	if model.IsEmpty() {
		return errors.New("输入中没有可渲染的内容")
	}
	paths, err := renderFiles(ctx, model, fmtList, opts, outDir, baseName(input))
	for _, p := range paths {
		fmt.Println(p)
	}
	return err
}

// renderFiles 逐个格式渲染并写入 outDir，返回已写出的文件
func renderFiles(ctx context.Context, model *normalizer.SectionModel, formats []render.Format, opts []render.Option, outDir, base string) ([]string, error) {
	var paths []string
	for _, f := range formats {
		r, err := render.New(f, opts...)
		if err != nil {
			return paths, err
		}
		data, err := r.Render(ctx, model)
		if err != nil {
			return paths, fmt.Errorf("渲染 %s 失败: %w", f, err)
		}
		p := filepath.Join(outDir, base+"."+f.Extension())
		if err := writeOutput(p, data); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
