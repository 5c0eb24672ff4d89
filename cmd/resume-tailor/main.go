package main

import (
	"fmt"
	"os"
)

var (
	version     = "0.1.0"         //nolint:gochecknoglobals
	serviceName = "resume-tailor" //nolint:gochecknoglobals
)

type command struct {
	name  string
	usage string
	run   func(args []string) error
}

var commands = []command{
	{"normalize", "规范化简历文本，输出章节模型 (json|text|md)", runNormalize},
	{"render", "规范化后渲染为 md/html/pdf/docx 文件", runRender},
	{"tailor", "调用大模型按职位描述定制简历并输出文件", runTailor},
	{"serve", "启动 HTTP API 服务", runServe},
	{"sample-config", "生成示例配置文件", runSampleConfig},
}

func usage() {
	fmt.Fprintf(os.Stderr, "%s %s\n\n用法: %s <命令> [参数]\n\n命令:\n", serviceName, version, serviceName)
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-14s %s\n", c.name, c.usage)
	}
	fmt.Fprintf(os.Stderr, "\n使用 \"%s <命令> -h\" 查看命令参数\n", serviceName)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	name := os.Args[1]
	switch name {
	case "-h", "--help", "help":
		usage()
		return
	case "-v", "--version", "version":
		fmt.Println(version)
		return
	}

	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "错误: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "错误: 未知命令 '%s'\n\n", name)
	usage()
	os.Exit(2)
}
