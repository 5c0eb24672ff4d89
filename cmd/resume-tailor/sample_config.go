package main

import (
	"fmt"

	"resume-tailor/internal/config"

	"github.com/spf13/pflag"
)

// runSampleConfig resume-tailor sample-config [-o config.yaml]
func runSampleConfig(args []string) error {
	var out string
	fs := pflag.NewFlagSet("sample-config", pflag.ExitOnError)
	fs.StringVarP(&out, "out", "o", "config.yaml", "输出路径，已存在时不覆盖")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := config.CreateSampleConfig(out); err != nil {
		return err
	}
	fmt.Printf("示例配置已写入 %s\n", out)
	return nil
}
