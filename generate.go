package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/donutnomad/cstategen/artifact"
	"github.com/donutnomad/cstategen/loader"
	"github.com/donutnomad/cstategen/machine"
)

// GenOptions 一次生成的选项
type GenOptions struct {
	Input     string // 输入文档路径
	OutputDir string // 输出目录，默认当前目录
	BaseName  string // 产物基础名称
	Platform  string // 平台头文件
	Ext       string // 实现文件扩展名
	Diagram   bool   // 头文件中生成流程图注释
	NoCheck   bool   // 跳过引用完整性校验
	Verbose   bool   // 详细输出

	Stdout io.Writer // 默认 os.Stdout
}

// GenStats 生成统计信息
type GenStats struct {
	LoadDuration     time.Duration // 加载耗时
	GenerateDuration time.Duration // 生成耗时
	WriteDuration    time.Duration // 写入耗时
	TotalDuration    time.Duration // 总耗时
	StateCount       int           // 状态数量
	Written          int           // 写入的文件数量
	Unchanged        int           // 内容未变化的文件数量
}

// dumper 详细模式下打印解析后的模型
var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// generate 加载 -> 校验 -> 生成两个产物 -> 仅在变化时写入
// 任何一步失败都不会写入文件
func generate(opts *GenOptions) (*GenStats, error) {
	totalStart := time.Now()
	stats := &GenStats{}

	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}

	// 加载
	loadStart := time.Now()
	m, err := loader.Load(opts.Input)
	if err != nil {
		return nil, err
	}
	stats.LoadDuration = time.Since(loadStart)
	stats.StateCount = len(m.States)
	fmt.Fprintf(out, "输入解析成功: %s (%d 个状态)\n", opts.Input, stats.StateCount)

	if opts.Verbose {
		dumper.Fdump(out, m)
	}

	// 校验
	if !opts.NoCheck {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("状态机校验失败:\n%w", err)
		}
	}

	// 生成
	generateStart := time.Now()
	artifacts := buildArtifacts(m, opts)
	stats.GenerateDuration = time.Since(generateStart)

	// 写入
	writeStart := time.Now()
	writer := artifact.NewWriter(opts.OutputDir, artifact.WithVerbose(opts.Verbose), artifact.WithOutput(out))
	for _, a := range artifacts {
		status, err := writer.Write(a)
		if err != nil {
			return nil, err
		}
		if status.Written() {
			stats.Written++
			fmt.Fprintf(out, "生成文件: %s\n", writer.Path(a))
		} else {
			stats.Unchanged++
			fmt.Fprintf(out, "文件未变化: %s\n", writer.Path(a))
		}
	}
	stats.WriteDuration = time.Since(writeStart)
	stats.TotalDuration = time.Since(totalStart)

	return stats, nil
}

// buildArtifacts 生成头文件和实现文件
func buildArtifacts(m *machine.StateMachine, opts *GenOptions) []artifact.Artifact {
	ext := strings.TrimPrefix(opts.Ext, ".")
	if ext == "" {
		ext = "cpp"
	}

	gen := machine.NewGenerator(
		machine.WithBaseName(opts.BaseName),
		machine.WithPlatformHeader(opts.Platform),
		machine.WithDiagram(opts.Diagram),
	)

	return []artifact.Artifact{
		{Name: gen.HeaderName(), Lines: gen.Header(m)},
		{Name: gen.ImplementationName(ext), Lines: gen.Implementation(m)},
	}
}
