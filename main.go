package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/donutnomad/cstategen/machine"
)

var (
	verbose  = flag.Bool("v", false, "详细输出（打印解析后的模型和文件差异）")
	help     = flag.Bool("h", false, "显示帮助信息")
	name     = flag.String("name", machine.DefaultBaseName, "产物基础名称（决定文件名和 include guard）")
	platform = flag.String("platform", machine.DefaultPlatformHeader, "目标平台头文件")
	ext      = flag.String("ext", "cpp", "实现文件扩展名")
	diagram  = flag.Bool("diagram", false, "在头文件中生成 ASCII 流程图注释")
	noCheck  = flag.Bool("no-check", false, "跳过状态引用和标识符校验")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *help {
		usage()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	// 检查子命令，缺省为 gen
	switch args[0] {
	case "gen":
		runGen(args[1:])
	case "dev":
		runDev(args[1:])
	default:
		runGen(args)
	}
}

// parseTarget 解析位置参数: <输入文件> [输出目录]
// 参数数量不对时打印用法并退出，不做任何生成
func parseTarget(args []string) *GenOptions {
	if len(args) < 1 || len(args) > 2 {
		usage()
		os.Exit(1)
	}

	opts := &GenOptions{
		Input:     args[0],
		OutputDir: ".",
		BaseName:  *name,
		Platform:  *platform,
		Ext:       *ext,
		Diagram:   *diagram,
		NoCheck:   *noCheck,
		Verbose:   *verbose,
	}
	if len(args) == 2 {
		opts.OutputDir = args[1]
	}
	return opts
}

func runGen(args []string) {
	opts := parseTarget(args)

	stats, err := generate(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("\n统计: %d 个状态, 写入 %d 个文件, 未变化 %d 个文件\n", stats.StateCount, stats.Written, stats.Unchanged)
		fmt.Printf("耗时: 加载 %v, 生成 %v, 写入 %v, 总计 %v\n",
			stats.LoadDuration, stats.GenerateDuration, stats.WriteDuration, stats.TotalDuration)
	}
	fmt.Println("完成。")
}

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, `cstategen - 嵌入式 C 状态机代码生成工具

用法:
  cstategen [选项] <输入文件> [输出目录]
  cstategen [选项] gen <输入文件> [输出目录]
  cstategen [选项] dev <输入文件> [输出目录]

命令:
  gen     执行代码生成（默认）
  dev     启动开发模式，监听输入文件变动自动生成

输入文件:
  YAML（默认）或 JSON（.json 后缀），结构如下:
    start: IDLE
    states:
      - name: IDLE
        run: idle
        transitions:
          - predicate: "!done"   # 可省略，省略时无条件流转
            state: RUN

输出:
  <name>.h 和 <name>.<ext>，内容未变化时不会重写文件

选项:
`)
	flag.PrintDefaults()

	_, _ = fmt.Fprintf(os.Stderr, `
示例:
  cstategen machine.yaml                    生成到当前目录
  cstategen machine.yaml src/               生成到 src 目录
  cstategen -ext c -platform stdint.h m.yml 生成纯 C 工程使用的文件
  cstategen -v -diagram machine.yaml        详细模式，头文件带流程图
  cstategen dev machine.yaml src/           开发模式，监听文件变动
`)
}
