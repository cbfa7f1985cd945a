package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DevOptions dev 命令选项
type DevOptions struct {
	Gen      *GenOptions   // 每次触发时的生成选项
	Debounce time.Duration // 防抖动时间
}

// devRunner 处理文件变动的核心逻辑
type devRunner struct {
	opts    *DevOptions
	watcher *fsnotify.Watcher
	target  string          // 输入文件的绝对路径
	ctx     context.Context // 用于响应退出信号

	// 防抖动相关
	mu      sync.Mutex
	pending *time.Timer
	runs    int // 已触发的生成次数

	genMu sync.Mutex // 串行化生成，避免两次写入交错
}

// runDev 启动开发模式
func runDev(args []string) {
	opts := &DevOptions{
		Gen:      parseTarget(args),
		Debounce: 300 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n正在退出...")
		cancel()
	}()

	if err := dev(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// dev 先生成一次，然后监听输入文件，直到 ctx 取消
func dev(ctx context.Context, opts *DevOptions) error {
	target, err := filepath.Abs(opts.Gen.Input)
	if err != nil {
		return err
	}
	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("输入文件不可用: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听器失败: %w", err)
	}
	defer watcher.Close()

	// 监听所在目录：编辑器保存时常见的 rename + create 会让单文件监听失效
	dir := filepath.Dir(target)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("添加监听目录失败 %s: %w", dir, err)
	}

	runner := &devRunner{
		opts:    opts,
		watcher: watcher,
		target:  target,
		ctx:     ctx,
	}

	// 清理函数：退出时停止待处理的定时器
	defer func() {
		runner.mu.Lock()
		if runner.pending != nil {
			runner.pending.Stop()
		}
		runner.mu.Unlock()
	}()

	runner.runGenerate()

	fmt.Printf("开发模式已启动，监听 %s\n", target)
	fmt.Println("按 Ctrl+C 退出")
	fmt.Println()

	return runner.watchLoop(ctx)
}

// watchLoop 事件处理循环
func (r *devRunner) watchLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			r.handleEvent(event)

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			if r.opts.Gen.Verbose {
				fmt.Printf("监听错误: %v\n", err)
			}
		}
	}
}

// handleEvent 处理文件事件，只关注输入文件的写入和创建
func (r *devRunner) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	path, err := filepath.Abs(event.Name)
	if err != nil || path != r.target {
		return
	}

	if r.opts.Gen.Verbose {
		fmt.Printf("检测到文件变化: %s\n", path)
	}
	r.scheduleGenerate()
}

// scheduleGenerate 防抖动调度生成
func (r *devRunner) scheduleGenerate() {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 取消之前的 timer
	if r.pending != nil {
		r.pending.Stop()
	}

	r.pending = time.AfterFunc(r.opts.Debounce, func() {
		// 检查 context 是否已取消
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		r.runGenerate()
	})
}

// runGenerate 执行实际的代码生成，失败时只打印错误，继续监听
func (r *devRunner) runGenerate() {
	r.mu.Lock()
	r.runs++
	r.mu.Unlock()

	r.genMu.Lock()
	defer r.genMu.Unlock()

	stats, err := generate(r.opts.Gen)
	if err != nil {
		fmt.Printf("生成失败: %v\n", err)
		return
	}

	if stats.Written > 0 {
		fmt.Printf("生成完成: %d 个文件 (耗时: %v)\n", stats.Written, stats.TotalDuration)
	} else if r.opts.Gen.Verbose {
		fmt.Printf("生成完成: 无文件变化\n")
	}
}

// runCount 已触发的生成次数
func (r *devRunner) runCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}
