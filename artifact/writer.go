package artifact

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/pmezard/go-difflib/difflib"
)

// Artifact 一个生成产物（头文件或实现文件）
type Artifact struct {
	Name  string   // 文件名，相对于输出目录
	Lines []string // 文件内容，每个元素一行
}

// Content 返回写入磁盘的内容，每行以 \n 结尾
func (a Artifact) Content() []byte {
	var buf bytes.Buffer
	for _, line := range a.Lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Status 写入结果
type Status int

const (
	StatusUnchanged Status = iota // 内容相同，未写入
	StatusCreated                 // 新建文件
	StatusUpdated                 // 覆盖已有文件
)

func (s Status) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusCreated:
		return "created"
	case StatusUpdated:
		return "updated"
	default:
		return "unknown"
	}
}

// Written 是否实际写入了磁盘
func (s Status) Written() bool {
	return s == StatusCreated || s == StatusUpdated
}

// Option 写入器选项
type Option func(*Writer)

// WithVerbose 覆盖文件时输出 unified diff
func WithVerbose(v bool) Option {
	return func(w *Writer) {
		w.verbose = v
	}
}

// WithOutput 设置 diff 输出目标，默认 os.Stdout
func WithOutput(out io.Writer) Option {
	return func(w *Writer) {
		w.out = out
	}
}

// Writer 将产物写入目录，内容未变化时不触碰文件
// 保持文件修改时间不变，构建系统不会因重复生成而重新编译
type Writer struct {
	dir     string
	verbose bool
	out     io.Writer
}

// NewWriter 创建写入器，dir 为空时使用当前目录
func NewWriter(dir string, opts ...Option) *Writer {
	if dir == "" {
		dir = "."
	}
	w := &Writer{dir: dir, out: os.Stdout}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Path 产物的完整路径
func (w *Writer) Path(a Artifact) string {
	return filepath.Join(w.dir, a.Name)
}

// Write 比较已有文件内容，仅在不同时写入
func (w *Writer) Write(a Artifact) (Status, error) {
	path := w.Path(a)

	existing, err := readLines(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		existing = nil
	case err != nil:
		return StatusUnchanged, fmt.Errorf("读取 %s 失败: %w", path, err)
	case slices.Equal(existing, a.Lines):
		return StatusUnchanged, nil
	}

	status := StatusCreated
	if existing != nil {
		status = StatusUpdated
		if w.verbose {
			w.printDiff(path, existing, a.Lines)
		}
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return StatusUnchanged, fmt.Errorf("创建目录失败: %w", err)
	}
	if err := os.WriteFile(path, a.Content(), 0644); err != nil {
		return StatusUnchanged, fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return status, nil
}

// WriteAll 按顺序写入所有产物，遇到错误立即停止
func (w *Writer) WriteAll(artifacts ...Artifact) ([]Status, error) {
	statuses := make([]Status, 0, len(artifacts))
	for _, a := range artifacts {
		status, err := w.Write(a)
		if err != nil {
			return statuses, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// printDiff 输出新旧内容的 unified diff
func (w *Writer) printDiff(path string, before, after []string) {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        withNewlines(before),
		B:        withNewlines(after),
		FromFile: path + " (当前)",
		ToFile:   path + " (生成)",
		Context:  2,
	})
	if err != nil || diff == "" {
		return
	}
	_, _ = fmt.Fprint(w.out, diff)
}

// readLines 按行读取文件，兼容 \n 和 \r\n
// 已存在但为空的文件返回空切片（非 nil）
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines := []string{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func withNewlines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line + "\n"
	}
	return out
}
