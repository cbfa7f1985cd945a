package machine

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// 默认生成参数，与 Arduino 工程约定一致
const (
	DefaultBaseName       = "StateMachine"
	DefaultPlatformHeader = "Arduino.h"
)

// 生成代码中的固定符号
const (
	runFuncName        = "stateRun"
	transitionFuncName = "stateTransition"
	enumName           = "State"
	currentVar         = "state"
	nextVar            = "nextState"
)

// Option 生成器选项
type Option func(*Generator)

// WithBaseName 设置产物基础名称，决定 include guard 和头文件名
func WithBaseName(name string) Option {
	return func(g *Generator) {
		if name != "" {
			g.baseName = name
		}
	}
}

// WithPlatformHeader 设置目标平台头文件
func WithPlatformHeader(header string) Option {
	return func(g *Generator) {
		if header != "" {
			g.platformHeader = header
		}
	}
}

// WithDiagram 在头文件中插入 ASCII 流程图注释
func WithDiagram(enabled bool) Option {
	return func(g *Generator) {
		g.diagram = enabled
	}
}

// Generator C 源码生成器
// 纯函数：不做 I/O，同一个 StateMachine 多次生成的结果完全一致
type Generator struct {
	baseName       string
	platformHeader string
	diagram        bool
}

// NewGenerator 创建生成器
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		baseName:       DefaultBaseName,
		platformHeader: DefaultPlatformHeader,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// HeaderName 头文件名，如 StateMachine.h
func (g *Generator) HeaderName() string {
	return g.baseName + ".h"
}

// ImplementationName 实现文件名，ext 不含点，如 cpp
func (g *Generator) ImplementationName(ext string) string {
	return g.baseName + "." + ext
}

// ToHeaderSource 使用默认参数生成头文件
func (m *StateMachine) ToHeaderSource() []string {
	return NewGenerator().Header(m)
}

// ToImplementationSource 使用默认参数生成实现文件
func (m *StateMachine) ToImplementationSource() []string {
	return NewGenerator().Implementation(m)
}

// Header 生成头文件
func (g *Generator) Header(m *StateMachine) []string {
	b := &sourceBuilder{}
	guard := g.baseName + "_h"

	b.Linef("#ifndef %s", guard)
	b.Linef("#define %s", guard)
	b.Blank()

	if g.diagram {
		b.Lines(NewDiagramRenderer(m).RenderAsComment()...)
		b.Blank()
	}

	b.Line("// definition of state values")
	b.Linef("enum %s {", enumName)
	b.Line("\t" + strings.Join(m.StateNames(), ", "))
	b.Line("};")
	b.Blank()
	b.Linef("extern void %s();", runFuncName)
	b.Linef("extern void %s();", transitionFuncName)
	b.Blank()
	b.Line("#endif")

	return b.Result()
}

// Implementation 生成实现文件
func (g *Generator) Implementation(m *StateMachine) []string {
	b := &sourceBuilder{}

	// 标准头文件
	b.Linef("#include \"%s\"", g.platformHeader)
	b.Linef("#include \"%s\"", g.HeaderName())
	b.Blank()

	// 动作函数声明
	for _, action := range collectActions(m) {
		b.Linef("extern void %s();", action)
	}
	b.Blank()

	// 谓词函数声明
	for _, predicate := range collectPredicates(m) {
		b.Linef("extern bool %s();", predicate)
	}
	b.Blank()

	// 当前状态
	b.Line("// the current state")
	b.Linef("static enum %s %s = %s;", enumName, currentVar, m.Start)
	b.Blank()

	g.writeRunDispatcher(b, m)
	b.Blank()
	g.writeTransitionEvaluator(b, m)

	return b.Result()
}

// writeRunDispatcher 生成 stateRun
func (g *Generator) writeRunDispatcher(b *sourceBuilder, m *StateMachine) {
	b.Linef("void %s() {", runFuncName)
	b.Linef("\tswitch (%s) {", currentVar)
	for _, st := range m.States {
		b.Linef("\tcase %s:", st.Name)
		b.Linef("\t\t%s();", st.Action)
		b.Line("\t\tbreak;")
	}
	b.Line("\t}")
	b.Line("}")
}

// writeTransitionEvaluator 生成 stateTransition
func (g *Generator) writeTransitionEvaluator(b *sourceBuilder, m *StateMachine) {
	b.Linef("void %s() {", transitionFuncName)
	b.Linef("\tenum %s %s = %s;", enumName, nextVar, currentVar)
	b.Linef("\tswitch (%s) {", currentVar)
	for _, st := range m.States {
		b.Linef("\tcase %s:", st.Name)
		g.writeTransitionChain(b, st.Transitions)
		b.Line("\t\tbreak;")
	}
	b.Line("\t}")
	b.Linef("\tif (%s != %s) {", nextVar, currentVar)
	b.Linef("\t\t%s = %s;", currentVar, nextVar)
	b.Line("\t}")
	b.Line("}")
}

// writeTransitionChain 生成单个状态的 if / else if / else 链
// 无条件流转会结束整个链，其后的流转不可达，不再生成
func (g *Generator) writeTransitionChain(b *sourceBuilder, transitions []Transition) {
	if len(transitions) == 0 {
		return
	}

	// 首条即无条件：直接赋值，不生成分支
	if transitions[0].IsUnconditional() {
		b.Linef("\t\t%s = %s;", nextVar, transitions[0].Target)
		return
	}

	for i, t := range transitions {
		if t.IsUnconditional() {
			b.Line("\t\t} else {")
			b.Linef("\t\t\t%s = %s;", nextVar, t.Target)
			break
		}
		prefix := ""
		if i > 0 {
			prefix = "} else "
		}
		b.Linef("\t\t%sif (%s) {", prefix, t.Predicate.Call())
		b.Linef("\t\t\t%s = %s;", nextVar, t.Target)
	}
	b.Line("\t\t}")
}

// collectActions 收集去重后的动作函数名（保持首次出现顺序）
func collectActions(m *StateMachine) []string {
	return lo.Uniq(lo.Map(m.States, func(st State, _ int) string {
		return st.Action
	}))
}

// collectPredicates 收集去重后的谓词函数名（保持首次出现顺序，去掉取反前缀）
func collectPredicates(m *StateMachine) []string {
	transitions := lo.FlatMap(m.States, func(st State, _ int) []Transition {
		return st.Transitions
	})
	return lo.Uniq(lo.FilterMap(transitions, func(t Transition, _ int) (string, bool) {
		return t.Predicate.Name, !t.IsUnconditional()
	}))
}

// sourceBuilder 按行累积生成的源码
type sourceBuilder struct {
	lines []string
}

func (b *sourceBuilder) Line(s string) {
	b.lines = append(b.lines, s)
}

func (b *sourceBuilder) Linef(format string, args ...any) {
	b.lines = append(b.lines, fmt.Sprintf(format, args...))
}

func (b *sourceBuilder) Lines(lines ...string) {
	b.lines = append(b.lines, lines...)
}

func (b *sourceBuilder) Blank() {
	b.lines = append(b.lines, "")
}

func (b *sourceBuilder) Result() []string {
	if b.lines == nil {
		return []string{}
	}
	return b.lines
}
