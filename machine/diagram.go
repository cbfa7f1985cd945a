package machine

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// 流程图默认符号
const (
	defaultArrow    = "-->"
	defaultJunction = "+--"
	elseLabel       = "else"
	alwaysLabel     = "always"
)

// DiagramRenderer 将状态机渲染为按状态分组的 ASCII 流转图
//
//	IDLE --> RUN
//
//	RUN  +-- !done --> RUN
//	     +-- else  --> IDLE
type DiagramRenderer struct {
	machine *StateMachine

	Arrow    string // 箭头符号，可替换为 "──>" 等 Unicode 符号
	Junction string // 分支符号
}

// NewDiagramRenderer 创建流程图渲染器
func NewDiagramRenderer(m *StateMachine) *DiagramRenderer {
	return &DiagramRenderer{
		machine:  m,
		Arrow:    defaultArrow,
		Junction: defaultJunction,
	}
}

// Render 渲染流程图，每个元素为一行
func (r *DiagramRenderer) Render() []string {
	lines := []string{"state flow (start: " + r.machine.Start + ")"}

	nameWidth := 0
	for _, st := range r.machine.States {
		nameWidth = max(nameWidth, runewidth.StringWidth(st.Name))
	}

	for _, st := range r.machine.States {
		lines = append(lines, "")
		lines = append(lines, r.renderState(st, nameWidth)...)
	}
	return lines
}

// renderState 渲染单个状态的所有出边
func (r *DiagramRenderer) renderState(st State, nameWidth int) []string {
	name := runewidth.FillRight(st.Name, nameWidth)
	ts := st.Transitions

	switch {
	case len(ts) == 0:
		return []string{name + "  (no transitions)"}
	case len(ts) == 1 && ts[0].IsUnconditional():
		return []string{trimRight(name + " " + r.Arrow + " " + ts[0].Target)}
	}

	labels := make([]string, len(ts))
	labelWidth := 0
	for i, t := range ts {
		labels[i] = transitionLabel(i, t)
		labelWidth = max(labelWidth, runewidth.StringWidth(labels[i]))
	}

	indent := strings.Repeat(" ", nameWidth)
	lines := make([]string, 0, len(ts))
	for i, t := range ts {
		lead := indent
		if i == 0 {
			lead = name
		}
		line := lead + " " + r.Junction + " " + runewidth.FillRight(labels[i], labelWidth) + " " + r.Arrow + " " + t.Target
		lines = append(lines, trimRight(line))
	}
	return lines
}

// RenderAsComment 渲染为 C 块注释
func (r *DiagramRenderer) RenderAsComment() []string {
	body := r.Render()
	lines := make([]string, 0, len(body)+2)
	lines = append(lines, "/*")
	for _, line := range body {
		if line == "" {
			lines = append(lines, " *")
			continue
		}
		lines = append(lines, " * "+line)
	}
	lines = append(lines, " */")
	return lines
}

// transitionLabel 流转的显示标签
func transitionLabel(index int, t Transition) string {
	if !t.IsUnconditional() {
		return t.Predicate.String()
	}
	if index == 0 {
		return alwaysLabel
	}
	return elseLabel
}

func trimRight(s string) string {
	return strings.TrimRight(s, " ")
}
