package machine

import (
	"errors"
	"fmt"
	"strings"
)

// 构造期错误
var (
	ErrEmptyStart     = errors.New("start cannot be empty")
	ErrEmptyStateName = errors.New("state name cannot be empty")
	ErrEmptyAction    = errors.New("state run action cannot be empty")
	ErrEmptyTarget    = errors.New("transition target state cannot be empty")
	ErrEmptyPredicate = errors.New("negated predicate has no identifier")
	ErrDuplicateState = errors.New("duplicate state name")
)

// negationMarker 谓词取反前缀
const negationMarker = "!"

// Predicate 转移条件
// 零值表示无条件（恒为真）
type Predicate struct {
	Name    string // 布尔函数名（不含取反前缀）
	Negated bool   // 是否对函数结果取反
}

// ParsePredicate 解析文档中的谓词写法
//   - "" 或纯空白: 无条件
//   - "foo": 调用 foo()
//   - "!foo": 调用 foo() 并取反
func ParsePredicate(s string) (Predicate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Predicate{}, nil
	}

	p := Predicate{Name: s}
	if rest, ok := strings.CutPrefix(s, negationMarker); ok {
		p.Name = strings.TrimSpace(rest)
		p.Negated = true
	}
	if p.Name == "" {
		return Predicate{}, fmt.Errorf("%w: %q", ErrEmptyPredicate, s)
	}
	return p, nil
}

// IsEmpty 是否为无条件谓词
func (p Predicate) IsEmpty() bool {
	return p.Name == ""
}

// Call 返回谓词的 C 调用表达式，如 done() 或 !done()
func (p Predicate) Call() string {
	if p.Negated {
		return negationMarker + p.Name + "()"
	}
	return p.Name + "()"
}

// String 返回文档中的写法
func (p Predicate) String() string {
	if p.Negated {
		return negationMarker + p.Name
	}
	return p.Name
}

// Transition 单条带条件的流转
type Transition struct {
	Predicate Predicate // 为空时恒为真
	Target    string    // 目标状态名（按名称引用）
}

// NewTransition 创建流转
func NewTransition(predicate, target string) (Transition, error) {
	if target == "" {
		return Transition{}, ErrEmptyTarget
	}
	p, err := ParsePredicate(predicate)
	if err != nil {
		return Transition{}, err
	}
	return Transition{Predicate: p, Target: target}, nil
}

// IsUnconditional 是否为无条件流转
func (t Transition) IsUnconditional() bool {
	return t.Predicate.IsEmpty()
}

// State 状态节点
// Transitions 按声明顺序求值，第一个为真的流转决定下一个状态
type State struct {
	Name        string
	Action      string // 处于该状态时每次运行调用的函数名
	Transitions []Transition
}

// NewState 创建状态
func NewState(name, action string, transitions []Transition) (State, error) {
	if name == "" {
		return State{}, ErrEmptyStateName
	}
	if action == "" {
		return State{}, fmt.Errorf("state %q: %w", name, ErrEmptyAction)
	}
	ts := make([]Transition, len(transitions))
	copy(ts, transitions)
	return State{Name: name, Action: action, Transitions: ts}, nil
}

// StateMachine 状态机
// States 的顺序决定枚举声明顺序和 switch case 顺序
type StateMachine struct {
	States []State
	Start  string // 初始状态名
}

// New 创建状态机
// 不检查 Start 和流转目标是否引用了已声明的状态，见 Validate
func New(start string, states []State) (*StateMachine, error) {
	if start == "" {
		return nil, ErrEmptyStart
	}

	seen := make(map[string]bool, len(states))
	for _, st := range states {
		if seen[st.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateState, st.Name)
		}
		seen[st.Name] = true
	}

	ss := make([]State, len(states))
	copy(ss, states)
	return &StateMachine{States: ss, Start: start}, nil
}

// MustNew 创建状态机，失败时 panic
func MustNew(start string, states ...State) *StateMachine {
	m, err := New(start, states)
	if err != nil {
		panic(err)
	}
	return m
}

// StateNames 返回所有状态名（保持声明顺序）
func (m *StateMachine) StateNames() []string {
	names := make([]string, 0, len(m.States))
	for _, st := range m.States {
		names = append(names, st.Name)
	}
	return names
}

// Lookup 按名称查找状态
func (m *StateMachine) Lookup(name string) (State, bool) {
	for _, st := range m.States {
		if st.Name == name {
			return st, true
		}
	}
	return State{}, false
}
