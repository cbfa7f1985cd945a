package machine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTransition(t *testing.T, predicate, target string) Transition {
	t.Helper()
	tr, err := NewTransition(predicate, target)
	require.NoError(t, err)
	return tr
}

func mustState(t *testing.T, name, action string, transitions ...Transition) State {
	t.Helper()
	st, err := NewState(name, action, transitions)
	require.NoError(t, err)
	return st
}

// idleRunMachine IDLE -> RUN 无条件，RUN 在 !done 时保持，否则回到 IDLE
func idleRunMachine(t *testing.T) *StateMachine {
	t.Helper()
	m, err := New("IDLE", []State{
		mustState(t, "IDLE", "idle", mustTransition(t, "", "RUN")),
		mustState(t, "RUN", "run", mustTransition(t, "!done", "RUN"), mustTransition(t, "", "IDLE")),
	})
	require.NoError(t, err)
	return m
}

func TestHeader_IdleRun(t *testing.T) {
	m := idleRunMachine(t)

	expected := []string{
		"#ifndef StateMachine_h",
		"#define StateMachine_h",
		"",
		"// definition of state values",
		"enum State {",
		"\tIDLE, RUN",
		"};",
		"",
		"extern void stateRun();",
		"extern void stateTransition();",
		"",
		"#endif",
	}
	assert.Equal(t, expected, m.ToHeaderSource())
}

func TestImplementation_IdleRun(t *testing.T) {
	m := idleRunMachine(t)

	expected := []string{
		`#include "Arduino.h"`,
		`#include "StateMachine.h"`,
		"",
		"extern void idle();",
		"extern void run();",
		"",
		"extern bool done();",
		"",
		"// the current state",
		"static enum State state = IDLE;",
		"",
		"void stateRun() {",
		"\tswitch (state) {",
		"\tcase IDLE:",
		"\t\tidle();",
		"\t\tbreak;",
		"\tcase RUN:",
		"\t\trun();",
		"\t\tbreak;",
		"\t}",
		"}",
		"",
		"void stateTransition() {",
		"\tenum State nextState = state;",
		"\tswitch (state) {",
		"\tcase IDLE:",
		"\t\tnextState = RUN;",
		"\t\tbreak;",
		"\tcase RUN:",
		"\t\tif (!done()) {",
		"\t\t\tnextState = RUN;",
		"\t\t} else {",
		"\t\t\tnextState = IDLE;",
		"\t\t}",
		"\t\tbreak;",
		"\t}",
		"\tif (nextState != state) {",
		"\t\tstate = nextState;",
		"\t}",
		"}",
	}
	assert.Equal(t, expected, m.ToImplementationSource())
}

func TestGeneration_Deterministic(t *testing.T) {
	a := idleRunMachine(t)
	b := idleRunMachine(t)

	assert.Equal(t, a.ToHeaderSource(), a.ToHeaderSource())
	assert.Equal(t, a.ToImplementationSource(), a.ToImplementationSource())
	assert.Equal(t, a.ToHeaderSource(), b.ToHeaderSource())
	assert.Equal(t, a.ToImplementationSource(), b.ToImplementationSource())
}

func TestHeader_EnumKeepsDeclaredOrder(t *testing.T) {
	m := MustNew("C",
		mustState(t, "C", "c"),
		mustState(t, "A", "a"),
		mustState(t, "B", "b"),
	)
	header := m.ToHeaderSource()
	assert.Contains(t, header, "\tC, A, B")
}

func TestImplementation_ActionDeduplication(t *testing.T) {
	m := MustNew("A",
		mustState(t, "A", "blink"),
		mustState(t, "B", "wait"),
		mustState(t, "C", "blink"),
		mustState(t, "D", "wait"),
	)
	impl := m.ToImplementationSource()

	assert.Equal(t, 1, count(impl, "extern void blink();"))
	assert.Equal(t, 1, count(impl, "extern void wait();"))
	// 首次出现顺序
	assert.Less(t, indexOf(impl, "extern void blink();"), indexOf(impl, "extern void wait();"))
	// 每个状态仍然调用自己的动作
	assert.Equal(t, 2, count(impl, "\t\tblink();"))
}

func TestImplementation_PredicateNormalization(t *testing.T) {
	m := MustNew("A",
		mustState(t, "A", "a", mustTransition(t, "foo", "B"), mustTransition(t, "bar", "A")),
		mustState(t, "B", "b", mustTransition(t, "!foo", "A"), mustTransition(t, "!bar", "B")),
	)
	impl := m.ToImplementationSource()

	assert.Equal(t, 1, count(impl, "extern bool foo();"))
	assert.Equal(t, 1, count(impl, "extern bool bar();"))
	assert.Less(t, indexOf(impl, "extern bool foo();"), indexOf(impl, "extern bool bar();"))
	for _, line := range impl {
		assert.NotContains(t, line, "extern bool !")
	}
	assert.Contains(t, impl, "\t\tif (!foo()) {")
	assert.Contains(t, impl, "\t\t} else if (!bar()) {")
}

func TestImplementation_NoPredicates(t *testing.T) {
	m := MustNew("A", mustState(t, "A", "a", mustTransition(t, "", "A")))
	impl := m.ToImplementationSource()

	// 声明段为空时仍保留分隔空行
	assert.Equal(t, []string{`#include "Arduino.h"`, `#include "StateMachine.h"`, "", "extern void a();", "", ""}, impl[:6])
	assert.Equal(t, "// the current state", impl[6])
}

func TestTransitionChain(t *testing.T) {
	tests := []struct {
		name        string
		transitions []Transition
		expected    []string
	}{
		{
			name:        "no transitions",
			transitions: nil,
			expected:    []string{"\tcase S:", "\t\tbreak;"},
		},
		{
			name:        "single unconditional",
			transitions: []Transition{mustTransition(t, "", "T")},
			expected:    []string{"\tcase S:", "\t\tnextState = T;", "\t\tbreak;"},
		},
		{
			name:        "single conditional",
			transitions: []Transition{mustTransition(t, "ready", "T")},
			expected: []string{
				"\tcase S:",
				"\t\tif (ready()) {",
				"\t\t\tnextState = T;",
				"\t\t}",
				"\t\tbreak;",
			},
		},
		{
			name: "first match wins ordering",
			transitions: []Transition{
				mustTransition(t, "p1", "A"),
				mustTransition(t, "p2", "B"),
			},
			expected: []string{
				"\tcase S:",
				"\t\tif (p1()) {",
				"\t\t\tnextState = A;",
				"\t\t} else if (p2()) {",
				"\t\t\tnextState = B;",
				"\t\t}",
				"\t\tbreak;",
			},
		},
		{
			name: "conditions with else",
			transitions: []Transition{
				mustTransition(t, "p1", "A"),
				mustTransition(t, "!p2", "B"),
				mustTransition(t, "", "C"),
			},
			expected: []string{
				"\tcase S:",
				"\t\tif (p1()) {",
				"\t\t\tnextState = A;",
				"\t\t} else if (!p2()) {",
				"\t\t\tnextState = B;",
				"\t\t} else {",
				"\t\t\tnextState = C;",
				"\t\t}",
				"\t\tbreak;",
			},
		},
		{
			name: "unconditional first shadows the rest",
			transitions: []Transition{
				mustTransition(t, "", "A"),
				mustTransition(t, "p", "B"),
			},
			expected: []string{"\tcase S:", "\t\tnextState = A;", "\t\tbreak;"},
		},
		{
			name: "unconditional in the middle closes the chain",
			transitions: []Transition{
				mustTransition(t, "p", "A"),
				mustTransition(t, "", "B"),
				mustTransition(t, "q", "C"),
			},
			expected: []string{
				"\tcase S:",
				"\t\tif (p()) {",
				"\t\t\tnextState = A;",
				"\t\t} else {",
				"\t\t\tnextState = B;",
				"\t\t}",
				"\t\tbreak;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := MustNew("S", mustState(t, "S", "s", tt.transitions...))
			assert.Equal(t, tt.expected, transitionCase(m.ToImplementationSource(), "S"))
		})
	}
}

func TestGenerator_Options(t *testing.T) {
	m := idleRunMachine(t)
	g := NewGenerator(WithBaseName("Blinker"), WithPlatformHeader("stdbool.h"))

	header := g.Header(m)
	assert.Equal(t, "#ifndef Blinker_h", header[0])
	assert.Equal(t, "#define Blinker_h", header[1])

	impl := g.Implementation(m)
	assert.Equal(t, `#include "stdbool.h"`, impl[0])
	assert.Equal(t, `#include "Blinker.h"`, impl[1])

	assert.Equal(t, "Blinker.h", g.HeaderName())
	assert.Equal(t, "Blinker.c", g.ImplementationName("c"))
}

func TestGenerator_EmptyOptionsKeepDefaults(t *testing.T) {
	g := NewGenerator(WithBaseName(""), WithPlatformHeader(""))
	assert.Equal(t, "StateMachine.h", g.HeaderName())

	impl := g.Implementation(idleRunMachine(t))
	assert.Equal(t, `#include "Arduino.h"`, impl[0])
}

func TestGenerator_DiagramInHeader(t *testing.T) {
	m := idleRunMachine(t)
	header := NewGenerator(WithDiagram(true)).Header(m)

	assert.Equal(t, "/*", header[3])
	assert.Contains(t, header, " * IDLE --> RUN")
	assert.Contains(t, header, "};")
	assert.Equal(t, "#endif", header[len(header)-1])

	// 默认不生成流程图
	for _, line := range m.ToHeaderSource() {
		assert.False(t, strings.HasPrefix(line, "/*"))
	}
}

// transitionCase 截取 stateTransition 中指定状态的 case 块
func transitionCase(impl []string, state string) []string {
	start := indexOf(impl, "void stateTransition() {")
	label := "\tcase " + state + ":"
	var block []string
	for _, line := range impl[start:] {
		if block == nil {
			if line == label {
				block = []string{line}
			}
			continue
		}
		if strings.HasPrefix(line, "\tcase ") || line == "\t}" {
			break
		}
		block = append(block, line)
	}
	return block
}

func count(lines []string, target string) int {
	n := 0
	for _, line := range lines {
		if line == target {
			n++
		}
	}
	return n
}

func indexOf(lines []string, target string) int {
	for i, line := range lines {
		if line == target {
			return i
		}
	}
	return -1
}
