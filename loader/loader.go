package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/donutnomad/cstategen/machine"
	"gopkg.in/yaml.v3"
)

// ErrMalformedDocument 文档无法解析为状态机
var ErrMalformedDocument = errors.New("malformed state machine document")

// Format 文档格式
type Format int

const (
	FormatYAML Format = iota + 1
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// FormatOf 根据文件扩展名判断格式，.json 为 JSON，其余按 YAML 处理
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Document 输入文档结构
// 未识别的字段会被忽略
type Document struct {
	Start  string          `yaml:"start" json:"start"`
	States []StateDocument `yaml:"states" json:"states"`
}

// StateDocument 状态定义
type StateDocument struct {
	Name        string               `yaml:"name" json:"name"`
	Run         string               `yaml:"run" json:"run"`
	Transitions []TransitionDocument `yaml:"transitions" json:"transitions"`
}

// TransitionDocument 流转定义，predicate 可省略
type TransitionDocument struct {
	Predicate string `yaml:"predicate" json:"predicate"`
	State     string `yaml:"state" json:"state"`
}

// UnmarshalYAML 未加引号的 `predicate: !done` 会被 YAML 解析为本地标签 !done，
// 这里还原为取反谓词，避免被静默当作无条件流转
func (td *TransitionDocument) UnmarshalYAML(node *yaml.Node) error {
	type plain TransitionDocument
	if err := node.Decode((*plain)(td)); err != nil {
		return err
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if key.Value != "predicate" || val.Kind != yaml.ScalarNode {
			continue
		}
		if val.Style&yaml.TaggedStyle != 0 && !strings.HasPrefix(val.Tag, "!!") {
			td.Predicate = val.Tag + val.Value
		}
	}
	return nil
}

// Load 从文件加载状态机
func Load(path string) (*machine.StateMachine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开输入文件失败: %w", err)
	}
	defer f.Close()

	m, err := Decode(f, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Decode 从 reader 解析状态机
func Decode(r io.Reader, format Format) (*machine.StateMachine, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("读取文档失败: %w", err)
	}

	doc, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	return doc.Build()
}

// Parse 解析文档结构，不做模型校验
func Parse(data []byte, format Format) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedDocument)
	}

	var doc Document
	switch format {
	case FormatJSON:
		if err := sonic.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %s", ErrMalformedDocument, format)
	}
	return &doc, nil
}

// Build 将文档映射为状态机模型
// 错误信息带有文档位置，如 states[1].transitions[0]
func (d *Document) Build() (*machine.StateMachine, error) {
	states := make([]machine.State, 0, len(d.States))
	for i, sd := range d.States {
		st, err := sd.build()
		if err != nil {
			return nil, fmt.Errorf("%w: states[%d]: %w", ErrMalformedDocument, i, err)
		}
		states = append(states, st)
	}

	m, err := machine.New(d.Start, states)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	return m, nil
}

func (sd StateDocument) build() (machine.State, error) {
	transitions := make([]machine.Transition, 0, len(sd.Transitions))
	for i, td := range sd.Transitions {
		t, err := machine.NewTransition(td.Predicate, td.State)
		if err != nil {
			return machine.State{}, fmt.Errorf("transitions[%d]: %w", i, err)
		}
		transitions = append(transitions, t)
	}
	return machine.NewState(sd.Name, sd.Run, transitions)
}
