package machine

import (
	"errors"
	"fmt"

	"github.com/donutnomad/cstategen/internal/utils"
)

// 校验错误
var (
	ErrUnknownState          = errors.New("unknown state")
	ErrInvalidIdentifier     = errors.New("invalid C identifier")
	ErrUnreachableTransition = errors.New("unreachable transition")
)

// Validate 检查按名称引用的完整性以及生成代码能否编译
//   - Start 和每个流转目标必须是已声明的状态
//   - 状态名、动作名、谓词名必须是合法且非关键字的 C 标识符
//   - 无条件流转之后的流转不可达
//
// 返回所有问题（errors.Join），没有问题时返回 nil
// 生成本身不依赖 Validate
func (m *StateMachine) Validate() error {
	var errs []error

	declared := make(map[string]bool, len(m.States))
	for _, st := range m.States {
		declared[st.Name] = true
	}

	if !declared[m.Start] {
		errs = append(errs, fmt.Errorf("start %q: %w", m.Start, ErrUnknownState))
	}

	for _, st := range m.States {
		if err := checkIdentifier(st.Name); err != nil {
			errs = append(errs, fmt.Errorf("state %q: name: %w", st.Name, err))
		}
		if err := checkIdentifier(st.Action); err != nil {
			errs = append(errs, fmt.Errorf("state %q: run %q: %w", st.Name, st.Action, err))
		}

		unconditionalAt := -1
		for i, t := range st.Transitions {
			if unconditionalAt >= 0 {
				errs = append(errs, fmt.Errorf("state %q transition %d: follows unconditional transition %d: %w",
					st.Name, i, unconditionalAt, ErrUnreachableTransition))
			} else if t.IsUnconditional() {
				unconditionalAt = i
			}

			if !declared[t.Target] {
				errs = append(errs, fmt.Errorf("state %q transition %d: target %q: %w", st.Name, i, t.Target, ErrUnknownState))
			}
			if !t.IsUnconditional() {
				if err := checkIdentifier(t.Predicate.Name); err != nil {
					errs = append(errs, fmt.Errorf("state %q transition %d: predicate %q: %w", st.Name, i, t.Predicate, err))
				}
			}
		}
	}

	return errors.Join(errs...)
}

func checkIdentifier(name string) error {
	if !utils.IsCIdentifier(name) {
		return ErrInvalidIdentifier
	}
	if utils.IsReservedWord(name) {
		return fmt.Errorf("%w: reserved word", ErrInvalidIdentifier)
	}
	return nil
}
