// Package machine 定义有限状态机模型，并将其翻译为嵌入式目标可直接编译的 C 源码。
//
// 模型由三部分组成:
//   - StateMachine: 有序的状态列表和初始状态名
//   - State: 状态名、运行动作、有序的流转列表
//   - Transition: 可选的布尔谓词（支持 ! 取反）和目标状态名
//
// 状态之间通过名称引用，而不是指针，因此状态可以相互引用（包括自身）。
//
// 生成结果为两组源码行:
//
//	StateMachine.h    状态枚举 + stateRun / stateTransition 声明
//	StateMachine.cpp  基于 switch 的运行分发和流转求值
//
// 生成过程是纯函数，不做 I/O，不依赖 map 遍历顺序，同一模型的输出逐字节一致。
package machine
