// 文件: pkg/xva/errors.go
// 错误定义
//
// 三类错误:
// - InvariantError: 构造期一致性校验失败，计算器不可用
// - NotFoundError:  结果查询时 ID 不在结果集中
// - StructuredError: 单个实体处理失败，上报后跳过，不中断 Build

package xva

import (
	"errors"
	"fmt"
)

var (
	ErrInvariant = errors.New("xva: invariant violated")
	ErrNotFound  = errors.New("xva: not found")
)

// InvariantError 一致性校验失败
type InvariantError struct {
	Quantity string // 出问题的量，如 "tradeEpeIndex"
	Expected any
	Actual   any
	Msg      string
}

func (e *InvariantError) Error() string {
	return e.Msg
}

// Is 让 errors.Is(err, ErrInvariant) 成立
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariant
}

func invariantf(quantity string, expected, actual any, format string, args ...any) *InvariantError {
	return &InvariantError{
		Quantity: quantity,
		Expected: expected,
		Actual:   actual,
		Msg:      fmt.Sprintf(format, args...),
	}
}

// NotFoundError 结果查询失败
type NotFoundError struct {
	Kind  Kind
	Scope Scope
	ID    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found in expected %s results", e.Scope.label(), e.ID, e.Kind)
}

// Is 让 errors.Is(err, ErrNotFound) 成立
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StructuredError 实体级错误记录
type StructuredError struct {
	Subsystem string            `json:"subsystem"`
	Message   string            `json:"message"`
	Err       error             `json:"-"`
	Detail    string            `json:"error"`
	Context   map[string]string `json:"context"`
}

func (e StructuredError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Subsystem, e.Message, e.Err)
}

func (e StructuredError) Unwrap() error {
	return e.Err
}

func newEntityError(scope Scope, id string, err error) StructuredError {
	return StructuredError{
		Subsystem: "XVA",
		Message:   fmt.Sprintf("Error processing %s XVA", scope.label()),
		Err:       err,
		Detail:    err.Error(),
		Context:   map[string]string{scope.contextKey(): id},
	}
}
