// 文件: pkg/xva/reporter.go
// 实体级错误上报

package xva

import (
	"sync"

	"go.uber.org/zap"
)

// ErrorReporter 结构化错误接收方
//
// Report 在 Build 的归并阶段按实体顺序同步调用，不并发。
type ErrorReporter interface {
	Report(e StructuredError)
}

// LogReporter 写 zap 日志
type LogReporter struct {
	logger *zap.Logger
}

// NewLogReporter 创建日志上报器
func NewLogReporter(logger *zap.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(e StructuredError) {
	fields := make([]zap.Field, 0, len(e.Context)+2)
	fields = append(fields, zap.String("subsystem", e.Subsystem), zap.Error(e.Err))
	for k, v := range e.Context {
		fields = append(fields, zap.String(k, v))
	}
	r.logger.Error(e.Message, fields...)
}

// CollectingReporter 内存收集，用于测试和运行摘要
type CollectingReporter struct {
	mu     sync.Mutex
	errors []StructuredError
}

func (r *CollectingReporter) Report(e StructuredError) {
	r.mu.Lock()
	r.errors = append(r.errors, e)
	r.mu.Unlock()
}

// Errors 已收集的错误拷贝
func (r *CollectingReporter) Errors() []StructuredError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]StructuredError(nil), r.errors...)
}

// MultiReporter 扇出到多个上报器
type MultiReporter []ErrorReporter

func (m MultiReporter) Report(e StructuredError) {
	for _, r := range m {
		if r != nil {
			r.Report(e)
		}
	}
}
