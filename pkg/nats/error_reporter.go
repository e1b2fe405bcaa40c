// 文件: pkg/nats/error_reporter.go
// XVA 实体错误 → NATS
//
// 与日志上报并存 (xva.MultiReporter)，监控端订阅 xva.errors 实时看到失败实体

package nats

import (
	"time"

	"go.uber.org/zap"

	"max.com/xva/pkg/xva"
)

// SubjectXvaErrors 错误主题
const SubjectXvaErrors = "xva.errors"

// ErrorEvent 错误事件
type ErrorEvent struct {
	RunID     string            `json:"run_id"`
	Subsystem string            `json:"subsystem"`
	Message   string            `json:"message"`
	Error     string            `json:"error"`
	Context   map[string]string `json:"context"`
	Timestamp int64             `json:"ts"`
}

// ErrorReporter 实现 xva.ErrorReporter
type ErrorReporter struct {
	pub    *Publisher
	runID  string
	logger *zap.Logger
}

var _ xva.ErrorReporter = (*ErrorReporter)(nil)

// NewErrorReporter 创建上报器
func NewErrorReporter(pub *Publisher, runID string, logger *zap.Logger) *ErrorReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorReporter{pub: pub, runID: runID, logger: logger}
}

func newErrorEvent(runID string, e xva.StructuredError) ErrorEvent {
	ev := ErrorEvent{
		RunID:     runID,
		Subsystem: e.Subsystem,
		Message:   e.Message,
		Error:     e.Detail,
		Context:   e.Context,
		Timestamp: time.Now().UnixMilli(),
	}
	if ev.Error == "" && e.Err != nil {
		ev.Error = e.Err.Error()
	}
	return ev
}

// Report 发布失败只写日志，不影响 Build
func (r *ErrorReporter) Report(e xva.StructuredError) {
	if err := r.pub.Publish(SubjectXvaErrors, newErrorEvent(r.runID, e)); err != nil {
		r.logger.Warn("publish xva error failed", zap.Error(err))
	}
}
