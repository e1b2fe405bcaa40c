// 文件: pkg/nats/run_event.go
// 运行完成通知

package nats

import (
	"time"

	"max.com/xva/pkg/xva"
)

// SubjectXvaRuns 运行完成主题
const SubjectXvaRuns = "xva.runs"

// RunEvent 一次 Build 的摘要
type RunEvent struct {
	RunID         string `json:"run_id"`
	AsOf          string `json:"as_of"`
	Trades        int    `json:"trades"`
	TradesOk      int    `json:"trades_ok"`
	NettingSets   int    `json:"netting_sets"`
	NettingSetsOk int    `json:"netting_sets_ok"`
	ElapsedMs     int64  `json:"elapsed_ms"`
	Timestamp     int64  `json:"ts"`
}

// NewRunEvent 由结果生成摘要
func NewRunEvent(runID string, asOf time.Time, trades, nettingSets int, res *xva.Results, elapsed time.Duration) RunEvent {
	return RunEvent{
		RunID:         runID,
		AsOf:          asOf.Format(time.DateOnly),
		Trades:        trades,
		TradesOk:      res.Len(xva.ScopeTrade),
		NettingSets:   nettingSets,
		NettingSetsOk: res.Len(xva.ScopeNettingSet),
		ElapsedMs:     elapsed.Milliseconds(),
		Timestamp:     time.Now().UnixMilli(),
	}
}
