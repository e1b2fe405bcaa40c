// 文件: pkg/store/publisher.go
// 结果发布器: 结果集 → Kafka

package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"max.com/xva/pkg/kafka"
	"max.com/xva/pkg/xva"
)

// sender kafka.Producer 的发送能力
type sender interface {
	Send(msg kafka.Message) error
}

// ResultPublisher 结果发布器
type ResultPublisher struct {
	producer sender
}

// NewResultPublisher 创建发布器
func NewResultPublisher(producer *kafka.Producer) *ResultPublisher {
	return &ResultPublisher{producer: producer}
}

// Publish 发布一次运行的全部结果，返回发送条数
func (p *ResultPublisher) Publish(runID uuid.UUID, asOf time.Time, res *xva.Results) (int, error) {
	events := Flatten(runID, asOf, res)
	for i, e := range events {
		if err := p.producer.Send(e); err != nil {
			return i, fmt.Errorf("publish %s %s %s: %w", e.Scope, e.EntityID, e.Metric, err)
		}
	}
	return len(events), nil
}
