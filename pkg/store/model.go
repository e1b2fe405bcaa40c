// 文件: pkg/store/model.go
// XVA 结果持久化模型
//
// 一行 = 一次运行中某实体的某个调整量
// 唯一键 (run_id, scope, entity_id, metric) 保证重复消费时幂等

package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kafka Topic
const (
	TopicResults = "xva_results"
)

// ResultRecord xva_results 表
type ResultRecord struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	RunID     string          `gorm:"size:36;uniqueIndex:uk_xva_result"`
	AsOf      time.Time       `gorm:"type:date;index"`
	Scope     string          `gorm:"size:16;uniqueIndex:uk_xva_result"`
	EntityID  string          `gorm:"size:128;uniqueIndex:uk_xva_result"`
	Metric    string          `gorm:"size:32;uniqueIndex:uk_xva_result"`
	Value     decimal.Decimal `gorm:"type:decimal(36,12)"`
	CreatedAt int64
}

// TableName GORM 表名
func (ResultRecord) TableName() string {
	return "xva_results"
}

// ResultEvent 结果事件 (Kafka 消息体)
type ResultEvent struct {
	RunID     uuid.UUID       `json:"run_id"`
	AsOf      time.Time       `json:"as_of"`
	Scope     string          `json:"scope"`
	EntityID  string          `json:"entity_id"`
	Metric    string          `json:"metric"`
	Amount    decimal.Decimal `json:"value"`
	CreatedAt int64           `json:"created_at"`
}

// Topic 实现 kafka.Message
func (e *ResultEvent) Topic() string {
	return TopicResults
}

// Key 按实体分区，同一实体的结果保持顺序
func (e *ResultEvent) Key() string {
	return e.Scope + ":" + e.EntityID
}

// Value 实现 kafka.Message
func (e *ResultEvent) Value() ([]byte, error) {
	return json.Marshal(e)
}

// ToRecord 事件 → 表记录
func (e *ResultEvent) ToRecord() *ResultRecord {
	return &ResultRecord{
		RunID:     e.RunID.String(),
		AsOf:      e.AsOf,
		Scope:     e.Scope,
		EntityID:  e.EntityID,
		Metric:    e.Metric,
		Value:     e.Amount,
		CreatedAt: e.CreatedAt,
	}
}
