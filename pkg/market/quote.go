// 文件: pkg/market/quote.go
// 市场报价存储模型
//
// 一行 = 一条曲线的一个节点 (或一个回收率)
// 由 Load 组装成 SimpleMarket 供 XVA 计算使用。

package market

import (
	"context"
	"time"
)

// QuoteKind 报价类型
type QuoteKind string

const (
	KindDiscount QuoteKind = "discount" // 名称为币种, 节点为折现因子
	KindYield    QuoteKind = "yield"    // 名称为曲线名, 节点为折现因子
	KindDefault  QuoteKind = "default"  // 名称为发行人, 节点为生存概率
	KindRecovery QuoteKind = "recovery" // 名称为发行人, 无节点日期
)

// Quote 市场报价
type Quote struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AsOf          time.Time `gorm:"type:date;uniqueIndex:uk_market_quote" json:"as_of"`
	Configuration string    `gorm:"size:64;uniqueIndex:uk_market_quote" json:"configuration"`
	Kind          QuoteKind `gorm:"size:16;uniqueIndex:uk_market_quote" json:"kind"`
	Name          string    `gorm:"size:128;uniqueIndex:uk_market_quote" json:"name"`
	PillarDate    time.Time `gorm:"type:date;uniqueIndex:uk_market_quote" json:"pillar_date"`
	Value         float64   `json:"value"`
	UpdatedAt     int64     `json:"updated_at"`
}

// TableName GORM 表名
func (Quote) TableName() string {
	return "market_quotes"
}

// QuoteRepository 报价存储接口
//
// 实现: MySQLQuoteRepository, 以及 Redis 缓存装饰器 CachedQuoteRepository
type QuoteRepository interface {
	// Save 批量写入，同一节点重复写入时覆盖 value
	Save(ctx context.Context, quotes []*Quote) error

	// ListByDate 查询某估值日某配置下的全部报价
	ListByDate(ctx context.Context, asOf time.Time, configuration string) ([]*Quote, error)
}
