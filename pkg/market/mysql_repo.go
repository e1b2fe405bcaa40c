// 文件: pkg/market/mysql_repo.go
// 市场报价 MySQL 存储实现
//
// 【设计】
// - 使用 GORM 作为 ORM
// - 节点唯一键 (as_of, configuration, kind, name, pillar_date)，重复写入走 Upsert
// - 所有操作带 context 支持超时控制

package market

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 确保实现了接口
var _ QuoteRepository = (*MySQLQuoteRepository)(nil)

// MySQLQuoteRepository MySQL 实现
type MySQLQuoteRepository struct {
	db *gorm.DB
}

// NewMySQLQuoteRepository 创建 MySQL 存储
func NewMySQLQuoteRepository(db *gorm.DB) *MySQLQuoteRepository {
	return &MySQLQuoteRepository{db: db}
}

// AutoMigrate 建表 (开发环境使用)
func (r *MySQLQuoteRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&Quote{})
}

// Save 批量 Upsert
func (r *MySQLQuoteRepository) Save(ctx context.Context, quotes []*Quote) error {
	if len(quotes) == 0 {
		return nil
	}

	now := time.Now().UnixMilli()
	for _, q := range quotes {
		q.UpdatedAt = now
		if q.Configuration == "" {
			q.Configuration = DefaultConfiguration
		}
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "as_of"}, {Name: "configuration"}, {Name: "kind"}, {Name: "name"}, {Name: "pillar_date"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		CreateInBatches(quotes, 500).Error
}

// ListByDate 按估值日和配置查询，按节点日期升序
func (r *MySQLQuoteRepository) ListByDate(ctx context.Context, asOf time.Time, configuration string) ([]*Quote, error) {
	var quotes []*Quote
	err := r.db.WithContext(ctx).
		Where("as_of = ? AND configuration = ?", asOf, normalize(configuration)).
		Order("kind, name, pillar_date").
		Find(&quotes).Error
	if err != nil {
		return nil, err
	}
	return quotes, nil
}
