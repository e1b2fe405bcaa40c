// 文件: pkg/store/result_repo.go
// XVA 结果仓库 (GORM 实现)

package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResultStore 结果写入接口
type ResultStore interface {
	BatchUpsert(ctx context.Context, records []*ResultRecord) error
}

// ResultRepo 结果仓库
type ResultRepo struct {
	db *gorm.DB
}

// NewResultRepo 创建结果仓库
func NewResultRepo(db *gorm.DB) *ResultRepo {
	return &ResultRepo{db: db}
}

// AutoMigrate 建表
func (r *ResultRepo) AutoMigrate() error {
	return r.db.AutoMigrate(&ResultRecord{})
}

// BatchUpsert 批量写入，唯一键冲突时覆盖 value
func (r *ResultRepo) BatchUpsert(ctx context.Context, records []*ResultRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "run_id"}, {Name: "scope"}, {Name: "entity_id"}, {Name: "metric"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"value", "created_at"}),
		}).
		CreateInBatches(records, 500).Error
}

// ListByRun 查询某次运行的全部结果
func (r *ResultRepo) ListByRun(ctx context.Context, runID string) ([]*ResultRecord, error) {
	var records []*ResultRecord
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("scope, metric, entity_id").
		Find(&records).Error
	return records, err
}
