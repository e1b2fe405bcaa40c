// 文件: pkg/store/flatten.go

package store

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"max.com/xva/pkg/xva"
)

// NewRunID 生成运行 ID
func NewRunID() uuid.UUID {
	return uuid.New()
}

// Flatten 把结果集展开为事件列表
//
// 顺序固定: scope → metric → entity id，方便比较和重放
func Flatten(runID uuid.UUID, asOf time.Time, res *xva.Results) []*ResultEvent {
	now := time.Now().UnixMilli()
	var out []*ResultEvent
	res.Each(func(scope xva.Scope, kind xva.Kind, id string, v float64) {
		out = append(out, &ResultEvent{
			RunID:     runID,
			AsOf:      asOf,
			Scope:     scope.String(),
			EntityID:  id,
			Metric:    kind.String(),
			Amount:    decimal.NewFromFloat(v),
			CreatedAt: now,
		})
	})

	slices.SortFunc(out, func(a, b *ResultEvent) int {
		return cmp.Or(
			cmp.Compare(a.Scope, b.Scope),
			cmp.Compare(a.Metric, b.Metric),
			cmp.Compare(a.EntityID, b.EntityID),
		)
	})
	return out
}
