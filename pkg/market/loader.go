// 文件: pkg/market/loader.go
// 从报价仓库组装 SimpleMarket

package market

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Load 读取某估值日的全部报价并构建曲线
//
// 步骤:
// 1. 查仓库 (可以是带缓存的装饰器)
// 2. 按 (kind, name) 分组
// 3. 节点按日期排序后构建插值曲线；回收率直接取值
func Load(ctx context.Context, repo QuoteRepository, asOf time.Time, configuration string) (*SimpleMarket, error) {
	quotes, err := repo.ListByDate(ctx, asOf, configuration)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}

	type groupKey struct {
		kind QuoteKind
		name string
	}
	groups := make(map[groupKey][]Pillar)
	var order []groupKey
	for _, q := range quotes {
		k := groupKey{q.Kind, q.Name}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], Pillar{Date: q.PillarDate, Value: q.Value})
	}

	cfg := normalize(configuration)
	m := NewSimpleMarket(asOf)
	for _, k := range order {
		pillars := groups[k]
		sort.Slice(pillars, func(i, j int) bool { return pillars[i].Date.Before(pillars[j].Date) })

		switch k.kind {
		case KindDiscount, KindYield:
			c, err := NewInterpolatedDiscountCurve(asOf, pillars)
			if err != nil {
				return nil, fmt.Errorf("build %s curve %s: %w", k.kind, k.name, err)
			}
			if k.kind == KindDiscount {
				m.SetDiscountCurve(cfg, k.name, c)
			} else {
				m.SetYieldCurve(cfg, k.name, c)
			}
		case KindDefault:
			c, err := NewInterpolatedSurvivalCurve(asOf, pillars)
			if err != nil {
				return nil, fmt.Errorf("build default curve %s: %w", k.name, err)
			}
			m.SetDefaultCurve(cfg, k.name, c)
		case KindRecovery:
			rr := pillars[len(pillars)-1].Value
			if rr < 0 || rr > 1 {
				return nil, fmt.Errorf("recovery rate %s out of [0,1]: %v", k.name, rr)
			}
			m.SetRecoveryRate(cfg, k.name, rr)
		default:
			return nil, fmt.Errorf("unknown quote kind %q for %s", k.kind, k.name)
		}
	}
	return m, nil
}
