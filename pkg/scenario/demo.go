// 文件: pkg/scenario/demo.go
// 演示组合与市场
//
// 没有配置数据库时 cmd/xvarun 用这里的数据跑通整条链路

package scenario

import (
	"fmt"
	"time"

	"max.com/xva/pkg/market"
	"max.com/xva/pkg/portfolio"
)

// 演示对手方: 名称 → (风险率, 回收率)
var demoCounterparties = []struct {
	name     string
	hazard   float64
	recovery float64
}{
	{"CPTY_A", 0.010, 0.40},
	{"CPTY_B", 0.025, 0.40},
	{"CPTY_C", 0.050, 0.25},
}

// DemoPortfolio 每个对手方一个净额集，交易轮流分配
func DemoPortfolio(trades int) (*portfolio.Portfolio, error) {
	p := portfolio.New()
	for i := 0; i < trades; i++ {
		c := demoCounterparties[i%len(demoCounterparties)]
		t := &portfolio.Trade{
			Type: "Swap",
			Envelope: portfolio.Envelope{
				NettingSetID: "NS_" + c.name,
				Counterparty: c.name,
			},
		}
		if err := p.Add(t); err != nil {
			return nil, fmt.Errorf("add demo trade %d: %w", i, err)
		}
	}
	return p, nil
}

// DemoMarket 平坦曲线市场
//
// 自身名 BANK，资金曲线 BANK_BORROW / BANK_LEND，
// 对手方资金曲线按 名称+后缀 命名，用于反转视角。
func DemoMarket(asOf time.Time, baseCurrency string) *market.SimpleMarket {
	m := market.NewSimpleMarket(asOf)
	cfg := market.DefaultConfiguration

	m.SetDiscountCurve(cfg, baseCurrency, market.NewFlatYieldCurve(asOf, 0.02))
	m.SetYieldCurve(cfg, "BANK_BORROW", market.NewFlatYieldCurve(asOf, 0.035))
	m.SetYieldCurve(cfg, "BANK_LEND", market.NewFlatYieldCurve(asOf, 0.025))
	m.SetDefaultCurve(cfg, "BANK", market.NewFlatHazardCurve(asOf, 0.008))
	m.SetRecoveryRate(cfg, "BANK", 0.40)

	for _, c := range demoCounterparties {
		m.SetDefaultCurve(cfg, c.name, market.NewFlatHazardCurve(asOf, c.hazard))
		m.SetRecoveryRate(cfg, c.name, c.recovery)
		m.SetYieldCurve(cfg, c.name+"_BORROW", market.NewFlatYieldCurve(asOf, 0.02+c.hazard))
		m.SetYieldCurve(cfg, c.name+"_LEND", market.NewFlatYieldCurve(asOf, 0.02+c.hazard/2))
	}
	return m
}
