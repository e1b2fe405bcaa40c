package xva

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"max.com/xva/pkg/cube"
	"max.com/xva/pkg/market"
	"max.com/xva/pkg/portfolio"
)

var asOf = time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

// pillarCurve 只在给定日期上取值的生存曲线，估值日为 1
type pillarCurve map[time.Time]float64

func (c pillarCurve) SurvivalProbability(d time.Time) float64 {
	if v, ok := c[d]; ok {
		return v
	}
	return 1
}

func yearly(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = asOf.AddDate(i+1, 0, 0)
	}
	return out
}

type tradeSpec struct {
	id, ns, cpty string
}

func buildPortfolio(t testing.TB, specs ...tradeSpec) *portfolio.Portfolio {
	p := portfolio.New()
	for _, s := range specs {
		require.NoError(t, p.Add(&portfolio.Trade{
			ID:       s.id,
			Type:     "Swap",
			Envelope: portfolio.Envelope{NettingSetID: s.ns, Counterparty: s.cpty},
		}))
	}
	return p
}

// exposureCube 按 id 给定每个日期的 (EPE, ENE)，depth=2
func exposureCube(t testing.TB, ids []string, dates []time.Time, profiles map[string][][2]float64) *cube.InMemoryCube {
	c, err := cube.New(asOf, ids, dates, 1, 2)
	require.NoError(t, err)
	for i, id := range ids {
		for j, p := range profiles[id] {
			c.Set(p[0], i, j, 0, 0)
			c.Set(p[1], i, j, 0, 1)
		}
	}
	return c
}

// constProfile 所有日期相同的敞口
func constProfile(n int, epe, ene float64) [][2]float64 {
	out := make([][2]float64, n)
	for i := range out {
		out[i] = [2]float64{epe, ene}
	}
	return out
}

func defaultConfig() Config {
	return Config{
		Configuration:      "default",
		TradeEpeIndex:      0,
		TradeEneIndex:      1,
		NettingSetEpeIndex: 0,
		NettingSetEneIndex: 1,
		Workers:            2,
	}
}

// newMarket 常用的对称市场: 银行与两个对手方
func newMarket() *market.SimpleMarket {
	m := market.NewSimpleMarket(asOf)
	for _, name := range []string{"BANK", "CPTY_A", "CPTY_B"} {
		m.SetRecoveryRate("", name, 0.4)
		m.SetDefaultCurve("", name, market.NewFlatHazardCurve(asOf, 0.02))
	}
	m.SetDiscountCurve("", "EUR", market.NewFlatYieldCurve(asOf, 0.02))
	m.SetYieldCurve("", "BANK_BORROW", market.NewFlatYieldCurve(asOf, 0.03))
	m.SetYieldCurve("", "BANK_LEND", market.NewFlatYieldCurve(asOf, 0.025))
	return m
}
