package xva

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"max.com/xva/pkg/cube"
	"max.com/xva/pkg/dim"
	"max.com/xva/pkg/exposure"
	"max.com/xva/pkg/market"
)

// 单交易、单净额集、一个时间步: CVA = 0.01 × (1 − 0.4) × 100 = 0.6
func TestBuild_SingleStepScenario(t *testing.T) {
	dates := yearly(1)
	p := buildPortfolio(t, tradeSpec{"T1", "NS1", "CPTY_A"})
	trades := exposureCube(t, []string{"T1"}, dates, map[string][][2]float64{"T1": {{100, 0}}})
	ns := exposureCube(t, []string{"NS1"}, dates, map[string][][2]float64{"NS1": {{100, 0}}})

	mkt := market.NewSimpleMarket(asOf)
	mkt.SetRecoveryRate("", "CPTY_A", 0.4)
	mkt.SetDefaultCurve("", "CPTY_A", pillarCurve{dates[0]: 0.99})

	c, err := NewCalculator(p, mkt, nil, trades, ns, defaultConfig())
	require.NoError(t, err)
	require.NoError(t, c.Build(context.Background()))

	cva, err := c.TradeCvaByID("T1")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, cva, 1e-12)

	dva, err := c.TradeDvaByID("T1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, dva)

	nsCva, err := c.NettingSetCvaByID("NS1")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, nsCva, 1e-12)

	sum, err := c.NettingSetSumCvaByID("NS1")
	require.NoError(t, err)
	assert.Equal(t, cva, sum)
}

func TestBuild_AccumulatesIncrements(t *testing.T) {
	dates := yearly(3)
	profile := [][2]float64{{100, 20}, {80, 35}, {50, 10}}
	p := buildPortfolio(t, tradeSpec{"T1", "NS1", "CPTY_A"})
	trades := exposureCube(t, []string{"T1"}, dates, map[string][][2]float64{"T1": profile})
	ns := exposureCube(t, []string{"NS1"}, dates, map[string][][2]float64{"NS1": profile})

	mkt := newMarket()
	cfg := defaultConfig()
	cfg.DvaName = "BANK"
	c, err := NewCalculator(p, mkt, nil, trades, ns, cfg)
	require.NoError(t, err)
	require.NoError(t, c.Build(context.Background()))

	cptyCurve, _ := mkt.DefaultCurve("CPTY_A", "")
	ownCurve, _ := mkt.DefaultCurve("BANK", "")
	var wantCva, wantDva float64
	d0 := asOf
	for j, d1 := range dates {
		wantCva += CvaIncrement(cptyCurve, 0.4, d0, d1, profile[j][0])
		wantDva += DvaIncrement(ownCurve, 0.4, d0, d1, profile[j][1])
		d0 = d1
	}

	cva, err := c.TradeCvaByID("T1")
	require.NoError(t, err)
	assert.InEpsilon(t, wantCva, cva, 1e-12)

	dva, err := c.TradeDvaByID("T1")
	require.NoError(t, err)
	assert.InEpsilon(t, wantDva, dva, 1e-12)
}

func TestBuild_DisabledAdjustmentsAreZero(t *testing.T) {
	dates := yearly(3)
	p := buildPortfolio(t,
		tradeSpec{"T1", "NS1", "CPTY_A"},
		tradeSpec{"T2", "NS1", "CPTY_A"},
		tradeSpec{"T3", "NS2", "CPTY_B"},
	)
	profiles := map[string][][2]float64{
		"T1": constProfile(3, 100, 50), "T2": constProfile(3, 30, 70), "T3": constProfile(3, 10, 10),
		"NS1": constProfile(3, 60, 50), "NS2": constProfile(3, 10, 10),
	}
	trades := exposureCube(t, []string{"T1", "T2", "T3"}, dates, profiles)
	ns := exposureCube(t, []string{"NS1", "NS2"}, dates, profiles)

	t.Run("no dva and no funding", func(t *testing.T) {
		c, err := NewCalculator(p, newMarket(), nil, trades, ns, defaultConfig())
		require.NoError(t, err)
		require.NoError(t, c.Build(context.Background()))

		res := c.Results()
		for _, scope := range []Scope{ScopeTrade, ScopeNettingSet} {
			for _, kind := range []Kind{DVA, FCA, FCAExOwnSP, FCAExAllSP, FBA, FBAExOwnSP, FBAExAllSP, MVA} {
				m := res.Map(scope, kind)
				require.NotEmpty(t, m)
				for id, v := range m {
					assert.Equal(t, 0.0, v, "%s %s %s", scope, kind, id)
				}
			}
			for id, v := range res.Map(scope, CVA) {
				assert.Positive(t, v, id)
			}
		}
	})

	t.Run("funding without dim has no mva", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.BaseCurrency = "EUR"
		cfg.FvaBorrowingCurve = "BANK_BORROW"
		cfg.ApplyDynamicInitialMargin = true
		c, err := NewCalculator(p, newMarket(), nil, trades, ns, cfg)
		require.NoError(t, err)
		require.NoError(t, c.Build(context.Background()))

		for _, v := range c.NettingSetFca() {
			assert.Positive(t, v)
		}
		for _, v := range c.NettingSetMva() {
			assert.Equal(t, 0.0, v)
		}
	})
}

// 反转视角: 站在对手方视角，交易的 EPE/ENE 互换
// 正常视角下的 CVA == 反转视角下的 DVA，反之亦然
func TestBuild_FlipViewSymmetry(t *testing.T) {
	dates := yearly(4)
	mkt := market.NewSimpleMarket(asOf)
	mkt.SetRecoveryRate("", "BANK", 0.3)
	mkt.SetDefaultCurve("", "BANK", market.NewFlatHazardCurve(asOf, 0.01))
	mkt.SetRecoveryRate("", "CPTY_A", 0.45)
	mkt.SetDefaultCurve("", "CPTY_A", market.NewFlatHazardCurve(asOf, 0.035))
	// 反转视角下资金曲线为 对手方 + 后缀 (此处后缀为空)
	mkt.SetDiscountCurve("", "EUR", market.NewFlatYieldCurve(asOf, 0.02))
	mkt.SetYieldCurve("", "CPTY_A", market.NewFlatYieldCurve(asOf, 0.03))

	p := buildPortfolio(t, tradeSpec{"T1", "NS1", "CPTY_A"})
	profile := [][2]float64{{100, 40}, {120, 30}, {90, 60}, {40, 80}}
	trades := exposureCube(t, []string{"T1"}, dates, map[string][][2]float64{"T1": profile})
	ns := exposureCube(t, []string{"NS1"}, dates, map[string][][2]float64{"NS1": profile})

	cfg := defaultConfig()
	cfg.DvaName = "BANK"
	regular, err := NewCalculator(p, mkt, nil, trades, ns, cfg)
	require.NoError(t, err)
	require.NoError(t, regular.Build(context.Background()))

	flipCfg := cfg
	flipCfg.FlipView = true
	flipCfg.BaseCurrency = "EUR"
	flipCfg.TradeEpeIndex, flipCfg.TradeEneIndex = 1, 0
	flipCfg.NettingSetEpeIndex, flipCfg.NettingSetEneIndex = 1, 0
	flipped, err := NewCalculator(p, mkt, nil, trades, ns, flipCfg)
	require.NoError(t, err)
	require.NoError(t, flipped.Build(context.Background()))

	regCva, err := regular.TradeCvaByID("T1")
	require.NoError(t, err)
	flipDva, err := flipped.TradeDvaByID("T1")
	require.NoError(t, err)
	assert.InDelta(t, regCva, flipDva, 1e-12)

	regDva, err := regular.NettingSetDvaByID("NS1")
	require.NoError(t, err)
	flipCva, err := flipped.NettingSetCvaByID("NS1")
	require.NoError(t, err)
	assert.InDelta(t, regDva, flipCva, 1e-12)
	assert.NotEqual(t, regCva, regDva)
}

func TestBuild_FlipViewFundingCurves(t *testing.T) {
	dates := yearly(2)
	mkt := newMarket()
	mkt.SetYieldCurve("", "CPTY_A_BORROW", market.NewFlatYieldCurve(asOf, 0.05))
	mkt.SetYieldCurve("", "CPTY_A_LEND", market.NewFlatYieldCurve(asOf, 0.01))

	p := buildPortfolio(t, tradeSpec{"T1", "NS1", "CPTY_A"})
	profile := constProfile(2, 100, 25)
	trades := exposureCube(t, []string{"T1"}, dates, map[string][][2]float64{"T1": profile})
	ns := exposureCube(t, []string{"NS1"}, dates, map[string][][2]float64{"NS1": profile})

	cfg := defaultConfig()
	cfg.DvaName = "BANK"
	cfg.BaseCurrency = "EUR"
	cfg.FlipView = true
	cfg.FlipViewBorrowingCurvePostfix = "_BORROW"
	cfg.FlipViewLendingCurvePostfix = "_LEND"
	c, err := NewCalculator(p, mkt, nil, trades, ns, cfg)
	require.NoError(t, err)
	require.NoError(t, c.Build(context.Background()))

	borrow, _ := mkt.YieldCurve("CPTY_A_BORROW", "")
	lend, _ := mkt.YieldCurve("CPTY_A_LEND", "")
	ois, _ := mkt.DiscountCurve("EUR", "")
	var wantFca, wantFba float64
	d0 := asOf
	for _, d1 := range dates {
		wantFca += FundingIncrement(nil, nil, d0, FundingSpreadDcf(borrow, ois, d0, d1), 100)
		wantFba += FundingIncrement(nil, nil, d0, FundingSpreadDcf(lend, ois, d0, d1), 25)
		d0 = d1
	}
	fca, err := c.TradeFcaExAllSpByID("T1")
	require.NoError(t, err)
	assert.InDelta(t, wantFca, fca, 1e-12)
	fba, err := c.TradeFbaExAllSpByID("T1")
	require.NoError(t, err)
	assert.InDelta(t, wantFba, fba, 1e-12)
}

// 后缀为空时资金曲线就是对手方同名曲线
func TestBuild_FlipViewEmptyPostfix(t *testing.T) {
	dates := yearly(3)
	mkt := newMarket()
	mkt.SetYieldCurve("", "CPTY_A", market.NewFlatYieldCurve(asOf, 0.045))

	p := buildPortfolio(t, tradeSpec{"T1", "NS1", "CPTY_A"})
	profile := constProfile(3, 100, 25)
	trades := exposureCube(t, []string{"T1"}, dates, map[string][][2]float64{"T1": profile})
	ns := exposureCube(t, []string{"NS1"}, dates, map[string][][2]float64{"NS1": profile})

	cfg := defaultConfig()
	cfg.DvaName = "BANK"
	cfg.BaseCurrency = "EUR"
	cfg.FlipView = true
	c, err := NewCalculator(p, mkt, nil, trades, ns, cfg)
	require.NoError(t, err)
	require.NoError(t, c.Build(context.Background()))

	fund, _ := mkt.YieldCurve("CPTY_A", "")
	ois, _ := mkt.DiscountCurve("EUR", "")
	var wantFca, wantFba float64
	d0 := asOf
	for _, d1 := range dates {
		dcf := FundingSpreadDcf(fund, ois, d0, d1)
		wantFca += FundingIncrement(nil, nil, d0, dcf, 100)
		wantFba += FundingIncrement(nil, nil, d0, dcf, 25)
		d0 = d1
	}
	require.NotZero(t, wantFca)

	fca, err := c.TradeFcaExAllSpByID("T1")
	require.NoError(t, err)
	assert.InDelta(t, wantFca, fca, 1e-12)
	fba, err := c.NettingSetFbaExAllSpByID("NS1")
	require.NoError(t, err)
	assert.InDelta(t, wantFba, fba, 1e-12)

	// 同名曲线缺失时实体失败并上报
	reporter := &CollectingReporter{}
	c, err = NewCalculator(p, newMarket(), nil, trades, ns, cfg, WithErrorReporter(reporter))
	require.NoError(t, err)
	require.NoError(t, c.Build(context.Background()))
	assert.Empty(t, c.TradeFcaExAllSp())
	assert.Len(t, reporter.Errors(), 2)
}

func TestBuild_FailureIsolation(t *testing.T) {
	dates := yearly(2)
	p := buildPortfolio(t,
		tradeSpec{"T1", "NS1", "CPTY_A"},
		tradeSpec{"T2", "NS2", "CPTY_UNKNOWN"},
		tradeSpec{"T3", "NS1", "CPTY_A"},
	)
	profiles := map[string][][2]float64{
		"T1": constProfile(2, 10, 0), "T2": constProfile(2, 10, 0), "T3": constProfile(2, 10, 0),
		"NS1": constProfile(2, 20, 0), "NS2": constProfile(2, 10, 0),
	}
	trades := exposureCube(t, []string{"T1", "T2", "T3"}, dates, profiles)
	ns := exposureCube(t, []string{"NS1", "NS2"}, dates, profiles)

	reporter := &CollectingReporter{}
	c, err := NewCalculator(p, newMarket(), nil, trades, ns, defaultConfig(), WithErrorReporter(reporter))
	require.NoError(t, err)
	require.NoError(t, c.Build(context.Background()))

	for _, id := range []string{"T1", "T3"} {
		v, err := c.TradeCvaByID(id)
		require.NoError(t, err)
		assert.Positive(t, v)
	}

	_, err = c.TradeCvaByID("T2")
	require.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "trade T2 not found in expected CVA results")

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, ScopeTrade, nf.Scope)
	assert.Equal(t, CVA, nf.Kind)

	bulk := c.TradeCva()
	assert.Len(t, bulk, 2)
	assert.NotContains(t, bulk, "T2")

	_, err = c.NettingSetFcaExOwnSpByID("NS2")
	assert.EqualError(t, err, "netting set NS2 not found in expected FCA ex own sp results")
	assert.NotContains(t, c.NettingSetSumCva(), "NS2")

	errs := reporter.Errors()
	require.Len(t, errs, 2)
	assert.Equal(t, "XVA", errs[0].Subsystem)
	assert.Equal(t, map[string]string{"tradeId": "T2"}, errs[0].Context)
	assert.Equal(t, map[string]string{"nettingSetId": "NS2"}, errs[1].Context)
	assert.ErrorIs(t, errs[0], market.ErrNotFound)
}

func TestBuild_SumOfTradesExceedsNettedCva(t *testing.T) {
	dates := yearly(2)
	p := buildPortfolio(t,
		tradeSpec{"T1", "NS1", "CPTY_A"},
		tradeSpec{"T2", "NS1", "CPTY_A"},
	)

	// 两笔交易部分对冲
	npv, err := cube.New(asOf, []string{"T1", "T2"}, dates, 2, 1)
	require.NoError(t, err)
	for j := range dates {
		npv.Set(10, 0, j, 0, 0)
		npv.Set(-10, 0, j, 1, 0)
		npv.Set(-8, 1, j, 0, 0)
		npv.Set(8, 1, j, 1, 0)
	}
	agg, err := exposure.Aggregate(context.Background(), npv, p)
	require.NoError(t, err)

	cfg := defaultConfig()
	cfg.TradeEpeIndex, cfg.TradeEneIndex = exposure.EPE, exposure.ENE
	cfg.NettingSetEpeIndex, cfg.NettingSetEneIndex = exposure.EPE, exposure.ENE
	c, err := NewCalculator(p, newMarket(), nil, agg.Trade, agg.NettingSet, cfg)
	require.NoError(t, err)
	require.NoError(t, c.Build(context.Background()))

	sum, err := c.NettingSetSumCvaByID("NS1")
	require.NoError(t, err)
	netted, err := c.NettingSetCvaByID("NS1")
	require.NoError(t, err)
	assert.Greater(t, sum, netted)
	assert.Positive(t, netted)
}

func TestBuild_FundingAndMva(t *testing.T) {
	dates := yearly(2)
	p := buildPortfolio(t, tradeSpec{"T1", "NS1", "CPTY_A"})
	profile := [][2]float64{{100, 40}, {60, 20}}
	trades := exposureCube(t, []string{"T1"}, dates, map[string][][2]float64{"T1": profile})
	ns := exposureCube(t, []string{"NS1"}, dates, map[string][][2]float64{"NS1": profile})
	im := []float64{1000, 900}

	mkt := newMarket()
	cfg := defaultConfig()
	cfg.DvaName = "BANK"
	cfg.BaseCurrency = "EUR"
	cfg.FvaBorrowingCurve = "BANK_BORROW"
	cfg.FvaLendingCurve = "BANK_LEND"
	cfg.ApplyDynamicInitialMargin = true
	dimCalc := dim.NewFixedCalculator(map[string][]float64{"NS1": im})

	c, err := NewCalculator(p, mkt, dimCalc, trades, ns, cfg)
	require.NoError(t, err)
	require.NoError(t, c.Build(context.Background()))

	cpty, _ := mkt.DefaultCurve("CPTY_A", "")
	own, _ := mkt.DefaultCurve("BANK", "")
	borrow, _ := mkt.YieldCurve("BANK_BORROW", "")
	lend, _ := mkt.YieldCurve("BANK_LEND", "")
	ois, _ := mkt.DiscountCurve("EUR", "")

	var fca, fcaOwn, fcaAll, fba, mva float64
	d0 := asOf
	for j, d1 := range dates {
		bdcf := FundingSpreadDcf(borrow, ois, d0, d1)
		ldcf := FundingSpreadDcf(lend, ois, d0, d1)
		fca += cpty.SurvivalProbability(d0) * own.SurvivalProbability(d0) * bdcf * profile[j][0]
		fcaOwn += cpty.SurvivalProbability(d0) * bdcf * profile[j][0]
		fcaAll += bdcf * profile[j][0]
		fba += cpty.SurvivalProbability(d0) * own.SurvivalProbability(d0) * ldcf * profile[j][1]
		mva += cpty.SurvivalProbability(d0) * own.SurvivalProbability(d0) * bdcf * im[j]
		d0 = d1
	}

	get := func(fn func(string) (float64, error), id string) float64 {
		v, err := fn(id)
		require.NoError(t, err)
		return v
	}
	assert.InDelta(t, fca, get(c.TradeFcaByID, "T1"), 1e-12)
	assert.InDelta(t, fcaOwn, get(c.TradeFcaExOwnSpByID, "T1"), 1e-12)
	assert.InDelta(t, fcaAll, get(c.TradeFcaExAllSpByID, "T1"), 1e-12)
	assert.InDelta(t, fba, get(c.TradeFbaByID, "T1"), 1e-12)
	assert.InDelta(t, fca, get(c.NettingSetFcaByID, "NS1"), 1e-12)
	assert.InDelta(t, mva, get(c.NettingSetMvaByID, "NS1"), 1e-12)

	// 正利差下剔除生存概率只会更大
	assert.Greater(t, fcaAll, fcaOwn)
	assert.Greater(t, fcaOwn, fca)

	// MVA 只在净额集层级
	assert.Equal(t, 0.0, get(c.TradeMvaByID, "T1"))
}

func TestBuild_InitialMarginProfileMismatch(t *testing.T) {
	dates := yearly(2)
	p := buildPortfolio(t, tradeSpec{"T1", "NS1", "CPTY_A"})
	trades := exposureCube(t, []string{"T1"}, dates, map[string][][2]float64{"T1": constProfile(2, 1, 1)})
	ns := exposureCube(t, []string{"NS1"}, dates, map[string][][2]float64{"NS1": constProfile(2, 1, 1)})

	cfg := defaultConfig()
	cfg.BaseCurrency = "EUR"
	cfg.FvaBorrowingCurve = "BANK_BORROW"
	cfg.ApplyDynamicInitialMargin = true
	reporter := &CollectingReporter{}
	c, err := NewCalculator(p, newMarket(), dim.NewFixedCalculator(map[string][]float64{"NS1": {1}}),
		trades, ns, cfg, WithErrorReporter(reporter))
	require.NoError(t, err)
	require.NoError(t, c.Build(context.Background()))

	// 交易不受影响
	_, err = c.TradeFcaByID("T1")
	require.NoError(t, err)
	_, err = c.NettingSetMvaByID("NS1")
	require.ErrorIs(t, err, ErrNotFound)
	require.Len(t, reporter.Errors(), 1)
	assert.Contains(t, reporter.Errors()[0].Error(), "initial margin")
}

func TestBuild_MissingOisCurve(t *testing.T) {
	dates := yearly(1)
	p := buildPortfolio(t, tradeSpec{"T1", "NS1", "CPTY_A"})
	trades := exposureCube(t, []string{"T1"}, dates, nil)
	ns := exposureCube(t, []string{"NS1"}, dates, nil)

	cfg := defaultConfig()
	cfg.BaseCurrency = "USD"
	cfg.FvaBorrowingCurve = "BANK_BORROW"
	c, err := NewCalculator(p, newMarket(), nil, trades, ns, cfg)
	require.NoError(t, err)

	err = c.Build(context.Background())
	require.ErrorIs(t, err, market.ErrNotFound)
	assert.Empty(t, c.TradeCva())
}

func TestBuild_Cancelled(t *testing.T) {
	dates := yearly(2)
	p := buildPortfolio(t, tradeSpec{"T1", "NS1", "CPTY_A"})
	trades := exposureCube(t, []string{"T1"}, dates, map[string][][2]float64{"T1": constProfile(2, 1, 0)})
	ns := exposureCube(t, []string{"NS1"}, dates, map[string][][2]float64{"NS1": constProfile(2, 1, 0)})

	c, err := NewCalculator(p, newMarket(), nil, trades, ns, defaultConfig())
	require.NoError(t, err)
	require.NoError(t, c.Build(context.Background()))
	before := c.TradeCva()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, c.Build(ctx), context.Canceled)

	// 取消不影响上一次结果
	assert.Equal(t, before, c.TradeCva())
}

// panickyCurve 模拟有缺陷的市场实现
type panickyCurve struct{}

func (panickyCurve) SurvivalProbability(time.Time) float64 { panic("bad curve") }

func TestBuild_PanicIsIsolated(t *testing.T) {
	dates := yearly(1)
	p := buildPortfolio(t,
		tradeSpec{"T1", "NS1", "CPTY_A"},
		tradeSpec{"T2", "NS2", "CPTY_B"},
	)
	trades := exposureCube(t, []string{"T1", "T2"}, dates, nil)
	ns := exposureCube(t, []string{"NS1", "NS2"}, dates, nil)

	mkt := newMarket()
	mkt.SetDefaultCurve("", "CPTY_B", panickyCurve{})
	reporter := &CollectingReporter{}
	c, err := NewCalculator(p, mkt, nil, trades, ns, defaultConfig(), WithErrorReporter(reporter))
	require.NoError(t, err)
	require.NoError(t, c.Build(context.Background()))

	assert.Contains(t, c.TradeCva(), "T1")
	assert.NotContains(t, c.TradeCva(), "T2")
	require.Len(t, reporter.Errors(), 2)
	assert.Contains(t, reporter.Errors()[0].Error(), "bad curve")
}

func TestBuild_DeterministicAcrossWorkers(t *testing.T) {
	c1 := benchCalculator(t, 200, 1)
	c8 := benchCalculator(t, 200, 8)
	require.NoError(t, c1.Build(context.Background()))
	require.NoError(t, c8.Build(context.Background()))

	for _, scope := range []Scope{ScopeTrade, ScopeNettingSet} {
		for _, kind := range Kinds(scope) {
			assert.Equal(t, c1.Results().Map(scope, kind), c8.Results().Map(scope, kind), "%s %s", scope, kind)
		}
	}
}

func TestBuild_MetricsAndLogging(t *testing.T) {
	dates := yearly(1)
	p := buildPortfolio(t,
		tradeSpec{"T1", "NS1", "CPTY_A"},
		tradeSpec{"T2", "NS2", "CPTY_UNKNOWN"},
	)
	trades := exposureCube(t, []string{"T1", "T2"}, dates, nil)
	ns := exposureCube(t, []string{"NS1", "NS2"}, dates, nil)

	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)
	core, logs := observer.New(zap.InfoLevel)

	c, err := NewCalculator(p, newMarket(), nil, trades, ns, defaultConfig(),
		WithMetrics(metrics), WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.NoError(t, c.Build(context.Background()))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.entities.WithLabelValues(passTrades, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.entities.WithLabelValues(passTrades, "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.entities.WithLabelValues(passNettingSets, "failed")))

	// 默认上报器写错误日志
	failed := logs.FilterMessage("Error processing trade XVA").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "T2", failed[0].ContextMap()["tradeId"])
	assert.Equal(t, 1, logs.FilterMessage("xva build completed").Len())

	// 重复注册失败
	_, err = NewMetrics(reg)
	require.Error(t, err)
}

func benchCalculator(tb testing.TB, numTrades, workers int) *Calculator {
	dates := make([]time.Time, 40)
	for i := range dates {
		dates[i] = asOf.AddDate(0, 3*(i+1), 0)
	}

	var specs []tradeSpec
	profiles := make(map[string][][2]float64)
	var tradeIDs, nsIDs []string
	for i := 0; i < numTrades; i++ {
		id := fmt.Sprintf("T%04d", i)
		nsID := fmt.Sprintf("NS%02d", i%10)
		cpty := "CPTY_A"
		if i%2 == 1 {
			cpty = "CPTY_B"
		}
		if i < 10 {
			nsIDs = append(nsIDs, nsID)
			profiles[nsID] = constProfile(len(dates), 500, 200)
		}
		specs = append(specs, tradeSpec{id, nsID, cpty})
		tradeIDs = append(tradeIDs, id)
		prof := make([][2]float64, len(dates))
		for j := range prof {
			prof[j] = [2]float64{float64(i%7+1) * float64(j+1), float64(i%5+1) * float64(len(dates)-j)}
		}
		profiles[id] = prof
	}

	p := buildPortfolio(tb, specs...)
	trades := exposureCube(tb, tradeIDs, dates, profiles)
	ns := exposureCube(tb, nsIDs, dates, profiles)

	cfg := defaultConfig()
	cfg.DvaName = "BANK"
	cfg.BaseCurrency = "EUR"
	cfg.FvaBorrowingCurve = "BANK_BORROW"
	cfg.FvaLendingCurve = "BANK_LEND"
	cfg.Workers = workers
	c, err := NewCalculator(p, newMarket(), nil, trades, ns, cfg)
	require.NoError(tb, err)
	return c
}

func BenchmarkBuild(b *testing.B) {
	c := benchCalculator(b, 2000, 0)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := c.Build(ctx); err != nil {
			b.Fatal(err)
		}
	}
}
