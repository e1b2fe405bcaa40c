// 文件: pkg/scenario/generator.go
// 模拟 NPV 立方体生成器
//
// 生产环境中 NPV 立方体来自定价引擎，这里用随机游走生成演示数据:
//
//	NPV(t+dt) = NPV(t) + σ · Notional · sqrt(dt) · Z，Z ~ N(0,1)
//
// 交易 NPV 可正可负，所以用算术布朗运动而不是几何布朗运动。
// 每笔交易独立随机源 (seed, 交易序号)，结果与生成顺序无关。

package scenario

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"max.com/xva/pkg/cube"
	"max.com/xva/pkg/market"
	"max.com/xva/pkg/portfolio"
)

var ErrNoDates = errors.New("scenario: empty date grid")

// TradeParams 单笔交易参数
type TradeParams struct {
	Notional   float64
	InitialNPV float64 // 占名义本金比例
	Volatility float64 // 年化波动率 (按名义本金)
	Drift      float64 // 年化漂移 (按名义本金)，负值模拟摊还
}

// Config 生成参数
type Config struct {
	Samples int
	Seed    uint64
	// Params 按交易 ID 取参数，缺省用 Default
	Params  map[string]TradeParams
	Default TradeParams
}

// DefaultConfig 默认参数
func DefaultConfig() Config {
	return Config{
		Samples: 1000,
		Seed:    42,
		Default: TradeParams{Notional: 1_000_000, Volatility: 0.05},
	}
}

// Grid 等间隔日期网格，从估值日后 step 开始
func Grid(asOf time.Time, n int, step func(time.Time, int) time.Time) []time.Time {
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = step(asOf, i+1)
	}
	return dates
}

// Monthly 月度步长
func Monthly(asOf time.Time, i int) time.Time { return asOf.AddDate(0, i, 0) }

// Quarterly 季度步长
func Quarterly(asOf time.Time, i int) time.Time { return asOf.AddDate(0, 3*i, 0) }

// Generate 生成 交易 × 日期 × 样本 × 1 的 NPV 立方体
func Generate(asOf time.Time, dates []time.Time, p *portfolio.Portfolio, cfg Config) (*cube.InMemoryCube, error) {
	if len(dates) == 0 {
		return nil, ErrNoDates
	}
	if cfg.Samples <= 0 {
		return nil, fmt.Errorf("scenario: samples must be positive, got %d", cfg.Samples)
	}

	ids := p.IDs()
	c, err := cube.New(asOf, ids, dates, cfg.Samples, 1)
	if err != nil {
		return nil, fmt.Errorf("scenario: new cube: %w", err)
	}

	// 步长 (年)
	dts := make([]float64, len(dates))
	prev := asOf
	for j, d := range dates {
		dts[j] = market.YearFraction(prev, d)
		prev = d
	}

	for i, id := range ids {
		tp, ok := cfg.Params[id]
		if !ok {
			tp = cfg.Default
		}
		npv0 := tp.InitialNPV * tp.Notional
		c.SetT0(npv0, i, 0)

		r := rand.New(rand.NewPCG(cfg.Seed, uint64(i)))
		for k := 0; k < cfg.Samples; k++ {
			v := npv0
			for j, dt := range dts {
				v += tp.Notional * (tp.Drift*dt + tp.Volatility*math.Sqrt(dt)*r.NormFloat64())
				c.Set(v, i, j, k, 0)
			}
		}
	}
	return c, nil
}
