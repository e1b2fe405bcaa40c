// 文件: pkg/xva/calculator.go
// XVA 计算器: 构造与校验
//
// 输入:
// - 组合 (交易 → 净额集 / 对手方)
// - 市场 (违约曲线、回收率、资金曲线、OIS 折现曲线)
// - 交易敞口立方体 + 净额集敞口立方体 (EPE / ENE 列)
// - 可选 DIM 计算器 (只用于净额集 MVA)
//
// 构造时只做一致性校验，不做计算；计算由 Build 显式触发。

package xva

import (
	"runtime"
	"sync"

	"go.uber.org/zap"

	"max.com/xva/pkg/cube"
	"max.com/xva/pkg/dim"
	"max.com/xva/pkg/market"
	"max.com/xva/pkg/portfolio"
)

// Config 计算参数
type Config struct {
	Configuration string // 市场配置名
	BaseCurrency  string // OIS 折现币种，为空时不能计算资金调整
	DvaName       string // 自身发行人名，为空时不计 DVA

	FvaBorrowingCurve string // 为空时不计 FCA / MVA
	FvaLendingCurve   string // 为空时不计 FBA

	ApplyDynamicInitialMargin bool

	TradeEpeIndex      int
	TradeEneIndex      int
	NettingSetEpeIndex int
	NettingSetEneIndex int

	FlipView                      bool
	FlipViewBorrowingCurvePostfix string
	FlipViewLendingCurvePostfix   string

	// Workers 并行分片数，<=0 时取 GOMAXPROCS
	Workers int
}

// fundingActive 是否可能有资金曲线参与
// 反转视角下资金曲线总是 对手方+后缀，始终参与
func (c Config) fundingActive() bool {
	return c.FlipView || c.FvaBorrowingCurve != "" || c.FvaLendingCurve != ""
}

// Option 可选项
type Option func(*Calculator)

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithErrorReporter 设置实体错误上报；默认写日志
func WithErrorReporter(r ErrorReporter) Option {
	return func(c *Calculator) { c.reporter = r }
}

// WithMetrics 设置指标
func WithMetrics(m *Metrics) Option {
	return func(c *Calculator) { c.metrics = m }
}

// nettingSetCpty 净额集 → 对手方，保持首次出现顺序
type nettingSetCpty struct {
	id           string
	counterparty string
}

// Calculator XVA 计算器
type Calculator struct {
	portfolio      *portfolio.Portfolio
	market         market.Market
	dim            dim.Calculator
	tradeCube      cube.Reader
	nettingSetCube cube.Reader
	cfg            Config

	nettingSets []nettingSetCpty

	logger   *zap.Logger
	reporter ErrorReporter
	metrics  *Metrics

	mu      sync.RWMutex
	results *Results
}

// NewCalculator 创建计算器
//
// 校验:
// 1. 组合非空
// 2. 交易立方体行数 == 交易数；净额集立方体行数 == 净额集数
// 3. 两个立方体日期网格逐个相等
// 4. 四个列索引 < 各自立方体深度
// 5. 反转视角必须有 DvaName (反转后的对手方)
// 6. 资金曲线可能生效时必须有 BaseCurrency
//
// 任一失败返回 *InvariantError，错误信息给出期望值与实际值。
func NewCalculator(
	p *portfolio.Portfolio,
	mkt market.Market,
	dimCalc dim.Calculator,
	tradeCube, nettingSetCube cube.Reader,
	cfg Config,
	opts ...Option,
) (*Calculator, error) {
	if p == nil {
		return nil, invariantf("portfolio", "non-nil", nil, "portfolio is null")
	}
	if mkt == nil {
		return nil, invariantf("market", "non-nil", nil, "market is null")
	}
	if tradeCube == nil || nettingSetCube == nil {
		return nil, invariantf("cube", "non-nil", nil, "exposure cube is null")
	}

	// 净额集 → 对手方，先到先得
	var nettingSets []nettingSetCpty
	seen := make(map[string]struct{})
	for _, t := range p.Trades() {
		nid := t.Envelope.NettingSetID
		if _, ok := seen[nid]; ok {
			continue
		}
		seen[nid] = struct{}{}
		nettingSets = append(nettingSets, nettingSetCpty{id: nid, counterparty: t.Envelope.Counterparty})
	}

	if tradeCube.NumIDs() != p.Size() {
		return nil, invariantf("trades", p.Size(), tradeCube.NumIDs(),
			"number of trades in tradeExposureCube and portfolio mismatch (%d vs %d)",
			tradeCube.NumIDs(), p.Size())
	}
	if nettingSetCube.NumIDs() != len(nettingSets) {
		return nil, invariantf("nettingSets", len(nettingSets), nettingSetCube.NumIDs(),
			"number of netting sets in nettingSetExposureCube and nettingSetCpty map mismatch (%d vs %d)",
			nettingSetCube.NumIDs(), len(nettingSets))
	}
	if tradeCube.NumDates() != nettingSetCube.NumDates() {
		return nil, invariantf("dates", tradeCube.NumDates(), nettingSetCube.NumDates(),
			"number of dates in tradeExposureCube and nettingSetExposureCube mismatch (%d vs %d)",
			tradeCube.NumDates(), nettingSetCube.NumDates())
	}
	td, nd := tradeCube.Dates(), nettingSetCube.Dates()
	for i := range td {
		if !td[i].Equal(nd[i]) {
			return nil, invariantf("dates", td[i], nd[i],
				"date at %d in tradeExposureCube and nettingSetExposureCube mismatch (%s vs %s)",
				i, td[i].Format("2006-01-02"), nd[i].Format("2006-01-02"))
		}
	}

	indices := []struct {
		name  string
		index int
		cube  string
		depth int
	}{
		{"tradeEpeIndex", cfg.TradeEpeIndex, "tradeExposureCube", tradeCube.Depth()},
		{"tradeEneIndex", cfg.TradeEneIndex, "tradeExposureCube", tradeCube.Depth()},
		{"nettingSetEpeIndex", cfg.NettingSetEpeIndex, "nettingSetExposureCube", nettingSetCube.Depth()},
		{"nettingSetEneIndex", cfg.NettingSetEneIndex, "nettingSetExposureCube", nettingSetCube.Depth()},
	}
	for _, ix := range indices {
		if ix.index < 0 || ix.index >= ix.depth {
			return nil, invariantf(ix.name, ix.depth, ix.index,
				"%s(%d) exceeds depth of %s(%d)", ix.name, ix.index, ix.cube, ix.depth)
		}
	}

	if cfg.FlipView && cfg.DvaName == "" {
		return nil, invariantf("dvaName", "non-empty", "",
			"dvaName required for flip view")
	}
	if cfg.fundingActive() && cfg.BaseCurrency == "" {
		return nil, invariantf("baseCurrency", "non-empty", "",
			"baseCurrency required for FVA calculation")
	}

	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}

	c := &Calculator{
		portfolio:      p,
		market:         mkt,
		tradeCube:      tradeCube,
		nettingSetCube: nettingSetCube,
		cfg:            cfg,
		nettingSets:    nettingSets,
		logger:         zap.NewNop(),
		results:        newResults(),
	}
	if cfg.ApplyDynamicInitialMargin {
		c.dim = dimCalc
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.reporter == nil {
		c.reporter = NewLogReporter(c.logger)
	}
	return c, nil
}

// Config 生效的参数
func (c *Calculator) Config() Config {
	return c.cfg
}

// NettingSetCounterparty 净额集对应的对手方 (首笔交易的对手方)
func (c *Calculator) NettingSetCounterparty(nettingSetID string) (string, bool) {
	for _, ns := range c.nettingSets {
		if ns.id == nettingSetID {
			return ns.counterparty, true
		}
	}
	return "", false
}
