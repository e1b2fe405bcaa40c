// 文件: pkg/xva/build.go
// Build: 沿时间网格累加各实体的 XVA
//
// 两轮: 先交易，再净额集。每轮:
// 1. 实体按下标取模分片，每个分片一个 Goroutine
// 2. 分片内逐实体处理，实体之间检查 ctx
// 3. 每个实体产出 entityResult (累加值或错误)，互不影响
// 4. 按组合顺序归并: 成功写结果表，失败上报后跳过

package xva

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"max.com/xva/pkg/market"
)

const (
	passTrades      = "trades"
	passNettingSets = "netting_sets"
)

// accumulator 单个实体的 9 个累加值，下标为 Kind
type accumulator [numEntityKinds]float64

// entityResult 单个实体的处理结果
type entityResult struct {
	acc accumulator
	err error
}

// curves 实体处理时解析出的市场句柄
type curves struct {
	cva       market.CreditCurve
	dva       market.CreditCurve // nil 表示不计 DVA
	cvaRR     float64
	dvaRR     float64
	borrowing market.YieldCurve // nil 表示不计 FCA / MVA
	lending   market.YieldCurve // nil 表示不计 FBA
}

// Build 执行计算
//
// 成功后整体替换上一次的结果。实体级错误不会让 Build 失败，
// 只有 OIS 曲线缺失或 ctx 取消会返回错误，此时保留上一次结果。
func (c *Calculator) Build(ctx context.Context) error {
	start := time.Now()

	// OIS 曲线全局只取一次
	var ois market.YieldCurve
	if c.cfg.fundingActive() {
		var err error
		ois, err = c.market.DiscountCurve(c.cfg.BaseCurrency, c.cfg.Configuration)
		if err != nil {
			return fmt.Errorf("resolve ois curve %s: %w", c.cfg.BaseCurrency, err)
		}
	}

	res := newResults()

	// 1. 交易
	trades := c.tradeEntities()
	out, err := c.runPass(ctx, passTrades, trades, ois)
	if err != nil {
		return err
	}
	for i, r := range out {
		t := trades[i].(*tradeEntity)
		if !c.collect(res, passTrades, t, r) {
			continue
		}
		res.accumulate(SumTradeCVA, t.nettingSetID, r.acc[CVA])
		res.accumulate(SumTradeDVA, t.nettingSetID, r.acc[DVA])
	}

	// 2. 净额集
	nettingSets := c.nettingSetEntities()
	out, err = c.runPass(ctx, passNettingSets, nettingSets, ois)
	if err != nil {
		return err
	}
	for i, r := range out {
		c.collect(res, passNettingSets, nettingSets[i], r)
	}

	c.mu.Lock()
	c.results = res
	c.mu.Unlock()

	c.logger.Info("xva build completed",
		zap.Int("trades", len(trades)),
		zap.Int("tradesOk", res.Len(ScopeTrade)),
		zap.Int("nettingSets", len(nettingSets)),
		zap.Int("nettingSetsOk", res.Len(ScopeNettingSet)),
		zap.Bool("flipView", c.cfg.FlipView),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// collect 归并一个实体结果，返回是否成功
func (c *Calculator) collect(res *Results, pass string, e entity, r entityResult) bool {
	c.metrics.countEntity(pass, r.err == nil)
	if r.err != nil {
		c.reporter.Report(newEntityError(e.scope(), e.id(), r.err))
		return false
	}
	res.set(e.scope(), e.id(), &r.acc)
	return true
}

// runPass 分片并行处理一轮实体
//
// 结果按实体下标写入，归并顺序与输入顺序一致，和分片数无关。
func (c *Calculator) runPass(ctx context.Context, pass string, entities []entity, ois market.YieldCurve) ([]entityResult, error) {
	defer c.metrics.observePass(pass, time.Now())

	out := make([]entityResult, len(entities))
	numShards := min(c.cfg.Workers, len(entities))

	var wg sync.WaitGroup
	for shard := 0; shard < numShards; shard++ {
		wg.Add(1)
		go func(shard int) {
			defer wg.Done()
			for i := shard; i < len(entities); i += numShards {
				select {
				case <-ctx.Done():
					return
				default:
				}
				out[i] = c.processEntity(entities[i], ois)
			}
		}(shard)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		c.logger.Warn("xva build cancelled", zap.String("pass", pass), zap.Error(err))
		return nil, err
	}
	return out, nil
}

// processEntity 单个实体的完整累加
//
// 步骤:
// 1. 计算有效名称 (反转视角在这里处理)
// 2. 解析曲线、回收率、IM
// 3. 遍历时间网格累加
func (c *Calculator) processEntity(e entity, ois market.YieldCurve) (res entityResult) {
	// 市场实现里的 panic 也只影响当前实体
	defer func() {
		if r := recover(); r != nil {
			res = entityResult{err: fmt.Errorf("panic: %v", r)}
		}
	}()

	names := resolveNames(c.cfg, e.counterparty())
	if err := e.bind(); err != nil {
		return entityResult{err: err}
	}
	cv, err := c.resolveCurves(names)
	if err != nil {
		return entityResult{err: err}
	}
	if (cv.borrowing != nil || cv.lending != nil) && ois == nil {
		return entityResult{err: invariantf("baseCurrency", "non-empty", "",
			"baseCurrency required for FVA calculation")}
	}

	dates := c.tradeCube.Dates()

	var im []float64
	if e.scope() == ScopeNettingSet && c.dim != nil && cv.borrowing != nil {
		im, err = c.dim.ExpectedIM(e.id())
		if err != nil {
			return entityResult{err: fmt.Errorf("expected initial margin: %w", err)}
		}
		if len(im) != len(dates) {
			return entityResult{err: fmt.Errorf("expected initial margin has %d values, date grid has %d",
				len(im), len(dates))}
		}
	}

	var acc accumulator
	d0 := c.tradeCube.AsOf()
	for j, d1 := range dates {
		epe, ene := e.epe(j), e.ene(j)

		acc[CVA] += CvaIncrement(cv.cva, cv.cvaRR, d0, d1, epe)
		acc[DVA] += DvaIncrement(cv.dva, cv.dvaRR, d0, d1, ene)

		if cv.borrowing != nil {
			dcf := FundingSpreadDcf(cv.borrowing, ois, d0, d1)
			acc[FCA] += FundingIncrement(cv.cva, cv.dva, d0, dcf, epe)
			acc[FCAExOwnSP] += FundingIncrement(cv.cva, nil, d0, dcf, epe)
			acc[FCAExAllSP] += FundingIncrement(nil, nil, d0, dcf, epe)
			if im != nil {
				acc[MVA] += MvaIncrement(cv.cva, cv.dva, d0, dcf, im[j])
			}
		}

		if cv.lending != nil {
			dcf := FundingSpreadDcf(cv.lending, ois, d0, d1)
			acc[FBA] += FundingIncrement(cv.cva, cv.dva, d0, dcf, ene)
			acc[FBAExOwnSP] += FundingIncrement(cv.cva, nil, d0, dcf, ene)
			acc[FBAExAllSP] += FundingIncrement(nil, nil, d0, dcf, ene)
		}
		d0 = d1
	}
	return entityResult{acc: acc}
}

// resolveCurves 解析单个实体需要的市场数据
func (c *Calculator) resolveCurves(n effectiveNames) (curves, error) {
	var cv curves
	var err error
	cfgName := c.cfg.Configuration

	if n.cid == "" {
		return cv, errors.New("counterparty name is empty")
	}
	if n.borrowing != "" {
		if cv.borrowing, err = c.market.YieldCurve(n.borrowing, cfgName); err != nil {
			return cv, fmt.Errorf("borrowing curve: %w", err)
		}
	}
	if n.lending != "" {
		if cv.lending, err = c.market.YieldCurve(n.lending, cfgName); err != nil {
			return cv, fmt.Errorf("lending curve: %w", err)
		}
	}
	if cv.cvaRR, err = c.market.RecoveryRate(n.cid, cfgName); err != nil {
		return cv, fmt.Errorf("cva recovery rate: %w", err)
	}
	if cv.cva, err = c.market.DefaultCurve(n.cid, cfgName); err != nil {
		return cv, fmt.Errorf("cva default curve: %w", err)
	}
	if n.dva != "" {
		if cv.dvaRR, err = c.market.RecoveryRate(n.dva, cfgName); err != nil {
			return cv, fmt.Errorf("dva recovery rate: %w", err)
		}
		if cv.dva, err = c.market.DefaultCurve(n.dva, cfgName); err != nil {
			return cv, fmt.Errorf("dva default curve: %w", err)
		}
	}
	return cv, nil
}

// Results 当前结果快照 (只读)
func (c *Calculator) Results() *Results {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.results
}
