// 文件: pkg/exposure/aggregate.go
// 敞口聚合: 原始 NPV 立方体 → EPE/ENE 立方体
//
// 输入: 模拟产出的交易级 NPV 立方体 (交易 × 日期 × 样本, NPV 在 NPVColumn 列)
// 输出:
// - 交易敞口立方体    (交易 × 日期 × 1, 列 EPE / ENE)
// - 净额集敞口立方体  (净额集 × 日期 × 1, 列 EPE / ENE)
// - 净额集 NPV 立方体 (净额集 × 日期 × 样本, 逐路径求和, 供 DIM 使用)
//
// 净额效应只在逐路径求和之后体现:
//   EPE_ns(d) = mean_k max(Σ_t NPV_t,k(d), 0) <= Σ_t EPE_t(d)

package exposure

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"max.com/xva/pkg/cube"
	"max.com/xva/pkg/portfolio"
)

// 敞口立方体的列
const (
	EPE   = 0
	ENE   = 1
	Depth = 2

	// NPVColumn 原始立方体中 NPV 所在列
	NPVColumn = 0
)

// Result 聚合结果
type Result struct {
	Trade      *cube.InMemoryCube
	NettingSet *cube.InMemoryCube
	NettedNPV  *cube.InMemoryCube
}

// Aggregate 聚合交易 NPV 立方体
//
// 步骤:
// 1. 校验: 组合中每笔交易都必须在 NPV 立方体中
// 2. 逐交易逐日期计算 EPE/ENE，同时把路径累加到所属净额集
// 3. 逐净额集计算 EPE/ENE
//
// 逐交易之间检查 ctx，取消时返回 ctx.Err()。
func Aggregate(ctx context.Context, npv cube.Reader, p *portfolio.Portfolio) (*Result, error) {
	if npv.Depth() <= NPVColumn {
		return nil, fmt.Errorf("npv cube depth %d has no column %d", npv.Depth(), NPVColumn)
	}

	// 1. 交易行号
	trades := p.Trades()
	rows := make([]int, len(trades))
	for i, t := range trades {
		row, ok := npv.IndexOf(t.ID)
		if !ok {
			return nil, fmt.Errorf("trade %s not found in npv cube", t.ID)
		}
		rows[i] = row
	}

	nsIDs := p.NettingSetIDs()
	nsIndex := make(map[string]int, len(nsIDs))
	for i, id := range nsIDs {
		nsIndex[id] = i
	}

	asOf, dates, samples := npv.AsOf(), npv.Dates(), npv.Samples()
	res := &Result{}
	var err error
	if res.Trade, err = cube.New(asOf, p.IDs(), dates, 1, Depth); err != nil {
		return nil, fmt.Errorf("create trade cube: %w", err)
	}
	if res.NettingSet, err = cube.New(asOf, nsIDs, dates, 1, Depth); err != nil {
		return nil, fmt.Errorf("create netting set cube: %w", err)
	}
	if res.NettedNPV, err = cube.New(asOf, nsIDs, dates, samples, 1); err != nil {
		return nil, fmt.Errorf("create netted npv cube: %w", err)
	}

	// 2. 交易级
	path := make([]float64, samples)
	for i, t := range trades {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row, ns := rows[i], nsIndex[t.Envelope.NettingSetID]

		v0 := npv.GetT0(row, NPVColumn)
		res.Trade.SetT0(max(v0, 0), i, EPE)
		res.Trade.SetT0(max(-v0, 0), i, ENE)
		res.NettedNPV.SetT0(res.NettedNPV.GetT0(ns, 0)+v0, ns, 0)

		for d := range dates {
			for k := range path {
				path[k] = npv.Get(row, d, k, NPVColumn)
				res.NettedNPV.Add(path[k], ns, d, k, 0)
			}
			epe, ene := expectedParts(path)
			res.Trade.Set(epe, i, d, 0, EPE)
			res.Trade.Set(ene, i, d, 0, ENE)
		}
	}

	// 3. 净额集级
	for ns := range nsIDs {
		v0 := res.NettedNPV.GetT0(ns, 0)
		res.NettingSet.SetT0(max(v0, 0), ns, EPE)
		res.NettingSet.SetT0(max(-v0, 0), ns, ENE)

		for d := range dates {
			for k := range path {
				path[k] = res.NettedNPV.Get(ns, d, k, 0)
			}
			epe, ene := expectedParts(path)
			res.NettingSet.Set(epe, ns, d, 0, EPE)
			res.NettingSet.Set(ene, ns, d, 0, ENE)
		}
	}
	return res, nil
}

// expectedParts 正部 / 负部的样本均值
func expectedParts(path []float64) (epe, ene float64) {
	pos := make([]float64, len(path))
	neg := make([]float64, len(path))
	for k, v := range path {
		pos[k] = max(v, 0)
		neg[k] = max(-v, 0)
	}
	n := float64(len(path))
	return floats.Sum(pos) / n, floats.Sum(neg) / n
}
