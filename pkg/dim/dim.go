// 文件: pkg/dim/dim.go
// 动态初始保证金 (Dynamic Initial Margin)
//
// XVA 只在净额集层面计算 MVA，需要每个时间步上预期要缴纳的初始保证金。
// 本包提供两个实现:
// - QuantileCalculator: 零阶回归 DIM，从净额集 NPV 路径的步长变化估计
// - FixedCalculator:    外部给定的静态 IM 曲线

package dim

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"max.com/xva/pkg/cube"
)

var ErrUnknownNettingSet = errors.New("dim: unknown netting set")

// Calculator DIM 计算器
type Calculator interface {
	// ExpectedIM 每个网格日期一个值
	// 第 j 个值是第 j 步 [d0, d1) 期间持有的预期 IM，d0 为步起点 (第 0 步为估值日)
	ExpectedIM(nettingSetID string) ([]float64, error)
}

// =============================================================================
// QuantileCalculator
// =============================================================================

// Method 分位数估计方式
type Method int

const (
	// Gaussian 假设 ΔNPV 服从正态: IM = N⁻¹(q) · σ(ΔNPV)
	Gaussian Method = iota
	// Empirical 直接取 ΔNPV 的经验分位数
	Empirical
)

// QuantileConfig 参数
type QuantileConfig struct {
	Quantile    float64 // 置信水平，通常 0.99
	HorizonDays int     // 保证金风险期 (MPoR)，通常 10
	Scaling     float64 // 额外缩放系数，默认 1
	Method      Method
	Column      int // NPV 所在列
}

// DefaultQuantileConfig 默认参数
func DefaultQuantileConfig() QuantileConfig {
	return QuantileConfig{
		Quantile:    0.99,
		HorizonDays: 10,
		Scaling:     1,
		Method:      Gaussian,
	}
}

// QuantileCalculator 零阶回归 DIM
//
// 对每个净额集、每个时间步:
//  1. ΔNPV_k = NPV_k(d1) − NPV_k(d0)，d0 为估值日时取 T0 值
//  2. 按 MPoR 缩放: × sqrt(HorizonDays / 步长天数)
//  3. IM = 分位数 × Scaling，下限 0
//
// 零阶回归下各路径 IM 相同，预期值即该值本身。
type QuantileCalculator struct {
	npv cube.Reader
	cfg QuantileConfig
}

// NewQuantileCalculator 创建计算器
// npv: 净额集 × 日期 × 样本 的 NPV 立方体 (exposure.Aggregate 的 NettedNPV)
func NewQuantileCalculator(npv cube.Reader, cfg QuantileConfig) (*QuantileCalculator, error) {
	if cfg.Quantile <= 0 || cfg.Quantile >= 1 {
		return nil, fmt.Errorf("dim: quantile %v out of (0,1)", cfg.Quantile)
	}
	if cfg.HorizonDays <= 0 {
		return nil, fmt.Errorf("dim: horizon days must be positive, got %d", cfg.HorizonDays)
	}
	if cfg.Column < 0 || cfg.Column >= npv.Depth() {
		return nil, fmt.Errorf("dim: column %d out of cube depth %d", cfg.Column, npv.Depth())
	}
	if cfg.Scaling == 0 {
		cfg.Scaling = 1
	}
	return &QuantileCalculator{npv: npv, cfg: cfg}, nil
}

// ExpectedIM 实现 Calculator
func (c *QuantileCalculator) ExpectedIM(nettingSetID string) ([]float64, error) {
	row, ok := c.npv.IndexOf(nettingSetID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNettingSet, nettingSetID)
	}

	dates := c.npv.Dates()
	samples := c.npv.Samples()
	col := c.cfg.Column
	z := distuv.UnitNormal.Quantile(c.cfg.Quantile)

	out := make([]float64, len(dates))
	delta := make([]float64, samples)
	d0 := c.npv.AsOf()
	for j, d1 := range dates {
		for k := range delta {
			prev := c.npv.GetT0(row, col)
			if j > 0 {
				prev = c.npv.Get(row, j-1, k, col)
			}
			delta[k] = c.npv.Get(row, j, k, col) - prev
		}

		var q float64
		switch c.cfg.Method {
		case Empirical:
			sort.Float64s(delta)
			q = stat.Quantile(c.cfg.Quantile, stat.Empirical, delta, nil)
		default:
			q = z * stat.StdDev(delta, nil)
		}

		stepDays := d1.Sub(d0).Hours() / 24
		scale := 1.0
		if stepDays > 0 {
			scale = math.Sqrt(float64(c.cfg.HorizonDays) / stepDays)
		}
		out[j] = max(q*scale*c.cfg.Scaling, 0)
		d0 = d1
	}
	return out, nil
}

// =============================================================================
// FixedCalculator
// =============================================================================

// FixedCalculator 静态 IM 曲线
type FixedCalculator struct {
	profiles map[string][]float64
}

// NewFixedCalculator 创建静态计算器
func NewFixedCalculator(profiles map[string][]float64) *FixedCalculator {
	cp := make(map[string][]float64, len(profiles))
	for id, p := range profiles {
		cp[id] = append([]float64(nil), p...)
	}
	return &FixedCalculator{profiles: cp}
}

// ExpectedIM 实现 Calculator
func (c *FixedCalculator) ExpectedIM(nettingSetID string) ([]float64, error) {
	p, ok := c.profiles[nettingSetID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNettingSet, nettingSetID)
	}
	return p, nil
}
