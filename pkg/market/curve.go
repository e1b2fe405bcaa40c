// 文件: pkg/market/curve.go
// 曲线实现
//
// 时间轴统一用 ACT/365F，与插值和零息率的市场惯例一致。
// 插值方式: 折现因子 / 生存概率做对数线性插值 (分段常数远期 / 风险率)。

package market

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	ErrNoPillars       = errors.New("market: curve needs at least one pillar")
	ErrPillarOrder     = errors.New("market: pillar dates must be strictly increasing and after asOf")
	ErrNonPositiveNode = errors.New("market: curve node values must be positive")
)

// YearFraction ACT/365F
func YearFraction(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24 / 365.0
}

// Pillar 曲线节点
type Pillar struct {
	Date  time.Time
	Value float64
}

// =============================================================================
// 平坦曲线
// =============================================================================

// FlatYieldCurve 平坦连续复利曲线: P(t) = exp(-r*t)
type FlatYieldCurve struct {
	asOf time.Time
	rate float64
}

func NewFlatYieldCurve(asOf time.Time, rate float64) *FlatYieldCurve {
	return &FlatYieldCurve{asOf: asOf, rate: rate}
}

func (c *FlatYieldCurve) Discount(d time.Time) float64 {
	return math.Exp(-c.rate * YearFraction(c.asOf, d))
}

// FlatHazardCurve 平坦风险率曲线: S(t) = exp(-lambda*t)
type FlatHazardCurve struct {
	asOf   time.Time
	hazard float64
}

func NewFlatHazardCurve(asOf time.Time, hazard float64) *FlatHazardCurve {
	return &FlatHazardCurve{asOf: asOf, hazard: hazard}
}

func (c *FlatHazardCurve) SurvivalProbability(d time.Time) float64 {
	t := YearFraction(c.asOf, d)
	if t <= 0 {
		return 1.0
	}
	return math.Exp(-c.hazard * t)
}

// =============================================================================
// 插值曲线
// =============================================================================

// logLinearNodes 节点 (t_i, ln v_i)，隐含 t_0 = 0, v_0 = 1
type logLinearNodes struct {
	asOf  time.Time
	times []float64
	logs  []float64
	vals  []float64
}

func newLogLinearNodes(asOf time.Time, pillars []Pillar) (logLinearNodes, error) {
	if len(pillars) == 0 {
		return logLinearNodes{}, ErrNoPillars
	}
	n := logLinearNodes{
		asOf:  asOf,
		times: make([]float64, 0, len(pillars)+1),
		logs:  make([]float64, 0, len(pillars)+1),
		vals:  make([]float64, 0, len(pillars)+1),
	}
	n.times = append(n.times, 0)
	n.logs = append(n.logs, 0)
	n.vals = append(n.vals, 1)

	prev := asOf
	for _, p := range pillars {
		if !p.Date.After(prev) {
			return logLinearNodes{}, fmt.Errorf("%w: %s", ErrPillarOrder, p.Date.Format(time.DateOnly))
		}
		if p.Value <= 0 {
			return logLinearNodes{}, fmt.Errorf("%w: %s=%v", ErrNonPositiveNode, p.Date.Format(time.DateOnly), p.Value)
		}
		n.times = append(n.times, YearFraction(asOf, p.Date))
		n.logs = append(n.logs, math.Log(p.Value))
		n.vals = append(n.vals, p.Value)
		prev = p.Date
	}
	return n, nil
}

// value 对数线性插值，最后一段之后按最后一段的斜率外推 (flat forward)
func (n logLinearNodes) value(d time.Time) float64 {
	t := YearFraction(n.asOf, d)
	if t <= 0 {
		return 1.0
	}

	// 第一个 >= t 的节点
	i := sort.SearchFloat64s(n.times, t)
	if i < len(n.times) && n.times[i] == t {
		return n.vals[i]
	}
	if i >= len(n.times) {
		i = len(n.times) - 1
	}
	t1, t2 := n.times[i-1], n.times[i]
	l1, l2 := n.logs[i-1], n.logs[i]
	slope := (l2 - l1) / (t2 - t1)
	return math.Exp(l1 + slope*(t-t1))
}

// InterpolatedDiscountCurve 折现因子节点曲线
type InterpolatedDiscountCurve struct {
	nodes logLinearNodes
}

func NewInterpolatedDiscountCurve(asOf time.Time, pillars []Pillar) (*InterpolatedDiscountCurve, error) {
	nodes, err := newLogLinearNodes(asOf, pillars)
	if err != nil {
		return nil, err
	}
	return &InterpolatedDiscountCurve{nodes: nodes}, nil
}

func (c *InterpolatedDiscountCurve) Discount(d time.Time) float64 {
	return c.nodes.value(d)
}

// InterpolatedSurvivalCurve 生存概率节点曲线
type InterpolatedSurvivalCurve struct {
	nodes logLinearNodes
}

func NewInterpolatedSurvivalCurve(asOf time.Time, pillars []Pillar) (*InterpolatedSurvivalCurve, error) {
	nodes, err := newLogLinearNodes(asOf, pillars)
	if err != nil {
		return nil, err
	}
	return &InterpolatedSurvivalCurve{nodes: nodes}, nil
}

func (c *InterpolatedSurvivalCurve) SurvivalProbability(d time.Time) float64 {
	return c.nodes.value(d)
}
