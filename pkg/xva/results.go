// 文件: pkg/xva/results.go
// 结果集
//
// 交易级 9 个量、净额集级 9 个量，外加净额集上的交易 CVA / DVA 求和。
// Build 完成后整体替换，之后只读。

package xva

import "maps"

// Scope 结果层级
type Scope int

const (
	ScopeTrade Scope = iota
	ScopeNettingSet
)

func (s Scope) String() string {
	if s == ScopeNettingSet {
		return "netting_set"
	}
	return "trade"
}

// label 用于错误信息
func (s Scope) label() string {
	if s == ScopeNettingSet {
		return "netting set"
	}
	return "trade"
}

// contextKey 结构化错误的上下文键
func (s Scope) contextKey() string {
	if s == ScopeNettingSet {
		return "nettingSetId"
	}
	return "tradeId"
}

// Kind 调整量类型
type Kind int

const (
	CVA Kind = iota
	DVA
	FCA
	FCAExOwnSP
	FCAExAllSP
	FBA
	FBAExOwnSP
	FBAExAllSP
	MVA
	// 以下两个只在净额集层级
	SumTradeCVA
	SumTradeDVA

	numEntityKinds = int(MVA) + 1
	numKinds       = int(SumTradeDVA) + 1
)

var kindNames = [numKinds]string{
	CVA:         "CVA",
	DVA:         "DVA",
	FCA:         "FCA",
	FCAExOwnSP:  "FCA ex own sp",
	FCAExAllSP:  "FCA ex all sp",
	FBA:         "FBA",
	FBAExOwnSP:  "FBA ex own sp",
	FBAExAllSP:  "FBA ex all sp",
	MVA:         "MVA",
	SumTradeCVA: "sum of trade CVA",
	SumTradeDVA: "sum of trade DVA",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= numKinds {
		return "unknown"
	}
	return kindNames[k]
}

// Kinds 某层级上的全部量，顺序固定
func Kinds(scope Scope) []Kind {
	n := numEntityKinds
	if scope == ScopeNettingSet {
		n = numKinds
	}
	out := make([]Kind, n)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// Results 一次 Build 的全部结果
type Results struct {
	trade      [numKinds]map[string]float64
	nettingSet [numKinds]map[string]float64
}

func newResults() *Results {
	r := &Results{}
	for i := range numKinds {
		if i < numEntityKinds {
			r.trade[i] = make(map[string]float64)
		}
		r.nettingSet[i] = make(map[string]float64)
	}
	return r
}

func (r *Results) table(scope Scope, kind Kind) map[string]float64 {
	if kind < 0 || int(kind) >= numKinds {
		return nil
	}
	if scope == ScopeNettingSet {
		return r.nettingSet[kind]
	}
	return r.trade[kind]
}

// Get 单个结果；不存在返回 *NotFoundError
func (r *Results) Get(scope Scope, kind Kind, id string) (float64, error) {
	if v, ok := r.table(scope, kind)[id]; ok {
		return v, nil
	}
	return 0, &NotFoundError{Kind: kind, Scope: scope, ID: id}
}

// Map 整张表的拷贝，从不失败
func (r *Results) Map(scope Scope, kind Kind) map[string]float64 {
	t := r.table(scope, kind)
	if t == nil {
		return map[string]float64{}
	}
	return maps.Clone(t)
}

// Each 遍历全部结果
func (r *Results) Each(fn func(scope Scope, kind Kind, id string, value float64)) {
	for _, scope := range []Scope{ScopeTrade, ScopeNettingSet} {
		for _, kind := range Kinds(scope) {
			for id, v := range r.table(scope, kind) {
				fn(scope, kind, id, v)
			}
		}
	}
}

// Len 某层级成功的实体数
func (r *Results) Len(scope Scope) int {
	return len(r.table(scope, CVA))
}

// set 写入一个实体的全部累加值
func (r *Results) set(scope Scope, id string, acc *accumulator) {
	for k := range numEntityKinds {
		r.table(scope, Kind(k))[id] = acc[k]
	}
}

// accumulate 净额集求和表的 upsert: 不存在按 0 起算
func (r *Results) accumulate(kind Kind, nettingSetID string, v float64) {
	r.nettingSet[kind][nettingSetID] += v
}
