// 文件: pkg/xva/entity.go
// 实体: 交易 / 净额集
//
// 两类实体共用同一套累加流程 (processEntity)，差别只在:
// - 从哪个立方体、哪两列读敞口
// - 净额集额外计算 MVA

package xva

import (
	"fmt"

	"max.com/xva/pkg/cube"
)

// entity 累加流程需要的最小能力
type entity interface {
	scope() Scope
	id() string
	counterparty() string
	// bind 定位立方体行，找不到时返回错误
	bind() error
	epe(j int) float64
	ene(j int) float64
}

// exposureRow 立方体中的一行
type exposureRow struct {
	cube   cube.Reader
	row    int
	epeCol int
	eneCol int
}

func (r *exposureRow) locate(scope Scope, id string) error {
	row, ok := r.cube.IndexOf(id)
	if !ok {
		return fmt.Errorf("%s %s not found in exposure cube", scope.label(), id)
	}
	r.row = row
	return nil
}

// 敞口取样本 0: 立方体的 EPE / ENE 列已是样本期望
func (r *exposureRow) epe(j int) float64 { return r.cube.Get(r.row, j, 0, r.epeCol) }
func (r *exposureRow) ene(j int) float64 { return r.cube.Get(r.row, j, 0, r.eneCol) }

// tradeEntity 交易
type tradeEntity struct {
	exposureRow
	tradeID      string
	nettingSetID string
	cpty         string
}

func (t *tradeEntity) scope() Scope         { return ScopeTrade }
func (t *tradeEntity) id() string           { return t.tradeID }
func (t *tradeEntity) counterparty() string { return t.cpty }
func (t *tradeEntity) bind() error          { return t.locate(ScopeTrade, t.tradeID) }

// nettingSetEntity 净额集
type nettingSetEntity struct {
	exposureRow
	nettingSetID string
	cpty         string
}

func (n *nettingSetEntity) scope() Scope         { return ScopeNettingSet }
func (n *nettingSetEntity) id() string           { return n.nettingSetID }
func (n *nettingSetEntity) counterparty() string { return n.cpty }
func (n *nettingSetEntity) bind() error          { return n.locate(ScopeNettingSet, n.nettingSetID) }

func (c *Calculator) tradeEntities() []entity {
	trades := c.portfolio.Trades()
	out := make([]entity, len(trades))
	for i, t := range trades {
		out[i] = &tradeEntity{
			exposureRow:  exposureRow{cube: c.tradeCube, epeCol: c.cfg.TradeEpeIndex, eneCol: c.cfg.TradeEneIndex},
			tradeID:      t.ID,
			nettingSetID: t.Envelope.NettingSetID,
			cpty:         t.Envelope.Counterparty,
		}
	}
	return out
}

func (c *Calculator) nettingSetEntities() []entity {
	out := make([]entity, len(c.nettingSets))
	for i, ns := range c.nettingSets {
		out[i] = &nettingSetEntity{
			exposureRow:  exposureRow{cube: c.nettingSetCube, epeCol: c.cfg.NettingSetEpeIndex, eneCol: c.cfg.NettingSetEneIndex},
			nettingSetID: ns.id,
			cpty:         ns.counterparty,
		}
	}
	return out
}
