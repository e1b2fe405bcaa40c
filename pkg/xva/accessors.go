// 文件: pkg/xva/accessors.go
// 结果访问器
//
// 批量访问器返回拷贝，从不失败，可能只含部分实体 (失败实体缺席)。
// 单个访问器查不到时返回 *NotFoundError (errors.Is(err, ErrNotFound))。

package xva

func (c *Calculator) bulk(scope Scope, kind Kind) map[string]float64 {
	return c.Results().Map(scope, kind)
}

func (c *Calculator) single(scope Scope, kind Kind, id string) (float64, error) {
	return c.Results().Get(scope, kind, id)
}

// =============================================================================
// 交易级
// =============================================================================

func (c *Calculator) TradeCva() map[string]float64 { return c.bulk(ScopeTrade, CVA) }
func (c *Calculator) TradeCvaByID(id string) (float64, error) {
	return c.single(ScopeTrade, CVA, id)
}

func (c *Calculator) TradeDva() map[string]float64 { return c.bulk(ScopeTrade, DVA) }
func (c *Calculator) TradeDvaByID(id string) (float64, error) {
	return c.single(ScopeTrade, DVA, id)
}

func (c *Calculator) TradeFca() map[string]float64 { return c.bulk(ScopeTrade, FCA) }
func (c *Calculator) TradeFcaByID(id string) (float64, error) {
	return c.single(ScopeTrade, FCA, id)
}

func (c *Calculator) TradeFcaExOwnSp() map[string]float64 { return c.bulk(ScopeTrade, FCAExOwnSP) }
func (c *Calculator) TradeFcaExOwnSpByID(id string) (float64, error) {
	return c.single(ScopeTrade, FCAExOwnSP, id)
}

func (c *Calculator) TradeFcaExAllSp() map[string]float64 { return c.bulk(ScopeTrade, FCAExAllSP) }
func (c *Calculator) TradeFcaExAllSpByID(id string) (float64, error) {
	return c.single(ScopeTrade, FCAExAllSP, id)
}

func (c *Calculator) TradeFba() map[string]float64 { return c.bulk(ScopeTrade, FBA) }
func (c *Calculator) TradeFbaByID(id string) (float64, error) {
	return c.single(ScopeTrade, FBA, id)
}

func (c *Calculator) TradeFbaExOwnSp() map[string]float64 { return c.bulk(ScopeTrade, FBAExOwnSP) }
func (c *Calculator) TradeFbaExOwnSpByID(id string) (float64, error) {
	return c.single(ScopeTrade, FBAExOwnSP, id)
}

func (c *Calculator) TradeFbaExAllSp() map[string]float64 { return c.bulk(ScopeTrade, FBAExAllSP) }
func (c *Calculator) TradeFbaExAllSpByID(id string) (float64, error) {
	return c.single(ScopeTrade, FBAExAllSP, id)
}

func (c *Calculator) TradeMva() map[string]float64 { return c.bulk(ScopeTrade, MVA) }
func (c *Calculator) TradeMvaByID(id string) (float64, error) {
	return c.single(ScopeTrade, MVA, id)
}

// =============================================================================
// 净额集级
// =============================================================================

func (c *Calculator) NettingSetCva() map[string]float64 { return c.bulk(ScopeNettingSet, CVA) }
func (c *Calculator) NettingSetCvaByID(id string) (float64, error) {
	return c.single(ScopeNettingSet, CVA, id)
}

func (c *Calculator) NettingSetDva() map[string]float64 { return c.bulk(ScopeNettingSet, DVA) }
func (c *Calculator) NettingSetDvaByID(id string) (float64, error) {
	return c.single(ScopeNettingSet, DVA, id)
}

func (c *Calculator) NettingSetFca() map[string]float64 { return c.bulk(ScopeNettingSet, FCA) }
func (c *Calculator) NettingSetFcaByID(id string) (float64, error) {
	return c.single(ScopeNettingSet, FCA, id)
}

func (c *Calculator) NettingSetFcaExOwnSp() map[string]float64 { return c.bulk(ScopeNettingSet, FCAExOwnSP) }
func (c *Calculator) NettingSetFcaExOwnSpByID(id string) (float64, error) {
	return c.single(ScopeNettingSet, FCAExOwnSP, id)
}

func (c *Calculator) NettingSetFcaExAllSp() map[string]float64 { return c.bulk(ScopeNettingSet, FCAExAllSP) }
func (c *Calculator) NettingSetFcaExAllSpByID(id string) (float64, error) {
	return c.single(ScopeNettingSet, FCAExAllSP, id)
}

func (c *Calculator) NettingSetFba() map[string]float64 { return c.bulk(ScopeNettingSet, FBA) }
func (c *Calculator) NettingSetFbaByID(id string) (float64, error) {
	return c.single(ScopeNettingSet, FBA, id)
}

func (c *Calculator) NettingSetFbaExOwnSp() map[string]float64 { return c.bulk(ScopeNettingSet, FBAExOwnSP) }
func (c *Calculator) NettingSetFbaExOwnSpByID(id string) (float64, error) {
	return c.single(ScopeNettingSet, FBAExOwnSP, id)
}

func (c *Calculator) NettingSetFbaExAllSp() map[string]float64 { return c.bulk(ScopeNettingSet, FBAExAllSP) }
func (c *Calculator) NettingSetFbaExAllSpByID(id string) (float64, error) {
	return c.single(ScopeNettingSet, FBAExAllSP, id)
}

func (c *Calculator) NettingSetMva() map[string]float64 { return c.bulk(ScopeNettingSet, MVA) }
func (c *Calculator) NettingSetMvaByID(id string) (float64, error) {
	return c.single(ScopeNettingSet, MVA, id)
}

// 净额集内交易级 CVA / DVA 之和，与净额集立方体直接算出的值不同 (无净额效应)
func (c *Calculator) NettingSetSumCva() map[string]float64 { return c.bulk(ScopeNettingSet, SumTradeCVA) }
func (c *Calculator) NettingSetSumCvaByID(id string) (float64, error) {
	return c.single(ScopeNettingSet, SumTradeCVA, id)
}

func (c *Calculator) NettingSetSumDva() map[string]float64 { return c.bulk(ScopeNettingSet, SumTradeDVA) }
func (c *Calculator) NettingSetSumDvaByID(id string) (float64, error) {
	return c.single(ScopeNettingSet, SumTradeDVA, id)
}
