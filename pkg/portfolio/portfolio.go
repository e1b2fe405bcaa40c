// 文件: pkg/portfolio/portfolio.go
// 组合: 交易列表 + 交易信封 (净额集 / 对手方)
//
// XVA 只读取三样东西:
// - 交易 ID
// - 所属净额集
// - 对手方
// 迭代顺序就是插入顺序，净额集 → 对手方映射依赖这个顺序 (先到先得)。

package portfolio

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateTrade = errors.New("portfolio: duplicate trade id")
	ErrEmptyEnvelope  = errors.New("portfolio: netting set id required")
)

// Envelope 交易信封
type Envelope struct {
	NettingSetID string `json:"netting_set_id"`
	Counterparty string `json:"counterparty"`
}

// Trade 交易
type Trade struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"` // Swap, FxForward ... 只做展示
	Envelope Envelope `json:"envelope"`
}

// Portfolio 有序组合
//
// 非并发写安全: 组装完成后再交给计算器，之后只读。
type Portfolio struct {
	trades []*Trade
	index  map[string]int
}

// New 创建空组合
func New() *Portfolio {
	return &Portfolio{index: make(map[string]int)}
}

// Add 添加交易
//
// ID 为空时分配雪花 ID；重复 ID 返回 ErrDuplicateTrade。
func (p *Portfolio) Add(t *Trade) error {
	if t == nil {
		return errors.New("portfolio: nil trade")
	}
	if t.Envelope.NettingSetID == "" {
		return fmt.Errorf("trade %s: %w", t.ID, ErrEmptyEnvelope)
	}
	if t.ID == "" {
		t.ID = NewTradeID()
	}
	if _, ok := p.index[t.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTrade, t.ID)
	}
	p.index[t.ID] = len(p.trades)
	p.trades = append(p.trades, t)
	return nil
}

// Trades 按插入顺序返回交易
func (p *Portfolio) Trades() []*Trade {
	return p.trades
}

// Size 交易数量
func (p *Portfolio) Size() int {
	return len(p.trades)
}

// Get 按 ID 查找
func (p *Portfolio) Get(id string) (*Trade, bool) {
	i, ok := p.index[id]
	if !ok {
		return nil, false
	}
	return p.trades[i], true
}

// IDs 按插入顺序返回交易 ID
func (p *Portfolio) IDs() []string {
	ids := make([]string, len(p.trades))
	for i, t := range p.trades {
		ids[i] = t.ID
	}
	return ids
}

// NettingSetIDs 按首次出现顺序返回去重后的净额集 ID
func (p *Portfolio) NettingSetIDs() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range p.trades {
		ns := t.Envelope.NettingSetID
		if _, ok := seen[ns]; ok {
			continue
		}
		seen[ns] = struct{}{}
		out = append(out, ns)
	}
	return out
}
