// 文件: pkg/xva/names.go
// 反转视角 (flip view) 下的有效曲线名
//
// 正常视角: 对手方违约曲线 = 交易对手方；自身 = DvaName；资金曲线 = 配置值
// 反转视角: 站在对手方账本上看
//   - 对手方 (cid) = 原始 DvaName
//   - 自身 (dva)   = 交易对手方
//   - 资金曲线     = 交易对手方 + 后缀 (后缀可为空，即对手方同名曲线)

package xva

// effectiveNames 单个实体的有效名称，纯函数，不改动计算器状态
type effectiveNames struct {
	cid       string // 违约曲线 / 回收率 (CVA 一侧)
	dva       string // 自身 (DVA 一侧)，空表示不计 DVA
	borrowing string // FCA 资金曲线，空表示不计
	lending   string // FBA 资金曲线，空表示不计
}

func resolveNames(cfg Config, counterparty string) effectiveNames {
	if !cfg.FlipView {
		return effectiveNames{
			cid:       counterparty,
			dva:       cfg.DvaName,
			borrowing: cfg.FvaBorrowingCurve,
			lending:   cfg.FvaLendingCurve,
		}
	}

	return effectiveNames{
		cid:       cfg.DvaName,
		dva:       counterparty,
		borrowing: counterparty + cfg.FlipViewBorrowingCurvePostfix,
		lending:   counterparty + cfg.FlipViewLendingCurvePostfix,
	}
}
