// 文件: pkg/xva/increment.go
// 单步增量 (纯函数)
//
// 时间步 [d0, d1]，敞口取 d1 上的 EPE / ENE:
//   CVA = (1 − RR_c) · (S_c(d0) − S_c(d1)) · EPE
//   DVA = (1 − RR_d) · (S_d(d0) − S_d(d1)) · ENE
//   FCA = S_c(d0) · S_d(d0) · dcf_borrow · EPE
//   FBA = S_c(d0) · S_d(d0) · dcf_lend   · ENE
//   MVA = S_c(d0) · S_d(d0) · dcf_borrow · E[IM]
// 违约曲线为 nil 表示剔除该生存概率因子 (ex own sp / ex all sp)

package xva

import (
	"time"

	"max.com/xva/pkg/market"
)

// CvaIncrement 对手方违约损失增量
func CvaIncrement(cva market.CreditCurve, rr float64, d0, d1 time.Time, epe float64) float64 {
	return (1 - rr) * (cva.SurvivalProbability(d0) - cva.SurvivalProbability(d1)) * epe
}

// DvaIncrement 自身违约增量，own 为 nil 时为 0
func DvaIncrement(own market.CreditCurve, rr float64, d0, d1 time.Time, ene float64) float64 {
	if own == nil {
		return 0
	}
	return (1 - rr) * (own.SurvivalProbability(d0) - own.SurvivalProbability(d1)) * ene
}

// FundingIncrement FCA / FBA 增量
func FundingIncrement(cva, dva market.CreditCurve, d0 time.Time, dcf, exposure float64) float64 {
	return survival(cva, d0) * survival(dva, d0) * dcf * exposure
}

// MvaIncrement 初始保证金资金成本增量
func MvaIncrement(cva, dva market.CreditCurve, d0 time.Time, dcf, im float64) float64 {
	return FundingIncrement(cva, dva, d0, dcf, im)
}

// FundingSpreadDcf 资金利差在 [d0, d1] 上的贴现比差
func FundingSpreadDcf(funding, ois market.YieldCurve, d0, d1 time.Time) float64 {
	return funding.Discount(d0)/funding.Discount(d1) - ois.Discount(d0)/ois.Discount(d1)
}

func survival(c market.CreditCurve, d time.Time) float64 {
	if c == nil {
		return 1
	}
	return c.SurvivalProbability(d)
}
