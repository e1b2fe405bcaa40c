// 文件: pkg/market/market.go
// 市场数据提供者接口
//
// XVA 核心只通过这几个窄接口读取市场:
// - 折现曲线 (按币种, 作为 OIS 基准)
// - 命名收益率曲线 (借入 / 借出资金曲线)
// - 违约曲线 (生存概率)
// - 回收率

package market

import (
	"errors"
	"time"
)

// DefaultConfiguration 默认市场配置名，查不到指定配置时回落到这里
const DefaultConfiguration = "default"

var ErrNotFound = errors.New("market: not found")

// YieldCurve 收益率曲线句柄
type YieldCurve interface {
	// Discount 折现因子 P(asOf, d)
	Discount(d time.Time) float64
}

// CreditCurve 违约曲线句柄
type CreditCurve interface {
	// SurvivalProbability 生存概率 S(asOf, d)
	SurvivalProbability(d time.Time) float64
}

// Market 市场数据提供者
//
// 所有查询都是同步内存读，并发只读安全。
// 查不到时返回包装了 ErrNotFound 的错误。
type Market interface {
	AsOf() time.Time
	DiscountCurve(ccy, configuration string) (YieldCurve, error)
	YieldCurve(name, configuration string) (YieldCurve, error)
	DefaultCurve(name, configuration string) (CreditCurve, error)
	RecoveryRate(name, configuration string) (float64, error)
}
