// 文件: pkg/market/simple.go
// 内存市场实现
//
// 按 (配置, 名称) 存储曲线和回收率。
// 查询时先查指定配置，查不到回落到 DefaultConfiguration。

package market

import (
	"fmt"
	"sync"
	"time"
)

// 确保实现了接口
var _ Market = (*SimpleMarket)(nil)

type marketKey struct {
	configuration string
	name          string
}

// SimpleMarket 线程安全的内存市场
type SimpleMarket struct {
	asOf time.Time

	mu             sync.RWMutex
	discountCurves map[marketKey]YieldCurve
	yieldCurves    map[marketKey]YieldCurve
	defaultCurves  map[marketKey]CreditCurve
	recoveryRates  map[marketKey]float64
}

func NewSimpleMarket(asOf time.Time) *SimpleMarket {
	return &SimpleMarket{
		asOf:           asOf,
		discountCurves: make(map[marketKey]YieldCurve),
		yieldCurves:    make(map[marketKey]YieldCurve),
		defaultCurves:  make(map[marketKey]CreditCurve),
		recoveryRates:  make(map[marketKey]float64),
	}
}

func (m *SimpleMarket) AsOf() time.Time { return m.asOf }

// =============================================================================
// 写入
// =============================================================================

func (m *SimpleMarket) SetDiscountCurve(configuration, ccy string, c YieldCurve) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discountCurves[marketKey{normalize(configuration), ccy}] = c
}

func (m *SimpleMarket) SetYieldCurve(configuration, name string, c YieldCurve) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.yieldCurves[marketKey{normalize(configuration), name}] = c
}

func (m *SimpleMarket) SetDefaultCurve(configuration, name string, c CreditCurve) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultCurves[marketKey{normalize(configuration), name}] = c
}

func (m *SimpleMarket) SetRecoveryRate(configuration, name string, rr float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recoveryRates[marketKey{normalize(configuration), name}] = rr
}

// =============================================================================
// 查询
// =============================================================================

func (m *SimpleMarket) DiscountCurve(ccy, configuration string) (YieldCurve, error) {
	return lookup(m, m.discountCurves, "discount curve", ccy, configuration)
}

func (m *SimpleMarket) YieldCurve(name, configuration string) (YieldCurve, error) {
	return lookup(m, m.yieldCurves, "yield curve", name, configuration)
}

func (m *SimpleMarket) DefaultCurve(name, configuration string) (CreditCurve, error) {
	return lookup(m, m.defaultCurves, "default curve", name, configuration)
}

func (m *SimpleMarket) RecoveryRate(name, configuration string) (float64, error) {
	return lookup(m, m.recoveryRates, "recovery rate", name, configuration)
}

func lookup[V any](m *SimpleMarket, store map[marketKey]V, kind, name, configuration string) (V, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg := normalize(configuration)
	if v, ok := store[marketKey{cfg, name}]; ok {
		return v, nil
	}
	if cfg != DefaultConfiguration {
		if v, ok := store[marketKey{DefaultConfiguration, name}]; ok {
			return v, nil
		}
	}
	var zero V
	return zero, fmt.Errorf("%w: %s %q (configuration %q)", ErrNotFound, kind, name, cfg)
}

func normalize(configuration string) string {
	if configuration == "" {
		return DefaultConfiguration
	}
	return configuration
}
