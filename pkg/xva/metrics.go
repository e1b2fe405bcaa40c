// 文件: pkg/xva/metrics.go
// Prometheus 指标

package xva

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics Build 指标
type Metrics struct {
	buildDuration *prometheus.HistogramVec
	entities      *prometheus.CounterVec
}

// NewMetrics 创建并注册指标
// reg 为 nil 时不注册 (测试中常用)
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		buildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "xva",
				Name:      "build_duration_seconds",
				Help:      "Duration of XVA build passes",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"pass"},
		),
		entities: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "xva",
				Name:      "entities_processed_total",
				Help:      "Entities processed by the XVA build",
			},
			[]string{"pass", "status"},
		),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.buildDuration, m.entities} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) observePass(pass string, start time.Time) {
	if m == nil {
		return
	}
	m.buildDuration.WithLabelValues(pass).Observe(time.Since(start).Seconds())
}

func (m *Metrics) countEntity(pass string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.entities.WithLabelValues(pass, status).Inc()
}
