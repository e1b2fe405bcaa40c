// 文件: pkg/config/config.go
// 运行配置 (viper)
//
// 来源优先级: 环境变量 (XVA_ 前缀) > YAML 文件 > 默认值
// 例: XVA_XVA_BASECURRENCY=USD 覆盖 xva.baseCurrency

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"max.com/xva/pkg/xva"
)

// XVA 计算参数，与 xva.Config 一一对应
type XVA struct {
	Configuration             string `mapstructure:"configuration"`
	BaseCurrency              string `mapstructure:"baseCurrency"`
	DvaName                   string `mapstructure:"dvaName"`
	FvaBorrowingCurve         string `mapstructure:"fvaBorrowingCurve"`
	FvaLendingCurve           string `mapstructure:"fvaLendingCurve"`
	ApplyDynamicInitialMargin bool   `mapstructure:"applyDynamicInitialMargin"`
	TradeEpeIndex             int    `mapstructure:"tradeEpeIndex"`
	TradeEneIndex             int    `mapstructure:"tradeEneIndex"`
	NettingSetEpeIndex        int    `mapstructure:"nettingSetEpeIndex"`
	NettingSetEneIndex        int    `mapstructure:"nettingSetEneIndex"`
	FlipView                  bool   `mapstructure:"flipView"`
	FlipViewBorrowingPostfix  string `mapstructure:"flipViewBorrowingCurvePostfix"`
	FlipViewLendingPostfix    string `mapstructure:"flipViewLendingCurvePostfix"`
	Workers                   int    `mapstructure:"workers"`
}

// DIM 初始保证金参数
type DIM struct {
	Quantile    float64 `mapstructure:"quantile"`
	HorizonDays int     `mapstructure:"horizonDays"`
	Scaling     float64 `mapstructure:"scaling"`
	Method      string  `mapstructure:"method"` // gaussian | empirical
}

// Log 日志
type Log struct {
	Production bool   `mapstructure:"production"`
	Level      string `mapstructure:"level"`
}

// Config 全部配置
type Config struct {
	AsOf  string `mapstructure:"asOf"` // yyyy-mm-dd，为空取当天
	XVA   XVA    `mapstructure:"xva"`
	DIM   DIM    `mapstructure:"dim"`
	Log   Log    `mapstructure:"log"`
	MySQL struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"mysql"`
	Redis struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		GroupID string   `mapstructure:"groupId"`
	} `mapstructure:"kafka"`
	NATS struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"nats"`
	Metrics struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"metrics"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("xva.configuration", "default")
	v.SetDefault("xva.tradeEpeIndex", 0)
	v.SetDefault("xva.tradeEneIndex", 1)
	v.SetDefault("xva.nettingSetEpeIndex", 0)
	v.SetDefault("xva.nettingSetEneIndex", 1)
	v.SetDefault("dim.quantile", 0.99)
	v.SetDefault("dim.horizonDays", 10)
	v.SetDefault("dim.scaling", 1.0)
	v.SetDefault("dim.method", "gaussian")
	v.SetDefault("log.level", "info")
	v.SetDefault("kafka.groupId", "xva_result_writer")
	v.SetDefault("metrics.addr", ":9102")
}

// Load 读取配置
//
// path 为空时在 . 和 ./configs 下找 xva.yaml，找不到就只用默认值和环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("XVA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("xva")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// AutomaticEnv 只对已知 key 生效，显式绑定没有默认值的 key
	for _, key := range []string{
		"asOf", "xva.baseCurrency", "xva.dvaName", "xva.fvaBorrowingCurve", "xva.fvaLendingCurve",
		"xva.applyDynamicInitialMargin", "xva.flipView", "xva.flipViewBorrowingCurvePostfix",
		"xva.flipViewLendingCurvePostfix", "xva.workers", "log.production",
		"mysql.dsn", "redis.addr", "kafka.brokers", "nats.url",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// ToXVA 转换为计算器参数
func (c *Config) ToXVA() xva.Config {
	x := c.XVA
	return xva.Config{
		Configuration:                 x.Configuration,
		BaseCurrency:                  x.BaseCurrency,
		DvaName:                       x.DvaName,
		FvaBorrowingCurve:             x.FvaBorrowingCurve,
		FvaLendingCurve:               x.FvaLendingCurve,
		ApplyDynamicInitialMargin:     x.ApplyDynamicInitialMargin,
		TradeEpeIndex:                 x.TradeEpeIndex,
		TradeEneIndex:                 x.TradeEneIndex,
		NettingSetEpeIndex:            x.NettingSetEpeIndex,
		NettingSetEneIndex:            x.NettingSetEneIndex,
		FlipView:                      x.FlipView,
		FlipViewBorrowingCurvePostfix: x.FlipViewBorrowingPostfix,
		FlipViewLendingCurvePostfix:   x.FlipViewLendingPostfix,
		Workers:                       x.Workers,
	}
}

// AsOfDate 估值日
func (c *Config) AsOfDate() (time.Time, error) {
	if c.AsOf == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.Parse(time.DateOnly, c.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse asOf %q: %w", c.AsOf, err)
	}
	return d, nil
}
