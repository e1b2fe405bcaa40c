// xvarun 一次完整的 XVA 计算
//
// 流程:
//
//	行情 (MySQL + Redis 或演示市场)
//	  → 模拟 NPV 立方体 → 敞口聚合 → DIM
//	  → XVA 计算 (实体错误同时写日志和 NATS)
//	  → 结果发布到 Kafka (xvawriter 落库)
//
// 指标在 metrics.addr 暴露，计算结束后进程退出。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"max.com/xva/pkg/config"
	"max.com/xva/pkg/dim"
	"max.com/xva/pkg/exposure"
	"max.com/xva/pkg/kafka"
	"max.com/xva/pkg/logger"
	"max.com/xva/pkg/market"
	xnats "max.com/xva/pkg/nats"
	"max.com/xva/pkg/portfolio"
	"max.com/xva/pkg/scenario"
	"max.com/xva/pkg/store"
	"max.com/xva/pkg/xva"
)

func main() {
	configPath := flag.String("config", "", "path to xva.yaml")
	trades := flag.Int("trades", 30, "number of demo trades")
	months := flag.Int("months", 60, "monthly grid length")
	samples := flag.Int("samples", 1000, "simulation paths")
	linger := flag.Duration("linger", 0, "keep /metrics up after the run")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log.Production, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux(reg)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("metrics listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		opts := runOptions{trades: *trades, months: *months, samples: *samples}
		if err := run(gctx, cfg, reg, log, opts); err != nil {
			return err
		}
		if *linger > 0 {
			select {
			case <-gctx.Done():
			case <-time.After(*linger):
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("xva run failed", zap.Error(err))
		os.Exit(1)
	}
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}

type runOptions struct {
	trades  int
	months  int
	samples int
}

func run(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, log *zap.Logger, opts runOptions) error {
	asOf, err := cfg.AsOfDate()
	if err != nil {
		return err
	}
	if err := portfolio.InitIDNode(1); err != nil {
		return err
	}
	runID := store.NewRunID()
	log = log.With(zap.String("run_id", runID.String()), zap.String("as_of", asOf.Format(time.DateOnly)))

	// 1. 市场
	mkt, err := loadMarket(ctx, cfg, asOf, log)
	if err != nil {
		return err
	}

	// 2. 组合与 NPV 立方体
	p, err := scenario.DemoPortfolio(opts.trades)
	if err != nil {
		return err
	}
	scfg := scenario.DefaultConfig()
	scfg.Samples = opts.samples
	npv, err := scenario.Generate(asOf, scenario.Grid(asOf, opts.months, scenario.Monthly), p, scfg)
	if err != nil {
		return err
	}

	// 3. 敞口聚合
	exp, err := exposure.Aggregate(ctx, npv, p)
	if err != nil {
		return fmt.Errorf("aggregate exposure: %w", err)
	}

	// 4. DIM
	var dimCalc dim.Calculator
	if cfg.XVA.ApplyDynamicInitialMargin {
		qc := dim.QuantileConfig{
			Quantile:    cfg.DIM.Quantile,
			HorizonDays: cfg.DIM.HorizonDays,
			Scaling:     cfg.DIM.Scaling,
		}
		if cfg.DIM.Method == "empirical" {
			qc.Method = dim.Empirical
		}
		if dimCalc, err = dim.NewQuantileCalculator(exp.NettedNPV, qc); err != nil {
			return err
		}
	}

	// 5. 错误上报: 日志 + NATS
	reporters := xva.MultiReporter{xva.NewLogReporter(log)}
	var pub *xnats.Publisher
	if cfg.NATS.URL != "" {
		nc, err := xnats.Connect(cfg.NATS.URL, "xvarun")
		if err != nil {
			return err
		}
		defer nc.Close()
		pub = xnats.NewPublisher(nc)
		defer func() {
			if err := pub.Flush(2 * time.Second); err != nil {
				log.Warn("flush nats", zap.Error(err))
			}
		}()
		reporters = append(reporters, xnats.NewErrorReporter(pub, runID.String(), log))
	}

	metrics, err := xva.NewMetrics(reg)
	if err != nil {
		return err
	}

	// 6. 计算
	calc, err := xva.NewCalculator(p, mkt, dimCalc, exp.Trade, exp.NettingSet, cfg.ToXVA(),
		xva.WithLogger(log), xva.WithErrorReporter(reporters), xva.WithMetrics(metrics))
	if err != nil {
		return err
	}
	start := time.Now()
	if err := calc.Build(ctx); err != nil {
		return fmt.Errorf("build xva: %w", err)
	}
	summarize(calc, log)
	if pub != nil {
		ev := xnats.NewRunEvent(runID.String(), asOf, p.Size(), len(p.NettingSetIDs()), calc.Results(), time.Since(start))
		if err := pub.Publish(xnats.SubjectXvaRuns, ev); err != nil {
			log.Warn("publish run event", zap.Error(err))
		}
	}

	// 7. 发布
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("kafka not configured, results not published")
		return nil
	}
	producer, err := kafka.NewProducer(kafka.DefaultProducerConfig(cfg.Kafka.Brokers), log)
	if err != nil {
		return err
	}
	n, err := store.NewResultPublisher(producer).Publish(runID, asOf, calc.Results())
	if cerr := producer.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	log.Info("results published", zap.Int("events", n), zap.String("topic", store.TopicResults))
	return nil
}

// loadMarket 配置了 MySQL 时从报价表加载，否则用演示市场
func loadMarket(ctx context.Context, cfg *config.Config, asOf time.Time, log *zap.Logger) (market.Market, error) {
	if cfg.MySQL.DSN == "" {
		log.Info("mysql not configured, using demo market")
		return scenario.DemoMarket(asOf, cfg.XVA.BaseCurrency), nil
	}

	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	var repo market.QuoteRepository = market.NewMySQLQuoteRepository(db)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer rdb.Close()
		cached := market.NewCachedQuoteRepository(repo, rdb)
		cached.SetLogger(log)
		repo = cached
	}

	mkt, err := market.Load(ctx, repo, asOf, cfg.XVA.Configuration)
	if err != nil {
		return nil, fmt.Errorf("load market: %w", err)
	}
	return mkt, nil
}

// summarize 打印净额集级结果
func summarize(calc *xva.Calculator, log *zap.Logger) {
	res := calc.Results()
	for _, id := range slices.Sorted(maps.Keys(res.Map(xva.ScopeNettingSet, xva.CVA))) {
		fields := []zap.Field{zap.String("netting_set", id)}
		for _, k := range xva.Kinds(xva.ScopeNettingSet) {
			if v, err := res.Get(xva.ScopeNettingSet, k, id); err == nil {
				fields = append(fields, zap.Float64(k.String(), v))
			}
		}
		log.Info("netting set xva", fields...)
	}
	log.Info("xva totals",
		zap.Int("trades", res.Len(xva.ScopeTrade)),
		zap.Int("netting_sets", res.Len(xva.ScopeNettingSet)))
}
