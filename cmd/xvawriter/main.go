// xvawriter 常驻进程
//
// - 消费 xva_results，批量 upsert 到 MySQL
// - 订阅 xva.errors，把实体失败写进日志
// - 写入统计通过 /metrics 暴露
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"max.com/xva/pkg/config"
	"max.com/xva/pkg/logger"
	xnats "max.com/xva/pkg/nats"
	"max.com/xva/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "path to xva.yaml")
	flushInterval := flag.Duration("flush", time.Second, "db flush interval")
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

	if err := run(cfg, *flushInterval, log); err != nil {
		log.Error("xvawriter exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, flushInterval time.Duration, log *zap.Logger) error {
	if cfg.MySQL.DSN == "" || len(cfg.Kafka.Brokers) == 0 {
		return errors.New("mysql.dsn and kafka.brokers are required")
	}

	// 1. 存储
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}
	repo := store.NewResultRepo(db)
	if err := repo.AutoMigrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// 2. Kafka → MySQL
	wcfg := store.DefaultDBWriterConfig(cfg.Kafka.Brokers)
	wcfg.GroupID = cfg.Kafka.GroupID
	wcfg.FlushInterval = flushInterval
	writer, err := store.NewDBWriter(wcfg, repo, log)
	if err != nil {
		return err
	}
	writer.Start(wcfg.FlushInterval)
	defer func() {
		if err := writer.Stop(); err != nil {
			log.Warn("stop writer", zap.Error(err))
		}
		s := writer.Stats()
		log.Info("writer stopped",
			zap.Int64("received", s.ReceivedCount),
			zap.Int64("written", s.WrittenCount),
			zap.Int64("errors", s.ErrorCount))
	}()

	// 3. 错误事件
	if cfg.NATS.URL != "" {
		nc, err := xnats.Connect(cfg.NATS.URL, "xvawriter")
		if err != nil {
			return err
		}
		defer nc.Close()
		sub := xnats.NewSubscriber(nc, logEvent(log), log)
		defer sub.Close()
		for _, subject := range []string{xnats.SubjectXvaErrors, xnats.SubjectXvaRuns} {
			if err := sub.SubscribeQueue(subject, "xvawriter"); err != nil {
				return err
			}
		}
	}

	// 4. 指标
	reg := prometheus.NewRegistry()
	if err := registerWriterStats(reg, writer); err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("xvawriter started", zap.String("metrics", srv.Addr), zap.Strings("brokers", cfg.Kafka.Brokers))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func logEvent(log *zap.Logger) xnats.MessageHandler {
	return func(subject string, data []byte) error {
		if subject == xnats.SubjectXvaRuns {
			ev, err := xnats.UnmarshalJSON[xnats.RunEvent](data)
			if err != nil {
				return err
			}
			log.Info("xva run completed",
				zap.String("run_id", ev.RunID),
				zap.String("as_of", ev.AsOf),
				zap.Int("trades_ok", ev.TradesOk),
				zap.Int("netting_sets_ok", ev.NettingSetsOk),
				zap.Int64("elapsed_ms", ev.ElapsedMs))
			return nil
		}

		ev, err := xnats.UnmarshalJSON[xnats.ErrorEvent](data)
		if err != nil {
			return err
		}
		log.Warn("xva entity error",
			zap.String("run_id", ev.RunID),
			zap.String("message", ev.Message),
			zap.String("error", ev.Error),
			zap.Any("context", ev.Context))
		return nil
	}
}

// registerWriterStats 写入统计转为 Prometheus 计数
func registerWriterStats(reg prometheus.Registerer, w *store.DBWriter) error {
	stats := []struct {
		name, help string
		get        func(store.DBWriterStats) int64
	}{
		{"xva_writer_received_total", "Result events consumed from Kafka.", func(s store.DBWriterStats) int64 { return s.ReceivedCount }},
		{"xva_writer_written_total", "Result rows upserted into MySQL.", func(s store.DBWriterStats) int64 { return s.WrittenCount }},
		{"xva_writer_errors_total", "Decode and write failures.", func(s store.DBWriterStats) int64 { return s.ErrorCount }},
		{"xva_writer_batches_total", "Batches flushed to MySQL.", func(s store.DBWriterStats) int64 { return s.BatchCount }},
	}
	for _, s := range stats {
		get := s.get
		c := prometheus.NewCounterFunc(prometheus.CounterOpts{Name: s.name, Help: s.help}, func() float64 {
			return float64(get(w.Stats()))
		})
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("register %s: %w", s.name, err)
		}
	}
	return nil
}
