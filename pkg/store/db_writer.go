// 文件: pkg/store/db_writer.go
// 结果写入器
//
// 消费 Kafka xva_results，批量写入 MySQL:
// - 批量写入提高吞吐
// - 唯一键 upsert，重复消费幂等

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"max.com/xva/pkg/kafka"
)

// =============================================================================
// DBWriter
// =============================================================================

// DBWriter 结果写入器
type DBWriter struct {
	repo     ResultStore
	consumer *kafka.Consumer
	logger   *zap.Logger

	// 批量缓冲
	buffer    []*ResultRecord
	bufferMu  sync.Mutex
	batchSize int
	flushCh   chan struct{}

	stats dbWriterCounters

	// 生命周期
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type dbWriterCounters struct {
	received atomic.Int64
	written  atomic.Int64
	errors   atomic.Int64
	batches  atomic.Int64
}

// DBWriterStats 写入统计
type DBWriterStats struct {
	ReceivedCount int64
	WrittenCount  int64
	ErrorCount    int64
	BatchCount    int64
}

// DBWriterConfig 配置
type DBWriterConfig struct {
	Brokers       []string
	GroupID       string
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultDBWriterConfig 默认配置
func DefaultDBWriterConfig(brokers []string) DBWriterConfig {
	return DBWriterConfig{
		Brokers:       brokers,
		GroupID:       "xva_result_writer",
		BatchSize:     500,
		FlushInterval: time.Second,
	}
}

// NewDBWriter 创建写入器
func NewDBWriter(cfg DBWriterConfig, repo ResultStore, logger *zap.Logger) (*DBWriter, error) {
	w := newDBWriter(repo, cfg.BatchSize, logger)

	consumerCfg := kafka.DefaultConsumerConfig(cfg.Brokers, cfg.GroupID, []string{TopicResults})
	consumer, err := kafka.NewConsumer(consumerCfg, w.handleMessage)
	if err != nil {
		w.cancel()
		return nil, fmt.Errorf("create consumer: %w", err)
	}
	consumer.SetLogger(w.logger)
	w.consumer = consumer
	return w, nil
}

func newDBWriter(repo ResultStore, batchSize int, logger *zap.Logger) *DBWriter {
	if batchSize <= 0 {
		batchSize = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &DBWriter{
		repo:      repo,
		logger:    logger,
		buffer:    make([]*ResultRecord, 0, batchSize),
		batchSize: batchSize,
		flushCh:   make(chan struct{}, 1),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// =============================================================================
// 消息处理
// =============================================================================

// handleMessage 处理单条消息
func (w *DBWriter) handleMessage(topic string, partition int32, offset int64, key, value []byte) error {
	var event ResultEvent
	if err := json.Unmarshal(value, &event); err != nil {
		w.stats.errors.Add(1)
		return fmt.Errorf("unmarshal event: %w", err)
	}
	w.stats.received.Add(1)

	w.bufferMu.Lock()
	w.buffer = append(w.buffer, event.ToRecord())
	shouldFlush := len(w.buffer) >= w.batchSize
	w.bufferMu.Unlock()

	if shouldFlush {
		select {
		case w.flushCh <- struct{}{}:
		default:
		}
	}
	return nil
}

// flush 刷新缓冲写入数据库
func (w *DBWriter) flush() {
	w.bufferMu.Lock()
	records := w.buffer
	w.buffer = make([]*ResultRecord, 0, w.batchSize)
	w.bufferMu.Unlock()

	if len(records) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := w.repo.BatchUpsert(ctx, records); err != nil {
		w.stats.errors.Add(1)
		w.logger.Error("batch upsert failed", zap.Int("records", len(records)), zap.Error(err))
		return
	}
	w.stats.written.Add(int64(len(records)))
	w.stats.batches.Add(1)
}

// =============================================================================
// 生命周期
// =============================================================================

// Start 启动写入器
func (w *DBWriter) Start(flushInterval time.Duration) {
	if w.consumer != nil {
		w.consumer.Start()
	}
	w.startFlusher(flushInterval)
}

func (w *DBWriter) startFlusher(flushInterval time.Duration) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(flushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				w.flush() // 最后刷新一次
				return
			case <-ticker.C:
				w.flush()
			case <-w.flushCh:
				w.flush()
			}
		}
	}()
}

// Stop 停止写入器
func (w *DBWriter) Stop() error {
	// 先停消费，避免停机后仍有消息进入缓冲
	var err error
	if w.consumer != nil {
		err = w.consumer.Stop()
	}
	w.cancel()
	w.wg.Wait()
	return err
}

// Stats 获取统计
func (w *DBWriter) Stats() DBWriterStats {
	return DBWriterStats{
		ReceivedCount: w.stats.received.Load(),
		WrittenCount:  w.stats.written.Load(),
		ErrorCount:    w.stats.errors.Load(),
		BatchCount:    w.stats.batches.Load(),
	}
}
