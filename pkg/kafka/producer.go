// 文件: pkg/kafka/producer.go
// Kafka 生产者 (sarama 异步模式)
//
// 用于发布 XVA 结果事件。发送失败只计数并写日志，不阻塞计算。

package kafka

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

var ErrProducerClosed = errors.New("kafka: producer is closed")

// Message 可发送的消息
type Message interface {
	Topic() string          // 目标 topic
	Key() string            // 分区 key (相同 key 保证顺序)
	Value() ([]byte, error) // 消息体
}

// ProducerConfig 生产者配置
type ProducerConfig struct {
	Brokers        []string
	RequiredAcks   int    // 0=不等待, 1=leader, -1=全部副本
	Compression    string // none, gzip, snappy, lz4, zstd
	FlushFrequency time.Duration
	FlushMessages  int
	MaxRetries     int
}

// DefaultProducerConfig 默认配置
//
// 结果事件要落库，默认等全部副本确认
func DefaultProducerConfig(brokers []string) ProducerConfig {
	return ProducerConfig{
		Brokers:        brokers,
		RequiredAcks:   -1,
		Compression:    "zstd",
		FlushFrequency: 200 * time.Millisecond,
		FlushMessages:  500,
		MaxRetries:     5,
	}
}

// saramaConfig 转换为 sarama 配置
func (cfg ProducerConfig) saramaConfig() *sarama.Config {
	sc := sarama.NewConfig()

	switch cfg.RequiredAcks {
	case 0:
		sc.Producer.RequiredAcks = sarama.NoResponse
	case -1:
		sc.Producer.RequiredAcks = sarama.WaitForAll
	default:
		sc.Producer.RequiredAcks = sarama.WaitForLocal
	}

	switch cfg.Compression {
	case "gzip":
		sc.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		sc.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		sc.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		sc.Producer.Compression = sarama.CompressionZSTD
		sc.Version = sarama.V2_1_0_0 // zstd 需要 2.1+
	default:
		sc.Producer.Compression = sarama.CompressionNone
	}

	sc.Producer.Flush.Frequency = cfg.FlushFrequency
	sc.Producer.Flush.Messages = cfg.FlushMessages
	sc.Producer.Retry.Max = cfg.MaxRetries
	sc.Producer.Return.Successes = false
	sc.Producer.Return.Errors = true
	return sc
}

// Producer 异步生产者
type Producer struct {
	producer sarama.AsyncProducer
	logger   *zap.Logger

	sentCount  atomic.Int64
	errorCount atomic.Int64

	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewProducer 创建生产者
func NewProducer(cfg ProducerConfig, logger *zap.Logger) (*Producer, error) {
	producer, err := sarama.NewAsyncProducer(cfg.Brokers, cfg.saramaConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return newProducer(producer, logger), nil
}

func newProducer(ap sarama.AsyncProducer, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Producer{producer: ap, logger: logger}
	p.wg.Add(1)
	go p.handleErrors()
	return p
}

// Send 异步发送
func (p *Producer) Send(msg Message) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	data, err := msg.Value()
	if err != nil {
		return fmt.Errorf("serialize message: %w", err)
	}

	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: msg.Topic(),
		Key:   sarama.StringEncoder(msg.Key()),
		Value: sarama.ByteEncoder(data),
	}
	p.sentCount.Add(1)
	return nil
}

func (p *Producer) handleErrors() {
	defer p.wg.Done()
	for err := range p.producer.Errors() {
		p.errorCount.Add(1)
		p.logger.Error("kafka send failed", zap.String("topic", err.Msg.Topic), zap.Error(err.Err))
	}
}

// ProducerStats 统计
type ProducerStats struct {
	SentCount  int64
	ErrorCount int64
}

// Stats 统计
func (p *Producer) Stats() ProducerStats {
	return ProducerStats{
		SentCount:  p.sentCount.Load(),
		ErrorCount: p.errorCount.Load(),
	}
}

// Close 关闭，等待错误通道排空
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	err := p.producer.Close()
	p.wg.Wait()
	return err
}
