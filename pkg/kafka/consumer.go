// 文件: pkg/kafka/consumer.go
// Kafka 消费者组
//
// 处理失败只记日志并继续，offset 照常标记；结果写入靠 upsert 幂等。

package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// ConsumerConfig 消费者配置
type ConsumerConfig struct {
	Brokers       []string
	GroupID       string
	Topics        []string
	OffsetInitial int64 // sarama.OffsetNewest / sarama.OffsetOldest
	AutoCommit    bool
}

// DefaultConsumerConfig 默认配置
//
// 结果写入器从最早位置开始，新消费者组不会漏掉已发布的运行
func DefaultConsumerConfig(brokers []string, groupID string, topics []string) ConsumerConfig {
	return ConsumerConfig{
		Brokers:       brokers,
		GroupID:       groupID,
		Topics:        topics,
		OffsetInitial: sarama.OffsetOldest,
		AutoCommit:    true,
	}
}

// MessageHandler 消息处理函数
type MessageHandler func(topic string, partition int32, offset int64, key, value []byte) error

// Consumer 消费者组封装
type Consumer struct {
	client  sarama.ConsumerGroup
	config  ConsumerConfig
	handler MessageHandler
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewConsumer 创建消费者
func NewConsumer(cfg ConsumerConfig, handler MessageHandler) (*Consumer, error) {
	sc := sarama.NewConfig()
	sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	sc.Consumer.Offsets.Initial = cfg.OffsetInitial
	sc.Consumer.Offsets.AutoCommit.Enable = cfg.AutoCommit

	client, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, sc)
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		client:  client,
		config:  cfg,
		handler: handler,
		logger:  zap.NewNop(),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// SetLogger 设置日志
func (c *Consumer) SetLogger(l *zap.Logger) {
	if l != nil {
		c.logger = l
	}
}

// Start 后台消费，重平衡后自动重新加入
func (c *Consumer) Start() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		h := &groupHandler{handler: c.handler, logger: c.logger}
		for {
			err := c.client.Consume(c.ctx, c.config.Topics, h)
			if err != nil && !errors.Is(err, sarama.ErrClosedConsumerGroup) {
				c.logger.Warn("kafka consume error", zap.Strings("topics", c.config.Topics), zap.Error(err))
			}
			if c.ctx.Err() != nil {
				return
			}
		}
	}()
}

// Stop 停止消费
func (c *Consumer) Stop() error {
	c.cancel()
	c.wg.Wait()
	return c.client.Close()
}

// groupHandler sarama.ConsumerGroupHandler 实现
type groupHandler struct {
	handler MessageHandler
	logger  *zap.Logger
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := h.handler(msg.Topic, msg.Partition, msg.Offset, msg.Key, msg.Value); err != nil {
			h.logger.Warn("kafka handle error",
				zap.String("topic", msg.Topic),
				zap.Int32("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		}
		session.MarkMessage(msg, "")
	}
	return nil
}
