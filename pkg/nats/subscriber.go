// 文件: pkg/nats/subscriber.go
// NATS 订阅者

package nats

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// MessageHandler 消息处理函数
type MessageHandler func(subject string, data []byte) error

// Subscriber 订阅者
type Subscriber struct {
	conn    *nats.Conn
	subs    []*nats.Subscription
	handler MessageHandler
	logger  *zap.Logger
}

// NewSubscriber 复用已有连接
func NewSubscriber(conn *nats.Conn, handler MessageHandler, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{conn: conn, handler: handler, logger: logger}
}

func (s *Subscriber) dispatch(msg *nats.Msg) {
	if err := s.handler(msg.Subject, msg.Data); err != nil {
		s.logger.Warn("nats handle error", zap.String("subject", msg.Subject), zap.Error(err))
	}
}

// Subscribe 订阅主题
func (s *Subscriber) Subscribe(subjects ...string) error {
	for _, subject := range subjects {
		sub, err := s.conn.Subscribe(subject, s.dispatch)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		s.subs = append(s.subs, sub)
	}
	return nil
}

// SubscribeQueue 队列订阅 (多个实例分摊)
func (s *Subscriber) SubscribeQueue(subject, queue string) error {
	sub, err := s.conn.QueueSubscribe(subject, queue, s.dispatch)
	if err != nil {
		return fmt.Errorf("queue subscribe %s: %w", subject, err)
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close 取消全部订阅，连接由调用方关闭
func (s *Subscriber) Close() error {
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			return err
		}
	}
	s.subs = nil
	return nil
}

// UnmarshalJSON 反序列化 JSON
func UnmarshalJSON[T any](data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
