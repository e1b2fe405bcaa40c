// 文件: pkg/nats/publisher.go
// NATS 发布者
// 轻量通知通道: 实体级计算错误、运行完成通知

package nats

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Connect 建立连接，断线自动重连
func Connect(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	return conn, nil
}

// Publisher JSON 发布者
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher 复用已有连接
func NewPublisher(conn *nats.Conn) *Publisher {
	return &Publisher{conn: conn}
}

// Publish JSON 编码后发布
func (p *Publisher) Publish(subject string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", subject, err)
	}
	return p.conn.Publish(subject, b)
}

// Flush 等待已发布消息送达服务器
func (p *Publisher) Flush(timeout time.Duration) error {
	return p.conn.FlushTimeout(timeout)
}
