package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	xerrors "OpenMCP-ABI/internal/errors"
)

// RabbitMQConfig 描述交易流水发布的队列参数。
type RabbitMQConfig struct {
	URL     string
	Queue   string
	Durable bool
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher 将每条交易流水发布到 RabbitMQ 队列，供下游系统消费。
// 最近的流水同时保存在内存中以便查询。
type RabbitMQPublisher struct {
	conn    *amqp.Connection
	ch      amqpChannel
	queue   string
	durable bool
	tail    *MemoryStore
}

// NewRabbitMQPublisher 连接 RabbitMQ 并声明队列。
func NewRabbitMQPublisher(cfg RabbitMQConfig) (*RabbitMQPublisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("RabbitMQ URL 不能为空")
	}
	queue := cfg.Queue
	if queue == "" {
		queue = "openmcp.transactions"
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("连接 RabbitMQ 失败: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("创建 RabbitMQ channel 失败: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, cfg.Durable, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("声明 RabbitMQ 队列失败: %w", err)
	}
	return &RabbitMQPublisher{conn: conn, ch: ch, queue: queue, durable: cfg.Durable, tail: NewMemoryStore(0)}, nil
}

// Record 发布流水。发布失败时流水仍保留在内存中。
func (p *RabbitMQPublisher) Record(ctx context.Context, entry Entry) error {
	if p == nil || p.ch == nil {
		return xerrors.New(xerrors.CodeQueueFailure, "RabbitMQ 发布器未初始化")
	}
	entry = prepare(entry)
	_ = p.tail.Record(ctx, entry)

	body, err := json.Marshal(entry)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeQueueFailure, err, "序列化交易流水失败")
	}
	msg := amqp.Publishing{
		ContentType: "application/json",
		MessageId:   entry.ID,
		Type:        string(entry.Status),
		Body:        body,
	}
	if p.durable {
		msg.DeliveryMode = amqp.Persistent
	}
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return xerrors.Wrap(xerrors.CodeQueueFailure, err, "发布交易流水失败",
			xerrors.WithMetadata("queue", p.queue))
	}
	return nil
}

// Latest 返回进程内保留的最近流水。
func (p *RabbitMQPublisher) Latest(ctx context.Context, limit int) ([]Entry, error) {
	return p.tail.Latest(ctx, limit)
}

// Close 关闭 RabbitMQ 连接。
func (p *RabbitMQPublisher) Close() error {
	if p == nil {
		return nil
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
