package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"I2I/models"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// EventExchange 生成任务事件的 fanout 交换机
const EventExchange = "generation_events"

// channel 是 *amqp.Channel 中用到的部分
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// EventPublisher 把任务状态变化广播到 RabbitMQ
type EventPublisher struct {
	conn *amqp.Connection
	ch   channel
}

// NewEventPublisher 连接 RabbitMQ 并声明持久化的 fanout 交换机
func NewEventPublisher(dsn string) (*EventPublisher, error) {
	conn, err := amqp.Dial(dsn)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		EventExchange, // name
		"fanout",      // kind
		true,          // durable
		false,         // auto-delete
		false,         // internal
		false,         // no-wait
		nil,           // args
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", EventExchange, err)
	}
	return &EventPublisher{conn: conn, ch: ch}, nil
}

// Record 发布一条任务事件
func (p *EventPublisher) Record(_ context.Context, job models.GenerationJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return p.ch.Publish(
		EventExchange, // exchange
		job.Status,    // routing key，fanout 下仅用于消费方过滤
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    job.JobID,
			Timestamp:    time.Unix(job.UpdatedAt, 0),
			Type:         "generation." + job.Status,
			Body:         body,
		},
	)
}

func (p *EventPublisher) Close() error {
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			zap.L().Warn("close amqp channel failed", zap.Error(err))
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
