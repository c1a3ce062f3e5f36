// Package rabbitmq публикует события заказа в fanout exchange RabbitMQ.
package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

const (
	// ExchangeNotifications — fanout exchange для уведомлений о заказах.
	ExchangeNotifications = "cafe.notifications_fanout"

	defaultPublishTimeout = 10 * time.Second
)

// Channel — часть *amqp.Channel, нужная publisher'у.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher реализует domain.OutboxPublisher поверх AMQP-канала.
type Publisher struct {
	ch       Channel
	conn     *amqp.Connection
	exchange string
	timeout  time.Duration
	logger   *log.Entry
}

// Dial открывает соединение, канал и объявляет exchange.
func Dial(url, exchange string, logger *log.Entry) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	p, err := NewPublisher(ch, exchange, logger)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewPublisher объявляет durable fanout exchange на канале ch.
func NewPublisher(ch Channel, exchange string, logger *log.Entry) (*Publisher, error) {
	if exchange == "" {
		exchange = ExchangeNotifications
	}
	if logger == nil {
		logger = log.WithField("component", "rabbitmq-publisher")
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{ch: ch, exchange: exchange, timeout: defaultPublishTimeout, logger: logger}, nil
}

// Publish отправляет payload outbox-сообщения как persistent JSON.
func (p *Publisher) Publish(ctx context.Context, msg domain.OutboxMessage) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Type:         msg.EventType,
		Timestamp:    time.Now().UTC(),
		Headers:      amqp.Table{"aggregate_type": msg.AggregateType, "aggregate_id": msg.AggregateID},
		Body:         msg.Payload,
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, "", false, false, publishing); err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"exchange":   p.exchange,
			"event_type": msg.EventType,
		}).Error("failed to publish message")
		return fmt.Errorf("publish to %s: %w", p.exchange, err)
	}

	p.logger.WithFields(log.Fields{
		"exchange":     p.exchange,
		"event_type":   msg.EventType,
		"message_size": len(msg.Payload),
	}).Debug("message published")
	return nil
}

// Close закрывает канал и соединение, если оно открыто через Dial.
func (p *Publisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

var _ domain.OutboxPublisher = (*Publisher)(nil)
