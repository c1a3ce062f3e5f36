package kafka

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 200 * time.Millisecond
)

// MessageHandler обрабатывает одно сообщение.
type MessageHandler func(ctx context.Context, message *sarama.ConsumerMessage) error

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }

func (e permanentError) Unwrap() error { return e.err }

// Permanent помечает ошибку, которую бессмысленно повторять: сообщение сразу уходит в DLQ.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent сообщает, помечена ли ошибка через Permanent.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

// EnvelopeHandler разворачивает Envelope и передаёт payload событий заказа в handle.
// Сообщения других агрегатов подтверждаются без обработки, нечитаемые сразу идут в DLQ.
func EnvelopeHandler(handle func(ctx context.Context, payload []byte) error) MessageHandler {
	return func(ctx context.Context, message *sarama.ConsumerMessage) error {
		env, err := DecodeEnvelope(message.Value)
		if err != nil {
			return Permanent(err)
		}
		if env.AggregateType != "" && env.AggregateType != domain.AggregateTypeOrder {
			return nil
		}
		return handle(ctx, env.Payload)
	}
}

type deadLetterSink interface {
	PublishJSON(ctx context.Context, topic, key string, value any, headers ...Header) error
}

// ConsumerOption настраивает Consumer.
type ConsumerOption func(*Consumer)

// WithDLQ задаёт producer и topic для сообщений, исчерпавших попытки.
func WithDLQ(producer *Producer, topic string) ConsumerOption {
	return func(c *Consumer) {
		if producer != nil {
			c.deadLetters = producer
		}
		if topic != "" {
			c.dlqTopic = topic
		}
	}
}

// WithMaxRetries задаёт общее число попыток, включая счётчик из заголовка.
func WithMaxRetries(n int) ConsumerOption {
	return func(c *Consumer) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithRetryDelay задаёт шаг паузы: перед n-й повторной попыткой ждём n*d.
func WithRetryDelay(d time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if d >= 0 {
			c.retryStep = d
		}
	}
}

func WithConsumerLogger(logger *log.Entry) ConsumerOption {
	return func(c *Consumer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Consumer читает topics в составе consumer group. Сообщение подтверждается,
// когда оно обработано или сохранено в DLQ.
type Consumer struct {
	group       sarama.ConsumerGroup
	topics      []string
	handle      MessageHandler
	logger      *log.Entry
	deadLetters deadLetterSink
	dlqTopic    string
	maxAttempts int
	retryStep   time.Duration
	now         func() time.Time

	mu      sync.Mutex
	started bool
	wg      sync.WaitGroup
}

// NewConsumer подключает consumer group.
func NewConsumer(brokers []string, groupID string, topics []string, handler MessageHandler, opts ...ConsumerOption) (*Consumer, error) {
	cfg := sarama.NewConfig()
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategySticky()}
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	cfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer group %s: %w", groupID, err)
	}
	return newConsumer(group, topics, handler, opts...), nil
}

func newConsumer(group sarama.ConsumerGroup, topics []string, handler MessageHandler, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		group:       group,
		topics:      topics,
		handle:      handler,
		logger:      log.WithField("component", "kafka-consumer"),
		dlqTopic:    TopicDeadLetterQueue,
		maxAttempts: defaultMaxRetries,
		retryStep:   defaultRetryDelay,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start запускает чтение в фоне; повторный вызов возвращает ошибку.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return errors.New("kafka consumer already started")
	}
	c.started = true

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.consumeLoop(ctx)
	}()
	go func() {
		defer c.wg.Done()
		for err := range c.group.Errors() {
			c.logger.WithError(err).Warn("consumer group error")
		}
	}()

	c.logger.WithField("topics", c.topics).Info("kafka consumer started")
	return nil
}

// consumeLoop переподключается после каждого rebalance, пока жив ctx.
func (c *Consumer) consumeLoop(ctx context.Context) {
	for {
		err := c.group.Consume(ctx, c.topics, c)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			continue
		}
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return
		}
		c.logger.WithError(err).Error("consume session failed")
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.retryStep):
		}
	}
}

// Stop закрывает group и ждёт фоновые горутины.
func (c *Consumer) Stop() error {
	if err := c.group.Close(); err != nil {
		return fmt.Errorf("close kafka consumer group: %w", err)
	}
	c.wg.Wait()
	c.logger.Info("kafka consumer stopped")
	return nil
}

// Setup реализует sarama.ConsumerGroupHandler.
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error { return nil }

// Cleanup реализует sarama.ConsumerGroupHandler.
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim обрабатывает сообщения одной партиции по порядку. Если сообщение не удалось
// ни обработать, ни сохранить в DLQ, claim завершается с ошибкой: смещение не уходит дальше
// него, и в следующей сессии партиция читается с этого сообщения.
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := session.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case message, ok := <-claim.Messages():
			if !ok || message == nil {
				return nil
			}
			entry := c.logger.WithFields(log.Fields{
				"topic":     message.Topic,
				"partition": message.Partition,
				"offset":    message.Offset,
			})
			if err := c.process(ctx, message); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				entry.WithError(err).Error("message left unacknowledged, releasing claim")
				return fmt.Errorf("process %s/%d@%d: %w", message.Topic, message.Partition, message.Offset, err)
			}
			session.MarkMessage(message, "")
		}
	}
}

// process вызывает handler до maxAttempts раз с учётом уже сделанных попыток
// из x-retry-count и отправляет неудачу в DLQ.
func (c *Consumer) process(ctx context.Context, message *sarama.ConsumerMessage) error {
	attempts := retryCount(message)
	var err error
	for {
		err = c.handle(ctx, message)
		if err == nil {
			return nil
		}
		attempts++
		if IsPermanent(err) || attempts >= c.maxAttempts {
			break
		}
		c.logger.WithError(err).WithFields(log.Fields{
			"topic":   message.Topic,
			"attempt": attempts,
			"of":      c.maxAttempts,
		}).Warn("retrying message")
		if err := c.pause(ctx, attempts); err != nil {
			return err
		}
	}

	if c.deadLetters == nil {
		return err
	}
	if dlqErr := c.toDeadLetters(ctx, message, err, attempts); dlqErr != nil {
		return fmt.Errorf("send to dlq: %w", dlqErr)
	}
	c.logger.WithFields(log.Fields{
		"topic":     message.Topic,
		"attempts":  attempts,
		"permanent": IsPermanent(err),
	}).Info("message moved to dead letter topic")
	return nil
}

func (c *Consumer) pause(ctx context.Context, attempt int) error {
	if c.retryStep <= 0 {
		return nil
	}
	timer := time.NewTimer(time.Duration(attempt) * c.retryStep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryCount читает x-retry-count; отсутствующий или битый заголовок даёт 0.
func retryCount(message *sarama.ConsumerMessage) int {
	for _, h := range message.Headers {
		if h == nil || string(h.Key) != HeaderRetryCount {
			continue
		}
		if n, err := strconv.Atoi(string(h.Value)); err == nil && n >= 0 {
			return n
		}
	}
	return 0
}

func (c *Consumer) toDeadLetters(ctx context.Context, message *sarama.ConsumerMessage, cause error, attempts int) error {
	letter := DeadLetter{
		OriginalTopic:     message.Topic,
		OriginalPartition: message.Partition,
		OriginalOffset:    message.Offset,
		OriginalKey:       string(message.Key),
		OriginalValue:     string(message.Value),
		ErrorMessage:      cause.Error(),
		Attempts:          attempts,
		FailedAt:          c.now(),
	}
	return c.deadLetters.PublishJSON(ctx, c.dlqTopic, letter.OriginalKey, letter,
		Header{Key: HeaderOriginalTopic, Value: message.Topic},
		Header{Key: HeaderRetryCount, Value: strconv.Itoa(attempts)},
		Header{Key: HeaderErrorMessage, Value: letter.ErrorMessage},
	)
}
