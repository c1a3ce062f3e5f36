package app

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/messaging/kafka"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/messaging/rabbitmq"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/metrics"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/catalog"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/customers"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/dashboard"
	grpcsvc "github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/grpc"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/idempotency"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/notifications"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/orders"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/reports"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/staff"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/toast"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/transport/httpapi"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/version"
)

// services — прикладной слой, общий для HTTP и gRPC.
type services struct {
	http          httpapi.Services
	grpc          *grpcsvc.OrderService
	notifications *notifications.Service
}

func newServices(cfg Config, store *Storage, m *metrics.CafeMetrics, base *log.Logger) (*services, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	component := func(name string) *log.Entry { return base.WithField("component", name) }
	notifier := toast.NewLogNotifier(component("toast"), m)

	orderSvc := orders.NewService(store.Orders,
		orders.WithMenu(store.Menu),
		orders.WithOutbox(store.Outbox),
		orders.WithTimeline(store.Timeline),
		orders.WithNotifier(notifier),
		orders.WithMetrics(m),
		orders.WithLogger(component("orders")),
	)
	executor := idempotency.NewExecutor(store.Idempotency,
		idempotency.WithExecutorLogger(component("idempotency")),
		idempotency.WithTTL(cfg.IdempotencyTTL),
	)
	notificationSvc := notifications.NewService(store.Notifications, component("notifications"), notifier, m)

	return &services{
		http: httpapi.Services{
			Menu:          catalog.NewService(store.Menu, component("catalog"), notifier, m),
			Orders:        orderSvc,
			Staff:         staff.NewService(store.Staff, component("staff"), notifier, m),
			Customers:     customers.NewService(store.Customers, component("customers"), notifier, m),
			Notifications: notificationSvc,
			Dashboard:     dashboard.NewService(store.Orders, store.Menu, store.Staff, component("dashboard"), notifier, m, dashboard.WithLocation(loc)),
			Reports:       reports.NewBuilder(store.Orders, store.Menu, store.Staff, store.Customers, loc, component("reports")),
			Idempotency:   executor,
		},
		grpc:          grpcsvc.NewOrderService(orderSvc, executor, component("grpc")),
		notifications: notificationSvc,
	}, nil
}

// eventBus — публикация outbox и чтение событий заказа.
type eventBus struct {
	publisher domain.OutboxPublisher
	dlq       domain.OutboxPublisher
	producer  *kafka.Producer
	consumer  *kafka.Consumer
	rabbit    *rabbitmq.Publisher
}

func newEventBus(cfg Config, notificationSvc *notifications.Service, base *log.Logger) (*eventBus, error) {
	logger := base.WithField("component", "messaging")
	projector := notifications.NewOrderEventProjector(notificationSvc, base.WithField("component", "projector"))
	bus := &eventBus{}

	if cfg.OutboxPublisher == PublisherKafka || cfg.KafkaConsumerEnabled {
		producer, err := kafka.NewProducer(cfg.Brokers(), version.Service)
		if err != nil {
			return nil, fmt.Errorf("init kafka producer: %w", err)
		}
		bus.producer = producer
		logger.WithField("brokers", cfg.Brokers()).Info("kafka producer initialized")
	}

	switch cfg.OutboxPublisher {
	case PublisherKafka:
		bus.publisher = kafka.NewOutboxPublisher(bus.producer, cfg.KafkaOrderTopic)
		bus.dlq = kafka.NewOutboxPublisher(bus.producer, kafka.TopicDeadLetterQueue)
	case PublisherRabbitMQ:
		rabbit, err := rabbitmq.Dial(cfg.RabbitMQURL, cfg.RabbitMQExchange, logger)
		if err != nil {
			bus.close(logger)
			return nil, err
		}
		bus.rabbit = rabbit
		bus.publisher = rabbit
		logger.WithField("exchange", cfg.RabbitMQExchange).Info("rabbitmq publisher initialized")
	default:
		bus.publisher = notifications.NewFeedPublisher(projector)
	}

	if cfg.KafkaConsumerEnabled {
		consumer, err := kafka.NewConsumer(cfg.Brokers(), cfg.KafkaConsumerGroup, []string{cfg.KafkaOrderTopic},
			kafka.EnvelopeHandler(projector.Handle),
			kafka.WithDLQ(bus.producer, kafka.TopicDeadLetterQueue),
			kafka.WithConsumerLogger(base.WithField("component", "kafka-consumer")),
		)
		if err != nil {
			bus.close(logger)
			return nil, fmt.Errorf("init kafka consumer: %w", err)
		}
		bus.consumer = consumer
	}
	return bus, nil
}

func (b *eventBus) close(logger *log.Entry) {
	if b == nil {
		return
	}
	if b.consumer != nil {
		if err := b.consumer.Stop(); err != nil {
			logger.WithError(err).Warn("failed to stop kafka consumer")
		}
		b.consumer = nil
	}
	if b.rabbit != nil {
		if err := b.rabbit.Close(); err != nil {
			logger.WithError(err).Warn("failed to close rabbitmq publisher")
		}
		b.rabbit = nil
	}
	closeKafkaProducer(b.producer, logger)
	b.producer = nil
}

// closeKafkaProducer закрывает producer, если он создан.
func closeKafkaProducer(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
		return
	}
	logger.Info("kafka producer closed")
}
