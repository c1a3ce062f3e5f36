package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/messaging/kafka"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/messaging/rabbitmq"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"

	PublisherFeed     = "feed"
	PublisherKafka    = "kafka"
	PublisherRabbitMQ = "rabbitmq"

	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config описывает настройки запуска сервиса.
type Config struct {
	HTTPAddr    string `yaml:"http_addr"`
	GRPCAddr    string `yaml:"grpc_addr"`
	MetricsAddr string `yaml:"metrics_addr"`

	StorageDriver           string        `yaml:"storage_driver"`
	PostgresDSN             string        `yaml:"postgres_dsn"`
	PostgresAutoMigrate     bool          `yaml:"postgres_auto_migrate"`
	PostgresMaxConns        int           `yaml:"postgres_max_conns"`
	PostgresConnMaxLifetime time.Duration `yaml:"postgres_conn_max_lifetime"`
	SeedDemoData            bool          `yaml:"seed_demo_data"`

	OutboxPublisher      string `yaml:"outbox_publisher"`
	KafkaBrokers         string `yaml:"kafka_brokers"`
	KafkaOrderTopic      string `yaml:"kafka_order_topic"`
	KafkaConsumerGroup   string `yaml:"kafka_consumer_group"`
	KafkaConsumerEnabled bool   `yaml:"kafka_consumer_enabled"`
	RabbitMQURL          string `yaml:"rabbitmq_url"`
	RabbitMQExchange     string `yaml:"rabbitmq_exchange"`

	OutboxPollInterval time.Duration `yaml:"outbox_poll_interval"`
	OutboxBatchSize    int           `yaml:"outbox_batch_size"`
	OutboxMaxAttempts  int           `yaml:"outbox_max_attempts"`
	OutboxRetryDelay   time.Duration `yaml:"outbox_retry_delay"`
	OutboxMaxPending   int           `yaml:"outbox_max_pending"`
	OutboxLease        time.Duration `yaml:"outbox_lease"`
	OutboxMaxAge       time.Duration `yaml:"outbox_max_pending_age"`

	IdempotencyTTL              time.Duration `yaml:"idempotency_ttl"`
	IdempotencyCleanupInterval  time.Duration `yaml:"idempotency_cleanup_interval"`
	IdempotencyCleanupBatchSize int           `yaml:"idempotency_cleanup_batch_size"`

	Timezone       string        `yaml:"timezone"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"`
}

// DefaultConfig возвращает настройки для локального запуска в памяти.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		GRPCAddr:    ":50051",
		MetricsAddr: ":9090",

		StorageDriver:           StorageDriverMemory,
		PostgresAutoMigrate:     true,
		PostgresMaxConns:        25,
		PostgresConnMaxLifetime: 30 * time.Minute,
		SeedDemoData:            true,

		OutboxPublisher:    PublisherFeed,
		KafkaOrderTopic:    kafka.TopicOrderEvents,
		KafkaConsumerGroup: "cafe-notifications",
		RabbitMQExchange:   rabbitmq.ExchangeNotifications,

		OutboxPollInterval: time.Second,
		OutboxBatchSize:    100,
		OutboxMaxAttempts:  3,
		OutboxRetryDelay:   50 * time.Millisecond,
		OutboxMaxPending:   1000,
		OutboxLease:        30 * time.Second,
		OutboxMaxAge:       5 * time.Minute,

		IdempotencyTTL:              24 * time.Hour,
		IdempotencyCleanupInterval:  time.Minute,
		IdempotencyCleanupBatchSize: 500,

		Timezone:       "Asia/Kolkata",
		RequestTimeout: 15 * time.Second,
		LogLevel:       "info",
		LogFormat:      LogFormatText,
	}
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	var errs []error
	for name, addr := range map[string]string{"http_addr": c.HTTPAddr, "grpc_addr": c.GRPCAddr, "metrics_addr": c.MetricsAddr} {
		if strings.TrimSpace(addr) == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}

	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			errs = append(errs, errors.New("postgres_dsn is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}

	switch c.OutboxPublisher {
	case PublisherFeed:
	case PublisherKafka:
		if len(c.Brokers()) == 0 {
			errs = append(errs, errors.New("kafka_brokers is required for kafka publisher"))
		}
	case PublisherRabbitMQ:
		if strings.TrimSpace(c.RabbitMQURL) == "" {
			errs = append(errs, errors.New("rabbitmq_url is required for rabbitmq publisher"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported outbox publisher %q", c.OutboxPublisher))
	}
	if c.KafkaConsumerEnabled && len(c.Brokers()) == 0 {
		errs = append(errs, errors.New("kafka_brokers is required for kafka consumer"))
	}

	if c.OutboxPollInterval <= 0 || c.OutboxBatchSize <= 0 || c.OutboxMaxAttempts <= 0 || c.OutboxRetryDelay < 0 || c.OutboxLease <= 0 {
		errs = append(errs, errors.New("outbox settings must be positive"))
	}
	if c.IdempotencyTTL <= 0 || c.IdempotencyCleanupInterval <= 0 || c.IdempotencyCleanupBatchSize <= 0 {
		errs = append(errs, errors.New("idempotency settings must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		errs = append(errs, fmt.Errorf("unsupported log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Brokers разбирает kafka_brokers через запятую.
func (c Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Location возвращает часовой пояс для границ суток.
func (c Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Env-переменные, переопределяющие настройки.
const (
	EnvConfigFile = "CAFE_CONFIG_FILE"

	envHTTPAddr                    = "CAFE_HTTP_ADDR"
	envGRPCAddr                    = "CAFE_GRPC_ADDR"
	envMetricsAddr                 = "CAFE_METRICS_ADDR"
	envStorageDriver               = "CAFE_STORAGE_DRIVER"
	envPostgresDSN                 = "CAFE_POSTGRES_DSN"
	envPostgresAutoMigrate         = "CAFE_POSTGRES_AUTO_MIGRATE"
	envPostgresMaxConns            = "CAFE_POSTGRES_MAX_CONNS"
	envPostgresConnMaxLifetime     = "CAFE_POSTGRES_CONN_MAX_LIFETIME"
	envSeedDemoData                = "CAFE_SEED_DEMO_DATA"
	envOutboxPublisher             = "CAFE_OUTBOX_PUBLISHER"
	envKafkaBrokers                = "CAFE_KAFKA_BROKERS"
	envKafkaOrderTopic             = "CAFE_KAFKA_ORDER_TOPIC"
	envKafkaConsumerGroup          = "CAFE_KAFKA_CONSUMER_GROUP"
	envKafkaConsumerEnabled        = "CAFE_KAFKA_CONSUMER_ENABLED"
	envRabbitMQURL                 = "CAFE_RABBITMQ_URL"
	envRabbitMQExchange            = "CAFE_RABBITMQ_EXCHANGE"
	envOutboxPollInterval          = "CAFE_OUTBOX_POLL_INTERVAL"
	envOutboxBatchSize             = "CAFE_OUTBOX_BATCH_SIZE"
	envOutboxMaxAttempts           = "CAFE_OUTBOX_MAX_ATTEMPTS"
	envOutboxRetryDelay            = "CAFE_OUTBOX_RETRY_DELAY"
	envOutboxMaxPending            = "CAFE_OUTBOX_MAX_PENDING"
	envOutboxLease                 = "CAFE_OUTBOX_LEASE"
	envOutboxMaxAge                = "CAFE_OUTBOX_MAX_PENDING_AGE"
	envIdempotencyTTL              = "CAFE_IDEMPOTENCY_TTL"
	envIdempotencyCleanupInterval  = "CAFE_IDEMPOTENCY_CLEANUP_INTERVAL"
	envIdempotencyCleanupBatchSize = "CAFE_IDEMPOTENCY_CLEANUP_BATCH_SIZE"
	envTimezone                    = "CAFE_TIMEZONE"
	envRequestTimeout              = "CAFE_REQUEST_TIMEOUT"
	envLogLevel                    = "CAFE_LOG_LEVEL"
	envLogFormat                   = "CAFE_LOG_FORMAT"
)

// EnvLookup совпадает по сигнатуре с os.LookupEnv.
type EnvLookup func(key string) (string, bool)

// LoadConfig собирает настройки: значения по умолчанию, затем YAML из CAFE_CONFIG_FILE,
// затем env. Некорректные env-значения пропускаются и возвращаются как предупреждения.
func LoadConfig(lookup EnvLookup) (Config, []string, error) {
	cfg := DefaultConfig()
	if path, ok := lookup(EnvConfigFile); ok && strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(strings.TrimSpace(path))
		if err != nil {
			return Config{}, nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	warnings := ApplyEnv(&cfg, lookup)
	return cfg, warnings, nil
}

// ApplyEnv переопределяет cfg значениями CAFE_*.
func ApplyEnv(cfg *Config, lookup EnvLookup) []string {
	var warnings []string
	warn := func(key, value string, err error) {
		warnings = append(warnings, fmt.Sprintf("ignore %s=%q: %v", key, value, err))
	}

	setString := func(key string, dst *string, normalize func(string) string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = normalize(strings.TrimSpace(v))
		}
	}
	setBool := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok {
			return
		}
		parsed, err := parseBool(v)
		if err != nil {
			warn(key, v, err)
			return
		}
		*dst = parsed
	}
	setInt := func(key string, dst *int, valid func(int) bool, rule string) {
		v, ok := lookup(key)
		if !ok {
			return
		}
		parsed, err := parseInt(v, valid, rule)
		if err != nil {
			warn(key, v, err)
			return
		}
		*dst = parsed
	}
	setDuration := func(key string, dst *time.Duration, valid func(time.Duration) bool, rule string) {
		v, ok := lookup(key)
		if !ok {
			return
		}
		parsed, err := parseDuration(v, valid, rule)
		if err != nil {
			warn(key, v, err)
			return
		}
		*dst = parsed
	}

	keep := func(s string) string { return s }
	positive := func(v int) bool { return v > 0 }
	nonNegative := func(v int) bool { return v >= 0 }
	positiveDuration := func(v time.Duration) bool { return v > 0 }
	nonNegativeDuration := func(v time.Duration) bool { return v >= 0 }

	setString(envHTTPAddr, &cfg.HTTPAddr, keep)
	setString(envGRPCAddr, &cfg.GRPCAddr, keep)
	setString(envMetricsAddr, &cfg.MetricsAddr, keep)
	setString(envStorageDriver, &cfg.StorageDriver, strings.ToLower)
	setString(envPostgresDSN, &cfg.PostgresDSN, keep)
	setBool(envPostgresAutoMigrate, &cfg.PostgresAutoMigrate)
	setInt(envPostgresMaxConns, &cfg.PostgresMaxConns, positive, "must be > 0")
	setDuration(envPostgresConnMaxLifetime, &cfg.PostgresConnMaxLifetime, positiveDuration, "must be > 0")
	setBool(envSeedDemoData, &cfg.SeedDemoData)
	setString(envOutboxPublisher, &cfg.OutboxPublisher, strings.ToLower)
	setString(envKafkaBrokers, &cfg.KafkaBrokers, keep)
	setString(envKafkaOrderTopic, &cfg.KafkaOrderTopic, keep)
	setString(envKafkaConsumerGroup, &cfg.KafkaConsumerGroup, keep)
	setBool(envKafkaConsumerEnabled, &cfg.KafkaConsumerEnabled)
	setString(envRabbitMQURL, &cfg.RabbitMQURL, keep)
	setString(envRabbitMQExchange, &cfg.RabbitMQExchange, keep)
	setDuration(envOutboxPollInterval, &cfg.OutboxPollInterval, positiveDuration, "must be > 0")
	setInt(envOutboxBatchSize, &cfg.OutboxBatchSize, positive, "must be > 0")
	setInt(envOutboxMaxAttempts, &cfg.OutboxMaxAttempts, positive, "must be > 0")
	setDuration(envOutboxRetryDelay, &cfg.OutboxRetryDelay, nonNegativeDuration, "must be >= 0")
	setInt(envOutboxMaxPending, &cfg.OutboxMaxPending, nonNegative, "must be >= 0")
	setDuration(envOutboxLease, &cfg.OutboxLease, positiveDuration, "must be > 0")
	setDuration(envOutboxMaxAge, &cfg.OutboxMaxAge, nonNegativeDuration, "must be >= 0")
	setDuration(envIdempotencyTTL, &cfg.IdempotencyTTL, positiveDuration, "must be > 0")
	setDuration(envIdempotencyCleanupInterval, &cfg.IdempotencyCleanupInterval, positiveDuration, "must be > 0")
	setInt(envIdempotencyCleanupBatchSize, &cfg.IdempotencyCleanupBatchSize, positive, "must be > 0")
	setString(envTimezone, &cfg.Timezone, keep)
	setDuration(envRequestTimeout, &cfg.RequestTimeout, positiveDuration, "must be > 0")
	setString(envLogLevel, &cfg.LogLevel, strings.ToLower)
	setString(envLogFormat, &cfg.LogFormat, strings.ToLower)
	return warnings
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid int value %q: %w", raw, err)
	}
	if valid != nil && !valid(v) {
		return 0, fmt.Errorf("value %d %s", v, rule)
	}
	return v, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration value %q: %w", raw, err)
	}
	if valid != nil && !valid(v) {
		return 0, fmt.Errorf("value %s %s", v, rule)
	}
	return v, nil
}
