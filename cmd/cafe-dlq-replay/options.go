package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/messaging/kafka"
)

const (
	envBrokers      = "CAFE_KAFKA_BROKERS"
	defaultMaxScan  = 100
	defaultIdleWait = 2 * time.Second
)

// options — параметры одного прогона.
type options struct {
	brokers []string
	source  string
	target  string
	maxScan int
	apply   bool
	tail    bool
	idle    time.Duration

	eventTypes map[string]bool
	orderID    string
}

// wants сообщает, проходит ли письмо фильтры -event-type и -order.
func (o options) wants(l letter) bool {
	if len(o.eventTypes) > 0 && !o.eventTypes[l.eventType] {
		return false
	}
	return o.orderID == "" || o.orderID == l.orderID
}

func (o options) mode() string {
	if o.apply {
		return "execute"
	}
	return "dry-run"
}

func parseOptions(fs *flag.FlagSet, args []string, lookup func(string) (string, bool)) (options, error) {
	var (
		opts       options
		brokers    string
		eventTypes string
	)
	fs.StringVar(&brokers, "brokers", "", "comma-separated Kafka brokers, "+envBrokers+" when empty")
	fs.StringVar(&opts.source, "source-topic", kafka.TopicDeadLetterQueue, "dead-letter topic to read")
	fs.StringVar(&opts.target, "target-topic", kafka.TopicOrderEvents, "topic that receives replayed order events")
	fs.IntVar(&opts.maxScan, "limit", defaultMaxScan, "maximum number of dead letters to read")
	fs.BoolVar(&opts.apply, "execute", false, "publish matches instead of only listing them")
	fs.BoolVar(&opts.tail, "from-newest", false, "read the last -limit letters of every partition")
	fs.DurationVar(&opts.idle, "idle-timeout", defaultIdleWait, "stop reading a partition after this long without messages")
	fs.StringVar(&eventTypes, "event-type", "", "comma-separated event types to replay, e.g. order.cancelled")
	fs.StringVar(&opts.orderID, "order", "", "replay only events of this order")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if strings.TrimSpace(brokers) == "" {
		brokers, _ = lookup(envBrokers)
	}
	opts.brokers = splitList(brokers)
	opts.orderID = strings.TrimSpace(opts.orderID)
	if types := splitList(eventTypes); len(types) > 0 {
		opts.eventTypes = make(map[string]bool, len(types))
		for _, t := range types {
			opts.eventTypes[t] = true
		}
	}

	var problems []error
	if len(opts.brokers) == 0 {
		problems = append(problems, fmt.Errorf("kafka brokers are required (-brokers or %s)", envBrokers))
	}
	if strings.TrimSpace(opts.source) == "" {
		problems = append(problems, errors.New("source-topic must not be empty"))
	}
	if strings.TrimSpace(opts.target) == "" {
		problems = append(problems, errors.New("target-topic must not be empty"))
	}
	if opts.source == opts.target {
		problems = append(problems, errors.New("source-topic and target-topic must differ"))
	}
	if opts.maxScan <= 0 {
		problems = append(problems, errors.New("limit must be > 0"))
	}
	if opts.idle <= 0 {
		problems = append(problems, errors.New("idle-timeout must be > 0"))
	}
	if err := errors.Join(problems...); err != nil {
		return options{}, err
	}
	return opts, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
