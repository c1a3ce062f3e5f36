// Команда cafe-dlq-replay возвращает события заказов из dead-letter topic
// в рабочий topic. Без -execute только печатает найденные письма.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/messaging/kafka"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/version"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	opts, err := parseOptions(flag.CommandLine, os.Args[1:], os.LookupEnv)
	if err != nil {
		fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := replay(ctx, opts, log.WithField("component", "dlq-replay")); err != nil {
		fail(fmt.Errorf("dlq replay: %w", err))
	}
}

func replay(ctx context.Context, opts options, logger *log.Entry) error {
	logger.WithFields(log.Fields{
		"source_topic": opts.source,
		"target_topic": opts.target,
		"limit":        opts.maxScan,
		"mode":         opts.mode(),
		"order_id":     opts.orderID,
	}).Info("starting dlq replay")

	conns, err := dial(opts)
	if err != nil {
		return err
	}
	defer conns.Close()

	_, err = newReplayer(opts, conns, logger).Run(ctx)
	return err
}

// dial открывает клиента и consumer'а, а в режиме -execute ещё и producer.
var dial = func(opts options) (*connections, error) {
	cfg := sarama.NewConfig()
	cfg.ClientID = version.Service + "-dlq-replay"
	cfg.Consumer.Return.Errors = true

	client, err := sarama.NewClient(opts.brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	conns := &connections{offsets: client, source: consumer, closers: []io.Closer{client, consumer}}
	if !opts.apply {
		return conns, nil
	}

	producer, err := kafka.NewProducer(opts.brokers, cfg.ClientID)
	if err != nil {
		conns.Close()
		return nil, err
	}
	conns.sink = producer
	conns.closers = append(conns.closers, producer)
	return conns, nil
}

func fail(err error) {
	_, _ = fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
