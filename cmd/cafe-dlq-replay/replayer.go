package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/messaging/kafka"
)

type offsetReader interface {
	Partitions(topic string) ([]int32, error)
	GetOffset(topic string, partition int32, at int64) (int64, error)
}

type partitionSource interface {
	ConsumePartition(topic string, partition int32, offset int64) (sarama.PartitionConsumer, error)
}

type publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte, headers ...kafka.Header) error
}

// connections — открытые подключения к Kafka; Close закрывает их в обратном порядке.
type connections struct {
	offsets offsetReader
	source  partitionSource
	sink    publisher
	closers []io.Closer
}

func (c *connections) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i].Close()
	}
}

// summary — итог прогона.
type summary struct {
	scanned   int
	matched   int
	published int
	filtered  int
	malformed int
}

func (s summary) plus(o summary) summary {
	return summary{
		scanned:   s.scanned + o.scanned,
		matched:   s.matched + o.matched,
		published: s.published + o.published,
		filtered:  s.filtered + o.filtered,
		malformed: s.malformed + o.malformed,
	}
}

// window — диапазон смещений партиции [from, until), который будет прочитан.
type window struct {
	partition int32
	from      int64
	until     int64
}

type replayer struct {
	opts    options
	offsets offsetReader
	source  partitionSource
	sink    publisher
	logger  *log.Entry
	now     func() time.Time
}

func newReplayer(opts options, conns *connections, logger *log.Entry) *replayer {
	return &replayer{
		opts:    opts,
		offsets: conns.offsets,
		source:  conns.source,
		sink:    conns.sink,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run читает не больше opts.maxScan писем по всем партициям, начиная с младшей.
func (r *replayer) Run(ctx context.Context) (summary, error) {
	var total summary
	if r.offsets == nil || r.source == nil {
		return total, errors.New("kafka client and consumer are required")
	}
	if r.opts.apply && r.sink == nil {
		return total, errors.New("execute mode needs a producer")
	}

	windows, err := r.plan()
	if err != nil {
		return total, err
	}
	for _, w := range windows {
		left := r.opts.maxScan - total.scanned
		if left <= 0 {
			break
		}
		s, err := r.drain(ctx, w, left)
		total = total.plus(s)
		if err != nil {
			return total, err
		}
	}

	r.logger.WithFields(log.Fields{
		"mode":      r.opts.mode(),
		"scanned":   total.scanned,
		"matched":   total.matched,
		"published": total.published,
		"filtered":  total.filtered,
		"malformed": total.malformed,
	}).Info("dlq replay finished")
	return total, nil
}

func (r *replayer) plan() ([]window, error) {
	partitions, err := r.offsets.Partitions(r.opts.source)
	if err != nil {
		return nil, fmt.Errorf("list partitions of %s: %w", r.opts.source, err)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	windows := make([]window, 0, len(partitions))
	for _, p := range partitions {
		oldest, err := r.offsets.GetOffset(r.opts.source, p, sarama.OffsetOldest)
		if err != nil {
			return nil, fmt.Errorf("oldest offset of partition %d: %w", p, err)
		}
		newest, err := r.offsets.GetOffset(r.opts.source, p, sarama.OffsetNewest)
		if err != nil {
			return nil, fmt.Errorf("newest offset of partition %d: %w", p, err)
		}
		if newest <= oldest {
			continue
		}
		w := window{partition: p, from: oldest, until: newest}
		if r.opts.tail {
			w.from = max(newest-int64(r.opts.maxScan), oldest)
		}
		windows = append(windows, w)
	}
	if len(windows) == 0 {
		r.logger.WithField("topic", r.opts.source).Info("dead-letter topic is empty")
	}
	return windows, nil
}

// drain читает окно до его конца, исчерпания budget или паузы длиннее opts.idle.
func (r *replayer) drain(ctx context.Context, w window, budget int) (summary, error) {
	var s summary
	stream, err := r.source.ConsumePartition(r.opts.source, w.partition, w.from)
	if err != nil {
		return s, fmt.Errorf("consume partition %d: %w", w.partition, err)
	}
	defer func() { _ = stream.Close() }()

	idle := time.NewTimer(r.opts.idle)
	defer idle.Stop()

	for s.scanned < budget {
		var msg *sarama.ConsumerMessage
		select {
		case <-ctx.Done():
			return s, ctx.Err()
		case <-idle.C:
			return s, nil
		case cerr := <-stream.Errors():
			if cerr != nil {
				return s, fmt.Errorf("partition %d: %w", w.partition, cerr)
			}
			continue
		case m, ok := <-stream.Messages():
			if !ok || m == nil {
				return s, nil
			}
			msg = m
		}
		if msg.Offset >= w.until {
			return s, nil
		}
		idle.Reset(r.opts.idle)

		if err := r.handle(ctx, msg, &s); err != nil {
			return s, err
		}
		if msg.Offset+1 >= w.until {
			return s, nil
		}
	}
	return s, nil
}

func (r *replayer) handle(ctx context.Context, msg *sarama.ConsumerMessage, s *summary) error {
	s.scanned++
	entry := r.logger.WithFields(log.Fields{"partition": msg.Partition, "offset": msg.Offset})

	l, err := decodeLetter(msg.Value, r.opts.target, r.now())
	switch {
	case errors.Is(err, errForeignLetter):
		s.malformed++
		entry.Debug("skip foreign dead letter")
		return nil
	case err != nil:
		s.malformed++
		entry.WithError(err).Warn("skip malformed dead letter")
		return nil
	case !r.opts.wants(l):
		s.filtered++
		return nil
	}

	s.matched++
	entry = entry.WithFields(log.Fields{"order_id": l.orderID, "event_type": l.eventType, "target_topic": l.topic})
	if !r.opts.apply {
		entry.Info("replay candidate")
		return nil
	}
	if err := r.sink.Publish(ctx, l.topic, l.key, l.value, l.headers()...); err != nil {
		return fmt.Errorf("replay partition %d offset %d: %w", msg.Partition, msg.Offset, err)
	}
	s.published++
	entry.Info("dead letter replayed")
	return nil
}
