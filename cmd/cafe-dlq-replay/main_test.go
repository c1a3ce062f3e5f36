package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/messaging/kafka"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/outbox"
)

var replayedAt = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

func quietLogger() *log.Entry {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger.WithField("component", "dlq-replay-test")
}

func noEnv(string) (string, bool) { return "", false }

// consumerLetter — письмо, которое пишет kafka consumer после исчерпания ретраев.
func consumerLetter(t *testing.T, orderID, eventType string) []byte {
	t.Helper()
	original, err := json.Marshal(kafka.Envelope{
		ID:            "evt-" + orderID,
		AggregateType: "order",
		AggregateID:   orderID,
		EventType:     eventType,
		Payload:       json.RawMessage(`{"status":"preparing"}`),
	})
	require.NoError(t, err)
	raw, err := json.Marshal(kafka.DeadLetter{
		OriginalTopic: kafka.TopicOrderEvents,
		OriginalKey:   orderID,
		OriginalValue: string(original),
		ErrorMessage:  "projector failed",
		Attempts:      3,
	})
	require.NoError(t, err)
	return raw
}

// outboxLetter — письмо outbox worker'а: Envelope, внутри которого DLQEnvelope.
func outboxLetter(t *testing.T, inner any) []byte {
	t.Helper()
	payload, err := json.Marshal(inner)
	require.NoError(t, err)
	raw, err := json.Marshal(kafka.Envelope{
		ID:            "outbox-9",
		AggregateType: "order",
		AggregateID:   "order-9",
		EventType:     "order.completed",
		Payload:       payload,
	})
	require.NoError(t, err)
	return raw
}

func baseOptions() options {
	return options{source: "dlq", target: "events", maxScan: 10, idle: time.Second}
}

func testReplayer(opts options, offsets offsetReader, source partitionSource, sink publisher) *replayer {
	r := newReplayer(opts, &connections{offsets: offsets, source: source, sink: sink}, quietLogger())
	r.now = func() time.Time { return replayedAt }
	return r
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions(flag.NewFlagSet("replay", flag.ContinueOnError), []string{
		"-brokers", "k1:9092, k2:9092", "-limit", "5", "-execute", "-idle-timeout", "500ms",
		"-event-type", "order.cancelled,order.completed", "-order", " order-3 ",
	}, noEnv)
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, opts.brokers)
	assert.Equal(t, kafka.TopicDeadLetterQueue, opts.source)
	assert.Equal(t, kafka.TopicOrderEvents, opts.target)
	assert.Equal(t, 5, opts.maxScan)
	assert.True(t, opts.apply)
	assert.Equal(t, 500*time.Millisecond, opts.idle)
	assert.Equal(t, map[string]bool{"order.cancelled": true, "order.completed": true}, opts.eventTypes)
	assert.Equal(t, "order-3", opts.orderID)
	assert.Equal(t, "execute", opts.mode())

	opts, err = parseOptions(flag.NewFlagSet("replay", flag.ContinueOnError), nil, func(key string) (string, bool) {
		return "env-kafka:9092", key == envBrokers
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"env-kafka:9092"}, opts.brokers)
	assert.Equal(t, "dry-run", opts.mode())
	assert.Nil(t, opts.eventTypes)
}

func TestParseOptions_Rejects(t *testing.T) {
	cases := map[string][]string{
		"brokers are required": {},
		"limit":                {"-brokers", "k:9092", "-limit", "0"},
		"idle-timeout":         {"-brokers", "k:9092", "-idle-timeout", "0s"},
		"source-topic":         {"-brokers", "k:9092", "-source-topic", " "},
		"must differ":          {"-brokers", "k:9092", "-source-topic", "t", "-target-topic", "t"},
	}
	for want, args := range cases {
		t.Run(want, func(t *testing.T) {
			fs := flag.NewFlagSet("replay", flag.ContinueOnError)
			fs.SetOutput(io.Discard)
			_, err := parseOptions(fs, args, noEnv)
			require.ErrorContains(t, err, want)
		})
	}
}

func TestOptionsWants(t *testing.T) {
	l := letter{eventType: "order.cancelled", orderID: "order-1"}

	assert.True(t, options{}.wants(l))
	assert.True(t, options{eventTypes: map[string]bool{"order.cancelled": true}}.wants(l))
	assert.False(t, options{eventTypes: map[string]bool{"order.created": true}}.wants(l))
	assert.True(t, options{orderID: "order-1"}.wants(l))
	assert.False(t, options{orderID: "order-2"}.wants(l))
}

func TestDecodeLetter_ConsumerLetter(t *testing.T) {
	l, err := decodeLetter(consumerLetter(t, "order-1", "order.cancelled"), "fallback", replayedAt)
	require.NoError(t, err)
	assert.Equal(t, kafka.TopicOrderEvents, l.topic)
	assert.Equal(t, "order-1", l.key)
	assert.Equal(t, "order-1", l.orderID)
	assert.Equal(t, "evt-order-1", l.eventID)
	assert.Equal(t, "order.cancelled", l.eventType)
	assert.Equal(t, 3, l.attempts)

	env, err := kafka.DecodeEnvelope(l.value)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"preparing"}`, string(env.Payload))
}

func TestDecodeLetter_ConsumerLetterWithOpaqueValue(t *testing.T) {
	raw, err := json.Marshal(kafka.DeadLetter{OriginalKey: "order-5", OriginalValue: "not json"})
	require.NoError(t, err)

	l, err := decodeLetter(raw, "events", replayedAt)
	require.NoError(t, err)
	assert.Equal(t, "events", l.topic, "missing original topic falls back to target")
	assert.Equal(t, "order-5", l.orderID)
	assert.Empty(t, l.eventType)
	assert.Equal(t, []byte("not json"), l.value)
}

func TestDecodeLetter_OutboxLetter(t *testing.T) {
	value := outboxLetter(t, outbox.DLQEnvelope{
		OutboxID:     "outbox-9",
		AggregateID:  "order-9",
		Payload:      json.RawMessage(`{"status":"completed"}`),
		Attempts:     5,
		PublishError: "broker timeout",
	})

	l, err := decodeLetter(value, "events", replayedAt)
	require.NoError(t, err)
	assert.Equal(t, "events", l.topic)
	assert.Equal(t, "order-9", l.key)
	assert.Equal(t, "outbox-9", l.eventID)
	assert.Equal(t, "order.completed", l.eventType, "event type comes from the wrapper")
	assert.Equal(t, 5, l.attempts)

	env, err := kafka.DecodeEnvelope(l.value)
	require.NoError(t, err)
	assert.Equal(t, "order", env.AggregateType)
	assert.True(t, env.PublishedAt.Equal(replayedAt))
	assert.JSONEq(t, `{"status":"completed"}`, string(env.Payload))
}

func TestDecodeLetter_Broken(t *testing.T) {
	_, err := decodeLetter(outboxLetter(t, "not-an-object"), "events", replayedAt)
	require.ErrorContains(t, err, "decode outbox dead letter")

	_, err = decodeLetter(outboxLetter(t, outbox.DLQEnvelope{OutboxID: "x"}), "events", replayedAt)
	require.ErrorContains(t, err, "no original event")

	_, err = decodeLetter([]byte(`{"id":"x","event_type":"outbox.dead_letter","payload":null}`), "events", replayedAt)
	require.ErrorIs(t, err, errForeignLetter)

	_, err = decodeLetter([]byte("plain text"), "events", replayedAt)
	require.ErrorIs(t, err, errForeignLetter)
}

func TestLetterHeaders(t *testing.T) {
	headers := letter{eventID: "evt-1", eventType: "order.created", attempts: 4}.headers()
	assert.Equal(t, []kafka.Header{
		{Key: kafka.HeaderRetryCount, Value: "0"},
		{Key: "x-replayed-after", Value: "4"},
		{Key: kafka.HeaderEventID, Value: "evt-1"},
		{Key: kafka.HeaderEventType, Value: "order.created"},
	}, headers)

	assert.Len(t, letter{}.headers(), 2)
}

func TestReplayer_DryRunCountsEveryOutcome(t *testing.T) {
	offsets := &fakeOffsets{
		partitions: []int32{1, 0},
		ranges:     map[int32][2]int64{0: {0, 3}, 1: {5, 6}, 2: {4, 4}},
	}
	source := &fakeSource{streams: map[int32]*fakeStream{
		0: finiteStream(
			&sarama.ConsumerMessage{Partition: 0, Offset: 0, Value: consumerLetter(t, "order-1", "order.cancelled")},
			&sarama.ConsumerMessage{Partition: 0, Offset: 1, Value: []byte("garbage")},
			&sarama.ConsumerMessage{Partition: 0, Offset: 2, Value: consumerLetter(t, "order-2", "order.created")},
		),
		1: finiteStream(&sarama.ConsumerMessage{Partition: 1, Offset: 5, Value: consumerLetter(t, "order-3", "order.cancelled")}),
	}}

	opts := baseOptions()
	opts.eventTypes = map[string]bool{"order.cancelled": true}
	got, err := testReplayer(opts, offsets, source, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, summary{scanned: 4, matched: 2, filtered: 1, malformed: 1}, got)
	assert.Equal(t, []window{{partition: 0, from: 0}, {partition: 1, from: 5}}, source.opened)
	assert.True(t, source.streams[0].closed)
}

func TestReplayer_ExecuteTailPublishes(t *testing.T) {
	offsets := &fakeOffsets{partitions: []int32{0}, ranges: map[int32][2]int64{0: {0, 10}}}
	source := &fakeSource{streams: map[int32]*fakeStream{
		0: finiteStream(
			&sarama.ConsumerMessage{Offset: 8, Value: consumerLetter(t, "order-8", "order.completed")},
			&sarama.ConsumerMessage{Offset: 9, Value: consumerLetter(t, "order-9", "order.completed")},
		),
	}}
	fake := mocks.NewSyncProducer(t, nil)
	fake.ExpectSendMessageWithCheckerFunctionAndSucceed(func(value []byte) error {
		env, err := kafka.DecodeEnvelope(value)
		if err != nil {
			return err
		}
		if env.AggregateID != "order-8" {
			return fmt.Errorf("unexpected order %s", env.AggregateID)
		}
		return nil
	})
	fake.ExpectSendMessageAndSucceed()
	producer := kafka.NewProducerFromSync(fake, quietLogger())

	opts := baseOptions()
	opts.maxScan, opts.apply, opts.tail = 2, true, true
	got, err := testReplayer(opts, offsets, source, producer).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, got.published)
	assert.Equal(t, []window{{partition: 0, from: 8}}, source.opened)
	require.NoError(t, producer.Close())
}

func TestReplayer_Failures(t *testing.T) {
	opts := baseOptions()
	ctx := context.Background()

	_, err := testReplayer(opts, nil, nil, nil).Run(ctx)
	require.ErrorContains(t, err, "client and consumer")

	apply := opts
	apply.apply = true
	_, err = testReplayer(apply, &fakeOffsets{}, &fakeSource{}, nil).Run(ctx)
	require.ErrorContains(t, err, "needs a producer")

	_, err = testReplayer(opts, &fakeOffsets{listErr: errors.New("metadata")}, &fakeSource{}, nil).Run(ctx)
	require.ErrorContains(t, err, "list partitions")

	broken := &fakeOffsets{partitions: []int32{0}, offsetErr: errors.New("leader moved")}
	_, err = testReplayer(opts, broken, &fakeSource{}, nil).Run(ctx)
	require.ErrorContains(t, err, "oldest offset")

	offsets := &fakeOffsets{partitions: []int32{0}, ranges: map[int32][2]int64{0: {0, 1}}}
	_, err = testReplayer(opts, offsets, &fakeSource{err: errors.New("no leader")}, nil).Run(ctx)
	require.ErrorContains(t, err, "consume partition")

	source := &fakeSource{streams: map[int32]*fakeStream{
		0: finiteStream(&sarama.ConsumerMessage{Offset: 0, Value: consumerLetter(t, "order-1", "order.created")}),
	}}
	fake := mocks.NewSyncProducer(t, nil)
	fake.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	_, err = testReplayer(apply, offsets, source, kafka.NewProducerFromSync(fake, quietLogger())).Run(ctx)
	require.ErrorContains(t, err, "replay partition 0 offset 0")
}

func TestReplayer_DrainStopsWhenIdleOrCanceled(t *testing.T) {
	open := &fakeStream{messages: make(chan *sarama.ConsumerMessage), errors: make(chan *sarama.ConsumerError)}
	source := &fakeSource{streams: map[int32]*fakeStream{0: open}}
	opts := baseOptions()
	opts.idle = 20 * time.Millisecond
	r := testReplayer(opts, &fakeOffsets{}, source, nil)

	got, err := r.drain(context.Background(), window{until: 3}, 5)
	require.NoError(t, err)
	assert.Zero(t, got.scanned)
	assert.True(t, open.closed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.opts.idle = time.Minute
	_, err = r.drain(ctx, window{until: 3}, 5)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReplay_ClosesConnections(t *testing.T) {
	closed := 0
	original := dial
	dial = func(options) (*connections, error) {
		return &connections{
			offsets: &fakeOffsets{},
			source:  &fakeSource{},
			closers: []io.Closer{closerFunc(func() error {
				closed++
				return nil
			})},
		}, nil
	}
	t.Cleanup(func() { dial = original })

	require.NoError(t, replay(context.Background(), baseOptions(), quietLogger()))
	assert.Equal(t, 1, closed)

	dial = func(options) (*connections, error) { return nil, errors.New("dial failed") }
	require.ErrorContains(t, replay(context.Background(), baseOptions(), quietLogger()), "dial failed")
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

type fakeOffsets struct {
	partitions []int32
	listErr    error
	ranges     map[int32][2]int64
	offsetErr  error
}

func (f *fakeOffsets) Partitions(string) ([]int32, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]int32(nil), f.partitions...), nil
}

func (f *fakeOffsets) GetOffset(_ string, partition int32, at int64) (int64, error) {
	if f.offsetErr != nil {
		return 0, f.offsetErr
	}
	if at == sarama.OffsetOldest {
		return f.ranges[partition][0], nil
	}
	return f.ranges[partition][1], nil
}

// fakeSource запоминает открытые партиции; until в opened не заполняется.
type fakeSource struct {
	streams map[int32]*fakeStream
	err     error
	opened  []window
}

func (f *fakeSource) ConsumePartition(_ string, partition int32, offset int64) (sarama.PartitionConsumer, error) {
	f.opened = append(f.opened, window{partition: partition, from: offset})
	if f.err != nil {
		return nil, f.err
	}
	stream, ok := f.streams[partition]
	if !ok {
		return nil, fmt.Errorf("partition %d is not configured", partition)
	}
	return stream, nil
}

// fakeStream реализует только то, что читает replayer.
type fakeStream struct {
	sarama.PartitionConsumer
	messages chan *sarama.ConsumerMessage
	errors   chan *sarama.ConsumerError
	closed   bool
}

func (f *fakeStream) Messages() <-chan *sarama.ConsumerMessage {
	return f.messages
}

func (f *fakeStream) Errors() <-chan *sarama.ConsumerError {
	return f.errors
}

func (f *fakeStream) Close() error {
	f.closed = true
	return nil
}

func finiteStream(messages ...*sarama.ConsumerMessage) *fakeStream {
	ch := make(chan *sarama.ConsumerMessage, len(messages))
	for _, m := range messages {
		ch <- m
	}
	close(ch)
	return &fakeStream{messages: ch, errors: make(chan *sarama.ConsumerError)}
}
