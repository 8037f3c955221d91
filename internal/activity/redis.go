package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/apotek/internal/observability/metrics"
	"go.uber.org/zap"
)

type RedisConfig struct {
	Stream   string
	Group    string
	Consumer string
	Block    time.Duration
	Batch    int64

	// PublishTimeout bounds each XADD so an unreachable Redis fails the
	// publish quickly instead of holding the caller.
	PublishTimeout time.Duration
}

const defaultPublishTimeout = 250 * time.Millisecond

// RedisQueue carries events through a Redis stream and a consumer group.
// An event stays pending until the sink has stored it, so a crashed
// writer redelivers on restart.
type RedisQueue struct {
	client  *redis.Client
	cfg     RedisConfig
	sink    Sink
	log     *zap.Logger
	metrics *metrics.Metrics

	cancel context.CancelFunc
	done   chan struct{}
}

func NewRedisQueue(client *redis.Client, cfg RedisConfig, sink Sink, log *zap.Logger, m *metrics.Metrics) *RedisQueue {
	if cfg.Block <= 0 {
		cfg.Block = 5 * time.Second
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 32
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaultPublishTimeout
	}
	return &RedisQueue{
		client:  client,
		cfg:     cfg,
		sink:    sink,
		log:     log.Named("activity.redis").With(zap.String("stream", cfg.Stream)),
		metrics: m,
	}
}

func (q *RedisQueue) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, q.cfg.PublishTimeout)
	defer cancel()
	return q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.cfg.Stream,
		Values: map[string]any{
			"id":      e.ID.String(),
			"payload": string(payload),
		},
	}).Err()
}

// Start creates the consumer group when missing and begins consuming.
func (q *RedisQueue) Start(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.cfg.Stream, q.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.done = make(chan struct{})
	go q.run(runCtx)
	return nil
}

func (q *RedisQueue) Stop(ctx context.Context) error {
	if q.cancel == nil {
		return nil
	}
	q.cancel()
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *RedisQueue) run(ctx context.Context) {
	defer close(q.done)

	// Entries delivered to this consumer before a restart come first.
	cursor := "0"
	for ctx.Err() == nil {
		last, err := q.consume(ctx, cursor)
		if err != nil {
			if ctx.Err() == nil {
				q.log.Warn("failed to replay pending activity", zap.Error(err))
			}
			break
		}
		if last == "" {
			break
		}
		cursor = last
	}

	for ctx.Err() == nil {
		if _, err := q.consume(ctx, ">"); err != nil && ctx.Err() == nil {
			q.log.Warn("failed to read activity stream", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// consume reads one batch after id and returns the last message id seen.
// ">" waits for new entries; any other id pages through this consumer's
// pending entries.
func (q *RedisQueue) consume(ctx context.Context, id string) (string, error) {
	block := q.cfg.Block
	if id != ">" {
		block = -1
	}
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.cfg.Group,
		Consumer: q.cfg.Consumer,
		Streams:  []string{q.cfg.Stream, id},
		Count:    q.cfg.Batch,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	last := ""
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			q.handle(ctx, msg)
			last = msg.ID
		}
	}
	return last, nil
}

func (q *RedisQueue) handle(ctx context.Context, msg redis.XMessage) {
	event, err := decodeMessage(msg)
	if err != nil {
		q.metrics.RecordActivityDropped(ctx, "malformed")
		q.log.Warn("dropping malformed activity", zap.String("message_id", msg.ID), zap.Error(err))
		q.ack(ctx, msg.ID)
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, defaultWriteTimeout)
	defer cancel()
	if err := q.sink.Write(writeCtx, event); err != nil {
		// Left pending; replayed on the next start.
		q.log.Warn("failed to write activity",
			zap.String("message_id", msg.ID),
			zap.Int64("event_id", event.ID.Int64()),
			zap.Error(err),
		)
		return
	}
	q.metrics.RecordActivityWritten(ctx)
	q.ack(ctx, msg.ID)
}

func (q *RedisQueue) ack(ctx context.Context, id string) {
	if err := q.client.XAck(ctx, q.cfg.Stream, q.cfg.Group, id).Err(); err != nil {
		q.log.Warn("failed to ack activity", zap.String("message_id", id), zap.Error(err))
	}
}

func decodeMessage(msg redis.XMessage) (Event, error) {
	raw, ok := msg.Values["payload"].(string)
	if !ok {
		return Event{}, errors.New("missing payload")
	}
	var e Event
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return Event{}, err
	}
	if e.ID == 0 {
		return Event{}, errors.New("missing event id")
	}
	return e, nil
}
