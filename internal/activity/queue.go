package activity

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/apotek/internal/observability/metrics"
	"go.uber.org/zap"
)

const defaultWriteTimeout = 5 * time.Second

// Queue is an in-process buffered queue drained by a single writer
// goroutine. Publish never blocks: a full buffer drops the event.
type Queue struct {
	sink         Sink
	log          *zap.Logger
	metrics      *metrics.Metrics
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	events chan Event
	done   chan struct{}
	start  sync.Once
}

func NewQueue(sink Sink, log *zap.Logger, m *metrics.Metrics, size int) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{
		sink:         sink,
		log:          log.Named("activity.queue"),
		metrics:      m,
		writeTimeout: defaultWriteTimeout,
		events:       make(chan Event, size),
		done:         make(chan struct{}),
	}
}

func (q *Queue) Publish(_ context.Context, e Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.events <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the writer. It is safe to call more than once.
func (q *Queue) Start() {
	q.start.Do(func() {
		go q.run()
	})
}

// Stop refuses new events and waits for the buffered ones to be written.
func (q *Queue) Stop(ctx context.Context) error {
	q.Start()

	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.events)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for e := range q.events {
		q.write(e)
	}
}

func (q *Queue) write(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), q.writeTimeout)
	defer cancel()

	if err := q.sink.Write(ctx, e); err != nil {
		q.metrics.RecordActivityDropped(ctx, "write_failed")
		q.log.Warn("failed to write activity",
			zap.Int64("event_id", e.ID.Int64()),
			zap.String("action", e.Action),
			zap.Error(err),
		)
		return
	}
	q.metrics.RecordActivityWritten(ctx)
}
