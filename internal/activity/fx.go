package activity

import (
	"context"
	"errors"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/apotek/internal/config"
	"github.com/smallbiznis/apotek/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("activity",
	fx.Provide(NewPublisher),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Sink      Sink
	Log       *zap.Logger
	Client    *redis.Client    `optional:"true"`
	Metrics   *metrics.Metrics `optional:"true"`
}

// NewPublisher selects the queue named by ACTIVITY_QUEUE and ties its
// consumer to the application lifecycle.
func NewPublisher(p Params) (Publisher, error) {
	cfg := p.Config.Activity

	if cfg.Queue == config.ActivityQueueRedis {
		if p.Client == nil {
			return nil, errors.New("ACTIVITY_QUEUE=redis requires REDIS_ADDR")
		}
		q := NewRedisQueue(p.Client, RedisConfig{
			Stream:   cfg.Stream,
			Group:    cfg.Group,
			Consumer: cfg.Consumer,
		}, p.Sink, p.Log, p.Metrics)
		p.Lifecycle.Append(fx.Hook{
			OnStart: q.Start,
			OnStop:  q.Stop,
		})
		return q, nil
	}

	q := NewQueue(p.Sink, p.Log, p.Metrics, cfg.BufferSize)
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			q.Start()
			return nil
		},
		OnStop: q.Stop,
	})
	return q, nil
}
