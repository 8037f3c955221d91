package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock supplies timestamps for stored records. All stored times are UTC.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func New() Clock {
	return SystemClock{}
}

var Module = fx.Module("clock",
	fx.Provide(New),
)
