package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilLocker(t *testing.T) {
	var l *Locker
	assert.Nil(t, NewLocker(nil))

	_, ok, err := l.TryLock(context.Background(), "k", time.Second)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, ok)
	assert.NoError(t, l.Release(context.Background(), "k", "token"))
}
