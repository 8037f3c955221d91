// Package dbtest opens migrated in-memory databases and captures activity
// events for package tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/apotek/internal/activity"
	"github.com/smallbiznis/apotek/internal/migration"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var seq atomic.Int64

// Open returns a private shared-cache memory database with the full schema.
// The pool holds a single connection so transactions serialize.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_loc=auto", name, seq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migration.AutoMigrate(conn))
	return conn
}

// Publisher records published events in order.
type Publisher struct {
	mu     sync.Mutex
	events []activity.Event
	Err    error
}

func (p *Publisher) Publish(_ context.Context, e activity.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *Publisher) Events() []activity.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]activity.Event(nil), p.events...)
}

// Actions returns the action text of every recorded event.
func (p *Publisher) Actions() []string {
	events := p.Events()
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Action)
	}
	return out
}
