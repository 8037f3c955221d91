package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.False(t, IsDuplicateKeyErr(nil))
	assert.True(t, IsDuplicateKeyErr(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKeyErr(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.True(t, IsDuplicateKeyErr(&mysql.MySQLError{Number: 1062}))
	assert.True(t, IsDuplicateKeyErr(errors.New("UNIQUE constraint failed: activity_logs.event_id")))
	assert.False(t, IsDuplicateKeyErr(&pgconn.PgError{Code: "23503"}))
}

func TestIsTimeoutErr(t *testing.T) {
	assert.True(t, IsTimeoutErr(fmt.Errorf("query: %w", context.DeadlineExceeded)))
	assert.True(t, IsTimeoutErr(&pgconn.PgError{Code: "57014"}))
	assert.True(t, IsTimeoutErr(&mysql.MySQLError{Number: 3024}))
	assert.False(t, IsTimeoutErr(&pgconn.PgError{Code: "40001"}))
}

func TestIsSerializationErr(t *testing.T) {
	assert.True(t, IsSerializationErr(&pgconn.PgError{Code: "40P01"}))
	assert.True(t, IsSerializationErr(&mysql.MySQLError{Number: 1213}))
	assert.False(t, IsSerializationErr(errors.New("deadlock")))
}

func TestIsUnavailableErr(t *testing.T) {
	assert.True(t, IsUnavailableErr(mysql.ErrInvalidConn))
	assert.True(t, IsUnavailableErr(&pgconn.PgError{Code: "08006"}))
	assert.False(t, IsUnavailableErr(&pgconn.PgError{Code: "23505"}))
}
