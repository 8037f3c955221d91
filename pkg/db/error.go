package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	if code, ok := pgCode(err); ok {
		return code == "23505"
	}
	if number, ok := mysqlNumber(err); ok {
		return number == 1062
	}

	// SQLite (error code 2067)
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsTimeoutErr reports statement, lock wait and context deadline failures.
func IsTimeoutErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if code, ok := pgCode(err); ok {
		// query_canceled, lock_not_available
		return code == "57014" || code == "55P03"
	}
	if number, ok := mysqlNumber(err); ok {
		// lock wait timeout, max execution time exceeded
		return number == 1205 || number == 3024
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// IsSerializationErr reports transactions the store aborted to keep
// concurrent writers consistent. They are safe to retry.
func IsSerializationErr(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := pgCode(err); ok {
		return code == "40001" || code == "40P01"
	}
	if number, ok := mysqlNumber(err); ok {
		return number == 1213
	}
	return false
}

// IsUnavailableErr reports connection level failures.
func IsUnavailableErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if code, ok := pgCode(err); ok {
		return strings.HasPrefix(code, "08") || code == "57P01"
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func pgCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}
	return "", false
}

func mysqlNumber(err error) (uint16, bool) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number, true
	}
	return 0, false
}
