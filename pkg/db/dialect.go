package db

import (
	"fmt"
	"net/url"

	"github.com/smallbiznis/apotek/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	TypePostgres = "postgres"
	TypeMySQL    = "mysql"
	TypeSQLite   = "sqlite"
)

// Dialect picks the gorm driver for DATABASE_TYPE. All dialects store
// timestamps in UTC.
func Dialect(cfg config.Config) (gorm.Dialector, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	switch cfg.DBType {
	case TypePostgres:
		return postgres.Open(dsn), nil
	case TypeMySQL:
		return mysql.Open(dsn), nil
	default:
		return sqlite.Open(dsn), nil
	}
}

func DSN(cfg config.Config) (string, error) {
	switch cfg.DBType {
	case TypePostgres:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC application_name=%s",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode, cfg.AppName,
		), nil
	case TypeMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName,
		), nil
	case TypeSQLite:
		// Single-file store for a one-terminal install. Foreign keys are
		// off by default in SQLite.
		return fmt.Sprintf("%s.db?_busy_timeout=5000&_foreign_keys=on", url.PathEscape(cfg.DBName)), nil
	default:
		return "", fmt.Errorf("unsupported database type %q", cfg.DBType)
	}
}
