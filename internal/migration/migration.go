package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	directorydomain "github.com/smallbiznis/apotek/internal/directory/domain"
	inventorydomain "github.com/smallbiznis/apotek/internal/inventory/domain"
	refunddomain "github.com/smallbiznis/apotek/internal/refund/domain"
	saledomain "github.com/smallbiznis/apotek/internal/sale/domain"
	settingsdomain "github.com/smallbiznis/apotek/internal/settings/domain"
	"gorm.io/gorm"
)

const migrationsDir = "sql"

//go:embed sql/*.sql
var embeddedMigrations embed.FS

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&directorydomain.Customer{},
		&directorydomain.Supplier{},
		&inventorydomain.Medicine{},
		&saledomain.Sale{},
		&saledomain.SaleItem{},
		&refunddomain.Return{},
		&auditdomain.StockAdjustment{},
		&auditdomain.ActivityLog{},
		&settingsdomain.Settings{},
	}
}

// RunMigrations applies the embedded Postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	// migrator.Close would close the shared *sql.DB.
	return nil
}

// AutoMigrate builds the schema from the models for MySQL and SQLite.
func AutoMigrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
