package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/tinderito/internal/config"
)

// NewDB initializes the database connection for the configured driver
// (mysql, postgres or sqlite) and migrates the schema.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(cfg.Log.Level),
		TranslateError: true, // unique violations surface as gorm.ErrDuplicatedKey
		NowFunc:        Now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.DB.Driver != "sqlite" {
		sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Now is the clock gorm stamps rows with. Millisecond precision on every
// driver, so a liked-you cursor (unix millis) points at an exact stored value.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Migrate keeps the schema in sync with the models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func openDialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DB.Driver {
	case "mysql", "":
		return mysql.Open(cfg.DB.DSN), nil
	case "postgres":
		sqlDB, err := openPostgres(cfg.DB.DSN)
		if err != nil {
			return nil, err
		}
		return postgres.New(postgres.Config{Conn: sqlDB}), nil
	case "sqlite":
		return sqlite.Open(cfg.DB.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DB.Driver)
	}
}

// openPostgres builds a pgx-backed *sql.DB. The simple protocol keeps it
// compatible with pgbouncer-style poolers.
func openPostgres(dsn string) (*sql.DB, error) {
	pgCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	pgCfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pgCfg.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		d := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
		return d.DialContext(ctx, network, addr)
	}
	return stdlib.OpenDB(*pgCfg), nil
}

func newGormLogger(level string) logger.Interface {
	lvl := logger.Warn
	switch level {
	case "debug":
		lvl = logger.Info // log SQL queries
	case "error":
		lvl = logger.Error
	}
	return logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  lvl,
			IgnoreRecordNotFoundError: true,
		},
	)
}
