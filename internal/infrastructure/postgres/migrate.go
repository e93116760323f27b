package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/jhoicas/stockledger-api/migrations"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// Migrate aplica las migraciones embebidas pendientes (goose up) sobre el pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger) error {
	return runGoose(pool, log, func(db *sql.DB) error {
		return goose.UpContext(ctx, db, ".")
	})
}

// MigrateDown revierte la última migración aplicada.
func MigrateDown(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger) error {
	return runGoose(pool, log, func(db *sql.DB) error {
		return goose.DownContext(ctx, db, ".")
	})
}

// MigrationStatus imprime el estado de cada migración en el log.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger) error {
	return runGoose(pool, log, func(db *sql.DB) error {
		return goose.StatusContext(ctx, db, ".")
	})
}

func runGoose(pool *pgxpool.Pool, log *logger.Logger, fn func(db *sql.DB) error) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{log: log})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := fn(db); err != nil {
		return fmt.Errorf("migraciones: %w", err)
	}
	return nil
}

// gooseLogger adapta el logger de la app a goose.Logger.
type gooseLogger struct {
	log *logger.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Info().Msgf(strings.TrimSpace(format), v...)
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Fatal().Msgf(strings.TrimSpace(format), v...)
}
