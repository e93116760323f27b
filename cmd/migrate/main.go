package main

import (
	"context"
	"flag"
	"os"

	"github.com/jhoicas/stockledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stockledger-api/pkg/config"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// Uso: migrate [up|down|status]
func main() {
	flag.Parse()
	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "up"
	}

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "migrate"})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	switch cmd {
	case "up":
		err = postgres.Migrate(ctx, pool, log)
	case "down":
		err = postgres.MigrateDown(ctx, pool, log)
	case "status":
		err = postgres.MigrationStatus(ctx, pool, log)
	default:
		log.Error().Str("cmd", cmd).Msg("comando desconocido (up | down | status)")
		pool.Close()
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Str("cmd", cmd).Msg("migraciones")
		pool.Close()
		os.Exit(1)
	}
	log.Info().Str("cmd", cmd).Msg("migraciones completadas")
}
