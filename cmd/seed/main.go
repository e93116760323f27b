// seed carga el catálogo inicial y los saldos de apertura desde una planilla de inventario físico.
//
// Uso: go run ./cmd/seed [-latin1] [-actor seed] [-tokens] catalogo.xlsx|catalogo.csv
//
// Con -tokens imprime además un JWT de desarrollo por rol (admin, approver, storekeeper).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/application/usecase"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/seed"
	"github.com/jhoicas/stockledger-api/pkg/config"
	"github.com/jhoicas/stockledger-api/pkg/jwt"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

func main() {
	latin1 := flag.Bool("latin1", false, "el .csv está en ISO-8859-1")
	actor := flag.String("actor", "seed", "actor de los asientos de saldo inicial")
	tokens := flag.Bool("tokens", false, "imprimir tokens de desarrollo por rol")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "seed"})

	if *tokens {
		printTokens(cfg)
	}
	path := flag.Arg(0)
	if path == "" {
		if *tokens {
			return
		}
		fmt.Fprintln(os.Stderr, "uso: seed [-latin1] [-actor id] [-tokens] archivo.xlsx|archivo.csv")
		os.Exit(2)
	}

	rows, err := seed.ReadFile(path, *latin1)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("leer catálogo")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, log); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}

	items := postgres.NewItemRepository(pool)
	locations := postgres.NewLocationRepository(pool)
	executor := inventory.NewMovementExecutor(postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout), items, locations, inventory.ExecutorConfig{
		Retry:  inventory.RetryPolicy{Attempts: cfg.Ledger.RetryAttempts, Delay: cfg.Ledger.RetryDelay},
		Logger: log,
	})
	loader := seed.NewLoader(usecase.NewItemUseCase(items), usecase.NewLocationUseCase(locations), executor, log)

	sum, err := loader.Load(ctx, rows, *actor)
	if err != nil {
		log.Error().Err(err).Msg("carga interrumpida")
		pool.Close()
		os.Exit(1)
	}
	log.Info().
		Int("locations", sum.Locations).
		Int("items", sum.Items).
		Int("receipts", sum.Receipts).
		Int("skipped", sum.Skipped).
		Msg("catálogo cargado")
}

func printTokens(cfg *config.Config) {
	for _, role := range []string{jwt.RoleAdmin, jwt.RoleApprover, jwt.RoleStorekeeper} {
		tok, err := jwt.Generate(cfg.JWT.Secret, "dev-"+role, role, cfg.JWT.Issuer, cfg.JWT.Expiration)
		if err != nil {
			fmt.Fprintf(os.Stderr, "token %s: %v\n", role, err)
			os.Exit(1)
		}
		fmt.Printf("%-12s Bearer %s\n", role, tok)
	}
}
