package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/application/usecase"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/metrics"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/stockledger-api/internal/infrastructure/redis"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/seed"
	httpRouter "github.com/jhoicas/stockledger-api/internal/interfaces/http"
	"github.com/jhoicas/stockledger-api/pkg/config"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// backend repositorios y runner de transacciones del almacenamiento elegido.
type backend struct {
	txRunner  inventory.TxRunner
	ledger    repository.LedgerRepository
	stock     repository.StockRequestRepository
	discards  repository.DiscardRequestRepository
	items     repository.ItemRepository
	locations repository.LocationRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.Storage).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer be.close()

	registry := metrics.NewRegistry()
	var (
		engineMetrics inventory.Metrics
		httpObserver  httpRouter.HTTPObserver
	)
	if cfg.Metrics.Enabled {
		rec := metrics.NewRecorder(registry)
		engineMetrics, httpObserver = rec, rec
	}

	var cache inventory.BalanceCache
	if cfg.Redis.Addr != "" {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			// El caché solo sirve a pantallas: sin Redis se lee directo del ledger.
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, caché de saldos deshabilitado")
		} else {
			defer func() { _ = rdb.Close() }()
			cache = infraredis.NewBalanceCache(rdb, cfg.Redis.SnapshotTTL, log)
		}
	}

	executor := inventory.NewMovementExecutor(be.txRunner, be.items, be.locations, inventory.ExecutorConfig{
		Cache:   cache,
		Metrics: engineMetrics,
		Retry: inventory.RetryPolicy{
			Attempts: cfg.Ledger.RetryAttempts,
			Delay:    cfg.Ledger.RetryDelay,
		},
		Logger: log,
	})
	requestUC := inventory.NewRequestUseCase(be.stock, be.discards, executor)
	projectorUC := inventory.NewProjectorUseCase(be.ledger, cache)
	deadStockUC := inventory.NewDeadStockUseCase(be.ledger, be.items, cfg.Ledger.DeadStockDays, nil)
	itemUC := usecase.NewItemUseCase(be.items)
	locationUC := usecase.NewLocationUseCase(be.locations)

	if cfg.App.SeedFile != "" {
		if err := seedCatalog(ctx, cfg.App, seed.NewLoader(itemUC, locationUC, executor, log), log); err != nil {
			log.Fatal().Err(err).Str("file", cfg.App.SeedFile).Msg("carga inicial")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log, httpObserver))

	// Swagger UI en local: http://localhost:<port>/docs
	if cfg.Metrics.Swagger {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Stock Ledger API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.App.Storage})
	})
	if cfg.Metrics.Enabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		ItemUC:        itemUC,
		LocationUC:    locationUC,
		Requests:      requestUC,
		Executor:      executor,
		Projector:     projectorUC,
		DeadStock:     deadStockUC,
		DeadStockDays: cfg.Ledger.DeadStockDays,
		JWTSecret:     cfg.JWT.Secret,
		Logger:        log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	if cfg.App.Storage == "memory" {
		store := memory.New(memory.Options{LockTimeout: cfg.Ledger.LockTimeout})
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return &backend{
			txRunner:  store,
			ledger:    store.Ledger(),
			stock:     store.StockRequests(),
			discards:  store.DiscardRequests(),
			items:     store.Items(),
			locations: store.Locations(),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &backend{
		txRunner:  postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout),
		ledger:    postgres.NewLedgerRepository(pool),
		stock:     postgres.NewStockRequestRepository(pool),
		discards:  postgres.NewDiscardRequestRepository(pool),
		items:     postgres.NewItemRepository(pool),
		locations: postgres.NewLocationRepository(pool),
		close:     pool.Close,
	}, nil
}

// seedCatalog útil sobre todo con STORAGE_BACKEND=memory, que arranca vacío.
func seedCatalog(ctx context.Context, app config.AppConfig, loader *seed.Loader, log *logger.Logger) error {
	rows, err := seed.ReadFile(app.SeedFile, app.SeedLatin1)
	if err != nil {
		return err
	}
	sum, err := loader.Load(ctx, rows, "seed")
	if err != nil {
		return err
	}
	log.Info().
		Int("locations", sum.Locations).
		Int("items", sum.Items).
		Int("receipts", sum.Receipts).
		Msg("catálogo inicial cargado")
	return nil
}
