package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/application/usecase"
	"github.com/jhoicas/stockledger-api/pkg/jwt"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ItemUC        *usecase.ItemUseCase
	LocationUC    *usecase.LocationUseCase
	Requests      *inventory.RequestUseCase
	Executor      *inventory.MovementExecutor
	Projector     *inventory.ProjectorUseCase
	DeadStock     *inventory.DeadStockUseCase
	DeadStockDays int
	JWTSecret     string
	Logger        *logger.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token; las escrituras
// administrativas y las decisiones además exigen rol.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	adminOnly := RequireRole(jwt.RoleAdmin)
	approvers := RequireRole(jwt.RoleAdmin, jwt.RoleApprover)
	receivers := RequireRole(jwt.RoleAdmin, jwt.RoleStorekeeper)

	// Items
	items := api.Group("/items")
	itemHandler := NewItemHandler(deps.ItemUC, deps.Projector, log)
	items.Post("/", adminOnly, itemHandler.Create)
	items.Get("/", itemHandler.List)
	items.Get("/:id", itemHandler.GetByID)
	items.Put("/:id", adminOnly, itemHandler.Update)
	items.Get("/:id/stock", itemHandler.Stock)

	// Locations
	locations := api.Group("/locations")
	locationHandler := NewLocationHandler(deps.LocationUC, log)
	locations.Post("/", adminOnly, locationHandler.Create)
	locations.Get("/", locationHandler.List)
	locations.Get("/:id", locationHandler.GetByID)

	// Saldos y ledger
	inventoryHandler := NewInventoryHandler(deps.Projector, deps.Executor, log)
	api.Get("/balances", inventoryHandler.Balance)
	api.Get("/ledger/entries", inventoryHandler.Entries)
	api.Post("/ledger/rebuild", adminOnly, inventoryHandler.Rebuild)
	api.Post("/procurements/receipts", receivers, inventoryHandler.Receive)

	requestHandler := NewRequestHandler(deps.Requests, log)

	// Traslados y requisiciones
	stock := api.Group("/stock-requests")
	stock.Post("/", requestHandler.CreateStock)
	stock.Get("/", requestHandler.ListStock)
	stock.Get("/:id", requestHandler.GetStock)
	stock.Patch("/:id", approvers, requestHandler.ModifyStock)
	stock.Post("/:id/decision", approvers, requestHandler.DecideStock)

	// Bajas
	discards := api.Group("/discard-requests")
	discards.Post("/", requestHandler.CreateDiscard)
	discards.Get("/", requestHandler.ListDiscard)
	discards.Get("/:id", requestHandler.GetDiscard)
	discards.Patch("/:id", approvers, requestHandler.ModifyDiscard)
	discards.Post("/:id/decision", approvers, requestHandler.DecideDiscard)

	// Reportes
	reportHandler := NewReportHandler(deps.DeadStock, deps.DeadStockDays, log)
	api.Get("/reports/dead-stock", reportHandler.DeadStock)
}
