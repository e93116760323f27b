package seed

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/application/usecase"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// OpeningReference referencia de los asientos de saldo inicial.
const OpeningReference = "SALDO-INICIAL"

// Summary lo creado por una carga.
type Summary struct {
	Locations int
	Items     int
	Receipts  int
	Skipped   int
}

// Loader aplica las filas a través de los casos de uso, así que el saldo de apertura
// entra al ledger como cualquier recepción.
type Loader struct {
	items     *usecase.ItemUseCase
	locations *usecase.LocationUseCase
	executor  *inventory.MovementExecutor
	log       *logger.Logger
}

// NewLoader construye el cargador.
func NewLoader(items *usecase.ItemUseCase, locations *usecase.LocationUseCase, executor *inventory.MovementExecutor, log *logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{items: items, locations: locations, executor: executor, log: log}
}

// Load crea primero ubicaciones y artículos que no existan (por nombre) y después registra
// los saldos de apertura. Volver a cargar el mismo archivo no duplica el catálogo, pero sí
// las filas stock.
func (l *Loader) Load(ctx context.Context, rows []Row, actorID string) (Summary, error) {
	var sum Summary
	locIDs, err := l.existingLocations(ctx)
	if err != nil {
		return sum, err
	}
	itemIDs, err := l.existingItems(ctx)
	if err != nil {
		return sum, err
	}

	for _, r := range rows {
		switch r.Kind {
		case KindLocation:
			if _, ok := locIDs[r.Name]; ok {
				sum.Skipped++
				continue
			}
			loc, err := l.locations.Create(ctx, dto.CreateLocationRequest{Name: r.Name, DepartmentID: r.Group})
			if err != nil {
				return sum, fmt.Errorf("línea %d: %w", r.Line, err)
			}
			locIDs[r.Name] = loc.ID
			sum.Locations++
		case KindItem:
			if _, ok := itemIDs[r.Name]; ok {
				sum.Skipped++
				continue
			}
			price := decimal.Zero
			if r.Value != "" {
				price, err = decimal.NewFromString(r.Value)
				if err != nil {
					return sum, fmt.Errorf("línea %d: %w", r.Line, domain.Validation("precio inválido %q", r.Value))
				}
			}
			item, err := l.items.Create(ctx, dto.CreateItemRequest{Name: r.Name, CategoryID: r.Group, UnitPrice: price})
			if err != nil {
				return sum, fmt.Errorf("línea %d: %w", r.Line, err)
			}
			itemIDs[r.Name] = item.ID
			sum.Items++
		}
	}

	for _, r := range rows {
		if r.Kind != KindStock {
			continue
		}
		itemID, ok := itemIDs[r.Name]
		if !ok {
			return sum, fmt.Errorf("línea %d: %w: artículo %q", r.Line, domain.ErrNotFound, r.Name)
		}
		locID, ok := locIDs[r.Group]
		if !ok {
			return sum, fmt.Errorf("línea %d: %w: ubicación %q", r.Line, domain.ErrNotFound, r.Group)
		}
		qty, err := strconv.ParseInt(r.Value, 10, 64)
		if err != nil {
			return sum, fmt.Errorf("línea %d: %w", r.Line, domain.Validation("cantidad inválida %q", r.Value))
		}
		if qty == 0 {
			continue
		}
		_, err = l.executor.Receive(ctx, inventory.ReceiptInput{
			ItemID:     itemID,
			LocationID: locID,
			Quantity:   qty,
			ActorID:    actorID,
			Reference:  OpeningReference,
		})
		if err != nil {
			if errors.Is(err, domain.ErrLockTimeout) {
				l.log.Warn().Int("line", r.Line).Msg("saldo ocupado, se aborta la carga")
			}
			return sum, fmt.Errorf("línea %d: %w", r.Line, err)
		}
		sum.Receipts++
	}
	return sum, nil
}

const pageSize = 100

func (l *Loader) existingLocations(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string)
	for offset := 0; ; offset += pageSize {
		page, err := l.locations.List(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, loc := range page.Items {
			out[loc.Name] = loc.ID
		}
		if len(page.Items) < pageSize {
			return out, nil
		}
	}
}

func (l *Loader) existingItems(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string)
	for offset := 0; ; offset += pageSize {
		page, err := l.items.List(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, it := range page.Items {
			out[it.Name] = it.ID
		}
		if len(page.Items) < pageSize {
			return out, nil
		}
	}
}
