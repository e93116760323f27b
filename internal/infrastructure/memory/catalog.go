package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var (
	_ repository.ItemRepository     = (*ItemRepo)(nil)
	_ repository.LocationRepository = (*LocationRepo)(nil)
)

// ItemRepo artículos en memoria. El catálogo no participa de las transacciones del ledger.
type ItemRepo struct {
	s *Store
}

func (r *ItemRepo) Create(_ context.Context, item *entity.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[item.ID]; ok {
		return domain.ErrDuplicate
	}
	cp := *item
	r.s.items[item.ID] = &cp
	return nil
}

func (r *ItemRepo) GetByID(_ context.Context, id string) (*entity.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	it, ok := r.s.items[id]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (r *ItemRepo) Update(_ context.Context, item *entity.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[item.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *item
	r.s.items[item.ID] = &cp
	return nil
}

func (r *ItemRepo) List(_ context.Context, limit, offset int) ([]*entity.Item, error) {
	r.s.mu.RLock()
	list := make([]*entity.Item, 0, len(r.s.items))
	for _, it := range r.s.items {
		cp := *it
		list = append(list, &cp)
	}
	r.s.mu.RUnlock()
	slices.SortFunc(list, func(a, b *entity.Item) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return page(list, limit, offset), nil
}

// LocationRepo ubicaciones en memoria; el nombre es único como en PostgreSQL.
type LocationRepo struct {
	s *Store
}

func (r *LocationRepo) Create(_ context.Context, loc *entity.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.locations[loc.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, l := range r.s.locations {
		if l.Name == loc.Name {
			return fmt.Errorf("%w: ubicación %q", domain.ErrDuplicate, loc.Name)
		}
	}
	cp := *loc
	r.s.locations[loc.ID] = &cp
	return nil
}

func (r *LocationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.locations[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *LocationRepo) List(_ context.Context, limit, offset int) ([]*entity.Location, error) {
	r.s.mu.RLock()
	list := make([]*entity.Location, 0, len(r.s.locations))
	for _, l := range r.s.locations {
		cp := *l
		list = append(list, &cp)
	}
	r.s.mu.RUnlock()
	slices.SortFunc(list, func(a, b *entity.Location) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return page(list, limit, offset), nil
}
