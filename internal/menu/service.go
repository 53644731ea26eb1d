package menu

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pizzapalace/backend/pkg/db/models"
	"github.com/pizzapalace/backend/pkg/enums"
	pkgerrors "github.com/pizzapalace/backend/pkg/errors"
)

// Service exposes menu read operations for storefront and cart flows.
type Service interface {
	ListMenu(ctx context.Context, filters ListFilters) ([]ItemDTO, error)
	GetItem(ctx context.Context, id uuid.UUID) (*ItemDTO, error)
	Resolve(ctx context.Context, id uuid.UUID) (*ItemSnapshot, error)
	ResolveMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ItemSnapshot, error)
}

// ItemDTO is the storefront representation of a menu item.
type ItemDTO struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Price       decimal.Decimal    `json:"price"`
	Category    enums.MenuCategory `json:"category"`
	Tags        []string           `json:"tags"`
	IsAvailable bool               `json:"is_available"`
}

// ItemSnapshot is the point-in-time view of a menu item used by cart and
// checkout flows. Price and name are captured here so later menu edits do
// not alter in-flight orders.
type ItemSnapshot struct {
	ID        uuid.UUID
	Name      string
	Price     decimal.Decimal
	Available bool
}

type service struct {
	repo *Repository
}

// NewService constructs a menu service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("menu repository required")
	}
	return &service{repo: repo}, nil
}

// ListMenu returns menu items matching the filters.
func (s *service) ListMenu(ctx context.Context, filters ListFilters) ([]ItemDTO, error) {
	items, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list menu items")
	}
	dtos := make([]ItemDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, toItemDTO(&items[i]))
	}
	return dtos, nil
}

// GetItem returns a single menu item by ID. Unavailable items are hidden
// from the public detail view and surface as not found.
func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*ItemDTO, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load menu item")
	}
	if !item.IsAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
	}
	dto := toItemDTO(item)
	return &dto, nil
}

// Resolve returns the current snapshot of a menu item, or nil when the item
// no longer exists. Callers decide how to treat missing or unavailable items.
func (s *service) Resolve(ctx context.Context, id uuid.UUID) (*ItemSnapshot, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to resolve menu item")
	}
	snapshot := toSnapshot(item)
	return &snapshot, nil
}

// ResolveMany returns snapshots keyed by item ID. IDs with no matching row
// are absent from the result.
func (s *service) ResolveMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ItemSnapshot, error) {
	items, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to resolve menu items")
	}
	snapshots := make(map[uuid.UUID]ItemSnapshot, len(items))
	for i := range items {
		snapshots[items[i].ID] = toSnapshot(&items[i])
	}
	return snapshots, nil
}

func toItemDTO(item *models.MenuItem) ItemDTO {
	tags := make([]string, len(item.Tags))
	copy(tags, item.Tags)
	return ItemDTO{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
		Category:    item.Category,
		Tags:        tags,
		IsAvailable: item.IsAvailable,
	}
}

func toSnapshot(item *models.MenuItem) ItemSnapshot {
	return ItemSnapshot{
		ID:        item.ID,
		Name:      item.Name,
		Price:     item.Price,
		Available: item.IsAvailable,
	}
}
