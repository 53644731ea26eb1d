package cart

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pizzapalace/backend/internal/menu"
	pkgerrors "github.com/pizzapalace/backend/pkg/errors"
)

// maxLineQuantity caps a single cart line to keep order totals inside the
// numeric(8,2) column.
const maxLineQuantity = 50

type itemResolver interface {
	Resolve(ctx context.Context, id uuid.UUID) (*menu.ItemSnapshot, error)
	ResolveMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]menu.ItemSnapshot, error)
}

// Service exposes the session cart operations.
type Service interface {
	AddItem(ctx context.Context, token string, itemID uuid.UUID, quantity int) (*SnapshotDTO, error)
	SetQuantity(ctx context.Context, token string, itemID uuid.UUID, quantity int) (*SnapshotDTO, error)
	RemoveItem(ctx context.Context, token string, itemID uuid.UUID) (*SnapshotDTO, error)
	Snapshot(ctx context.Context, token string) (*SnapshotDTO, error)
	Clear(ctx context.Context, token string) error
}

// LineDTO is one priced cart line as rendered to the storefront.
type LineDTO struct {
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
}

// SnapshotDTO is the full cart view with the computed total.
type SnapshotDTO struct {
	Lines []LineDTO       `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

type service struct {
	store EntryStore
	menu  itemResolver
}

// NewService constructs the cart service.
func NewService(store EntryStore, resolver itemResolver) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("menu resolver required")
	}
	return &service{store: store, menu: resolver}, nil
}

// AddItem increments the quantity for the item, creating the line when absent.
func (s *service) AddItem(ctx context.Context, token string, itemID uuid.UUID, quantity int) (*SnapshotDTO, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	snapshot, err := s.menu.Resolve(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil || !snapshot.Available {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item is not available")
	}
	contents, err := s.store.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	entry := contents.Entries[itemID]
	entry.Quantity += quantity
	if entry.Quantity > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity cannot exceed %d per item", maxLineQuantity))
	}
	entry.Name = snapshot.Name
	entry.UnitPrice = snapshot.Price
	contents.Entries[itemID] = entry
	if err := s.store.Save(ctx, token, contents); err != nil {
		return nil, err
	}
	return s.render(ctx, token, contents)
}

// SetQuantity replaces the quantity for an existing line. Zero or negative
// removes the line.
func (s *service) SetQuantity(ctx context.Context, token string, itemID uuid.UUID, quantity int) (*SnapshotDTO, error) {
	contents, err := s.store.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	entry, ok := contents.Entries[itemID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	if quantity > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity cannot exceed %d per item", maxLineQuantity))
	}
	if quantity <= 0 {
		delete(contents.Entries, itemID)
	} else {
		entry.Quantity = quantity
		contents.Entries[itemID] = entry
	}
	if err := s.store.Save(ctx, token, contents); err != nil {
		return nil, err
	}
	return s.render(ctx, token, contents)
}

// RemoveItem removes the line for the item. Removing an absent item is a
// no-op.
func (s *service) RemoveItem(ctx context.Context, token string, itemID uuid.UUID) (*SnapshotDTO, error) {
	contents, err := s.store.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	if _, ok := contents.Entries[itemID]; ok {
		delete(contents.Entries, itemID)
		if err := s.store.Save(ctx, token, contents); err != nil {
			return nil, err
		}
	}
	return s.render(ctx, token, contents)
}

// Snapshot renders the cart against current menu data.
func (s *service) Snapshot(ctx context.Context, token string) (*SnapshotDTO, error) {
	contents, err := s.store.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, token, contents)
}

// Clear drops the cart for the token.
func (s *service) Clear(ctx context.Context, token string) error {
	return s.store.Delete(ctx, token)
}

// render prices every line against the live menu. Entries whose menu item no
// longer exists or is no longer available are dropped and the healed cart is
// written back.
func (s *service) render(ctx context.Context, token string, contents *Contents) (*SnapshotDTO, error) {
	ids := make([]uuid.UUID, 0, len(contents.Entries))
	for id := range contents.Entries {
		ids = append(ids, id)
	}
	snapshots, err := s.menu.ResolveMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	healed := false
	dto := &SnapshotDTO{Lines: make([]LineDTO, 0, len(ids)), Total: decimal.Zero}
	for id, entry := range contents.Entries {
		snapshot, ok := snapshots[id]
		if !ok || !snapshot.Available {
			delete(contents.Entries, id)
			healed = true
			continue
		}
		if entry.Name != snapshot.Name || !entry.UnitPrice.Equal(snapshot.Price) {
			entry.Name = snapshot.Name
			entry.UnitPrice = snapshot.Price
			contents.Entries[id] = entry
			healed = true
		}
		lineTotal := snapshot.Price.Mul(decimal.NewFromInt(int64(entry.Quantity)))
		dto.Lines = append(dto.Lines, LineDTO{
			MenuItemID: id,
			Name:       snapshot.Name,
			Quantity:   entry.Quantity,
			UnitPrice:  snapshot.Price,
			LineTotal:  lineTotal,
		})
		dto.Total = dto.Total.Add(lineTotal)
	}
	if healed {
		if err := s.store.Save(ctx, token, contents); err != nil {
			return nil, err
		}
	}
	sort.Slice(dto.Lines, func(i, j int) bool {
		return dto.Lines[i].Name < dto.Lines[j].Name
	})
	return dto, nil
}
