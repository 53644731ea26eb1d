package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pizzapalace/backend/pkg/db/models"
	"github.com/pizzapalace/backend/pkg/enums"
	pkgerrors "github.com/pizzapalace/backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the order ledger operations.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*OrderDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	TransitionStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error)
}

// CreateOrderInput carries the validated checkout payload. Line prices are
// snapshots taken by the caller; the total is derived here and locked.
type CreateOrderInput struct {
	UserID          *uuid.UUID
	ContactEmail    string
	ContactPhone    string
	DeliveryAddress string
	Lines           []OrderLineInput
}

// OrderLineInput is one priced line entering the order.
type OrderLineInput struct {
	MenuItemID uuid.UUID
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// CreateOrder writes the order and all of its lines in one transaction. The
// order number is an opaque token so order volume cannot be inferred from it.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if strings.TrimSpace(input.ContactEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact email is required")
	}
	if strings.TrimSpace(input.DeliveryAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}

	total := decimal.Zero
	for _, line := range input.Lines {
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be at least 1")
		}
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     uuid.NewString(),
		UserID:          input.UserID,
		ContactEmail:    input.ContactEmail,
		ContactPhone:    input.ContactPhone,
		DeliveryAddress: input.DeliveryAddress,
		Status:          enums.OrderStatusPending,
		TotalAmount:     total,
	}
	items := make([]models.OrderItem, 0, len(input.Lines))
	for _, line := range input.Lines {
		items = append(items, models.OrderItem{
			ID:         uuid.New(),
			OrderID:    order.ID,
			MenuItemID: line.MenuItemID,
			Name:       line.Name,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return err
		}
		return repo.CreateOrderItems(ctx, items)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order creation failed")
	}

	order.Items = items
	return ToOrderDTO(order), nil
}

// GetByOrderNumber loads the full order graph for the opaque order number.
func (s *service) GetByOrderNumber(ctx context.Context, orderNumber string) (*OrderDTO, error) {
	order, err := s.loadByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	return ToOrderDTO(order), nil
}

// ListForUser returns the user's orders, most recent first.
func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	results, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list orders")
	}
	dtos := make([]OrderDTO, 0, len(results))
	for i := range results {
		dtos = append(dtos, *ToOrderDTO(&results[i]))
	}
	return dtos, nil
}

// TransitionStatus advances the order through its lifecycle. The conditional
// update guards against racing writers: the transition is validated against
// the loaded status and then applied only if that status still holds.
func (s *service) TransitionStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot transition order from %s to %s", order.Status, next))
	}
	updated, err := s.repo.UpdateStatusIf(ctx, orderID, order.Status, next)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update order status")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
	}
	order.Status = next
	return ToOrderDTO(order), nil
}

func (s *service) loadByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	order, err := s.repo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}
	return order, nil
}
