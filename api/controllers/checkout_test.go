package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pizzapalace/backend/api/middleware"
	cartsvc "github.com/pizzapalace/backend/internal/cart"
	ordersvc "github.com/pizzapalace/backend/internal/orders"
	"github.com/pizzapalace/backend/pkg/enums"
	pkgerrors "github.com/pizzapalace/backend/pkg/errors"
)

type stubOrderService struct {
	createFn func(ctx context.Context, input ordersvc.CreateOrderInput) (*ordersvc.OrderDTO, error)
	lastIn   *ordersvc.CreateOrderInput
}

func (s *stubOrderService) CreateOrder(ctx context.Context, input ordersvc.CreateOrderInput) (*ordersvc.OrderDTO, error) {
	s.lastIn = &input
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return &ordersvc.OrderDTO{OrderNumber: uuid.NewString(), Status: enums.OrderStatusPending}, nil
}

func (s *stubOrderService) GetByOrderNumber(ctx context.Context, orderNumber string) (*ordersvc.OrderDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrderService) ListForUser(ctx context.Context, userID uuid.UUID) ([]ordersvc.OrderDTO, error) {
	return nil, nil
}

func (s *stubOrderService) TransitionStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*ordersvc.OrderDTO, error) {
	return nil, nil
}

type stubCartService struct {
	snapshot   *cartsvc.SnapshotDTO
	snapErr    error
	clearCalls int
	clearErr   error
}

func (s *stubCartService) AddItem(ctx context.Context, token string, itemID uuid.UUID, quantity int) (*cartsvc.SnapshotDTO, error) {
	return s.snapshot, s.snapErr
}

func (s *stubCartService) SetQuantity(ctx context.Context, token string, itemID uuid.UUID, quantity int) (*cartsvc.SnapshotDTO, error) {
	return s.snapshot, s.snapErr
}

func (s *stubCartService) RemoveItem(ctx context.Context, token string, itemID uuid.UUID) (*cartsvc.SnapshotDTO, error) {
	return s.snapshot, s.snapErr
}

func (s *stubCartService) Snapshot(ctx context.Context, token string) (*cartsvc.SnapshotDTO, error) {
	return s.snapshot, s.snapErr
}

func (s *stubCartService) Clear(ctx context.Context, token string) error {
	s.clearCalls++
	return s.clearErr
}

func checkoutBody() string {
	return `{"contact_email":"buyer@example.com","contact_phone":"555-0100","delivery_address":"1 Main St"}`
}

func pricedSnapshot(itemID uuid.UUID) *cartsvc.SnapshotDTO {
	price := decimal.RequireFromString("9.99")
	return &cartsvc.SnapshotDTO{
		Lines: []cartsvc.LineDTO{{
			MenuItemID: itemID,
			Name:       "Margherita",
			Quantity:   2,
			UnitPrice:  price,
			LineTotal:  price.Mul(decimal.NewFromInt(2)),
		}},
		Total: price.Mul(decimal.NewFromInt(2)),
	}
}

func TestCheckoutCreatesOrderFromCart(t *testing.T) {
	itemID := uuid.New()
	orders := &stubOrderService{}
	carts := &stubCartService{snapshot: pricedSnapshot(itemID)}
	handler := Checkout(orders, carts, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody()))
	req = req.WithContext(middleware.WithCartToken(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", resp.Code, resp.Body.String())
	}
	if orders.lastIn == nil {
		t.Fatal("order service was not invoked")
	}
	if orders.lastIn.UserID != nil {
		t.Fatalf("guest checkout must not carry a user id")
	}
	if len(orders.lastIn.Lines) != 1 || orders.lastIn.Lines[0].MenuItemID != itemID {
		t.Fatalf("unexpected order lines %v", orders.lastIn.Lines)
	}
	if orders.lastIn.ContactEmail != "buyer@example.com" {
		t.Fatalf("unexpected contact email %q", orders.lastIn.ContactEmail)
	}

	var envelope struct {
		Data ordersvc.OrderDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OrderNumber == "" {
		t.Fatal("expected an order number in the response")
	}
}

func TestCheckoutAttachesAuthenticatedUser(t *testing.T) {
	userID := uuid.New()
	orders := &stubOrderService{}
	carts := &stubCartService{snapshot: pricedSnapshot(uuid.New())}
	handler := Checkout(orders, carts, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody()))
	ctx := middleware.WithCartToken(req.Context(), uuid.NewString())
	ctx = middleware.WithUserID(ctx, userID.String())
	req = req.WithContext(ctx)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if orders.lastIn == nil || orders.lastIn.UserID == nil || *orders.lastIn.UserID != userID {
		t.Fatalf("expected order attributed to user %s", userID)
	}
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	orders := &stubOrderService{
		createFn: func(ctx context.Context, input ordersvc.CreateOrderInput) (*ordersvc.OrderDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		},
	}
	carts := &stubCartService{snapshot: &cartsvc.SnapshotDTO{Lines: []cartsvc.LineDTO{}, Total: decimal.Zero}}
	handler := Checkout(orders, carts, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody()))
	req = req.WithContext(middleware.WithCartToken(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutFailurePreservesCart(t *testing.T) {
	orders := &stubOrderService{
		createFn: func(ctx context.Context, input ordersvc.CreateOrderInput) (*ordersvc.OrderDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "order creation failed")
		},
	}
	carts := &stubCartService{snapshot: pricedSnapshot(uuid.New())}
	handler := Checkout(orders, carts, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody()))
	req = req.WithContext(middleware.WithCartToken(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	if carts.clearCalls != 0 {
		t.Fatalf("cart must survive a failed checkout, clear called %d times", carts.clearCalls)
	}
}

func TestCheckoutMissingCartToken(t *testing.T) {
	handler := Checkout(&stubOrderService{}, &stubCartService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}

func TestCheckoutInvalidBody(t *testing.T) {
	handler := Checkout(&stubOrderService{}, &stubCartService{snapshot: pricedSnapshot(uuid.New())}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"contact_email":"not-an-email"}`))
	req = req.WithContext(middleware.WithCartToken(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
