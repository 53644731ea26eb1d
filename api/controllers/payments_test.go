package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pizzapalace/backend/api/middleware"
	ordersvc "github.com/pizzapalace/backend/internal/orders"
	paymentsvc "github.com/pizzapalace/backend/internal/payments"
	"github.com/pizzapalace/backend/pkg/db/models"
	"github.com/pizzapalace/backend/pkg/enums"
	pkgerrors "github.com/pizzapalace/backend/pkg/errors"
)

type stubPaymentService struct {
	beginFn   func(ctx context.Context, orderNumber string) (*paymentsvc.BeginPaymentResult, error)
	confirmFn func(ctx context.Context, orderNumber string) (*ordersvc.OrderDTO, error)
}

func (s *stubPaymentService) BeginPayment(ctx context.Context, orderNumber string) (*paymentsvc.BeginPaymentResult, error) {
	if s.beginFn != nil {
		return s.beginFn(ctx, orderNumber)
	}
	return &paymentsvc.BeginPaymentResult{
		OrderNumber: orderNumber,
		SessionID:   "cs_test_123",
		RedirectURL: "https://checkout.stripe.com/c/pay/cs_test_123",
	}, nil
}

func (s *stubPaymentService) ConfirmBySuccessRedirect(ctx context.Context, orderNumber string) (*ordersvc.OrderDTO, error) {
	if s.confirmFn != nil {
		return s.confirmFn(ctx, orderNumber)
	}
	return &ordersvc.OrderDTO{OrderNumber: orderNumber, Status: enums.OrderStatusConfirmed}, nil
}

func (s *stubPaymentService) CompletePayment(ctx context.Context, paymentID, orderID uuid.UUID) (paymentsvc.CompletionOutcome, error) {
	return paymentsvc.CompletionApplied, nil
}

func (s *stubPaymentService) FailPayment(ctx context.Context, paymentID uuid.UUID) (bool, error) {
	return false, nil
}

func (s *stubPaymentService) FindBySessionRef(ctx context.Context, sessionRef string) (*models.Payment, error) {
	return nil, nil
}

func payRequest(t *testing.T, orderNumber string) *http.Request {
	t.Helper()
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderNumber", orderNumber)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderNumber+"/pay", nil)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestBeginPaymentReturnsRedirect(t *testing.T) {
	orderNumber := uuid.NewString()
	handler := BeginPayment(&stubPaymentService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, payRequest(t, orderNumber))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data paymentsvc.BeginPaymentResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.RedirectURL == "" || envelope.Data.OrderNumber != orderNumber {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestBeginPaymentInvalidOrderNumber(t *testing.T) {
	handler := BeginPayment(&stubPaymentService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, payRequest(t, "not-a-uuid"))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestBeginPaymentAlreadyPaid(t *testing.T) {
	handler := BeginPayment(&stubPaymentService{
		beginFn: func(ctx context.Context, orderNumber string) (*paymentsvc.BeginPaymentResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already paid")
		},
	}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, payRequest(t, uuid.NewString()))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestPaymentSuccessConfirmsAndClearsCart(t *testing.T) {
	orderNumber := uuid.NewString()
	carts := &stubCartService{}
	handler := PaymentSuccess(&stubPaymentService{}, carts, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/success?order="+orderNumber, nil)
	req = req.WithContext(middleware.WithCartToken(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}
	if carts.clearCalls != 1 {
		t.Fatalf("expected cart cleared once, got %d", carts.clearCalls)
	}

	var envelope struct {
		Data ordersvc.OrderDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmed order, got %s", envelope.Data.Status)
	}
}

func TestPaymentSuccessVerificationFailureKeepsCart(t *testing.T) {
	carts := &stubCartService{}
	handler := PaymentSuccess(&stubPaymentService{
		confirmFn: func(ctx context.Context, orderNumber string) (*ordersvc.OrderDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment could not be verified")
		},
	}, carts, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/success?order="+uuid.NewString(), nil)
	req = req.WithContext(middleware.WithCartToken(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if carts.clearCalls != 0 {
		t.Fatalf("cart must survive a failed confirmation, clear called %d times", carts.clearCalls)
	}
}

func TestPaymentSuccessMissingOrderParam(t *testing.T) {
	handler := PaymentSuccess(&stubPaymentService{}, &stubCartService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/success", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
