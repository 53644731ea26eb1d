package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pizzapalace/backend/internal/orders"
	"github.com/pizzapalace/backend/pkg/db/models"
	"github.com/pizzapalace/backend/pkg/enums"
	pkgerrors "github.com/pizzapalace/backend/pkg/errors"
	pkgstripe "github.com/pizzapalace/backend/pkg/stripe"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type checkoutSessionCreator interface {
	CreateCheckoutSession(ctx context.Context, params pkgstripe.CheckoutSessionParams) (*pkgstripe.CheckoutSession, error)
}

// Service coordinates payment rows against the processor and the order ledger.
type Service interface {
	BeginPayment(ctx context.Context, orderNumber string) (*BeginPaymentResult, error)
	ConfirmBySuccessRedirect(ctx context.Context, orderNumber string) (*orders.OrderDTO, error)
	CompletePayment(ctx context.Context, paymentID, orderID uuid.UUID) (CompletionOutcome, error)
	FailPayment(ctx context.Context, paymentID uuid.UUID) (bool, error)
	FindBySessionRef(ctx context.Context, sessionRef string) (*models.Payment, error)
}

// BeginPaymentResult carries the redirect the storefront sends the buyer to.
type BeginPaymentResult struct {
	OrderNumber string `json:"order_number"`
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// CompletionOutcome reports what a completion attempt did.
type CompletionOutcome string

const (
	// CompletionApplied means this call moved the payment to completed.
	CompletionApplied CompletionOutcome = "applied"
	// CompletionAlreadyDone means a previous call or the other confirmation
	// channel completed it first.
	CompletionAlreadyDone CompletionOutcome = "already_done"
	// CompletionNotCompletable means the payment is in a state that cannot
	// complete (failed or refunded).
	CompletionNotCompletable CompletionOutcome = "not_completable"
)

type service struct {
	repo      Repository
	orderRepo orders.Repository
	tx        txRunner
	stripe    checkoutSessionCreator
	baseURL   string
	currency  string
}

// NewService builds the payment coordinator.
func NewService(repo Repository, orderRepo orders.Repository, tx txRunner, stripeClient checkoutSessionCreator, baseURL, currency string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stripeClient == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("base url required")
	}
	return &service{
		repo:      repo,
		orderRepo: orderRepo,
		tx:        tx,
		stripe:    stripeClient,
		baseURL:   baseURL,
		currency:  currency,
	}, nil
}

// BeginPayment creates a checkout session for the order and records the
// pending payment before the redirect URL is handed out. An order keeps a
// single payment row across retries.
func (s *service) BeginPayment(ctx context.Context, orderNumber string) (*BeginPaymentResult, error) {
	order, err := s.loadOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order.Payment != nil && order.Payment.Status == enums.PaymentStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is already paid")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
	}

	// Round to the nearest cent; sub-cent totals must never be truncated.
	amountCents := order.TotalAmount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
	}

	session, err := s.stripe.CreateCheckoutSession(ctx, pkgstripe.CheckoutSessionParams{
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		AmountCents: amountCents,
		Currency:    s.currency,
		SuccessURL:  fmt.Sprintf("%s/api/v1/payments/success?order=%s", s.baseURL, order.OrderNumber),
		CancelURL:   fmt.Sprintf("%s/api/v1/orders/%s", s.baseURL, order.OrderNumber),
	})
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, findErr := repo.FindByOrderID(ctx, order.ID)
		if findErr != nil {
			if !errors.Is(findErr, gorm.ErrRecordNotFound) {
				return findErr
			}
			_, createErr := repo.Create(ctx, &models.Payment{
				ID:                 uuid.New(),
				OrderID:            order.ID,
				ProviderSessionRef: session.ID,
				Amount:             order.TotalAmount,
				Status:             enums.PaymentStatusPending,
			})
			return createErr
		}
		retried, retryErr := repo.PrepareRetry(ctx, existing.ID, session.ID, order.TotalAmount)
		if retryErr != nil {
			return retryErr
		}
		if !retried {
			return pkgerrors.New(pkgerrors.CodeConflict, "order is already paid")
		}
		return nil
	})
	if err != nil {
		if pkgerrors.CodeOf(err) == pkgerrors.CodeConflict {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record payment")
	}

	return &BeginPaymentResult{
		OrderNumber: order.OrderNumber,
		SessionID:   session.ID,
		RedirectURL: session.URL,
	}, nil
}

// ConfirmBySuccessRedirect handles the buyer landing back on the success URL.
// It only completes a payment that is already pending; the webhook remains
// the authoritative confirmation channel.
func (s *service) ConfirmBySuccessRedirect(ctx context.Context, orderNumber string) (*orders.OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order.Payment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment could not be verified")
	}

	outcome, err := s.CompletePayment(ctx, order.Payment.ID, order.ID)
	if err != nil {
		return nil, err
	}
	if outcome == CompletionNotCompletable {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment could not be verified")
	}

	return s.reloadDTO(ctx, orderNumber)
}

// CompletePayment moves payment and order to their paid states in one
// transaction. Both conditional updates are no-ops when another caller got
// there first, which makes the two confirmation channels order-independent.
func (s *service) CompletePayment(ctx context.Context, paymentID, orderID uuid.UUID) (CompletionOutcome, error) {
	outcome := CompletionAlreadyDone
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		applied, err := repo.UpdateStatusIf(ctx, paymentID, enums.PaymentStatusPending, enums.PaymentStatusCompleted)
		if err != nil {
			return err
		}
		if !applied {
			current, findErr := repo.FindByOrderID(ctx, orderID)
			if findErr != nil {
				return findErr
			}
			if current.Status != enums.PaymentStatusCompleted {
				outcome = CompletionNotCompletable
			}
			return nil
		}
		outcome = CompletionApplied
		// Confirm the order alongside the payment. A miss here means an
		// admin already advanced the order past pending, which is fine.
		if _, err := s.orderRepo.WithTx(tx).UpdateStatusIf(ctx, orderID, enums.OrderStatusPending, enums.OrderStatusConfirmed); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return CompletionNotCompletable, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to complete payment")
	}
	return outcome, nil
}

// FailPayment marks a pending payment as failed. Completed payments are
// never demoted.
func (s *service) FailPayment(ctx context.Context, paymentID uuid.UUID) (bool, error) {
	applied, err := s.repo.UpdateStatusIf(ctx, paymentID, enums.PaymentStatusPending, enums.PaymentStatusFailed)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to mark payment failed")
	}
	return applied, nil
}

// FindBySessionRef resolves the payment that owns a provider session.
func (s *service) FindBySessionRef(ctx context.Context, sessionRef string) (*models.Payment, error) {
	payment, err := s.repo.FindBySessionRef(ctx, sessionRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found for session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load payment")
	}
	return payment, nil
}

func (s *service) loadOrder(ctx context.Context, orderNumber string) (*models.Order, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}
	return order, nil
}

func (s *service) reloadDTO(ctx context.Context, orderNumber string) (*orders.OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	return orders.ToOrderDTO(order), nil
}
