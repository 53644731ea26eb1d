package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/pizzapalace/backend/internal/payments"
	"github.com/pizzapalace/backend/pkg/db/models"
	pkgerrors "github.com/pizzapalace/backend/pkg/errors"
)

// Outcome describes what processing an event did to local state.
type Outcome string

const (
	// OutcomeProcessed means the event mutated payment state.
	OutcomeProcessed Outcome = "processed"
	// OutcomeIgnored means the event required no change: unknown type,
	// unknown session, or the state machine had already advanced.
	OutcomeIgnored Outcome = "ignored"
)

type paymentCoordinator interface {
	CompletePayment(ctx context.Context, paymentID, orderID uuid.UUID) (payments.CompletionOutcome, error)
	FailPayment(ctx context.Context, paymentID uuid.UUID) (bool, error)
	FindBySessionRef(ctx context.Context, sessionRef string) (*models.Payment, error)
}

// Service applies verified provider events to the payment state machine.
// Every mutation is a conditional update, so duplicated and reordered
// deliveries converge on the same state.
type Service struct {
	payments paymentCoordinator
}

// NewService builds the webhook event service.
func NewService(coordinator paymentCoordinator) (*Service, error) {
	if coordinator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment coordinator required")
	}
	return &Service{payments: coordinator}, nil
}

// HandleEvent routes a verified event to its handler. Unknown event types
// are acknowledged without processing.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) (Outcome, error) {
	if event == nil || event.Data == nil {
		return OutcomeIgnored, pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return s.handleSessionCompleted(ctx, event)
	case stripe.EventTypeCheckoutSessionExpired,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		return s.handleSessionFailed(ctx, event)
	default:
		return OutcomeIgnored, nil
	}
}

func (s *Service) handleSessionCompleted(ctx context.Context, event *stripe.Event) (Outcome, error) {
	payment, outcome, err := s.resolvePayment(ctx, event)
	if payment == nil {
		return outcome, err
	}

	completion, err := s.payments.CompletePayment(ctx, payment.ID, payment.OrderID)
	if err != nil {
		return OutcomeIgnored, err
	}
	if completion == payments.CompletionApplied {
		return OutcomeProcessed, nil
	}
	return OutcomeIgnored, nil
}

func (s *Service) handleSessionFailed(ctx context.Context, event *stripe.Event) (Outcome, error) {
	payment, outcome, err := s.resolvePayment(ctx, event)
	if payment == nil {
		return outcome, err
	}

	applied, err := s.payments.FailPayment(ctx, payment.ID)
	if err != nil {
		return OutcomeIgnored, err
	}
	if applied {
		return OutcomeProcessed, nil
	}
	return OutcomeIgnored, nil
}

// resolvePayment maps the event's checkout session to our payment row. A
// session this system never issued is acknowledged and skipped.
func (s *Service) resolvePayment(ctx context.Context, event *stripe.Event) (*models.Payment, Outcome, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, OutcomeIgnored, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session event")
	}
	if session.ID == "" {
		return nil, OutcomeIgnored, pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}

	payment, err := s.payments.FindBySessionRef(ctx, session.ID)
	if err != nil {
		var typed *pkgerrors.Error
		if errors.As(err, &typed) && typed.Code() == pkgerrors.CodeNotFound {
			return nil, OutcomeIgnored, nil
		}
		return nil, OutcomeIgnored, err
	}
	return payment, OutcomeIgnored, nil
}
