package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/pizzapalace/backend/internal/payments"
	"github.com/pizzapalace/backend/pkg/db/models"
	"github.com/pizzapalace/backend/pkg/enums"
	pkgerrors "github.com/pizzapalace/backend/pkg/errors"
)

type stubCoordinator struct {
	payments    map[string]*models.Payment
	completions int
	failures    int
}

func newStubCoordinator() *stubCoordinator {
	return &stubCoordinator{payments: map[string]*models.Payment{}}
}

func (s *stubCoordinator) addPayment(status enums.PaymentStatus) *models.Payment {
	payment := &models.Payment{
		ID:                 uuid.New(),
		OrderID:            uuid.New(),
		ProviderSessionRef: "cs_test_" + uuid.NewString(),
		Status:             status,
	}
	s.payments[payment.ProviderSessionRef] = payment
	return payment
}

func (s *stubCoordinator) CompletePayment(_ context.Context, paymentID, _ uuid.UUID) (payments.CompletionOutcome, error) {
	for _, payment := range s.payments {
		if payment.ID != paymentID {
			continue
		}
		switch payment.Status {
		case enums.PaymentStatusPending:
			payment.Status = enums.PaymentStatusCompleted
			s.completions++
			return payments.CompletionApplied, nil
		case enums.PaymentStatusCompleted:
			return payments.CompletionAlreadyDone, nil
		default:
			return payments.CompletionNotCompletable, nil
		}
	}
	return payments.CompletionNotCompletable, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
}

func (s *stubCoordinator) FailPayment(_ context.Context, paymentID uuid.UUID) (bool, error) {
	for _, payment := range s.payments {
		if payment.ID == paymentID && payment.Status == enums.PaymentStatusPending {
			payment.Status = enums.PaymentStatusFailed
			s.failures++
			return true, nil
		}
	}
	return false, nil
}

func (s *stubCoordinator) FindBySessionRef(_ context.Context, sessionRef string) (*models.Payment, error) {
	payment, ok := s.payments[sessionRef]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found for session")
	}
	return payment, nil
}

func sessionEvent(t *testing.T, eventType stripe.EventType, sessionID string) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"id": sessionID})
	require.NoError(t, err)
	return &stripe.Event{
		ID:   "evt_" + uuid.NewString(),
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func newWebhookFixture(t *testing.T) (*Service, *stubCoordinator) {
	t.Helper()
	coordinator := newStubCoordinator()
	svc, err := NewService(coordinator)
	require.NoError(t, err)
	return svc, coordinator
}

func TestHandleEventCompletesPendingPayment(t *testing.T) {
	svc, coordinator := newWebhookFixture(t)
	payment := coordinator.addPayment(enums.PaymentStatusPending)

	outcome, err := svc.HandleEvent(context.Background(),
		sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, payment.ProviderSessionRef))
	require.NoError(t, err)

	assert.Equal(t, OutcomeProcessed, outcome)
	assert.Equal(t, enums.PaymentStatusCompleted, payment.Status)
}

func TestHandleEventReplayIsNoOp(t *testing.T) {
	svc, coordinator := newWebhookFixture(t)
	payment := coordinator.addPayment(enums.PaymentStatusPending)
	event := sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, payment.ProviderSessionRef)

	first, err := svc.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	second, err := svc.HandleEvent(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, OutcomeProcessed, first)
	assert.Equal(t, OutcomeIgnored, second)
	assert.Equal(t, 1, coordinator.completions, "replay must not complete twice")
}

func TestHandleEventExpiredFailsPendingPayment(t *testing.T) {
	svc, coordinator := newWebhookFixture(t)
	payment := coordinator.addPayment(enums.PaymentStatusPending)

	outcome, err := svc.HandleEvent(context.Background(),
		sessionEvent(t, stripe.EventTypeCheckoutSessionExpired, payment.ProviderSessionRef))
	require.NoError(t, err)

	assert.Equal(t, OutcomeProcessed, outcome)
	assert.Equal(t, enums.PaymentStatusFailed, payment.Status)
}

func TestHandleEventExpiredNeverDemotesCompleted(t *testing.T) {
	svc, coordinator := newWebhookFixture(t)
	payment := coordinator.addPayment(enums.PaymentStatusCompleted)

	outcome, err := svc.HandleEvent(context.Background(),
		sessionEvent(t, stripe.EventTypeCheckoutSessionExpired, payment.ProviderSessionRef))
	require.NoError(t, err)

	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Equal(t, enums.PaymentStatusCompleted, payment.Status)
}

func TestHandleEventUnknownSessionIsAcked(t *testing.T) {
	svc, _ := newWebhookFixture(t)

	outcome, err := svc.HandleEvent(context.Background(),
		sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, "cs_test_unknown"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
}

func TestHandleEventUnknownTypeIsAcked(t *testing.T) {
	svc, coordinator := newWebhookFixture(t)
	payment := coordinator.addPayment(enums.PaymentStatusPending)

	outcome, err := svc.HandleEvent(context.Background(),
		sessionEvent(t, stripe.EventType("invoice.paid"), payment.ProviderSessionRef))
	require.NoError(t, err)

	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Equal(t, enums.PaymentStatusPending, payment.Status)
}

func TestHandleEventMissingSessionIDRejected(t *testing.T) {
	svc, _ := newWebhookFixture(t)

	_, err := svc.HandleEvent(context.Background(),
		sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, ""))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

type fakeIdempotencyStore struct {
	keys map[string]struct{}
}

func (f *fakeIdempotencyStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if _, ok := f.keys[key]; ok {
		return false, nil
	}
	f.keys[key] = struct{}{}
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("pp:idempotency:%s:%s", scope, id)
}

func (f *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func TestIdempotencyGuardMarksFirstDelivery(t *testing.T) {
	store := &fakeIdempotencyStore{keys: map[string]struct{}{}}
	guard, err := NewIdempotencyGuard(store, time.Hour, "stripe")
	require.NoError(t, err)

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestIdempotencyGuardDeleteAllowsRetry(t *testing.T) {
	store := &fakeIdempotencyStore{keys: map[string]struct{}{}}
	guard, err := NewIdempotencyGuard(store, time.Hour, "stripe")
	require.NoError(t, err)

	_, err = guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	require.NoError(t, guard.Delete(context.Background(), "evt_1"))

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.False(t, seen, "deleted mark must allow the provider retry")
}
