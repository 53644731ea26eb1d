package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pizzapalace/backend/api/middleware"
	"github.com/pizzapalace/backend/api/responses"
	cartsvc "github.com/pizzapalace/backend/internal/cart"
	paymentsvc "github.com/pizzapalace/backend/internal/payments"
	pkgerrors "github.com/pizzapalace/backend/pkg/errors"
	"github.com/pizzapalace/backend/pkg/logger"
)

// BeginPayment creates (or reuses) the Stripe checkout session for a
// pending order and returns the redirect URL.
func BeginPayment(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		orderNumber := strings.TrimSpace(chi.URLParam(r, "orderNumber"))
		if _, err := uuid.Parse(orderNumber); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order number"))
			return
		}

		result, err := svc.BeginPayment(r.Context(), orderNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// PaymentSuccess is the buyer-facing return URL after Stripe checkout.
// It confirms the order when the payment is completable and clears the
// caller's cart once the order is confirmed.
func PaymentSuccess(svc paymentsvc.Service, carts cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		orderNumber := strings.TrimSpace(r.URL.Query().Get("order"))
		if _, err := uuid.Parse(orderNumber); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order number"))
			return
		}

		order, err := svc.ConfirmBySuccessRedirect(r.Context(), orderNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// The cart served its purpose once the order is paid. A failed
		// clear does not undo the confirmation.
		if carts != nil {
			if token, ok := middleware.CartTokenFromContext(r.Context()); ok {
				if clearErr := carts.Clear(r.Context(), token); clearErr != nil {
					logg.Warn(r.Context(), "clearing cart after payment failed")
				}
			}
		}

		responses.WriteSuccess(w, order)
	}
}
