package controllers

import (
	"net/http"

	"github.com/pizzapalace/backend/api/middleware"
	"github.com/pizzapalace/backend/api/responses"
	"github.com/pizzapalace/backend/api/validators"
	cartsvc "github.com/pizzapalace/backend/internal/cart"
	ordersvc "github.com/pizzapalace/backend/internal/orders"
	pkgerrors "github.com/pizzapalace/backend/pkg/errors"
	"github.com/pizzapalace/backend/pkg/logger"
)

type checkoutRequest struct {
	ContactEmail    string `json:"contact_email" validate:"required,email"`
	ContactPhone    string `json:"contact_phone" validate:"required"`
	DeliveryAddress string `json:"delivery_address" validate:"required"`
}

// Checkout converts the caller's cart into a pending order. The cart is
// left untouched on any failure and survives until payment confirms.
func Checkout(orders ordersvc.Service, carts cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if orders == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		if carts == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		token, ok := middleware.CartTokenFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart token missing"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := carts.Snapshot(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := ordersvc.CreateOrderInput{
			ContactEmail:    payload.ContactEmail,
			ContactPhone:    payload.ContactPhone,
			DeliveryAddress: payload.DeliveryAddress,
			Lines:           make([]ordersvc.OrderLineInput, 0, len(snapshot.Lines)),
		}
		if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
			input.UserID = &userID
		}
		for _, line := range snapshot.Lines {
			input.Lines = append(input.Lines, ordersvc.OrderLineInput{
				MenuItemID: line.MenuItemID,
				Name:       line.Name,
				Quantity:   line.Quantity,
				UnitPrice:  line.UnitPrice,
			})
		}

		order, err := orders.CreateOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
