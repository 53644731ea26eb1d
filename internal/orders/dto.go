package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pizzapalace/backend/pkg/db/models"
	"github.com/pizzapalace/backend/pkg/enums"
)

// OrderDTO is the API representation of an order with its lines and payment.
type OrderDTO struct {
	ID              uuid.UUID          `json:"id"`
	OrderNumber     string             `json:"order_number"`
	Status          enums.OrderStatus  `json:"status"`
	ContactEmail    string             `json:"contact_email"`
	ContactPhone    string             `json:"contact_phone"`
	DeliveryAddress string             `json:"delivery_address"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	Items           []OrderItemDTO     `json:"items"`
	Payment         *PaymentSummaryDTO `json:"payment,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// OrderItemDTO is one order line with its price snapshot.
type OrderItemDTO struct {
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
}

// PaymentSummaryDTO surfaces payment state on order reads.
type PaymentSummaryDTO struct {
	Status enums.PaymentStatus `json:"status"`
	Amount decimal.Decimal     `json:"amount"`
}

// ToOrderDTO converts the persisted order graph into its API shape.
func ToOrderDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
		ContactEmail:    order.ContactEmail,
		ContactPhone:    order.ContactPhone,
		DeliveryAddress: order.DeliveryAddress,
		TotalAmount:     order.TotalAmount,
		Items:           make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
	}
	for i := range order.Items {
		item := &order.Items[i]
		dto.Items = append(dto.Items, OrderItemDTO{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			LineTotal:  item.LineTotal(),
		})
	}
	if order.Payment != nil {
		dto.Payment = &PaymentSummaryDTO{
			Status: order.Payment.Status,
			Amount: order.Payment.Amount,
		}
	}
	return dto
}
