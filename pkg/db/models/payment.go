package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pizzapalace/backend/pkg/enums"
)

// Payment tracks the processor checkout session for an order. Exactly one
// row exists per order; Amount equals the order total at creation time.
type Payment struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID            uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	ProviderSessionRef string              `gorm:"column:provider_session_ref;not null;default:''"`
	Amount             decimal.Decimal     `gorm:"column:amount;type:numeric(8,2);not null"`
	Status             enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
