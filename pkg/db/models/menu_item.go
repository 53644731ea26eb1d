package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/pizzapalace/backend/pkg/enums"
)

// MenuItem is a sellable entry on the storefront menu.
type MenuItem struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string             `gorm:"column:name;not null"`
	Description string             `gorm:"column:description;not null;default:''"`
	Price       decimal.Decimal    `gorm:"column:price;type:numeric(6,2);not null"`
	Category    enums.MenuCategory `gorm:"column:category;type:text;not null;default:'pizza'"`
	Tags        pq.StringArray     `gorm:"column:tags;type:text[]"`
	IsAvailable bool               `gorm:"column:is_available;not null;default:true"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
