package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pizzapalace/backend/pkg/db/models"
	"github.com/pizzapalace/backend/pkg/enums"
)

// Repository defines persistence operations for payment rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	FindBySessionRef(ctx context.Context, sessionRef string) (*models.Payment, error)
	UpdateStatusIf(ctx context.Context, paymentID uuid.UUID, from, to enums.PaymentStatus) (bool, error)
	PrepareRetry(ctx context.Context, paymentID uuid.UUID, sessionRef string, amount decimal.Decimal) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindBySessionRef(ctx context.Context, sessionRef string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "provider_session_ref = ?", sessionRef).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdateStatusIf applies the status change only when the row still holds the
// expected current status.
func (r *repository) UpdateStatusIf(ctx context.Context, paymentID uuid.UUID, from, to enums.PaymentStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// PrepareRetry points an existing non-completed payment at a fresh checkout
// session and resets it to pending. Returns false when the payment has
// already completed, so no retry may overwrite it.
func (r *repository) PrepareRetry(ctx context.Context, paymentID uuid.UUID, sessionRef string, amount decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status <> ?", paymentID, enums.PaymentStatusCompleted).
		Updates(map[string]any{
			"provider_session_ref": sessionRef,
			"amount":               amount,
			"status":               enums.PaymentStatusPending,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
