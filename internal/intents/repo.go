package intents

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dice-gateway/bape/pkg/db/models"
	"github.com/dice-gateway/bape/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an intents repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, intent *models.PaymentIntent) (*models.PaymentIntent, error) {
	if err := r.db.WithContext(ctx).Create(intent).Error; err != nil {
		return nil, err
	}
	return intent, nil
}

func (r *repository) List(ctx context.Context) ([]models.PaymentIntent, error) {
	var out []models.PaymentIntent
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&intent).Error
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

// UpdateStatus moves a pending intent to the requested status. The WHERE guard
// keeps the write idempotent: replaying the same terminal transition matches no
// rows and reports success, while a conflicting transition returns
// gorm.ErrRecordNotFound rewrapped by the service layer.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.IntentStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("id = ? AND status = ?", id, enums.IntentStatusPending).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Either the intent is gone or it already left pending. Re-read to
		// distinguish a replay from a genuine conflict.
		current, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == status {
			return nil
		}
		return ErrStatusConflict
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.PaymentIntent{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
