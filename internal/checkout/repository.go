package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dice-gateway/bape/pkg/db/models"
	"github.com/dice-gateway/bape/pkg/enums"
)

// ErrChargeSettled reports a terminal write that conflicts with the status the
// charge already settled to.
var ErrChargeSettled = errors.New("charge already settled")

type chargeRepository struct {
	db *gorm.DB
}

// NewChargeRepository builds a provider charge repository bound to the provided DB.
func NewChargeRepository(db *gorm.DB) ChargeRepository {
	return &chargeRepository{db: db}
}

func (r *chargeRepository) WithTx(tx *gorm.DB) ChargeRepository {
	if tx == nil {
		return r
	}
	return &chargeRepository{db: tx}
}

func (r *chargeRepository) Create(ctx context.Context, charge *models.ProviderCharge) (*models.ProviderCharge, error) {
	if err := r.db.WithContext(ctx).Create(charge).Error; err != nil {
		return nil, err
	}
	return charge, nil
}

func (r *chargeRepository) FindActiveByIntent(ctx context.Context, intentID uuid.UUID) (*models.ProviderCharge, error) {
	var charge models.ProviderCharge
	err := r.db.WithContext(ctx).
		Where("intent_id = ? AND status = ?", intentID, enums.ChargeStatusPending).
		First(&charge).Error
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

func (r *chargeRepository) FindLatestByIntent(ctx context.Context, intentID uuid.UUID) (*models.ProviderCharge, error) {
	var charge models.ProviderCharge
	err := r.db.WithContext(ctx).
		Where("intent_id = ?", intentID).
		Order("created_at DESC").
		First(&charge).Error
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

func (r *chargeRepository) FindStalePending(ctx context.Context, polledBefore time.Time, limit int) ([]models.ProviderCharge, error) {
	var charges []models.ProviderCharge
	q := r.db.WithContext(ctx).
		Where("status = ?", enums.ChargeStatusPending).
		Where("last_polled_at IS NULL OR last_polled_at < ?", polledBefore).
		Order("last_polled_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&charges).Error; err != nil {
		return nil, err
	}
	return charges, nil
}

func (r *chargeRepository) RecordPoll(ctx context.Context, chargeID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.ProviderCharge{}).
		Where("id = ?", chargeID).
		Updates(map[string]any{
			"poll_attempts":  gorm.Expr("poll_attempts + 1"),
			"last_polled_at": at,
		}).Error
}

func (r *chargeRepository) SetFailureReason(ctx context.Context, chargeID uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.ProviderCharge{}).
		Where("id = ?", chargeID).
		Update("failure_reason", reason).Error
}

// MarkTerminal settles a pending charge. The WHERE guard makes the write
// idempotent: a charge already settled to the same status matches no rows and
// is treated as success.
func (r *chargeRepository) MarkTerminal(ctx context.Context, chargeID uuid.UUID, status enums.ChargeStatus, reason *string) error {
	updates := map[string]any{"status": status}
	if reason != nil {
		updates["failure_reason"] = *reason
	}
	res := r.db.WithContext(ctx).
		Model(&models.ProviderCharge{}).
		Where("id = ? AND status = ?", chargeID, enums.ChargeStatusPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var current models.ProviderCharge
		if err := r.db.WithContext(ctx).Where("id = ?", chargeID).First(&current).Error; err != nil {
			return err
		}
		if current.Status == status {
			return nil
		}
		return ErrChargeSettled
	}
	return nil
}
