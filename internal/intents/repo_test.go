package intents

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dice-gateway/bape/pkg/db/models"
	"github.com/dice-gateway/bape/pkg/enums"
)

func setupIntentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Named shared-cache DB so every pooled connection sees the same schema.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS payment_intents (
  id TEXT PRIMARY KEY,
  amount TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT 'Pagamento PIX',
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedIntent(t *testing.T, db *gorm.DB, status enums.IntentStatus) *models.PaymentIntent {
	t.Helper()
	intent := &models.PaymentIntent{
		ID:          uuid.New(),
		Amount:      decimal.RequireFromString("25.00"),
		Description: "Pagamento PIX",
		Status:      status,
	}
	require.NoError(t, db.Create(intent).Error)
	return intent
}

func TestRepositoryCreateAndFind(t *testing.T) {
	db := setupIntentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.PaymentIntent{
		ID:          uuid.New(),
		Amount:      decimal.RequireFromString("49.90"),
		Description: "Assinatura mensal",
		Status:      enums.IntentStatusPending,
	})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, found.Amount.Equal(decimal.RequireFromString("49.90")))
	assert.Equal(t, "Assinatura mensal", found.Description)
	assert.Equal(t, enums.IntentStatusPending, found.Status)
}

func TestRepositoryFindMissing(t *testing.T) {
	db := setupIntentsTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListNewestFirst(t *testing.T) {
	db := setupIntentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := seedIntent(t, db, enums.IntentStatusPending)
	require.NoError(t, db.Exec(
		`UPDATE payment_intents SET created_at = datetime('now', '-1 hour') WHERE id = ?`,
		first.ID).Error)
	second := seedIntent(t, db, enums.IntentStatusPending)

	out, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, second.ID, out[0].ID)
	assert.Equal(t, first.ID, out[1].ID)
}

func TestRepositoryUpdateStatusTransitions(t *testing.T) {
	db := setupIntentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	intent := seedIntent(t, db, enums.IntentStatusPending)

	require.NoError(t, repo.UpdateStatus(ctx, intent.ID, enums.IntentStatusCompleted))

	found, err := repo.FindByID(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.IntentStatusCompleted, found.Status)

	// Replaying the same terminal write is a no-op.
	require.NoError(t, repo.UpdateStatus(ctx, intent.ID, enums.IntentStatusCompleted))

	// A conflicting terminal write is rejected.
	err = repo.UpdateStatus(ctx, intent.ID, enums.IntentStatusExpired)
	assert.ErrorIs(t, err, ErrStatusConflict)
}

func TestRepositoryUpdateStatusMissing(t *testing.T) {
	db := setupIntentsTestDB(t)
	repo := NewRepository(db)

	err := repo.UpdateStatus(context.Background(), uuid.New(), enums.IntentStatusCompleted)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryDelete(t *testing.T) {
	db := setupIntentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	intent := seedIntent(t, db, enums.IntentStatusPending)
	require.NoError(t, repo.Delete(ctx, intent.ID))

	_, err := repo.FindByID(ctx, intent.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, intent.ID), gorm.ErrRecordNotFound)
}
