package repositories

import (
	"context"
	"time"

	"openshelf/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// loanIntentRepository handles the durable intent log written ahead of
// inventory decrements
type loanIntentRepository struct {
	db *gorm.DB
}

// NewLoanIntentRepository creates a new loan intent repository
func NewLoanIntentRepository(db *gorm.DB) LoanIntentRepository {
	return &loanIntentRepository{db: db}
}

// Create inserts a new PENDING intent
func (r *loanIntentRepository) Create(ctx context.Context, intent *models.LoanIntent) error {
	intent.Status = models.IntentStatusPending
	return r.db.WithContext(ctx).Create(intent).Error
}

// MarkCompleted flags an intent whose loan row was written successfully
func (r *loanIntentRepository) MarkCompleted(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, models.IntentStatusCompleted)
}

// MarkReconciled flags an intent whose orphaned decrement has been restored
func (r *loanIntentRepository) MarkReconciled(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, models.IntentStatusReconciled)
}

func (r *loanIntentRepository) setStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&models.LoanIntent{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ListExpiredPending returns PENDING intents created before olderThan —
// these mark inventory decrements with no matching ledger row.
func (r *loanIntentRepository) ListExpiredPending(ctx context.Context, olderThan time.Time) ([]models.LoanIntent, error) {
	var intents []models.LoanIntent
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.IntentStatusPending, olderThan).
		Order("created_at ASC").
		Find(&intents).Error
	return intents, err
}
