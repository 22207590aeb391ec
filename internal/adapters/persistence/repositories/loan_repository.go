package repositories

import (
	"context"
	"errors"
	"time"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/core/domain"

	"gorm.io/gorm"
)

// loanRepository handles loan ledger database operations
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// Insert creates a new loan record
func (r *loanRepository) Insert(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// GetByID returns a loan by ID
func (r *loanRepository) GetByID(ctx context.Context, id string) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).First(&loan, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrLoanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// ListByUser returns all loans (active and past) for a user
func (r *loanRepository) ListByUser(ctx context.Context, userID string) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("issue_date DESC").
		Find(&loans).Error
	return loans, err
}

// ListByStatus returns all loans with the given status; an empty status
// returns every loan.
func (r *loanRepository) ListByStatus(ctx context.Context, status string) ([]models.Loan, error) {
	var loans []models.Loan
	q := r.db.WithContext(ctx).Model(&models.Loan{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("issue_date DESC").Find(&loans).Error
	return loans, err
}

// ListOverdue returns ACTIVE loans whose due date is strictly before now
func (r *loanRepository) ListOverdue(ctx context.Context, now time.Time) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", models.LoanStatusActive, now).
		Order("due_date ASC").
		Find(&loans).Error
	return loans, err
}

// MarkReturned flips an ACTIVE loan to RETURNED and stamps the return date.
// The status guard serializes concurrent returns on the same loan: the loser
// of the race affects zero rows and gets ErrLoanAlreadyReturned.
func (r *loanRepository) MarkReturned(ctx context.Context, id string, returnedAt time.Time) (*models.Loan, error) {
	result := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("id = ? AND status = ?", id, models.LoanStatusActive).
		Updates(map[string]interface{}{
			"status":      models.LoanStatusReturned,
			"return_date": returnedAt,
		})
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrLoanAlreadyReturned
	}

	return r.GetByID(ctx, id)
}

// ExtendDueDate pushes the due date forward, guarded by the observed
// extensions count so a racing extension cannot bypass the cap.
func (r *loanRepository) ExtendDueDate(ctx context.Context, id string, newDueDate time.Time, priorExtensions int) (*models.Loan, error) {
	result := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("id = ? AND status = ? AND extensions_count = ?", id, models.LoanStatusActive, priorExtensions).
		Updates(map[string]interface{}{
			"due_date":         newDueDate,
			"extensions_count": priorExtensions + 1,
		})
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		// Re-read to classify what the race winner did.
		loan, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if loan.Status != models.LoanStatusActive {
			return nil, domain.ErrOnlyActiveCanExtend
		}
		if loan.ExtensionsCount >= models.MaxExtensions {
			return nil, domain.ErrExtensionLimitReached
		}
		return nil, domain.ErrInternalServer
	}

	return r.GetByID(ctx, id)
}

// CountByStatus returns the number of loans with the given status
func (r *loanRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

// CountOverdue returns the number of ACTIVE loans past due
func (r *loanRepository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("status = ? AND due_date < ?", models.LoanStatusActive, now).
		Count(&count).Error
	return count, err
}

// CountIssuedSince returns the number of loans issued at or after since
func (r *loanRepository) CountIssuedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("issue_date >= ?", since).
		Count(&count).Error
	return count, err
}

// CountReturnedSince returns the number of loans returned at or after since
func (r *loanRepository) CountReturnedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("return_date >= ?", since).
		Count(&count).Error
	return count, err
}

// BorrowCountsByBook returns book ids ranked by total loan count
func (r *loanRepository) BorrowCountsByBook(ctx context.Context, limit int) ([]BorrowCount, error) {
	return r.borrowCounts(ctx, "book_id", limit)
}

// BorrowCountsByUser returns user ids ranked by total loan count
func (r *loanRepository) BorrowCountsByUser(ctx context.Context, limit int) ([]BorrowCount, error) {
	return r.borrowCounts(ctx, "user_id", limit)
}

func (r *loanRepository) borrowCounts(ctx context.Context, column string, limit int) ([]BorrowCount, error) {
	type row struct {
		ID    string
		Count int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Select(column + " AS id, COUNT(*) AS count").
		Group(column).
		Order("count DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make([]BorrowCount, len(rows))
	for i, r := range rows {
		counts[i] = BorrowCount{ID: r.ID, Count: r.Count}
	}
	return counts, nil
}
