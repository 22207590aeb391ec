package repositories

import (
	"context"
	"time"

	"openshelf/internal/adapters/persistence/models"
)

// BookRepository defines the book inventory store interface
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id string) (*models.Book, error)
	Search(ctx context.Context, search, genre string) ([]models.Book, error)
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id string) error
	// AdjustAvailability applies delta to available_copies as a single
	// conditional update: the write is rejected when the result would fall
	// outside [0, copies].
	AdjustAvailability(ctx context.Context, id string, delta int) (*models.Book, error)
	Count(ctx context.Context) (int64, error)
	TotalAvailableCopies(ctx context.Context) (int64, error)
}

// UserRepository defines the user directory interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

// BorrowCount pairs an entity id with how many loans reference it.
type BorrowCount struct {
	ID    string
	Count int64
}

// LoanRepository defines the loan ledger interface
type LoanRepository interface {
	Insert(ctx context.Context, loan *models.Loan) error
	GetByID(ctx context.Context, id string) (*models.Loan, error)
	ListByUser(ctx context.Context, userID string) ([]models.Loan, error)
	ListByStatus(ctx context.Context, status string) ([]models.Loan, error)
	ListOverdue(ctx context.Context, now time.Time) ([]models.Loan, error)
	// MarkReturned flips an ACTIVE loan to RETURNED. The update is conditional
	// on the current status so a concurrent double-return loses the race.
	MarkReturned(ctx context.Context, id string, returnedAt time.Time) (*models.Loan, error)
	// ExtendDueDate pushes the due date forward, conditional on the loan still
	// being ACTIVE with the observed extensions count.
	ExtendDueDate(ctx context.Context, id string, newDueDate time.Time, priorExtensions int) (*models.Loan, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	CountOverdue(ctx context.Context, now time.Time) (int64, error)
	CountIssuedSince(ctx context.Context, since time.Time) (int64, error)
	CountReturnedSince(ctx context.Context, since time.Time) (int64, error)
	BorrowCountsByBook(ctx context.Context, limit int) ([]BorrowCount, error)
	BorrowCountsByUser(ctx context.Context, limit int) ([]BorrowCount, error)
}

// LoanIntentRepository defines the durable intent log interface
type LoanIntentRepository interface {
	Create(ctx context.Context, intent *models.LoanIntent) error
	MarkCompleted(ctx context.Context, id string) error
	MarkReconciled(ctx context.Context, id string) error
	ListExpiredPending(ctx context.Context, olderThan time.Time) ([]models.LoanIntent, error)
}
