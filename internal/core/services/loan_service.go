package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/core/domain"
	"openshelf/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

// LoanService is the loan lifecycle coordinator. It is the only component
// that touches more than one store per operation: loan creation and return
// mutate both the book inventory and the loan ledger, sequentially and
// without a distributed transaction. A durable intent record written before
// the inventory decrement lets the reconciliation job find decrements whose
// ledger write never landed.
type LoanService struct {
	directory UserDirectory
	inventory BookInventory
	ledger    repositories.LoanRepository
	intents   repositories.LoanIntentRepository
	log       *logrus.Entry
}

// NewLoanService creates a new loan service
func NewLoanService(
	directory UserDirectory,
	inventory BookInventory,
	ledger repositories.LoanRepository,
	intents repositories.LoanIntentRepository,
	log *logger.Logger,
) *LoanService {
	return &LoanService{
		directory: directory,
		inventory: inventory,
		ledger:    ledger,
		intents:   intents,
		log:       log.Component("loan-service"),
	}
}

// ============================================================
// Create
// ============================================================

// CreateLoanInput represents create loan input
type CreateLoanInput struct {
	UserID  string
	BookID  string
	DueDate time.Time
}

// Create issues a new loan: resolve user and book, check availability,
// decrement the inventory counter, then write the loan row. The inventory
// decrement commits before the ledger insert; if the insert fails the
// PENDING intent is left behind for the reconciler and no compensation
// happens inline.
func (s *LoanService) Create(ctx context.Context, input CreateLoanInput) (*models.Loan, error) {
	now := time.Now().UTC()
	if !input.DueDate.After(now) {
		return nil, domain.ErrDueDateNotFuture
	}

	if _, err := s.directory.GetUser(ctx, input.UserID); err != nil {
		return nil, err
	}

	book, err := s.inventory.GetBook(ctx, input.BookID)
	if err != nil {
		return nil, err
	}
	if book.AvailableCopies <= 0 {
		return nil, domain.ErrNoCopiesAvailable
	}

	// Durable intent before the first mutation.
	intent := &models.LoanIntent{
		UserID:  input.UserID,
		BookID:  input.BookID,
		DueDate: input.DueDate,
	}
	if err := s.intents.Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("failed to record loan intent: %w", err)
	}

	if _, err := s.inventory.AdjustAvailability(ctx, input.BookID, -1); err != nil {
		// Nothing was decremented; the intent is harmless but tidy it up.
		if markErr := s.intents.MarkReconciled(ctx, intent.ID); markErr != nil {
			s.log.WithError(markErr).WithField("intent_id", intent.ID).
				Warn("failed to close intent after rejected decrement")
		}
		return nil, err
	}

	loan := &models.Loan{
		UserID:    input.UserID,
		BookID:    input.BookID,
		IssueDate: now,
		DueDate:   input.DueDate,
		Status:    models.LoanStatusActive,
	}
	if err := s.ledger.Insert(ctx, loan); err != nil {
		// Known consistency gap: the decrement is already committed. The
		// intent stays PENDING so the reconciler can restore the copy.
		s.log.WithError(err).WithFields(logrus.Fields{
			"intent_id": intent.ID,
			"book_id":   input.BookID,
		}).Error("ledger insert failed after inventory decrement, awaiting reconciliation")
		return nil, fmt.Errorf("failed to persist loan: %w", domain.ErrInternalServer)
	}

	if err := s.intents.MarkCompleted(ctx, intent.ID); err != nil {
		s.log.WithError(err).WithField("intent_id", intent.ID).
			Warn("failed to mark intent completed")
	}

	s.log.WithFields(logrus.Fields{
		"loan_id": loan.ID,
		"user_id": loan.UserID,
		"book_id": loan.BookID,
		"due":     loan.DueDate.Format("2006-01-02"),
	}).Info("loan created")

	return loan, nil
}

// ============================================================
// Return
// ============================================================

// Return completes a loan: flip the status, stamp the return date, then
// release the copy back to the inventory. The status flip commits before the
// increment — the reference ordering, with the same crash window.
func (s *LoanService) Return(ctx context.Context, loanID string) (*models.Loan, error) {
	loan, err := s.ledger.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != models.LoanStatusActive {
		return nil, domain.ErrLoanAlreadyReturned
	}

	// The book must still exist: a vanished record is a hard error, not a
	// silently successful return.
	if _, err := s.inventory.GetBook(ctx, loan.BookID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated, err := s.ledger.MarkReturned(ctx, loanID, now)
	if err != nil {
		return nil, err
	}

	if _, err := s.inventory.AdjustAvailability(ctx, loan.BookID, 1); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"loan_id": loanID,
			"book_id": loan.BookID,
		}).Error("failed to release copy after return, manual reconciliation required")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"loan_id": loanID,
		"book_id": loan.BookID,
	}).Info("loan returned")

	return updated, nil
}

// ============================================================
// Extend
// ============================================================

// Extend pushes the due date forward by whole calendar days, at most twice
// per loan and never on a loan that is already overdue.
func (s *LoanService) Extend(ctx context.Context, loanID string, extensionDays int) (*models.Loan, error) {
	if extensionDays <= 0 {
		return nil, fmt.Errorf("%w: extension_days must be a positive integer", domain.ErrInvalidInput)
	}

	loan, err := s.ledger.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != models.LoanStatusActive {
		return nil, domain.ErrOnlyActiveCanExtend
	}

	now := time.Now().UTC()
	if loan.DueDate.Before(now) {
		return nil, domain.ErrCannotExtendOverdue
	}
	if loan.ExtensionsCount >= models.MaxExtensions {
		return nil, domain.ErrExtensionLimitReached
	}

	// Calendar-day arithmetic: month and year rollover apply, time of day
	// is preserved.
	newDueDate := loan.DueDate.AddDate(0, 0, extensionDays)
	if !newDueDate.After(now) {
		return nil, domain.ErrDueDateNotFuture
	}

	updated, err := s.ledger.ExtendDueDate(ctx, loanID, newDueDate, loan.ExtensionsCount)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"loan_id":    loanID,
		"new_due":    newDueDate.Format("2006-01-02"),
		"extensions": updated.ExtensionsCount,
	}).Info("loan extended")

	return updated, nil
}

// ============================================================
// Enriched reads
// ============================================================

// UserRef is a best-effort user sub-resource. When the directory lookup
// fails, Error carries the reason and the remaining fields stay empty.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Error string `json:"error,omitempty"`
}

// BookRef is a best-effort book sub-resource
type BookRef struct {
	ID     string `json:"id"`
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
	Error  string `json:"error,omitempty"`
}

// LoanDetail is the enriched single-loan representation
type LoanDetail struct {
	ID              string     `json:"id"`
	User            UserRef    `json:"user"`
	Book            BookRef    `json:"book"`
	IssueDate       time.Time  `json:"issue_date"`
	DueDate         time.Time  `json:"due_date"`
	ReturnDate      *time.Time `json:"return_date"`
	Status          string     `json:"status"`
	ExtensionsCount int        `json:"extensions_count"`
	Overdue         bool       `json:"overdue"`
}

// OverdueLoan is one entry of the overdue report. Both sub-lookups succeeded;
// loans with a failed enrichment are omitted from the report entirely.
type OverdueLoan struct {
	ID          string    `json:"id"`
	User        UserRef   `json:"user"`
	Book        BookRef   `json:"book"`
	IssueDate   time.Time `json:"issue_date"`
	DueDate     time.Time `json:"due_date"`
	DaysOverdue int       `json:"days_overdue"`
}

// UserLoan is one entry of a user's loan history
type UserLoan struct {
	ID         string     `json:"id"`
	Book       BookRef    `json:"book"`
	IssueDate  time.Time  `json:"issue_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
	Status     string     `json:"status"`
	Overdue    bool       `json:"overdue"`
}

// Get returns a single loan enriched with user and book data. A failed
// sub-lookup degrades that sub-resource to a placeholder instead of failing
// the request.
func (s *LoanService) Get(ctx context.Context, loanID string) (*LoanDetail, error) {
	loan, err := s.ledger.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	detail := &LoanDetail{
		ID:              loan.ID,
		User:            s.lookupUser(ctx, loan.UserID),
		Book:            s.lookupBook(ctx, loan.BookID),
		IssueDate:       loan.IssueDate,
		DueDate:         loan.DueDate,
		ReturnDate:      loan.ReturnDate,
		Status:          loan.Status,
		ExtensionsCount: loan.ExtensionsCount,
		Overdue:         loan.IsOverdue(now),
	}
	return detail, nil
}

// List returns all loans, optionally filtered by status (ACTIVE or RETURNED,
// case-insensitive), each flagged with its overdue state.
func (s *LoanService) List(ctx context.Context, status string) ([]*models.LoanResponse, error) {
	if status != "" {
		status = strings.ToUpper(status)
		if status != models.LoanStatusActive && status != models.LoanStatusReturned {
			return nil, fmt.Errorf("%w: invalid status value, use 'ACTIVE' or 'RETURNED'", domain.ErrInvalidInput)
		}
	}

	loans, err := s.ledger.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	out := make([]*models.LoanResponse, len(loans))
	for i := range loans {
		out[i] = loans[i].ToResponse(now)
	}
	return out, nil
}

// ListByUser returns a user's loan history with best-effort book enrichment.
func (s *LoanService) ListByUser(ctx context.Context, userID string) ([]UserLoan, error) {
	loans, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	out := make([]UserLoan, len(loans))
	for i, loan := range loans {
		out[i] = UserLoan{
			ID:         loan.ID,
			Book:       s.lookupBook(ctx, loan.BookID),
			IssueDate:  loan.IssueDate,
			DueDate:    loan.DueDate,
			ReturnDate: loan.ReturnDate,
			Status:     loan.Status,
			Overdue:    loan.IsOverdue(now),
		}
	}
	return out, nil
}

// GetOverdue returns ACTIVE loans past due at the given instant, enriched
// with user and book data. Loans whose enrichment fails — for any reason —
// are skipped rather than reported partially.
func (s *LoanService) GetOverdue(ctx context.Context, now time.Time) ([]OverdueLoan, error) {
	loans, err := s.ledger.ListOverdue(ctx, now)
	if err != nil {
		return nil, err
	}

	out := make([]OverdueLoan, 0, len(loans))
	for _, loan := range loans {
		user, err := s.directory.GetUser(ctx, loan.UserID)
		if err != nil {
			s.log.WithError(err).WithField("loan_id", loan.ID).
				Warn("skipping overdue loan, user lookup failed")
			continue
		}
		book, err := s.inventory.GetBook(ctx, loan.BookID)
		if err != nil {
			s.log.WithError(err).WithField("loan_id", loan.ID).
				Warn("skipping overdue loan, book lookup failed")
			continue
		}

		out = append(out, OverdueLoan{
			ID:          loan.ID,
			User:        UserRef{ID: user.ID, Name: user.Name, Email: user.Email},
			Book:        BookRef{ID: book.ID, Title: book.Title, Author: book.Author},
			IssueDate:   loan.IssueDate,
			DueDate:     loan.DueDate,
			DaysOverdue: daysOverdue(loan.DueDate, now),
		})
	}
	return out, nil
}

func (s *LoanService) lookupUser(ctx context.Context, id string) UserRef {
	user, err := s.directory.GetUser(ctx, id)
	if err != nil {
		reason := "user data unavailable"
		if errors.Is(err, domain.ErrUserNotFound) {
			reason = "user not found"
		}
		return UserRef{ID: id, Error: reason}
	}
	return UserRef{ID: user.ID, Name: user.Name, Email: user.Email}
}

func (s *LoanService) lookupBook(ctx context.Context, id string) BookRef {
	book, err := s.inventory.GetBook(ctx, id)
	if err != nil {
		reason := "book data unavailable"
		if errors.Is(err, domain.ErrBookNotFound) {
			reason = "book not found"
		}
		return BookRef{ID: id, Error: reason}
	}
	return BookRef{ID: book.ID, Title: book.Title, Author: book.Author}
}

// daysOverdue floors the elapsed overdue time to whole days, clamped at zero.
func daysOverdue(dueDate, now time.Time) int {
	days := int(now.Sub(dueDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
