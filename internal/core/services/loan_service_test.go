package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/core/domain"
	"openshelf/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text"})
	require.NoError(t, err)
	return log
}

type loanFixture struct {
	directory *fakeDirectory
	inventory *fakeInventory
	ledger    *fakeLedger
	intents   *fakeIntents
	service   *LoanService
}

func newLoanFixture(t *testing.T) *loanFixture {
	t.Helper()
	f := &loanFixture{
		directory: &fakeDirectory{users: map[string]*models.User{
			"user-1": {ID: "user-1", Name: "Asha Patel", Email: "asha@example.edu", Role: models.RoleStudent},
		}},
		inventory: &fakeInventory{books: map[string]*models.Book{
			"book-1": {ID: "book-1", Title: "Dune", Author: "Frank Herbert", Copies: 2, AvailableCopies: 2},
		}},
		ledger:  newFakeLedger(),
		intents: newFakeIntents(),
	}
	f.service = NewLoanService(f.directory, f.inventory, f.ledger, f.intents, testLogger(t))
	return f
}

func (f *loanFixture) activeLoan(t *testing.T, due time.Time) *models.Loan {
	t.Helper()
	loan := &models.Loan{
		UserID:    "user-1",
		BookID:    "book-1",
		IssueDate: time.Now().UTC().AddDate(0, 0, -7),
		DueDate:   due,
		Status:    models.LoanStatusActive,
	}
	require.NoError(t, f.ledger.Insert(context.Background(), loan))
	return loan
}

func TestLoanServiceCreate(t *testing.T) {
	future := time.Now().UTC().AddDate(0, 0, 14)

	t.Run("issues loan and decrements availability", func(t *testing.T) {
		f := newLoanFixture(t)

		loan, err := f.service.Create(context.Background(), CreateLoanInput{
			UserID: "user-1", BookID: "book-1", DueDate: future,
		})
		require.NoError(t, err)

		assert.Equal(t, models.LoanStatusActive, loan.Status)
		assert.Equal(t, 0, loan.ExtensionsCount)
		assert.Nil(t, loan.ReturnDate)
		assert.Equal(t, 1, f.inventory.books["book-1"].AvailableCopies)

		// Intent closed out on success.
		require.Len(t, f.intents.intents, 1)
		for _, intent := range f.intents.intents {
			assert.Equal(t, models.IntentStatusCompleted, intent.Status)
		}
	})

	t.Run("rejects due date not in the future", func(t *testing.T) {
		f := newLoanFixture(t)

		_, err := f.service.Create(context.Background(), CreateLoanInput{
			UserID: "user-1", BookID: "book-1", DueDate: time.Now().UTC().AddDate(0, 0, -1),
		})
		assert.ErrorIs(t, err, domain.ErrDueDateNotFuture)
		assert.Equal(t, 2, f.inventory.books["book-1"].AvailableCopies)
	})

	t.Run("rejects unknown user before touching inventory", func(t *testing.T) {
		f := newLoanFixture(t)

		_, err := f.service.Create(context.Background(), CreateLoanInput{
			UserID: "missing", BookID: "book-1", DueDate: future,
		})
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		assert.Empty(t, f.inventory.adjusts)
	})

	t.Run("rejects when no copies available", func(t *testing.T) {
		f := newLoanFixture(t)
		f.inventory.books["book-1"].AvailableCopies = 0

		_, err := f.service.Create(context.Background(), CreateLoanInput{
			UserID: "user-1", BookID: "book-1", DueDate: future,
		})
		assert.ErrorIs(t, err, domain.ErrNoCopiesAvailable)
	})

	t.Run("concurrent drain loses the counter race cleanly", func(t *testing.T) {
		f := newLoanFixture(t)
		f.inventory.books["book-1"].AvailableCopies = 1

		_, err := f.service.Create(context.Background(), CreateLoanInput{
			UserID: "user-1", BookID: "book-1", DueDate: future,
		})
		require.NoError(t, err)

		// Second create observes 0 and is rejected by the conditional update.
		_, err = f.service.Create(context.Background(), CreateLoanInput{
			UserID: "user-1", BookID: "book-1", DueDate: future,
		})
		assert.ErrorIs(t, err, domain.ErrNoCopiesAvailable)
		assert.Equal(t, 0, f.inventory.books["book-1"].AvailableCopies)
	})

	t.Run("ledger failure leaves pending intent and no compensation", func(t *testing.T) {
		f := newLoanFixture(t)
		f.ledger.insertErr = errors.New("connection reset")

		_, err := f.service.Create(context.Background(), CreateLoanInput{
			UserID: "user-1", BookID: "book-1", DueDate: future,
		})
		assert.ErrorIs(t, err, domain.ErrInternalServer)

		// The decrement stays committed; the reconciler owns the repair.
		assert.Equal(t, 1, f.inventory.books["book-1"].AvailableCopies)
		require.Len(t, f.intents.intents, 1)
		for _, intent := range f.intents.intents {
			assert.Equal(t, models.IntentStatusPending, intent.Status)
		}
	})

	t.Run("propagates upstream unavailability", func(t *testing.T) {
		f := newLoanFixture(t)
		f.directory.err = domain.ErrUpstreamUnavailable

		_, err := f.service.Create(context.Background(), CreateLoanInput{
			UserID: "user-1", BookID: "book-1", DueDate: future,
		})
		assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	})
}

func TestLoanServiceReturn(t *testing.T) {
	t.Run("flips status and releases the copy", func(t *testing.T) {
		f := newLoanFixture(t)
		f.inventory.books["book-1"].AvailableCopies = 1
		loan := f.activeLoan(t, time.Now().UTC().AddDate(0, 0, 7))

		returned, err := f.service.Return(context.Background(), loan.ID)
		require.NoError(t, err)

		assert.Equal(t, models.LoanStatusReturned, returned.Status)
		require.NotNil(t, returned.ReturnDate)
		assert.Equal(t, 2, f.inventory.books["book-1"].AvailableCopies)
	})

	t.Run("second return is rejected without a second increment", func(t *testing.T) {
		f := newLoanFixture(t)
		f.inventory.books["book-1"].AvailableCopies = 1
		loan := f.activeLoan(t, time.Now().UTC().AddDate(0, 0, 7))

		_, err := f.service.Return(context.Background(), loan.ID)
		require.NoError(t, err)

		_, err = f.service.Return(context.Background(), loan.ID)
		assert.ErrorIs(t, err, domain.ErrLoanAlreadyReturned)
		assert.Equal(t, 2, f.inventory.books["book-1"].AvailableCopies)
	})

	t.Run("fails hard when the book record is gone", func(t *testing.T) {
		f := newLoanFixture(t)
		loan := f.activeLoan(t, time.Now().UTC().AddDate(0, 0, 7))
		delete(f.inventory.books, "book-1")

		_, err := f.service.Return(context.Background(), loan.ID)
		assert.ErrorIs(t, err, domain.ErrBookNotFound)

		// Loan untouched.
		stored, err := f.ledger.GetByID(context.Background(), loan.ID)
		require.NoError(t, err)
		assert.Equal(t, models.LoanStatusActive, stored.Status)
	})

	t.Run("unknown loan", func(t *testing.T) {
		f := newLoanFixture(t)
		_, err := f.service.Return(context.Background(), "nope")
		assert.ErrorIs(t, err, domain.ErrLoanNotFound)
	})
}

func TestLoanServiceExtend(t *testing.T) {
	t.Run("pushes the due date by calendar days", func(t *testing.T) {
		f := newLoanFixture(t)
		due := time.Now().UTC().AddDate(0, 0, 3)
		loan := f.activeLoan(t, due)

		extended, err := f.service.Extend(context.Background(), loan.ID, 7)
		require.NoError(t, err)

		assert.Equal(t, due.AddDate(0, 0, 7), extended.DueDate)
		assert.Equal(t, 1, extended.ExtensionsCount)
	})

	t.Run("month rollover follows the calendar", func(t *testing.T) {
		f := newLoanFixture(t)
		due := time.Now().UTC().Truncate(time.Second).AddDate(0, 0, 2)
		loan := f.activeLoan(t, due)

		extended, err := f.service.Extend(context.Background(), loan.ID, 45)
		require.NoError(t, err)
		assert.Equal(t, due.AddDate(0, 0, 45), extended.DueDate)
	})

	t.Run("rejects more than two extensions", func(t *testing.T) {
		f := newLoanFixture(t)
		loan := f.activeLoan(t, time.Now().UTC().AddDate(0, 0, 3))

		for i := 0; i < models.MaxExtensions; i++ {
			_, err := f.service.Extend(context.Background(), loan.ID, 2)
			require.NoError(t, err)
		}

		_, err := f.service.Extend(context.Background(), loan.ID, 2)
		assert.ErrorIs(t, err, domain.ErrExtensionLimitReached)
	})

	t.Run("rejects overdue loans", func(t *testing.T) {
		f := newLoanFixture(t)
		loan := f.activeLoan(t, time.Now().UTC().AddDate(0, 0, -2))

		_, err := f.service.Extend(context.Background(), loan.ID, 7)
		assert.ErrorIs(t, err, domain.ErrCannotExtendOverdue)
	})

	t.Run("rejects returned loans", func(t *testing.T) {
		f := newLoanFixture(t)
		loan := f.activeLoan(t, time.Now().UTC().AddDate(0, 0, 7))
		_, err := f.service.Return(context.Background(), loan.ID)
		require.NoError(t, err)

		_, err = f.service.Extend(context.Background(), loan.ID, 7)
		assert.ErrorIs(t, err, domain.ErrOnlyActiveCanExtend)
	})

	t.Run("rejects non-positive extension days", func(t *testing.T) {
		f := newLoanFixture(t)
		loan := f.activeLoan(t, time.Now().UTC().AddDate(0, 0, 7))

		_, err := f.service.Extend(context.Background(), loan.ID, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		_, err = f.service.Extend(context.Background(), loan.ID, -3)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestLoanServiceGetOverdue(t *testing.T) {
	t.Run("reports whole days overdue", func(t *testing.T) {
		f := newLoanFixture(t)
		now := time.Now().UTC()
		f.activeLoan(t, now.Add(-49*time.Hour))

		overdue, err := f.service.GetOverdue(context.Background(), now)
		require.NoError(t, err)
		require.Len(t, overdue, 1)

		assert.Equal(t, 2, overdue[0].DaysOverdue)
		assert.Equal(t, "Asha Patel", overdue[0].User.Name)
		assert.Equal(t, "Dune", overdue[0].Book.Title)
	})

	t.Run("clamps sub-day overdue to zero days", func(t *testing.T) {
		f := newLoanFixture(t)
		now := time.Now().UTC()
		f.activeLoan(t, now.Add(-3*time.Hour))

		overdue, err := f.service.GetOverdue(context.Background(), now)
		require.NoError(t, err)
		require.Len(t, overdue, 1)
		assert.Equal(t, 0, overdue[0].DaysOverdue)
	})

	t.Run("skips loans whose enrichment fails", func(t *testing.T) {
		f := newLoanFixture(t)
		now := time.Now().UTC()
		f.activeLoan(t, now.Add(-48*time.Hour))

		orphan := &models.Loan{
			UserID: "gone", BookID: "book-1",
			IssueDate: now.AddDate(0, 0, -10), DueDate: now.Add(-72 * time.Hour),
			Status: models.LoanStatusActive,
		}
		require.NoError(t, f.ledger.Insert(context.Background(), orphan))

		overdue, err := f.service.GetOverdue(context.Background(), now)
		require.NoError(t, err)
		require.Len(t, overdue, 1)
		assert.Equal(t, "user-1", overdue[0].User.ID)
	})

	t.Run("excludes returned and future-due loans", func(t *testing.T) {
		f := newLoanFixture(t)
		now := time.Now().UTC()
		f.activeLoan(t, now.AddDate(0, 0, 7))
		late := f.activeLoan(t, now.Add(-48*time.Hour))
		_, err := f.service.Return(context.Background(), late.ID)
		require.NoError(t, err)

		overdue, err := f.service.GetOverdue(context.Background(), now)
		require.NoError(t, err)
		assert.Empty(t, overdue)
	})
}

func TestLoanServiceReads(t *testing.T) {
	t.Run("detail degrades missing sub-resources to placeholders", func(t *testing.T) {
		f := newLoanFixture(t)
		loan := f.activeLoan(t, time.Now().UTC().AddDate(0, 0, 7))
		delete(f.inventory.books, "book-1")

		detail, err := f.service.Get(context.Background(), loan.ID)
		require.NoError(t, err)

		assert.Equal(t, "Asha Patel", detail.User.Name)
		assert.Equal(t, "book-1", detail.Book.ID)
		assert.Equal(t, "book not found", detail.Book.Error)
	})

	t.Run("list rejects unknown status filter", func(t *testing.T) {
		f := newLoanFixture(t)
		_, err := f.service.List(context.Background(), "LOST")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("list filter is case-insensitive", func(t *testing.T) {
		f := newLoanFixture(t)
		f.activeLoan(t, time.Now().UTC().AddDate(0, 0, 7))

		loans, err := f.service.List(context.Background(), "active")
		require.NoError(t, err)
		assert.Len(t, loans, 1)
	})

	t.Run("user history flags overdue entries", func(t *testing.T) {
		f := newLoanFixture(t)
		f.activeLoan(t, time.Now().UTC().Add(-48*time.Hour))

		history, err := f.service.ListByUser(context.Background(), "user-1")
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.True(t, history[0].Overdue)
		assert.Equal(t, "Dune", history[0].Book.Title)
	})
}
