package services

import (
	"context"
	"testing"
	"time"

	"openshelf/internal/adapters/persistence/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsService(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	books := newFakeBookRepo()
	users := newFakeUserRepo()
	ledger := newFakeLedger()

	bookA := &models.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "1", Copies: 3, AvailableCopies: 2}
	bookB := &models.Book{Title: "Hyperion", Author: "Dan Simmons", ISBN: "2", Copies: 2, AvailableCopies: 2}
	require.NoError(t, books.Create(ctx, bookA))
	require.NoError(t, books.Create(ctx, bookB))

	alice := &models.User{Name: "Asha Patel", Email: "asha@example.edu", Role: models.RoleStudent}
	bob := &models.User{Name: "Miguel Torres", Email: "miguel@example.edu", Role: models.RoleFaculty}
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	addLoan := func(userID, bookID, status string, due time.Time) {
		returned := (*time.Time)(nil)
		if status == models.LoanStatusReturned {
			r := now.AddDate(0, 0, -1)
			returned = &r
		}
		require.NoError(t, ledger.Insert(ctx, &models.Loan{
			UserID: userID, BookID: bookID,
			IssueDate: now.AddDate(0, 0, -5), DueDate: due,
			ReturnDate: returned, Status: status,
		}))
	}

	// bookA borrowed three times, bookB once; alice borrows three times.
	addLoan(alice.ID, bookA.ID, models.LoanStatusReturned, now.AddDate(0, 0, 7))
	addLoan(alice.ID, bookA.ID, models.LoanStatusActive, now.Add(-48*time.Hour))
	addLoan(bob.ID, bookA.ID, models.LoanStatusActive, now.AddDate(0, 0, 7))
	addLoan(alice.ID, bookB.ID, models.LoanStatusActive, now.AddDate(0, 0, 7))

	svc := NewStatsService(books, users, ledger,
		NewLocalDirectory(users), NewLocalInventory(books))

	t.Run("popular books ranked by borrow count", func(t *testing.T) {
		popular, err := svc.PopularBooks(ctx)
		require.NoError(t, err)
		require.Len(t, popular, 2)

		assert.Equal(t, "Dune", popular[0].Book.Title)
		assert.Equal(t, int64(3), popular[0].BorrowCount)
		assert.Equal(t, "Hyperion", popular[1].Book.Title)
	})

	t.Run("active users ranked by loan count", func(t *testing.T) {
		active, err := svc.ActiveUsers(ctx)
		require.NoError(t, err)
		require.Len(t, active, 2)

		assert.Equal(t, "Asha Patel", active[0].User.Name)
		assert.Equal(t, int64(3), active[0].LoanCount)
	})

	t.Run("overview counters", func(t *testing.T) {
		overview, err := svc.GetOverview(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(2), overview.TotalBooks)
		assert.Equal(t, int64(2), overview.TotalUsers)
		assert.Equal(t, int64(3), overview.ActiveLoans)
		assert.Equal(t, int64(1), overview.OverdueLoans)
		assert.Equal(t, int64(4), overview.AvailableCopies)
		assert.Equal(t, int64(4), overview.IssuedLast30d)
		assert.Equal(t, int64(1), overview.ReturnedLast30d)
	})
}
