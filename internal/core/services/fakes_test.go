package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/core/domain"

	"github.com/google/uuid"
)

// In-memory test doubles for the coordinator's ports and the local stores.

type fakeDirectory struct {
	users map[string]*models.User
	err   error
}

func (f *fakeDirectory) GetUser(_ context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

type fakeInventory struct {
	books     map[string]*models.Book
	getErr    error
	adjustErr error
	adjusts   []int
}

func (f *fakeInventory) GetBook(_ context.Context, id string) (*models.Book, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	book, ok := f.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	return book, nil
}

func (f *fakeInventory) AdjustAvailability(_ context.Context, id string, delta int) (*models.Book, error) {
	if f.adjustErr != nil {
		return nil, f.adjustErr
	}
	book, ok := f.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	next := book.AvailableCopies + delta
	if next < 0 {
		return nil, domain.ErrNoCopiesAvailable
	}
	if next > book.Copies {
		return nil, domain.ErrCapacityViolation
	}
	book.AvailableCopies = next
	f.adjusts = append(f.adjusts, delta)
	return book, nil
}

type fakeLedger struct {
	loans     map[string]*models.Loan
	insertErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{loans: make(map[string]*models.Loan)}
}

func (f *fakeLedger) Insert(_ context.Context, loan *models.Loan) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if loan.ID == "" {
		loan.ID = uuid.NewString()
	}
	stored := *loan
	f.loans[loan.ID] = &stored
	return nil
}

func (f *fakeLedger) GetByID(_ context.Context, id string) (*models.Loan, error) {
	loan, ok := f.loans[id]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	copied := *loan
	return &copied, nil
}

func (f *fakeLedger) ListByUser(_ context.Context, userID string) ([]models.Loan, error) {
	var out []models.Loan
	for _, loan := range f.loans {
		if loan.UserID == userID {
			out = append(out, *loan)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListByStatus(_ context.Context, status string) ([]models.Loan, error) {
	var out []models.Loan
	for _, loan := range f.loans {
		if status == "" || loan.Status == status {
			out = append(out, *loan)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListOverdue(_ context.Context, now time.Time) ([]models.Loan, error) {
	var out []models.Loan
	for _, loan := range f.loans {
		if loan.IsOverdue(now) {
			out = append(out, *loan)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (f *fakeLedger) MarkReturned(_ context.Context, id string, returnedAt time.Time) (*models.Loan, error) {
	loan, ok := f.loans[id]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	if loan.Status != models.LoanStatusActive {
		return nil, domain.ErrLoanAlreadyReturned
	}
	loan.Status = models.LoanStatusReturned
	loan.ReturnDate = &returnedAt
	copied := *loan
	return &copied, nil
}

func (f *fakeLedger) ExtendDueDate(_ context.Context, id string, newDueDate time.Time, priorExtensions int) (*models.Loan, error) {
	loan, ok := f.loans[id]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	if loan.Status != models.LoanStatusActive {
		return nil, domain.ErrOnlyActiveCanExtend
	}
	if loan.ExtensionsCount != priorExtensions {
		return nil, domain.ErrExtensionLimitReached
	}
	loan.DueDate = newDueDate
	loan.ExtensionsCount++
	copied := *loan
	return &copied, nil
}

func (f *fakeLedger) CountByStatus(ctx context.Context, status string) (int64, error) {
	loans, _ := f.ListByStatus(ctx, status)
	return int64(len(loans)), nil
}

func (f *fakeLedger) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	loans, _ := f.ListOverdue(ctx, now)
	return int64(len(loans)), nil
}

func (f *fakeLedger) CountIssuedSince(_ context.Context, since time.Time) (int64, error) {
	var n int64
	for _, loan := range f.loans {
		if !loan.IssueDate.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeLedger) CountReturnedSince(_ context.Context, since time.Time) (int64, error) {
	var n int64
	for _, loan := range f.loans {
		if loan.ReturnDate != nil && !loan.ReturnDate.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeLedger) BorrowCountsByBook(_ context.Context, limit int) ([]repositories.BorrowCount, error) {
	return f.borrowCounts(func(l *models.Loan) string { return l.BookID }, limit), nil
}

func (f *fakeLedger) BorrowCountsByUser(_ context.Context, limit int) ([]repositories.BorrowCount, error) {
	return f.borrowCounts(func(l *models.Loan) string { return l.UserID }, limit), nil
}

func (f *fakeLedger) borrowCounts(key func(*models.Loan) string, limit int) []repositories.BorrowCount {
	counts := make(map[string]int64)
	for _, loan := range f.loans {
		counts[key(loan)]++
	}
	out := make([]repositories.BorrowCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, repositories.BorrowCount{ID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return strings.Compare(out[i].ID, out[j].ID) < 0
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

type fakeBookRepo struct {
	books map[string]*models.Book
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{books: make(map[string]*models.Book)}
}

func (f *fakeBookRepo) Create(_ context.Context, book *models.Book) error {
	for _, b := range f.books {
		if b.ISBN == book.ISBN {
			return domain.ErrDuplicateEntry
		}
	}
	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	stored := *book
	f.books[book.ID] = &stored
	return nil
}

func (f *fakeBookRepo) GetByID(_ context.Context, id string) (*models.Book, error) {
	book, ok := f.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	copied := *book
	return &copied, nil
}

func (f *fakeBookRepo) Search(_ context.Context, search, genre string) ([]models.Book, error) {
	var out []models.Book
	for _, book := range f.books {
		if genre != "" && book.Genre != genre {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(book.Title), strings.ToLower(search)) &&
			!strings.Contains(strings.ToLower(book.Author), strings.ToLower(search)) {
			continue
		}
		out = append(out, *book)
	}
	return out, nil
}

func (f *fakeBookRepo) Update(_ context.Context, book *models.Book) error {
	if _, ok := f.books[book.ID]; !ok {
		return domain.ErrBookNotFound
	}
	stored := *book
	f.books[book.ID] = &stored
	return nil
}

func (f *fakeBookRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.books[id]; !ok {
		return domain.ErrBookNotFound
	}
	delete(f.books, id)
	return nil
}

func (f *fakeBookRepo) AdjustAvailability(_ context.Context, id string, delta int) (*models.Book, error) {
	book, ok := f.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	next := book.AvailableCopies + delta
	if next < 0 {
		return nil, domain.ErrNoCopiesAvailable
	}
	if next > book.Copies {
		return nil, domain.ErrCapacityViolation
	}
	book.AvailableCopies = next
	copied := *book
	return &copied, nil
}

func (f *fakeBookRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.books)), nil
}

func (f *fakeBookRepo) TotalAvailableCopies(_ context.Context) (int64, error) {
	var total int64
	for _, book := range f.books {
		total += int64(book.AvailableCopies)
	}
	return total, nil
}

type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return domain.ErrDuplicateEntry
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	for _, u := range f.users {
		if u.ID != user.ID && u.Email == user.Email {
			return domain.ErrDuplicateEntry
		}
	}
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) List(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, *user)
	}
	return out, nil
}

func (f *fakeUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

type fakeIntents struct {
	intents   map[string]*models.LoanIntent
	createErr error
}

func newFakeIntents() *fakeIntents {
	return &fakeIntents{intents: make(map[string]*models.LoanIntent)}
}

func (f *fakeIntents) Create(_ context.Context, intent *models.LoanIntent) error {
	if f.createErr != nil {
		return f.createErr
	}
	if intent.ID == "" {
		intent.ID = uuid.NewString()
	}
	intent.Status = models.IntentStatusPending
	if intent.CreatedAt.IsZero() {
		intent.CreatedAt = time.Now().UTC()
	}
	stored := *intent
	f.intents[intent.ID] = &stored
	return nil
}

func (f *fakeIntents) MarkCompleted(_ context.Context, id string) error {
	intent, ok := f.intents[id]
	if !ok {
		return domain.ErrNotFound
	}
	intent.Status = models.IntentStatusCompleted
	return nil
}

func (f *fakeIntents) MarkReconciled(_ context.Context, id string) error {
	intent, ok := f.intents[id]
	if !ok {
		return domain.ErrNotFound
	}
	intent.Status = models.IntentStatusReconciled
	return nil
}

func (f *fakeIntents) ListExpiredPending(_ context.Context, olderThan time.Time) ([]models.LoanIntent, error) {
	var out []models.LoanIntent
	for _, intent := range f.intents {
		if intent.Status == models.IntentStatusPending && intent.CreatedAt.Before(olderThan) {
			out = append(out, *intent)
		}
	}
	return out, nil
}
