package services

import (
	"context"
	"time"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"
)

// topN is how many entries the popularity rankings return.
const topN = 3

// StatsService projects read-only aggregates over the three stores.
type StatsService struct {
	books     repositories.BookRepository
	users     repositories.UserRepository
	ledger    repositories.LoanRepository
	directory UserDirectory
	inventory BookInventory
}

// NewStatsService creates a new stats service
func NewStatsService(
	books repositories.BookRepository,
	users repositories.UserRepository,
	ledger repositories.LoanRepository,
	directory UserDirectory,
	inventory BookInventory,
) *StatsService {
	return &StatsService{
		books:     books,
		users:     users,
		ledger:    ledger,
		directory: directory,
		inventory: inventory,
	}
}

// PopularBook is one ranking entry of the most-borrowed titles
type PopularBook struct {
	Book        BookRef `json:"book"`
	BorrowCount int64   `json:"borrow_count"`
}

// ActiveUser is one ranking entry of the most-frequent borrowers
type ActiveUser struct {
	User      UserRef `json:"user"`
	LoanCount int64   `json:"loan_count"`
}

// Overview is the library-wide counter snapshot
type Overview struct {
	TotalBooks      int64 `json:"total_books"`
	TotalUsers      int64 `json:"total_users"`
	ActiveLoans     int64 `json:"active_loans"`
	OverdueLoans    int64 `json:"overdue_loans"`
	AvailableCopies int64 `json:"available_copies"`
	IssuedLast30d   int64 `json:"issued_last_30d"`
	ReturnedLast30d int64 `json:"returned_last_30d"`
}

// PopularBooks returns the three most-borrowed titles, counted over all
// loans ever issued. Titles that no longer resolve keep their slot with a
// placeholder.
func (s *StatsService) PopularBooks(ctx context.Context) ([]PopularBook, error) {
	counts, err := s.ledger.BorrowCountsByBook(ctx, topN)
	if err != nil {
		return nil, err
	}

	out := make([]PopularBook, len(counts))
	for i, c := range counts {
		ref := BookRef{ID: c.ID}
		if book, err := s.inventory.GetBook(ctx, c.ID); err == nil {
			ref = BookRef{ID: book.ID, Title: book.Title, Author: book.Author}
		} else {
			ref.Error = "book data unavailable"
		}
		out[i] = PopularBook{Book: ref, BorrowCount: c.Count}
	}
	return out, nil
}

// ActiveUsers returns the three members with the most loans on record.
func (s *StatsService) ActiveUsers(ctx context.Context) ([]ActiveUser, error) {
	counts, err := s.ledger.BorrowCountsByUser(ctx, topN)
	if err != nil {
		return nil, err
	}

	out := make([]ActiveUser, len(counts))
	for i, c := range counts {
		ref := UserRef{ID: c.ID}
		if user, err := s.directory.GetUser(ctx, c.ID); err == nil {
			ref = UserRef{ID: user.ID, Name: user.Name, Email: user.Email}
		} else {
			ref.Error = "user data unavailable"
		}
		out[i] = ActiveUser{User: ref, LoanCount: c.Count}
	}
	return out, nil
}

// GetOverview returns the counter snapshot used by the dashboard.
func (s *StatsService) GetOverview(ctx context.Context) (*Overview, error) {
	now := time.Now().UTC()
	monthAgo := now.AddDate(0, 0, -30)

	totalBooks, err := s.books.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	activeLoans, err := s.ledger.CountByStatus(ctx, models.LoanStatusActive)
	if err != nil {
		return nil, err
	}
	overdueLoans, err := s.ledger.CountOverdue(ctx, now)
	if err != nil {
		return nil, err
	}
	available, err := s.books.TotalAvailableCopies(ctx)
	if err != nil {
		return nil, err
	}
	issued, err := s.ledger.CountIssuedSince(ctx, monthAgo)
	if err != nil {
		return nil, err
	}
	returned, err := s.ledger.CountReturnedSince(ctx, monthAgo)
	if err != nil {
		return nil, err
	}

	return &Overview{
		TotalBooks:      totalBooks,
		TotalUsers:      totalUsers,
		ActiveLoans:     activeLoans,
		OverdueLoans:    overdueLoans,
		AvailableCopies: available,
		IssuedLast30d:   issued,
		ReturnedLast30d: returned,
	}, nil
}
