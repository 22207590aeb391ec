package services

import (
	"context"
	"fmt"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/core/domain"
)

// BookService handles book catalog operations
type BookService struct {
	books repositories.BookRepository
}

// NewBookService creates a new book service
func NewBookService(books repositories.BookRepository) *BookService {
	return &BookService{books: books}
}

// CreateBookInput represents create book input
type CreateBookInput struct {
	Title  string
	Author string
	ISBN   string
	Genre  string
	Copies int
}

// Create registers a new title. The available counter starts equal to the
// total copies.
func (s *BookService) Create(ctx context.Context, input CreateBookInput) (*models.Book, error) {
	if input.Copies <= 0 {
		return nil, fmt.Errorf("%w: copies must be a positive integer", domain.ErrInvalidInput)
	}

	book := &models.Book{
		Title:           input.Title,
		Author:          input.Author,
		ISBN:            input.ISBN,
		Genre:           input.Genre,
		Copies:          input.Copies,
		AvailableCopies: input.Copies,
	}
	if err := s.books.Create(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// Get retrieves a book by id
func (s *BookService) Get(ctx context.Context, id string) (*models.Book, error) {
	return s.books.GetByID(ctx, id)
}

// List searches the catalog. Both filters are optional; search matches title
// or author as a substring, genre matches exactly.
func (s *BookService) List(ctx context.Context, search, genre string) ([]models.Book, error) {
	return s.books.Search(ctx, search, genre)
}

// UpdateBookInput represents update book input. Nil fields are left
// untouched. The availability counter is not updatable here: changing Copies
// shifts AvailableCopies by the same delta so the number of copies out on
// loan stays fixed.
type UpdateBookInput struct {
	Title  *string
	Author *string
	Genre  *string
	Copies *int
}

// Update modifies book metadata
func (s *BookService) Update(ctx context.Context, id string, input UpdateBookInput) (*models.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		book.Title = *input.Title
	}
	if input.Author != nil {
		book.Author = *input.Author
	}
	if input.Genre != nil {
		book.Genre = *input.Genre
	}
	if input.Copies != nil {
		if *input.Copies <= 0 {
			return nil, fmt.Errorf("%w: copies must be a positive integer", domain.ErrInvalidInput)
		}
		onLoan := book.Copies - book.AvailableCopies
		if *input.Copies < onLoan {
			return nil, fmt.Errorf("%w: cannot reduce copies below the %d currently on loan", domain.ErrInvalidInput, onLoan)
		}
		book.AvailableCopies = *input.Copies - onLoan
		book.Copies = *input.Copies
	}

	if err := s.books.Update(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// Delete removes a book from the catalog
func (s *BookService) Delete(ctx context.Context, id string) error {
	return s.books.Delete(ctx, id)
}

// AdjustAvailability applies a signed delta to the availability counter.
// Exposed over HTTP for the split deployment where the loan service manages
// inventory remotely.
func (s *BookService) AdjustAvailability(ctx context.Context, id string, delta int) (*models.Book, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: delta must be non-zero", domain.ErrInvalidInput)
	}
	return s.books.AdjustAvailability(ctx, id, delta)
}
