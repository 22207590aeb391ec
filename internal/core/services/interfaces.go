package services

import (
	"context"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"
)

// The loan coordinator talks to the user directory and the book inventory
// through these ports. In the single-process deployment they are backed by
// the repositories directly; in the split deployment they are backed by the
// HTTP clients in internal/core/clients. The loan ledger and intent log are
// always local to this service.

// UserDirectory resolves users by id
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// BookInventory resolves books and owns the availability counter
type BookInventory interface {
	GetBook(ctx context.Context, id string) (*models.Book, error)
	AdjustAvailability(ctx context.Context, id string, delta int) (*models.Book, error)
}

// localDirectory adapts the user repository to the UserDirectory port
type localDirectory struct {
	users repositories.UserRepository
}

// NewLocalDirectory wraps the in-process user store
func NewLocalDirectory(users repositories.UserRepository) UserDirectory {
	return &localDirectory{users: users}
}

func (d *localDirectory) GetUser(ctx context.Context, id string) (*models.User, error) {
	return d.users.GetByID(ctx, id)
}

// localInventory adapts the book repository to the BookInventory port
type localInventory struct {
	books repositories.BookRepository
}

// NewLocalInventory wraps the in-process book store
func NewLocalInventory(books repositories.BookRepository) BookInventory {
	return &localInventory{books: books}
}

func (i *localInventory) GetBook(ctx context.Context, id string) (*models.Book, error) {
	return i.books.GetByID(ctx, id)
}

func (i *localInventory) AdjustAvailability(ctx context.Context, id string, delta int) (*models.Book, error) {
	return i.books.AdjustAvailability(ctx, id, delta)
}
