package repositories

import (
	"context"
	"errors"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/core/domain"

	"gorm.io/gorm"
)

// bookRepository handles book-related database operations
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

// Create inserts a new book
func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	err := r.db.WithContext(ctx).Create(book).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateEntry
	}
	return err
}

// GetByID returns a book by ID
func (r *bookRepository) GetByID(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Search returns books matching the free-text search and/or genre filter.
// Empty filters return the full catalogue.
func (r *bookRepository) Search(ctx context.Context, search, genre string) ([]models.Book, error) {
	var books []models.Book
	q := r.db.WithContext(ctx).Model(&models.Book{})

	if genre != "" {
		q = q.Where("genre LIKE ?", "%"+genre+"%")
	}
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("title LIKE ? OR author LIKE ? OR genre LIKE ?", like, like, like)
	}

	err := q.Order("title ASC").Find(&books).Error
	return books, err
}

// Update persists the full book record
func (r *bookRepository) Update(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

// Delete removes a book by ID
func (r *bookRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Book{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

// AdjustAvailability applies delta to available_copies. The guard clause makes
// the read-modify-write atomic: two concurrent decrements on the last copy
// cannot both succeed, and an increment can never push the counter past the
// total copy count.
func (r *bookRepository) AdjustAvailability(ctx context.Context, id string, delta int) (*models.Book, error) {
	result := r.db.WithContext(ctx).Model(&models.Book{}).
		Where("id = ? AND available_copies + ? >= 0 AND available_copies + ? <= copies", id, delta, delta).
		UpdateColumn("available_copies", gorm.Expr("available_copies + ?", delta))
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		// Distinguish missing book from a rejected bound.
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		if delta < 0 {
			return nil, domain.ErrNoCopiesAvailable
		}
		return nil, domain.ErrCapacityViolation
	}

	return r.GetByID(ctx, id)
}

// Count returns the number of books in the catalogue
func (r *bookRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Book{}).Count(&count).Error
	return count, err
}

// TotalAvailableCopies sums available_copies across the catalogue
func (r *bookRepository) TotalAvailableCopies(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Book{}).
		Select("COALESCE(SUM(available_copies), 0)").
		Scan(&total).Error
	return total, err
}
