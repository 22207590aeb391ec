package handlers

import (
	"errors"

	"openshelf/internal/core/domain"
	"openshelf/internal/core/services"
	"openshelf/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// BookHandler handles book catalog requests
type BookHandler struct {
	bookService *services.BookService
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService *services.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// CreateBookRequest represents create book request body
type CreateBookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
	Genre  string `json:"genre"`
	Copies int    `json:"copies"`
}

// UpdateBookRequest represents update book request body
type UpdateBookRequest struct {
	Title  *string `json:"title"`
	Author *string `json:"author"`
	Genre  *string `json:"genre"`
	Copies *int    `json:"copies"`
}

// AdjustAvailabilityRequest represents availability adjustment request body
type AdjustAvailabilityRequest struct {
	Delta int `json:"delta"`
}

// Create handles POST /api/v1/books
func (h *BookHandler) Create(c *fiber.Ctx) error {
	var req CreateBookRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Title == "" || req.Author == "" || req.ISBN == "" {
		return response.BadRequest(c, "title, author and isbn are required")
	}

	book, err := h.bookService.Create(c.UserContext(), services.CreateBookInput{
		Title:  req.Title,
		Author: req.Author,
		ISBN:   req.ISBN,
		Genre:  req.Genre,
		Copies: req.Copies,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, domain.ErrDuplicateEntry):
			return response.BadRequest(c, "A book with this ISBN already exists")
		default:
			return response.InternalServerError(c, "Failed to create book")
		}
	}

	return response.Created(c, book)
}

// Get handles GET /api/v1/books/:id
func (h *BookHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return response.BadRequest(c, "Invalid book id format")
	}

	book, err := h.bookService.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to fetch book")
	}

	return response.OK(c, book)
}

// List handles GET /api/v1/books
func (h *BookHandler) List(c *fiber.Ctx) error {
	books, err := h.bookService.List(c.UserContext(), c.Query("search"), c.Query("genre"))
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch books")
	}

	return response.OK(c, books)
}

// Update handles PUT /api/v1/books/:id
func (h *BookHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return response.BadRequest(c, "Invalid book id format")
	}

	var req UpdateBookRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	book, err := h.bookService.Update(c.UserContext(), id, services.UpdateBookInput{
		Title:  req.Title,
		Author: req.Author,
		Genre:  req.Genre,
		Copies: req.Copies,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to update book")
		}
	}

	return response.OK(c, book)
}

// Delete handles DELETE /api/v1/books/:id
func (h *BookHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return response.BadRequest(c, "Invalid book id format")
	}

	if err := h.bookService.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to delete book")
	}

	return response.NoContent(c)
}

// AdjustAvailability handles PATCH /api/v1/books/:id/availability
func (h *BookHandler) AdjustAvailability(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return response.BadRequest(c, "Invalid book id format")
	}

	var req AdjustAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	book, err := h.bookService.AdjustAvailability(c.UserContext(), id, req.Delta)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, domain.ErrNoCopiesAvailable):
			return response.BadRequest(c, "No copies of this book are available")
		case errors.Is(err, domain.ErrCapacityViolation):
			return response.BadRequest(c, "Adjustment would exceed the book's total copies")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to adjust availability")
		}
	}

	return response.OK(c, book)
}
