package handlers

import (
	"errors"
	"time"

	"openshelf/internal/core/domain"
	"openshelf/internal/core/services"
	"openshelf/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// LoanHandler handles loan lifecycle requests
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// CreateLoanRequest represents create loan request body
type CreateLoanRequest struct {
	UserID  string `json:"user_id"`
	BookID  string `json:"book_id"`
	DueDate string `json:"due_date"`
}

// ExtendLoanRequest represents extend loan request body
type ExtendLoanRequest struct {
	ExtensionDays int `json:"extension_days"`
}

// Create handles POST /api/v1/loans
func (h *LoanHandler) Create(c *fiber.Ctx) error {
	var req CreateLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.UserID == "" || req.BookID == "" || req.DueDate == "" {
		return response.BadRequest(c, "user_id, book_id and due_date are required")
	}
	if _, err := uuid.Parse(req.UserID); err != nil {
		return response.BadRequest(c, "Invalid user id format")
	}
	if _, err := uuid.Parse(req.BookID); err != nil {
		return response.BadRequest(c, "Invalid book id format")
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return response.BadRequest(c, "due_date must be an RFC 3339 timestamp or a YYYY-MM-DD date")
	}

	loan, err := h.loanService.Create(c.UserContext(), services.CreateLoanInput{
		UserID:  req.UserID,
		BookID:  req.BookID,
		DueDate: dueDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, domain.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, domain.ErrDueDateNotFuture):
			return response.BadRequest(c, "due_date must be in the future")
		case errors.Is(err, domain.ErrNoCopiesAvailable):
			return response.BadRequest(c, "No copies of this book are available")
		case errors.Is(err, domain.ErrUpstreamUnavailable):
			return response.ServiceUnavailable(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to create loan")
		}
	}

	return response.Created(c, loan.ToResponse(time.Now().UTC()))
}

// Get handles GET /api/v1/loans/:id
func (h *LoanHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return response.BadRequest(c, "Invalid loan id format")
	}

	detail, err := h.loanService.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return response.NotFound(c, "Loan not found")
		}
		return response.InternalServerError(c, "Failed to fetch loan")
	}

	return response.OK(c, detail)
}

// List handles GET /api/v1/loans
func (h *LoanHandler) List(c *fiber.Ctx) error {
	loans, err := h.loanService.List(c.UserContext(), c.Query("status"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to fetch loans")
	}

	return response.OK(c, loans)
}

// GetOverdue handles GET /api/v1/loans/overdue
func (h *LoanHandler) GetOverdue(c *fiber.Ctx) error {
	overdue, err := h.loanService.GetOverdue(c.UserContext(), time.Now().UTC())
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch overdue loans")
	}

	return response.OK(c, overdue)
}

// Return handles POST /api/v1/loans/:id/return
func (h *LoanHandler) Return(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return response.BadRequest(c, "Invalid loan id format")
	}

	loan, err := h.loanService.Return(c.UserContext(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, domain.ErrBookNotFound):
			return response.NotFound(c, "Book for this loan no longer exists")
		case errors.Is(err, domain.ErrLoanAlreadyReturned):
			return response.BadRequest(c, "Loan has already been returned")
		case errors.Is(err, domain.ErrCapacityViolation):
			return response.BadRequest(c, "Returning this copy would exceed the book's total copies")
		case errors.Is(err, domain.ErrUpstreamUnavailable):
			return response.ServiceUnavailable(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to return loan")
		}
	}

	return response.OK(c, loan.ToResponse(time.Now().UTC()))
}

// Extend handles POST /api/v1/loans/:id/extend
func (h *LoanHandler) Extend(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return response.BadRequest(c, "Invalid loan id format")
	}

	var req ExtendLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.Extend(c.UserContext(), id, req.ExtensionDays)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, domain.ErrOnlyActiveCanExtend):
			return response.BadRequest(c, "Only active loans can be extended")
		case errors.Is(err, domain.ErrCannotExtendOverdue):
			return response.BadRequest(c, "Overdue loans cannot be extended")
		case errors.Is(err, domain.ErrExtensionLimitReached):
			return response.BadRequest(c, domain.ErrExtensionLimitReached.Error())
		case errors.Is(err, domain.ErrDueDateNotFuture):
			return response.BadRequest(c, "Extension would not move the due date past the current time")
		default:
			return response.InternalServerError(c, "Failed to extend loan")
		}
	}

	return response.OK(c, loan.ToResponse(time.Now().UTC()))
}

// parseDate accepts an RFC 3339 timestamp or a bare date. Bare dates are
// pinned to end of day UTC so a due date of "today" is not instantly past.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC), nil
}
