package handlers

import (
	"errors"

	"openshelf/internal/core/domain"
	"openshelf/internal/core/services"
	"openshelf/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UserHandler handles user directory requests
type UserHandler struct {
	userService *services.UserService
	loanService *services.LoanService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, loanService *services.LoanService) *UserHandler {
	return &UserHandler{userService: userService, loanService: loanService}
}

// CreateUserRequest represents create user request body
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UpdateUserRequest represents update user request body
type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// Create handles POST /api/v1/users
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Name == "" || req.Email == "" || req.Role == "" {
		return response.BadRequest(c, "name, email and role are required")
	}

	user, err := h.userService.Create(c.UserContext(), services.CreateUserInput{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, domain.ErrDuplicateEntry):
			return response.BadRequest(c, "A user with this email already exists")
		default:
			return response.InternalServerError(c, "Failed to create user")
		}
	}

	return response.Created(c, user)
}

// Get handles GET /api/v1/users/:id
func (h *UserHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return response.BadRequest(c, "Invalid user id format")
	}

	user, err := h.userService.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	return response.OK(c, user)
}

// List handles GET /api/v1/users
func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.userService.List(c.UserContext())
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	return response.OK(c, users)
}

// Update handles PUT /api/v1/users/:id
func (h *UserHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return response.BadRequest(c, "Invalid user id format")
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.userService.Update(c.UserContext(), id, services.UpdateUserInput{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, domain.ErrDuplicateEntry):
			return response.BadRequest(c, "A user with this email already exists")
		default:
			return response.InternalServerError(c, "Failed to update user")
		}
	}

	return response.OK(c, user)
}

// GetLoans handles GET /api/v1/users/:id/loans
func (h *UserHandler) GetLoans(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return response.BadRequest(c, "Invalid user id format")
	}

	// The user must exist; an empty history for a real user returns [].
	if _, err := h.userService.Get(c.UserContext(), id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	loans, err := h.loanService.ListByUser(c.UserContext(), id)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch loan history")
	}

	return response.OK(c, loans)
}
