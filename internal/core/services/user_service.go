package services

import (
	"context"
	"fmt"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/core/domain"
)

// UserService handles user directory operations
type UserService struct {
	users repositories.UserRepository
}

// NewUserService creates a new user service
func NewUserService(users repositories.UserRepository) *UserService {
	return &UserService{users: users}
}

// CreateUserInput represents create user input
type CreateUserInput struct {
	Name  string
	Email string
	Role  string
}

// Create registers a new member. Email must be unique, role must be one of
// the known member types.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if input.Role != models.RoleStudent && input.Role != models.RoleFaculty {
		return nil, fmt.Errorf("%w: role must be 'student' or 'faculty'", domain.ErrInvalidInput)
	}

	user := &models.User{
		Name:  input.Name,
		Email: input.Email,
		Role:  input.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Get retrieves a user by id
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// List returns all registered members
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// UpdateUserInput represents update user input. Nil fields are left untouched.
type UpdateUserInput struct {
	Name  *string
	Email *string
	Role  *string
}

// Update modifies a member's profile
func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Role != nil {
		if *input.Role != models.RoleStudent && *input.Role != models.RoleFaculty {
			return nil, fmt.Errorf("%w: role must be 'student' or 'faculty'", domain.ErrInvalidInput)
		}
		user.Role = *input.Role
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
