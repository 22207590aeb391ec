package domain

import "errors"

// Common domain errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternalServer = errors.New("internal server error")
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// Entity lookup errors
var (
	ErrUserNotFound = errors.New("user not found")
	ErrBookNotFound = errors.New("book not found")
	ErrLoanNotFound = errors.New("loan not found")
)

// Loan lifecycle errors
var (
	ErrNoCopiesAvailable     = errors.New("no copies available")
	ErrLoanAlreadyReturned   = errors.New("loan already returned")
	ErrOnlyActiveCanExtend   = errors.New("only active loans can be extended")
	ErrCannotExtendOverdue   = errors.New("cannot extend an overdue loan")
	ErrExtensionLimitReached = errors.New("maximum extension limit (2) reached")
	ErrDueDateNotFuture      = errors.New("due date must be in the future")
	ErrCapacityViolation     = errors.New("available copies would exceed total copies")
)

// ErrUpstreamUnavailable is returned when a dependency service cannot be
// reached after the retry budget is exhausted. Callers wrap it with the
// upstream name, e.g. fmt.Errorf("%w: user service", ErrUpstreamUnavailable).
var ErrUpstreamUnavailable = errors.New("upstream service unavailable")
