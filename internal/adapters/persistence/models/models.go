package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ============================================================
// Book
// ============================================================

// Book represents books table. AvailableCopies is a cached counter
// maintained exclusively through the loan lifecycle; it is never written
// directly by client updates.
type Book struct {
	ID              string    `gorm:"type:char(36);primaryKey" json:"id"`
	Title           string    `gorm:"size:255;not null" json:"title"`
	Author          string    `gorm:"size:255;not null" json:"author"`
	ISBN            string    `gorm:"size:20;uniqueIndex;not null" json:"isbn"`
	Genre           string    `gorm:"size:100" json:"genre"`
	Copies          int       `gorm:"not null" json:"copies"`
	AvailableCopies int       `gorm:"not null" json:"available_copies"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// ============================================================
// User
// ============================================================

// User roles
const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
)

// User represents users table
type User struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:20;not null" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// ============================================================
// Loan
// ============================================================

// Loan statuses
const (
	LoanStatusActive   = "ACTIVE"
	LoanStatusReturned = "RETURNED"
)

// MaxExtensions caps how many times a single loan may be extended.
const MaxExtensions = 2

// Loan represents loans table
type Loan struct {
	ID              string     `gorm:"type:char(36);primaryKey" json:"id"`
	UserID          string     `gorm:"type:char(36);not null;index" json:"user_id"`
	BookID          string     `gorm:"type:char(36);not null;index" json:"book_id"`
	IssueDate       time.Time  `gorm:"not null" json:"issue_date"`
	DueDate         time.Time  `gorm:"not null" json:"due_date"`
	ReturnDate      *time.Time `json:"return_date"`
	Status          string     `gorm:"size:20;not null;default:'ACTIVE';index" json:"status"`
	ExtensionsCount int        `gorm:"not null;default:0" json:"extensions_count"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string {
	return "loans"
}

func (l *Loan) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// IsOverdue reports whether the loan is active and past its due date.
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.Status == LoanStatusActive && l.DueDate.Before(now)
}

// LoanResponse DTO — the full loan representation returned by the API.
type LoanResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	BookID          string     `json:"book_id"`
	IssueDate       time.Time  `json:"issue_date"`
	DueDate         time.Time  `json:"due_date"`
	ReturnDate      *time.Time `json:"return_date"`
	Status          string     `json:"status"`
	ExtensionsCount int        `json:"extensions_count"`
	Overdue         bool       `json:"overdue"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (l *Loan) ToResponse(now time.Time) *LoanResponse {
	return &LoanResponse{
		ID:              l.ID,
		UserID:          l.UserID,
		BookID:          l.BookID,
		IssueDate:       l.IssueDate,
		DueDate:         l.DueDate,
		ReturnDate:      l.ReturnDate,
		Status:          l.Status,
		ExtensionsCount: l.ExtensionsCount,
		Overdue:         l.IsOverdue(now),
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

// ============================================================
// LoanIntent
// ============================================================

// LoanIntent statuses
const (
	IntentStatusPending    = "PENDING"
	IntentStatusCompleted  = "COMPLETED"
	IntentStatusReconciled = "RECONCILED"
)

// LoanIntent is a durable record written before the inventory decrement of a
// loan creation. A PENDING intent older than the expiry window marks an
// orphaned decrement (inventory adjusted, loan row never written) and is
// picked up by the reconciliation job.
type LoanIntent struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:char(36);not null" json:"user_id"`
	BookID    string    `gorm:"type:char(36);not null;index" json:"book_id"`
	DueDate   time.Time `gorm:"not null" json:"due_date"`
	Status    string    `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (LoanIntent) TableName() string {
	return "loan_intents"
}

func (i *LoanIntent) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Book{},
		&User{},
		&Loan{},
		&LoanIntent{},
	)
}
