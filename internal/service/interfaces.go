// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/finbuddy/internal/model"
)

// DefaultTransactionLimit caps list queries that do not set a limit.
const DefaultTransactionLimit = 100

// TransactionFilter defines filtering options for transaction queries.
// Results are always ordered newest first.
type TransactionFilter struct {
	Since    *time.Time
	Until    *time.Time
	UserID   string
	Category string
	Type     model.TransactionType
	Status   model.TransactionStatus
	Limit    int // zero means no limit
	Offset   int
}

// TransactionUpdate holds the fields a caller wants to change. Nil fields are left alone.
type TransactionUpdate struct {
	Date        *time.Time
	Description *string
	Amount      *float64
	Type        *model.TransactionType
	Category    *string
	Status      *model.TransactionStatus
}

// GoalUpdate holds the goal fields a caller wants to change.
type GoalUpdate struct {
	Deadline            *time.Time
	Name                *string
	Description         *string
	Category            *string
	Priority            *model.GoalPriority
	Status              *model.GoalStatus
	TargetAmount        *float64
	CurrentAmount       *float64
	MonthlyContribution *float64
}

// UserUpdate holds the profile fields a user may change.
type UserUpdate struct {
	FullName *string
	Currency *string
	Timezone *string
	Age      *int
}

// UserStore persists account holders.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, update UserUpdate) (*model.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// TransactionStore persists transactions. Every lookup is scoped to an owner.
type TransactionStore interface {
	// SaveTransactions inserts rows, skipping duplicates by hash, and reports how many were new.
	SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
	GetTransaction(ctx context.Context, userID, id string) (*model.Transaction, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id string, update TransactionUpdate) (*model.Transaction, error)
	SetTransactionCategory(ctx context.Context, id, category string) error
	DeleteTransaction(ctx context.Context, userID, id string) error
}

// GoalStore persists savings goals.
type GoalStore interface {
	CreateGoal(ctx context.Context, goal *model.Goal) error
	GetGoal(ctx context.Context, userID, id string) (*model.Goal, error)
	GetGoals(ctx context.Context, userID string) ([]model.Goal, error)
	UpdateGoal(ctx context.Context, userID, id string, update GoalUpdate) (*model.Goal, error)
	DeleteGoal(ctx context.Context, userID, id string) error
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	UserStore
	TransactionStore
	GoalStore

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
