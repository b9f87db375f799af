package engine

import (
	"context"

	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/Veraticus/finbuddy/internal/service"
)

// Classifier assigns a category to one description and never fails.
type Classifier interface {
	Categorize(ctx context.Context, description string) model.ClassificationResult
}

// Store is the slice of persistence the engine needs.
type Store interface {
	GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error)
	SetTransactionCategory(ctx context.Context, id, category string) error
}

// ProgressFunc is called after each description group is finished.
type ProgressFunc func(done, total int)
