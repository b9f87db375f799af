package plaid

import (
	"context"
	"time"

	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/plaid/plaid-go/v20/plaid"
)

// TransactionFetcher pulls bank transactions for one user over a date range.
type TransactionFetcher interface {
	FetchTransactions(ctx context.Context, userID string, start, end time.Time) ([]model.Transaction, error)
}

// transactionsAPI is the slice of the Plaid API the client pages through.
type transactionsAPI interface {
	TransactionsPage(ctx context.Context, start, end time.Time, offset, count int32) ([]plaid.Transaction, int32, error)
}
