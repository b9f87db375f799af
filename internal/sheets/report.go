package sheets

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Veraticus/finbuddy/internal/model"
)

// ReportWriter publishes a report somewhere.
type ReportWriter interface {
	Write(ctx context.Context, report *Report) error
}

// Report is everything exported for one user over one period.
type Report struct {
	Since        time.Time
	Until        time.Time
	Owner        string
	Transactions []model.Transaction
	Spending     model.SpendingSummary
	Budget       model.BudgetStatus
}

// Row offsets used by formatting.
const (
	titleRow         = 0
	summaryHeaderRow = 2
)

// Rows lays the report out as sheet values: a title, the totals, the category
// breakdown, then every transaction newest first.
func (r *Report) Rows() [][]any {
	values := make([][]any, 0, 16+len(r.Spending.Categories)+len(r.Transactions))

	values = append(values,
		[]any{
			fmt.Sprintf("FinBuddy Report: %s", r.Owner),
			fmt.Sprintf("%s - %s", r.Since.Format("Jan 2, 2006"), r.Until.Format("Jan 2, 2006")),
		},
		[]any{},
		[]any{"Summary"},
		[]any{"Total Spent", r.Budget.TotalDebits},
		[]any{"Total Income", r.Budget.TotalCredits},
		[]any{"Net", r.Budget.Net},
		[]any{"Savings Rate", fmt.Sprintf("%d%%", r.Budget.SavingsRate)},
		[]any{"Transactions", len(r.Transactions)},
		[]any{},
		[]any{"Category Breakdown"},
		[]any{"Category", "Count", "Amount", "Share"},
	)

	for _, c := range r.Spending.Categories {
		values = append(values, []any{c.Name, c.Count, c.Amount, fmt.Sprintf("%d%%", c.Percentage)})
	}

	values = append(values,
		[]any{},
		[]any{},
		[]any{"Transaction Details"},
		[]any{"Date", "Description", "Type", "Amount", "Category", "Status"},
	)

	txns := append([]model.Transaction(nil), r.Transactions...)
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Date.After(txns[j].Date)
	})
	for _, txn := range txns {
		values = append(values, []any{
			txn.Date.Format(time.DateOnly),
			txn.Description,
			string(txn.Type),
			txn.Amount,
			txn.Category,
			string(txn.Status),
		})
	}

	return values
}
