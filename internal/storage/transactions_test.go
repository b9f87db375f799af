package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/finbuddy/internal/common"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/Veraticus/finbuddy/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 10, 0, 0, 0, time.UTC)
}

func seedTransactions(t *testing.T, store *SQLiteStorage, userID string) []model.Transaction {
	t.Helper()
	txns := []model.Transaction{
		{UserID: userID, Date: day(1), Description: "Salary March", Amount: 50000, Type: model.TypeCredit, Category: model.CategoryIncome, Status: model.StatusCategorized},
		{UserID: userID, Date: day(3), Description: "Swiggy dinner", Amount: 450, Type: model.TypeDebit, Category: model.CategoryFoodDining, Status: model.StatusCategorized},
		{UserID: userID, Date: day(5), Description: "Uber to office", Amount: 220, Type: model.TypeDebit, Category: model.CategoryTransportation, Status: model.StatusCategorized},
		{UserID: userID, Date: day(7), Description: "Mystery shop", Amount: 999, Type: model.TypeDebit},
	}
	n, err := store.SaveTransactions(context.Background(), txns)
	require.NoError(t, err)
	require.Equal(t, len(txns), n)
	return txns
}

func TestSaveTransactions_Defaults(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	user := createTestUser(t, store, "a@example.com")

	txns := seedTransactions(t, store, user.ID)

	pending := txns[3]
	assert.NotEmpty(t, pending.ID)

	got, err := store.GetTransaction(ctx, user.ID, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, model.CategoryOther, got.Category)
	assert.Equal(t, "manual", got.Source)
	assert.True(t, got.Date.Equal(day(7)))
	assert.InDelta(t, 999, got.Amount, 0.001)
}

func TestSaveTransactions_SkipsDuplicateHashes(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	user := createTestUser(t, store, "a@example.com")

	build := func() []model.Transaction {
		txn := model.Transaction{UserID: user.ID, Date: day(2), Description: "Netflix", Amount: 649, Type: model.TypeDebit, Source: "csv"}
		txn.Hash = txn.GenerateHash()
		return []model.Transaction{txn}
	}

	first := build()
	n, err := store.SaveTransactions(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NotEmpty(t, first[0].ID)

	again := build()
	n, err = store.SaveTransactions(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, again[0].ID, "skipped rows do not keep a generated ID")

	all, err := store.GetTransactions(ctx, service.TransactionFilter{UserID: user.ID})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSaveTransactions_ManualEntriesAreNotDeduplicated(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	user := createTestUser(t, store, "a@example.com")

	txn := model.Transaction{UserID: user.ID, Date: day(2), Description: "Chai", Amount: 20, Type: model.TypeDebit}
	_, err := store.SaveTransactions(ctx, []model.Transaction{txn})
	require.NoError(t, err)
	_, err = store.SaveTransactions(ctx, []model.Transaction{txn})
	require.NoError(t, err)

	all, err := store.GetTransactions(ctx, service.TransactionFilter{UserID: user.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetTransactions_Filters(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	user := createTestUser(t, store, "a@example.com")
	other := createTestUser(t, store, "b@example.com")
	seedTransactions(t, store, user.ID)
	seedTransactions(t, store, other.ID)

	since := day(3)
	until := day(5)

	tests := []struct {
		name      string
		filter    service.TransactionFilter
		wantDescs []string
	}{
		{
			name:      "all newest first",
			filter:    service.TransactionFilter{UserID: user.ID},
			wantDescs: []string{"Mystery shop", "Uber to office", "Swiggy dinner", "Salary March"},
		},
		{
			name:      "by type",
			filter:    service.TransactionFilter{UserID: user.ID, Type: model.TypeCredit},
			wantDescs: []string{"Salary March"},
		},
		{
			name:      "by category",
			filter:    service.TransactionFilter{UserID: user.ID, Category: model.CategoryFoodDining},
			wantDescs: []string{"Swiggy dinner"},
		},
		{
			name:      "by status",
			filter:    service.TransactionFilter{UserID: user.ID, Status: model.StatusPending},
			wantDescs: []string{"Mystery shop"},
		},
		{
			name:      "date window",
			filter:    service.TransactionFilter{UserID: user.ID, Since: &since, Until: &until},
			wantDescs: []string{"Uber to office", "Swiggy dinner"},
		},
		{
			name:      "limit and offset",
			filter:    service.TransactionFilter{UserID: user.ID, Limit: 2, Offset: 1},
			wantDescs: []string{"Uber to office", "Swiggy dinner"},
		},
		{
			name:      "offset without limit",
			filter:    service.TransactionFilter{UserID: user.ID, Offset: 3},
			wantDescs: []string{"Salary March"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.GetTransactions(ctx, tt.filter)
			require.NoError(t, err)

			descs := make([]string, 0, len(got))
			for _, txn := range got {
				assert.Equal(t, user.ID, txn.UserID)
				descs = append(descs, txn.Description)
			}
			assert.Equal(t, tt.wantDescs, descs)
		})
	}

	t.Run("inverted range", func(t *testing.T) {
		_, err := store.GetTransactions(ctx, service.TransactionFilter{Since: &until, Until: &since})
		assert.ErrorIs(t, err, ErrInvalidDateRange)
	})
}

func TestUpdateTransaction(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	user := createTestUser(t, store, "a@example.com")
	other := createTestUser(t, store, "b@example.com")
	txns := seedTransactions(t, store, user.ID)
	target := txns[1]

	amount := 500.0
	category := model.CategoryEntertainment
	updated, err := store.UpdateTransaction(ctx, user.ID, target.ID, service.TransactionUpdate{Amount: &amount, Category: &category})
	require.NoError(t, err)
	assert.InDelta(t, 500, updated.Amount, 0.001)
	assert.Equal(t, model.CategoryEntertainment, updated.Category)
	assert.Equal(t, "Swiggy dinner", updated.Description)

	t.Run("other owner cannot update", func(t *testing.T) {
		_, err := store.UpdateTransaction(ctx, other.ID, target.ID, service.TransactionUpdate{Amount: &amount})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		zero := 0.0
		_, err := store.UpdateTransaction(ctx, user.ID, target.ID, service.TransactionUpdate{Amount: &zero})
		assert.ErrorIs(t, err, ErrInvalidTransaction)
	})

	t.Run("empty update returns current row", func(t *testing.T) {
		got, err := store.UpdateTransaction(ctx, user.ID, target.ID, service.TransactionUpdate{})
		require.NoError(t, err)
		assert.Equal(t, target.ID, got.ID)
	})
}

func TestSetTransactionCategory(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	user := createTestUser(t, store, "a@example.com")
	txns := seedTransactions(t, store, user.ID)

	require.NoError(t, store.SetTransactionCategory(ctx, txns[3].ID, model.CategoryShopping))

	got, err := store.GetTransaction(ctx, user.ID, txns[3].ID)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryShopping, got.Category)
	assert.Equal(t, model.StatusCategorized, got.Status)

	assert.ErrorIs(t, store.SetTransactionCategory(ctx, "missing", model.CategoryShopping), common.ErrNotFound)
}

func TestDeleteTransaction(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	user := createTestUser(t, store, "a@example.com")
	other := createTestUser(t, store, "b@example.com")
	txns := seedTransactions(t, store, user.ID)

	assert.ErrorIs(t, store.DeleteTransaction(ctx, other.ID, txns[0].ID), common.ErrNotFound)
	require.NoError(t, store.DeleteTransaction(ctx, user.ID, txns[0].ID))

	_, err := store.GetTransaction(ctx, user.ID, txns[0].ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, store.DeleteTransaction(ctx, user.ID, txns[0].ID), common.ErrNotFound)
}
