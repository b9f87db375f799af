package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/finbuddy/internal/common"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/Veraticus/finbuddy/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func createTestUser(t *testing.T, store *SQLiteStorage, email string) *model.User {
	t.Helper()
	user := &model.User{
		FullName:     "Asha Rao",
		Email:        email,
		Age:          29,
		PasswordHash: "$2a$12$hash",
	}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := NewSQLiteStorage("")
		assert.ErrorIs(t, err, ErrEmptyString)
	})

	t.Run("creates nested directory", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "a", "b", "finbuddy.db")
		store, err := NewSQLiteStorage(dbPath)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		assert.Equal(t, dbPath, store.Path())
	})

	t.Run("in memory", func(t *testing.T) {
		store, err := NewSQLiteStorage(":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		require.NoError(t, store.Migrate(context.Background()))
	})
}

func TestMigrate_Idempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	require.NoError(t, store.Migrate(context.Background()))

	version, err := store.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestMigrate_NilContext(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	//nolint:staticcheck // testing nil context handling
	assert.ErrorIs(t, store.Migrate(nil), ErrNilContext)
}

func TestUsers(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	user := createTestUser(t, store, "Asha@Example.com")
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.Equal(t, model.DefaultCurrency, user.Currency)
	assert.Equal(t, model.DefaultTimezone, user.Timezone)

	t.Run("duplicate email ignoring case", func(t *testing.T) {
		dup := &model.User{FullName: "Other", Email: "ASHA@example.com", Age: 40, PasswordHash: "x"}
		err := store.CreateUser(ctx, dup)
		assert.ErrorIs(t, err, common.ErrDuplicateEntry)
	})

	t.Run("lookup by email and id", func(t *testing.T) {
		byEmail, err := store.GetUserByEmail(ctx, " asha@EXAMPLE.com ")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
		assert.Equal(t, "$2a$12$hash", byEmail.PasswordHash)

		byID, err := store.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Asha Rao", byID.FullName)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := store.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("partial update", func(t *testing.T) {
		name := "Asha R."
		currency := "USD"
		updated, err := store.UpdateUser(ctx, user.ID, service.UserUpdate{FullName: &name, Currency: &currency})
		require.NoError(t, err)
		assert.Equal(t, "Asha R.", updated.FullName)
		assert.Equal(t, "USD", updated.Currency)
		assert.Equal(t, 29, updated.Age)
		assert.Equal(t, model.DefaultTimezone, updated.Timezone)
	})

	t.Run("count", func(t *testing.T) {
		count, err := store.CountUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestValidateTransaction(t *testing.T) {
	valid := model.Transaction{
		UserID:      "u1",
		Date:        time.Now(),
		Description: "Uber ride",
		Amount:      120,
		Type:        model.TypeDebit,
	}

	tests := []struct {
		mutate func(*model.Transaction)
		name   string
	}{
		{name: "missing user", mutate: func(tx *model.Transaction) { tx.UserID = "" }},
		{name: "missing date", mutate: func(tx *model.Transaction) { tx.Date = time.Time{} }},
		{name: "blank description", mutate: func(tx *model.Transaction) { tx.Description = "   " }},
		{name: "zero amount", mutate: func(tx *model.Transaction) { tx.Amount = 0 }},
		{name: "negative amount", mutate: func(tx *model.Transaction) { tx.Amount = -5 }},
		{name: "bad type", mutate: func(tx *model.Transaction) { tx.Type = "refund" }},
		{name: "bad status", mutate: func(tx *model.Transaction) { tx.Status = "done" }},
	}

	require.NoError(t, validateTransaction(&valid))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := valid
			tt.mutate(&txn)
			assert.ErrorIs(t, validateTransaction(&txn), ErrInvalidTransaction)
		})
	}

	assert.ErrorIs(t, validateTransactions(nil), ErrNilParameter)
	assert.ErrorIs(t, validateTransactions([]model.Transaction{}), ErrEmptySlice)
}
