// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/Veraticus/finbuddy/internal/storage"
)

// TestDB represents a migrated in-memory database with helpers for seeding it.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// MustCreateUser inserts a user with a throwaway password hash.
func (db *TestDB) MustCreateUser(email string) *model.User {
	db.t.Helper()
	user := &model.User{
		FullName:     "Test User",
		Email:        email,
		Age:          30,
		PasswordHash: "not-a-real-hash",
	}
	if err := db.Storage.CreateUser(context.Background(), user); err != nil {
		db.t.Fatalf("failed to create user %q: %v", email, err)
	}
	return user
}

// MustSaveTransactions inserts transactions for userID and returns them with IDs set.
func (db *TestDB) MustSaveTransactions(userID string, txns ...model.Transaction) []model.Transaction {
	db.t.Helper()
	for i := range txns {
		txns[i].UserID = userID
	}
	if _, err := db.Storage.SaveTransactions(context.Background(), txns); err != nil {
		db.t.Fatalf("failed to save transactions: %v", err)
	}
	return txns
}

// MustCreateGoal inserts a goal for userID.
func (db *TestDB) MustCreateGoal(userID string, goal model.Goal) model.Goal {
	db.t.Helper()
	goal.UserID = userID
	if err := db.Storage.CreateGoal(context.Background(), &goal); err != nil {
		db.t.Fatalf("failed to create goal %q: %v", goal.Name, err)
	}
	return goal
}

// Debit builds a debit transaction dated daysAgo days before now.
func Debit(description string, amount float64, category string, daysAgo int) model.Transaction {
	return fixture(description, amount, category, model.TypeDebit, daysAgo)
}

// Credit builds a credit transaction dated daysAgo days before now.
func Credit(description string, amount float64, category string, daysAgo int) model.Transaction {
	return fixture(description, amount, category, model.TypeCredit, daysAgo)
}

func fixture(description string, amount float64, category string, typ model.TransactionType, daysAgo int) model.Transaction {
	status := model.StatusCategorized
	if category == "" {
		status = model.StatusPending
	}
	return model.Transaction{
		Date:        time.Now().UTC().AddDate(0, 0, -daysAgo),
		Description: description,
		Amount:      amount,
		Type:        typ,
		Category:    category,
		Status:      status,
	}
}
