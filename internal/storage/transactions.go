package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/Veraticus/finbuddy/internal/common"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/Veraticus/finbuddy/internal/service"
)

var transactionColumns = []string{
	"id", "user_id", "COALESCE(hash, '')", "date", "description", "amount",
	"type", "category", "status", "source", "created_at",
}

// SaveTransactions inserts transactions in one database transaction.
// Rows whose hash already exists are skipped; the number inserted is returned.
// Inserted rows carry their ID afterwards. A skipped row whose ID was generated here
// is left with an empty ID.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransactions(transactions); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for i := range transactions {
		txn := &transactions[i]
		generated := txn.ID == ""
		s.applyTransactionDefaults(txn)

		var hash sql.NullString
		if txn.Hash != "" {
			hash = sql.NullString{String: txn.Hash, Valid: true}
		}

		query, args, buildErr := psql.Insert("transactions").
			Options("OR IGNORE").
			Columns("id", "user_id", "hash", "date", "description", "amount",
				"type", "category", "status", "source", "created_at").
			Values(txn.ID, txn.UserID, hash, txn.Date, txn.Description, txn.Amount,
				string(txn.Type), txn.Category, string(txn.Status), txn.Source, txn.CreatedAt).
			ToSql()
		if buildErr != nil {
			return 0, fmt.Errorf("failed to build insert: %w", buildErr)
		}

		res, execErr := tx.ExecContext(ctx, query, args...)
		if execErr != nil {
			return 0, fmt.Errorf("failed to insert transaction %s: %w", txn.ID, execErr)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		} else if generated {
			txn.ID = ""
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}
	return inserted, nil
}

func (s *SQLiteStorage) applyTransactionDefaults(txn *model.Transaction) {
	if txn.ID == "" {
		txn.ID = s.newID()
	}
	if txn.Status == "" {
		txn.Status = model.StatusPending
	}
	if strings.TrimSpace(txn.Category) == "" {
		txn.Category = model.CategoryOther
	}
	if txn.Source == "" {
		txn.Source = "manual"
	}
	txn.Date = txn.Date.UTC()
	txn.CreatedAt = s.timestamp()
}

// GetTransaction returns one transaction owned by userID.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, userID, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query, args, err := psql.Select(transactionColumns...).
		From("transactions").
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	txn, err := scanTransaction(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// GetTransactions lists transactions matching filter, newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if filter.Since != nil && filter.Until != nil && filter.Until.Before(*filter.Since) {
		return nil, fmt.Errorf("%w: %v is before %v", ErrInvalidDateRange, *filter.Until, *filter.Since)
	}

	builder := psql.Select(transactionColumns...).From("transactions")
	if filter.UserID != "" {
		builder = builder.Where(sq.Eq{"user_id": filter.UserID})
	}
	if filter.Category != "" {
		builder = builder.Where(sq.Eq{"category": filter.Category})
	}
	if filter.Type != "" {
		builder = builder.Where(sq.Eq{"type": string(filter.Type)})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.Since != nil {
		builder = builder.Where(sq.GtOrEq{"date": filter.Since.UTC()})
	}
	if filter.Until != nil {
		builder = builder.Where(sq.LtOrEq{"date": filter.Until.UTC()})
	}
	builder = builder.OrderBy("date DESC", "created_at DESC", "id DESC")
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			builder = builder.Limit(uint64(1<<63 - 1))
		}
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", scanErr)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

// UpdateTransaction applies the non-nil fields to a transaction owned by userID.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, userID, id string, update service.TransactionUpdate) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	set := map[string]any{}
	if update.Date != nil {
		set["date"] = update.Date.UTC()
	}
	if update.Description != nil {
		if strings.TrimSpace(*update.Description) == "" {
			return nil, fmt.Errorf("%w: missing description", ErrInvalidTransaction)
		}
		set["description"] = *update.Description
	}
	if update.Amount != nil {
		if *update.Amount <= 0 {
			return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
		}
		set["amount"] = *update.Amount
	}
	if update.Type != nil {
		if !update.Type.Valid() {
			return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, *update.Type)
		}
		set["type"] = string(*update.Type)
	}
	if update.Category != nil {
		set["category"] = *update.Category
	}
	if update.Status != nil {
		set["status"] = string(*update.Status)
	}

	if len(set) > 0 {
		query, args, err := psql.Update("transactions").
			SetMap(set).
			Where(sq.Eq{"id": id, "user_id": userID}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build update: %w", err)
		}
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update transaction: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
		}
	}

	return s.GetTransaction(ctx, userID, id)
}

// SetTransactionCategory records the categorizer's answer and marks the row categorized.
func (s *SQLiteStorage) SetTransactionCategory(ctx context.Context, id, category string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateString(category, "category"); err != nil {
		return err
	}

	query, args, err := psql.Update("transactions").
		Set("category", category).
		Set("status", string(model.StatusCategorized)).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// DeleteTransaction removes a transaction owned by userID.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	query, args, err := psql.Delete("transactions").Where(sq.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		txn    model.Transaction
		txType string
		status string
	)
	if err := row.Scan(
		&txn.ID, &txn.UserID, &txn.Hash, &txn.Date, &txn.Description, &txn.Amount,
		&txType, &txn.Category, &status, &txn.Source, &txn.CreatedAt,
	); err != nil {
		return nil, err
	}
	txn.Type = model.TransactionType(txType)
	txn.Status = model.TransactionStatus(status)
	return &txn, nil
}
