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

var userColumns = []string{
	"id", "full_name", "email", "password_hash", "age", "currency", "timezone", "created_at",
}

// CreateUser inserts a new user. Emails are unique ignoring case.
func (s *SQLiteStorage) CreateUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUser(user); err != nil {
		return err
	}

	if user.ID == "" {
		user.ID = s.newID()
	}
	if user.Currency == "" {
		user.Currency = model.DefaultCurrency
	}
	if user.Timezone == "" {
		user.Timezone = model.DefaultTimezone
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = s.timestamp()

	query, args, err := psql.Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.FullName, user.Email, user.PasswordHash, user.Age,
			user.Currency, user.Timezone, user.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", user.Email, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByID looks a user up by identifier.
func (s *SQLiteStorage) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getUser(ctx, sq.Eq{"id": id})
}

// GetUserByEmail looks a user up by email, ignoring case.
func (s *SQLiteStorage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(email, "email"); err != nil {
		return nil, err
	}
	return s.getUser(ctx, sq.Eq{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *SQLiteStorage) getUser(ctx context.Context, where sq.Sqlizer) (*model.User, error) {
	query, args, err := psql.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var u model.User
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Age, &u.Currency, &u.Timezone, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// UpdateUser applies the non-nil profile fields and returns the stored user.
func (s *SQLiteStorage) UpdateUser(ctx context.Context, id string, update service.UserUpdate) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	set := map[string]any{}
	if update.FullName != nil {
		set["full_name"] = strings.TrimSpace(*update.FullName)
	}
	if update.Age != nil {
		set["age"] = *update.Age
	}
	if update.Currency != nil {
		set["currency"] = *update.Currency
	}
	if update.Timezone != nil {
		set["timezone"] = *update.Timezone
	}

	if len(set) > 0 {
		query, args, err := psql.Update("users").SetMap(set).Where(sq.Eq{"id": id}).ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build update: %w", err)
		}
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, fmt.Errorf("user: %w", common.ErrNotFound)
		}
	}

	return s.GetUserByID(ctx, id)
}

// CountUsers returns the number of registered users.
func (s *SQLiteStorage) CountUsers(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
