package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/Veraticus/finbuddy/internal/common"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/Veraticus/finbuddy/internal/service"
)

var goalColumns = []string{
	"id", "user_id", "name", "description", "target_amount", "current_amount", "deadline",
	"category", "priority", "status", "monthly_contribution", "created_at",
}

// CreateGoal inserts a goal. New goals start active unless a status is given.
func (s *SQLiteStorage) CreateGoal(ctx context.Context, goal *model.Goal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateGoal(goal); err != nil {
		return err
	}

	if goal.ID == "" {
		goal.ID = s.newID()
	}
	if goal.Status == "" {
		goal.Status = model.GoalActive
	}
	goal.Deadline = goal.Deadline.UTC()
	goal.CreatedAt = s.timestamp()

	query, args, err := psql.Insert("goals").
		Columns(goalColumns...).
		Values(goal.ID, goal.UserID, goal.Name, goal.Description, goal.TargetAmount, goal.CurrentAmount,
			goal.Deadline, goal.Category, string(goal.Priority), string(goal.Status),
			goal.MonthlyContribution, goal.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}
	return nil
}

// GetGoal returns one goal owned by userID.
func (s *SQLiteStorage) GetGoal(ctx context.Context, userID, id string) (*model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query, args, err := psql.Select(goalColumns...).
		From("goals").
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	goal, err := scanGoal(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("goal %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return goal, nil
}

// GetGoals lists all of a user's goals, newest first.
func (s *SQLiteStorage) GetGoals(ctx context.Context, userID string) ([]model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	query, args, err := psql.Select(goalColumns...).
		From("goals").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var goals []model.Goal
	for rows.Next() {
		goal, scanErr := scanGoal(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", scanErr)
		}
		goals = append(goals, *goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goals: %w", err)
	}
	return goals, nil
}

// UpdateGoal applies the non-nil fields to a goal owned by userID.
func (s *SQLiteStorage) UpdateGoal(ctx context.Context, userID, id string, update service.GoalUpdate) (*model.Goal, error) {
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
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.TargetAmount != nil {
		if *update.TargetAmount <= 0 {
			return nil, fmt.Errorf("%w: target amount must be positive", ErrInvalidGoal)
		}
		set["target_amount"] = *update.TargetAmount
	}
	if update.CurrentAmount != nil {
		if *update.CurrentAmount < 0 {
			return nil, fmt.Errorf("%w: current amount cannot be negative", ErrInvalidGoal)
		}
		set["current_amount"] = *update.CurrentAmount
	}
	if update.Deadline != nil {
		set["deadline"] = update.Deadline.UTC()
	}
	if update.Category != nil {
		set["category"] = *update.Category
	}
	if update.Priority != nil {
		if !update.Priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidGoal, *update.Priority)
		}
		set["priority"] = string(*update.Priority)
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidGoal, *update.Status)
		}
		set["status"] = string(*update.Status)
	}
	if update.MonthlyContribution != nil {
		set["monthly_contribution"] = *update.MonthlyContribution
	}

	if len(set) > 0 {
		query, args, err := psql.Update("goals").
			SetMap(set).
			Where(sq.Eq{"id": id, "user_id": userID}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build update: %w", err)
		}
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update goal: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, fmt.Errorf("goal %s: %w", id, common.ErrNotFound)
		}
	}

	return s.GetGoal(ctx, userID, id)
}

// DeleteGoal removes a goal owned by userID.
func (s *SQLiteStorage) DeleteGoal(ctx context.Context, userID, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	query, args, err := psql.Delete("goals").Where(sq.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("goal %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func scanGoal(row rowScanner) (*model.Goal, error) {
	var (
		g        model.Goal
		priority string
		status   string
	)
	if err := row.Scan(
		&g.ID, &g.UserID, &g.Name, &g.Description, &g.TargetAmount, &g.CurrentAmount, &g.Deadline,
		&g.Category, &priority, &status, &g.MonthlyContribution, &g.CreatedAt,
	); err != nil {
		return nil, err
	}
	g.Priority = model.GoalPriority(priority)
	g.Status = model.GoalStatus(status)
	return &g, nil
}
