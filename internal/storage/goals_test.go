package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/finbuddy/internal/common"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/Veraticus/finbuddy/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoal(userID, name string) *model.Goal {
	return &model.Goal{
		UserID:              userID,
		Name:                name,
		Description:         "Save up",
		TargetAmount:        100000,
		CurrentAmount:       25000,
		Deadline:            day(28).AddDate(1, 0, 0),
		Category:            "Travel",
		Priority:            model.PriorityHigh,
		MonthlyContribution: 5000,
	}
}

func TestGoals_CRUD(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	user := createTestUser(t, store, "a@example.com")
	other := createTestUser(t, store, "b@example.com")

	trip := newGoal(user.ID, "Goa trip")
	require.NoError(t, store.CreateGoal(ctx, trip))
	assert.NotEmpty(t, trip.ID)
	assert.Equal(t, model.GoalActive, trip.Status)

	laptop := newGoal(user.ID, "Laptop")
	laptop.Status = model.GoalPaused
	require.NoError(t, store.CreateGoal(ctx, laptop))

	goals, err := store.GetGoals(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, "Laptop", goals[0].Name, "newest first")

	none, err := store.GetGoals(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	got, err := store.GetGoal(ctx, user.ID, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityHigh, got.Priority)
	assert.True(t, got.Deadline.Equal(trip.Deadline))

	_, err = store.GetGoal(ctx, other.ID, trip.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	current := 40000.0
	status := model.GoalCompleted
	updated, err := store.UpdateGoal(ctx, user.ID, trip.ID, service.GoalUpdate{CurrentAmount: &current, Status: &status})
	require.NoError(t, err)
	assert.InDelta(t, 40000, updated.CurrentAmount, 0.001)
	assert.Equal(t, model.GoalCompleted, updated.Status)

	bad := model.GoalStatus("archived")
	_, err = store.UpdateGoal(ctx, user.ID, trip.ID, service.GoalUpdate{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidGoal)

	require.NoError(t, store.DeleteGoal(ctx, user.ID, trip.ID))
	assert.ErrorIs(t, store.DeleteGoal(ctx, user.ID, trip.ID), common.ErrNotFound)
}

func TestCreateGoal_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	user := createTestUser(t, store, "a@example.com")

	tests := []struct {
		mutate func(*model.Goal)
		name   string
	}{
		{name: "no name", mutate: func(g *model.Goal) { g.Name = "" }},
		{name: "zero target", mutate: func(g *model.Goal) { g.TargetAmount = 0 }},
		{name: "negative current", mutate: func(g *model.Goal) { g.CurrentAmount = -1 }},
		{name: "bad priority", mutate: func(g *model.Goal) { g.Priority = "urgent" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal := newGoal(user.ID, "Car")
			tt.mutate(goal)
			assert.ErrorIs(t, store.CreateGoal(ctx, goal), ErrInvalidGoal)
		})
	}
}
