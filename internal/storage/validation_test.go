package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNilContext)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	assert.NoError(t, validateString("finbuddy.db", "dbPath"))
	assert.NoError(t, validateString("  padded  ", "dbPath"))
	assert.ErrorIs(t, validateString("", "dbPath"), ErrEmptyString)
	assert.ErrorIs(t, validateString("   ", "dbPath"), ErrEmptyString)
}

func TestValidateGoal(t *testing.T) {
	valid := model.Goal{
		UserID:       "u1",
		Name:         "Emergency fund",
		TargetAmount: 100000,
		Deadline:     time.Now().AddDate(1, 0, 0),
		Priority:     model.PriorityHigh,
	}

	tests := []struct {
		mutate func(*model.Goal)
		name   string
	}{
		{name: "missing user", mutate: func(g *model.Goal) { g.UserID = "" }},
		{name: "blank name", mutate: func(g *model.Goal) { g.Name = "  " }},
		{name: "zero target", mutate: func(g *model.Goal) { g.TargetAmount = 0 }},
		{name: "negative current", mutate: func(g *model.Goal) { g.CurrentAmount = -1 }},
		{name: "missing deadline", mutate: func(g *model.Goal) { g.Deadline = time.Time{} }},
		{name: "bad priority", mutate: func(g *model.Goal) { g.Priority = "urgent" }},
		{name: "bad status", mutate: func(g *model.Goal) { g.Status = "archived" }},
	}

	require.NoError(t, validateGoal(&valid))
	assert.ErrorIs(t, validateGoal(nil), ErrNilParameter)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal := valid
			tt.mutate(&goal)
			assert.ErrorIs(t, validateGoal(&goal), ErrInvalidGoal)
		})
	}
}

func TestValidateUser(t *testing.T) {
	valid := model.User{FullName: "Asha Rao", Email: "asha@example.com", PasswordHash: "hash"}
	require.NoError(t, validateUser(&valid))
	assert.ErrorIs(t, validateUser(nil), ErrNilParameter)

	noName := valid
	noName.FullName = " "
	assert.ErrorIs(t, validateUser(&noName), ErrInvalidUser)

	noEmail := valid
	noEmail.Email = ""
	assert.ErrorIs(t, validateUser(&noEmail), ErrInvalidUser)

	noHash := valid
	noHash.PasswordHash = ""
	assert.ErrorIs(t, validateUser(&noHash), ErrInvalidUser)
}
