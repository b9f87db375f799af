package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/finbuddy/internal/llm"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	intentMarker  = "Classify the user's request"
	generalMarker = "Answer this question"
)

func snapshot() ([]model.Transaction, []model.Goal) {
	txns := []model.Transaction{
		debit("Food", 300),
		debit("Food", 200),
		credit("Income", 1000),
	}
	goals := []model.Goal{
		{Name: "House", TargetAmount: 300000, CurrentAmount: 150000, Status: model.GoalActive, MonthlyContribution: 10000},
		{Name: "Phone", TargetAmount: 50000, CurrentAmount: 50000, Status: model.GoalCompleted},
	}
	return txns, goals
}

func TestAssistant_Query_Intents(t *testing.T) {
	txns, goals := snapshot()

	tests := []struct {
		check       func(t *testing.T, env model.Envelope)
		name        string
		intentReply string
		wantKind    model.PayloadKind
	}{
		{
			name:        "spending summary",
			intentReply: "spending_summary",
			wantKind:    model.KindSpendingSummary,
			check: func(t *testing.T, env model.Envelope) {
				summary, ok := env.Data.(model.SpendingSummary)
				require.True(t, ok)
				assert.InDelta(t, 500, summary.TotalSpent, 0.001)
				require.Len(t, summary.Categories, 1)
				assert.Equal(t, 100, summary.Categories[0].Percentage)
				assert.Equal(t, "Here's your spending summary. You've spent ₹500 in the last 30 days across 1 categories.", env.Message)
			},
		},
		{
			name:        "goal progress",
			intentReply: "Goal_Progress\n",
			wantKind:    model.KindGoalProgress,
			check: func(t *testing.T, env model.Envelope) {
				progress, ok := env.Data.(model.GoalProgress)
				require.True(t, ok)
				assert.Equal(t, 1, progress.ActiveCount)
				require.Len(t, progress.Goals, 1)
				assert.Equal(t, 50, progress.Goals[0].Progress)
				assert.InDelta(t, 150000, progress.Goals[0].Remaining, 0.001)
				assert.Equal(t, "You have 1 active goals. Here's your progress overview.", env.Message)
			},
		},
		{
			name:        "savings tips",
			intentReply: `"savings_tips"`,
			wantKind:    model.KindSavingsTips,
			check: func(t *testing.T, env model.Envelope) {
				tips, ok := env.Data.(model.SavingsTips)
				require.True(t, ok)
				assert.NotEmpty(t, tips.Tips)
			},
		},
		{
			name:        "budget status",
			intentReply: "budget_status",
			wantKind:    model.KindBudgetStatus,
			check: func(t *testing.T, env model.Envelope) {
				status, ok := env.Data.(model.BudgetStatus)
				require.True(t, ok)
				assert.Equal(t, 50, status.SavingsRate)
				assert.InDelta(t, 10000, status.MonthlyGoalCommitment, 0.001)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := llm.NewMockClient("").On(intentMarker, tt.intentReply)
			a := New(client, nil)

			env := a.Query(context.Background(), "tell me something", txns, goals)
			require.NotNil(t, env.Data)
			assert.Equal(t, tt.wantKind, env.Data.Kind())
			assert.False(t, env.IsDegraded())
			assert.Len(t, env.Suggestions, 3)
			assert.Equal(t, 1, client.Calls(), "structured intents need only the classification call")
			tt.check(t, env)
		})
	}
}

func TestAssistant_Query_GeneralQuery(t *testing.T) {
	client := llm.NewMockClient("").
		On(intentMarker, "general_query").
		On(generalMarker, "  An SIP is a systematic investment plan.  ")
	a := New(client, nil)

	env := a.Query(context.Background(), "what is an SIP?", nil, nil)
	assert.Equal(t, model.KindGeneral, env.Data.Kind())
	assert.Equal(t, "An SIP is a systematic investment plan.", env.Message)
	assert.Equal(t, DefaultSuggestions(), env.Suggestions)

	prompts := client.Prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], "User request: 'what is an SIP?'")
	assert.Contains(t, prompts[1], `Answer this question: "what is an SIP?"`)
}

func TestAssistant_Query_UnknownIntentFallsThroughToGeneral(t *testing.T) {
	client := llm.NewMockClient("").
		On(intentMarker, "weather_forecast").
		On(generalMarker, "I can only help with your finances.")

	env := New(client, nil).Query(context.Background(), "will it rain?", nil, nil)
	assert.Equal(t, model.KindGeneral, env.Data.Kind())
	assert.Equal(t, "I can only help with your finances.", env.Message)
	assert.Equal(t, 2, client.Calls())
}

func assertDegraded(t *testing.T, env model.Envelope) {
	t.Helper()
	assert.True(t, env.IsDegraded())
	assert.Equal(t, "I'm having trouble processing your request right now. Please try again later.", env.Message)
	assert.Equal(t, []string{
		"How can I save more money?",
		"Show my spending trends",
		"What are my biggest expenses?",
	}, env.Suggestions)
}

func TestAssistant_Query_IntentFailureDegrades(t *testing.T) {
	txns, goals := snapshot()
	client := llm.NewMockClient("").OnError(intentMarker, errors.New("connection refused"))

	env := New(client, nil).Query(context.Background(), "how much did I spend?", txns, goals)
	assertDegraded(t, env)
	assert.Equal(t, 1, client.Calls())
}

func TestAssistant_Query_GeneralFailureDegrades(t *testing.T) {
	client := llm.NewMockClient("").
		On(intentMarker, "general_query").
		OnError(generalMarker, errors.New("model overloaded"))

	assertDegraded(t, New(client, nil).Query(context.Background(), "hello", nil, nil))
}

func TestAssistant_Query_EmptyGeneralAnswerDegrades(t *testing.T) {
	client := llm.NewMockClient("").
		On(intentMarker, "general_query").
		On(generalMarker, "   ")

	assertDegraded(t, New(client, nil).Query(context.Background(), "hello", nil, nil))
}

func TestAssistant_Query_BlankMessageDegrades(t *testing.T) {
	client := llm.NewMockClient("spending_summary")

	assertDegraded(t, New(client, nil).Query(context.Background(), "   ", nil, nil))
	assert.Zero(t, client.Calls())
}

func TestAssistant_Query_CanceledContextDegrades(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assertDegraded(t, New(llm.NewMockClient("spending_summary"), nil).Query(ctx, "summary", nil, nil))
}

type panicClient struct{}

func (panicClient) Generate(context.Context, string) (string, error) {
	panic("boom")
}

func TestAssistant_Query_RecoversFromPanic(t *testing.T) {
	assertDegraded(t, New(panicClient{}, nil).Query(context.Background(), "summary", nil, nil))
}

func TestAssistant_Query_EnvelopeJSON(t *testing.T) {
	txns, goals := snapshot()
	client := llm.NewMockClient("").On(intentMarker, "spending_summary")

	env := New(client, nil).Query(context.Background(), "summary please", txns, goals)
	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded struct {
		Data struct {
			Type       string  `json:"type"`
			TotalSpent float64 `json:"totalSpent"`
		} `json:"data"`
		Message     string   `json:"message"`
		Suggestions []string `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "spending_summary", decoded.Data.Type)
	assert.InDelta(t, 500, decoded.Data.TotalSpent, 0.001)
	assert.Len(t, decoded.Suggestions, 3)
}

func TestIntentClassifier_Classify(t *testing.T) {
	tests := []struct {
		reply string
		want  model.Intent
	}{
		{"spending_summary", model.IntentSpendingSummary},
		{"  BUDGET_STATUS  ", model.IntentBudgetStatus},
		{"'goal_progress'", model.IntentGoalProgress},
		{"savings tips", model.IntentSavingsTips},
		{"something else", model.IntentGeneralQuery},
		{"", model.IntentGeneralQuery},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			got, err := NewIntentClassifier(llm.NewMockClient(tt.reply), nil).Classify(context.Background(), "question")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntentClassifier_PropagatesClientError(t *testing.T) {
	sentinel := errors.New("rate limited")
	_, err := NewIntentClassifier(&llm.MockClient{Err: sentinel}, nil).Classify(context.Background(), "question")
	assert.ErrorIs(t, err, sentinel)
}

func TestIntentClassifier_UnknownReplyIsNotCached(t *testing.T) {
	client := llm.NewMockClient("").Queue("weather_report", "goal_progress")
	gateway := llm.NewGateway(client, llm.Config{CacheTTL: time.Hour}, nil)
	defer func() { _ = gateway.Close() }()

	classifier := NewIntentClassifier(gateway, nil)

	got, err := classifier.Classify(context.Background(), "how are my goals?")
	require.NoError(t, err)
	assert.Equal(t, model.IntentGeneralQuery, got)

	got, err = classifier.Classify(context.Background(), "how are my goals?")
	require.NoError(t, err)
	assert.Equal(t, model.IntentGoalProgress, got)
	assert.Equal(t, 2, client.Calls())
}

func TestAssistant_Query_SummaryDescribesWindow(t *testing.T) {
	client := llm.NewMockClient("").On(intentMarker, "spending_summary")
	txns, goals := snapshot()

	env := New(client, nil, WithWindowDays(7)).Query(context.Background(), "what did I spend?", txns, goals)
	assert.Contains(t, env.Message, "in the last 7 days")
}
