// Package assistant answers chat questions about a user's transactions and goals.
//
// A message is first mapped to an intent by the language model. Structured
// intents are answered from the snapshot the caller supplies; anything else is
// handed back to the model as a free-form question. Every failure collapses into
// a fixed apology envelope so callers never see an error.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/finbuddy/internal/llm"
	"github.com/Veraticus/finbuddy/internal/model"
)

// ApologyMessage is the message of every degraded reply.
const ApologyMessage = "I'm having trouble processing your request right now. Please try again later."

var (
	// ErrEmptyMessage is returned for blank questions.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrEmptyAnswer is returned when the model replies with no text.
	ErrEmptyAnswer = errors.New("model returned an empty answer")
)

// DefaultSuggestions returns the follow-up prompts offered with degraded and general replies.
func DefaultSuggestions() []string {
	return []string{
		"How can I save more money?",
		"Show my spending trends",
		"What are my biggest expenses?",
	}
}

// SuggestionsFor returns follow-up prompts that fit a reply for intent.
func SuggestionsFor(intent model.Intent) []string {
	switch intent {
	case model.IntentSpendingSummary:
		return []string{"How can I save more money?", "What's my budget status?", "How are my goals doing?"}
	case model.IntentGoalProgress:
		return []string{"How can I reach my goals faster?", "What's my budget status?", "Show my spending summary"}
	case model.IntentSavingsTips:
		return []string{"Show my spending summary", "What's my budget status?", "How are my goals doing?"}
	case model.IntentBudgetStatus:
		return []string{"How can I save more money?", "Show my spending summary", "How are my goals doing?"}
	default:
		return DefaultSuggestions()
	}
}

// DegradedEnvelope is the reply used whenever a query cannot be answered.
func DegradedEnvelope() model.Envelope {
	return model.Envelope{
		Message:     ApologyMessage,
		Data:        model.ErrorPayload{},
		Suggestions: DefaultSuggestions(),
	}
}

// DefaultWindowDays is the snapshot length replies describe when no window is set.
const DefaultWindowDays = 30

// Assistant routes chat messages to the matching response builder.
type Assistant struct {
	client     llm.Client
	intents    *IntentClassifier
	logger     *slog.Logger
	windowDays int
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithWindowDays tells the assistant how many days of transactions its snapshots cover.
func WithWindowDays(days int) Option {
	return func(a *Assistant) {
		if days > 0 {
			a.windowDays = days
		}
	}
}

// New creates an assistant. The same client serves intent classification and general answers.
func New(client llm.Client, logger *slog.Logger, opts ...Option) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Assistant{
		client:     client,
		intents:    NewIntentClassifier(client, logger),
		logger:     logger,
		windowDays: DefaultWindowDays,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Query answers message from the given snapshot. It never returns an error:
// any failure, including a panic in a builder, yields DegradedEnvelope.
func (a *Assistant) Query(ctx context.Context, message string, transactions []model.Transaction, goals []model.Goal) (env model.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Assistant query panicked", "panic", r)
			env = DegradedEnvelope()
		}
	}()

	env, err := a.answer(ctx, message, transactions, goals)
	if err != nil {
		a.logger.Warn("Assistant query failed, returning degraded reply", "error", err)
		return DegradedEnvelope()
	}
	return env
}

func (a *Assistant) answer(ctx context.Context, message string, transactions []model.Transaction, goals []model.Goal) (model.Envelope, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return model.Envelope{}, ErrEmptyMessage
	}

	intent, err := a.intents.Classify(ctx, message)
	if err != nil {
		return model.Envelope{}, err
	}

	a.logger.Info("Answering assistant query",
		"intent", intent,
		"transactions", len(transactions),
		"goals", len(goals))

	env := model.Envelope{Suggestions: SuggestionsFor(intent)}
	switch intent {
	case model.IntentSpendingSummary:
		summary := BuildSpendingSummary(transactions)
		env.Data, env.Message = summary, spendingSummaryMessage(summary, a.windowDays)
	case model.IntentGoalProgress:
		progress := BuildGoalProgress(goals)
		env.Data, env.Message = progress, goalProgressMessage(progress)
	case model.IntentSavingsTips:
		tips := BuildSavingsTips(transactions)
		env.Data, env.Message = tips, savingsTipsMessage(tips)
	case model.IntentBudgetStatus:
		status := BuildBudgetStatus(transactions, goals)
		env.Data, env.Message = status, budgetStatusMessage(status)
	default:
		answer, err := a.generalAnswer(ctx, message)
		if err != nil {
			return model.Envelope{}, err
		}
		env.Data, env.Message = model.GeneralAnswer{}, answer
	}
	return env, nil
}

func (a *Assistant) generalAnswer(ctx context.Context, message string) (string, error) {
	prompt := fmt.Sprintf(
		"You are FinBuddy, a helpful financial assistant. Answer this question: %q. Keep the response concise and helpful.",
		message)

	reply, err := llm.GenerateChecked(ctx, a.client, prompt, func(reply string) error {
		if strings.TrimSpace(reply) == "" {
			return ErrEmptyAnswer
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("general answer failed: %w", err)
	}
	return strings.TrimSpace(reply), nil
}
