package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/finbuddy/internal/llm"
	"github.com/Veraticus/finbuddy/internal/model"
)

// IntentClassifier maps a chat message onto one of the assistant's intents.
type IntentClassifier struct {
	client llm.Client
	logger *slog.Logger
}

// NewIntentClassifier creates an intent classifier backed by client.
func NewIntentClassifier(client llm.Client, logger *slog.Logger) *IntentClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntentClassifier{client: client, logger: logger}
}

// Classify makes one model call. Replies outside the vocabulary become general_query
// and are not cached; call failures are returned so the caller can degrade.
func (c *IntentClassifier) Classify(ctx context.Context, message string) (model.Intent, error) {
	var intent model.Intent
	reply, err := llm.GenerateChecked(ctx, c.client, intentPrompt(message), func(reply string) error {
		parsed, ok := model.LookupIntent(reply)
		if !ok {
			return fmt.Errorf("unknown intent %q", reply)
		}
		intent = parsed
		return nil
	})
	switch {
	case errors.Is(err, llm.ErrUnusableReply):
		intent = model.IntentGeneralQuery
	case err != nil:
		return "", fmt.Errorf("intent classification failed: %w", err)
	}

	c.logger.Debug("Classified intent", "raw", reply, "intent", intent)
	return intent, nil
}

func intentPrompt(message string) string {
	return fmt.Sprintf(
		"Classify the user's request into one of the following intents: "+
			"'spending_summary', 'goal_progress', 'savings_tips', 'budget_status', or 'general_query'. "+
			"User request: '%s'. Return only the intent name as a string.",
		message)
}
