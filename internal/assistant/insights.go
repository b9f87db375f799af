package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/finbuddy/internal/llm"
	"github.com/Veraticus/finbuddy/internal/model"
)

// maxInsightTransactions bounds how many transactions are sent to the model.
const maxInsightTransactions = 50

// FallbackInsights returns the insights shown when the model cannot produce any.
func FallbackInsights() []string {
	return []string{
		"Keep tracking your expenses for better insights!",
		"Consider setting up a monthly budget.",
		"Review your spending categories regularly.",
	}
}

// InsightGenerator produces short personalized observations about spending.
type InsightGenerator struct {
	client llm.Client
	logger *slog.Logger
}

// NewInsightGenerator creates an insight generator backed by client.
func NewInsightGenerator(client llm.Client, logger *slog.Logger) *InsightGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &InsightGenerator{client: client, logger: logger}
}

type insightTransaction struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
}

// Generate asks for three insights about the newest transactions.
// It falls back to FallbackInsights on any failure.
func (g *InsightGenerator) Generate(ctx context.Context, transactions []model.Transaction) []string {
	prompt, err := insightPrompt(transactions)
	if err != nil {
		g.logger.Warn("Failed to build insight prompt", "error", err)
		return FallbackInsights()
	}

	var insights []string
	reply, err := llm.GenerateChecked(ctx, g.client, prompt, func(reply string) error {
		parsed, err := parseInsights(reply)
		insights = parsed
		return err
	})
	switch {
	case errors.Is(err, llm.ErrUnusableReply):
		g.logger.Warn("Unusable insight reply, using fallback", "error", err, "reply", reply)
		return FallbackInsights()
	case err != nil:
		g.logger.Warn("Insight generation failed, using fallback", "error", err)
		return FallbackInsights()
	}
	return insights
}

func insightPrompt(transactions []model.Transaction) (string, error) {
	if len(transactions) > maxInsightTransactions {
		transactions = transactions[:maxInsightTransactions]
	}

	rows := make([]insightTransaction, len(transactions))
	for i, txn := range transactions {
		rows[i] = insightTransaction{
			Date:        txn.Date.Format(time.DateOnly),
			Description: txn.Description,
			Type:        string(txn.Type),
			Category:    txn.Category,
			Amount:      txn.Amount,
		}
	}

	body, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("failed to encode transactions: %w", err)
	}

	return fmt.Sprintf(
		"You are FinBuddy, an expert financial advisor. Analyze the user's following transactions: %s. "+
			"Provide three short, personalized, and actionable insights. One should be positive encouragement, "+
			"one a warning or area for improvement, and one a helpful suggestion. "+
			"Return the response as a JSON array of strings.",
		body), nil
}

func parseInsights(reply string) ([]string, error) {
	array, ok := llm.ExtractJSONArray(reply)
	if !ok {
		return nil, fmt.Errorf("no JSON array in reply")
	}

	var raw []string
	if err := json.Unmarshal([]byte(array), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse insights: %w", err)
	}

	insights := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			insights = append(insights, s)
		}
	}
	if len(insights) == 0 {
		return nil, fmt.Errorf("reply contained no insights")
	}
	return insights, nil
}
