package classification

import (
	"context"
	"log/slog"

	"github.com/Veraticus/finbuddy/internal/llm"
	"github.com/Veraticus/finbuddy/internal/model"
)

// Classifier produces a category decision for one description.
type Classifier interface {
	Categorize(ctx context.Context, description string) model.ClassificationResult
}

var _ Classifier = (*Categorizer)(nil)

// Categorizer runs the rule table and only consults the fallback when no rule matches.
// A rule match always wins, whatever its confidence.
type Categorizer struct {
	rules    *RuleTable
	fallback *FallbackClassifier
	logger   *slog.Logger
}

// NewCategorizer wires a rule table in front of an LLM fallback.
// A nil table uses DefaultRuleTable.
func NewCategorizer(rules *RuleTable, client llm.Client, logger *slog.Logger) *Categorizer {
	if rules == nil {
		rules = DefaultRuleTable()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Categorizer{
		rules:    rules,
		fallback: NewFallbackClassifier(client, logger),
		logger:   logger,
	}
}

// Categorize returns exactly one result and never fails.
func (c *Categorizer) Categorize(ctx context.Context, description string) model.ClassificationResult {
	if result, ok := c.rules.Match(description); ok {
		c.logger.Debug("Categorized by rule",
			"description", description,
			"category", result.Category)
		return result
	}

	result := c.fallback.Classify(ctx, description)
	c.logger.Debug("Categorized by fallback",
		"description", description,
		"category", result.Category,
		"confidence", result.Confidence,
		"source", result.Source)
	return result
}

// Rules exposes the table the categorizer matches against.
func (c *Categorizer) Rules() *RuleTable {
	return c.rules
}
