package classification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Veraticus/finbuddy/internal/llm"
	"github.com/Veraticus/finbuddy/internal/model"
)

// FallbackClassifier asks a language model to pick a category from the closed vocabulary.
type FallbackClassifier struct {
	client     llm.Client
	logger     *slog.Logger
	categories []string
}

// NewFallbackClassifier creates a classifier over the default vocabulary.
func NewFallbackClassifier(client llm.Client, logger *slog.Logger) *FallbackClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackClassifier{
		client:     client,
		logger:     logger,
		categories: model.Categories(),
	}
}

// Classify makes exactly one model call. Any failure yields Other at confidence 30.
// Only replies that parse are eligible for caching.
func (f *FallbackClassifier) Classify(ctx context.Context, description string) model.ClassificationResult {
	var result model.ClassificationResult
	reply, err := llm.GenerateChecked(ctx, f.client, f.buildPrompt(description), func(reply string) error {
		parsed, err := f.parse(reply)
		if err != nil {
			return err
		}
		result = parsed
		return nil
	})
	switch {
	case errors.Is(err, llm.ErrUnusableReply):
		f.logger.Warn("Unusable fallback categorization reply, using default",
			"error", err,
			"reply", reply)
		return model.DefaultClassification()
	case err != nil:
		f.logger.Warn("Fallback categorization failed, using default",
			"error", err,
			"description", description)
		return model.DefaultClassification()
	}
	return result
}

func (f *FallbackClassifier) buildPrompt(description string) string {
	quoted := make([]string, len(f.categories))
	for i, c := range f.categories {
		quoted[i] = "'" + c + "'"
	}

	return fmt.Sprintf(
		"Analyze the following transaction description and suggest the most likely category from this list: [%s]. "+
			"Return only a single JSON object with two keys: 'category' and 'confidence' (a number between 0 and 100). "+
			"Description: '%s'",
		strings.Join(quoted, ", "), description)
}

type fallbackReply struct {
	Category   *string         `json:"category"`
	Confidence json.RawMessage `json:"confidence"`
}

func (f *FallbackClassifier) parse(reply string) (model.ClassificationResult, error) {
	object, ok := llm.ExtractJSONObject(reply)
	if !ok {
		return model.ClassificationResult{}, fmt.Errorf("no JSON object in reply")
	}

	var parsed fallbackReply
	if err := json.Unmarshal([]byte(object), &parsed); err != nil {
		return model.ClassificationResult{}, fmt.Errorf("failed to parse reply: %w", err)
	}
	if parsed.Category == nil || strings.TrimSpace(*parsed.Category) == "" {
		return model.ClassificationResult{}, fmt.Errorf("reply has no category")
	}
	if len(parsed.Confidence) == 0 || string(parsed.Confidence) == "null" {
		return model.ClassificationResult{}, fmt.Errorf("reply has no confidence")
	}

	confidence, err := parseConfidence(parsed.Confidence)
	if err != nil {
		return model.ClassificationResult{}, err
	}

	return model.ClassificationResult{
		Category:   f.canonicalCategory(*parsed.Category),
		Confidence: model.ClampConfidence(confidence),
		Source:     model.SourceAI,
	}, nil
}

// parseConfidence accepts a JSON number or a numeric string such as "85" or "85%".
func parseConfidence(raw json.RawMessage) (float64, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("confidence is not a number: %s", raw)
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("confidence is not a number: %q", s)
	}
	return n, nil
}

// canonicalCategory maps a model's answer onto the vocabulary, or Other.
func (f *FallbackClassifier) canonicalCategory(category string) string {
	category = strings.Trim(strings.TrimSpace(category), "'\"")
	for _, c := range f.categories {
		if strings.EqualFold(c, category) {
			return c
		}
	}
	return model.CategoryOther
}
