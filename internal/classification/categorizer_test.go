package classification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/finbuddy/internal/llm"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorizer_RuleMatchSkipsFallback(t *testing.T) {
	client := &llm.MockClient{Err: errors.New("must not be called")}
	c := NewCategorizer(nil, client, nil)

	got := c.Categorize(context.Background(), "Swiggy dinner")
	assert.Equal(t, model.ClassificationResult{
		Category:   model.CategoryFoodDining,
		Confidence: 95,
		Source:     model.SourceRule,
	}, got)
	assert.Zero(t, client.Calls())
}

func TestCategorizer_RuleWinsOverConfidentModel(t *testing.T) {
	client := llm.NewMockClient(`{"category": "Shopping", "confidence": 100}`)
	table, err := NewRuleTable([]Rule{{Category: model.CategoryOther, Keywords: []string{"atm"}, Confidence: 10}})
	require.NoError(t, err)

	got := NewCategorizer(table, client, nil).Categorize(context.Background(), "ATM withdrawal")
	assert.Equal(t, model.CategoryOther, got.Category)
	assert.Equal(t, 10, got.Confidence)
	assert.Zero(t, client.Calls())
}

func TestCategorizer_MissCallsFallbackOnce(t *testing.T) {
	client := llm.NewMockClient(`{"category": "Shopping", "confidence": 72}`)
	c := NewCategorizer(nil, client, nil)

	got := c.Categorize(context.Background(), "Random vendor XYZ")
	assert.Equal(t, model.CategoryShopping, got.Category)
	assert.Equal(t, 72, got.Confidence)
	assert.Equal(t, model.SourceAI, got.Source)
	assert.Equal(t, 1, client.Calls())
}

func TestCategorizer_MissWithFailingFallback(t *testing.T) {
	client := &llm.MockClient{Err: errors.New("timeout")}
	got := NewCategorizer(nil, client, nil).Categorize(context.Background(), "Random vendor XYZ")

	assert.Equal(t, model.CategoryOther, got.Category)
	assert.Equal(t, 30, got.Confidence)
	assert.Equal(t, 1, client.Calls())
}

func TestCategorizer_ResultAlwaysInVocabulary(t *testing.T) {
	replies := []string{
		`{"category": "Groceries", "confidence": 90}`,
		`{"category": "Income", "confidence": 9000}`,
		`nonsense`,
		``,
	}
	vocab := model.Categories()

	for _, reply := range replies {
		got := NewCategorizer(nil, llm.NewMockClient(reply), nil).Categorize(context.Background(), "Unmatched thing")
		assert.Contains(t, vocab, got.Category)
		assert.GreaterOrEqual(t, got.Confidence, 0)
		assert.LessOrEqual(t, got.Confidence, 100)
	}
}

func TestCategorizer_UnusableReplyIsNotCached(t *testing.T) {
	client := llm.NewMockClient("").Queue("garbage", `{"category": "Shopping", "confidence": 70}`)
	gateway := llm.NewGateway(client, llm.Config{CacheTTL: time.Hour}, nil)
	defer func() { _ = gateway.Close() }()

	c := NewCategorizer(nil, gateway, nil)

	first := c.Categorize(context.Background(), "XYZ corp")
	assert.Equal(t, model.DefaultClassification(), first)

	second := c.Categorize(context.Background(), "XYZ corp")
	assert.Equal(t, model.CategoryShopping, second.Category)
	assert.Equal(t, 70, second.Confidence)
	assert.Equal(t, model.SourceAI, second.Source)
	assert.Equal(t, 2, client.Calls())

	third := c.Categorize(context.Background(), "XYZ corp")
	assert.Equal(t, second, third)
	assert.Equal(t, 2, client.Calls())
}
