package classification

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/finbuddy/internal/llm"
	"github.com/Veraticus/finbuddy/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackClassifier_Classify(t *testing.T) {
	tests := []struct {
		name           string
		reply          string
		wantCategory   string
		wantSource     model.ClassificationSource
		wantConfidence int
	}{
		{
			name:           "plain JSON",
			reply:          `{"category": "Shopping", "confidence": 72}`,
			wantCategory:   model.CategoryShopping,
			wantConfidence: 72,
			wantSource:     model.SourceAI,
		},
		{
			name:           "markdown fenced",
			reply:          "```json\n{\"category\": \"Healthcare\", \"confidence\": 64.6}\n```",
			wantCategory:   model.CategoryHealthcare,
			wantConfidence: 65,
			wantSource:     model.SourceAI,
		},
		{
			name:           "confidence above range",
			reply:          `{"category": "Shopping", "confidence": 150}`,
			wantCategory:   model.CategoryShopping,
			wantConfidence: 100,
			wantSource:     model.SourceAI,
		},
		{
			name:           "negative confidence",
			reply:          `{"category": "Shopping", "confidence": -10}`,
			wantCategory:   model.CategoryShopping,
			wantConfidence: 0,
			wantSource:     model.SourceAI,
		},
		{
			name:           "numeric string confidence",
			reply:          `{"category": "Education", "confidence": "80%"}`,
			wantCategory:   model.CategoryEducation,
			wantConfidence: 80,
			wantSource:     model.SourceAI,
		},
		{
			name:           "category case is normalized",
			reply:          `{"category": "food & dining", "confidence": 55}`,
			wantCategory:   model.CategoryFoodDining,
			wantConfidence: 55,
			wantSource:     model.SourceAI,
		},
		{
			name:           "unknown category maps to Other",
			reply:          `{"category": "Pets", "confidence": 70}`,
			wantCategory:   model.CategoryOther,
			wantConfidence: 70,
			wantSource:     model.SourceAI,
		},
		{
			name:           "surrounding prose",
			reply:          `Sure! Here you go: {"category": "Entertainment", "confidence": 88} Hope this helps.`,
			wantCategory:   model.CategoryEntertainment,
			wantConfidence: 88,
			wantSource:     model.SourceAI,
		},
		{
			name:           "not JSON",
			reply:          "I think this is probably shopping",
			wantCategory:   model.CategoryOther,
			wantConfidence: 30,
			wantSource:     model.SourceDefault,
		},
		{
			name:           "missing confidence",
			reply:          `{"category": "Shopping"}`,
			wantCategory:   model.CategoryOther,
			wantConfidence: 30,
			wantSource:     model.SourceDefault,
		},
		{
			name:           "missing category",
			reply:          `{"confidence": 90}`,
			wantCategory:   model.CategoryOther,
			wantConfidence: 30,
			wantSource:     model.SourceDefault,
		},
		{
			name:           "non-numeric confidence",
			reply:          `{"category": "Shopping", "confidence": "high"}`,
			wantCategory:   model.CategoryOther,
			wantConfidence: 30,
			wantSource:     model.SourceDefault,
		},
		{
			name:           "truncated JSON",
			reply:          `{"category": "Shopping", "confid`,
			wantCategory:   model.CategoryOther,
			wantConfidence: 30,
			wantSource:     model.SourceDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := llm.NewMockClient(tt.reply)
			fc := NewFallbackClassifier(client, nil)

			got := fc.Classify(context.Background(), "Random vendor XYZ")
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantConfidence, got.Confidence)
			assert.Equal(t, tt.wantSource, got.Source)
			assert.Equal(t, 1, client.Calls())
		})
	}
}

func TestFallbackClassifier_ClientError(t *testing.T) {
	client := &llm.MockClient{Err: errors.New("service unavailable")}
	fc := NewFallbackClassifier(client, nil)

	got := fc.Classify(context.Background(), "Random vendor XYZ")
	assert.Equal(t, model.DefaultClassification(), got)
	assert.Equal(t, 1, client.Calls())
}

func TestFallbackClassifier_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := llm.NewMockClient(`{"category": "Shopping", "confidence": 90}`)
	got := NewFallbackClassifier(client, nil).Classify(ctx, "Random vendor XYZ")
	assert.Equal(t, model.DefaultClassification(), got)
}

func TestFallbackClassifier_PromptListsVocabulary(t *testing.T) {
	client := llm.NewMockClient(`{"category": "Other", "confidence": 10}`)
	NewFallbackClassifier(client, nil).Classify(context.Background(), "Gym membership")

	prompts := client.Prompts()
	require.Len(t, prompts, 1)
	for _, c := range model.Categories() {
		assert.Contains(t, prompts[0], "'"+c+"'")
	}
	assert.Contains(t, prompts[0], "Description: 'Gym membership'")
}
