package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afb-group/contractor-cli/internal/model"
)

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name string
		text string
		want model.ClassificationResult
	}{
		{
			name: "plain json",
			text: `{"category": "plumbing", "confidence": 0.92, "residential_focus": true, "reasoning": "ok"}`,
			want: model.ClassificationResult{Category: "plumbing", Confidence: 0.92, ResidentialFocus: true, Reasoning: "ok"},
		},
		{
			name: "fenced json",
			text: "```json\n{\"category\": \"roofing\", \"confidence\": 0.7, \"residential_focus\": false}\n```",
			want: model.ClassificationResult{Category: "roofing", Confidence: 0.7},
		},
		{
			name: "prose wrapped",
			text: `Here is my assessment: {"category": "HVAC", "confidence": 0.5, "residential_focus": true} Hope that helps.`,
			want: model.ClassificationResult{Category: "hvac", Confidence: 0.5, ResidentialFocus: true},
		},
		{
			name: "confidence clamped high",
			text: `{"category": "electrical", "confidence": 1.4}`,
			want: model.ClassificationResult{Category: "electrical", Confidence: 1.0},
		},
		{
			name: "confidence clamped low",
			text: `{"category": "electrical", "confidence": -0.2}`,
			want: model.ClassificationResult{Category: "electrical", Confidence: 0},
		},
		{
			name: "malformed degrades to other",
			text: `I could not determine the category.`,
			want: model.ClassificationResult{Category: "other", Confidence: 0},
		},
		{
			name: "empty category degrades to other",
			text: `{"confidence": 0.8}`,
			want: model.ClassificationResult{Category: "other", Confidence: 0.8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseClassification(tt.text)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestClassifierTruncatesContent(t *testing.T) {
	ai := &mockAnthropic{response: classifierJSON}
	cl := NewClassifier(ai, "claude-haiku-4-5-20251001")

	cand := model.WebsiteCandidate{
		URL:  "https://evergreenplumbing.com",
		Text: strings.Repeat("PLUMBING ", 1000),
	}
	got, err := cl.Classify(context.Background(), testContractor(), cand)
	require.NoError(t, err)
	assert.Equal(t, "plumbing", got.Category)
	assert.Equal(t, 1, ai.calls)
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, cleanJSON("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, cleanJSON(`noise before {"a": 1} noise after`))
	assert.Equal(t, `{"a": {"b": 2}}`, cleanJSON(`{"a": {"b": 2}}`))
}
