package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/afb-group/contractor-cli/internal/model"
	"github.com/afb-group/contractor-cli/pkg/anthropic"
)

const classifySystemPrompt = `You classify contractor business websites. Given page text from a licensed contractor's website, determine the trade category and whether the business serves residential customers. Respond with a valid JSON object: {"category": "<trade>", "confidence": <0.0-1.0>, "residential_focus": <true|false>, "reasoning": "<one sentence>"}. Categories: general, plumbing, electrical, roofing, hvac, painting, landscaping, concrete, framing, remodeling, flooring, drywall, excavation, other. Confidence reflects how certain you are this is the business's own website and the category is right.`

const classifyUserPrompt = `Business: %s
City: %s, %s
Website: %s

Page content (first %d chars):
%s`

const classifyContentLimit = 2000

// Classifier assigns a trade category and confidence to an accepted website
// using an Anthropic model.
type Classifier struct {
	client anthropic.Client
	model  string
}

// NewClassifier builds a Classifier over the given client and model ID.
func NewClassifier(client anthropic.Client, modelID string) *Classifier {
	return &Classifier{client: client, model: modelID}
}

// Classify sends the accepted website's text to the model and parses the
// category response. A malformed response is not an error: it yields a
// zero-confidence "other" classification so the combiner falls back to the
// website confidence alone.
func (cl *Classifier) Classify(ctx context.Context, c model.Contractor, cand model.WebsiteCandidate) (*model.ClassificationResult, error) {
	content := cand.Text
	if len(content) > classifyContentLimit {
		content = content[:classifyContentLimit]
	}
	prompt := fmt.Sprintf(classifyUserPrompt,
		c.BusinessName, c.City, c.State, cand.URL, classifyContentLimit, content)

	resp, err := cl.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     cl.model,
		MaxTokens: 256,
		System:    []anthropic.SystemBlock{{Text: classifySystemPrompt}},
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, err
	}
	resp.Usage.LogCost(cl.model, "classify")

	result := parseClassification(resp.Text())
	zap.L().Debug("website classified",
		zap.Int64("contractor_id", c.ID),
		zap.String("category", result.Category),
		zap.Float64("confidence", result.Confidence))
	return result, nil
}

// parseClassification extracts the classifier's JSON object from the model
// response. Unparseable output degrades to category "other" with confidence 0.
func parseClassification(text string) *model.ClassificationResult {
	text = cleanJSON(text)

	var result model.ClassificationResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		zap.L().Warn("unparseable classification response", zap.String("text", truncate(text, 200)))
		return &model.ClassificationResult{Category: "other", Confidence: 0}
	}

	result.Category = strings.ToLower(strings.TrimSpace(result.Category))
	if result.Category == "" {
		result.Category = "other"
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	return &result
}

// cleanJSON strips markdown fences and surrounding prose, keeping the first
// top-level JSON object in the text.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
