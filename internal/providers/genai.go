package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"creator-trips/internal/capability"
	"creator-trips/internal/common/config"
	"creator-trips/internal/common/errors"
	"creator-trips/internal/interview"
	"creator-trips/internal/models"
)

const (
	defaultMaxTokens   = 400
	defaultTemperature = 0.4
)

// GenAIClient generates adaptive interview questions.
type GenAIClient struct {
	base
	MaxTokens   int
	Temperature float64
}

var _ interview.Generator = (*GenAIClient)(nil)

func NewGenAIClient(cfg config.ProviderConfig, opts Options) *GenAIClient {
	return &GenAIClient{
		base:        newBase(capability.GenAI, cfg, "", opts),
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}
}

type generateResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type generatedQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	MultiSelect bool     `json:"multiSelect"`
}

// GenerateQuestion asks the model for one question on req.Topic. The flow
// validates and filters whatever comes back.
func (c *GenAIClient) GenerateQuestion(ctx context.Context, req interview.GenerationRequest) (*models.DynamicQuestion, error) {
	payload := map[string]interface{}{
		"prompt":          buildQuestionPrompt(req),
		"max_tokens":      c.MaxTokens,
		"temperature":     c.Temperature,
		"response_format": "json",
	}
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	var resp generateResponse
	if err := c.http.PostJSON(ctx, c.baseURL+"/api/ai/generate", headers, payload, &resp); err != nil {
		return nil, c.wrap(err)
	}

	q, err := parseGeneratedQuestion(resp.Text)
	if err != nil {
		return nil, errors.NewQuestionGenerationFailedError(err)
	}
	return q, nil
}

func parseGeneratedQuestion(text string) (*models.DynamicQuestion, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrNoData
	}

	var g generatedQuestion
	if err := json.Unmarshal([]byte(text), &g); err != nil {
		return nil, fmt.Errorf("decode generated question: %w", err)
	}
	if strings.TrimSpace(g.Question) == "" {
		return nil, ErrNoData
	}
	return &models.DynamicQuestion{
		Text:        strings.TrimSpace(g.Question),
		Options:     g.Options,
		MultiSelect: g.MultiSelect,
	}, nil
}

func buildQuestionPrompt(req interview.GenerationRequest) string {
	var parts []string

	parts = append(parts, "You are interviewing a content creator to plan a trip they can film and monetize.")
	parts = append(parts, fmt.Sprintf("\nWrite question %d about: %s", req.QuestionNumber, req.Topic))

	if len(req.Answers) > 0 {
		parts = append(parts, "\nAnswers so far:")
		ids := make([]string, 0, len(req.Answers))
		for id := range req.Answers {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			parts = append(parts, fmt.Sprintf("- %s: %s", id, strings.Join(req.Answers[id], ", ")))
		}
	}

	if len(req.PreviousQuestions) > 0 {
		parts = append(parts, "\nDo not repeat any of these questions:")
		for _, q := range req.PreviousQuestions {
			parts = append(parts, "- "+q)
		}
	}

	if req.BudgetTier != "" {
		parts = append(parts, fmt.Sprintf("\nBudget tier: %s. Only offer options that fit it.", req.BudgetTier))
	}
	if req.DurationDays > 0 {
		parts = append(parts, fmt.Sprintf("Trip length: %d days. Only offer options that fit it.", req.DurationDays))
	}

	parts = append(parts, "\nInstructions:")
	parts = append(parts, "- Offer 4 to 6 short, distinct options")
	parts = append(parts, "- Return only JSON: {\"question\": string, \"options\": [string], \"multiSelect\": bool}")

	return strings.Join(parts, "\n")
}
