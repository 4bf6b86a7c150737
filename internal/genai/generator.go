// Package genai generates candidate exam questions through an
// OpenAI-compatible chat-completions endpoint. Generated questions enter the
// bank unapproved and must pass human review before they appear anywhere.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"exam-review-service/internal/domain"
)

const promptTemplate = `Generate a multiple-choice question for the Philippine Civil Service Examination.

Category: {category}
Difficulty: {difficulty}

The question should:
1. Be relevant to the Philippine context
2. Have 4 options with only one correct answer
3. Include a detailed explanation
4. Be appropriate for the specified difficulty level

Respond with a JSON object only, using this structure:
{
  "questionText": "string",
  "options": ["string", "string", "string", "string"],
  "correctAnswer": "string",
  "explanation": "string",
  "difficulty": "string",
  "topic": "string"
}`

// PerformanceSource supplies per-category correct rates; generation targets
// the weakest category.
type PerformanceSource interface {
	PerformanceByCategory(ctx context.Context) ([]domain.CategoryPerformance, error)
}

// QuestionInserter adds an unapproved question to the bank.
type QuestionInserter interface {
	InsertQuestion(ctx context.Context, q domain.Question) (int64, error)
}

type Generator struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string

	performance PerformanceSource
	inserter    QuestionInserter
}

func NewGenerator(baseURL, apiKey, model string, performance PerformanceSource, inserter QuestionInserter) *Generator {
	return &Generator{
		client:  &http.Client{Timeout: 120 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,

		performance: performance,
		inserter:    inserter,
	}
}

type chatCompletionRequest struct {
	Model    string                  `json:"model"`
	Messages []chatCompletionMessage `json:"messages"`
}

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
	} `json:"choices"`
}

type generatedQuestion struct {
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty"`
	Topic         string   `json:"topic"`
}

// Generate produces one question for the user's weakest category, validates
// it, and stores it unapproved.
func (g *Generator) Generate(ctx context.Context) (domain.Question, error) {
	performance, err := g.performance.PerformanceByCategory(ctx)
	if err != nil {
		return domain.Question{}, fmt.Errorf("load performance: %w", err)
	}
	if len(performance) == 0 {
		return domain.Question{}, fmt.Errorf("no category performance data yet")
	}
	weakest := performance[0]
	for _, p := range performance[1:] {
		if p.CorrectRate < weakest.CorrectRate {
			weakest = p
		}
	}

	prompt := strings.NewReplacer(
		"{category}", weakest.CategoryName,
		"{difficulty}", string(difficultyFor(weakest.CorrectRate)),
	).Replace(promptTemplate)

	content, err := g.complete(ctx, prompt)
	if err != nil {
		return domain.Question{}, err
	}

	var generated generatedQuestion
	if err := json.Unmarshal([]byte(stripFences(content)), &generated); err != nil {
		return domain.Question{}, fmt.Errorf("parse generated question: %w", err)
	}
	question, err := toQuestion(generated, weakest)
	if err != nil {
		return domain.Question{}, err
	}

	id, err := g.inserter.InsertQuestion(ctx, question)
	if err != nil {
		return domain.Question{}, fmt.Errorf("store generated question: %w", err)
	}
	question.ID = id
	return question, nil
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model: g.model,
		Messages: []chatCompletionMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call completion endpoint: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("completion endpoint returned %d: %s", resp.StatusCode, raw)
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// toQuestion validates the model output; the correct answer must be one of
// the options, matched by text here and then keyed by option ID forever after.
func toQuestion(generated generatedQuestion, category domain.CategoryPerformance) (domain.Question, error) {
	if generated.QuestionText == "" || len(generated.Options) < 2 {
		return domain.Question{}, fmt.Errorf("generated question incomplete")
	}
	ids := []string{"a", "b", "c", "d", "e", "f"}
	if len(generated.Options) > len(ids) {
		return domain.Question{}, fmt.Errorf("generated question has %d options", len(generated.Options))
	}

	options := make([]domain.Option, len(generated.Options))
	correctID := ""
	for i, text := range generated.Options {
		options[i] = domain.Option{ID: ids[i], Text: text}
		if correctID == "" && strings.TrimSpace(text) == strings.TrimSpace(generated.CorrectAnswer) {
			correctID = ids[i]
		}
	}
	if correctID == "" {
		return domain.Question{}, fmt.Errorf("correct answer %q is not among the options", generated.CorrectAnswer)
	}

	difficulty := domain.Difficulty(strings.ToLower(generated.Difficulty))
	switch difficulty {
	case domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard:
	default:
		difficulty = difficultyFor(category.CorrectRate)
	}

	return domain.Question{
		Text:            generated.QuestionText,
		Options:         options,
		CorrectOptionID: correctID,
		Explanation:     generated.Explanation,
		CategoryID:      category.CategoryID,
		CategoryName:    category.CategoryName,
		Difficulty:      difficulty,
		Topic:           generated.Topic,
		AIGenerated:     true,
		Approved:        false,
	}, nil
}

// difficultyFor maps a correct rate to the requested difficulty: struggling
// users get easier generated questions.
func difficultyFor(correctRate int) domain.Difficulty {
	switch {
	case correctRate < 60:
		return domain.DifficultyEasy
	case correctRate < 80:
		return domain.DifficultyMedium
	default:
		return domain.DifficultyHard
	}
}

// stripFences removes a markdown code fence around the model's JSON, a common
// failure mode of chat models asked for raw JSON.
func stripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
