package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"exam-review-service/internal/domain"
)

func TestGenerateTargetsWeakestCategory(t *testing.T) {
	var gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotPrompt = req.Messages[0].Content
		writeCompletion(w, `{
			"questionText": "What is 7 x 8?",
			"options": ["54", "56", "58", "64"],
			"correctAnswer": "56",
			"explanation": "7 times 8 is 56.",
			"difficulty": "easy",
			"topic": "Multiplication"
		}`)
	}))
	defer server.Close()

	inserter := &fakeInserter{}
	gen := NewGenerator(server.URL, "test-key", "test-model", fakePerformance{
		{CategoryID: 1, CategoryName: "Numerical Ability", CorrectRate: 45},
		{CategoryID: 2, CategoryName: "Verbal Ability", CorrectRate: 82},
	}, inserter)

	question, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if !strings.Contains(gotPrompt, "Category: Numerical Ability") {
		t.Fatalf("expected weakest category in prompt, got %q", gotPrompt)
	}
	if !strings.Contains(gotPrompt, "Difficulty: easy") {
		t.Fatalf("expected easy difficulty for 45%% rate, got %q", gotPrompt)
	}
	if question.CorrectOptionID != "b" {
		t.Fatalf("expected correct option keyed by id b, got %q", question.CorrectOptionID)
	}
	if !question.AIGenerated || question.Approved {
		t.Fatalf("generated question must be pending review: %+v", question)
	}
	if question.ID != 42 || inserter.calls != 1 {
		t.Fatalf("expected one insert returning id 42, got id=%d calls=%d", question.ID, inserter.calls)
	}
}

func TestGenerateStripsCodeFences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(w, "```json\n{\"questionText\":\"Q?\",\"options\":[\"x\",\"y\"],\"correctAnswer\":\"y\",\"explanation\":\"e\",\"difficulty\":\"medium\",\"topic\":\"t\"}\n```")
	}))
	defer server.Close()

	gen := NewGenerator(server.URL, "", "test-model", fakePerformance{
		{CategoryID: 3, CategoryName: "Analytical Ability", CorrectRate: 70},
	}, &fakeInserter{})

	question, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if question.Text != "Q?" || question.CorrectOptionID != "b" {
		t.Fatalf("unexpected question: %+v", question)
	}
}

func TestGenerateRejectsAnswerOutsideOptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(w, `{"questionText":"Q?","options":["x","y"],"correctAnswer":"z","explanation":"e","difficulty":"easy","topic":"t"}`)
	}))
	defer server.Close()

	inserter := &fakeInserter{}
	gen := NewGenerator(server.URL, "", "test-model", fakePerformance{
		{CategoryID: 1, CategoryName: "Numerical Ability", CorrectRate: 50},
	}, inserter)

	if _, err := gen.Generate(context.Background()); err == nil {
		t.Fatalf("expected validation error for answer outside options")
	}
	if inserter.calls != 0 {
		t.Fatalf("invalid generation must not be stored, inserts=%d", inserter.calls)
	}
}

func writeCompletion(w http.ResponseWriter, content string) {
	resp := chatCompletionResponse{}
	resp.Choices = append(resp.Choices, struct {
		Message chatCompletionMessage `json:"message"`
	}{Message: chatCompletionMessage{Role: "assistant", Content: content}})
	_ = json.NewEncoder(w).Encode(resp)
}

type fakePerformance []domain.CategoryPerformance

func (f fakePerformance) PerformanceByCategory(context.Context) ([]domain.CategoryPerformance, error) {
	return f, nil
}

type fakeInserter struct {
	calls int
	last  domain.Question
}

func (f *fakeInserter) InsertQuestion(_ context.Context, q domain.Question) (int64, error) {
	f.calls++
	f.last = q
	return 42, nil
}
