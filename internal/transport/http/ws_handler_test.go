package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"exam-review-service/internal/app"
	"exam-review-service/internal/domain"
	"exam-review-service/internal/engine"
	"exam-review-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketSessionFlow(t *testing.T) {
	store := memory.NewResultStore()
	manager := newTestManager(store)

	server := newWSServer(t, manager)
	defer server.Close()

	conn := dialWS(t, server)
	defer conn.Close()

	writeMessage(t, conn, "start", map[string]any{"quizId": 1})
	_, payload := readNext(conn, t, "question")
	if payload["total"].(float64) != 2 || payload["index"].(float64) != 0 {
		t.Fatalf("unexpected first question payload: %v", payload)
	}
	question := payload["question"].(map[string]any)
	if _, leaked := question["correctOptionId"]; leaked {
		t.Fatalf("correct option must not reach the client: %v", question)
	}

	writeMessage(t, conn, "select", map[string]any{"optionId": "b"})
	_, payload = readNext(conn, t, "feedback")
	if payload["correct"] != true {
		t.Fatalf("expected correct feedback, got %v", payload)
	}

	writeMessage(t, conn, "advance", nil)
	_, payload = readNext(conn, t, "question")
	if payload["index"].(float64) != 1 {
		t.Fatalf("expected second question, got %v", payload)
	}

	// Skip the last question; advancing past it submits.
	writeMessage(t, conn, "advance", nil)
	_, payload = readNext(conn, t, "submitted")
	result := payload["result"].(map[string]any)
	if result["score"].(float64) != 50 {
		t.Fatalf("expected score 50, got %v", result)
	}
	if result["completedQuestions"].(float64) != 1 || result["correctAnswers"].(float64) != 1 {
		t.Fatalf("unexpected result counters: %v", result)
	}
	review := payload["review"].([]any)
	if len(review) != 2 {
		t.Fatalf("expected review for both questions, got %d entries", len(review))
	}
	skipped := 0
	for _, entry := range review {
		if entry.(map[string]any)["skipped"] == true {
			skipped++
		}
	}
	if skipped != 1 {
		t.Fatalf("expected exactly one skipped entry, got %d", skipped)
	}

	results, err := store.ListPast(context.Background())
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one persisted result, got %d", len(results))
	}
}

func TestWebSocketCancelDiscardsAttempt(t *testing.T) {
	store := memory.NewResultStore()
	manager := newTestManager(store)

	server := newWSServer(t, manager)
	defer server.Close()

	conn := dialWS(t, server)
	defer conn.Close()

	writeMessage(t, conn, "start", map[string]any{"quizId": 1})
	readNext(conn, t, "question")

	writeMessage(t, conn, "cancel", nil)
	readNext(conn, t, "cancelled")

	results, err := store.ListPast(context.Background())
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("cancelled attempt must not persist, got %d results", len(results))
	}
}

func TestWebSocketRejectsUnknownQuiz(t *testing.T) {
	manager := newTestManager(memory.NewResultStore())

	server := newWSServer(t, manager)
	defer server.Close()

	conn := dialWS(t, server)
	defer conn.Close()

	writeMessage(t, conn, "start", map[string]any{"quizId": 99})
	readNext(conn, t, "error")
}

func newTestManager(store engine.ResultStore) *app.SessionManager {
	source := memory.NewStaticQuestionSource(
		map[int64]domain.QuizDefinition{
			1: {ID: 1, Title: "Quick Practice", TimeLimitMinutes: 10, QuestionCount: 2},
		},
		[]domain.Question{
			sampleWSQuestion(1, "What is 2 + 2?", "4"),
			sampleWSQuestion(2, "What is 3 + 3?", "6"),
		},
	)
	// A long tick interval keeps the countdown out of these tests.
	return app.NewSessionManager(source, store, engine.WithTickInterval(time.Hour))
}

func sampleWSQuestion(id int64, text, answer string) domain.Question {
	return domain.Question{
		ID:   id,
		Text: text,
		Options: []domain.Option{
			{ID: "a", Text: "0"},
			{ID: "b", Text: answer},
		},
		CorrectOptionID: "b",
		Explanation:     "arithmetic",
		CategoryID:      1,
		CategoryName:    "Numerical Ability",
		Difficulty:      domain.DifficultyEasy,
		Approved:        true,
	}
}

func newWSServer(t *testing.T, manager *app.SessionManager) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(manager).ServeWS)
	return httptest.NewServer(mux)
}

func dialWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func writeMessage(t *testing.T, conn *websocket.Conn, msgType string, payload map[string]any) {
	t.Helper()
	msg := map[string]any{"type": msgType}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}
