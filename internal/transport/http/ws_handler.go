package http

import (
	"encoding/json"
	"log"
	"net/http"

	"exam-review-service/internal/app"
	"exam-review-service/internal/domain"
	"exam-review-service/internal/engine"
	"github.com/gorilla/websocket"
)

// WSHandler drives one quiz session per websocket connection. The client
// sends start/select/advance/submit/cancel; the server pushes the current
// question, per-answer feedback, countdown ticks, and the final result.
type WSHandler struct {
	manager  *app.SessionManager
	upgrader websocket.Upgrader
}

func NewWSHandler(manager *app.SessionManager) *WSHandler {
	return &WSHandler{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	QuizID int64 `json:"quizId"`
}

type selectPayload struct {
	OptionID string `json:"optionId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// wsQuestion is the on-the-wire question view. The correct option and the
// explanation stay server-side until the session is over.
type wsQuestion struct {
	ID           int64             `json:"id"`
	Text         string            `json:"text"`
	Options      []domain.Option   `json:"options"`
	CategoryName string            `json:"categoryName"`
	Difficulty   domain.Difficulty `json:"difficulty"`
}

type questionPayload struct {
	Index            int        `json:"index"`
	Total            int        `json:"total"`
	RemainingSeconds int        `json:"remainingSeconds"`
	Question         wsQuestion `json:"question"`
}

type feedbackPayload struct {
	QuestionID int64  `json:"questionId"`
	OptionID   string `json:"optionId"`
	Correct    bool   `json:"correct"`
}

type tickPayload struct {
	RemainingSeconds int `json:"remainingSeconds"`
}

type reviewEntry struct {
	Question domain.Question      `json:"question"`
	Answer   *domain.AnswerRecord `json:"answer,omitempty"`
	Skipped  bool                 `json:"skipped"`
}

type submittedPayload struct {
	Result  domain.QuizResult `json:"result"`
	Review  []reviewEntry     `json:"review"`
	Warning string            `json:"warning,omitempty"`
}

// ServeWS upgrades the request and runs the session message loop.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan any, 16)
	done := make(chan struct{})
	writerDone := make(chan struct{})
	defer func() {
		close(done)
		<-writerDone
	}()

	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-send:
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			case <-done:
				return
			}
		}
	}()

	// push delivers from timer callbacks and the read loop alike; after the
	// connection winds down it drops messages instead of blocking.
	push := func(msg any) {
		select {
		case send <- msg:
		case <-done:
		}
	}

	var sessionID string
	var session *engine.Session
	defer func() {
		if sessionID != "" {
			h.manager.Remove(sessionID)
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		switch inbound.Type {
		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				push(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid start payload"}})
				continue
			}
			if session != nil {
				push(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "session already started"}})
				continue
			}
			id, started, err := h.manager.Start(r.Context(), payload.QuizID,
				engine.WithTickFunc(func(remaining int) {
					push(outboundMessage[tickPayload]{Type: "tick", Payload: tickPayload{RemainingSeconds: remaining}})
				}),
				engine.WithTimeUpFunc(func(result domain.QuizResult, storeErr error) {
					push(submittedMessage(result, reviewFor(session), storeErr))
				}),
			)
			if err != nil {
				push(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			sessionID, session = id, started
			push(currentQuestionMessage(session))

		case "select":
			if session == nil {
				push(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "no session started"}})
				continue
			}
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				push(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid select payload"}})
				continue
			}
			question, ok := session.CurrentQuestion()
			if !ok {
				push(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: domain.ErrSessionNotRunning.Error()}})
				continue
			}
			correct, err := session.SelectOption(payload.OptionID)
			if err != nil {
				push(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			push(outboundMessage[feedbackPayload]{Type: "feedback", Payload: feedbackPayload{
				QuestionID: question.ID,
				OptionID:   payload.OptionID,
				Correct:    correct,
			}})

		case "advance":
			if session == nil {
				push(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "no session started"}})
				continue
			}
			submitted, err := session.Advance(r.Context())
			if err != nil && !submitted {
				push(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			if submitted {
				result, _ := session.Result()
				push(submittedMessage(result, reviewFor(session), err))
				continue
			}
			push(currentQuestionMessage(session))

		case "submit":
			if session == nil {
				push(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "no session started"}})
				continue
			}
			result, err := session.Submit(r.Context())
			if err != nil && session.State() != engine.StateSubmitted {
				push(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			push(submittedMessage(result, reviewFor(session), err))

		case "cancel":
			if session == nil {
				push(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "no session started"}})
				continue
			}
			if err := session.Cancel(); err != nil {
				push(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			push(outboundMessage[struct{}]{Type: "cancelled"})

		default:
			push(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}
}

func currentQuestionMessage(session *engine.Session) any {
	question, ok := session.CurrentQuestion()
	if !ok {
		return outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: domain.ErrSessionNotRunning.Error()}}
	}
	return outboundMessage[questionPayload]{Type: "question", Payload: questionPayload{
		Index:            session.CurrentIndex(),
		Total:            session.QuestionCount(),
		RemainingSeconds: session.RemainingSeconds(),
		Question: wsQuestion{
			ID:           question.ID,
			Text:         question.Text,
			Options:      question.Options,
			CategoryName: question.CategoryName,
			Difficulty:   question.Difficulty,
		},
	}}
}

func submittedMessage(result domain.QuizResult, review []reviewEntry, storeErr error) any {
	payload := submittedPayload{Result: result, Review: review}
	if storeErr != nil {
		// Persistence failure is a warning; the score screen still renders.
		payload.Warning = storeErr.Error()
	}
	return outboundMessage[submittedPayload]{Type: "submitted", Payload: payload}
}

// reviewFor pairs each question with its recorded answer so the result screen
// can show correct answers, explanations, and skipped marks. The question list
// survives submission, so this is taken after the terminal transition.
func reviewFor(session *engine.Session) []reviewEntry {
	answers := session.Answers()
	byQuestion := make(map[int64]domain.AnswerRecord, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}
	questions := session.QuestionSnapshot()
	review := make([]reviewEntry, 0, len(questions))
	for _, q := range questions {
		entry := reviewEntry{Question: q, Skipped: true}
		if a, ok := byQuestion[q.ID]; ok {
			record := a
			entry.Answer = &record
			entry.Skipped = false
		}
		review = append(review, entry)
	}
	return review
}
