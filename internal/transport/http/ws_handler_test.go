package http

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quiz-option-service/internal/app"
	"quiz-option-service/internal/domain"
	"quiz-option-service/internal/infra/memory"
	"quiz-option-service/internal/markup"
)

func TestWebSocketClickFlow(t *testing.T) {
	server := httptest.NewServer(NewRouter(newTestService(), nil))
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?questionId=q1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msgType, payload := readNext(conn, t, "rendered")
	if msgType != "rendered" {
		t.Fatalf("expected rendered, got %s", msgType)
	}
	if opts, _ := payload["options"].([]any); len(opts) != 3 {
		t.Fatalf("expected 3 options, got %v", payload["options"])
	}

	click := map[string]any{
		"type":    "click",
		"payload": map[string]any{"index": 1},
	}
	if err := conn.WriteJSON(click); err != nil {
		t.Fatalf("write click: %v", err)
	}
	_, state := readNext(conn, t, "state")
	if state["clickNum"].(float64) != 1 {
		t.Fatalf("expected clickNum 1, got %v", state["clickNum"])
	}

	if err := conn.WriteJSON(map[string]any{"type": "grade"}); err != nil {
		t.Fatalf("write grade: %v", err)
	}
	_, grade := readNext(conn, t, "grade")
	if grade["correct"] != true {
		t.Fatalf("expected correct grade, got %+v", grade)
	}
}

func TestWebSocketUnknownQuestion(t *testing.T) {
	server := httptest.NewServer(NewRouter(newTestService(), nil))
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?questionId=missing"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_, payload := readNext(conn, t, "error")
	if payload["message"] != domain.ErrQuestionNotFound.Error() {
		t.Fatalf("unexpected error payload %+v", payload)
	}
}

func TestWebSocketDiscardsRenderedStateOnClose(t *testing.T) {
	service := newTestService()
	server := httptest.NewServer(NewRouter(service, nil))
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?questionId=q2"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	_, payload := readNext(conn, t, "rendered")
	stateID, _ := payload["id"].(string)
	if stateID == "" {
		t.Fatalf("expected state id in %+v", payload)
	}
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for {
		_, err := service.State(context.Background(), stateID)
		if errors.Is(err, domain.ErrStateNotFound) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected state %s discarded after close, got err=%v", stateID, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocketResumeKeepsState(t *testing.T) {
	service := newTestService()
	server := httptest.NewServer(NewRouter(service, nil))
	defer server.Close()

	state, err := service.Render(context.Background(), "q1")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	u := "ws" + server.URL[len("http"):] + "/ws?stateId=" + state.ID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	_, payload := readNext(conn, t, "rendered")
	if payload["id"] != state.ID {
		t.Fatalf("expected resumed state %s, got %v", state.ID, payload["id"])
	}
	// let the handler run its deferred cleanup
	conn.Close()
	time.Sleep(100 * time.Millisecond)

	if _, err := service.State(context.Background(), state.ID); err != nil {
		t.Fatalf("expected resumed state kept, got %v", err)
	}
}

func TestEnqueueStopsWhenWriterIsGone(t *testing.T) {
	send := make(chan outboundMessage[any]) // unbuffered: nobody reads
	writerDone := make(chan struct{})
	close(writerDone)

	done := make(chan bool, 1)
	go func() {
		done <- enqueue(send, writerDone, errorMessage("late"))
	}()
	select {
	case ok := <-done:
		if ok {
			t.Fatalf("expected enqueue to report a stopped writer")
		}
	case <-time.After(time.Second):
		t.Fatalf("enqueue blocked after writer exit")
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
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func newTestService() *app.QuizService {
	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(sampleQuestions()), time.Minute)
	return app.NewQuizService(memory.NewStateStore(time.Minute), questions, markup.New, app.Settings{InnerText: markup.InnerText}, nil)
}

func sampleQuestions() map[string]domain.Question {
	return map[string]domain.Question{
		"q1": {
			ID:          "q1",
			OptionsHTML: "<div>A. Red</div><div>B. Green</div><div>C. Blue</div>",
			AnswerHTML:  "<p>b</p>",
		},
		"q2": {
			ID:          "q2",
			OptionsHTML: "A. Red<br>B. Green<br>C. Blue",
			AnswerHTML:  "AC",
		},
	}
}
