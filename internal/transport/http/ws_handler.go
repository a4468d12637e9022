package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-option-service/internal/app"
	"quiz-option-service/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		log:     log,
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

type clickPayload struct {
	Index int `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS renders a question for the connection and replays its clicks.
// Either questionId (new render) or stateId (resume) must be given; stateId
// wins when both are set. A state rendered for the connection is discarded
// when it closes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	questionID := r.URL.Query().Get("questionId")
	stateID := r.URL.Query().Get("stateId")
	if questionID == "" && stateID == "" {
		http.Error(w, "missing questionId or stateId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	created := stateID == ""
	var rendered domain.RenderState
	if !created {
		rendered, err = h.service.State(r.Context(), stateID)
	} else {
		rendered, err = h.service.Render(r.Context(), questionID)
	}
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	stateID = rendered.ID
	if created {
		// nobody else knows this state; it ends with the connection
		defer h.service.Discard(context.Background(), stateID)
	}

	updates, cancel, err := h.service.Watch(r.Context(), stateID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer goroutine; gorilla connections allow one concurrent writer
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", zap.String("state_id", stateID), zap.Error(err))
				return
			}
		}
	}()

	enqueue(send, writerDone, outboundMessage[any]{Type: "rendered", Payload: rendered})

	go func() {
		defer close(updatesDone)
		<-updates // initial snapshot duplicates "rendered"
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-writerDone:
					return
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var reply outboundMessage[any]
		switch inbound.Type {
		case "click":
			var payload clickPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply = errorMessage("invalid click payload")
				break
			}
			// the resulting snapshot arrives through the watch channel
			if _, err := h.service.Click(r.Context(), stateID, payload.Index); err != nil {
				reply = errorMessage(err.Error())
			}
		case "grade":
			result, err := h.service.Grade(r.Context(), stateID)
			if err != nil {
				reply = errorMessage(err.Error())
				break
			}
			reply = outboundMessage[any]{Type: "grade", Payload: result}
		default:
			reply = errorMessage("unsupported message type")
		}
		if reply.Type != "" && !enqueue(send, writerDone, reply) {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// enqueue hands msg to the writer goroutine. It reports false once the writer
// has stopped, so callers never block on a dead connection.
func enqueue(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

func errorMessage(text string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: text}}
}
