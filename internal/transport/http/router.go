package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"quiz-option-service/internal/app"
	"quiz-option-service/internal/domain"
)

// NewRouter wires the REST and websocket endpoints.
func NewRouter(service *app.QuizService, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	api := &API{service: service, log: log}
	ws := NewWSHandler(service, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Post("/questions/{questionID}/render", api.Render)
	r.Route("/states/{stateID}", func(r chi.Router) {
		r.Get("/", api.State)
		r.Delete("/", api.Discard)
		r.Post("/clicks", api.Click)
		r.Get("/grade", api.Grade)
	})
	r.Get("/ws", ws.ServeWS)
	return r
}

// API exposes the quiz use cases over plain HTTP.
type API struct {
	service *app.QuizService
	log     *zap.Logger
}

type clickRequest struct {
	Index *int `json:"index"`
}

func (a *API) Render(w http.ResponseWriter, r *http.Request) {
	state, err := a.service.Render(r.Context(), chi.URLParam(r, "questionID"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

func (a *API) State(w http.ResponseWriter, r *http.Request) {
	state, err := a.service.State(r.Context(), chi.URLParam(r, "stateID"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (a *API) Click(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Index == nil {
		http.Error(w, "body must be {\"index\": n}", http.StatusBadRequest)
		return
	}
	state, err := a.service.Click(r.Context(), chi.URLParam(r, "stateID"), *req.Index)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (a *API) Grade(w http.ResponseWriter, r *http.Request) {
	result, err := a.service.Grade(r.Context(), chi.URLParam(r, "stateID"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) Discard(w http.ResponseWriter, r *http.Request) {
	a.service.Discard(r.Context(), chi.URLParam(r, "stateID"))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrQuestionNotFound), errors.Is(err, domain.ErrStateNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrOptionNotFound):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAnswerKeyEmpty):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
