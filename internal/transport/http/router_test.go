package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"quiz-option-service/internal/domain"
)

func TestRenderClickGrade(t *testing.T) {
	router := NewRouter(newTestService(), nil)

	rec := do(t, router, http.MethodPost, "/questions/q2/render", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("render status %d: %s", rec.Code, rec.Body.String())
	}
	var state domain.RenderState
	decode(t, rec, &state)
	if state.Kind != domain.ControlCheckbox || state.Classification == "" {
		t.Fatalf("expected multi-answer render, got %+v", state)
	}

	for _, idx := range []int{0, 2} {
		rec = do(t, router, http.MethodPost, "/states/"+state.ID+"/clicks", map[string]int{"index": idx})
		if rec.Code != http.StatusOK {
			t.Fatalf("click status %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec = do(t, router, http.MethodGet, "/states/"+state.ID+"/grade", nil)
	var grade domain.GradeResult
	decode(t, rec, &grade)
	if !grade.Correct || grade.ClickNum != 2 {
		t.Fatalf("expected correct grade after 2 clicks, got %+v", grade)
	}

	rec = do(t, router, http.MethodDelete, "/states/"+state.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status %d", rec.Code)
	}
	rec = do(t, router, http.MethodGet, "/states/"+state.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestClickErrors(t *testing.T) {
	router := NewRouter(newTestService(), nil)

	rec := do(t, router, http.MethodPost, "/states/unknown/clicks", map[string]int{"index": 0})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown state, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/questions/q1/render", nil)
	var state domain.RenderState
	decode(t, rec, &state)

	rec = do(t, router, http.MethodPost, "/states/"+state.ID+"/clicks", map[string]int{"index": 7})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out of range index, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodPost, "/states/"+state.ID+"/clicks", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing index, got %d", rec.Code)
	}
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
