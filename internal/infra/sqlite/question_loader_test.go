package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"quiz-option-service/internal/domain"
)

func TestQuestionLoaderRoundTrip(t *testing.T) {
	ctx := context.Background()
	loader, err := Open(ctx, filepath.Join(t.TempDir(), "questions.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer loader.Close()

	want := domain.Question{ID: "q1", OptionsHTML: "A. Red<br>B. Green", AnswerHTML: "<span>B</span>"}
	if err := loader.SaveQuestion(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := loader.LoadQuestion(ctx, "q1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	want.AnswerHTML = "A"
	if err := loader.SaveQuestion(ctx, want); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = loader.LoadQuestion(ctx, "q1")
	if got.AnswerHTML != "A" {
		t.Fatalf("expected updated answer, got %q", got.AnswerHTML)
	}
}

func TestQuestionLoaderMissing(t *testing.T) {
	ctx := context.Background()
	loader, err := Open(ctx, filepath.Join(t.TempDir(), "questions.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer loader.Close()

	if _, err := loader.LoadQuestion(ctx, "nope"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
}
