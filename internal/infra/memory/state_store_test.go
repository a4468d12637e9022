package memory

import (
	"context"
	"testing"
	"time"

	"quiz-option-service/internal/app"
	"quiz-option-service/internal/domain"
	"quiz-option-service/internal/markup"
)

func TestStateStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore(time.Minute)

	session := app.RestoreSession(domain.RenderState{
		ID:            "s1",
		Options:       []domain.Option{{Text: "Red"}, {Text: "Green", IsCorrect: true}},
		CorrectAnswer: domain.AnswerKey{"B"},
		Kind:          domain.ControlRadio,
	}, markup.New)

	if err := store.Put(ctx, session); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok := store.Get(ctx, "s1")
	if !ok || got != session {
		t.Fatalf("expected stored session")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}

	store.Delete(ctx, "s1")
	if _, ok := store.Get(ctx, "s1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestStateStoreExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	store := NewStateStore(time.Minute)
	store.clock = func() time.Time { return now }

	session := app.RestoreSession(domain.RenderState{ID: "s1", Kind: domain.ControlRadio}, markup.New)
	if err := store.Put(ctx, session); err != nil {
		t.Fatalf("put: %v", err)
	}

	now = now.Add(50 * time.Second)
	if _, ok := store.Get(ctx, "s1"); !ok {
		t.Fatalf("expected session before ttl")
	}
	// a click persists the session again and pushes the expiry forward
	_ = store.Put(ctx, session)
	now = now.Add(50 * time.Second)
	if _, ok := store.Get(ctx, "s1"); !ok {
		t.Fatalf("expected expiry refreshed by put")
	}

	now = now.Add(time.Minute)
	if _, ok := store.Get(ctx, "s1"); ok {
		t.Fatalf("expected session expired")
	}
	if store.Len() != 0 {
		t.Fatalf("expected expired session dropped, got %d", store.Len())
	}
}

func TestStateStoreSweepsUnreadSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	store := NewStateStore(time.Minute)
	store.clock = func() time.Time { return now }

	for _, id := range []string{"s1", "s2"} {
		_ = store.Put(ctx, app.RestoreSession(domain.RenderState{ID: id, Kind: domain.ControlRadio}, markup.New))
	}

	now = now.Add(2 * time.Minute)
	_ = store.Put(ctx, app.RestoreSession(domain.RenderState{ID: "s3", Kind: domain.ControlRadio}, markup.New))
	if store.Len() != 1 {
		t.Fatalf("expected only s3 left after sweep, got %d", store.Len())
	}
}

func TestStateStoreWithoutTTLKeepsSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	store := NewStateStore(0)
	store.clock = func() time.Time { return now }

	_ = store.Put(ctx, app.RestoreSession(domain.RenderState{ID: "s1", Kind: domain.ControlRadio}, markup.New))
	now = now.Add(24 * time.Hour)
	if _, ok := store.Get(ctx, "s1"); !ok {
		t.Fatalf("expected session kept without ttl")
	}
}
