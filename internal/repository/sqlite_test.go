package store

import (
	"context"
	"testing"
	"time"

	"github.com/xiaot623/gogo/sdk/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func newSession(id string, created time.Time) *domain.Session {
	return &domain.Session{
		ID:        id,
		AgentID:   "a1",
		Metadata:  map[string]any{"tier": "pro"},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestSQLiteStoreSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	budget := 2048
	session := newSession("s1", time.Now().UTC())
	session.UserID = "u1"
	session.TokenBudget = &budget
	session.ContextOverflow = domain.ContextOverflowAdaptive
	if err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	got, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got == nil || got.UserID != "u1" || got.AgentID != "a1" {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.TokenBudget == nil || *got.TokenBudget != 2048 {
		t.Fatalf("unexpected token budget: %v", got.TokenBudget)
	}
	if got.Metadata["tier"] != "pro" || got.ContextOverflow != domain.ContextOverflowAdaptive {
		t.Fatalf("unexpected session fields: %+v", got)
	}

	missing, err := store.GetSession(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil for missing session, got %+v, %v", missing, err)
	}
}

func TestSQLiteStoreListAndUpdate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	base := time.Now().UTC()
	for i, id := range []string{"s1", "s2", "s3"} {
		if err := store.CreateSession(ctx, newSession(id, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}

	sessions, err := store.ListSessions(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != "s3" {
		t.Fatalf("unexpected page: %+v", sessions)
	}

	sessions, err = store.ListSessions(ctx, 0, 2)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "s1" {
		t.Fatalf("unexpected offset page: %+v", sessions)
	}

	s1, _ := store.GetSession(ctx, "s1")
	s1.Situation = "updated"
	s1.TokenBudget = nil
	ok, err := store.UpdateSession(ctx, s1)
	if err != nil || !ok {
		t.Fatalf("UpdateSession failed: %v, %v", ok, err)
	}
	got, _ := store.GetSession(ctx, "s1")
	if got.Situation != "updated" || got.TokenBudget != nil {
		t.Fatalf("unexpected updated session: %+v", got)
	}

	ok, err = store.UpdateSession(ctx, newSession("nope", base))
	if err != nil || ok {
		t.Fatalf("expected no match for missing session, got %v, %v", ok, err)
	}
}

func TestSQLiteStoreCascadeDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	now := time.Now().UTC()
	if err := store.CreateSession(ctx, newSession("s1", now)); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	msg := &domain.ChatMLMessage{
		ID:        "m1",
		Role:      domain.RoleAssistant,
		Content:   "hello",
		ToolCalls: []domain.ToolCall{{ID: "tc1", Type: "function", Function: domain.ToolCallFunction{Name: "f", Arguments: "{}"}}},
		CreatedAt: now,
	}
	if err := store.CreateMessage(ctx, "s1", msg); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}
	if err := store.CreateSuggestion(ctx, &domain.Suggestion{SessionID: "s1", Target: domain.SuggestionTargetUser, Content: "try", CreatedAt: now}); err != nil {
		t.Fatalf("CreateSuggestion failed: %v", err)
	}

	messages, err := store.GetMessages(ctx, "s1", 10, 0)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(messages) != 1 || len(messages[0].ToolCalls) != 1 || messages[0].ToolCalls[0].Function.Name != "f" {
		t.Fatalf("unexpected messages: %+v", messages)
	}

	ok, err := store.DeleteSession(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("DeleteSession failed: %v, %v", ok, err)
	}

	messages, _ = store.GetMessages(ctx, "s1", 10, 0)
	suggestions, _ := store.ListSuggestions(ctx, "s1", 10, 0)
	if len(messages) != 0 || len(suggestions) != 0 {
		t.Fatalf("expected cascade delete, got %d messages, %d suggestions", len(messages), len(suggestions))
	}

	ok, err = store.DeleteSession(ctx, "s1")
	if err != nil || ok {
		t.Fatalf("expected second delete to match nothing, got %v, %v", ok, err)
	}
}

func TestSQLiteStoreDeleteMessages(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	now := time.Now().UTC()
	if err := store.CreateSession(ctx, newSession("s1", now)); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	for _, id := range []string{"m1", "m2"} {
		if err := store.CreateMessage(ctx, "s1", &domain.ChatMLMessage{ID: id, Role: domain.RoleUser, Content: id, CreatedAt: now}); err != nil {
			t.Fatalf("CreateMessage failed: %v", err)
		}
	}

	n, err := store.DeleteMessages(ctx, "s1")
	if err != nil || n != 2 {
		t.Fatalf("DeleteMessages: got %d, %v", n, err)
	}
	if s, _ := store.GetSession(ctx, "s1"); s == nil {
		t.Fatalf("session must survive history deletion")
	}
}
