package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"typequest/core"
	"typequest/engine"
)

func TestGetStateUnknownUser(t *testing.T) {
	s := New()
	_, err := s.GetState(context.Background(), "ghost")
	if !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	st := core.NewUserState("alice")
	st.XP = 1500
	st.RecordCompletion("Fast Fingers", time.Now())
	if err := s.SaveState(ctx, st); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetState(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if got.XP != 1500 || got.CompletionCount("Fast Fingers") != 1 {
		t.Fatalf("round trip lost data: %+v", got)
	}
}

func TestGetStateReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()

	st := core.NewUserState("alice")
	if err := s.SaveState(ctx, st); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetState(ctx, "alice")
	got.Badges["sneaky"] = struct{}{}
	got.XP = 999

	again, _ := s.GetState(ctx, "alice")
	if len(again.Badges) != 0 || again.XP != 0 {
		t.Fatal("mutating a returned snapshot must not affect the store")
	}
}

func TestDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.SaveState(ctx, core.NewUserState("alice")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetState(ctx, "alice"); !errors.Is(err, engine.ErrNotFound) {
		t.Fatal("deleted user should be gone")
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
}
