package store

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/whatsfordinner/dinner/internal/dish"
)

func newTestLogger(w io.Writer) *log.Logger {
	return log.New(w, "[store] ", 0)
}

func newTestShared(t *testing.T) (*Shared, *MemStore, *bytes.Buffer) {
	t.Helper()
	mem := NewMemStore()
	var logs bytes.Buffer
	return NewShared(mem, DefaultGroup, newTestLogger(&logs)), mem, &logs
}

func TestShared_EmptyStoreLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	s, _, logs := newTestShared(t)

	if got := s.LoadDishes(ctx); got == nil || len(got) != 0 {
		t.Errorf("LoadDishes() = %#v, want empty non-nil list", got)
	}
	if got := s.LoadCompleted(ctx); got == nil || len(got) != 0 {
		t.Errorf("LoadCompleted() = %#v, want empty non-nil list", got)
	}
	if got := s.LoadSettings(ctx); got != (Settings{}) {
		t.Errorf("LoadSettings() = %+v, want zero", got)
	}
	if _, ok := s.LastAutoCompletion(ctx); ok {
		t.Error("LastAutoCompletion() reported a stamp on an empty store")
	}
	if logs.Len() != 0 {
		t.Errorf("missing keys should not log, got %q", logs.String())
	}
}

func TestShared_DishesRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestShared(t)

	done := time.Date(2026, 1, 12, 18, 0, 0, 0, time.UTC)
	list := []dish.Dish{
		{ID: "A", Name: "Pasta", Emoji: "🍝"},
		{ID: "B", Name: "Soup", Emoji: "🍲", CompletedDate: &done},
	}
	if err := s.SaveDishes(ctx, list); err != nil {
		t.Fatalf("SaveDishes() failed: %v", err)
	}
	if diff := cmp.Diff(list, s.LoadDishes(ctx)); diff != "" {
		t.Errorf("LoadDishes() mismatch (-want +got):\n%s", diff)
	}

	if err := s.SaveCompleted(ctx, list[1:]); err != nil {
		t.Fatalf("SaveCompleted() failed: %v", err)
	}
	if diff := cmp.Diff(list[1:], s.LoadCompleted(ctx)); diff != "" {
		t.Errorf("LoadCompleted() mismatch (-want +got):\n%s", diff)
	}
}

func TestShared_UnreadableValueLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	s, mem, logs := newTestShared(t)

	_ = mem.Set(ctx, DefaultGroup, KeyDishes, []byte(`{not json`))
	_ = mem.Set(ctx, DefaultGroup, KeyAutoCompleteDish, []byte(`"yes"`))

	if got := s.LoadDishes(ctx); len(got) != 0 {
		t.Errorf("LoadDishes() = %v, want empty", got)
	}
	if s.LoadSettings(ctx).AutoCompleteDish {
		t.Error("unreadable flag should load as false")
	}
	if !strings.Contains(logs.String(), "Warning") {
		t.Errorf("expected a warning, got %q", logs.String())
	}
}

func TestShared_ResetDishesKeepsArchive(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestShared(t)

	_ = s.SaveDishes(ctx, []dish.Dish{{ID: "A", Name: "Pasta"}})
	_ = s.SaveCompleted(ctx, []dish.Dish{{ID: "B", Name: "Soup"}})

	if err := s.ResetDishes(ctx); err != nil {
		t.Fatalf("ResetDishes() failed: %v", err)
	}
	if got := s.LoadDishes(ctx); len(got) != 0 {
		t.Errorf("dishes after ResetDishes() = %v, want empty", got)
	}
	if got := s.LoadCompleted(ctx); len(got) != 1 {
		t.Errorf("archive after ResetDishes() = %v, want 1 entry", got)
	}

	if err := s.ResetAll(ctx); err != nil {
		t.Fatalf("ResetAll() failed: %v", err)
	}
	if got := s.LoadCompleted(ctx); len(got) != 0 {
		t.Errorf("archive after ResetAll() = %v, want empty", got)
	}
}

func TestShared_Settings(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestShared(t)

	want := Settings{DaysInsteadOfNumbers: true, AutoCompleteDish: true}
	if err := s.SaveSettings(ctx, want); err != nil {
		t.Fatalf("SaveSettings() failed: %v", err)
	}
	if got := s.LoadSettings(ctx); got != want {
		t.Errorf("LoadSettings() = %+v, want %+v", got, want)
	}

	if err := s.SaveDaysInsteadOfNumbers(ctx, false); err != nil {
		t.Fatalf("SaveDaysInsteadOfNumbers() failed: %v", err)
	}
	got := s.LoadSettings(ctx)
	if got.DaysInsteadOfNumbers || !got.AutoCompleteDish {
		t.Errorf("LoadSettings() = %+v, want only days flag cleared", got)
	}
}

func TestShared_LastAutoCompletion(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestShared(t)

	stamp := time.Date(2026, 1, 12, 7, 30, 0, 0, time.UTC)
	if err := s.SetLastAutoCompletion(ctx, stamp); err != nil {
		t.Fatalf("SetLastAutoCompletion() failed: %v", err)
	}
	got, ok := s.LastAutoCompletion(ctx)
	if !ok {
		t.Fatal("LastAutoCompletion() reported no stamp")
	}
	if !got.Equal(stamp) {
		t.Errorf("LastAutoCompletion() = %v, want %v", got, stamp)
	}
}

func TestShared_Context(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestShared(t)

	if _, ok := s.LoadContext(ctx); ok {
		t.Error("LoadContext() on empty store reported a payload")
	}
	if err := s.SaveContext(ctx, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("SaveContext() failed: %v", err)
	}
	got, ok := s.LoadContext(ctx)
	if !ok || string(got) != `{"a":1}` {
		t.Errorf("LoadContext() = %s, %v", got, ok)
	}
}

func TestShared_GroupsDoNotLeak(t *testing.T) {
	ctx := context.Background()
	mem := NewMemStore()
	phone := NewShared(mem, DefaultGroup, newTestLogger(io.Discard))
	watch := NewShared(mem, CompanionGroup, newTestLogger(io.Discard))

	_ = phone.SaveDishes(ctx, []dish.Dish{{ID: "A", Name: "Pasta"}})
	if got := watch.LoadDishes(ctx); len(got) != 0 {
		t.Errorf("companion group saw %v", got)
	}
}

func TestNewShared_DefaultGroup(t *testing.T) {
	s := NewShared(NewMemStore(), "", nil)
	if s.Group() != DefaultGroup {
		t.Errorf("Group() = %q, want %q", s.Group(), DefaultGroup)
	}
}
