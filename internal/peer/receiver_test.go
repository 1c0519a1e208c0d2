package peer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/whatsfordinner/dinner/internal/dish"
	"github.com/whatsfordinner/dinner/internal/dishes"
	"github.com/whatsfordinner/dinner/internal/store"
)

// newCompanion builds a companion model over its own group.
func newCompanion(t *testing.T, backend store.Store) (*Receiver, *dishes.Model, *store.Shared) {
	t.Helper()
	shared := store.NewShared(backend, store.CompanionGroup, discard)
	model, err := dishes.NewWithConfig(shared, nil, &dishes.Config{Logger: discard})
	if err != nil {
		t.Fatalf("dishes.NewWithConfig() failed: %v", err)
	}
	model.Load(context.Background())
	r, err := NewReceiver(model, shared, discard)
	if err != nil {
		t.Fatalf("NewReceiver() failed: %v", err)
	}
	return r, model, shared
}

func TestReceiver_ReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	r, model, shared := newCompanion(t, store.NewMemStore())
	_, _ = model.Add("Stale local dish")

	payload, err := EncodePayload(testList, true)
	if err != nil {
		t.Fatalf("EncodePayload() failed: %v", err)
	}
	if err := r.Apply(ctx, payload); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}

	if diff := cmp.Diff(testList, model.Dishes()); diff != "" {
		t.Errorf("model mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(testList, shared.LoadDishes(ctx)); diff != "" {
		t.Errorf("companion store mismatch (-want +got):\n%s", diff)
	}
	if !shared.LoadSettings(ctx).DaysInsteadOfNumbers {
		t.Error("day-label flag not mirrored")
	}
}

func TestReceiver_DecodeFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	r, model, shared := newCompanion(t, store.NewMemStore())
	kept, _ := model.Add("Pasta")
	model.Flush()

	if err := r.Apply(ctx, []byte(`{"dishesData": 12}`)); !errors.Is(err, ErrDecode) {
		t.Errorf("Apply() error = %v, want ErrDecode", err)
	}
	got := model.Dishes()
	if len(got) != 1 || got[0].ID != kept.ID {
		t.Errorf("list = %v, want unchanged", got)
	}
	if stored := shared.LoadDishes(ctx); len(stored) != 1 {
		t.Errorf("store = %v, want unchanged", stored)
	}
}

func TestReceiver_EmptyListClears(t *testing.T) {
	ctx := context.Background()
	r, model, _ := newCompanion(t, store.NewMemStore())
	_, _ = model.Add("Pasta")

	payload, _ := EncodePayload([]dish.Dish{}, false)
	if err := r.Apply(ctx, payload); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if model.Len() != 0 {
		t.Errorf("Len() = %d, want 0", model.Len())
	}
}

func TestNewReceiver_Validates(t *testing.T) {
	if _, err := NewReceiver(nil, nil, nil); err == nil {
		t.Error("NewReceiver(nil, ...) should fail")
	}
}
