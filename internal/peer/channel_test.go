package peer

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/whatsfordinner/dinner/internal/dish"
)

var discard = log.New(io.Discard, "", 0)

// fakeLink records calls and lets tests pick the state and failures.
type fakeLink struct {
	mu         sync.Mutex
	state      State
	sendErr    error
	contextErr error
	states     int
	messages   [][]byte
	contexts   [][]byte
	slot       []byte
}

func (f *fakeLink) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states++
	return f.state
}

func (f *fakeLink) SendMessage(ctx context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.messages = append(f.messages, payload)
	return nil
}

func (f *fakeLink) UpdateContext(ctx context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.contextErr != nil {
		return f.contextErr
	}
	f.contexts = append(f.contexts, payload)
	f.slot = payload
	return nil
}

var testList = []dish.Dish{
	{ID: "A", Name: "Pasta", Emoji: "🍝"},
	{ID: "B", Name: "Soup", Emoji: "🍲"},
}

func TestPush_Reachable(t *testing.T) {
	link := &fakeLink{state: PairedReachable}
	ch := New(link, discard)

	if err := ch.Push(context.Background(), testList, true); err != nil {
		t.Fatalf("Push() failed: %v", err)
	}
	if len(link.messages) != 1 || len(link.contexts) != 0 {
		t.Fatalf("messages=%d contexts=%d, want 1 and 0", len(link.messages), len(link.contexts))
	}

	list, days, err := DecodePayload(link.messages[0])
	if err != nil {
		t.Fatalf("DecodePayload() failed: %v", err)
	}
	if !days || len(list) != 2 || list[0].ID != "A" {
		t.Errorf("decoded %v, %v", list, days)
	}
}

func TestPush_UnreachableUpdatesContextOncePerPush(t *testing.T) {
	link := &fakeLink{state: PairedUnreachable}
	ch := New(link, discard)
	ctx := context.Background()

	_ = ch.Push(ctx, testList, false)
	if len(link.contexts) != 1 {
		t.Fatalf("contexts after one push = %d, want 1", len(link.contexts))
	}
	_ = ch.Push(ctx, testList[:1], false)
	if len(link.contexts) != 2 {
		t.Fatalf("contexts after two pushes = %d, want 2", len(link.contexts))
	}

	list, _, err := DecodePayload(link.slot)
	if err != nil {
		t.Fatalf("DecodePayload() failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("slot holds %d dishes, want the latest push (1)", len(list))
	}
	if len(link.messages) != 0 {
		t.Error("unreachable companion got a message")
	}
}

func TestPush_SendFailureFallsBackToContext(t *testing.T) {
	link := &fakeLink{state: PairedReachable, sendErr: errors.New("timeout")}
	ch := New(link, discard)

	if err := ch.Push(context.Background(), testList, false); err != nil {
		t.Fatalf("Push() returned %v, want nil", err)
	}
	if len(link.contexts) != 1 {
		t.Errorf("contexts = %d, want fallback to context", len(link.contexts))
	}
	st := ch.Stats()
	if st.Failures != 1 || st.Contexts != 1 || st.Messages != 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestPush_Unpaired(t *testing.T) {
	link := &fakeLink{state: Unpaired}
	ch := New(link, discard)

	if err := ch.Push(context.Background(), testList, false); err != nil {
		t.Fatalf("Push() failed: %v", err)
	}
	if len(link.messages) != 0 || len(link.contexts) != 0 {
		t.Error("unpaired push reached the link")
	}
	if ch.Stats().Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", ch.Stats().Skipped)
	}
}

func TestPush_ContextFailureIsSwallowed(t *testing.T) {
	link := &fakeLink{state: PairedUnreachable, contextErr: errors.New("disk full")}
	ch := New(link, discard)

	if err := ch.Push(context.Background(), testList, false); err != nil {
		t.Errorf("Push() = %v, want nil", err)
	}
}

func TestPush_QueriesStateEveryTime(t *testing.T) {
	link := &fakeLink{state: PairedUnreachable}
	ch := New(link, discard)
	ctx := context.Background()

	_ = ch.Push(ctx, testList, false)
	link.mu.Lock()
	link.state = PairedReachable
	link.mu.Unlock()
	_ = ch.Push(ctx, testList, false)

	if link.states != 2 {
		t.Errorf("State() called %d times, want 2", link.states)
	}
	if len(link.messages) != 1 || len(link.contexts) != 1 {
		t.Errorf("messages=%d contexts=%d, want 1 each", len(link.messages), len(link.contexts))
	}
}

func TestDecodePayload_Errors(t *testing.T) {
	for _, in := range []string{``, `[]`, `{}`, `{"dishesData":"bm90IGpzb24="}`} {
		if _, _, err := DecodePayload([]byte(in)); !errors.Is(err, ErrDecode) {
			t.Errorf("DecodePayload(%q) error = %v, want ErrDecode", in, err)
		}
	}
}

func TestState_String(t *testing.T) {
	if PairedReachable.String() != "paired (reachable)" || State(42).String() != "unknown" {
		t.Error("unexpected State strings")
	}
}
