package peer

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/go-cmp/cmp"

	"github.com/whatsfordinner/dinner/internal/dish"
	"github.com/whatsfordinner/dinner/internal/store"
)

func startTestServer(t *testing.T, cfg *ServerConfig) *Server {
	t.Helper()
	if cfg == nil {
		cfg = &ServerConfig{Enabled: true}
	}
	cfg.Listen = "127.0.0.1:0"
	cfg.Logger = discard

	srv := NewServer(cfg)
	if err := srv.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { _ = srv.Stop() })
	return srv
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServer_StartStop(t *testing.T) {
	srv := NewServer(&ServerConfig{Listen: "127.0.0.1:0", Enabled: true, Logger: discard})
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if srv.Addr() == "" {
		t.Fatal("Server address is empty")
	}
	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
}

func TestServer_State(t *testing.T) {
	off := startTestServer(t, &ServerConfig{Enabled: false})
	if off.State() != Unpaired {
		t.Errorf("disabled server state = %v, want Unpaired", off.State())
	}

	srv := startTestServer(t, nil)
	if srv.State() != PairedUnreachable {
		t.Errorf("idle server state = %v, want PairedUnreachable", srv.State())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws://"+srv.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	waitFor(t, "client registration", func() bool { return srv.ClientCount() == 1 })
	if srv.State() != PairedReachable {
		t.Errorf("state with a companion = %v, want PairedReachable", srv.State())
	}

	conn.Close(websocket.StatusNormalClosure, "")
	waitFor(t, "client removal", func() bool { return srv.ClientCount() == 0 })
}

func TestServer_SendMessageWithoutClients(t *testing.T) {
	srv := startTestServer(t, nil)
	if err := srv.SendMessage(context.Background(), []byte(`{}`)); err == nil {
		t.Error("SendMessage() with no companion should fail")
	}
}

func TestServer_ContextDeliveredOnConnect(t *testing.T) {
	shared := store.NewShared(store.NewMemStore(), store.DefaultGroup, discard)
	srv := startTestServer(t, &ServerConfig{Enabled: true, Shared: shared})

	ch := New(srv, discard)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Nobody is connected: both pushes land in the slot, the last one wins.
	_ = ch.Push(ctx, testList, false)
	_ = ch.Push(ctx, testList[:1], true)
	if st := ch.Stats(); st.Contexts != 2 || st.Messages != 0 {
		t.Fatalf("stats = %+v, want two context updates", st)
	}
	if _, ok := shared.LoadContext(ctx); !ok {
		t.Fatal("context slot not persisted in the store")
	}

	conn, _, err := websocket.Dial(ctx, "ws://"+srv.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read context frame: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("Failed to unmarshal frame: %v", err)
	}
	if env.Type != EnvelopeContext {
		t.Errorf("frame type = %q, want context", env.Type)
	}
	list, days, err := DecodePayload(env.Data)
	if err != nil {
		t.Fatalf("DecodePayload() failed: %v", err)
	}
	if len(list) != 1 || !days {
		t.Errorf("context = %v, %v; want the latest push", list, days)
	}
}

func TestServer_RequestDishesCallsHook(t *testing.T) {
	var requests atomic.Int32
	srv := startTestServer(t, &ServerConfig{Enabled: true, OnRequest: func() { requests.Add(1) }})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws://"+srv.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	frame, _ := marshalEnvelope(EnvelopeRequestDishes, nil)
	if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	waitFor(t, "request hook", func() bool { return requests.Load() == 1 })
}

func TestServer_Health(t *testing.T) {
	srv := startTestServer(t, nil)

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode health: %v", err)
	}
	if body["status"] != "ok" || body["state"] != PairedUnreachable.String() {
		t.Errorf("health = %v", body)
	}
}

// TestEndToEnd_ReachablePush covers the whole path: the phone pushes while
// the companion is connected and the companion store ends up equal to the
// phone's list.
func TestEndToEnd_ReachablePush(t *testing.T) {
	srv := startTestServer(t, nil)
	ch := New(srv, discard)

	receiver, model, shared := newCompanion(t, store.NewMemStore())
	client, err := NewClient(receiver, &ClientConfig{Address: srv.Addr(), Reconnect: 50 * time.Millisecond, Logger: discard})
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = client.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	waitFor(t, "companion connection", func() bool { return srv.State() == PairedReachable })

	sent := []dish.Dish{
		{ID: "X", Name: "Stamppot", Emoji: "🥔"},
		{ID: "Y", Name: "Pizza", Emoji: "🍕"},
	}
	if err := ch.Push(ctx, sent, true); err != nil {
		t.Fatalf("Push() failed: %v", err)
	}
	if ch.Stats().Messages != 1 {
		t.Fatalf("stats = %+v, want one message", ch.Stats())
	}

	waitFor(t, "payload applied", func() bool { return client.Applied() >= 1 })
	if diff := cmp.Diff(sent, shared.LoadDishes(context.Background())); diff != "" {
		t.Errorf("companion store mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(sent, model.Dishes()); diff != "" {
		t.Errorf("companion model mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_URL(t *testing.T) {
	receiver, _, _ := newCompanion(t, store.NewMemStore())
	tests := map[string]string{
		"127.0.0.1:8787":         "ws://127.0.0.1:8787/ws",
		"phone.local:9000/":      "ws://phone.local:9000/ws",
		"ws://10.0.0.2:8787/ws":  "ws://10.0.0.2:8787/ws",
		"wss://example.test/ws": "wss://example.test/ws",
	}
	for addr, want := range tests {
		c, err := NewClient(receiver, &ClientConfig{Address: addr})
		if err != nil {
			t.Fatalf("NewClient(%q) failed: %v", addr, err)
		}
		if got := c.URL(); got != want {
			t.Errorf("URL() for %q = %q, want %q", addr, got, want)
		}
	}

	if _, err := NewClient(receiver, &ClientConfig{}); err == nil {
		t.Error("NewClient() without an address should fail")
	}
}
