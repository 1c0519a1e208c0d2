package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"

	"github.com/whatsfordinner/dinner/internal/store"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DINNER_HOME", t.TempDir())

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	want := Default()
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("DINNER_HOME", home)

	file := strings.Join([]string{
		"store:",
		"  backend: dir",
		"save_delay: 2s",
		"peer:",
		"  listen: 0.0.0.0:9000",
	}, "\n")
	if err := os.WriteFile(filepath.Join(home, FileName), []byte(file), 0644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	t.Setenv("DINNER_PEER_LISTEN", "127.0.0.1:9999")

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Store.Backend != store.BackendDir {
		t.Errorf("store.backend = %q, want dir", cfg.Store.Backend)
	}
	if cfg.SaveDelay != 2*time.Second {
		t.Errorf("save_delay = %v, want 2s", cfg.SaveDelay)
	}
	if cfg.Peer.Listen != "127.0.0.1:9999" {
		t.Errorf("peer.listen = %q, env should win over the file", cfg.Peer.Listen)
	}
	if cfg.Store.Group != store.DefaultGroup {
		t.Errorf("store.group = %q, want the default", cfg.Store.Group)
	}
}

func TestLoad_FlagWins(t *testing.T) {
	t.Setenv("DINNER_HOME", t.TempDir())
	t.Setenv("DINNER_STORE_BACKEND", "dir")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("backend", "", "")
	if err := flags.Parse([]string{"--backend", "memory"}); err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	l := NewLoader()
	if err := l.BindFlag("store.backend", flags.Lookup("backend")); err != nil {
		t.Fatalf("BindFlag() failed: %v", err)
	}
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Store.Backend != store.BackendMemory {
		t.Errorf("store.backend = %q, want memory", cfg.Store.Backend)
	}
}

func TestLoad_InvalidBackend(t *testing.T) {
	t.Setenv("DINNER_HOME", t.TempDir())
	t.Setenv("DINNER_STORE_BACKEND", "cloud")

	if _, err := NewLoader().Load(); err == nil {
		t.Error("Load() with an unknown backend should fail")
	}
}

func TestSaveAndReload(t *testing.T) {
	home := t.TempDir()
	t.Setenv("DINNER_HOME", home)

	cfg := Default()
	cfg.Home = home
	for key, value := range map[string]string{
		"store.backend":   "dir",
		"peer.enabled":    "false",
		"peer.reconnect":  "30s",
		"log.max_size_mb": "5",
	} {
		if err := cfg.Set(key, value); err != nil {
			t.Fatalf("Set(%s) failed: %v", key, err)
		}
	}
	if err := Save(cfg.Path(), cfg); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSet_Errors(t *testing.T) {
	tests := []struct{ key, value string }{
		{"nope", "x"},
		{"save_delay", "soon"},
		{"save_delay", "-1s"},
		{"peer.enabled", "maybe"},
		{"log.max_backups", "three"},
		{"store.backend", "cloud"},
	}
	for _, tt := range tests {
		if err := Default().Set(tt.key, tt.value); err == nil {
			t.Errorf("Set(%q, %q) should fail", tt.key, tt.value)
		}
	}
}

func TestStoreOptions(t *testing.T) {
	cfg := Default()
	cfg.Home = "/data"
	opts := cfg.StoreOptions()
	if opts.Backend != store.BackendSQLite || opts.Dir != "/data" {
		t.Errorf("StoreOptions() = %+v", opts)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	cfg, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() on missing file failed: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("missing file should give defaults (-want +got):\n%s", diff)
	}

	if err := os.WriteFile(path, []byte("peer:\n  listen: 0.0.0.0:9000\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if cfg.Peer.Listen != "0.0.0.0:9000" {
		t.Errorf("Peer.Listen = %q, want 0.0.0.0:9000", cfg.Peer.Listen)
	}
	if cfg.Peer.Address != Default().Peer.Address {
		t.Errorf("Peer.Address = %q, want default", cfg.Peer.Address)
	}
}
