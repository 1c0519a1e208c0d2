package dishes

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/whatsfordinner/dinner/internal/dish"
)

func TestImport_ReplacesWholesale(t *testing.T) {
	h := newHarness(t, 0)
	h.seed(t, "A", "B")
	_, _ = h.model.Delete(1)
	archiveBefore := h.model.Completed()
	before := h.heads()

	ok := h.model.Import([]byte(`[{"id":"x","name":"Soup","emoji":"🍲"}]`))
	if !ok {
		t.Fatal("Import() reported failure")
	}
	got := h.model.Dishes()
	if len(got) != 1 || got[0].ID != "x" || got[0].Name != "Soup" || got[0].Emoji != "🍲" {
		t.Errorf("Dishes() = %+v, want exactly [Soup]", got)
	}
	if len(h.model.Completed()) != len(archiveBefore) {
		t.Error("Import() touched the archive")
	}
	if h.heads() != before+1 {
		t.Error("Import() did not run the head-change notification")
	}
	if names(h.shared.LoadDishes(context.Background())) != "Soup" {
		t.Error("Import() did not save")
	}
}

func TestImport_KeepsBlankNames(t *testing.T) {
	h := newHarness(t, 0)
	h.seed(t, "A", "B")

	ok := h.model.Import([]byte(`[{"id":"x","name":"Soup","emoji":"🍲"},{"id":"y","name":"","emoji":"🍽️"}]`))
	if !ok {
		t.Fatal("Import() reported failure")
	}
	if got := h.model.Len(); got != 2 {
		t.Fatalf("Len() = %d, want both imported entries", got)
	}
	if got := h.shared.LoadDishes(context.Background()); len(got) != 2 || got[1].ID != "y" {
		t.Errorf("stored list = %+v, want the blank-named dish kept", got)
	}
}

func TestImport_GarbageIsNoOp(t *testing.T) {
	h := newHarness(t, 0)
	h.seed(t, "A", "B")

	for _, in := range []string{``, `nope`, `{"id":"x"}`, `null`, `[{"id":1}]`} {
		if h.model.Import([]byte(in)) {
			t.Errorf("Import(%q) reported success", in)
		}
		if names(h.model.Dishes()) != "A,B" {
			t.Fatalf("Import(%q) changed the list to %q", in, names(h.model.Dishes()))
		}
	}
}

func TestExport_JSONRoundTrip(t *testing.T) {
	h := newHarness(t, 0)
	h.seed(t, "Pasta", "Soup")

	data, err := h.model.Export()
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	list, err := dish.DecodeList(data)
	if err != nil {
		t.Fatalf("exported JSON does not decode: %v", err)
	}
	if names(list) != "Pasta,Soup" {
		t.Errorf("exported %q, want Pasta,Soup", names(list))
	}
}

func TestExportFile(t *testing.T) {
	h := newHarness(t, 0)
	h.seed(t, "Pasta")
	dir := t.TempDir()

	path, err := h.model.ExportFile(dir, FormatJSON)
	if err != nil {
		t.Fatalf("ExportFile() failed: %v", err)
	}
	if filepath.Base(path) != "MijnGerechtenlijst.json" {
		t.Errorf("export name = %q", filepath.Base(path))
	}
	var raw []map[string]any
	data, _ := os.ReadFile(path)
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("export is not a JSON array: %v", err)
	}
	if _, ok := raw[0]["completedDate"]; ok {
		t.Error("active dish exported with completedDate")
	}
}

func TestExportAs_OtherFormats(t *testing.T) {
	h := newHarness(t, 0)
	h.seed(t, "Pasta", "Soup")

	data, err := h.model.ExportAs(FormatYAML)
	if err != nil {
		t.Fatalf("ExportAs(yaml) failed: %v", err)
	}
	var fromYAML []dish.Dish
	if err := yaml.Unmarshal(data, &fromYAML); err != nil {
		t.Fatalf("yaml export does not parse: %v", err)
	}
	if names(fromYAML) != "Pasta,Soup" {
		t.Errorf("yaml export = %q", names(fromYAML))
	}

	data, err = h.model.ExportAs(FormatTOML)
	if err != nil {
		t.Fatalf("ExportAs(toml) failed: %v", err)
	}
	var doc tomlDoc
	if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		t.Fatalf("toml export does not parse: %v", err)
	}
	if names(doc.Dishes) != "Pasta,Soup" {
		t.Errorf("toml export = %q", names(doc.Dishes))
	}

	if _, err := h.model.ExportAs(Format("xml")); err == nil {
		t.Error("ExportAs(xml) should fail")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"toml", FormatTOML, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
	if FormatYAML.FileName() != "MijnGerechtenlijst.yaml" {
		t.Errorf("FileName() = %q", FormatYAML.FileName())
	}
}

func TestImportFile_WithBackup(t *testing.T) {
	h := newHarness(t, 0)
	h.seed(t, "A", "B")

	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	if err := os.WriteFile(in, []byte(`[{"id":"x","name":"Soup","emoji":"🍲"}]`), 0644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	result, err := h.model.ImportFile(ImportOptions{Path: in, BackupDir: filepath.Join(dir, "backup")})
	if err != nil {
		t.Fatalf("ImportFile() failed: %v", err)
	}
	if !result.Imported || result.Dishes != 1 {
		t.Errorf("result = %+v", result)
	}
	backup, err := dish.ReadListFile(result.BackupCreated)
	if err != nil {
		t.Fatalf("backup unreadable: %v", err)
	}
	if names(backup) != "A,B" {
		t.Errorf("backup holds %q, want A,B", names(backup))
	}
}

func TestImportFile_Errors(t *testing.T) {
	h := newHarness(t, 0)
	h.seed(t, "A")

	if _, err := h.model.ImportFile(ImportOptions{Path: filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Error("ImportFile() of a missing file should fail")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	_ = os.WriteFile(bad, []byte(strings.Repeat("x", 10)), 0644)
	result, err := h.model.ImportFile(ImportOptions{Path: bad})
	if err != nil {
		t.Fatalf("ImportFile() of garbage returned error: %v", err)
	}
	if result.Imported {
		t.Error("garbage import reported success")
	}
	if names(h.model.Dishes()) != "A" {
		t.Error("garbage import changed the list")
	}
}
