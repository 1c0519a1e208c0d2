package dishes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/whatsfordinner/dinner/internal/dish"
)

// ExportFileName is the name of the shared export file.
const ExportFileName = "MijnGerechtenlijst.json"

// Format is an export encoding. Import only understands JSON.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseFormat accepts json, yaml/yml and toml, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want json, yaml or toml)", s)
	}
}

// FileName returns the export file name for the format.
func (f Format) FileName() string {
	if f == FormatJSON || f == "" {
		return ExportFileName
	}
	return strings.TrimSuffix(ExportFileName, ".json") + "." + string(f)
}

// tomlDoc wraps the list because a TOML document needs a top-level table.
type tomlDoc struct {
	Dishes []dish.Dish `toml:"dishes"`
}

// Export returns the active list as an indented JSON array.
func (m *Model) Export() ([]byte, error) {
	return m.ExportAs(FormatJSON)
}

// ExportAs encodes the active list in the given format.
func (m *Model) ExportAs(format Format) ([]byte, error) {
	list := m.Dishes()

	switch format {
	case FormatJSON, "":
		data, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal dishes: %w", err)
		}
		return data, nil

	case FormatYAML:
		data, err := yaml.Marshal(list)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal dishes as yaml: %w", err)
		}
		return data, nil

	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(tomlDoc{Dishes: list}); err != nil {
			return nil, fmt.Errorf("failed to marshal dishes as toml: %w", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// ExportFile writes the active list to dir and returns the file path. An
// empty dir means the system temp directory.
func (m *Model) ExportFile(dir string, format Format) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	data, err := m.ExportAs(format)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, format.FileName())
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}
	return path, nil
}

// Import replaces the active list with a JSON dish array, saving and
// notifying like any other mutation. Data that does not decode leaves the
// list untouched; the failure is logged and false is returned.
func (m *Model) Import(data []byte) bool {
	list, err := dish.DecodeList(data)
	if err != nil {
		m.config.Logger.Printf("Warning: ignoring import: %v", err)
		return false
	}
	m.Replace(list)
	return true
}

// ImportOptions configures ImportFile.
type ImportOptions struct {
	// Path is the JSON file to import.
	Path string

	// BackupDir, when set, receives a JSON export of the list being
	// replaced.
	BackupDir string
}

// ImportResult describes what ImportFile did.
type ImportResult struct {
	Imported      bool
	Dishes        int
	BackupCreated string
}

// ImportFile reads opts.Path and imports it. A missing or unreadable file
// is reported as an error; undecodable content is the usual silent no-op.
func (m *Model) ImportFile(opts ImportOptions) (*ImportResult, error) {
	// #nosec G304 - controlled path from CLI
	data, err := os.ReadFile(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}

	result := &ImportResult{}
	if _, err := dish.DecodeList(data); err != nil {
		m.config.Logger.Printf("Warning: ignoring import of %s: %v", opts.Path, err)
		return result, nil
	}

	if opts.BackupDir != "" {
		backup, err := m.Export()
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(ExportFileName, ".json") + ".backup." + time.Now().Format("20060102-150405") + ".json"
		path := filepath.Join(opts.BackupDir, name)
		if err := os.MkdirAll(opts.BackupDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create backup directory: %w", err)
		}
		if err := os.WriteFile(path, backup, 0600); err != nil {
			return nil, fmt.Errorf("failed to create backup: %w", err)
		}
		result.BackupCreated = path
	}

	result.Imported = m.Import(data)
	result.Dishes = m.Len()
	return result, nil
}
