package dish

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Dish is a single entry on the dinner list or in the archive.
// Two dishes are equal only when every field matches.
type Dish struct {
	ID    string `json:"id" yaml:"id" toml:"id"`
	Name  string `json:"name" yaml:"name" toml:"name"`
	Emoji string `json:"emoji" yaml:"emoji" toml:"emoji"`

	// CompletedDate is nil while the dish is active.
	CompletedDate *time.Time `json:"completedDate,omitempty" yaml:"completedDate,omitempty" toml:"completedDate,omitempty"`
}

// New creates an active dish with a fresh identifier and the emoji resolved
// from its name.
func New(name string) Dish {
	name = strings.TrimSpace(name)
	return Dish{
		ID:    NewID(),
		Name:  name,
		Emoji: DetectEmoji(name),
	}
}

// NewID returns a fresh dish identifier.
func NewID() string {
	return strings.ToUpper(uuid.NewString())
}

// Validate checks if the Dish has valid field values.
func (d *Dish) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(d.Name) > 500 {
		return fmt.Errorf("name must be 500 characters or less (got %d)", len(d.Name))
	}
	return nil
}

// Completed reports whether the dish has been archived.
func (d Dish) Completed() bool {
	return d.CompletedDate != nil
}

// Equal compares every field, including the completion moment.
func (d Dish) Equal(other Dish) bool {
	if d.ID != other.ID || d.Name != other.Name || d.Emoji != other.Emoji {
		return false
	}
	switch {
	case d.CompletedDate == nil && other.CompletedDate == nil:
		return true
	case d.CompletedDate == nil || other.CompletedDate == nil:
		return false
	default:
		return d.CompletedDate.Equal(*other.CompletedDate)
	}
}

// MarkCompleted returns a copy stamped with the completion moment.
func (d Dish) MarkCompleted(at time.Time) Dish {
	at = at.UTC()
	d.CompletedDate = &at
	return d
}

// Reopened returns a copy with the completion moment cleared.
func (d Dish) Reopened() Dish {
	d.CompletedDate = nil
	return d
}

// Head returns the first dish of the list, or nil when the list is empty.
func Head(list []Dish) *Dish {
	if len(list) == 0 {
		return nil
	}
	head := list[0]
	return &head
}

// SameHead reports whether two observed heads are identical, treating
// nil as "no head".
func SameHead(a, b *Dish) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// IndexOf returns the position of the dish with the given id, or -1.
func IndexOf(list []Dish, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy of the list that shares no backing array.
func Clone(list []Dish) []Dish {
	if list == nil {
		return []Dish{}
	}
	out := make([]Dish, len(list))
	copy(out, list)
	return out
}

// Dedupe drops entries without an id and entries whose id already appeared
// earlier in the list. Other fields are kept as received, so a dish with a
// blank name survives. The number of dropped entries is returned.
func Dedupe(list []Dish) ([]Dish, int) {
	seen := make(map[string]struct{}, len(list))
	out := make([]Dish, 0, len(list))
	for _, d := range list {
		if d.ID == "" {
			continue
		}
		if _, ok := seen[d.ID]; ok {
			continue
		}
		seen[d.ID] = struct{}{}
		out = append(out, d)
	}
	return out, len(list) - len(out)
}

// EncodeList serializes a list as a JSON array. A nil list encodes as [].
func EncodeList(list []Dish) ([]byte, error) {
	if list == nil {
		list = []Dish{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dishes: %w", err)
	}
	return data, nil
}

// DecodeList parses a JSON array of dishes. Entries without an id and
// duplicate ids are dropped; malformed JSON is an error.
func DecodeList(data []byte) ([]Dish, error) {
	var list []Dish
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse dishes: %w", err)
	}
	if list == nil {
		return nil, fmt.Errorf("failed to parse dishes: not an array")
	}
	list, _ = Dedupe(list)
	return list, nil
}

// ReadListFile reads and parses a dish list JSON file from the given path.
func ReadListFile(path string) ([]Dish, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dish file %s: %w", path, err)
	}

	list, err := DecodeList(data)
	if err != nil {
		return nil, fmt.Errorf("invalid dish file %s: %w", path, err)
	}
	return list, nil
}

// WriteListFile writes the list to dir/name as pretty-printed JSON and
// returns the full path.
func WriteListFile(dir, name string, list []Dish) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if list == nil {
		list = []Dish{}
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal dishes: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write dish file %s: %w", path, err)
	}
	return path, nil
}
