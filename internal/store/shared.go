package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/whatsfordinner/dinner/internal/dish"
)

// App groups. The phone app, its widget and the daemon share DefaultGroup;
// the companion keeps its own copy under CompanionGroup.
const (
	DefaultGroup   = "group.whatsfordinner.shared"
	CompanionGroup = "group.whatsfordinner.watchshared"
)

// Keys written into a group.
const (
	KeyDishes               = "dishes"
	KeyCompletedDishes      = "completedDishes"
	KeyDaysInsteadOfNumbers = "daysInsteadOfNumbers"
	KeyAutoCompleteDish     = "autoCompleteDish"
	KeyLastAutoCompletion   = "lastAutoCompletion"
	KeyApplicationContext   = "applicationContext"
)

// Settings are the user preferences persisted next to the lists.
type Settings struct {
	DaysInsteadOfNumbers bool `json:"daysInsteadOfNumbers" yaml:"daysInsteadOfNumbers"`
	AutoCompleteDish     bool `json:"autoCompleteDish" yaml:"autoCompleteDish"`
}

// Shared is the typed view of one app group. Reads never fail: a missing
// key and an undecodable value both come back as the zero value, and the
// decode problem is logged.
type Shared struct {
	store  Store
	group  string
	logger *log.Logger
}

// NewShared wraps a Store for the given group. If logger is nil, a default
// logger writing to stderr is used.
func NewShared(s Store, group string, logger *log.Logger) *Shared {
	if group == "" {
		group = DefaultGroup
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[store] ", log.LstdFlags)
	}
	if d, ok := s.(*DirStore); ok {
		if err := d.EnsureNamespace(group); err != nil {
			logger.Printf("Warning: %v", err)
		}
	}
	return &Shared{store: s, group: group, logger: logger}
}

// Group returns the namespace this view reads and writes.
func (s *Shared) Group() string {
	return s.group
}

// Store returns the underlying backend.
func (s *Shared) Store() Store {
	return s.store
}

// get returns nil when the key is absent or unreadable.
func (s *Shared) get(ctx context.Context, key string) []byte {
	data, err := s.store.Get(ctx, s.group, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Printf("Warning: failed to load %s: %v", key, err)
		}
		return nil
	}
	return data
}

func (s *Shared) loadList(ctx context.Context, key string) []dish.Dish {
	data := s.get(ctx, key)
	if data == nil {
		return []dish.Dish{}
	}
	list, err := dish.DecodeList(data)
	if err != nil {
		s.logger.Printf("Warning: ignoring unreadable %s: %v", key, err)
		return []dish.Dish{}
	}
	return list
}

func (s *Shared) saveList(ctx context.Context, key string, list []dish.Dish) error {
	data, err := dish.EncodeList(list)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, s.group, key, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// LoadDishes returns the active list, empty on absence or decode failure.
func (s *Shared) LoadDishes(ctx context.Context) []dish.Dish {
	return s.loadList(ctx, KeyDishes)
}

// SaveDishes writes the active list.
func (s *Shared) SaveDishes(ctx context.Context, list []dish.Dish) error {
	return s.saveList(ctx, KeyDishes, list)
}

// LoadCompleted returns the archive, empty on absence or decode failure.
func (s *Shared) LoadCompleted(ctx context.Context) []dish.Dish {
	return s.loadList(ctx, KeyCompletedDishes)
}

// SaveCompleted writes the archive.
func (s *Shared) SaveCompleted(ctx context.Context, list []dish.Dish) error {
	return s.saveList(ctx, KeyCompletedDishes, list)
}

// ResetDishes removes the active list. The archive is untouched.
func (s *Shared) ResetDishes(ctx context.Context) error {
	return s.store.Delete(ctx, s.group, KeyDishes)
}

// ResetAll removes both the active list and the archive.
func (s *Shared) ResetAll(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.group, KeyDishes); err != nil {
		return err
	}
	return s.store.Delete(ctx, s.group, KeyCompletedDishes)
}

func (s *Shared) loadBool(ctx context.Context, key string) bool {
	data := s.get(ctx, key)
	if data == nil {
		return false
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		s.logger.Printf("Warning: ignoring unreadable %s: %v", key, err)
		return false
	}
	return v
}

func (s *Shared) saveBool(ctx context.Context, key string, v bool) error {
	data, _ := json.Marshal(v)
	if err := s.store.Set(ctx, s.group, key, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// LoadSettings returns the persisted preferences; unset flags are false.
func (s *Shared) LoadSettings(ctx context.Context) Settings {
	return Settings{
		DaysInsteadOfNumbers: s.loadBool(ctx, KeyDaysInsteadOfNumbers),
		AutoCompleteDish:     s.loadBool(ctx, KeyAutoCompleteDish),
	}
}

// SaveSettings persists both preference flags.
func (s *Shared) SaveSettings(ctx context.Context, settings Settings) error {
	if err := s.saveBool(ctx, KeyDaysInsteadOfNumbers, settings.DaysInsteadOfNumbers); err != nil {
		return err
	}
	return s.saveBool(ctx, KeyAutoCompleteDish, settings.AutoCompleteDish)
}

// SaveDaysInsteadOfNumbers persists only the day-label flag. The companion
// mirrors this flag from sync payloads.
func (s *Shared) SaveDaysInsteadOfNumbers(ctx context.Context, v bool) error {
	return s.saveBool(ctx, KeyDaysInsteadOfNumbers, v)
}

// LastAutoCompletion returns the stored stamp; ok is false if none exists.
func (s *Shared) LastAutoCompletion(ctx context.Context) (time.Time, bool) {
	data := s.get(ctx, KeyLastAutoCompletion)
	if data == nil {
		return time.Time{}, false
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		s.logger.Printf("Warning: ignoring unreadable %s: %v", KeyLastAutoCompletion, err)
		return time.Time{}, false
	}
	return t, true
}

// SetLastAutoCompletion stores the stamp.
func (s *Shared) SetLastAutoCompletion(ctx context.Context, t time.Time) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", KeyLastAutoCompletion, err)
	}
	if err := s.store.Set(ctx, s.group, KeyLastAutoCompletion, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", KeyLastAutoCompletion, err)
	}
	return nil
}

// LoadContext returns the pending peer context, if any.
func (s *Shared) LoadContext(ctx context.Context) ([]byte, bool) {
	data := s.get(ctx, KeyApplicationContext)
	return data, data != nil
}

// SaveContext replaces the pending peer context.
func (s *Shared) SaveContext(ctx context.Context, payload []byte) error {
	if err := s.store.Set(ctx, s.group, KeyApplicationContext, payload); err != nil {
		return fmt.Errorf("failed to save %s: %w", KeyApplicationContext, err)
	}
	return nil
}
