package dishes

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/whatsfordinner/dinner/internal/dish"
	"github.com/whatsfordinner/dinner/internal/notify"
	"github.com/whatsfordinner/dinner/internal/store"
)

var (
	// ErrEmptyName is returned when a dish name is blank.
	ErrEmptyName = errors.New("dish name cannot be empty")

	// ErrNotFound is returned when no dish has the given id.
	ErrNotFound = errors.New("dish not found")

	// ErrIndexOutOfRange is returned for a position outside the list.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// DefaultSaveDelay coalesces bursts of edits into one store write.
const DefaultSaveDelay = 500 * time.Millisecond

// Config holds configuration for a Model.
type Config struct {
	// SaveDelay is how long a save waits for further changes. Zero or
	// negative writes synchronously on every change.
	SaveDelay time.Duration

	// Clock stamps completion dates.
	Clock func() time.Time

	// Logger for model activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SaveDelay: DefaultSaveDelay,
		Clock:     time.Now,
		Logger:    log.New(os.Stderr, "[dishes] ", log.LstdFlags),
	}
}

// Model is the in-memory dinner list of one device plus its archive.
//
// There is a single logical writer. The mutex exists because the debounce
// timer fires on its own goroutine.
type Model struct {
	shared   *store.Shared
	notifier *notify.Notifier
	config   *Config

	mu        sync.Mutex
	dishes    []dish.Dish
	completed []dish.Dish
	gen       uint64
	timer     *time.Timer
	pending   bool

	writeMu sync.Mutex
	written uint64
	synced  bool
}

// New creates a Model backed by shared. notifier may be nil for surfaces
// that never notify anyone (read-only widgets).
func New(shared *store.Shared, notifier *notify.Notifier) (*Model, error) {
	return NewWithConfig(shared, notifier, DefaultConfig())
}

// NewWithConfig creates a Model with custom configuration. When a notifier
// is given, the model registers Flush as its write-through hook.
func NewWithConfig(shared *store.Shared, notifier *notify.Notifier, config *Config) (*Model, error) {
	if shared == nil {
		return nil, fmt.Errorf("shared store cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[dishes] ", log.LstdFlags)
	}

	m := &Model{
		shared:    shared,
		notifier:  notifier,
		config:    config,
		dishes:    []dish.Dish{},
		completed: []dish.Dish{},
	}
	if notifier != nil {
		notifier.SetWriteThrough(m.Flush)
	}
	return m, nil
}

// Load replaces the in-memory state with what the store holds. Absent or
// unreadable data loads as an empty list. The notifier is seeded so that
// loading never counts as a head change.
func (m *Model) Load(ctx context.Context) {
	active := m.shared.LoadDishes(ctx)
	archive := m.shared.LoadCompleted(ctx)

	m.mu.Lock()
	m.dishes = active
	m.completed = archive
	m.mu.Unlock()

	if m.notifier != nil {
		m.notifier.Seed(active)
	}
}

// Reload re-reads the store after another process wrote it and runs the
// head-change check against the new list. Pending local edits are dropped.
func (m *Model) Reload(ctx context.Context) {
	active := m.shared.LoadDishes(ctx)
	archive := m.shared.LoadCompleted(ctx)

	m.mu.Lock()
	m.cancelPendingLocked()
	m.dishes = active
	m.completed = archive
	g := m.gen
	m.mu.Unlock()

	// The store already holds this generation.
	m.writeMu.Lock()
	m.written = g
	m.synced = true
	m.writeMu.Unlock()

	if m.notifier != nil {
		m.notifier.Observe(active)
		m.notifier.Saved(active)
	}
}

// Dishes returns a copy of the active list.
func (m *Model) Dishes() []dish.Dish {
	m.mu.Lock()
	defer m.mu.Unlock()
	return dish.Clone(m.dishes)
}

// Completed returns a copy of the archive in archive order.
func (m *Model) Completed() []dish.Dish {
	m.mu.Lock()
	defer m.mu.Unlock()
	return dish.Clone(m.completed)
}

// History returns the archive sorted by completion date, newest first.
func (m *Model) History() []dish.Dish {
	out := m.Completed()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CompletedDate, out[j].CompletedDate
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.After(*b)
	})
	return out
}

// Head returns a copy of the first dish, or nil.
func (m *Model) Head() *dish.Dish {
	m.mu.Lock()
	defer m.mu.Unlock()
	return dish.Head(m.dishes)
}

// Len returns the number of active dishes.
func (m *Model) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dishes)
}

// Add appends a new dish named name.
func (m *Model) Add(name string) (dish.Dish, error) {
	if strings.TrimSpace(name) == "" {
		return dish.Dish{}, ErrEmptyName
	}
	d := dish.New(name)
	if err := d.Validate(); err != nil {
		return dish.Dish{}, err
	}

	err := m.mutate(func() error {
		m.dishes = append(m.dishes, d)
		return nil
	})
	return d, err
}

// Edit renames the dish with the given id. The emoji is re-resolved and
// the id and position are kept.
func (m *Model) Edit(id, newName string) (dish.Dish, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return dish.Dish{}, ErrEmptyName
	}

	var updated dish.Dish
	err := m.mutate(func() error {
		i := dish.IndexOf(m.dishes, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		updated = m.dishes[i]
		updated.Name = newName
		updated.Emoji = dish.DetectEmoji(newName)
		if err := updated.Validate(); err != nil {
			return err
		}
		m.dishes[i] = updated
		return nil
	})
	return updated, err
}

// Delete removes the dish at index, stamps it completed and appends it to
// the archive. The archive is written immediately.
func (m *Model) Delete(index int) (dish.Dish, error) {
	out, err := m.DeleteSet([]int{index})
	if err != nil {
		return dish.Dish{}, err
	}
	return out[0], nil
}

// DeleteSet removes several positions at once. Archived dishes are appended
// in ascending index order and share one completion moment.
func (m *Model) DeleteSet(indices []int) ([]dish.Dish, error) {
	if len(indices) == 0 {
		return nil, nil
	}

	var archived []dish.Dish
	var archive []dish.Dish
	err := m.mutate(func() error {
		set, err := uniqueSorted(indices, len(m.dishes))
		if err != nil {
			return err
		}

		now := m.config.Clock()
		drop := make(map[int]struct{}, len(set))
		for _, i := range set {
			drop[i] = struct{}{}
			archived = append(archived, m.dishes[i].MarkCompleted(now))
		}

		kept := make([]dish.Dish, 0, len(m.dishes)-len(set))
		for i, d := range m.dishes {
			if _, ok := drop[i]; !ok {
				kept = append(kept, d)
			}
		}
		m.dishes = kept

		for _, d := range archived {
			if j := dish.IndexOf(m.completed, d.ID); j >= 0 {
				m.completed = append(m.completed[:j], m.completed[j+1:]...)
			}
			m.completed = append(m.completed, d)
		}
		archive = dish.Clone(m.completed)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.saveArchive(archive)
	return archived, nil
}

// Move reorders the list. from holds the positions to move and to is the
// insertion point measured in the list before the move, so moving [2] to 0
// in [A B C] gives [C A B] and moving [0] to 3 gives [B C A].
func (m *Model) Move(from []int, to int) error {
	if len(from) == 0 {
		return nil
	}
	return m.mutate(func() error {
		list, err := move(m.dishes, from, to)
		if err != nil {
			return err
		}
		m.dishes = list
		return nil
	})
}

// Reset clears the active list. The archive is untouched.
func (m *Model) Reset() {
	_ = m.mutate(func() error {
		m.dishes = []dish.Dish{}
		return nil
	})
}

// Restore moves an archived dish back to the end of the active list and
// clears its completion date.
func (m *Model) Restore(id string) (dish.Dish, error) {
	var restored dish.Dish
	var archive []dish.Dish
	err := m.mutate(func() error {
		j := dish.IndexOf(m.completed, id)
		if j < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		restored = m.completed[j].Reopened()
		m.completed = append(m.completed[:j], m.completed[j+1:]...)

		if i := dish.IndexOf(m.dishes, id); i >= 0 {
			m.dishes = append(m.dishes[:i], m.dishes[i+1:]...)
		}
		m.dishes = append(m.dishes, restored)
		archive = dish.Clone(m.completed)
		return nil
	})
	if err != nil {
		return dish.Dish{}, err
	}

	m.saveArchive(archive)
	return restored, nil
}

// Replace swaps the whole active list. Invalid and duplicate entries are
// dropped. The archive is untouched.
func (m *Model) Replace(list []dish.Dish) {
	clean, dropped := dish.Dedupe(list)
	if dropped > 0 {
		m.config.Logger.Printf("Warning: dropped %d invalid or duplicate dishes", dropped)
	}
	_ = m.mutate(func() error {
		m.dishes = clean
		return nil
	})
}

// ClearArchive empties the completed list. Used by the store-level reset.
func (m *Model) ClearArchive() {
	m.mu.Lock()
	m.completed = []dish.Dish{}
	m.mu.Unlock()
	m.saveArchive([]dish.Dish{})
}

// Save schedules a write of the active list. Calls within SaveDelay of each
// other collapse into one write.
func (m *Model) Save() {
	m.mu.Lock()
	m.scheduleLocked()
	m.mu.Unlock()
	if m.config.SaveDelay <= 0 {
		m.Flush()
	}
}

// Flush cancels any scheduled write and writes the active list now. Call it
// before the process exits.
func (m *Model) Flush() {
	m.mu.Lock()
	m.cancelPendingLocked()
	g := m.gen
	snapshot := dish.Clone(m.dishes)
	m.mu.Unlock()

	m.write(g, snapshot)
}

// Pending reports whether the active list has changes not yet written,
// either scheduled or left over from a failed write.
func (m *Model) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Close flushes pending changes.
func (m *Model) Close() error {
	if m.Pending() {
		m.Flush()
	}
	return nil
}

// mutate runs fn under the lock, schedules a save and runs the head check.
func (m *Model) mutate(fn func() error) error {
	m.mu.Lock()
	if err := fn(); err != nil {
		m.mu.Unlock()
		return err
	}
	m.scheduleLocked()
	snapshot := dish.Clone(m.dishes)
	m.mu.Unlock()

	if m.config.SaveDelay <= 0 {
		m.Flush()
	}
	if m.notifier != nil {
		m.notifier.Observe(snapshot)
	}
	return nil
}

func (m *Model) scheduleLocked() {
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.pending = true
	if m.config.SaveDelay <= 0 {
		return
	}
	g := m.gen
	m.timer = time.AfterFunc(m.config.SaveDelay, func() { m.fire(g) })
}

func (m *Model) cancelPendingLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.pending = false
}

// fire runs on the timer goroutine. A superseded generation does nothing.
func (m *Model) fire(g uint64) {
	m.mu.Lock()
	if g != m.gen || !m.pending {
		m.mu.Unlock()
		return
	}
	m.pending = false
	m.timer = nil
	snapshot := dish.Clone(m.dishes)
	m.mu.Unlock()

	m.write(g, snapshot)
}

// write stores snapshot unless the same or a newer generation already
// landed.
func (m *Model) write(g uint64, snapshot []dish.Dish) {
	m.writeMu.Lock()
	if m.synced && g <= m.written {
		m.writeMu.Unlock()
		return
	}
	err := m.shared.SaveDishes(context.Background(), snapshot)
	if err == nil {
		m.written = g
		m.synced = true
	}
	m.writeMu.Unlock()

	if err != nil {
		m.config.Logger.Printf("Warning: failed to save dishes: %v", err)
		// Leave the change pending so the next Flush or Close retries it.
		m.mu.Lock()
		if g == m.gen {
			m.pending = true
		}
		m.mu.Unlock()
		return
	}
	if m.notifier != nil {
		m.notifier.Saved(snapshot)
	}
}

func (m *Model) saveArchive(archive []dish.Dish) {
	if err := m.shared.SaveCompleted(context.Background(), archive); err != nil {
		m.config.Logger.Printf("Warning: failed to save completed dishes: %v", err)
	}
}

// uniqueSorted validates indices against n and returns them sorted without
// duplicates.
func uniqueSorted(indices []int, n int) ([]int, error) {
	seen := make(map[int]struct{}, len(indices))
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("%w: %d (list has %d dishes)", ErrIndexOutOfRange, i, n)
		}
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}

// move implements offset-set reordering: the dishes at from keep their
// relative order and land before the element that was at to.
func move(list []dish.Dish, from []int, to int) ([]dish.Dish, error) {
	set, err := uniqueSorted(from, len(list))
	if err != nil {
		return nil, err
	}
	if to < 0 || to > len(list) {
		return nil, fmt.Errorf("%w: destination %d (list has %d dishes)", ErrIndexOutOfRange, to, len(list))
	}

	moving := make([]dish.Dish, 0, len(set))
	rest := make([]dish.Dish, 0, len(list)-len(set))
	picked := make(map[int]struct{}, len(set))
	before := 0
	for _, i := range set {
		picked[i] = struct{}{}
		moving = append(moving, list[i])
		if i < to {
			before++
		}
	}
	for i, d := range list {
		if _, ok := picked[i]; !ok {
			rest = append(rest, d)
		}
	}

	at := to - before
	out := make([]dish.Dish, 0, len(list))
	out = append(out, rest[:at]...)
	out = append(out, moving...)
	out = append(out, rest[at:]...)
	return out, nil
}
