// Package liststore persists the subscriber address lists.
//
// Every mutation is a full read of the target list followed by a full
// rewrite or a single append. Writers within one process are serialised
// per list; nothing coordinates writers across processes.
package liststore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/quotecast/quotecast/internal/model"
)

// ErrStorage wraps every backend failure surfaced by Store.
var ErrStorage = errors.New("list storage error")

// Backend reads and writes the raw lines of a named list.
type Backend interface {
	// Read returns the stored lines. found is false when the list has never
	// been written; that case is not an error.
	Read(ctx context.Context, list model.ListName) (lines []string, found bool, err error)
	// Write replaces the whole list.
	Write(ctx context.Context, list model.ListName, lines []string) error
	// Append adds lines to the end of the list, creating it if needed.
	Append(ctx context.Context, list model.ListName, lines []string) error
}

// BulkResult reports what a bulk operation did with each input entry.
type BulkResult struct {
	Applied []string `json:"applied"`
	Skipped []string `json:"skipped"`
	Invalid []string `json:"invalid"`
}

// Store provides list operations on top of a Backend.
type Store struct {
	backend Backend
	logger  *slog.Logger
	locks   map[model.ListName]*sync.Mutex
}

// New creates a Store over the given backend.
func New(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	locks := make(map[model.ListName]*sync.Mutex, len(model.AllLists))
	for _, l := range model.AllLists {
		locks[l] = &sync.Mutex{}
	}
	return &Store{
		backend: backend,
		logger:  logger.With("component", "liststore"),
		locks:   locks,
	}
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend {
	return s.backend
}

func (s *Store) lock(list model.ListName) (func(), error) {
	mu, ok := s.locks[list]
	if !ok {
		return nil, fmt.Errorf("unknown list %q", list)
	}
	mu.Lock()
	return mu.Unlock, nil
}

// read loads a list and drops blank entries. Membership lists also drop
// repeated lines, keeping the first occurrence. Caller holds the list lock.
func (s *Store) read(ctx context.Context, list model.ListName) ([]string, bool, error) {
	lines, found, err := s.backend.Read(ctx, list)
	if err != nil {
		return nil, false, fmt.Errorf("%w: read %s: %w", ErrStorage, list, err)
	}
	lines = cleanLines(lines)
	if !list.KeepsRepeats() {
		lines = dedupe(lines)
	}
	return lines, found, nil
}

// Load returns the addresses of a list in insertion order.
// A list that was never written yields an empty slice.
func (s *Store) Load(ctx context.Context, list model.ListName) ([]string, error) {
	unlock, err := s.lock(list)
	if err != nil {
		return nil, err
	}
	defer unlock()

	lines, _, err := s.read(ctx, list)
	return lines, err
}

// Exists reports whether the list has ever been written.
func (s *Store) Exists(ctx context.Context, list model.ListName) (bool, error) {
	unlock, err := s.lock(list)
	if err != nil {
		return false, err
	}
	defer unlock()

	_, found, err := s.read(ctx, list)
	return found, err
}

// Contains reports whether address is on the list.
func (s *Store) Contains(ctx context.Context, list model.ListName, address string) (bool, error) {
	lines, err := s.Load(ctx, list)
	if err != nil {
		return false, err
	}
	return indexOf(lines, address) >= 0, nil
}

// Count returns the number of entries on the list.
func (s *Store) Count(ctx context.Context, list model.ListName) (int, error) {
	lines, err := s.Load(ctx, list)
	if err != nil {
		return 0, err
	}
	return len(lines), nil
}

// Add appends address unless it is already present.
// Returns false when the address was already on the list.
func (s *Store) Add(ctx context.Context, list model.ListName, address string) (bool, error) {
	address, err := model.NormalizeEmail(address)
	if err != nil {
		return false, err
	}

	unlock, err := s.lock(list)
	if err != nil {
		return false, err
	}
	defer unlock()

	lines, _, err := s.read(ctx, list)
	if err != nil {
		return false, err
	}
	if indexOf(lines, address) >= 0 {
		return false, nil
	}

	if err := s.backend.Append(ctx, list, []string{address}); err != nil {
		return false, fmt.Errorf("%w: append %s: %w", ErrStorage, list, err)
	}
	return true, nil
}

// Record appends address without a membership check.
// Used for audit-style lists where repeats are meaningful.
func (s *Store) Record(ctx context.Context, list model.ListName, address string) error {
	unlock, err := s.lock(list)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.backend.Append(ctx, list, []string{address}); err != nil {
		return fmt.Errorf("%w: append %s: %w", ErrStorage, list, err)
	}
	return nil
}

// Remove rewrites the list without any exact match of address.
// Removing an absent address is a no-op and reports false.
func (s *Store) Remove(ctx context.Context, list model.ListName, address string) (bool, error) {
	unlock, err := s.lock(list)
	if err != nil {
		return false, err
	}
	defer unlock()

	lines, found, err := s.read(ctx, list)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	kept := make([]string, 0, len(lines))
	for _, l := range lines {
		if l != address {
			kept = append(kept, l)
		}
	}
	if len(kept) == len(lines) {
		return false, nil
	}

	if err := s.backend.Write(ctx, list, kept); err != nil {
		return false, fmt.Errorf("%w: write %s: %w", ErrStorage, list, err)
	}
	return true, nil
}

// BulkAdd splits raw on newlines and commas and appends every valid address
// not already present, in a single write. Duplicates inside raw collapse to
// the first occurrence.
func (s *Store) BulkAdd(ctx context.Context, list model.ListName, raw string) (*BulkResult, error) {
	unlock, err := s.lock(list)
	if err != nil {
		return nil, err
	}
	defer unlock()

	lines, _, err := s.read(ctx, list)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		seen[l] = struct{}{}
	}

	result := &BulkResult{}
	for _, entry := range model.SplitAddresses(raw) {
		if !model.IsValidEmail(entry) {
			result.Invalid = append(result.Invalid, entry)
			continue
		}
		if _, dup := seen[entry]; dup {
			result.Skipped = append(result.Skipped, entry)
			continue
		}
		seen[entry] = struct{}{}
		result.Applied = append(result.Applied, entry)
	}

	if len(result.Applied) == 0 {
		return result, nil
	}
	if err := s.backend.Append(ctx, list, result.Applied); err != nil {
		return nil, fmt.Errorf("%w: append %s: %w", ErrStorage, list, err)
	}

	s.logger.Info("bulk add",
		slog.String("list", string(list)),
		slog.Int("added", len(result.Applied)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("invalid", len(result.Invalid)),
	)
	return result, nil
}

// BulkRemove splits raw like BulkAdd and rewrites the list once without any
// of the matching entries.
func (s *Store) BulkRemove(ctx context.Context, list model.ListName, raw string) (*BulkResult, error) {
	unlock, err := s.lock(list)
	if err != nil {
		return nil, err
	}
	defer unlock()

	lines, found, err := s.read(ctx, list)
	if err != nil {
		return nil, err
	}

	targets := make(map[string]struct{})
	for _, entry := range model.SplitAddresses(raw) {
		targets[entry] = struct{}{}
	}

	present := make(map[string]struct{}, len(lines))
	kept := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, drop := targets[l]; drop {
			present[l] = struct{}{}
			continue
		}
		kept = append(kept, l)
	}

	result := &BulkResult{}
	for _, entry := range model.SplitAddresses(raw) {
		if _, ok := present[entry]; ok {
			result.Applied = append(result.Applied, entry)
			delete(present, entry)
		} else {
			result.Skipped = append(result.Skipped, entry)
		}
	}

	if !found || len(kept) == len(lines) {
		return result, nil
	}
	if err := s.backend.Write(ctx, list, kept); err != nil {
		return nil, fmt.Errorf("%w: write %s: %w", ErrStorage, list, err)
	}

	s.logger.Info("bulk remove",
		slog.String("list", string(list)),
		slog.Int("removed", len(lines)-len(kept)),
	)
	return result, nil
}

func dedupe(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := lines[:0]
	for _, l := range lines {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

func indexOf(lines []string, address string) int {
	for i, l := range lines {
		if l == address {
			return i
		}
	}
	return -1
}
