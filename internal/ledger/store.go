// Package ledger holds the two ledgers and the shared id counter, and
// persists them as a single blob after every mutation.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"gigfin/internal/aggregate"
	"gigfin/internal/core"
	"gigfin/internal/log"
	"gigfin/internal/storage"
)

// DefaultKey is the key the state blob is stored under.
const DefaultKey = "gigFinData"

// ErrEntryNotFound is returned when an id is absent from the named ledger.
var ErrEntryNotFound = errors.New("entry not found")

// Store owns the ledger state. All methods are safe for concurrent use;
// mutations are serialized so there is one writer at a time.
type Store struct {
	mu       sync.RWMutex
	blob     storage.BlobStore
	key      string
	logger   *slog.Logger
	state    State
	revision uint64
}

type Option func(*Store)

// WithKey overrides the blob key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New returns a store with empty ledgers and the counter at 1. Call Load to
// read persisted state.
func New(blob storage.BlobStore, opts ...Option) *Store {
	s := &Store{
		blob:   blob,
		key:    DefaultKey,
		logger: slog.Default(),
		state:  emptyState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a store and loads its persisted state.
func Open(ctx context.Context, blob storage.BlobStore, opts ...Option) (*Store, error) {
	s := New(blob, opts...)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the in-memory state with the persisted blob. A missing blob
// yields empty ledgers. A blob that cannot be decoded is discarded and the
// store starts empty; only errors from the backend itself are returned.
func (s *Store) Load(ctx context.Context) error {
	raw, err := s.blob.Get(ctx, s.key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load ledger state: %w", err)
	}

	next := emptyState()
	if err == nil {
		decoded, derr := decodeState(raw)
		if derr != nil {
			s.logger.WarnContext(ctx, "Discarding unreadable ledger state",
				"key", s.key, "bytes", len(raw), "error", derr)
		} else {
			next = decoded
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = next
	s.revision++
	s.logger.DebugContext(ctx, "Ledger state loaded",
		"key", s.key,
		"business", len(next.Business),
		"personal", len(next.Personal),
		"next_id", next.NextID)
	return nil
}

// Save persists the current state as is.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, s.state.clone())
}

// AddEntry assigns the next id, appends the entry to the ledger and persists.
func (s *Store) AddEntry(ctx context.Context, ledger core.LedgerName, fields core.EntryFields) (core.Entry, error) {
	if !ledger.IsValid() {
		return core.Entry{}, fmt.Errorf("%w: %q", core.ErrUnknownLedger, ledger)
	}
	if err := fields.Validate(); err != nil {
		return core.Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	e := core.Entry{
		ID:          next.NextID,
		Date:        fields.Date,
		Amount:      fields.Amount,
		Type:        fields.Type,
		Description: fields.Description,
	}
	next.NextID++
	list := next.ledger(ledger)
	*list = append(*list, e)

	if err := s.commit(ctx, next); err != nil {
		return core.Entry{}, err
	}
	s.logger.InfoContext(ctx, "Entry added",
		log.FieldLedger, ledger, log.FieldEntryID, e.ID, log.FieldEntryType, e.Type,
		log.FieldAmount, e.Amount.String(), "date", e.Date.String())
	return e, nil
}

// UpdateEntry merges patch into the entry with id. The id and ledger never
// change. Nothing is written when the entry does not exist.
func (s *Store) UpdateEntry(ctx context.Context, ledger core.LedgerName, id int64, patch core.EntryPatch) (core.Entry, error) {
	if !ledger.IsValid() {
		return core.Entry{}, fmt.Errorf("%w: %q", core.ErrUnknownLedger, ledger)
	}
	if err := patch.Validate(); err != nil {
		return core.Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(*s.state.ledger(ledger), id)
	if i < 0 {
		return core.Entry{}, fmt.Errorf("%w: %s #%d", ErrEntryNotFound, ledger, id)
	}

	next := s.state.clone()
	list := next.ledger(ledger)
	(*list)[i] = patch.Apply((*list)[i])
	updated := (*list)[i]

	if err := s.commit(ctx, next); err != nil {
		return core.Entry{}, err
	}
	s.logger.InfoContext(ctx, "Entry updated", log.FieldLedger, ledger, log.FieldEntryID, id)
	return updated, nil
}

// DeleteEntry removes the entry with id and returns it. Nothing is written
// when the entry does not exist.
func (s *Store) DeleteEntry(ctx context.Context, ledger core.LedgerName, id int64) (core.Entry, error) {
	if !ledger.IsValid() {
		return core.Entry{}, fmt.Errorf("%w: %q", core.ErrUnknownLedger, ledger)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(*s.state.ledger(ledger), id)
	if i < 0 {
		return core.Entry{}, fmt.Errorf("%w: %s #%d", ErrEntryNotFound, ledger, id)
	}

	next := s.state.clone()
	list := next.ledger(ledger)
	removed := (*list)[i]
	*list = append((*list)[:i], (*list)[i+1:]...)

	if err := s.commit(ctx, next); err != nil {
		return core.Entry{}, err
	}
	s.logger.InfoContext(ctx, "Entry deleted", log.FieldLedger, ledger, log.FieldEntryID, id)
	return removed, nil
}

// Entry returns a single entry.
func (s *Store) Entry(ledger core.LedgerName, id int64) (core.Entry, error) {
	if !ledger.IsValid() {
		return core.Entry{}, fmt.Errorf("%w: %q", core.ErrUnknownLedger, ledger)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := *s.state.ledger(ledger)
	i := indexOf(list, id)
	if i < 0 {
		return core.Entry{}, fmt.Errorf("%w: %s #%d", ErrEntryNotFound, ledger, id)
	}
	return list[i], nil
}

// ListEntries returns the ledger's entries, most recent date first. Entries
// sharing a date keep their insertion order.
func (s *Store) ListEntries(ledger core.LedgerName) ([]core.Entry, error) {
	out, err := s.Entries(ledger)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out, nil
}

// Entries returns a copy of the ledger's entries in insertion order.
func (s *Store) Entries(ledger core.LedgerName) ([]core.Entry, error) {
	if !ledger.IsValid() {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownLedger, ledger)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Entry{}, *s.state.ledger(ledger)...), nil
}

// Totals sums the ledger's income and expense.
func (s *Store) Totals(ledger core.LedgerName) (core.Totals, error) {
	entries, err := s.Entries(ledger)
	if err != nil {
		return core.Totals{}, err
	}
	return aggregate.Totals(entries), nil
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// SnapshotAt returns a deep copy of the state together with its revision.
func (s *Store) SnapshotAt() (State, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone(), s.revision
}

// Revision changes after every load and successful mutation. It is meant
// for cache keys, not as a persisted version.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// commit persists next and, only if that succeeds, makes it current.
// Callers hold the write lock.
func (s *Store) commit(ctx context.Context, next State) error {
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode ledger state: %w", err)
	}
	if err := s.blob.Put(ctx, s.key, raw); err != nil {
		return fmt.Errorf("persist ledger state: %w", err)
	}
	s.state = next
	s.revision++
	return nil
}

func indexOf(entries []core.Entry, id int64) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
