package state

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"cashflow/internal/core"
)

// Listener receives a private copy of the snapshot after each change.
type Listener func(core.State)

// Store is the single writer of the ledger snapshot. Updates are serialized;
// readers always get a copy.
type Store struct {
	mu      sync.Mutex
	state   core.State
	version uint64
	kv      KV
	saved   map[string]string
	logger  *slog.Logger

	subsMu sync.RWMutex
	subs   map[int]Listener
	nextID int
}

// Open loads the persisted snapshot from kv.
func Open(ctx context.Context, kv KV, d Defaults, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store")
	s := &Store{
		state:  Load(ctx, kv, d, logger),
		kv:     kv,
		logger: logger,
		subs:   make(map[int]Listener),
	}
	// Whatever was read counts as saved so the first update only writes real changes.
	s.saved, _ = encode(s.state)
	logger.InfoContext(ctx, "Store opened",
		"businesses", len(s.state.Businesses),
		"signed_in", s.state.CurrentUser != nil)
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() core.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Version increases by one with every applied update.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Update applies fn to the current state. When fn fails nothing changes and the
// error is returned. Otherwise the new state is kept, saved and broadcast;
// saving problems are logged only. A ctx that has already ended applies
// nothing and its error is returned.
func (s *Store) Update(ctx context.Context, fn func(core.State) (core.State, error)) (core.State, error) {
	s.mu.Lock()
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		return core.State{}, err
	}
	next, err := fn(s.state.Clone())
	if err != nil {
		s.mu.Unlock()
		return core.State{}, err
	}
	s.state = next
	s.version++
	s.persist(ctx)
	out := s.state.Clone()
	s.mu.Unlock()

	s.notify(out)
	return out, nil
}

// persist writes the keys whose encoding changed. Must hold mu.
func (s *Store) persist(ctx context.Context) {
	enc, err := encode(s.state)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to encode state", "error", err)
		return
	}
	keys := slices.Sorted(maps.Keys(enc))
	for _, key := range keys {
		value := enc[key]
		if prev, ok := s.saved[key]; ok && prev == value {
			continue
		}
		if value == "" {
			err = s.kv.Delete(ctx, key)
		} else {
			err = s.kv.Set(ctx, key, value)
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to persist key, keeping in-memory state", "key", key, "error", err)
			continue
		}
		s.saved[key] = value
	}
}

// Subscribe registers fn for future changes and returns its cancel func.
func (s *Store) Subscribe(fn Listener) (cancel func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(st core.State) {
	s.subsMu.RLock()
	ids := slices.Sorted(maps.Keys(s.subs))
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.subs[id])
	}
	s.subsMu.RUnlock()

	for _, fn := range listeners {
		fn(st.Clone())
	}
}
