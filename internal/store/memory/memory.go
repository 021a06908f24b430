// Package memory is an in-process catalog store. Units of work are
// serialized by a mutex and stage their writes in an overlay that is merged
// only when the unit succeeds. State can optionally be persisted to a YAML
// snapshot file that is rewritten on every commit.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/collectionmap/pkg/catalog"
	pkgerrors "github.com/agentstation/collectionmap/pkg/errors"
)

var _ catalog.Store = (*Store)(nil)

type collectionKey struct {
	institutionID string
	nameKey       string
}

// state holds committed records. It is only modified under Store.mu.
type state struct {
	institutions map[string]catalog.Institution
	instByKey    map[string]string
	instOrder    []string

	collections map[string]catalog.Collection
	collByKey   map[collectionKey]string
	collOrder   []string
}

func newState() *state {
	return &state{
		institutions: map[string]catalog.Institution{},
		instByKey:    map[string]string{},
		collections:  map[string]catalog.Collection{},
		collByKey:    map[collectionKey]string{},
	}
}

func (s *state) addInstitution(inst catalog.Institution) {
	s.institutions[inst.ID] = inst
	s.instByKey[inst.NameKey] = inst.ID
	s.instOrder = append(s.instOrder, inst.ID)
}

func (s *state) addCollection(coll catalog.Collection) {
	s.collections[coll.ID] = coll
	s.collByKey[collectionKey{coll.InstitutionID, coll.NameKey}] = coll.ID
	s.collOrder = append(s.collOrder, coll.ID)
}

// Store is an in-memory catalog.Store.
type Store struct {
	mu           sync.RWMutex
	state        *state
	snapshotPath string
	logger       *zerolog.Logger
	now          func() time.Time
	newID        func() string
}

// Option configures a Store.
type Option func(*Store)

// WithSnapshot persists the catalog to a YAML file at path.
func WithSnapshot(path string) Option {
	return func(s *Store) {
		s.snapshotPath = path
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store, loading the snapshot file when one is configured and exists.
func New(opts ...Option) (*Store, error) {
	nop := zerolog.Nop()
	s := &Store{
		state:  newState(),
		logger: &nop,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.snapshotPath != "" {
		loaded, err := loadSnapshot(s.snapshotPath)
		if err != nil {
			return nil, err
		}
		if loaded != nil {
			s.state = loaded
			s.logger.Info().
				Str("path", s.snapshotPath).
				Int("institutions", len(loaded.institutions)).
				Int("collections", len(loaded.collections)).
				Msg("Loaded catalog snapshot")
		}
	}
	return s, nil
}

// WithTx implements catalog.Store.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx catalog.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &tx{store: s, base: s.state, staged: newState()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if len(tx.staged.instOrder) == 0 && len(tx.staged.collOrder) == 0 {
		return nil
	}

	next := s.merged(tx.staged)
	if s.snapshotPath != "" {
		if err := writeSnapshot(s.snapshotPath, next); err != nil {
			return pkgerrors.NewConflictError("catalog", s.snapshotPath, err)
		}
	}
	s.state = next
	return nil
}

// merged returns a copy of the committed state with staged records appended.
func (s *Store) merged(staged *state) *state {
	base := s.state
	next := &state{
		institutions: make(map[string]catalog.Institution, len(base.institutions)+len(staged.institutions)),
		instByKey:    make(map[string]string, len(base.instByKey)+len(staged.instByKey)),
		instOrder:    make([]string, 0, len(base.instOrder)+len(staged.instOrder)),
		collections:  make(map[string]catalog.Collection, len(base.collections)+len(staged.collections)),
		collByKey:    make(map[collectionKey]string, len(base.collByKey)+len(staged.collByKey)),
		collOrder:    make([]string, 0, len(base.collOrder)+len(staged.collOrder)),
	}
	for _, st := range []*state{base, staged} {
		for _, id := range st.instOrder {
			next.addInstitution(st.institutions[id])
		}
		for _, id := range st.collOrder {
			next.addCollection(st.collections[id])
		}
	}
	return next
}

// Institution implements catalog.Reader.
func (s *Store) Institution(ctx context.Context, id string) (catalog.Institution, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Institution{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.state.institutions[id]
	if !ok {
		return catalog.Institution{}, pkgerrors.NewNotFoundError("institution", id)
	}
	return inst, nil
}

// Collection implements catalog.Reader.
func (s *Store) Collection(ctx context.Context, id string) (catalog.Collection, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Collection{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	coll, ok := s.state.collections[id]
	if !ok {
		return catalog.Collection{}, pkgerrors.NewNotFoundError("collection", id)
	}
	return coll, nil
}

// Institutions implements catalog.Reader.
func (s *Store) Institutions(ctx context.Context) ([]catalog.Institution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Institution, 0, len(s.state.instOrder))
	for _, id := range s.state.instOrder {
		out = append(out, s.state.institutions[id])
	}
	return out, nil
}

// Collections implements catalog.Reader.
func (s *Store) Collections(ctx context.Context, filter catalog.CollectionFilter) ([]catalog.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Collection, 0, len(s.state.collOrder))
	for _, id := range s.state.collOrder {
		if c := s.state.collections[id]; filter.Match(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Close implements catalog.Store.
func (s *Store) Close(context.Context) error {
	return nil
}
