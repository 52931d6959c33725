package state

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/legacyctl/internal/protocol"
)

// Key identifies one entity record.
type Key struct {
	Scope   protocol.Scope
	Address uint8
}

// Store owns every entity record. Records are created lazily on first
// reference and live for the process lifetime.
type Store struct {
	// mu guards the map only, never an entity's fields.
	mu       sync.RWMutex
	entities map[Key]Entity

	deps     *DependencyMap
	debounce time.Duration
	log      zerolog.Logger
	clock    func() time.Time
}

// Option tunes store construction.
type Option func(*Store)

// WithDebounce overrides the momentary-press debounce window.
func WithDebounce(window time.Duration) Option {
	return func(s *Store) { s.debounce = window }
}

// WithClock injects a time source for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

func NewStore(deps *DependencyMap, log zerolog.Logger, opts ...Option) *Store {
	if deps == nil {
		deps = DefaultDependencies()
	}
	s := &Store{
		entities: make(map[Key]Entity),
		deps:     deps,
		debounce: DefaultDebounce,
		log:      log.With().Str("component", "state").Logger(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the entity for (scope, address), creating it when create
// is set. Addresses outside 1..99 are invalid lookups.
func (s *Store) Get(scope protocol.Scope, address uint8, create bool) (Entity, error) {
	if address < protocol.MinAddress || address > protocol.MaxAddress {
		return nil, fmt.Errorf("%w: %d", protocol.ErrInvalidAddress, address)
	}
	key := Key{Scope: scope, Address: address}

	s.mu.RLock()
	ent, ok := s.entities[key]
	s.mu.RUnlock()
	if ok || !create {
		if !ok {
			return nil, nil
		}
		return ent, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ent, ok := s.entities[key]; ok {
		return ent, nil
	}
	ent, err := s.newEntity(scope, address)
	if err != nil {
		return nil, err
	}
	s.entities[key] = ent
	return ent, nil
}

func (s *Store) newEntity(scope protocol.Scope, address uint8) (Entity, error) {
	switch scope {
	case protocol.ScopeEngine, protocol.ScopeTrain:
		return newEngineState(scope, address, s.debounce), nil
	case protocol.ScopeSwitch:
		return newSwitchState(address), nil
	case protocol.ScopeAccessory:
		return newAccessoryState(address, s.debounce), nil
	case protocol.ScopeIrda:
		return newIrdaState(address), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedScope, scope)
}

// ResultsIn exposes the dependency table: the kinds implied by firing
// kind with data.
func (s *Store) ResultsIn(kind protocol.Kind, data uint32) []protocol.Kind {
	return s.deps.ResultsIn(kind, data)
}

// OnCommand folds one dispatched command into entity state. It is the
// dispatcher subscription target and must never panic.
func (s *Store) OnCommand(req *protocol.Request) {
	now := s.clock()

	switch {
	case req.IsHalt(), req.IsMotiveHalt():
		s.resetMotive(now)
		return
	case req.Address() == protocol.BroadcastAddress && isAbsoluteSpeed(req.Kind()):
		// Broadcast-encoded halt: stop everything that moves.
		s.resetMotive(now)
		return
	case req.Scope() == protocol.ScopeSystem, req.Scope() == protocol.ScopeRoute:
		// Routes and system pings hold no entity state.
		return
	case req.Address() == protocol.BroadcastAddress:
		s.applyBroadcast(req, now)
		return
	}

	ent, err := s.Get(req.Scope(), req.Address(), true)
	if err != nil {
		s.log.Warn().Err(err).Str("command", req.String()).Msg("state update skipped")
		return
	}
	s.applyOne(ent, req, now)
}

func (s *Store) applyOne(ent Entity, req *protocol.Request, now time.Time) {
	effects := s.deps.ResultsIn(req.Kind(), req.Data())
	if err := ent.apply(req, effects, now); err != nil {
		// A conflicting address is reportable, never fatal; the update
		// is ignored.
		s.log.Warn().Err(err).Str("command", req.String()).Msg("state update rejected")
	}
}

// applyBroadcast applies a scope-wide command to every known entity of
// that scope.
func (s *Store) applyBroadcast(req *protocol.Request, now time.Time) {
	for _, ent := range s.ofScope(req.Scope()) {
		s.applyOne(ent, req, now)
	}
}

// resetMotive clears speed and direction on every known engine and train.
func (s *Store) resetMotive(now time.Time) {
	for _, ent := range append(s.ofScope(protocol.ScopeEngine), s.ofScope(protocol.ScopeTrain)...) {
		if eng, ok := ent.(*EngineState); ok {
			eng.resetMotion(now)
		}
	}
}

func (s *Store) ofScope(scope protocol.Scope) []Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entity, 0, len(s.entities))
	for key, ent := range s.entities {
		if key.Scope == scope {
			out = append(out, ent)
		}
	}
	return out
}

// Snapshots returns a stable-ordered copy of every known entity.
func (s *Store) Snapshots() []Snapshot {
	s.mu.RLock()
	ents := make([]Entity, 0, len(s.entities))
	for _, ent := range s.entities {
		ents = append(ents, ent)
	}
	s.mu.RUnlock()

	out := make([]Snapshot, 0, len(ents))
	for _, ent := range ents {
		out = append(out, ent.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Scope != out[j].Scope {
			return out[i].Scope < out[j].Scope
		}
		return out[i].Address < out[j].Address
	})
	return out
}

func isAbsoluteSpeed(kind protocol.Kind) bool {
	return kind == protocol.KindTmcc1AbsoluteSpeed || kind == protocol.KindTmcc2AbsoluteSpeed
}
