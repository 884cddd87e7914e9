package terminology

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gofhir/terminologies/pkg/logger"
)

// Observer receives store events. Implementations must be safe for concurrent use.
type Observer interface {
	RecordLoad(kind Kind, ok bool)
	RecordLookup(found bool)
	RecordSearch()
	RecordCacheLookup(hit bool)
}

type nopObserver struct{}

func (nopObserver) RecordLoad(Kind, bool) {}
func (nopObserver) RecordLookup(bool)     {}
func (nopObserver) RecordSearch()         {}
func (nopObserver) RecordCacheLookup(bool) {}

// snapshot is an immutable view of every loaded context.
type snapshot struct {
	generation uint64

	terminologyNames []string
	terminologies    map[string]*TerminologyContext

	anatomicNames []string
	anatomics     map[string]*AnatomicContext
}

func emptySnapshot() *snapshot {
	return &snapshot{
		terminologies: make(map[string]*TerminologyContext),
		anatomics:     make(map[string]*AnatomicContext),
	}
}

// withTerminology returns a copy of s with t inserted or replaced.
// Replacing keeps the original listing position.
func (s *snapshot) withTerminology(t *TerminologyContext) *snapshot {
	next := &snapshot{
		generation:       s.generation + 1,
		terminologyNames: s.terminologyNames,
		terminologies:    make(map[string]*TerminologyContext, len(s.terminologies)+1),
		anatomicNames:    s.anatomicNames,
		anatomics:        s.anatomics,
	}
	for k, v := range s.terminologies {
		next.terminologies[k] = v
	}
	if _, exists := s.terminologies[t.Name]; !exists {
		next.terminologyNames = appendName(s.terminologyNames, t.Name)
	}
	next.terminologies[t.Name] = t
	return next
}

// withAnatomic returns a copy of s with a inserted or replaced.
func (s *snapshot) withAnatomic(a *AnatomicContext) *snapshot {
	next := &snapshot{
		generation:       s.generation + 1,
		terminologyNames: s.terminologyNames,
		terminologies:    s.terminologies,
		anatomicNames:    s.anatomicNames,
		anatomics:        make(map[string]*AnatomicContext, len(s.anatomics)+1),
	}
	for k, v := range s.anatomics {
		next.anatomics[k] = v
	}
	if _, exists := s.anatomics[a.Name]; !exists {
		next.anatomicNames = appendName(s.anatomicNames, a.Name)
	}
	next.anatomics[a.Name] = a
	return next
}

// appendName never writes into a backing array shared with older snapshots.
func appendName(names []string, name string) []string {
	out := make([]string, len(names), len(names)+1)
	copy(out, names)
	return append(out, name)
}

// Store holds the loaded terminology and anatomic contexts.
//
// Readers never block: every query works on an immutable snapshot obtained
// with a single atomic load. Writers build the next snapshot off to the side
// and publish it with one atomic store.
type Store struct {
	mu      sync.Mutex // serializes writers
	current atomic.Pointer[snapshot]

	observer Observer
	log      *logger.Logger
	cache    *searchCache
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithObserver sets the observer notified of loads, lookups and searches.
func WithObserver(o Observer) StoreOption {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithLogger sets the logger used to report load outcomes.
func WithLogger(l *logger.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSearchCacheSize sets the capacity of the search result cache.
// Use 0 to disable caching.
func WithSearchCacheSize(size int) StoreOption {
	return func(s *Store) {
		if size <= 0 {
			s.cache = nil
			return
		}
		s.cache = newSearchCache(size)
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		observer: nopObserver{},
		log:      logger.Default(),
		cache:    newSearchCache(DefaultSearchCacheSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(emptySnapshot())
	return s
}

func (s *Store) snap() *snapshot {
	return s.current.Load()
}

// LoadTerminology parses a terminology dictionary and inserts it under its
// declared name, replacing any context with the same name.
// On failure the store is left unchanged.
func (s *Store) LoadTerminology(data []byte) (string, error) {
	t, err := ParseTerminology(data)
	if err != nil {
		s.observer.RecordLoad(KindTerminology, false)
		s.log.Warn("failed to load terminology: %v", err)
		return "", err
	}
	s.putTerminology(t)
	return t.Name, nil
}

// LoadAnatomicContext parses an anatomic context dictionary and inserts it
// under its declared name, replacing any context with the same name.
// On failure the store is left unchanged.
func (s *Store) LoadAnatomicContext(data []byte) (string, error) {
	a, err := ParseAnatomicContext(data)
	if err != nil {
		s.observer.RecordLoad(KindAnatomic, false)
		s.log.Warn("failed to load anatomic context: %v", err)
		return "", err
	}
	s.putAnatomicContext(a)
	return a.Name, nil
}

// LoadContext loads a dictionary whose kind is not known up front.
func (s *Store) LoadContext(data []byte) (Kind, string, error) {
	kind, err := DetectKind(data)
	if err != nil {
		s.log.Warn("failed to load context: %v", err)
		return 0, "", err
	}
	var name string
	if kind == KindTerminology {
		name, err = s.LoadTerminology(data)
	} else {
		name, err = s.LoadAnatomicContext(data)
	}
	return kind, name, err
}

func (s *Store) putTerminology(t *TerminologyContext) {
	s.mu.Lock()
	s.current.Store(s.snap().withTerminology(t))
	s.mu.Unlock()

	s.observer.RecordLoad(KindTerminology, true)
	s.log.Debug("loaded terminology %q (%d categories)", t.Name, len(t.Categories))
}

func (s *Store) putAnatomicContext(a *AnatomicContext) {
	s.mu.Lock()
	s.current.Store(s.snap().withAnatomic(a))
	s.mu.Unlock()

	s.observer.RecordLoad(KindAnatomic, true)
	s.log.Debug("loaded anatomic context %q (%d regions)", a.Name, len(a.Regions))
}

// Put inserts a dictionary into its namespace. The dictionary is validated
// with the same rules the parser applies and the store keeps its own copy,
// so later changes to d are not visible to lookups.
func (s *Store) Put(d *Dictionary) error {
	if d == nil {
		return fmt.Errorf("%w: nil dictionary", ErrMalformedDictionary)
	}
	var err error
	switch d.Kind {
	case KindTerminology:
		var t *TerminologyContext
		if d.Anatomic != nil {
			err = fmt.Errorf("%w: terminology dictionary also carries an anatomic context", ErrMalformedDictionary)
		} else if t, err = sealTerminology(d.Terminology); err == nil {
			s.putTerminology(t)
			return nil
		}
	case KindAnatomic:
		var a *AnatomicContext
		if d.Terminology != nil {
			err = fmt.Errorf("%w: anatomic dictionary also carries a terminology", ErrMalformedDictionary)
		} else if a, err = sealAnatomicContext(d.Anatomic); err == nil {
			s.putAnatomicContext(a)
			return nil
		}
	default:
		return fmt.Errorf("%w: unknown dictionary kind %d", ErrMalformedDictionary, int(d.Kind))
	}
	s.observer.RecordLoad(d.Kind, false)
	s.log.Warn("failed to insert %s: %v", d.Kind, err)
	return err
}

// TerminologyNames returns the names of loaded terminologies in insertion order.
func (s *Store) TerminologyNames() []string {
	return append([]string(nil), s.snap().terminologyNames...)
}

// AnatomicContextNames returns the names of loaded anatomic contexts in insertion order.
func (s *Store) AnatomicContextNames() []string {
	return append([]string(nil), s.snap().anatomicNames...)
}

// Terminology returns a copy of the terminology context with the given name.
func (s *Store) Terminology(name string) (*TerminologyContext, bool) {
	t, ok := s.snap().terminologies[name]
	if !ok {
		return nil, false
	}
	return t.clone(), true
}

// AnatomicContext returns a copy of the anatomic context with the given name.
func (s *Store) AnatomicContext(name string) (*AnatomicContext, bool) {
	a, ok := s.snap().anatomics[name]
	if !ok {
		return nil, false
	}
	return a.clone(), true
}

// Generation returns a counter incremented by every successful load.
func (s *Store) Generation() uint64 {
	return s.snap().generation
}
