package terminologies

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/gofhir/terminologies/dictionaries"
	"github.com/gofhir/terminologies/fhir"
	"github.com/gofhir/terminologies/loader"
	"github.com/gofhir/terminologies/pkg/logger"
	"github.com/gofhir/terminologies/terminology"
)

// ErrNoUserContextsPath is returned by operations on the user directory when
// none is configured.
var ErrNoUserContextsPath = errors.New("no user contexts path configured")

// Logic owns a Store and the dictionaries loaded into it.
// All methods are safe for concurrent use.
type Logic struct {
	opts    *Options
	store   *terminology.Store
	metrics *Metrics
	matcher *fhir.Matcher
	log     *logger.Logger

	mu       sync.RWMutex
	userPath string
}

// New creates a Logic, loading the embedded defaults and then the user
// contexts directory, so a user dictionary replaces a default one with the
// same name. A missing user directory is not an error; unreadable files in it
// are skipped and logged.
func New(ctx context.Context, opts ...Option) (*Logic, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.Logger == nil {
		o.Logger = logger.Default()
	}

	l := &Logic{
		opts:     o,
		matcher:  fhir.NewMatcher(),
		log:      o.Logger,
		userPath: o.UserContextsPath,
	}
	storeOpts := []terminology.StoreOption{
		terminology.WithLogger(o.Logger),
		terminology.WithSearchCacheSize(o.SearchCacheSize),
	}
	if o.EnableMetrics {
		l.metrics = NewMetrics()
		storeOpts = append(storeOpts, terminology.WithObserver(l.metrics))
	}
	l.store = terminology.NewStore(storeOpts...)

	if o.LoadDefaults {
		if _, err := l.LoadDefaultTerminologies(ctx); err != nil {
			return nil, err
		}
		if _, err := l.LoadDefaultAnatomicContexts(ctx); err != nil {
			return nil, err
		}
	}
	if o.UserContextsPath != "" {
		if _, err := l.LoadUserContexts(ctx); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return l, nil
}

// Store returns the underlying store.
func (l *Logic) Store() *terminology.Store {
	return l.store
}

// Metrics returns the collected metrics, or nil when metrics are disabled.
func (l *Logic) Metrics() *Metrics {
	return l.metrics
}

// Matcher returns the FHIRPath matcher shared by this Logic.
func (l *Logic) Matcher() *fhir.Matcher {
	return l.matcher
}

// UserContextsPath returns the user contexts directory.
func (l *Logic) UserContextsPath() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.userPath
}

// SetUserContextsPath changes the user contexts directory. Already loaded
// contexts are kept; call LoadUserContexts to load the new directory.
func (l *Logic) SetUserContextsPath(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.userPath = path
}

func (l *Logic) loaderOptions(extra ...loader.Option) []loader.Option {
	opts := []loader.Option{
		loader.WithLogger(l.log),
		loader.WithConcurrency(l.opts.LoadConcurrency),
	}
	return append(opts, extra...)
}

func (l *Logic) record(stats *loader.Stats) {
	if l.metrics != nil && stats != nil {
		l.metrics.RecordDirectoryLoad(stats.Duration, stats.Errors)
	}
}

// LoadDefaultTerminologies loads the embedded terminology dictionaries.
// Embedded files are expected to be valid; any file error fails the call.
func (l *Logic) LoadDefaultTerminologies(ctx context.Context) (*loader.Stats, error) {
	return l.loadDefaults(ctx, dictionaries.Terminology)
}

// LoadDefaultAnatomicContexts loads the embedded anatomic context dictionaries.
func (l *Logic) LoadDefaultAnatomicContexts(ctx context.Context) (*loader.Stats, error) {
	return l.loadDefaults(ctx, dictionaries.Anatomic)
}

func (l *Logic) loadDefaults(ctx context.Context, ns dictionaries.Namespace) (*loader.Stats, error) {
	fsys, dir, err := dictionaries.GetFS(ns)
	if err != nil {
		return nil, err
	}
	stats, err := loader.LoadFS(ctx, l.store, fsys, dir, l.loaderOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to load default %s dictionaries: %w", ns, err)
	}
	l.record(stats)
	for _, f := range stats.Files {
		if f.Err != nil {
			return stats, fmt.Errorf("invalid default dictionary %s: %w", f.Path, f.Err)
		}
	}
	l.log.Debug("loaded %d default %s dictionaries", stats.Loaded(), ns)
	return stats, nil
}

// LoadUserContexts loads every dictionary in the user contexts directory.
// Files that fail to load are reported in the returned stats.
func (l *Logic) LoadUserContexts(ctx context.Context) (*loader.Stats, error) {
	dir := l.UserContextsPath()
	if dir == "" {
		return nil, ErrNoUserContextsPath
	}
	if _, err := os.Stat(dir); err != nil {
		l.log.Debug("user contexts directory %s not available: %v", dir, err)
		return nil, fmt.Errorf("failed to access user contexts directory: %w", err)
	}
	stats, err := loader.LoadDirectory(ctx, l.store, dir, l.loaderOptions()...)
	if err != nil {
		return nil, err
	}
	l.record(stats)
	l.log.Info("loaded %d user contexts from %s (%d errors)", stats.Loaded(), dir, stats.Errors)
	return stats, nil
}

// Watch reloads changed dictionaries of the user contexts directory until ctx
// is cancelled. onReload, when not nil, is called after every reload.
func (l *Logic) Watch(ctx context.Context, onReload func(*loader.Stats), opts ...loader.Option) error {
	dir := l.UserContextsPath()
	if dir == "" {
		return ErrNoUserContextsPath
	}
	hook := loader.WithReloadHook(func(stats *loader.Stats) {
		l.record(stats)
		if onReload != nil {
			onReload(stats)
		}
	})
	return loader.Watch(ctx, l.store, dir, l.loaderOptions(append(opts, hook)...)...)
}

// --- File loading ---

// LoadContextFromFile loads a dictionary file of either kind.
func (l *Logic) LoadContextFromFile(path string) (terminology.Kind, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read context file: %w", err)
	}
	return l.store.LoadContext(data)
}

// LoadTerminologyFromFile loads a terminology dictionary file and returns the
// name of the loaded context.
func (l *Logic) LoadTerminologyFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read terminology file: %w", err)
	}
	return l.store.LoadTerminology(data)
}

// LoadAnatomicContextFromFile loads an anatomic context dictionary file and
// returns the name of the loaded context.
func (l *Logic) LoadAnatomicContextFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read anatomic context file: %w", err)
	}
	return l.store.LoadAnatomicContext(data)
}

// LoadTerminologyFromSegmentDescriptorFile merges the codes of a segmentation
// descriptor file into the named terminology.
func (l *Logic) LoadTerminologyFromSegmentDescriptorFile(contextName, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read segment descriptor: %w", err)
	}
	return l.store.LoadTerminologyFromSegmentDescriptor(contextName, data)
}

// LoadAnatomicContextFromSegmentDescriptorFile merges the anatomic codes of a
// segmentation descriptor file into the named anatomic context.
func (l *Logic) LoadAnatomicContextFromSegmentDescriptorFile(contextName, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read segment descriptor: %w", err)
	}
	return l.store.LoadAnatomicContextFromSegmentDescriptor(contextName, data)
}

// --- Lookup helpers ---

// FindTerminologyNames returns the terminologies containing the given codes,
// searching the preferred terminologies from the options when set.
func (l *Logic) FindTerminologyNames(categoryID, typeID terminology.CodeIdentifier, modifierID *terminology.CodeIdentifier) []string {
	return l.store.FindTerminologyNames(categoryID, typeID, modifierID, l.opts.PreferredTerminologies)
}

// FindAnatomicContextNames returns the anatomic contexts containing the given
// codes, searching the preferred anatomic contexts from the options when set.
func (l *Logic) FindAnatomicContextNames(regionID terminology.CodeIdentifier, modifierID *terminology.CodeIdentifier) []string {
	return l.store.FindAnatomicContextNames(regionID, modifierID, l.opts.PreferredAnatomicContexts)
}

// ResolveSerialized parses a serialized entry and resolves it against the store.
func (l *Logic) ResolveSerialized(s string) (*terminology.ResolvedEntry, error) {
	e, err := terminology.DeserializeEntry(s)
	if err != nil {
		return nil, err
	}
	return l.store.ResolveEntry(e)
}

// FilterEntries returns the entries whose exported document satisfies a
// FHIRPath expression.
func (l *Logic) FilterEntries(expression string, entries []terminology.Entry) ([]terminology.Entry, error) {
	return l.matcher.Filter(expression, entries)
}
