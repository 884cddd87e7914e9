package terminologies

import (
	"runtime"

	"github.com/gofhir/terminologies/pkg/logger"
	"github.com/gofhir/terminologies/terminology"
)

// Option configures a Logic.
type Option func(*Options)

// Options holds all configuration for a Logic.
type Options struct {
	// Dictionaries
	LoadDefaults     bool
	UserContextsPath string

	// Preferred context names, tried first by name searches
	PreferredTerminologies    []string
	PreferredAnatomicContexts []string

	// Performance
	SearchCacheSize int
	LoadConcurrency int

	// Observability
	Logger        *logger.Logger
	EnableMetrics bool
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		LoadDefaults: true,

		SearchCacheSize: terminology.DefaultSearchCacheSize,
		LoadConcurrency: runtime.NumCPU(),

		EnableMetrics: true,
	}
}

// --- Dictionary Options ---

// WithDefaults enables loading of the embedded default dictionaries.
func WithDefaults(enable bool) Option {
	return func(o *Options) {
		o.LoadDefaults = enable
	}
}

// WithUserContextsPath sets a directory whose dictionaries are loaded after
// the defaults. A user dictionary replaces a default one with the same name.
func WithUserContextsPath(path string) Option {
	return func(o *Options) {
		o.UserContextsPath = path
	}
}

// WithPreferredTerminologies sets the terminologies searched first, in order.
func WithPreferredTerminologies(names ...string) Option {
	return func(o *Options) {
		o.PreferredTerminologies = append([]string(nil), names...)
	}
}

// WithPreferredAnatomicContexts sets the anatomic contexts searched first, in order.
func WithPreferredAnatomicContexts(names ...string) Option {
	return func(o *Options) {
		o.PreferredAnatomicContexts = append([]string(nil), names...)
	}
}

// --- Performance Options ---

// WithSearchCacheSize sets the number of cached search results.
// Use 0 to disable the cache.
func WithSearchCacheSize(size int) Option {
	return func(o *Options) {
		if size >= 0 {
			o.SearchCacheSize = size
		}
	}
}

// WithLoadConcurrency sets the number of dictionary files parsed at once.
// Defaults to runtime.NumCPU().
func WithLoadConcurrency(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.LoadConcurrency = n
		}
	}
}

// --- Observability Options ---

// WithLogger sets the logger. Defaults to logger.Default().
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithMetrics enables or disables metrics collection.
func WithMetrics(enable bool) Option {
	return func(o *Options) {
		o.EnableMetrics = enable
	}
}

// --- Presets ---

// EmptyOptions returns options for a Logic with no dictionaries loaded.
func EmptyOptions() []Option {
	return []Option{
		WithDefaults(false),
		WithUserContextsPath(""),
	}
}

// QuietOptions returns options for embedding in tests and tools:
// logging and metrics disabled.
func QuietOptions() []Option {
	return []Option{
		WithLogger(logger.Disabled()),
		WithMetrics(false),
	}
}
