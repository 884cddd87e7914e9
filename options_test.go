package terminologies

import (
	"runtime"
	"testing"

	"github.com/gofhir/terminologies/pkg/logger"
	"github.com/gofhir/terminologies/terminology"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.LoadDefaults != true {
		t.Error("LoadDefaults should be true by default")
	}
	if opts.UserContextsPath != "" {
		t.Errorf("UserContextsPath = %q; want empty", opts.UserContextsPath)
	}
	if len(opts.PreferredTerminologies) != 0 || len(opts.PreferredAnatomicContexts) != 0 {
		t.Error("preferred contexts should be empty by default")
	}
	if opts.SearchCacheSize != terminology.DefaultSearchCacheSize {
		t.Errorf("SearchCacheSize = %d; want %d", opts.SearchCacheSize, terminology.DefaultSearchCacheSize)
	}
	if opts.LoadConcurrency != runtime.NumCPU() {
		t.Errorf("LoadConcurrency = %d; want %d", opts.LoadConcurrency, runtime.NumCPU())
	}
	if opts.Logger != nil {
		t.Error("Logger should be nil by default")
	}
	if opts.EnableMetrics != true {
		t.Error("EnableMetrics should be true by default")
	}
}

func TestWithDefaults(t *testing.T) {
	opts := DefaultOptions()
	WithDefaults(false)(opts)
	if opts.LoadDefaults {
		t.Error("WithDefaults(false) should disable default loading")
	}
}

func TestWithUserContextsPath(t *testing.T) {
	opts := DefaultOptions()
	WithUserContextsPath("/tmp/contexts")(opts)
	if opts.UserContextsPath != "/tmp/contexts" {
		t.Errorf("UserContextsPath = %q; want %q", opts.UserContextsPath, "/tmp/contexts")
	}
}

func TestWithPreferredContexts(t *testing.T) {
	names := []string{"b", "a"}
	opts := DefaultOptions()
	WithPreferredTerminologies(names...)(opts)
	WithPreferredAnatomicContexts("x")(opts)

	names[0] = "mutated"
	if got := opts.PreferredTerminologies; len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("PreferredTerminologies = %v; want [b a]", got)
	}
	if got := opts.PreferredAnatomicContexts; len(got) != 1 || got[0] != "x" {
		t.Errorf("PreferredAnatomicContexts = %v; want [x]", got)
	}
}

func TestWithSearchCacheSize(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{100, 100},
		{0, 0},
		{-1, terminology.DefaultSearchCacheSize}, // negative is ignored
	}

	for _, tt := range tests {
		opts := DefaultOptions()
		WithSearchCacheSize(tt.size)(opts)
		if opts.SearchCacheSize != tt.want {
			t.Errorf("WithSearchCacheSize(%d): SearchCacheSize = %d; want %d", tt.size, opts.SearchCacheSize, tt.want)
		}
	}
}

func TestWithLoadConcurrency(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{4, 4},
		{1, 1},
		{0, runtime.NumCPU()},  // zero is ignored
		{-1, runtime.NumCPU()}, // negative is ignored
	}

	for _, tt := range tests {
		opts := DefaultOptions()
		WithLoadConcurrency(tt.n)(opts)
		if opts.LoadConcurrency != tt.want {
			t.Errorf("WithLoadConcurrency(%d): LoadConcurrency = %d; want %d", tt.n, opts.LoadConcurrency, tt.want)
		}
	}
}

func TestWithLogger(t *testing.T) {
	l := logger.Disabled()
	opts := DefaultOptions()
	WithLogger(l)(opts)
	if opts.Logger != l {
		t.Error("WithLogger should set Logger")
	}
}

func TestWithMetrics(t *testing.T) {
	opts := DefaultOptions()
	WithMetrics(false)(opts)
	if opts.EnableMetrics {
		t.Error("WithMetrics(false) should disable metrics")
	}
}

func TestPresets(t *testing.T) {
	opts := DefaultOptions()
	opts.UserContextsPath = "/somewhere"
	for _, opt := range EmptyOptions() {
		opt(opts)
	}
	if opts.LoadDefaults || opts.UserContextsPath != "" {
		t.Errorf("EmptyOptions: LoadDefaults = %v, UserContextsPath = %q; want false, empty",
			opts.LoadDefaults, opts.UserContextsPath)
	}

	opts = DefaultOptions()
	for _, opt := range QuietOptions() {
		opt(opts)
	}
	if opts.EnableMetrics {
		t.Error("QuietOptions should disable metrics")
	}
	if opts.Logger == nil || opts.Logger.Level() != logger.LevelNone {
		t.Error("QuietOptions should install a disabled logger")
	}
}

func BenchmarkApplyOptions(b *testing.B) {
	opts := []Option{
		WithDefaults(true),
		WithUserContextsPath("/tmp"),
		WithSearchCacheSize(1000),
		WithLoadConcurrency(4),
		WithMetrics(true),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		o := DefaultOptions()
		for _, opt := range opts {
			opt(o)
		}
	}
}
