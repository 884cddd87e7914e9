package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gofhir/terminologies/pkg/logger"
	"github.com/gofhir/terminologies/terminology"
)

// Stats contains statistics about a directory load.
type Stats struct {
	TerminologiesLoaded    int64
	AnatomicContextsLoaded int64
	Errors                 int64

	// Files lists the outcome of every file considered, in load order.
	Files []FileResult

	Duration time.Duration
}

// FileResult is the outcome of loading one file.
type FileResult struct {
	Path string
	Kind terminology.Kind
	Name string
	Err  error
}

// Loaded returns the number of contexts inserted.
func (s *Stats) Loaded() int64 {
	return s.TerminologiesLoaded + s.AnatomicContextsLoaded
}

// Option configures a load or a watch.
type Option func(*options)

type options struct {
	log         *logger.Logger
	concurrency int
	debounce    time.Duration
	onReload    func(*Stats)
}

func defaultOptions() *options {
	return &options{
		log:         logger.Default(),
		concurrency: runtime.GOMAXPROCS(0),
		debounce:    200 * time.Millisecond,
	}
}

// WithLogger sets the logger used to report file failures.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithConcurrency limits the number of files parsed at the same time.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithDebounce sets how long Watch waits for file events to settle.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithReloadHook registers a function called by Watch after each reload.
func WithReloadHook(fn func(*Stats)) Option {
	return func(o *options) {
		o.onReload = fn
	}
}

// LoadDirectory loads every *.json file found directly in dir.
// It fails only when the directory itself cannot be read or ctx is done.
func LoadDirectory(ctx context.Context, store *terminology.Store, dir string, opts ...Option) (*Stats, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}
	return LoadFS(ctx, store, os.DirFS(dir), ".", opts...)
}

// LoadFS loads every *.json file found directly in dir of fsys.
func LoadFS(ctx context.Context, store *terminology.Store, fsys fs.FS, dir string, opts ...Option) (*Stats, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !isDictionaryFile(entry.Name()) {
			continue
		}
		files = append(files, path.Join(dir, entry.Name()))
	}
	return loadFiles(ctx, store, fsys, files, o)
}

func isDictionaryFile(name string) bool {
	return strings.HasSuffix(name, ".json") && !strings.HasPrefix(name, ".")
}

type parsed struct {
	dict *terminology.Dictionary
	err  error
}

// loadFiles parses files concurrently and inserts them in sorted order.
func loadFiles(ctx context.Context, store *terminology.Store, fsys fs.FS, files []string, o *options) (*Stats, error) {
	start := time.Now()
	sort.Strings(files)

	results := make([]parsed, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, name := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(fsys, name)
			if err != nil {
				results[i].err = fmt.Errorf("failed to read %s: %w", name, err)
				return nil
			}
			results[i].dict, results[i].err = terminology.ParseDictionary(data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &Stats{Files: make([]FileResult, 0, len(files))}
	for i, name := range files {
		r := FileResult{Path: name}
		err := results[i].err
		if err == nil {
			err = store.Put(results[i].dict)
		}
		if err != nil {
			r.Err = err
			stats.Errors++
			o.log.Warn("skipping %s: %v", name, err)
		} else {
			d := results[i].dict
			r.Kind, r.Name = d.Kind, d.Name()
			if d.Kind == terminology.KindTerminology {
				stats.TerminologiesLoaded++
			} else {
				stats.AnatomicContextsLoaded++
			}
		}
		stats.Files = append(stats.Files, r)
	}
	stats.Duration = time.Since(start)

	o.log.Debug("loaded %d contexts from %d files in %s (%d errors)",
		stats.Loaded(), len(files), stats.Duration, stats.Errors)
	return stats, nil
}
