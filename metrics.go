package terminologies

import (
	"sync/atomic"
	"time"

	"github.com/gofhir/terminologies/terminology"
)

// Metrics tracks store activity using lock-free atomic operations.
// It implements terminology.Observer. All methods are safe for concurrent use.
type Metrics struct {
	// Load counts per namespace
	terminologyLoads        atomic.Uint64
	terminologyLoadFailures atomic.Uint64
	anatomicLoads           atomic.Uint64
	anatomicLoadFailures    atomic.Uint64

	// Directory load timing (stored as nanoseconds)
	directoryLoads     atomic.Uint64
	directoryTimeTotal atomic.Uint64
	directoryTimeMin   atomic.Uint64
	directoryTimeMax   atomic.Uint64
	fileErrors         atomic.Uint64

	// Lookups
	lookupsFound  atomic.Uint64
	lookupsMissed atomic.Uint64

	// Searches
	searches    atomic.Uint64
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64
}

var _ terminology.Observer = (*Metrics)(nil)

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so first value becomes the minimum
	m.directoryTimeMin.Store(^uint64(0))
	return m
}

// --- Recording Methods ---

// RecordLoad records a dictionary load attempt.
func (m *Metrics) RecordLoad(kind terminology.Kind, ok bool) {
	switch {
	case kind == terminology.KindTerminology && ok:
		m.terminologyLoads.Add(1)
	case kind == terminology.KindTerminology:
		m.terminologyLoadFailures.Add(1)
	case ok:
		m.anatomicLoads.Add(1)
	default:
		m.anatomicLoadFailures.Add(1)
	}
}

// RecordLookup records a resolver lookup.
func (m *Metrics) RecordLookup(found bool) {
	if found {
		m.lookupsFound.Add(1)
	} else {
		m.lookupsMissed.Add(1)
	}
}

// RecordSearch records a completed search.
func (m *Metrics) RecordSearch() {
	m.searches.Add(1)
}

// RecordCacheLookup records whether a search was served from the cache.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if hit {
		m.cacheHits.Add(1)
	} else {
		m.cacheMisses.Add(1)
	}
}

// RecordDirectoryLoad records the duration of a directory load and the
// number of files it skipped.
func (m *Metrics) RecordDirectoryLoad(duration time.Duration, fileErrors int64) {
	m.directoryLoads.Add(1)
	if fileErrors > 0 {
		m.fileErrors.Add(uint64(fileErrors))
	}

	ns := uint64(duration.Nanoseconds()) //nolint:gosec // Safe: nanoseconds are always positive for valid durations
	m.directoryTimeTotal.Add(ns)

	// Update min (CAS loop)
	for {
		old := m.directoryTimeMin.Load()
		if ns >= old {
			break
		}
		if m.directoryTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}

	// Update max (CAS loop)
	for {
		old := m.directoryTimeMax.Load()
		if ns <= old {
			break
		}
		if m.directoryTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// --- Query Methods ---

// TerminologyLoads returns the number of terminologies loaded.
func (m *Metrics) TerminologyLoads() uint64 {
	return m.terminologyLoads.Load()
}

// AnatomicLoads returns the number of anatomic contexts loaded.
func (m *Metrics) AnatomicLoads() uint64 {
	return m.anatomicLoads.Load()
}

// LoadFailures returns the number of rejected dictionaries of both kinds.
func (m *Metrics) LoadFailures() uint64 {
	return m.terminologyLoadFailures.Load() + m.anatomicLoadFailures.Load()
}

// DirectoryLoads returns the number of directory loads, reloads included.
func (m *Metrics) DirectoryLoads() uint64 {
	return m.directoryLoads.Load()
}

// FileErrors returns the number of dictionary files skipped by directory loads.
func (m *Metrics) FileErrors() uint64 {
	return m.fileErrors.Load()
}

// LookupsFound returns the number of successful lookups.
func (m *Metrics) LookupsFound() uint64 {
	return m.lookupsFound.Load()
}

// LookupsMissed returns the number of lookups that failed with not found.
func (m *Metrics) LookupsMissed() uint64 {
	return m.lookupsMissed.Load()
}

// LookupHitRate returns the fraction of successful lookups (0.0 to 1.0).
func (m *Metrics) LookupHitRate() float64 {
	found := m.lookupsFound.Load()
	total := found + m.lookupsMissed.Load()
	if total == 0 {
		return 0
	}
	return float64(found) / float64(total)
}

// Searches returns the number of searches.
func (m *Metrics) Searches() uint64 {
	return m.searches.Load()
}

// CacheHits returns the total search cache hits.
func (m *Metrics) CacheHits() uint64 {
	return m.cacheHits.Load()
}

// CacheMisses returns the total search cache misses.
func (m *Metrics) CacheMisses() uint64 {
	return m.cacheMisses.Load()
}

// CacheHitRate returns the search cache hit rate (0.0 to 1.0).
func (m *Metrics) CacheHitRate() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// AverageDirectoryLoadTime returns the average directory load duration.
func (m *Metrics) AverageDirectoryLoadTime() time.Duration {
	total := m.directoryLoads.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.directoryTimeTotal.Load() / total) //nolint:gosec // Safe: nanoseconds within int64 range
}

// MinDirectoryLoadTime returns the minimum directory load duration.
func (m *Metrics) MinDirectoryLoadTime() time.Duration {
	minVal := m.directoryTimeMin.Load()
	if minVal == ^uint64(0) {
		return 0
	}
	return time.Duration(minVal) //nolint:gosec // Safe: minVal represents nanoseconds within int64 range
}

// MaxDirectoryLoadTime returns the maximum directory load duration.
func (m *Metrics) MaxDirectoryLoadTime() time.Duration {
	return time.Duration(m.directoryTimeMax.Load()) //nolint:gosec // Safe: nanoseconds within int64 range
}

// --- Export Methods ---

// Snapshot represents a point-in-time snapshot of all metrics.
type Snapshot struct {
	// Timestamp when the snapshot was taken
	Timestamp time.Time `json:"timestamp"`

	// Load metrics
	TerminologyLoads uint64 `json:"terminology_loads"`
	AnatomicLoads    uint64 `json:"anatomic_loads"`
	LoadFailures     uint64 `json:"load_failures"`

	// Directory timing (in nanoseconds for precision)
	DirectoryLoads         uint64 `json:"directory_loads"`
	FileErrors             uint64 `json:"file_errors"`
	AvgDirectoryLoadTimeNs uint64 `json:"avg_directory_load_time_ns"`
	MinDirectoryLoadTimeNs uint64 `json:"min_directory_load_time_ns"`
	MaxDirectoryLoadTimeNs uint64 `json:"max_directory_load_time_ns"`

	// Lookup metrics
	LookupsFound  uint64  `json:"lookups_found"`
	LookupsMissed uint64  `json:"lookups_missed"`
	LookupHitRate float64 `json:"lookup_hit_rate"`

	// Search metrics
	Searches     uint64  `json:"searches"`
	CacheHits    uint64  `json:"cache_hits"`
	CacheMisses  uint64  `json:"cache_misses"`
	CacheHitRate float64 `json:"cache_hit_rate"`
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	dirLoads := m.directoryLoads.Load()
	var avgDir uint64
	if dirLoads > 0 {
		avgDir = m.directoryTimeTotal.Load() / dirLoads
	}
	minDir := m.directoryTimeMin.Load()
	if minDir == ^uint64(0) {
		minDir = 0
	}

	return Snapshot{
		Timestamp:              time.Now(),
		TerminologyLoads:       m.terminologyLoads.Load(),
		AnatomicLoads:          m.anatomicLoads.Load(),
		LoadFailures:           m.LoadFailures(),
		DirectoryLoads:         dirLoads,
		FileErrors:             m.fileErrors.Load(),
		AvgDirectoryLoadTimeNs: avgDir,
		MinDirectoryLoadTimeNs: minDir,
		MaxDirectoryLoadTimeNs: m.directoryTimeMax.Load(),
		LookupsFound:           m.lookupsFound.Load(),
		LookupsMissed:          m.lookupsMissed.Load(),
		LookupHitRate:          m.LookupHitRate(),
		Searches:               m.searches.Load(),
		CacheHits:              m.cacheHits.Load(),
		CacheMisses:            m.cacheMisses.Load(),
		CacheHitRate:           m.CacheHitRate(),
	}
}

// Export returns metrics as a map suitable for external systems (Prometheus, etc.).
func (m *Metrics) Export() map[string]interface{} {
	s := m.Snapshot()
	return map[string]interface{}{
		"terminology_loads":          s.TerminologyLoads,
		"anatomic_loads":             s.AnatomicLoads,
		"load_failures":              s.LoadFailures,
		"directory_loads":            s.DirectoryLoads,
		"file_errors":                s.FileErrors,
		"avg_directory_load_time_ns": s.AvgDirectoryLoadTimeNs,
		"min_directory_load_time_ns": s.MinDirectoryLoadTimeNs,
		"max_directory_load_time_ns": s.MaxDirectoryLoadTimeNs,
		"lookups_found":              s.LookupsFound,
		"lookups_missed":             s.LookupsMissed,
		"lookup_hit_rate":            s.LookupHitRate,
		"searches":                   s.Searches,
		"cache_hits":                 s.CacheHits,
		"cache_misses":               s.CacheMisses,
		"cache_hit_rate":             s.CacheHitRate,
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.terminologyLoads.Store(0)
	m.terminologyLoadFailures.Store(0)
	m.anatomicLoads.Store(0)
	m.anatomicLoadFailures.Store(0)
	m.directoryLoads.Store(0)
	m.directoryTimeTotal.Store(0)
	m.directoryTimeMin.Store(^uint64(0))
	m.directoryTimeMax.Store(0)
	m.fileErrors.Store(0)
	m.lookupsFound.Store(0)
	m.lookupsMissed.Store(0)
	m.searches.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
}
