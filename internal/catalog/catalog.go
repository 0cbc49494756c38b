package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/seongmin-dev/welfare-report/internal/entity"
)

// Catalog is the process-lifetime cache of normalized service records.
// It is loaded once and never mutated afterward, so concurrent task runs
// share it without locking.
type Catalog struct {
	entries  []entity.ServiceCatalogEntry
	loadedAt time.Time
}

// Entries returns the normalized records. Callers must treat the slice as
// read-only.
func (c *Catalog) Entries() []entity.ServiceCatalogEntry {
	return c.entries
}

func (c *Catalog) Len() int { return len(c.entries) }

func (c *Catalog) LoadedAt() time.Time { return c.loadedAt }

var (
	mu     sync.RWMutex
	shared *Catalog
)

// Load reads the catalog from src on the first call and caches it for the
// rest of the process lifetime. Subsequent calls return the cached catalog
// without touching the source.
func Load(ctx context.Context, src Source, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	mu.RLock()
	if shared != nil {
		defer mu.RUnlock()
		return shared, nil
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if shared != nil {
		return shared, nil
	}

	start := time.Now()
	entries, err := src.Load(ctx)
	if err != nil {
		logger.Error("catalog.load.failed", "error", err)
		return nil, err
	}

	shared = &Catalog{entries: entries, loadedAt: time.Now()}
	logger.Info("catalog.loaded",
		"entries", len(entries),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return shared, nil
}

// Get returns the cached catalog, or false if Load has not succeeded yet.
func Get() (*Catalog, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return shared, shared != nil
}

// Reset clears the cache. Test hook only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	shared = nil
}
