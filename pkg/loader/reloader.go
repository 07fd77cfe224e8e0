package loader

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/vanderheijden86/museumhub/pkg/catalog"
	"github.com/vanderheijden86/museumhub/pkg/debug"
)

// Reloader loads a Source and collapses concurrent loads into one. A watcher
// event and a manual retry arriving together share a single fetch.
type Reloader struct {
	source Source
	group  singleflight.Group

	mu      sync.Mutex
	last    *catalog.Catalog
	lastErr error
	loads   int
}

// NewReloader returns a Reloader for src.
func NewReloader(src Source) *Reloader {
	return &Reloader{source: src}
}

// Source returns the underlying source.
func (r *Reloader) Source() Source {
	return r.source
}

// Load fetches the catalog. On failure the previously loaded catalog, if
// any, is still available from Current.
func (r *Reloader) Load(ctx context.Context) (*catalog.Catalog, error) {
	v, err, shared := r.group.Do(r.source.Location(), func() (any, error) {
		c, err := r.source.Load(ctx)

		r.mu.Lock()
		r.loads++
		r.lastErr = err
		if err == nil {
			r.last = c
		}
		r.mu.Unlock()

		return c, err
	})
	debug.LogIf(shared, "loader: joined in-flight load of %s", r.source.Location())
	if err != nil {
		return nil, err
	}
	return v.(*catalog.Catalog), nil
}

// Current returns the last successfully loaded catalog, or nil.
func (r *Reloader) Current() *catalog.Catalog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// LastError returns the error of the most recent load.
func (r *Reloader) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Loads counts completed fetches.
func (r *Reloader) Loads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads
}
