package assets

import (
	"context"
	"errors"
	"image"
	"sync"

	"golang.org/x/sync/errgroup"
)

// preloadWorkers bounds concurrent fetches during Preload.
const preloadWorkers = 4

// Cache holds decoded images by location. It is safe for concurrent use.
type Cache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{images: make(map[string]image.Image)}
}

// Get returns the cached image for loc.
func (c *Cache) Get(loc string) (image.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.images[loc]
	return img, ok
}

// Put stores img under loc.
func (c *Cache) Put(loc string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images[loc] = img
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Preload fetches and decodes every location concurrently into cache.
// Locations already cached are skipped. Every location is attempted; the
// failures are returned joined.
func Preload(ctx context.Context, f *Fetcher, cache *Cache, locs []string, maxSize int) error {
	var (
		mu   sync.Mutex
		errs []error
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(preloadWorkers)
	for _, loc := range locs {
		if _, ok := cache.Get(loc); ok {
			continue
		}
		g.Go(func() error {
			img, err := f.FetchImage(ctx, loc, maxSize)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			cache.Put(loc, img)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Join(errs...)
}
