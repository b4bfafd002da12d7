package mesh

import (
	"github.com/o0olele/octree-voxel/mathutil"
	"golang.org/x/sync/singleflight"
)

const DefaultCacheSize = 64

// Cache keeps prepared worlds keyed by mesh name so repeated builds of the same scene
// skip re-transforming unchanged meshes.
type Cache struct {
	lru    *mathutil.Cache[string, *World]
	flight singleflight.Group
}

func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &Cache{
		lru: mathutil.NewCache[string, *World](capacity),
	}
}

// World returns the prepared world of m, preparing it on a miss.
// Meshes without a name are never cached.
func (c *Cache) World(m *Mesh) (*World, error) {
	if m.Name == "" {
		return m.World()
	}
	return c.lru.GetOrPut(m.Name, func() (*World, error) {
		// concurrent misses on one name share a single transform
		v, err, _ := c.flight.Do(m.Name, func() (any, error) {
			return m.World()
		})
		if err != nil {
			return nil, err
		}
		return v.(*World), nil
	})
}

// Invalidate drops the cached world for name.
func (c *Cache) Invalidate(name string) {
	c.lru.Remove(name)
}

func (c *Cache) Stats() mathutil.CacheStats {
	return c.lru.GetStats()
}
