package kg

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedGraph memoizes containment walks of another Graph
type CachedGraph struct {
	inner Graph
	cache *gocache.Cache
}

// NewCachedGraph wraps inner with an in-memory cache. A ttl of zero keeps
// entries for the life of the process.
func NewCachedGraph(inner Graph, ttl time.Duration) *CachedGraph {
	expiration := gocache.NoExpiration
	if ttl > 0 {
		expiration = ttl
	}
	return &CachedGraph{
		inner: inner,
		cache: gocache.New(expiration, 10*time.Minute),
	}
}

// PlaceContainment returns a cached walk when available
func (g *CachedGraph) PlaceContainment(qid string, maxHops int) Place {
	key := fmt.Sprintf("place:%s:%d", qid, maxHops)
	if v, ok := g.cache.Get(key); ok {
		return v.(Place)
	}
	place := g.inner.PlaceContainment(qid, maxHops)
	g.cache.SetDefault(key, place)
	return place
}

// Owners delegates to the wrapped graph
func (g *CachedGraph) Owners(qid string) []string {
	key := "owners:" + qid
	if v, ok := g.cache.Get(key); ok {
		return v.([]string)
	}
	owners := g.inner.Owners(qid)
	g.cache.SetDefault(key, owners)
	return owners
}

// Label delegates to the wrapped graph
func (g *CachedGraph) Label(qid string) string {
	return g.inner.Label(qid)
}

// Len reports the number of cached lookups
func (g *CachedGraph) Len() int {
	return g.cache.ItemCount()
}
