package services

import "sync"

// generations counts invalidations per cache key. A rebuild remembers the
// generation it started at and only stores its result while that
// generation is still current, so a build that read the stores before an
// invalidation never repopulates the cache after it.
type generations struct {
	mu   sync.Mutex
	gens map[string]uint64
}

func (g *generations) current(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gens[key]
}

// invalidate bumps the generation of key and runs drop under the lock
// store takes
func (g *generations) invalidate(key string, drop func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gens == nil {
		g.gens = make(map[string]uint64)
	}
	g.gens[key]++
	return drop()
}

// store runs set when key is still at gen and reports whether it ran
func (g *generations) store(key string, gen uint64, set func() error) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gens[key] != gen {
		return false, nil
	}
	return true, set()
}
