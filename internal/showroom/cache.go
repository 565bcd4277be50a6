package showroom

import (
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/engine/model"
	"github.com/Faultbox/showroom/internal/engine/scene"
)

// cacheEntry is an evicted car with the nodes that left the scene with it.
type cacheEntry struct {
	id    string
	car   *model.Car
	nodes []scene.Node
}

func (e cacheEntry) release() {
	for _, n := range e.nodes {
		n.Release()
	}
}

// CachedSources returns the ids of cached cars, least recently evicted first.
func (r *Renderer) CachedSources() []string {
	ids := make([]string, len(r.cache))
	for i, e := range r.cache {
		ids[i] = e.id
	}
	return ids
}

// Forget releases the cached copy of src, if any, so the next SetModel
// decodes the file again.
func (r *Renderer) Forget(src model.Source) bool {
	i := r.cacheIndex(src.ID())
	if i < 0 {
		return false
	}
	r.cache[i].release()
	r.cache = slices.Delete(r.cache, i, i+1)
	return true
}

func (r *Renderer) cacheIndex(id string) int {
	return slices.IndexFunc(r.cache, func(e cacheEntry) bool { return e.id == id })
}

// takeCached removes and returns the cache entry for id.
func (r *Renderer) takeCached(id string) (cacheEntry, bool) {
	i := r.cacheIndex(id)
	if i < 0 {
		return cacheEntry{}, false
	}
	e := r.cache[i]
	r.cache = slices.Delete(r.cache, i, i+1)
	return e, true
}

// evict moves the active car out of the scene into the cache. When the
// cache already holds the same source, that entry becomes the most recent
// and the outgoing duplicate is released. A car replaced by a fresh copy of
// its own source is released rather than cached.
func (r *Renderer) evict(incoming string) {
	if r.car == nil {
		return
	}
	out := r.detachCar()

	if r.opts.CacheSize <= 0 || out.id == incoming {
		out.release()
		return
	}

	if i := r.cacheIndex(out.id); i >= 0 {
		existing := r.cache[i]
		r.cache = append(slices.Delete(r.cache, i, i+1), existing)
		out.release()
		return
	}

	for len(r.cache) >= r.opts.CacheSize {
		r.log.Debug("releasing cached car", zap.String("source", r.cache[0].id))
		r.cache[0].release()
		r.cache = slices.Delete(r.cache, 0, 1)
	}
	r.cache = append(r.cache, out)
}

// detachCar removes the active car and its nodes from the scene without
// releasing them.
func (r *Renderer) detachCar() cacheEntry {
	if r.car == nil {
		return cacheEntry{}
	}
	out := cacheEntry{id: r.car.Source().ID(), car: r.car, nodes: r.carNodes}
	for _, n := range r.carNodes {
		r.scene.Remove(n)
	}
	if r.carCancel != nil {
		r.carCancel()
		r.carCancel = nil
	}
	r.car, r.carNodes = nil, nil
	r.cameras.SetSubject(nil)
	return out
}
