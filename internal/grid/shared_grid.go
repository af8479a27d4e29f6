package grid

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

// A grid's reference word holds the allocation generation in the upper 32
// bits and the reference count in the lower 32 bits.
const (
	genShift  = 32
	countMask = 1<<genShift - 1
)

// refCountDestroyed is installed by the pool on teardown. A handle that
// observes it has outlived its pool.
const refCountDestroyed = math.MaxUint64

var (
	ErrHandleOutlivedPool = errors.New("resource grid handle outlived its pool")
	// ErrStaleHandle means the handle's reference was already dropped,
	// usually because the handle was copied by assignment instead of Copy.
	ErrStaleHandle = errors.New("stale resource grid handle")
)

func packRef(gen, count uint32) uint64 { return uint64(gen)<<genShift | uint64(count) }

func refGen(w uint64) uint32 { return uint32(w >> genShift) }

func refCount(w uint64) uint32 { return uint32(w & countMask) }

// Pool is what a SharedResourceGrid needs from the pool that owns the grid.
type Pool interface {
	// Get returns the grid for id. Invalid identifiers are fatal.
	Get(id uint32) *ResourceGrid
	// NotifyReleaseScope is called exactly once per allocation, by the
	// last handle to release id.
	NotifyReleaseScope(id uint32)
}

// SharedResourceGrid is a counted reference to a pooled grid. It is a plain
// value: share it with Copy, hand it over with Move, and Release it when
// done. Assigning one handle to another variable does not add a reference;
// using such an alias after the reference is gone panics with
// ErrStaleHandle. The zero value is an invalid handle.
type SharedResourceGrid struct {
	pool Pool
	ref  *atomic.Uint64
	id   uint32
	gen  uint32
}

// NewSharedResourceGrid wraps a grid the pool has already counted under
// generation gen.
func NewSharedResourceGrid(pool Pool, ref *atomic.Uint64, id, gen uint32) SharedResourceGrid {
	return SharedResourceGrid{pool: pool, ref: ref, id: id, gen: gen}
}

func (g *SharedResourceGrid) IsValid() bool {
	if g.pool == nil || g.ref == nil {
		return false
	}
	w := g.ref.Load()
	return w != refCountDestroyed && refGen(w) == g.gen && refCount(w) != 0
}

func (g *SharedResourceGrid) ID() uint32 { return g.id }

// RefCount reports the current count for debugging; zero for invalid or
// stale handles.
func (g *SharedResourceGrid) RefCount() uint32 {
	if g.ref == nil {
		return 0
	}
	w := g.ref.Load()
	if w != refCountDestroyed && refGen(w) != g.gen {
		return 0
	}
	return refCount(w)
}

func (g *SharedResourceGrid) Get() *ResourceGrid {
	if g.pool == nil || g.ref == nil {
		panic(fmt.Sprintf("access through invalid resource grid handle %d", g.id))
	}
	g.check(g.ref.Load(), "access")
	return g.pool.Get(g.id)
}

func (g *SharedResourceGrid) Reader() Reader { return g.Get().Reader() }

func (g *SharedResourceGrid) Writer() Writer { return g.Get().Writer() }

// Copy adds a reference and returns it as a new handle. Copying an invalid
// handle returns an invalid handle.
func (g *SharedResourceGrid) Copy() SharedResourceGrid {
	if g.pool == nil || g.ref == nil {
		return SharedResourceGrid{}
	}
	for {
		cur := g.ref.Load()
		g.check(cur, "copy")
		if g.ref.CompareAndSwap(cur, cur+1) {
			return SharedResourceGrid{pool: g.pool, ref: g.ref, id: g.id, gen: g.gen}
		}
	}
}

// Move transfers the reference to the returned handle and invalidates g.
func (g *SharedResourceGrid) Move() SharedResourceGrid {
	out := *g
	*g = SharedResourceGrid{}
	return out
}

// Release drops the reference. The last release returns the grid to the
// pool. Releasing an invalid handle does nothing.
func (g *SharedResourceGrid) Release() {
	if g.pool == nil || g.ref == nil {
		return
	}
	h := *g
	*g = SharedResourceGrid{}

	for {
		cur := h.ref.Load()
		h.check(cur, "release")
		if h.ref.CompareAndSwap(cur, cur-1) {
			if refCount(cur) == 1 {
				h.pool.NotifyReleaseScope(h.id)
			}
			return
		}
	}
}

// check panics unless w still counts this handle's allocation.
func (g *SharedResourceGrid) check(w uint64, op string) {
	switch {
	case w == refCountDestroyed:
		panic(fmt.Errorf("%s of grid %d: %w", op, g.id, ErrHandleOutlivedPool))
	case refGen(w) != g.gen:
		panic(fmt.Errorf("%s of grid %d generation %d, grid is at %d: %w", op, g.id, g.gen, refGen(w), ErrStaleHandle))
	case refCount(w) == 0:
		panic(fmt.Errorf("%s of grid %d with no references: %w", op, g.id, ErrStaleHandle))
	}
}
