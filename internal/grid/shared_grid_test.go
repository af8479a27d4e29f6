package grid

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

// countingPool records release notifications for a single grid.
type countingPool struct {
	grid     ResourceGrid
	released atomic.Int32
}

func newCountingPool() *countingPool {
	return &countingPool{grid: newResourceGrid(make([]complex64, 2*14*12), 2, 14, 12)}
}

func (p *countingPool) Get(id uint32) *ResourceGrid {
	if id != 0 {
		panic("unknown grid")
	}
	return &p.grid
}

func (p *countingPool) NotifyReleaseScope(uint32) { p.released.Add(1) }

// counted builds a reference word for generation 1 holding n references.
func counted(n uint32) *atomic.Uint64 {
	var w atomic.Uint64
	w.Store(packRef(1, n))
	return &w
}

func expectPanic(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		if target == nil {
			return
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, target) {
			t.Fatalf("panic = %v, want %v", r, target)
		}
	}()
	fn()
}

func TestZeroHandleIsInvalid(t *testing.T) {
	t.Parallel()

	var g SharedResourceGrid
	if g.IsValid() {
		t.Fatal("zero handle reported valid")
	}
	g.Release()
	g.Release()
	if c := g.Copy(); c.IsValid() {
		t.Fatal("copy of zero handle reported valid")
	}
	expectPanic(t, nil, func() { g.Get() })
}

func TestCopiesReleaseOnce(t *testing.T) {
	t.Parallel()

	p := newCountingPool()
	rc := counted(1)
	g := NewSharedResourceGrid(p, rc, 0, 1)

	const copies = 5
	handles := []SharedResourceGrid{g}
	for i := 0; i < copies; i++ {
		handles = append(handles, g.Copy())
	}
	if n := refCount(rc.Load()); n != copies+1 {
		t.Fatalf("ref count = %d, want %d", n, copies+1)
	}

	for i := range handles {
		if p.released.Load() != 0 {
			t.Fatalf("pool notified after %d of %d releases", i, copies+1)
		}
		handles[i].Release()
		handles[i].Release()
		if handles[i].IsValid() {
			t.Fatalf("handle %d valid after Release", i)
		}
	}
	if n := refCount(rc.Load()); n != 0 {
		t.Fatalf("ref count = %d, want 0", n)
	}
	if n := p.released.Load(); n != 1 {
		t.Fatalf("release notifications = %d, want 1", n)
	}
}

func TestMoveKeepsCount(t *testing.T) {
	t.Parallel()

	p := newCountingPool()
	rc := counted(1)
	src := NewSharedResourceGrid(p, rc, 0, 1)

	dst := src.Move()
	if dst.RefCount() != 1 {
		t.Fatalf("ref count after Move = %d, want 1", dst.RefCount())
	}
	if src.IsValid() {
		t.Fatal("moved-from handle still valid")
	}
	if !dst.IsValid() {
		t.Fatal("moved-to handle invalid")
	}

	src.Release()
	if p.released.Load() != 0 || dst.RefCount() != 1 {
		t.Fatal("releasing the moved-from handle touched the count")
	}
	dst.Release()
	if p.released.Load() != 1 {
		t.Fatal("last release did not notify the pool")
	}
}

func TestDestroyedSentinelStopsCopyAndRelease(t *testing.T) {
	t.Parallel()

	p := newCountingPool()
	rc := counted(2)
	a := NewSharedResourceGrid(p, rc, 0, 1)
	b := NewSharedResourceGrid(p, rc, 0, 1)

	rc.Store(refCountDestroyed)
	if a.IsValid() {
		t.Fatal("handle valid after pool destruction")
	}

	expectPanic(t, ErrHandleOutlivedPool, func() { a.Copy() })
	if rc.Load() != refCountDestroyed {
		t.Fatalf("Copy changed the sentinel to %d", rc.Load())
	}

	expectPanic(t, ErrHandleOutlivedPool, func() { b.Release() })
	if rc.Load() != refCountDestroyed {
		t.Fatalf("Release changed the sentinel to %d", rc.Load())
	}
	if p.released.Load() != 0 {
		t.Fatal("pool notified after destruction")
	}
}

func TestConcurrentCopyRelease(t *testing.T) {
	t.Parallel()

	p := newCountingPool()
	rc := counted(1)
	root := NewSharedResourceGrid(p, rc, 0, 1)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		local := root.Copy()
		wg.Add(1)
		go func(h SharedResourceGrid) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				c := h.Copy()
				_ = c.Reader().Get(1, 13, 11)
				c.Release()
			}
			h.Release()
		}(local.Move())
	}
	wg.Wait()

	if n := root.RefCount(); n != 1 {
		t.Fatalf("ref count = %d, want 1", n)
	}
	root.Release()
	if p.released.Load() != 1 {
		t.Fatalf("release notifications = %d, want 1", p.released.Load())
	}
}

func TestReaderWriterViews(t *testing.T) {
	t.Parallel()

	p := newCountingPool()
	g := NewSharedResourceGrid(p, counted(1), 0, 1)
	defer g.Release()

	w := g.Writer()
	if !g.Reader().IsEmpty(0) {
		t.Fatal("fresh grid not empty")
	}
	w.Put(0, 3, 4, complex(1, -1))
	w.PutSymbol(1, 13, []complex64{1, 2, 3})

	r := g.Reader()
	if v := r.Get(0, 3, 4); v != complex(1, -1) {
		t.Fatalf("Get = %v, want (1-1i)", v)
	}
	sym := r.Symbol(1, 13, nil)
	if len(sym) != 12 || sym[2] != 3 || sym[3] != 0 {
		t.Fatalf("Symbol = %v", sym)
	}
	if r.IsEmpty(0) {
		t.Fatal("port 0 reported empty after write")
	}

	w.SetAllZero()
	if !r.IsEmpty(0) || !r.IsEmpty(1) {
		t.Fatal("SetAllZero left samples")
	}
	expectPanic(t, nil, func() { r.Get(2, 0, 0) })
}

func TestAliasAfterReleasePanics(t *testing.T) {
	t.Parallel()

	p := newCountingPool()
	h := NewSharedResourceGrid(p, counted(1), 0, 1)
	alias := h
	h.Release()

	if alias.IsValid() {
		t.Fatal("alias valid after the only reference was released")
	}
	expectPanic(t, ErrStaleHandle, func() { alias.Copy() })
	expectPanic(t, ErrStaleHandle, func() { alias.Release() })
	expectPanic(t, ErrStaleHandle, func() { alias.Get() })
	if n := p.released.Load(); n != 1 {
		t.Fatalf("release notifications = %d, want 1", n)
	}
}
