package grid

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/ALEYI17/ofh_timing/pkg/logutil"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

var (
	ErrPoolExhausted = errors.New("resource grid pool exhausted")
	ErrPoolClosed    = errors.New("resource grid pool closed")
)

type PoolConfig struct {
	Capacity       int
	NofPorts       int
	NofSymbols     int
	NofSubcarriers int
	// LockMemory pins the arena in RAM so grid access never page faults.
	LockMemory bool
	// ZeroOnRelease clears a grid before it becomes available again.
	ZeroOnRelease bool
}

type PoolStats struct {
	Capacity    int
	InUse       int
	Allocations uint64
	Failures    uint64
}

// FixedPool owns Capacity grids carved out of a single arena. Allocation
// and release are lock-free.
type FixedPool struct {
	logger *zap.Logger
	cfg    PoolConfig

	arena     []complex64
	grids     []ResourceGrid
	refs      []atomic.Uint64
	inUse     []atomic.Bool
	locked    bool

	next        atomic.Uint32
	allocations atomic.Uint64
	failures    atomic.Uint64
	closed      atomic.Bool
}

var _ Pool = (*FixedPool)(nil)

func NewFixedPool(cfg PoolConfig) (*FixedPool, error) {
	var err error
	if cfg.Capacity <= 0 {
		err = multierr.Append(err, fmt.Errorf("capacity must be > 0, got %d", cfg.Capacity))
	}
	if cfg.NofPorts <= 0 {
		err = multierr.Append(err, fmt.Errorf("nof_ports must be > 0, got %d", cfg.NofPorts))
	}
	if cfg.NofSymbols <= 0 {
		err = multierr.Append(err, fmt.Errorf("nof_symbols must be > 0, got %d", cfg.NofSymbols))
	}
	if cfg.NofSubcarriers <= 0 {
		err = multierr.Append(err, fmt.Errorf("nof_subcarriers must be > 0, got %d", cfg.NofSubcarriers))
	}
	if err != nil {
		return nil, fmt.Errorf("invalid grid pool config: %w", err)
	}

	logger := logutil.GetLogger().Named("grid")
	gridSize := cfg.NofPorts * cfg.NofSymbols * cfg.NofSubcarriers

	p := &FixedPool{
		logger:    logger,
		cfg:       cfg,
		arena:     make([]complex64, cfg.Capacity*gridSize),
		grids:     make([]ResourceGrid, cfg.Capacity),
		refs:      make([]atomic.Uint64, cfg.Capacity),
		inUse:     make([]atomic.Bool, cfg.Capacity),
	}
	for i := range p.grids {
		off := i * gridSize
		p.grids[i] = newResourceGrid(p.arena[off:off+gridSize:off+gridSize], cfg.NofPorts, cfg.NofSymbols, cfg.NofSubcarriers)
	}

	if cfg.LockMemory {
		if err := unix.Mlock(p.arenaBytes()); err != nil {
			logger.Warn("unable to lock grid arena in memory", zap.Error(err))
		} else {
			p.locked = true
		}
	}

	logger.Info("grid pool created",
		zap.Int("capacity", cfg.Capacity),
		zap.Int("grid_samples", gridSize),
		zap.Bool("locked", p.locked))
	return p, nil
}

func (p *FixedPool) arenaBytes() []byte {
	if len(p.arena) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&p.arena[0])), len(p.arena)*int(unsafe.Sizeof(p.arena[0])))
}

// Allocate reserves a free grid and returns the first handle to it. Every
// allocation starts a new generation of the grid's reference word, so
// handles left over from an earlier allocation cannot touch it.
func (p *FixedPool) Allocate() (SharedResourceGrid, error) {
	if p.closed.Load() {
		return SharedResourceGrid{}, ErrPoolClosed
	}

	n := uint32(len(p.grids))
	start := p.next.Add(1) - 1
	for i := uint32(0); i < n; i++ {
		id := (start + i) % n
		if !p.inUse[id].CompareAndSwap(false, true) {
			continue
		}
		cur := p.refs[id].Load()
		gen := refGen(cur) + 1
		if cur == refCountDestroyed || refCount(cur) != 0 || !p.refs[id].CompareAndSwap(cur, packRef(gen, 1)) {
			p.inUse[id].Store(false)
			return SharedResourceGrid{}, ErrPoolClosed
		}
		p.allocations.Add(1)
		return NewSharedResourceGrid(p, &p.refs[id], id, gen), nil
	}

	p.failures.Add(1)
	p.logger.Warn("no resource grid available", zap.Int("capacity", len(p.grids)))
	return SharedResourceGrid{}, ErrPoolExhausted
}

func (p *FixedPool) Get(id uint32) *ResourceGrid {
	p.checkID(id)
	return &p.grids[id]
}

func (p *FixedPool) NotifyReleaseScope(id uint32) {
	p.checkID(id)
	if p.cfg.ZeroOnRelease {
		p.grids[id].Writer().SetAllZero()
	}
	if !p.inUse[id].Swap(false) {
		panic(fmt.Sprintf("grid %d released while not allocated", id))
	}
}

func (p *FixedPool) checkID(id uint32) {
	if int(id) >= len(p.grids) {
		panic(fmt.Sprintf("grid identifier %d out of range [0, %d)", id, len(p.grids)))
	}
}

func (p *FixedPool) Capacity() int { return len(p.grids) }

// InUse counts grids currently held by at least one handle.
func (p *FixedPool) InUse() int {
	n := 0
	for i := range p.inUse {
		if p.inUse[i].Load() {
			n++
		}
	}
	return n
}

// Flush returns allocation counters accumulated since the previous call and
// resets them.
func (p *FixedPool) Flush() PoolStats {
	return PoolStats{
		Capacity:    len(p.grids),
		InUse:       p.InUse(),
		Allocations: p.allocations.Swap(0),
		Failures:    p.failures.Swap(0),
	}
}

// Close marks every reference count as destroyed. Handles still alive at
// this point are reported; touching them afterwards panics.
func (p *FixedPool) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return ErrPoolClosed
	}

	var err error
	for id := range p.refs {
		if n := refCount(p.refs[id].Swap(refCountDestroyed)); n != 0 {
			err = multierr.Append(err, fmt.Errorf("grid %d still referenced by %d handles", id, n))
		}
	}
	if p.locked {
		if uerr := unix.Munlock(p.arenaBytes()); uerr != nil {
			err = multierr.Append(err, fmt.Errorf("unlock grid arena: %w", uerr))
		}
		p.locked = false
	}

	if err != nil {
		p.logger.Error("grid pool closed with live handles", zap.Error(err))
	} else {
		p.logger.Info("grid pool closed")
	}
	return err
}
