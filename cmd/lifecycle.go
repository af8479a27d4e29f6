package main

import (
	"github.com/ALEYI17/ofh_timing/internal/grid"
	"github.com/ALEYI17/ofh_timing/internal/slot"
	"github.com/ALEYI17/ofh_timing/pkg/logutil"
	"go.uber.org/zap"
)

// gridLifecycle borrows one grid per slot at the slot boundary and returns
// it once the uplink full-slot event for that slot has fired. Its callbacks
// all run on the timing worker thread.
type gridLifecycle struct {
	pool *grid.FixedPool
	ring []slotGrid
	// reused across half-slot reads
	scratch []complex64
}

// slotGrid is the grid borrowed for one slot.
type slotGrid struct {
	slot slot.SlotPoint
	grid grid.SharedResourceGrid
}

func newGridLifecycle(pool *grid.FixedPool) *gridLifecycle {
	return &gridLifecycle{
		pool: pool,
		ring: make([]slotGrid, pool.Capacity()),
	}
}

func (l *gridLifecycle) index(s slot.SlotPoint) int {
	return int(s.SystemSlot() % uint32(len(l.ring)))
}

func (l *gridLifecycle) onNewSlot(s slot.SlotPoint, ctx slot.SymbolContext) {
	e := &l.ring[l.index(s)]
	e.grid.Release()

	dl, err := l.pool.Allocate()
	if err != nil {
		return
	}
	if ctx.Late() {
		logutil.GetLogger().Debug("slot started late", zap.Stringer("slot", s))
	}

	// Transmit path keeps its own reference until the slot is over the air.
	e.slot, e.grid = s, dl.Copy()
	dl.Release()
}

func (l *gridLifecycle) onHalfSlot(s slot.SlotPoint, _ slot.SymbolContext) {
	e := &l.ring[l.index(s)]
	if e.slot != s || !e.grid.IsValid() {
		return
	}
	l.scratch = e.grid.Reader().Symbol(0, 0, l.scratch)
}

// onFullSlot runs at the first symbol of the next slot. With a single ring
// entry that slot's grid is already in place, so only a matching entry is
// released.
func (l *gridLifecycle) onFullSlot(s slot.SlotPoint, _ slot.SymbolContext) {
	if e := &l.ring[l.index(s)]; e.slot == s {
		e.grid.Release()
	}
}

// releaseAll drops every reference still held; call it only after the
// worker has stopped.
func (l *gridLifecycle) releaseAll() {
	for i := range l.ring {
		l.ring[i].grid.Release()
	}
}
