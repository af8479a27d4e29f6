package slot

import (
	"fmt"
	"time"
)

// SlotSymbolPoint locates one OFDM symbol: a slot, the symbol index inside
// it and the number of symbols per slot. Arithmetic wraps across slot and
// system frame boundaries.
type SlotSymbolPoint struct {
	slot       SlotPoint
	symbol     uint8
	nofSymbols uint8
}

func NewSlotSymbolPoint(s SlotPoint, symbol, nofSymbols uint32) SlotSymbolPoint {
	if !s.Valid() {
		panic("slot symbol point built from an invalid slot")
	}
	if nofSymbols == 0 || symbol >= nofSymbols {
		panic(fmt.Sprintf("symbol index %d out of range [0, %d)", symbol, nofSymbols))
	}
	return SlotSymbolPoint{slot: s, symbol: uint8(symbol), nofSymbols: uint8(nofSymbols)}
}

func (p SlotSymbolPoint) Slot() SlotPoint { return p.slot }

func (p SlotSymbolPoint) Symbol() uint32 { return uint32(p.symbol) }

func (p SlotSymbolPoint) NofSymbols() uint32 { return uint32(p.nofSymbols) }

func (p SlotSymbolPoint) Valid() bool { return p.slot.Valid() && p.nofSymbols != 0 }

// SystemSymbol is the symbol count since SFN 0, slot 0, symbol 0.
func (p SlotSymbolPoint) SystemSymbol() uint64 {
	return uint64(p.slot.SystemSlot())*uint64(p.nofSymbols) + uint64(p.symbol)
}

func (p SlotSymbolPoint) period() int64 {
	return int64(SlotsPerSystemFrame(p.slot.Numerology())) * int64(p.nofSymbols)
}

func (p SlotSymbolPoint) Add(n int) SlotSymbolPoint {
	v := wrap(int64(p.SystemSymbol())+int64(n), p.period())
	nof := int64(p.nofSymbols)
	return SlotSymbolPoint{
		slot:       NewSlotPoint(p.slot.Numerology(), uint32(v/nof)),
		symbol:     uint8(v % nof),
		nofSymbols: p.nofSymbols,
	}
}

// Sub returns the signed circular distance in symbols.
func (p SlotSymbolPoint) Sub(o SlotSymbolPoint) int {
	if p.nofSymbols != o.nofSymbols || p.slot.mu1 != o.slot.mu1 {
		panic("slot symbol point mismatch")
	}
	return int(circularDiff(int64(p.SystemSymbol()), int64(o.SystemSymbol()), p.period()))
}

func (p SlotSymbolPoint) String() string {
	return fmt.Sprintf("%s.%d", p.slot, p.symbol)
}

// SymbolContext carries timing metadata alongside a symbol notification.
type SymbolContext struct {
	// GPSTime is the boundary instant measured from the GPS epoch; Time is
	// the same instant on the host wall clock.
	GPSTime  time.Duration
	Time     time.Time
	HyperSFN uint32
	// Index is the position of this notification within the poll's burst,
	// oldest first; Burst is the burst length.
	Index int
	Burst int
}

// Late reports whether the notification catches up a skipped symbol.
func (c SymbolContext) Late() bool { return c.Index < c.Burst-1 }
