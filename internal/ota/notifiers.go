package ota

import (
	"github.com/ALEYI17/ofh_timing/internal/slot"
	"github.com/ALEYI17/ofh_timing/pkg/types"
)

type NotifierFunc func(point slot.SlotSymbolPoint, ctx slot.SymbolContext)

func (f NotifierFunc) OnNewSymbol(point slot.SlotSymbolPoint, ctx slot.SymbolContext) {
	f(point, ctx)
}

// SlotBoundaryAdapter reports the start of every slot.
type SlotBoundaryAdapter struct {
	OnNewSlot func(s slot.SlotPoint, ctx slot.SymbolContext)
}

func (a *SlotBoundaryAdapter) OnNewSymbol(point slot.SlotSymbolPoint, ctx slot.SymbolContext) {
	if point.Symbol() == 0 && a.OnNewSlot != nil {
		a.OnNewSlot(point.Slot(), ctx)
	}
}

// UplinkSlotAdapter triggers uplink processing once the first half of a
// slot, and then the whole slot, has gone over the air. The full slot event
// fires at the first boundary of the following slot and carries the slot
// that just ended.
type UplinkSlotAdapter struct {
	OnHalfSlot func(s slot.SlotPoint, ctx slot.SymbolContext)
	OnFullSlot func(s slot.SlotPoint, ctx slot.SymbolContext)
}

func (a *UplinkSlotAdapter) OnNewSymbol(point slot.SlotSymbolPoint, ctx slot.SymbolContext) {
	switch point.Symbol() {
	case point.NofSymbols() / 2:
		if a.OnHalfSlot != nil {
			a.OnHalfSlot(point.Slot(), ctx)
		}
	case 0:
		if a.OnFullSlot != nil {
			a.OnFullSlot(point.Slot().Add(-1), ctx)
		}
	}
}

var (
	_ types.OtaSymbolBoundaryNotifier = NotifierFunc(nil)
	_ types.OtaSymbolBoundaryNotifier = (*SlotBoundaryAdapter)(nil)
	_ types.OtaSymbolBoundaryNotifier = (*UplinkSlotAdapter)(nil)
)
