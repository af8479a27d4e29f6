package types

import "github.com/ALEYI17/ofh_timing/internal/slot"

// OtaSymbolBoundaryNotifier receives one call per elapsed OTA symbol, in
// increasing symbol order. Implementations must return quickly: they run on
// the timing worker's thread.
type OtaSymbolBoundaryNotifier interface {
	OnNewSymbol(point slot.SlotSymbolPoint, ctx slot.SymbolContext)
}

const (
	WorkerIdle uint32 = iota
	WorkerRunning
	WorkerStopRequested
	WorkerStopped
)
