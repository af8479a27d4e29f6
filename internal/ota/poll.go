package ota

import (
	"math"
	"time"

	"github.com/ALEYI17/ofh_timing/internal/slot"
	"go.uber.org/zap"
)

// circularDistance measures forward progress from prev to cur on a counter
// that wraps at size.
func circularDistance(cur, prev, size uint32) uint32 {
	if cur >= prev {
		return cur - prev
	}
	return size + cur - prev
}

// poll runs one iteration: sample the GPS clock, and if one or more symbol
// boundaries were crossed since the previous iteration, notify each of them
// oldest first.
func (w *Worker) poll() {
	now := w.clock.Now()
	seconds := uint64(now / int64(time.Second))
	fractional := now % int64(time.Second)

	current := uint32(float64(fractional) / w.symbolDuration)

	if !w.primed {
		w.previousSymbol = current
		w.primed = true
		return
	}

	delta := circularDistance(current, w.previousSymbol, w.symbolsPerSecond)
	if delta == 0 {
		w.sleep(w.sleepTime)
		return
	}
	w.previousSymbol = current

	absolute := seconds*uint64(w.symbolsPerSecond) + uint64(current)
	point := w.symbolPoint(seconds, current)

	if delta > 1 {
		w.reportSkipped(delta, point)
	}

	burst := int(delta)
	for i := 0; i < burst; i++ {
		back := delta - 1 - uint32(i)
		p := point.Add(-int(back))
		ctx := w.symbolContext(absolute-uint64(back), i, burst)
		for _, n := range w.notifiers {
			n.OnNewSymbol(p, ctx)
		}
	}
}

// symbolPoint locates symbol index within the given GPS second.
func (w *Worker) symbolPoint(seconds uint64, index uint32) slot.SlotSymbolPoint {
	count := seconds*w.slotsPerSecond + uint64(index/w.symbolsPerSlot)
	s := slot.NewSlotPoint(w.numerology, uint32(count%uint64(slot.SlotsPerSystemFrame(w.numerology))))
	return slot.NewSlotSymbolPoint(s, index%w.symbolsPerSlot, w.symbolsPerSlot)
}

// symbolContext describes the boundary of the absolute GPS symbol number abs.
func (w *Worker) symbolContext(abs uint64, index, burst int) slot.SymbolContext {
	sps := uint64(w.symbolsPerSecond)
	sec, sym := abs/sps, abs%sps

	gpsNs := int64(sec)*int64(time.Second) + int64(math.Ceil(float64(sym)*w.symbolDuration))
	slots := abs / uint64(w.symbolsPerSlot)
	hyper := (slots / uint64(slot.SlotsPerSystemFrame(w.numerology))) % slot.NofHyperSFNs

	return slot.SymbolContext{
		GPSTime:  time.Duration(gpsNs),
		Time:     w.clock.HostTime(gpsNs),
		HyperSFN: uint32(hyper),
		Index:    index,
		Burst:    burst,
	}
}

func (w *Worker) reportSkipped(delta uint32, point slot.SlotSymbolPoint) {
	skipped := delta - 1
	if w.recorder != nil {
		w.recorder.Update(skipped)
	}

	fields := []zap.Field{
		zap.Uint32("skipped", skipped),
		zap.Stringer("current", point),
	}
	if w.warnOnLate && delta >= w.symbolsPerSlot {
		w.logger.Warn("real-time timing worker late, skipped symbols", fields...)
		return
	}
	w.logger.Info("real-time timing worker late, skipped symbols", fields...)
}
