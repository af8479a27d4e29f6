package slot

import (
	"fmt"
	"time"
)

// SlotPoint is a wrap-around slot counter spanning NofSFNs system frames.
// The zero value is invalid.
type SlotPoint struct {
	// numerology + 1, zero marks an invalid point
	mu1   uint8
	count uint32
}

// NewSlotPoint builds a point from a slot count, reduced modulo the system
// frame period.
func NewSlotPoint(numerology uint8, count uint32) SlotPoint {
	if numerology > MaxNumerology {
		panic(fmt.Sprintf("invalid numerology %d", numerology))
	}
	return SlotPoint{mu1: numerology + 1, count: count % SlotsPerSystemFrame(numerology)}
}

func NewSlotPointFromFields(numerology uint8, sfn, subframe, slotInSubframe uint32) SlotPoint {
	if subframe >= NofSubframesPerFrame || slotInSubframe >= SlotsPerSubframe(numerology) {
		panic(fmt.Sprintf("invalid slot fields sf=%d slot=%d for numerology %d", subframe, slotInSubframe, numerology))
	}
	count := (sfn%NofSFNs)*SlotsPerFrame(numerology) + subframe*SlotsPerSubframe(numerology) + slotInSubframe
	return NewSlotPoint(numerology, count)
}

func (s SlotPoint) Valid() bool { return s.mu1 != 0 }

func (s SlotPoint) Numerology() uint8 { return s.mu1 - 1 }

// SystemSlot is the slot count since SFN 0, slot 0.
func (s SlotPoint) SystemSlot() uint32 { return s.count }

func (s SlotPoint) SFN() uint32 { return s.count / SlotsPerFrame(s.Numerology()) }

func (s SlotPoint) SubframeIndex() uint32 {
	return (s.count / SlotsPerSubframe(s.Numerology())) % NofSubframesPerFrame
}

// SubframeSlotIndex is the slot index within the subframe.
func (s SlotPoint) SubframeSlotIndex() uint32 { return s.count % SlotsPerSubframe(s.Numerology()) }

// SlotIndex is the slot index within the frame.
func (s SlotPoint) SlotIndex() uint32 { return s.count % SlotsPerFrame(s.Numerology()) }

func (s SlotPoint) NofSlotsPerFrame() uint32 { return SlotsPerFrame(s.Numerology()) }

func (s SlotPoint) Duration() time.Duration { return SlotDuration(s.Numerology()) }

func (s SlotPoint) Add(n int) SlotPoint {
	period := int64(SlotsPerSystemFrame(s.Numerology()))
	return SlotPoint{mu1: s.mu1, count: uint32(wrap(int64(s.count)+int64(n), period))}
}

func (s SlotPoint) Next() SlotPoint { return s.Add(1) }

// Sub returns the signed circular distance s - o, in (-period/2, period/2].
func (s SlotPoint) Sub(o SlotPoint) int {
	if s.mu1 != o.mu1 {
		panic("slot point numerology mismatch")
	}
	return int(circularDiff(int64(s.count), int64(o.count), int64(SlotsPerSystemFrame(s.Numerology()))))
}

func (s SlotPoint) Before(o SlotPoint) bool { return s.Sub(o) < 0 }

func (s SlotPoint) String() string {
	if !s.Valid() {
		return "invalid"
	}
	return fmt.Sprintf("%d.%d", s.SFN(), s.SlotIndex())
}

func wrap(v, period int64) int64 {
	v %= period
	if v < 0 {
		v += period
	}
	return v
}

func circularDiff(a, b, period int64) int64 {
	d := wrap(a-b, period)
	if d > period/2 {
		d -= period
	}
	return d
}
