package slot

import "testing"

func TestSubcarrierSpacingNumerology(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scs  SubcarrierSpacing
		mu   uint8
		slot uint32
	}{
		{SCS15kHz, 0, 10},
		{SCS30kHz, 1, 20},
		{SCS60kHz, 2, 40},
		{SCS120kHz, 3, 80},
		{SCS240kHz, 4, 160},
	}
	for _, tt := range tests {
		mu, err := tt.scs.Numerology()
		if err != nil {
			t.Fatalf("%s: %v", tt.scs, err)
		}
		if mu != tt.mu {
			t.Fatalf("%s numerology = %d, want %d", tt.scs, mu, tt.mu)
		}
		if got := SlotsPerFrame(mu); got != tt.slot {
			t.Fatalf("%s slots per frame = %d, want %d", tt.scs, got, tt.slot)
		}
	}

	if _, err := SubcarrierSpacing(45).Numerology(); err == nil {
		t.Fatal("expected error for 45 kHz")
	}
}

func TestCyclicPrefixSymbols(t *testing.T) {
	t.Parallel()

	if got := CPNormal.SymbolsPerSlot(); got != 14 {
		t.Fatalf("normal = %d, want 14", got)
	}
	if got := CPExtended.SymbolsPerSlot(); got != 12 {
		t.Fatalf("extended = %d, want 12", got)
	}
	if _, err := ParseCyclicPrefix("short"); err == nil {
		t.Fatal("expected error for unknown prefix")
	}
}

func TestSlotPointFields(t *testing.T) {
	t.Parallel()

	s := NewSlotPointFromFields(1, 513, 7, 1)
	if s.SFN() != 513 {
		t.Fatalf("SFN = %d, want 513", s.SFN())
	}
	if s.SubframeIndex() != 7 {
		t.Fatalf("SubframeIndex = %d, want 7", s.SubframeIndex())
	}
	if s.SubframeSlotIndex() != 1 {
		t.Fatalf("SubframeSlotIndex = %d, want 1", s.SubframeSlotIndex())
	}
	if s.SlotIndex() != 15 {
		t.Fatalf("SlotIndex = %d, want 15", s.SlotIndex())
	}
	if s.String() != "513.15" {
		t.Fatalf("String = %q, want 513.15", s.String())
	}
}

func TestSlotPointZeroValueInvalid(t *testing.T) {
	t.Parallel()

	var s SlotPoint
	if s.Valid() {
		t.Fatal("zero SlotPoint reported valid")
	}
	if !NewSlotPoint(0, 0).Valid() {
		t.Fatal("slot 0 at numerology 0 reported invalid")
	}
}

func TestSlotPointWrapsAtSystemFrame(t *testing.T) {
	t.Parallel()

	last := NewSlotPointFromFields(0, NofSFNs-1, 9, 0)
	next := last.Next()
	if next.SFN() != 0 || next.SlotIndex() != 0 {
		t.Fatalf("next = %s, want 0.0", next)
	}
	if d := next.Sub(last); d != 1 {
		t.Fatalf("next - last = %d, want 1", d)
	}
	if d := last.Sub(next); d != -1 {
		t.Fatalf("last - next = %d, want -1", d)
	}
	if !last.Before(next) {
		t.Fatal("last should be before next across the wrap")
	}
	if back := next.Add(-1); back != last {
		t.Fatalf("next.Add(-1) = %s, want %s", back, last)
	}
}

func TestSlotSymbolPointWrap(t *testing.T) {
	t.Parallel()

	s := NewSlotPointFromFields(1, NofSFNs-1, 9, 1)
	p := NewSlotSymbolPoint(s, 13, 14)

	n := p.Add(1)
	if n.Symbol() != 0 {
		t.Fatalf("symbol = %d, want 0", n.Symbol())
	}
	if n.Slot().SystemSlot() != 0 {
		t.Fatalf("slot = %s, want 0.0", n.Slot())
	}
	if d := n.Sub(p); d != 1 {
		t.Fatalf("distance = %d, want 1", d)
	}
	if b := n.Add(-3); b.Symbol() != 11 || b.Slot() != s {
		t.Fatalf("n.Add(-3) = %s, want %s.11", b, s)
	}
}

func TestSlotSymbolPointAddMatchesSystemSymbol(t *testing.T) {
	t.Parallel()

	p := NewSlotSymbolPoint(NewSlotPoint(2, 1234), 5, 12)
	for _, n := range []int{0, 1, 6, 7, 12, 100, -5, -6, -100} {
		q := p.Add(n)
		if d := q.Sub(p); d != n {
			t.Fatalf("Add(%d) then Sub = %d", n, d)
		}
		if q.Symbol() >= 12 {
			t.Fatalf("Add(%d) symbol = %d out of range", n, q.Symbol())
		}
	}
}

func TestNewSlotSymbolPointRejectsOutOfRangeSymbol(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for symbol 14 of 14")
		}
	}()
	NewSlotSymbolPoint(NewSlotPoint(0, 0), 14, 14)
}
