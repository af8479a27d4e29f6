package slot

import (
	"fmt"
	"time"
)

const (
	NofSubframesPerFrame = 10
	FramesPerSecond      = 100
	MaxNumerology        = 4

	// NofSFNs is the system frame number modulus.
	NofSFNs      = 1024
	// NofHyperSFNs is the hyper system frame number modulus.
	NofHyperSFNs = 1024
)

type SubcarrierSpacing uint32

const (
	SCS15kHz  SubcarrierSpacing = 15
	SCS30kHz  SubcarrierSpacing = 30
	SCS60kHz  SubcarrierSpacing = 60
	SCS120kHz SubcarrierSpacing = 120
	SCS240kHz SubcarrierSpacing = 240
)

// Numerology maps the spacing to its numerology index mu.
func (s SubcarrierSpacing) Numerology() (uint8, error) {
	switch s {
	case SCS15kHz:
		return 0, nil
	case SCS30kHz:
		return 1, nil
	case SCS60kHz:
		return 2, nil
	case SCS120kHz:
		return 3, nil
	case SCS240kHz:
		return 4, nil
	default:
		return 0, fmt.Errorf("unsupported subcarrier spacing %d kHz", uint32(s))
	}
}

func (s SubcarrierSpacing) String() string {
	return fmt.Sprintf("%dkHz", uint32(s))
}

type CyclicPrefix uint8

const (
	CPNormal CyclicPrefix = iota
	CPExtended
)

func ParseCyclicPrefix(s string) (CyclicPrefix, error) {
	switch s {
	case "normal", "":
		return CPNormal, nil
	case "extended":
		return CPExtended, nil
	default:
		return CPNormal, fmt.Errorf("unknown cyclic prefix %q", s)
	}
}

// SymbolsPerSlot is 14 for the normal prefix and 12 for the extended one.
func (cp CyclicPrefix) SymbolsPerSlot() uint32 {
	if cp == CPExtended {
		return 12
	}
	return 14
}

func (cp CyclicPrefix) String() string {
	if cp == CPExtended {
		return "extended"
	}
	return "normal"
}

func SlotsPerSubframe(numerology uint8) uint32 {
	return 1 << numerology
}

func SlotsPerFrame(numerology uint8) uint32 {
	return NofSubframesPerFrame * SlotsPerSubframe(numerology)
}

// SlotsPerSystemFrame is the number of slots before a SlotPoint wraps.
func SlotsPerSystemFrame(numerology uint8) uint32 {
	return NofSFNs * SlotsPerFrame(numerology)
}

func SlotDuration(numerology uint8) time.Duration {
	return time.Millisecond / time.Duration(SlotsPerSubframe(numerology))
}
