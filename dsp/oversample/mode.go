package oversample

import "fmt"

// Mode selects the oversampling factor and anti-aliasing quality tier.
// The zero value disables oversampling.
type Mode int

const (
	// ModeNone passes audio through unchanged.
	ModeNone Mode = iota
	Mode2xMedium
	Mode2xHigh
	Mode3xMedium
	Mode3xHigh
	Mode4xMedium
	Mode4xHigh
	Mode6xMedium
	Mode6xHigh
	Mode8xMedium
	Mode8xHigh
)

// FactorMax is the largest oversampling factor of any mode.
const FactorMax = 8

type modeInfo struct {
	name   string
	factor int
	high   bool
}

var modeTable = map[Mode]modeInfo{
	ModeNone:     {name: "none", factor: 1},
	Mode2xMedium: {name: "2x_medium", factor: 2},
	Mode2xHigh:   {name: "2x_high", factor: 2, high: true},
	Mode3xMedium: {name: "3x_medium", factor: 3},
	Mode3xHigh:   {name: "3x_high", factor: 3, high: true},
	Mode4xMedium: {name: "4x_medium", factor: 4},
	Mode4xHigh:   {name: "4x_high", factor: 4, high: true},
	Mode6xMedium: {name: "6x_medium", factor: 6},
	Mode6xHigh:   {name: "6x_high", factor: 6, high: true},
	Mode8xMedium: {name: "8x_medium", factor: 8},
	Mode8xHigh:   {name: "8x_high", factor: 8, high: true},
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	_, ok := modeTable[m]
	return ok
}

// Factor returns the oversampling factor of m, or 0 for unknown modes.
func (m Mode) Factor() int {
	return modeTable[m].factor
}

// String returns the canonical mode name.
func (m Mode) String() string {
	info, ok := modeTable[m]
	if !ok {
		return fmt.Sprintf("Mode(%d)", int(m))
	}

	return info.name
}

// ParseMode resolves a canonical mode name to its Mode value.
func ParseMode(s string) (Mode, error) {
	for m, info := range modeTable {
		if info.name == s {
			return m, nil
		}
	}

	return ModeNone, fmt.Errorf("oversample: unknown mode %q", s)
}

// Modes returns all known modes in ascending order.
func Modes() []Mode {
	out := make([]Mode, 0, len(modeTable))
	for m := ModeNone; m <= Mode8xHigh; m++ {
		out = append(out, m)
	}

	return out
}
