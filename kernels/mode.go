package kernels

import "fmt"

// Mode selects between the scalar and packed-word row loops.
type Mode uint8

const (
	// ModeAuto uses packed words on 64-bit targets and scalar loops elsewhere.
	ModeAuto Mode = iota
	ModeScalar
	ModePacked
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeScalar:
		return "scalar"
	case ModePacked:
		return "packed"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode parses "auto", "scalar" or "packed".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "auto":
		return ModeAuto, nil
	case "scalar":
		return ModeScalar, nil
	case "packed":
		return ModePacked, nil
	}
	return ModeAuto, fmt.Errorf("unknown kernel mode %q (want auto, scalar or packed)", s)
}

// Resolve returns the concrete mode ModeAuto maps to on this target.
func (m Mode) Resolve() Mode {
	if m == ModeAuto {
		if wordKernels {
			return ModePacked
		}
		return ModeScalar
	}
	return m
}

func (m Mode) packed() bool {
	return m.Resolve() == ModePacked
}

// WordKernels reports whether ModeAuto selects the packed loops.
func WordKernels() bool {
	return wordKernels
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
