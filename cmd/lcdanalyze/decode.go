package main

import (
	"errors"
	"fmt"

	"github.com/soypat/saleae"
	"golang.org/x/exp/constraints"
)

// signal is a digital capture flattened to its transition timestamps.
type signal struct {
	initial bool
	// edges holds ascending timestamps at which the line toggled.
	edges []float64
}

func signalFromFile(df *saleae.DigitalFile) signal {
	return signal{
		initial: df.Header.InitialState != 0,
		edges:   df.Data,
	}
}

// levelAt returns the line level at time t. Sampling exactly on an edge
// returns the level after the toggle.
func (s *signal) levelAt(t float64) bool {
	n := searchAscending(s.edges, t)
	return s.initial != (n%2 == 1)
}

// fallingEdges calls fn with the timestamp of every high-to-low
// transition.
func (s *signal) fallingEdges(fn func(t float64)) {
	level := s.initial
	for _, t := range s.edges {
		level = !level
		if !level {
			fn(t)
		}
	}
}

// searchAscending returns the number of elements of a less than or
// equal to v. a must be sorted ascending.
func searchAscending[T constraints.Ordered](a []T, v T) int {
	lo, hi := 0, len(a)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if a[mid] <= v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// strobe is the bus state latched at one falling edge of E.
type strobe struct {
	Time float64
	RS   bool
	Bus  byte // Low 4 bits: D4..D7.
}

// busDecoder reconstructs HD44780 transactions from captures of the
// RS, E and D4..D7 lines of a 4-bit wired display.
type busDecoder struct {
	RS   signal
	E    signal
	Data [4]signal // D4 (bit 0) through D7 (bit 3).
}

// strobes samples RS and the data lines at every falling edge of E,
// where the controller latches the bus.
func (bd *busDecoder) strobes() []strobe {
	var out []strobe
	bd.E.fallingEdges(func(t float64) {
		s := strobe{Time: t, RS: bd.RS.levelAt(t)}
		for i := range bd.Data {
			if bd.Data[i].levelAt(t) {
				s.Bus |= 1 << i
			}
		}
		out = append(out, s)
	})
	return out
}

// tx is a reassembled byte transfer: two strobes in 4-bit mode,
// high nibble first.
type tx struct {
	Time float64
	RS   bool
	Byte byte
}

var errDanglingNibble = errors.New("capture ends mid-transfer: dangling nibble")

// pair reassembles bytes from nibble strobes. The two halves of a
// transfer are strobed back to back, while distinct transfers sit at
// least one instruction execution time apart, so a strobe followed by
// a gap wider than maxGap is a bare nibble and is emitted as its own
// transfer. The reset sequence's bare nibbles resync this way; an RS
// change between halves catches a capture torn mid-transfer. maxGap
// of zero or less disables the gap heuristic.
func pair(strobes []strobe, maxGap float64) ([]tx, error) {
	var out []tx
	for i := 0; i < len(strobes); i++ {
		hi := strobes[i]
		if i+1 >= len(strobes) {
			return out, errDanglingNibble
		}
		lo := strobes[i+1]
		if lo.RS != hi.RS || (maxGap > 0 && lo.Time-hi.Time > maxGap) {
			// Bare nibble, reset sequence or torn capture.
			out = append(out, tx{Time: hi.Time, RS: hi.RS, Byte: hi.Bus})
			continue
		}
		out = append(out, tx{Time: hi.Time, RS: hi.RS, Byte: hi.Bus<<4 | lo.Bus&0x0f})
		i++
	}
	return out, nil
}

// String decodes the transfer into the datasheet instruction mnemonic.
func (x tx) String() string {
	if x.RS {
		if x.Byte >= 0x20 && x.Byte < 0x7f {
			return fmt.Sprintf("data %q", x.Byte)
		}
		return fmt.Sprintf("data 0x%02x", x.Byte)
	}
	b := x.Byte
	switch {
	case b == 0:
		return "nop"
	case b == 0x01:
		return "clear display"
	case b <= 0x03:
		return "return home"
	case b <= 0x07:
		return fmt.Sprintf("entry mode: increment=%v shift=%v", b&0x02 != 0, b&0x01 != 0)
	case b <= 0x0f:
		return fmt.Sprintf("display control: display=%v cursor=%v blink=%v",
			b&0x04 != 0, b&0x02 != 0, b&0x01 != 0)
	case b <= 0x1f:
		target := "cursor"
		if b&0x08 != 0 {
			target = "display"
		}
		dir := "left"
		if b&0x04 != 0 {
			dir = "right"
		}
		return fmt.Sprintf("shift %s %s", target, dir)
	case b <= 0x3f:
		lines := 1
		if b&0x08 != 0 {
			lines = 2
		}
		font := "5x8"
		if b&0x04 != 0 {
			font = "5x10"
		}
		buswidth := 4
		if b&0x10 != 0 {
			buswidth = 8
		}
		return fmt.Sprintf("function set: bus=%d lines=%d font=%s", buswidth, lines, font)
	case b <= 0x7f:
		return fmt.Sprintf("set CGRAM addr=0x%02x", b&0x3f)
	default:
		return fmt.Sprintf("set DDRAM addr=0x%02x", b&0x7f)
	}
}
