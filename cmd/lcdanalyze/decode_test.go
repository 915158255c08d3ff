package main

import (
	"errors"
	"testing"
)

type sigBuilder struct {
	level bool
	sig   signal
}

func (sb *sigBuilder) set(t float64, level bool) {
	if level != sb.level {
		sb.level = level
		sb.sig.edges = append(sb.sig.edges, t)
	}
}

// buildCapture lays nibble strobes onto synthetic RS/E/data waveforms,
// one strobe per unit of time with the E falling edge at the strobe's
// Time.
func buildCapture(strobes []strobe) *busDecoder {
	var rs, e sigBuilder
	var data [4]sigBuilder
	for _, s := range strobes {
		rs.set(s.Time-0.3, s.RS)
		for i := range data {
			data[i].set(s.Time-0.3, s.Bus&(1<<i) != 0)
		}
		e.set(s.Time-0.2, true)
		e.set(s.Time, false)
	}
	bd := &busDecoder{RS: rs.sig, E: e.sig}
	for i := range data {
		bd.Data[i] = data[i].sig
	}
	return bd
}

func TestLevelAt(t *testing.T) {
	s := signal{initial: false, edges: []float64{1, 2, 3}}
	for _, tc := range []struct {
		t    float64
		want bool
	}{
		{0.5, false},
		{1, true}, // Sampling on the edge sees the new level.
		{1.5, true},
		{2.5, false},
		{3.5, true},
	} {
		if got := s.levelAt(tc.t); got != tc.want {
			t.Errorf("levelAt(%v) = %v, want %v", tc.t, got, tc.want)
		}
	}
}

func TestStrobeRoundTrip(t *testing.T) {
	want := []strobe{
		{Time: 1, RS: false, Bus: 0x3},
		{Time: 2, RS: false, Bus: 0x3},
		{Time: 3, RS: true, Bus: 0xa},
		{Time: 4, RS: true, Bus: 0x5},
	}
	got := buildCapture(want).strobes()
	if len(got) != len(want) {
		t.Fatalf("strobe count: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("strobe %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestPair(t *testing.T) {
	// Set DDRAM 0x40 then write 'H': 0xc0, then 0x48 with RS high.
	strobes := []strobe{
		{Time: 1, Bus: 0xc},
		{Time: 2, Bus: 0x0},
		{Time: 3, RS: true, Bus: 0x4},
		{Time: 4, RS: true, Bus: 0x8},
	}
	txs, err := pair(strobes, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []tx{
		{Time: 1, RS: false, Byte: 0xc0},
		{Time: 3, RS: true, Byte: 0x48},
	}
	if len(txs) != len(want) {
		t.Fatalf("tx count: got %d want %d", len(txs), len(want))
	}
	for i := range want {
		if txs[i] != want[i] {
			t.Errorf("tx %d: got %+v want %+v", i, txs[i], want[i])
		}
	}
}

func TestPairResyncOnRSBoundary(t *testing.T) {
	// High nibble with RS low followed by a data strobe: the stray
	// nibble must come out on its own instead of corrupting the pair.
	strobes := []strobe{
		{Time: 1, Bus: 0x2},
		{Time: 2, RS: true, Bus: 0x4},
		{Time: 3, RS: true, Bus: 0x1},
	}
	txs, err := pair(strobes, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []tx{
		{Time: 1, RS: false, Byte: 0x2},
		{Time: 2, RS: true, Byte: 0x41},
	}
	if len(txs) != len(want) {
		t.Fatalf("tx count: got %d want %d\n%+v", len(txs), len(want), txs)
	}
	for i := range want {
		if txs[i] != want[i] {
			t.Errorf("tx %d: got %+v want %+v", i, txs[i], want[i])
		}
	}
}

func TestPairDanglingNibble(t *testing.T) {
	_, err := pair([]strobe{{Time: 1, Bus: 0x8}}, 0)
	if !errors.Is(err, errDanglingNibble) {
		t.Errorf("got %v, want errDanglingNibble", err)
	}
}

func TestPairResyncOnGap(t *testing.T) {
	// Power-on reset: three 0b0011 nibbles and one 0b0010 nibble, all
	// RS low, milliseconds apart; then Function Set 0x28 strobed as two
	// nibbles a few microseconds apart. The gap heuristic must keep the
	// reset nibbles from merging into 0x33/0x32 bytes.
	strobes := []strobe{
		{Time: 0.0160, Bus: 0x3},
		{Time: 0.0210, Bus: 0x3},
		{Time: 0.0212, Bus: 0x3},
		{Time: 0.0214, Bus: 0x2},
		{Time: 0.0216, Bus: 0x2},
		{Time: 0.0216030, Bus: 0x8},
	}
	txs, err := pair(strobes, 20e-6)
	if err != nil {
		t.Fatal(err)
	}
	want := []tx{
		{Time: 0.0160, Byte: 0x3},
		{Time: 0.0210, Byte: 0x3},
		{Time: 0.0212, Byte: 0x3},
		{Time: 0.0214, Byte: 0x2},
		{Time: 0.0216, Byte: 0x28},
	}
	if len(txs) != len(want) {
		t.Fatalf("tx count: got %d want %d\n%+v", len(txs), len(want), txs)
	}
	for i := range want {
		if txs[i] != want[i] {
			t.Errorf("tx %d: got %+v want %+v", i, txs[i], want[i])
		}
	}
}

func TestTxString(t *testing.T) {
	cases := []struct {
		tx   tx
		want string
	}{
		{tx{Byte: 0x01}, "clear display"},
		{tx{Byte: 0x02}, "return home"},
		{tx{Byte: 0x06}, "entry mode: increment=true shift=false"},
		{tx{Byte: 0x0c}, "display control: display=true cursor=false blink=false"},
		{tx{Byte: 0x1c}, "shift display right"},
		{tx{Byte: 0x28}, "function set: bus=4 lines=2 font=5x8"},
		{tx{Byte: 0x40}, "set CGRAM addr=0x00"},
		{tx{Byte: 0xc0}, "set DDRAM addr=0x40"},
		{tx{Byte: 'A', RS: true}, `data 'A'`},
		{tx{Byte: 0x02, RS: true}, "data 0x02"},
	}
	for _, tc := range cases {
		if got := tc.tx.String(); got != tc.want {
			t.Errorf("(%#02x rs=%v): got %q, want %q", tc.tx.Byte, tc.tx.RS, got, tc.want)
		}
	}
}
