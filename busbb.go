package hd44780

import "time"

// busBB is a dumb bit-bang implementation of the HD44780 parallel bus
// that is hardcoded to write-only operation.
type busBB struct {
	en    outputPin
	data  []outputPin
	sleep func(time.Duration)
}

func (b *busBB) Width() int { return len(b.data) }

// WriteRaw drives the data lines with the low bits of w, least
// significant bit on data[0], then strobes E so the controller latches
// them on the falling edge.
func (b *busBB) WriteRaw(w byte) {
	for i, pin := range b.data {
		pin(w&(1<<i) != 0)
	}
	b.pulse()
}

//go:inline
func (b *busBB) pulse() {
	b.en(true)
	b.sleep(tEnablePulse) // E high width must exceed 450ns.
	b.en(false)
	b.sleep(tEnablePulse)
}
