//go:build pico && !lcdnopio

package hd44780

import (
	"machine"

	pio "github.com/tinygo-org/pio/rp2-pio"
	"github.com/tinygo-org/pio/rp2-pio/piolib"
)

// pioBus drives an 8-bit LCD data bus with a PIO state machine that
// side-sets E as the write strobe. The RS line stays a plain GPIO.
type pioBus struct {
	par *piolib.Parallel8Tx
	buf [1]byte
}

func (b *pioBus) Width() int { return 8 }

func (b *pioBus) WriteRaw(w byte) {
	b.buf[0] = w
	b.par.Write(b.buf[:])
}

// NewPicoPIODevice creates a Device whose 8 data lines start at d0 and
// must be consecutive GPIOs: d0 maps to the controller's D0. baud sets
// the PIO strobe rate and must keep the E high width above the
// datasheet's 450ns, i.e. baud at 1MHz or below.
func NewPicoPIODevice(rs, en, d0 machine.Pin, baud uint32) (*Device, error) {
	rs.Configure(machine.PinConfig{Mode: machine.PinOutput})
	rs.Low()
	sm, err := pio.PIO0.ClaimStateMachine()
	if err != nil {
		return nil, err
	}
	par, err := piolib.NewParallel8Tx(sm, en, d0, baud)
	if err != nil {
		sm.Unclaim()
		return nil, err
	}
	return New(rs.Set, &pioBus{par: par}), nil
}
