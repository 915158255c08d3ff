//go:build tinygo

package hd44780

import (
	"machine"
	"time"
)

// NewGPIODevice creates a Device that bit-bangs the LCD bus over
// machine pins. data must hold 4 or 8 pins ordered from the least
// significant connected data line up: D4..D7 in 4-bit mode, D0..D7 in
// 8-bit mode. The RW line is expected to be wired to ground.
func NewGPIODevice(rs, en machine.Pin, data ...machine.Pin) (*Device, error) {
	if len(data) != 4 && len(data) != 8 {
		return nil, errBusWidth
	}
	cfg := machine.PinConfig{Mode: machine.PinOutput}
	rs.Configure(cfg)
	rs.Low()
	en.Configure(cfg)
	en.Low()
	pins := make([]outputPin, len(data))
	for i, p := range data {
		p.Configure(cfg)
		p.Low()
		pins[i] = p.Set
	}
	return New(rs.Set, &busBB{en: en.Set, data: pins, sleep: time.Sleep}), nil
}
