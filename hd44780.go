package hd44780

import (
	"errors"
	"time"

	"log/slog"
)

var (
	errBusWidth     = errors.New("hd44780: data bus width must be 4 or 8")
	errGeometry     = errors.New("hd44780: unsupported display geometry")
	errUninit       = errors.New("hd44780: device uninitialized, call Init")
	errCursorRange  = errors.New("hd44780: cursor position out of range")
	errGlyphIndex   = errors.New("hd44780: CGRAM glyph index must be 0..7")
	errGlyphPattern = errors.New("hd44780: CGRAM glyph pattern must be 8 bytes")
)

type outputPin func(bool)

// databus places a raw word on the data lines and strobes the E pin
// once so the controller latches it.
type databus interface {
	// WriteRaw drives the data lines with the low Width bits of w,
	// least significant bit on the lowest connected line, and pulses E.
	WriteRaw(w byte)
	// Width returns the number of data lines, 4 or 8.
	Width() int
}

// Device is a driver for HD44780-compatible character LCD controllers
// wired in write-only mode (RW tied low). All operations are fixed
// synchronous pin sequences paced by the datasheet's worst-case
// instruction execution times; there is no busy-flag readback.
//
// Device is not safe for concurrent use.
type Device struct {
	rs    outputPin
	bus   databus
	sleep func(time.Duration)
	// busyUntil is the deadline after which the controller is
	// guaranteed to have finished the last instruction.
	busyUntil time.Time
	logger    *slog.Logger

	width  uint8
	height uint8
	x, y   uint8
	// lineAddr holds the DDRAM address of column 0 of each display line.
	lineAddr [4]byte

	displayctl byte
	entrymode  byte
	initDone   bool
}

// Config is the display geometry and options passed to (*Device).Init.
type Config struct {
	// Width and Height of the panel in characters. For "type 1" 16x1
	// panels, which address their single row as two 8-character lines,
	// use Width=8, Height=2.
	Width  uint8
	Height uint8
	Font   Font
	Logger *slog.Logger
}

// DefaultConfig returns the configuration for the common 16x2 panel.
func DefaultConfig() Config {
	return Config{Width: 16, Height: 2, Font: Font5x8}
}

// New creates a Device from an RS output pin and a data bus. Most users
// want NewBitBang or the machine.Pin constructors instead.
func New(rs outputPin, bus databus) *Device {
	return &Device{
		rs:    rs,
		bus:   bus,
		sleep: time.Sleep,
	}
}

// NewBitBang creates a Device that bit-bangs the HD44780 parallel bus
// over the given output pins. data must hold 4 or 8 pins ordered from
// the least significant connected data line up: D4..D7 in 4-bit mode,
// D0..D7 in 8-bit mode.
func NewBitBang(rs, en outputPin, data []outputPin) (*Device, error) {
	if len(data) != 4 && len(data) != 8 {
		return nil, errBusWidth
	}
	return New(rs, &busBB{en: en, data: data, sleep: time.Sleep}), nil
}

// Init performs the power-on initialization sequence from the HD44780U
// datasheet: interface reset to 8-bit mode, transition to the bus width
// in use, function set, then display clear with cursor increment and
// display on. Init must complete before any other operation.
func (d *Device) Init(cfg Config) error {
	if cfg.Width == 0 || cfg.Height == 0 {
		return errGeometry
	}
	err := d.initLineAddrs(cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	d.logger = cfg.Logger
	d.width = cfg.Width
	d.height = cfg.Height
	d.debug("init:start",
		slog.Int("buswidth", d.bus.Width()),
		slog.Int("width", int(cfg.Width)),
		slog.Int("height", int(cfg.Height)),
	)
	start := time.Now()

	// Wait out power-on before the controller accepts instructions.
	d.sleep(tPowerOn)
	d.rs(false)

	// The controller may be in 8-bit mode, 4-bit mode, or halfway
	// through a 4-bit transfer. Three Function Set upper nibbles with
	// datasheet waits force it into a known 8-bit state.
	const resetNibble = (instrFunctionSet | flagFunc8Bit) >> 4
	d.rawNibble(resetNibble)
	d.sleep(tReset1)
	d.rawNibble(resetNibble)
	d.sleep(tReset2)
	d.rawNibble(resetNibble)
	d.sleep(tReset2)

	is8bit := d.bus.Width() == 8
	if !is8bit {
		// Single-nibble Function Set switches the interface to 4 bits.
		d.rawNibble(instrFunctionSet >> 4)
		d.sleep(tReset2)
	}
	d.initDone = true

	// Bus width and line count can only be set once per power-up, now.
	twoLine := cfg.Height > 1
	d.command(cmdFunctionSet(is8bit, twoLine, cfg.Font))

	d.command(cmdDisplayCtl(false, false, false))
	d.clear()
	d.entrymode = cmdEntryMode(true, false)
	d.command(d.entrymode)
	d.displayctl = cmdDisplayCtl(true, false, false)
	d.command(d.displayctl)

	d.info("init:done", slog.Duration("took", time.Since(start)))
	return nil
}

// initLineAddrs fills the DDRAM address of column 0 for each line.
// Two-line panels split DDRAM in two fixed regions; four-line panels
// continue line 0 and 1 at an offset of one panel width.
func (d *Device) initLineAddrs(w, h uint8) error {
	switch h {
	case 1:
		if uint16(w) > ddramTotal {
			return errGeometry
		}
		d.lineAddr = [4]byte{ddramLine0}
	case 2:
		if uint16(w) > ddramLine0End+1 {
			return errGeometry
		}
		d.lineAddr = [4]byte{ddramLine0, ddramLine1}
	case 4:
		if ddramLine1+2*uint16(w) > ddramLine1End+1 {
			return errGeometry
		}
		d.lineAddr = [4]byte{ddramLine0, ddramLine1, ddramLine0 + w, ddramLine1 + w}
	default:
		return errGeometry
	}
	return nil
}

// Size returns the configured panel geometry in characters.
func (d *Device) Size() (width, height int) {
	return int(d.width), int(d.height)
}

// Busy reports whether the controller is still executing the last
// instruction. Operations block until not busy, so polling Busy is only
// useful to avoid blocking.
func (d *Device) Busy() bool {
	return time.Now().Before(d.busyUntil)
}

// ClearDisplay blanks the display and returns the cursor to the origin.
func (d *Device) ClearDisplay() {
	d.clear()
}

func (d *Device) clear() {
	d.commandLong(instrClearDisplay)
	d.x, d.y = 0, 0
	// Clear Display also resets the I/D entry bit to increment.
	d.entrymode |= flagEntryIncrement
}

// Home returns the cursor to the origin and undoes display shifts
// without modifying DDRAM contents.
func (d *Device) Home() {
	d.commandLong(instrReturnHome)
	d.x, d.y = 0, 0
}

// SetCursor moves the cursor to column x of line y.
func (d *Device) SetCursor(x, y uint8) error {
	if x >= d.width || y >= d.height {
		return errCursorRange
	}
	d.command(cmdDDRAMAddr(d.lineAddr[y] + x))
	d.x, d.y = x, y
	return nil
}

// Write sends character data at the cursor position, wrapping onto the
// next line at the panel edge and back to the first line at the end of
// the panel. Bytes are sent verbatim as HD44780 character codes;
// there is no newline handling. Write never fails, the error is there
// to satisfy io.Writer.
func (d *Device) Write(p []byte) (n int, err error) {
	if !d.initDone {
		return 0, errUninit
	}
	for _, c := range p {
		if d.x >= d.width {
			d.SetCursor(0, (d.y+1)%d.height)
		}
		d.data(c)
		d.x++
		n++
	}
	return n, nil
}

// Print writes character data at the cursor position. See Write.
func (d *Device) Print(p []byte) {
	d.Write(p)
}

// DisplayOn switches the whole display on or off. DDRAM contents are
// retained while off.
func (d *Device) DisplayOn(on bool) {
	d.setDisplayBit(flagDisplayOn, on)
}

// CursorOn shows or hides the underline cursor.
func (d *Device) CursorOn(on bool) {
	d.setDisplayBit(flagCursorOn, on)
}

// BlinkOn enables or disables blinking of the cursor cell.
func (d *Device) BlinkOn(on bool) {
	d.setDisplayBit(flagBlinkOn, on)
}

func (d *Device) setDisplayBit(bit byte, on bool) {
	if on {
		d.displayctl |= bit
	} else {
		d.displayctl &^= bit
	}
	d.command(d.displayctl)
}

// CursorIncrement selects whether the address counter increments
// (cursor moves right, the default) or decrements after each write.
func (d *Device) CursorIncrement(increment bool) {
	d.setEntryBit(flagEntryIncrement, increment)
}

// AutoShift makes writes shift the whole display instead of moving the
// cursor, in the direction selected by CursorIncrement.
func (d *Device) AutoShift(shift bool) {
	d.setEntryBit(flagEntryShift, shift)
}

func (d *Device) setEntryBit(bit byte, on bool) {
	if on {
		d.entrymode |= bit
	} else {
		d.entrymode &^= bit
	}
	d.command(d.entrymode)
}

// ShiftCursor moves the cursor one cell left or right without writing.
func (d *Device) ShiftCursor(right bool) {
	d.command(cmdShift(false, right))
}

// ShiftDisplay shifts the entire display window one cell left or right.
// The cursor moves with the display.
func (d *Device) ShiftDisplay(right bool) {
	d.command(cmdShift(true, right))
}

// CreateCharacter uploads an 8-row glyph pattern to one of the eight
// CGRAM slots. The glyph is afterwards printable as character code idx.
// Rows hold 5 pixels in their low bits, top row first.
func (d *Device) CreateCharacter(idx uint8, pattern []byte) error {
	if !d.initDone {
		return errUninit
	}
	if idx >= 8 {
		return errGlyphIndex
	}
	if len(pattern) != cgramGlyphSize {
		return errGlyphPattern
	}
	d.trace("cgram:upload", slog.Uint64("idx", uint64(idx)))
	d.command(cmdCGRAMAddr(idx * cgramGlyphSize))
	for _, row := range pattern {
		d.data(row)
	}
	// Address counter now points at CGRAM; restore DDRAM addressing.
	// A cursor resting past the last column wraps like Write would.
	if d.x >= d.width {
		return d.SetCursor(0, (d.y+1)%d.height)
	}
	return d.SetCursor(d.x, d.y)
}

// rawNibble pushes a bare interface-reset nibble during Init, before
// the bus mode is established. On an 8-bit bus the nibble goes out on
// the upper data lines as the datasheet's reset bytes require.
func (d *Device) rawNibble(n byte) {
	if d.bus.Width() == 8 {
		n <<= 4
	}
	d.bus.WriteRaw(n)
}

// command sends an instruction byte with standard execution time.
func (d *Device) command(c byte) {
	d.send(c, false, tExec)
}

// commandLong sends Clear Display or Return Home, the two instructions
// with the long execution time.
func (d *Device) commandLong(c byte) {
	d.send(c, false, tExecLong)
}

// data sends a character or CGRAM byte.
func (d *Device) data(c byte) {
	d.send(c, true, tExec)
}

func (d *Device) send(c byte, isData bool, exec time.Duration) {
	d.waitReady()
	d.rs(isData)
	if d.bus.Width() == 4 {
		d.bus.WriteRaw(c >> 4)
		d.bus.WriteRaw(c & 0x0f)
	} else {
		d.bus.WriteRaw(c)
	}
	d.busyUntil = time.Now().Add(exec)
}

// waitReady blocks until the previous instruction's execution time has
// elapsed.
func (d *Device) waitReady() {
	remaining := time.Until(d.busyUntil)
	if remaining > 0 {
		d.sleep(remaining)
	}
}
