package hd44780

import "time"

// HD44780 instruction bytes. The instruction is selected by the highest
// set bit; lower bits carry the instruction's flags.
const (
	instrClearDisplay byte = 1 << 0
	instrReturnHome   byte = 1 << 1
	instrEntryMode    byte = 1 << 2
	instrDisplayCtl   byte = 1 << 3
	instrShift        byte = 1 << 4
	instrFunctionSet  byte = 1 << 5
	instrSetCGRAMAddr byte = 1 << 6
	instrSetDDRAMAddr byte = 1 << 7
)

// Entry mode set flags.
const (
	flagEntryIncrement byte = 1 << 1 // I/D: move cursor right after write.
	flagEntryShift     byte = 1 << 0 // S: shift whole display instead of cursor.
)

// Display on/off control flags.
const (
	flagDisplayOn byte = 1 << 2 // D
	flagCursorOn  byte = 1 << 1 // C
	flagBlinkOn   byte = 1 << 0 // B
)

// Cursor or display shift flags.
const (
	flagShiftDisplay byte = 1 << 3 // S/C: 1 shifts display, 0 moves cursor.
	flagShiftRight   byte = 1 << 2 // R/L
)

// Function set flags.
const (
	flagFunc8Bit    byte = 1 << 4 // DL: 8-bit bus.
	flagFuncTwoLine byte = 1 << 3 // N: two display lines.
	flagFunc5x10    byte = 1 << 2 // F: 5x10 dot font.
)

// Font selects the character font configured during Init.
type Font uint8

const (
	Font5x8 Font = iota
	Font5x10
)

// DDRAM layout. The controller addresses 80 bytes of display RAM split
// over two discontiguous line regions regardless of panel geometry.
const (
	ddramTotal     = 80
	ddramLine0     = 0x00
	ddramLine0End  = 0x27
	ddramLine1     = 0x40
	ddramLine1End  = 0x67
	ddramAddrMask  = 0x7f
	cgramAddrMask  = 0x3f
	cgramGlyphSize = 8
)

// Execution and signal timings from the HD44780U datasheet, with margin.
// The driver never reads the busy flag (RW is tied low) so each command
// is paced by the maximum execution time of its instruction.
const (
	// tExec is the execution time of every instruction except Clear
	// Display and Return Home (37us at fOSC=270kHz).
	tExec = 50 * time.Microsecond
	// tExecLong is the execution time of Clear Display and Return
	// Home (1.52ms at fOSC=270kHz).
	tExecLong = 2 * time.Millisecond
	// tEnablePulse is the minimum E pulse high width (450ns).
	tEnablePulse = time.Microsecond
	// tPowerOn is the settle time after Vcc rises before the reset
	// sequence may start.
	tPowerOn = 16 * time.Millisecond
	// tReset1 is the wait after the first interface-reset nibble.
	tReset1 = 5 * time.Millisecond
	// tReset2 is the wait after the second interface-reset nibble.
	tReset2 = 120 * time.Microsecond
)

// cmdEntryMode encodes an Entry Mode Set instruction.
func cmdEntryMode(increment, shift bool) byte {
	return instrEntryMode | b2u8(increment)*flagEntryIncrement | b2u8(shift)*flagEntryShift
}

// cmdDisplayCtl encodes a Display On/Off Control instruction.
func cmdDisplayCtl(display, cursor, blink bool) byte {
	return instrDisplayCtl | b2u8(display)*flagDisplayOn | b2u8(cursor)*flagCursorOn | b2u8(blink)*flagBlinkOn
}

// cmdShift encodes a Cursor or Display Shift instruction.
func cmdShift(display, right bool) byte {
	return instrShift | b2u8(display)*flagShiftDisplay | b2u8(right)*flagShiftRight
}

// cmdFunctionSet encodes a Function Set instruction.
func cmdFunctionSet(bus8bit, twoLine bool, font Font) byte {
	return instrFunctionSet | b2u8(bus8bit)*flagFunc8Bit | b2u8(twoLine)*flagFuncTwoLine | b2u8(font == Font5x10)*flagFunc5x10
}

// cmdDDRAMAddr encodes a Set DDRAM Address instruction.
func cmdDDRAMAddr(addr byte) byte {
	return instrSetDDRAMAddr | addr&ddramAddrMask
}

// cmdCGRAMAddr encodes a Set CGRAM Address instruction.
func cmdCGRAMAddr(addr byte) byte {
	return instrSetCGRAMAddr | addr&cgramAddrMask
}

//go:inline
func b2u8(b bool) byte {
	if b {
		return 1
	}
	return 0
}
