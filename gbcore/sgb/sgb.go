// Package sgb implements the Super variant coprocessor: the bit-serial
// command protocol carried over the joypad register (P1), palette/attribute
// commands, and monochrome-to-color frame colorization.
//
// Grounded on original_source/SharedLib/gbc/sgbmodule.cpp (grimace87's
// ShiningEmulator) for command layout and colouriseFrame semantics.
package sgb

import "github.com/halcyon-emu/gbcore/gbcore/video"

// Command is the 5-bit opcode carried in the high bits of the first
// command byte of a packet.
type Command uint8

const (
	CmdPAL01    Command = 0x00
	CmdPAL23    Command = 0x01
	CmdPAL03    Command = 0x02
	CmdPAL12    Command = 0x03
	CmdATTRBLK  Command = 0x04
	CmdATTRLIN  Command = 0x05
	CmdATTRDIV  Command = 0x06
	CmdATTRCHR  Command = 0x07
	CmdSOUND    Command = 0x08
	CmdSOUTRN   Command = 0x09
	CmdPALSET   Command = 0x0A
	CmdPALTRN   Command = 0x0B
	CmdATRCEN   Command = 0x0C
	CmdTESTEN   Command = 0x0D
	CmdICONEN   Command = 0x0E
	CmdDATASEND Command = 0x0F
	CmdDATATRN  Command = 0x10
	CmdMLTREQ   Command = 0x11
	CmdJUMP     Command = 0x12
	CmdCHRTRN   Command = 0x13
	CmdPCTTRN   Command = 0x14
	CmdATTRTRN  Command = 0x15
	CmdATTRSET  Command = 0x16
	CmdMASKEN   Command = 0x17
	CmdOBJTRN   Command = 0x18
	CmdPALPRI   Command = 0x19
)

// FreezeMode mirrors the argument byte of MASK_EN: cancel, freeze-current,
// black-screen, or freeze-to-backdrop-color.
type FreezeMode uint8

const (
	FreezeCancel FreezeMode = iota
	FreezeCurrent
	FreezeBlack
	FreezeBackdrop
)

const (
	cellCols = 20
	cellRows = 18
)

// VRAMSnapshot supplies the 4KiB "mapped VRAM" view that PAL_TRN reads
// system palettes from: one 16-byte tile per on-screen character cell,
// following the current LCDC tile-map/tile-data bank selection.
type VRAMSnapshot func(lcdc byte) [cellCols * cellRows * 16]byte

// Coprocessor holds all Super-variant command-protocol and colorization
// state (spec.md §3 "Super-variant coprocessor state").
type Coprocessor struct {
	readingCommand   bool
	commandBits      [8]byte
	commandBytes     [7][16]byte
	command          Command
	readCommandBits  int
	readCommandBytes int
	noPacketsSent    int
	noPacketsToSend  int

	freezeScreen bool
	freezeMode   FreezeMode

	multEnabled   bool
	noPlayers     uint8
	readJoypadID  uint8

	// palettes holds 4 active palettes of 4 RGBA colors each, flattened
	// as palettes[paletteNo*4+colorIdx], matching the original's layout.
	palettes [16]uint32
	// sysPalettes is the 512-entry system palette table loaded via PAL_TRN.
	sysPalettes [512 * 4]uint32
	// chrPalettes maps each of the 20x18 character cells to one of the
	// 4 active palettes.
	chrPalettes [cellRows * cellCols]uint8

	vramSnapshot VRAMSnapshot
}

// New creates a Coprocessor in its post-boot idle state.
func New() *Coprocessor {
	return &Coprocessor{
		readJoypadID: 0x0F,
	}
}

// AttachVRAMSnapshot wires the callback used by PAL_TRN to read the
// on-screen tile data it colorizes against. Optional; PAL_TRN is a no-op
// without it.
func (c *Coprocessor) AttachVRAMSnapshot(fn VRAMSnapshot) {
	c.vramSnapshot = fn
}

// HandleP1Write processes a write to the joypad register (0xFF00) as a
// bit-serial command edge, per spec.md §4.6. Only bits 4-5 (the button/dpad
// select nibble) carry protocol meaning; the caller is still responsible for
// the normal joypad-register semantics.
func (c *Coprocessor) HandleP1Write(value byte) {
	sel := value & 0x30
	switch sel {
	case 0x00: // reset: start of a new packet transfer
		if !c.readingCommand {
			c.readingCommand = true
			c.readCommandBits = 0
			c.readCommandBytes = 0
			c.noPacketsSent = 0
			c.noPacketsToSend = 1
		}
	case 0x20: // zero-bit edge
		if !c.readingCommand {
			return
		}
		if c.readCommandBytes >= 16 {
			c.noPacketsSent++
			c.readCommandBytes = 0
			if c.noPacketsSent >= c.noPacketsToSend {
				c.dispatch()
				c.readingCommand = false
			}
			return
		}
		c.commandBits[c.readCommandBits] = 0
		c.readCommandBits++
		if c.readCommandBits >= 8 {
			c.commitByte()
		}
		if c.noPacketsSent >= c.noPacketsToSend {
			c.dispatch()
			c.readingCommand = false
			c.noPacketsSent = 0
			c.noPacketsToSend = 0
		}
	case 0x10: // one-bit edge
		if !c.readingCommand {
			return
		}
		if c.readCommandBytes >= 16 {
			// a '1' at a packet boundary is a transmission error
			c.readingCommand = false
			return
		}
		c.commandBits[c.readCommandBits] = 1
		c.readCommandBits++
		if c.readCommandBits >= 8 {
			c.commitByte()
		}
	default: // 0x30: idle/multi-controller polling, no command bit
	}
}

// commitByte folds the 8 pending bits (LSB first) into the current packet
// byte and, for the very first byte of the transfer, extracts the packet
// count and command opcode.
func (c *Coprocessor) commitByte() {
	c.readCommandBits = 0
	var b byte
	for i := 0; i < 8; i++ {
		b |= c.commandBits[i] << uint(i)
	}
	if c.readCommandBytes < 16 {
		c.commandBytes[c.noPacketsSent][c.readCommandBytes] = b
	}
	c.readCommandBytes++
	if c.readCommandBytes == 1 && c.noPacketsSent == 0 {
		c.noPacketsToSend = int(b & 0x07)
		if c.noPacketsToSend == 0 {
			c.noPacketsToSend = 1
		}
		c.command = Command((b >> 3) & 0x1F)
	}
}

// dispatch applies the command accumulated across noPacketsSent packets.
// Unsupported commands are accepted and silently dropped, per spec.md §4.6.
func (c *Coprocessor) dispatch() {
	switch c.command {
	case CmdPAL01:
		c.loadPalettes(0, 1)
	case CmdPAL23:
		c.loadPalettes(2, 3)
	case CmdPAL03:
		c.loadPalettes(0, 3)
	case CmdPAL12:
		c.loadPalettes(1, 2)
	case CmdATTRBLK:
		c.attrBlock()
	case CmdATTRLIN:
		c.attrLine()
	case CmdATTRDIV:
		c.attrDivide()
	case CmdATTRCHR:
		c.attrChr()
	case CmdPALSET:
		c.palSet()
	case CmdPALTRN:
		c.palTrn()
	case CmdMLTREQ:
		c.mltReq()
	case CmdMASKEN:
		c.maskEn()
	default:
		// SOUND, SOU_TRN, ATRC_EN, TEST_EN, ICON_EN, DATA_SEND/TRN, JUMP,
		// CHR_TRN, PCT_TRN, ATTR_TRN, ATTR_SET, OBJ_TRN, PAL_PRI: dropped.
	}
}

// loadPalettes decodes one 16-byte packet's worth of 7 colors: color 0 is
// shared by all 4 active palettes (it is the backdrop color), and colors
// 1-3 are written into the two named palette slots (paletteA from bytes
// 3-8, paletteB from bytes 9-14), per PAL01/23/03/12 semantics.
func (c *Coprocessor) loadPalettes(paletteA, paletteB int) {
	b := c.commandBytes[0][:]
	color0 := remap555(b[1], b[2])
	for p := 0; p < 4; p++ {
		c.palettes[p*4] = color0
	}
	c.palettes[paletteA*4+1] = remap555(b[3], b[4])
	c.palettes[paletteA*4+2] = remap555(b[5], b[6])
	c.palettes[paletteA*4+3] = remap555(b[7], b[8])
	c.palettes[paletteB*4+1] = remap555(b[9], b[10])
	c.palettes[paletteB*4+2] = remap555(b[11], b[12])
	c.palettes[paletteB*4+3] = remap555(b[13], b[14])
}

func (c *Coprocessor) attrBlock() {
	dataGroups := int(c.commandBytes[0][1] & 0x1F)
	packetNo, byteNo := 0, 2
	next := func() byte {
		v := c.commandBytes[packetNo][byteNo]
		byteNo++
		if byteNo >= 16 {
			byteNo = 0
			packetNo++
			if packetNo >= len(c.commandBytes) {
				packetNo = len(c.commandBytes) - 1
			}
		}
		return v
	}

	for g := 0; g < dataGroups; g++ {
		ctrlCode := next() & 0x07
		paletteCodes := next() & 0x3F
		xLeft := int(next() & 0x1F)
		yTop := int(next() & 0x1F)
		xRight := int(next() & 0x1F)
		yBottom := int(next() & 0x1F)

		if xLeft > 19 || yTop > 17 || xLeft > xRight || yTop > yBottom {
			continue
		}
		if xRight > 19 {
			xRight = 19
		}
		if yBottom > 17 {
			yBottom = 17
		}

		if ctrlCode > 3 {
			p := uint8((paletteCodes & 0x30) >> 4)
			for y := 0; y < cellRows; y++ {
				for x := 0; x < xLeft; x++ {
					c.chrPalettes[y*cellCols+x] = p
				}
				for x := xRight + 1; x < cellCols; x++ {
					c.chrPalettes[y*cellCols+x] = p
				}
			}
			for x := xLeft; x <= xRight; x++ {
				for y := 0; y < yTop; y++ {
					c.chrPalettes[y*cellCols+x] = p
				}
				for y := yBottom + 1; y < cellRows; y++ {
					c.chrPalettes[y*cellCols+x] = p
				}
			}
		}
		if ctrlCode&0x01 > 0 {
			p := uint8(paletteCodes & 0x03)
			for y := yTop + 1; y < yBottom; y++ {
				for x := xLeft + 1; x < xRight; x++ {
					c.chrPalettes[y*cellCols+x] = p
				}
			}
		}
		if ctrlCode > 0 && ctrlCode != 5 {
			var p uint8
			switch {
			case ctrlCode == 1:
				p = uint8(paletteCodes & 0x03)
			case ctrlCode == 4:
				p = uint8((paletteCodes & 0x30) >> 4)
			default:
				p = uint8((paletteCodes & 0x0C) >> 2)
			}
			for y := yTop; y <= yBottom; y++ {
				c.chrPalettes[y*cellCols+xLeft] = p
				c.chrPalettes[y*cellCols+xRight] = p
			}
			for x := xLeft; x <= xRight; x++ {
				c.chrPalettes[yTop*cellCols+x] = p
				c.chrPalettes[yBottom*cellCols+x] = p
			}
		}
	}
}

// attrLine assigns a palette to each named row/column in turn. Each entry
// byte: bit7 selects row(0)/column(1), bits 5-6 the palette, bits 0-4 the
// index. Supplements the original, which left ATTR_LIN unimplemented.
func (c *Coprocessor) attrLine() {
	count := int(c.commandBytes[0][1] & 0x1F)
	for i := 0; i < count && i+2 < 16; i++ {
		entry := c.commandBytes[0][i+2]
		idx := int(entry & 0x1F)
		palette := uint8((entry >> 5) & 0x03)
		if entry&0x80 != 0 {
			if idx >= cellCols {
				continue
			}
			for y := 0; y < cellRows; y++ {
				c.chrPalettes[y*cellCols+idx] = palette
			}
		} else {
			if idx >= cellRows {
				continue
			}
			for x := 0; x < cellCols; x++ {
				c.chrPalettes[idx*cellCols+x] = palette
			}
		}
	}
}

func (c *Coprocessor) attrDivide() {
	b1 := c.commandBytes[0][1]
	if b1&0x40 != 0 {
		hCoord := int(c.commandBytes[0][2] & 0x1F)
		if hCoord > 18 {
			hCoord = 18
		}
		above := uint8((b1 & 0x0C) >> 2)
		on := uint8((b1 & 0x30) >> 4)
		below := uint8(b1 & 0x03)
		for y := 0; y < hCoord; y++ {
			for x := 0; x < cellCols; x++ {
				c.chrPalettes[y*cellCols+x] = above
			}
		}
		for x := 0; x < cellCols; x++ {
			c.chrPalettes[hCoord*cellCols+x] = on
		}
		for y := hCoord; y < cellRows; y++ {
			for x := 0; x < cellCols; x++ {
				c.chrPalettes[y*cellCols+x] = below
			}
		}
	} else {
		vCoord := int(c.commandBytes[0][2] & 0x1F)
		if vCoord > 20 {
			vCoord = 20
		}
		left := uint8((b1 & 0x0C) >> 2)
		on := uint8((b1 & 0x30) >> 4)
		right := uint8(b1 & 0x03)
		for y := 0; y < cellRows; y++ {
			for x := 0; x < vCoord; x++ {
				c.chrPalettes[y*cellCols+x] = left
			}
		}
		if vCoord < cellCols {
			for y := 0; y < cellRows; y++ {
				c.chrPalettes[y*cellCols+vCoord] = on
			}
		}
		for y := 0; y < cellRows; y++ {
			for x := vCoord; x < cellCols; x++ {
				c.chrPalettes[y*cellCols+x] = right
			}
		}
	}
}

func (c *Coprocessor) attrChr() {
	xLeft := int(c.commandBytes[0][1] & 0x1F)
	yTop := int(c.commandBytes[0][2] & 0x1F)
	if xLeft > 19 || yTop > 17 {
		return
	}
	sentDataSets := int(c.commandBytes[0][4]&0x01)*256 + int(c.commandBytes[0][3])
	vertical := c.commandBytes[0][5]&0x01 != 0

	x, y := xLeft, yTop
	p, cb := 0, 6
	byteIdx := 0
	for dp := 0; dp < sentDataSets; {
		var pal uint8
		switch byteIdx {
		case 0:
			pal = (c.commandBytes[p][cb] & 0xC0) >> 6
		case 1:
			pal = (c.commandBytes[p][cb] & 0x30) >> 4
		case 2:
			pal = (c.commandBytes[p][cb] & 0x0C) >> 2
		default:
			pal = c.commandBytes[p][cb] & 0x03
		}
		c.chrPalettes[y*cellCols+x] = pal

		if vertical {
			y++
			if y >= cellRows {
				y = yTop
				x++
				if x >= cellCols {
					break
				}
			}
		} else {
			x++
			if x >= cellCols {
				x = xLeft
				y++
				if y >= cellRows {
					break
				}
			}
		}

		byteIdx++
		if byteIdx >= 4 {
			byteIdx = 0
			cb++
			if cb >= 16 {
				cb = 0
				p++
				if p >= c.noPacketsSent {
					break
				}
			}
			dp++
		}
	}
}

func (c *Coprocessor) palSet() {
	attributes := c.commandBytes[0][9]
	for p := 0; p < 4; p++ {
		srcPaletteNo := int(c.commandBytes[0][p*2+2]&0x01)*256 + int(c.commandBytes[0][p*2+1])
		for col := 0; col < 4; col++ {
			c.palettes[p*4+col] = c.sysPalettes[srcPaletteNo*4+col]
		}
	}
	if attributes&0x40 != 0 {
		c.freezeMode = FreezeCancel
		c.freezeScreen = false
	}
}

func (c *Coprocessor) palTrn() {
	if c.vramSnapshot == nil {
		return
	}
	snapshot := c.vramSnapshot(0)
	src := 0
	for p := 0; p < 512; p++ {
		for col := 0; col < 4; col++ {
			c.sysPalettes[p*4+col] = remap555(snapshot[src], snapshot[src+1])
			src += 2
		}
	}
}

func (c *Coprocessor) mltReq() {
	b := c.commandBytes[0][1]
	c.multEnabled = b&0x01 != 0
	c.noPlayers = (b & 0x03) + 1
	c.readJoypadID = 0x0F
}

func (c *Coprocessor) maskEn() {
	b := c.commandBytes[0][1]
	mode := FreezeMode(b)
	c.freezeMode = mode
	c.freezeScreen = mode != FreezeCancel
}

// remap555 expands an RGB555 little-endian color (lo, hi bytes, as sent
// over the wire) into an 0xRRGGBBAA value matching video.GBColor's layout.
func remap555(lo, hi byte) uint32 {
	word := uint16(lo) | uint16(hi)<<8
	r5 := uint8(word & 0x1F)
	g5 := uint8((word >> 5) & 0x1F)
	b5 := uint8((word >> 10) & 0x1F)
	expand := func(v5 uint8) uint32 { return uint32(v5)<<3 | uint32(v5)>>2 }
	return expand(r5)<<24 | expand(g5)<<16 | expand(b5)<<8 | 0xFF
}

// Colourize post-processes a 160x144 monochrome 2-bit color-index buffer
// (as produced by the DMG scanline renderer) into fb, using the per-cell
// palette assignments built up by ATTR_*/PAL_SET commands.
func (c *Coprocessor) Colourize(mono []byte, fb *video.FrameBuffer) {
	for cy := 0; cy < cellRows; cy++ {
		for cx := 0; cx < cellCols; cx++ {
			paletteNo := c.chrPalettes[cy*cellCols+cx]
			palette := c.palettes[paletteNo*4 : paletteNo*4+4]
			for py := cy * 8; py < cy*8+8; py++ {
				for px := cx * 8; px < cx*8+8; px++ {
					idx := mono[py*video.FramebufferWidth+px]
					fb.SetPixel(uint(px), uint(py), video.GBColor(palette[idx]))
				}
			}
		}
	}
}

// FreezeScreen reports whether MASK_EN has frozen scanline output.
func (c *Coprocessor) FreezeScreen() bool { return c.freezeScreen }

// MultiControllerEnabled reports whether MLT_REQ armed multi-controller
// joypad polling.
func (c *Coprocessor) MultiControllerEnabled() bool { return c.multEnabled }

// ReadJoypadID returns the current multi-controller rotation index, read
// back through 0xFF00 bits 0-3 when multEnabled and the upper nibble is 0x30.
func (c *Coprocessor) ReadJoypadID() uint8 { return c.readJoypadID }

// AdvanceJoypadID rotates to the next controller slot in a multi-controller
// poll; called by the memory unit when the host re-selects 0x30 mid-poll.
func (c *Coprocessor) AdvanceJoypadID() {
	if !c.multEnabled {
		return
	}
	c.readJoypadID--
	if c.readJoypadID < 0x0C {
		c.readJoypadID = 0x0F
	}
}

// Palettes returns the 4 active palettes (4 colors each), exposed for
// debug/test inspection.
func (c *Coprocessor) Palettes() [16]uint32 { return c.palettes }

// CellPalette returns the palette index assigned to character cell (x, y).
func (c *Coprocessor) CellPalette(x, y int) uint8 { return c.chrPalettes[y*cellCols+x] }
