package memory

import (
	"fmt"
	"log/slog"

	"github.com/halcyon-emu/gbcore/gbcore/addr"
	"github.com/halcyon-emu/gbcore/gbcore/audio"
	"github.com/halcyon-emu/gbcore/gbcore/bit"
	"github.com/halcyon-emu/gbcore/gbcore/serial"
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionUnused
	regionIO
	regionHRAM
)

// JoypadKey represents a key on the Gameboy joypad
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

// SerialPort is the minimal interface for a serial device connected to SB/SC.
// Implementations MUST only accept reads/writes to addr.SB and addr.SC.
type SerialPort interface {
	Write(address uint16, value byte)
	Read(address uint16) byte
	Tick(cycles int)
	Reset()
}

// MMU allows access to all memory mapped I/O and data/registers
type MMU struct {
	cart      *Cartridge
	mbc       MBC
	memory    []byte
	APU       *audio.APU
	regionMap [256]memRegion

	joypadButtons uint8 // Actual state of buttons A/B/Start/Select, mapped to low bits of P1
	joypadDpad    uint8 // Actual state of d-pad directions, mapped to low bits of P1

	serial SerialPort
	timer  Timer

	sgb SGBCoprocessor

	save *BatterySave

	// Color-variant (CGB) extensions. m.memory still backs VRAM bank 0
	// (0x8000-0x9FFF) and WRAM bank 1 (0xD000-0xDFFF) unchanged, so a DMG
	// cartridge never touches these fields.
	vramBank1  [0x2000]byte // VRAM bank 1: always holds BG/window tile attributes
	wramBanks  [6][0x1000]byte // WRAM banks 2-7 (bank 1 stays in m.memory)
	vbk        uint8
	svbk       uint8
	doubleSpeed      bool
	speedSwitchArmed bool

	hdmaSrc    uint16
	hdmaDst    uint16
	hdmaLen    uint8 // 0x00-0x7F, (hdmaLen+1)*0x10 bytes remain
	hdmaActive bool  // true while an H-blank-mode transfer is armed

	bgPalette  [64]byte // 8 palettes * 4 colors * 2 bytes (RGB555, little-endian)
	objPalette [64]byte
	bcpsIndex  uint8 // bits 0-5 index, bit 7 auto-increment
	ocpsIndex  uint8
}

// SGBCoprocessor is the minimal interface the memory unit needs to forward
// joypad-register writes to the Super-variant command protocol (spec.md
// §4.6). Only wired when a Super-variant cartridge is detected.
type SGBCoprocessor interface {
	HandleP1Write(value byte)
}

// AttachSGB wires a Super-variant coprocessor so writes to the joypad
// register (0xFF00) also feed its bit-serial command protocol.
func (m *MMU) AttachSGB(sgb SGBCoprocessor) {
	m.sgb = sgb
}

// New creates a new memory unity with default data, i.e. nothing cartridge loaded.
// Equivalent to turning on a Gameboy without a cartridge in.
func New() *MMU {
	mmu := &MMU{
		memory:        make([]byte, 0x10000),
		cart:          NewCartridge(),
		APU:           audio.New(),
		joypadButtons: 0x0F,
		joypadDpad:    0x0F,
	}
	mmu.serial = serial.NewLogSink(func() { mmu.RequestInterrupt(addr.SerialInterrupt) })
	mmu.timer.TimerInterruptHandler = func() { mmu.RequestInterrupt(addr.TimerInterrupt) }
	initRegionMap(mmu)
	return mmu
}

// Cartridge returns the currently loaded cartridge, for variant detection
// (color/super flags) by the orchestrator.
func (m *MMU) Cartridge() *Cartridge {
	return m.cart
}

// MBC returns the active bank controller, for the orchestrator to seed
// battery-save state into via the BatteryBacked/RTCBacked interfaces.
func (m *MMU) MBC() MBC {
	return m.mbc
}

// AttachBatterySave wires an open .gsv handle so subsequent external-RAM
// writes mirror through to disk immediately (spec.md's battery-save file).
// A nil save is a valid no-op attach, matching SaveFileUnavailable: the
// cartridge keeps running on in-memory-only SRAM for this session.
func (m *MMU) AttachBatterySave(save *BatterySave) {
	m.save = save
}

// mirrorToBatterySave writes through the single external-RAM byte most
// recently mutated by the controller, if both a save file and a
// battery-backed controller are attached.
func (m *MMU) mirrorToBatterySave() {
	if m.save == nil {
		return
	}
	backed, ok := m.mbc.(BatteryBacked)
	if !ok {
		return
	}
	offset, ok := backed.LastSRAMWrite()
	if !ok {
		return
	}
	sram := backed.SRAM()
	if offset < 0 || offset >= len(sram) {
		return
	}
	if err := m.save.WriteByte(offset, sram[offset]); err != nil {
		slog.Warn("Battery save write-through failed", "error", err)
	}
}

// CloseBatterySave flushes RTC state (if any) and releases the save file
// handle. Safe to call even when no save file is attached.
func (m *MMU) CloseBatterySave() error {
	if m.save == nil {
		return nil
	}
	if rtcBacked, ok := m.mbc.(RTCBacked); ok {
		if err := m.save.WriteRTC(rtcBacked.RTC()); err != nil {
			return err
		}
	}
	return m.save.Close()
}

// Tick advances any i/o that needs it, if any.
func (m *MMU) Tick(cycles int) {
	m.timer.Tick(cycles)
	if m.serial != nil {
		m.serial.Tick(cycles)
	}
}

// SetTimerSeed initializes the internal timer divider seed and DIV register.
func (m *MMU) SetTimerSeed(seed uint16) {
	m.timer.SetSeed(seed)
}

// NewWithCartridge creates a new memory unit with the provided cartridge data loaded.
// Equivalent to turning on a Gameboy with a cartridge in.
func NewWithCartridge(cart *Cartridge) *MMU {
	mmu := New()
	mmu.cart = cart

	switch cart.mbcType {
	case NoMBCType:
		mmu.mbc = NewNoMBC(cart.data)
	case MBC1Type:
		mmu.mbc = NewMBC1(cart.data, cart.hasBattery, cart.ramBankCount)
	case MBC1MultiType:
		mmu.mbc = NewMBC1Multi(cart.data, cart.hasBattery, cart.ramBankCount)
	case MBC2Type:
		mmu.mbc = NewMBC2(cart.data)
	case MBC3Type:
		mmu.mbc = NewMBC3(cart.data, cart.hasRTC, cart.ramBankCount, nil, nil)
	case MBC5Type:
		mmu.mbc = NewMBC5(cart.data, cart.hasRumble, cart.ramBankCount)
	case MBCUnknownType:
		panic("unsupported MBC type: unknown")
	default:
		panic(fmt.Sprintf("unsupported MBC type: %d", cart.mbcType))
	}

	return mmu
}

func initRegionMap(m *MMU) {
	// ROM: 0x0000-0x7FFF
	for i := 0x00; i <= 0x7F; i++ {
		m.regionMap[i] = regionROM
	}
	// VRAM: 0x8000-0x9FFF
	for i := 0x80; i <= 0x9F; i++ {
		m.regionMap[i] = regionVRAM
	}
	// External RAM: 0xA000-0xBFFF
	for i := 0xA0; i <= 0xBF; i++ {
		m.regionMap[i] = regionExtRAM
	}
	// Work RAM: 0xC000-0xDFFF
	for i := 0xC0; i <= 0xDF; i++ {
		m.regionMap[i] = regionWRAM
	}
	// Echo RAM: 0xE000-0xFDFF
	for i := 0xE0; i <= 0xFD; i++ {
		m.regionMap[i] = regionEcho
	}
	// OAM: 0xFE00-0xFE9F, Unused: 0xFEA0-0xFEFF
	m.regionMap[0xFE] = regionOAM
	// IO + HRAM: 0xFF00-0xFFFF
	m.regionMap[0xFF] = regionIO
}

// RequestInterrupt sets the interrupt flag (IF register) of the chosen interrupt to 1.
func (m *MMU) RequestInterrupt(interrupt addr.Interrupt) {
	interruptFlags := m.Read(addr.IF)

	var bitPos uint8
	switch interrupt {
	case addr.VBlankInterrupt:
		bitPos = 0
	case addr.LCDSTATInterrupt:
		bitPos = 1
	case addr.TimerInterrupt:
		bitPos = 2
	case addr.SerialInterrupt:
		bitPos = 3
	case addr.JoypadInterrupt:
		bitPos = 4
	default:
		panic(fmt.Sprintf("Unknown interrupt: 0x%02X", uint8(interrupt)))
	}

	newFlags := bit.Set(bitPos, interruptFlags)

	m.Write(addr.IF, newFlags)
}

func (m *MMU) ReadBit(index uint8, address uint16) bool {
	return bit.IsSet(index, m.Read(address))
}

func (m *MMU) SetBit(index uint8, address uint16, set bool) {
	value := m.Read(address)
	if set {
		value = bit.Set(index, value)
	} else {
		value = bit.Reset(index, value)
	}
	m.Write(address, value)
}

func (m *MMU) Read(address uint16) byte {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		if m.mbc == nil {
			slog.Warn("Reading from ROM/external RAM with no cartridge", "addr", fmt.Sprintf("0x%04X", address))
			return 0xFF
		}
		return m.mbc.Read(address)
	case regionVRAM:
		if m.vbk&0x01 == 1 {
			return m.vramBank1[address-0x8000]
		}
		return m.memory[address]
	case regionWRAM:
		if address >= 0xD000 {
			if bank := m.wramBank(); bank != 1 {
				return m.wramBanks[bank-2][address-0xD000]
			}
		}
		return m.memory[address]
	case regionEcho:
		return m.Read(address - 0x2000)
	case regionOAM:
		if address <= 0xFE9F {
			return m.memory[address]
		}
		// Unused area 0xFEA0-0xFEFF
		return m.memory[address]
	case regionIO:
		if address == addr.SB || address == addr.SC {
			return m.serial.Read(address)
		}
		if address == addr.DIV || address == addr.TIMA || address == addr.TMA || address == addr.TAC {
			return m.timer.Read(address)
		}
		if address >= 0xFF10 && address <= 0xFF3F {
			return m.APU.ReadRegister(address)
		}
		if v, ok := m.readCGBRegister(address); ok {
			return v
		}
		// Just in case, we always read the upper 3 bits of IF as 1.
		// They're not used, but have caused me some headaches when checking for
		// when the halt bug triggers (IF != 0).
		if address == addr.IF {
			return m.memory[address] | 0xE0
		}
		if address >= 0xFF80 {
			// HRAM
			return m.memory[address]
		}
		// Other IO registers
		return m.memory[address]
	default:
		panic(fmt.Sprintf("Attempted read at unmapped address: 0x%X", address))
	}
}

func (m *MMU) Write(address uint16, value byte) {
	switch m.regionMap[address>>8] {
	case regionROM:
		if m.mbc == nil {
			slog.Warn("Writing to ROM with no cartridge", "addr", fmt.Sprintf("0x%04X", address), "value", fmt.Sprintf("0x%02X", value))
			return
		}
		m.mbc.Write(address, value)
	case regionVRAM:
		if m.vbk&0x01 == 1 {
			m.vramBank1[address-0x8000] = value
		} else {
			m.memory[address] = value
		}
	case regionExtRAM:
		if m.mbc == nil {
			slog.Warn("Writing to external RAM with no cartridge", "addr", fmt.Sprintf("0x%04X", address), "value", fmt.Sprintf("0x%02X", value))
			return
		}
		m.mbc.Write(address, value)
		m.mirrorToBatterySave()
	case regionWRAM:
		if address >= 0xD000 {
			if bank := m.wramBank(); bank != 1 {
				m.wramBanks[bank-2][address-0xD000] = value
				return
			}
		}
		m.memory[address] = value
	case regionEcho:
		if address <= 0xFDFF {
			m.Write(address-0x2000, value)
		}
	case regionOAM:
		if address <= 0xFE9F {
			m.memory[address] = value
		} else {
			// Unused area 0xFEA0-0xFEFF
			m.memory[address] = value
		}
	case regionIO:
		if address == addr.P1 {
			m.writeJoypad(value)
			return
		}
		if address == addr.SB || address == addr.SC {
			m.serial.Write(address, value)
			return
		}
		if address == addr.DIV || address == addr.TIMA || address == addr.TMA || address == addr.TAC {
			m.timer.Write(address, value)
			return
		}
		if address >= 0xFF10 && address <= 0xFF3F {
			m.APU.WriteRegister(address, value)
			return
		}
		if m.writeCGBRegister(address, value) {
			return
		}
		if address == addr.IF {
			// This goddamn register has its upper 3 bits always set as 1...
			// Beware if you're trying to match halt bug behavior.
			m.memory[address] = value | 0xE0
			return
		}
		if address == addr.DMA {
			sourceAddr := uint16(value) << 8
			// DMA transfer copies 160 bytes from source to OAM
			for i := range uint16(160) {
				m.memory[0xFE00+i] = m.Read(sourceAddr + i)
			}
			m.memory[address] = value
			return
		}
		if address >= 0xFF80 {
			// HRAM
			m.memory[address] = value
			return
		}
		// Other IO registers
		m.memory[address] = value
	default:
		panic(fmt.Sprintf("Attempted write at unmapped address: 0x%X", address))
	}
}

// wramBank reports the active switchable WRAM bank (2-7), or 1 when no
// alternate bank is selected (SVBK==0 reads back as bank 1 on hardware).
func (m *MMU) wramBank() uint8 {
	bank := m.svbk & 0x07
	if bank == 0 {
		bank = 1
	}
	return bank
}

// ReadVRAMBank reads VRAM directly from the requested bank (0 or 1),
// bypassing the VBK selector. The PPU uses this to fetch BG/window tile
// numbers from bank 0 and their color attribute bytes from bank 1 at the
// same time, regardless of which bank the CPU currently has selected.
func (m *MMU) ReadVRAMBank(bank int, address uint16) byte {
	if bank == 0 {
		return m.memory[address]
	}
	return m.vramBank1[address-0x8000]
}

// DoubleSpeed reports whether the CPU is currently clocked at double speed
// (KEY1 bit 7).
func (m *MMU) DoubleSpeed() bool {
	return m.doubleSpeed
}

// SpeedSwitchArmed reports whether KEY1 bit 0 was set, arming a speed
// switch for the next STOP instruction.
func (m *MMU) SpeedSwitchArmed() bool {
	return m.speedSwitchArmed
}

// ToggleSpeed flips the double-speed flag and disarms the switch. Called by
// the STOP opcode when SpeedSwitchArmed is true.
func (m *MMU) ToggleSpeed() {
	m.doubleSpeed = !m.doubleSpeed
	m.speedSwitchArmed = false
}

// readCGBRegister handles reads of color-variant-only I/O registers.
func (m *MMU) readCGBRegister(address uint16) (byte, bool) {
	switch address {
	case addr.KEY1:
		v := byte(0)
		if m.doubleSpeed {
			v |= 0x80
		}
		if m.speedSwitchArmed {
			v |= 0x01
		}
		return v, true
	case addr.VBK:
		return m.vbk | 0xFE, true
	case addr.SVBK:
		return m.svbk | 0xF8, true
	case addr.HDMA1, addr.HDMA2, addr.HDMA3, addr.HDMA4:
		return 0xFF, true // write-only on hardware
	case addr.HDMA5:
		if m.hdmaActive {
			return m.hdmaLen & 0x7F, true
		}
		return 0xFF, true
	case addr.BCPS:
		return m.bcpsIndex, true
	case addr.BCPD:
		return m.bgPalette[m.bcpsIndex&0x3F], true
	case addr.OCPS:
		return m.ocpsIndex, true
	case addr.OCPD:
		return m.objPalette[m.ocpsIndex&0x3F], true
	}
	return 0, false
}

// writeCGBRegister handles writes to color-variant-only I/O registers,
// reporting whether the address was one of them.
func (m *MMU) writeCGBRegister(address uint16, value byte) bool {
	switch address {
	case addr.KEY1:
		m.speedSwitchArmed = value&0x01 != 0
	case addr.VBK:
		m.vbk = value & 0x01
	case addr.SVBK:
		m.svbk = value & 0x07
	case addr.HDMA1:
		m.hdmaSrc = (m.hdmaSrc & 0x00FF) | uint16(value)<<8
	case addr.HDMA2:
		m.hdmaSrc = (m.hdmaSrc & 0xFF00) | uint16(value&0xF0)
	case addr.HDMA3:
		m.hdmaDst = (m.hdmaDst & 0x00FF) | uint16(value)<<8
	case addr.HDMA4:
		m.hdmaDst = (m.hdmaDst & 0xFF00) | uint16(value&0xF0)
	case addr.HDMA5:
		if m.hdmaActive && value&0x80 == 0 {
			// writing bit7=0 while a H-blank transfer is in flight cancels it
			m.hdmaActive = false
			return true
		}
		m.hdmaLen = value & 0x7F
		if value&0x80 == 0 {
			m.runGeneralPurposeDMA()
		} else {
			m.hdmaActive = true
		}
	case addr.BCPS:
		m.bcpsIndex = value & 0xBF
	case addr.BCPD:
		idx := m.bcpsIndex & 0x3F
		m.bgPalette[idx] = value
		if m.bcpsIndex&0x80 != 0 {
			m.bcpsIndex = (m.bcpsIndex & 0xC0) | ((idx + 1) & 0x3F)
		}
	case addr.OCPS:
		m.ocpsIndex = value & 0xBF
	case addr.OCPD:
		idx := m.ocpsIndex & 0x3F
		m.objPalette[idx] = value
		if m.ocpsIndex&0x80 != 0 {
			m.ocpsIndex = (m.ocpsIndex & 0xC0) | ((idx + 1) & 0x3F)
		}
	default:
		return false
	}
	return true
}

// hdmaSourceBlocked reports whether a source address is off-limits for
// H-DMA transfers (VRAM itself, or the echo/IO space at 0xE000 and above).
func hdmaSourceBlocked(address uint16) bool {
	return (address >= 0x8000 && address <= 0x9FFF) || address >= 0xE000
}

// runGeneralPurposeDMA performs an entire armed HDMA block transfer in one
// shot, used when HDMA5 bit 7 is clear.
func (m *MMU) runGeneralPurposeDMA() {
	length := (int(m.hdmaLen) + 1) * 0x10
	for i := 0; i < length; i++ {
		srcAddr := m.hdmaSrc + uint16(i)
		if hdmaSourceBlocked(srcAddr) {
			continue
		}
		dstAddr := 0x8000 | ((m.hdmaDst + uint16(i)) & 0x1FFF)
		m.Write(dstAddr, m.Read(srcAddr))
	}
	m.hdmaSrc += uint16(length)
	m.hdmaDst += uint16(length)
	m.hdmaLen = 0x7F
}

// StepHDMA transfers one 16-byte block of an armed H-blank DMA, decrementing
// the length register and terminating the transfer once it wraps below
// zero. Called once per H-blank entry by the PPU.
func (m *MMU) StepHDMA() {
	if !m.hdmaActive {
		return
	}
	for i := 0; i < 0x10; i++ {
		srcAddr := m.hdmaSrc + uint16(i)
		if hdmaSourceBlocked(srcAddr) {
			continue
		}
		dstAddr := 0x8000 | ((m.hdmaDst + uint16(i)) & 0x1FFF)
		m.Write(dstAddr, m.Read(srcAddr))
	}
	m.hdmaSrc += 0x10
	m.hdmaDst += 0x10
	if m.hdmaLen == 0 {
		m.hdmaActive = false
		m.hdmaLen = 0x7F
		return
	}
	m.hdmaLen--
}

// CGBBGPaletteRGBA converts a BG palette color (paletteNum 0-7, colorIdx
// 0-3) from its RGB555 palette RAM encoding into an RGBA8888 framebuffer
// value.
func (m *MMU) CGBBGPaletteRGBA(paletteNum, colorIdx uint8) uint32 {
	return cgbPaletteRGBA(&m.bgPalette, paletteNum, colorIdx)
}

// CGBOBJPaletteRGBA is the object-palette equivalent of CGBBGPaletteRGBA.
func (m *MMU) CGBOBJPaletteRGBA(paletteNum, colorIdx uint8) uint32 {
	return cgbPaletteRGBA(&m.objPalette, paletteNum, colorIdx)
}

func cgbPaletteRGBA(palette *[64]byte, paletteNum, colorIdx uint8) uint32 {
	base := int(paletteNum&0x07)*8 + int(colorIdx&0x03)*2
	lo := palette[base]
	hi := palette[base+1]
	word := uint16(lo) | uint16(hi)<<8
	r5 := uint8(word & 0x1F)
	g5 := uint8((word >> 5) & 0x1F)
	b5 := uint8((word >> 10) & 0x1F)
	expand := func(v5 uint8) uint32 { return uint32(v5)<<3 | uint32(v5)>>2 }
	return expand(r5)<<24 | expand(g5)<<16 | expand(b5)<<8 | 0xFF
}

// updateJoypadRegister sets the joypad register (P1) according to selection bits
// and hardware (buttons) status.
//
// In real hw, this register is actually just a selector (bits 4-5) that control
// to which set of buttons the low bits (0-3) are mapped to. A set of buttons is
// selected when its bit is 0.
//
// The mapping:
//   - if bit 4 is clear, bits 0-3 are mapped to the 4 d-pad directions
//   - if bit 5 is clear, bits 0-3 are mapped to A, B, Start, Select
//   - if both are clear, hw does an AND of both button sets
//   - if both are set, return 0x0F (high impedence state)
//
// This function is called whenever:
//   - there is a write to the P1 register (only set bits 4-5)
//   - a button is pressed or released (tracked separately)
//
// Note that 1 -> button released, 0 -> button pressed.
// Bits 6-7 are unused, they always read as 1 on real hardware.
func (m *MMU) updateJoypadRegister() {
	p1 := m.memory[addr.P1]
	result := uint8(0b11000000) // Bits 6-7 are always read as 1
	result |= p1 & 0b00110000   // Keep selection bits 4-5

	// A button group is selected if the corresponding bit is 0
	selectDpad := !bit.IsSet(4, p1)
	selectButtons := !bit.IsSet(5, p1)

	switch {
	case selectButtons && !selectDpad:
		result |= m.joypadButtons & 0x0F
	case selectDpad && !selectButtons:
		result |= m.joypadDpad & 0x0F
	case selectButtons && selectDpad:
		result |= m.joypadButtons & m.joypadDpad & 0x0F
	default:
		// no selection
		result |= 0x0F
	}

	m.memory[addr.P1] = result
}

func (m *MMU) writeJoypad(value uint8) {
	if m.sgb != nil {
		m.sgb.HandleP1Write(value)
	}
	// Only bits 4-5 are writable (selection bits)
	m.memory[addr.P1] = value & 0b00110000
	m.updateJoypadRegister()
}

func (m *MMU) HandleKeyPress(key JoypadKey) {
	oldButtons := m.joypadButtons
	oldDpad := m.joypadDpad

	switch key {
	case JoypadRight:
		m.joypadDpad = bit.Reset(0, m.joypadDpad)
	case JoypadLeft:
		m.joypadDpad = bit.Reset(1, m.joypadDpad)
	case JoypadUp:
		m.joypadDpad = bit.Reset(2, m.joypadDpad)
	case JoypadDown:
		m.joypadDpad = bit.Reset(3, m.joypadDpad)
	case JoypadA:
		m.joypadButtons = bit.Reset(0, m.joypadButtons)
	case JoypadB:
		m.joypadButtons = bit.Reset(1, m.joypadButtons)
	case JoypadSelect:
		m.joypadButtons = bit.Reset(2, m.joypadButtons)
	case JoypadStart:
		m.joypadButtons = bit.Reset(3, m.joypadButtons)
	}

	buttonTransitions := oldButtons & ^m.joypadButtons
	dpadTransitions := oldDpad & ^m.joypadDpad
	if buttonTransitions|dpadTransitions != 0 {
		m.RequestInterrupt(addr.JoypadInterrupt)
	}

	m.updateJoypadRegister()
}

func (m *MMU) HandleKeyRelease(key JoypadKey) {
	switch key {
	case JoypadRight:
		m.joypadDpad = bit.Set(0, m.joypadDpad)
	case JoypadLeft:
		m.joypadDpad = bit.Set(1, m.joypadDpad)
	case JoypadUp:
		m.joypadDpad = bit.Set(2, m.joypadDpad)
	case JoypadDown:
		m.joypadDpad = bit.Set(3, m.joypadDpad)
	case JoypadA:
		m.joypadButtons = bit.Set(0, m.joypadButtons)
	case JoypadB:
		m.joypadButtons = bit.Set(1, m.joypadButtons)
	case JoypadSelect:
		m.joypadButtons = bit.Set(2, m.joypadButtons)
	case JoypadStart:
		m.joypadButtons = bit.Set(3, m.joypadButtons)
	}

	m.updateJoypadRegister()
}
