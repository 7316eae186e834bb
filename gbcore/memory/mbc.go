package memory

// MBC represents a Memory Bank Controller interface that all MBC types must implement
type MBC interface {
	// Read reads a byte from the specified address
	Read(addr uint16) uint8
	// Write writes a byte to the specified address, returns the written value
	Write(addr uint16, value uint8) uint8
}

// BatteryBacked is implemented by controllers whose external RAM can be
// battery-saved to disk (spec.md's "Cartridge+SRAM" battery-save file).
// NoMBC never implements it: cartridges without a controller cannot carry
// external RAM at all.
type BatteryBacked interface {
	// SRAM returns the controller's full external RAM, laid out bank after
	// bank exactly as it should be persisted to the save file.
	SRAM() []uint8
	// LoadSRAM seeds external RAM from a previously persisted save file.
	// Shorter-than-expected data is accepted and zero-padded.
	LoadSRAM(data []uint8)
	// LastSRAMWrite reports the absolute offset (into the slice returned by
	// SRAM) written by the most recent Write call, so the memory unit can
	// mirror single bytes to the save file write-through rather than
	// rewriting the whole buffer on every mutation.
	LastSRAMWrite() (offset int, ok bool)
}

// RTCBacked is implemented by controllers with a persisted real-time clock
// (MBC3-with-timer).
type RTCBacked interface {
	RTC() [5]uint8
	LoadRTC(regs [5]uint8)
}

// NoMBC represents cartridges with no memory banking capabilities.
// These are typically smaller games (32KB or less) that fit entirely in the
// base memory region. The cartridge ROM is directly mapped to 0x0000-0x7FFF
// and cannot be banked/switched. These cartridges cannot have external RAM.
type NoMBC struct {
	rom []uint8 // ROM data
}

// NewNoMBC creates a new NoMBC controller
func NewNoMBC(romData []uint8) *NoMBC {
	return &NoMBC{
		rom: romData,
	}
}

func (m *NoMBC) Read(addr uint16) uint8 {
	// For NoMBC, we just read directly from ROM
	return m.rom[addr]
}

func (m *NoMBC) Write(addr uint16, value uint8) uint8 {
	// NoMBC doesn't support writing to ROM
	return 0
}

// MBC1 is the first and most common MBC chip. Features include:
// - Supports up to 2MB ROM (125 16KB banks)
// - Up to 32KB RAM (4 8KB banks)
// - Bank 0 always mapped to 0x0000-0x3FFF
// - Switchable ROM bank at 0x4000-0x7FFF
// - Optional RAM banking at 0xA000-0xBFFF
// - Two banking modes:
//   - Mode 0 (ROM): Allows access to full ROM but only 8KB RAM
//   - Mode 1 (RAM): Restricts ROM banking but allows full RAM access
// - Optional battery backup for RAM persistence
type MBC1 struct {
	rom          []uint8
	ram          []uint8
	romBank      uint8
	ramBank      uint8
	ramEnabled   bool
	bankingMode  uint8
	hasBattery   bool
	ramBankCount uint8
	lastWrite    int
}

// NewMBC1 creates a new MBC1 controller
func NewMBC1(romData []uint8, hasBattery bool, ramBankCount uint8) *MBC1 {
	ramSize := uint32(ramBankCount) * 0x2000 // 8KB per RAM bank
	return &MBC1{
		rom:          romData,
		ram:          make([]uint8, ramSize),
		romBank:      1,
		ramBank:      0,
		ramEnabled:   false,
		bankingMode:  0,
		hasBattery:   hasBattery,
		ramBankCount: ramBankCount,
		lastWrite:    -1,
	}
}

func (m *MBC1) SRAM() []uint8 { return m.ram }

func (m *MBC1) LoadSRAM(data []uint8) {
	copy(m.ram, data)
}

func (m *MBC1) LastSRAMWrite() (int, bool) {
	if m.lastWrite < 0 {
		return 0, false
	}
	return m.lastWrite, true
}

func (m *MBC1) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		// ROM Bank 0
		return m.rom[addr]
	case addr >= 0x4000 && addr <= 0x7FFF:
		// Switchable ROM Bank
		offset := uint32(m.romBank) * 0x4000
		if offset >= uint32(len(m.rom)) {
			// If bank would be out of bounds, wrap around
			offset = offset % uint32(len(m.rom))
		}
		return m.rom[offset+uint32(addr-0x4000)]
	case addr >= 0xA000 && addr <= 0xBFFF:
		// RAM Bank
		if !m.ramEnabled {
			return 0xFF
		}
		offset := uint32(m.ramBank) * 0x2000
		if offset >= uint32(len(m.ram)) {
			// If bank would be out of bounds, wrap around
			offset = offset % uint32(len(m.ram))
		}
		return m.ram[offset+uint32(addr-0xA000)]
	default:
		return 0xFF
	}
}

func (m *MBC1) Write(addr uint16, value uint8) uint8 {
	switch {
	case addr <= 0x1FFF:
		// RAM Enable
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr >= 0x2000 && addr <= 0x3FFF:
		// ROM Bank Number (lower 5 bits)
		bank := value & 0x1F
		if bank == 0 {
			bank = 1
		}
		m.romBank = (m.romBank & 0x60) | bank
	case addr >= 0x4000 && addr <= 0x5FFF:
		// RAM Bank Number or Upper ROM Bank Number
		if m.bankingMode == 0 {
			// ROM Banking mode - value goes to upper bits of ROM bank
			m.romBank = (m.romBank & 0x1F) | ((value & 0x03) << 5)
		} else {
			// RAM Banking mode - value goes to RAM bank
			m.ramBank = value & 0x03
		}
	case addr >= 0x6000 && addr <= 0x7FFF:
		// Banking Mode Select
		m.bankingMode = value & 0x01
		if m.bankingMode == 1 {
			// When switching to RAM banking mode, clear the upper bits of ROM bank
			m.romBank &= 0x1F
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		// RAM Bank
		if !m.ramEnabled {
			return 0xFF
		}
		offset := uint32(m.ramBank) * 0x2000
		if offset >= uint32(len(m.ram)) {
			offset = (offset % uint32(len(m.ram)))
		}
		abs := offset + uint32(addr-0xA000)
		m.ram[abs] = value
		m.lastWrite = int(abs)
	}
	return value
}

// MBC1Multi is the MBC1M variant used by multi-game compilation carts
// (e.g. some Japan-only collection cartridges). Wiring differs from plain
// MBC1 in exactly one respect: the 2-bit upper bank register addresses bits
// 4-5 of the ROM bank number instead of bits 5-6, which means it also
// reaches into the "fixed" 0x0000-0x3FFF window - each of the four 256KB
// games on the cart gets its own 0x0000-0x3FFF bank rather than always
// seeing physical bank 0 there. The lower ROM bank register is correspondingly
// narrowed to 4 bits.
type MBC1Multi struct {
	rom          []uint8
	ram          []uint8
	romBankLow   uint8 // 4-bit, 0x2000-0x3FFF, 0 reads as 1
	gameSelect   uint8 // 2-bit, 0x4000-0x5FFF in mode 0
	ramBank      uint8 // 2-bit, 0x4000-0x5FFF in mode 1
	ramEnabled   bool
	bankingMode  uint8
	hasBattery   bool
	ramBankCount uint8
	lastWrite    int
}

// NewMBC1Multi creates a new MBC1M multicart controller
func NewMBC1Multi(romData []uint8, hasBattery bool, ramBankCount uint8) *MBC1Multi {
	ramSize := uint32(ramBankCount) * 0x2000
	return &MBC1Multi{
		rom:          romData,
		ram:          make([]uint8, ramSize),
		romBankLow:   1,
		ramEnabled:   false,
		bankingMode:  0,
		hasBattery:   hasBattery,
		ramBankCount: ramBankCount,
		lastWrite:    -1,
	}
}

func (m *MBC1Multi) SRAM() []uint8 { return m.ram }

func (m *MBC1Multi) LoadSRAM(data []uint8) {
	copy(m.ram, data)
}

func (m *MBC1Multi) LastSRAMWrite() (int, bool) {
	if m.lastWrite < 0 {
		return 0, false
	}
	return m.lastWrite, true
}

func (m *MBC1Multi) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		// Fixed bank moves with the selected game: gameSelect<<4, not bank 0
		offset := uint32(m.gameSelect) << 18 // gameSelect<<4 banks * 0x4000
		if offset >= uint32(len(m.rom)) {
			offset %= uint32(len(m.rom))
		}
		return m.rom[offset+uint32(addr)]
	case addr >= 0x4000 && addr <= 0x7FFF:
		bank := (m.gameSelect << 4) | m.romBankLow
		offset := uint32(bank) * 0x4000
		if offset >= uint32(len(m.rom)) {
			offset %= uint32(len(m.rom))
		}
		return m.rom[offset+uint32(addr-0x4000)]
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		offset := uint32(m.ramBank) * 0x2000
		if offset >= uint32(len(m.ram)) {
			offset %= uint32(len(m.ram))
		}
		return m.ram[offset+uint32(addr-0xA000)]
	default:
		return 0xFF
	}
}

func (m *MBC1Multi) Write(addr uint16, value uint8) uint8 {
	switch {
	case addr <= 0x1FFF:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr >= 0x2000 && addr <= 0x3FFF:
		bank := value & 0x0F
		if bank == 0 {
			bank = 1
		}
		m.romBankLow = bank
	case addr >= 0x4000 && addr <= 0x5FFF:
		if m.bankingMode == 0 {
			m.gameSelect = value & 0x03
		} else {
			m.ramBank = value & 0x03
		}
	case addr >= 0x6000 && addr <= 0x7FFF:
		m.bankingMode = value & 0x01
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		offset := uint32(m.ramBank) * 0x2000
		if offset >= uint32(len(m.ram)) {
			offset %= uint32(len(m.ram))
		}
		abs := offset + uint32(addr-0xA000)
		m.ram[abs] = value
		m.lastWrite = int(abs)
	}
	return value
}

// MBC2 is a simpler MBC chip with built-in RAM. Features include:
// - Supports up to 256KB ROM (16 16KB banks)
// - Built-in 512x4 bits RAM (not external)
// - RAM must be enabled (0x0A written with address bit 8 clear) before access
// - ROM banking similar to MBC1 but simpler
// - The least significant bit of the upper address byte selects between
//   ROM bank select and RAM enable
// - RAM is limited to 4-bit values (upper 4 bits are ignored)
// - Optional battery backup for the built-in RAM
type MBC2 struct {
	rom        []uint8
	ram        []uint8 // 512x4 bits RAM
	romBank    uint8
	ramEnabled bool
	lastWrite  int
}

// NewMBC2 creates a new MBC2 controller
func NewMBC2(romData []uint8) *MBC2 {
	return &MBC2{
		rom:        romData,
		ram:        make([]uint8, 512),
		romBank:    1,
		ramEnabled: false,
		lastWrite:  -1,
	}
}

func (m *MBC2) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		return m.rom[addr]
	case addr >= 0x4000 && addr <= 0x7FFF:
		offset := uint32(m.romBank) * 0x4000
		if offset >= uint32(len(m.rom)) {
			offset %= uint32(len(m.rom))
		}
		return m.rom[offset+uint32(addr-0x4000)]
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		// Only 512 nibbles exist; the rest of the 0xA000-0xBFFF window
		// mirrors them. Upper nibble always reads back set.
		return m.ram[uint16(addr-0xA000)%512] | 0xF0
	default:
		return 0xFF
	}
}

func (m *MBC2) Write(addr uint16, value uint8) uint8 {
	switch {
	case addr <= 0x3FFF:
		if addr&0x0100 == 0 {
			// RAM Enable
			m.ramEnabled = (value & 0x0F) == 0x0A
		} else {
			// ROM Bank Number (4 bits, 0 reads as 1)
			bank := value & 0x0F
			if bank == 0 {
				bank = 1
			}
			m.romBank = bank
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		abs := uint16(addr-0xA000) % 512
		m.ram[abs] = value & 0x0F
		m.lastWrite = int(abs)
	}
	return value
}

func (m *MBC2) SRAM() []uint8 { return m.ram }

func (m *MBC2) LoadSRAM(data []uint8) {
	copy(m.ram, data)
}

func (m *MBC2) LastSRAMWrite() (int, bool) {
	if m.lastWrite < 0 {
		return 0, false
	}
	return m.lastWrite, true
}

// MBC3 is an advanced MBC chip with RTC support. Features include:
// - Supports up to 2MB ROM (128 16KB banks)
// - Up to 32KB RAM (4 8KB banks)
// - Real-Time Clock (RTC) functionality
// - RTC has 5 registers: Seconds, Minutes, Hours, Days (lower), Days (upper)/Flags
// - Similar banking to MBC1 but with different register layout
// - RAM and RTC can be battery backed
// - Used in games that needed to track real time (e.g. Pokémon Gold/Silver)
type MBC3 struct {
	rom        []uint8
	ram        []uint8
	rtc        [5]uint8 // Seconds, Minutes, Hours, Days (lower), Days (upper)/Flags
	romBank    uint8
	ramBank    uint8 // also doubles as the RTC register selector (0x08-0x0C)
	ramEnabled bool
	hasRTC     bool
	latchPrev  uint8 // last byte written to the 0x6000-0x7FFF latch port
	lastWrite  int
}

// NewMBC3 creates a new MBC3 controller. ramSeed and rtcSeed, if non-nil,
// preload external RAM and the RTC shadow registers from a previously
// persisted battery-save file (spec.md's battery-save file round-trip).
func NewMBC3(romData []uint8, hasRTC bool, ramBankCount uint8, ramSeed []uint8, rtcSeed *[5]uint8) *MBC3 {
	ramSize := uint32(ramBankCount) * 0x2000
	m := &MBC3{
		rom:        romData,
		ram:        make([]uint8, ramSize),
		romBank:    1,
		ramEnabled: false,
		hasRTC:     hasRTC,
		lastWrite:  -1,
	}
	if ramSeed != nil {
		copy(m.ram, ramSeed)
	}
	if rtcSeed != nil {
		m.rtc = *rtcSeed
	}
	return m
}

const (
	mbc3RTCSecondsIdx = iota
	mbc3RTCMinutesIdx
	mbc3RTCHoursIdx
	mbc3RTCDaysLowIdx
	mbc3RTCDaysHighIdx
)

func (m *MBC3) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		return m.rom[addr]
	case addr >= 0x4000 && addr <= 0x7FFF:
		offset := uint32(m.romBank) * 0x4000
		if offset >= uint32(len(m.rom)) {
			offset %= uint32(len(m.rom))
		}
		return m.rom[offset+uint32(addr-0x4000)]
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if reg, ok := m.rtcRegister(); ok {
			return m.rtc[reg]
		}
		offset := uint32(m.ramBank) * 0x2000
		if offset >= uint32(len(m.ram)) {
			offset %= uint32(len(m.ram))
		}
		return m.ram[offset+uint32(addr-0xA000)]
	default:
		return 0xFF
	}
}

func (m *MBC3) Write(addr uint16, value uint8) uint8 {
	switch {
	case addr <= 0x1FFF:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr >= 0x2000 && addr <= 0x3FFF:
		bank := value & 0x7F
		if bank == 0 {
			bank = 1
		}
		m.romBank = bank
	case addr >= 0x4000 && addr <= 0x5FFF:
		m.ramBank = value
	case addr >= 0x6000 && addr <= 0x7FFF:
		if m.latchPrev == 0x00 && value == 0x01 {
			// Latch edge: the shadow registers in m.rtc already hold the
			// live values (this core has no background wall-clock ticker),
			// so there is nothing further to copy.
		}
		m.latchPrev = value
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if reg, ok := m.rtcRegister(); ok {
			m.rtc[reg] = value
			return value
		}
		offset := uint32(m.ramBank) * 0x2000
		if offset >= uint32(len(m.ram)) {
			offset %= uint32(len(m.ram))
		}
		abs := offset + uint32(addr-0xA000)
		m.ram[abs] = value
		m.lastWrite = int(abs)
	}
	return value
}

// rtcRegister reports whether the current bank-select value (0x08-0x0C)
// addresses an RTC register rather than a RAM bank.
func (m *MBC3) rtcRegister() (int, bool) {
	if !m.hasRTC || m.ramBank < 0x08 || m.ramBank > 0x0C {
		return 0, false
	}
	return int(m.ramBank - 0x08), true
}

func (m *MBC3) SRAM() []uint8 { return m.ram }

func (m *MBC3) LoadSRAM(data []uint8) {
	copy(m.ram, data)
}

func (m *MBC3) LastSRAMWrite() (int, bool) {
	if m.lastWrite < 0 {
		return 0, false
	}
	return m.lastWrite, true
}

func (m *MBC3) RTC() [5]uint8 { return m.rtc }

func (m *MBC3) LoadRTC(regs [5]uint8) { m.rtc = regs }

// MBC5 is the most advanced MBC chip. Features include:
// - Supports up to 8MB ROM (512 16KB banks)
// - Up to 128KB RAM (16 8KB banks)
// - Simple ROM/RAM banking with no quirks (unlike MBC1)
// - 9-bit ROM bank number (allows all 512 banks to be directly accessed)
// - Optional rumble motor support
// - Used in Game Boy Color games that needed more ROM/RAM
// - Backwards compatible with Game Boy
type MBC5 struct {
	rom        []uint8
	ram        []uint8
	romBank    uint16 // MBC5 supports up to 512 ROM banks
	ramBank    uint8
	ramEnabled bool
	hasRumble  bool
	lastWrite  int
}

// NewMBC5 creates a new MBC5 controller
func NewMBC5(romData []uint8, hasRumble bool, ramBankCount uint8) *MBC5 {
	ramSize := uint32(ramBankCount) * 0x2000
	return &MBC5{
		rom:        romData,
		ram:        make([]uint8, ramSize),
		romBank:    1,
		ramEnabled: false,
		hasRumble:  hasRumble,
		lastWrite:  -1,
	}
}

func (m *MBC5) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		return m.rom[addr]
	case addr >= 0x4000 && addr <= 0x7FFF:
		offset := uint32(m.romBank) * 0x4000
		if offset >= uint32(len(m.rom)) {
			offset %= uint32(len(m.rom))
		}
		return m.rom[offset+uint32(addr-0x4000)]
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		offset := uint32(m.ramBank) * 0x2000
		if offset >= uint32(len(m.ram)) {
			offset %= uint32(len(m.ram))
		}
		return m.ram[offset+uint32(addr-0xA000)]
	default:
		return 0xFF
	}
}

func (m *MBC5) Write(addr uint16, value uint8) uint8 {
	switch {
	case addr <= 0x1FFF:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr >= 0x2000 && addr <= 0x2FFF:
		// Low 8 bits of ROM bank. Unlike MBC1/MBC3, bank 0 is writable and
		// selects an actual (if redundant) bank 0 mapping.
		m.romBank = (m.romBank & 0x100) | uint16(value)
	case addr >= 0x3000 && addr <= 0x3FFF:
		m.romBank = (m.romBank & 0xFF) | (uint16(value&0x01) << 8)
	case addr >= 0x4000 && addr <= 0x5FFF:
		m.ramBank = value & 0x0F
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		offset := uint32(m.ramBank) * 0x2000
		if offset >= uint32(len(m.ram)) {
			offset %= uint32(len(m.ram))
		}
		abs := offset + uint32(addr-0xA000)
		m.ram[abs] = value
		m.lastWrite = int(abs)
	}
	return value
}

func (m *MBC5) SRAM() []uint8 { return m.ram }

func (m *MBC5) LoadSRAM(data []uint8) {
	copy(m.ram, data)
}

func (m *MBC5) LastSRAMWrite() (int, bool) {
	if m.lastWrite < 0 {
		return 0, false
	}
	return m.lastWrite, true
}
