package memory

import (
	"errors"
	"fmt"

	"github.com/halcyon-emu/gbcore/gbcore/romdb"
	"github.com/halcyon-emu/gbcore/gbcore/util"
)

const titleLength = 11
const titleLengthDMG = 16

const (
	entryPointAddress       = 0x100
	logoAddress             = 0x104
	logoLength              = 0x30
	titleAddress            = 0x134
	manufacturerCodeAddress = 0x13F
	cgbFlagAddress          = 0x143
	newLicenseCodeAddress   = 0x144
	sgbFlagAddress          = 0x146
	cartridgeTypeAddress    = 0x147
	romSizeAddress          = 0x148
	ramSizeAddress          = 0x149
	destinationCodeAddress  = 0x14A
	oldLicenseCodeAddress   = 0x14B
	versionNumberAddress    = 0x14C
	headerChecksumAddress   = 0x14D
	globalChecksumAddress   = 0x14E
)

// MBCType identifies the bank-controller variant selected by the cartridge
// header's type byte.
type MBCType uint8

const (
	NoMBCType MBCType = iota
	MBC1Type
	MBC1MultiType
	MBC2Type
	MBC3Type
	MBC5Type
	MBCUnknownType
)

// ErrInvalidRom is returned when the cartridge header names an unsupported
// controller variant, an unknown ROM/RAM size enum, or the logo block is
// entirely zeroed out. The core never panics on this; the host is expected
// to enter a not-running state.
var ErrInvalidRom = errors.New("memory: invalid rom")

type Cartridge struct {
	data []byte

	title          string
	headerChecksum uint16
	globalChecksum uint16
	version        uint8
	cartType       uint8
	romSize        uint8
	ramSize        uint8
	isColor        bool
	isSuper        bool

	mbcType      MBCType
	hasBattery   bool
	hasRTC       bool
	hasRumble    bool
	ramBankCount uint8
}

// NewCartridge creates an empty cartridge, useful only for debugging purposes.
func NewCartridge() *Cartridge {
	return &Cartridge{
		data:    make([]byte, 0x10000),
		mbcType: NoMBCType,
	}
}

// NewCartridgeWithData initializes a new Cartridge from a slice of bytes,
// classifying the bank controller variant and SRAM/battery/timer/rumble
// capabilities from the header's cartridge-type byte.
func NewCartridgeWithData(bytes []byte) *Cartridge {
	isColor := bytes[cgbFlagAddress] == 0x80 || bytes[cgbFlagAddress] == 0xC0

	titleLen := titleLengthDMG
	if isColor {
		titleLen = titleLength
	}
	title := cleanGameboyTitle(bytes[titleAddress : titleAddress+titleLen])

	cartType := bytes[cartridgeTypeAddress]
	mbcType, hasBattery, hasRTC, hasRumble := classifyCartType(cartType)

	cart := &Cartridge{
		data:           make([]byte, len(bytes)),
		title:          title,
		headerChecksum: util.CombineBytes(bytes[headerChecksumAddress+1], bytes[headerChecksumAddress]),
		globalChecksum: util.CombineBytes(bytes[globalChecksumAddress+1], bytes[globalChecksumAddress]),
		version:        bytes[versionNumberAddress],
		cartType:       cartType,
		romSize:        bytes[romSizeAddress],
		ramSize:        bytes[ramSizeAddress],
		isColor:        isColor,
		isSuper:        bytes[sgbFlagAddress] == 0x03,
		mbcType:        mbcType,
		hasBattery:     hasBattery,
		hasRTC:         hasRTC,
		hasRumble:      hasRumble,
		ramBankCount:   ramBankCount(bytes[ramSizeAddress], mbcType),
	}

	copy(cart.data, bytes)

	if quirks, ok := romdb.Lookup(romdb.CRC32(bytes)); ok {
		if quirks.ForceMBC1Multi && mbcType == MBC1Type {
			cart.mbcType = MBC1MultiType
		}
		if quirks.OverrideHeaderChecksum != nil {
			cart.headerChecksum = uint16(*quirks.OverrideHeaderChecksum)
		}
	}

	return cart
}

// Validate reports ErrInvalidRom when the header names a controller this
// core cannot drive, an unrecognized size enum, or a wholly blank logo.
func (c *Cartridge) Validate() error {
	if c.mbcType == MBCUnknownType {
		return fmt.Errorf("%w: unsupported cartridge type 0x%02X", ErrInvalidRom, c.cartType)
	}
	if c.romSize > 0x08 {
		return fmt.Errorf("%w: unknown rom size enum 0x%02X", ErrInvalidRom, c.romSize)
	}
	if c.ramSize > 0x05 {
		return fmt.Errorf("%w: unknown ram size enum 0x%02X", ErrInvalidRom, c.ramSize)
	}

	blank := true
	for _, b := range c.data[logoAddress : logoAddress+logoLength] {
		if b != 0 {
			blank = false
			break
		}
	}
	if blank {
		return fmt.Errorf("%w: header logo is wholly missing", ErrInvalidRom)
	}

	return nil
}

// classifyCartType maps the cartridge-type header byte to its bank
// controller variant plus SRAM/battery/RTC/rumble presence, following the
// standard Game Boy cartridge-type table. MBC1-multicart cannot be told
// apart from plain MBC1 by this byte alone; romdb.Quirks overrides mbcType
// to MBC1MultiType for the handful of known multicart titles.
func classifyCartType(cartType uint8) (mbc MBCType, hasBattery, hasRTC, hasRumble bool) {
	switch cartType {
	case 0x00, 0x08, 0x09:
		return NoMBCType, cartType == 0x09, false, false
	case 0x01, 0x02:
		return MBC1Type, false, false, false
	case 0x03:
		return MBC1Type, true, false, false
	case 0x05:
		return MBC2Type, false, false, false
	case 0x06:
		return MBC2Type, true, false, false
	case 0x0F:
		return MBC3Type, true, true, false
	case 0x10:
		return MBC3Type, true, true, false
	case 0x11, 0x12:
		return MBC3Type, false, false, false
	case 0x13:
		return MBC3Type, true, false, false
	case 0x19, 0x1A:
		return MBC5Type, false, false, false
	case 0x1B:
		return MBC5Type, true, false, false
	case 0x1C, 0x1D:
		return MBC5Type, false, false, true
	case 0x1E:
		return MBC5Type, true, false, true
	default:
		return MBCUnknownType, false, false, false
	}
}

// ramBankCount derives the number of 8KB external RAM banks from the
// header's RAM-size enum. MBC2 ignores this entirely: its 512x4-bit RAM is
// built into the controller, not counted in cartridge RAM banks.
func ramBankCount(ramSize uint8, mbc MBCType) uint8 {
	if mbc == MBC2Type {
		return 0
	}
	switch ramSize {
	case 0x00:
		return 0
	case 0x01, 0x02:
		return 1
	case 0x03:
		return 4
	case 0x04:
		return 16
	case 0x05:
		return 8
	default:
		return 0
	}
}

// SRAMSize returns the number of external RAM bytes this cartridge's
// controller exposes, used to size the battery-save file.
func (c *Cartridge) SRAMSize() int {
	if c.mbcType == MBC2Type {
		return 512
	}
	return int(c.ramBankCount) * 0x2000
}

// Title returns the cartridge's display title as parsed from the header.
func (c *Cartridge) Title() string {
	return c.title
}

// HasBattery reports whether this cartridge's controller backs its RAM
// (and, for MBC3, its RTC) with a battery worth persisting to disk.
func (c *Cartridge) HasBattery() bool {
	return c.hasBattery
}

// HasRTC reports whether this is an MBC3 cartridge with the real-time
// clock variant of the controller.
func (c *Cartridge) HasRTC() bool {
	return c.hasRTC
}

// IsColor reports whether the header's CGB flag marks this as a
// Color-variant title.
func (c *Cartridge) IsColor() bool {
	return c.isColor
}

// IsSuper reports whether the header's SGB flag (0x03) marks this title as
// aware of the Super coprocessor command protocol.
func (c *Cartridge) IsSuper() bool {
	return c.isSuper
}

// ReadByte reads a byte at the specified address. Does not check bounds, so the caller must make sure the
// address is valid for the cartridge.
func (c Cartridge) ReadByte(addr uint16) uint8 {
	return c.data[addr]
}
