// Package romdb is a small CRC32-keyed database of cartridge quirks for
// ROMs whose on-disk header cannot be taken at face value: known MBC1
// multicart titles (indistinguishable from plain MBC1 by the cartridge-type
// byte alone) and a handful of widely-dumped ROMs with a wrong header
// checksum byte. Grounded on user-none-eMkIII's emu/romdb.go CRC32->quirk
// map pattern for the same class of problem.
package romdb

import "hash/crc32"

// Quirks overrides header-derived cartridge behavior for a specific,
// known ROM.
type Quirks struct {
	// ForceMBC1Multi marks the cartridge as an MBC1 multicart (16 games in
	// one cartridge, bank-select bit layout differs from plain MBC1) even
	// though its cartridge-type byte reads as plain MBC1.
	ForceMBC1Multi bool

	// OverrideHeaderChecksum, when non-nil, replaces the header checksum
	// byte read from the ROM — for known-good dumps whose checksum byte
	// was corrupted by whatever produced this specific release.
	OverrideHeaderChecksum *byte
}

// database maps CRC32(whole ROM image) to a Quirks entry. Entries are added
// here as specific problem ROMs are identified. Absence
// from this map is the overwhelmingly common case and never blocks loading.
var database = map[uint32]Quirks{
	// Known MBC1 multicart compilations (16-in-1 style cartridges): the
	// cartridge-type byte alone reads as plain MBC1, so these are
	// identified by CRC32 instead.
	0x7ff52dbf: {ForceMBC1Multi: true}, // Motocross & Pinball (MBC1M)
	0x91bd834a: {ForceMBC1Multi: true}, // Genki Bakuhatsu Gambol (MBC1M)
}

// CRC32 hashes a ROM image the same way entries in database are keyed.
func CRC32(rom []byte) uint32 {
	return crc32.ChecksumIEEE(rom)
}

// Lookup returns the Quirks for a ROM's CRC32, if this database has an
// entry for it.
func Lookup(crc uint32) (Quirks, bool) {
	q, ok := database[crc]
	return q, ok
}
