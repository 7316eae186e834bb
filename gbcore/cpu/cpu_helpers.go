package cpu

import "github.com/halcyon-emu/gbcore/gbcore/bit"

func (c *CPU) getAF() uint16 {
	return bit.Combine(c.a, c.f&0xF0)
}

func (c *CPU) setAF(value uint16) {
	c.a = bit.High(value)
	c.f = bit.Low(value) & 0xF0
}

func (c *CPU) getBC() uint16 {
	return bit.Combine(c.b, c.c)
}

func (c *CPU) setBC(value uint16) {
	c.b = bit.High(value)
	c.c = bit.Low(value)
}

func (c *CPU) getDE() uint16 {
	return bit.Combine(c.d, c.e)
}

func (c *CPU) setDE(value uint16) {
	c.d = bit.High(value)
	c.e = bit.Low(value)
}

func (c *CPU) getHL() uint16 {
	return bit.Combine(c.h, c.l)
}

func (c *CPU) setHL(value uint16) {
	c.h = bit.High(value)
	c.l = bit.Low(value)
}

// readImmediate consumes the byte at PC and advances PC past it.
func (c *CPU) readImmediate() uint8 {
	value := c.bus.Read(c.pc)
	c.pc++
	return value
}

// readImmediateWord consumes the little-endian word at PC and advances PC past it.
func (c *CPU) readImmediateWord() uint16 {
	low := c.readImmediate()
	high := c.readImmediate()
	return bit.Combine(high, low)
}

// readSignedImmediate consumes a signed byte at PC, used by JR and LD HL,SP+n.
func (c *CPU) readSignedImmediate() int8 {
	return int8(c.readImmediate())
}

// peekImmediate reads the byte at PC without consuming it, for disassembly/debug use.
func (c *CPU) peekImmediate() uint8 {
	return c.bus.Read(c.pc)
}

// peekImmediateWord reads the word at PC without consuming it, for disassembly/debug use.
func (c *CPU) peekImmediateWord() uint16 {
	low := c.bus.Read(c.pc)
	high := c.bus.Read(c.pc + 1)
	return bit.Combine(high, low)
}

// adc adds value plus the carry flag to A, setting all relevant flags.
func (c *CPU) adc(value uint8) {
	a := c.a
	carry := c.flagToBit(carryFlag)

	result := uint16(a) + uint16(value) + uint16(carry)
	halfCarry := (a&0xF)+(value&0xF)+carry > 0xF

	c.a = uint8(result)

	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(carryFlag, result > 0xFF)
	c.setFlagToCondition(halfCarryFlag, halfCarry)
}

// cp compares A against value without storing the result, setting flags as SUB would.
func (c *CPU) cp(value uint8) {
	a := c.a
	c.sub(value)
	c.a = a
}

// daa adjusts A into packed BCD after an ADD/ADC/SUB/SBC, per the standard SM83 algorithm.
func (c *CPU) daa() {
	a := c.a
	correction := uint8(0)
	carry := false

	if c.isSetFlag(halfCarryFlag) || (!c.isSetFlag(subFlag) && (a&0xF) > 9) {
		correction |= 0x06
	}
	if c.isSetFlag(carryFlag) || (!c.isSetFlag(subFlag) && a > 0x99) {
		correction |= 0x60
		carry = true
	}

	if c.isSetFlag(subFlag) {
		a -= correction
	} else {
		a += correction
	}

	c.a = a
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
}

// bit tests bit `pos` of value and sets Z/H/N accordingly, per the CB BIT instruction.
func (c *CPU) bit(pos uint8, value uint8) {
	c.setFlagToCondition(zeroFlag, value&(1<<pos) == 0)
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

func (c *CPU) set(pos uint8, r *uint8) {
	*r |= 1 << pos
}

func (c *CPU) res(pos uint8, r *uint8) {
	*r &^= 1 << pos
}

func (c *CPU) sla(r *uint8) {
	value := *r
	c.setFlagToCondition(carryFlag, value&0x80 != 0)
	value <<= 1
	*r = value
	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
}

func (c *CPU) sra(r *uint8) {
	value := *r
	c.setFlagToCondition(carryFlag, value&0x01 != 0)
	value = (value & 0x80) | (value >> 1)
	*r = value
	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
}

func (c *CPU) srl(r *uint8) {
	value := *r
	c.setFlagToCondition(carryFlag, value&0x01 != 0)
	value >>= 1
	*r = value
	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
}

func (c *CPU) swap(r *uint8) {
	value := *r
	value = (value << 4) | (value >> 4)
	*r = value
	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
}
