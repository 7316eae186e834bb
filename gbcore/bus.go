package gbcore

import (
	"github.com/halcyon-emu/gbcore/gbcore/addr"
	"github.com/halcyon-emu/gbcore/gbcore/cpu"
	"github.com/halcyon-emu/gbcore/gbcore/memory"
	"github.com/halcyon-emu/gbcore/gbcore/video"
)

// BusInterface defines the interface for component communication
type BusInterface interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	RequestInterrupt(interrupt addr.Interrupt)
}

var _ BusInterface = (*Bus)(nil)

// Bus provides centralized component communication
type Bus struct {
	CPU *cpu.CPU
	MMU *memory.MMU
	GPU *video.GPU
}

// NewBus wires a fresh CPU and PPU onto the given memory unit.
func NewBus(mem *memory.MMU) *Bus {
	return &Bus{
		CPU: cpu.New(mem),
		MMU: mem,
		GPU: video.NewGpu(mem),
	}
}

func (b *Bus) Read(address uint16) byte {
	return b.MMU.Read(address)
}

func (b *Bus) Write(address uint16, value byte) {
	b.MMU.Write(address, value)
}

// Tick advances components by the given number of cycles
// Called by opcodes during execution for precise timer/serial timing
func (b *Bus) Tick(cycles int) {
	b.MMU.Tick(cycles)
}

// TickInstruction executes one CPU instruction and ticks all components.
// Returns the number of cycles consumed and any error from an illegal opcode.
func (b *Bus) TickInstruction() (int, error) {
	cycles, err := b.CPU.Exec()

	// In double-speed mode the CPU runs twice as fast as every other
	// component, so their clocks only advance by half the CPU cycle count.
	componentCycles := cycles
	if b.MMU.DoubleSpeed() {
		componentCycles /= 2
	}

	b.MMU.Tick(componentCycles)
	b.GPU.Tick(componentCycles)
	b.MMU.APU.Tick(componentCycles)

	return cycles, err
}

func (b *Bus) RequestInterrupt(interrupt addr.Interrupt) {
	b.MMU.RequestInterrupt(interrupt)
}

func (b *Bus) ReadBit(index uint8, address uint16) bool {
	return b.MMU.ReadBit(index, address)
}
