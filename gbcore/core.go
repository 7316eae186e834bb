package gbcore

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/halcyon-emu/gbcore/gbcore/addr"
	"github.com/halcyon-emu/gbcore/gbcore/archive"
	"github.com/halcyon-emu/gbcore/gbcore/cpu"
	"github.com/halcyon-emu/gbcore/gbcore/debug"
	"github.com/halcyon-emu/gbcore/gbcore/input/action"
	"github.com/halcyon-emu/gbcore/gbcore/memory"
	"github.com/halcyon-emu/gbcore/gbcore/sgb"
	"github.com/halcyon-emu/gbcore/gbcore/timing"
	"github.com/halcyon-emu/gbcore/gbcore/video"
)

// DebuggerState represents the current debugger mode.
type DebuggerState int

const (
	DebuggerRunning    DebuggerState = iota // Normal execution
	DebuggerPaused                          // Paused, waiting for commands
	DebuggerStep                            // Execute one instruction then pause
	DebuggerStepFrame                       // Execute one frame then pause
)

// debugSnapshotSize bounds how many bytes of memory ExtractDebugData copies
// around the current PC for disassembly.
const debugSnapshotSize = 64

// DMG is the root struct and entry point for running a Game Boy emulation.
// It wires together the CPU, PPU and memory bus and drives them one
// instruction at a time until a full frame has been produced.
type DMG struct {
	bus *Bus
	mem *memory.MMU

	limiter timing.Limiter

	// Super-variant coprocessor, non-nil only when the loaded cartridge's
	// header carries the SGB flag (spec.md §4.6).
	sgb *sgb.Coprocessor

	pipeline   *video.FramePipeline
	drawTarget *video.FrameBuffer

	// Debugger state
	debuggerMutex    sync.RWMutex
	debuggerState    DebuggerState
	stepRequested    bool
	frameRequested   bool
	instructionCount uint64
	frameCount       uint64

	// stopped is set once the CPU hits an illegal opcode; RunUntilFrame
	// becomes a no-op after that, matching real silicon lockup.
	stopped bool
}

var _ Emulator = (*DMG)(nil)

func (e *DMG) init(mem *memory.MMU) {
	e.bus = NewBus(mem)
	e.mem = mem
	e.limiter = timing.NewNoOpLimiter()
	e.pipeline = video.NewFramePipeline()

	if mem.Cartridge() != nil && mem.Cartridge().IsSuper() {
		e.sgb = sgb.New()
		mem.AttachSGB(e.sgb)
	}

	e.bus.GPU.SetOnVBlankEnter(e.onVBlankEnter)
}

// onVBlankEnter runs the frame-pipeline handoff described in spec.md §4.5:
// the buffer being drawn into is flipped to the sink, and a fresh Available
// buffer (if any) is claimed as the next draw target. If the sink hasn't
// released a buffer yet, the handoff is skipped for this frame
// (FrameBackpressure, spec.md §7) rather than treated as an error.
func (e *DMG) onVBlankEnter() {
	mono := e.bus.GPU.MonoIndexBuffer()
	src := e.bus.GPU.GetFrameBuffer()

	if e.drawTarget != nil {
		copyFrame(e.drawTarget, src)
		if e.sgb != nil {
			e.sgb.Colourize(mono, e.drawTarget)
		}
		e.pipeline.Flip(e.drawTarget)
		e.drawTarget = nil
	}

	if fb, ok := e.pipeline.AcquireDrawTarget(); ok {
		e.drawTarget = fb
	}
}

func copyFrame(dst, src *video.FrameBuffer) {
	copy(dst.ToSlice(), src.ToSlice())
}

// AcquireRenderableFrame exposes the frame sink's "get_renderable()"
// contract (spec.md §6): returns the buffer currently handed off, if any.
func (e *DMG) AcquireRenderableFrame() (*video.FrameBuffer, bool) {
	fb := e.pipeline.GetRenderable()
	return fb, fb != nil
}

// ReleaseFrame exposes the frame sink's "release(buffer)" contract
// (spec.md §6): marks a previously-acquired buffer Available again.
func (e *DMG) ReleaseFrame(fb *video.FrameBuffer) {
	e.pipeline.Release(fb)
}

// Close flushes the battery-save file (RTC trailer included) and releases
// its handle. Safe to call when the cartridge has no battery.
func (e *DMG) Close() error {
	return e.mem.CloseBatterySave()
}

// New creates a new emulator instance with no cartridge loaded.
func New() *DMG {
	e := &DMG{}
	e.init(memory.NewWithCartridge(memory.NewCartridge()))
	return e
}

// NewWithFile creates a new emulator instance and loads the ROM at path into
// it. path may be a raw .gb/.gbc image or a .zip/.7z archive containing one
// (spec.md §6, SPEC_FULL.md §4.8). The battery save, if the cartridge has
// one, is opened alongside path with its extension replaced by ".gsv".
func NewWithFile(path string) (*DMG, error) {
	return NewWithFileAndSaveDir(path, "")
}

// NewWithFileAndSaveDir is NewWithFile, but the battery-save file is written
// to saveDir instead of alongside the ROM when saveDir is non-empty
// (config.Config.SaveDirectory, SPEC_FULL.md §4.10).
func NewWithFileAndSaveDir(path, saveDir string) (*DMG, error) {
	data, member, err := archive.Load(path)
	if err != nil {
		return nil, err
	}

	slog.Debug("Loaded ROM data", "size", len(data), "member", member)

	cart := memory.NewCartridgeWithData(data)
	mem := memory.NewWithCartridge(cart)

	if cart.HasBattery() {
		attachBatterySave(mem, cart, path, saveDir)
	}

	e := &DMG{}
	e.init(mem)

	return e, nil
}

// attachBatterySave opens (creating if absent) the .gsv file for cart and
// seeds the controller's external RAM, and RTC shadow registers when
// present, from it. A failure to open the save file is logged and treated
// as SaveFileUnavailable (spec.md §7): emulation continues with in-memory
// SRAM rather than refusing to start.
func attachBatterySave(mem *memory.MMU, cart *memory.Cartridge, romPath, saveDir string) {
	dir := saveDir
	if dir == "" {
		dir = filepath.Dir(romPath)
	}
	base := filepath.Base(romPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	savePath := filepath.Join(dir, base+".gsv")

	save, sram, rtc, err := memory.LoadOrCreateBatterySave(savePath, cart.SRAMSize(), cart.HasRTC())
	if err != nil {
		slog.Warn("Battery save file unavailable, continuing with in-memory SRAM", "path", savePath, "error", err)
		return
	}

	if backed, ok := mem.MBC().(memory.BatteryBacked); ok {
		backed.LoadSRAM(sram)
	}
	if cart.HasRTC() {
		if rtcBacked, ok := mem.MBC().(memory.RTCBacked); ok {
			rtcBacked.LoadRTC(rtc)
		}
	}
	mem.AttachBatterySave(save)
}

// runInstruction executes exactly one CPU instruction and ticks the rest of
// the system by the cycles it consumed. It returns the cycle count and false
// once the CPU has locked up on an illegal opcode.
func (e *DMG) runInstruction() (int, bool) {
	if e.stopped {
		return 0, false
	}

	oldPC := e.bus.CPU.GetPC()
	cycles, err := e.bus.TickInstruction()
	if err != nil {
		slog.Error("CPU halted on illegal opcode", "pc", fmt.Sprintf("0x%04X", oldPC))
		e.stopped = true
		return 0, false
	}

	e.instructionCount++

	return cycles, true
}

// RunUntilFrame advances emulation until a full frame has been produced,
// honoring the debugger's current run mode.
func (e *DMG) RunUntilFrame() error {
	e.debuggerMutex.RLock()
	state := e.debuggerState
	e.debuggerMutex.RUnlock()

	switch state {
	case DebuggerPaused:
		return nil

	case DebuggerStep:
		e.debuggerMutex.Lock()
		requested := e.stepRequested
		e.stepRequested = false
		e.debuggerMutex.Unlock()

		if requested {
			oldPC := e.bus.CPU.GetPC()
			e.runInstruction()
			slog.Debug("Step executed", "pc", fmt.Sprintf("0x%04X", oldPC), "new_pc", fmt.Sprintf("0x%04X", e.bus.CPU.GetPC()))
			e.SetDebuggerState(DebuggerPaused)
		}

		return nil

	case DebuggerStepFrame:
		e.debuggerMutex.Lock()
		requested := e.frameRequested
		e.frameRequested = false
		e.debuggerMutex.Unlock()

		if requested {
			e.runFrame()
			e.SetDebuggerState(DebuggerPaused)
		}
		return nil

	default: // DebuggerRunning
		e.runFrame()
		e.limiter.WaitForNextFrame()
		return nil
	}
}

func (e *DMG) runFrame() {
	total := 0
	for total < timing.CyclesPerFrame {
		cycles, ok := e.runInstruction()
		if !ok {
			return
		}
		total += cycles
	}

	e.frameCount++
	if e.frameCount%60 == 0 {
		slog.Debug("Frame completed", "frame", e.frameCount, "pc", fmt.Sprintf("0x%04X", e.bus.CPU.GetPC()))
	}
}

// GetCurrentFrame returns the PPU's current framebuffer.
func (e *DMG) GetCurrentFrame() *video.FrameBuffer {
	return e.bus.GPU.GetFrameBuffer()
}

// HandleAction routes a high level input action to the joypad or debugger.
func (e *DMG) HandleAction(act action.Action, pressed bool) {
	key := gbKeyForAction(act)
	if key != 0 {
		if pressed {
			e.mem.HandleKeyPress(key)
		} else {
			e.mem.HandleKeyRelease(key)
		}
		return
	}

	if !pressed {
		return
	}

	switch act {
	case action.EmulatorPauseToggle:
		if e.GetDebuggerState() == DebuggerPaused {
			e.DebuggerResume()
		} else {
			e.DebuggerPause()
		}
	case action.EmulatorStepInstruction:
		e.DebuggerStepInstruction()
	case action.EmulatorStepFrame:
		e.DebuggerStepFrame()
	}
}

func gbKeyForAction(act action.Action) memory.JoypadKey {
	switch act {
	case action.GBButtonA:
		return memory.JoypadA
	case action.GBButtonB:
		return memory.JoypadB
	case action.GBButtonStart:
		return memory.JoypadStart
	case action.GBButtonSelect:
		return memory.JoypadSelect
	case action.GBDPadUp:
		return memory.JoypadUp
	case action.GBDPadDown:
		return memory.JoypadDown
	case action.GBDPadLeft:
		return memory.JoypadLeft
	case action.GBDPadRight:
		return memory.JoypadRight
	default:
		return 0
	}
}

// HandleKeyPress/HandleKeyRelease are kept for backends that talk directly in
// joypad terms rather than through the action package.
func (e *DMG) HandleKeyPress(key memory.JoypadKey) {
	e.mem.HandleKeyPress(key)
}

func (e *DMG) HandleKeyRelease(key memory.JoypadKey) {
	e.mem.HandleKeyRelease(key)
}

func (e *DMG) GetCPU() *cpu.CPU {
	return e.bus.CPU
}

func (e *DMG) GetMMU() *memory.MMU {
	return e.mem
}

// SetFrameLimiter installs the pacing strategy used between frames. Passing
// nil disables pacing entirely (used by headless benchmarks).
func (e *DMG) SetFrameLimiter(limiter timing.Limiter) {
	if limiter == nil {
		e.limiter = timing.NewNoOpLimiter()
	} else {
		e.limiter = limiter
	}
}

func (e *DMG) ResetFrameTiming() {
	e.limiter.Reset()
}

// ExtractDebugData gathers a point-in-time snapshot of CPU, memory, OAM and
// VRAM state for debug overlays. Returns nil until the emulator is initialized.
func (e *DMG) ExtractDebugData() *debug.CompleteDebugData {
	if e.bus == nil || e.mem == nil {
		return nil
	}

	pc := e.bus.CPU.GetPC()

	startAddr := pc
	if startAddr > debugSnapshotSize/2 {
		startAddr -= debugSnapshotSize / 2
	} else {
		startAddr = 0
	}

	size := debugSnapshotSize
	if uint32(startAddr)+uint32(size) > 0xFFFF {
		size = int(0x10000 - uint32(startAddr))
	}

	bytes := make([]uint8, size)
	for i := 0; i < size; i++ {
		bytes[i] = e.mem.Read(startAddr + uint16(i))
	}

	return &debug.CompleteDebugData{
		CPU: &debug.CPUState{
			A: e.bus.CPU.GetA(), F: e.bus.CPU.GetF(),
			B: e.bus.CPU.GetB(), C: e.bus.CPU.GetC(),
			D: e.bus.CPU.GetD(), E: e.bus.CPU.GetE(),
			H: e.bus.CPU.GetH(), L: e.bus.CPU.GetL(),
			SP: e.bus.CPU.GetSP(), PC: pc,
			IME:    e.bus.CPU.IME(),
			Cycles: e.bus.CPU.GetCycles(),
		},
		Memory: &debug.MemorySnapshot{
			StartAddr: startAddr,
			Bytes:     bytes,
		},
		DebuggerState:   debug.DebuggerState(e.GetDebuggerState()),
		InterruptEnable: e.mem.Read(addr.IE),
		InterruptFlags:  e.mem.Read(addr.IF),
	}
}

// Debugger control methods.

func (e *DMG) SetDebuggerState(state DebuggerState) {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.debuggerState = state
	slog.Debug("Debugger state changed", "state", state)
}

func (e *DMG) GetDebuggerState() DebuggerState {
	e.debuggerMutex.RLock()
	defer e.debuggerMutex.RUnlock()
	return e.debuggerState
}

func (e *DMG) DebuggerPause() {
	e.SetDebuggerState(DebuggerPaused)
	slog.Info("Emulator paused")
}

func (e *DMG) DebuggerResume() {
	e.SetDebuggerState(DebuggerRunning)
	slog.Info("Emulator resumed")
}

func (e *DMG) DebuggerStepInstruction() {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.stepRequested = true
	e.debuggerState = DebuggerStep
	slog.Info("Step instruction requested")
}

func (e *DMG) DebuggerStepFrame() {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.frameRequested = true
	e.debuggerState = DebuggerStepFrame
	slog.Info("Step frame requested")
}

func (e *DMG) GetInstructionCount() uint64 {
	return e.instructionCount
}

func (e *DMG) GetFrameCount() uint64 {
	return e.frameCount
}
