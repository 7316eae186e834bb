package gbcore

import (
	"github.com/halcyon-emu/gbcore/gbcore/debug"
	"github.com/halcyon-emu/gbcore/gbcore/input/action"
	"github.com/halcyon-emu/gbcore/gbcore/timing"
	"github.com/halcyon-emu/gbcore/gbcore/video"
)

// Emulator is the interface for all emulator implementations
type Emulator interface {
	RunUntilFrame() error
	GetCurrentFrame() *video.FrameBuffer
	HandleAction(act action.Action, pressed bool)
	ExtractDebugData() *debug.CompleteDebugData
	SetFrameLimiter(limiter timing.Limiter)
	ResetFrameTiming()
}

var _ Emulator = (*DMG)(nil)
