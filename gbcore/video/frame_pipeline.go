package video

import "sync/atomic"

// bufferState is the tri-state lifecycle word from spec.md §4.5/§5: each of
// the pipeline's two buffers moves Available -> BeingDrawn -> BeingRendered
// -> Available, and the state word itself is the only synchronization
// primitive shared between the emulator actor and the frame sink actor.
type bufferState int32

const (
	stateAvailable bufferState = iota
	stateBeingDrawn
	stateBeingRendered
)

// slot pairs a FrameBuffer with its atomic lifecycle word.
type slot struct {
	state bufferState
	buf   *FrameBuffer
}

func (s *slot) tryTransition(from, to bufferState) bool {
	return atomic.CompareAndSwapInt32((*int32)(&s.state), int32(from), int32(to))
}

// FramePipeline implements the two-buffer handoff between the emulator
// actor and the frame sink actor (spec.md §4.5, §5). All mutation of a
// buffer's pixels must happen only while its slot holds BeingDrawn; all
// reads by the sink must happen only while its slot holds BeingRendered.
// The compare-and-swap on each slot's state word is the hot-path
// synchronization primitive; there are no locks.
type FramePipeline struct {
	slots [2]slot
}

// NewFramePipeline allocates both buffers Available.
func NewFramePipeline() *FramePipeline {
	p := &FramePipeline{}
	for i := range p.slots {
		p.slots[i].buf = NewFrameBuffer()
		p.slots[i].state = stateAvailable
	}
	return p
}

// AcquireDrawTarget is called by the emulator actor at VBLANK entry. It
// claims an Available buffer and marks it BeingDrawn, or returns (nil,
// false) if the sink hasn't released either buffer yet — the
// FrameBackpressure case from spec.md §7, which the orchestrator must
// treat as "skip this frame handoff", never as an error.
func (p *FramePipeline) AcquireDrawTarget() (*FrameBuffer, bool) {
	for i := range p.slots {
		if p.slots[i].tryTransition(stateAvailable, stateBeingDrawn) {
			return p.slots[i].buf, true
		}
	}
	return nil, false
}

// Flip is called by the emulator actor at the *next* VBLANK entry: the
// buffer it has been drawing into (identified by pointer) is handed off to
// the sink as BeingRendered. The Drawn -> Rendered transition happens-before
// any subsequent read by the sink.
func (p *FramePipeline) Flip(drawn *FrameBuffer) bool {
	for i := range p.slots {
		if p.slots[i].buf == drawn {
			return p.slots[i].tryTransition(stateBeingDrawn, stateBeingRendered)
		}
	}
	return false
}

// GetRenderable returns a buffer currently BeingRendered, if any, for the
// frame sink to read. Matches the external "get_renderable() -> Option<&pixels>"
// contract of spec.md §6.
func (p *FramePipeline) GetRenderable() *FrameBuffer {
	for i := range p.slots {
		if bufferState(atomic.LoadInt32((*int32)(&p.slots[i].state))) == stateBeingRendered {
			return p.slots[i].buf
		}
	}
	return nil
}

// Release is called by the frame sink once it has finished reading a
// buffer returned by GetRenderable; the Rendered -> Available transition
// happens-before any subsequent write by the emulator actor. Matches the
// external "release(buffer)" contract of spec.md §6.
func (p *FramePipeline) Release(fb *FrameBuffer) bool {
	for i := range p.slots {
		if p.slots[i].buf == fb {
			return p.slots[i].tryTransition(stateBeingRendered, stateAvailable)
		}
	}
	return false
}
