package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFramePipelineAcquireFlipGetReleaseRoundTrip(t *testing.T) {
	p := NewFramePipeline()

	fb, ok := p.AcquireDrawTarget()
	assert.True(t, ok)
	assert.NotNil(t, fb)

	fb.SetPixel(0, 0, WhiteColor)

	assert.True(t, p.Flip(fb))
	assert.False(t, p.Release(NewFrameBuffer())) // not one of the pipeline's buffers: false, not a panic

	renderable := p.GetRenderable()
	assert.Same(t, fb, renderable)
	assert.Equal(t, uint32(WhiteColor), renderable.GetPixel(0, 0))

	assert.True(t, p.Release(renderable))
	assert.Nil(t, p.GetRenderable())
}

func TestFramePipelineBothSlotsBusyBlocksAcquire(t *testing.T) {
	p := NewFramePipeline()

	first, ok := p.AcquireDrawTarget()
	assert.True(t, ok)
	second, ok := p.AcquireDrawTarget()
	assert.True(t, ok)
	assert.NotSame(t, first, second)

	// Both slots are now BeingDrawn: backpressure, not an error.
	_, ok = p.AcquireDrawTarget()
	assert.False(t, ok)

	assert.True(t, p.Flip(first))
	assert.True(t, p.Release(first))

	third, ok := p.AcquireDrawTarget()
	assert.True(t, ok)
	assert.Same(t, first, third)
}

func TestFramePipelineFlipRejectsUnknownBuffer(t *testing.T) {
	p := NewFramePipeline()
	assert.False(t, p.Flip(NewFrameBuffer()))
}

func TestFramePipelineReleaseRequiresBeingRendered(t *testing.T) {
	p := NewFramePipeline()
	fb, _ := p.AcquireDrawTarget()

	// Still BeingDrawn, not BeingRendered yet: release must refuse.
	assert.False(t, p.Release(fb))
}
