package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

func newTestDriver(t *testing.T, fb *fakeBackend, options DriverOptions) (*DeviceContext, *FrameDriver) {
	t.Helper()
	dc, err := newTestDeviceContext(fb)
	require.NoError(t, err)
	if options.Shaders == (ShaderSet{}) {
		options.Shaders = testShaders
	}
	fd, err := NewFrameDriver(dc, &fakeWindow{width: 800, height: 600}, newFakeLoader(), options)
	require.NoError(t, err)
	t.Cleanup(func() {
		fd.Destroy()
		dc.Destroy()
		assert.Empty(t, fb.leaks())
		assert.Empty(t, fb.doubleDestroy)
	})
	return dc, fd
}

// collapse drops consecutive repeats.
func collapse(calls []string) []string {
	out := []string{}
	for _, c := range calls {
		if len(out) > 0 && out[len(out)-1] == c {
			continue
		}
		out = append(out, c)
	}
	return out
}

func filter(calls []string, keep ...string) []string {
	set := map[string]bool{}
	for _, k := range keep {
		set[k] = true
	}
	out := []string{}
	for _, c := range calls {
		if set[c] {
			out = append(out, c)
		}
	}
	return out
}

func TestFrameDriverColdStart(t *testing.T) {
	fb := newFakeBackend()
	_, fd := newTestDriver(t, fb, DriverOptions{})
	require.Equal(t, uint32(2), fd.Target().ImageCount())
	require.Equal(t, StateIdle, fd.State())

	outcome, err := fd.DrawFrame()
	require.NoError(t, err)
	assert.Equal(t, FramePresented, outcome)

	require.Len(t, fb.fenceWaits, 1)
	assert.Equal(t, fd.Sync().InFlight[0], fb.fenceWaits[0].fence)
	assert.True(t, fb.fenceWaits[0].signaled, "first wait must not block")
	assert.Equal(t, metadata.TimeoutInfinite, fb.fenceWaits[0].timeout)

	require.Len(t, fb.submits, 1)
	submit := fb.submits[0]
	assert.Equal(t, fd.Resources().CommandBuffers[0], submit.CommandBuffer)
	assert.Equal(t, fd.Sync().ImageAvailable[0], submit.WaitSemaphore)
	assert.Equal(t, metadata.PipelineStageColorAttachmentOutput, submit.WaitStage)
	assert.Equal(t, fd.Sync().RenderFinished[0], submit.SignalSemaphore)
	assert.Equal(t, fd.Sync().InFlight[0], submit.Fence)

	require.Len(t, fb.presents, 1)
	assert.Equal(t, uint32(0), fb.presents[0].ImageIndex)
	assert.Equal(t, fd.Sync().RenderFinished[0], fb.presents[0].WaitSemaphore)
	assert.Equal(t, fd.Target().Swapchain, fb.presents[0].Swapchain)

	assert.Equal(t, uint32(1), fd.CurrentFrame())
	assert.Equal(t, uint64(1), fd.FrameNumber())
	assert.Equal(t, fd.Sync().InFlight[0], fd.Sync().ImagesInFlight[0])
	assert.Equal(t, StateIdle, fd.State())
}

func TestFrameDriverResetsFenceBeforeSubmit(t *testing.T) {
	fb := newFakeBackend()
	_, fd := newTestDriver(t, fb, DriverOptions{})
	mark := len(fb.calls)

	_, err := fd.DrawFrame()
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"WaitForFence", "AcquireNextImage", "ResetFence", "QueueSubmit", "QueuePresent"},
		collapse(fb.calls[mark:]))
}

func TestFrameDriverCurrentFrameCycles(t *testing.T) {
	fb := newFakeBackend()
	_, fd := newTestDriver(t, fb, DriverOptions{})

	for n := 1; n <= 7; n++ {
		outcome, err := fd.DrawFrame()
		require.NoError(t, err)
		require.Equal(t, FramePresented, outcome)
		assert.Equal(t, uint32(n%MaxFramesInFlight), fd.CurrentFrame())
		assert.Equal(t, uint64(n), fd.FrameNumber())
	}
	assert.Zero(t, fd.Rebuilds())
}

func TestFrameDriverAcquireOutOfDate(t *testing.T) {
	fb := newFakeBackend()
	_, fd := newTestDriver(t, fb, DriverOptions{})

	for i := 0; i < 4; i++ {
		_, err := fd.DrawFrame()
		require.NoError(t, err)
	}
	before := fd.CurrentFrame()
	submits, presents := len(fb.submits), len(fb.presents)
	pipeline := fd.Pipeline().Pipeline
	oldTarget := fd.Target()

	// the window grew and the surface now hands out three images
	fb.support.Capabilities.MinImageCount = 2
	fb.support.Capabilities.CurrentExtent = metadata.Extent2D{Width: 1024, Height: 768}
	fb.acquireResults = []metadata.Result{metadata.ResultErrorOutOfDate}

	outcome, err := fd.DrawFrame()
	require.NoError(t, err)
	assert.Equal(t, FrameSkipped, outcome)
	assert.Equal(t, before, fd.CurrentFrame())
	assert.Equal(t, uint64(4), fd.FrameNumber())
	assert.Len(t, fb.submits, submits, "no submit after a stale acquire")
	assert.Len(t, fb.presents, presents, "no present after a stale acquire")
	assert.Equal(t, uint64(1), fd.Rebuilds())

	target := fd.Target()
	assert.NotSame(t, oldTarget, target)
	assert.NotEqual(t, oldTarget.ID, target.ID)
	assert.Equal(t, metadata.Extent2D{Width: 1024, Height: 768}, target.Extent)
	assert.Equal(t, uint32(3), target.ImageCount())
	assert.Len(t, fd.Resources().Framebuffers, int(target.ImageCount()))
	assert.Len(t, fd.Resources().CommandBuffers, int(target.ImageCount()))
	assert.Len(t, fd.Sync().ImagesInFlight, int(target.ImageCount()))
	for _, f := range fd.Sync().ImagesInFlight {
		assert.Equal(t, metadata.NullFence, f)
	}
	assert.Equal(t, pipeline, fd.Pipeline().Pipeline, "pipeline survives an extent-only rebuild")
	assert.Equal(t, 1, fb.liveCount("swapchain"))

	outcome, err = fd.DrawFrame()
	require.NoError(t, err)
	assert.Equal(t, FramePresented, outcome)
	assert.Equal(t, (before+1)%MaxFramesInFlight, fd.CurrentFrame())
	last := fb.submits[len(fb.submits)-1]
	assert.Contains(t, fd.Resources().CommandBuffers, last.CommandBuffer)
	assert.Equal(t, fd.Target().Swapchain, fb.presents[len(fb.presents)-1].Swapchain)
}

func TestFrameDriverRebuildOrder(t *testing.T) {
	fb := newFakeBackend()
	_, fd := newTestDriver(t, fb, DriverOptions{})
	old := fd.Target().Swapchain

	fb.acquireResults = []metadata.Result{metadata.ResultErrorOutOfDate}
	mark := len(fb.calls)
	_, err := fd.DrawFrame()
	require.NoError(t, err)

	calls := collapse(filter(fb.calls[mark:],
		"DeviceWaitIdle", "DestroyCommandPool", "DestroyFramebuffer", "DestroyImageView",
		"CreateSwapchain", "CreateImageView", "DestroySwapchain", "CreateFramebuffer",
		"CreateCommandPool", "AllocateCommandBuffers", "BeginCommandBuffer", "DestroyPipeline",
		"CreateGraphicsPipeline", "DestroySemaphore", "DestroyFence", "CreateSemaphore", "CreateFence"))
	assert.Equal(t, []string{
		"DeviceWaitIdle",
		"DestroyCommandPool",
		"DestroyFramebuffer",
		"DestroyImageView",
		"CreateSwapchain",
		"CreateImageView",
		"DestroySwapchain",
		"CreateFramebuffer",
		"CreateCommandPool",
		"AllocateCommandBuffers",
		"BeginCommandBuffer",
	}, calls)

	require.Len(t, fb.swapchainConfigs, 2)
	assert.Equal(t, old, fb.swapchainConfigs[1].OldSwapchain)
}

func TestFrameDriverPresentStaleness(t *testing.T) {
	for _, result := range []metadata.Result{metadata.ResultSuboptimal, metadata.ResultErrorOutOfDate} {
		t.Run(result.String(), func(t *testing.T) {
			fb := newFakeBackend()
			_, fd := newTestDriver(t, fb, DriverOptions{})
			pipeline := fd.Pipeline().Pipeline

			fb.presentResults = []metadata.Result{result}
			outcome, err := fd.DrawFrame()
			require.NoError(t, err)
			assert.Equal(t, FrameRebuilt, outcome)
			assert.Equal(t, uint32(1), fd.CurrentFrame(), "work was submitted, so the ring advances")
			assert.Equal(t, uint64(1), fd.FrameNumber())
			assert.Equal(t, uint64(1), fd.Rebuilds())
			assert.Len(t, fb.submits, 1)
			assert.Equal(t, pipeline, fd.Pipeline().Pipeline)

			outcome, err = fd.DrawFrame()
			require.NoError(t, err)
			assert.Equal(t, FramePresented, outcome)
			assert.Equal(t, uint32(0), fd.CurrentFrame())
		})
	}
}

func TestFrameDriverAcquireSuboptimalStillRenders(t *testing.T) {
	fb := newFakeBackend()
	_, fd := newTestDriver(t, fb, DriverOptions{})

	fb.acquireResults = []metadata.Result{metadata.ResultSuboptimal}
	outcome, err := fd.DrawFrame()
	require.NoError(t, err)
	assert.Equal(t, FramePresented, outcome)
	assert.Len(t, fb.submits, 1)
	assert.Zero(t, fd.Rebuilds())
}

func TestFrameDriverWaitsOnImageGuard(t *testing.T) {
	fb := newFakeBackend()
	fb.support.Capabilities.MinImageCount = 2
	_, fd := newTestDriver(t, fb, DriverOptions{})
	require.Equal(t, uint32(3), fd.Target().ImageCount())
	ring := fd.Sync().InFlight

	// slot 0 takes image 0, slot 1 takes image 1, then slot 0 gets image 1 again
	fb.acquireIndices = []uint32{0, 1, 1}
	for i := 0; i < 2; i++ {
		_, err := fd.DrawFrame()
		require.NoError(t, err)
	}
	require.Equal(t, ring[1], fd.Sync().ImagesInFlight[1])
	waits := len(fb.fenceWaits)

	_, err := fd.DrawFrame()
	require.NoError(t, err)
	require.Len(t, fb.fenceWaits, waits+2)
	assert.Equal(t, ring[0], fb.fenceWaits[waits].fence)
	assert.Equal(t, ring[1], fb.fenceWaits[waits+1].fence, "image 1 is still guarded by slot 1")
	assert.Equal(t, ring[0], fd.Sync().ImagesInFlight[1])
	assert.Equal(t, fd.Resources().CommandBuffers[1], fb.submits[2].CommandBuffer)
}

func TestFrameDriverFormatChangeRebuildsPipeline(t *testing.T) {
	fb := newFakeBackend()
	_, fd := newTestDriver(t, fb, DriverOptions{})
	old := fd.Pipeline().Pipeline

	fb.support.Formats = []metadata.SurfaceFormat{{Format: metadata.FormatR8G8B8A8Srgb, ColorSpace: metadata.ColorSpaceSrgbNonlinear}}
	fb.presentResults = []metadata.Result{metadata.ResultErrorOutOfDate}
	outcome, err := fd.DrawFrame()
	require.NoError(t, err)
	assert.Equal(t, FrameRebuilt, outcome)

	assert.NotEqual(t, old, fd.Pipeline().Pipeline)
	assert.Equal(t, metadata.FormatR8G8B8A8Srgb, fd.Pipeline().Format)
	assert.Equal(t, 1, fb.liveCount("pipeline"))
	assert.Equal(t, 1, fb.liveCount("render pass"))
	assert.Equal(t, metadata.FormatR8G8B8A8Srgb, fb.renderPass[len(fb.renderPass)-1].ColorAttachment.Format)
}

func TestFrameDriverFenceTimeout(t *testing.T) {
	fb := newFakeBackend()
	_, fd := newTestDriver(t, fb, DriverOptions{FenceTimeout: 1_000_000})

	_, err := fd.DrawFrame()
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), fb.fenceWaits[0].timeout)

	fb.failOn("WaitForFence", 2, metadata.ResultTimeout)
	outcome, err := fd.DrawFrame()
	assert.Equal(t, FrameFailed, outcome)
	assert.ErrorIs(t, err, ErrSynchronization)
	assert.Equal(t, StateAcquiring, fd.State())
	assert.Equal(t, uint32(1), fd.CurrentFrame())
}

func TestFrameDriverFatalErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(fb *fakeBackend)
		kind  error
		state DriverState
	}{
		{"acquire", func(fb *fakeBackend) {
			fb.acquireResults = []metadata.Result{metadata.ResultErrorSurfaceLost}
		}, ErrSurfaceAcquisition, StateAcquiring},
		{"fence reset", func(fb *fakeBackend) {
			fb.failOn("ResetFence", 1, metadata.ResultErrorDeviceLost)
		}, ErrSynchronization, StateSubmitting},
		{"submit", func(fb *fakeBackend) {
			fb.failOn("QueueSubmit", 1, metadata.ResultErrorDeviceLost)
		}, ErrSubmission, StateSubmitting},
		{"present", func(fb *fakeBackend) {
			fb.presentResults = []metadata.Result{metadata.ResultErrorDeviceLost}
		}, ErrPresentation, StatePresenting},
		{"rebuild", func(fb *fakeBackend) {
			fb.acquireResults = []metadata.Result{metadata.ResultErrorOutOfDate}
			fb.failOn("CreateSwapchain", 2, metadata.ResultErrorNativeWindowInUse)
		}, ErrSwapchainCreation, StateRecreating},
		{"rebuild idle wait", func(fb *fakeBackend) {
			fb.presentResults = []metadata.Result{metadata.ResultSuboptimal}
			fb.failOn("DeviceWaitIdle", 1, metadata.ResultErrorDeviceLost)
		}, ErrSynchronization, StateRecreating},
		{"rebuild recording", func(fb *fakeBackend) {
			fb.acquireResults = []metadata.Result{metadata.ResultErrorOutOfDate}
			fb.failOn("EndCommandBuffer", 3, metadata.ResultErrorOutOfDeviceMemory)
		}, ErrCommandRecording, StateRecreating},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend()
			_, fd := newTestDriver(t, fb, DriverOptions{})
			tt.setup(fb)

			outcome, err := fd.DrawFrame()
			assert.Equal(t, FrameFailed, outcome)
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.state, fd.State())
			assert.Equal(t, uint32(0), fd.CurrentFrame())
			assert.Zero(t, fd.FrameNumber())
		})
	}
}

func TestFrameDriverDestroyTwice(t *testing.T) {
	fb := newFakeBackend()
	dc, err := newTestDeviceContext(fb)
	require.NoError(t, err)
	fd, err := NewFrameDriver(dc, &fakeWindow{width: 800, height: 600}, newFakeLoader(), DriverOptions{Shaders: testShaders})
	require.NoError(t, err)

	fd.Destroy()
	fd.Destroy()
	dc.Destroy()
	assert.Empty(t, fb.doubleDestroy)
	assert.Empty(t, fb.leaks())

	_, err = fd.DrawFrame()
	assert.Error(t, err)
}

func TestNewFrameDriverUnwinds(t *testing.T) {
	for _, op := range []string{"CreateSwapchain", "CreateGraphicsPipeline", "CreateCommandPool", "CreateFence"} {
		t.Run(op, func(t *testing.T) {
			fb := newFakeBackend()
			dc, err := newTestDeviceContext(fb)
			require.NoError(t, err)

			fb.failOn(op, 1, metadata.ResultErrorOutOfDeviceMemory)
			fd, err := NewFrameDriver(dc, &fakeWindow{width: 800, height: 600}, newFakeLoader(), DriverOptions{Shaders: testShaders})
			assert.Nil(t, fd)
			assert.Error(t, err)

			dc.Destroy()
			assert.Empty(t, fb.leaks())
			assert.Empty(t, fb.doubleDestroy)
		})
	}
}

func TestFrameDriverRejectsOutOfRangeImageIndex(t *testing.T) {
	fb := newFakeBackend()
	_, fd := newTestDriver(t, fb, DriverOptions{})

	fb.acquireIndices = []uint32{7}
	outcome, err := fd.DrawFrame()
	assert.Equal(t, FrameFailed, outcome)
	assert.ErrorIs(t, err, ErrSurfaceAcquisition)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 7, se.Index)
	assert.Empty(t, fb.submits)
	assert.Empty(t, fb.presents)
	assert.Equal(t, uint32(0), fd.CurrentFrame())
	for _, f := range fd.Sync().ImagesInFlight {
		assert.Equal(t, metadata.NullFence, f)
	}
}

func TestFrameDriverDefersRebuildWhileMinimized(t *testing.T) {
	fb := newFakeBackend()
	_, fd := newTestDriver(t, fb, DriverOptions{})
	target := fd.Target()

	fb.support.Capabilities.CurrentExtent = metadata.Extent2D{Width: 0, Height: 0}
	fb.acquireResults = []metadata.Result{metadata.ResultErrorOutOfDate}

	outcome, err := fd.DrawFrame()
	require.NoError(t, err)
	assert.Equal(t, FrameSkipped, outcome)
	assert.True(t, fd.RebuildPending())
	assert.Zero(t, fd.Rebuilds())
	assert.Same(t, target, fd.Target())
	assert.Len(t, fb.swapchainConfigs, 1, "no swapchain is built with a zero extent")
	assert.Zero(t, fb.counts["DeviceWaitIdle"])

	// still minimized: nothing is acquired
	acquires := fb.counts["AcquireNextImage"]
	outcome, err = fd.DrawFrame()
	require.NoError(t, err)
	assert.Equal(t, FrameSkipped, outcome)
	assert.Equal(t, acquires, fb.counts["AcquireNextImage"])
	assert.Equal(t, uint32(0), fd.CurrentFrame())
	assert.Empty(t, fb.submits)

	// restored
	fb.support.Capabilities.CurrentExtent = metadata.Extent2D{Width: 640, Height: 480}
	outcome, err = fd.DrawFrame()
	require.NoError(t, err)
	assert.Equal(t, FramePresented, outcome)
	assert.False(t, fd.RebuildPending())
	assert.Equal(t, uint64(1), fd.Rebuilds())
	assert.Equal(t, metadata.Extent2D{Width: 640, Height: 480}, fd.Target().Extent)
	assert.Equal(t, uint32(1), fd.CurrentFrame())
	assert.Len(t, fb.submits, 1)
	assert.Equal(t, 1, fb.liveCount("swapchain"))
}

func TestFrameDriverPresentStalenessWhileMinimized(t *testing.T) {
	fb := newFakeBackend()
	_, fd := newTestDriver(t, fb, DriverOptions{})

	fb.support.Capabilities.CurrentExtent = metadata.Extent2D{Width: 0, Height: 0}
	fb.presentResults = []metadata.Result{metadata.ResultErrorOutOfDate}

	outcome, err := fd.DrawFrame()
	require.NoError(t, err)
	assert.Equal(t, FramePresented, outcome, "the frame was presented but not rebuilt")
	assert.Equal(t, uint32(1), fd.CurrentFrame())
	assert.True(t, fd.RebuildPending())
	assert.Zero(t, fd.Rebuilds())
	assert.Len(t, fb.swapchainConfigs, 1)

	fb.support.Capabilities.CurrentExtent = metadata.Extent2D{Width: 800, Height: 600}
	outcome, err = fd.DrawFrame()
	require.NoError(t, err)
	assert.Equal(t, FramePresented, outcome)
	assert.Equal(t, uint64(1), fd.Rebuilds())
	assert.Equal(t, uint32(0), fd.CurrentFrame())
}
