package renderer

import (
	"github.com/spaghettifunk/triangle/engine/core"
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

type DriverState uint8

const (
	StateIdle DriverState = iota
	StateAcquiring
	StateSubmitting
	StatePresenting
	StateRecreating
)

func (s DriverState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateSubmitting:
		return "submitting"
	case StatePresenting:
		return "presenting"
	case StateRecreating:
		return "recreating"
	}
	return "unknown"
}

// FrameOutcome tells the caller what a DrawFrame call ended up doing.
type FrameOutcome uint8

const (
	// FrameFailed accompanies a non-nil error.
	FrameFailed FrameOutcome = iota
	FramePresented
	// FrameSkipped: the surface went stale at acquire time. Nothing was
	// submitted and the ring did not advance.
	FrameSkipped
	// FrameRebuilt: the frame was presented, then the target was rebuilt.
	FrameRebuilt
)

func (o FrameOutcome) String() string {
	switch o {
	case FramePresented:
		return "presented"
	case FrameSkipped:
		return "skipped"
	case FrameRebuilt:
		return "rebuilt"
	}
	return "failed"
}

type DriverOptions struct {
	Presentation PresentationOptions
	Shaders      ShaderSet
	// FenceTimeout is in nanoseconds; zero waits forever.
	FenceTimeout uint64
}

// FrameDriver owns every per-window rendering object and runs the
// acquire, submit, present and advance protocol. It must only be used from
// one goroutine.
type FrameDriver struct {
	device  *DeviceContext
	window  Window
	loader  ShaderLoader
	options DriverOptions

	target    *PresentationTarget
	pipeline  *RenderPipeline
	resources *FrameResources
	sync      *SyncSet

	state        DriverState
	currentFrame uint32
	frameNumber  uint64
	rebuilds     uint64
	// set while the surface has a zero extent and a rebuild is owed
	pendingRebuild bool
}

// NewFrameDriver builds the presentation target, the pipeline, the frame
// resources and the sync ring. On failure whatever was built is released.
func NewFrameDriver(dc *DeviceContext, window Window, loader ShaderLoader, options DriverOptions) (*FrameDriver, error) {
	fd := &FrameDriver{
		device:  dc,
		window:  window,
		loader:  loader,
		options: options,
	}

	var err error
	if fd.target, err = NewPresentationTarget(dc, window, nil, options.Presentation); err != nil {
		return nil, err
	}
	if fd.pipeline, err = NewRenderPipeline(dc, fd.target, loader, options.Shaders); err != nil {
		fd.Destroy()
		return nil, err
	}
	if fd.resources, err = NewFrameResources(dc, fd.target, fd.pipeline); err != nil {
		fd.Destroy()
		return nil, err
	}
	if fd.sync, err = NewSyncSet(dc, fd.target.ImageCount()); err != nil {
		fd.Destroy()
		return nil, err
	}
	return fd, nil
}

func (fd *FrameDriver) State() DriverState {
	return fd.state
}

// CurrentFrame is the ring slot the next DrawFrame will use.
func (fd *FrameDriver) CurrentFrame() uint32 {
	return fd.currentFrame
}

// FrameNumber counts frames whose work reached the GPU.
func (fd *FrameDriver) FrameNumber() uint64 {
	return fd.frameNumber
}

// RebuildPending reports that the surface went stale while it had a zero
// extent. Frames are skipped until the window has a drawable size again.
func (fd *FrameDriver) RebuildPending() bool {
	return fd.pendingRebuild
}

func (fd *FrameDriver) Rebuilds() uint64 {
	return fd.rebuilds
}

func (fd *FrameDriver) Target() *PresentationTarget {
	return fd.target
}

func (fd *FrameDriver) Pipeline() *RenderPipeline {
	return fd.pipeline
}

func (fd *FrameDriver) Resources() *FrameResources {
	return fd.resources
}

func (fd *FrameDriver) Sync() *SyncSet {
	return fd.sync
}

func (fd *FrameDriver) fenceTimeout() uint64 {
	if fd.options.FenceTimeout == 0 {
		return metadata.TimeoutInfinite
	}
	return fd.options.FenceTimeout
}

// DrawFrame runs one iteration of the frame protocol. On error the driver
// is left in the state that failed.
func (fd *FrameDriver) DrawFrame() (FrameOutcome, error) {
	if fd.sync == nil || fd.target == nil {
		return FrameFailed, ErrNotInitialized
	}
	if fd.pendingRebuild {
		rebuilt, err := fd.rebuild()
		if err != nil {
			return FrameFailed, err
		}
		fd.state = StateIdle
		if !rebuilt {
			return FrameSkipped, nil
		}
	}

	f := fd.currentFrame
	be := fd.device.backend
	device := fd.device.Device
	inFlight := fd.sync.InFlight[f]

	fd.state = StateAcquiring
	if err := be.WaitForFence(device, inFlight, fd.fenceTimeout()); err != nil {
		return FrameFailed, stageError(ErrSynchronization, "in-flight fence wait", int(f), err)
	}

	imageIndex, status, err := fd.target.AcquireNextImage(metadata.TimeoutInfinite, fd.sync.ImageAvailable[f])
	if err != nil {
		return FrameFailed, err
	}
	if status == StatusOutOfDate {
		// Nothing was submitted, so the ring stays where it is.
		if _, err := fd.rebuild(); err != nil {
			return FrameFailed, err
		}
		fd.state = StateIdle
		return FrameSkipped, nil
	}

	// An earlier frame may still be rendering into this image.
	if guard := fd.sync.ImagesInFlight[imageIndex]; guard != metadata.NullFence {
		if err := be.WaitForFence(device, guard, fd.fenceTimeout()); err != nil {
			return FrameFailed, stageError(ErrSynchronization, "image guard fence wait", int(imageIndex), err)
		}
	}
	fd.sync.ImagesInFlight[imageIndex] = inFlight

	fd.state = StateSubmitting
	if err := be.ResetFence(device, inFlight); err != nil {
		return FrameFailed, stageError(ErrSynchronization, "in-flight fence reset", int(f), err)
	}
	if err := be.QueueSubmit(fd.device.GraphicsQueue, metadata.SubmitInfo{
		WaitSemaphore:   fd.sync.ImageAvailable[f],
		WaitStage:       metadata.PipelineStageColorAttachmentOutput,
		CommandBuffer:   fd.resources.CommandBuffers[imageIndex],
		SignalSemaphore: fd.sync.RenderFinished[f],
		Fence:           inFlight,
	}); err != nil {
		return FrameFailed, stageError(ErrSubmission, "queue submit", int(imageIndex), err)
	}

	fd.state = StatePresenting
	status, err = fd.target.Present(fd.sync.RenderFinished[f], imageIndex)
	if err != nil {
		return FrameFailed, err
	}
	outcome := FramePresented
	if status == StatusOutOfDate || status == StatusSuboptimal {
		rebuilt, err := fd.rebuild()
		if err != nil {
			return FrameFailed, err
		}
		if rebuilt {
			outcome = FrameRebuilt
		}
	}

	// The fence and semaphores of slot f are in use now, so move on even
	// when the target had to be rebuilt.
	fd.currentFrame = (f + 1) % MaxFramesInFlight
	fd.frameNumber++
	fd.state = StateIdle
	return outcome, nil
}

// rebuild recreates the presentation target and everything sized by it.
// The pipeline survives unless the image format changed; the sync ring
// always survives. When the surface has a zero extent nothing is touched,
// the rebuild is marked pending and false is returned.
func (fd *FrameDriver) rebuild() (bool, error) {
	fd.state = StateRecreating
	extent, err := SurfaceExtent(fd.device, fd.window)
	if err != nil {
		return false, err
	}
	if extent.Width == 0 || extent.Height == 0 {
		if !fd.pendingRebuild {
			core.LogInfo("Surface is %dx%d, waiting for a drawable size before rebuilding", extent.Width, extent.Height)
		}
		fd.pendingRebuild = true
		return false, nil
	}

	if err := fd.device.WaitIdle(); err != nil {
		return false, err
	}

	fd.resources.DestroyCommandPool()
	fd.resources.DestroyFramebuffers()
	fd.target.DestroyImageViews()

	old := fd.target
	target, err := NewPresentationTarget(fd.device, fd.window, old, fd.options.Presentation)
	if err != nil {
		return false, err
	}
	old.Destroy()
	fd.target = target

	if target.Format.Format != fd.pipeline.Format {
		core.LogInfo("Surface format changed from %d to %d, rebuilding pipeline", fd.pipeline.Format, target.Format.Format)
		fd.pipeline.Destroy()
		pipeline, err := NewRenderPipeline(fd.device, target, fd.loader, fd.options.Shaders)
		if err != nil {
			return false, err
		}
		fd.pipeline = pipeline
	}

	resources, err := NewFrameResources(fd.device, target, fd.pipeline)
	if err != nil {
		return false, err
	}
	fd.resources = resources
	fd.sync.ResetImageTable(target.ImageCount())
	fd.rebuilds++
	fd.pendingRebuild = false

	core.LogInfo("Presentation target %s replaced by %s (%dx%d, %d images)",
		old.ID, target.ID, target.Extent.Width, target.Extent.Height, target.ImageCount())
	return true, nil
}

// Destroy releases everything the driver owns, in reverse creation order:
// sync objects, command pool, framebuffers, pipeline, image views and
// swapchain. The device must be idle. It is safe to call more than once.
func (fd *FrameDriver) Destroy() {
	if fd.sync != nil {
		fd.sync.Destroy()
		fd.sync = nil
	}
	if fd.resources != nil {
		fd.resources.DestroyCommandPool()
		fd.resources.DestroyFramebuffers()
		fd.resources = nil
	}
	if fd.pipeline != nil {
		fd.pipeline.Destroy()
		fd.pipeline = nil
	}
	if fd.target != nil {
		fd.target.DestroyImageViews()
		fd.target.Destroy()
		fd.target = nil
	}
}
