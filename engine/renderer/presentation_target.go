package renderer

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/triangle/engine/core"
	"github.com/spaghettifunk/triangle/engine/math"
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

// Status is the outcome of an acquire or present call.
type Status uint8

const (
	StatusOk Status = iota
	StatusSuboptimal
	StatusOutOfDate
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusOutOfDate:
		return "out-of-date"
	}
	return "failed"
}

func statusOf(result metadata.Result) Status {
	switch result {
	case metadata.ResultSuccess:
		return StatusOk
	case metadata.ResultSuboptimal:
		return StatusSuboptimal
	case metadata.ResultErrorOutOfDate:
		return StatusOutOfDate
	}
	return StatusFailed
}

type PresentationOptions struct {
	PreferMailbox bool
}

// PresentationTarget owns the swapchain, its images and one view per image.
type PresentationTarget struct {
	// ID changes with every (re)creation.
	ID uuid.UUID

	backend RendererBackend
	device  *DeviceContext

	Swapchain   metadata.Swapchain
	Format      metadata.SurfaceFormat
	PresentMode metadata.PresentMode
	Extent      metadata.Extent2D
	Images      []metadata.Image
	ImageViews  []metadata.ImageView
}

// NewPresentationTarget builds a swapchain against the current surface
// capabilities. previous, when not nil, is handed to the backend for reuse;
// the caller destroys it after this returns.
func NewPresentationTarget(dc *DeviceContext, window Window, previous *PresentationTarget, options PresentationOptions) (*PresentationTarget, error) {
	support, err := dc.backend.QuerySurfaceSupport(dc.PhysicalDevice.Handle, dc.Surface)
	if err != nil {
		return nil, stageError(ErrSwapchainCreation, "surface support query", -1, err)
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return nil, stageError(ErrSwapchainCreation, "surface reports no formats or present modes", -1, nil)
	}

	extent := chooseExtent(support.Capabilities, window)
	if extent.Width == 0 || extent.Height == 0 {
		return nil, stageError(ErrSwapchainCreation, fmt.Sprintf("surface extent is %dx%d", extent.Width, extent.Height), -1, nil)
	}

	pt := &PresentationTarget{
		ID:          uuid.New(),
		backend:     dc.backend,
		device:      dc,
		Format:      chooseSurfaceFormat(support.Formats),
		PresentMode: choosePresentMode(support.PresentModes, options.PreferMailbox),
		Extent:      extent,
	}

	config := metadata.SwapchainConfig{
		Surface:       dc.Surface,
		MinImageCount: chooseImageCount(support.Capabilities),
		Format:        pt.Format,
		Extent:        pt.Extent,
		PresentMode:   pt.PresentMode,
		PreTransform:  support.Capabilities.CurrentTransform,
		SharingMode:   metadata.SharingModeExclusive,
		OldSwapchain:  metadata.NullSwapchain,
	}
	if dc.GraphicsFamilyIndex != dc.PresentFamilyIndex {
		config.SharingMode = metadata.SharingModeConcurrent
		config.QueueFamilyIndices = []uint32{dc.GraphicsFamilyIndex, dc.PresentFamilyIndex}
	}
	if previous != nil {
		config.OldSwapchain = previous.Swapchain
	}

	swapchain, err := dc.backend.CreateSwapchain(dc.Device, config)
	if err != nil {
		return nil, stageError(ErrSwapchainCreation, "swapchain creation", -1, err)
	}
	pt.Swapchain = swapchain

	images, err := dc.backend.GetSwapchainImages(dc.Device, swapchain)
	if err != nil {
		pt.Destroy()
		return nil, stageError(ErrSwapchainCreation, "swapchain image query", -1, err)
	}
	pt.Images = images

	pt.ImageViews = make([]metadata.ImageView, len(images))
	for i, image := range images {
		view, err := dc.backend.CreateImageView(dc.Device, image, pt.Format.Format)
		if err != nil {
			pt.Destroy()
			return nil, stageError(ErrSwapchainCreation, "image view creation", i, err)
		}
		pt.ImageViews[i] = view
	}

	core.LogDebug("Presentation target %s: %dx%d, %d images, %s", pt.ID, pt.Extent.Width, pt.Extent.Height, len(pt.Images), pt.PresentMode)
	return pt, nil
}

func (pt *PresentationTarget) ImageCount() uint32 {
	return uint32(len(pt.Images))
}

// AcquireNextImage asks for the next presentable image and arranges for
// signal to be signaled once it is available. Staleness is reported through
// the status; any other failure is an ErrSurfaceAcquisition error.
func (pt *PresentationTarget) AcquireNextImage(timeout uint64, signal metadata.Semaphore) (uint32, Status, error) {
	index, result := pt.backend.AcquireNextImage(pt.device.Device, pt.Swapchain, timeout, signal)
	status := statusOf(result)
	if status == StatusFailed {
		return 0, status, resultError(ErrSurfaceAcquisition, "image acquisition", result)
	}
	if status != StatusOutOfDate && index >= pt.ImageCount() {
		return 0, StatusFailed, stageError(ErrSurfaceAcquisition,
			fmt.Sprintf("image index out of range for %d images", pt.ImageCount()), int(index), nil)
	}
	return index, status, nil
}

// SurfaceExtent is the extent a target built now would get. A zero width or
// height means the window is minimized and nothing can be presented.
func SurfaceExtent(dc *DeviceContext, window Window) (metadata.Extent2D, error) {
	support, err := dc.backend.QuerySurfaceSupport(dc.PhysicalDevice.Handle, dc.Surface)
	if err != nil {
		return metadata.Extent2D{}, stageError(ErrSwapchainCreation, "surface support query", -1, err)
	}
	return chooseExtent(support.Capabilities, window), nil
}

// Present queues imageIndex for display once wait is signaled.
func (pt *PresentationTarget) Present(wait metadata.Semaphore, imageIndex uint32) (Status, error) {
	result := pt.backend.QueuePresent(pt.device.PresentQueue, metadata.PresentInfo{
		WaitSemaphore: wait,
		Swapchain:     pt.Swapchain,
		ImageIndex:    imageIndex,
	})
	status := statusOf(result)
	if status == StatusFailed {
		return status, resultError(ErrPresentation, "queue present", result)
	}
	return status, nil
}

// DestroyImageViews releases the views but keeps the swapchain alive so it
// can still be passed as the previous target of a rebuild.
func (pt *PresentationTarget) DestroyImageViews() {
	for i, view := range pt.ImageViews {
		if view != metadata.NullImageView {
			pt.backend.DestroyImageView(pt.device.Device, view)
			pt.ImageViews[i] = metadata.NullImageView
		}
	}
}

func (pt *PresentationTarget) Destroy() {
	pt.DestroyImageViews()
	if pt.Swapchain != metadata.NullSwapchain {
		pt.backend.DestroySwapchain(pt.device.Device, pt.Swapchain)
		pt.Swapchain = metadata.NullSwapchain
	}
	// images belong to the swapchain
	pt.Images = nil
}

func chooseSurfaceFormat(formats []metadata.SurfaceFormat) metadata.SurfaceFormat {
	for _, f := range formats {
		if f.Format == metadata.FormatB8G8R8A8Unorm && f.ColorSpace == metadata.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return formats[0]
}

func choosePresentMode(modes []metadata.PresentMode, preferMailbox bool) metadata.PresentMode {
	if preferMailbox {
		for _, m := range modes {
			if m == metadata.PresentModeMailbox {
				return m
			}
		}
	}
	// FIFO is always available.
	return metadata.PresentModeFifo
}

func chooseExtent(caps metadata.SurfaceCapabilities, window Window) metadata.Extent2D {
	if caps.CurrentExtent.Width != metadata.UndefinedExtent {
		return caps.CurrentExtent
	}
	width, height := window.FramebufferSize()
	return metadata.Extent2D{
		Width:  math.Clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: math.Clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func chooseImageCount(caps metadata.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	// zero means no upper limit
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}
