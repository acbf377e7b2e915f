package renderer

import (
	"github.com/spaghettifunk/triangle/engine/core"
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

var clearColor = [4]float32{0, 0, 0, 1}

// FrameResources owns one framebuffer and one pre-recorded command buffer per
// presentation image, plus the pool the command buffers come from.
type FrameResources struct {
	backend RendererBackend
	device  *DeviceContext

	CommandPool    metadata.CommandPool
	Framebuffers   []metadata.Framebuffer
	CommandBuffers []metadata.CommandBuffer
}

func NewFrameResources(dc *DeviceContext, target *PresentationTarget, pipeline *RenderPipeline) (*FrameResources, error) {
	fr := &FrameResources{
		backend:      dc.backend,
		device:       dc,
		Framebuffers: make([]metadata.Framebuffer, len(target.ImageViews)),
	}

	for i, view := range target.ImageViews {
		fb, err := dc.backend.CreateFramebuffer(dc.Device, metadata.FramebufferConfig{
			RenderPass:  pipeline.RenderPass,
			Attachments: []metadata.ImageView{view},
			Extent:      target.Extent,
			Layers:      1,
		})
		if err != nil {
			fr.Destroy()
			return nil, stageError(ErrFrameResources, "framebuffer creation", i, err)
		}
		fr.Framebuffers[i] = fb
	}

	pool, err := dc.backend.CreateCommandPool(dc.Device, dc.GraphicsFamilyIndex)
	if err != nil {
		fr.Destroy()
		return nil, stageError(ErrFrameResources, "command pool creation", -1, err)
	}
	fr.CommandPool = pool

	buffers, err := dc.backend.AllocateCommandBuffers(dc.Device, pool, uint32(len(fr.Framebuffers)))
	if err != nil {
		fr.Destroy()
		return nil, stageError(ErrFrameResources, "command buffer allocation", -1, err)
	}
	fr.CommandBuffers = buffers

	for i := range fr.CommandBuffers {
		if err := fr.record(i, target.Extent, pipeline); err != nil {
			fr.Destroy()
			return nil, err
		}
	}

	core.LogDebug("Recorded %d command buffers", len(fr.CommandBuffers))
	return fr, nil
}

// record writes the whole draw sequence for image i once.
func (fr *FrameResources) record(i int, extent metadata.Extent2D, pipeline *RenderPipeline) error {
	cb := fr.CommandBuffers[i]
	if err := fr.backend.BeginCommandBuffer(cb); err != nil {
		return stageError(ErrCommandRecording, "command buffer begin", i, err)
	}

	fr.backend.CmdSetViewport(cb, metadata.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	fr.backend.CmdSetScissor(cb, metadata.Rect2D{Extent: extent})
	fr.backend.CmdBeginRenderPass(cb, metadata.RenderPassBeginInfo{
		RenderPass:  pipeline.RenderPass,
		Framebuffer: fr.Framebuffers[i],
		RenderArea:  metadata.Rect2D{Extent: extent},
		ClearColor:  clearColor,
	})
	fr.backend.CmdBindPipeline(cb, pipeline.Pipeline)
	fr.backend.CmdDraw(cb, 3, 1, 0, 0)
	fr.backend.CmdEndRenderPass(cb)

	if err := fr.backend.EndCommandBuffer(cb); err != nil {
		return stageError(ErrCommandRecording, "command buffer end", i, err)
	}
	return nil
}

// DestroyCommandPool frees the pool together with its command buffers.
func (fr *FrameResources) DestroyCommandPool() {
	if fr.CommandPool != metadata.NullCommandPool {
		fr.backend.DestroyCommandPool(fr.device.Device, fr.CommandPool)
		fr.CommandPool = metadata.NullCommandPool
	}
	fr.CommandBuffers = nil
}

func (fr *FrameResources) DestroyFramebuffers() {
	for i, fb := range fr.Framebuffers {
		if fb != metadata.NullFramebuffer {
			fr.backend.DestroyFramebuffer(fr.device.Device, fb)
			fr.Framebuffers[i] = metadata.NullFramebuffer
		}
	}
}

func (fr *FrameResources) Destroy() {
	fr.DestroyCommandPool()
	fr.DestroyFramebuffers()
}
