package renderer

import "github.com/spaghettifunk/triangle/engine/renderer/metadata"

// RendererBackend is the set of native graphics calls the frame engine is
// built from. Calls that fail return a *metadata.ResultError carrying the
// native code. Destroy calls tolerate null handles.
type RendererBackend interface {
	CreateInstance(config metadata.InstanceConfig) (metadata.Instance, error)
	DestroyInstance(instance metadata.Instance)
	CreateDebugCallback(instance metadata.Instance, sink metadata.DiagnosticSink) (metadata.DebugCallback, error)
	DestroyDebugCallback(instance metadata.Instance, callback metadata.DebugCallback)
	CreateSurface(instance metadata.Instance, window metadata.NativeWindow) (metadata.Surface, error)
	DestroySurface(instance metadata.Instance, surface metadata.Surface)
	SelectPhysicalDevice(instance metadata.Instance, surface metadata.Surface, requirements metadata.DeviceRequirements) (metadata.PhysicalDeviceInfo, error)
	CreateDevice(physical metadata.PhysicalDeviceInfo, extensions []string) (metadata.DeviceQueues, error)
	DestroyDevice(device metadata.Device)
	DeviceWaitIdle(device metadata.Device) error

	QuerySurfaceSupport(physical metadata.PhysicalDevice, surface metadata.Surface) (metadata.SurfaceSupport, error)
	CreateSwapchain(device metadata.Device, config metadata.SwapchainConfig) (metadata.Swapchain, error)
	DestroySwapchain(device metadata.Device, swapchain metadata.Swapchain)
	GetSwapchainImages(device metadata.Device, swapchain metadata.Swapchain) ([]metadata.Image, error)
	CreateImageView(device metadata.Device, image metadata.Image, format metadata.Format) (metadata.ImageView, error)
	DestroyImageView(device metadata.Device, view metadata.ImageView)
	// AcquireNextImage and QueuePresent report the raw result: staleness is
	// not an error at this level.
	AcquireNextImage(device metadata.Device, swapchain metadata.Swapchain, timeout uint64, signal metadata.Semaphore) (uint32, metadata.Result)
	QueuePresent(queue metadata.Queue, info metadata.PresentInfo) metadata.Result

	CreateShaderModule(device metadata.Device, code []byte) (metadata.ShaderModule, error)
	DestroyShaderModule(device metadata.Device, module metadata.ShaderModule)
	CreateRenderPass(device metadata.Device, config metadata.RenderPassConfig) (metadata.RenderPass, error)
	DestroyRenderPass(device metadata.Device, pass metadata.RenderPass)
	CreatePipelineLayout(device metadata.Device) (metadata.PipelineLayout, error)
	DestroyPipelineLayout(device metadata.Device, layout metadata.PipelineLayout)
	CreateGraphicsPipeline(device metadata.Device, config metadata.GraphicsPipelineConfig) (metadata.Pipeline, error)
	DestroyPipeline(device metadata.Device, pipeline metadata.Pipeline)

	CreateFramebuffer(device metadata.Device, config metadata.FramebufferConfig) (metadata.Framebuffer, error)
	DestroyFramebuffer(device metadata.Device, framebuffer metadata.Framebuffer)
	CreateCommandPool(device metadata.Device, queueFamilyIndex uint32) (metadata.CommandPool, error)
	// DestroyCommandPool also frees every command buffer allocated from it.
	DestroyCommandPool(device metadata.Device, pool metadata.CommandPool)
	AllocateCommandBuffers(device metadata.Device, pool metadata.CommandPool, count uint32) ([]metadata.CommandBuffer, error)
	BeginCommandBuffer(buffer metadata.CommandBuffer) error
	EndCommandBuffer(buffer metadata.CommandBuffer) error
	CmdSetViewport(buffer metadata.CommandBuffer, viewport metadata.Viewport)
	CmdSetScissor(buffer metadata.CommandBuffer, scissor metadata.Rect2D)
	CmdBeginRenderPass(buffer metadata.CommandBuffer, info metadata.RenderPassBeginInfo)
	CmdBindPipeline(buffer metadata.CommandBuffer, pipeline metadata.Pipeline)
	CmdDraw(buffer metadata.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32)
	CmdEndRenderPass(buffer metadata.CommandBuffer)

	CreateSemaphore(device metadata.Device) (metadata.Semaphore, error)
	DestroySemaphore(device metadata.Device, semaphore metadata.Semaphore)
	CreateFence(device metadata.Device, signaled bool) (metadata.Fence, error)
	DestroyFence(device metadata.Device, fence metadata.Fence)
	WaitForFence(device metadata.Device, fence metadata.Fence, timeout uint64) error
	ResetFence(device metadata.Device, fence metadata.Fence) error
	QueueSubmit(queue metadata.Queue, info metadata.SubmitInfo) error
}

// Window is the part of the windowing collaborator the renderer needs.
type Window interface {
	FramebufferSize() (width, height uint32)
	Native() metadata.NativeWindow
	RequiredInstanceExtensions() []string
}

// ShaderLoader returns the raw byte code of a named shader, or an error
// wrapping assets.ErrResourceNotFound.
type ShaderLoader interface {
	LoadShader(name string) ([]byte, error)
}
