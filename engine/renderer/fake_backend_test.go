package renderer

import (
	"fmt"
	"sort"
	"unsafe"

	"github.com/spaghettifunk/triangle/engine/assets"
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

// fakeBackend is a RendererBackend that records every call. GPU work
// completes the moment it is submitted.
type fakeBackend struct {
	next  uint64
	live  map[uint64]string
	calls []string
	// destroyed kinds in call order
	destroyOrder  []string
	doubleDestroy []string

	counts   map[string]int
	failures map[string]scriptedFailure

	support          metadata.SurfaceSupport
	graphicsFamily   uint32
	presentFamily    uint32
	swapchainConfigs []metadata.SwapchainConfig
	swapchainImages  map[metadata.Swapchain][]metadata.Image
	poolBuffers      map[metadata.CommandPool][]metadata.CommandBuffer

	acquireResults []metadata.Result
	acquireIndices []uint32
	presentResults []metadata.Result
	nextImage      uint32

	fenceSignaled map[metadata.Fence]bool
	// whether each waited fence was already signaled
	fenceWaits []fenceWait
	submits    []metadata.SubmitInfo
	presents   []metadata.PresentInfo
	pipelines  []metadata.GraphicsPipelineConfig
	renderPass []metadata.RenderPassConfig
	recorded   map[metadata.CommandBuffer][]string
	beginInfos []metadata.RenderPassBeginInfo
	viewports  []metadata.Viewport
	scissors   []metadata.Rect2D
	sink       metadata.DiagnosticSink
	instance   metadata.InstanceConfig
}

type scriptedFailure struct {
	call   int
	result metadata.Result
}

type fenceWait struct {
	fence    metadata.Fence
	signaled bool
	timeout  uint64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		live:            map[uint64]string{},
		counts:          map[string]int{},
		failures:        map[string]scriptedFailure{},
		swapchainImages: map[metadata.Swapchain][]metadata.Image{},
		poolBuffers:     map[metadata.CommandPool][]metadata.CommandBuffer{},
		fenceSignaled:   map[metadata.Fence]bool{},
		recorded:        map[metadata.CommandBuffer][]string{},
		support: metadata.SurfaceSupport{
			Capabilities: metadata.SurfaceCapabilities{
				MinImageCount:  1,
				MaxImageCount:  3,
				CurrentExtent:  metadata.Extent2D{Width: 800, Height: 600},
				MinImageExtent: metadata.Extent2D{Width: 1, Height: 1},
				MaxImageExtent: metadata.Extent2D{Width: 4096, Height: 4096},
			},
			Formats: []metadata.SurfaceFormat{
				{Format: metadata.FormatB8G8R8A8Srgb, ColorSpace: metadata.ColorSpaceSrgbNonlinear},
				{Format: metadata.FormatB8G8R8A8Unorm, ColorSpace: metadata.ColorSpaceSrgbNonlinear},
			},
			PresentModes: []metadata.PresentMode{metadata.PresentModeFifo, metadata.PresentModeMailbox},
		},
	}
}

// failOn makes the n-th call (1-based) of op fail with result.
func (fb *fakeBackend) failOn(op string, n int, result metadata.Result) {
	fb.failures[op] = scriptedFailure{call: n, result: result}
}

func (fb *fakeBackend) enter(op string) error {
	fb.calls = append(fb.calls, op)
	fb.counts[op]++
	if f, ok := fb.failures[op]; ok && f.call == fb.counts[op] {
		return metadata.NewResultError(op, f.result)
	}
	return nil
}

func (fb *fakeBackend) create(kind string) uint64 {
	fb.next++
	fb.live[fb.next] = kind
	return fb.next
}

func (fb *fakeBackend) destroy(op string, kind string, handle uint64) {
	fb.calls = append(fb.calls, op)
	fb.counts[op]++
	if handle == 0 {
		return
	}
	if got, ok := fb.live[handle]; !ok || got != kind {
		fb.doubleDestroy = append(fb.doubleDestroy, fmt.Sprintf("%s %d", kind, handle))
		return
	}
	delete(fb.live, handle)
	fb.destroyOrder = append(fb.destroyOrder, kind)
}

func (fb *fakeBackend) called(op string) int {
	return fb.counts[op]
}

// leaks lists live handles by kind, sorted.
func (fb *fakeBackend) leaks() []string {
	out := []string{}
	for h, kind := range fb.live {
		out = append(out, fmt.Sprintf("%s %d", kind, h))
	}
	sort.Strings(out)
	return out
}

func (fb *fakeBackend) liveCount(kind string) int {
	n := 0
	for _, k := range fb.live {
		if k == kind {
			n++
		}
	}
	return n
}

func (fb *fakeBackend) CreateInstance(config metadata.InstanceConfig) (metadata.Instance, error) {
	if err := fb.enter("CreateInstance"); err != nil {
		return metadata.NullInstance, err
	}
	fb.instance = config
	return metadata.Instance(fb.create("instance")), nil
}

func (fb *fakeBackend) DestroyInstance(instance metadata.Instance) {
	fb.destroy("DestroyInstance", "instance", uint64(instance))
}

func (fb *fakeBackend) CreateDebugCallback(instance metadata.Instance, sink metadata.DiagnosticSink) (metadata.DebugCallback, error) {
	if err := fb.enter("CreateDebugCallback"); err != nil {
		return metadata.NullDebugCallback, err
	}
	fb.sink = sink
	return metadata.DebugCallback(fb.create("debug callback")), nil
}

func (fb *fakeBackend) DestroyDebugCallback(instance metadata.Instance, callback metadata.DebugCallback) {
	fb.destroy("DestroyDebugCallback", "debug callback", uint64(callback))
}

func (fb *fakeBackend) CreateSurface(instance metadata.Instance, window metadata.NativeWindow) (metadata.Surface, error) {
	if err := fb.enter("CreateSurface"); err != nil {
		return metadata.NullSurface, err
	}
	return metadata.Surface(fb.create("surface")), nil
}

func (fb *fakeBackend) DestroySurface(instance metadata.Instance, surface metadata.Surface) {
	fb.destroy("DestroySurface", "surface", uint64(surface))
}

func (fb *fakeBackend) SelectPhysicalDevice(instance metadata.Instance, surface metadata.Surface, requirements metadata.DeviceRequirements) (metadata.PhysicalDeviceInfo, error) {
	if err := fb.enter("SelectPhysicalDevice"); err != nil {
		return metadata.PhysicalDeviceInfo{}, err
	}
	fb.next++
	return metadata.PhysicalDeviceInfo{
		Handle:              metadata.PhysicalDevice(fb.next),
		Name:                "Fake GPU",
		Type:                metadata.PhysicalDeviceTypeDiscreteGPU,
		APIVersion:          metadata.MakeAPIVersion(1, 3, 0),
		GraphicsFamilyIndex: fb.graphicsFamily,
		PresentFamilyIndex:  fb.presentFamily,
	}, nil
}

func (fb *fakeBackend) CreateDevice(physical metadata.PhysicalDeviceInfo, extensions []string) (metadata.DeviceQueues, error) {
	if err := fb.enter("CreateDevice"); err != nil {
		return metadata.DeviceQueues{}, err
	}
	device := metadata.Device(fb.create("device"))
	fb.next += 2
	return metadata.DeviceQueues{
		Device:              device,
		GraphicsQueue:       metadata.Queue(fb.next - 1),
		PresentQueue:        metadata.Queue(fb.next),
		GraphicsFamilyIndex: physical.GraphicsFamilyIndex,
		PresentFamilyIndex:  physical.PresentFamilyIndex,
	}, nil
}

func (fb *fakeBackend) DestroyDevice(device metadata.Device) {
	fb.destroy("DestroyDevice", "device", uint64(device))
}

func (fb *fakeBackend) DeviceWaitIdle(device metadata.Device) error {
	return fb.enter("DeviceWaitIdle")
}

func (fb *fakeBackend) QuerySurfaceSupport(physical metadata.PhysicalDevice, surface metadata.Surface) (metadata.SurfaceSupport, error) {
	if err := fb.enter("QuerySurfaceSupport"); err != nil {
		return metadata.SurfaceSupport{}, err
	}
	return fb.support, nil
}

func (fb *fakeBackend) CreateSwapchain(device metadata.Device, config metadata.SwapchainConfig) (metadata.Swapchain, error) {
	if err := fb.enter("CreateSwapchain"); err != nil {
		return metadata.NullSwapchain, err
	}
	fb.swapchainConfigs = append(fb.swapchainConfigs, config)
	sc := metadata.Swapchain(fb.create("swapchain"))
	images := make([]metadata.Image, config.MinImageCount)
	for i := range images {
		fb.next++
		images[i] = metadata.Image(fb.next)
	}
	fb.swapchainImages[sc] = images
	return sc, nil
}

func (fb *fakeBackend) DestroySwapchain(device metadata.Device, swapchain metadata.Swapchain) {
	fb.destroy("DestroySwapchain", "swapchain", uint64(swapchain))
	delete(fb.swapchainImages, swapchain)
}

func (fb *fakeBackend) GetSwapchainImages(device metadata.Device, swapchain metadata.Swapchain) ([]metadata.Image, error) {
	if err := fb.enter("GetSwapchainImages"); err != nil {
		return nil, err
	}
	return fb.swapchainImages[swapchain], nil
}

func (fb *fakeBackend) CreateImageView(device metadata.Device, image metadata.Image, format metadata.Format) (metadata.ImageView, error) {
	if err := fb.enter("CreateImageView"); err != nil {
		return metadata.NullImageView, err
	}
	return metadata.ImageView(fb.create("image view")), nil
}

func (fb *fakeBackend) DestroyImageView(device metadata.Device, view metadata.ImageView) {
	fb.destroy("DestroyImageView", "image view", uint64(view))
}

func (fb *fakeBackend) AcquireNextImage(device metadata.Device, swapchain metadata.Swapchain, timeout uint64, signal metadata.Semaphore) (uint32, metadata.Result) {
	fb.calls = append(fb.calls, "AcquireNextImage")
	fb.counts["AcquireNextImage"]++
	result := metadata.ResultSuccess
	if len(fb.acquireResults) > 0 {
		result = fb.acquireResults[0]
		fb.acquireResults = fb.acquireResults[1:]
	}
	if !result.IsSuccess() {
		return 0, result
	}
	if len(fb.acquireIndices) > 0 {
		index := fb.acquireIndices[0]
		fb.acquireIndices = fb.acquireIndices[1:]
		return index, result
	}
	count := uint32(len(fb.swapchainImages[swapchain]))
	index := fb.nextImage % count
	fb.nextImage++
	return index, result
}

func (fb *fakeBackend) QueuePresent(queue metadata.Queue, info metadata.PresentInfo) metadata.Result {
	fb.calls = append(fb.calls, "QueuePresent")
	fb.counts["QueuePresent"]++
	fb.presents = append(fb.presents, info)
	if len(fb.presentResults) > 0 {
		result := fb.presentResults[0]
		fb.presentResults = fb.presentResults[1:]
		return result
	}
	return metadata.ResultSuccess
}

func (fb *fakeBackend) CreateShaderModule(device metadata.Device, code []byte) (metadata.ShaderModule, error) {
	if err := fb.enter("CreateShaderModule"); err != nil {
		return metadata.NullShaderModule, err
	}
	return metadata.ShaderModule(fb.create("shader module")), nil
}

func (fb *fakeBackend) DestroyShaderModule(device metadata.Device, module metadata.ShaderModule) {
	fb.destroy("DestroyShaderModule", "shader module", uint64(module))
}

func (fb *fakeBackend) CreateRenderPass(device metadata.Device, config metadata.RenderPassConfig) (metadata.RenderPass, error) {
	if err := fb.enter("CreateRenderPass"); err != nil {
		return metadata.NullRenderPass, err
	}
	fb.renderPass = append(fb.renderPass, config)
	return metadata.RenderPass(fb.create("render pass")), nil
}

func (fb *fakeBackend) DestroyRenderPass(device metadata.Device, pass metadata.RenderPass) {
	fb.destroy("DestroyRenderPass", "render pass", uint64(pass))
}

func (fb *fakeBackend) CreatePipelineLayout(device metadata.Device) (metadata.PipelineLayout, error) {
	if err := fb.enter("CreatePipelineLayout"); err != nil {
		return metadata.NullPipelineLayout, err
	}
	return metadata.PipelineLayout(fb.create("pipeline layout")), nil
}

func (fb *fakeBackend) DestroyPipelineLayout(device metadata.Device, layout metadata.PipelineLayout) {
	fb.destroy("DestroyPipelineLayout", "pipeline layout", uint64(layout))
}

func (fb *fakeBackend) CreateGraphicsPipeline(device metadata.Device, config metadata.GraphicsPipelineConfig) (metadata.Pipeline, error) {
	if err := fb.enter("CreateGraphicsPipeline"); err != nil {
		return metadata.NullPipeline, err
	}
	fb.pipelines = append(fb.pipelines, config)
	return metadata.Pipeline(fb.create("pipeline")), nil
}

func (fb *fakeBackend) DestroyPipeline(device metadata.Device, pipeline metadata.Pipeline) {
	fb.destroy("DestroyPipeline", "pipeline", uint64(pipeline))
}

func (fb *fakeBackend) CreateFramebuffer(device metadata.Device, config metadata.FramebufferConfig) (metadata.Framebuffer, error) {
	if err := fb.enter("CreateFramebuffer"); err != nil {
		return metadata.NullFramebuffer, err
	}
	return metadata.Framebuffer(fb.create("framebuffer")), nil
}

func (fb *fakeBackend) DestroyFramebuffer(device metadata.Device, framebuffer metadata.Framebuffer) {
	fb.destroy("DestroyFramebuffer", "framebuffer", uint64(framebuffer))
}

func (fb *fakeBackend) CreateCommandPool(device metadata.Device, queueFamilyIndex uint32) (metadata.CommandPool, error) {
	if err := fb.enter("CreateCommandPool"); err != nil {
		return metadata.NullCommandPool, err
	}
	return metadata.CommandPool(fb.create("command pool")), nil
}

func (fb *fakeBackend) DestroyCommandPool(device metadata.Device, pool metadata.CommandPool) {
	fb.destroy("DestroyCommandPool", "command pool", uint64(pool))
	for _, cb := range fb.poolBuffers[pool] {
		delete(fb.live, uint64(cb))
	}
	delete(fb.poolBuffers, pool)
}

func (fb *fakeBackend) AllocateCommandBuffers(device metadata.Device, pool metadata.CommandPool, count uint32) ([]metadata.CommandBuffer, error) {
	if err := fb.enter("AllocateCommandBuffers"); err != nil {
		return nil, err
	}
	buffers := make([]metadata.CommandBuffer, count)
	for i := range buffers {
		buffers[i] = metadata.CommandBuffer(fb.create("command buffer"))
	}
	fb.poolBuffers[pool] = append(fb.poolBuffers[pool], buffers...)
	return buffers, nil
}

func (fb *fakeBackend) record(buffer metadata.CommandBuffer, op string) {
	fb.recorded[buffer] = append(fb.recorded[buffer], op)
}

func (fb *fakeBackend) BeginCommandBuffer(buffer metadata.CommandBuffer) error {
	if err := fb.enter("BeginCommandBuffer"); err != nil {
		return err
	}
	fb.recorded[buffer] = nil
	fb.record(buffer, "begin")
	return nil
}

func (fb *fakeBackend) EndCommandBuffer(buffer metadata.CommandBuffer) error {
	if err := fb.enter("EndCommandBuffer"); err != nil {
		return err
	}
	fb.record(buffer, "end")
	return nil
}

func (fb *fakeBackend) CmdSetViewport(buffer metadata.CommandBuffer, viewport metadata.Viewport) {
	fb.viewports = append(fb.viewports, viewport)
	fb.record(buffer, "viewport")
}

func (fb *fakeBackend) CmdSetScissor(buffer metadata.CommandBuffer, scissor metadata.Rect2D) {
	fb.scissors = append(fb.scissors, scissor)
	fb.record(buffer, "scissor")
}

func (fb *fakeBackend) CmdBeginRenderPass(buffer metadata.CommandBuffer, info metadata.RenderPassBeginInfo) {
	fb.beginInfos = append(fb.beginInfos, info)
	fb.record(buffer, "begin render pass")
}

func (fb *fakeBackend) CmdBindPipeline(buffer metadata.CommandBuffer, pipeline metadata.Pipeline) {
	fb.record(buffer, "bind pipeline")
}

func (fb *fakeBackend) CmdDraw(buffer metadata.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	fb.record(buffer, fmt.Sprintf("draw %d %d %d %d", vertexCount, instanceCount, firstVertex, firstInstance))
}

func (fb *fakeBackend) CmdEndRenderPass(buffer metadata.CommandBuffer) {
	fb.record(buffer, "end render pass")
}

func (fb *fakeBackend) CreateSemaphore(device metadata.Device) (metadata.Semaphore, error) {
	if err := fb.enter("CreateSemaphore"); err != nil {
		return metadata.NullSemaphore, err
	}
	return metadata.Semaphore(fb.create("semaphore")), nil
}

func (fb *fakeBackend) DestroySemaphore(device metadata.Device, semaphore metadata.Semaphore) {
	fb.destroy("DestroySemaphore", "semaphore", uint64(semaphore))
}

func (fb *fakeBackend) CreateFence(device metadata.Device, signaled bool) (metadata.Fence, error) {
	if err := fb.enter("CreateFence"); err != nil {
		return metadata.NullFence, err
	}
	fence := metadata.Fence(fb.create("fence"))
	fb.fenceSignaled[fence] = signaled
	return fence, nil
}

func (fb *fakeBackend) DestroyFence(device metadata.Device, fence metadata.Fence) {
	fb.destroy("DestroyFence", "fence", uint64(fence))
	delete(fb.fenceSignaled, fence)
}

func (fb *fakeBackend) WaitForFence(device metadata.Device, fence metadata.Fence, timeout uint64) error {
	if err := fb.enter("WaitForFence"); err != nil {
		return err
	}
	fb.fenceWaits = append(fb.fenceWaits, fenceWait{fence: fence, signaled: fb.fenceSignaled[fence], timeout: timeout})
	return nil
}

func (fb *fakeBackend) ResetFence(device metadata.Device, fence metadata.Fence) error {
	if err := fb.enter("ResetFence"); err != nil {
		return err
	}
	fb.fenceSignaled[fence] = false
	return nil
}

func (fb *fakeBackend) QueueSubmit(queue metadata.Queue, info metadata.SubmitInfo) error {
	if err := fb.enter("QueueSubmit"); err != nil {
		return err
	}
	fb.submits = append(fb.submits, info)
	fb.fenceSignaled[info.Fence] = true
	return nil
}

type fakeWindow struct {
	width, height uint32
}

func (w *fakeWindow) FramebufferSize() (uint32, uint32) {
	return w.width, w.height
}

func (w *fakeWindow) Native() metadata.NativeWindow {
	return nullNativeWindow{}
}

func (w *fakeWindow) RequiredInstanceExtensions() []string {
	return []string{"VK_KHR_surface"}
}

type nullNativeWindow struct{}

func (nullNativeWindow) GetRequiredInstanceExtensions() []string { return nil }
func (nullNativeWindow) GetFramebufferSize() (int, int)          { return 0, 0 }
func (nullNativeWindow) CreateWindowSurface(interface{}, unsafe.Pointer) (uintptr, error) {
	return 0, nil
}

type fakeLoader map[string][]byte

func (l fakeLoader) LoadShader(name string) ([]byte, error) {
	code, ok := l[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", assets.ErrResourceNotFound, name)
	}
	return code, nil
}

var testShaders = ShaderSet{Vertex: "vert.spv", Fragment: "frag.spv"}

func newFakeLoader() fakeLoader {
	return fakeLoader{
		"vert.spv": {0x03, 0x02, 0x23, 0x07},
		"frag.spv": {0x03, 0x02, 0x23, 0x07},
	}
}

func newTestDeviceContext(fb *fakeBackend) (*DeviceContext, error) {
	return NewDeviceContext(fb, &fakeWindow{width: 800, height: 600}, DeviceConfig{
		ApplicationName: "test",
		MinAPIVersion:   metadata.MakeAPIVersion(1, 1, 0),
	})
}
