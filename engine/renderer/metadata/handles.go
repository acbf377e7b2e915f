package metadata

import "unsafe"

// Handles are opaque identifiers handed out by a renderer backend. The zero
// value of every handle type is the null sentinel: a handle is set back to
// zero as soon as the object it names has been destroyed.
type (
	Instance       uint64
	Surface        uint64
	PhysicalDevice uint64
	Device         uint64
	Queue          uint64
	Swapchain      uint64
	Image          uint64
	ImageView      uint64
	ShaderModule   uint64
	RenderPass     uint64
	PipelineLayout uint64
	Pipeline       uint64
	Framebuffer    uint64
	CommandPool    uint64
	CommandBuffer  uint64
	Semaphore      uint64
	Fence          uint64
	DebugCallback  uint64
)

const (
	NullInstance       Instance       = 0
	NullSurface        Surface        = 0
	NullPhysicalDevice PhysicalDevice = 0
	NullDevice         Device         = 0
	NullQueue          Queue          = 0
	NullSwapchain      Swapchain      = 0
	NullImage          Image          = 0
	NullImageView      ImageView      = 0
	NullShaderModule   ShaderModule   = 0
	NullRenderPass     RenderPass     = 0
	NullPipelineLayout PipelineLayout = 0
	NullPipeline       Pipeline       = 0
	NullFramebuffer    Framebuffer    = 0
	NullCommandPool    CommandPool    = 0
	NullCommandBuffer  CommandBuffer  = 0
	NullSemaphore      Semaphore      = 0
	NullFence          Fence          = 0
	NullDebugCallback  DebugCallback  = 0
)

// TimeoutInfinite makes a wait block until the primitive signals.
const TimeoutInfinite uint64 = ^uint64(0)

/** @brief A 2D size in pixels. */
type Extent2D struct {
	Width  uint32
	Height uint32
}

/** @brief A 2D signed offset in pixels. */
type Offset2D struct {
	X int32
	Y int32
}

/** @brief A rectangle, used for scissors and render areas. */
type Rect2D struct {
	Offset Offset2D
	Extent Extent2D
}

/** @brief A viewport transform, sourced dynamically at record time. */
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// DeviceQueues is what a backend hands back once a logical device exists.
type DeviceQueues struct {
	Device              Device
	GraphicsQueue       Queue
	PresentQueue        Queue
	GraphicsFamilyIndex uint32
	PresentFamilyIndex  uint32
}

// NativeWindow is the surface-creation capability of a platform window.
// *glfw.Window satisfies it.
type NativeWindow interface {
	GetRequiredInstanceExtensions() []string
	GetFramebufferSize() (width, height int)
	CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (uintptr, error)
}
