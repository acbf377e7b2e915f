package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

type vulkanDevice struct {
	PhysicalDevice vk.PhysicalDevice
	LogicalDevice  vk.Device
}

type vulkanQueue struct {
	Handle      vk.Queue
	FamilyIndex uint32
}

type vulkanCommandPool struct {
	Handle vk.CommandPool
	// Handles of the buffers allocated from this pool. They go away with it.
	Buffers []uint64
}

type vulkanDebugCallback struct {
	Handle vk.DebugReportCallback
	Sink   metadata.DiagnosticSink
}

// VulkanContext holds every native object the backend has handed out,
// keyed by the opaque handle the frame engine knows it by.
type VulkanContext struct {
	Allocator *vk.AllocationCallbacks

	instances       *handlePool[vk.Instance]
	debugCallbacks  *handlePool[*vulkanDebugCallback]
	surfaces        *handlePool[vk.Surface]
	physicalDevices *handlePool[vk.PhysicalDevice]
	devices         *handlePool[*vulkanDevice]
	queues          *handlePool[vulkanQueue]
	swapchains      *handlePool[vk.Swapchain]
	images          *handlePool[vk.Image]
	imageViews      *handlePool[vk.ImageView]
	shaderModules   *handlePool[vk.ShaderModule]
	renderPasses    *handlePool[vk.RenderPass]
	pipelineLayouts *handlePool[vk.PipelineLayout]
	pipelines       *handlePool[vk.Pipeline]
	framebuffers    *handlePool[vk.Framebuffer]
	commandPools    *handlePool[*vulkanCommandPool]
	commandBuffers  *handlePool[vk.CommandBuffer]
	semaphores      *handlePool[vk.Semaphore]
	fences          *handlePool[vk.Fence]

	// Queues belong to their device and swapchain images to their swapchain.
	deviceQueues    map[uint64][]uint64
	swapchainImages map[uint64][]uint64

	queueLocks *queueLocks
}

func newVulkanContext() *VulkanContext {
	return &VulkanContext{
		Allocator:       nil,
		instances:       newHandlePool[vk.Instance](),
		debugCallbacks:  newHandlePool[*vulkanDebugCallback](),
		surfaces:        newHandlePool[vk.Surface](),
		physicalDevices: newHandlePool[vk.PhysicalDevice](),
		devices:         newHandlePool[*vulkanDevice](),
		queues:          newHandlePool[vulkanQueue](),
		swapchains:      newHandlePool[vk.Swapchain](),
		images:          newHandlePool[vk.Image](),
		imageViews:      newHandlePool[vk.ImageView](),
		shaderModules:   newHandlePool[vk.ShaderModule](),
		renderPasses:    newHandlePool[vk.RenderPass](),
		pipelineLayouts: newHandlePool[vk.PipelineLayout](),
		pipelines:       newHandlePool[vk.Pipeline](),
		framebuffers:    newHandlePool[vk.Framebuffer](),
		commandPools:    newHandlePool[*vulkanCommandPool](),
		commandBuffers:  newHandlePool[vk.CommandBuffer](),
		semaphores:      newHandlePool[vk.Semaphore](),
		fences:          newHandlePool[vk.Fence](),
		deviceQueues:    make(map[uint64][]uint64),
		swapchainImages: make(map[uint64][]uint64),
		queueLocks:      newQueueLocks(),
	}
}

func (vc *VulkanContext) instance(h metadata.Instance) vk.Instance {
	i, _ := vc.instances.get(uint64(h))
	return i
}

func (vc *VulkanContext) surface(h metadata.Surface) vk.Surface {
	s, ok := vc.surfaces.get(uint64(h))
	if !ok {
		return vk.NullSurface
	}
	return s
}

func (vc *VulkanContext) device(h metadata.Device) vk.Device {
	d, ok := vc.devices.get(uint64(h))
	if !ok {
		return nil
	}
	return d.LogicalDevice
}

func (vc *VulkanContext) semaphore(h metadata.Semaphore) vk.Semaphore {
	s, ok := vc.semaphores.get(uint64(h))
	if !ok {
		return vk.NullSemaphore
	}
	return s
}

func (vc *VulkanContext) fence(h metadata.Fence) vk.Fence {
	f, ok := vc.fences.get(uint64(h))
	if !ok {
		return vk.NullFence
	}
	return f
}

func (vc *VulkanContext) commandBuffer(h metadata.CommandBuffer) vk.CommandBuffer {
	cb, _ := vc.commandBuffers.get(uint64(h))
	return cb
}
