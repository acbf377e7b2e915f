package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/triangle/engine/core"
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

func (vr *VulkanRenderer) CreateSemaphore(device metadata.Device) (metadata.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if res := vk.CreateSemaphore(vr.context.device(device), &semaphoreCreateInfo, vr.context.Allocator, &semaphore); res != vk.Success {
		return metadata.NullSemaphore, resultError("vkCreateSemaphore", res)
	}
	return metadata.Semaphore(vr.context.semaphores.add(semaphore)), nil
}

func (vr *VulkanRenderer) DestroySemaphore(device metadata.Device, semaphore metadata.Semaphore) {
	if s, ok := vr.context.semaphores.take(uint64(semaphore)); ok {
		vk.DestroySemaphore(vr.context.device(device), s, vr.context.Allocator)
	}
}

func (vr *VulkanRenderer) CreateFence(device metadata.Device, signaled bool) (metadata.Fence, error) {
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var fence vk.Fence
	if res := vk.CreateFence(vr.context.device(device), &fenceCreateInfo, vr.context.Allocator, &fence); res != vk.Success {
		return metadata.NullFence, resultError("vkCreateFence", res)
	}
	return metadata.Fence(vr.context.fences.add(fence)), nil
}

func (vr *VulkanRenderer) DestroyFence(device metadata.Device, fence metadata.Fence) {
	if f, ok := vr.context.fences.take(uint64(fence)); ok {
		vk.DestroyFence(vr.context.device(device), f, vr.context.Allocator)
	}
}

// WaitForFence reports a timeout as an error carrying ResultTimeout.
func (vr *VulkanRenderer) WaitForFence(device metadata.Device, fence metadata.Fence, timeout uint64) error {
	result := vk.WaitForFences(vr.context.device(device), 1, []vk.Fence{vr.context.fence(fence)}, vk.True, timeout)
	switch result {
	case vk.Success:
		return nil
	case vk.Timeout:
		core.LogWarn("vk_fence_wait - Timed out")
		return metadata.NewResultError("vkWaitForFences", metadata.ResultTimeout)
	default:
		return resultError("vkWaitForFences", result)
	}
}

func (vr *VulkanRenderer) ResetFence(device metadata.Device, fence metadata.Fence) error {
	if res := vk.ResetFences(vr.context.device(device), 1, []vk.Fence{vr.context.fence(fence)}); res != vk.Success {
		return resultError("vkResetFences", res)
	}
	return nil
}

func (vr *VulkanRenderer) QueueSubmit(queue metadata.Queue, info metadata.SubmitInfo) error {
	q, _ := vr.context.queues.get(uint64(queue))

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{vr.context.semaphore(info.WaitSemaphore)},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(info.WaitStage)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{vr.context.commandBuffer(info.CommandBuffer)},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{vr.context.semaphore(info.SignalSemaphore)},
	}

	return vr.context.queueLocks.SafeQueueCall(q.FamilyIndex, func() error {
		if res := vk.QueueSubmit(q.Handle, 1, []vk.SubmitInfo{submitInfo}, vr.context.fence(info.Fence)); res != vk.Success {
			return resultError("vkQueueSubmit", res)
		}
		return nil
	})
}
