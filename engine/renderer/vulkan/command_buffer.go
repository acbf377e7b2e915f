package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/triangle/engine/core"
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

func (vr *VulkanRenderer) CreateCommandPool(device metadata.Device, queueFamilyIndex uint32) (metadata.CommandPool, error) {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: queueFamilyIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}

	var pool vk.CommandPool
	if res := vk.CreateCommandPool(vr.context.device(device), &poolCreateInfo, vr.context.Allocator, &pool); res != vk.Success {
		return metadata.NullCommandPool, resultError("vkCreateCommandPool", res)
	}
	core.LogDebug("Graphics command pool created.")
	return metadata.CommandPool(vr.context.commandPools.add(&vulkanCommandPool{Handle: pool})), nil
}

func (vr *VulkanRenderer) DestroyCommandPool(device metadata.Device, pool metadata.CommandPool) {
	p, ok := vr.context.commandPools.take(uint64(pool))
	if !ok {
		return
	}
	logical := vr.context.device(device)
	buffers := make([]vk.CommandBuffer, 0, len(p.Buffers))
	for _, h := range p.Buffers {
		if cb, ok := vr.context.commandBuffers.take(h); ok {
			buffers = append(buffers, cb)
		}
	}
	if len(buffers) > 0 {
		vk.FreeCommandBuffers(logical, p.Handle, uint32(len(buffers)), buffers)
	}
	vk.DestroyCommandPool(logical, p.Handle, vr.context.Allocator)
}

func (vr *VulkanRenderer) AllocateCommandBuffers(device metadata.Device, pool metadata.CommandPool, count uint32) ([]metadata.CommandBuffer, error) {
	p, ok := vr.context.commandPools.get(uint64(pool))
	if !ok {
		return nil, resultError("vkAllocateCommandBuffers", vk.ErrorInitializationFailed)
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        p.Handle,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	}

	buffers := make([]vk.CommandBuffer, count)
	if res := vk.AllocateCommandBuffers(vr.context.device(device), &allocateInfo, buffers); res != vk.Success {
		return nil, resultError("vkAllocateCommandBuffers", res)
	}

	out := make([]metadata.CommandBuffer, count)
	for i, cb := range buffers {
		h := vr.context.commandBuffers.add(cb)
		p.Buffers = append(p.Buffers, h)
		out[i] = metadata.CommandBuffer(h)
	}
	return out, nil
}

// BeginCommandBuffer starts a buffer that may be resubmitted while a
// previous submission is still pending.
func (vr *VulkanRenderer) BeginCommandBuffer(buffer metadata.CommandBuffer) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit),
	}
	if res := vk.BeginCommandBuffer(vr.context.commandBuffer(buffer), &beginInfo); res != vk.Success {
		return resultError("vkBeginCommandBuffer", res)
	}
	return nil
}

func (vr *VulkanRenderer) EndCommandBuffer(buffer metadata.CommandBuffer) error {
	if res := vk.EndCommandBuffer(vr.context.commandBuffer(buffer)); res != vk.Success {
		return resultError("vkEndCommandBuffer", res)
	}
	return nil
}

func (vr *VulkanRenderer) CmdSetViewport(buffer metadata.CommandBuffer, viewport metadata.Viewport) {
	vk.CmdSetViewport(vr.context.commandBuffer(buffer), 0, 1, []vk.Viewport{{
		X:        viewport.X,
		Y:        viewport.Y,
		Width:    viewport.Width,
		Height:   viewport.Height,
		MinDepth: viewport.MinDepth,
		MaxDepth: viewport.MaxDepth,
	}})
}

func (vr *VulkanRenderer) CmdSetScissor(buffer metadata.CommandBuffer, scissor metadata.Rect2D) {
	vk.CmdSetScissor(vr.context.commandBuffer(buffer), 0, 1, []vk.Rect2D{{
		Offset: vk.Offset2D{X: scissor.Offset.X, Y: scissor.Offset.Y},
		Extent: vk.Extent2D{Width: scissor.Extent.Width, Height: scissor.Extent.Height},
	}})
}

func (vr *VulkanRenderer) CmdDraw(buffer metadata.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(vr.context.commandBuffer(buffer), vertexCount, instanceCount, firstVertex, firstInstance)
}
