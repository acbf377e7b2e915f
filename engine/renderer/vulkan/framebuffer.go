package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

func (vr *VulkanRenderer) CreateFramebuffer(device metadata.Device, config metadata.FramebufferConfig) (metadata.Framebuffer, error) {
	renderPass, _ := vr.context.renderPasses.get(uint64(config.RenderPass))
	attachments := make([]vk.ImageView, len(config.Attachments))
	for i, a := range config.Attachments {
		attachments[i], _ = vr.context.imageViews.get(uint64(a))
	}

	framebufferCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           config.Extent.Width,
		Height:          config.Extent.Height,
		Layers:          config.Layers,
	}

	var framebuffer vk.Framebuffer
	if res := vk.CreateFramebuffer(vr.context.device(device), &framebufferCreateInfo, vr.context.Allocator, &framebuffer); res != vk.Success {
		return metadata.NullFramebuffer, resultError("vkCreateFramebuffer", res)
	}
	return metadata.Framebuffer(vr.context.framebuffers.add(framebuffer)), nil
}

func (vr *VulkanRenderer) DestroyFramebuffer(device metadata.Device, framebuffer metadata.Framebuffer) {
	if fb, ok := vr.context.framebuffers.take(uint64(framebuffer)); ok {
		vk.DestroyFramebuffer(vr.context.device(device), fb, vr.context.Allocator)
	}
}
