package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

func (vr *VulkanRenderer) CreateRenderPass(device metadata.Device, config metadata.RenderPassConfig) (metadata.RenderPass, error) {
	color := config.ColorAttachment
	colorAttachment := vk.AttachmentDescription{
		Format:         vk.Format(color.Format),
		Samples:        vk.SampleCountFlagBits(color.Samples),
		LoadOp:         vk.AttachmentLoadOp(color.LoadOp),
		StoreOp:        vk.AttachmentStoreOp(color.StoreOp),
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayout(color.InitialLayout),
		FinalLayout:    vk.ImageLayout(color.FinalLayout),
	}

	colorAttachmentReference := []vk.AttachmentReference{
		{
			Attachment: 0,
			Layout:     vk.ImageLayout(color.SubpassLayout),
		},
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorAttachmentReference,
	}

	dependencies := make([]vk.SubpassDependency, len(config.Dependencies))
	for i, d := range config.Dependencies {
		dependencies[i] = vk.SubpassDependency{
			SrcSubpass:    d.SrcSubpass,
			DstSubpass:    d.DstSubpass,
			SrcStageMask:  vk.PipelineStageFlags(d.SrcStageMask),
			DstStageMask:  vk.PipelineStageFlags(d.DstStageMask),
			SrcAccessMask: vk.AccessFlags(d.SrcAccessMask),
			DstAccessMask: vk.AccessFlags(d.DstAccessMask),
		}
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}

	var renderPass vk.RenderPass
	if res := vk.CreateRenderPass(vr.context.device(device), &renderpassCreateInfo, vr.context.Allocator, &renderPass); res != vk.Success {
		return metadata.NullRenderPass, resultError("vkCreateRenderPass", res)
	}
	return metadata.RenderPass(vr.context.renderPasses.add(renderPass)), nil
}

func (vr *VulkanRenderer) DestroyRenderPass(device metadata.Device, pass metadata.RenderPass) {
	if rp, ok := vr.context.renderPasses.take(uint64(pass)); ok {
		vk.DestroyRenderPass(vr.context.device(device), rp, vr.context.Allocator)
	}
}

func (vr *VulkanRenderer) CmdBeginRenderPass(buffer metadata.CommandBuffer, info metadata.RenderPassBeginInfo) {
	rp, _ := vr.context.renderPasses.get(uint64(info.RenderPass))
	fb, _ := vr.context.framebuffers.get(uint64(info.Framebuffer))

	clearValues := make([]vk.ClearValue, 1)
	clearValues[0].SetColor(info.ClearColor[:])

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp,
		Framebuffer: fb,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: info.RenderArea.Offset.X, Y: info.RenderArea.Offset.Y},
			Extent: vk.Extent2D{Width: info.RenderArea.Extent.Width, Height: info.RenderArea.Extent.Height},
		},
		ClearValueCount: 1,
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(vr.context.commandBuffer(buffer), &beginInfo, vk.SubpassContentsInline)
}

func (vr *VulkanRenderer) CmdEndRenderPass(buffer metadata.CommandBuffer) {
	vk.CmdEndRenderPass(vr.context.commandBuffer(buffer))
}
