package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/triangle/engine/core"
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

// CreatePipelineLayout creates a layout with no descriptor sets and no push
// constants.
func (vr *VulkanRenderer) CreatePipelineLayout(device metadata.Device) (metadata.PipelineLayout, error) {
	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         0,
		PushConstantRangeCount: 0,
	}

	var layout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(vr.context.device(device), &pipelineLayoutCreateInfo, vr.context.Allocator, &layout); res != vk.Success {
		return metadata.NullPipelineLayout, resultError("vkCreatePipelineLayout", res)
	}
	return metadata.PipelineLayout(vr.context.pipelineLayouts.add(layout)), nil
}

func (vr *VulkanRenderer) DestroyPipelineLayout(device metadata.Device, layout metadata.PipelineLayout) {
	if l, ok := vr.context.pipelineLayouts.take(uint64(layout)); ok {
		vk.DestroyPipelineLayout(vr.context.device(device), l, vr.context.Allocator)
	}
}

func (vr *VulkanRenderer) CreateGraphicsPipeline(device metadata.Device, config metadata.GraphicsPipelineConfig) (metadata.Pipeline, error) {
	stages := vr.shaderStages(config.Stages)

	// Vertices come from the vertex stage itself.
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                         vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount: config.VertexBindingCount,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopology(config.Topology),
		PrimitiveRestartEnable: vk.False,
	}

	// Viewport and scissor are dynamic; only the counts are fixed.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonMode(config.PolygonMode),
		LineWidth:               config.LineWidth,
		CullMode:                vk.CullModeFlags(config.CullMode),
		FrontFace:               vk.FrontFace(config.FrontFace),
		DepthBiasEnable:         vk.False,
	}

	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:   vk.False,
		RasterizationSamples:  vk.SampleCountFlagBits(config.Samples),
		MinSampleShading:      1.0,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}

	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:             vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:   vkBool(config.DepthTest),
		DepthWriteEnable:  vkBool(config.DepthTest),
		DepthCompareOp:    vk.CompareOpLess,
		StencilTestEnable: vk.False,
	}

	colorBlendAttachmentState := vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vkBool(config.BlendEnable),
		SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
		DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorSrcAlpha,
		DstAlphaBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		AlphaBlendOp:        vk.BlendOpAdd,
		ColorWriteMask:      vk.ColorComponentFlags(config.ColorWriteMask),
	}

	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentState},
	}

	dynamicStates := make([]vk.DynamicState, len(config.DynamicStates))
	for i, d := range config.DynamicStates {
		dynamicStates[i] = vk.DynamicState(d)
	}
	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	layout, _ := vr.context.pipelineLayouts.get(uint64(config.Layout))
	renderPass, _ := vr.context.renderPasses.get(uint64(config.RenderPass))

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		Layout:              layout,
		RenderPass:          renderPass,
		Subpass:             config.Subpass,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(
		vr.context.device(device),
		vk.NullPipelineCache,
		1,
		[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo},
		vr.context.Allocator,
		pipelines); res != vk.Success {
		return metadata.NullPipeline, resultError("vkCreateGraphicsPipelines", res)
	}

	core.LogDebug("Graphics pipeline created!")
	return metadata.Pipeline(vr.context.pipelines.add(pipelines[0])), nil
}

func (vr *VulkanRenderer) DestroyPipeline(device metadata.Device, pipeline metadata.Pipeline) {
	if p, ok := vr.context.pipelines.take(uint64(pipeline)); ok {
		vk.DestroyPipeline(vr.context.device(device), p, vr.context.Allocator)
	}
}

func (vr *VulkanRenderer) CmdBindPipeline(buffer metadata.CommandBuffer, pipeline metadata.Pipeline) {
	p, _ := vr.context.pipelines.get(uint64(pipeline))
	vk.CmdBindPipeline(vr.context.commandBuffer(buffer), vk.PipelineBindPointGraphics, p)
}
