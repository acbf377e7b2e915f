package renderer

import (
	"github.com/spaghettifunk/triangle/engine/core"
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

const shaderEntryPoint = "main"

// ShaderSet names the shader resources the pipeline is built from.
type ShaderSet struct {
	Vertex   string
	Fragment string
}

// RenderPipeline owns the render pass, the pipeline layout and the graphics
// pipeline. It only depends on the image format of the presentation target.
type RenderPipeline struct {
	backend RendererBackend
	device  *DeviceContext

	// Format the render pass was built for.
	Format metadata.Format

	RenderPass metadata.RenderPass
	Layout     metadata.PipelineLayout
	Pipeline   metadata.Pipeline
}

func NewRenderPipeline(dc *DeviceContext, target *PresentationTarget, loader ShaderLoader, shaders ShaderSet) (*RenderPipeline, error) {
	vertCode, err := loader.LoadShader(shaders.Vertex)
	if err != nil {
		return nil, stageError(ErrShaderLoad, "vertex shader load", -1, err)
	}
	fragCode, err := loader.LoadShader(shaders.Fragment)
	if err != nil {
		return nil, stageError(ErrShaderLoad, "fragment shader load", -1, err)
	}

	rp := &RenderPipeline{
		backend: dc.backend,
		device:  dc,
		Format:  target.Format.Format,
	}

	// Shader modules are only needed until the pipeline exists.
	var vertModule, fragModule metadata.ShaderModule
	defer func() {
		if vertModule != metadata.NullShaderModule {
			dc.backend.DestroyShaderModule(dc.Device, vertModule)
		}
		if fragModule != metadata.NullShaderModule {
			dc.backend.DestroyShaderModule(dc.Device, fragModule)
		}
	}()

	if vertModule, err = dc.backend.CreateShaderModule(dc.Device, vertCode); err != nil {
		return nil, stageError(ErrShaderLoad, "vertex shader module creation", -1, err)
	}
	if fragModule, err = dc.backend.CreateShaderModule(dc.Device, fragCode); err != nil {
		return nil, stageError(ErrShaderLoad, "fragment shader module creation", -1, err)
	}

	if rp.RenderPass, err = dc.backend.CreateRenderPass(dc.Device, renderPassConfig(rp.Format)); err != nil {
		return nil, stageError(ErrPipelineCreation, "render pass creation", -1, err)
	}

	if rp.Layout, err = dc.backend.CreatePipelineLayout(dc.Device); err != nil {
		rp.Destroy()
		return nil, stageError(ErrPipelineCreation, "pipeline layout creation", -1, err)
	}

	config := pipelineConfig(rp.Layout, rp.RenderPass, vertModule, fragModule)
	if rp.Pipeline, err = dc.backend.CreateGraphicsPipeline(dc.Device, config); err != nil {
		rp.Destroy()
		return nil, stageError(ErrPipelineCreation, "graphics pipeline creation", -1, err)
	}

	core.LogDebug("Graphics pipeline created")
	return rp, nil
}

// Destroy releases the pipeline, its layout and the render pass in that
// order. It is safe to call more than once.
func (rp *RenderPipeline) Destroy() {
	if rp.Pipeline != metadata.NullPipeline {
		rp.backend.DestroyPipeline(rp.device.Device, rp.Pipeline)
		rp.Pipeline = metadata.NullPipeline
	}
	if rp.Layout != metadata.NullPipelineLayout {
		rp.backend.DestroyPipelineLayout(rp.device.Device, rp.Layout)
		rp.Layout = metadata.NullPipelineLayout
	}
	if rp.RenderPass != metadata.NullRenderPass {
		rp.backend.DestroyRenderPass(rp.device.Device, rp.RenderPass)
		rp.RenderPass = metadata.NullRenderPass
	}
}

func renderPassConfig(format metadata.Format) metadata.RenderPassConfig {
	return metadata.RenderPassConfig{
		ColorAttachment: metadata.ColorAttachment{
			Format:        format,
			Samples:       1,
			LoadOp:        metadata.AttachmentLoadOpClear,
			StoreOp:       metadata.AttachmentStoreOpStore,
			InitialLayout: metadata.ImageLayoutUndefined,
			FinalLayout:   metadata.ImageLayoutPresentSrc,
			SubpassLayout: metadata.ImageLayoutColorAttachmentOptimal,
		},
		// Color writes wait for the image to be released by the presentation engine.
		Dependencies: []metadata.SubpassDependency{{
			SrcSubpass:    metadata.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  metadata.PipelineStageColorAttachmentOutput,
			DstStageMask:  metadata.PipelineStageColorAttachmentOutput,
			SrcAccessMask: 0,
			DstAccessMask: metadata.AccessColorAttachmentWrite,
		}},
	}
}

func pipelineConfig(layout metadata.PipelineLayout, pass metadata.RenderPass, vert, frag metadata.ShaderModule) metadata.GraphicsPipelineConfig {
	return metadata.GraphicsPipelineConfig{
		Stages: []metadata.PipelineShaderStage{
			{Stage: metadata.ShaderStageVertex, Module: vert, EntryPoint: shaderEntryPoint},
			{Stage: metadata.ShaderStageFragment, Module: frag, EntryPoint: shaderEntryPoint},
		},
		VertexBindingCount: 0,
		Topology:           metadata.PrimitiveTopologyTriangleList,
		PolygonMode:        metadata.PolygonModeFill,
		CullMode:           metadata.CullModeBack,
		FrontFace:          metadata.FrontFaceClockwise,
		LineWidth:          1.0,
		Samples:            1,
		DepthTest:          false,
		BlendEnable:        false,
		ColorWriteMask:     metadata.ColorComponentAll,
		DynamicStates:      []metadata.DynamicState{metadata.DynamicStateViewport, metadata.DynamicStateScissor},
		Layout:             layout,
		RenderPass:         pass,
		Subpass:            0,
	}
}
