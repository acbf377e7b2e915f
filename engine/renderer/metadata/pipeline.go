package metadata

type ShaderStage uint32

const (
	ShaderStageVertex   ShaderStage = 0x01
	ShaderStageFragment ShaderStage = 0x10
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	}
	return "unknown"
}

type AttachmentLoadOp uint32

const (
	AttachmentLoadOpLoad     AttachmentLoadOp = 0
	AttachmentLoadOpClear    AttachmentLoadOp = 1
	AttachmentLoadOpDontCare AttachmentLoadOp = 2
)

type AttachmentStoreOp uint32

const (
	AttachmentStoreOpStore    AttachmentStoreOp = 0
	AttachmentStoreOpDontCare AttachmentStoreOp = 1
)

type ImageLayout uint32

const (
	ImageLayoutUndefined              ImageLayout = 0
	ImageLayoutColorAttachmentOptimal ImageLayout = 2
	ImageLayoutPresentSrc             ImageLayout = 1000001002
)

type PipelineStage uint32

const PipelineStageColorAttachmentOutput PipelineStage = 0x00000400

type Access uint32

const (
	AccessColorAttachmentRead  Access = 0x00000080
	AccessColorAttachmentWrite Access = 0x00000100
)

// SubpassExternal names the implicit subpass outside the render pass.
const SubpassExternal uint32 = 0xFFFFFFFF

/** @brief A single color attachment of a render pass. */
type ColorAttachment struct {
	Format        Format
	Samples       uint32
	LoadOp        AttachmentLoadOp
	StoreOp       AttachmentStoreOp
	InitialLayout ImageLayout
	FinalLayout   ImageLayout
	// Layout while the subpass writes to it.
	SubpassLayout ImageLayout
}

type SubpassDependency struct {
	SrcSubpass    uint32
	DstSubpass    uint32
	SrcStageMask  PipelineStage
	DstStageMask  PipelineStage
	SrcAccessMask Access
	DstAccessMask Access
}

/** @brief A single-subpass render pass description. */
type RenderPassConfig struct {
	ColorAttachment ColorAttachment
	Dependencies    []SubpassDependency
}

type PrimitiveTopology uint32

const PrimitiveTopologyTriangleList PrimitiveTopology = 3

type PolygonMode uint32

const (
	PolygonModeFill PolygonMode = 0
	PolygonModeLine PolygonMode = 1
)

type CullMode uint32

const (
	CullModeNone  CullMode = 0
	CullModeFront CullMode = 1
	CullModeBack  CullMode = 2
)

type FrontFace uint32

const (
	FrontFaceCounterClockwise FrontFace = 0
	FrontFaceClockwise        FrontFace = 1
)

type DynamicState uint32

const (
	DynamicStateViewport DynamicState = 0
	DynamicStateScissor  DynamicState = 1
)

type ColorComponent uint32

const (
	ColorComponentR   ColorComponent = 0x1
	ColorComponentG   ColorComponent = 0x2
	ColorComponentB   ColorComponent = 0x4
	ColorComponentA   ColorComponent = 0x8
	ColorComponentAll                = ColorComponentR | ColorComponentG | ColorComponentB | ColorComponentA
)

type PipelineShaderStage struct {
	Stage      ShaderStage
	Module     ShaderModule
	EntryPoint string
}

/** @brief Fixed-function and shader state of a graphics pipeline. */
type GraphicsPipelineConfig struct {
	Stages []PipelineShaderStage
	// Zero means all vertices are generated in the vertex stage.
	VertexBindingCount uint32
	Topology           PrimitiveTopology
	PolygonMode        PolygonMode
	CullMode           CullMode
	FrontFace          FrontFace
	LineWidth          float32
	Samples            uint32
	DepthTest          bool
	BlendEnable        bool
	ColorWriteMask     ColorComponent
	DynamicStates      []DynamicState
	Layout             PipelineLayout
	RenderPass         RenderPass
	Subpass            uint32
}

type FramebufferConfig struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Extent      Extent2D
	Layers      uint32
}

type RenderPassBeginInfo struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	RenderArea  Rect2D
	ClearColor  [4]float32
}

/** @brief One queue submission gated by a wait semaphore. */
type SubmitInfo struct {
	WaitSemaphore   Semaphore
	WaitStage       PipelineStage
	CommandBuffer   CommandBuffer
	SignalSemaphore Semaphore
	// Signaled when the submission completes.
	Fence Fence
}

type PresentInfo struct {
	WaitSemaphore Semaphore
	Swapchain     Swapchain
	ImageIndex    uint32
}
