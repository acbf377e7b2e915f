package metadata

// Format, ColorSpace and PresentMode reuse the Vulkan registry values.
type Format uint32

const (
	FormatUndefined     Format = 0
	FormatR8G8B8A8Unorm Format = 37
	FormatR8G8B8A8Srgb  Format = 43
	FormatB8G8R8A8Unorm Format = 44
	FormatB8G8R8A8Srgb  Format = 50
)

type ColorSpace uint32

const ColorSpaceSrgbNonlinear ColorSpace = 0

type PresentMode uint32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFifo:
		return "fifo"
	case PresentModeFifoRelaxed:
		return "fifo-relaxed"
	}
	return "unknown"
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// UndefinedExtent marks a surface whose size is decided by the swapchain.
const UndefinedExtent uint32 = 0xFFFFFFFF

type SurfaceCapabilities struct {
	MinImageCount    uint32
	MaxImageCount    uint32
	CurrentExtent    Extent2D
	MinImageExtent   Extent2D
	MaxImageExtent   Extent2D
	CurrentTransform uint32
}

/** @brief Everything the surface currently supports for a given physical device. */
type SurfaceSupport struct {
	Capabilities SurfaceCapabilities
	Formats      []SurfaceFormat
	PresentModes []PresentMode
}

type SharingMode uint32

const (
	SharingModeExclusive  SharingMode = 0
	SharingModeConcurrent SharingMode = 1
)

/** @brief Parameters for a presentation object. */
type SwapchainConfig struct {
	Surface            Surface
	MinImageCount      uint32
	Format             SurfaceFormat
	Extent             Extent2D
	PresentMode        PresentMode
	PreTransform       uint32
	SharingMode        SharingMode
	QueueFamilyIndices []uint32
	// The previous presentation object, or NullSwapchain.
	OldSwapchain Swapchain
}
