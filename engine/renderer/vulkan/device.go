package vulkan

import (
	"errors"
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/triangle/engine/core"
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

const portabilitySubsetExtension = "VK_KHR_portability_subset"

// ErrNoSuitableDevice is returned when no physical device meets the
// requirements.
var ErrNoSuitableDevice = errors.New("no physical device meets the requirements")

// deviceCandidate is what selection learns about one physical device.
type deviceCandidate struct {
	Index          int
	Name           string
	Type           metadata.PhysicalDeviceType
	APIVersion     metadata.APIVersion
	GraphicsFamily int32
	PresentFamily  int32
	Extensions     []string
	FormatCount    int
	PresentModes   int
}

// unsuitable returns why c cannot be used, or "" when it can.
func (c deviceCandidate) unsuitable(requirements metadata.DeviceRequirements) string {
	if c.APIVersion < requirements.MinAPIVersion {
		return fmt.Sprintf("API version %d.%d is below %d.%d",
			c.APIVersion.Major(), c.APIVersion.Minor(),
			requirements.MinAPIVersion.Major(), requirements.MinAPIVersion.Minor())
	}
	if c.GraphicsFamily < 0 {
		return "no graphics queue family"
	}
	if c.PresentFamily < 0 {
		return "no queue family can present to the surface"
	}
	if missing, ok := containsAll(c.Extensions, requirements.DeviceExtensions); !ok {
		return fmt.Sprintf("required extension not found: '%s'", missing)
	}
	if c.FormatCount == 0 || c.PresentModes == 0 {
		return "required swapchain support not present"
	}
	return ""
}

func typeScore(t metadata.PhysicalDeviceType) int {
	switch t {
	case metadata.PhysicalDeviceTypeDiscreteGPU:
		return 3
	case metadata.PhysicalDeviceTypeIntegratedGPU:
		return 2
	case metadata.PhysicalDeviceTypeVirtualGPU:
		return 1
	}
	return 0
}

// pickCandidate returns the position of the best suitable candidate. A
// discrete GPU wins over anything else; ties go to enumeration order.
func pickCandidate(candidates []deviceCandidate, requirements metadata.DeviceRequirements) (int, bool) {
	best, bestScore := -1, -1
	for i, c := range candidates {
		if reason := c.unsuitable(requirements); reason != "" {
			core.LogInfo("Skipping device '%s': %s", c.Name, reason)
			continue
		}
		if s := typeScore(c.Type); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best, best >= 0
}

// queueFamilies picks the graphics and present families, preferring a single
// family that can do both. Missing families are -1.
func queueFamilies(graphics []bool, present []bool) (int32, int32) {
	g, p := int32(-1), int32(-1)
	for i := range graphics {
		if graphics[i] && present[i] {
			return int32(i), int32(i)
		}
		if graphics[i] && g < 0 {
			g = int32(i)
		}
		if present[i] && p < 0 {
			p = int32(i)
		}
	}
	return g, p
}

func (vr *VulkanRenderer) SelectPhysicalDevice(instance metadata.Instance, surface metadata.Surface, requirements metadata.DeviceRequirements) (metadata.PhysicalDeviceInfo, error) {
	var count uint32
	if res := vk.EnumeratePhysicalDevices(vr.context.instance(instance), &count, nil); res != vk.Success {
		return metadata.PhysicalDeviceInfo{}, resultError("vkEnumeratePhysicalDevices", res)
	}
	if count == 0 {
		core.LogError("No devices which support Vulkan were found.")
		return metadata.PhysicalDeviceInfo{}, ErrNoSuitableDevice
	}
	devices := make([]vk.PhysicalDevice, count)
	if res := vk.EnumeratePhysicalDevices(vr.context.instance(instance), &count, devices); res != vk.Success {
		return metadata.PhysicalDeviceInfo{}, resultError("vkEnumeratePhysicalDevices", res)
	}

	vkSurface := vr.context.surface(surface)
	candidates := make([]deviceCandidate, 0, count)
	for i, pd := range devices {
		c, err := describeDevice(pd, vkSurface)
		if err != nil {
			return metadata.PhysicalDeviceInfo{}, err
		}
		c.Index = i
		candidates = append(candidates, c)
	}

	best, ok := pickCandidate(candidates, requirements)
	if !ok {
		core.LogError("No physical devices were found which meet the requirements.")
		return metadata.PhysicalDeviceInfo{}, ErrNoSuitableDevice
	}
	c := candidates[best]
	core.LogDebug("Graphics Family Index: %d", c.GraphicsFamily)
	core.LogDebug("Present Family Index:  %d", c.PresentFamily)

	return metadata.PhysicalDeviceInfo{
		Handle:              metadata.PhysicalDevice(vr.context.physicalDevices.add(devices[c.Index])),
		Name:                c.Name,
		Type:                c.Type,
		APIVersion:          c.APIVersion,
		GraphicsFamilyIndex: uint32(c.GraphicsFamily),
		PresentFamilyIndex:  uint32(c.PresentFamily),
	}, nil
}

func describeDevice(pd vk.PhysicalDevice, surface vk.Surface) (deviceCandidate, error) {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &properties)
	properties.Deref()

	c := deviceCandidate{
		Name:       cString(properties.DeviceName[:]),
		Type:       metadata.PhysicalDeviceType(properties.DeviceType),
		APIVersion: metadata.APIVersion(properties.ApiVersion),
	}

	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &familyCount, nil)
	families := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &familyCount, families)

	graphics := make([]bool, familyCount)
	present := make([]bool, familyCount)
	for i := range families {
		families[i].Deref()
		graphics[i] = vk.QueueFlagBits(families[i].QueueFlags)&vk.QueueGraphicsBit != 0
		var supportsPresent vk.Bool32 = vk.False
		if res := vk.GetPhysicalDeviceSurfaceSupport(pd, uint32(i), surface, &supportsPresent); res != vk.Success {
			return c, resultError("vkGetPhysicalDeviceSurfaceSupportKHR", res)
		}
		present[i] = supportsPresent == vk.True
	}
	c.GraphicsFamily, c.PresentFamily = queueFamilies(graphics, present)

	extensions, err := deviceExtensions(pd)
	if err != nil {
		return c, err
	}
	c.Extensions = extensions

	support, err := querySurfaceSupport(pd, surface)
	if err != nil {
		return c, err
	}
	c.FormatCount = len(support.Formats)
	c.PresentModes = len(support.PresentModes)
	return c, nil
}

func deviceExtensions(pd vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(pd, "", &count, nil); res != vk.Success {
		return nil, resultError("vkEnumerateDeviceExtensionProperties", res)
	}
	properties := make([]vk.ExtensionProperties, count)
	if count > 0 {
		if res := vk.EnumerateDeviceExtensionProperties(pd, "", &count, properties); res != vk.Success {
			return nil, resultError("vkEnumerateDeviceExtensionProperties", res)
		}
	}
	names := make([]string, 0, count)
	for i := range properties {
		properties[i].Deref()
		names = append(names, cString(properties[i].ExtensionName[:]))
	}
	return names, nil
}

func (vr *VulkanRenderer) CreateDevice(physical metadata.PhysicalDeviceInfo, extensions []string) (metadata.DeviceQueues, error) {
	pd, ok := vr.context.physicalDevices.get(uint64(physical.Handle))
	if !ok {
		return metadata.DeviceQueues{}, resultError("vkCreateDevice", vk.ErrorInitializationFailed)
	}

	core.LogInfo("Creating logical device...")

	// Do not create additional queues for shared indices.
	indices := []uint32{physical.GraphicsFamilyIndex}
	if physical.PresentFamilyIndex != physical.GraphicsFamilyIndex {
		indices = append(indices, physical.PresentFamilyIndex)
	}
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(indices))
	for i, family := range indices {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	available, err := deviceExtensions(pd)
	if err != nil {
		return metadata.DeviceQueues{}, err
	}
	enabled := append([]string{}, extensions...)
	if _, ok := containsAll(available, []string{portabilitySubsetExtension}); ok {
		core.LogInfo("Adding required extension '%s'.", portabilitySubsetExtension)
		enabled = append(enabled, portabilitySubsetExtension)
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(enabled)),
		PpEnabledExtensionNames: VulkanSafeStrings(enabled),
	}

	var logical vk.Device
	if res := vk.CreateDevice(pd, &deviceCreateInfo, vr.context.Allocator, &logical); res != vk.Success {
		return metadata.DeviceQueues{}, resultError("vkCreateDevice", res)
	}
	core.LogInfo("Logical device created.")

	var graphicsQueue, presentQueue vk.Queue
	vk.GetDeviceQueue(logical, physical.GraphicsFamilyIndex, 0, &graphicsQueue)
	vk.GetDeviceQueue(logical, physical.PresentFamilyIndex, 0, &presentQueue)

	device := vr.context.devices.add(&vulkanDevice{PhysicalDevice: pd, LogicalDevice: logical})
	out := metadata.DeviceQueues{
		Device:              metadata.Device(device),
		GraphicsQueue:       metadata.Queue(vr.context.queues.add(vulkanQueue{Handle: graphicsQueue, FamilyIndex: physical.GraphicsFamilyIndex})),
		PresentQueue:        metadata.Queue(vr.context.queues.add(vulkanQueue{Handle: presentQueue, FamilyIndex: physical.PresentFamilyIndex})),
		GraphicsFamilyIndex: physical.GraphicsFamilyIndex,
		PresentFamilyIndex:  physical.PresentFamilyIndex,
	}
	vr.context.deviceQueues[device] = []uint64{uint64(out.GraphicsQueue), uint64(out.PresentQueue)}
	core.LogInfo("Queues obtained.")
	return out, nil
}

func (vr *VulkanRenderer) DestroyDevice(device metadata.Device) {
	d, ok := vr.context.devices.take(uint64(device))
	if !ok {
		return
	}
	for _, q := range vr.context.deviceQueues[uint64(device)] {
		vr.context.queues.take(q)
	}
	delete(vr.context.deviceQueues, uint64(device))

	core.LogInfo("Destroying logical device...")
	vk.DestroyDevice(d.LogicalDevice, vr.context.Allocator)
}

func (vr *VulkanRenderer) DeviceWaitIdle(device metadata.Device) error {
	if res := vk.DeviceWaitIdle(vr.context.device(device)); res != vk.Success {
		return resultError("vkDeviceWaitIdle", res)
	}
	return nil
}

func (vr *VulkanRenderer) QuerySurfaceSupport(physical metadata.PhysicalDevice, surface metadata.Surface) (metadata.SurfaceSupport, error) {
	pd, ok := vr.context.physicalDevices.get(uint64(physical))
	if !ok {
		return metadata.SurfaceSupport{}, resultError("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", vk.ErrorInitializationFailed)
	}
	return querySurfaceSupport(pd, vr.context.surface(surface))
}

func querySurfaceSupport(pd vk.PhysicalDevice, surface vk.Surface) (metadata.SurfaceSupport, error) {
	var support metadata.SurfaceSupport

	var capabilities vk.SurfaceCapabilities
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(pd, surface, &capabilities); res != vk.Success {
		return support, resultError("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", res)
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()
	support.Capabilities = metadata.SurfaceCapabilities{
		MinImageCount:    capabilities.MinImageCount,
		MaxImageCount:    capabilities.MaxImageCount,
		CurrentExtent:    metadata.Extent2D{Width: capabilities.CurrentExtent.Width, Height: capabilities.CurrentExtent.Height},
		MinImageExtent:   metadata.Extent2D{Width: capabilities.MinImageExtent.Width, Height: capabilities.MinImageExtent.Height},
		MaxImageExtent:   metadata.Extent2D{Width: capabilities.MaxImageExtent.Width, Height: capabilities.MaxImageExtent.Height},
		CurrentTransform: uint32(capabilities.CurrentTransform),
	}

	var formatCount uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &formatCount, nil); res != vk.Success {
		return support, resultError("vkGetPhysicalDeviceSurfaceFormatsKHR", res)
	}
	if formatCount != 0 {
		formats := make([]vk.SurfaceFormat, formatCount)
		if res := vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &formatCount, formats); res != vk.Success {
			return support, resultError("vkGetPhysicalDeviceSurfaceFormatsKHR", res)
		}
		for i := range formats {
			formats[i].Deref()
			support.Formats = append(support.Formats, metadata.SurfaceFormat{
				Format:     metadata.Format(formats[i].Format),
				ColorSpace: metadata.ColorSpace(formats[i].ColorSpace),
			})
		}
	}

	var modeCount uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &modeCount, nil); res != vk.Success {
		return support, resultError("vkGetPhysicalDeviceSurfacePresentModesKHR", res)
	}
	if modeCount != 0 {
		modes := make([]vk.PresentMode, modeCount)
		if res := vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &modeCount, modes); res != vk.Success {
			return support, resultError("vkGetPhysicalDeviceSurfacePresentModesKHR", res)
		}
		for _, m := range modes {
			support.PresentModes = append(support.PresentModes, metadata.PresentMode(m))
		}
	}
	return support, nil
}
