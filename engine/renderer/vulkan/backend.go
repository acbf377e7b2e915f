package vulkan

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/triangle/engine/core"
	"github.com/spaghettifunk/triangle/engine/renderer"
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

var _ renderer.RendererBackend = (*VulkanRenderer)(nil)

// VulkanRenderer implements renderer.RendererBackend on top of the system
// Vulkan loader.
type VulkanRenderer struct {
	procAddr unsafe.Pointer
	context  *VulkanContext

	initOnce sync.Once
	initErr  error
}

// New takes the loader entry point, usually
// glfw.GetVulkanGetInstanceProcAddress().
func New(procAddr unsafe.Pointer) *VulkanRenderer {
	return &VulkanRenderer{
		procAddr: procAddr,
		context:  newVulkanContext(),
	}
}

func (vr *VulkanRenderer) init() error {
	vr.initOnce.Do(func() {
		if vr.procAddr == nil {
			vr.initErr = errors.New("GetInstanceProcAddress is nil")
			return
		}
		vk.SetGetInstanceProcAddr(vr.procAddr)
		if err := vk.Init(); err != nil {
			vr.initErr = fmt.Errorf("failed to initialize vk: %w", err)
		}
	})
	return vr.initErr
}

func (vr *VulkanRenderer) CreateInstance(config metadata.InstanceConfig) (metadata.Instance, error) {
	if err := vr.init(); err != nil {
		core.LogError(err.Error())
		return metadata.NullInstance, err
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         instanceAPIVersion(config.APIVersion),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		EngineVersion:      uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(config.ApplicationName),
		PEngineName:        VulkanSafeString(config.EngineName),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := append([]string{}, config.RequiredExtensions...)
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var layers []string
	if config.Validation {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)

		core.LogDebug("Validation layers enabled. Enumerating...")
		available, err := availableLayers()
		if err != nil {
			return metadata.NullInstance, err
		}
		if missing, ok := containsAll(available, []string{validationLayer}); !ok {
			core.LogError("Required validation layer is missing: %s", missing)
			return metadata.NullInstance, resultError("vkCreateInstance", vk.ErrorLayerNotPresent)
		}
		layers = []string{validationLayer}
		core.LogDebug("All required validation layers are present.")
	}

	for _, ext := range requiredExtensions {
		core.LogDebug("Required extension: %s", ext)
	}

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &instance); res != vk.Success {
		return metadata.NullInstance, resultError("vkCreateInstance", res)
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, vr.context.Allocator)
		core.LogError(err.Error())
		return metadata.NullInstance, err
	}

	core.LogInfo("Vulkan Instance created.")
	return metadata.Instance(vr.context.instances.add(instance)), nil
}

func availableLayers() ([]string, error) {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return nil, resultError("vkEnumerateInstanceLayerProperties", res)
	}
	layers := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, layers); res != vk.Success {
		return nil, resultError("vkEnumerateInstanceLayerProperties", res)
	}
	names := make([]string, 0, count)
	for i := range layers {
		layers[i].Deref()
		names = append(names, cString(layers[i].LayerName[:]))
	}
	return names, nil
}

func (vr *VulkanRenderer) DestroyInstance(instance metadata.Instance) {
	if i, ok := vr.context.instances.take(uint64(instance)); ok {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(i, vr.context.Allocator)
	}
}

func (vr *VulkanRenderer) CreateDebugCallback(instance metadata.Instance, sink metadata.DiagnosticSink) (metadata.DebugCallback, error) {
	cb := &vulkanDebugCallback{Sink: sink}
	debugCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
			vk.DebugReportPerformanceWarningBit | vk.DebugReportInformationBit),
		PfnCallback: cb.report,
	}

	var dbg vk.DebugReportCallback
	if res := vk.CreateDebugReportCallback(vr.context.instance(instance), &debugCreateInfo, vr.context.Allocator, &dbg); res != vk.Success {
		return metadata.NullDebugCallback, resultError("vkCreateDebugReportCallbackEXT", res)
	}
	cb.Handle = dbg
	core.LogDebug("Vulkan debugger created.")
	return metadata.DebugCallback(vr.context.debugCallbacks.add(cb)), nil
}

func (vr *VulkanRenderer) DestroyDebugCallback(instance metadata.Instance, callback metadata.DebugCallback) {
	if cb, ok := vr.context.debugCallbacks.take(uint64(callback)); ok {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(vr.context.instance(instance), cb.Handle, vr.context.Allocator)
	}
}

func (cb *vulkanDebugCallback) report(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	cb.Sink(reportSeverity(flags), pLayerPrefix, fmt.Sprintf("code %d: %s", messageCode, pMessage))
	return vk.Bool32(vk.False)
}

func reportSeverity(flags vk.DebugReportFlags) metadata.Severity {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		return metadata.SeverityError
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		return metadata.SeverityPerformance
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		return metadata.SeverityWarning
	case flags&vk.DebugReportFlags(vk.DebugReportInformationBit) != 0:
		return metadata.SeverityInfo
	default:
		return metadata.SeverityVerbose
	}
}

func (vr *VulkanRenderer) CreateSurface(instance metadata.Instance, window metadata.NativeWindow) (metadata.Surface, error) {
	core.LogDebug("Creating Vulkan surface...")
	ptr, err := window.CreateWindowSurface(vr.context.instance(instance), nil)
	if err != nil {
		core.LogError("Vulkan surface creation failed: %s", err)
		return metadata.NullSurface, err
	}
	surface := vk.SurfaceFromPointer(ptr)
	core.LogDebug("Vulkan surface created.")
	return metadata.Surface(vr.context.surfaces.add(surface)), nil
}

func (vr *VulkanRenderer) DestroySurface(instance metadata.Instance, surface metadata.Surface) {
	if s, ok := vr.context.surfaces.take(uint64(surface)); ok {
		core.LogDebug("Destroying Vulkan surface...")
		vk.DestroySurface(vr.context.instance(instance), s, vr.context.Allocator)
	}
}
