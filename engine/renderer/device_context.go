package renderer

import (
	"github.com/spaghettifunk/triangle/engine/core"
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

const swapchainExtension = "VK_KHR_swapchain"

type DeviceConfig struct {
	ApplicationName string
	Validation      bool
	MinAPIVersion   metadata.APIVersion
	// Sink receives validation messages. May be nil.
	Sink metadata.DiagnosticSink
}

// DeviceContext owns the instance, the presentation surface, the logical
// device and its queues. It outlives every other renderer object.
type DeviceContext struct {
	backend RendererBackend

	Instance       metadata.Instance
	DebugCallback  metadata.DebugCallback
	Surface        metadata.Surface
	PhysicalDevice metadata.PhysicalDeviceInfo
	Device         metadata.Device
	GraphicsQueue  metadata.Queue
	PresentQueue   metadata.Queue

	GraphicsFamilyIndex uint32
	PresentFamilyIndex  uint32
}

// NewDeviceContext creates the instance, surface and device for window. When
// it fails, everything it created has already been released.
func NewDeviceContext(backend RendererBackend, window Window, config DeviceConfig) (*DeviceContext, error) {
	dc := &DeviceContext{backend: backend}

	instance, err := backend.CreateInstance(metadata.InstanceConfig{
		ApplicationName:    config.ApplicationName,
		EngineName:         "Triangle",
		APIVersion:         config.MinAPIVersion,
		RequiredExtensions: window.RequiredInstanceExtensions(),
		Validation:         config.Validation,
		Sink:               config.Sink,
	})
	if err != nil {
		return nil, stageError(ErrInitialization, "instance creation", -1, err)
	}
	dc.Instance = instance

	if config.Validation && config.Sink != nil {
		// The validation channel is advisory: losing it is not fatal.
		cb, err := backend.CreateDebugCallback(instance, config.Sink)
		if err != nil {
			core.LogWarn("debug callback unavailable: %s", err)
		} else {
			dc.DebugCallback = cb
		}
	}

	surface, err := backend.CreateSurface(instance, window.Native())
	if err != nil {
		dc.Destroy()
		return nil, stageError(ErrInitialization, "surface creation", -1, err)
	}
	dc.Surface = surface

	physical, err := backend.SelectPhysicalDevice(instance, surface, metadata.DeviceRequirements{
		MinAPIVersion:    config.MinAPIVersion,
		DeviceExtensions: []string{swapchainExtension},
	})
	if err != nil {
		dc.Destroy()
		return nil, stageError(ErrInitialization, "device selection", -1, err)
	}
	dc.PhysicalDevice = physical
	core.LogInfo("Selected device: '%s' (%s) API %d.%d.%d", physical.Name, physical.Type,
		physical.APIVersion.Major(), physical.APIVersion.Minor(), physical.APIVersion.Patch())

	queues, err := backend.CreateDevice(physical, []string{swapchainExtension})
	if err != nil {
		dc.Destroy()
		return nil, stageError(ErrInitialization, "logical device creation", -1, err)
	}
	dc.Device = queues.Device
	dc.GraphicsQueue = queues.GraphicsQueue
	dc.PresentQueue = queues.PresentQueue
	dc.GraphicsFamilyIndex = queues.GraphicsFamilyIndex
	dc.PresentFamilyIndex = queues.PresentFamilyIndex

	core.LogDebug("Logical device created (graphics family %d, present family %d)",
		dc.GraphicsFamilyIndex, dc.PresentFamilyIndex)
	return dc, nil
}

// WaitIdle blocks until the device has finished all submitted work.
func (dc *DeviceContext) WaitIdle() error {
	if dc.Device == metadata.NullDevice {
		return nil
	}
	if err := dc.backend.DeviceWaitIdle(dc.Device); err != nil {
		return stageError(ErrSynchronization, "device idle wait", -1, err)
	}
	return nil
}

// Destroy releases the device, the surface, the debug callback and the
// instance in that order. It is safe to call more than once.
func (dc *DeviceContext) Destroy() {
	if dc.Device != metadata.NullDevice {
		dc.backend.DestroyDevice(dc.Device)
		dc.Device = metadata.NullDevice
		dc.GraphicsQueue = metadata.NullQueue
		dc.PresentQueue = metadata.NullQueue
	}
	if dc.Surface != metadata.NullSurface {
		dc.backend.DestroySurface(dc.Instance, dc.Surface)
		dc.Surface = metadata.NullSurface
	}
	if dc.DebugCallback != metadata.NullDebugCallback {
		dc.backend.DestroyDebugCallback(dc.Instance, dc.DebugCallback)
		dc.DebugCallback = metadata.NullDebugCallback
	}
	if dc.Instance != metadata.NullInstance {
		dc.backend.DestroyInstance(dc.Instance)
		dc.Instance = metadata.NullInstance
	}
}
