package metadata

import "fmt"

// Result is the native status code of a backend call. The numeric values
// follow the Vulkan registry so a Vulkan backend can convert with a cast.
type Result int32

const (
	ResultSuccess                   Result = 0
	ResultNotReady                  Result = 1
	ResultTimeout                   Result = 2
	ResultEventSet                  Result = 3
	ResultEventReset                Result = 4
	ResultIncomplete                Result = 5
	ResultSuboptimal                Result = 1000001003
	ResultErrorOutOfHostMemory      Result = -1
	ResultErrorOutOfDeviceMemory    Result = -2
	ResultErrorInitializationFailed Result = -3
	ResultErrorDeviceLost           Result = -4
	ResultErrorMemoryMapFailed      Result = -5
	ResultErrorLayerNotPresent      Result = -6
	ResultErrorExtensionNotPresent  Result = -7
	ResultErrorFeatureNotPresent    Result = -8
	ResultErrorIncompatibleDriver   Result = -9
	ResultErrorTooManyObjects       Result = -10
	ResultErrorFormatNotSupported   Result = -11
	ResultErrorFragmentedPool       Result = -12
	ResultErrorUnknown              Result = -13
	ResultErrorSurfaceLost          Result = -1000000000
	ResultErrorNativeWindowInUse    Result = -1000000001
	ResultErrorOutOfDate            Result = -1000001004
	ResultErrorIncompatibleDisplay  Result = -1000003001
)

var resultNames = map[Result][2]string{
	ResultSuccess:                   {"VK_SUCCESS", "Command successfully completed"},
	ResultNotReady:                  {"VK_NOT_READY", "A fence or query has not yet completed"},
	ResultTimeout:                   {"VK_TIMEOUT", "A wait operation has not completed in the specified time"},
	ResultEventSet:                  {"VK_EVENT_SET", "An event is signaled"},
	ResultEventReset:                {"VK_EVENT_RESET", "An event is unsignaled"},
	ResultIncomplete:                {"VK_INCOMPLETE", "A return array was too small for the result"},
	ResultSuboptimal:                {"VK_SUBOPTIMAL_KHR", "A swapchain no longer matches the surface properties exactly, but can still be used to present to the surface successfully."},
	ResultErrorOutOfHostMemory:      {"VK_ERROR_OUT_OF_HOST_MEMORY", "A host memory allocation has failed."},
	ResultErrorOutOfDeviceMemory:    {"VK_ERROR_OUT_OF_DEVICE_MEMORY", "A device memory allocation has failed."},
	ResultErrorInitializationFailed: {"VK_ERROR_INITIALIZATION_FAILED", "Initialization of an object could not be completed for implementation-specific reasons."},
	ResultErrorDeviceLost:           {"VK_ERROR_DEVICE_LOST", "The logical or physical device has been lost."},
	ResultErrorMemoryMapFailed:      {"VK_ERROR_MEMORY_MAP_FAILED", "Mapping of a memory object has failed."},
	ResultErrorLayerNotPresent:      {"VK_ERROR_LAYER_NOT_PRESENT", "A requested layer is not present or could not be loaded."},
	ResultErrorExtensionNotPresent:  {"VK_ERROR_EXTENSION_NOT_PRESENT", "A requested extension is not supported."},
	ResultErrorFeatureNotPresent:    {"VK_ERROR_FEATURE_NOT_PRESENT", "A requested feature is not supported."},
	ResultErrorIncompatibleDriver:   {"VK_ERROR_INCOMPATIBLE_DRIVER", "The requested version of Vulkan is not supported by the driver or is otherwise incompatible for implementation-specific reasons."},
	ResultErrorTooManyObjects:       {"VK_ERROR_TOO_MANY_OBJECTS", "Too many objects of the type have already been created."},
	ResultErrorFormatNotSupported:   {"VK_ERROR_FORMAT_NOT_SUPPORTED", "A requested format is not supported on this device."},
	ResultErrorFragmentedPool:       {"VK_ERROR_FRAGMENTED_POOL", "A pool allocation has failed due to fragmentation of the pool's memory."},
	ResultErrorUnknown:              {"VK_ERROR_UNKNOWN", "An unknown error has occurred; either the application has provided invalid input, or an implementation failure has occurred."},
	ResultErrorSurfaceLost:          {"VK_ERROR_SURFACE_LOST_KHR", "A surface is no longer available."},
	ResultErrorNativeWindowInUse:    {"VK_ERROR_NATIVE_WINDOW_IN_USE_KHR", "The requested window is already in use by Vulkan or another API in a manner which prevents it from being used again."},
	ResultErrorOutOfDate:            {"VK_ERROR_OUT_OF_DATE_KHR", "A surface has changed in such a way that it is no longer compatible with the swapchain."},
	ResultErrorIncompatibleDisplay:  {"VK_ERROR_INCOMPATIBLE_DISPLAY_KHR", "The display used by a swapchain does not use the same presentable image layout."},
}

// String returns the symbolic name of the result.
func (r Result) String() string {
	if n, ok := resultNames[r]; ok {
		return n[0]
	}
	return fmt.Sprintf("VK_RESULT(%d)", int32(r))
}

// Describe returns the symbolic name followed by its registry description.
func (r Result) Describe() string {
	if n, ok := resultNames[r]; ok {
		return n[0] + " " + n[1]
	}
	return r.String()
}

// IsSuccess reports whether r is one of the non-error codes.
func (r Result) IsSuccess() bool {
	return r >= 0
}

// ResultError is returned by backends when a native call does not succeed.
type ResultError struct {
	Op     string
	Result Result
}

func NewResultError(op string, result Result) *ResultError {
	return &ResultError{Op: op, Result: result}
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s failed with %s", e.Op, e.Result)
}
