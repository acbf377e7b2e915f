package metadata

type Severity uint8

const (
	SeverityVerbose Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityPerformance
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityVerbose:
		return "VERBOSE"
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityPerformance:
		return "PERFORMANCE"
	case SeverityError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// DiagnosticSink receives messages from the device validation channel. It is
// advisory only: nothing it does may influence control flow.
type DiagnosticSink func(severity Severity, source string, message string)

type InstanceConfig struct {
	ApplicationName    string
	EngineName         string
	// APIVersion is the highest API version the application uses. Zero
	// means 1.0.
	APIVersion         APIVersion
	RequiredExtensions []string
	Validation         bool
	Sink               DiagnosticSink
}

// APIVersion is a packed major.minor.patch triple.
type APIVersion uint32

func MakeAPIVersion(major, minor, patch uint32) APIVersion {
	return APIVersion(major<<22 | minor<<12 | patch)
}

func (v APIVersion) Major() uint32 { return uint32(v) >> 22 }
func (v APIVersion) Minor() uint32 { return (uint32(v) >> 12) & 0x3ff }
func (v APIVersion) Patch() uint32 { return uint32(v) & 0xfff }

type DeviceRequirements struct {
	MinAPIVersion    APIVersion
	DeviceExtensions []string
}

type PhysicalDeviceType uint32

const (
	PhysicalDeviceTypeOther PhysicalDeviceType = iota
	PhysicalDeviceTypeIntegratedGPU
	PhysicalDeviceTypeDiscreteGPU
	PhysicalDeviceTypeVirtualGPU
	PhysicalDeviceTypeCPU
)

func (t PhysicalDeviceType) String() string {
	switch t {
	case PhysicalDeviceTypeIntegratedGPU:
		return "Integrated"
	case PhysicalDeviceTypeDiscreteGPU:
		return "Discrete"
	case PhysicalDeviceTypeVirtualGPU:
		return "Virtual"
	case PhysicalDeviceTypeCPU:
		return "CPU"
	}
	return "Unknown"
}

/** @brief A physical device picked by the backend, with what was learned about it. */
type PhysicalDeviceInfo struct {
	Handle              PhysicalDevice
	Name                string
	Type                PhysicalDeviceType
	APIVersion          APIVersion
	GraphicsFamilyIndex uint32
	PresentFamilyIndex  uint32
}
