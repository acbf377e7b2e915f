package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

var testRequirements = metadata.DeviceRequirements{
	MinAPIVersion:    metadata.MakeAPIVersion(1, 1, 0),
	DeviceExtensions: []string{"VK_KHR_swapchain"},
}

func candidate(name string, t metadata.PhysicalDeviceType) deviceCandidate {
	return deviceCandidate{
		Name:           name,
		Type:           t,
		APIVersion:     metadata.MakeAPIVersion(1, 3, 0),
		GraphicsFamily: 0,
		PresentFamily:  0,
		Extensions:     []string{"VK_KHR_swapchain", "VK_KHR_maintenance1"},
		FormatCount:    2,
		PresentModes:   1,
	}
}

func TestCandidateUnsuitable(t *testing.T) {
	ok := candidate("gpu", metadata.PhysicalDeviceTypeDiscreteGPU)
	assert.Empty(t, ok.unsuitable(testRequirements))

	old := ok
	old.APIVersion = metadata.MakeAPIVersion(1, 0, 0)
	assert.Contains(t, old.unsuitable(testRequirements), "API version 1.0 is below 1.1")

	noGraphics := ok
	noGraphics.GraphicsFamily = -1
	assert.Equal(t, "no graphics queue family", noGraphics.unsuitable(testRequirements))

	noPresent := ok
	noPresent.PresentFamily = -1
	assert.NotEmpty(t, noPresent.unsuitable(testRequirements))

	noSwapchain := ok
	noSwapchain.Extensions = []string{"VK_KHR_maintenance1"}
	assert.Contains(t, noSwapchain.unsuitable(testRequirements), "VK_KHR_swapchain")

	noFormats := ok
	noFormats.FormatCount = 0
	assert.NotEmpty(t, noFormats.unsuitable(testRequirements))
}

func TestPickCandidatePrefersDiscrete(t *testing.T) {
	candidates := []deviceCandidate{
		candidate("cpu", metadata.PhysicalDeviceTypeCPU),
		candidate("igpu", metadata.PhysicalDeviceTypeIntegratedGPU),
		candidate("dgpu", metadata.PhysicalDeviceTypeDiscreteGPU),
	}
	best, ok := pickCandidate(candidates, testRequirements)
	assert.True(t, ok)
	assert.Equal(t, 2, best)
}

func TestPickCandidateSkipsUnsuitable(t *testing.T) {
	dgpu := candidate("dgpu", metadata.PhysicalDeviceTypeDiscreteGPU)
	dgpu.PresentModes = 0
	candidates := []deviceCandidate{
		dgpu,
		candidate("igpu-a", metadata.PhysicalDeviceTypeIntegratedGPU),
		candidate("igpu-b", metadata.PhysicalDeviceTypeIntegratedGPU),
	}
	best, ok := pickCandidate(candidates, testRequirements)
	assert.True(t, ok)
	assert.Equal(t, 1, best, "ties go to enumeration order")

	_, ok = pickCandidate([]deviceCandidate{dgpu}, testRequirements)
	assert.False(t, ok)
	_, ok = pickCandidate(nil, testRequirements)
	assert.False(t, ok)
}

func TestQueueFamilies(t *testing.T) {
	g, p := queueFamilies([]bool{true, false, true}, []bool{false, true, true})
	assert.Equal(t, int32(2), g, "a family doing both wins")
	assert.Equal(t, int32(2), p)

	g, p = queueFamilies([]bool{true, false}, []bool{false, true})
	assert.Equal(t, int32(0), g)
	assert.Equal(t, int32(1), p)

	g, p = queueFamilies([]bool{false}, []bool{false})
	assert.Equal(t, int32(-1), g)
	assert.Equal(t, int32(-1), p)
}

func TestReportSeverity(t *testing.T) {
	assert.Equal(t, metadata.SeverityError, reportSeverity(vk.DebugReportFlags(vk.DebugReportErrorBit|vk.DebugReportWarningBit)))
	assert.Equal(t, metadata.SeverityPerformance, reportSeverity(vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit)))
	assert.Equal(t, metadata.SeverityWarning, reportSeverity(vk.DebugReportFlags(vk.DebugReportWarningBit)))
	assert.Equal(t, metadata.SeverityInfo, reportSeverity(vk.DebugReportFlags(vk.DebugReportInformationBit)))
	assert.Equal(t, metadata.SeverityVerbose, reportSeverity(vk.DebugReportFlags(vk.DebugReportDebugBit)))
}

func TestDebugCallbackForwardsToSink(t *testing.T) {
	var got []string
	cb := &vulkanDebugCallback{Sink: func(s metadata.Severity, source, message string) {
		got = append(got, s.String(), source, message)
	}}
	ret := cb.report(vk.DebugReportFlags(vk.DebugReportWarningBit), 0, 0, 0, 42, "Validation", "bad layout", nil)
	assert.Equal(t, vk.Bool32(vk.False), ret)
	assert.Equal(t, []string{"WARNING", "Validation", "code 42: bad layout"}, got)
}
