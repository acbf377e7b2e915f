package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/triangle/engine/core"
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

func (vr *VulkanRenderer) CreateShaderModule(device metadata.Device, code []byte) (metadata.ShaderModule, error) {
	words, err := spirvWords(code)
	if err != nil {
		core.LogError(err.Error())
		return metadata.NullShaderModule, err
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    words,
	}

	var module vk.ShaderModule
	if res := vk.CreateShaderModule(vr.context.device(device), &createInfo, vr.context.Allocator, &module); res != vk.Success {
		return metadata.NullShaderModule, resultError("vkCreateShaderModule", res)
	}
	return metadata.ShaderModule(vr.context.shaderModules.add(module)), nil
}

func (vr *VulkanRenderer) DestroyShaderModule(device metadata.Device, module metadata.ShaderModule) {
	if m, ok := vr.context.shaderModules.take(uint64(module)); ok {
		vk.DestroyShaderModule(vr.context.device(device), m, vr.context.Allocator)
	}
}

func (vr *VulkanRenderer) shaderStages(stages []metadata.PipelineShaderStage) []vk.PipelineShaderStageCreateInfo {
	out := make([]vk.PipelineShaderStageCreateInfo, len(stages))
	for i, s := range stages {
		module, _ := vr.context.shaderModules.get(uint64(s.Module))
		out[i] = vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFlagBits(s.Stage),
			Module: module,
			PName:  VulkanSafeString(s.EntryPoint),
		}
	}
	return out
}
