package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/triangle/engine/core"
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

func (vr *VulkanRenderer) CreateSwapchain(device metadata.Device, config metadata.SwapchainConfig) (metadata.Swapchain, error) {
	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          vr.context.surface(config.Surface),
		MinImageCount:    config.MinImageCount,
		ImageFormat:      vk.Format(config.Format.Format),
		ImageColorSpace:  vk.ColorSpace(config.Format.ColorSpace),
		ImageExtent:      vk.Extent2D{Width: config.Extent.Width, Height: config.Extent.Height},
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingMode(config.SharingMode),
		PreTransform:     vk.SurfaceTransformFlagBits(config.PreTransform),
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      vk.PresentMode(config.PresentMode),
		Clipped:          vk.True,
	}
	if config.SharingMode == metadata.SharingModeConcurrent {
		swapchainCreateInfo.QueueFamilyIndexCount = uint32(len(config.QueueFamilyIndices))
		swapchainCreateInfo.PQueueFamilyIndices = config.QueueFamilyIndices
	}
	if old, ok := vr.context.swapchains.get(uint64(config.OldSwapchain)); ok {
		swapchainCreateInfo.OldSwapchain = old
	}

	var swapchain vk.Swapchain
	if res := vk.CreateSwapchain(vr.context.device(device), &swapchainCreateInfo, vr.context.Allocator, &swapchain); res != vk.Success {
		return metadata.NullSwapchain, resultError("vkCreateSwapchainKHR", res)
	}
	core.LogDebug("Swapchain created: %dx%d, %d images requested, %s",
		config.Extent.Width, config.Extent.Height, config.MinImageCount, config.PresentMode)
	return metadata.Swapchain(vr.context.swapchains.add(swapchain)), nil
}

// DestroySwapchain also forgets the swapchain's images. Their views must
// already be gone.
func (vr *VulkanRenderer) DestroySwapchain(device metadata.Device, swapchain metadata.Swapchain) {
	sc, ok := vr.context.swapchains.take(uint64(swapchain))
	if !ok {
		return
	}
	for _, img := range vr.context.swapchainImages[uint64(swapchain)] {
		vr.context.images.take(img)
	}
	delete(vr.context.swapchainImages, uint64(swapchain))
	vk.DestroySwapchain(vr.context.device(device), sc, vr.context.Allocator)
}

func (vr *VulkanRenderer) GetSwapchainImages(device metadata.Device, swapchain metadata.Swapchain) ([]metadata.Image, error) {
	sc, _ := vr.context.swapchains.get(uint64(swapchain))
	logical := vr.context.device(device)

	var count uint32
	if res := vk.GetSwapchainImages(logical, sc, &count, nil); res != vk.Success {
		return nil, resultError("vkGetSwapchainImagesKHR", res)
	}
	images := make([]vk.Image, count)
	if res := vk.GetSwapchainImages(logical, sc, &count, images); res != vk.Success {
		return nil, resultError("vkGetSwapchainImagesKHR", res)
	}

	// Asking twice must not leak handles.
	for _, img := range vr.context.swapchainImages[uint64(swapchain)] {
		vr.context.images.take(img)
	}
	handles := make([]metadata.Image, count)
	owned := make([]uint64, count)
	for i, img := range images[:count] {
		owned[i] = vr.context.images.add(img)
		handles[i] = metadata.Image(owned[i])
	}
	vr.context.swapchainImages[uint64(swapchain)] = owned
	return handles, nil
}

func (vr *VulkanRenderer) CreateImageView(device metadata.Device, image metadata.Image, format metadata.Format) (metadata.ImageView, error) {
	img, ok := vr.context.images.get(uint64(image))
	if !ok {
		return metadata.NullImageView, resultError("vkCreateImageView", vk.ErrorInitializationFailed)
	}
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img,
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vk.ImageView
	if res := vk.CreateImageView(vr.context.device(device), &viewInfo, vr.context.Allocator, &view); res != vk.Success {
		return metadata.NullImageView, resultError("vkCreateImageView", res)
	}
	return metadata.ImageView(vr.context.imageViews.add(view)), nil
}

func (vr *VulkanRenderer) DestroyImageView(device metadata.Device, view metadata.ImageView) {
	if v, ok := vr.context.imageViews.take(uint64(view)); ok {
		vk.DestroyImageView(vr.context.device(device), v, vr.context.Allocator)
	}
}

func (vr *VulkanRenderer) AcquireNextImage(device metadata.Device, swapchain metadata.Swapchain, timeout uint64, signal metadata.Semaphore) (uint32, metadata.Result) {
	sc, _ := vr.context.swapchains.get(uint64(swapchain))
	var imageIndex uint32
	res := vk.AcquireNextImage(vr.context.device(device), sc, timeout, vr.context.semaphore(signal), vk.NullFence, &imageIndex)
	return imageIndex, metadata.Result(res)
}

func (vr *VulkanRenderer) QueuePresent(queue metadata.Queue, info metadata.PresentInfo) metadata.Result {
	q, _ := vr.context.queues.get(uint64(queue))
	sc, _ := vr.context.swapchains.get(uint64(info.Swapchain))

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{vr.context.semaphore(info.WaitSemaphore)},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc},
		PImageIndices:      []uint32{info.ImageIndex},
	}

	unlock := vr.context.queueLocks.Lock(q.FamilyIndex)
	res := vk.QueuePresent(q.Handle, &presentInfo)
	unlock()
	return metadata.Result(res)
}
