package renderer

import (
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

// MaxFramesInFlight bounds how far the CPU may run ahead of the GPU.
const MaxFramesInFlight = 2

// SyncSet is the ring of per-frame semaphores and fences, plus the table of
// fences currently guarding each presentation image. The table does not own
// the fences it points to.
type SyncSet struct {
	backend RendererBackend
	device  *DeviceContext

	ImageAvailable [MaxFramesInFlight]metadata.Semaphore
	RenderFinished [MaxFramesInFlight]metadata.Semaphore
	InFlight       [MaxFramesInFlight]metadata.Fence

	ImagesInFlight []metadata.Fence
}

func NewSyncSet(dc *DeviceContext, imageCount uint32) (*SyncSet, error) {
	ss := &SyncSet{
		backend:        dc.backend,
		device:         dc,
		ImagesInFlight: make([]metadata.Fence, imageCount),
	}

	var err error
	for i := 0; i < MaxFramesInFlight; i++ {
		if ss.ImageAvailable[i], err = dc.backend.CreateSemaphore(dc.Device); err != nil {
			ss.Destroy()
			return nil, stageError(ErrSynchronization, "image available semaphore creation", i, err)
		}
		if ss.RenderFinished[i], err = dc.backend.CreateSemaphore(dc.Device); err != nil {
			ss.Destroy()
			return nil, stageError(ErrSynchronization, "render finished semaphore creation", i, err)
		}
		// Signaled so the first wait on each slot returns immediately.
		if ss.InFlight[i], err = dc.backend.CreateFence(dc.Device, true); err != nil {
			ss.Destroy()
			return nil, stageError(ErrSynchronization, "in-flight fence creation", i, err)
		}
	}
	return ss, nil
}

// ResetImageTable resizes the image guard table to imageCount entries, all
// empty. The ring is left untouched.
func (ss *SyncSet) ResetImageTable(imageCount uint32) {
	ss.ImagesInFlight = make([]metadata.Fence, imageCount)
}

func (ss *SyncSet) Destroy() {
	for i := 0; i < MaxFramesInFlight; i++ {
		if ss.RenderFinished[i] != metadata.NullSemaphore {
			ss.backend.DestroySemaphore(ss.device.Device, ss.RenderFinished[i])
			ss.RenderFinished[i] = metadata.NullSemaphore
		}
		if ss.ImageAvailable[i] != metadata.NullSemaphore {
			ss.backend.DestroySemaphore(ss.device.Device, ss.ImageAvailable[i])
			ss.ImageAvailable[i] = metadata.NullSemaphore
		}
		if ss.InFlight[i] != metadata.NullFence {
			ss.backend.DestroyFence(ss.device.Device, ss.InFlight[i])
			ss.InFlight[i] = metadata.NullFence
		}
	}
	for i := range ss.ImagesInFlight {
		ss.ImagesInFlight[i] = metadata.NullFence
	}
}
