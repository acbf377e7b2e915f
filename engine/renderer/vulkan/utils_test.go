package vulkan

import (
	"errors"
	"sync"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

func TestVulkanSafeString(t *testing.T) {
	assert.Equal(t, "\x00", VulkanSafeString(""))
	assert.Equal(t, "main\x00", VulkanSafeString("main"))
	assert.Equal(t, "main\x00", VulkanSafeString("main\x00"))
}

func TestVulkanSafeStringsCopies(t *testing.T) {
	in := []string{"VK_KHR_surface", "VK_KHR_xcb_surface"}
	out := VulkanSafeStrings(in)
	assert.Equal(t, []string{"VK_KHR_surface\x00", "VK_KHR_xcb_surface\x00"}, out)
	assert.Equal(t, "VK_KHR_surface", in[0])
}

func TestCString(t *testing.T) {
	var name [16]byte
	copy(name[:], "llvmpipe")
	assert.Equal(t, 8, FindFirstZeroInByteArray(name[:]))
	assert.Equal(t, "llvmpipe", cString(name[:]))

	full := []byte("abcd")
	assert.Equal(t, 4, FindFirstZeroInByteArray(full))
	assert.Equal(t, "abcd", cString(full))
}

func TestSpirvWords(t *testing.T) {
	words, err := spirvWords([]byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x07230203, 0x00010000}, words)

	_, err = spirvWords([]byte{1, 2, 3})
	assert.Error(t, err)
	_, err = spirvWords(nil)
	assert.Error(t, err)
}

func TestResultErrorKeepsCode(t *testing.T) {
	err := resultError("vkCreateFence", vk.ErrorOutOfDeviceMemory)
	var re *metadata.ResultError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, metadata.ResultErrorOutOfDeviceMemory, re.Result)
	assert.Equal(t, "vkCreateFence", re.Op)
}

func TestContainsAll(t *testing.T) {
	missing, ok := containsAll([]string{"a", "b"}, []string{"b"})
	assert.True(t, ok)
	assert.Empty(t, missing)

	missing, ok = containsAll([]string{"a"}, []string{"a", "c"})
	assert.False(t, ok)
	assert.Equal(t, "c", missing)
}

func TestHandlePool(t *testing.T) {
	a := newHandlePool[string]()
	b := newHandlePool[int]()

	ha := a.add("swapchain")
	hb := b.add(7)
	assert.NotZero(t, ha)
	assert.NotEqual(t, ha, hb, "handles are unique across pools")

	v, ok := a.get(ha)
	require.True(t, ok)
	assert.Equal(t, "swapchain", v)

	v, ok = a.take(ha)
	require.True(t, ok)
	assert.Equal(t, "swapchain", v)
	_, ok = a.take(ha)
	assert.False(t, ok, "a handle can only be taken once")
	_, ok = a.take(0)
	assert.False(t, ok)
	assert.Equal(t, 0, a.len())
	assert.Equal(t, 1, b.len())
}

func TestSafeQueueCallSerializesFamily(t *testing.T) {
	ql := newQueueLocks()
	var wg sync.WaitGroup
	inside := 0
	maxInside := 0
	var mu sync.Mutex
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ql.SafeQueueCall(0, func() error {
				mu.Lock()
				inside++
				if inside > maxInside {
					maxInside = inside
				}
				mu.Unlock()

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxInside)

	want := errors.New("boom")
	assert.ErrorIs(t, ql.SafeQueueCall(1, func() error { return want }), want)
}

func TestQueueLockBlocksFamily(t *testing.T) {
	ql := newQueueLocks()
	unlock := ql.Lock(0)

	entered := make(chan struct{})
	go func() {
		_ = ql.SafeQueueCall(0, func() error {
			close(entered)
			return nil
		})
	}()

	// another family is independent
	ql.Lock(1)()

	select {
	case <-entered:
		t.Fatal("queue family 0 entered while locked")
	default:
	}
	unlock()
	<-entered
}

func TestInstanceAPIVersion(t *testing.T) {
	assert.Equal(t, uint32(vk.MakeVersion(1, 0, 0)), instanceAPIVersion(0))
	assert.Equal(t, uint32(vk.MakeVersion(1, 1, 0)), instanceAPIVersion(metadata.MakeAPIVersion(1, 1, 0)))
	assert.Equal(t, uint32(vk.MakeVersion(1, 3, 0)), instanceAPIVersion(metadata.MakeAPIVersion(1, 3, 0)))
}
