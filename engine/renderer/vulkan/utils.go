package vulkan

import (
	"encoding/binary"
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/triangle/engine/core"
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

var end = "\x00"
var endChar byte = '\x00'

func VulkanSafeString(s string) string {
	if len(s) == 0 {
		return end
	}
	if s[len(s)-1] != endChar {
		return s + end
	}
	return s
}

// VulkanSafeStrings returns a terminated copy of list.
func VulkanSafeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = VulkanSafeString(list[i])
	}
	return out
}

// FindFirstZeroInByteArray returns the index of the first NUL in arr, or
// len(arr) when there is none.
func FindFirstZeroInByteArray(arr []byte) int {
	for i, b := range arr {
		if b == 0 {
			return i
		}
	}
	return len(arr)
}

// cString turns a fixed-size, NUL-padded name field into a Go string.
func cString(arr []byte) string {
	return string(arr[:FindFirstZeroInByteArray(arr)])
}

// resultError logs and wraps a failed native call.
func resultError(op string, res vk.Result) error {
	err := metadata.NewResultError(op, metadata.Result(res))
	core.LogError("%s: %s", err, metadata.Result(res).Describe())
	return err
}

// spirvWords repacks byte code into the 32-bit words the driver consumes.
func spirvWords(code []byte) ([]uint32, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, fmt.Errorf("shader byte code length %d is not a positive multiple of 4", len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	return words, nil
}

func containsAll(available []string, required []string) (string, bool) {
	set := make(map[string]struct{}, len(available))
	for _, name := range available {
		set[name] = struct{}{}
	}
	for _, name := range required {
		if _, ok := set[name]; !ok {
			return name, false
		}
	}
	return "", true
}

func vkBool(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}

// instanceAPIVersion packs the version requested for the instance. Both
// metadata.APIVersion and Vulkan use the major<<22 | minor<<12 | patch layout.
func instanceAPIVersion(v metadata.APIVersion) uint32 {
	if v == 0 {
		return uint32(vk.MakeVersion(1, 0, 0))
	}
	return uint32(v)
}
