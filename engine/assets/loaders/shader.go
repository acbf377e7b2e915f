package loaders

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// SpirvMagic opens every SPIR-V module, stored little-endian.
const SpirvMagic uint32 = 0x07230203

var ErrInvalidShader = errors.New("not a SPIR-V module")

type ShaderLoader struct{}

// Load reads a compiled SPIR-V binary. The bytes are handed back untouched.
func (sl *ShaderLoader) Load(path string, name string) (*Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := validateSpirv(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Resource{
		Name:     name,
		FullPath: path,
		DataSize: uint64(len(data)),
		Data:     data,
	}, nil
}

func (sl *ShaderLoader) Unload(res *Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}

func validateSpirv(data []byte) error {
	if len(data) < 4 || len(data)%4 != 0 {
		return fmt.Errorf("%w: size %d is not a positive multiple of 4", ErrInvalidShader, len(data))
	}
	if magic := binary.LittleEndian.Uint32(data); magic != SpirvMagic {
		return fmt.Errorf("%w: bad magic 0x%08x", ErrInvalidShader, magic)
	}
	return nil
}
