package loaders

type ResourceType uint8

const (
	ResourceTypeNone ResourceType = iota
	ResourceTypeShader
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeShader:
		return "shader"
	}
	return "none"
}

// Resource is a loaded asset.
type Resource struct {
	Name     string
	FullPath string
	DataSize uint64
	Data     []byte
}
