package engine

import (
	"path/filepath"

	"github.com/spaghettifunk/triangle/engine/core"
	"github.com/spaghettifunk/triangle/engine/renderer"
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32
	// Window starting position y axis, if applicable.
	StartPosY uint32
	// Window starting width, if applicable.
	StartWidth uint32
	// Window starting height, if applicable.
	StartHeight uint32
	// The application name used in windowing, if applicable.
	Name string
	// Absolute path of the asset directory.
	AssetDir    string
	WatchAssets bool
	Renderer    renderer.Config
}

// NewApplicationConfig resolves a loaded configuration against the working
// directory wd.
func NewApplicationConfig(cfg *core.Config, wd string) (*ApplicationConfig, error) {
	major, minor, err := cfg.Renderer.APIVersion()
	if err != nil {
		return nil, err
	}

	dir := cfg.Assets.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(wd, dir)
	}

	return &ApplicationConfig{
		StartPosX:   cfg.Application.X,
		StartPosY:   cfg.Application.Y,
		StartWidth:  cfg.Application.Width,
		StartHeight: cfg.Application.Height,
		Name:        cfg.Application.Name,
		AssetDir:    dir,
		WatchAssets: cfg.Assets.Watch,
		Renderer: renderer.Config{
			ApplicationName: cfg.Application.Name,
			Validation:      cfg.Renderer.Validation,
			MinAPIVersion:   metadata.MakeAPIVersion(major, minor, 0),
			PreferMailbox:   cfg.Renderer.PreferMailbox,
			FenceTimeout:    cfg.Renderer.FenceTimeoutNS,
			Shaders: renderer.ShaderSet{
				Vertex:   cfg.Assets.VertexShader,
				Fragment: cfg.Assets.FragmentShader,
			},
		},
	}, nil
}
