package core

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Application ApplicationConfig `toml:"application"`
	Log         LogConfig         `toml:"log"`
	Renderer    RendererConfig    `toml:"renderer"`
	Assets      AssetsConfig      `toml:"assets"`
}

type ApplicationConfig struct {
	Name   string `toml:"name"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
	X      uint32 `toml:"x"`
	Y      uint32 `toml:"y"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type RendererConfig struct {
	Validation    bool   `toml:"validation"`
	MinAPIVersion string `toml:"min_api_version"`
	PreferMailbox bool   `toml:"prefer_mailbox"`
	// Zero waits forever.
	FenceTimeoutNS uint64 `toml:"fence_timeout_ns"`
}

type AssetsConfig struct {
	Dir            string `toml:"dir"`
	VertexShader   string `toml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader"`
	Watch          bool   `toml:"watch"`
}

func DefaultConfig() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:   "Vulkan Triangle",
			Width:  800,
			Height: 600,
			X:      100,
			Y:      100,
		},
		Log: LogConfig{
			Level: "info",
		},
		Renderer: RendererConfig{
			Validation:    false,
			MinAPIVersion: "1.1",
			PreferMailbox: true,
		},
		Assets: AssetsConfig{
			Dir:            "assets",
			VertexShader:   "vert.spv",
			FragmentShader: "frag.spv",
			Watch:          false,
		},
	}
}

// LoadConfig reads a TOML file on top of the defaults. A missing file is not
// an error; unknown keys are.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			LogWarn("config file %s not found, using defaults", path)
			return cfg, nil
		}
		return nil, err
	}
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strict.String())
		}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("%w: line %d column %d: %s", ErrInvalidConfig, row, col, derr.Error())
		}
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Application.Width == 0 || c.Application.Height == 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Application.Width, c.Application.Height)
	}
	if c.Assets.VertexShader == "" || c.Assets.FragmentShader == "" {
		return fmt.Errorf("%w: vertex and fragment shaders must be named", ErrInvalidConfig)
	}
	if _, _, err := c.Renderer.APIVersion(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Log.Level)
	}
	return nil
}

// APIVersion parses min_api_version as "major.minor".
func (rc RendererConfig) APIVersion() (major, minor uint32, err error) {
	parts := strings.Split(rc.MinAPIVersion, ".")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: min_api_version %q is not major.minor", ErrInvalidConfig, rc.MinAPIVersion)
	}
	ma, err := strconv.ParseUint(parts[0], 10, 10)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: min_api_version %q: %s", ErrInvalidConfig, rc.MinAPIVersion, err)
	}
	mi, err := strconv.ParseUint(parts[1], 10, 10)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: min_api_version %q: %s", ErrInvalidConfig, rc.MinAPIVersion, err)
	}
	return uint32(ma), uint32(mi), nil
}
