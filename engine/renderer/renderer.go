package renderer

import (
	"github.com/spaghettifunk/triangle/engine/core"
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

type Config struct {
	ApplicationName string
	Validation      bool
	MinAPIVersion   metadata.APIVersion
	PreferMailbox   bool
	FenceTimeout    uint64
	Shaders         ShaderSet
}

// Renderer ties the device context to the frame driver and is what the
// engine talks to.
type Renderer struct {
	backend RendererBackend
	context *DeviceContext
	driver  *FrameDriver
}

func New(backend RendererBackend) *Renderer {
	return &Renderer{backend: backend}
}

func (r *Renderer) Initialize(window Window, loader ShaderLoader, config Config) error {
	dc, err := NewDeviceContext(r.backend, window, DeviceConfig{
		ApplicationName: config.ApplicationName,
		Validation:      config.Validation,
		MinAPIVersion:   config.MinAPIVersion,
		Sink:            logDiagnostic,
	})
	if err != nil {
		return err
	}

	driver, err := NewFrameDriver(dc, window, loader, DriverOptions{
		Presentation: PresentationOptions{PreferMailbox: config.PreferMailbox},
		Shaders:      config.Shaders,
		FenceTimeout: config.FenceTimeout,
	})
	if err != nil {
		dc.Destroy()
		return err
	}

	r.context = dc
	r.driver = driver
	core.LogInfo("Renderer initialized successfully")
	return nil
}

func (r *Renderer) DrawFrame() (FrameOutcome, error) {
	if r.driver == nil {
		return FrameFailed, ErrNotInitialized
	}
	return r.driver.DrawFrame()
}

// RebuildPending reports that frames are skipped until the window has a
// drawable size again.
func (r *Renderer) RebuildPending() bool {
	return r.driver != nil && r.driver.RebuildPending()
}

// Driver exposes the frame driver for inspection. Nil before Initialize.
func (r *Renderer) Driver() *FrameDriver {
	return r.driver
}

func (r *Renderer) WaitIdle() error {
	if r.context == nil {
		return nil
	}
	return r.context.WaitIdle()
}

// Shutdown waits for the device and tears everything down. Calling it again
// does nothing.
func (r *Renderer) Shutdown() error {
	if r.context == nil {
		return nil
	}
	err := r.context.WaitIdle()
	if err != nil {
		core.LogWarn("tearing down without an idle device: %s", err)
	}
	if r.driver != nil {
		r.driver.Destroy()
		r.driver = nil
	}
	r.context.Destroy()
	r.context = nil
	core.LogInfo("Renderer shut down")
	return err
}

// logDiagnostic routes the validation channel into the engine log.
func logDiagnostic(severity metadata.Severity, source string, message string) {
	switch severity {
	case metadata.SeverityError:
		core.LogError("[%s] %s", source, message)
	case metadata.SeverityWarning, metadata.SeverityPerformance:
		core.LogWarn("[%s] %s", source, message)
	case metadata.SeverityInfo:
		core.LogInfo("[%s] %s", source, message)
	default:
		core.LogDebug("[%s] %s", source, message)
	}
}
