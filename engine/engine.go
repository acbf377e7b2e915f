package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/triangle/engine/assets"
	"github.com/spaghettifunk/triangle/engine/core"
	"github.com/spaghettifunk/triangle/engine/platform"
	"github.com/spaghettifunk/triangle/engine/renderer"
	"github.com/spaghettifunk/triangle/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting down"
	}
	return "unknown"
}

var ErrWrongStage = errors.New("engine is not in the expected stage")

// How long a minimized window waits for events between checks.
const minimizedWaitSeconds = 0.1

type Engine struct {
	currentStage Stage
	config       *ApplicationConfig
	events       *core.EventBus
	platform     *platform.Platform
	assetManager *assets.AssetManager
	renderer     *renderer.Renderer
	clock        *core.Clock
	metrics      *core.Metrics
	lastTime     float64

	stop     chan struct{}
	stopOnce sync.Once
}

func New(config *ApplicationConfig) *Engine {
	events := core.NewEventBus()
	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       config,
		events:       events,
		platform:     platform.New(events),
		assetManager: assets.NewAssetManager(config.AssetDir),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		stop:         make(chan struct{}),
	}
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

// Initialize opens the window, indexes the assets and brings the renderer up.
// On failure whatever was started is shut down again.
func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("%w: initialize while %s", ErrWrongStage, e.currentStage)
	}
	e.currentStage = EngineStageInitializing

	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.events.Register(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	e.events.Register(core.EVENT_CODE_RESIZED, e, e.onResized)
	e.events.Register(core.EVENT_CODE_ASSET_CHANGED, e, e.onAssetChanged)

	if err := e.platform.Startup(e.config.Name,
		e.config.StartPosX,
		e.config.StartPosY,
		e.config.StartWidth,
		e.config.StartHeight); err != nil {
		e.events.Shutdown()
		return err
	}

	if err := e.assetManager.Initialize(e.config.WatchAssets); err != nil {
		_ = e.platform.Shutdown()
		e.events.Shutdown()
		return err
	}

	r := renderer.New(vulkan.New(platform.VulkanProcAddress()))
	if err := r.Initialize(e.platform, e.assetManager, e.config.Renderer); err != nil {
		_ = e.assetManager.Close()
		_ = e.platform.Shutdown()
		e.events.Shutdown()
		return err
	}
	e.renderer = r

	e.currentStage = EngineStageInitialized
	core.LogInfo("engine initialized")
	return nil
}

// Run drives frames until the window closes or Stop is called.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("%w: run while %s", ErrWrongStage, e.currentStage)
	}
	e.currentStage = EngineStageRunning

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning() {
		e.platform.PumpMessages()
		e.dispatchAssetChanges()

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime

		outcome, err := e.renderer.DrawFrame()
		if err != nil {
			return err
		}
		switch outcome {
		case renderer.FrameSkipped:
			if e.renderer.RebuildPending() {
				// minimized; block on the window instead of spinning
				e.platform.WaitEvents(minimizedWaitSeconds)
			} else {
				core.LogDebug("frame skipped, presentation target rebuilt")
			}
		case renderer.FrameRebuilt:
			core.LogDebug("frame presented, presentation target rebuilt")
		}

		if e.metrics.Update(delta) {
			fps, ms := e.metrics.Frame()
			core.LogDebug("%.0f fps, %.3f ms/frame", fps, ms)
		}

		// Update last time
		e.lastTime = currentTime
	}

	e.clock.Stop()
	return e.renderer.WaitIdle()
}

// Stop asks the run loop to exit at the next iteration. Safe to call from
// any goroutine, more than once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		core.LogInfo("stop requested")
		close(e.stop)
	})
}

// Shutdown tears down the renderer, then the assets, then the window.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageUninitialized || e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown

	var errs []error
	if e.renderer != nil {
		if err := e.renderer.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := e.assetManager.Close(); err != nil && !errors.Is(err, assets.ErrClosed) {
		errs = append(errs, err)
	}
	if err := e.platform.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	e.events.Shutdown()
	return errors.Join(errs...)
}

func (e *Engine) isRunning() bool {
	select {
	case <-e.stop:
		return false
	default:
	}
	return !e.platform.ShouldClose()
}

func (e *Engine) dispatchAssetChanges() {
	for {
		select {
		case path := <-e.assetManager.Changes():
			e.events.Fire(core.EVENT_CODE_ASSET_CHANGED, e.assetManager, core.EventContext{Text: path})
		default:
			return
		}
	}
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.platform.RequestClose()
		return true
	}
	return false
}

func (e *Engine) onKey(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	core.LogDebug("key %d pressed", data.U32[0])
	return false
}

// The renderer notices a stale surface on its own; resizes are only logged.
func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	core.LogDebug("window resize: %d, %d", data.U32[0], data.U32[1])
	return false
}

func (e *Engine) onAssetChanged(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	core.LogInfo("asset %s changed on disk, restart to pick it up", data.Text)
	return false
}
