package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/triangle/engine/assets/loaders"
	"github.com/spaghettifunk/triangle/engine/core"
)

const shaderDir = "shaders"

var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrClosed           = errors.New("asset manager already closed")
)

type AssetInfo struct {
	Path       string
	Type       loaders.ResourceType
	LastLoaded time.Time
}

// AssetManager indexes the asset directory and loads shader byte code out of
// it. With watching on, the index follows the directory as it changes.
type AssetManager struct {
	dir     string
	assets  map[string]AssetInfo
	loaders map[loaders.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	changes  chan string
}

func NewAssetManager(dir string) *AssetManager {
	am := &AssetManager{
		dir:     dir,
		assets:  make(map[string]AssetInfo),
		loaders: make(map[loaders.ResourceType]Loader),
		changes: make(chan string, 16),
	}
	am.registerLoader(loaders.ResourceTypeShader, &loaders.ShaderLoader{})
	return am
}

// Initialize builds the index. When watch is set, changes under the asset
// directory keep the index current and are reported on Changes.
func (am *AssetManager) Initialize(watch bool) error {
	if _, err := os.Stat(am.dir); err != nil {
		return fmt.Errorf("%w: asset directory %s", ErrResourceNotFound, am.dir)
	}
	if !watch {
		return am.walk(am.dir, false)
	}

	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	am.fsnotify = fsWatch
	am.done = make(chan struct{})
	am.stopped = make(chan struct{})
	if err := am.walk(am.dir, true); err != nil {
		fsWatch.Close()
		am.fsnotify = nil
		return err
	}
	go am.start()
	core.LogDebug("watching %s for asset changes", am.dir)
	return nil
}

// Changes reports the path of every asset that was created, modified or
// removed while watching. Events are dropped when nobody keeps up.
func (am *AssetManager) Changes() <-chan string {
	return am.changes
}

func (am *AssetManager) registerLoader(assetType loaders.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadShader returns the byte code of the named shader under
// <dir>/shaders.
func (am *AssetManager) LoadShader(name string) ([]byte, error) {
	res, err := am.LoadAsset(name, loaders.ResourceTypeShader)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (am *AssetManager) LoadAsset(name string, resourceType loaders.ResourceType) (*loaders.Resource, error) {
	var path string
	switch resourceType {
	case loaders.ResourceTypeShader:
		path = filepath.Join(am.dir, shaderDir, name)
	default:
		return nil, fmt.Errorf("unknown resource type %d", resourceType)
	}

	am.mutex.RLock()
	_, exists := am.assets[path]
	am.mutex.RUnlock()
	if !exists {
		// Not indexed yet: it may have appeared after the last walk.
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, path)
		}
	}

	loader, ok := am.loaders[resourceType]
	if !ok {
		return nil, fmt.Errorf("no loader registered for asset type: %s", resourceType)
	}
	res, err := loader.Load(path, name)
	if errors.Is(err, fs.ErrNotExist) {
		am.removeAsset(path)
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, path)
	}
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	am.assets[path] = AssetInfo{Path: path, Type: resourceType, LastLoaded: time.Now()}
	am.mutex.Unlock()
	return res, nil
}

// Lookup returns what the index knows about path.
func (am *AssetManager) Lookup(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[path]
	return info, ok
}

func (am *AssetManager) Close() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return ErrClosed
	}
	am.isClosed = true
	am.mutex.Unlock()

	if am.fsnotify != nil {
		close(am.done)
		<-am.stopped
	}
	return nil
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) handleEvent(e fsnotify.Event) {
	s, err := os.Stat(e.Name)
	if err == nil && s.IsDir() {
		if e.Has(fsnotify.Create) {
			if err := am.walk(e.Name, true); err != nil {
				core.LogWarn("failed to watch %s: %s", e.Name, err)
			}
		}
		return
	}

	switch {
	case e.Has(fsnotify.Create) || e.Has(fsnotify.Write):
		if !am.handleFileEvent(e.Name) {
			return
		}
		core.LogInfo("asset changed: %s (takes effect on the next pipeline rebuild)", e.Name)
	case e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename):
		if !am.removeAsset(e.Name) {
			return
		}
		core.LogWarn("asset removed: %s", e.Name)
	default:
		return
	}

	select {
	case am.changes <- e.Name:
	default:
	}
}

// walk indexes every asset under path and, when watch is set, adds every
// directory to the watch list.
func (am *AssetManager) walk(path string, watch bool) error {
	return filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if watch {
				return am.fsnotify.Add(walkPath)
			}
			return nil
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// handleFileEvent indexes path and reports whether it is an asset.
func (am *AssetManager) handleFileEvent(path string) bool {
	assetType := determineAssetType(path)
	if assetType == loaders.ResourceTypeNone {
		return false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	info := am.assets[path]
	info.Path = path
	info.Type = assetType
	am.assets[path] = info
	return true
}

func (am *AssetManager) removeAsset(path string) bool {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	_, ok := am.assets[path]
	delete(am.assets, path)
	return ok
}

func determineAssetType(path string) loaders.ResourceType {
	switch filepath.Ext(path) {
	case ".spv":
		return loaders.ResourceTypeShader
	default:
		return loaders.ResourceTypeNone
	}
}
