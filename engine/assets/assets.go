package assets

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine/assets/loaders"
	"github.com/spaghettifunk/forge/engine/core"
)

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrClosed        = errors.New("asset manager already closed")
)

type AssetInfo struct {
	// Path is relative to the asset root.
	Path       string
	Type       loaders.ResourceType
	Modified   time.Time
	LastLoaded time.Time
}

// ChangeFunc is called from the watcher goroutine after the index has been
// updated.
type ChangeFunc func(info AssetInfo, op fsnotify.Op)

// AssetManager indexes the files below an asset root and keeps the index
// current while watching is enabled.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[loaders.ResourceType]Loader
	change  ChangeFunc

	mutex sync.RWMutex

	done     chan struct{}
	wg       sync.WaitGroup
	fsnotify *fsnotify.Watcher
	watching bool
	isClosed bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create the asset watcher")
	}

	am := &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[loaders.ResourceType]Loader),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}

	// Register loaders
	am.registerLoader(loaders.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(loaders.ResourceTypeModel, &loaders.ModelLoader{})
	am.registerLoader(loaders.ResourceTypeBinary, &loaders.BinaryLoader{})
	return am, nil
}

// Initialize indexes assetsDir. With watch set, changes below it keep
// updating the index until Shutdown.
func (am *AssetManager) Initialize(assetsDir string, watch bool) error {
	if am.isClosed {
		return ErrClosed
	}
	fi, err := os.Stat(assetsDir)
	if err != nil {
		return errors.Wrap(err, "asset root")
	}
	if !fi.IsDir() {
		return errors.Errorf("asset root %s is not a directory", assetsDir)
	}
	am.root = filepath.Clean(assetsDir)

	if err := am.watchRecursive(am.root, watch); err != nil {
		return err
	}
	if watch {
		am.watching = true
		am.wg.Add(1)
		go am.start()
	}

	core.LogInfo("Asset manager indexed %d file(s) under %s.", am.Count(), am.root)
	return nil
}

// OnChange installs fn to be called for every indexed change.
func (am *AssetManager) OnChange(fn ChangeFunc) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.change = fn
}

func (am *AssetManager) Root() string {
	return am.root
}

func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// Lookup returns the index entry of path, relative to the asset root.
func (am *AssetManager) Lookup(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[filepath.Clean(path)]
	return info, ok
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType loaders.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadAsset loads path, relative to the asset root, with the loader of
// resourceType.
func (am *AssetManager) LoadAsset(path string, resourceType loaders.ResourceType, params interface{}) (*loaders.Resource, error) {
	key := filepath.Clean(path)

	am.mutex.Lock()
	asset, exists := am.assets[key]
	if exists {
		asset.LastLoaded = time.Now()
		am.assets[key] = asset
	}
	am.mutex.Unlock()
	if !exists {
		return nil, errors.Wrap(ErrAssetNotFound, filepath.Join(am.root, key))
	}

	if resourceType == loaders.ResourceTypeNone {
		resourceType = asset.Type
	}
	loader, loaderExists := am.loaders[resourceType]
	if !loaderExists {
		return nil, errors.Errorf("no loader registered for asset type: %s", resourceType)
	}
	return loader.Load(filepath.Join(am.root, key), params)
}

func (am *AssetManager) UnloadAsset(res *loaders.Resource) error {
	loader, ok := am.loaders[res.Type]
	if !ok {
		return nil
	}
	return loader.Unload(res)
}

// LoadShader resolves a shader name such as "tri_mesh.vert" to the compiled
// module shaders/<name>.spv.
func (am *AssetManager) LoadShader(name string) ([]uint32, error) {
	res, err := am.LoadAsset(filepath.Join("shaders", name+".spv"), loaders.ResourceTypeShader, map[string]string{"name": name})
	if err != nil {
		return nil, err
	}
	return res.Data.([]uint32), nil
}

// LoadModel reads an OBJ file, relative to the asset root.
func (am *AssetManager) LoadModel(path string) (*loaders.Model, error) {
	res, err := am.LoadAsset(path, loaders.ResourceTypeModel, nil)
	if err != nil {
		return nil, err
	}
	return res.Data.(*loaders.Model), nil
}

// Shutdown stops watching. It is safe to call more than once.
func (am *AssetManager) Shutdown() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	if am.watching {
		close(am.done)
		am.wg.Wait()
		return nil
	}
	return am.fsnotify.Close()
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleEvent(e)

		case e, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", e.Error())

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) handleEvent(e fsnotify.Event) {
	s, err := os.Stat(e.Name)
	if err == nil && s != nil && s.IsDir() {
		if e.Op&fsnotify.Create != 0 {
			if err := am.watchRecursive(e.Name, true); err != nil {
				core.LogWarn("asset watcher: %v", err)
			}
		}
		return
	}

	var info AssetInfo
	var indexed bool
	switch {
	case e.Op&(fsnotify.Create|fsnotify.Write) != 0:
		info, indexed = am.handleFileEvent(e.Name)
		if indexed && info.Type == loaders.ResourceTypeShader {
			core.LogInfo("Shader %s changed on disk.", info.Path)
		}
	case e.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// Can't stat a deleted path, so drop it from both the index and the
		// watch list.
		info, indexed = am.removeAsset(e.Name)
		am.fsnotify.Remove(e.Name)
	}
	if !indexed {
		return
	}

	am.mutex.RLock()
	fn := am.change
	am.mutex.RUnlock()
	if fn != nil {
		fn(info, e.Op)
	}
}

// watchRecursive indexes every file under path and, with watch set, adds all
// directories to the watch list.
func (am *AssetManager) watchRecursive(path string, watch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if watch {
				if err := am.fsnotify.Add(walkPath); err != nil {
					return errors.Wrapf(err, "failed to watch %s", walkPath)
				}
			}
			return nil
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

func (am *AssetManager) relative(path string) (string, bool) {
	rel, err := filepath.Rel(am.root, path)
	if err != nil {
		return "", false
	}
	return rel, true
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) (AssetInfo, bool) {
	rel, ok := am.relative(path)
	if !ok {
		return AssetInfo{}, false
	}
	assetType := loaders.DetermineResourceType(rel)
	if assetType == loaders.ResourceTypeNone {
		return AssetInfo{}, false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()

	info := am.assets[rel]
	info.Path = rel
	info.Type = assetType
	info.Modified = time.Now()
	am.assets[rel] = info
	return info, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) (AssetInfo, bool) {
	rel, ok := am.relative(path)
	if !ok {
		return AssetInfo{}, false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()

	info, ok := am.assets[rel]
	delete(am.assets, rel)
	return info, ok
}
