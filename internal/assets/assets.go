// Package assets loads, caches and hot-reloads game assets.
package assets

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/topdown/internal/engine/character"
	"github.com/Faultbox/topdown/internal/logger"
)

var (
	ErrNoLoader      = errors.New("no loader for extension")
	ErrUnknownHandle = errors.New("unknown asset handle")
	ErrWrongType     = errors.New("asset has a different type")
	ErrNoLabel       = errors.New("no such labeled sub-asset")
)

// Handle identifies a loaded asset. It stays valid across reloads.
type Handle struct {
	ID   uuid.UUID
	Path string
}

// IsZero reports whether h refers to nothing.
func (h Handle) IsZero() bool {
	return h.ID == uuid.Nil
}

type entry struct {
	handle  Handle
	loaded  *Loaded
	refs    int
	version int
}

// Manager loads assets from a file system through extension-keyed loaders
// and keeps them while referenced.
type Manager struct {
	fsys    fs.FS
	dir     string // OS directory behind fsys, empty if not on disk
	loaders map[string]Loader
	cache   *Cache

	mu     sync.RWMutex
	byPath map[string]*entry
	byID   map[uuid.UUID]*entry
}

// NewManager creates a manager over an OS directory, with the animation
// loader registered.
func NewManager(dir string) *Manager {
	m := NewManagerFS(os.DirFS(dir))
	m.dir = dir
	return m
}

// NewManagerFS creates a manager over fsys. Such a manager cannot be
// watched for changes.
func NewManagerFS(fsys fs.FS) *Manager {
	m := &Manager{
		fsys:    fsys,
		loaders: make(map[string]Loader),
		cache:   NewCache(),
		byPath:  make(map[string]*entry),
		byID:    make(map[uuid.UUID]*entry),
	}
	m.Register(AnimationLoader{})
	return m
}

// Register adds a loader for its extensions, replacing earlier ones.
func (m *Manager) Register(l Loader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ext := range l.Extensions() {
		m.loaders[extension("."+ext)] = l
	}
}

// Dir returns the OS directory the manager reads from, if any.
func (m *Manager) Dir() string {
	return m.dir
}

// Handles reports whether p has a registered loader.
func (m *Manager) Handles(p string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.loaders[extension(p)]
	return ok
}

// Load returns a handle to the asset at p, loading it on first use. Each
// call takes a reference that Release gives back.
func (m *Manager) Load(p string) (Handle, error) {
	p, _ = SplitLabel(path.Clean(filepath.ToSlash(p)))

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.byPath[p]; ok {
		e.refs++
		return e.handle, nil
	}

	id := uuid.New()
	loaded, err := m.loadLocked(p, id)
	if err != nil {
		return Handle{}, err
	}
	e := &entry{handle: Handle{ID: id, Path: p}, loaded: loaded, refs: 1, version: 1}
	m.byPath[p] = e
	m.byID[id] = e
	logger.Named(logger.Assets).Debug("asset loaded", zap.String("path", p), zap.Stringer("id", id))
	return e.handle, nil
}

func (m *Manager) loadLocked(p string, id uuid.UUID) (*Loaded, error) {
	l, ok := m.loaders[extension(p)]
	if !ok {
		return nil, loaderError(p, fmt.Errorf("%w %q", ErrNoLoader, extension(p)))
	}

	data, ok := m.cache.Get(p)
	if !ok {
		var err error
		data, err = fs.ReadFile(m.fsys, p)
		if err != nil {
			return nil, loaderError(p, err)
		}
		m.cache.Set(p, data)
	}

	loaded, err := l.Load(data, id)
	if err != nil {
		m.cache.Delete(p)
		return nil, loaderError(p, err)
	}
	return loaded, nil
}

// Acquire takes another reference to a loaded asset.
func (m *Manager) Acquire(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[h.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, h.Path)
	}
	e.refs++
	return nil
}

// Release gives back a reference. The asset is unloaded when the last one
// goes; Release reports whether that happened.
func (m *Manager) Release(h Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[h.ID]
	if !ok {
		return false
	}
	e.refs--
	if e.refs > 0 {
		return false
	}
	delete(m.byID, h.ID)
	delete(m.byPath, e.handle.Path)
	m.cache.Delete(e.handle.Path)
	logger.Named(logger.Assets).Debug("asset unloaded", zap.String("path", e.handle.Path))
	return true
}

// Reload reads the asset at p again and swaps it in under the same handle.
// On failure the previous version stays in place.
func (m *Manager) Reload(p string) (Handle, error) {
	p = path.Clean(filepath.ToSlash(p))

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.byPath[p]
	if !ok {
		return Handle{}, fmt.Errorf("%w: %s", ErrUnknownHandle, p)
	}
	m.cache.Delete(p)
	loaded, err := m.loadLocked(p, e.handle.ID)
	if err != nil {
		logger.Named(logger.Assets).Warn("reload failed, keeping previous version",
			zap.String("path", p), zap.Error(err))
		return e.handle, err
	}
	e.loaded = loaded
	e.version++
	logger.Named(logger.Assets).Info("asset reloaded", zap.String("path", p), zap.Int("version", e.version))
	return e.handle, nil
}

// Get returns the primary asset for h.
func (m *Manager) Get(h Handle) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byID[h.ID]
	if !ok {
		return nil, false
	}
	return e.loaded.Value, true
}

// Labeled returns a sub-asset of h.
func (m *Manager) Labeled(h Handle, label string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byID[h.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, h.Path)
	}
	v, ok := e.loaded.Labeled[label]
	if !ok {
		return nil, fmt.Errorf("%w: %s#%s", ErrNoLabel, h.Path, label)
	}
	return v, nil
}

// Version counts loads of h: 1 after the first load, incremented by each
// successful reload. Zero means unknown.
func (m *Manager) Version(h Handle) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.byID[h.ID]; ok {
		return e.version
	}
	return 0
}

// Refs returns the reference count of h.
func (m *Manager) Refs(h Handle) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.byID[h.ID]; ok {
		return e.refs
	}
	return 0
}

// Loaded returns handles to every loaded asset, sorted by path.
func (m *Manager) Loaded() []Handle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Handle, 0, len(m.byPath))
	for _, e := range m.byPath {
		out = append(out, e.handle)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Animation returns the current version of an animation asset.
func (m *Manager) Animation(h Handle) (*character.CharAnimation, error) {
	v, ok := m.Get(h)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, h.Path)
	}
	anim, ok := v.(*character.CharAnimation)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T", ErrWrongType, h.Path, v)
	}
	return anim, nil
}

// Texture returns the atlas texture of an animation asset.
func (m *Manager) Texture(h Handle) (*image.NRGBA, error) {
	v, err := m.Labeled(h, LabelTexture)
	if err != nil {
		return nil, err
	}
	img, ok := v.(*image.NRGBA)
	if !ok {
		return nil, fmt.Errorf("%w: %s#%s is %T", ErrWrongType, h.Path, LabelTexture, v)
	}
	return img, nil
}

// AtlasLayout returns the atlas layout of an animation asset.
func (m *Manager) AtlasLayout(h Handle) (character.AtlasLayout, error) {
	v, err := m.Labeled(h, LabelAtlasLayout)
	if err != nil {
		return character.AtlasLayout{}, err
	}
	layout, ok := v.(character.AtlasLayout)
	if !ok {
		return character.AtlasLayout{}, fmt.Errorf("%w: %s#%s is %T", ErrWrongType, h.Path, LabelAtlasLayout, v)
	}
	return layout, nil
}

// CacheStats returns raw file cache statistics.
func (m *Manager) CacheStats() (hits, misses int) {
	return m.cache.Stats()
}

// Close unloads everything.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byPath = make(map[string]*entry)
	m.byID = make(map[uuid.UUID]*entry)
	m.cache.Clear()
}
