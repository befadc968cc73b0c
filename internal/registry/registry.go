// Package registry discovers model artifacts on disk and hands out
// cached classifier sessions keyed by model path.
package registry

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/petminder/breed-api/internal/inference"
	"github.com/petminder/breed-api/internal/model"
)

// ModelInfo pairs a discovered model path with its sidecar metadata.
type ModelInfo struct {
	Path     string         `json:"path"`
	Name     string         `json:"name"`
	Metadata model.Metadata `json:"metadata"`
}

type closer interface{ Close() }

// Registry caches classifier sessions per model path. Lookups are
// read-mostly; a race to construct the same key resolves to the first
// stored session and the loser is closed.
type Registry struct {
	dir string

	mu         sync.RWMutex
	sessions   map[string]inference.Classifier
	multitasks map[string]inference.HeadClassifier

	loadSession   func(path string) (inference.Classifier, error)
	loadMultitask func(path string) (inference.HeadClassifier, error)
}

// New opens a registry over the given models directory.
func New(dir string) *Registry {
	return &Registry{
		dir:        dir,
		sessions:   make(map[string]inference.Classifier),
		multitasks: make(map[string]inference.HeadClassifier),
		loadSession: func(path string) (inference.Classifier, error) {
			return model.NewSession(path)
		},
		loadMultitask: func(path string) (inference.HeadClassifier, error) {
			return model.NewMultitaskSession(path)
		},
	}
}

// Dir returns the models directory the registry scans.
func (r *Registry) Dir() string { return r.dir }

// Classifier returns the cached session for a model path, loading it
// on first use.
func (r *Registry) Classifier(modelPath string) (inference.Classifier, error) {
	r.mu.RLock()
	c, ok := r.sessions[modelPath]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}

	loaded, err := r.loadSession(modelPath)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[modelPath]; ok {
		if cl, ok := loaded.(closer); ok {
			cl.Close()
		}
		return existing, nil
	}
	r.sessions[modelPath] = loaded
	return loaded, nil
}

// Multitask returns the cached two-headed session for a model path,
// loading it on first use.
func (r *Registry) Multitask(modelPath string) (inference.HeadClassifier, error) {
	r.mu.RLock()
	c, ok := r.multitasks[modelPath]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}

	loaded, err := r.loadMultitask(modelPath)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.multitasks[modelPath]; ok {
		if cl, ok := loaded.(closer); ok {
			cl.Close()
		}
		return existing, nil
	}
	r.multitasks[modelPath] = loaded
	return loaded, nil
}

// ModelPaths walks the models directory and returns every .onnx file,
// sorted for a stable ensemble order. Hidden directories are skipped.
func (r *Registry) ModelPaths() ([]string, error) {
	if _, err := os.Stat(r.dir); err != nil {
		return nil, fmt.Errorf("models directory: %w", err)
	}

	var paths []string
	err := filepath.WalkDir(r.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if d.IsDir() && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ".onnx") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning models directory: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

// Models returns metadata for every discoverable model. Models with a
// missing or broken sidecar are listed with empty metadata rather than
// hidden.
func (r *Registry) Models() ([]ModelInfo, error) {
	paths, err := r.ModelPaths()
	if err != nil {
		return nil, err
	}

	infos := make([]ModelInfo, 0, len(paths))
	for _, path := range paths {
		info := ModelInfo{
			Path: path,
			Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		}
		if meta, err := model.LoadMetadata(path); err == nil {
			info.Metadata = meta
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Close releases every cached session.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.sessions {
		if cl, ok := c.(closer); ok {
			cl.Close()
		}
	}
	for _, c := range r.multitasks {
		if cl, ok := c.(closer); ok {
			cl.Close()
		}
	}
	r.sessions = make(map[string]inference.Classifier)
	r.multitasks = make(map[string]inference.HeadClassifier)
}
