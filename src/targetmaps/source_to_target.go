// Package targetmaps answers questions about which targets own a given file.
package targetmaps

import (
	"path/filepath"

	"golang.org/x/exp/slices"

	"github.com/thought-machine/blazesync/src/cli/logging"
	"github.com/thought-machine/blazesync/src/core"
	"github.com/thought-machine/blazesync/src/synccache"
)

var log = logging.Log

// CacheKeyName is the name the index is registered under in the sync cache.
const CacheKeyName = "source_to_target_map"

// index maps the absolute path of a source file to the targets declaring it, sorted.
type index map[string][]core.TargetKey

// A SourceToTargetMap maps source files to the targets that declare them as sources.
// The index is built lazily, at most once per sync generation. It's safe for concurrent use.
type SourceToTargetMap struct {
	cache *synccache.Cache
	key   synccache.Key
	build func(*core.ProjectData) (index, bool)
}

// New returns a new SourceToTargetMap backed by the given cache.
// It fails if the cache already has a consumer registered under the same name.
func New(cache *synccache.Cache) (*SourceToTargetMap, error) {
	key, err := cache.Register(CacheKeyName)
	if err != nil {
		return nil, err
	}
	return &SourceToTargetMap{cache: cache, key: key, build: buildIndex}, nil
}

// TargetsForSourceFile returns the keys of every target that declares the given file as a
// source. Relative paths are taken to be relative to the workspace root.
// The result is empty if nothing declares it or no sync has completed yet.
func (m *SourceToTargetMap) TargetsForSourceFile(path string) []core.TargetKey {
	idx, ok := synccache.Get(m.cache, m.key, m.build)
	if !ok {
		return nil
	}
	if !filepath.IsAbs(path) {
		if data := m.cache.Current(); data != nil {
			path = filepath.Join(data.WorkspaceRoot, path)
		}
	}
	keys := idx[filepath.Clean(path)]
	return append([]core.TargetKey(nil), keys...)
}

// BuildableLabelsForSourceFile is like TargetsForSourceFile, but only returns targets that can
// be given to the build tool directly, and returns their labels.
func (m *SourceToTargetMap) BuildableLabelsForSourceFile(path string) []core.Label {
	var labels []core.Label
	for _, key := range m.TargetsForSourceFile(path) {
		if key.IsPlain() {
			labels = append(labels, key.Label)
		}
	}
	// Keys are sorted by label so duplicates are adjacent.
	return slices.Compact(labels)
}

// buildIndex decodes every source of every target in the snapshot.
func buildIndex(data *core.ProjectData) (index, bool) {
	if data.TargetMap == nil || data.ArtifactDecoder == nil {
		return nil, false
	}
	idx := index{}
	for _, target := range data.TargetMap.Targets() {
		for _, path := range data.ArtifactDecoder.DecodeAll(target.Sources) {
			path = filepath.Clean(path)
			if keys := idx[path]; len(keys) > 0 && keys[len(keys)-1] == target.Key {
				continue // Same source listed twice by one target.
			}
			idx[path] = append(idx[path], target.Key)
		}
	}
	log.Debug("Built source to target map with %d files for generation %d", len(idx), data.Generation)
	return idx, true
}
