// Package artifact resolves the build tool's artifact locations to absolute paths.
package artifact

import (
	"fmt"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/thought-machine/blazesync/src/core"
)

// decodedCacheSize bounds how many decoded paths a Decoder remembers.
const decodedCacheSize = 1 << 14

// Roots are the directories artifacts are relative to. They're reported by the build
// tool (eg. `bazel info`) and don't change during a sync.
type Roots struct {
	WorkspaceRoot string
	// ExecutionRoot is where the build tool runs actions; generated files and external
	// repositories live beneath it.
	ExecutionRoot string
	// OutputBase contains the execution root and the fetched external repositories.
	OutputBase string
}

// RootsFromConfig returns the roots described by the given configuration.
func RootsFromConfig(config *core.Configuration) Roots {
	return Roots{
		WorkspaceRoot: config.Workspace.Root,
		ExecutionRoot: config.Blaze.ExecutionRoot,
		OutputBase:    config.Blaze.OutputBase,
	}
}

// A Decoder implements core.ArtifactDecoder for one sync generation.
// It's safe for concurrent use.
type Decoder struct {
	roots   Roots
	decoded *lru.Cache[core.ArtifactLocation, string]
}

// NewDecoder returns a new decoder for the given roots.
func NewDecoder(roots Roots) (*Decoder, error) {
	if roots.WorkspaceRoot == "" {
		return nil, fmt.Errorf("no workspace root given")
	}
	if roots.ExecutionRoot == "" && roots.OutputBase != "" {
		roots.ExecutionRoot = filepath.Join(roots.OutputBase, "execroot", filepath.Base(roots.WorkspaceRoot))
	}
	cache, err := lru.New[core.ArtifactLocation, string](decodedCacheSize)
	if err != nil {
		return nil, err
	}
	return &Decoder{roots: roots, decoded: cache}, nil
}

// Decode returns the absolute path of the given artifact.
func (d *Decoder) Decode(loc core.ArtifactLocation) string {
	if p, present := d.decoded.Get(loc); present {
		return p
	}
	p := d.decode(loc)
	d.decoded.Add(loc, p)
	return p
}

func (d *Decoder) decode(loc core.ArtifactLocation) string {
	if loc.IsSource && !loc.IsExternal {
		return filepath.Join(d.roots.WorkspaceRoot, loc.RelativePath)
	}
	root := d.roots.ExecutionRoot
	if root == "" {
		// Without an execution root the best we can do is the workspace's convenience symlinks.
		root = d.roots.WorkspaceRoot
	}
	return filepath.Join(root, loc.RootExecutionPathFragment, loc.RelativePath)
}

// DecodeAll decodes each of the given artifacts, preserving their order.
func (d *Decoder) DecodeAll(locs []core.ArtifactLocation) []string {
	ret := make([]string, len(locs))
	for i, loc := range locs {
		ret[i] = d.Decode(loc)
	}
	return ret
}

// Roots returns the roots this decoder resolves against.
func (d *Decoder) Roots() Roots {
	return d.roots
}
