package core

import (
	"path"
)

// An ArtifactLocation is the build tool's description of where some file lives.
// Turning one into an absolute path needs an ArtifactDecoder for the current sync.
type ArtifactLocation struct {
	// RelativePath is relative to the workspace root for sources, or to the root
	// execution path fragment for generated files.
	RelativePath string
	// RootExecutionPathFragment is the output root a generated file lives under,
	// eg. blaze-out/k8-fastbuild/bin. It's empty for sources.
	RootExecutionPathFragment string
	IsSource                  bool
	IsExternal                bool
}

// SourceArtifact returns the location of a source file in the main workspace.
func SourceArtifact(relativePath string) ArtifactLocation {
	return ArtifactLocation{RelativePath: relativePath, IsSource: true}
}

// GeneratedArtifact returns the location of a file generated under the given output root.
func GeneratedArtifact(root, relativePath string) ArtifactLocation {
	return ArtifactLocation{RelativePath: relativePath, RootExecutionPathFragment: root}
}

// IsGenerated returns true if the build produces this artifact rather than it being checked in.
func (loc ArtifactLocation) IsGenerated() bool {
	return !loc.IsSource
}

// ExecutionRootRelativePath returns the path to this artifact relative to the execution root.
func (loc ArtifactLocation) ExecutionRootRelativePath() string {
	return path.Join(loc.RootExecutionPathFragment, loc.RelativePath)
}

func (loc ArtifactLocation) String() string {
	return loc.ExecutionRootRelativePath()
}

// An ArtifactDecoder resolves artifact locations to absolute paths.
// Implementations must be deterministic for the lifetime of a sync generation.
type ArtifactDecoder interface {
	Decode(ArtifactLocation) string
	DecodeAll([]ArtifactLocation) []string
}

// Less orders artifact locations by path, with sources before generated files.
func (loc ArtifactLocation) Less(that ArtifactLocation) bool {
	if loc.RootExecutionPathFragment != that.RootExecutionPathFragment {
		return loc.RootExecutionPathFragment < that.RootExecutionPathFragment
	}
	if loc.RelativePath != that.RelativePath {
		return loc.RelativePath < that.RelativePath
	}
	if loc.IsSource != that.IsSource {
		return loc.IsSource
	}
	return !loc.IsExternal && that.IsExternal
}

// SortArtifactLocations sorts the given locations in place.
func SortArtifactLocations(locs []ArtifactLocation) {
	sortSlice(locs, ArtifactLocation.Less)
}
