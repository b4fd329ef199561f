package targetmaps

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/thought-machine/blazesync/src/artifact"
	"github.com/thought-machine/blazesync/src/core"
	"github.com/thought-machine/blazesync/src/synccache"
)

const workspace = "/home/user/ws"

func projectData(t *testing.T, generation uint64, targets ...*core.TargetIdeInfo) *core.ProjectData {
	m, err := core.NewTargetMap(targets)
	require.NoError(t, err)
	decoder, err := artifact.NewDecoder(artifact.Roots{WorkspaceRoot: workspace, ExecutionRoot: "/tmp/execroot/ws"})
	require.NoError(t, err)
	return &core.ProjectData{Generation: generation, WorkspaceRoot: workspace, TargetMap: m, ArtifactDecoder: decoder}
}

func target(key core.TargetKey, sources ...core.ArtifactLocation) *core.TargetIdeInfo {
	return &core.TargetIdeInfo{Key: key, Kind: core.KindJavaLibrary, Sources: sources}
}

var (
	lib    = core.PlainTargetKey("//app:lib")
	bin    = core.PlainTargetKey("//app:bin")
	libFoo = core.NewTargetKey("//app:lib", []string{"foo_aspect"})
)

func newMap(t *testing.T) (*SourceToTargetMap, *synccache.Cache) {
	cache := synccache.New()
	m, err := New(cache)
	require.NoError(t, err)
	return m, cache
}

func TestEmptyBeforeSync(t *testing.T) {
	m, _ := newMap(t)
	assert.Empty(t, m.TargetsForSourceFile(workspace+"/app/Lib.java"))
	assert.Empty(t, m.BuildableLabelsForSourceFile(workspace+"/app/Lib.java"))
}

func TestTargetsForSourceFile(t *testing.T) {
	m, cache := newMap(t)
	cache.Publish(projectData(t, 1,
		target(lib, core.SourceArtifact("app/Lib.java"), core.SourceArtifact("app/Shared.java"), core.SourceArtifact("app/Lib.java")),
		target(bin, core.SourceArtifact("app/Shared.java")),
		target(libFoo, core.SourceArtifact("app/Shared.java")),
		target(core.PlainTargetKey("//gen:gen"), core.GeneratedArtifact("blaze-out/bin", "gen/Gen.java")),
	))
	assert.Equal(t, []core.TargetKey{lib}, m.TargetsForSourceFile(workspace+"/app/Lib.java"))
	assert.Equal(t, []core.TargetKey{bin, lib, libFoo}, m.TargetsForSourceFile(workspace+"/app/Shared.java"))
	assert.Equal(t, []core.TargetKey{lib}, m.TargetsForSourceFile("app/Lib.java"))
	assert.Equal(t, []core.TargetKey{core.PlainTargetKey("//gen:gen")}, m.TargetsForSourceFile("/tmp/execroot/ws/blaze-out/bin/gen/Gen.java"))
	assert.Empty(t, m.TargetsForSourceFile(workspace+"/app/Other.java"))
}

func TestBuildableLabelsForSourceFile(t *testing.T) {
	m, cache := newMap(t)
	cache.Publish(projectData(t, 1,
		target(lib, core.SourceArtifact("app/Shared.java")),
		target(libFoo, core.SourceArtifact("app/Shared.java")),
		target(bin, core.SourceArtifact("app/Shared.java")),
		target(core.NewTargetKey("//app:proto", []string{"foo_aspect"}), core.SourceArtifact("app/Shared.java")),
	))
	assert.Equal(t, []core.Label{"//app:bin", "//app:lib"}, m.BuildableLabelsForSourceFile(workspace+"/app/Shared.java"))
}

func TestIndexBuiltOncePerGeneration(t *testing.T) {
	m, cache := newMap(t)
	var builds int32
	m.build = func(data *core.ProjectData) (index, bool) {
		atomic.AddInt32(&builds, 1)
		return buildIndex(data)
	}
	cache.Publish(projectData(t, 1, target(lib, core.SourceArtifact("app/Lib.java"))))

	var g errgroup.Group
	for i := 0; i < 50; i++ {
		g.Go(func() error {
			assert.Equal(t, []core.TargetKey{lib}, m.TargetsForSourceFile(workspace+"/app/Lib.java"))
			return nil
		})
	}
	require.NoError(t, g.Wait())
	first := m.TargetsForSourceFile(workspace + "/app/Lib.java")
	second := m.TargetsForSourceFile(workspace + "/app/Lib.java")
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&builds))

	cache.Publish(projectData(t, 2, target(bin, core.SourceArtifact("app/Lib.java"))))
	assert.Equal(t, []core.TargetKey{bin}, m.TargetsForSourceFile(workspace+"/app/Lib.java"))
	assert.EqualValues(t, 2, atomic.LoadInt32(&builds))
}

func TestResultsAreCopies(t *testing.T) {
	m, cache := newMap(t)
	cache.Publish(projectData(t, 1, target(lib, core.SourceArtifact("app/Lib.java"))))
	keys := m.TargetsForSourceFile("app/Lib.java")
	keys[0] = bin
	assert.Equal(t, []core.TargetKey{lib}, m.TargetsForSourceFile("app/Lib.java"))
}

func TestDuplicateRegistration(t *testing.T) {
	cache := synccache.New()
	_, err := New(cache)
	require.NoError(t, err)
	_, err = New(cache)
	assert.Error(t, err)
}
