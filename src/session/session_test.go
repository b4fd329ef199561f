package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thought-machine/blazesync/src/aspect"
	"github.com/thought-machine/blazesync/src/core"
	"github.com/thought-machine/blazesync/src/ide/intellij"
	"github.com/thought-machine/blazesync/src/ide/structure"
)

const libInfo = `
key { label: "//app:lib" }
kind_string: "android_resources"
sources { relative_path: "app/res/values/strings.xml" is_source: true }
android_ide_info {
  resources { relative_path: "app/res" is_source: true }
  java_package: "com.example.lib"
}
`

const binInfo = `
key { label: "//app:bin" }
kind_string: "android_binary"
deps { target { label: "//app:lib" } }
android_ide_info { java_package: "com.example.app" generate_resource_class: true }
`

type testSession struct {
	*Session
	workspace string
	aspectDir string
}

func newSession(t *testing.T) *testSession {
	dir := t.TempDir()
	workspace := filepath.Join(dir, "ws")
	config := core.DefaultConfiguration()
	config.Workspace.Root = workspace
	config.Blaze.ExecutionRoot = filepath.Join(dir, "execroot")
	config.Sync.AspectStrategy = "starlark"
	config.Sync.Target = []core.TargetExpression{mustParse(t, "//app:bin"), mustParse(t, "//app/...")}
	config.Android.RunnableKind = []core.Kind{core.KindAndroidBinary, core.KindAndroidTest}
	editors := func(sync bool) (structure.ModuleEditor, error) {
		modulesDir := filepath.Join(workspace, config.IntelliJ.ModulesDir)
		if sync {
			return intellij.NewSyncEditor(workspace, modulesDir)
		}
		return intellij.NewEditor(workspace, modulesDir)
	}
	s, err := New(config, editors, nil, nil)
	require.NoError(t, err)
	return &testSession{Session: s, workspace: workspace, aspectDir: filepath.Join(dir, "bazel-bin")}
}

func mustParse(t *testing.T, text string) core.TargetExpression {
	expr, err := core.ParseTargetExpression(text)
	require.NoError(t, err)
	return expr
}

func (s *testSession) writeAspectFile(t *testing.T, name, contents string) {
	filename := filepath.Join(s.aspectDir, name+s.Strategy().OutputFileExtension())
	require.NoError(t, os.MkdirAll(filepath.Dir(filename), 0755))
	require.NoError(t, os.WriteFile(filename, []byte(contents), 0644))
}

func TestSync(t *testing.T) {
	s := newSession(t)
	s.writeAspectFile(t, "app/lib", libInfo)
	s.writeAspectFile(t, "app/bin", binInfo)
	assert.Nil(t, s.ProjectData())
	assert.Empty(t, s.SourceToTargetMap().TargetsForSourceFile("app/res/values/strings.xml"))

	data, err := s.Run(context.Background(), s.aspectDir)
	require.NoError(t, err)
	assert.EqualValues(t, 1, data.Generation)
	assert.Equal(t, 2, data.TargetMap.Len())
	assert.Len(t, data.ResourceModules, 2)
	assert.Same(t, data, s.ProjectData())

	st := s.Structure()
	require.NotNil(t, st)
	assert.Equal(t, 2, st.Stats.ResourceModules)
	assert.Contains(t, st.Edges, structure.Edge{From: "app.bin", To: "app.lib"})

	assert.Equal(t, []core.TargetKey{core.PlainTargetKey("//app:lib")},
		s.SourceToTargetMap().TargetsForSourceFile(filepath.Join(s.workspace, "app/res/values/strings.xml")))
	assert.Equal(t, []core.Label{"//app:lib"}, s.SourceToTargetMap().BuildableLabelsForSourceFile("app/res/values/strings.xml"))

	assert.FileExists(t, filepath.Join(s.workspace, ".ijwb/.blaze/modules/app.lib.iml"))
	assert.FileExists(t, filepath.Join(s.workspace, ".ijwb/.blaze/modules/app.bin.iml"))
	assert.FileExists(t, filepath.Join(s.workspace, ".idea/modules.xml"))

	// A second sync gets the next generation.
	data, err = s.Run(context.Background(), s.aspectDir)
	require.NoError(t, err)
	assert.EqualValues(t, 2, data.Generation)
}

func TestSnapshotPairsDataWithStructure(t *testing.T) {
	s := newSession(t)
	s.writeAspectFile(t, "app/lib", libInfo)
	assert.Nil(t, s.Current())

	var mismatches atomic.Int32
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			if snap := s.Current(); snap != nil && len(snap.Structure.Modules) != snap.Data.TargetMap.Len() {
				mismatches.Add(1)
			}
		}
	}()

	data, err := s.Run(context.Background(), s.aspectDir)
	require.NoError(t, err)
	snap := s.Current()
	require.NotNil(t, snap)
	assert.Same(t, data, snap.Data)
	assert.Same(t, snap.Structure, s.Structure())
	assert.Len(t, snap.Structure.Modules, 1)

	s.writeAspectFile(t, "app/bin", binInfo)
	data, err = s.Run(context.Background(), s.aspectDir)
	require.NoError(t, err)
	close(done)
	wg.Wait()

	snap = s.Current()
	assert.EqualValues(t, 2, snap.Data.Generation)
	assert.Same(t, data, s.ProjectData())
	assert.Len(t, snap.Structure.Modules, 2)
	assert.Zero(t, mismatches.Load())

	s.Close()
	assert.Nil(t, s.Current())
	assert.Nil(t, s.ProjectData())
	assert.Nil(t, s.Structure())
}

func TestDecodeErrorsDontFailSync(t *testing.T) {
	s := newSession(t)
	s.writeAspectFile(t, "app/lib", libInfo)
	s.writeAspectFile(t, "app/broken", `key { label: "not a label" }`)
	data, err := s.Run(context.Background(), s.aspectDir)
	require.NoError(t, err)
	assert.Equal(t, 1, data.TargetMap.Len())
}

func TestFailedSyncKeepsPreviousGeneration(t *testing.T) {
	s := newSession(t)
	s.writeAspectFile(t, "app/lib", libInfo)
	first, err := s.Run(context.Background(), s.aspectDir)
	require.NoError(t, err)

	// The same target twice is fatal for the generation.
	s.writeAspectFile(t, "app/lib_again", libInfo)
	_, err = s.Run(context.Background(), s.aspectDir)
	assert.Error(t, err)
	assert.Same(t, first, s.ProjectData())
	assert.Equal(t, []core.TargetKey{core.PlainTargetKey("//app:lib")}, s.SourceToTargetMap().TargetsForSourceFile("app/res/values/strings.xml"))

	// The next successful sync carries on from the last published one.
	require.NoError(t, os.Remove(filepath.Join(s.aspectDir, "app/lib_again"+s.Strategy().OutputFileExtension())))
	data, err := s.Run(context.Background(), s.aspectDir)
	require.NoError(t, err)
	assert.EqualValues(t, 2, data.Generation)
}

func TestCancelledSyncPublishesNothing(t *testing.T) {
	s := newSession(t)
	s.writeAspectFile(t, "app/lib", libInfo)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Run(ctx, s.aspectDir)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, s.ProjectData())
	assert.Nil(t, s.Structure())
}

func TestBuildCommand(t *testing.T) {
	s := newSession(t)
	b, err := s.BuildCommand(aspect.OutputGroupInfo, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"bazel", "build",
		"--aspects=@intellij_aspect//:intellij_info_bundled.bzl%intellij_info_aspect",
		"--output_groups=ide-info",
		"--", "//app:bin", "//app/...",
	}, b.Args())

	b, err = s.BuildCommand(aspect.OutputGroupCompile, []core.TargetExpression{mustParse(t, "//other:thing")})
	require.NoError(t, err)
	assert.Equal(t, "//other:thing", b.Args()[len(b.Args())-1])
}

func TestUnknownStrategy(t *testing.T) {
	config := core.DefaultConfiguration()
	config.Sync.AspectStrategy = "starlerk"
	_, err := New(config, nil, nil, nil)
	assert.Error(t, err)
}

func TestEnsureRunConfigurationModule(t *testing.T) {
	s := newSession(t)
	s.writeAspectFile(t, "app/lib", libInfo)
	s.writeAspectFile(t, "app/test", `key { label: "//app:test" } kind_string: "android_test" android_ide_info { }`)
	_, err := s.Run(context.Background(), s.aspectDir)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(s.workspace, ".ijwb/.blaze/modules/app.test.iml"))

	m, err := s.EnsureRunConfigurationModule("//app:test")
	require.NoError(t, err)
	assert.Equal(t, "app.test", m.Name())
	assert.FileExists(t, filepath.Join(s.workspace, ".ijwb/.blaze/modules/app.test.iml"))
	assert.FileExists(t, filepath.Join(s.workspace, ".ijwb/.blaze/modules/app.lib.iml"))
}

func TestRunConfigurationModulesFromProvider(t *testing.T) {
	s := newSession(t)
	s.runConfigs = StaticRunConfigurations{"//app:test"}
	s.writeAspectFile(t, "app/test", `key { label: "//app:test" } kind_string: "android_test" android_ide_info { }`)
	_, err := s.Run(context.Background(), s.aspectDir)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Structure().Stats.RunConfigurationModules)
	assert.NotNil(t, s.Structure().Module("app.test"))
}
