package structure

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thought-machine/blazesync/src/android"
	"github.com/thought-machine/blazesync/src/artifact"
	"github.com/thought-machine/blazesync/src/core"
)

const workspace = "/ws"

func key(label string) core.TargetKey {
	return core.PlainTargetKey(core.MustParseLabel(label))
}

func target(label string, kind core.Kind, android *core.AndroidIdeInfo, deps ...string) *core.TargetIdeInfo {
	t := &core.TargetIdeInfo{Key: key(label), Kind: kind, Android: android}
	for _, dep := range deps {
		t.Dependencies = append(t.Dependencies, core.Dependency{Target: key(dep)})
	}
	return t
}

func res(paths ...string) *core.AndroidIdeInfo {
	info := &core.AndroidIdeInfo{}
	for _, p := range paths {
		info.Resources = append(info.Resources, core.SourceArtifact(p))
	}
	return info
}

func input(t *testing.T, targets ...*core.TargetIdeInfo) Input {
	m, err := core.NewTargetMap(targets)
	require.NoError(t, err)
	decoder, err := artifact.NewDecoder(artifact.Roots{WorkspaceRoot: workspace, ExecutionRoot: "/exec"})
	require.NoError(t, err)
	return Input{
		TargetMap:       m,
		ResourceModules: android.Import(m, nil).ResourceModules,
		Decoder:         decoder,
		WorkspaceRoot:   workspace,
		WorkspaceModule: core.WorkspaceModuleName,
		RunnableKinds:   []core.Kind{core.KindAndroidBinary, core.KindAndroidTest},
	}
}

func names(s *Structure) []string {
	ret := make([]string, len(s.Modules))
	for i, m := range s.Modules {
		ret[i] = m.Name
	}
	return ret
}

func TestModuleName(t *testing.T) {
	assert.Equal(t, "java.com.example.lib", ModuleName(key("//java/com/example:lib")))
	assert.Equal(t, ".lib", ModuleName(key("//:lib")))
	assert.Equal(t, "a.b#foo_aspect", ModuleName(core.NewTargetKey("//a:b", []string{"foo_aspect"})))
	assert.NotEqual(t, ModuleName(key("//a:b")), ModuleName(key("//a:c")))
}

func TestModuleNameExternal(t *testing.T) {
	assert.Equal(t, "@maven.com.google.guava", ModuleName(key("@maven//com/google:guava")))
	assert.Equal(t, "@maven.guava", ModuleName(key("@maven//:guava")))
	assert.Equal(t, "a.b", ModuleName(key("@//a:b")))
}

func TestAppScenario(t *testing.T) {
	lib := target("//app:lib", core.KindAndroidResource, res("app/res"))
	lib.Sources = []core.ArtifactLocation{core.SourceArtifact("app/res/values/strings.xml")}
	bin := target("//app:bin", core.KindAndroidBinary, &core.AndroidIdeInfo{GenerateResourceClass: true}, "//app:lib")
	s := Synthesize(input(t, lib, bin))

	assert.Equal(t, []string{"app.bin", "app.lib"}, names(s))
	assert.Equal(t, []Edge{
		{From: ".workspace", To: "app.bin"},
		{From: ".workspace", To: "app.lib"},
		{From: "app.bin", To: "app.lib"},
	}, s.Edges)
	assert.Equal(t, []string{"/ws/app/res"}, s.Module("app.lib").ContentRoots)
	assert.Empty(t, s.Module("app.bin").ContentRoots)
	assert.Equal(t, 1, s.Stats.OrderEntries)
	assert.Equal(t, "Android resource module count: 2, run config modules: 0, order entries: 1, generated resources: 0", s.Summary())
}

func TestEdgesOnlyToResourceModules(t *testing.T) {
	in := input(t,
		target("//a:a", core.KindAndroidLibrary, res("a/res"), "//b:b", "//c:c"),
		target("//b:b", core.KindAndroidLibrary, res("b/res")),
		target("//c:c", core.KindJavaLibrary, nil),
	)
	s := Synthesize(in)
	assert.Contains(t, s.Edges, Edge{From: "a.a", To: "b.b"})
	for _, e := range s.Edges {
		assert.NotEqual(t, "c.c", e.To)
	}
	assert.Empty(t, s.Missing)
}

func TestDeterministic(t *testing.T) {
	build := func() *Structure {
		return Synthesize(input(t,
			target("//z:z", core.KindAndroidLibrary, res("z/res"), "//y:y", "//x:x"),
			target("//x:x", core.KindAndroidLibrary, res("x/res")),
			target("//y:y", core.KindAndroidLibrary, res("y/res"), "//x:x"),
			target("//app:bin", core.KindAndroidBinary, &core.AndroidIdeInfo{}),
		))
	}
	first := build()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, build())
	}
}

func TestRunConfigurationModules(t *testing.T) {
	in := input(t,
		target("//app:bin", core.KindAndroidBinary, &core.AndroidIdeInfo{ResourceJavaPackage: "com.app"}),
		target("//app:test", core.KindAndroidTest, &core.AndroidIdeInfo{}),
		target("//app:res", core.KindAndroidBinary, res("app/res")),
		target("//app:lib", core.KindJavaLibrary, nil),
	)
	in.ProjectLabels = []core.Label{"//app:bin", "//app:res", "//app:lib", "//app:gone"}
	in.RunConfigurationLabels = []core.Label{"//app:test", "//app:bin"}
	s := Synthesize(in)

	assert.Equal(t, []string{"app.res", "app.bin", "app.test"}, names(s))
	bin := s.Module("app.bin")
	assert.Equal(t, RunConfigurationModule, bin.Kind)
	assert.Empty(t, bin.ContentRoots)
	require.NotNil(t, bin.Android)
	assert.Equal(t, "/ws/app", bin.Android.ModuleDirectory)
	assert.Equal(t, "/ws/app/AndroidManifest.xml", bin.Android.Manifest)
	assert.Equal(t, "com.app", bin.Android.ResourceJavaPackage)
	// A resource module isn't given a second module.
	assert.Equal(t, ResourceModule, s.Module("app.res").Kind)

	assert.Equal(t, 2, s.Stats.RunConfigurationModules)
	assert.Equal(t, 1, s.Stats.SkippedCandidates)
	require.Len(t, s.Missing, 1)
	assert.Equal(t, key("//app:gone"), s.Missing[0].Key)
	assert.Equal(t, "project targets", s.Missing[0].Referrer)
}

func TestMissingResourceDependency(t *testing.T) {
	m, err := core.NewTargetMap([]*core.TargetIdeInfo{target("//a:a", core.KindAndroidLibrary, res("a/res"))})
	require.NoError(t, err)
	in := input(t)
	in.TargetMap = m
	in.ResourceModules = []core.ResourceModule{
		{TargetKey: key("//a:a"), TransitiveResourceDependencies: []core.TargetKey{key("//gone:res")}},
		{TargetKey: key("//old:res")},
	}
	s := Synthesize(in)
	assert.Equal(t, []string{"a.a"}, names(s))
	assert.Equal(t, 2, s.Stats.MissingReferences)
	assert.Equal(t, []Edge{{From: ".workspace", To: "a.a"}}, s.Edges)
}

func TestGeneratedResourcesStat(t *testing.T) {
	in := input(t)
	in.GeneratedResources = 3
	assert.Equal(t, "Android resource module count: 0, run config modules: 0, order entries: 0, generated resources: 3", Synthesize(in).Summary())
}

type recordingDiagnostics []string

func (d *recordingDiagnostics) Log(message string) {
	*d = append(*d, message)
}

func TestReport(t *testing.T) {
	in := input(t)
	in.ProjectLabels = []core.Label{"//gone:gone"}
	var d recordingDiagnostics
	Report(Synthesize(in), &d)
	assert.Equal(t, recordingDiagnostics{
		"Android resource module count: 0, run config modules: 0, order entries: 0, generated resources: 0",
		"Skipped 1 missing targets and 0 run configuration targets of unsupported kinds",
	}, d)
}

func TestModuleNameCollision(t *testing.T) {
	s := Synthesize(input(t,
		target("//a/b:c", core.KindAndroidLibrary, res("x")),
		target("//a:b.c", core.KindAndroidLibrary, res("y")),
	))
	assert.Equal(t, []string{"a.b.c"}, names(s))
	assert.Equal(t, key("//a/b:c"), s.Modules[0].Target)
}

// recordingEditor is a ModuleEditor that records every call made on it.
type recordingEditor struct {
	existing map[string]bool
	calls    []string
	commits  int
}

type handle string

func (h handle) Name() string { return string(h) }

type modifiable struct {
	editor *recordingEditor
	name   string
}

func (m *modifiable) AddContentRoot(path string) {
	m.editor.calls = append(m.editor.calls, fmt.Sprintf("root %s %s", m.name, path))
}

func (m *modifiable) AddDependency(dep ModuleHandle) {
	m.editor.calls = append(m.editor.calls, fmt.Sprintf("dep %s %s", m.name, dep.Name()))
}

func (m *modifiable) SetAndroidFacet(facet AndroidFacet) {
	m.editor.calls = append(m.editor.calls, fmt.Sprintf("facet %s %s", m.name, facet.ModuleDirectory))
}

func (e *recordingEditor) FindModule(name string) ModuleHandle {
	if e.existing[name] {
		return handle(name)
	}
	return nil
}

func (e *recordingEditor) CreateModule(name string) ModuleHandle {
	e.calls = append(e.calls, "create "+name)
	if e.existing == nil {
		e.existing = map[string]bool{}
	}
	e.existing[name] = true
	return handle(name)
}

func (e *recordingEditor) EditModule(module ModuleHandle) ModifiableModule {
	return &modifiable{editor: e, name: module.Name()}
}

func (e *recordingEditor) Commit() error {
	e.commits++
	return nil
}

func TestApplyCreatesBeforeEdges(t *testing.T) {
	s := Synthesize(input(t,
		target("//a:a", core.KindAndroidLibrary, res("a/res"), "//b:b"),
		target("//b:b", core.KindAndroidLibrary, res("b/res")),
	))
	editor := &recordingEditor{existing: map[string]bool{".workspace": true}}
	require.NoError(t, Apply(s, editor))
	assert.Equal(t, []string{
		"create a.a",
		"create b.b",
		"root a.a /ws/a/res",
		"facet a.a /ws/a",
		"root b.b /ws/b/res",
		"facet b.b /ws/b",
		"dep .workspace a.a",
		"dep .workspace b.b",
		"dep a.a b.b",
	}, editor.calls)
	assert.Equal(t, 1, editor.commits)
}

func TestApplyUnknownModule(t *testing.T) {
	s := &Structure{Edges: []Edge{{From: "a", To: "b"}}}
	assert.Error(t, Apply(s, &recordingEditor{}))
}

func TestEnsureRunConfigurationModule(t *testing.T) {
	in := input(t,
		target("//app:bin", core.KindAndroidBinary, &core.AndroidIdeInfo{}),
		target("//app:lib", core.KindJavaLibrary, nil),
	)
	data := &core.ProjectData{WorkspaceRoot: workspace, TargetMap: in.TargetMap, ArtifactDecoder: in.Decoder}
	editor := &recordingEditor{}

	m, err := EnsureRunConfigurationModule(editor, data, "//app:bin")
	require.NoError(t, err)
	assert.Equal(t, "app.bin", m.Name())
	assert.Equal(t, []string{"create app.bin", "facet app.bin /ws/app"}, editor.calls)
	assert.Equal(t, 1, editor.commits)

	// Second time round it already exists.
	_, err = EnsureRunConfigurationModule(editor, data, "//app:bin")
	require.NoError(t, err)
	assert.Equal(t, 1, editor.commits)

	_, err = EnsureRunConfigurationModule(editor, data, "//app:lib")
	assert.Error(t, err)
	_, err = EnsureRunConfigurationModule(editor, data, "//app:gone")
	var missing *core.MissingReferenceError
	assert.ErrorAs(t, err, &missing)
	_, err = EnsureRunConfigurationModule(editor, nil, "//app:other")
	assert.Error(t, err)
}
