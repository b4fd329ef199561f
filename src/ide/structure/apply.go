package structure

import (
	"fmt"

	"github.com/thought-machine/blazesync/src/core"
)

// A ModuleHandle refers to a module in the IDE's model.
type ModuleHandle interface {
	Name() string
}

// A ModifiableModule is a module being edited.
type ModifiableModule interface {
	AddContentRoot(path string)
	AddDependency(dep ModuleHandle)
}

// A FacetModule is a ModifiableModule that can also carry Android configuration.
type FacetModule interface {
	ModifiableModule
	SetAndroidFacet(facet AndroidFacet)
}

// A ModuleEditor makes changes to the IDE's modules. Nothing is visible until Commit.
type ModuleEditor interface {
	// FindModule returns the module with the given name, or nil if there isn't one.
	FindModule(name string) ModuleHandle
	// CreateModule creates a new module, or returns the existing one with that name.
	CreateModule(name string) ModuleHandle
	EditModule(module ModuleHandle) ModifiableModule
	Commit() error
}

// Apply replays the given structure onto an editor and commits it.
// Every module is created before any dependency is added between them.
func Apply(s *Structure, editor ModuleEditor) error {
	handles := make(map[string]ModuleHandle, len(s.Modules)+1)
	if s.WorkspaceModule != "" {
		handles[s.WorkspaceModule] = findOrCreate(editor, s.WorkspaceModule)
	}
	for _, m := range s.Modules {
		handles[m.Name] = findOrCreate(editor, m.Name)
	}
	// Every module is edited, even a bare one, so a replacing editor starts it afresh
	// rather than keeping whatever roots and dependencies it had at the last sync.
	if s.WorkspaceModule != "" {
		editor.EditModule(handles[s.WorkspaceModule])
	}
	for _, m := range s.Modules {
		mm := editor.EditModule(handles[m.Name])
		for _, root := range m.ContentRoots {
			mm.AddContentRoot(root)
		}
		if fm, ok := mm.(FacetModule); ok && m.Android != nil {
			fm.SetAndroidFacet(*m.Android)
		}
	}
	for _, edge := range s.Edges {
		from, present := handles[edge.From]
		if !present {
			return fmt.Errorf("dependency from unknown module %s", edge.From)
		}
		to, present := handles[edge.To]
		if !present {
			return fmt.Errorf("dependency on unknown module %s", edge.To)
		}
		editor.EditModule(from).AddDependency(to)
	}
	return editor.Commit()
}

func findOrCreate(editor ModuleEditor, name string) ModuleHandle {
	if m := editor.FindModule(name); m != nil {
		return m
	}
	return editor.CreateModule(name)
}

// EnsureRunConfigurationModule returns the module for the given target's run configurations,
// creating it if need be. It's used when a run configuration is made for a target that
// didn't have one at the last sync.
func EnsureRunConfigurationModule(editor ModuleEditor, data *core.ProjectData, label core.Label) (ModuleHandle, error) {
	key := core.PlainTargetKey(label)
	name := ModuleName(key)
	if m := editor.FindModule(name); m != nil {
		return m, nil
	}
	if data == nil || data.TargetMap == nil {
		return nil, fmt.Errorf("can't create a module for %s before the project has been synced", label)
	}
	target := data.TargetMap.Get(key)
	if target == nil {
		return nil, &core.MissingReferenceError{Key: key, Referrer: "run configuration"}
	}
	if target.Android == nil {
		return nil, fmt.Errorf("%s is a %s, not an Android target", label, target.Kind)
	}
	m := editor.CreateModule(name)
	facet := androidFacet(Input{WorkspaceRoot: data.WorkspaceRoot, Decoder: data.ArtifactDecoder}, target, nil)
	if fm, ok := editor.EditModule(m).(FacetModule); ok {
		fm.SetAndroidFacet(*facet)
	}
	if err := editor.Commit(); err != nil {
		return nil, err
	}
	log.Info("Created run configuration module %s for %s", name, label)
	return m, nil
}
