// Package intellij writes the modules of a synced project as IntelliJ project files.
//
// The layout is as follows:
//
//	<project dir>/.idea/modules.xml     lists every module file
//	<modules dir>/<module name>.iml     one per module
package intellij

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/thought-machine/blazesync/src/cli/logging"
	"github.com/thought-machine/blazesync/src/fs"
	"github.com/thought-machine/blazesync/src/ide/structure"
)

var log = logging.Log

const moduleFileExtension = ".iml"

// An Editor is a structure.ModuleEditor over a set of IntelliJ project files.
// Changes are held in memory until Commit writes them out.
type Editor struct {
	projectDir string
	modulesDir string
	// replace is true if this editor is replacing the modules wholesale, as a sync does.
	replace bool
	modules map[string]*Module
	// touched are the modules found, created or edited through this editor.
	touched map[string]bool
	// edited are the modules whose content has been reset for this sync.
	edited map[string]bool
	mutex  sync.Mutex
}

// NewEditor returns an editor for incremental changes to the project in projectDir, whose
// module files live in modulesDir. Existing modules are loaded and kept.
func NewEditor(projectDir, modulesDir string) (*Editor, error) {
	return newEditor(projectDir, modulesDir, false)
}

// NewSyncEditor returns an editor that replaces the project's modules. Modules that aren't
// found or created through it are removed on Commit, and edited modules start out empty.
func NewSyncEditor(projectDir, modulesDir string) (*Editor, error) {
	return newEditor(projectDir, modulesDir, true)
}

func newEditor(projectDir, modulesDir string, replace bool) (*Editor, error) {
	e := &Editor{
		projectDir: projectDir,
		modulesDir: modulesDir,
		replace:    replace,
		modules:    map[string]*Module{},
		touched:    map[string]bool{},
		edited:     map[string]bool{},
	}
	if err := e.load(); err != nil {
		return nil, err
	}
	return e, nil
}

// load reads the existing modules.xml, and every module file it names.
func (e *Editor) load() error {
	if !fs.PathExists(e.modulesFile()) {
		return nil
	}
	b, err := os.ReadFile(e.modulesFile())
	if err != nil {
		return err
	}
	modules := &Modules{}
	if err := xml.Unmarshal(b, modules); err != nil {
		return fmt.Errorf("failed to read %s: %w", e.modulesFile(), err)
	}
	for _, entry := range modules.Component.Modules {
		filename := entry.resolve(e.projectDir)
		b, err := os.ReadFile(filename)
		if err != nil {
			log.Warning("Can't read module file %s, it will be recreated if needed: %s", filename, err)
			continue
		}
		module := &Module{}
		if err := xml.Unmarshal(b, module); err != nil {
			log.Warning("Invalid module file %s, it will be recreated if needed: %s", filename, err)
			continue
		}
		e.modules[strings.TrimSuffix(filepath.Base(filename), moduleFileExtension)] = module
	}
	log.Debug("Loaded %d existing modules from %s", len(e.modules), e.modulesFile())
	return nil
}

func (e *Editor) modulesFile() string {
	return filepath.Join(e.projectDir, ".idea", "modules.xml")
}

func (e *Editor) moduleFile(name string) string {
	return filepath.Join(e.modulesDir, name+moduleFileExtension)
}

type moduleHandle string

func (h moduleHandle) Name() string { return string(h) }

// FindModule implements the structure.ModuleEditor interface.
func (e *Editor) FindModule(name string) structure.ModuleHandle {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if _, present := e.modules[name]; !present {
		return nil
	}
	e.touched[name] = true
	return moduleHandle(name)
}

// CreateModule implements the structure.ModuleEditor interface.
func (e *Editor) CreateModule(name string) structure.ModuleHandle {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if _, present := e.modules[name]; !present {
		e.modules[name] = newJavaModule()
		e.edited[name] = true
	}
	e.touched[name] = true
	return moduleHandle(name)
}

// EditModule implements the structure.ModuleEditor interface.
func (e *Editor) EditModule(module structure.ModuleHandle) structure.ModifiableModule {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	name := module.Name()
	m, present := e.modules[name]
	if !present || (e.replace && !e.edited[name]) {
		m = newJavaModule()
		e.modules[name] = m
	}
	e.touched[name] = true
	e.edited[name] = true
	return &modifiableModule{editor: e, module: m}
}

// Commit implements the structure.ModuleEditor interface.
func (e *Editor) Commit() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.replace {
		for name := range e.modules {
			if !e.touched[name] {
				log.Debug("Removing module %s", name)
				delete(e.modules, name)
				if err := os.Remove(e.moduleFile(name)); err != nil && !os.IsNotExist(err) {
					return err
				}
			}
		}
	}
	names := maps.Keys(e.modules)
	slices.Sort(names)
	paths := make([]string, len(names))
	for i, name := range names {
		if e.edited[name] || !fs.FileExists(e.moduleFile(name)) {
			if err := e.writeModule(name); err != nil {
				return err
			}
		}
		rel, err := filepath.Rel(e.projectDir, e.moduleFile(name))
		if err != nil {
			return err
		}
		paths[i] = rel
	}
	if err := fs.WriteFile(e.modulesFile(), 0644, newModules(paths).toXML); err != nil {
		return err
	}
	log.Info("Wrote %d modules to %s", len(names), e.modulesDir)
	e.edited = map[string]bool{}
	return nil
}

func (e *Editor) writeModule(name string) error {
	if err := fs.WriteFile(e.moduleFile(name), 0644, e.modules[name].toXML); err != nil {
		return fmt.Errorf("failed to write module %s: %w", name, err)
	}
	return nil
}

// ModuleNames returns the names of every module the editor knows about, sorted.
func (e *Editor) ModuleNames() []string {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	names := maps.Keys(e.modules)
	slices.Sort(names)
	return names
}

// A modifiableModule is a module being changed through an Editor.
type modifiableModule struct {
	editor *Editor
	module *Module
}

// AddContentRoot implements the structure.ModifiableModule interface.
func (m *modifiableModule) AddContentRoot(path string) {
	m.editor.mutex.Lock()
	defer m.editor.mutex.Unlock()
	m.module.component(rootManager).addContentRoot(path)
}

// AddDependency implements the structure.ModifiableModule interface.
func (m *modifiableModule) AddDependency(dep structure.ModuleHandle) {
	m.editor.mutex.Lock()
	defer m.editor.mutex.Unlock()
	m.module.component(rootManager).addModuleDependency(dep.Name())
}

// SetAndroidFacet implements the structure.FacetModule interface.
func (m *modifiableModule) SetAndroidFacet(facet structure.AndroidFacet) {
	m.editor.mutex.Lock()
	defer m.editor.mutex.Unlock()
	m.module.setAndroidFacet(facet)
}
