// Package structure derives the IDE's module graph from a synced target map.
//
// Synthesis is pure: it produces a Structure describing the modules, their content roots
// and the dependencies between them. Apply then replays that onto a ModuleEditor.
package structure

import (
	"fmt"
	"strings"

	"github.com/thought-machine/blazesync/src/cli/logging"
	"github.com/thought-machine/blazesync/src/core"
)

var log = logging.Log

// A ModuleKind says why a module exists.
type ModuleKind string

// The kinds of module we create.
const (
	// ResourceModule exposes a target's resources, and those of its dependencies.
	ResourceModule ModuleKind = "resource"
	// RunConfigurationModule gives a run configuration something to attach to. It has no content.
	RunConfigurationModule ModuleKind = "run_configuration"
)

var moduleNameReplacer = strings.NewReplacer("/", ".", ":", ".")

// ModuleName returns the name of the module for the given target,
// eg. //java/com/example:lib becomes java.com.example.lib and
// @maven//com/google:guava becomes @maven.com.google.guava.
// Names for distinct keys can collide if package or target names contain dots.
func ModuleName(key core.TargetKey) string {
	repo, rest, found := strings.Cut(key.String(), "//")
	if !found {
		return moduleNameReplacer.Replace(repo)
	} else if repo == "" || repo == "@" {
		return moduleNameReplacer.Replace(rest)
	}
	return repo + "." + moduleNameReplacer.Replace(rest)
}

// An AndroidFacet is the Android-specific configuration of a module.
type AndroidFacet struct {
	ModuleDirectory     string   `yaml:"module_directory"`
	Manifest            string   `yaml:"manifest"`
	ResourceJavaPackage string   `yaml:"resource_java_package,omitempty"`
	ResourceDirectories []string `yaml:"resource_directories,omitempty"`
}

// A Module is one derived module.
type Module struct {
	Name         string         `yaml:"name"`
	Target       core.TargetKey `yaml:"target"`
	Kind         ModuleKind     `yaml:"kind"`
	ContentRoots []string       `yaml:"content_roots,omitempty"`
	Android      *AndroidFacet  `yaml:"android,omitempty"`
}

// An Edge is a dependency of one module on another, by name.
type Edge struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Stats summarise a synthesis.
type Stats struct {
	ResourceModules         int `yaml:"resource_modules"`
	RunConfigurationModules int `yaml:"run_configuration_modules"`
	// OrderEntries counts edges between resource modules; edges from the workspace aren't included.
	OrderEntries       int `yaml:"order_entries"`
	GeneratedResources int `yaml:"generated_resources"`
	MissingReferences  int `yaml:"missing_references"`
	SkippedCandidates  int `yaml:"skipped_candidates"`
}

// A Structure is the complete derived module graph for one sync generation.
type Structure struct {
	WorkspaceModule string   `yaml:"workspace_module"`
	Modules         []Module `yaml:"modules"`
	Edges           []Edge   `yaml:"edges"`
	Stats           Stats    `yaml:"stats"`
	// Missing holds the targets that were referred to but aren't in the target map.
	Missing []*core.MissingReferenceError `yaml:"-"`
}

// Summary returns a one-line description of the structure for the sync log.
func (s *Structure) Summary() string {
	return fmt.Sprintf("Android resource module count: %d, run config modules: %d, order entries: %d, generated resources: %d",
		s.Stats.ResourceModules, s.Stats.RunConfigurationModules, s.Stats.OrderEntries, s.Stats.GeneratedResources)
}

// Module returns the module with the given name, or nil if there isn't one.
func (s *Structure) Module(name string) *Module {
	for i := range s.Modules {
		if s.Modules[i].Name == name {
			return &s.Modules[i]
		}
	}
	return nil
}

// Diagnostics receives messages summarising what a sync did. It is never used for control flow.
type Diagnostics interface {
	Log(message string)
}

// Report sends the summary of the given structure to the diagnostics sink.
func Report(s *Structure, diagnostics Diagnostics) {
	diagnostics.Log(s.Summary())
	if s.Stats.MissingReferences > 0 || s.Stats.SkippedCandidates > 0 {
		diagnostics.Log(fmt.Sprintf("Skipped %d missing targets and %d run configuration targets of unsupported kinds",
			s.Stats.MissingReferences, s.Stats.SkippedCandidates))
	}
}

// LogDiagnostics is a Diagnostics that writes to the log.
type LogDiagnostics struct{}

// Log implements the Diagnostics interface.
func (LogDiagnostics) Log(message string) {
	log.Notice("%s", message)
}
