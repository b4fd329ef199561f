package structure

import (
	"path/filepath"

	"golang.org/x/exp/slices"

	"github.com/thought-machine/blazesync/src/core"
)

// Input is everything a synthesis reads.
type Input struct {
	TargetMap       *core.TargetMap
	ResourceModules []core.ResourceModule
	Decoder         core.ArtifactDecoder
	WorkspaceRoot   string
	// WorkspaceModule is the name of the module covering the whole workspace.
	WorkspaceModule string
	// ProjectLabels are the targets named explicitly in the project's target list.
	ProjectLabels []core.Label
	// RunConfigurationLabels are the targets existing run configurations refer to.
	RunConfigurationLabels []core.Label
	// RunnableKinds are the kinds of target that can have a run configuration.
	RunnableKinds []core.Kind
	// GeneratedResources is the number of whitelisted generated resource directories.
	GeneratedResources int
}

// Synthesize works out the module graph for the given input.
// Targets that are referred to but not present are skipped and reported in the result;
// the rest of the graph is still produced.
func Synthesize(input Input) *Structure {
	s := &Structure{WorkspaceModule: input.WorkspaceModule}
	s.Stats.GeneratedResources = input.GeneratedResources
	missing := map[core.TargetKey]*core.MissingReferenceError{}
	addMissing := func(key core.TargetKey, referrer string) {
		if _, present := missing[key]; !present {
			missing[key] = &core.MissingReferenceError{Key: key, Referrer: referrer}
		}
	}

	resourceModules := append([]core.ResourceModule(nil), input.ResourceModules...)
	slices.SortFunc(resourceModules, func(a, b core.ResourceModule) bool { return a.TargetKey.Less(b.TargetKey) })

	// Every resource module is named before any edges are considered, since a dependency
	// can appear before the module it points to.
	names := map[string]core.TargetKey{}
	modules := map[core.TargetKey]string{}
	for _, rm := range resourceModules {
		target := input.TargetMap.Get(rm.TargetKey)
		if target == nil {
			addMissing(rm.TargetKey, "resource modules")
			continue
		}
		name := ModuleName(rm.TargetKey)
		if other, present := names[name]; present {
			log.Warning("Targets %s and %s both map to module %s; only the first gets a module", other, rm.TargetKey, name)
			continue
		}
		names[name] = rm.TargetKey
		modules[rm.TargetKey] = name
		s.Modules = append(s.Modules, Module{
			Name:         name,
			Target:       rm.TargetKey,
			Kind:         ResourceModule,
			ContentRoots: sortedUnique(input.Decoder.DecodeAll(rm.Resources)),
			Android:      androidFacet(input, target, rm.TransitiveResources),
		})
	}
	s.Stats.ResourceModules = len(s.Modules)

	for _, rm := range resourceModules {
		from, present := modules[rm.TargetKey]
		if !present {
			continue
		}
		for _, dep := range rm.TransitiveResourceDependencies {
			if to, present := modules[dep]; present {
				s.Edges = append(s.Edges, Edge{From: from, To: to})
				s.Stats.OrderEntries++
			} else if !input.TargetMap.Contains(dep) {
				addMissing(dep, rm.TargetKey.String())
			}
		}
		if input.WorkspaceModule != "" {
			s.Edges = append(s.Edges, Edge{From: input.WorkspaceModule, To: from})
		}
	}

	for _, target := range runConfigurationTargets(input, modules, addMissing, &s.Stats) {
		name := ModuleName(target.Key)
		if other, present := names[name]; present {
			log.Warning("Targets %s and %s both map to module %s; only the first gets a module", other, target.Key, name)
			continue
		}
		names[name] = target.Key
		s.Modules = append(s.Modules, Module{
			Name:    name,
			Target:  target.Key,
			Kind:    RunConfigurationModule,
			Android: androidFacet(input, target, nil),
		})
		s.Stats.RunConfigurationModules++
	}

	slices.SortFunc(s.Edges, func(a, b Edge) bool {
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})
	s.Edges = slices.Compact(s.Edges)
	for _, m := range missing {
		s.Missing = append(s.Missing, m)
	}
	slices.SortFunc(s.Missing, func(a, b *core.MissingReferenceError) bool { return a.Key.Less(b.Key) })
	s.Stats.MissingReferences = len(s.Missing)
	return s
}

// runConfigurationTargets returns the targets that need a module for run configurations:
// those named in the project or in existing run configurations, which exist, are runnable,
// and don't already have a resource module.
func runConfigurationTargets(input Input, resourceModules map[core.TargetKey]string, addMissing func(core.TargetKey, string), stats *Stats) []*core.TargetIdeInfo {
	referrers := map[core.Label]string{}
	for _, label := range input.RunConfigurationLabels {
		referrers[label] = "run configuration"
	}
	for _, label := range input.ProjectLabels {
		referrers[label] = "project targets"
	}
	labels := make([]core.Label, 0, len(referrers))
	for label := range referrers {
		labels = append(labels, label)
	}
	slices.Sort(labels)

	var ret []*core.TargetIdeInfo
	for _, label := range labels {
		key := core.PlainTargetKey(label)
		if _, present := resourceModules[key]; present {
			continue
		}
		target := input.TargetMap.Get(key)
		if target == nil {
			addMissing(key, referrers[label])
			continue
		}
		if !target.KindIsOneOf(input.RunnableKinds...) {
			log.Debug("Not creating a run configuration module for %s, %s isn't runnable", label, target.Kind)
			stats.SkippedCandidates++
			continue
		}
		ret = append(ret, target)
	}
	return ret
}

// androidFacet returns the Android configuration for the given target's module, or nil if it
// isn't an Android target.
func androidFacet(input Input, target *core.TargetIdeInfo, resources []core.ArtifactLocation) *AndroidFacet {
	if target.Android == nil {
		return nil
	}
	dir := filepath.Join(input.WorkspaceRoot, string(target.Key.Label.Package()))
	facet := &AndroidFacet{
		ModuleDirectory:     dir,
		Manifest:            filepath.Join(dir, "AndroidManifest.xml"),
		ResourceJavaPackage: target.Android.ResourceJavaPackage,
	}
	if target.Android.Manifest != nil {
		facet.Manifest = input.Decoder.Decode(*target.Android.Manifest)
	}
	if len(resources) > 0 {
		facet.ResourceDirectories = input.Decoder.DecodeAll(resources)
	}
	return facet
}

func sortedUnique(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	slices.Sort(paths)
	return slices.Compact(paths)
}
