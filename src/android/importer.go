// Package android works out which targets get a resource module of their own, and which
// resources each of those modules can see.
package android

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/thought-machine/blazesync/src/cli/logging"
	"github.com/thought-machine/blazesync/src/core"
)

var log = logging.Log

// An ImportResult is the outcome of importing the Android parts of a target map.
type ImportResult struct {
	ResourceModules []core.ResourceModule
	// Missing holds every dependency that isn't in the target map.
	Missing []*core.MissingReferenceError
	// DroppedGeneratedResources counts generated resource directories that weren't whitelisted.
	DroppedGeneratedResources int
}

// An importer holds the state of one import.
type importer struct {
	targets   *core.TargetMap
	whitelist map[string]bool
	missing   map[core.TargetKey]*core.MissingReferenceError
	dropped   int
}

// Import finds the resource modules in the given target map. A target with Android info gets
// one if it declares resources or generates its own resource class.
// Generated resource directories are only kept if their path is in the whitelist; the build
// tool produces many of them and most are of no interest while editing.
func Import(targets *core.TargetMap, generatedWhitelist []string) *ImportResult {
	imp := &importer{
		targets:   targets,
		whitelist: make(map[string]bool, len(generatedWhitelist)),
		missing:   map[core.TargetKey]*core.MissingReferenceError{},
	}
	for _, dir := range generatedWhitelist {
		imp.whitelist[dir] = true
	}
	result := &ImportResult{}
	for _, target := range targets.Targets() {
		if isResourceModule(target) {
			result.ResourceModules = append(result.ResourceModules, imp.resourceModule(target))
		}
	}
	missing := maps.Values(imp.missing)
	sortMissing(missing)
	result.Missing = missing
	result.DroppedGeneratedResources = imp.dropped
	if imp.dropped > 0 {
		log.Warning("Dropped %d generated resource directories; add them to android.generatedresources to include them", imp.dropped)
	}
	log.Debug("Found %d Android resource modules in %d targets", len(result.ResourceModules), targets.Len())
	return result
}

func isResourceModule(target *core.TargetIdeInfo) bool {
	return target.Android != nil && (len(target.Android.Resources) > 0 || target.Android.GenerateResourceClass)
}

// resourceModule builds the descriptor for one target by walking everything reachable from it.
// The walk tracks what it has seen so cycles in the graph terminate.
func (imp *importer) resourceModule(target *core.TargetIdeInfo) core.ResourceModule {
	module := core.ResourceModule{
		TargetKey: target.Key,
		Resources: imp.resources(target, false),
	}
	resources := map[core.ArtifactLocation]struct{}{}
	for _, res := range module.Resources {
		resources[res] = struct{}{}
	}
	deps := map[core.TargetKey]struct{}{}
	seen := map[core.TargetKey]bool{target.Key: true}
	queue := target.DependencyKeys()
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		if seen[key] {
			continue
		}
		seen[key] = true
		dep := imp.targets.Get(key)
		if dep == nil {
			if _, present := imp.missing[key]; !present {
				imp.missing[key] = &core.MissingReferenceError{Key: key, Referrer: target.Key.String()}
			}
			continue
		}
		if dep.Android != nil {
			if isResourceModule(dep) {
				deps[key] = struct{}{}
			}
			for _, res := range imp.resources(dep, true) {
				resources[res] = struct{}{}
			}
		}
		queue = append(queue, dep.DependencyKeys()...)
	}
	module.TransitiveResources = maps.Keys(resources)
	core.SortArtifactLocations(module.TransitiveResources)
	module.TransitiveResourceDependencies = maps.Keys(deps)
	core.SortTargetKeys(module.TransitiveResourceDependencies)
	return module
}

// resources returns the target's own resources, without generated ones that aren't whitelisted.
// Each dropped directory is only counted once, when its own target is visited directly.
func (imp *importer) resources(target *core.TargetIdeInfo, transitive bool) []core.ArtifactLocation {
	ret := make([]core.ArtifactLocation, 0, len(target.Android.Resources))
	seen := map[core.ArtifactLocation]bool{}
	for _, res := range target.Android.Resources {
		if seen[res] {
			continue
		}
		seen[res] = true
		if res.IsGenerated() && !imp.whitelist[res.RelativePath] {
			if !transitive {
				log.Debug("Dropping generated resource directory %s of %s", res, target.Key)
				imp.dropped++
			}
			continue
		}
		ret = append(ret, res)
	}
	core.SortArtifactLocations(ret)
	return ret
}

func sortMissing(missing []*core.MissingReferenceError) {
	slices.SortFunc(missing, func(a, b *core.MissingReferenceError) bool { return a.Key.Less(b.Key) })
}
