package core

// A ResourceModule describes a target whose resources (and those of its dependencies)
// are exposed to the IDE through a module of their own.
// They're computed once per sync and never mutated afterwards.
type ResourceModule struct {
	TargetKey TargetKey
	// Resources are the resource locations the target declares directly.
	Resources []ArtifactLocation
	// TransitiveResources are the resources reachable through the target's dependencies,
	// including its own.
	TransitiveResources []ArtifactLocation
	// TransitiveResourceDependencies are the other resource-bearing targets reachable
	// through its dependencies.
	TransitiveResourceDependencies []TargetKey
}
