package core

// A DependencyType distinguishes compile-time from runtime dependencies.
type DependencyType int

// The dependency types the aspect reports.
const (
	CompileTimeDependency DependencyType = iota
	RuntimeDependency
)

// A Dependency is one edge of the build graph.
type Dependency struct {
	Target TargetKey
	Type   DependencyType
}

// AndroidIdeInfo is the Android-specific part of a target's facts.
type AndroidIdeInfo struct {
	// Manifest is nil if the target doesn't declare one.
	Manifest            *ArtifactLocation
	ResourceJavaPackage string
	Resources           []ArtifactLocation
	// GenerateResourceClass is true if the target produces its own R class.
	GenerateResourceClass bool
}

// TestIdeInfo is the test-specific part of a target's facts.
type TestIdeInfo struct {
	Size string
}

// TargetIdeInfo is everything a sync learns about one build target.
// It's immutable once constructed; there is one per target per sync generation.
type TargetIdeInfo struct {
	Key          TargetKey
	Kind         Kind
	Sources      []ArtifactLocation
	Dependencies []Dependency
	Tags         []string
	// BuildFile is the BUILD file declaring the target, if known.
	BuildFile *ArtifactLocation
	Android   *AndroidIdeInfo
	Test      *TestIdeInfo
}

// IsPlainTarget returns true if this target can be given directly to the build tool.
func (target *TargetIdeInfo) IsPlainTarget() bool {
	return target.Key.IsPlain()
}

// KindIsOneOf returns true if this target's kind is any of the given ones.
func (target *TargetIdeInfo) KindIsOneOf(kinds ...Kind) bool {
	return target.Kind.IsOneOf(kinds...)
}

// DependencyKeys returns the keys of all this target's direct dependencies, in declaration order.
func (target *TargetIdeInfo) DependencyKeys() []TargetKey {
	ret := make([]TargetKey, len(target.Dependencies))
	for i, dep := range target.Dependencies {
		ret[i] = dep.Target
	}
	return ret
}

// HasTag returns true if the target is tagged with the given tag.
func (target *TargetIdeInfo) HasTag(tag string) bool {
	for _, t := range target.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
