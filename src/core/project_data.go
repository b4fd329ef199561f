package core

// ProjectData is the snapshot published at the end of a successful sync generation.
// Every field is immutable; a new sync publishes a new ProjectData rather than
// altering this one.
type ProjectData struct {
	// Generation increases by one for each published sync.
	Generation      uint64
	WorkspaceRoot   string
	TargetMap       *TargetMap
	ArtifactDecoder ArtifactDecoder
	ResourceModules []ResourceModule
}
