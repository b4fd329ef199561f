// Package session owns the state of one synced project: the strategy used to talk to the
// build tool, the published sync generations and everything derived from them.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thought-machine/blazesync/src/android"
	"github.com/thought-machine/blazesync/src/artifact"
	"github.com/thought-machine/blazesync/src/aspect"
	"github.com/thought-machine/blazesync/src/cli/logging"
	"github.com/thought-machine/blazesync/src/core"
	"github.com/thought-machine/blazesync/src/core/command"
	"github.com/thought-machine/blazesync/src/ide/structure"
	"github.com/thought-machine/blazesync/src/metrics"
	"github.com/thought-machine/blazesync/src/synccache"
	"github.com/thought-machine/blazesync/src/targetmaps"
)

var log = logging.Log

// An EditorFactory returns a module editor. If sync is true the editor replaces the project's
// modules wholesale, otherwise it makes incremental changes.
type EditorFactory func(sync bool) (structure.ModuleEditor, error)

// A RunConfigurationProvider knows which targets the IDE's run configurations refer to.
type RunConfigurationProvider interface {
	RunConfigurationLabels() []core.Label
}

// StaticRunConfigurations is a RunConfigurationProvider with a fixed set of targets.
type StaticRunConfigurations []core.Label

// RunConfigurationLabels implements the RunConfigurationProvider interface.
func (s StaticRunConfigurations) RunConfigurationLabels() []core.Label {
	return s
}

// A Session is the sync state of one project. Only one sync runs at a time, but the
// published state can be read concurrently with a sync in progress.
type Session struct {
	config     *core.Configuration
	strategy   aspect.Strategy
	cache      *synccache.Cache
	sourceMap  *targetmaps.SourceToTargetMap
	editors    EditorFactory
	runConfigs RunConfigurationProvider
	metrics    *metrics.Metrics
	current    atomic.Pointer[Snapshot]
	generation uint64
	mutex      sync.Mutex
}

// New creates a new session for the given configuration. The aspect strategy is chosen here
// and used for the lifetime of the session.
func New(config *core.Configuration, editors EditorFactory, runConfigs RunConfigurationProvider, m *metrics.Metrics) (*Session, error) {
	strategy, err := aspect.ForName(config.Sync.AspectStrategy)
	if err != nil {
		return nil, err
	}
	if runConfigs == nil {
		runConfigs = StaticRunConfigurations(config.RunConfig.Target)
	}
	if m == nil {
		m = metrics.New("", config.Metrics.Job)
	}
	cache := synccache.New()
	sourceMap, err := targetmaps.New(cache)
	if err != nil {
		return nil, err
	}
	log.Debug("Using the %s aspect strategy", strategy.Name())
	return &Session{
		config:     config,
		strategy:   strategy,
		cache:      cache,
		sourceMap:  sourceMap,
		editors:    editors,
		runConfigs: runConfigs,
		metrics:    m,
	}, nil
}

// Strategy returns the aspect strategy this session uses.
func (s *Session) Strategy() aspect.Strategy {
	return s.strategy
}

// Cache returns the session's sync cache, for registering further consumers.
func (s *Session) Cache() *synccache.Cache {
	return s.cache
}

// A Snapshot is one published sync generation together with the module graph built from it.
type Snapshot struct {
	Data      *core.ProjectData
	Structure *structure.Structure
}

// Current returns the most recently published sync, or nil if there hasn't been one.
// Callers needing both the project data and the structure should read them from one snapshot.
func (s *Session) Current() *Snapshot {
	return s.current.Load()
}

// ProjectData returns the project data of the most recently published sync, or nil.
func (s *Session) ProjectData() *core.ProjectData {
	if snap := s.current.Load(); snap != nil {
		return snap.Data
	}
	return nil
}

// Structure returns the module graph of the most recently published sync, or nil.
func (s *Session) Structure() *structure.Structure {
	if snap := s.current.Load(); snap != nil {
		return snap.Structure
	}
	return nil
}

// SourceToTargetMap returns the index from source files to targets.
func (s *Session) SourceToTargetMap() *targetmaps.SourceToTargetMap {
	return s.sourceMap
}

// BuildCommand returns the command to build the given targets for the given output group.
// If no targets are given, those from the configuration are used.
func (s *Session) BuildCommand(group aspect.OutputGroup, targets []core.TargetExpression) (*command.Builder, error) {
	flags, err := s.config.BuildFlags()
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		targets = s.config.Sync.Target
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets to build")
	}
	b := command.NewBuilder(s.config.Blaze.Binary, "build").AddFlags(flags...)
	s.strategy.AugmentBuildCommand(b, group)
	return b.AddTargets(targets...), nil
}

// Run performs a sync from the aspect output left in aspectDir by a build.
// The new generation is only published if every step succeeds; otherwise the previous one
// remains current.
func (s *Session) Run(ctx context.Context, aspectDir string) (*core.ProjectData, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	start := time.Now()
	data, st, err := s.run(ctx, aspectDir)
	s.metrics.RecordSync(err == nil, time.Since(start))
	defer s.push()
	if err != nil {
		return nil, err
	}
	s.generation = data.Generation
	// Cache consumers are updated before the snapshot so nothing reading it sees an older index.
	s.cache.Publish(data)
	s.current.Store(&Snapshot{Data: data, Structure: st})
	log.Notice("Sync generation %d complete in %0.2fs: %d targets, %d modules", data.Generation, time.Since(start).Seconds(), data.TargetMap.Len(), len(st.Modules))
	return data, nil
}

func (s *Session) run(ctx context.Context, aspectDir string) (*core.ProjectData, *structure.Structure, error) {
	collector := aspect.NewCollector(s.strategy, s.config.Sync.Parallelism, int64(s.config.Sync.MaxAspectFileSize))
	result, err := collector.Collect(ctx, aspectDir)
	if err != nil {
		return nil, nil, err
	}
	s.metrics.RecordCollection(result.Files, len(result.Errors))

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	targetMap, err := core.NewTargetMap(result.Targets)
	if err != nil {
		return nil, nil, err
	}
	decoder, err := artifact.NewDecoder(artifact.RootsFromConfig(s.config))
	if err != nil {
		return nil, nil, err
	}
	imported := android.Import(targetMap, s.config.Android.GeneratedResources)
	for _, missing := range imported.Missing {
		log.Debug("%s", missing)
	}
	data := &core.ProjectData{
		Generation:      s.generation + 1,
		WorkspaceRoot:   s.config.Workspace.Root,
		TargetMap:       targetMap,
		ArtifactDecoder: decoder,
		ResourceModules: imported.ResourceModules,
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	st := structure.Synthesize(structure.Input{
		TargetMap:              targetMap,
		ResourceModules:        imported.ResourceModules,
		Decoder:                decoder,
		WorkspaceRoot:          s.config.Workspace.Root,
		WorkspaceModule:        core.WorkspaceModuleName,
		ProjectLabels:          s.config.ProjectLabels(),
		RunConfigurationLabels: s.runConfigs.RunConfigurationLabels(),
		RunnableKinds:          s.config.Android.RunnableKind,
		GeneratedResources:     len(s.config.Android.GeneratedResources),
	})
	for _, missing := range st.Missing {
		log.Debug("%s", missing)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if s.editors != nil {
		editor, err := s.editors(true)
		if err != nil {
			return nil, nil, err
		}
		if err := structure.Apply(st, editor); err != nil {
			return nil, nil, fmt.Errorf("failed to update modules: %w", err)
		}
	}
	structure.Report(st, s.metrics)
	s.metrics.RecordStructure(st.Stats)
	return data, st, nil
}

// EnsureRunConfigurationModule makes sure the given target has a module for run configurations
// to attach to, creating one if it didn't get one at the last sync.
func (s *Session) EnsureRunConfigurationModule(label core.Label) (structure.ModuleHandle, error) {
	if s.editors == nil {
		return nil, fmt.Errorf("this session has no module editor")
	}
	editor, err := s.editors(false)
	if err != nil {
		return nil, err
	}
	return structure.EnsureRunConfigurationModule(editor, s.ProjectData(), label)
}

// Close drops the published state. Nothing can be read from the session afterwards.
func (s *Session) Close() {
	s.current.Store(nil)
	s.cache.Clear()
	s.push()
}

func (s *Session) push() {
	if err := s.metrics.Push(); err != nil {
		log.Warning("%s", err)
	}
}
