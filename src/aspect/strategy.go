// Package aspect knows how to ask the build tool for IDE information about targets, and
// how to read back what it wrote.
//
// Two flavours of aspect exist: the one compiled into the build tool, which writes binary
// protobuf, and the one loaded from a Starlark bundle, which writes text protobuf. A session
// picks one and sticks with it.
package aspect

import (
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"

	"github.com/thought-machine/blazesync/src/cli/logging"
	"github.com/thought-machine/blazesync/src/core"
	"github.com/thought-machine/blazesync/src/core/command"
	"github.com/thought-machine/blazesync/src/utils"
)

var log = logging.Log

// An OutputGroup selects which of the aspect's outputs a build should produce.
type OutputGroup string

// The output groups the aspects define.
const (
	// OutputGroupInfo produces the target info files only.
	OutputGroupInfo OutputGroup = "ide-info"
	// OutputGroupResolve additionally produces the jars and generated sources needed to resolve symbols.
	OutputGroupResolve OutputGroup = "ide-resolve"
	// OutputGroupCompile additionally compiles the targets.
	OutputGroupCompile OutputGroup = "ide-compile"
)

// A Strategy is one way of running and reading back the IDE info aspect.
type Strategy interface {
	// Name returns the name used to select this strategy in configuration.
	Name() string
	// AugmentBuildCommand adds the flags needed to run the aspect for the given output group.
	AugmentBuildCommand(builder *command.Builder, group OutputGroup)
	// OutputFileExtension is the suffix of the files the aspect writes, one per target.
	OutputFileExtension() string
	// ReadTargetInfo decodes one aspect output file.
	ReadTargetInfo(r io.Reader) (*core.TargetIdeInfo, error)
}

// NativeAspect is the aspect built into the build tool itself.
type NativeAspect struct{}

// Name implements the Strategy interface.
func (NativeAspect) Name() string { return "native" }

// AugmentBuildCommand implements the Strategy interface.
func (NativeAspect) AugmentBuildCommand(builder *command.Builder, group OutputGroup) {
	builder.AddFlags("--aspects=AndroidStudioInfoAspect", "--output_groups="+string(group))
}

// OutputFileExtension implements the Strategy interface.
func (NativeAspect) OutputFileExtension() string { return ".aswb-build" }

// ReadTargetInfo implements the Strategy interface.
func (NativeAspect) ReadTargetInfo(r io.Reader) (*core.TargetIdeInfo, error) {
	return readTargetInfo(r, proto.Unmarshal)
}

// StarlarkAspect is the aspect shipped as a Starlark bundle alongside the IDE plugin.
type StarlarkAspect struct{}

// Name implements the Strategy interface.
func (StarlarkAspect) Name() string { return "starlark" }

// AugmentBuildCommand implements the Strategy interface.
func (StarlarkAspect) AugmentBuildCommand(builder *command.Builder, group OutputGroup) {
	builder.AddFlags("--aspects=@intellij_aspect//:intellij_info_bundled.bzl%intellij_info_aspect", "--output_groups="+string(group))
}

// OutputFileExtension implements the Strategy interface.
func (StarlarkAspect) OutputFileExtension() string { return ".intellij-info.txt" }

// ReadTargetInfo implements the Strategy interface.
func (StarlarkAspect) ReadTargetInfo(r io.Reader) (*core.TargetIdeInfo, error) {
	return readTargetInfo(r, prototext.Unmarshal)
}

func readTargetInfo(r io.Reader, unmarshal func([]byte, proto.Message) error) (*core.TargetIdeInfo, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	msg := newTargetIdeInfo()
	if err := unmarshal(b, msg); err != nil {
		return nil, &DecodeError{Err: err}
	}
	target, err := toTargetIdeInfo(msg)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return target, nil
}

var strategies = map[string]Strategy{
	NativeAspect{}.Name():   NativeAspect{},
	StarlarkAspect{}.Name(): StarlarkAspect{},
}

// ForName returns the strategy with the given name.
func ForName(name string) (Strategy, error) {
	if s, present := strategies[name]; present {
		return s, nil
	}
	return nil, fmt.Errorf("unknown aspect strategy %s%s", name, utils.PrettyPrintSuggestion(name, Names(), 4))
}

// Names returns the names of all the available strategies.
func Names() []string {
	return []string{NativeAspect{}.Name(), StarlarkAspect{}.Name()}
}
