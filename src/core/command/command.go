// Package command assembles invocations of the external build tool.
// It never runs anything itself; the sync orchestrator is responsible for that.
package command

import (
	"github.com/alessio/shellescape"

	"github.com/thought-machine/blazesync/src/core"
)

// A Builder accumulates the parts of one build tool invocation.
type Builder struct {
	binary  string
	command string
	flags   []string
	targets []core.TargetExpression
}

// NewBuilder returns a builder for running the given subcommand (eg. "build") of the given binary.
func NewBuilder(binary, command string) *Builder {
	return &Builder{binary: binary, command: command}
}

// AddFlags appends flags to the invocation.
func (b *Builder) AddFlags(flags ...string) *Builder {
	b.flags = append(b.flags, flags...)
	return b
}

// AddTargets appends target expressions to the invocation.
func (b *Builder) AddTargets(targets ...core.TargetExpression) *Builder {
	b.targets = append(b.targets, targets...)
	return b
}

// Flags returns a copy of the flags added so far.
func (b *Builder) Flags() []string {
	return append([]string{}, b.flags...)
}

// Args returns the complete argument list, starting with the binary.
// Targets follow a "--" separator so that exclusions (-//foo/...) aren't taken as flags.
func (b *Builder) Args() []string {
	args := make([]string, 0, len(b.flags)+len(b.targets)+3)
	args = append(args, b.binary, b.command)
	args = append(args, b.flags...)
	if len(b.targets) > 0 {
		args = append(args, "--")
		for _, target := range b.targets {
			args = append(args, target.String())
		}
	}
	return args
}

// String returns the invocation quoted for pasting into a shell.
func (b *Builder) String() string {
	return shellescape.QuoteCommand(b.Args())
}
