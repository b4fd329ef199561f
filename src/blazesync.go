package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/thought-machine/blazesync/src/aspect"
	"github.com/thought-machine/blazesync/src/cli"
	"github.com/thought-machine/blazesync/src/cli/logging"
	"github.com/thought-machine/blazesync/src/core"
	"github.com/thought-machine/blazesync/src/ide/intellij"
	"github.com/thought-machine/blazesync/src/ide/structure"
	"github.com/thought-machine/blazesync/src/metrics"
	"github.com/thought-machine/blazesync/src/session"
)

var log = logging.Log

var opts struct {
	Usage string `usage:"blazesync synchronises an IntelliJ project with the targets of a Bazel workspace.\n\nIt reads the files written by the IDE aspect for each target, works out which modules the project needs and writes them as IntelliJ module files."`

	Verbosity    cli.Verbosity `short:"v" long:"verbosity" default:"notice" description:"Verbosity of output (error, warning, notice, info, debug)"`
	LogFile      string        `long:"log_file" description:"File to echo full logging output to"`
	LogFileLevel cli.Verbosity `long:"log_file_level" default:"debug" description:"Log level for file output"`
	Workspace    string        `short:"w" long:"workspace" description:"Root of the workspace. Defaults to the current directory."`

	Sync struct {
		Args struct {
			AspectDir string `positional-arg-name:"aspect_dir" description:"Directory containing the aspect output files" required:"true"`
		} `positional-args:"true" required:"true"`
	} `command:"sync" description:"Syncs the IntelliJ project from a directory of aspect outputs"`

	Command struct {
		OutputGroup string `short:"g" long:"output_group" default:"ide-info" choice:"ide-info" choice:"ide-resolve" choice:"ide-compile" description:"Output group to request from the aspect"`
		Args        struct {
			Targets []core.TargetExpression `positional-arg-name:"targets" description:"Targets to build. Defaults to the configured sync targets."`
		} `positional-args:"true"`
	} `command:"command" description:"Prints the build command that produces the aspect outputs"`

	Sources struct {
		Buildable bool `short:"b" long:"buildable" description:"Only print labels of targets that can be built directly"`
		Args      struct {
			AspectDir string           `positional-arg-name:"aspect_dir" description:"Directory containing the aspect output files" required:"true"`
			Files     cli.StdinStrings `positional-arg-name:"files" description:"Source files to look up. Pass - to read them from stdin." required:"true"`
		} `positional-args:"true" required:"true"`
	} `command:"sources" description:"Syncs, then prints the targets that each source file belongs to"`

	Validate struct {
		Args struct {
			Labels []string `positional-arg-name:"labels" description:"Labels to check" required:"true"`
		} `positional-args:"true" required:"true"`
	} `command:"validate" description:"Checks that labels are well-formed"`

	Structure struct {
		Args struct {
			AspectDir string `positional-arg-name:"aspect_dir" description:"Directory containing the aspect output files" required:"true"`
		} `positional-args:"true" required:"true"`
	} `command:"structure" description:"Syncs, then prints the synthesized project structure as YAML"`
}

var commands = map[string]func(ctx context.Context, config *core.Configuration) int{
	"sync": func(ctx context.Context, config *core.Configuration) int {
		s := newSession(config)
		defer s.Close()
		if _, err := s.Run(ctx, opts.Sync.Args.AspectDir); err != nil {
			log.Errorf("Sync failed: %s", err)
			return 1
		}
		return 0
	},
	"command": func(ctx context.Context, config *core.Configuration) int {
		s := newSession(config)
		defer s.Close()
		cmd, err := s.BuildCommand(aspect.OutputGroup(opts.Command.OutputGroup), opts.Command.Args.Targets)
		if err != nil {
			log.Errorf("%s", err)
			return 1
		}
		fmt.Println(cmd.String())
		return 0
	},
	"sources": func(ctx context.Context, config *core.Configuration) int {
		s := newSession(config)
		defer s.Close()
		if _, err := s.Run(ctx, opts.Sources.Args.AspectDir); err != nil {
			log.Errorf("Sync failed: %s", err)
			return 1
		}
		files, err := opts.Sources.Args.Files.Get()
		if err != nil {
			log.Errorf("%s", err)
			return 1
		}
		m := s.SourceToTargetMap()
		for _, file := range files {
			if opts.Sources.Buildable {
				for _, label := range m.BuildableLabelsForSourceFile(file) {
					fmt.Printf("%s %s\n", file, label)
				}
				continue
			}
			for _, key := range m.TargetsForSourceFile(file) {
				fmt.Printf("%s %s\n", file, key)
			}
		}
		return 0
	},
	"validate": func(ctx context.Context, config *core.Configuration) int {
		ret := 0
		for _, text := range opts.Validate.Args.Labels {
			if _, err := core.ParseLabel(text); err != nil {
				for _, verr := range core.ValidationErrors(err) {
					fmt.Printf("%s: %s\n", text, verr)
				}
				ret = 1
			}
		}
		return ret
	},
	"structure": func(ctx context.Context, config *core.Configuration) int {
		s := newSession(config)
		defer s.Close()
		if _, err := s.Run(ctx, opts.Structure.Args.AspectDir); err != nil {
			log.Errorf("Sync failed: %s", err)
			return 1
		}
		return printStructure(s.Structure())
	},
}

func printStructure(st *structure.Structure) int {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	if err := enc.Encode(st); err != nil {
		log.Errorf("Failed to write structure: %s", err)
		return 1
	}
	return 0
}

// newSession creates the session for this invocation, with module files written under the workspace.
func newSession(config *core.Configuration) *session.Session {
	root := config.Workspace.Root
	modulesDir := filepath.Join(root, config.IntelliJ.ModulesDir)
	editors := func(sync bool) (structure.ModuleEditor, error) {
		if sync {
			return intellij.NewSyncEditor(root, modulesDir)
		}
		return intellij.NewEditor(root, modulesDir)
	}
	s, err := session.New(config, editors, nil, metrics.New(config.Metrics.PushGatewayURL, config.Metrics.Job))
	if err != nil {
		log.Fatalf("%s", err)
	}
	return s
}

func readConfig() *core.Configuration {
	dir := opts.Workspace
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			log.Fatalf("Can't determine working directory: %s", err)
		}
		dir = wd
	}
	config, err := core.ReadDefaultConfigFiles(dir)
	if err != nil {
		log.Fatalf("Error reading config file: %s", err)
	}
	if config.Workspace.Root == "" {
		config.Workspace.Root = dir
	}
	return config
}

func main() {
	command := cli.ParseFlagsOrDie("blazesync", &opts)
	cli.InitLogging(opts.Verbosity)
	closer := func() {}
	if opts.LogFile != "" {
		c, err := cli.InitFileLogging(opts.LogFile, opts.LogFileLevel)
		if err != nil {
			log.Fatalf("Error opening log file: %s", err)
		}
		closer = c
	}
	ctx, stop := cli.SignalContext(context.Background())
	ret := commands[command](ctx, readConfig())
	stop()
	closer()
	if ret != 0 {
		os.Exit(ret)
	}
}
