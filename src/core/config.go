// Utilities for reading the blazesync config files.

package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/please-build/gcfg"

	"github.com/thought-machine/blazesync/src/cli"
)

// ConfigFileName is the file name for the typical repo config - this is normally checked in.
const ConfigFileName string = ".blazesync"

// LocalConfigFileName is the file name for the local repo config - this is not normally
// checked in and used to override settings on the local machine.
const LocalConfigFileName string = ".blazesync.local"

// WorkspaceModuleName is the name of the module covering the whole workspace.
const WorkspaceModuleName = ".workspace"

// A Configuration holds everything read from the config files.
type Configuration struct {
	Workspace struct {
		Root string `help:"Root of the workspace. Defaults to the directory containing the config file."`
		Name string `help:"Name of the project, used for the IDE project files."`
	} `help:"Describes the workspace being synced."`
	Blaze struct {
		Binary        string `help:"The build tool to invoke."`
		BuildFlags    string `help:"Extra flags to pass on every build tool invocation, split as a shell would."`
		OutputBase    string `help:"The build tool's output base."`
		ExecutionRoot string `help:"The build tool's execution root; generated artifacts live beneath it."`
	} `help:"Describes the build tool and where it puts its outputs."`
	Sync struct {
		AspectStrategy    string             `help:"Protocol used to collect target information. One of native or starlark."`
		Target            []TargetExpression `help:"Targets (or patterns) to sync."`
		Parallelism       int                `help:"Number of aspect output files to decode concurrently."`
		MaxAspectFileSize cli.ByteSize       `help:"Aspect output files larger than this are rejected."`
	} `help:"Controls how syncs are performed."`
	Android struct {
		RunnableKind       []Kind   `help:"Rule kinds that get a module for run configurations."`
		GeneratedResources []string `help:"Generated resource directories to include in resource modules."`
	} `help:"Android-specific settings."`
	RunConfig struct {
		Target []Label `help:"Targets that existing run configurations refer to."`
	} `help:"Run configurations already present in the IDE."`
	IntelliJ struct {
		ModulesDir string `help:"Directory to write module files into, relative to the workspace root."`
	} `help:"Settings for the generated IntelliJ project."`
	Metrics struct {
		PushGatewayURL string `help:"URL of a Prometheus pushgateway to send sync metrics to."`
		Job            string `help:"Job name used when pushing metrics."`
	} `help:"Settings for reporting metrics."`
}

// DefaultConfiguration returns the configuration used when no file overrides it.
func DefaultConfiguration() *Configuration {
	config := &Configuration{}
	config.Blaze.Binary = "bazel"
	config.Sync.AspectStrategy = "native"
	config.Sync.Parallelism = 8
	config.Sync.MaxAspectFileSize = 64 * 1024 * 1024
	config.IntelliJ.ModulesDir = ".ijwb/.blaze/modules"
	config.Metrics.Job = "blazesync"
	return config
}

func readConfigFile(config *Configuration, filename string) error {
	if err := gcfg.ReadFileInto(config, filename); err != nil && os.IsNotExist(err) {
		return nil // It's not an error to not have the file at all.
	} else if err != nil {
		return err
	}
	log.Debug("Read config from %s", filename)
	return nil
}

// ReadConfigFiles reads a config file from the given locations, in order.
// Values are filled in by defaults initially and then overridden by each file in turn.
func ReadConfigFiles(filenames []string) (*Configuration, error) {
	config := DefaultConfiguration()
	for _, filename := range filenames {
		if err := readConfigFile(config, filename); err != nil {
			return config, err
		}
	}
	// Set default values for slices. These add rather than overwriting so we can't set
	// them upfront as we would with other config values.
	if len(config.Android.RunnableKind) == 0 {
		config.Android.RunnableKind = []Kind{KindAndroidBinary, KindAndroidTest}
	}
	if config.Workspace.Root == "" && len(filenames) > 0 {
		config.Workspace.Root = filepath.Dir(filenames[0])
	}
	if config.Workspace.Name == "" && config.Workspace.Root != "" {
		config.Workspace.Name = filepath.Base(config.Workspace.Root)
	}
	if config.Sync.Parallelism <= 0 {
		return config, fmt.Errorf("sync.parallelism must be positive, was %d", config.Sync.Parallelism)
	}
	if _, err := config.BuildFlags(); err != nil {
		return config, err
	}
	return config, nil
}

// ReadDefaultConfigFiles reads the repo and local config files from the given directory.
func ReadDefaultConfigFiles(dir string) (*Configuration, error) {
	return ReadConfigFiles([]string{
		filepath.Join(dir, ConfigFileName),
		filepath.Join(dir, LocalConfigFileName),
	})
}

// BuildFlags returns the extra build flags, split into separate arguments.
func (config *Configuration) BuildFlags() ([]string, error) {
	if strings.TrimSpace(config.Blaze.BuildFlags) == "" {
		return nil, nil
	}
	flags, err := shlex.Split(config.Blaze.BuildFlags)
	if err != nil {
		return nil, fmt.Errorf("invalid blaze.buildflags %q: %w", config.Blaze.BuildFlags, err)
	}
	return flags, nil
}

// ProjectLabels returns the labels named explicitly in the target list. Patterns are left out.
func (config *Configuration) ProjectLabels() []Label {
	var ret []Label
	for _, expr := range config.Sync.Target {
		if label, ok := expr.Label(); ok && !expr.IsExcluded() {
			ret = append(ret, label)
		}
	}
	return ret
}
