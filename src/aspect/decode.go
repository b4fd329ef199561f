package aspect

import (
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/thought-machine/blazesync/src/core"
)

// A DecodeError is returned when an aspect output file can't be turned into a target.
// Path is empty when the input didn't come from a file.
type DecodeError struct {
	Path string
	Err  error
}

func (err *DecodeError) Error() string {
	if err.Path == "" {
		return "failed to decode target info: " + err.Err.Error()
	}
	return fmt.Sprintf("failed to decode target info from %s: %s", err.Path, err.Err)
}

func (err *DecodeError) Unwrap() error {
	return err.Err
}

// fields wraps a decoded message for reading fields by name.
type fields struct {
	msg protoreflect.Message
}

func (f fields) field(name string) protoreflect.FieldDescriptor {
	fd := f.msg.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		panic(fmt.Sprintf("%s has no field %s", f.msg.Descriptor().FullName(), name))
	}
	return fd
}

func (f fields) has(name string) bool {
	return f.msg.Has(f.field(name))
}

func (f fields) str(name string) string {
	return f.msg.Get(f.field(name)).String()
}

func (f fields) boolean(name string) bool {
	return f.msg.Get(f.field(name)).Bool()
}

func (f fields) message(name string) fields {
	return fields{msg: f.msg.Get(f.field(name)).Message()}
}

func (f fields) list(name string) protoreflect.List {
	return f.msg.Get(f.field(name)).List()
}

func (f fields) strings(name string) []string {
	l := f.list(name)
	if l.Len() == 0 {
		return nil
	}
	ret := make([]string, l.Len())
	for i := range ret {
		ret[i] = l.Get(i).String()
	}
	return ret
}

func (f fields) messages(name string) []fields {
	l := f.list(name)
	if l.Len() == 0 {
		return nil
	}
	ret := make([]fields, l.Len())
	for i := range ret {
		ret[i] = fields{msg: l.Get(i).Message()}
	}
	return ret
}

// checkUnknown fails if the message, or any message within it, has fields the schema doesn't
// know about. Those mean the aspect and this tool disagree about the format.
func checkUnknown(msg protoreflect.Message) error {
	if len(msg.GetUnknown()) > 0 {
		return fmt.Errorf("unknown fields in %s", msg.Descriptor().FullName())
	}
	var err error
	msg.Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		if fd.Kind() != protoreflect.MessageKind {
			return true
		}
		if fd.IsList() {
			for i := 0; i < v.List().Len() && err == nil; i++ {
				err = checkUnknown(v.List().Get(i).Message())
			}
		} else {
			err = checkUnknown(v.Message())
		}
		return err == nil
	})
	return err
}

// toTargetIdeInfo converts a decoded TargetIdeInfo message into the graph model.
func toTargetIdeInfo(msg protoreflect.Message) (*core.TargetIdeInfo, error) {
	if err := checkUnknown(msg); err != nil {
		return nil, err
	}
	info := fields{msg: msg}
	if !info.has("key") {
		return nil, fmt.Errorf("target has no key")
	}
	key, err := toTargetKey(info.message("key"))
	if err != nil {
		return nil, err
	}
	target := &core.TargetIdeInfo{
		Key:     key,
		Kind:    core.Kind(info.str("kind_string")),
		Sources: toArtifactLocations(info.messages("sources")),
		Tags:    info.strings("tags"),
	}
	for _, dep := range info.messages("deps") {
		if !dep.has("target") {
			return nil, fmt.Errorf("dependency of %s has no target", key)
		}
		depKey, err := toTargetKey(dep.message("target"))
		if err != nil {
			return nil, fmt.Errorf("dependency of %s: %w", key, err)
		}
		target.Dependencies = append(target.Dependencies, core.Dependency{
			Target: depKey,
			Type:   core.DependencyType(dep.msg.Get(dep.field("dependency_type")).Enum()),
		})
	}
	if info.has("build_file_artifact_location") {
		loc := toArtifactLocation(info.message("build_file_artifact_location"))
		target.BuildFile = &loc
	}
	if info.has("android_ide_info") {
		android := info.message("android_ide_info")
		target.Android = &core.AndroidIdeInfo{
			ResourceJavaPackage:   android.str("java_package"),
			Resources:             toArtifactLocations(android.messages("resources")),
			GenerateResourceClass: android.boolean("generate_resource_class"),
		}
		if android.has("manifest") {
			manifest := toArtifactLocation(android.message("manifest"))
			target.Android.Manifest = &manifest
		}
	}
	if info.has("test_info") {
		target.Test = &core.TestIdeInfo{Size: info.message("test_info").str("size")}
	}
	return target, nil
}

func toTargetKey(key fields) (core.TargetKey, error) {
	label, err := core.ParseLabel(key.str("label"))
	if err != nil {
		return core.TargetKey{}, fmt.Errorf("invalid label %q: %w", key.str("label"), err)
	}
	return core.NewTargetKey(label, key.strings("aspect_ids")), nil
}

func toArtifactLocation(loc fields) core.ArtifactLocation {
	return core.ArtifactLocation{
		RelativePath:              loc.str("relative_path"),
		RootExecutionPathFragment: loc.str("root_execution_path_fragment"),
		IsSource:                  loc.boolean("is_source"),
		IsExternal:                loc.boolean("is_external"),
	}
}

func toArtifactLocations(locs []fields) []core.ArtifactLocation {
	if len(locs) == 0 {
		return nil
	}
	ret := make([]core.ArtifactLocation, len(locs))
	for i, loc := range locs {
		ret[i] = toArtifactLocation(loc)
	}
	return ret
}
