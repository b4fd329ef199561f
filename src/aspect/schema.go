package aspect

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// schemaPackage is the protobuf package the aspect's messages live in.
const schemaPackage = "blazesync.ideinfo"

// targetIdeInfoDescriptor describes the top-level message written once per target.
var targetIdeInfoDescriptor protoreflect.MessageDescriptor

func init() {
	file, err := protodesc.NewFile(schemaFile(), nil)
	if err != nil {
		panic(fmt.Sprintf("invalid aspect schema: %s", err))
	}
	targetIdeInfoDescriptor = file.Messages().ByName("TargetIdeInfo")
}

// newTargetIdeInfo returns an empty message to decode a single aspect output file into.
func newTargetIdeInfo() *dynamicpb.Message {
	return dynamicpb.NewMessage(targetIdeInfoDescriptor)
}

// schemaFile returns the descriptor of the aspect's output format. Both aspect flavours write
// the same messages, differing only in encoding.
func schemaFile() *descriptorpb.FileDescriptorProto {
	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("blazesync/ideinfo.proto"),
		Package: proto.String(schemaPackage),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("ArtifactLocation"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalar("relative_path", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					scalar("is_source", 3, descriptorpb.FieldDescriptorProto_TYPE_BOOL),
					scalar("is_external", 4, descriptorpb.FieldDescriptorProto_TYPE_BOOL),
					scalar("root_execution_path_fragment", 5, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				},
			},
			{
				Name: proto.String("TargetKey"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalar("label", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					repeated(scalar("aspect_ids", 3, descriptorpb.FieldDescriptorProto_TYPE_STRING)),
				},
			},
			{
				Name: proto.String("Dependency"),
				Field: []*descriptorpb.FieldDescriptorProto{
					typed("dependency_type", 1, descriptorpb.FieldDescriptorProto_TYPE_ENUM, "Dependency.DependencyType"),
					typed("target", 2, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, "TargetKey"),
				},
				EnumType: []*descriptorpb.EnumDescriptorProto{{
					Name: proto.String("DependencyType"),
					Value: []*descriptorpb.EnumValueDescriptorProto{
						{Name: proto.String("COMPILE_TIME"), Number: proto.Int32(0)},
						{Name: proto.String("RUNTIME"), Number: proto.Int32(1)},
					},
				}},
			},
			{
				Name: proto.String("AndroidIdeInfo"),
				Field: []*descriptorpb.FieldDescriptorProto{
					repeated(typed("resources", 1, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, "ArtifactLocation")),
					typed("manifest", 3, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, "ArtifactLocation"),
					scalar("java_package", 7, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					scalar("generate_resource_class", 8, descriptorpb.FieldDescriptorProto_TYPE_BOOL),
				},
			},
			{
				Name: proto.String("TestInfo"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalar("size", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				},
			},
			{
				Name: proto.String("TargetIdeInfo"),
				Field: []*descriptorpb.FieldDescriptorProto{
					typed("key", 1, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, "TargetKey"),
					scalar("kind_string", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					repeated(typed("deps", 3, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, "Dependency")),
					repeated(scalar("tags", 4, descriptorpb.FieldDescriptorProto_TYPE_STRING)),
					typed("build_file_artifact_location", 5, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, "ArtifactLocation"),
					repeated(typed("sources", 6, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, "ArtifactLocation")),
					typed("android_ide_info", 7, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, "AndroidIdeInfo"),
					typed("test_info", 8, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, "TestInfo"),
				},
			},
		},
	}
}

func scalar(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
}

// typed returns a field referring to another message or enum in the schema package.
func typed(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type, typeName string) *descriptorpb.FieldDescriptorProto {
	field := scalar(name, number, typ)
	field.TypeName = proto.String("." + schemaPackage + "." + typeName)
	return field
}

func repeated(field *descriptorpb.FieldDescriptorProto) *descriptorpb.FieldDescriptorProto {
	field.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	return field
}
