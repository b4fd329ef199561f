package core

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/thought-machine/blazesync/src/utils"
)

// A Kind is the rule class of a build target, eg. android_binary.
type Kind string

// The rule kinds we know about. Anything else decodes as itself but isn't recognised.
const (
	KindUnknown                    Kind = ""
	KindAndroidBinary              Kind = "android_binary"
	KindAndroidLibrary             Kind = "android_library"
	KindAndroidResource            Kind = "android_resources"
	KindAndroidTest                Kind = "android_test"
	KindAndroidInstrumentationTest Kind = "android_instrumentation_test"
	KindAndroidRobolectricTest     Kind = "android_robolectric_test"
	KindJavaLibrary                Kind = "java_library"
	KindJavaBinary                 Kind = "java_binary"
	KindJavaTest                   Kind = "java_test"
	KindJavaImport                 Kind = "java_import"
	KindJavaProtoLibrary           Kind = "java_proto_library"
	KindProtoLibrary               Kind = "proto_library"
	KindCcLibrary                  Kind = "cc_library"
	KindCcBinary                   Kind = "cc_binary"
	KindCcTest                     Kind = "cc_test"
	KindGoLibrary                  Kind = "go_library"
	KindGoBinary                   Kind = "go_binary"
	KindGoTest                     Kind = "go_test"
	KindPyLibrary                  Kind = "py_library"
	KindPyBinary                   Kind = "py_binary"
	KindPyTest                     Kind = "py_test"
)

var knownKinds = map[Kind]bool{}

func init() {
	for _, k := range []Kind{
		KindAndroidBinary, KindAndroidLibrary, KindAndroidResource, KindAndroidTest,
		KindAndroidInstrumentationTest, KindAndroidRobolectricTest,
		KindJavaLibrary, KindJavaBinary, KindJavaTest, KindJavaImport, KindJavaProtoLibrary,
		KindProtoLibrary, KindCcLibrary, KindCcBinary, KindCcTest,
		KindGoLibrary, KindGoBinary, KindGoTest, KindPyLibrary, KindPyBinary, KindPyTest,
	} {
		knownKinds[k] = true
	}
}

// KnownKinds returns the names of all recognised kinds, sorted.
func KnownKinds() []string {
	ret := make([]string, 0, len(knownKinds))
	for _, k := range maps.Keys(knownKinds) {
		ret = append(ret, string(k))
	}
	slices.Sort(ret)
	return ret
}

// IsKnown returns true if this is one of the rule kinds we recognise.
func (kind Kind) IsKnown() bool {
	return knownKinds[kind]
}

// IsOneOf returns true if this kind is any of the given ones.
func (kind Kind) IsOneOf(kinds ...Kind) bool {
	return slices.Contains(kinds, kind)
}

// IsAndroid returns true for the kinds that carry android_ide_info.
func (kind Kind) IsAndroid() bool {
	return kind.IsOneOf(KindAndroidBinary, KindAndroidLibrary, KindAndroidResource, KindAndroidTest,
		KindAndroidInstrumentationTest, KindAndroidRobolectricTest)
}

func (kind Kind) String() string {
	if kind == KindUnknown {
		return "unknown"
	}
	return string(kind)
}

// UnmarshalText implements the encoding.TextUnmarshaler interface, which is used by gcfg.
// It only accepts recognised kinds so typos in configuration get noticed.
func (kind *Kind) UnmarshalText(text []byte) error {
	k := Kind(text)
	if !k.IsKnown() {
		return fmt.Errorf("unknown rule kind %s%s", text, utils.PrettyPrintSuggestion(string(text), KnownKinds(), 4))
	}
	*kind = k
	return nil
}
