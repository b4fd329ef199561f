package core

import (
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/thought-machine/blazesync/src/cli/logging"
)

var log = logging.Log

// A Label is the canonical identifier of a build target, eg. //spam/eggs:ham.
// Labels pointing into another repository carry an @repo prefix, eg. @maven//com/google:guava.
// The zero value is not a valid label; construct them via ParseLabel or NewLabel.
type Label string

// A TargetName is the part of a label after its colon.
type TargetName string

// A WorkspacePath is a workspace-relative path, eg. the package part of a label.
type WorkspacePath string

// ParseLabel parses a label from an untrusted string.
// On failure the returned error holds one ValidationError for every rule the text breaks.
func ParseLabel(text string) (Label, error) {
	var errs *multierror.Error
	if !validateLabel(text, &errs) {
		errs.ErrorFormat = validationErrorFormat
		return "", errs
	}
	return Label(text), nil
}

// TryParseLabel parses a label, returning false instead of any errors if it isn't valid.
// It's useful where a label and some other kind of expression can occupy the same slot.
func TryParseLabel(text string) (Label, bool) {
	if !validateLabel(text, nil) {
		return "", false
	}
	return Label(text), true
}

// MustParseLabel parses a label and panics if it isn't valid.
// It is intended for literals in code and tests.
func MustParseLabel(text string) Label {
	label, err := ParseLabel(text)
	if err != nil {
		panic(err)
	}
	return label
}

// NewLabel constructs a label from a package path and a target name.
func NewLabel(pkg WorkspacePath, name TargetName) (Label, error) {
	return ParseLabel("//" + string(pkg) + ":" + string(name))
}

// validateLabel checks the label grammar, adding every violation to errs if it's non-nil.
func validateLabel(label string, errs **multierror.Error) bool {
	colonIndex := strings.IndexByte(label, ':')
	if strings.HasPrefix(label, "//") && colonIndex >= 0 {
		pkgOK := validatePackagePath(label[len("//"):colonIndex], errs)
		nameOK := validateTargetName(label[colonIndex+1:], errs)
		return pkgOK && nameOK
	}
	if strings.HasPrefix(label, "@") && colonIndex >= 0 {
		// A label with a repository prefix, which is empty for @//a:b; the rest of it follows the same rules.
		if slashIndex := strings.Index(label, "//"); slashIndex >= 1 && slashIndex < colonIndex {
			return validateLabel(label[slashIndex:], errs)
		}
	}
	collect(errs, "Not a valid label, no target name found: "+label)
	return false
}

// validatePackagePath checks a package path. Empty packages are legal but not recommended.
func validatePackagePath(path string, errs **multierror.Error) bool {
	if path == "" {
		return true
	}
	ok := true
	if path[0] == '/' {
		collect(errs, "Invalid package name: "+path+"\nPackage names may not start with \"/\".")
		ok = false
	}
	if strings.Contains(path, "//") {
		collect(errs, "Invalid package name: "+path+"\nPackage names may not contain \"//\" path separators.")
		ok = false
	}
	if strings.HasSuffix(path, "/") {
		collect(errs, "Invalid package name: "+path+"\nPackage names may not end with \"/\".")
		ok = false
	}
	return ok
}

// validateTargetName checks the target name part of a label.
func validateTargetName(name string, errs **multierror.Error) bool {
	if name == "" {
		collect(errs, "Invalid target name: target names may not be empty.")
		return false
	}
	ok := true
	if strings.Contains(name, ":") {
		collect(errs, "Invalid target name: "+name+"\nTarget names may not contain \":\".")
		ok = false
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		collect(errs, "Invalid target name: "+name+"\nTarget names may not start or end with \"/\".")
		ok = false
	}
	if strings.Contains(name, "//") {
		collect(errs, "Invalid target name: "+name+"\nTarget names may not contain \"//\".")
		ok = false
	}
	return ok
}

// Validate returns an error describing everything wrong with this package path, or nil.
func (path WorkspacePath) Validate() error {
	var errs *multierror.Error
	if !validatePackagePath(string(path), &errs) {
		errs.ErrorFormat = validationErrorFormat
		return errs
	}
	return nil
}

// Validate returns an error describing everything wrong with this target name, or nil.
func (name TargetName) Validate() error {
	var errs *multierror.Error
	if !validateTargetName(string(name), &errs) {
		errs.ErrorFormat = validationErrorFormat
		return errs
	}
	return nil
}

// String implements the fmt.Stringer interface.
func (label Label) String() string {
	return string(label)
}

// TargetName returns the part of the label following its last colon.
func (label Label) TargetName() TargetName {
	return TargetName(label[strings.LastIndexByte(string(label), ':')+1:])
}

// Package returns the workspace path of the package this label belongs to,
// eg. for //j/c/g/a/apps/docs:release it returns j/c/g/a/apps/docs.
func (label Label) Package() WorkspacePath {
	s := string(label)
	start := strings.Index(s, "//") + len("//")
	colon := strings.LastIndexByte(s, ':')
	if colon < start {
		log.Errorf("Malformed label %s has no target name", s)
		return WorkspacePath(s[start:])
	}
	return WorkspacePath(s[start:colon])
}

// Repository returns the external repository this label refers to, or the empty string
// if it's in the main workspace.
func (label Label) Repository() string {
	if !strings.HasPrefix(string(label), "@") {
		return ""
	}
	return string(label[1:strings.Index(string(label), "//")])
}

// UnmarshalFlag implements the flags.Unmarshaler interface.
func (label *Label) UnmarshalFlag(value string) error {
	l, err := ParseLabel(value)
	if err != nil {
		return err
	}
	*label = l
	return nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface, which is used by gcfg.
func (label *Label) UnmarshalText(text []byte) error {
	return label.UnmarshalFlag(string(text))
}

// Labels is a sortable slice of labels.
type Labels []Label

func (slice Labels) Len() int           { return len(slice) }
func (slice Labels) Less(i, j int) bool { return slice[i] < slice[j] }
func (slice Labels) Swap(i, j int)      { slice[i], slice[j] = slice[j], slice[i] }
