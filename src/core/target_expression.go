package core

import (
	"fmt"
	"strings"
)

// A TargetExpression is one entry of the project's configured target list.
// It is either a single Label or a wildcard pattern such as //app/... or //app:all.
type TargetExpression struct {
	text  string
	label Label
}

// ParseTargetExpression classifies the given text as a label or a pattern.
// Anything that isn't shaped like a pattern must be a valid label; the error then lists every rule it breaks.
func ParseTargetExpression(text string) (TargetExpression, error) {
	trimmed := strings.TrimPrefix(text, "-")
	if label, ok := TryParseLabel(trimmed); ok && !isWildcardName(label.TargetName()) {
		return TargetExpression{text: text, label: label}, nil
	}
	if isPattern(trimmed) {
		return TargetExpression{text: text}, nil
	}
	if _, err := ParseLabel(trimmed); err != nil {
		return TargetExpression{}, err
	}
	return TargetExpression{}, fmt.Errorf("Not a valid target pattern: %s", text)
}

// isPattern returns true if the text selects targets by wildcard, eg. //app/..., //app:all or @repo//...
// The package part must still be a valid package path once any trailing /... is removed.
func isPattern(text string) bool {
	if strings.HasPrefix(text, "@") {
		idx := strings.Index(text, "//")
		if idx < 1 {
			return false
		}
		text = text[idx:]
	}
	if !strings.HasPrefix(text, "//") {
		return false
	}
	pkg := text[len("//"):]
	name := ""
	colon := strings.LastIndexByte(pkg, ':')
	if colon >= 0 {
		pkg, name = pkg[:colon], pkg[colon+1:]
	}
	recursive := pkg == "..." || strings.HasSuffix(pkg, "/...")
	if recursive {
		pkg = strings.TrimSuffix(strings.TrimSuffix(pkg, "..."), "/")
	}
	if colon >= 0 {
		if !isWildcardName(TargetName(name)) {
			return false
		}
	} else if !recursive {
		return false
	}
	return validatePackagePath(pkg, nil)
}

// isWildcardName returns true for the target names that select more than one target.
func isWildcardName(name TargetName) bool {
	return name == "all" || name == "*" || name == "all-targets"
}

// Label returns the label this expression names, and false if it's a pattern.
func (expr TargetExpression) Label() (Label, bool) {
	return expr.label, expr.label != ""
}

// IsExcluded returns true if this expression subtracts from the target set (eg. -//app/...).
func (expr TargetExpression) IsExcluded() bool {
	return strings.HasPrefix(expr.text, "-")
}

func (expr TargetExpression) String() string {
	return expr.text
}

// UnmarshalText implements the encoding.TextUnmarshaler interface, which is used by gcfg.
func (expr *TargetExpression) UnmarshalText(text []byte) error {
	e, err := ParseTargetExpression(string(text))
	if err != nil {
		return err
	}
	*expr = e
	return nil
}

// UnmarshalFlag implements the flags.Unmarshaler interface.
func (expr *TargetExpression) UnmarshalFlag(value string) error {
	return expr.UnmarshalText([]byte(value))
}
