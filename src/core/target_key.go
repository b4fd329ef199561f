package core

import (
	"strings"
)

// A TargetKey identifies one target within a sync. Most targets are "plain", ie. identified
// by their label alone; targets only reached through an aspect-specific configuration carry
// the ids of those aspects as a discriminator.
// TargetKeys are comparable and are used directly as map keys.
type TargetKey struct {
	Label Label
	// AspectIDs is the '#'-joined list of aspect ids, or empty for a plain target.
	// It's a string rather than a slice so that the key stays comparable.
	AspectIDs string
}

// PlainTargetKey returns the key for the plain target with the given label.
func PlainTargetKey(label Label) TargetKey {
	return TargetKey{Label: label}
}

// NewTargetKey returns a key for the given label reached through the given aspects.
func NewTargetKey(label Label, aspectIDs []string) TargetKey {
	return TargetKey{Label: label, AspectIDs: strings.Join(aspectIDs, "#")}
}

// IsPlain returns true if this key refers to a target directly buildable by its label.
func (key TargetKey) IsPlain() bool {
	return key.AspectIDs == ""
}

func (key TargetKey) String() string {
	if key.IsPlain() {
		return string(key.Label)
	}
	return string(key.Label) + "#" + key.AspectIDs
}

// Less orders keys by label, then by aspect ids; plain keys sort first.
func (key TargetKey) Less(that TargetKey) bool {
	if key.Label != that.Label {
		return key.Label < that.Label
	}
	return key.AspectIDs < that.AspectIDs
}

// SortTargetKeys sorts the given keys in place.
func SortTargetKeys(keys []TargetKey) {
	sortSlice(keys, TargetKey.Less)
}

// MarshalText implements the encoding.TextMarshaler interface.
func (key TargetKey) MarshalText() ([]byte, error) {
	return []byte(key.String()), nil
}
