//go:build go1.18
// +build go1.18

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func FuzzParseLabel(f *testing.F) {
	f.Add("//src/core:core")
	f.Add("@repo//src/core:build_label")
	f.Add("//test/fuzz")
	f.Add(":please")
	f.Add("///third_party/cc/googletest//testing:test_main")
	f.Fuzz(func(t *testing.T, in string) { //nolint:thelper
		label, err := ParseLabel(in)
		_, ok := TryParseLabel(in)
		assert.Equal(t, err == nil, ok, "ParseLabel and TryParseLabel disagree")
		if err != nil {
			assert.NotEmpty(t, ValidationErrors(err), "Failure without any validation errors")
			return
		}
		label2, err := NewLabel(label.Package(), label.TargetName())
		if label.Repository() == "" {
			assert.NoError(t, err, "Failed to rebuild the label from its parts")
			assert.Equal(t, label, label2, "Rebuilt label not equal to original")
		}
	})
}
