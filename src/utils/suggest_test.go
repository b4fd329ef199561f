package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggest(t *testing.T) {
	assert.Equal(t, []string{"native"}, Suggest("natve", []string{"native", "starlark"}, 3))
	assert.Empty(t, Suggest("zzzzzzzz", []string{"native", "starlark"}, 3))
}

func TestPrettyPrintSuggestion(t *testing.T) {
	assert.Equal(t, "\nMaybe you meant android_binary ?", PrettyPrintSuggestion("android_bianry", []string{"android_binary", "java_library"}, 4))
	assert.Equal(t, "\nMaybe you meant ab , ac or ad ?", PrettyPrintSuggestion("aa", []string{"ab", "ac", "ad"}, 2))
	assert.Equal(t, "", PrettyPrintSuggestion("x", nil, 1))
}
