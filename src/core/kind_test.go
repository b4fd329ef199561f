package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindUnmarshalText(t *testing.T) {
	var kind Kind
	assert.NoError(t, kind.UnmarshalText([]byte("android_test")))
	assert.Equal(t, KindAndroidTest, kind)

	err := kind.UnmarshalText([]byte("android_bianry"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Maybe you meant android_binary")
	assert.Equal(t, KindAndroidTest, kind)
}

func TestKindIsOneOf(t *testing.T) {
	assert.True(t, KindAndroidBinary.IsOneOf(KindAndroidTest, KindAndroidBinary))
	assert.False(t, KindJavaLibrary.IsOneOf(KindAndroidTest, KindAndroidBinary))
	assert.True(t, KindAndroidResource.IsAndroid())
	assert.Equal(t, "unknown", KindUnknown.String())
	assert.False(t, Kind("scala_library").IsKnown())
}
