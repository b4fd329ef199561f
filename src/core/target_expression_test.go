package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetExpressionLabel(t *testing.T) {
	expr, err := ParseTargetExpression("//app:bin")
	require.NoError(t, err)
	label, ok := expr.Label()
	assert.True(t, ok)
	assert.Equal(t, Label("//app:bin"), label)
}

func TestTargetExpressionPatterns(t *testing.T) {
	for _, in := range []string{"//app/...", "//app:all", "//...", "-//app/experimental/...", "@repo//x/..."} {
		expr, err := ParseTargetExpression(in)
		require.NoError(t, err, in)
		_, ok := expr.Label()
		assert.False(t, ok, in)
		assert.Equal(t, in, expr.String())
	}
}

func TestTargetExpressionExcluded(t *testing.T) {
	expr, err := ParseTargetExpression("-//app/...")
	require.NoError(t, err)
	assert.True(t, expr.IsExcluded())
}

func TestTargetExpressionInvalid(t *testing.T) {
	_, err := ParseTargetExpression("app:bin")
	assert.Error(t, err)
	assert.NotEmpty(t, ValidationErrors(err))
}

func TestTargetExpressionMalformed(t *testing.T) {
	for _, in := range []string{"//app//bin:x", "//a//b:c", "///a:b", "//a/:b", "//a:b:c", "-//a//b:c", "@repo//a//b:c", "//app//..."} {
		_, err := ParseTargetExpression(in)
		assert.Error(t, err, in)
		assert.NotEmpty(t, ValidationErrors(err), in)
	}
}

func TestTargetExpressionListsEveryViolation(t *testing.T) {
	_, err := ParseTargetExpression("///a/:b/")
	require.Error(t, err)
	assert.Len(t, ValidationErrors(err), 3)
}

func TestTargetExpressionExcludedLabel(t *testing.T) {
	expr, err := ParseTargetExpression("-//app:bin")
	require.NoError(t, err)
	assert.True(t, expr.IsExcluded())
	label, ok := expr.Label()
	assert.True(t, ok)
	assert.Equal(t, Label("//app:bin"), label)
	assert.Equal(t, "-//app:bin", expr.String())
}
