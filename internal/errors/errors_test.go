package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilder_Build(t *testing.T) {
	base := NewStd("bad row")
	err := New(base).
		Component("detection").
		Category(CategoryData).
		Context("recording", "unit02").
		Build()

	assert.Equal(t, "bad row", err.Error())
	assert.Equal(t, "detection", err.GetComponent())
	assert.Equal(t, string(CategoryData), err.GetCategory())
	assert.Equal(t, "unit02", err.GetContext()["recording"])
	assert.True(t, Is(err, base))
}

func TestErrorBuilder_DefaultCategory(t *testing.T) {
	err := Newf("plain failure").Build()
	assert.Equal(t, CategoryGeneric, err.Category)
	assert.Equal(t, ComponentUnknown, err.GetComponent())
}

func TestCategoryHelpers(t *testing.T) {
	dataErr := Newf("non-finite time").Category(CategoryData).Build()
	confErr := Newf("empty grid").Category(CategoryConfiguration).Build()

	assert.True(t, IsData(dataErr))
	assert.False(t, IsData(confErr))
	assert.True(t, IsConfiguration(confErr))
	assert.False(t, IsConfiguration(dataErr))

	// Wrapped enhanced errors are still recognized.
	wrapped := fmt.Errorf("loading annotations: %w", dataErr)
	assert.True(t, IsData(wrapped))

	assert.False(t, IsData(nil))
	assert.False(t, IsData(NewStd("plain")))
}

func TestEnhancedError_IsMatchesCategory(t *testing.T) {
	a := Newf("a").Category(CategoryData).Build()
	b := Newf("b").Category(CategoryData).Build()
	c := Newf("c").Category(CategoryConfiguration).Build()

	assert.True(t, Is(a, b))
	assert.False(t, Is(a, c))
}

func TestGetContext_ReturnsCopy(t *testing.T) {
	err := Newf("x").Context("k", 1).Build()
	ctx := err.GetContext()
	require.NotNil(t, ctx)
	ctx["k"] = 2
	assert.Equal(t, 1, err.GetContext()["k"])
}
