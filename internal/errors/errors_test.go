package errors

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderPreservesErrorChain(t *testing.T) {
	err := New(fs.ErrNotExist).
		Component("shmring").
		Category(CategorySharedMemory).
		Context("path", "/tmp/x").
		Build()

	assert.True(t, Is(err, fs.ErrNotExist))

	var ee *EnhancedError
	require.True(t, As(err, &ee))
	assert.Equal(t, "shmring", ee.Component)
	assert.Equal(t, CategorySharedMemory, ee.GetCategory())

	v, ok := ee.GetContext("path")
	require.True(t, ok)
	assert.Equal(t, "/tmp/x", v)
}

func TestErrorMessageIncludesContextInStableOrder(t *testing.T) {
	err := Newf("mmap failed").
		Context("size", 131136).
		Context("path", "/tmp/x").
		Build()

	assert.Equal(t, "mmap failed path=/tmp/x size=131136", err.Error())
}

func TestCategoryDefaultsToGeneric(t *testing.T) {
	err := Newf("plain").Build()

	var ee *EnhancedError
	require.True(t, As(err, &ee))
	assert.Equal(t, CategoryGeneric, ee.GetCategory())
}
