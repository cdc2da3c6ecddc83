//go:build !vips

package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVipsLibrary_AbsentWithoutBuildTag(t *testing.T) {
	lib := NewVipsLibrary()

	assert.Equal(t, "vips", lib.Name())
	assert.False(t, lib.Loaded())

	_, err := lib.Open()
	assert.Error(t, err)
}
