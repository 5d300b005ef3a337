package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultSharedMemoryPath, settings.Capture.ShmPath)
	assert.Equal(t, 1, settings.Capture.StagingSeconds)
	assert.Equal(t, "localhost:9090", settings.Diag.Listen)
	assert.False(t, settings.Diag.Enabled)
	assert.True(t, settings.Main.Log.Enabled)
}

func TestFormatConstants(t *testing.T) {
	// The shared region layout depends on these relationships; they are
	// compile-time constants on both sides of the shared memory file.
	assert.Equal(t, 8, BytesPerFrame)
	assert.Zero(t, RingFrames&(RingFrames-1), "ring capacity must be a power of two")
	assert.Zero(t, RingFrames%PeriodFrames, "whole periods must tile the ring")
}
