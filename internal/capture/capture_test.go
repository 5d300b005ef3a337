package capture

import (
	"log/slog"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/gen2brain/malgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rightmic/rightmic-go/internal/conf"
	"github.com/rightmic/rightmic-go/internal/shmring"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestCapture(t *testing.T) *Capture {
	t.Helper()

	settings := &conf.Settings{}
	settings.Capture.ShmPath = filepath.Join(t.TempDir(), "rightmic-shm")
	settings.Capture.StagingSeconds = 1

	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	c, err := New(settings, slog.Default(), metrics)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func float32ToBytes(s []float32) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*conf.SampleBytes)
}

func TestDrainOnceNeedsAFullPeriod(t *testing.T) {
	c := newTestCapture(t)

	period := make([]byte, conf.PeriodFrames*conf.BytesPerFrame)
	assert.False(t, c.drainOnce(period), "empty staging buffer publishes nothing")

	// Less than one period staged.
	half := make([]float32, conf.PeriodFrames/2*conf.NumChannels)
	_, err := c.staging.Write(float32ToBytes(half))
	require.NoError(t, err)
	assert.False(t, c.drainOnce(period))
}

func TestDrainOncePublishesStagedFrames(t *testing.T) {
	c := newTestCapture(t)
	c.writer.SetActive(true)

	staged := make([]float32, conf.PeriodFrames*conf.NumChannels)
	for i := range staged {
		staged[i] = float32(i) / float32(len(staged))
	}
	_, err := c.staging.Write(float32ToBytes(staged))
	require.NoError(t, err)

	period := make([]byte, conf.PeriodFrames*conf.BytesPerFrame)
	require.True(t, c.drainOnce(period))
	assert.Equal(t, 0, c.staging.Length(), "staging buffer is drained")

	// The published frames arrive intact on the reader side.
	rd, err := shmring.Open(c.settings.Capture.ShmPath)
	require.NoError(t, err)
	defer rd.Close() //nolint:errcheck

	dst := make([]float32, conf.PeriodFrames*conf.NumChannels)
	require.True(t, rd.ReadFrames(dst))
	assert.Equal(t, staged, dst)
}

func TestStatusReflectsPipelineState(t *testing.T) {
	c := newTestCapture(t)
	c.writer.SetActive(true)

	status := c.Status()
	assert.NotEmpty(t, status.SessionID)
	assert.True(t, status.Ring.Active)
	assert.Equal(t, uint32(conf.SampleRate), status.Ring.SampleRate)

	staged := make([]float32, conf.PeriodFrames*conf.NumChannels)
	_, err := c.staging.Write(float32ToBytes(staged))
	require.NoError(t, err)

	period := make([]byte, conf.PeriodFrames*conf.BytesPerFrame)
	require.True(t, c.drainOnce(period))
	assert.Equal(t, uint64(conf.PeriodFrames), c.Status().Ring.WriteHead)
}

func TestSelectCaptureSource(t *testing.T) {
	// With no configured source and no devices, miniaudio picks the default.
	source, err := selectCaptureSource(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "default", source.Name)

	// A configured source that matches nothing is an error.
	_, err = selectCaptureSource([]malgo.DeviceInfo{}, "no-such-device")
	assert.Error(t, err)
}
