package driver

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rightmic/rightmic-go/internal/conf"
	"github.com/rightmic/rightmic-go/internal/errors"
	"github.com/rightmic/rightmic-go/internal/shmring"
)

func periodBuf() []float32 {
	dst := make([]float32, conf.PeriodFrames*conf.NumChannels)
	for i := range dst {
		dst[i] = 42
	}
	return dst
}

func assertSilence(t *testing.T, dst []float32) {
	t.Helper()
	for i := range dst {
		if dst[i] != 0 {
			t.Fatalf("sample %d = %v, want silence", i, dst[i])
		}
	}
}

func TestReadInputWithoutRegionDeliversSilence(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "missing"), nil)
	d.StartIO(time.Now())
	defer d.StopIO()

	dst := periodBuf()
	assert.False(t, d.ReadInput(dst))
	assertSilence(t, dst)
}

func TestReadInputMapsRegionLazily(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rightmic-shm")
	d := New(path, nil)

	// Session starts before the capture app exists.
	d.StartIO(time.Now())
	defer d.StopIO()

	dst := periodBuf()
	require.False(t, d.ReadInput(dst))
	assertSilence(t, dst)

	// The capture app appears mid-session and publishes a period.
	wr, err := shmring.Create(path)
	require.NoError(t, err)
	defer wr.Close() //nolint:errcheck
	wr.SetActive(true)

	written := make([]float32, conf.PeriodFrames*conf.NumChannels)
	for i := range written {
		written[i] = float32(i)
	}
	require.Equal(t, conf.PeriodFrames, wr.WriteFrames(written))

	// The next period retries the mapping and delivers real audio.
	require.True(t, d.ReadInput(dst))
	assert.Equal(t, written, dst)
}

func TestStopStartCyclesAreIdempotent(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "missing"), nil)

	for i := 0; i < 3; i++ {
		d.StartIO(time.Now())
		assert.True(t, d.Running())

		dst := periodBuf()
		assert.False(t, d.ReadInput(dst))
		assertSilence(t, dst)

		d.StopIO()
		d.StopIO() // repeated stop is safe
		assert.False(t, d.Running())
	}
}

func TestZeroTimestampLifecycle(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "missing"), nil)
	now := time.Now()

	// Before StartIO the clock has no origin.
	pos, host := d.ZeroTimestamp(now)
	assert.Equal(t, uint64(0), pos)
	assert.Equal(t, now, host)

	d.StartIO(now)
	period := d.PeriodDuration()

	pos, host = d.ZeroTimestamp(now.Add(3*period + period/10))
	assert.Equal(t, uint64(3*conf.PeriodFrames), pos)
	assert.Equal(t, now.Add(3*period), host)

	// A fresh session gets a fresh, unrelated origin.
	d.StopIO()
	later := now.Add(time.Hour)
	d.StartIO(later)
	pos, host = d.ZeroTimestamp(later.Add(period / 2))
	assert.Equal(t, uint64(0), pos)
	assert.Equal(t, later, host)
	d.StopIO()
}

func TestCheckFormatRejectsAnythingButFixedFormat(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "missing"), nil)

	tests := []struct {
		name       string
		sampleRate int
		channels   int
		wantErr    bool
	}{
		{"fixed format", conf.SampleRate, conf.NumChannels, false},
		{"wrong rate", 44100, conf.NumChannels, true},
		{"wrong channels", conf.SampleRate, 1, true},
		{"both wrong", 96000, 8, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.CheckFormat(tt.sampleRate, tt.channels)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnsupportedFormat))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReadInputAfterWriterGoesInactive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rightmic-shm")

	wr, err := shmring.Create(path)
	require.NoError(t, err)
	defer wr.Close() //nolint:errcheck
	wr.SetActive(true)

	d := New(path, nil)
	d.StartIO(time.Now())
	defer d.StopIO()

	written := make([]float32, conf.PeriodFrames*conf.NumChannels)
	for i := range written {
		written[i] = 0.5
	}
	wr.WriteFrames(written)

	dst := periodBuf()
	require.True(t, d.ReadInput(dst))

	wr.SetActive(false)
	wr.WriteFrames(written)
	require.False(t, d.ReadInput(dst))
	assertSilence(t, dst)
}
