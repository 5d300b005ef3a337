// Package driver implements the consumer side of the virtual microphone: the
// host-facing lifecycle (start, stop, per-period timestamp and data
// requests) backed by the shared-memory ring the capture app writes into.
//
// The read path runs on a deadline-scheduled thread owned by the host
// process. It has no failure mode that propagates upward: when the capture
// app is absent, slow, or stale the device delivers silence and tries again
// on the next period.
package driver

import (
	"log/slog"
	"time"

	"github.com/rightmic/rightmic-go/internal/conf"
	"github.com/rightmic/rightmic-go/internal/errors"
	"github.com/rightmic/rightmic-go/internal/shmring"
)

// ErrUnsupportedFormat is returned when a caller requests a sample rate or
// channel layout other than the fixed constants.
var ErrUnsupportedFormat = errors.NewStd("unsupported audio format")

// Device is the single long-lived driver context. It owns the lazily-mapped
// shared memory reader and the IO clock.
//
// The host serializes lifecycle calls against IO operations; Device adds no
// locking of its own because ReadInput and ZeroTimestamp must stay lock-free.
type Device struct {
	shmPath string
	log     *slog.Logger

	reader  *shmring.Reader // nil until the region maps successfully
	clock   *ioClock
	running bool

	// openFailed suppresses repeated open-failure logging between state
	// changes; the region file routinely does not exist yet.
	openFailed bool
}

// New returns a stopped Device that will map the shared memory file at
// shmPath on demand.
func New(shmPath string, log *slog.Logger) *Device {
	if shmPath == "" {
		shmPath = conf.DefaultSharedMemoryPath
	}
	if log == nil {
		log = slog.Default()
	}
	return &Device{shmPath: shmPath, log: log}
}

// StartIO begins a streaming session: the clock origin is captured and a
// first mapping attempt is made. A failed mapping is not an error; the
// device retries lazily on each period until the capture app creates the
// file.
func (d *Device) StartIO(now time.Time) {
	if d.running {
		return
	}
	d.clock = newIOClock(conf.SampleRate, conf.PeriodFrames, now)
	d.tryOpen()
	d.running = true
	d.log.Info("IO started", "shm_path", d.shmPath, "mapped", d.reader != nil)
}

// StopIO ends the streaming session, releasing the mapping and discarding
// the clock. Safe to call repeatedly.
func (d *Device) StopIO() {
	if !d.running && d.reader == nil {
		return
	}
	if d.reader != nil {
		if err := d.reader.Close(); err != nil {
			d.log.Warn("failed to close shared memory", "error", err)
		}
		d.reader = nil
	}
	d.clock = nil
	d.running = false
	d.openFailed = false
	d.log.Info("IO stopped")
}

// Running reports whether a streaming session is active.
func (d *Device) Running() bool {
	return d.running
}

// ZeroTimestamp returns the sample position that should currently be playing
// and the host time at which that position began, quantized to the most
// recent period boundary. Before StartIO it reports position zero at now.
func (d *Device) ZeroTimestamp(now time.Time) (samplePosition uint64, hostTime time.Time) {
	if d.clock == nil {
		return 0, now
	}
	return d.clock.timestamp(now)
}

// PeriodDuration returns the host-time length of one IO period.
func (d *Device) PeriodDuration() time.Duration {
	if d.clock == nil {
		periodSecs := float64(conf.PeriodFrames) / float64(conf.SampleRate)
		return time.Duration(periodSecs * 1e9)
	}
	return d.clock.periodDuration()
}

// ReadInput fills dst with the next len(dst)/conf.NumChannels frames for the
// current period. It reports whether real audio was delivered; on any form
// of unavailability dst holds silence. This is the real-time path: beyond a
// retried mapping attempt while the region is absent, it performs no
// allocation, no blocking call, and no locking.
func (d *Device) ReadInput(dst []float32) bool {
	if d.reader == nil && !d.tryOpen() {
		fillSilence(dst)
		return false
	}
	return d.reader.ReadFrames(dst)
}

// Stats snapshots the ring counters, or a zero value while unmapped.
func (d *Device) Stats() shmring.Stats {
	if d.reader == nil {
		return shmring.Stats{}
	}
	return d.reader.Stats()
}

// CheckFormat validates a requested format against the fixed constants. No
// state is mutated; anything but the compiled-in format is rejected.
func (d *Device) CheckFormat(sampleRate, channels int) error {
	if sampleRate != conf.SampleRate || channels != conf.NumChannels {
		return errors.New(ErrUnsupportedFormat).
			Component("driver").
			Category(errors.CategoryValidation).
			Context("sample_rate", sampleRate).
			Context("channels", channels).
			Build()
	}
	return nil
}

// tryOpen attempts to map the shared memory region, logging each transition
// between failing and succeeding at most once.
func (d *Device) tryOpen() bool {
	reader, err := shmring.Open(d.shmPath)
	if err != nil {
		if !d.openFailed {
			d.log.Debug("shared memory not yet available", "shm_path", d.shmPath, "error", err)
			d.openFailed = true
		}
		return false
	}
	d.reader = reader
	d.openFailed = false
	d.log.Info("shared memory mapped", "shm_path", d.shmPath)
	return true
}

func fillSilence(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
}
