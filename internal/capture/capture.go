package capture

import (
	"context"
	"encoding/hex"
	"log/slog"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/gen2brain/malgo"
	"github.com/google/uuid"
	"github.com/smallnest/ringbuffer"

	"github.com/rightmic/rightmic-go/internal/conf"
	"github.com/rightmic/rightmic-go/internal/errors"
	"github.com/rightmic/rightmic-go/internal/shmring"
)

// Capture owns the microphone-to-shared-memory pipeline. The malgo device
// callback pushes raw sample blocks into an in-process staging ring; a
// publisher goroutine drains the staging ring into the shared ring in
// period-sized chunks. The callback never touches the shared region, so a
// slow reader cannot stall the audio device.
type Capture struct {
	settings  *conf.Settings
	log       *slog.Logger
	metrics   *Metrics
	sessionID string

	writer  *shmring.Writer
	staging *ringbuffer.RingBuffer

	deviceName string
	level      atomic.Int64
	clipping   atomic.Bool
	restarting atomic.Bool
}

// Status is a point-in-time view of the pipeline for diagnostics.
type Status struct {
	SessionID string        `json:"session_id"`
	Device    string        `json:"device"`
	Level     LevelData     `json:"level"`
	Staging   int           `json:"staging_bytes"`
	Ring      shmring.Stats `json:"ring"`
}

// New creates the shared memory region and the staging ring. The region file
// is created immediately so the driver can map it even before the device
// starts delivering audio; active stays false until then.
func New(settings *conf.Settings, log *slog.Logger, metrics *Metrics) (*Capture, error) {
	writer, err := shmring.Create(settings.Capture.ShmPath)
	if err != nil {
		return nil, err
	}

	stagingSeconds := settings.Capture.StagingSeconds
	if stagingSeconds <= 0 {
		stagingSeconds = 1
	}
	stagingBytes := stagingSeconds * conf.SampleRate * conf.BytesPerFrame

	return &Capture{
		settings:  settings,
		log:       log,
		metrics:   metrics,
		sessionID: uuid.New().String(),
		writer:    writer,
		staging:   ringbuffer.New(stagingBytes),
	}, nil
}

// Run captures audio until ctx is cancelled. It blocks for the duration of
// the session and tears down the device, the context, and the shared region
// before returning.
func (c *Capture) Run(ctx context.Context) error {
	backend := defaultBackend()
	malgoCtx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, func(message string) {
		if c.settings.Debug {
			c.log.Debug("miniaudio", "message", strings.TrimSpace(message))
		}
	})
	if err != nil {
		return errors.New(err).
			Component("capture").
			Category(errors.CategoryAudioDevice).
			Context("operation", "init-context").
			Build()
	}
	defer malgoCtx.Uninit() //nolint:errcheck

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = conf.NumChannels
	deviceConfig.SampleRate = conf.SampleRate
	deviceConfig.Alsa.NoMMap = 1

	infos, err := malgoCtx.Devices(malgo.Capture)
	if err != nil {
		return errors.New(err).
			Component("capture").
			Category(errors.CategoryAudioDevice).
			Context("operation", "list-devices").
			Build()
	}

	source, err := selectCaptureSource(infos, c.settings.Capture.Source)
	if err != nil {
		return err
	}
	c.deviceName = source.Name
	if source.Pointer != nil {
		deviceConfig.Capture.DeviceID = source.Pointer
	}

	var device *malgo.Device

	onReceiveFrames := func(_, pSamples []byte, frameCount uint32) {
		if len(pSamples) == 0 {
			return
		}
		if _, err := c.staging.Write(pSamples); err != nil {
			c.metrics.stagingOverruns.Inc()
			return
		}
		ld := calculateLevel(bytesToFloat32(pSamples))
		c.level.Store(int64(ld.Level))
		c.clipping.Store(ld.Clipping)
		c.metrics.audioLevel.Set(float64(ld.Level))
		if ld.Clipping {
			c.metrics.clippingTotal.Inc()
		}
	}

	// Restart the device if it stops while the session is still live; USB
	// devices in particular disappear and come back.
	onStopDevice := func() {
		if ctx.Err() != nil || !c.restarting.CompareAndSwap(false, true) {
			return
		}
		go func() {
			defer c.restarting.Store(false)
			select {
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
			}
			c.log.Warn("capture device stopped, restarting", "device", c.deviceName)
			c.metrics.deviceRestarts.Inc()
			if err := device.Start(); err != nil {
				c.log.Error("failed to restart capture device", "device", c.deviceName, "error", err)
			}
		}()
	}

	device, err = malgo.InitDevice(malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onReceiveFrames,
		Stop: onStopDevice,
	})
	if err != nil {
		return errors.New(err).
			Component("capture").
			Category(errors.CategoryAudioDevice).
			Context("operation", "init-device").
			Context("device", c.deviceName).
			Build()
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return errors.New(err).
			Component("capture").
			Category(errors.CategoryAudioDevice).
			Context("operation", "start-device").
			Context("device", c.deviceName).
			Build()
	}

	c.writer.SetActive(true)
	c.log.Info("capture started",
		"session_id", c.sessionID,
		"device", c.deviceName,
		"sample_rate", conf.SampleRate,
		"channels", conf.NumChannels,
		"shm_path", c.settings.Capture.ShmPath)

	c.publish(ctx)

	c.writer.SetActive(false)
	if err := device.Stop(); err != nil {
		c.log.Warn("failed to stop capture device", "error", err)
	}
	c.log.Info("capture stopped", "session_id", c.sessionID)
	return nil
}

// publish drains the staging ring into the shared ring in period-sized
// chunks until ctx is cancelled. The chunk buffer is allocated once.
func (c *Capture) publish(ctx context.Context) {
	period := make([]byte, conf.PeriodFrames*conf.BytesPerFrame)
	periodSecs := float64(conf.PeriodFrames) / float64(conf.SampleRate)
	interval := time.Duration(periodSecs * 1e9 / 2)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for c.drainOnce(period) {
			}
		}
	}
}

// drainOnce moves one period from the staging ring into the shared ring if a
// full period is buffered. It reports whether it published anything.
func (c *Capture) drainOnce(period []byte) bool {
	if c.staging.Length() < len(period) {
		return false
	}
	n, err := c.staging.Read(period)
	if err != nil || n == 0 {
		return false
	}

	samples := bytesToFloat32(period[:n])
	frames := len(samples) / conf.NumChannels
	accepted := c.writer.WriteFrames(samples)

	c.metrics.framesWritten.Add(float64(accepted))
	if accepted < frames {
		c.metrics.framesDropped.Add(float64(frames - accepted))
	}

	stats := c.writer.Stats()
	c.metrics.ringUtilization.Set(float64(stats.Buffered) / float64(conf.RingFrames))
	return true
}

// Close releases the shared memory region.
func (c *Capture) Close() error {
	return c.writer.Close()
}

// Status returns a diagnostics snapshot.
func (c *Capture) Status() Status {
	return Status{
		SessionID: c.sessionID,
		Device:    c.deviceName,
		Level: LevelData{
			Level:    int(c.level.Load()),
			Clipping: c.clipping.Load(),
		},
		Staging: c.staging.Length(),
		Ring:    c.writer.Stats(),
	}
}

// defaultBackend picks the platform's native audio backend, letting
// miniaudio auto-select anywhere unusual.
func defaultBackend() malgo.Backend {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa
	case "windows":
		return malgo.BackendWasapi
	case "darwin":
		return malgo.BackendCoreaudio
	default:
		return malgo.BackendNull
	}
}

// bytesToFloat32 reinterprets interleaved native-endian float32 PCM bytes as
// a sample slice without copying.
func bytesToFloat32(b []byte) []float32 {
	if len(b) < conf.SampleBytes {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/conf.SampleBytes)
}

// captureSource holds information about a selected audio capture source.
type captureSource struct {
	Name    string
	ID      string
	Pointer unsafe.Pointer
}

// selectCaptureSource picks the capture device matching the configured name
// or ID substring. An empty setting selects the system default device.
func selectCaptureSource(infos []malgo.DeviceInfo, setting string) (captureSource, error) {
	if setting == "" {
		for i := range infos {
			if infos[i].IsDefault == 1 {
				return captureSource{Name: infos[i].Name(), Pointer: infos[i].ID.Pointer()}, nil
			}
		}
		// No device flagged default; let miniaudio choose.
		return captureSource{Name: "default"}, nil
	}

	for i := range infos {
		decodedID, err := hexToASCII(infos[i].ID.String())
		if err != nil {
			continue
		}
		if decodedID == setting || strings.Contains(infos[i].Name(), setting) {
			return captureSource{
				Name:    infos[i].Name(),
				ID:      decodedID,
				Pointer: infos[i].ID.Pointer(),
			}, nil
		}
	}

	return captureSource{}, errors.Newf("no capture source matches %q", setting).
		Component("capture").
		Category(errors.CategoryAudioDevice).
		Build()
}

// hexToASCII converts a hexadecimal string to an ASCII string. Device IDs
// are fixed-width and NUL padded.
func hexToASCII(hexStr string) (string, error) {
	bytes, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(bytes), "\x00"), nil
}
