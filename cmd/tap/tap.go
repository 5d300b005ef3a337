// Package tap implements the tap subcommand: drive the driver core the way a
// host audio server would, one period per clock tick, and record what it
// delivers to a WAV file. Useful for verifying the capture pipeline end to
// end without installing the driver.
package tap

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/cobra"

	"github.com/rightmic/rightmic-go/internal/conf"
	"github.com/rightmic/rightmic-go/internal/driver"
	"github.com/rightmic/rightmic-go/internal/logging"
)

// Command creates the tap command.
func Command(settings *conf.Settings) *cobra.Command {
	var duration time.Duration
	var output string

	cmd := &cobra.Command{
		Use:   "tap",
		Short: "Read audio from the shared memory ring and save it as WAV",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTap(settings, duration, output)
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "How long to record")
	cmd.Flags().StringVar(&output, "output", "tap.wav", "Output WAV file path")

	return cmd
}

func runTap(settings *conf.Settings, duration time.Duration, output string) error {
	log := logging.ForService("tap")
	device := driver.New(settings.Capture.ShmPath, log)

	device.StartIO(time.Now())
	defer device.StopIO()

	period := make([]float32, conf.PeriodFrames*conf.NumChannels)
	recorded := make([]float32, 0, int(duration.Seconds()*conf.SampleRate)*conf.NumChannels)
	silent, live := 0, 0

	ticker := time.NewTicker(device.PeriodDuration())
	defer ticker.Stop()
	deadline := time.After(duration)

	for done := false; !done; {
		select {
		case <-deadline:
			done = true
		case now := <-ticker.C:
			samplePos, hostTime := device.ZeroTimestamp(now)
			if settings.Debug {
				log.Debug("period", "sample_position", samplePos, "host_time", hostTime)
			}
			if device.ReadInput(period) {
				live++
			} else {
				silent++
			}
			recorded = append(recorded, period...)
		}
	}

	stats := device.Stats()
	fmt.Printf("Recorded %d periods (%d live, %d silent), ring write head %d\n",
		live+silent, live, silent, stats.WriteHead)

	return saveWAV(output, recorded)
}

// saveWAV writes the recorded float samples as a 16-bit PCM WAV file.
func saveWAV(path string, samples []float32) error {
	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer outFile.Close() //nolint:errcheck

	enc := wav.NewEncoder(outFile, conf.SampleRate, 16, conf.NumChannels, 1)

	intSamples := make([]int, len(samples))
	for i, s := range samples {
		v := int(s * 32767)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		intSamples[i] = v
	}

	buf := &audio.IntBuffer{
		Data:   intSamples,
		Format: &audio.Format{SampleRate: conf.SampleRate, NumChannels: conf.NumChannels},
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write to WAV encoder: %w", err)
	}

	return enc.Close()
}
