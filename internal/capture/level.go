package capture

import (
	"math"
)

// LevelData holds the audio level computed over one callback block.
type LevelData struct {
	Level    int  `json:"level"`    // 0-100
	Clipping bool `json:"clipping"` // true if clipping is detected
}

// calculateLevel computes the RMS of a block of float32 samples and maps it
// to a 0-100 scale. Samples at or beyond full scale count as clipping.
func calculateLevel(samples []float32) LevelData {
	if len(samples) == 0 {
		return LevelData{}
	}

	var sum float64
	clipping := false
	for _, s := range samples {
		v := float64(s)
		sum += v * v
		if v >= 1.0 || v <= -1.0 {
			clipping = true
		}
	}

	rms := math.Sqrt(sum / float64(len(samples)))

	// Scale RMS to 0-100. A full-scale sine has RMS ~0.707, so normalize
	// against that to make a sustained full-scale tone read as 100.
	level := int(math.Round(rms / 0.707 * 100))
	if level > 100 {
		level = 100
	}

	return LevelData{Level: level, Clipping: clipping}
}
