package capture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateLevel(t *testing.T) {
	tests := []struct {
		name         string
		samples      func() []float32
		wantLevel    int
		wantClipping bool
	}{
		{
			name:      "empty block",
			samples:   func() []float32 { return nil },
			wantLevel: 0,
		},
		{
			name: "digital silence",
			samples: func() []float32 {
				return make([]float32, 1024)
			},
			wantLevel: 0,
		},
		{
			name: "full scale sine",
			samples: func() []float32 {
				s := make([]float32, 4800)
				for i := range s {
					s[i] = float32(0.999 * math.Sin(2*math.Pi*float64(i)/48))
				}
				return s
			},
			wantLevel: 100,
		},
		{
			name: "clipped samples",
			samples: func() []float32 {
				s := make([]float32, 512)
				for i := range s {
					s[i] = 1.5
				}
				return s
			},
			wantLevel:    100,
			wantClipping: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ld := calculateLevel(tt.samples())
			assert.Equal(t, tt.wantLevel, ld.Level)
			assert.Equal(t, tt.wantClipping, ld.Clipping)
		})
	}
}

func TestCalculateLevelHalfScale(t *testing.T) {
	s := make([]float32, 4800)
	for i := range s {
		s[i] = float32(0.5 * 0.707 * math.Sin(2*math.Pi*float64(i)/48))
	}
	ld := calculateLevel(s)
	assert.InDelta(t, 35, ld.Level, 3)
	assert.False(t, ld.Clipping)
}
