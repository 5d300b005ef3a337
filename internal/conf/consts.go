// conf/consts.go hard coded constants
package conf

// Audio format constants shared by the driver core and the companion capture
// app. These are compile-time values on both sides of the shared memory
// region, not negotiated at runtime; the property surface may advertise them
// but accepts no alternative.
const (
	SampleRate    = 48000 // fixed sample rate in Hz
	NumChannels   = 2     // interleaved channel count
	SampleBytes   = 4     // 32-bit float samples
	BytesPerFrame = NumChannels * SampleBytes
	PeriodFrames  = 512 // frames served per IO cycle

	// RingFrames is the shared ring capacity, ~341 ms at 48 kHz. Must be a
	// power of two so ring addressing reduces to a mask.
	RingFrames = 16384
)

// DefaultSharedMemoryPath is the well-known location of the shared memory
// file created by the capture app and mapped by the driver core.
const DefaultSharedMemoryPath = "/tmp/com.rightmic.audio"
