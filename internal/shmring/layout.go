// Package shmring implements the shared-memory ring buffer that carries
// interleaved float32 audio frames from the capture app (writer) to the
// driver core (reader). One writer, one reader, no locks: the header holds
// two monotonically increasing frame counters and an active flag, each owned
// by exactly one side and read by the other through atomic loads.
package shmring

import (
	"fmt"

	"github.com/rightmic/rightmic-go/internal/conf"
)

// Header field byte offsets within the shared region. Both processes compile
// against this layout; there is no runtime negotiation. All fields are
// native-endian with fixed widths.
const (
	offWriteHead    = 0  // uint64, owned by the writer
	offReadHead     = 8  // uint64, owned by the reader
	offActive       = 16 // uint32, owned by the writer
	offSampleRate   = 20 // uint32, set once by the writer
	offChannelCount = 24 // uint32, set once by the writer

	// HeaderSize pads the header to one cache line.
	HeaderSize = 64
)

// Derived sizes. The data region immediately follows the header and holds
// conf.RingFrames interleaved frames addressed modulo the capacity.
const (
	DataBytes  = conf.RingFrames * conf.BytesPerFrame
	RegionSize = HeaderSize + DataBytes

	ringMask       = conf.RingFrames - 1
	samplesPerRing = conf.RingFrames * conf.NumChannels
)

func init() {
	// The mask-based addressing in reader.go and writer.go requires a
	// power-of-two capacity.
	if conf.RingFrames&(conf.RingFrames-1) != 0 {
		panic(fmt.Sprintf("shmring: ring capacity %d is not a power of two", conf.RingFrames))
	}
}

// Stats is a snapshot of the ring counters, for diagnostics only. The values
// are loaded independently and may not be mutually consistent under load.
type Stats struct {
	WriteHead  uint64 `json:"write_head"`
	ReadHead   uint64 `json:"read_head"`
	Buffered   uint64 `json:"buffered"`
	Active     bool   `json:"active"`
	SampleRate uint32 `json:"sample_rate"`
	Channels   uint32 `json:"channels"`
}
