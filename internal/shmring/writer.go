package shmring

import (
	"github.com/rightmic/rightmic-go/internal/conf"
)

// Writer is the producer side of the ring, owned by the capture app. It
// creates and sizes the shared memory file, stamps the negotiated format
// into the header once, and publishes frames with the ordering the reader
// depends on: samples are copied into the data region before the new
// writeHead is stored.
//
// Writer is not safe for concurrent use; one publisher goroutine owns it.
type Writer struct {
	r *region
}

// Create creates the shared memory file at path, sizes it exactly, maps it,
// and initializes the header. Counters start at zero and active starts at
// false; the reader ignores the region until active is set.
func Create(path string) (*Writer, error) {
	reg, err := createRegion(path)
	if err != nil {
		return nil, err
	}

	reg.storeWriteHead(0)
	reg.storeReadHead(0)
	reg.storeActive(false)
	reg.storeSampleRate(conf.SampleRate)
	reg.storeChannels(conf.NumChannels)

	return &Writer{r: reg}, nil
}

// SetActive publishes the active flag. The reader substitutes silence
// whenever the flag is clear, regardless of buffered data.
func (wr *Writer) SetActive(active bool) {
	wr.r.storeActive(active)
}

// WriteFrames copies len(src)/conf.NumChannels frames of interleaved samples
// into the ring and publishes the new write head. It never lets outstanding
// unread frames exceed the ring capacity: frames that would overwrite
// unconsumed data are dropped and the number of frames actually accepted is
// returned, so the caller can account for the loss.
func (wr *Writer) WriteFrames(src []float32) int {
	frames := uint64(len(src) / conf.NumChannels)

	w := wr.r.loadWriteHead()
	r := wr.r.loadReadHead()
	var outstanding uint64
	if w >= r {
		outstanding = w - r
	}
	free := uint64(conf.RingFrames) - outstanding
	if frames > free {
		frames = free
	}
	if frames == 0 {
		return 0
	}

	start := (w & ringMask) * conf.NumChannels
	contiguous := uint64(conf.RingFrames) - (w & ringMask)
	if contiguous >= frames {
		n := frames * conf.NumChannels
		copy(wr.r.data[start:start+n], src[:n])
	} else {
		n := contiguous * conf.NumChannels
		copy(wr.r.data[start:], src[:n])
		copy(wr.r.data[:(frames-contiguous)*conf.NumChannels], src[n:frames*conf.NumChannels])
	}

	// Store after the copies: a reader that observes the new head is
	// guaranteed to observe the samples below it.
	wr.r.storeWriteHead(w + frames)
	return int(frames)
}

// Stats snapshots the header counters for diagnostics.
func (wr *Writer) Stats() Stats {
	return wr.r.stats()
}

// Close clears the active flag and releases the mapping. The file itself is
// left in place so a reader holding a stale mapping keeps reading zeros
// rather than faulting.
func (wr *Writer) Close() error {
	wr.r.storeActive(false)
	return wr.r.close()
}
