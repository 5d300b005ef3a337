package shmring

import (
	"github.com/rightmic/rightmic-go/internal/conf"
)

// Reader is the consumer side of the ring. It is driven from a
// deadline-scheduled real-time thread inside the host process, so ReadFrames
// must never block, allocate, or take a lock; every failure mode is absorbed
// as silence.
//
// Reader is not safe for concurrent use; the host invokes IO operations one
// at a time.
type Reader struct {
	r *region
}

// Open maps an existing shared memory file for reading. The file may not
// exist yet if the capture app has not started; callers treat a failed Open
// as transient and retry on a later period.
func Open(path string) (*Reader, error) {
	reg, err := openRegion(path)
	if err != nil {
		return nil, err
	}
	return &Reader{r: reg}, nil
}

// Close unmaps the region and closes the file descriptor.
func (rd *Reader) Close() error {
	return rd.r.close()
}

// ReadFrames fills dst with the next len(dst)/conf.NumChannels frames of
// interleaved samples. It reports whether real audio was delivered.
//
// When the writer is inactive or has buffered fewer frames than requested,
// dst is filled with silence and the read head does not advance, so no frame
// is ever skipped or duplicated across an underrun. A later period resumes
// from the same position once the writer catches up.
func (rd *Reader) ReadFrames(dst []float32) bool {
	frames := uint64(len(dst) / conf.NumChannels)

	if !rd.r.loadActive() {
		silence(dst)
		return false
	}

	// Acquire-load of writeHead: all sample stores for frames below it are
	// visible after this point. readHead is owned by this side; the clamp
	// guards against a writer that recreated the region with reset counters.
	w := rd.r.loadWriteHead()
	r := rd.r.loadReadHead()
	var available uint64
	if w >= r {
		available = w - r
	}
	if available < frames {
		silence(dst)
		return false
	}

	// The requested run may cross the end of the data region; split into at
	// most two contiguous copies.
	start := (r & ringMask) * conf.NumChannels
	contiguous := uint64(conf.RingFrames) - (r & ringMask)
	if contiguous >= frames {
		n := frames * conf.NumChannels
		copy(dst[:n], rd.r.data[start:start+n])
	} else {
		n := contiguous * conf.NumChannels
		copy(dst[:n], rd.r.data[start:])
		copy(dst[n:frames*conf.NumChannels], rd.r.data[:(frames-contiguous)*conf.NumChannels])
	}

	// Publish the new read head. The writer only inspects it for capacity
	// accounting and diagnostics; the reader never waits on it being seen.
	rd.r.storeReadHead(r + frames)
	return true
}

// Stats snapshots the header counters for diagnostics.
func (rd *Reader) Stats() Stats {
	return rd.r.stats()
}

// silence zeroes dst in place without allocating.
func silence(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
}
