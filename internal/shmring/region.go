package shmring

import (
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/rightmic/rightmic-go/internal/errors"
)

// region is a mapped view of the shared memory file. The mapping is
// MAP_SHARED so stores become visible to the other process immediately.
//
// Go's sync/atomic operations are sequentially consistent, which is stronger
// than the acquire/release ordering the protocol requires: a reader that
// observes a counter update is guaranteed to observe every data store that
// preceded the counter store on the writer side.
type region struct {
	file *os.File
	mem  []byte
	data []float32 // sample view over mem[HeaderSize:], length samplesPerRing
}

// createRegion creates (or truncates) the shared memory file at path, sizes
// it exactly and maps it read-write. Writer side.
func createRegion(path string) (*region, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.New(err).
			Component("shmring").
			Category(errors.CategorySharedMemory).
			Context("path", path).
			Build()
	}

	if err := f.Truncate(RegionSize); err != nil {
		f.Close()
		os.Remove(path)
		return nil, errors.New(err).
			Component("shmring").
			Category(errors.CategorySharedMemory).
			Context("path", path).
			Context("size", RegionSize).
			Build()
	}

	return mapRegion(f)
}

// openRegion opens and maps an existing shared memory file. Reader side.
// The region is mapped read-write because the reader publishes its readHead
// back into the header; every other header field and the data region are
// only ever loaded.
func openRegion(path string) (*region, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.New(err).
			Component("shmring").
			Category(errors.CategorySharedMemory).
			Context("path", path).
			Build()
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.New(err).
			Component("shmring").
			Category(errors.CategorySharedMemory).
			Context("path", path).
			Build()
	}
	if info.Size() != RegionSize {
		f.Close()
		return nil, errors.Newf("shared memory size mismatch: got %d, want %d", info.Size(), RegionSize).
			Component("shmring").
			Category(errors.CategorySharedMemory).
			Context("path", path).
			Build()
	}

	return mapRegion(f)
}

func mapRegion(f *os.File) (*region, error) {
	mem, err := unix.Mmap(int(f.Fd()), 0, RegionSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, errors.New(err).
			Component("shmring").
			Category(errors.CategorySharedMemory).
			Context("operation", "mmap").
			Build()
	}

	return &region{
		file: f,
		mem:  mem,
		data: unsafe.Slice((*float32)(unsafe.Pointer(&mem[HeaderSize])), samplesPerRing),
	}, nil
}

// close unmaps the region and closes the backing file.
func (r *region) close() error {
	r.data = nil
	var unmapErr error
	if r.mem != nil {
		unmapErr = unix.Munmap(r.mem)
		r.mem = nil
	}
	closeErr := r.file.Close()
	if unmapErr != nil {
		return unmapErr
	}
	return closeErr
}

// Header accessors. Each field has a single designated writer; the atomic
// loads/stores below are the only cross-process synchronization in the
// protocol. Offsets are 8- or 4-byte aligned within the page-aligned mapping.

func (r *region) u64(off int) *uint64 {
	return (*uint64)(unsafe.Pointer(&r.mem[off]))
}

func (r *region) u32(off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&r.mem[off]))
}

func (r *region) loadWriteHead() uint64    { return atomic.LoadUint64(r.u64(offWriteHead)) }
func (r *region) storeWriteHead(v uint64)  { atomic.StoreUint64(r.u64(offWriteHead), v) }
func (r *region) loadReadHead() uint64     { return atomic.LoadUint64(r.u64(offReadHead)) }
func (r *region) storeReadHead(v uint64)   { atomic.StoreUint64(r.u64(offReadHead), v) }
func (r *region) loadActive() bool         { return atomic.LoadUint32(r.u32(offActive)) != 0 }
func (r *region) storeActive(active bool)  { atomic.StoreUint32(r.u32(offActive), b32(active)) }
func (r *region) loadSampleRate() uint32   { return atomic.LoadUint32(r.u32(offSampleRate)) }
func (r *region) storeSampleRate(v uint32) { atomic.StoreUint32(r.u32(offSampleRate), v) }
func (r *region) loadChannels() uint32     { return atomic.LoadUint32(r.u32(offChannelCount)) }
func (r *region) storeChannels(v uint32)   { atomic.StoreUint32(r.u32(offChannelCount), v) }

func b32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// stats snapshots the header counters.
func (r *region) stats() Stats {
	w := r.loadWriteHead()
	rd := r.loadReadHead()
	var buffered uint64
	if w >= rd {
		buffered = w - rd
	}
	return Stats{
		WriteHead:  w,
		ReadHead:   rd,
		Buffered:   buffered,
		Active:     r.loadActive(),
		SampleRate: r.loadSampleRate(),
		Channels:   r.loadChannels(),
	}
}
