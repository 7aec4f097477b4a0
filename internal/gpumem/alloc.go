// Package gpumem bin-packs many geometries' byte ranges into a small
// number of large fixed-capacity chunks, one backing buffer per stream
// per chunk. It only plans placement; creating and filling the
// physical buffers is the upload layer's job.
package gpumem

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/cadbatch/internal/logger"
)

// Stream describes one independent data stream packed by the
// allocator. Streams never share byte ranges; each grows its own
// buffer inside every chunk.
type Stream struct {
	Name      string
	Alignment uint64
	// MaxChunkSize caps growth: an allocation that would push the
	// stream past it seals the chunk and starts a new one. A single
	// oversized request still lands in a fresh chunk (see Alloc).
	MaxChunkSize uint64
	// TailPad is added to the stream's extent when its chunk is
	// sealed, for buffers read slightly out of bounds downstream.
	TailPad uint64
}

// Allocation records where one geometry landed: the chunk and its
// byte offset within each of that chunk's streams.
type Allocation struct {
	ChunkIndex int
	Offsets    []uint64
}

// Chunk aggregates the accumulated extent of every stream. Once
// sealed its extents never change and no allocation may enter it.
type Chunk struct {
	Extents []uint64
	Sealed  bool
}

// Allocator packs allocations into chunks under per-stream caps. Not
// safe for concurrent use; calls must be serialized by the caller.
type Allocator struct {
	streams []Stream
	chunks  []Chunk
}

// NewAllocator returns an allocator for the given stream set.
func NewAllocator(streams []Stream) (*Allocator, error) {
	if len(streams) == 0 {
		return nil, fmt.Errorf("gpumem: at least one stream required")
	}
	for i := range streams {
		if streams[i].Alignment == 0 || streams[i].MaxChunkSize == 0 {
			return nil, fmt.Errorf("gpumem: stream %q needs alignment and max chunk size", streams[i].Name)
		}
	}
	return &Allocator{streams: append([]Stream(nil), streams...)}, nil
}

func alignedSize(sz, align uint64) uint64 {
	return (sz + align - 1) / align * align
}

// Alloc places one set of per-stream sizes, starting a new chunk when
// there is none or when any stream would outgrow its cap. The returned
// offsets are the chunk extents before this call. A request larger
// than a stream's cap is not rejected: it gets a fresh chunk that
// exceeds the nominal cap for that one allocation, with a warning.
func (a *Allocator) Alloc(sizes []uint64) (Allocation, error) {
	if len(sizes) != len(a.streams) {
		return Allocation{}, fmt.Errorf("gpumem: got %d sizes for %d streams", len(sizes), len(a.streams))
	}

	rounded := make([]uint64, len(sizes))
	for i, sz := range sizes {
		rounded[i] = alignedSize(sz, a.streams[i].Alignment)
		if rounded[i] > a.streams[i].MaxChunkSize {
			logger.Warn("allocation exceeds stream chunk cap",
				zap.String("stream", a.streams[i].Name),
				zap.Uint64("size", rounded[i]),
				zap.Uint64("cap", a.streams[i].MaxChunkSize),
			)
		}
	}

	if len(a.chunks) == 0 || a.chunks[len(a.chunks)-1].Sealed || a.wouldOverflow(rounded) {
		a.Finalize()
		a.chunks = append(a.chunks, Chunk{Extents: make([]uint64, len(a.streams))})
	}

	chunk := &a.chunks[len(a.chunks)-1]
	alloc := Allocation{
		ChunkIndex: len(a.chunks) - 1,
		Offsets:    make([]uint64, len(a.streams)),
	}
	for i := range a.streams {
		alloc.Offsets[i] = chunk.Extents[i]
		chunk.Extents[i] += rounded[i]
	}
	return alloc, nil
}

func (a *Allocator) wouldOverflow(rounded []uint64) bool {
	chunk := &a.chunks[len(a.chunks)-1]
	for i := range a.streams {
		if chunk.Extents[i]+rounded[i] > a.streams[i].MaxChunkSize {
			return true
		}
	}
	return false
}

// Finalize seals the active chunk, freezing its extents at their
// accumulated values plus tail padding. A later Alloc begins a new
// chunk. Calling with no active chunk is a no-op.
func (a *Allocator) Finalize() {
	if len(a.chunks) == 0 {
		return
	}
	chunk := &a.chunks[len(a.chunks)-1]
	if chunk.Sealed {
		return
	}
	for i := range a.streams {
		chunk.Extents[i] += a.streams[i].TailPad
	}
	chunk.Sealed = true
}

// Deinit drops all chunks.
func (a *Allocator) Deinit() {
	a.chunks = nil
}

// ChunkCount returns the number of chunks created so far.
func (a *Allocator) ChunkCount() int {
	return len(a.chunks)
}

// Chunk returns chunk i.
func (a *Allocator) Chunk(i int) Chunk {
	return a.chunks[i]
}

// Streams returns the configured stream set.
func (a *Allocator) Streams() []Stream {
	return a.streams
}

// StreamTotal sums a stream's extents across all chunks.
func (a *Allocator) StreamTotal(name string) uint64 {
	idx := -1
	for i := range a.streams {
		if a.streams[i].Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0
	}
	var total uint64
	for i := range a.chunks {
		total += a.chunks[i].Extents[idx]
	}
	return total
}
