package gpumem

import (
	"go.uber.org/zap"

	"github.com/Faultbox/cadbatch/internal/logger"
	"github.com/Faultbox/cadbatch/internal/scene"
)

// Standard stream names of the scene layout.
const (
	StreamVertex         = "vbo"
	StreamIndex          = "ibo"
	StreamTrianglePartID = "tripartids"
	StreamPartTriCount   = "partcounts"
	StreamPartTriOffset  = "partoffsets"
)

// Buffer alignments within a chunk. The vertex stream carries its own
// alignment, the id/index streams share one.
const (
	vertexAlignment = 16
	commonAlignment = 16
)

// partCountTailPad reserves room past the per-part count buffer so
// batched shaders may read a full search batch beyond the last part.
const partCountTailPad = 4 * 32

// StreamRange is one stream's slice of a chunk buffer.
type StreamRange struct {
	ByteOffset uint64
	ByteSize   uint64
}

// GeometryLayout records where one geometry's data lands: the chunk
// and the occupied range per stream.
type GeometryLayout struct {
	ChunkIndex     int
	Vertex         StreamRange
	Index          StreamRange
	TrianglePartID StreamRange
	PartTriCount   StreamRange
	PartTriOffset  StreamRange
}

// ScenePlan is the placement of every geometry of a scene, clones
// included (aliases receive their own GPU-resident copy, matching the
// per-clone identity the shaders address).
type ScenePlan struct {
	Allocator  *Allocator
	Geometries []GeometryLayout
}

// SceneStreams returns the standard five-stream configuration with a
// uniform per-stream chunk cap.
func SceneStreams(maxChunk uint64) []Stream {
	return []Stream{
		{Name: StreamVertex, Alignment: vertexAlignment, MaxChunkSize: maxChunk},
		{Name: StreamIndex, Alignment: commonAlignment, MaxChunkSize: maxChunk},
		{Name: StreamTrianglePartID, Alignment: commonAlignment, MaxChunkSize: maxChunk},
		{Name: StreamPartTriCount, Alignment: commonAlignment, MaxChunkSize: maxChunk, TailPad: partCountTailPad},
		{Name: StreamPartTriOffset, Alignment: commonAlignment, MaxChunkSize: maxChunk},
	}
}

// PlanScene runs the allocation phase for a loaded scene: one
// allocation per geometry into chunks capped at maxChunk bytes per
// stream. The sealed chunks tell the upload layer how many physical
// buffers to create and the layouts say where each geometry's data
// belongs inside them.
func PlanScene(s *scene.Scene, maxChunk uint64) (*ScenePlan, error) {
	alloc, err := NewAllocator(SceneStreams(maxChunk))
	if err != nil {
		return nil, err
	}

	plan := &ScenePlan{
		Allocator:  alloc,
		Geometries: make([]GeometryLayout, len(s.Geometries)),
	}

	for g := range s.Geometries {
		geom := &s.Geometries[g]
		sizes := []uint64{
			geom.VertexBytes(),
			geom.IndexBytes(),
			geom.TrianglePartIDBytes(),
			geom.PartTriCountBytes(),
			geom.PartTriOffsetBytes(),
		}

		a, err := alloc.Alloc(sizes)
		if err != nil {
			return nil, err
		}

		plan.Geometries[g] = GeometryLayout{
			ChunkIndex:     a.ChunkIndex,
			Vertex:         StreamRange{a.Offsets[0], sizes[0]},
			Index:          StreamRange{a.Offsets[1], sizes[1]},
			TrianglePartID: StreamRange{a.Offsets[2], sizes[2]},
			PartTriCount:   StreamRange{a.Offsets[3], sizes[3]},
			PartTriOffset:  StreamRange{a.Offsets[4], sizes[4]},
		}
	}

	alloc.Finalize()

	logger.Info("geometry memory planned",
		zap.Uint64("vertexBytes", alloc.StreamTotal(StreamVertex)),
		zap.Uint64("indexBytes", alloc.StreamTotal(StreamIndex)),
		zap.Uint64("idBytes", plan.IDBytes()),
		zap.Int("chunks", alloc.ChunkCount()),
	)

	return plan, nil
}

// IDBytes sums the auxiliary id streams across all chunks.
func (p *ScenePlan) IDBytes() uint64 {
	return p.Allocator.StreamTotal(StreamTrianglePartID) +
		p.Allocator.StreamTotal(StreamPartTriCount) +
		p.Allocator.StreamTotal(StreamPartTriOffset)
}

// TotalBytes sums every stream across all chunks.
func (p *ScenePlan) TotalBytes() uint64 {
	return p.Allocator.StreamTotal(StreamVertex) +
		p.Allocator.StreamTotal(StreamIndex) +
		p.IDBytes()
}
