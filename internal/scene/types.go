// Package scene builds and owns the in-memory model of a loaded CAD
// scene: compressed vertices, per-part index bookkeeping, node
// matrices, objects and bounding volumes. The model is immutable after
// Load; renderers and the upload layer read it concurrently.
package scene

import "github.com/Faultbox/cadbatch/pkg/math"

// Byte sizes of the GPU-shared records. The slices holding them are
// uploaded verbatim, so the Go struct layouts must not change.
const (
	VertexByteSize = 16
	IndexByteSize  = 4
)

// Vertex is the compressed GPU vertex: position plus an octahedral
// encoded normal in two snorm16 components.
type Vertex struct {
	Position   [3]float32
	NormalOctX int16
	NormalOctY int16
}

// MatrixNode holds a node's world transform and its inverse-transpose
// for normal transformation.
type MatrixNode struct {
	World   math.Mat4
	WorldIT math.Mat4
}

// MaterialSide holds the shading parameters of one face side.
type MaterialSide struct {
	Ambient  math.Vec4
	Diffuse  math.Vec4
	Specular math.Vec4
	Emissive math.Vec4
}

// Material is two-sided.
type Material struct {
	Sides [2]MaterialSide
}

// DrawRange identifies a contiguous run of the index buffer.
// ByteOffset is in bytes, Count in indices.
type DrawRange struct {
	ByteOffset uint64
	Count      uint32
}

// End returns the byte offset one past the range.
func (r DrawRange) End() uint64 {
	return r.ByteOffset + uint64(r.Count)*IndexByteSize
}

// GeometryPart is a contiguous sub-mesh of a geometry's solid indices.
type GeometryPart struct {
	IndexSolid DrawRange
}

// Geometry owns the raw buffers of one geometry, or aliases another
// geometry's buffers when produced by clone replication. CloneIndex is
// -1 for an origin that owns its buffers, otherwise the index of the
// origin geometry. Only origins release storage.
type Geometry struct {
	Vertices        []Vertex
	Indices         []uint32
	TrianglePartIDs []uint32 // one per triangle
	PartTriCounts   []uint32 // triangles per part
	PartTriOffsets  []uint32 // exclusive prefix sum of PartTriCounts

	Parts      []GeometryPart
	CloneIndex int32
}

// VertexBytes returns the vertex buffer size in bytes.
func (g *Geometry) VertexBytes() uint64 {
	return uint64(len(g.Vertices)) * VertexByteSize
}

// IndexBytes returns the index buffer size in bytes.
func (g *Geometry) IndexBytes() uint64 {
	return uint64(len(g.Indices)) * IndexByteSize
}

// TrianglePartIDBytes returns the per-triangle id buffer size in bytes.
func (g *Geometry) TrianglePartIDBytes() uint64 {
	return uint64(len(g.TrianglePartIDs)) * 4
}

// PartTriCountBytes returns the per-part count buffer size in bytes.
func (g *Geometry) PartTriCountBytes() uint64 {
	return uint64(len(g.PartTriCounts)) * 4
}

// PartTriOffsetBytes returns the per-part offset buffer size in bytes.
func (g *Geometry) PartTriOffsetBytes() uint64 {
	return uint64(len(g.PartTriOffsets)) * 4
}

// ObjectPart is the per-part render state of an object. Inactive parts
// are skipped by the draw-item builder.
type ObjectPart struct {
	Active        bool
	MatrixIndex   int32
	MaterialIndex int32
}

// Object references a geometry and matrix node by index and owns the
// activation state of its parts. UniquePartOffset is the object's
// block start in the flat part-id space spanning all objects.
type Object struct {
	MatrixIndex      int32
	GeometryIndex    int32
	UniquePartOffset uint32
	Parts            []ObjectPart
}

// Scene is the loaded model.
type Scene struct {
	Materials      []Material
	Geometries     []Geometry
	GeometryBBoxes []math.BBox
	Matrices       []MatrixNode
	Objects        []Object

	// BBox spans one copy of the scene; the clone grid is laid out
	// from its dimensions.
	BBox math.BBox

	// NumObjectParts is the part count of a single copy. Clone c's
	// objects occupy unique-part block c*NumObjectParts onward.
	NumObjectParts uint32

	// Aggregate id-stream sizes over origin geometries, for upload
	// diagnostics.
	TrianglePartIDsSize uint64
	PartTriCountsSize   uint64
}

// Unload releases geometry storage. Buffer ownership lives exclusively
// with origin geometries; aliases only drop their view, so storage is
// never released twice.
func (s *Scene) Unload() {
	if len(s.Geometries) == 0 {
		return
	}

	for i := range s.Geometries {
		g := &s.Geometries[i]
		if g.CloneIndex >= 0 {
			*g = Geometry{CloneIndex: g.CloneIndex}
			continue
		}
		g.Vertices = nil
		g.Indices = nil
		g.TrianglePartIDs = nil
		g.PartTriCounts = nil
		g.PartTriOffsets = nil
		g.Parts = nil
	}

	s.Geometries = nil
	s.GeometryBBoxes = nil
	s.Matrices = nil
	s.Objects = nil
}
