package scene

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/Faultbox/cadbatch/internal/logger"
	"github.com/Faultbox/cadbatch/pkg/math"
	"github.com/Faultbox/cadbatch/pkg/oct"
)

// TranslucentAlpha is the alpha threshold below which a part is
// filtered out of the solid draw set at load time.
const TranslucentAlpha = 0.9

// DefaultSeed seeds the material-variation generator when the caller
// does not supply one.
const DefaultSeed = 234525

// Clone spacing constants, a fixed convention: clones sit 1.05 scene
// dimensions apart, stepping negative along x and z, positive along y.
const cloneSpacing = 1.05

// Axis bits of the clone axis mask.
const (
	AxisX = 1 << 0
	AxisY = 1 << 1
	AxisZ = 1 << 2
)

// LoadOptions control scene replication and material variation.
type LoadOptions struct {
	// Clones is the number of additional scene copies (0 = just the
	// original).
	Clones int

	// CloneAxis is the bitmask of axes the clone grid may spread
	// along (AxisX|AxisY|AxisZ). Required when Clones > 0.
	CloneAxis int

	// Rand drives the pseudo-random material variation. Nil selects a
	// generator seeded with DefaultSeed, reproducing the reference
	// shading every run.
	Rand *rand.Rand
}

// GridSide returns the clone grid side length: the smallest sq with
// sq^numAxis >= copies (linear when a single axis is enabled).
func GridSide(numAxis, copies int) int {
	sq := 1
	switch numAxis {
	case 1:
		sq = copies
	case 2:
		for sq*sq < copies {
			sq++
		}
	case 3:
		for sq*sq*sq < copies {
			sq++
		}
	}
	return sq
}

// Load converts a parsed document into the in-memory scene model,
// replicating it opts.Clones times. It either returns a complete new
// Scene or an error; it never partially mutates previously loaded
// state.
func Load(doc *Document, opts LoadOptions) (*Scene, error) {
	if doc == nil {
		return nil, ErrDocumentInvalid
	}
	if !doc.UniqueNodes {
		return nil, ErrNodesNotUnique
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}

	numAxis := axisCount(opts.CloneAxis)
	if opts.Clones > 0 && numAxis == 0 {
		return nil, fmt.Errorf("%w: clone axis mask must enable at least one axis", ErrDocumentInvalid)
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(DefaultSeed))
	}

	copies := opts.Clones + 1
	s := &Scene{BBox: math.NewBBox()}

	loadMaterials(s, doc, rng)
	loadGeometries(s, doc, copies)
	numObjects := loadNodes(s, doc, copies)
	loadObjects(s, doc, numObjects, copies)
	placeClones(s, doc, opts, numAxis, numObjects)

	logger.Info("scene loaded",
		zap.Int("materials", len(s.Materials)),
		zap.Int("geometries", len(s.Geometries)),
		zap.Int("objects", len(s.Objects)),
		zap.Uint32("objectParts", s.NumObjectParts),
		zap.Int("copies", copies),
	)

	return s, nil
}

func axisCount(mask int) int {
	n := 0
	for i := 0; i < 3; i++ {
		if mask&(1<<i) != 0 {
			n++
		}
	}
	return n
}

func randomVec4(rng *rand.Rand, from, to float32) math.Vec4 {
	var v math.Vec4
	width := to - from
	for i := 0; i < 4; i++ {
		v[i] = from + rng.Float32()*width
	}
	return v
}

// loadMaterials copies the document colors and synthesizes the
// remaining shading channels within fixed ranges for visual variety.
func loadMaterials(s *Scene, doc *Document, rng *rand.Rand) {
	s.Materials = make([]Material, len(doc.Materials))
	for n := range doc.Materials {
		color := math.Vec4(doc.Materials[n].Color)
		for i := 0; i < 2; i++ {
			side := &s.Materials[n].Sides[i]
			side.Ambient = randomVec4(rng, 0.0, 0.1)
			side.Diffuse = color.Add(randomVec4(rng, 0.0, 0.07))
			side.Specular = randomVec4(rng, 0.25, 0.55)
			side.Emissive = randomVec4(rng, 0.0, 0.05)
		}
	}
}

// loadGeometries compresses vertices, copies indices, builds the
// per-part triangle bookkeeping and replicates the result as aliases
// for each clone copy.
func loadGeometries(s *Scene, doc *Document, copies int) {
	numGeoms := len(doc.Geometries)
	s.Geometries = make([]Geometry, numGeoms*copies)
	s.GeometryBBoxes = make([]math.BBox, numGeoms*copies)

	for n := range doc.Geometries {
		docGeom := &doc.Geometries[n]
		geom := &s.Geometries[n]
		geom.CloneIndex = -1

		bbox := math.NewBBox()
		geom.Vertices = make([]Vertex, len(docGeom.Positions))
		for i := range docGeom.Positions {
			pos := math.Vec3{
				X: docGeom.Positions[i][0],
				Y: docGeom.Positions[i][1],
				Z: docGeom.Positions[i][2],
			}

			var normal math.Vec3
			if docGeom.Normals != nil {
				normal = math.Vec3{
					X: docGeom.Normals[i][0],
					Y: docGeom.Normals[i][1],
					Z: docGeom.Normals[i][2],
				}
			} else {
				normal = pos.Normalize()
			}

			x, y := oct.Encode(normal)
			geom.Vertices[i] = Vertex{
				Position:   docGeom.Positions[i],
				NormalOctX: x,
				NormalOctY: y,
			}
			bbox.Merge(pos)
		}
		s.GeometryBBoxes[n] = bbox

		geom.Indices = append([]uint32(nil), docGeom.Indices...)
		geom.TrianglePartIDs = make([]uint32, len(docGeom.Indices)/3)
		geom.PartTriCounts = make([]uint32, len(docGeom.Parts))
		geom.PartTriOffsets = make([]uint32, len(docGeom.Parts))
		geom.Parts = make([]GeometryPart, len(docGeom.Parts))

		s.TrianglePartIDsSize += geom.TrianglePartIDBytes()
		s.PartTriCountsSize += geom.PartTriCountBytes()

		var offsetSolid uint64
		var offsetIDs uint32
		for p := range docGeom.Parts {
			count := docGeom.Parts[p].IndexCount
			geom.Parts[p].IndexSolid = DrawRange{ByteOffset: offsetSolid, Count: count}

			geom.PartTriCounts[p] = count / 3
			// Exclusive prefix sum of PartTriCounts
			if p > 0 {
				geom.PartTriOffsets[p] = geom.PartTriOffsets[p-1] + geom.PartTriCounts[p-1]
			}

			offsetSolid += uint64(count) * IndexByteSize

			for i := uint32(0); i < count/3; i++ {
				geom.TrianglePartIDs[offsetIDs+i] = uint32(p)
			}
			offsetIDs += count / 3
		}
	}

	for c := 1; c < copies; c++ {
		for n := 0; n < numGeoms; n++ {
			s.GeometryBBoxes[n+numGeoms*c] = s.GeometryBBoxes[n]

			geom := s.Geometries[n]
			geom.CloneIndex = int32(n)
			s.Geometries[n+numGeoms*c] = geom
		}
	}
}

// loadNodes fills the matrix array for the original copy and returns
// the number of nodes carrying geometry. Skeleton-only nodes
// contribute just their transform.
func loadNodes(s *Scene, doc *Document, copies int) int {
	s.Matrices = make([]MatrixNode, len(doc.Nodes)*copies)

	numObjects := 0
	for n := range doc.Nodes {
		s.Matrices[n].World = doc.Nodes[n].WorldMatrix
		s.Matrices[n].WorldIT = doc.Nodes[n].WorldMatrix.InverseTranspose()

		if doc.Nodes[n].Geometry < 0 {
			continue
		}
		numObjects++
	}
	return numObjects
}

// loadObjects builds objects for geometry-bearing nodes of the
// original copy, applies the translucency filter and accumulates the
// scene bounding box.
func loadObjects(s *Scene, doc *Document, numObjects, copies int) {
	s.Objects = make([]Object, numObjects*copies)

	objIndex := 0
	for n := range doc.Nodes {
		docNode := &doc.Nodes[n]
		if docNode.Geometry < 0 {
			continue
		}

		object := &s.Objects[objIndex]
		object.MatrixIndex = int32(n)
		object.GeometryIndex = int32(docNode.Geometry)
		object.UniquePartOffset = s.NumObjectParts

		s.NumObjectParts += uint32(len(docNode.Parts))

		object.Parts = make([]ObjectPart, len(docNode.Parts))
		for i := range docNode.Parts {
			part := &object.Parts[i]
			part.Active = true
			part.MatrixIndex = object.MatrixIndex
			if docNode.Parts[i].Node >= 0 {
				part.MatrixIndex = int32(docNode.Parts[i].Node)
			}
			part.MaterialIndex = int32(docNode.Parts[i].Material)

			if doc.Materials[docNode.Parts[i].Material].Color[3] < TranslucentAlpha {
				part.Active = false
			}
		}

		bbox := s.GeometryBBoxes[object.GeometryIndex].Transformed(s.Matrices[n].World)
		s.BBox.Union(bbox)

		objIndex++
	}
}

// placeClones displaces each clone copy on a grid derived from the
// scene dimensions and rewrites its matrix/geometry/part-offset
// indices into the clone's block.
func placeClones(s *Scene, doc *Document, opts LoadOptions, numAxis, numObjects int) {
	if opts.Clones == 0 {
		return
	}

	numGeoms := len(doc.Geometries)
	numNodes := len(doc.Nodes)
	copies := opts.Clones + 1
	dim := s.BBox.Dim()
	sq := GridSide(numAxis, copies)

	for c := 1; c <= opts.Clones; c++ {
		shift := dim.Scale(cloneSpacing)

		// Mixed-radix grid coordinates in base sq.
		var u, v, w float32
		switch numAxis {
		case 1:
			u = float32(c)
		case 2:
			u = float32(c % sq)
			v = float32(c / sq)
		case 3:
			u = float32(c % sq)
			v = float32((c / sq) % sq)
			w = float32(c / (sq * sq))
		}

		use := u

		if opts.CloneAxis&AxisX != 0 {
			shift.X *= -use
			if numAxis > 1 {
				use = v
			}
		} else {
			shift.X = 0
		}

		if opts.CloneAxis&AxisY != 0 {
			shift.Y *= use
			if numAxis > 2 {
				use = w
			} else if numAxis > 1 {
				use = v
			}
		} else {
			shift.Y = 0
		}

		if opts.CloneAxis&AxisZ != 0 {
			shift.Z *= -use
		} else {
			shift.Z = 0
		}

		// Move all world matrices of this copy.
		for n := 0; n < numNodes; n++ {
			node := s.Matrices[n]
			node.World.SetCol(3, node.World.Col(3).Add(math.Vec4{shift.X, shift.Y, shift.Z, 0}))
			node.WorldIT = node.World.InverseTranspose()
			s.Matrices[n+numNodes*c] = node
		}

		// Clone objects into the copy's index blocks.
		for n := 0; n < numObjects; n++ {
			orig := &s.Objects[n]
			object := Object{
				MatrixIndex:      orig.MatrixIndex + int32(c*numNodes),
				GeometryIndex:    orig.GeometryIndex + int32(c*numGeoms),
				UniquePartOffset: orig.UniquePartOffset + uint32(c)*s.NumObjectParts,
				Parts:            append([]ObjectPart(nil), orig.Parts...),
			}
			for i := range object.Parts {
				object.Parts[i].MatrixIndex += int32(c * numNodes)
			}
			s.Objects[n+numObjects*c] = object
		}
	}
}
