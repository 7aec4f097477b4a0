package gpumem

import (
	"testing"

	"github.com/Faultbox/cadbatch/internal/scene"
)

func planGeometry(verts, indices, parts int) scene.Geometry {
	g := scene.Geometry{
		Vertices:        make([]scene.Vertex, verts),
		Indices:         make([]uint32, indices),
		TrianglePartIDs: make([]uint32, indices/3),
		PartTriCounts:   make([]uint32, parts),
		PartTriOffsets:  make([]uint32, parts),
		CloneIndex:      -1,
	}
	return g
}

func TestPlanSceneSingleGeometry(t *testing.T) {
	s := &scene.Scene{Geometries: []scene.Geometry{planGeometry(4, 6, 2)}}

	plan, err := PlanScene(s, 1<<20)
	if err != nil {
		t.Fatal(err)
	}

	if len(plan.Geometries) != 1 {
		t.Fatalf("layouts: got %d", len(plan.Geometries))
	}
	l := plan.Geometries[0]
	if l.ChunkIndex != 0 {
		t.Errorf("chunk index: got %d", l.ChunkIndex)
	}
	if l.Vertex.ByteSize != 4*scene.VertexByteSize || l.Vertex.ByteOffset != 0 {
		t.Errorf("vertex range: %+v", l.Vertex)
	}
	if l.Index.ByteSize != 6*scene.IndexByteSize {
		t.Errorf("index range: %+v", l.Index)
	}
	if l.TrianglePartID.ByteSize != 2*4 || l.PartTriCount.ByteSize != 2*4 || l.PartTriOffset.ByteSize != 2*4 {
		t.Errorf("id ranges: %+v %+v %+v", l.TrianglePartID, l.PartTriCount, l.PartTriOffset)
	}
	if !plan.Allocator.Chunk(0).Sealed {
		t.Error("plan must finalize its last chunk")
	}
}

func TestPlanScenePacksClones(t *testing.T) {
	origin := planGeometry(4, 6, 2)
	clone := origin
	clone.CloneIndex = 0

	s := &scene.Scene{Geometries: []scene.Geometry{origin, clone}}
	plan, err := PlanScene(s, 1<<20)
	if err != nil {
		t.Fatal(err)
	}

	// Clones get their own placement even though they alias the
	// origin's arrays in memory.
	a, b := plan.Geometries[0], plan.Geometries[1]
	if a.ChunkIndex != b.ChunkIndex {
		t.Fatalf("chunks differ: %d vs %d", a.ChunkIndex, b.ChunkIndex)
	}
	if b.Vertex.ByteOffset <= a.Vertex.ByteOffset {
		t.Errorf("clone vertex offset %d not past origin %d", b.Vertex.ByteOffset, a.Vertex.ByteOffset)
	}
	if b.Vertex.ByteSize != a.Vertex.ByteSize {
		t.Errorf("clone vertex size %d differs from origin %d", b.Vertex.ByteSize, a.Vertex.ByteSize)
	}
}

func TestPlanSceneSpillsAcrossChunks(t *testing.T) {
	// Each geometry needs 64 vertex bytes; a 128-byte cap fits two
	// geometries per chunk.
	geoms := make([]scene.Geometry, 5)
	for i := range geoms {
		geoms[i] = planGeometry(4, 6, 1)
	}
	s := &scene.Scene{Geometries: geoms}

	plan, err := PlanScene(s, 128)
	if err != nil {
		t.Fatal(err)
	}

	wantChunks := []int{0, 0, 1, 1, 2}
	for i, want := range wantChunks {
		if got := plan.Geometries[i].ChunkIndex; got != want {
			t.Errorf("geometry %d: chunk %d, want %d", i, got, want)
		}
	}
	if plan.Allocator.ChunkCount() != 3 {
		t.Errorf("chunk count: got %d", plan.Allocator.ChunkCount())
	}
}

func TestPlanSceneTotals(t *testing.T) {
	s := &scene.Scene{Geometries: []scene.Geometry{planGeometry(4, 6, 2)}}
	plan, err := PlanScene(s, 1<<20)
	if err != nil {
		t.Fatal(err)
	}

	// Vertex 64, index 32 (24 rounded up), ids 16+16+16 rounded to
	// 16 each, plus the part-count tail pad from finalizing.
	if got := plan.Allocator.StreamTotal(StreamVertex); got != 64 {
		t.Errorf("vertex total: got %d", got)
	}
	if got := plan.Allocator.StreamTotal(StreamIndex); got != 32 {
		t.Errorf("index total: got %d", got)
	}
	wantID := uint64(16 + 16 + partCountTailPad + 16)
	if got := plan.IDBytes(); got != wantID {
		t.Errorf("id bytes: got %d, want %d", got, wantID)
	}
	if got := plan.TotalBytes(); got != 64+32+wantID {
		t.Errorf("total bytes: got %d", got)
	}
}
