package gpumem

import "testing"

func twoStreams() []Stream {
	return []Stream{
		{Name: "a", Alignment: 16, MaxChunkSize: 1024},
		{Name: "b", Alignment: 4, MaxChunkSize: 256},
	}
}

func TestNewAllocatorRejectsBadStreams(t *testing.T) {
	if _, err := NewAllocator(nil); err == nil {
		t.Error("empty stream set must be rejected")
	}
	if _, err := NewAllocator([]Stream{{Name: "a", MaxChunkSize: 16}}); err == nil {
		t.Error("zero alignment must be rejected")
	}
	if _, err := NewAllocator([]Stream{{Name: "a", Alignment: 16}}); err == nil {
		t.Error("zero chunk cap must be rejected")
	}
}

func TestAllocAlignsSizes(t *testing.T) {
	a, err := NewAllocator(twoStreams())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := a.Alloc([]uint64{1, 5}); err != nil {
		t.Fatal(err)
	}
	second, err := a.Alloc([]uint64{1, 1})
	if err != nil {
		t.Fatal(err)
	}

	// 1 rounds to 16 on stream a, 5 rounds to 8 on stream b.
	if second.Offsets[0] != 16 || second.Offsets[1] != 8 {
		t.Errorf("aligned offsets: got %v", second.Offsets)
	}
}

func TestAllocSizeCountMismatch(t *testing.T) {
	a, err := NewAllocator(twoStreams())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Alloc([]uint64{1}); err == nil {
		t.Error("size count mismatch must be rejected")
	}
}

func TestAllocOffsetsIncreaseWithinChunk(t *testing.T) {
	a, err := NewAllocator(twoStreams())
	if err != nil {
		t.Fatal(err)
	}

	var prev Allocation
	for i := 0; i < 5; i++ {
		alloc, err := a.Alloc([]uint64{32, 8})
		if err != nil {
			t.Fatal(err)
		}
		if alloc.ChunkIndex != 0 {
			t.Fatalf("alloc %d spilled to chunk %d", i, alloc.ChunkIndex)
		}
		if i > 0 {
			if alloc.Offsets[0] != prev.Offsets[0]+32 || alloc.Offsets[1] != prev.Offsets[1]+8 {
				t.Errorf("alloc %d: offsets %v after %v", i, alloc.Offsets, prev.Offsets)
			}
		}
		prev = alloc
	}
}

func TestAllocOverflowStartsNewChunk(t *testing.T) {
	a, err := NewAllocator(twoStreams())
	if err != nil {
		t.Fatal(err)
	}

	// Stream b caps at 256: four 64-byte allocations fill it, the
	// fifth must open exactly one new chunk.
	for i := 0; i < 4; i++ {
		alloc, err := a.Alloc([]uint64{16, 64})
		if err != nil {
			t.Fatal(err)
		}
		if alloc.ChunkIndex != 0 {
			t.Fatalf("alloc %d: chunk %d before overflow", i, alloc.ChunkIndex)
		}
	}

	alloc, err := a.Alloc([]uint64{16, 64})
	if err != nil {
		t.Fatal(err)
	}
	if alloc.ChunkIndex != 1 {
		t.Errorf("overflow allocation landed in chunk %d, want 1", alloc.ChunkIndex)
	}
	if a.ChunkCount() != 2 {
		t.Errorf("chunk count: got %d, want 2", a.ChunkCount())
	}
	if alloc.Offsets[0] != 0 || alloc.Offsets[1] != 0 {
		t.Errorf("new chunk must start at zero offsets, got %v", alloc.Offsets)
	}
	if !a.Chunk(0).Sealed {
		t.Error("overflowed chunk must be sealed")
	}
}

func TestAllocOversizedRequestGetsOwnChunk(t *testing.T) {
	a, err := NewAllocator(twoStreams())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := a.Alloc([]uint64{16, 4}); err != nil {
		t.Fatal(err)
	}
	alloc, err := a.Alloc([]uint64{16, 1024}) // 4x the cap of stream b
	if err != nil {
		t.Fatal(err)
	}
	if alloc.ChunkIndex != 1 || alloc.Offsets[1] != 0 {
		t.Errorf("oversized request: chunk %d offsets %v", alloc.ChunkIndex, alloc.Offsets)
	}
	if got := a.Chunk(1).Extents[1]; got != 1024 {
		t.Errorf("oversized chunk extent: got %d", got)
	}
}

func TestFinalizeAddsTailPadAndSeals(t *testing.T) {
	streams := twoStreams()
	streams[1].TailPad = 128
	a, err := NewAllocator(streams)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := a.Alloc([]uint64{16, 64}); err != nil {
		t.Fatal(err)
	}
	a.Finalize()

	c := a.Chunk(0)
	if !c.Sealed {
		t.Error("finalize must seal the chunk")
	}
	if c.Extents[0] != 16 || c.Extents[1] != 64+128 {
		t.Errorf("sealed extents: got %v", c.Extents)
	}

	// Finalizing again must not pad twice.
	a.Finalize()
	if got := a.Chunk(0).Extents[1]; got != 64+128 {
		t.Errorf("double finalize changed extent to %d", got)
	}

	// A later allocation goes to a fresh chunk, never into the
	// sealed one.
	alloc, err := a.Alloc([]uint64{16, 4})
	if err != nil {
		t.Fatal(err)
	}
	if alloc.ChunkIndex != 1 {
		t.Errorf("post-seal allocation landed in chunk %d", alloc.ChunkIndex)
	}
}

func TestStreamTotal(t *testing.T) {
	a, err := NewAllocator(twoStreams())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 4; i++ {
		if _, err := a.Alloc([]uint64{16, 64}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := a.Alloc([]uint64{16, 64}); err != nil { // second chunk
		t.Fatal(err)
	}
	a.Finalize()

	if got := a.StreamTotal("a"); got != 5*16 {
		t.Errorf("stream a total: got %d", got)
	}
	if got := a.StreamTotal("b"); got != 5*64 {
		t.Errorf("stream b total: got %d", got)
	}
	if got := a.StreamTotal("missing"); got != 0 {
		t.Errorf("unknown stream total: got %d", got)
	}
}

func TestDeinitDropsChunks(t *testing.T) {
	a, err := NewAllocator(twoStreams())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Alloc([]uint64{16, 4}); err != nil {
		t.Fatal(err)
	}
	a.Deinit()
	if a.ChunkCount() != 0 {
		t.Errorf("chunks after deinit: %d", a.ChunkCount())
	}
}
