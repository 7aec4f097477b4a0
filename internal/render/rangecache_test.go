package render

import (
	"testing"

	"github.com/Faultbox/cadbatch/internal/scene"
)

func item(material, matrix int32, offset uint64, count uint32, part uint32) CacheItem {
	return CacheItem{
		State:     DrawState{MaterialIndex: material, MatrixIndex: matrix},
		Range:     scene.DrawRange{ByteOffset: offset, Count: count},
		PartIndex: part,
	}
}

func TestBuildRangeCacheEmpty(t *testing.T) {
	cache := BuildRangeCache(nil, true)

	if len(cache.States) != 0 || len(cache.StateCounts) != 0 {
		t.Error("empty input must not emit a state entry")
	}
	if len(cache.Offsets) != 0 || len(cache.Counts) != 0 || len(cache.FirstPart) != 0 || len(cache.PartCounts) != 0 {
		t.Error("empty input must produce no ranges")
	}
}

func TestBuildRangeCacheSingle(t *testing.T) {
	cache := BuildRangeCache([]CacheItem{item(1, 2, 64, 30, 5)}, true)

	if len(cache.States) != 1 || cache.StateCounts[0] != 1 {
		t.Fatalf("single item: states %v counts %v", cache.States, cache.StateCounts)
	}
	if cache.States[0] != (DrawState{MaterialIndex: 1, MatrixIndex: 2}) {
		t.Errorf("state: got %+v", cache.States[0])
	}
	if len(cache.Offsets) != 1 || cache.Offsets[0] != 64 || cache.Counts[0] != 30 {
		t.Errorf("range: offsets %v counts %v", cache.Offsets, cache.Counts)
	}
	if cache.FirstPart[0] != 5 || cache.PartCounts[0] != 1 {
		t.Errorf("parts: first %v counts %v", cache.FirstPart, cache.PartCounts)
	}
}

func TestBuildRangeCacheMergesContiguous(t *testing.T) {
	items := []CacheItem{
		item(0, 0, 0, 30, 0),
		item(0, 0, 120, 30, 1),
		item(0, 0, 240, 30, 2),
	}
	cache := BuildRangeCache(items, true)

	if len(cache.Offsets) != 1 {
		t.Fatalf("contiguous ranges should merge, got %d ranges", len(cache.Offsets))
	}
	if cache.Offsets[0] != 0 || cache.Counts[0] != 90 {
		t.Errorf("merged range: offset %d count %d", cache.Offsets[0], cache.Counts[0])
	}
	if cache.FirstPart[0] != 0 || cache.PartCounts[0] != 3 {
		t.Errorf("merged parts: first %d count %d", cache.FirstPart[0], cache.PartCounts[0])
	}
	if len(cache.States) != 1 || cache.StateCounts[0] != 1 {
		t.Errorf("state runs: %v %v", cache.States, cache.StateCounts)
	}
}

func TestBuildRangeCacheGapWithoutCombine(t *testing.T) {
	items := []CacheItem{
		item(0, 0, 0, 30, 0),
		item(0, 0, 120, 30, 1),
	}

	// Combining off: contiguity is ignored, each item is its own range
	// within one state run.
	cache := BuildRangeCache(items, false)
	if len(cache.Offsets) != 2 {
		t.Fatalf("uncombined: got %d ranges, want 2", len(cache.Offsets))
	}
	if cache.Offsets[1] != 120 || cache.FirstPart[1] != 1 || cache.PartCounts[1] != 1 {
		t.Errorf("second range: offset %d first %d parts %d", cache.Offsets[1], cache.FirstPart[1], cache.PartCounts[1])
	}
	if len(cache.States) != 1 || cache.StateCounts[0] != 2 {
		t.Errorf("state runs: %v %v", cache.States, cache.StateCounts)
	}
}

func TestBuildRangeCacheNonContiguousSplits(t *testing.T) {
	items := []CacheItem{
		item(0, 0, 0, 30, 0),
		item(0, 0, 480, 30, 4),
	}
	cache := BuildRangeCache(items, true)

	if len(cache.Offsets) != 2 {
		t.Fatalf("gap should split ranges, got %d", len(cache.Offsets))
	}
	if cache.Offsets[1] != 480 || cache.FirstPart[1] != 4 {
		t.Errorf("second range: offset %d first part %d", cache.Offsets[1], cache.FirstPart[1])
	}
}

func TestBuildRangeCacheStateRuns(t *testing.T) {
	items := []CacheItem{
		item(0, 0, 0, 30, 0),
		item(0, 0, 120, 30, 1),
		item(1, 0, 240, 30, 2),
		item(1, 0, 480, 30, 4),
	}
	cache := BuildRangeCache(items, true)

	// State 0: one merged range. State 1: two ranges split by the gap.
	if len(cache.States) != 2 {
		t.Fatalf("states: got %d, want 2", len(cache.States))
	}
	if cache.StateCounts[0] != 1 || cache.StateCounts[1] != 2 {
		t.Errorf("state run lengths: got %v", cache.StateCounts)
	}
	if len(cache.Offsets) != 3 {
		t.Errorf("ranges: got %d, want 3", len(cache.Offsets))
	}
}

func TestSortCacheItems(t *testing.T) {
	items := []CacheItem{
		item(1, 0, 0, 3, 0),
		item(0, 1, 12, 3, 1),
		item(0, 0, 24, 3, 2),
		item(0, 0, 0, 3, 3),
	}
	SortCacheItems(items)

	want := []CacheItem{
		item(0, 0, 0, 3, 3),
		item(0, 0, 24, 3, 2),
		item(0, 1, 12, 3, 1),
		item(1, 0, 0, 3, 0),
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("sorted[%d]: got %+v, want %+v", i, items[i], want[i])
		}
	}
}
