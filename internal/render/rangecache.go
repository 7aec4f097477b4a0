package render

import (
	"sort"

	"github.com/Faultbox/cadbatch/internal/scene"
)

// DrawState is the GPU binding state shared by a run of draw ranges.
type DrawState struct {
	MaterialIndex int32
	MatrixIndex   int32
}

// CacheItem is one input record for range-cache compression.
type CacheItem struct {
	State     DrawState
	Range     scene.DrawRange
	PartIndex uint32
}

// DrawRangeCache is the compressed form of a state-grouped item list:
// Offsets/Counts/FirstPart/PartCounts describe merged index ranges,
// States/StateCounts say how many consecutive ranges share a state. A
// renderer binds each state once and issues StateCounts[i] draws.
type DrawRangeCache struct {
	States      []DrawState
	StateCounts []int32

	Offsets    []uint64
	Counts     []uint32
	FirstPart  []uint32
	PartCounts []uint32
}

// SortCacheItems orders items by (material, matrix, offset), the
// grouping BuildRangeCache expects.
func SortCacheItems(items []CacheItem) {
	sort.Slice(items, func(a, b int) bool {
		ia, ib := &items[a], &items[b]
		if ia.State.MaterialIndex != ib.State.MaterialIndex {
			return ia.State.MaterialIndex < ib.State.MaterialIndex
		}
		if ia.State.MatrixIndex != ib.State.MatrixIndex {
			return ia.State.MatrixIndex < ib.State.MatrixIndex
		}
		return ia.Range.ByteOffset < ib.Range.ByteOffset
	})
}

// BuildRangeCache run-length encodes a state-grouped item list into
// merged contiguous ranges. With combine set, ranges that start where
// the accumulated range ends are merged; otherwise every item closes a
// range. Empty input yields an empty cache.
func BuildRangeCache(items []CacheItem, combine bool) DrawRangeCache {
	var cache DrawRangeCache

	if len(items) == 0 {
		return cache
	}

	state := items[0].State
	rng := items[0].Range

	var stateCount int32
	partIndex := items[0].PartIndex
	partCount := uint32(1)

	pushRange := func() {
		if rng.Count != 0 {
			stateCount++
			cache.Offsets = append(cache.Offsets, rng.ByteOffset)
			cache.Counts = append(cache.Counts, rng.Count)
			cache.FirstPart = append(cache.FirstPart, partIndex)
			cache.PartCounts = append(cache.PartCounts, partCount)
		}
	}

	for i := 1; i < len(items)+1; i++ {
		newRange := false
		if i == len(items) || items[i].State != state {
			pushRange()

			if stateCount != 0 {
				cache.States = append(cache.States, state)
				cache.StateCounts = append(cache.StateCounts, stateCount)
			}
			stateCount = 0

			if i == len(items) {
				break
			}

			state = items[i].State
			rng = scene.DrawRange{ByteOffset: items[i].Range.ByteOffset}
			partIndex = items[i].PartIndex
			partCount = 0
			newRange = true
		}

		cur := items[i].Range
		if newRange || (combine && cur.ByteOffset == rng.End()) {
			// merge
			rng.Count += cur.Count
			partCount++
		} else {
			pushRange()
			rng = cur
			partIndex = items[i].PartIndex
			partCount = 1
		}
	}

	return cache
}
