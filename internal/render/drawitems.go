// Package render turns a loaded scene into ordered draw items and
// compresses them into cached draw ranges. Everything here derives
// from an immutable scene and a configuration; outputs are fresh
// collections per call.
package render

import (
	"sort"

	"github.com/Faultbox/cadbatch/internal/scene"
)

// Config selects which slice of the scene is drawn and how draw items
// are generated. ColorizeDraws is informational for the display layer
// and does not influence item generation.
type Config struct {
	ObjectFrom      uint32
	ObjectNum       uint32
	Sorted          bool
	IgnoreMaterials bool
	ColorizeDraws   bool
	SearchBatch     uint32
}

// DrawItem is one batched draw: a contiguous index range rendered
// with a fixed material and matrix.
type DrawItem struct {
	MaterialIndex int32
	GeometryIndex int32
	MatrixIndex   int32
	PartIndex     int32
	ObjectIndex   int32
	ObjectOffset  uint32
	PartCount     int32
	Range         scene.DrawRange
}

// Stats accumulates draw-call and triangle totals across fill calls.
type Stats struct {
	DrawCalls     uint32
	DrawTriangles uint32
}

// CombineUnbounded merges without a part limit.
const CombineUnbounded = ^uint32(0)

// FillDrawItems walks the selected object window and emits draw items,
// one per active part when maxCombine is zero, otherwise merging
// contiguous same-state parts up to maxCombine per item. With
// cfg.Sorted the result is ordered to minimize state changes.
func FillDrawItems(s *scene.Scene, cfg Config, maxCombine uint32, stats *Stats) []DrawItem {
	if len(s.Objects) == 0 {
		return nil
	}

	// Out-of-range windows saturate instead of failing.
	from := int(cfg.ObjectFrom)
	if from > len(s.Objects)-1 {
		from = len(s.Objects) - 1
	}
	to := from + int(cfg.ObjectNum)
	if to > len(s.Objects) {
		to = len(s.Objects)
	}

	var items []DrawItem
	for i := from; i < to; i++ {
		obj := &s.Objects[i]
		geo := &s.Geometries[obj.GeometryIndex]

		if maxCombine != 0 {
			items = fillCombined(items, cfg, obj, geo, int32(i), maxCombine)
		} else {
			items = fillIndividual(items, obj, geo, int32(i))
		}
	}

	if cfg.Sorted {
		sort.SliceStable(items, func(a, b int) bool {
			return itemLessGroups(&items[a], &items[b])
		})
	}

	for i := range items {
		stats.DrawCalls++
		stats.DrawTriangles += items[i].Range.Count / 3
	}

	return items
}

// itemLessGroups orders by (geometry, material, matrix, part), the
// total order that groups items with equal GPU state.
func itemLessGroups(a, b *DrawItem) bool {
	if a.GeometryIndex != b.GeometryIndex {
		return a.GeometryIndex < b.GeometryIndex
	}
	if a.MaterialIndex != b.MaterialIndex {
		return a.MaterialIndex < b.MaterialIndex
	}
	if a.MatrixIndex != b.MatrixIndex {
		return a.MatrixIndex < b.MatrixIndex
	}
	return a.PartIndex < b.PartIndex
}

func appendItem(items []DrawItem, di DrawItem) []DrawItem {
	if di.Range.Count == 0 {
		return items
	}
	return append(items, di)
}

// fillCombined keeps a running item across the object's active parts,
// flushing whenever the matrix changes, the material changes (unless
// materials are ignored), the index range breaks contiguity, or the
// item has absorbed maxCombine parts.
func fillCombined(items []DrawItem, cfg Config, obj *scene.Object, geo *scene.Geometry, objectIndex int32, maxCombine uint32) []DrawItem {
	di := DrawItem{
		GeometryIndex: obj.GeometryIndex,
		ObjectIndex:   objectIndex,
		ObjectOffset:  obj.UniquePartOffset,
		MaterialIndex: -1,
		MatrixIndex:   -1,
	}

	for p := range obj.Parts {
		part := &obj.Parts[p]
		mesh := &geo.Parts[p]

		if !part.Active {
			continue
		}

		materialSplit := di.MaterialIndex != part.MaterialIndex && !cfg.IgnoreMaterials

		// finish old, start new
		if di.MatrixIndex != part.MatrixIndex || materialSplit ||
			di.Range.End() != mesh.IndexSolid.ByteOffset ||
			uint32(di.PartCount) == maxCombine {
			items = appendItem(items, di)

			di.MatrixIndex = part.MatrixIndex
			di.MaterialIndex = part.MaterialIndex
			di.Range = scene.DrawRange{ByteOffset: mesh.IndexSolid.ByteOffset}
			di.PartIndex = int32(p)
			di.PartCount = 0
		}

		di.Range.Count += mesh.IndexSolid.Count
		di.PartCount++
	}

	return appendItem(items, di)
}

func fillIndividual(items []DrawItem, obj *scene.Object, geo *scene.Geometry, objectIndex int32) []DrawItem {
	for p := range obj.Parts {
		part := &obj.Parts[p]
		if !part.Active {
			continue
		}

		items = appendItem(items, DrawItem{
			GeometryIndex: obj.GeometryIndex,
			MatrixIndex:   part.MatrixIndex,
			MaterialIndex: part.MaterialIndex,
			PartIndex:     int32(p),
			PartCount:     1,
			Range:         geo.Parts[p].IndexSolid,
			ObjectIndex:   objectIndex,
			ObjectOffset:  obj.UniquePartOffset,
		})
	}
	return items
}
