// genscene is a CLI utility that writes synthetic scene documents for
// exercising the loader and batching pipeline without CAD exports.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/cadbatch/internal/scene"
	"github.com/Faultbox/cadbatch/pkg/math"
)

func main() {
	out := flag.String("out", "scene.yaml", "output document path")
	boxes := flag.Int("boxes", 16, "number of box objects")
	materials := flag.Int("materials", 4, "number of materials")
	spacing := flag.Float64("spacing", 2.5, "grid spacing between boxes")
	seed := flag.Int64("seed", 1, "material color seed")
	flag.Parse()

	if *boxes < 1 || *materials < 1 {
		fmt.Fprintln(os.Stderr, "genscene: need at least one box and one material")
		os.Exit(1)
	}

	doc := buildDocument(*boxes, *materials, float32(*spacing), rand.New(rand.NewSource(*seed)))

	data, err := yaml.Marshal(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s: %d boxes, %d materials\n", *out, *boxes, *materials)
}

func buildDocument(boxes, materials int, spacing float32, rng *rand.Rand) *scene.Document {
	doc := &scene.Document{UniqueNodes: true}

	for m := 0; m < materials; m++ {
		color := [4]float32{
			0.2 + 0.8*rng.Float32(),
			0.2 + 0.8*rng.Float32(),
			0.2 + 0.8*rng.Float32(),
			1.0,
		}
		// Every fourth material is translucent so generated scenes
		// exercise the solid-part filter.
		if m%4 == 3 {
			color[3] = 0.5
		}
		doc.Materials = append(doc.Materials, scene.DocMaterial{
			Name:  fmt.Sprintf("material_%02d", m),
			Color: color,
		})
	}

	doc.Geometries = []scene.DocGeometry{boxGeometry()}

	// Lay boxes out on a square grid, cycling materials so adjacent
	// boxes differ.
	side := 1
	for side*side < boxes {
		side++
	}
	for b := 0; b < boxes; b++ {
		x := float32(b%side) * spacing
		z := float32(b/side) * spacing
		doc.Nodes = append(doc.Nodes, scene.DocNode{
			WorldMatrix: math.Translate(x, 0, z),
			Geometry:    0,
			Parts: []scene.DocNodePart{
				{Material: b % materials, Node: -1},
				{Material: (b + 1) % materials, Node: -1},
			},
		})
	}

	return doc
}

// boxGeometry returns a unit cube centered on the origin with two
// parts: the four side faces and the top and bottom faces. Centering
// keeps the synthesized vertex normals well defined.
func boxGeometry() scene.DocGeometry {
	const h = 0.5
	positions := [][3]float32{
		{-h, -h, -h}, {h, -h, -h}, {h, h, -h}, {-h, h, -h},
		{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h},
	}

	sides := []uint32{
		0, 1, 2, 0, 2, 3, // -z
		5, 4, 7, 5, 7, 6, // +z
		4, 0, 3, 4, 3, 7, // -x
		1, 5, 6, 1, 6, 2, // +x
	}
	caps := []uint32{
		3, 2, 6, 3, 6, 7, // +y
		4, 5, 1, 4, 1, 0, // -y
	}

	return scene.DocGeometry{
		Positions: positions,
		Indices:   append(append([]uint32(nil), sides...), caps...),
		Parts: []scene.DocGeometryPart{
			{IndexCount: uint32(len(sides))},
			{IndexCount: uint32(len(caps))},
		},
	}
}
