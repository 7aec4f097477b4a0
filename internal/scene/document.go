package scene

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/cadbatch/pkg/math"
)

// Load failure taxonomy. Anything else (empty scenes, missing normals)
// is a valid input with a well-defined result.
var (
	// ErrDocumentInvalid marks a document that cannot be interpreted.
	ErrDocumentInvalid = errors.New("scene document invalid")

	// ErrNodesNotUnique marks a document whose producer did not
	// guarantee distinct node identities. The loader depends on every
	// node owning its transform.
	ErrNodesNotUnique = errors.New("scene document requires unique nodes")
)

// Document is an externally parsed scene description. It is the only
// input the loader consumes and needs to stay valid only for the
// duration of the Load call.
type Document struct {
	// UniqueNodes confirms no node aliasing at the document level.
	UniqueNodes bool `yaml:"unique_nodes"`

	Materials  []DocMaterial `yaml:"materials"`
	Geometries []DocGeometry `yaml:"geometries"`
	Nodes      []DocNode     `yaml:"nodes"`
}

// DocMaterial is a flat input color with alpha.
type DocMaterial struct {
	Name  string     `yaml:"name"`
	Color [4]float32 `yaml:"color,flow"`
}

// DocGeometry carries raw vertex data and the part partition of its
// solid index buffer.
type DocGeometry struct {
	Positions [][3]float32      `yaml:"positions,flow"`
	Normals   [][3]float32      `yaml:"normals,flow,omitempty"` // optional, synthesized when absent
	Indices   []uint32          `yaml:"indices,flow"`
	Parts     []DocGeometryPart `yaml:"parts"`
}

// DocGeometryPart gives the solid index count of one contiguous part.
// Parts partition the index buffer in order.
type DocGeometryPart struct {
	IndexCount uint32 `yaml:"index_count"`
}

// DocNode is one scene node. Geometry is -1 for skeleton-only nodes
// that contribute a transform but no renderable object.
type DocNode struct {
	WorldMatrix math.Mat4     `yaml:"world_matrix,flow"`
	Geometry    int           `yaml:"geometry"`
	Parts       []DocNodePart `yaml:"parts,omitempty"`
}

// DocNodePart assigns material and optional matrix override to the
// part with the same index in the referenced geometry.
type DocNodePart struct {
	Material int `yaml:"material"`
	// Node is the matrix-node override, -1 to inherit the object node.
	Node int `yaml:"node"`
}

// ReadDocument parses a YAML scene document from disk and validates
// its cross-references.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// validate checks the cross-references the loader depends on.
func (d *Document) validate() error {
	for gi := range d.Geometries {
		g := &d.Geometries[gi]
		if len(g.Indices)%3 != 0 {
			return fmt.Errorf("%w: geometry %d index count %d not a multiple of 3", ErrDocumentInvalid, gi, len(g.Indices))
		}
		if g.Normals != nil && len(g.Normals) != len(g.Positions) {
			return fmt.Errorf("%w: geometry %d has %d normals for %d positions", ErrDocumentInvalid, gi, len(g.Normals), len(g.Positions))
		}
		var total uint32
		for _, p := range g.Parts {
			if p.IndexCount%3 != 0 {
				return fmt.Errorf("%w: geometry %d part index count %d not a multiple of 3", ErrDocumentInvalid, gi, p.IndexCount)
			}
			total += p.IndexCount
		}
		if total != uint32(len(g.Indices)) {
			return fmt.Errorf("%w: geometry %d parts cover %d of %d indices", ErrDocumentInvalid, gi, total, len(g.Indices))
		}
		for _, idx := range g.Indices {
			if idx >= uint32(len(g.Positions)) {
				return fmt.Errorf("%w: geometry %d index %d out of range", ErrDocumentInvalid, gi, idx)
			}
		}
	}

	for ni := range d.Nodes {
		n := &d.Nodes[ni]
		if n.Geometry < 0 {
			continue
		}
		if n.Geometry >= len(d.Geometries) {
			return fmt.Errorf("%w: node %d references geometry %d of %d", ErrDocumentInvalid, ni, n.Geometry, len(d.Geometries))
		}
		if len(n.Parts) != len(d.Geometries[n.Geometry].Parts) {
			return fmt.Errorf("%w: node %d has %d parts, geometry %d has %d", ErrDocumentInvalid, ni, len(n.Parts), n.Geometry, len(d.Geometries[n.Geometry].Parts))
		}
		for pi, p := range n.Parts {
			if p.Material < 0 || p.Material >= len(d.Materials) {
				return fmt.Errorf("%w: node %d part %d references material %d of %d", ErrDocumentInvalid, ni, pi, p.Material, len(d.Materials))
			}
			if p.Node >= len(d.Nodes) {
				return fmt.Errorf("%w: node %d part %d references node %d of %d", ErrDocumentInvalid, ni, pi, p.Node, len(d.Nodes))
			}
		}
	}
	return nil
}
