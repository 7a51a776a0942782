package models

import (
	"errors"
	"fmt"
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ErrEmptyMesh is returned when exporting a mesh without geometry.
var ErrEmptyMesh = errors.New("mesh has no geometry")

// Document converts the mesh into a single-node glTF document with position,
// normal and texture coordinate attributes.
func Document(m *Mesh) (*gltf.Document, error) {
	if m.VertexCount() == 0 || m.TriangleCount() == 0 {
		return nil, ErrEmptyMesh
	}

	positions := make([][3]float32, len(m.Vertices))
	normals := make([][3]float32, len(m.Vertices))
	uvs := make([][2]float32, len(m.Vertices))
	for i, v := range m.Vertices {
		positions[i] = [3]float32{float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z)}
		normals[i] = [3]float32{float32(v.Normal.X), float32(v.Normal.Y), float32(v.Normal.Z)}
		// glTF puts V=0 at the top of the image.
		uvs[i] = [2]float32{float32(v.UV.X), float32(1 - v.UV.Y)}
	}

	// glTF front faces are counter-clockwise; flip ours back.
	indices := make([]uint32, 0, len(m.Faces)*3)
	for _, f := range m.Faces {
		indices = append(indices, uint32(f.V[0]), uint32(f.V[2]), uint32(f.V[1]))
	}

	doc := gltf.NewDocument()
	prim := &gltf.Primitive{
		Indices: gltf.Index(modeler.WriteIndices(doc, indices)),
		Attributes: map[string]int{
			gltf.POSITION:   modeler.WritePosition(doc, positions),
			gltf.NORMAL:     modeler.WriteNormal(doc, normals),
			gltf.TEXCOORD_0: modeler.WriteTextureCoord(doc, uvs),
		},
	}
	doc.Meshes = []*gltf.Mesh{{Name: m.Name, Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Name: m.Name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	return doc, nil
}

// WriteGLB encodes the mesh as binary glTF.
func WriteGLB(w io.Writer, m *Mesh) error {
	doc, err := Document(m)
	if err != nil {
		return err
	}

	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode glb: %w", err)
	}
	return nil
}
