package render

import (
	"slices"

	"github.com/taigrr/moon/pkg/math3d"
)

// Object is anything that can be placed in a Scene.
type Object interface {
	sceneObject()
}

// Scene is the root of the scene graph. It is flat: lights and meshes are
// direct children.
type Scene struct {
	children []Object
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{}
}

// Add appends objects to the scene. Objects already present are skipped.
func (s *Scene) Add(objs ...Object) {
	for _, o := range objs {
		if !s.Contains(o) {
			s.children = append(s.children, o)
		}
	}
}

// Remove detaches obj and reports whether it was present.
func (s *Scene) Remove(obj Object) bool {
	i := slices.Index(s.children, obj)
	if i < 0 {
		return false
	}
	s.children = slices.Delete(s.children, i, i+1)
	return true
}

// Contains reports whether obj is a child of the scene.
func (s *Scene) Contains(obj Object) bool {
	return slices.Contains(s.children, obj)
}

// Children returns a copy of the scene's children in insertion order.
func (s *Scene) Children() []Object {
	return slices.Clone(s.children)
}

// Geometry is mesh data that owns releasable storage.
type Geometry interface {
	MeshRenderer
	Dispose()
}

// Mesh places geometry with a material in the scene.
type Mesh struct {
	Geometry Geometry
	Material *StandardMaterial
	Position math3d.Vec3
	Rotation math3d.Euler
	Visible  bool
}

// NewMesh creates a visible mesh at the origin.
func NewMesh(g Geometry, m *StandardMaterial) *Mesh {
	return &Mesh{Geometry: g, Material: m, Visible: true}
}

// ModelMatrix returns the mesh's local-to-world transform.
func (m *Mesh) ModelMatrix() math3d.Mat4 {
	return math3d.Translate(m.Position).Mul(m.Rotation.Matrix())
}

func (*Mesh) sceneObject() {}

// AmbientLight lights every surface equally.
type AmbientLight struct {
	Color     Color
	Intensity float64
}

// NewAmbientLight creates an ambient light.
func NewAmbientLight(c Color, intensity float64) *AmbientLight {
	return &AmbientLight{Color: c, Intensity: intensity}
}

func (*AmbientLight) sceneObject() {}

// DirectionalLight shines from Position toward the origin.
type DirectionalLight struct {
	Color     Color
	Intensity float64
	Position  math3d.Vec3
}

// NewDirectionalLight creates a directional light placed at pos.
func NewDirectionalLight(c Color, intensity float64, pos math3d.Vec3) *DirectionalLight {
	return &DirectionalLight{Color: c, Intensity: intensity, Position: pos}
}

// Direction returns the unit vector pointing from surfaces toward the light.
func (l *DirectionalLight) Direction() math3d.Vec3 {
	return l.Position.Normalize()
}

func (*DirectionalLight) sceneObject() {}
