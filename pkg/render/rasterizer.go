// Package render is the software render surface behind the moon: a camera,
// a z-buffered triangle rasterizer, textures, a small scene graph and the
// Renderer that ties them to a framebuffer "canvas".
package render

import (
	"math"

	"github.com/taigrr/moon/pkg/math3d"
)

// Vertex is a world-space vertex with everything the rasterizer interpolates.
type Vertex struct {
	Position math3d.Vec3 // World position
	UV       math3d.Vec2 // Texture coordinates
	Color    Color       // Base color (modulates the texture if one is bound)
	Light    float64     // Lighting factor computed per vertex (Gouraud)
}

// Triangle is a triangle to be rasterized.
type Triangle struct {
	V [3]Vertex
}

// MeshRenderer is the geometry interface the rasterizer draws from. It is
// declared here so render does not import models.
type MeshRenderer interface {
	VertexCount() int
	TriangleCount() int
	GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2)
	GetFace(i int) [3]int
}

// Rasterizer handles software triangle rasterization.
type Rasterizer struct {
	camera                 *Camera
	fb                     *Framebuffer
	zbuffer                []float64 // Depth buffer (row-major)
	DisableBackfaceCulling bool      // If true, render both sides of triangles
}

// NewRasterizer creates a rasterizer drawing into fb through camera.
func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{
		camera: camera,
		fb:     fb,
	}
	r.Resize()
	return r
}

// SetTarget swaps the framebuffer and resizes the depth buffer to match.
func (r *Rasterizer) SetTarget(fb *Framebuffer) {
	r.fb = fb
	r.Resize()
}

// Resize resizes the depth buffer to match the framebuffer.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.zbuffer = nil
		return
	}
	r.zbuffer = make([]float64, r.fb.Width*r.fb.Height)
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// ClearDepth clears the Z-buffer (call before each frame).
func (r *Rasterizer) ClearDepth() {
	// Use copy-doubling for faster clearing
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	r.zbuffer[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

func (r *Rasterizer) getDepth(x, y int) float64 {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return math.MaxFloat64
	}
	return r.zbuffer[y*r.Width()+x]
}

func (r *Rasterizer) setDepth(x, y int, z float64) {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return
	}
	r.zbuffer[y*r.Width()+x] = z
}

// screenVertex holds a vertex transformed to screen space.
type screenVertex struct {
	X, Y float64 // Screen coordinates
	Z    float64 // Depth (for Z-buffer)
	W    float64 // Clip W, for perspective-correct interpolation
}

// DrawTriangle rasterizes a Gouraud-lit triangle. When tex is non-nil the
// texture is sampled with perspective-correct UVs and modulated by the
// interpolated vertex color; otherwise the vertex colors are interpolated.
// Triangles wound counter-clockwise on screen are culled.
func (r *Rasterizer) DrawTriangle(tri Triangle, tex *Texture) {
	if r.Width() == 0 || r.Height() == 0 {
		return
	}

	var sv [3]screenVertex
	allBehind := true

	viewProj := r.camera.ViewProjectionMatrix()

	for i := range 3 {
		clipPos := viewProj.MulVec4(math3d.V4FromV3(tri.V[i].Position, 1))
		if clipPos.W > 0 {
			allBehind = false
		}

		ndc := clipPos.PerspectiveDivide()
		sv[i].X = (ndc.X + 1) * 0.5 * float64(r.Width())
		sv[i].Y = (1 - ndc.Y) * 0.5 * float64(r.Height()) // Y flipped
		sv[i].Z = ndc.Z
		sv[i].W = clipPos.W
	}

	if allBehind {
		return
	}

	// Backface culling (using screen-space winding)
	cross := (sv[1].X-sv[0].X)*(sv[2].Y-sv[0].Y) - (sv[1].Y-sv[0].Y)*(sv[2].X-sv[0].X)
	if cross < 0 && !r.DisableBackfaceCulling {
		return
	}

	minX := int(math.Max(0, math.Floor(min3(sv[0].X, sv[1].X, sv[2].X))))
	maxX := int(math.Min(float64(r.Width()-1), math.Ceil(max3(sv[0].X, sv[1].X, sv[2].X))))
	minY := int(math.Max(0, math.Floor(min3(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := int(math.Min(float64(r.Height()-1), math.Ceil(max3(sv[0].Y, sv[1].Y, sv[2].Y))))

	var invW [3]float64
	for i := range 3 {
		if sv[i].W != 0 {
			invW[i] = 1.0 / sv[i].W
		}
	}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5

			bc := barycentric(
				sv[0].X, sv[0].Y,
				sv[1].X, sv[1].Y,
				sv[2].X, sv[2].Y,
				px, py,
			)
			if bc.X < 0 || bc.Y < 0 || bc.Z < 0 {
				continue
			}

			z := bc.X*sv[0].Z + bc.Y*sv[1].Z + bc.Z*sv[2].Z
			if z >= r.getDepth(x, y) {
				continue
			}

			w0, w1, w2 := bc.X*invW[0], bc.Y*invW[1], bc.Z*invW[2]
			oneOverW := w0 + w1 + w2
			if oneOverW == 0 {
				continue
			}
			pc := math3d.V3(w0/oneOverW, w1/oneOverW, w2/oneOverW)

			light := pc.X*tri.V[0].Light + pc.Y*tri.V[1].Light + pc.Z*tri.V[2].Light
			base := interpolateColor3(tri.V[0].Color, tri.V[1].Color, tri.V[2].Color, pc)
			if tex != nil {
				u := pc.X*tri.V[0].UV.X + pc.Y*tri.V[1].UV.X + pc.Z*tri.V[2].UV.X
				v := pc.X*tri.V[0].UV.Y + pc.Y*tri.V[1].UV.Y + pc.Z*tri.V[2].UV.Y
				base = ModulateColor(tex.Sample(u, v), base)
			}

			r.setDepth(x, y, z)
			r.fb.SetPixel(x, y, MultiplyColor(base, light))
		}
	}
}

// barycentric calculates barycentric coordinates for point (px, py) in triangle.
func barycentric(x0, y0, x1, y1, x2, y2, px, py float64) math3d.Vec3 {
	v0x, v0y := x2-x0, y2-y0
	v1x, v1y := x1-x0, y1-y0
	v2x, v2y := px-x0, py-y0

	dot00 := v0x*v0x + v0y*v0y
	dot01 := v0x*v1x + v0y*v1y
	dot02 := v0x*v2x + v0y*v2y
	dot11 := v1x*v1x + v1y*v1y
	dot12 := v1x*v2x + v1y*v2y

	denom := dot00*dot11 - dot01*dot01
	if denom == 0 {
		// Degenerate triangle: report "outside".
		return math3d.V3(-1, -1, -1)
	}
	invDenom := 1.0 / denom
	u := (dot11*dot02 - dot01*dot12) * invDenom
	v := (dot00*dot12 - dot01*dot02) * invDenom

	return math3d.V3(1-u-v, v, u)
}

// interpolateColor3 interpolates between 3 colors using barycentric coords.
func interpolateColor3(c0, c1, c2 Color, bc math3d.Vec3) Color {
	ch := func(a, b, c uint8) uint8 {
		v := float64(a)*bc.X + float64(b)*bc.Y + float64(c)*bc.Z
		return uint8(math.Min(255, math.Round(v)))
	}
	return RGBA(ch(c0.R, c1.R, c2.R), ch(c0.G, c1.G, c2.G), ch(c0.B, c1.B, c2.B), ch(c0.A, c1.A, c2.A))
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}
