package render

import (
	"errors"
	"image/color"
	"math"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/moon/pkg/math3d"
)

// ErrContextLost is the panic value of Render on a disposed Renderer.
var ErrContextLost = errors.New("render: context lost")

// RendererOptions configures a Renderer.
type RendererOptions struct {
	// Alpha keeps uncovered pixels transparent so the page shows through.
	// Without it the surface is cleared to ClearColor.
	Alpha      bool
	ClearColor Color
}

// Info counts the work a Renderer has issued.
type Info struct {
	Calls     int // Render calls since creation
	Triangles int // Triangles submitted by the last Render
}

// Renderer is the render surface: a framebuffer sized in logical pixels and
// scaled by the pixel ratio, plus the rasterizer that fills it.
type Renderer struct {
	opts       RendererOptions
	width      int
	height     int
	pixelRatio float64
	fb         *Framebuffer
	raster     *Rasterizer
	info       Info
	disposed   bool
}

// NewRenderer creates an unsized renderer with a pixel ratio of 1.
func NewRenderer(opts RendererOptions) *Renderer {
	fb := NewFramebuffer(0, 0)
	return &Renderer{
		opts:       opts,
		pixelRatio: 1,
		fb:         fb,
		raster:     NewRasterizer(nil, fb),
	}
}

// NodeName identifies the renderer's element when it is attached to a page.
func (r *Renderer) NodeName() string { return "canvas" }

// SetSize sets the logical size and reallocates the backing buffers.
func (r *Renderer) SetSize(width, height int) {
	r.width, r.height = max(0, width), max(0, height)
	r.realloc()
}

// Size returns the logical size last passed to SetSize.
func (r *Renderer) Size() (width, height int) {
	return r.width, r.height
}

// SetPixelRatio sets how many framebuffer pixels back one logical pixel.
func (r *Renderer) SetPixelRatio(ratio float64) {
	if ratio <= 0 {
		ratio = 1
	}
	r.pixelRatio = ratio
	r.realloc()
}

// PixelRatio returns the current pixel ratio.
func (r *Renderer) PixelRatio() float64 {
	return r.pixelRatio
}

// Framebuffer returns the backing framebuffer.
func (r *Renderer) Framebuffer() *Framebuffer {
	return r.fb
}

// Info returns the draw counters.
func (r *Renderer) Info() Info {
	return r.info
}

// Disposed reports whether Dispose has been called.
func (r *Renderer) Disposed() bool {
	return r.disposed
}

func (r *Renderer) realloc() {
	if r.disposed {
		return
	}
	w := int(math.Round(float64(r.width) * r.pixelRatio))
	h := int(math.Round(float64(r.height) * r.pixelRatio))
	if r.fb != nil && r.fb.Width == w && r.fb.Height == h {
		return
	}
	r.fb = NewFramebuffer(w, h)
	r.raster.SetTarget(r.fb)
}

// Dispose releases the framebuffer and depth buffer. Render panics with
// ErrContextLost afterwards. Safe to call twice.
func (r *Renderer) Dispose() {
	r.disposed = true
	r.fb = NewFramebuffer(0, 0)
	r.raster.SetTarget(nil)
}

// Render draws scene through camera. It counts as one draw call.
func (r *Renderer) Render(scene *Scene, camera *Camera) {
	if r.disposed {
		panic(ErrContextLost)
	}
	r.info.Calls++
	r.info.Triangles = 0

	if r.opts.Alpha {
		r.fb.Clear(Color{})
	} else {
		r.fb.Clear(r.opts.ClearColor)
	}
	r.raster.camera = camera
	r.raster.ClearDepth()

	objects := scene.Children()
	lights := collectLights(objects)
	for _, o := range objects {
		if m, ok := o.(*Mesh); ok && m.Visible {
			r.drawMesh(m, lights)
		}
	}
}

type lighting struct {
	ambient     float64
	directional []*DirectionalLight
}

func collectLights(objects []Object) lighting {
	var l lighting
	for _, o := range objects {
		switch light := o.(type) {
		case *AmbientLight:
			l.ambient += light.Intensity * luminance(light.Color)
		case *DirectionalLight:
			l.directional = append(l.directional, light)
		}
	}
	return l
}

// irradiance returns the Lambert lighting factor for a world-space normal.
func (l lighting) irradiance(n math3d.Vec3) float64 {
	sum := l.ambient
	for _, d := range l.directional {
		sum += d.Intensity * luminance(d.Color) * math.Max(0, n.Dot(d.Direction()))
	}
	return sum / math.Pi
}

func luminance(c Color) float64 {
	return (float64(c.R) + float64(c.G) + float64(c.B)) / (3 * 255)
}

func (r *Renderer) drawMesh(m *Mesh, lights lighting) {
	if m.Geometry == nil || m.Material == nil {
		return
	}

	model := m.ModelMatrix()
	base := m.Material.BaseColor()
	diffuse := 1 - m.Material.Metalness
	tex := m.Material.Map
	if tex != nil && tex.Disposed() {
		tex = nil
	}

	for i := range m.Geometry.TriangleCount() {
		face := m.Geometry.GetFace(i)

		var tri Triangle
		for k := range 3 {
			pos, normal, uv := m.Geometry.GetVertex(face[k])
			wn := model.MulVec3Dir(normal).Normalize()
			tri.V[k] = Vertex{
				Position: model.MulVec3(pos),
				UV:       uv,
				Color:    base,
				Light:    diffuse * lights.irradiance(wn),
			}
		}
		r.raster.DrawTriangle(tri, tex)
		r.info.Triangles++
	}
}

// Draw presents the framebuffer on a terminal screen. Each cell covers one
// logical pixel horizontally and two vertically (▀ with fg = top, bg =
// bottom). Framebuffer pixels under a logical pixel are averaged, and cells
// whose pixels are both transparent are left untouched.
func (r *Renderer) Draw(scr uv.Screen, area uv.Rectangle) {
	if r.disposed {
		return
	}

	for row := area.Min.Y; row < area.Max.Y; row++ {
		top := (row - area.Min.Y) * 2
		if top >= r.height {
			break
		}
		for col := area.Min.X; col < area.Max.X; col++ {
			x := col - area.Min.X
			if x >= r.width {
				break
			}

			topColor := r.logicalPixel(x, top)
			botColor := r.logicalPixel(x, top+1)
			if topColor.A == 0 && botColor.A == 0 {
				continue
			}

			scr.SetCell(col, row, &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: rgbaToColor(topColor),
					Bg: rgbaToColor(botColor),
				},
			})
		}
	}
}

// logicalPixel box-filters the framebuffer pixels covering logical (x, y).
func (r *Renderer) logicalPixel(x, y int) Color {
	if y >= r.height {
		return Color{}
	}

	x0 := int(float64(x) * r.pixelRatio)
	y0 := int(float64(y) * r.pixelRatio)
	x1 := max(x0+1, int(float64(x+1)*r.pixelRatio))
	y1 := max(y0+1, int(float64(y+1)*r.pixelRatio))

	var sr, sg, sb, sa, n int
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			c := r.fb.GetPixel(px, py)
			sr += int(c.R)
			sg += int(c.G)
			sb += int(c.B)
			sa += int(c.A)
			n++
		}
	}
	return Color{R: uint8(sr / n), G: uint8(sg / n), B: uint8(sb / n), A: uint8(sa / n)}
}

// rgbaToColor converts Color to the color.Color the terminal expects.
func rgbaToColor(c Color) color.Color {
	if c.A == 0 {
		return nil // Transparent = no color
	}
	c.A = 255
	return c
}
