package render

import (
	"errors"
	"testing"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/moon/pkg/math3d"
	"github.com/taigrr/moon/pkg/models"
)

func moonScene() (*Scene, *Camera, *Mesh) {
	scene := NewScene()
	camera := NewPerspectiveCamera(60, 1, 0.1, 1000)
	camera.SetPosition(math3d.V3(0, 0, 6))

	body := NewMesh(models.NewSphere(3, 16, 16), &StandardMaterial{
		Color:     Hex(0xaaaaaa),
		Roughness: 0.8,
	})
	scene.Add(
		NewAmbientLight(White, 0.8),
		NewDirectionalLight(White, 2.5, math3d.V3(25, 25, 25)),
		body,
	)
	return scene, camera, body
}

func TestRendererRender(t *testing.T) {
	r := NewRenderer(RendererOptions{Alpha: true})
	r.SetSize(32, 32)
	scene, camera, _ := moonScene()

	r.Render(scene, camera)

	if got := r.Info().Calls; got != 1 {
		t.Errorf("Info().Calls = %d, want 1", got)
	}
	fb := r.Framebuffer()
	if c := fb.GetPixel(16, 16); c.A == 0 {
		t.Error("sphere center should be drawn")
	}
	if c := fb.GetPixel(0, 0); c.A != 0 {
		t.Errorf("corner should stay transparent, got %v", c)
	}
}

func TestRendererHiddenMesh(t *testing.T) {
	r := NewRenderer(RendererOptions{Alpha: true})
	r.SetSize(16, 16)
	scene, camera, body := moonScene()
	body.Visible = false

	r.Render(scene, camera)
	if c := r.Framebuffer().GetPixel(8, 8); c.A != 0 {
		t.Errorf("hidden mesh drawn: %v", c)
	}
	if got := r.Info().Triangles; got != 0 {
		t.Errorf("Triangles = %d, want 0", got)
	}
}

func TestRendererClearColor(t *testing.T) {
	bg := RGB(30, 30, 40)
	r := NewRenderer(RendererOptions{ClearColor: bg})
	r.SetSize(8, 8)
	r.Render(NewScene(), NewPerspectiveCamera(60, 1, 0.1, 100))

	if got := r.Framebuffer().GetPixel(0, 0); got != bg {
		t.Errorf("cleared pixel = %v, want %v", got, bg)
	}
}

func TestRendererSize(t *testing.T) {
	tests := []struct {
		name         string
		size         int
		ratio        float64
		wantW, wantH int
	}{
		{"ratio 1", 40, 1, 40, 40},
		{"ratio 2", 40, 2, 80, 80},
		{"fractional", 10, 1.5, 15, 15},
		{"invalid ratio", 10, 0, 10, 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRenderer(RendererOptions{Alpha: true})
			r.SetPixelRatio(tc.ratio)
			r.SetSize(tc.size, tc.size)

			if w, h := r.Size(); w != tc.size || h != tc.size {
				t.Errorf("Size() = %d,%d, want %d", w, h, tc.size)
			}
			fb := r.Framebuffer()
			if fb.Width != tc.wantW || fb.Height != tc.wantH {
				t.Errorf("framebuffer = %dx%d, want %dx%d", fb.Width, fb.Height, tc.wantW, tc.wantH)
			}
		})
	}
}

func TestRendererDispose(t *testing.T) {
	r := NewRenderer(RendererOptions{Alpha: true})
	r.SetSize(16, 16)
	r.Dispose()
	r.Dispose()

	if !r.Disposed() {
		t.Fatal("Disposed() = false")
	}
	if n := len(r.Framebuffer().Pixels); n != 0 {
		t.Errorf("framebuffer holds %d pixels after Dispose", n)
	}

	defer func() {
		err, _ := recover().(error)
		if !errors.Is(err, ErrContextLost) {
			t.Errorf("Render after Dispose panicked with %v, want ErrContextLost", err)
		}
	}()
	scene, camera, _ := moonScene()
	r.Render(scene, camera)
}

// recordScreen captures SetCell calls. Other Screen methods are unused.
type recordScreen struct {
	uv.Screen
	cells map[[2]int]*uv.Cell
}

func (s *recordScreen) SetCell(x, y int, c *uv.Cell) {
	s.cells[[2]int{x, y}] = c
}

func TestRendererDraw(t *testing.T) {
	r := NewRenderer(RendererOptions{Alpha: true})
	r.SetPixelRatio(2)
	r.SetSize(4, 4)

	fb := r.Framebuffer()
	red := RGB(255, 0, 0)
	// Logical pixel (1, 0) is framebuffer (2..3, 0..1).
	for y := range 2 {
		for x := 2; x < 4; x++ {
			fb.SetPixel(x, y, red)
		}
	}

	scr := &recordScreen{cells: map[[2]int]*uv.Cell{}}
	r.Draw(scr, uv.Rect(10, 5, 4, 2))

	if len(scr.cells) != 1 {
		t.Fatalf("drew %d cells, want 1", len(scr.cells))
	}
	cell, ok := scr.cells[[2]int{11, 5}]
	if !ok {
		t.Fatalf("cell (11,5) not drawn: %v", scr.cells)
	}
	if cell.Content != "▀" {
		t.Errorf("Content = %q", cell.Content)
	}
	if cell.Style.Fg != red {
		t.Errorf("Fg = %v, want %v", cell.Style.Fg, red)
	}
	if cell.Style.Bg != nil {
		t.Errorf("Bg = %v, want nil for transparent bottom", cell.Style.Bg)
	}
}
