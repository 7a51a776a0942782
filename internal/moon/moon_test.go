package moon

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/taigrr/moon/internal/dom"
	"github.com/taigrr/moon/internal/ui"
	"github.com/taigrr/moon/pkg/models"
	"github.com/taigrr/moon/pkg/render"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestStartMissingMount(t *testing.T) {
	tests := []struct {
		name string
		drop string
	}{
		{"no background", ClassBackground},
		{"no area", ClassArea},
		{"no mount", ClassMount},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			q := fakeQuerier{
				ClassBackground: h.bg,
				ClassArea:       h.area,
				ClassMount:      h.mount,
			}
			delete(q, tc.drop)

			if inst := Start(MountsFrom(q), h.env()); inst != nil {
				t.Fatal("Start returned an instance with a mount missing")
			}
			for _, e := range []*fakeElement{h.bg, h.area, h.mount} {
				if e.appends != 0 {
					t.Errorf("%d insertions into %s", e.appends, e.name)
				}
			}
			if h.doc.style.sets != 0 {
				t.Errorf("style written %d times", h.doc.style.sets)
			}
			if len(h.win.listeners) != 0 || len(h.win.observers) != 0 {
				t.Error("listeners registered")
			}
			if h.loader.calls != 0 {
				t.Error("texture requested")
			}
		})
	}
}

func TestStartBootstrap(t *testing.T) {
	h := newHarness()
	inst := h.start(t)

	if h.mount.appends != 1 || len(h.mount.children) != 1 {
		t.Fatalf("mount has %d appends, %d children; want 1", h.mount.appends, len(h.mount.children))
	}
	if h.mount.children[0] != inst.Surface() {
		t.Error("mount child is not the render surface")
	}
	if h.area.appends != 0 || h.bg.appends != 0 {
		t.Error("surface inserted outside the mount")
	}

	if got := h.doc.style.GetPropertyValue(SizeProperty); got != "400px" {
		t.Errorf("%s = %q, want 400px", SizeProperty, got)
	}
	if w, hh := inst.Surface().Size(); w != 400 || hh != 400 {
		t.Errorf("surface size = %dx%d, want 400x400", w, hh)
	}

	obs := h.observer()
	if len(obs.targets) != 1 || obs.targets[0] != h.area {
		t.Error("observer does not watch the area element")
	}
	if obs.opts.Threshold != 0.1 {
		t.Errorf("threshold = %v, want 0.1", obs.opts.Threshold)
	}
	if len(h.win.listeners) != 1 {
		t.Errorf("%d resize listeners, want 1", len(h.win.listeners))
	}

	if h.loader.calls != 1 || h.loader.url != DefaultConfig().TextureURL {
		t.Errorf("loader calls = %d url = %q", h.loader.calls, h.loader.url)
	}
	if inst.Body() != nil {
		t.Error("body exists before the texture load completed")
	}
	if inst.State() != LoopUnstarted {
		t.Errorf("state = %v, want unstarted", inst.State())
	}
	if len(h.sched.frames) != 0 {
		t.Error("frame scheduled before the body exists")
	}

	cam := inst.Camera()
	if cam.Position.Z != CameraZ || math.Abs(cam.FOV-math.Pi/3) > 1e-12 || cam.Near != 0.1 || cam.Far != 1000 {
		t.Errorf("camera = %+v", cam)
	}
}

func TestStartPixelRatio(t *testing.T) {
	tests := []struct {
		dpr, want float64
	}{
		{1, 1},
		{1.5, 1.5},
		{2, 2},
		{3, 2},
		{0, 1},
	}
	for _, tc := range tests {
		h := newHarness()
		h.win.dpr = tc.dpr
		inst := h.start(t)
		if got := inst.Surface().PixelRatio(); got != tc.want {
			t.Errorf("dpr %v: pixel ratio = %v, want %v", tc.dpr, got, tc.want)
		}
	}
}

func TestTextureLoaded(t *testing.T) {
	h := newHarness()
	inst := h.start(t)
	tex := testTexture()

	h.loader.done(TextureResult{Texture: tex})

	body := inst.Body()
	if body == nil {
		t.Fatal("body not created")
	}
	if body.Material.Map != tex {
		t.Error("material does not use the fetched texture")
	}
	if body.Material.Roughness != Roughness || body.Material.Metalness != Metalness {
		t.Errorf("material = %+v", body.Material)
	}
	if body.Rotation != InitialRotation {
		t.Errorf("rotation = %+v, want %+v", body.Rotation, InitialRotation)
	}
	if !inst.Scene().Contains(body) {
		t.Error("body not in scene")
	}
	if inst.State() != LoopScheduled || len(h.sched.frames) != 1 {
		t.Errorf("state = %v with %d frames, want scheduled with 1", inst.State(), len(h.sched.frames))
	}

	geo, ok := body.Geometry.(*models.Mesh)
	if !ok || geo.VertexCount() != (BodySegments+1)*(BodySegments+1) {
		t.Errorf("geometry = %T with %d vertices", body.Geometry, body.Geometry.VertexCount())
	}

	// A second completion must not create a second body or loop.
	late := testTexture()
	h.loader.done(TextureResult{Texture: late})
	if inst.Body() != body {
		t.Error("second completion replaced the body")
	}
	if !late.Disposed() {
		t.Error("second texture not released")
	}
	if len(h.sched.frames) != 1 {
		t.Errorf("%d frames pending after second completion, want 1", len(h.sched.frames))
	}
	bodies := 0
	for _, o := range inst.Scene().Children() {
		if _, ok := o.(*render.Mesh); ok {
			bodies++
		}
	}
	if bodies != 1 {
		t.Errorf("%d meshes in scene, want 1", bodies)
	}
}

func TestTextureFailed(t *testing.T) {
	var buf bytes.Buffer
	h := newHarness()
	env := h.env()
	env.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	inst := Start(h.mounts(), env)

	h.loader.done(TextureResult{Err: errors.New("404 not found")})

	body := inst.Body()
	if body == nil {
		t.Fatal("body not created on failure")
	}
	if body.Material.Map != nil {
		t.Error("fallback material has a map")
	}
	if body.Material.Color != render.Hex(FallbackColor) {
		t.Errorf("fallback color = %v", body.Material.Color)
	}
	if body.Material.Roughness != Roughness {
		t.Errorf("fallback roughness = %v", body.Material.Roughness)
	}
	if inst.State() != LoopScheduled || len(h.sched.frames) != 1 {
		t.Errorf("loop not started exactly once: state %v, %d frames", inst.State(), len(h.sched.frames))
	}
	if !strings.Contains(buf.String(), "404 not found") || !strings.Contains(buf.String(), "level=ERROR") {
		t.Errorf("failure not logged at error level: %q", buf.String())
	}
}

func TestNoTextureLoader(t *testing.T) {
	h := newHarness()
	env := h.env()
	env.Textures = nil
	inst := Start(h.mounts(), env)

	if inst.Body() == nil || inst.Body().Material.Map != nil {
		t.Error("missing loader should fall back to the flat material")
	}
}

func TestVisibilityGate(t *testing.T) {
	h := newHarness()
	inst := h.start(t)
	h.loader.done(TextureResult{Texture: testTexture()})
	body := inst.Body()

	for range 5 {
		h.sched.frame()
	}
	if calls := inst.Surface().Info().Calls; calls != 0 {
		t.Fatalf("%d draw calls while hidden", calls)
	}
	if body.Rotation.Y != InitialRotation.Y {
		t.Error("rotation advanced while hidden")
	}
	if len(h.sched.frames) != 1 {
		t.Errorf("%d frames pending, want 1", len(h.sched.frames))
	}

	h.observer().notify(true)
	if !inst.Visible() {
		t.Fatal("visibility not updated")
	}
	h.sched.frame()

	if calls := inst.Surface().Info().Calls; calls != 1 {
		t.Errorf("%d draw calls after becoming visible, want 1", calls)
	}
	if want := InitialRotation.Y + DefaultConfig().RotationSpeed; body.Rotation.Y != want {
		t.Errorf("rotation.Y = %v, want %v", body.Rotation.Y, want)
	}

	h.observer().notify(false)
	h.sched.frame()
	if calls := inst.Surface().Info().Calls; calls != 1 {
		t.Errorf("drew after hiding again: %d calls", calls)
	}
}

func TestVisibleBeforeBody(t *testing.T) {
	h := newHarness()
	inst := h.start(t)
	h.observer().notify(true)

	h.loader.done(TextureResult{Texture: testTexture()})
	// Body creation runs the first frame immediately.
	if calls := inst.Surface().Info().Calls; calls != 1 {
		t.Errorf("%d draw calls on body creation, want 1", calls)
	}
}

func TestResizeDebounce(t *testing.T) {
	h := newHarness()
	inst := h.start(t)
	setsAfterInit := h.doc.style.sets

	for i := range 10 {
		h.win.resize(300 + i*10)
	}
	if len(h.sched.timers) != 1 {
		t.Fatalf("%d debounce timers pending, want 1", len(h.sched.timers))
	}
	if h.doc.style.sets != setsAfterInit {
		t.Fatal("resize applied before the quiet period")
	}

	h.sched.elapse()

	if got := h.doc.style.sets - setsAfterInit; got != 1 {
		t.Errorf("%d resize actions, want 1", got)
	}
	if got := h.doc.style.GetPropertyValue(SizeProperty); got != "390px" {
		t.Errorf("%s = %q, want 390px", SizeProperty, got)
	}
	if w, hh := inst.Surface().Size(); w != 390 || hh != 390 {
		t.Errorf("surface size = %dx%d, want 390x390", w, hh)
	}
}

func TestTeardown(t *testing.T) {
	h := newHarness()
	inst := h.start(t)
	h.loader.done(TextureResult{Texture: testTexture()})
	h.observer().notify(true)
	h.sched.frame()

	body := inst.Body()
	geo := body.Geometry.(*models.Mesh)
	mat := body.Material
	surface := inst.Surface()
	calls := surface.Info().Calls

	var pending []func()
	for _, fn := range h.sched.frames {
		pending = append(pending, fn)
	}
	h.win.resize(500) // leaves a debounce timer pending
	h.log = nil

	inst.Teardown()

	want := []string{"removeListener", "disconnect", "cancelFrame", "removeChild"}
	if !slices.Equal(h.log, want) {
		t.Errorf("teardown order = %v, want %v", h.log, want)
	}
	if inst.State() != LoopStopped {
		t.Errorf("state = %v, want stopped", inst.State())
	}
	if len(h.sched.frames) != 0 || len(h.sched.timers) != 0 {
		t.Errorf("%d frames and %d timers left", len(h.sched.frames), len(h.sched.timers))
	}
	if len(h.mount.children) != 0 {
		t.Error("surface still attached")
	}
	if len(h.win.listeners) != 0 {
		t.Error("resize listener still registered")
	}
	if !h.observer().disconnected {
		t.Error("observer not disconnected")
	}
	if !geo.Disposed() || !mat.Disposed() || inst.Scene().Contains(body) {
		t.Error("body not released")
	}
	if !surface.Disposed() {
		t.Error("surface not disposed")
	}
	if h.loader.ctx.Err() == nil {
		t.Error("texture fetch not cancelled")
	}

	// A frame captured before teardown must not draw.
	for _, fn := range pending {
		fn()
	}
	if surface.Info().Calls != calls {
		t.Error("draw call after teardown")
	}

	// Stray events have no effect.
	for _, fn := range h.win.removed {
		fn()
	}
	h.observer().notify(false)
	if len(h.sched.timers) != 0 {
		t.Error("resize after teardown scheduled a timer")
	}
	if !inst.Visible() {
		t.Error("intersection after teardown changed visibility")
	}

	h.log = nil
	inst.Teardown()
	if len(h.log) != 0 {
		t.Errorf("second teardown did work: %v", h.log)
	}
}

func TestTeardownBeforeTexture(t *testing.T) {
	h := newHarness()
	inst := h.start(t)
	inst.Teardown()

	tex := testTexture()
	h.loader.done(TextureResult{Texture: tex})

	if inst.Body() != nil {
		t.Error("body created after teardown")
	}
	if !tex.Disposed() {
		t.Error("late texture not released")
	}
	if len(h.sched.frames) != 0 {
		t.Error("loop started after teardown")
	}
}

func TestStartPanicReleases(t *testing.T) {
	h := newHarness()
	h.win.panicOnObserve = true

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected bootstrap panic to propagate")
			}
		}()
		Start(h.mounts(), h.env())
	}()

	if h.mount.appends != 1 {
		t.Fatalf("surface appended %d times", h.mount.appends)
	}
	if len(h.mount.children) != 0 {
		t.Error("surface left attached after failed bootstrap")
	}
	if len(h.win.listeners) != 0 {
		t.Error("resize listener left registered after failed bootstrap")
	}
}

func TestStartWithUILoop(t *testing.T) {
	h := newHarness()
	loop := ui.NewLoop(ui.Options{FPS: 60, Logger: discardLogger()})
	env := h.env()
	env.Scheduler = loop

	inst := Start(h.mounts(), env, WithRotationSpeed(0.01))
	loop.Post(func() { h.loader.done(TextureResult{Texture: testTexture()}) })
	h.observer().notify(true)

	now := time.Now()
	for i := range 2 {
		loop.Step(now.Add(time.Duration(i) * time.Second))
	}

	// Body creation draws once, then each frame batch draws once.
	if calls := inst.Surface().Info().Calls; calls != 3 {
		t.Errorf("%d draw calls, want 3", calls)
	}
	if _, _, frames := loop.Pending(); frames != 1 {
		t.Errorf("%d frames pending, want 1", frames)
	}

	inst.Teardown()
	if _, timers, frames := loop.Pending(); frames != 0 || timers != 0 {
		t.Errorf("loop still holds %d frames, %d timers", frames, timers)
	}
}

func TestPaintOnlyAfterDraw(t *testing.T) {
	h := newHarness()
	loop := ui.NewLoop(ui.Options{FPS: 60, Logger: discardLogger()})
	paints := 0
	loop.OnPaint(func() { paints++ })

	env := h.env()
	env.Scheduler = loop
	env.Textures = nil
	inst := Start(h.mounts(), env)
	defer inst.Teardown()

	now := time.Now()
	for i := range 3 {
		loop.Step(now.Add(time.Duration(i) * time.Second))
	}
	if paints != 0 {
		t.Errorf("%d paints while hidden, want 0", paints)
	}

	h.observer().notify(true)
	loop.Step(now.Add(10 * time.Second))
	if paints != 1 {
		t.Errorf("%d paints after a visible frame, want 1", paints)
	}
}

var (
	_ dom.Scheduler   = (*ui.Loop)(nil)
	_ dom.Invalidator = (*ui.Loop)(nil)
)
