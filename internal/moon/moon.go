// Package moon manages the lifecycle of the rotating moon: it builds the
// scene into a page mount point, loads the surface texture, drives a
// visibility-gated render loop, follows viewport resizes, and tears all of
// it down again.
package moon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/taigrr/moon/internal/dom"
	"github.com/taigrr/moon/pkg/math3d"
	"github.com/taigrr/moon/pkg/models"
	"github.com/taigrr/moon/pkg/render"
)

// Class names of the mount elements on the page.
const (
	ClassBackground = "base"
	ClassArea       = "moon-area"
	ClassMount      = "circle"
)

// SizeProperty is the root style property holding the render size, read by
// the page layout to size the circle mask.
const SizeProperty = "--moon-renderer-size"

// Body geometry and camera placement.
const (
	BodyRadius   = 3
	BodySegments = 64
	CameraZ      = 6
)

// InitialRotation presents the near side with a slight axial tilt.
var InitialRotation = math3d.Euler{X: 0.03489, Y: math.Pi, Z: 0}

// Mounts are the page elements the moon attaches to.
type Mounts struct {
	Background dom.Element
	Area       dom.Element // observed for visibility
	Mount      dom.Element // receives the render surface
}

// MountsFrom looks the mounts up by their class names.
func MountsFrom(q dom.Querier) Mounts {
	return Mounts{
		Background: q.QuerySelector("." + ClassBackground),
		Area:       q.QuerySelector("." + ClassArea),
		Mount:      q.QuerySelector("." + ClassMount),
	}
}

func (m Mounts) complete() bool {
	return m.Background != nil && m.Area != nil && m.Mount != nil
}

// TextureResult is the outcome of a texture load: exactly one of Texture
// and Err is set.
type TextureResult struct {
	Texture *render.Texture
	Err     error
}

// TextureLoader fetches textures asynchronously. done must be called
// exactly once, on the UI loop, unless ctx is cancelled first.
type TextureLoader interface {
	Load(ctx context.Context, url string, done func(TextureResult))
}

// Env is the host the moon runs in.
type Env struct {
	Window    dom.Window
	Document  dom.Document
	Scheduler dom.Scheduler
	Textures  TextureLoader
	Logger    *slog.Logger
}

// Config tunes an Instance.
type Config struct {
	TextureURL          string
	RotationSpeed       float64 // radians per frame around Y
	ResizeDebounce      time.Duration
	VisibilityThreshold float64
	MaxPixelRatio       float64
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{
		TextureURL:          "public/images/moon_texture.jpg",
		RotationSpeed:       0.0005,
		ResizeDebounce:      100 * time.Millisecond,
		VisibilityThreshold: 0.1,
		MaxPixelRatio:       2,
	}
}

// Option modifies the Config used by Start.
type Option func(*Config)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}

// WithTextureURL sets the texture to load.
func WithTextureURL(url string) Option {
	return func(c *Config) { c.TextureURL = url }
}

// WithRotationSpeed sets the per-frame rotation.
func WithRotationSpeed(rad float64) Option {
	return func(c *Config) { c.RotationSpeed = rad }
}

var errNoLoader = errors.New("moon: no texture loader")

// Instance is one running moon. All methods must be called on the UI loop.
type Instance struct {
	cfg    Config
	env    Env
	log    *slog.Logger
	mounts Mounts

	scene   *render.Scene
	camera  *render.Camera
	surface *render.Renderer
	body    *render.Mesh

	visible     bool
	state       LoopState
	frame       int // pending frame handle, 0 if none
	resizeTimer int // pending debounce timer, 0 if none
	closed      bool

	guard guard
}

// Start builds the moon into m and returns the running instance. If any
// mount is missing Start does nothing and returns nil.
func Start(m Mounts, env Env, opts ...Option) *Instance {
	if !m.complete() {
		return nil
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	log := env.Logger
	if log == nil {
		log = slog.Default()
	}

	inst := &Instance{cfg: cfg, env: env, log: log, mounts: m}
	inst.guard.log = log

	ok := false
	defer func() {
		if !ok {
			inst.Teardown()
		}
	}()

	inst.camera = render.NewPerspectiveCamera(60, 1, 0.1, 1000)
	inst.camera.SetPosition(math3d.V3(0, 0, CameraZ))

	inst.surface = render.NewRenderer(render.RendererOptions{Alpha: true})
	inst.guard.add(stageSurface, inst.surface.Dispose)
	inst.surface.SetPixelRatio(pixelRatio(env.Window.DevicePixelRatio(), cfg.MaxPixelRatio))

	inst.scene = render.NewScene()
	inst.scene.Add(
		render.NewAmbientLight(render.White, 0.8),
		render.NewDirectionalLight(render.White, 2.5, math3d.V3(25, 25, 25)),
		render.NewDirectionalLight(render.White, 1.5, math3d.V3(5, 0, 5)), // rim
	)

	inst.applySize()

	m.Mount.AppendChild(inst.surface)
	inst.guard.add(stageDetach, func() {
		if m.Mount.Contains(inst.surface) {
			m.Mount.RemoveChild(inst.surface)
		}
	})

	inst.observeResize()
	inst.observeVisibility()
	inst.guard.add(stageLoop, inst.stopLoop)

	inst.loadTexture(cfg.TextureURL)

	ok = true
	return inst
}

// Teardown releases everything Start and the loader acquired. It is safe
// to call more than once.
func (i *Instance) Teardown() {
	i.closed = true
	i.guard.release()
}

// Surface returns the render surface attached to the mount.
func (i *Instance) Surface() *render.Renderer { return i.surface }

// Scene returns the scene root.
func (i *Instance) Scene() *render.Scene { return i.scene }

// Camera returns the camera.
func (i *Instance) Camera() *render.Camera { return i.camera }

// Body returns the moon mesh, or nil before the texture load completes.
func (i *Instance) Body() *render.Mesh { return i.body }

// Visible reports the last observed visibility of the area element.
func (i *Instance) Visible() bool { return i.visible }

// State returns the render loop state.
func (i *Instance) State() LoopState { return i.state }

// Config returns the settings the instance runs with.
func (i *Instance) Config() Config { return i.cfg }

// NewBodyGeometry returns the moon's sphere.
func NewBodyGeometry() *models.Mesh {
	return models.NewSphere(BodyRadius, BodySegments, BodySegments)
}

func pixelRatio(dpr, limit float64) float64 {
	if dpr <= 0 {
		dpr = 1
	}
	if limit > 0 {
		dpr = min(dpr, limit)
	}
	return dpr
}

// applySize sizes the surface to the viewport height and publishes the
// size to the page.
func (i *Instance) applySize() {
	size := i.env.Window.InnerHeight()
	i.env.Document.RootStyle().SetProperty(SizeProperty, fmt.Sprintf("%dpx", size))
	i.surface.SetSize(size, size)
}
