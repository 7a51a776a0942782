package moon

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/taigrr/moon/internal/dom"
	"github.com/taigrr/moon/pkg/render"
)

// events records host calls made during teardown, in order.
type events []string

func (e *events) add(s string) {
	if e != nil {
		*e = append(*e, s)
	}
}

type fakeElement struct {
	name     string
	children []dom.Node
	appends  int
	log      *events
}

func (e *fakeElement) NodeName() string { return e.name }

func (e *fakeElement) AppendChild(child dom.Node) {
	e.appends++
	e.children = append(e.children, child)
}

func (e *fakeElement) RemoveChild(child dom.Node) {
	disposed := false
	if r, ok := child.(*render.Renderer); ok {
		disposed = r.Disposed()
	}
	if disposed {
		e.log.add("removeChild(disposed surface)")
	} else {
		e.log.add("removeChild")
	}
	e.children = slices.DeleteFunc(e.children, func(n dom.Node) bool { return n == child })
}

func (e *fakeElement) Contains(child dom.Node) bool {
	return slices.Contains(e.children, child)
}

type fakeQuerier map[string]dom.Element

func (q fakeQuerier) QuerySelector(selector string) dom.Element {
	if e, ok := q[strings.TrimPrefix(selector, ".")]; ok {
		return e
	}
	return nil
}

type fakeObserver struct {
	cb           func([]dom.IntersectionEntry)
	opts         dom.IntersectionOptions
	targets      []dom.Element
	disconnected bool
	log          *events
}

func (o *fakeObserver) Observe(target dom.Element) {
	o.targets = append(o.targets, target)
}

func (o *fakeObserver) Disconnect() {
	o.log.add("disconnect")
	o.disconnected = true
}

// notify calls the callback even after Disconnect, like a stray queued
// notification would.
func (o *fakeObserver) notify(intersecting bool) {
	ratio := 0.0
	if intersecting {
		ratio = 1
	}
	o.cb([]dom.IntersectionEntry{{
		IntersectionRatio: ratio,
		IsIntersecting:    intersecting,
		Time:              time.Now(),
	}})
}

type fakeWindow struct {
	height         int
	dpr            float64
	listeners      map[dom.ListenerID]func()
	removed        []func()
	nextID         dom.ListenerID
	observers      []*fakeObserver
	panicOnObserve bool
	log            *events
}

func (w *fakeWindow) InnerHeight() int          { return w.height }
func (w *fakeWindow) DevicePixelRatio() float64 { return w.dpr }

func (w *fakeWindow) AddEventListener(event string, fn func()) dom.ListenerID {
	if w.listeners == nil {
		w.listeners = map[dom.ListenerID]func(){}
	}
	w.nextID++
	w.listeners[w.nextID] = fn
	return w.nextID
}

func (w *fakeWindow) RemoveEventListener(event string, id dom.ListenerID) {
	w.log.add("removeListener")
	if fn, ok := w.listeners[id]; ok {
		w.removed = append(w.removed, fn)
		delete(w.listeners, id)
	}
}

func (w *fakeWindow) NewIntersectionObserver(cb func([]dom.IntersectionEntry), opts dom.IntersectionOptions) dom.IntersectionObserver {
	if w.panicOnObserve {
		panic("observer unavailable")
	}
	o := &fakeObserver{cb: cb, opts: opts, log: w.log}
	w.observers = append(w.observers, o)
	return o
}

func (w *fakeWindow) resize(height int) {
	w.height = height
	for _, id := range slices.Sorted(maps.Keys(w.listeners)) {
		w.listeners[id]()
	}
}

type fakeStyle struct {
	props map[string]string
	sets  int
}

func (s *fakeStyle) SetProperty(name, value string) {
	if s.props == nil {
		s.props = map[string]string{}
	}
	s.sets++
	s.props[name] = value
}

func (s *fakeStyle) GetPropertyValue(name string) string { return s.props[name] }

type fakeDocument struct{ style fakeStyle }

func (d *fakeDocument) RootStyle() dom.Style { return &d.style }

// fakeScheduler runs frames and timers only when the test asks.
type fakeScheduler struct {
	nextID int
	frames map[int]func()
	timers map[int]func()
	log    *events
}

func newFakeScheduler(log *events) *fakeScheduler {
	return &fakeScheduler{frames: map[int]func(){}, timers: map[int]func(){}, log: log}
}

func (s *fakeScheduler) RequestAnimationFrame(fn func()) int {
	s.nextID++
	s.frames[s.nextID] = fn
	return s.nextID
}

func (s *fakeScheduler) CancelAnimationFrame(id int) {
	s.log.add("cancelFrame")
	delete(s.frames, id)
}

func (s *fakeScheduler) SetTimeout(fn func(), d time.Duration) int {
	s.nextID++
	s.timers[s.nextID] = fn
	return s.nextID
}

func (s *fakeScheduler) ClearTimeout(id int) {
	delete(s.timers, id)
}

// frame runs every pending frame callback once.
func (s *fakeScheduler) frame() {
	pending := s.frames
	s.frames = map[int]func(){}
	for _, id := range slices.Sorted(maps.Keys(pending)) {
		pending[id]()
	}
}

// elapse fires every pending timer.
func (s *fakeScheduler) elapse() {
	pending := s.timers
	s.timers = map[int]func(){}
	for _, id := range slices.Sorted(maps.Keys(pending)) {
		pending[id]()
	}
}

type fakeLoader struct {
	calls int
	url   string
	ctx   context.Context
	done  func(TextureResult)
}

func (l *fakeLoader) Load(ctx context.Context, url string, done func(TextureResult)) {
	l.calls++
	l.ctx, l.url, l.done = ctx, url, done
}

// harness wires an Instance to fakes.
type harness struct {
	log    events
	bg     *fakeElement
	area   *fakeElement
	mount  *fakeElement
	win    *fakeWindow
	doc    *fakeDocument
	sched  *fakeScheduler
	loader *fakeLoader
}

func newHarness() *harness {
	h := &harness{}
	h.bg = &fakeElement{name: "section", log: &h.log}
	h.area = &fakeElement{name: "div", log: &h.log}
	h.mount = &fakeElement{name: "div", log: &h.log}
	h.win = &fakeWindow{height: 400, dpr: 1, log: &h.log}
	h.doc = &fakeDocument{}
	h.sched = newFakeScheduler(&h.log)
	h.loader = &fakeLoader{}
	return h
}

func (h *harness) mounts() Mounts {
	return MountsFrom(fakeQuerier{
		ClassBackground: h.bg,
		ClassArea:       h.area,
		ClassMount:      h.mount,
	})
}

func (h *harness) env() Env {
	return Env{
		Window:    h.win,
		Document:  h.doc,
		Scheduler: h.sched,
		Textures:  h.loader,
		Logger:    discardLogger(),
	}
}

func (h *harness) start(t interface{ Fatal(...any) }) *Instance {
	inst := Start(h.mounts(), h.env())
	if inst == nil {
		t.Fatal("Start returned nil with every mount present")
	}
	return inst
}

func (h *harness) observer() *fakeObserver {
	return h.win.observers[len(h.win.observers)-1]
}

func testTexture() *render.Texture {
	tex := render.NewTexture(2, 2)
	for i := range tex.Pixels {
		tex.Pixels[i] = render.RGB(200, 200, 200)
	}
	return tex
}
