// Package page hosts a scrolling one-page site in the terminal. It provides
// the window, document and element model the moon mounts into, lays the
// sections out in cell coordinates and paints them with ultraviolet.
package page

import (
	"image"
	"log/slog"
	"slices"
	"strings"

	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/moon/internal/dom"
)

// ImageSource resolves an image location to a decoded image.
type ImageSource interface {
	Get(loc string) (image.Image, bool)
}

// Options configures a Page.
type Options struct {
	Width, Height int // terminal cells
	PixelRatio    float64
	FPS           int
	Scheduler     dom.Scheduler
	Images        ImageSource // optional
	ProjectImages []string    // img sources of the three project cards
	FinePointer   bool        // a mouse is available
	Logger        *slog.Logger
}

// Page is the document, its window, and the scroll state.
type Page struct {
	opts Options
	log  *slog.Logger

	width, height int
	scrollY       int

	root      *Element
	rootStyle Style

	listeners map[string][]listener
	nextID    dom.ListenerID
	mouseMove []func(x, y int)

	observers []*observer
	hovered   []*Element

	scroll  scroller
	scaled  map[scaledKey]image.Image
	missing map[string]bool
}

// New builds the page tree sized to the terminal.
func New(opts Options) *Page {
	if opts.PixelRatio <= 0 {
		opts.PixelRatio = 1
	}
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	p := &Page{
		opts:      opts,
		log:       log,
		width:     opts.Width,
		height:    opts.Height,
		listeners: make(map[string][]listener),
		scaled:    make(map[scaledKey]image.Image),
		missing:   make(map[string]bool),
		scroll:    scroller{spring: harmonica.NewSpring(harmonica.FPS(opts.FPS), 6.0, 1.0)},
	}
	p.root = buildTree(opts.ProjectImages)
	p.layout()
	return p
}

// Section ids, in page order.
var sectionIDs = []string{"intro", "about", "projects", "contact"}

func buildTree(projectImages []string) *Element {
	root := NewElement("html")

	nav := NewElement("nav", "nav")
	nav.fixed = true
	for _, id := range sectionIDs {
		link := NewElement("a", "nav-link")
		link.Href = "#" + id
		link.Text = strings.ToUpper(id[:1]) + id[1:]
		nav.AppendChild(link)
	}
	root.AppendChild(nav)

	intro := NewElement("section", "intro")
	intro.ID = "intro"
	intro.Text = "Hello, traveller. Scroll down to meet the moon."
	root.AppendChild(intro)

	about := NewElement("section", "about", "base")
	about.ID = "about"
	area := NewElement("div", "moon-area")
	area.AppendChild(NewElement("div", "circle"))
	about.AppendChild(area)
	root.AppendChild(about)

	projects := NewElement("section", "projects")
	projects.ID = "projects"
	for i, name := range []string{"Project One", "Project Two", "Project Three"} {
		card := NewElement("div", "project", "load-content")
		card.Text = name
		frame := NewElement("div", "project-image")
		img := NewElement("img")
		if i < len(projectImages) {
			img.Src = projectImages[i]
		}
		frame.AppendChild(img)
		card.AppendChild(frame)
		projects.AppendChild(card)
	}
	root.AppendChild(projects)

	contact := NewElement("section", "contact")
	contact.ID = "contact"
	for _, name := range []string{"Email", "GitHub", "LinkedIn"} {
		btn := NewElement("a", "contact-btn")
		btn.Text = name
		contact.AppendChild(btn)
	}
	root.AppendChild(contact)

	footer := NewElement("footer", "footer")
	footer.AppendChild(NewElement("div", "footer-moon"))
	root.AppendChild(footer)

	cursor := NewElement("div")
	cursor.ID = "custom-cursor"
	cursor.fixed = true
	cursor.Style.SetProperty("display", "none")
	root.AppendChild(cursor)

	return root
}

// Root returns the document root element.
func (p *Page) Root() *Element { return p.root }

// Size returns the viewport size in cells.
func (p *Page) Size() (width, height int) { return p.width, p.height }

// InnerHeight is the viewport height in pixels; each cell is two pixels
// tall.
func (p *Page) InnerHeight() int { return p.height * 2 }

// InnerWidth is the viewport width in pixels; each cell is one pixel wide.
func (p *Page) InnerWidth() int { return p.width }

// DevicePixelRatio returns the configured supersampling factor.
func (p *Page) DevicePixelRatio() float64 { return p.opts.PixelRatio }

// FinePointer reports whether a mouse drives the page.
func (p *Page) FinePointer() bool { return p.opts.FinePointer }

// RootStyle is the document root's style, home of custom properties.
func (p *Page) RootStyle() dom.Style { return &p.rootStyle }

// AddEventListener registers a window listener.
func (p *Page) AddEventListener(event string, fn func()) dom.ListenerID {
	p.nextID++
	p.listeners[event] = append(p.listeners[event], listener{id: p.nextID, fn: fn})
	return p.nextID
}

// RemoveEventListener unregisters a window listener.
func (p *Page) RemoveEventListener(event string, id dom.ListenerID) {
	ls := p.listeners[event]
	for i, l := range ls {
		if l.id == id {
			p.listeners[event] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// ListenerCount returns how many window listeners are registered for event.
func (p *Page) ListenerCount(event string) int {
	return len(p.listeners[event])
}

func (p *Page) dispatch(event string) {
	for _, l := range append([]listener(nil), p.listeners[event]...) {
		l.fn()
	}
}

// OnMouseMove registers fn for pointer movement in cell coordinates.
func (p *Page) OnMouseMove(fn func(x, y int)) {
	p.mouseMove = append(p.mouseMove, fn)
}

// QuerySelector returns the first element matching selector, or nil.
func (p *Page) QuerySelector(selector string) dom.Element {
	if e := p.Find(selector); e != nil {
		return e
	}
	return nil
}

// Find is QuerySelector returning the concrete element.
func (p *Page) Find(selector string) *Element {
	all := p.QuerySelectorAll(selector)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// QuerySelectorAll returns every element matching any of the
// comma-separated simple selectors, in document order.
func (p *Page) QuerySelectorAll(selector string) []*Element {
	var sels []string
	for _, s := range strings.Split(selector, ",") {
		if s = strings.TrimSpace(s); s != "" {
			sels = append(sels, s)
		}
	}

	var out []*Element
	p.root.walk(func(e *Element) bool {
		if slices.ContainsFunc(sels, e.matches) {
			out = append(out, e)
		}
		return true
	})
	return out
}

// GetElementByID returns the element with id, or nil.
func (p *Page) GetElementByID(id string) *Element {
	return p.Find("#" + id)
}

// Resize changes the viewport size and notifies resize listeners.
func (p *Page) Resize(width, height int) {
	p.width, p.height = width, height
	p.layout()
	p.setScroll(p.scrollY)
	p.dispatch(dom.EventResize)
	p.checkIntersections()
}

var _ interface {
	dom.Window
	dom.Document
	dom.Querier
} = (*Page)(nil)
