package page

import (
	"image"
	"slices"

	uv "github.com/charmbracelet/ultraviolet"
)

// Event names dispatched to elements.
const (
	EventClick     = "click"
	EventMouseOver = "mouseover"
	EventMouseOut  = "mouseout"
)

const wheelStep = 3

// HandleEvent applies a terminal event to the page. It must run on the UI
// loop.
func (p *Page) HandleEvent(ev uv.Event) {
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		p.Resize(ev.Width, ev.Height)

	case uv.KeyPressEvent:
		switch {
		case ev.MatchString("down", "j"):
			p.ScrollBy(1)
		case ev.MatchString("up", "k"):
			p.ScrollBy(-1)
		case ev.MatchString("pgdown", "space"):
			p.ScrollBy(p.height)
		case ev.MatchString("pgup"):
			p.ScrollBy(-p.height)
		case ev.MatchString("home", "g"):
			p.ScrollTo(0)
		case ev.MatchString("end", "G"):
			p.ScrollTo(p.maxScroll())
		default:
			for i, id := range sectionIDs {
				if ev.MatchString(string(rune('1' + i))) {
					p.ScrollToSection(id)
				}
			}
		}

	case uv.MouseMotionEvent:
		p.MouseMove(ev.X, ev.Y)

	case uv.MouseClickEvent:
		p.Click(ev.X, ev.Y)

	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			p.ScrollBy(-wheelStep)
		case uv.MouseWheelDown:
			p.ScrollBy(wheelStep)
		}
	}
}

// ScrollToSection smoothly scrolls to the section with id.
func (p *Page) ScrollToSection(id string) {
	if e := p.GetElementByID(id); e != nil {
		p.ScrollIntoView(e)
	}
}

// hitPath returns the elements under viewport cell (x, y), outermost
// first. Fixed elements take precedence over the document flow.
func (p *Page) hitPath(x, y int) []*Element {
	pt := image.Pt(x, y)
	var fixed, flow []*Element
	p.root.walk(func(e *Element) bool {
		if e == p.root {
			return true
		}
		if e.ID == cursorID || e.Style.GetPropertyValue("display") == "none" {
			return false
		}
		if !pt.In(p.viewRect(e)) {
			return true
		}
		if e.isFixed() {
			fixed = append(fixed, e)
		} else {
			flow = append(flow, e)
		}
		return true
	})
	if len(fixed) > 0 {
		return fixed
	}
	return flow
}

// MouseMove moves the pointer, updating hover state.
func (p *Page) MouseMove(x, y int) {
	for _, fn := range p.mouseMove {
		fn(x, y)
	}

	path := p.hitPath(x, y)
	for _, e := range p.hovered {
		if !slices.Contains(path, e) {
			e.Dispatch(EventMouseOut)
		}
	}
	for _, e := range path {
		if !slices.Contains(p.hovered, e) {
			e.Dispatch(EventMouseOver)
		}
	}
	p.hovered = path
}

// Click dispatches a click at (x, y) to the innermost element and its
// ancestors.
func (p *Page) Click(x, y int) {
	path := p.hitPath(x, y)
	for _, e := range slices.Backward(path) {
		e.Dispatch(EventClick)
	}
}
