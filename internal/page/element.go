package page

import (
	"maps"
	"slices"
	"strings"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/moon/internal/dom"
)

// Style is an element's inline style: a flat property map.
type Style struct {
	props map[string]string
}

// SetProperty sets name to value. An empty value removes the property.
func (s *Style) SetProperty(name, value string) {
	if value == "" {
		delete(s.props, name)
		return
	}
	if s.props == nil {
		s.props = make(map[string]string)
	}
	s.props[name] = value
}

// GetPropertyValue returns the value of name, or "".
func (s *Style) GetPropertyValue(name string) string {
	return s.props[name]
}

// Properties returns a copy of every set property.
func (s *Style) Properties() map[string]string {
	return maps.Clone(s.props)
}

type listener struct {
	id dom.ListenerID
	fn func()
}

// Element is a node of the page tree. Foreign nodes such as the moon's
// render surface can be appended as children too.
type Element struct {
	Tag   string
	ID    string
	Text  string
	Href  string // links: "#section"
	Src   string // images
	Style Style

	classes  []string
	parent   *Element
	children []dom.Node

	listeners map[string][]listener
	nextID    dom.ListenerID

	// rect is the laid-out box in document coordinates: columns across,
	// rows down from the top of the page.
	rect uv.Rectangle
	// fixed elements are positioned against the viewport, not the document.
	fixed bool
}

// NewElement creates a detached element.
func NewElement(tag string, classes ...string) *Element {
	return &Element{Tag: tag, classes: classes}
}

// NodeName returns the upper-case tag, as the DOM does.
func (e *Element) NodeName() string { return strings.ToUpper(e.Tag) }

// AppendChild moves child to the end of e's children.
func (e *Element) AppendChild(child dom.Node) {
	if c, ok := child.(*Element); ok {
		if c.parent != nil {
			c.parent.RemoveChild(c)
		}
		c.parent = e
	}
	e.children = append(e.children, child)
}

// RemoveChild detaches child if it is a direct child of e.
func (e *Element) RemoveChild(child dom.Node) {
	i := slices.Index(e.children, child)
	if i < 0 {
		return
	}
	e.children = slices.Delete(e.children, i, i+1)
	if c, ok := child.(*Element); ok {
		c.parent = nil
	}
}

// Contains reports whether n is e or one of its descendants.
func (e *Element) Contains(n dom.Node) bool {
	if n == dom.Node(e) {
		return true
	}
	for _, c := range e.children {
		if c == n {
			return true
		}
		if ce, ok := c.(*Element); ok && ce.Contains(n) {
			return true
		}
	}
	return false
}

// Children returns the direct children.
func (e *Element) Children() []dom.Node {
	return slices.Clone(e.children)
}

// Parent returns the parent element, or nil.
func (e *Element) Parent() *Element { return e.parent }

// AddClass adds class names not already present.
func (e *Element) AddClass(names ...string) {
	for _, n := range names {
		if !e.HasClass(n) {
			e.classes = append(e.classes, n)
		}
	}
}

// RemoveClass removes a class name.
func (e *Element) RemoveClass(name string) {
	e.classes = slices.DeleteFunc(e.classes, func(c string) bool { return c == name })
}

// HasClass reports whether e carries the class name.
func (e *Element) HasClass(name string) bool {
	return slices.Contains(e.classes, name)
}

// AddEventListener registers fn for event on this element.
func (e *Element) AddEventListener(event string, fn func()) dom.ListenerID {
	if e.listeners == nil {
		e.listeners = make(map[string][]listener)
	}
	e.nextID++
	e.listeners[event] = append(e.listeners[event], listener{id: e.nextID, fn: fn})
	return e.nextID
}

// RemoveEventListener unregisters a listener. Unknown ids are ignored.
func (e *Element) RemoveEventListener(event string, id dom.ListenerID) {
	e.listeners[event] = slices.DeleteFunc(e.listeners[event], func(l listener) bool { return l.id == id })
}

// Dispatch calls the element's listeners for event.
func (e *Element) Dispatch(event string) {
	for _, l := range slices.Clone(e.listeners[event]) {
		l.fn()
	}
}

// Rect returns the laid-out box in document coordinates.
func (e *Element) Rect() uv.Rectangle { return e.rect }

// matches reports whether e matches a simple selector.
func (e *Element) matches(sel string) bool {
	switch {
	case strings.HasPrefix(sel, "."):
		return e.HasClass(sel[1:])
	case strings.HasPrefix(sel, "#"):
		return e.ID == sel[1:]
	default:
		return e.Tag == sel
	}
}

// walk visits e and its element descendants depth first. Children are
// skipped when fn returns false.
func (e *Element) walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.children {
		if ce, ok := c.(*Element); ok {
			ce.walk(fn)
		}
	}
}

// isFixed reports whether e or an ancestor is fixed to the viewport.
func (e *Element) isFixed() bool {
	for x := e; x != nil; x = x.parent {
		if x.fixed {
			return true
		}
	}
	return false
}
