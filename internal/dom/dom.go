// Package dom declares the page-host surface the moon renderer is mounted
// into. The terminal page in internal/page implements it; tests use fakes.
package dom

import "time"

// Node is anything that can be a child of an Element.
type Node interface {
	NodeName() string
}

// Element is a container node on the page.
type Element interface {
	Node
	AppendChild(child Node)
	RemoveChild(child Node)
	Contains(child Node) bool
}

// Querier locates elements by a simple selector: ".class", "#id" or a tag
// name. A missing element is returned as a nil interface.
type Querier interface {
	QuerySelector(selector string) Element
}

// ListenerID identifies a registered event listener.
type ListenerID int

// EventResize is dispatched by a Window whenever its size changes.
const EventResize = "resize"

// Window is the viewport hosting the page.
type Window interface {
	// InnerHeight is the viewport height in pixels.
	InnerHeight() int
	// DevicePixelRatio is the number of surface pixels per layout pixel.
	DevicePixelRatio() float64
	AddEventListener(event string, fn func()) ListenerID
	RemoveEventListener(event string, id ListenerID)
	NewIntersectionObserver(cb func([]IntersectionEntry), opts IntersectionOptions) IntersectionObserver
}

// Style is a mutable set of style properties.
type Style interface {
	SetProperty(name, value string)
	GetPropertyValue(name string) string
}

// Document is the page's document.
type Document interface {
	// RootStyle is the style of the document root, where custom
	// properties shared with the layout live.
	RootStyle() Style
}

// IntersectionEntry reports how much of an observed element is visible.
type IntersectionEntry struct {
	Target            Element
	IntersectionRatio float64
	IsIntersecting    bool
	Time              time.Time
}

// IntersectionOptions configures an IntersectionObserver.
type IntersectionOptions struct {
	// Threshold is the visible ratio at which IsIntersecting flips.
	Threshold float64
}

// IntersectionObserver reports visibility changes of observed elements.
type IntersectionObserver interface {
	Observe(target Element)
	Disconnect()
}

// Scheduler defers work onto the page's UI thread.
type Scheduler interface {
	RequestAnimationFrame(fn func()) int
	CancelAnimationFrame(id int)
	SetTimeout(fn func(), d time.Duration) int
	ClearTimeout(id int)
}

// Invalidator is implemented by schedulers that repaint only on demand.
// Frame callbacks that change what is on screen call Invalidate.
type Invalidator interface {
	Invalidate()
}

// Invalidate asks s to repaint if it supports on-demand painting.
func Invalidate(s Scheduler) {
	if inv, ok := s.(Invalidator); ok {
		inv.Invalidate()
	}
}
