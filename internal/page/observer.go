package page

import (
	"slices"
	"time"

	"github.com/taigrr/moon/internal/dom"
)

type observed struct {
	el    *Element
	state int // -1 not yet reported, 0 outside, 1 intersecting
}

// observer reports when the visible share of its targets crosses the
// threshold. Every target gets one initial report after Observe.
type observer struct {
	p         *Page
	cb        func([]dom.IntersectionEntry)
	threshold float64
	targets   []*observed
}

// NewIntersectionObserver creates an observer evaluated after every layout
// or scroll change.
func (p *Page) NewIntersectionObserver(cb func([]dom.IntersectionEntry), opts dom.IntersectionOptions) dom.IntersectionObserver {
	o := &observer{p: p, cb: cb, threshold: opts.Threshold}
	p.observers = append(p.observers, o)
	return o
}

// Observe starts watching target. Elements from other documents are
// ignored.
func (o *observer) Observe(target dom.Element) {
	el, ok := target.(*Element)
	if !ok || !slices.Contains(o.p.observers, o) {
		return
	}
	o.targets = append(o.targets, &observed{el: el, state: -1})
	if o.p.opts.Scheduler != nil {
		o.p.opts.Scheduler.SetTimeout(o.p.checkIntersections, 0)
	} else {
		o.p.checkIntersections()
	}
}

// Disconnect stops all reporting.
func (o *observer) Disconnect() {
	o.targets = nil
	o.p.observers = slices.DeleteFunc(o.p.observers, func(x *observer) bool { return x == o })
}

// ObserverCount returns the number of connected observers.
func (p *Page) ObserverCount() int { return len(p.observers) }

// intersection returns the share of e's rows inside the viewport.
func (p *Page) intersection(e *Element) float64 {
	r := p.viewRect(e)
	if r.Dy() <= 0 {
		return 0
	}
	top, bottom := max(r.Min.Y, 0), min(r.Max.Y, p.height)
	if bottom <= top {
		return 0
	}
	return float64(bottom-top) / float64(r.Dy())
}

func (o *observer) intersecting(ratio float64) bool {
	if o.threshold <= 0 {
		return ratio > 0
	}
	return ratio >= o.threshold
}

// checkIntersections reports targets whose state changed.
func (p *Page) checkIntersections() {
	now := time.Now()
	for _, o := range slices.Clone(p.observers) {
		var entries []dom.IntersectionEntry
		for _, t := range o.targets {
			ratio := p.intersection(t.el)
			in := o.intersecting(ratio)
			state := 0
			if in {
				state = 1
			}
			if state == t.state {
				continue
			}
			t.state = state
			entries = append(entries, dom.IntersectionEntry{
				Target:            t.el,
				IntersectionRatio: ratio,
				IsIntersecting:    in,
				Time:              now,
			})
		}
		if len(entries) > 0 {
			o.cb(entries)
		}
	}
}
