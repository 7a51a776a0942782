package page

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/moon/internal/dom"
)

// scroller animates the scroll offset toward a target with a spring.
type scroller struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
	target float64
	active bool
}

// maxScroll is the largest valid scroll offset.
func (p *Page) maxScroll() int {
	return max(p.DocumentHeight()-p.height, 0)
}

func (p *Page) setScroll(y int) {
	y = min(max(y, 0), p.maxScroll())
	if y == p.scrollY {
		return
	}
	p.scrollY = y
	dom.Invalidate(p.opts.Scheduler)
	p.checkIntersections()
}

// ScrollTo jumps to document row y, cancelling any smooth scroll.
func (p *Page) ScrollTo(y int) {
	p.scroll.active = false
	p.scroll.vel = 0
	p.setScroll(y)
	p.scroll.pos = float64(p.scrollY)
}

// ScrollBy scrolls by dy rows.
func (p *Page) ScrollBy(dy int) {
	p.ScrollTo(p.scrollY + dy)
}

// ScrollIntoView smoothly scrolls until e's top is at the top of the
// viewport.
func (p *Page) ScrollIntoView(e *Element) {
	target := min(max(e.rect.Min.Y, 0), p.maxScroll())
	p.scroll.target = float64(target)
	if p.scroll.active {
		return
	}
	p.scroll.active = true
	p.scroll.pos = float64(p.scrollY)
	if p.opts.Scheduler == nil {
		p.ScrollTo(target)
		return
	}
	p.opts.Scheduler.RequestAnimationFrame(p.stepScroll)
}

// Scrolling reports whether a smooth scroll is in progress.
func (p *Page) Scrolling() bool { return p.scroll.active }

func (p *Page) stepScroll() {
	if !p.scroll.active {
		return
	}
	s := &p.scroll
	s.pos, s.vel = s.spring.Update(s.pos, s.vel, s.target)

	if math.Abs(s.pos-s.target) < 0.5 && math.Abs(s.vel) < 0.5 {
		s.active = false
		s.pos, s.vel = s.target, 0
	}
	p.setScroll(int(math.Round(s.pos)))
	if s.active {
		p.opts.Scheduler.RequestAnimationFrame(p.stepScroll)
	}
}
