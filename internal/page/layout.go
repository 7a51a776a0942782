package page

import (
	"image"
	"strconv"
	"strings"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/moon/internal/moon"
)

// moonSize returns the render size published by the moon, falling back to
// the viewport height before it has been set.
func (p *Page) moonSize() int {
	v := strings.TrimSpace(p.rootStyle.GetPropertyValue(moon.SizeProperty))
	if n, err := strconv.Atoi(strings.TrimSuffix(v, "px")); err == nil && n > 0 {
		return n
	}
	return p.InnerHeight()
}

// layout assigns every element its box. Sections stack vertically; the nav
// and cursor are fixed to the viewport.
func (p *Page) layout() {
	w, h := p.width, max(p.height, 1)
	y := 0

	stack := func(e *Element, rows int) uv.Rectangle {
		e.rect = uv.Rect(0, y, w, rows)
		y += rows
		return e.rect
	}

	if nav := p.Find(".nav"); nav != nil {
		nav.rect = uv.Rect(0, 0, w, 1)
		x := 2
		for _, link := range p.QuerySelectorAll(".nav-link") {
			link.rect = uv.Rect(x, 0, len(link.Text), 1)
			x += len(link.Text) + 3
		}
	}

	if intro := p.Find(".intro"); intro != nil {
		stack(intro, h)
	}

	if about := p.Find(".base"); about != nil {
		r := stack(about, h)
		if area := p.Find(".moon-area"); area != nil {
			area.rect = r
		}
		if circle := p.Find(".circle"); circle != nil {
			size := p.moonSize()
			cw, ch := size, (size+1)/2
			circle.rect = uv.Rect(r.Min.X+(w-cw)/2, r.Min.Y, cw, ch)
		}
	}

	if projects := p.Find(".projects"); projects != nil {
		r := stack(projects, max(h, 14))
		cards := p.QuerySelectorAll(".project")
		for i, card := range cards {
			cw := w / max(len(cards), 1)
			card.rect = uv.Rect(i*cw+1, r.Min.Y+2, max(cw-2, 1), r.Dy()-4)
			if frame := firstChild(card); frame != nil {
				frame.rect = uv.Rect(card.rect.Min.X, card.rect.Min.Y, card.rect.Dx(), max(card.rect.Dy()-2, 1))
				if img := firstChild(frame); img != nil {
					img.rect = frame.rect
				}
			}
		}
	}

	if contact := p.Find(".contact"); contact != nil {
		r := stack(contact, max(h/2, 6))
		btns := p.QuerySelectorAll(".contact-btn")
		total := 0
		for _, b := range btns {
			total += len(b.Text) + 6
		}
		x := max((w-total)/2, 0)
		for _, b := range btns {
			b.rect = uv.Rect(x+1, r.Min.Y+r.Dy()/2-1, len(b.Text)+4, 3)
			x += len(b.Text) + 6
		}
	}

	if footer := p.Find(".footer"); footer != nil {
		r := stack(footer, max(h/2, 8))
		if fm := p.Find(".footer-moon"); fm != nil {
			fm.rect = r
		}
	}

	p.root.rect = uv.Rect(0, 0, w, y)
}

func firstChild(e *Element) *Element {
	for _, c := range e.children {
		if ce, ok := c.(*Element); ok {
			return ce
		}
	}
	return nil
}

// DocumentHeight returns the laid-out page height in rows.
func (p *Page) DocumentHeight() int { return p.root.rect.Dy() }

// ScrollY returns the first document row shown in the viewport.
func (p *Page) ScrollY() int { return p.scrollY }

// viewRect converts an element box to viewport coordinates.
func (p *Page) viewRect(e *Element) uv.Rectangle {
	if e.isFixed() {
		return e.rect
	}
	return e.rect.Add(image.Pt(0, -p.scrollY))
}
