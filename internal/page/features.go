package page

import (
	"fmt"
	"strconv"
	"strings"

	uv "github.com/charmbracelet/ultraviolet"
)

const cursorID = "custom-cursor"

// InitializeNavigation makes every nav link smooth-scroll to its section.
func InitializeNavigation(p *Page) {
	for _, link := range p.QuerySelectorAll(".nav-link") {
		link.AddEventListener(EventClick, func() {
			if target := p.GetElementByID(strings.TrimPrefix(link.Href, "#")); target != nil {
				p.ScrollIntoView(target)
			}
		})
	}
}

// HoverEffect toggles the hover-effect class on contact buttons under the
// pointer.
func HoverEffect(p *Page) {
	for _, btn := range p.QuerySelectorAll(".contact-btn") {
		btn.AddEventListener(EventMouseOver, func() { btn.AddClass("hover-effect") })
		btn.AddEventListener(EventMouseOut, func() { btn.RemoveClass("hover-effect") })
	}
}

// SetBackground points the stars section and the footer moon at their
// images. Missing elements are skipped with a warning.
func SetBackground(p *Page, stars, footerMoon string) {
	for _, bg := range []struct{ sel, loc string }{
		{".base", stars},
		{".footer-moon", footerMoon},
	} {
		e := p.Find(bg.sel)
		if e == nil {
			p.log.Warn("background element not found", "selector", bg.sel)
			continue
		}
		e.Style.SetProperty("background-image", fmt.Sprintf("url(%s)", bg.loc))
	}
}

// InitializeCustomCursor shows a cursor glyph that follows the mouse and
// fills in over links and project cards. Without a cursor element the
// feature is disabled with a warning; without a mouse the cursor stays
// hidden.
func InitializeCustomCursor(p *Page) {
	cursor := p.GetElementByID(cursorID)
	if cursor == nil {
		p.log.Warn("circular cursor element not found")
		return
	}
	if !p.FinePointer() {
		cursor.Style.SetProperty("display", "none")
		return
	}

	cursor.Style.SetProperty("display", "block")
	move := func(x, y int) {
		cursor.Style.SetProperty("left", strconv.Itoa(x)+"px")
		cursor.Style.SetProperty("top", strconv.Itoa(y)+"px")
		cursor.rect = uv.Rect(x, y, 1, 1)
	}
	move(p.width/2, p.height/2)
	p.OnMouseMove(move)

	for _, e := range p.QuerySelectorAll("a, .load-content") {
		e.AddEventListener(EventMouseOver, func() { cursor.AddClass("hover") })
		e.AddEventListener(EventMouseOut, func() { cursor.RemoveClass("hover") })
	}
}
