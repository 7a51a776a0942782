package page

import (
	"image"
	"image/color"
	"strings"

	uv "github.com/charmbracelet/ultraviolet"
	"golang.org/x/image/draw"
)

// Drawer is a foreign node that paints itself, such as the moon's render
// surface.
type Drawer interface {
	Draw(scr uv.Screen, area uv.Rectangle)
}

var (
	colorBackground = color.RGBA{8, 8, 16, 255}
	colorText       = color.RGBA{220, 220, 230, 255}
	colorMuted      = color.RGBA{130, 130, 150, 255}
	colorNav        = color.RGBA{20, 20, 34, 255}
	colorButton     = color.RGBA{40, 40, 64, 255}
	colorAccent     = color.RGBA{240, 230, 200, 255}
)

type scaledKey struct {
	loc  string
	w, h int
}

// clipScreen drops cells outside area.
type clipScreen struct {
	uv.Screen
	area uv.Rectangle
}

func (c clipScreen) SetCell(x, y int, cell *uv.Cell) {
	if image.Pt(x, y).In(c.area) {
		c.Screen.SetCell(x, y, cell)
	}
}

// circleScreen drops cells whose center lies outside a circle given in
// pixels (one pixel per column, two per row).
type circleScreen struct {
	uv.Screen
	cx, cy, r float64
}

func (c circleScreen) SetCell(x, y int, cell *uv.Cell) {
	dx := float64(x) + 0.5 - c.cx
	dy := float64(2*y+1) - c.cy
	if dx*dx+dy*dy <= c.r*c.r {
		c.Screen.SetCell(x, y, cell)
	}
}

// Draw paints the viewport onto scr.
func (p *Page) Draw(scr uv.Screen) {
	p.layout()
	view := uv.Rect(0, 0, p.width, p.height)
	clip := clipScreen{Screen: scr, area: view}

	bg := uv.Style{Fg: colorText, Bg: colorBackground}
	for y := range p.height {
		for x := range p.width {
			clip.SetCell(x, y, &uv.Cell{Content: " ", Width: 1, Style: bg})
		}
	}

	p.root.walk(func(e *Element) bool {
		if e.Style.GetPropertyValue("display") == "none" {
			return false
		}
		if e.isFixed() {
			return true
		}
		r := p.viewRect(e)
		if !r.Overlaps(view) {
			return true
		}
		p.drawElement(clip, e, r)
		return true
	})

	p.drawNav(clip)
	p.drawCursor(clip)
}

func (p *Page) drawElement(scr uv.Screen, e *Element, r uv.Rectangle) {
	if loc := backgroundURL(e.Style.GetPropertyValue("background-image")); loc != "" {
		p.drawImage(scr, loc, r)
	}
	if e.Tag == "img" && e.Src != "" {
		p.drawImage(scr, e.Src, r)
	}

	switch {
	case e.HasClass("intro"):
		drawTextCentered(scr, r, r.Min.Y+r.Dy()/2, e.Text, uv.Style{Fg: colorAccent, Bg: colorBackground})
		drawTextCentered(scr, r, r.Min.Y+r.Dy()/2+2, "1-4 jump · wheel/arrows scroll · q quit", uv.Style{Fg: colorMuted, Bg: colorBackground})
	case e.HasClass("project"):
		drawTextCentered(scr, r, r.Max.Y-1, e.Text, uv.Style{Fg: colorText, Bg: colorBackground})
	case e.HasClass("contact-btn"):
		st := uv.Style{Fg: colorText, Bg: colorButton}
		if e.HasClass("hover-effect") {
			st = uv.Style{Fg: colorButton, Bg: colorAccent}
		}
		fillRect(scr, r, st)
		drawTextCentered(scr, r, r.Min.Y+r.Dy()/2, e.Text, st)
	}

	for _, c := range e.children {
		d, ok := c.(Drawer)
		if !ok {
			continue
		}
		target := scr
		if e.HasClass("circle") {
			size := float64(p.moonSize())
			target = circleScreen{
				Screen: scr,
				cx:     float64(r.Min.X) + size/2,
				cy:     float64(2*r.Min.Y) + size/2,
				r:      size / 2,
			}
		}
		d.Draw(target, r)
	}
}

func (p *Page) drawNav(scr uv.Screen) {
	nav := p.Find(".nav")
	if nav == nil {
		return
	}
	fillRect(scr, nav.rect, uv.Style{Fg: colorText, Bg: colorNav})
	for _, link := range p.QuerySelectorAll(".nav-link") {
		st := uv.Style{Fg: colorText, Bg: colorNav}
		if p.currentSection() == strings.TrimPrefix(link.Href, "#") {
			st.Fg = colorAccent
		}
		drawText(scr, link.rect.Min.X, link.rect.Min.Y, link.Text, st)
	}
}

// currentSection returns the id of the section at the top of the viewport.
func (p *Page) currentSection() string {
	current := ""
	for _, id := range sectionIDs {
		if e := p.GetElementByID(id); e != nil && e.rect.Min.Y <= p.scrollY {
			current = id
		}
	}
	return current
}

func (p *Page) drawCursor(scr uv.Screen) {
	cur := p.GetElementByID(cursorID)
	if cur == nil || cur.Style.GetPropertyValue("display") != "block" {
		return
	}
	glyph := "○"
	if cur.HasClass("hover") {
		glyph = "●"
	}
	scr.SetCell(cur.rect.Min.X, cur.rect.Min.Y, &uv.Cell{
		Content: glyph,
		Width:   1,
		Style:   uv.Style{Fg: colorAccent},
	})
}

// drawImage paints the image at loc scaled to cover r, two pixels per cell.
func (p *Page) drawImage(scr uv.Screen, loc string, r uv.Rectangle) {
	img := p.scaledImage(loc, r.Dx(), r.Dy()*2)
	if img == nil {
		return
	}
	for row := range r.Dy() {
		for col := range r.Dx() {
			top := color.RGBAModel.Convert(img.At(col, row*2)).(color.RGBA)
			bot := color.RGBAModel.Convert(img.At(col, row*2+1)).(color.RGBA)
			scr.SetCell(r.Min.X+col, r.Min.Y+row, &uv.Cell{
				Content: "▀",
				Width:   1,
				Style:   uv.Style{Fg: top, Bg: bot},
			})
		}
	}
}

func (p *Page) scaledImage(loc string, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return nil
	}
	key := scaledKey{loc, w, h}
	if img, ok := p.scaled[key]; ok {
		return img
	}

	var src image.Image
	if p.opts.Images != nil {
		src, _ = p.opts.Images.Get(loc)
	}
	if src == nil {
		if !p.missing[loc] {
			p.missing[loc] = true
			p.log.Warn("image not loaded", "src", loc)
		}
		return nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	p.scaled[key] = dst
	return dst
}

func backgroundURL(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "url(") || !strings.HasSuffix(v, ")") {
		return ""
	}
	return strings.Trim(v[len("url("):len(v)-1], `"'`)
}

func fillRect(scr uv.Screen, r uv.Rectangle, st uv.Style) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			scr.SetCell(x, y, &uv.Cell{Content: " ", Width: 1, Style: st})
		}
	}
}

func drawText(scr uv.Screen, x, y int, s string, st uv.Style) {
	for i, r := range []rune(s) {
		scr.SetCell(x+i, y, &uv.Cell{Content: string(r), Width: 1, Style: st})
	}
}

func drawTextCentered(scr uv.Screen, r uv.Rectangle, y int, s string, st uv.Style) {
	n := len([]rune(s))
	drawText(scr, r.Min.X+max((r.Dx()-n)/2, 0), y, s, st)
}
