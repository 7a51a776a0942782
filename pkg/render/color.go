package render

import "image/color"

// Color is an alias for color.RGBA for convenience.
type Color = color.RGBA

// White is the default material color.
var White = Color{R: 255, G: 255, B: 255, A: 255}

// RGB creates an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// RGBA creates a color from RGBA values.
func RGBA(r, g, b, a uint8) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Hex creates an opaque color from a 0xRRGGBB value.
func Hex(v uint32) Color {
	return RGB(uint8(v>>16), uint8(v>>8), uint8(v))
}
