package render

// StandardMaterial is a Lambert-lit surface description. Roughness and
// Metalness follow the usual PBR meaning; the rasterizer has no specular
// term, so Metalness only darkens the diffuse response and Roughness is
// carried for callers.
type StandardMaterial struct {
	Map       *Texture // Diffuse map; nil means Color only
	Color     Color    // Base color; zero value means white
	Roughness float64
	Metalness float64

	disposed bool
}

// BaseColor returns the color that modulates the map.
func (m *StandardMaterial) BaseColor() Color {
	if m.Color == (Color{}) {
		return White
	}
	return m.Color
}

// Dispose releases the material and its map. Safe to call twice.
func (m *StandardMaterial) Dispose() {
	if m.Map != nil {
		m.Map.Dispose()
	}
	m.disposed = true
}

// Disposed reports whether Dispose has been called.
func (m *StandardMaterial) Disposed() bool {
	return m.disposed
}
