package models

import (
	"fmt"
	"math"

	"github.com/taigrr/moon/pkg/math3d"
)

// NewSphere builds a UV sphere centred on the origin.
//
// U runs around the Y axis and V from the north pole (V=1) to the south pole
// (V=0), so an equirectangular texture maps without distortion at the equator.
// Front faces are wound clockwise in view space, matching the rasterizer's
// back-face test.
func NewSphere(radius float64, widthSegments, heightSegments int) *Mesh {
	widthSegments = max(3, widthSegments)
	heightSegments = max(2, heightSegments)

	mesh := NewMesh(fmt.Sprintf("sphere-%gr-%dx%d", radius, widthSegments, heightSegments))
	grid := make([][]int, heightSegments+1)

	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)

		// Pole vertices are shared by a fan of triangles; nudge their U to the
		// middle of the segment so the seam is not smeared.
		uOffset := 0.0
		switch iy {
		case 0:
			uOffset = 0.5 / float64(widthSegments)
		case heightSegments:
			uOffset = -0.5 / float64(widthSegments)
		}

		row := make([]int, widthSegments+1)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float64(ix) / float64(widthSegments)
			phi := u * 2 * math.Pi
			theta := v * math.Pi

			pos := math3d.V3(
				-radius*math.Cos(phi)*math.Sin(theta),
				radius*math.Cos(theta),
				radius*math.Sin(phi)*math.Sin(theta),
			)

			row[ix] = len(mesh.Vertices)
			mesh.Vertices = append(mesh.Vertices, MeshVertex{
				Position: pos,
				Normal:   pos.Normalize(),
				UV:       math3d.V2(u+uOffset, 1-v),
			})
		}
		grid[iy] = row
	}

	for iy := range heightSegments {
		for ix := range widthSegments {
			a := grid[iy][ix+1]
			b := grid[iy][ix]
			c := grid[iy+1][ix]
			d := grid[iy+1][ix+1]

			// The first and last rings collapse to a point; skip their
			// degenerate half of each quad.
			if iy != 0 {
				mesh.Faces = append(mesh.Faces, Face{V: [3]int{a, d, b}})
			}
			if iy != heightSegments-1 {
				mesh.Faces = append(mesh.Faces, Face{V: [3]int{b, d, c}})
			}
		}
	}

	mesh.CalculateBounds()
	return mesh
}
