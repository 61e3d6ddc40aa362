package combine

import (
	"math"

	dmat "github.com/flywave/go3d/float64/mat4"

	"github.com/flywave/go3d/vec3"
)

// transformPoint applies the full affine transform to a position. The
// matrix is column-major, matching glTF node matrices.
func transformPoint(m *dmat.T, v vec3.T) vec3.T {
	x := float64(v[0])
	y := float64(v[1])
	z := float64(v[2])
	return vec3.T{
		float32(m[0][0]*x + m[1][0]*y + m[2][0]*z + m[3][0]),
		float32(m[0][1]*x + m[1][1]*y + m[2][1]*z + m[3][1]),
		float32(m[0][2]*x + m[1][2]*y + m[2][2]*z + m[3][2]),
	}
}

// normalMatrix is the inverse-transpose of the linear part of a world
// transform, stored row-major.
type normalMatrix [3][3]float64

// newNormalMatrix derives the matrix that keeps normals perpendicular
// under non-uniform scale. A singular linear part falls back to the
// linear part itself.
func newNormalMatrix(m *dmat.T) normalMatrix {
	// linear part, row-major
	var l [3][3]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			l[r][c] = m[c][r]
		}
	}

	det := l[0][0]*(l[1][1]*l[2][2]-l[1][2]*l[2][1]) -
		l[0][1]*(l[1][0]*l[2][2]-l[1][2]*l[2][0]) +
		l[0][2]*(l[1][0]*l[2][1]-l[1][1]*l[2][0])
	if math.Abs(det) < 1e-12 {
		return l
	}

	inv := 1 / det
	var adj [3][3]float64
	adj[0][0] = (l[1][1]*l[2][2] - l[1][2]*l[2][1]) * inv
	adj[0][1] = (l[0][2]*l[2][1] - l[0][1]*l[2][2]) * inv
	adj[0][2] = (l[0][1]*l[1][2] - l[0][2]*l[1][1]) * inv
	adj[1][0] = (l[1][2]*l[2][0] - l[1][0]*l[2][2]) * inv
	adj[1][1] = (l[0][0]*l[2][2] - l[0][2]*l[2][0]) * inv
	adj[1][2] = (l[0][2]*l[1][0] - l[0][0]*l[1][2]) * inv
	adj[2][0] = (l[1][0]*l[2][1] - l[1][1]*l[2][0]) * inv
	adj[2][1] = (l[0][1]*l[2][0] - l[0][0]*l[2][1]) * inv
	adj[2][2] = (l[0][0]*l[1][1] - l[0][1]*l[1][0]) * inv

	// transpose of the inverse
	var n normalMatrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			n[r][c] = adj[c][r]
		}
	}
	return n
}

// transformNormal applies the normal matrix and renormalizes. Degenerate
// results collapse to the +Z default.
func transformNormal(n *normalMatrix, v vec3.T) vec3.T {
	x := float64(v[0])
	y := float64(v[1])
	z := float64(v[2])
	ox := n[0][0]*x + n[0][1]*y + n[0][2]*z
	oy := n[1][0]*x + n[1][1]*y + n[1][2]*z
	oz := n[2][0]*x + n[2][1]*y + n[2][2]*z
	l := math.Sqrt(ox*ox + oy*oy + oz*oz)
	if l == 0 {
		return vec3.T{0, 0, 1}
	}
	return vec3.T{float32(ox / l), float32(oy / l), float32(oz / l)}
}
