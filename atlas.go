package combine

import (
	"math"
	"sort"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// Atlas parameter defaults.
const (
	DefaultSplitAngleDeg = 30.0
	DefaultPackMargin    = 0.01
	DefaultAngleError    = 0.5
	DefaultAreaError     = 0.05
)

// AtlasConfig parameterizes secondary UV generation.
type AtlasConfig struct {
	// SplitAngleDeg is the face-normal angle above which a chart will
	// not grow across an edge.
	SplitAngleDeg float64 `yaml:"split_angle"`
	// PackMargin is the spacing between islands in atlas units.
	PackMargin float64 `yaml:"pack_margin"`
	// AngleError is the tolerated deviation (1 - cos) between a face
	// and the chart average before the face is rejected.
	AngleError float64 `yaml:"angle_error"`
	// AreaError is the tolerated projected-area shrinkage of a face on
	// the chart plane.
	AreaError float64 `yaml:"area_error"`
}

func DefaultAtlasConfig() AtlasConfig {
	return AtlasConfig{
		SplitAngleDeg: DefaultSplitAngleDeg,
		PackMargin:    DefaultPackMargin,
		AngleError:    DefaultAngleError,
		AreaError:     DefaultAreaError,
	}
}

// Unwrapper writes the lightmap UV channel of a mesh in place. It must
// not alter topology or the primary UV channel. Implementations are
// swappable so the pipeline can run with an external packer or a no-op.
type Unwrapper interface {
	Unwrap(mesh *Mesh, cfg AtlasConfig) error
}

// ChartUnwrapper is the built-in Unwrapper: it grows near-planar charts
// over the triangle graph, projects each chart onto its dominant plane
// and shelf-packs the islands into the unit square. Every vertex belongs
// to exactly one chart so the channel can be written without splitting
// vertices.
type ChartUnwrapper struct{}

type atlasChart struct {
	seed   vec3.T
	mean   vec3.T
	verts  []uint32
	min    vec2.T
	max    vec2.T
	// packed offset in atlas units
	offX float64
	offY float64
}

func (ChartUnwrapper) Unwrap(mesh *Mesh, cfg AtlasConfig) error {
	mesh.Lightmap = make([]vec2.T, len(mesh.Vertices))
	if len(mesh.Vertices) == 0 {
		return nil
	}

	minDot := math.Cos(cfg.SplitAngleDeg * math.Pi / 180)

	vertexChart := make([]int, len(mesh.Vertices))
	for i := range vertexChart {
		vertexChart[i] = -1
	}
	var charts []*atlasChart

	claim := func(ci int, v uint32) {
		if vertexChart[v] == -1 {
			vertexChart[v] = ci
			charts[ci].verts = append(charts[ci].verts, v)
		}
	}

	for _, sm := range mesh.Submeshes {
		for i := 0; i+2 < len(sm.Indices); i += 3 {
			a, b, c := sm.Indices[i], sm.Indices[i+1], sm.Indices[i+2]
			n := faceNormal(mesh, a, b, c)

			// a face joins the chart its vertices already live in when
			// the claimed vertices agree on one chart and the normal
			// fits; otherwise its unclaimed vertices seed a new chart
			target := -1
			agree := true
			for _, v := range [3]uint32{a, b, c} {
				if vertexChart[v] == -1 {
					continue
				}
				if target == -1 {
					target = vertexChart[v]
				} else if target != vertexChart[v] {
					agree = false
				}
			}

			if target != -1 && agree && chartAccepts(charts[target], n, cfg, minDot) {
				claim(target, a)
				claim(target, b)
				claim(target, c)
				chartGrow(charts[target], n)
				continue
			}

			if vertexChart[a] != -1 && vertexChart[b] != -1 && vertexChart[c] != -1 {
				continue
			}
			charts = append(charts, &atlasChart{seed: n, mean: n})
			ci := len(charts) - 1
			claim(ci, a)
			claim(ci, b)
			claim(ci, c)
		}
	}

	if len(charts) == 0 {
		return nil
	}

	// project each chart onto its dominant plane
	proj := make([]vec2.T, len(mesh.Vertices))
	for _, ch := range charts {
		u, w := planeBasis(ch.mean)
		first := true
		for _, v := range ch.verts {
			p := mesh.Vertices[v]
			pu := float32(dot3(p, u))
			pw := float32(dot3(p, w))
			proj[v] = vec2.T{pu, pw}
			if first {
				ch.min = vec2.T{pu, pw}
				ch.max = vec2.T{pu, pw}
				first = false
				continue
			}
			ch.min[0] = minf(ch.min[0], pu)
			ch.min[1] = minf(ch.min[1], pw)
			ch.max[0] = maxf(ch.max[0], pu)
			ch.max[1] = maxf(ch.max[1], pw)
		}
	}

	scale := packCharts(charts, cfg.PackMargin)

	for _, ch := range charts {
		for _, v := range ch.verts {
			mesh.Lightmap[v] = vec2.T{
				float32((float64(proj[v][0]-ch.min[0]))*scale.chart + ch.offX*scale.atlas),
				float32((float64(proj[v][1]-ch.min[1]))*scale.chart + ch.offY*scale.atlas),
			}
		}
	}
	return nil
}

type atlasScale struct {
	// chart converts projected chart units straight to final atlas units
	chart float64
	// atlas converts packed shelf coordinates to final atlas units
	atlas float64
}

// packCharts arranges chart rectangles on unit-wide shelves, tallest
// first, and returns the scales that map everything into the unit
// square.
func packCharts(charts []*atlasChart, margin float64) atlasScale {
	total := 0.0
	for _, ch := range charts {
		w := float64(ch.max[0] - ch.min[0])
		h := float64(ch.max[1] - ch.min[1])
		total += (w + margin) * (h + margin)
	}
	norm := 1.0
	if total > 0 {
		norm = 1 / math.Sqrt(total)
	}

	order := make([]int, len(charts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		hi := charts[order[i]].max[1] - charts[order[i]].min[1]
		hj := charts[order[j]].max[1] - charts[order[j]].min[1]
		return hi > hj
	})

	// shelf packing with a unit-wide row limit
	currentX := 0.0
	currentY := 0.0
	shelfHeight := 0.0
	maxX := 0.0
	for _, ci := range order {
		ch := charts[ci]
		w := float64(ch.max[0]-ch.min[0])*norm + margin
		h := float64(ch.max[1]-ch.min[1])*norm + margin

		if currentX > 0 && currentX+w > 1 {
			currentX = 0
			currentY += shelfHeight
			shelfHeight = 0
		}
		ch.offX = currentX
		ch.offY = currentY

		currentX += w
		if h > shelfHeight {
			shelfHeight = h
		}
		if currentX > maxX {
			maxX = currentX
		}
	}
	extent := math.Max(maxX, currentY+shelfHeight)
	if extent <= 0 {
		extent = 1
	}
	return atlasScale{chart: norm / extent, atlas: 1 / extent}
}

func chartAccepts(ch *atlasChart, n vec3.T, cfg AtlasConfig, minDot float64) bool {
	ds := dot3(n, ch.seed)
	if ds < minDot {
		return false
	}
	dm := dot3(n, ch.mean)
	if 1-dm > cfg.AngleError {
		return false
	}
	// projected area on the chart plane shrinks by the same cosine
	if 1-math.Abs(dm) > cfg.AreaError {
		return false
	}
	return true
}

func chartGrow(ch *atlasChart, n vec3.T) {
	ch.mean.Add(&n)
	if ch.mean.Length() > 0 {
		ch.mean.Normalize()
	} else {
		ch.mean = ch.seed
	}
}

func faceNormal(m *Mesh, a, b, c uint32) vec3.T {
	p1 := m.Vertices[a]
	p2 := m.Vertices[b]
	p3 := m.Vertices[c]
	s1 := vec3.Sub(&p3, &p2)
	s2 := vec3.Sub(&p1, &p2)
	n := vec3.Cross(&s1, &s2)
	if n.Length() == 0 {
		return vec3.T{0, 0, 1}
	}
	n.Normalize()
	return n
}

// planeBasis returns two orthonormal axes spanning the plane whose
// normal is n.
func planeBasis(n vec3.T) (vec3.T, vec3.T) {
	up := vec3.T{0, 1, 0}
	if math.Abs(float64(n[1])) > 0.9 {
		up = vec3.T{1, 0, 0}
	}
	u := vec3.Cross(&up, &n)
	if u.Length() == 0 {
		u = vec3.T{1, 0, 0}
	} else {
		u.Normalize()
	}
	w := vec3.Cross(&n, &u)
	if w.Length() == 0 {
		w = vec3.T{0, 0, 1}
	} else {
		w.Normalize()
	}
	return u, w
}

func dot3(a, b vec3.T) float64 {
	return float64(a[0])*float64(b[0]) + float64(a[1])*float64(b[1]) + float64(a[2])*float64(b[2])
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
