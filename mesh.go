package combine

import (
	"math"

	dvec3 "github.com/flywave/go3d/float64/vec3"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// Submesh is a contiguous group of triangle indices rendered with one
// material. Indices address the shared buffers of the owning Mesh.
type Submesh struct {
	Indices []uint32
}

// FaceCount returns the number of whole triangles in the submesh.
func (s *Submesh) FaceCount() int {
	return len(s.Indices) / 3
}

// VertexCount returns the number of distinct vertices the submesh
// references.
func (s *Submesh) VertexCount() int {
	seen := make(map[uint32]struct{}, len(s.Indices))
	for _, idx := range s.Indices {
		seen[idx] = struct{}{}
	}
	return len(seen)
}

// Mesh holds shared vertex attribute buffers partitioned into submeshes.
// Normals, TexCoords and Lightmap are either empty or vertex-aligned.
type Mesh struct {
	Vertices  []vec3.T
	Normals   []vec3.T
	TexCoords []vec2.T
	Lightmap  []vec2.T
	Submeshes []*Submesh
}

func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

func (m *Mesh) SubmeshCount() int {
	return len(m.Submeshes)
}

func (m *Mesh) HasNormals() bool {
	return len(m.Normals) > 0
}

func (m *Mesh) HasTexCoords() bool {
	return len(m.TexCoords) > 0
}

func (m *Mesh) HasLightmap() bool {
	return len(m.Lightmap) > 0
}

func (m *Mesh) GetBoundbox() *[6]float64 {
	if len(m.Vertices) == 0 {
		return &[6]float64{}
	}
	minX := math.MaxFloat64
	minY := math.MaxFloat64
	minZ := math.MaxFloat64
	maxX := -math.MaxFloat64
	maxY := -math.MaxFloat64
	maxZ := -math.MaxFloat64
	for i := range m.Vertices {
		minX = math.Min(minX, float64(m.Vertices[i][0]))
		minY = math.Min(minY, float64(m.Vertices[i][1]))
		minZ = math.Min(minZ, float64(m.Vertices[i][2]))

		maxX = math.Max(maxX, float64(m.Vertices[i][0]))
		maxY = math.Max(maxY, float64(m.Vertices[i][1]))
		maxZ = math.Max(maxZ, float64(m.Vertices[i][2]))
	}
	return &[6]float64{minX, minY, minZ, maxX, maxY, maxZ}
}

func (m *Mesh) ComputeBBox() dvec3.Box {
	if len(m.Vertices) == 0 {
		return dvec3.Box{}
	}
	bx := m.GetBoundbox()
	return dvec3.Box{
		Min: dvec3.T{bx[0], bx[1], bx[2]},
		Max: dvec3.T{bx[3], bx[4], bx[5]},
	}
}

// ReComputeNormal rebuilds per-vertex normals from face geometry,
// area-weighted across all submeshes.
func (m *Mesh) ReComputeNormal() {
	normals := make([]vec3.T, len(m.Vertices))
	for _, sm := range m.Submeshes {
		for i := 0; i+2 < len(sm.Indices); i += 3 {
			pt1 := m.Vertices[sm.Indices[i]]
			pt2 := m.Vertices[sm.Indices[i+1]]
			pt3 := m.Vertices[sm.Indices[i+2]]

			sub1 := vec3.Sub(&pt3, &pt2)
			sub2 := vec3.Sub(&pt1, &pt2)

			cro := vec3.Cross(&sub1, &sub2)
			l := cro.Length()
			if l == 0 {
				continue
			}
			weighted := cro.Scale(1 / l)

			normals[sm.Indices[i]].Add(weighted)
			normals[sm.Indices[i+1]].Add(weighted)
			normals[sm.Indices[i+2]].Add(weighted)
		}
	}

	for i := range normals {
		normals[i].Normalize()
	}

	m.Normals = normals
}
