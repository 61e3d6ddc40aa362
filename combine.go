package combine

import (
	dmat "github.com/flywave/go3d/float64/mat4"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// Options control a single combine invocation.
type Options struct {
	// Name of the resulting scene node.
	Name string
	// LightmapUV enables secondary UV generation over the result.
	LightmapUV bool
	// Atlas parameterizes the unwrap step.
	Atlas AtlasConfig
	// Unwrapper overrides the built-in unwrap implementation. Nil means
	// ChartUnwrapper.
	Unwrapper Unwrapper
}

func DefaultOptions() Options {
	return Options{
		Name:       DefaultOutputName,
		LightmapUV: true,
		Atlas:      DefaultAtlasConfig(),
	}
}

// Combine merges the selected objects into a single mesh with one
// submesh per unique material and returns the scene node owning it.
// Material order is first-seen order over the selection, which also
// fixes the output submesh order. The whole run either completes or
// returns one of the sentinel errors without producing a node.
func Combine(selection []*SourceObject, opts Options) (*Node, error) {
	collected, err := Collect(selection)
	if err != nil {
		return nil, err
	}

	order := materialOrder(collected)
	if len(order) == 0 {
		return nil, ErrNoMaterials
	}

	buckets := groupUnits(collected, order)

	// Materials whose bucket stayed empty keep their place in the order
	// but produce no submesh, so the output material list is the order
	// filtered to contributing materials.
	var pieces []*Mesh
	var bound []MeshMaterial
	for i, mtl := range order {
		if len(buckets[i]) == 0 {
			continue
		}
		pieces = append(pieces, mergeBucket(buckets[i]))
		bound = append(bound, mtl)
	}

	mesh := assemble(pieces)

	if opts.LightmapUV {
		uw := opts.Unwrapper
		if uw == nil {
			uw = ChartUnwrapper{}
		}
		if err := uw.Unwrap(mesh, opts.Atlas); err != nil {
			return nil, err
		}
	}

	name := opts.Name
	if name == "" {
		name = DefaultOutputName
	}
	return &Node{
		Name:           name,
		Mesh:           mesh,
		Materials:      bound,
		StaticBatching: true,
		ContributeGI:   true,
	}, nil
}

// materialOrder walks the collected objects in input order and their
// slot lists in slot order, appending each material the first time it is
// seen. A slice scan is used instead of a map on purpose: map iteration
// would randomize the order between runs, and this order decides the
// final submesh index of every material.
func materialOrder(objs []*SourceObject) []MeshMaterial {
	var order []MeshMaterial
	for _, obj := range objs {
		for _, mtl := range obj.Materials {
			if mtl == nil {
				continue
			}
			if indexOfMaterial(order, mtl) < 0 {
				order = append(order, mtl)
			}
		}
	}
	return order
}

func indexOfMaterial(order []MeshMaterial, mtl MeshMaterial) int {
	for i, m := range order {
		if m == mtl {
			return i
		}
	}
	return -1
}

// groupUnits partitions every submesh of every collected object into the
// bucket of its slot material. Submeshes past the end of the slot list
// and submeshes bound to a nil slot are dropped. Every material in the
// order gets a bucket, possibly empty.
func groupUnits(objs []*SourceObject, order []MeshMaterial) [][]*CombineUnit {
	buckets := make([][]*CombineUnit, len(order))
	for _, obj := range objs {
		for s := range obj.Mesh.Submeshes {
			if s >= len(obj.Materials) {
				continue
			}
			mtl := obj.Materials[s]
			if mtl == nil {
				continue
			}
			bi := indexOfMaterial(order, mtl)
			buckets[bi] = append(buckets[bi], &CombineUnit{
				Mesh:      obj.Mesh,
				Submesh:   s,
				Transform: obj.transform(),
			})
		}
	}
	return buckets
}

// mergeBucket flattens all units of one material into a single-submesh
// mesh in world space.
func mergeBucket(units []*CombineUnit) *Mesh {
	out := &Mesh{Submeshes: []*Submesh{{}}}
	for _, u := range units {
		appendUnit(out, u)
	}
	return out
}

// appendUnit copies the vertices one submesh references into dst,
// baking the unit transform into positions and normals and remapping
// indices against the grown buffers. Vertices are emitted in first-use
// order and never deduplicated across units. Faces with an index outside
// the source vertex buffer are dropped whole.
func appendUnit(dst *Mesh, u *CombineUnit) {
	src := u.Mesh
	sm := src.Submeshes[u.Submesh]
	mat := u.Transform
	if mat == nil {
		mat = &dmat.Ident
	}
	nm := newNormalMatrix(mat)

	base := uint32(len(dst.Vertices))
	remap := make(map[uint32]uint32, len(sm.Indices))
	out := dst.Submeshes[0]

	for i := 0; i+2 < len(sm.Indices); i += 3 {
		if int(sm.Indices[i]) >= len(src.Vertices) ||
			int(sm.Indices[i+1]) >= len(src.Vertices) ||
			int(sm.Indices[i+2]) >= len(src.Vertices) {
			continue
		}
		for j := 0; j < 3; j++ {
			idx := sm.Indices[i+j]
			ni, ok := remap[idx]
			if !ok {
				ni = base + uint32(len(remap))
				remap[idx] = ni

				dst.Vertices = append(dst.Vertices, transformPoint(mat, src.Vertices[idx]))
				if src.HasNormals() {
					dst.Normals = append(dst.Normals, transformNormal(&nm, src.Normals[idx]))
				} else {
					dst.Normals = append(dst.Normals, vec3.T{0, 0, 1})
				}
				if src.HasTexCoords() {
					dst.TexCoords = append(dst.TexCoords, src.TexCoords[idx])
				} else {
					dst.TexCoords = append(dst.TexCoords, vec2.T{})
				}
			}
			out.Indices = append(out.Indices, ni)
		}
	}
}

// assemble concatenates the per-material pieces into one mesh, each
// piece becoming exactly one submesh. Transforms were baked during the
// per-material merge, so this is pure buffer concatenation with index
// offsetting.
func assemble(pieces []*Mesh) *Mesh {
	out := &Mesh{}
	for _, p := range pieces {
		offset := uint32(len(out.Vertices))
		out.Vertices = append(out.Vertices, p.Vertices...)
		out.Normals = append(out.Normals, p.Normals...)
		out.TexCoords = append(out.TexCoords, p.TexCoords...)

		sm := &Submesh{Indices: make([]uint32, 0, len(p.Submeshes[0].Indices))}
		for _, idx := range p.Submeshes[0].Indices {
			sm.Indices = append(sm.Indices, idx+offset)
		}
		out.Submeshes = append(out.Submeshes, sm)
	}
	return out
}
