package combine

import (
	"errors"

	dmat "github.com/flywave/go3d/float64/mat4"
)

var (
	// ErrNothingSelected is reported when the selection is empty.
	ErrNothingSelected = errors.New("nothing selected")
	// ErrNoUsableInput is reported when no selected object carries both
	// a mesh and a material binding.
	ErrNoUsableInput = errors.New("no usable input in selection")
	// ErrNoMaterials is reported when the collected objects bind no
	// material at all.
	ErrNoMaterials = errors.New("no materials found")
)

// SourceObject is one selected scene object: a mesh, its material slot
// list and its world transform. A nil Mesh means the object has no
// renderable geometry; a nil Materials slice means it has no material
// binding. The slot list may be shorter or longer than the submesh
// count. Source objects are never mutated.
type SourceObject struct {
	Name      string
	Mesh      *Mesh
	Materials []MeshMaterial
	Transform *dmat.T
}

func (o *SourceObject) renderable() bool {
	return o != nil && o.Mesh != nil && o.Materials != nil
}

func (o *SourceObject) transform() *dmat.T {
	if o.Transform == nil {
		return &dmat.Ident
	}
	return o.Transform
}

// CombineUnit references one submesh of a source mesh plus the transform
// to bake when merging.
type CombineUnit struct {
	Mesh      *Mesh
	Submesh   int
	Transform *dmat.T
}

// Collect filters the selection down to the objects that can contribute
// geometry. Objects missing the mesh or the material binding are skipped
// silently; partial selections are expected.
func Collect(selection []*SourceObject) ([]*SourceObject, error) {
	if len(selection) == 0 {
		return nil, ErrNothingSelected
	}
	collected := make([]*SourceObject, 0, len(selection))
	for _, obj := range selection {
		if obj.renderable() {
			collected = append(collected, obj)
		}
	}
	if len(collected) == 0 {
		return nil, ErrNoUsableInput
	}
	return collected, nil
}
