package combine

import (
	"errors"
	"testing"
)

func TestCollectSkipsIncompleteObjects(t *testing.T) {
	usable := &SourceObject{Name: "ok", Mesh: quadMesh(), Materials: []MeshMaterial{&BaseMaterial{}}}
	selection := []*SourceObject{
		{Name: "no mesh", Materials: []MeshMaterial{&BaseMaterial{}}},
		usable,
		{Name: "no binding", Mesh: quadMesh()},
	}

	collected, err := Collect(selection)
	if err != nil {
		t.Fatal(err)
	}
	if len(collected) != 1 || collected[0] != usable {
		t.Fatalf("collected %d objects", len(collected))
	}
}

func TestCollectEmptySelection(t *testing.T) {
	if _, err := Collect(nil); !errors.Is(err, ErrNothingSelected) {
		t.Fatalf("err = %v", err)
	}
}

func TestCollectNothingUsable(t *testing.T) {
	selection := []*SourceObject{{Name: "empty"}}
	if _, err := Collect(selection); !errors.Is(err, ErrNoUsableInput) {
		t.Fatalf("err = %v", err)
	}
}

func TestCollectEmptySlotListIsUsable(t *testing.T) {
	// a material binding with zero slots is still a binding; the object
	// is collected and the no-materials check fires later
	obj := &SourceObject{Mesh: quadMesh(), Materials: []MeshMaterial{}}
	collected, err := Collect([]*SourceObject{obj})
	if err != nil {
		t.Fatal(err)
	}
	if len(collected) != 1 {
		t.Fatal("zero-slot object dropped")
	}
	if _, err := Combine([]*SourceObject{obj}, Options{}); !errors.Is(err, ErrNoMaterials) {
		t.Fatalf("err = %v, want ErrNoMaterials", err)
	}
}
