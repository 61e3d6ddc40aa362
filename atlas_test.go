package combine

import (
	"testing"

	"github.com/flywave/go3d/vec2"
)

type recordingUnwrapper struct {
	calls int
	cfg   AtlasConfig
}

func (r *recordingUnwrapper) Unwrap(mesh *Mesh, cfg AtlasConfig) error {
	r.calls++
	r.cfg = cfg
	mesh.Lightmap = make([]vec2.T, len(mesh.Vertices))
	return nil
}

func TestDefaultAtlasConfig(t *testing.T) {
	cfg := DefaultAtlasConfig()
	if cfg.SplitAngleDeg != 30 {
		t.Fatalf("split angle = %v", cfg.SplitAngleDeg)
	}
	if cfg.PackMargin != 0.01 {
		t.Fatalf("pack margin = %v", cfg.PackMargin)
	}
	if cfg.AngleError != 0.5 {
		t.Fatalf("angle error = %v", cfg.AngleError)
	}
	if cfg.AreaError != 0.05 {
		t.Fatalf("area error = %v", cfg.AreaError)
	}
}

func TestUnwrapWritesChannel(t *testing.T) {
	m := cubeMesh()
	if err := (ChartUnwrapper{}).Unwrap(m, DefaultAtlasConfig()); err != nil {
		t.Fatal(err)
	}
	if len(m.Lightmap) != len(m.Vertices) {
		t.Fatalf("lightmap length = %d, want %d", len(m.Lightmap), len(m.Vertices))
	}
	for i, uv := range m.Lightmap {
		if uv[0] < 0 || uv[0] > 1 || uv[1] < 0 || uv[1] > 1 {
			t.Fatalf("uv %d = %v outside [0,1]", i, uv)
		}
	}
}

func TestUnwrapKeepsTopologyAndUV0(t *testing.T) {
	m := quadMesh()
	uv0 := append([]vec2.T(nil), m.TexCoords...)
	indices := append([]uint32(nil), m.Submeshes[0].Indices...)

	if err := (ChartUnwrapper{}).Unwrap(m, DefaultAtlasConfig()); err != nil {
		t.Fatal(err)
	}
	if len(m.Vertices) != 4 || len(m.Submeshes[0].Indices) != len(indices) {
		t.Fatal("unwrap altered topology")
	}
	for i := range indices {
		if m.Submeshes[0].Indices[i] != indices[i] {
			t.Fatal("unwrap altered indices")
		}
	}
	for i := range uv0 {
		if m.TexCoords[i] != uv0[i] {
			t.Fatal("unwrap altered the primary UV channel")
		}
	}
}

func TestUnwrapDeterministic(t *testing.T) {
	a := cubeMesh()
	b := cubeMesh()
	if err := (ChartUnwrapper{}).Unwrap(a, DefaultAtlasConfig()); err != nil {
		t.Fatal(err)
	}
	if err := (ChartUnwrapper{}).Unwrap(b, DefaultAtlasConfig()); err != nil {
		t.Fatal(err)
	}
	for i := range a.Lightmap {
		if a.Lightmap[i] != b.Lightmap[i] {
			t.Fatalf("uv %d differs between identical runs", i)
		}
	}
}

func TestUnwrapEmptyMesh(t *testing.T) {
	m := &Mesh{}
	if err := (ChartUnwrapper{}).Unwrap(m, DefaultAtlasConfig()); err != nil {
		t.Fatal(err)
	}
	if len(m.Lightmap) != 0 {
		t.Fatal("lightmap written for empty mesh")
	}
}

func TestCombineUsesConfiguredUnwrapper(t *testing.T) {
	rec := &recordingUnwrapper{}
	cfg := AtlasConfig{SplitAngleDeg: 45, PackMargin: 0.02, AngleError: 0.3, AreaError: 0.1}

	node, err := Combine([]*SourceObject{
		{Mesh: quadMesh(), Materials: []MeshMaterial{&BaseMaterial{}}},
	}, Options{Name: "n", LightmapUV: true, Atlas: cfg, Unwrapper: rec})
	if err != nil {
		t.Fatal(err)
	}
	if rec.calls != 1 {
		t.Fatalf("unwrapper called %d times, want 1", rec.calls)
	}
	if rec.cfg != cfg {
		t.Fatalf("unwrapper got config %+v, want %+v", rec.cfg, cfg)
	}
	if !node.Mesh.HasLightmap() {
		t.Fatal("combined mesh has no lightmap channel")
	}
}

func TestCombineSkipsUnwrapWhenDisabled(t *testing.T) {
	rec := &recordingUnwrapper{}
	node, err := Combine([]*SourceObject{
		{Mesh: quadMesh(), Materials: []MeshMaterial{&BaseMaterial{}}},
	}, Options{Name: "n", LightmapUV: false, Unwrapper: rec})
	if err != nil {
		t.Fatal(err)
	}
	if rec.calls != 0 {
		t.Fatal("unwrapper invoked although disabled")
	}
	if node.Mesh.HasLightmap() {
		t.Fatal("lightmap channel written although disabled")
	}
}
