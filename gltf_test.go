package combine

import (
	"bytes"
	"image/png"
	"testing"
)

func combinedNode(t *testing.T) *Node {
	t.Helper()
	matX := &BaseMaterial{Color: [3]byte{255, 0, 0}}
	matY := &PbrMaterial{Metallic: 0.5, Roughness: 0.25}
	node, err := Combine([]*SourceObject{
		{Name: "A", Mesh: quadMesh(), Materials: []MeshMaterial{matX}},
		{Name: "B", Mesh: twoSubmeshMesh(), Materials: []MeshMaterial{matX, matY}},
	}, Options{Name: "combined", LightmapUV: true, Atlas: DefaultAtlasConfig()})
	if err != nil {
		t.Fatal(err)
	}
	return node
}

func TestExportDocument(t *testing.T) {
	node := combinedNode(t)
	doc, err := ExportDocument(node)
	if err != nil {
		t.Fatal(err)
	}

	if len(doc.Meshes) != 1 {
		t.Fatalf("mesh count = %d", len(doc.Meshes))
	}
	prims := doc.Meshes[0].Primitives
	if len(prims) != node.Mesh.SubmeshCount() {
		t.Fatalf("primitive count = %d, want %d", len(prims), node.Mesh.SubmeshCount())
	}
	if len(doc.Materials) != node.MaterialCount() {
		t.Fatalf("material count = %d, want %d", len(doc.Materials), node.MaterialCount())
	}

	for i, ps := range prims {
		if ps.Material == nil || int(*ps.Material) != i {
			t.Fatalf("primitive %d not bound to material %d", i, i)
		}
		if _, ok := ps.Attributes["POSITION"]; !ok {
			t.Fatalf("primitive %d missing POSITION", i)
		}
		if _, ok := ps.Attributes["TEXCOORD_1"]; !ok {
			t.Fatalf("primitive %d missing lightmap channel", i)
		}
		if ps.Indices == nil {
			t.Fatalf("primitive %d missing indices", i)
		}
		acc := doc.Accessors[*ps.Indices]
		if int(acc.Count) != len(node.Mesh.Submeshes[i].Indices) {
			t.Fatalf("primitive %d index count = %d, want %d", i, acc.Count, len(node.Mesh.Submeshes[i].Indices))
		}
	}

	posAcc := doc.Accessors[prims[0].Attributes["POSITION"]]
	if int(posAcc.Count) != node.Mesh.VertexCount() {
		t.Fatalf("position accessor count = %d, want %d", posAcc.Count, node.Mesh.VertexCount())
	}
	if len(posAcc.Min) != 3 || len(posAcc.Max) != 3 {
		t.Fatal("position accessor missing bounds")
	}
}

func TestExportGLBPadding(t *testing.T) {
	doc, err := ExportDocument(combinedNode(t))
	if err != nil {
		t.Fatal(err)
	}
	glb, err := ExportGLB(doc, 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(glb) == 0 || len(glb)%8 != 0 {
		t.Fatalf("glb length = %d, want non-empty multiple of 8", len(glb))
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	node := combinedNode(t)
	doc, err := ExportDocument(node)
	if err != nil {
		t.Fatal(err)
	}

	objs, err := ImportDocument(doc, "roundtrip")
	if err != nil {
		t.Fatal(err)
	}
	if len(objs) != 1 {
		t.Fatalf("object count = %d, want 1", len(objs))
	}
	obj := objs[0]
	if obj.Transform != nil {
		t.Fatal("identity transform not preserved as nil")
	}
	if obj.Mesh.SubmeshCount() != node.Mesh.SubmeshCount() {
		t.Fatalf("submesh count = %d, want %d", obj.Mesh.SubmeshCount(), node.Mesh.SubmeshCount())
	}
	if obj.Mesh.VertexCount() != node.Mesh.VertexCount() {
		t.Fatalf("vertex count = %d, want %d", obj.Mesh.VertexCount(), node.Mesh.VertexCount())
	}
	if len(obj.Materials) != node.MaterialCount() {
		t.Fatalf("slot count = %d, want %d", len(obj.Materials), node.MaterialCount())
	}
	for i := range obj.Mesh.Submeshes {
		if len(obj.Mesh.Submeshes[i].Indices) != len(node.Mesh.Submeshes[i].Indices) {
			t.Fatalf("submesh %d index count mismatch", i)
		}
	}
	for i, v := range obj.Mesh.Vertices {
		if v != node.Mesh.Vertices[i] {
			t.Fatalf("vertex %d = %v, want %v", i, v, node.Mesh.Vertices[i])
		}
	}

	// a reimported result must combine again without error
	if _, err := Combine(objs, Options{Name: "again"}); err != nil {
		t.Fatal(err)
	}
}

func TestExportDocumentEmptyMesh(t *testing.T) {
	// every slot-bound material can end up with an empty bucket; the
	// document must still carry finite accessor bounds
	node, err := Combine([]*SourceObject{
		{Mesh: &Mesh{}, Materials: []MeshMaterial{&BaseMaterial{}}},
	}, noAtlas())
	if err != nil {
		t.Fatal(err)
	}
	doc, err := ExportDocument(node)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Meshes[0].Primitives) != 0 {
		t.Fatalf("primitive count = %d, want 0", len(doc.Meshes[0].Primitives))
	}
	posAcc := doc.Accessors[len(doc.Accessors)-1]
	if posAcc.Count != 0 {
		t.Fatalf("position accessor count = %d, want 0", posAcc.Count)
	}
	for i := 0; i < 3; i++ {
		if posAcc.Min[i] != 0 || posAcc.Max[i] != 0 {
			t.Fatalf("bounds = %v / %v, want zeros", posAcc.Min, posAcc.Max)
		}
	}
}

func TestExportSharedTextureDedup(t *testing.T) {
	tex, err := CreateTextureFromImage(checkerImage(2, 2), "checker.png", true)
	if err != nil {
		t.Fatal(err)
	}
	matA := &TextureMaterial{Texture: tex}
	matB := &PbrMaterial{Metallic: 1}
	matB.Texture = tex

	node, err := Combine([]*SourceObject{
		{Name: "T", Mesh: twoSubmeshMesh(), Materials: []MeshMaterial{matA, matB}},
	}, noAtlas())
	if err != nil {
		t.Fatal(err)
	}
	doc, err := ExportDocument(node)
	if err != nil {
		t.Fatal(err)
	}

	// both materials reference one shared texture payload
	if len(doc.Textures) != 1 || len(doc.Images) != 1 || len(doc.Samplers) != 1 {
		t.Fatalf("textures/images/samplers = %d/%d/%d, want 1/1/1",
			len(doc.Textures), len(doc.Images), len(doc.Samplers))
	}
	for i, gm := range doc.Materials {
		bct := gm.PBRMetallicRoughness.BaseColorTexture
		if bct == nil || bct.Index != 0 {
			t.Fatalf("material %d not bound to texture 0", i)
		}
	}

	// the embedded bufferview holds a decodable png
	view := doc.BufferViews[*doc.Images[0].BufferView]
	data := doc.Buffers[0].Data[view.ByteOffset : view.ByteOffset+view.ByteLength]
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Fatalf("embedded image bounds = %v", img.Bounds())
	}

	objs, err := ImportDocument(doc, "tex")
	if err != nil {
		t.Fatal(err)
	}
	first := objs[0].Materials[0].(*PbrMaterial)
	second := objs[0].Materials[1].(*PbrMaterial)
	if first.Texture == nil || first.Texture.Size != [2]uint64{2, 2} {
		t.Fatalf("imported texture = %+v", first.Texture)
	}
	if first.Texture != second.Texture {
		t.Fatal("shared texture imported twice")
	}
	if first.Texture.Id != 0 {
		t.Fatalf("imported texture id = %d, want 0", first.Texture.Id)
	}
}

func TestImportSharesMaterialIdentity(t *testing.T) {
	node := combinedNode(t)
	doc, err := ExportDocument(node)
	if err != nil {
		t.Fatal(err)
	}
	// reference the exported mesh from a second scene node: both source
	// objects must share mesh and material instances
	meshIdx := uint32(0)
	second := *doc.Nodes[0]
	second.Mesh = &meshIdx
	doc.Nodes = append(doc.Nodes, &second)

	objs, err := ImportDocument(doc, "shared")
	if err != nil {
		t.Fatal(err)
	}
	if len(objs) != 2 {
		t.Fatalf("object count = %d, want 2", len(objs))
	}
	if objs[0].Mesh != objs[1].Mesh {
		t.Fatal("shared mesh imported twice")
	}
	for i := range objs[0].Materials {
		if objs[0].Materials[i] != objs[1].Materials[i] {
			t.Fatalf("material slot %d not shared", i)
		}
	}

	// identity sharing keeps the combined submesh count at two
	merged, err := Combine(objs, Options{Name: "m"})
	if err != nil {
		t.Fatal(err)
	}
	if merged.Mesh.SubmeshCount() != 2 {
		t.Fatalf("submesh count = %d, want 2", merged.Mesh.SubmeshCount())
	}
}
