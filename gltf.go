package combine

import (
	"bytes"
	"encoding/binary"
	"image/png"
	"io"

	"github.com/qmuntal/gltf"
)

const GLTF_VERSION = "2.0"

// ExportDocument builds a glTF document holding the combined node: one
// mesh, one primitive per submesh, materials in submesh order.
func ExportDocument(node *Node) (*gltf.Document, error) {
	doc := CreateDoc()
	if err := buildGltf(doc, node); err != nil {
		return nil, err
	}
	return doc, nil
}

func CreateDoc() *gltf.Document {
	doc := &gltf.Document{}
	doc.Asset.Version = GLTF_VERSION
	srcIndex := uint32(0)
	doc.Scene = &srcIndex
	doc.Scenes = append(doc.Scenes, &gltf.Scene{})
	doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
	return doc
}

type calcSizeWriter struct {
	writer io.Writer
	Size   int
}

func (w *calcSizeWriter) Write(p []byte) (n int, err error) {
	si := len(p)
	w.writer.Write(p)
	w.Size += si
	return si, nil
}

func (w *calcSizeWriter) Bytes() []byte {
	return w.writer.(*bytes.Buffer).Bytes()
}

func newSizeWriter() calcSizeWriter {
	wt := bytes.NewBuffer([]byte{})
	return calcSizeWriter{writer: wt}
}

func calcPadding(offset, paddingUnit int) int {
	padding := offset % paddingUnit
	if padding != 0 {
		padding = paddingUnit - padding
	}
	return padding
}

// ExportGLB encodes the document as binary glTF padded to paddingUnit.
func ExportGLB(doc *gltf.Document, paddingUnit int) ([]byte, error) {
	w := newSizeWriter()
	enc := gltf.NewEncoder(w.writer)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	padding := calcPadding(w.Size, paddingUnit)
	if padding == 0 {
		return w.Bytes(), nil
	}
	pad := make([]byte, padding)
	for i := range pad {
		pad[i] = 0x20
	}
	w.Write(pad)
	return w.Bytes(), nil
}

func buildGltf(doc *gltf.Document, node *Node) error {
	mh := node.Mesh
	buffer := doc.Buffers[0]
	buf := bytes.NewBuffer(nil)
	startLen := buffer.ByteLength
	bvSize := len(doc.BufferViews)

	indices := &gltf.BufferView{Buffer: 0, ByteOffset: startLen}
	for _, sm := range mh.Submeshes {
		binary.Write(buf, binary.LittleEndian, sm.Indices)
	}
	indices.ByteLength = uint32(buf.Len())
	doc.BufferViews = append(doc.BufferViews, indices)

	positions := &gltf.BufferView{Buffer: 0}
	positions.ByteOffset = uint32(buf.Len()) + startLen
	binary.Write(buf, binary.LittleEndian, mh.Vertices)
	positions.ByteLength = uint32(buf.Len()) + startLen - positions.ByteOffset
	bvPos := uint32(len(doc.BufferViews))
	doc.BufferViews = append(doc.BufferViews, positions)

	bvTex := uint32(len(doc.BufferViews))
	if mh.HasTexCoords() {
		texcoord := &gltf.BufferView{Buffer: 0}
		texcoord.ByteOffset = uint32(buf.Len()) + startLen
		binary.Write(buf, binary.LittleEndian, mh.TexCoords)
		texcoord.ByteLength = uint32(buf.Len()) + startLen - texcoord.ByteOffset
		doc.BufferViews = append(doc.BufferViews, texcoord)
	}

	bvNorm := uint32(len(doc.BufferViews))
	if mh.HasNormals() {
		normals := &gltf.BufferView{Buffer: 0}
		normals.ByteOffset = uint32(buf.Len()) + startLen
		binary.Write(buf, binary.LittleEndian, mh.Normals)
		normals.ByteLength = uint32(buf.Len()) + startLen - normals.ByteOffset
		doc.BufferViews = append(doc.BufferViews, normals)
	}

	bvLightmap := uint32(len(doc.BufferViews))
	if mh.HasLightmap() {
		lightmap := &gltf.BufferView{Buffer: 0}
		lightmap.ByteOffset = uint32(buf.Len()) + startLen
		binary.Write(buf, binary.LittleEndian, mh.Lightmap)
		lightmap.ByteLength = uint32(buf.Len()) + startLen - lightmap.ByteOffset
		doc.BufferViews = append(doc.BufferViews, lightmap)
	}

	buffer.ByteLength += uint32(buf.Len())
	buffer.Data = append(buffer.Data, buf.Bytes()...)

	mesh := &gltf.Mesh{Name: node.Name}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)))
	nde := &gltf.Node{Name: node.Name}
	meshIdx := uint32(len(doc.Meshes))
	nde.Mesh = &meshIdx
	nde.Extras = map[string]interface{}{
		"staticBatching": node.StaticBatching,
		"contributeGI":   node.ContributeGI,
	}
	doc.Nodes = append(doc.Nodes, nde)

	mtlBase := uint32(len(doc.Materials))
	attrAccBase := uint32(len(doc.Accessors)) + uint32(len(mh.Submeshes))
	var start uint32
	for i, sm := range mh.Submeshes {
		ps := &gltf.Primitive{
			Mode:       gltf.PrimitiveTriangles,
			Attributes: make(gltf.Attribute),
		}
		index := uint32(len(doc.Accessors))
		ps.Indices = &index

		attr := attrAccBase
		ps.Attributes["POSITION"] = attr
		if mh.HasTexCoords() {
			attr++
			ps.Attributes["TEXCOORD_0"] = attr
		}
		if mh.HasNormals() {
			attr++
			ps.Attributes["NORMAL"] = attr
		}
		if mh.HasLightmap() {
			attr++
			ps.Attributes["TEXCOORD_1"] = attr
		}

		mtlID := mtlBase + uint32(i)
		ps.Material = &mtlID
		mesh.Primitives = append(mesh.Primitives, ps)

		indexacc := &gltf.Accessor{}
		indexacc.ComponentType = gltf.ComponentUint
		indexacc.ByteOffset = start * 4
		indexacc.Count = uint32(len(sm.Indices))
		start += uint32(len(sm.Indices))
		bfIndex := uint32(bvSize)
		indexacc.BufferView = &bfIndex
		doc.Accessors = append(doc.Accessors, indexacc)
	}

	posacc := &gltf.Accessor{}
	posacc.ComponentType = gltf.ComponentFloat
	posacc.Type = gltf.AccessorVec3
	posacc.Count = uint32(len(mh.Vertices))
	posacc.BufferView = &bvPos
	box := mh.GetBoundbox()
	posacc.Min = []float32{float32(box[0]), float32(box[1]), float32(box[2])}
	posacc.Max = []float32{float32(box[3]), float32(box[4]), float32(box[5])}
	doc.Accessors = append(doc.Accessors, posacc)

	if mh.HasTexCoords() {
		texacc := &gltf.Accessor{}
		texacc.ComponentType = gltf.ComponentFloat
		texacc.Type = gltf.AccessorVec2
		texacc.Count = uint32(len(mh.TexCoords))
		texacc.BufferView = &bvTex
		doc.Accessors = append(doc.Accessors, texacc)
	}

	if mh.HasNormals() {
		nlacc := &gltf.Accessor{}
		nlacc.ComponentType = gltf.ComponentFloat
		nlacc.Type = gltf.AccessorVec3
		nlacc.Count = uint32(len(mh.Normals))
		nlacc.BufferView = &bvNorm
		doc.Accessors = append(doc.Accessors, nlacc)
	}

	if mh.HasLightmap() {
		lmacc := &gltf.Accessor{}
		lmacc.ComponentType = gltf.ComponentFloat
		lmacc.Type = gltf.AccessorVec2
		lmacc.Count = uint32(len(mh.Lightmap))
		lmacc.BufferView = &bvLightmap
		doc.Accessors = append(doc.Accessors, lmacc)
	}

	doc.Meshes = append(doc.Meshes, mesh)

	return fillMaterials(doc, node.Materials)
}

func fillMaterials(doc *gltf.Document, mts []MeshMaterial) error {
	texMap := make(map[int32]uint32)
	buffer := doc.Buffers[0]
	for i := range mts {
		mtl := mts[i]

		gm := &gltf.Material{DoubleSided: true, AlphaMode: gltf.AlphaMask}
		gm.PBRMetallicRoughness = &gltf.PBRMetallicRoughness{BaseColorFactor: &[4]float32{1, 1, 1, 1}}
		cl := &[4]float32{1, 1, 1, 1}
		var texMtl *TextureMaterial
		switch ml := mtl.(type) {
		case *BaseMaterial:
			cl = &[4]float32{float32(ml.Color[0]) / 255, float32(ml.Color[1]) / 255, float32(ml.Color[2]) / 255, 1 - ml.Transparency}
		case *PbrMaterial:
			cl = &[4]float32{float32(ml.Color[0]) / 255, float32(ml.Color[1]) / 255, float32(ml.Color[2]) / 255, 1 - ml.Transparency}
			mc := ml.Metallic
			gm.PBRMetallicRoughness.MetallicFactor = &mc
			rs := ml.Roughness
			gm.PBRMetallicRoughness.RoughnessFactor = &rs
			gm.EmissiveFactor[0] = float32(ml.Emissive[0]) / 255
			gm.EmissiveFactor[1] = float32(ml.Emissive[1]) / 255
			gm.EmissiveFactor[2] = float32(ml.Emissive[2]) / 255
			texMtl = &ml.TextureMaterial
		case *LambertMaterial:
			cl = &[4]float32{float32(ml.Color[0]) / 255, float32(ml.Color[1]) / 255, float32(ml.Color[2]) / 255, 1 - ml.Transparency}
			texMtl = &ml.TextureMaterial
		case *PhongMaterial:
			cl = &[4]float32{float32(ml.Color[0]) / 255, float32(ml.Color[1]) / 255, float32(ml.Color[2]) / 255, 1 - ml.Transparency}
			texMtl = &ml.TextureMaterial
		case *TextureMaterial:
			cl = &[4]float32{float32(ml.Color[0]) / 255, float32(ml.Color[1]) / 255, float32(ml.Color[2]) / 255, 1 - ml.Transparency}
			texMtl = ml
		}

		if texMtl != nil && texMtl.Texture != nil {
			if idx, ok := texMap[texMtl.Texture.Id]; ok {
				gm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: idx}
				doc.Materials = append(doc.Materials, gm)
				continue
			}

			spCount := uint32(len(doc.Samplers))
			imCount := uint32(len(doc.Images))
			tx := &gltf.Texture{Sampler: &spCount, Source: &imCount}

			gimg := &gltf.Image{MimeType: "image/png"}
			imgIndex := uint32(len(doc.BufferViews))
			gimg.BufferView = &imgIndex

			img, e := LoadTexture(texMtl.Texture, true)
			if e != nil {
				return e
			}
			buf := bytes.NewBuffer(nil)
			if err := png.Encode(buf, img); err != nil {
				return err
			}

			imgView := &gltf.BufferView{Buffer: 0}
			imgView.ByteOffset = buffer.ByteLength
			imgView.ByteLength = uint32(buf.Len())
			buffer.ByteLength += uint32(buf.Len())
			buffer.Data = append(buffer.Data, buf.Bytes()...)

			doc.BufferViews = append(doc.BufferViews, imgView)
			doc.Images = append(doc.Images, gimg)
			doc.Samplers = append(doc.Samplers, &gltf.Sampler{WrapS: gltf.WrapRepeat, WrapT: gltf.WrapRepeat})

			texIndex := uint32(len(doc.Textures))
			gm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: texIndex}
			doc.Textures = append(doc.Textures, tx)
			texMap[texMtl.Texture.Id] = texIndex
		} else {
			gm.PBRMetallicRoughness.BaseColorFactor = cl
		}

		doc.Materials = append(doc.Materials, gm)
	}
	return nil
}
