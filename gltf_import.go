package combine

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	dmat "github.com/flywave/go3d/float64/mat4"
	"github.com/flywave/go3d/float64/vec4"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"

	"github.com/qmuntal/gltf"
)

var (
	emptyMatrix    = [16]float32{}
	identityMatrix = [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
)

// LoadSelection reads the scene nodes of each glTF/GLB file into source
// objects, preserving file order and node order within each file. This
// ordered list is the selection the pipeline consumes.
func LoadSelection(paths []string) ([]*SourceObject, error) {
	var selection []*SourceObject
	for _, path := range paths {
		doc, err := gltf.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		objs, err := ImportDocument(doc, name)
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", path, err)
		}
		selection = append(selection, objs...)
	}
	return selection, nil
}

// ImportDocument converts every mesh-bearing node of a document into a
// source object. Nodes sharing a glTF mesh share the imported mesh and
// its material instances, so identical materials group together.
func ImportDocument(doc *gltf.Document, name string) ([]*SourceObject, error) {
	imp := &docImporter{
		doc:       doc,
		meshes:    make(map[uint32]*importedMesh),
		materials: make(map[uint32]MeshMaterial),
		textures:  make(map[uint32]*Texture),
	}
	var objs []*SourceObject
	for i, nd := range doc.Nodes {
		if nd.Mesh == nil {
			continue
		}
		im, err := imp.mesh(*nd.Mesh)
		if err != nil {
			return nil, err
		}
		objName := nd.Name
		if objName == "" {
			objName = fmt.Sprintf("%s_node_%d", name, i)
		}
		objs = append(objs, &SourceObject{
			Name:      objName,
			Mesh:      im.mesh,
			Materials: im.materials,
			Transform: nodeTransform(nd),
		})
	}
	return objs, nil
}

type importedMesh struct {
	mesh      *Mesh
	materials []MeshMaterial
}

type docImporter struct {
	doc       *gltf.Document
	meshes    map[uint32]*importedMesh
	materials map[uint32]MeshMaterial
	textures  map[uint32]*Texture
}

func (imp *docImporter) mesh(id uint32) (*importedMesh, error) {
	if im, ok := imp.meshes[id]; ok {
		return im, nil
	}
	src := imp.doc.Meshes[id]
	im := &importedMesh{mesh: &Mesh{}}

	hasNormals := false
	hasTexCoords := false
	for _, ps := range src.Primitives {
		if _, ok := ps.Attributes["NORMAL"]; ok {
			hasNormals = true
		}
		if _, ok := ps.Attributes["TEXCOORD_0"]; ok {
			hasTexCoords = true
		}
	}

	// primitives of one mesh may share a POSITION accessor; its vertex
	// range is appended once and reused
	posBase := make(map[uint32]uint32)

	for _, ps := range src.Primitives {
		posIdx, ok := ps.Attributes["POSITION"]
		if !ok {
			continue
		}
		vertCount := imp.doc.Accessors[posIdx].Count

		base, shared := posBase[posIdx]
		if !shared {
			positions, err := imp.vec3s(posIdx)
			if err != nil {
				return nil, err
			}
			base = uint32(len(im.mesh.Vertices))
			posBase[posIdx] = base
			im.mesh.Vertices = append(im.mesh.Vertices, positions...)

			if hasNormals {
				if nIdx, ok := ps.Attributes["NORMAL"]; ok {
					normals, err := imp.vec3s(nIdx)
					if err != nil {
						return nil, err
					}
					im.mesh.Normals = append(im.mesh.Normals, normals...)
				} else {
					for range positions {
						im.mesh.Normals = append(im.mesh.Normals, vec3.T{0, 0, 1})
					}
				}
			}
			if hasTexCoords {
				if tIdx, ok := ps.Attributes["TEXCOORD_0"]; ok {
					uvs, err := imp.vec2s(tIdx)
					if err != nil {
						return nil, err
					}
					im.mesh.TexCoords = append(im.mesh.TexCoords, uvs...)
				} else {
					for range positions {
						im.mesh.TexCoords = append(im.mesh.TexCoords, vec2.T{})
					}
				}
			}
		}

		sm := &Submesh{}
		if ps.Indices != nil {
			indices, err := imp.indices(*ps.Indices)
			if err != nil {
				return nil, err
			}
			sm.Indices = make([]uint32, 0, len(indices))
			for _, idx := range indices {
				sm.Indices = append(sm.Indices, idx+base)
			}
		} else {
			sm.Indices = make([]uint32, 0, vertCount)
			for i := uint32(0); i < vertCount; i++ {
				sm.Indices = append(sm.Indices, base+i)
			}
		}
		im.mesh.Submeshes = append(im.mesh.Submeshes, sm)

		if ps.Material != nil {
			mtl, err := imp.material(*ps.Material)
			if err != nil {
				return nil, err
			}
			im.materials = append(im.materials, mtl)
		} else {
			im.materials = append(im.materials, nil)
		}
	}

	imp.meshes[id] = im
	return im, nil
}

func (imp *docImporter) material(id uint32) (MeshMaterial, error) {
	if mtl, ok := imp.materials[id]; ok {
		return mtl, nil
	}
	mt := imp.doc.Materials[id]
	mtl := &PbrMaterial{}
	mtl.Emissive[0] = byte(mt.EmissiveFactor[0] * 255)
	mtl.Emissive[1] = byte(mt.EmissiveFactor[1] * 255)
	mtl.Emissive[2] = byte(mt.EmissiveFactor[2] * 255)
	if mt.PBRMetallicRoughness != nil {
		pbr := mt.PBRMetallicRoughness
		if pbr.BaseColorFactor != nil {
			mtl.Color[0] = byte(pbr.BaseColorFactor[0] * 255)
			mtl.Color[1] = byte(pbr.BaseColorFactor[1] * 255)
			mtl.Color[2] = byte(pbr.BaseColorFactor[2] * 255)
			mtl.Transparency = 1 - pbr.BaseColorFactor[3]
		}
		if pbr.MetallicFactor != nil {
			mtl.Metallic = *pbr.MetallicFactor
		}
		if pbr.RoughnessFactor != nil {
			mtl.Roughness = *pbr.RoughnessFactor
		}
		if pbr.BaseColorTexture != nil {
			tex, err := imp.texture(pbr.BaseColorTexture.Index)
			if err == nil && tex != nil {
				mtl.Texture = tex
			}
		}
	}
	imp.materials[id] = mtl
	return mtl, nil
}

func (imp *docImporter) texture(id uint32) (*Texture, error) {
	if tex, ok := imp.textures[id]; ok {
		return tex, nil
	}
	if int(id) >= len(imp.doc.Textures) {
		return nil, errors.New("texture index out of range")
	}
	src := imp.doc.Textures[id]
	if src.Source == nil {
		return nil, nil
	}
	img := imp.doc.Images[*src.Source]
	if img.BufferView == nil {
		return nil, nil
	}
	view := imp.doc.BufferViews[*img.BufferView]
	buffer := imp.doc.Buffers[view.Buffer]
	data := buffer.Data[view.ByteOffset : view.ByteOffset+view.ByteLength]

	var decoded image.Image
	var err error
	switch img.MimeType {
	case "image/png":
		decoded, err = png.Decode(bytes.NewReader(data))
	case "image/jpg", "image/jpeg":
		decoded, err = jpeg.Decode(bytes.NewReader(data))
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	tex, err := CreateTextureFromImage(decoded, img.Name, true)
	if err != nil {
		return nil, err
	}
	tex.Id = int32(id)
	imp.textures[id] = tex
	return tex, nil
}

func (imp *docImporter) accessorBytes(acc *gltf.Accessor, elemSize int) ([]byte, error) {
	if acc.BufferView == nil {
		return nil, errors.New("accessor without buffer view")
	}
	view := imp.doc.BufferViews[*acc.BufferView]
	buffer := imp.doc.Buffers[view.Buffer]
	start := int(view.ByteOffset) + int(acc.ByteOffset)
	end := start + int(acc.Count)*elemSize
	if end > len(buffer.Data) {
		return nil, errors.New("accessor out of buffer range")
	}
	return buffer.Data[start:end], nil
}

func (imp *docImporter) vec3s(accIdx uint32) ([]vec3.T, error) {
	acc := imp.doc.Accessors[accIdx]
	data, err := imp.accessorBytes(acc, 12)
	if err != nil {
		return nil, err
	}
	out := make([]vec3.T, acc.Count)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (imp *docImporter) vec2s(accIdx uint32) ([]vec2.T, error) {
	acc := imp.doc.Accessors[accIdx]
	data, err := imp.accessorBytes(acc, 8)
	if err != nil {
		return nil, err
	}
	out := make([]vec2.T, acc.Count)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (imp *docImporter) indices(accIdx uint32) ([]uint32, error) {
	acc := imp.doc.Accessors[accIdx]
	out := make([]uint32, acc.Count)
	switch acc.ComponentType {
	case gltf.ComponentUbyte:
		data, err := imp.accessorBytes(acc, 1)
		if err != nil {
			return nil, err
		}
		for i, b := range data {
			out[i] = uint32(b)
		}
	case gltf.ComponentUshort:
		data, err := imp.accessorBytes(acc, 2)
		if err != nil {
			return nil, err
		}
		tmp := make([]uint16, acc.Count)
		if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &tmp); err != nil {
			return nil, err
		}
		for i, v := range tmp {
			out[i] = uint32(v)
		}
	case gltf.ComponentUint:
		data, err := imp.accessorBytes(acc, 4)
		if err != nil {
			return nil, err
		}
		if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &out); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unsupported index component type")
	}
	return out, nil
}

// nodeTransform converts the node matrix into a world transform. A zero
// or identity matrix means the node stays at identity.
func nodeTransform(nd *gltf.Node) *dmat.T {
	if nd.Matrix == emptyMatrix || nd.Matrix == identityMatrix {
		return nil
	}
	ay := nd.Matrix
	m := &dmat.T{}
	m[0] = vec4.T{float64(ay[0]), float64(ay[1]), float64(ay[2]), float64(ay[3])}
	m[1] = vec4.T{float64(ay[4]), float64(ay[5]), float64(ay[6]), float64(ay[7])}
	m[2] = vec4.T{float64(ay[8]), float64(ay[9]), float64(ay[10]), float64(ay[11])}
	m[3] = vec4.T{float64(ay[12]), float64(ay[13]), float64(ay[14]), float64(ay[15])}
	return m
}
