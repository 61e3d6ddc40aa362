package combine

const (
	TEXTURE_FORMAT_R    = 0
	TEXTURE_FORMAT_RGB  = 4
	TEXTURE_FORMAT_RGBA = 6
)

const (
	TEXTURE_COMPRESSED_ZLIB = 1
)

// MeshMaterial is the material contract of the pipeline. Materials are
// grouped by identity, so equal-looking values backed by distinct
// instances stay distinct submeshes.
type MeshMaterial interface {
	HasTexture() bool
	GetTexture() *Texture
	GetColor() [3]byte
	GetEmissive() [3]byte
}
