package combine

// Node is the scene object created for a combined result. It owns the
// mesh; Materials is index-aligned with the mesh submeshes. The two
// flags are renderer hints, not correctness requirements.
type Node struct {
	Name      string
	Mesh      *Mesh
	Materials []MeshMaterial

	// StaticBatching marks the geometry as immovable.
	StaticBatching bool
	// ContributeGI includes the geometry in baked global illumination.
	ContributeGI bool
}

// MaterialCount returns the number of materials bound to the node.
func (n *Node) MaterialCount() int {
	return len(n.Materials)
}
