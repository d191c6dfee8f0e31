package extractor

// Mesh is the tessellated geometry for one product, in world coordinates
// with the transform already baked in: downstream consumers need no
// transform matrix to render it.
type Mesh struct {
	Vertices []float32
	Normals  []float32
	Faces    []uint32
	Matrix   [16]float32
}

// Tessellator is the geometry engine: a black box that yields triangle
// meshes and a placement matrix. BimAtlas depends on it only through this
// interface.
type Tessellator interface {
	// Tessellate produces world-space geometry for the product entity with
	// the given global_id and ifc_class. A non-nil error means the element
	// could not be tessellated; the caller must still emit the product
	// with empty geometry and a diagnostic, never drop it.
	Tessellate(globalID, ifcClass string) (Mesh, error)
}

// DeterministicTessellator is a stand-in geometry engine used when no real
// tessellator is wired: it derives a small reproducible mesh (a unit box,
// shifted along x by a hash of global_id) purely so ingestion and
// content-hash determinism are exercisable without a CAD kernel dependency.
// It is never meant to render anything meaningful.
type DeterministicTessellator struct{}

func (DeterministicTessellator) Tessellate(globalID, ifcClass string) (Mesh, error) {
	scale := float32(1.0)
	var h uint32
	for _, b := range []byte(globalID) {
		h = h*31 + uint32(b)
	}
	offset := float32(h%1000) / 100.0

	vertices := []float32{
		0, 0, 0,
		scale, 0, 0,
		scale, scale, 0,
		0, scale, 0,
		0, 0, scale,
		scale, 0, scale,
		scale, scale, scale,
		0, scale, scale,
	}
	for i := 0; i < len(vertices); i += 3 {
		vertices[i] += offset
	}
	normals := []float32{
		0, 0, -1, 0, 0, -1, 0, 0, -1, 0, 0, -1,
		0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1,
	}
	faces := []uint32{
		0, 1, 2, 0, 2, 3, // bottom
		4, 6, 5, 4, 7, 6, // top
		0, 4, 5, 0, 5, 1, // sides
		1, 5, 6, 1, 6, 2,
		2, 6, 7, 2, 7, 3,
		3, 7, 4, 3, 4, 0,
	}
	matrix := identityMatrix()
	matrix[12] = offset
	return Mesh{Vertices: vertices, Normals: normals, Faces: faces, Matrix: matrix}, nil
}

func identityMatrix() [16]float32 {
	var m [16]float32
	for i := 0; i < 4; i++ {
		m[i*4+i] = 1
	}
	return m
}
