package domain

// ProductRecord is the Extractor's output for one IFC product, before it is
// diffed or persisted. Geometry is already in world coordinates (the
// transform has been baked into Vertices/Normals); Matrix is carried
// alongside only because the content hash is defined over it too.
type ProductRecord struct {
	GlobalID    string
	IFCClass    string
	Name        string
	Description string
	ObjectType  string
	Tag         string
	// ContainedIn is "" when there is no spatial container (null).
	ContainedIn string

	Vertices []float32
	Normals  []float32
	Faces    []uint32
	Matrix   [16]float32

	ContentHash string
}

// RelationshipRecord is one directed IFC relationship instance discovered
// by the Extractor.
type RelationshipRecord struct {
	FromGlobalID     string
	ToGlobalID       string
	RelationshipType string
}

// ExtractionResult is the full output of one Extractor pass over an IFC
// file: the product/relationship sequences plus non-fatal diagnostics
// (malformed entities, untessellable elements).
type ExtractionResult struct {
	Products      []ProductRecord
	Relationships []RelationshipRecord
	Diagnostics   []string
}
