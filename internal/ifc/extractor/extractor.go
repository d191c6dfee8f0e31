// Package extractor parses an IFC STEP file into product and relationship
// records, with tessellated geometry and a deterministic content hash
// attached to each product.
package extractor

import (
	"fmt"
	"io"
	"os"
	"sort"

	types "github.com/bimatlas/bimatlas/internal/domain"
	"github.com/bimatlas/bimatlas/internal/ifc"
	"github.com/bimatlas/bimatlas/internal/platform/apierr"
)

// Extractor parses IFC files with an injected Tessellator, treating the
// geometry engine as an external collaborator behind an interface.
type Extractor struct {
	tessellator Tessellator
}

func New(tessellator Tessellator) *Extractor {
	if tessellator == nil {
		tessellator = DeterministicTessellator{}
	}
	return &Extractor{tessellator: tessellator}
}

// ExtractFile opens path and extracts it. See Extract for the contract.
func (x *Extractor) ExtractFile(path string) (*types.ExtractionResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apierr.New(400, "ExtractionError", fmt.Errorf("ifc: open %s: %w", path, err))
	}
	defer f.Close()
	return x.Extract(f)
}

// Extract parses r as an IFC STEP file and produces the full
// ExtractionResult: products (with geometry and content hash attached) and
// relationships, plus non-fatal diagnostics. It fails with ExtractionError
// only when the file itself is unreadable or malformed — a single
// untessellable element is recorded as a diagnostic, never a hard failure.
func (x *Extractor) Extract(r io.Reader) (*types.ExtractionResult, error) {
	entities, err := parseSTEP(r)
	if err != nil {
		return nil, apierr.New(400, "ExtractionError", fmt.Errorf("ifc: parse: %w", err))
	}

	products := make(map[int]decodedProduct)
	relationships := make(map[int]decodedRelationship)
	for id, e := range entities {
		if p, ok := decodeProduct(e); ok {
			if p.globalID == "" {
				continue
			}
			products[id] = p
			continue
		}
		if rel, ok := decodeRelationship(e); ok {
			relationships[id] = rel
		}
	}

	result := &types.ExtractionResult{}
	if len(products) == 0 {
		return result, nil
	}

	containedIn := buildContainmentMap(products, relationships)

	// Stable output order makes diagnostics and fixtures deterministic.
	ids := make([]int, 0, len(products))
	for id := range products {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		p := products[id]
		mesh, tessErr := x.tessellator.Tessellate(p.globalID, p.ifcClass)
		if tessErr != nil {
			result.Diagnostics = append(result.Diagnostics, fmt.Sprintf(
				"extractor: %s %s: tessellation failed, emitting with empty geometry: %v",
				p.ifcClass, p.globalID, tessErr,
			))
			mesh = Mesh{}
		}

		contained := containedIn[id]
		var containedGlobalID string
		if contained != 0 {
			if cp, ok := products[contained]; ok {
				containedGlobalID = cp.globalID
			} else {
				result.Diagnostics = append(result.Diagnostics, fmt.Sprintf(
					"extractor: %s %s: container #%d not found among extracted products",
					p.ifcClass, p.globalID, contained,
				))
			}
		}

		hash := contentHash(p.ifcClass, p.name, p.description, p.objectType, p.tag, containedGlobalID, mesh)

		record := types.ProductRecord{
			GlobalID:    p.globalID,
			IFCClass:    p.ifcClass,
			Name:        p.name,
			Description: p.description,
			ObjectType:  p.objectType,
			Tag:         p.tag,
			ContainedIn: containedGlobalID,
			Vertices:    mesh.Vertices,
			Normals:     mesh.Normals,
			Faces:       mesh.Faces,
			ContentHash: hash,
		}
		copy(record.Matrix[:], mesh.Matrix[:])
		result.Products = append(result.Products, record)
	}

	relIDs := make([]int, 0, len(relationships))
	for id := range relationships {
		relIDs = append(relIDs, id)
	}
	sort.Ints(relIDs)
	for _, id := range relIDs {
		rel := relationships[id]
		for _, fromID := range rel.relatingRefs {
			fromP, ok := products[fromID]
			if !ok {
				continue
			}
			for _, toID := range rel.relatedRefs {
				toP, ok := products[toID]
				if !ok {
					result.Diagnostics = append(result.Diagnostics, fmt.Sprintf(
						"extractor: %s: related entity #%d is not a recognized product, skipping edge",
						rel.relType, toID,
					))
					continue
				}
				result.Relationships = append(result.Relationships, types.RelationshipRecord{
					FromGlobalID:     fromP.globalID,
					ToGlobalID:       toP.globalID,
					RelationshipType: rel.relType,
				})
			}
		}
	}

	return result, nil
}

// buildContainmentMap derives, for each product entity id, the entity id of
// its spatial container: non-spatial elements via
// IfcRelContainedInSpatialStructure, spatial elements via IfcRelAggregates
// (so a storey points at its building, which points at its site, etc.).
// Spatial elements with no aggregating parent, and any element with no
// containment relationship at all, are left at 0 (no container).
func buildContainmentMap(products map[int]decodedProduct, relationships map[int]decodedRelationship) map[int]int {
	containedIn := make(map[int]int, len(products))
	for _, rel := range relationships {
		switch rel.relType {
		case "IfcRelContainedInSpatialStructure":
			if len(rel.relatingRefs) == 0 {
				continue
			}
			container := rel.relatingRefs[0]
			if _, ok := products[container]; !ok {
				continue
			}
			for _, elemID := range rel.relatedRefs {
				if _, ok := products[elemID]; ok {
					containedIn[elemID] = container
				}
			}
		case "IfcRelAggregates":
			if len(rel.relatingRefs) == 0 {
				continue
			}
			parent := rel.relatingRefs[0]
			parentProduct, ok := products[parent]
			if !ok {
				continue
			}
			for _, childID := range rel.relatedRefs {
				childProduct, ok := products[childID]
				if !ok {
					continue
				}
				if ifc.IsSpatial(parentProduct.ifcClass) && ifc.IsSpatial(childProduct.ifcClass) {
					containedIn[childID] = parent
				}
			}
		}
	}
	return containedIn
}
