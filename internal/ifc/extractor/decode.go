package extractor

import (
	"strings"

	"github.com/bimatlas/bimatlas/internal/ifc"
)

// recognizedProductTypes maps the upper-cased STEP keyword for every IFC
// class BimAtlas's hierarchy table (internal/ifc) knows about to its
// canonical mixed-case class name. Anything outside this set is skipped
// without a diagnostic, never merged into a wrong class.
var recognizedProductTypes = func() map[string]string {
	out := map[string]string{}
	for _, class := range []string{
		ifc.ClassProject, ifc.ClassSite, ifc.ClassBuilding, ifc.ClassBuildingStorey, ifc.ClassSpace,
		"IfcWall", "IfcWallStandardCase", "IfcSlab", "IfcDoor", "IfcWindow", "IfcColumn",
		"IfcBeam", "IfcRoof", "IfcStair", "IfcStairFlight", "IfcRailing", "IfcCovering",
		"IfcCurtainWall", "IfcPlate", "IfcMember", "IfcFooting", "IfcFurnishingElement",
	} {
		out[strings.ToUpper(class)] = class
	}
	return out
}()

const (
	relContainedKeyword   = "IFCRELCONTAINEDINSPATIALSTRUCTURE"
	relAggregatesKeyword  = "IFCRELAGGREGATES"
	relConnectsKeyword    = "IFCRELCONNECTSELEMENTS"
	relVoidsKeyword       = "IFCRELVOIDSELEMENT"
	relFillsKeyword       = "IFCRELFILLSELEMENT"
)

var recognizedRelTypes = map[string]string{
	relContainedKeyword:  ifc.RelContainedInSpatialStructure,
	relAggregatesKeyword: ifc.RelAggregates,
	relConnectsKeyword:   ifc.RelConnectsElements,
	relVoidsKeyword:      ifc.RelVoidsElement,
	relFillsKeyword:      ifc.RelFillsElement,
}

// decodedProduct is the attribute subset every IfcRoot/IfcObject/IfcProduct
// descendant shares, regardless of concrete type — enough to populate a
// ProductRecord before geometry is attached.
type decodedProduct struct {
	globalID    string
	ifcClass    string
	name        string
	description string
	objectType  string
	tag         string
}

// decodeProduct decodes e into a decodedProduct if e.typ is a recognized
// product type, attribute positions per the IFC4 schema's shared
// IfcRoot(0:GlobalId,2:Name,3:Description) + IfcObject(4:ObjectType)
// prefix; non-spatial (IfcElement) subtypes additionally carry Tag at
// position 7.
func decodeProduct(e entity) (decodedProduct, bool) {
	class, ok := recognizedProductTypes[e.typ]
	if !ok {
		return decodedProduct{}, false
	}
	d := decodedProduct{ifcClass: class}
	if len(e.args) > 0 {
		d.globalID = unquote(e.args[0])
	}
	if len(e.args) > 2 {
		d.name = attrString(e.args[2])
	}
	if len(e.args) > 3 {
		d.description = attrString(e.args[3])
	}
	if len(e.args) > 4 {
		d.objectType = attrString(e.args[4])
	}
	if !ifc.IsSpatial(class) && len(e.args) > 7 {
		d.tag = attrString(e.args[7])
	}
	return d, true
}

func attrString(tok string) string {
	tok = strings.TrimSpace(tok)
	if isOmitted(tok) {
		return ""
	}
	return unquote(tok)
}

// decodedRelationship is one relating/related pair extracted from a
// recognized IFC relationship entity, before global_id resolution.
type decodedRelationship struct {
	relType       string
	relatingRefs  []int
	relatedRefs   []int
}

// decodeRelationship decodes e into a decodedRelationship if e.typ is a
// recognized relationship type, attribute positions per the IFC4 schema.
func decodeRelationship(e entity) (decodedRelationship, bool) {
	relType, ok := recognizedRelTypes[e.typ]
	if !ok {
		return decodedRelationship{}, false
	}
	d := decodedRelationship{relType: relType}
	switch e.typ {
	case relContainedKeyword:
		// 4: RelatedElements (list), 5: RelatingStructure (ref)
		if len(e.args) > 4 {
			d.relatedRefs = refList(e.args[4])
		}
		if len(e.args) > 5 {
			if id, ok := isRef(strings.TrimSpace(e.args[5])); ok {
				d.relatingRefs = []int{id}
			}
		}
	case relAggregatesKeyword:
		// 4: RelatingObject (ref), 5: RelatedObjects (list)
		if len(e.args) > 4 {
			if id, ok := isRef(strings.TrimSpace(e.args[4])); ok {
				d.relatingRefs = []int{id}
			}
		}
		if len(e.args) > 5 {
			d.relatedRefs = refList(e.args[5])
		}
	case relConnectsKeyword:
		// 5: RelatingElement (ref), 6: RelatedElement (ref)
		if len(e.args) > 5 {
			if id, ok := isRef(strings.TrimSpace(e.args[5])); ok {
				d.relatingRefs = []int{id}
			}
		}
		if len(e.args) > 6 {
			if id, ok := isRef(strings.TrimSpace(e.args[6])); ok {
				d.relatedRefs = []int{id}
			}
		}
	case relVoidsKeyword, relFillsKeyword:
		// 4: relating (ref), 5: related (ref)
		if len(e.args) > 4 {
			if id, ok := isRef(strings.TrimSpace(e.args[4])); ok {
				d.relatingRefs = []int{id}
			}
		}
		if len(e.args) > 5 {
			if id, ok := isRef(strings.TrimSpace(e.args[5])); ok {
				d.relatedRefs = []int{id}
			}
		}
	}
	return d, true
}
