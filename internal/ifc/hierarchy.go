// Package ifc holds IFC-4.3 schema knowledge shared by the extractor and
// the query layer: the entity class hierarchy and the relationship/entity
// name constants the rest of the core matches against.
package ifc

// Spatial container classes: the IFC spatial structure elements that form
// a branch's containment hierarchy (project/site/building/storey/space).
const (
	ClassProject       = "IfcProject"
	ClassSite          = "IfcSite"
	ClassBuilding      = "IfcBuilding"
	ClassBuildingStorey = "IfcBuildingStorey"
	ClassSpace         = "IfcSpace"
)

// Relationship entity names the extractor and graph mirror recognize.
const (
	RelContainedInSpatialStructure = "IfcRelContainedInSpatialStructure"
	RelAggregates                  = "IfcRelAggregates"
	RelConnectsElements            = "IfcRelConnectsElements"
	RelVoidsElement                = "IfcRelVoidsElement"
	RelFillsElement                = "IfcRelFillsElement"
)

var spatialClasses = map[string]bool{
	ClassProject:        true,
	ClassSite:           true,
	ClassBuilding:        true,
	ClassBuildingStorey:  true,
	ClassSpace:           true,
}

// IsSpatial reports whether ifcClass is one of the IFC spatial structure
// elements.
func IsSpatial(ifcClass string) bool { return spatialClasses[ifcClass] }

// classParent maps each class to its direct parent in the (abbreviated
// but real) IFC 4.3 entity hierarchy. Used to expand a products() filter
// on ifc_class to its descendants client-side.
var classParent = map[string]string{
	// Spatial structure. IfcProject sits directly under IfcObjectDefinition
	// (it is an IfcContext in the real schema, not an IfcSpatialElement);
	// the other spatial structure elements chain through
	// IfcSpatialStructureElement/IfcSpatialElement.
	ClassProject:                 "IfcObjectDefinition",
	ClassSite:                    "IfcSpatialStructureElement",
	ClassBuilding:                "IfcSpatialStructureElement",
	ClassBuildingStorey:          "IfcSpatialStructureElement",
	ClassSpace:                   "IfcSpatialStructureElement",
	"IfcSpatialStructureElement": "IfcSpatialElement",
	"IfcSpatialElement":          "IfcProduct",

	// Building elements.
	"IfcWall":              "IfcBuildingElement",
	"IfcWallStandardCase":  "IfcWall",
	"IfcSlab":              "IfcBuildingElement",
	"IfcDoor":              "IfcBuildingElement",
	"IfcWindow":            "IfcBuildingElement",
	"IfcColumn":            "IfcBuildingElement",
	"IfcBeam":              "IfcBuildingElement",
	"IfcRoof":              "IfcBuildingElement",
	"IfcStair":             "IfcBuildingElement",
	"IfcStairFlight":       "IfcBuildingElement",
	"IfcRailing":           "IfcBuildingElement",
	"IfcCovering":          "IfcBuildingElement",
	"IfcCurtainWall":       "IfcBuildingElement",
	"IfcPlate":             "IfcBuildingElement",
	"IfcMember":            "IfcBuildingElement",
	"IfcFooting":           "IfcBuildingElement",
	"IfcBuildingElement":   "IfcElement",
	"IfcFurnishingElement": "IfcElement",
	"IfcElement":           "IfcProduct",
	"IfcProduct":           "IfcObjectDefinition",
}

// Ancestors returns ifcClass followed by every ancestor up to the root,
// e.g. Ancestors("IfcWall") = ["IfcWall", "IfcBuildingElement", "IfcElement",
// "IfcProduct", "IfcObjectDefinition"].
func Ancestors(ifcClass string) []string {
	out := []string{ifcClass}
	cur := ifcClass
	for {
		parent, ok := classParent[cur]
		if !ok {
			return out
		}
		out = append(out, parent)
		cur = parent
	}
}

// Descendants returns every class (including ifcClass itself) whose
// ancestor chain passes through ifcClass — the set a products() filter on
// ifc_class should expand to.
func Descendants(ifcClass string) []string {
	out := []string{ifcClass}
	for class := range classParent {
		for _, anc := range Ancestors(class) {
			if anc == ifcClass {
				out = append(out, class)
				break
			}
		}
	}
	return out
}

// ExpandClassFilter expands a set of requested ifc_class filters to include
// their descendants, deduplicated.
func ExpandClassFilter(classes []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range classes {
		for _, d := range Descendants(c) {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out
}
