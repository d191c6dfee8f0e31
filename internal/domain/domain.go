// Package domain holds the relational row types shared by the storage,
// ingestion, and query layers.
package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Project is the top-level container. Creating one atomically creates its
// "main" branch (see catalog.Catalog.CreateProject).
type Project struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:text;not null" json:"name"`
	Description string    `gorm:"type:text;not null;default:''" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Project) TableName() string { return "projects" }

// Branch is an independent revision timeline within a project.
type Branch struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID int64     `gorm:"not null;uniqueIndex:idx_branch_project_name,priority:1;index" json:"project_id"`
	Name      string    `gorm:"type:text;not null;uniqueIndex:idx_branch_project_name,priority:2" json:"name"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Branch) TableName() string { return "branches" }

// Revision is a monotonically increasing snapshot id, one per ingestion.
type Revision struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BranchID       int64     `gorm:"not null;index" json:"branch_id"`
	Label          string    `gorm:"type:text;not null;default:''" json:"label,omitempty"`
	SourceFilename string    `gorm:"type:text;not null;default:''" json:"source_filename"`
	CreatedAt      time.Time `gorm:"not null;default:now()" json:"created_at"`

	// Diagnostics carries the parser/tessellation/dangling-reference notes
	// the Revision Writer collected while producing this revision (see
	// ingest.Result.Diagnostics) as a jsonb array, so they remain
	// inspectable after the ingest HTTP response that first reported them
	// is long gone. Read/write it through DiagnosticsJSON/ParseDiagnostics
	// rather than poking at the raw bytes.
	Diagnostics datatypes.JSON `gorm:"type:jsonb" json:"diagnostics,omitempty"`
}

// DiagnosticsJSON marshals a diagnostics slice into the jsonb
// representation stored on Revision.Diagnostics. A nil/empty slice
// marshals to "[]" rather than "null" so the column is never SQL NULL.
func DiagnosticsJSON(diagnostics []string) datatypes.JSON {
	if diagnostics == nil {
		diagnostics = []string{}
	}
	b, _ := json.Marshal(diagnostics)
	return datatypes.JSON(b)
}

// ParseDiagnostics is the inverse of DiagnosticsJSON.
func ParseDiagnostics(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	_ = json.Unmarshal(raw, &out)
	return out
}

func (Revision) TableName() string { return "revisions" }

// Product is the SCD2-versioned relational row for one IFC element on one
// branch. Multiple rows share a (branch_id, global_id) pair, distinguished
// by their validity window; see VisibleAt for the visibility invariant.
type Product struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	BranchID    int64  `gorm:"not null;uniqueIndex:idx_product_branch_gid_from,priority:1" json:"branch_id"`
	GlobalID    string `gorm:"type:varchar(22);not null;uniqueIndex:idx_product_branch_gid_from,priority:2" json:"global_id"`
	IFCClass    string `gorm:"type:text;not null" json:"ifc_class"`
	Name        string `gorm:"type:text;not null;default:''" json:"name"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`
	ObjectType  string `gorm:"type:text;not null;default:''" json:"object_type"`
	Tag         string `gorm:"type:text;not null;default:''" json:"tag"`
	// ContainedIn is the global_id of the spatial container, or nil for an
	// un-contained spatial element (project root).
	ContainedIn *string `gorm:"type:varchar(22)" json:"contained_in,omitempty"`

	Vertices []byte `gorm:"type:bytea" json:"-"`
	Normals  []byte `gorm:"type:bytea" json:"-"`
	Faces    []byte `gorm:"type:bytea" json:"-"`
	Matrix   []byte `gorm:"type:bytea" json:"-"`

	ContentHash string `gorm:"type:varchar(64);not null" json:"content_hash"`

	ValidFromRev int64  `gorm:"not null;uniqueIndex:idx_product_branch_gid_from,priority:3" json:"valid_from_rev"`
	ValidToRev   *int64 `json:"valid_to_rev,omitempty"`
}

func (Product) TableName() string { return "ifc_products" }

// IsOpen reports whether this row is the currently-visible one for its
// (branch_id, global_id) — i.e. valid_to_rev is null.
func (p *Product) IsOpen() bool { return p != nil && p.ValidToRev == nil }

// VisibleAt reports whether p is visible as of revision rev:
// valid_from_rev <= rev && (valid_to_rev == null || valid_to_rev > rev).
func (p *Product) VisibleAt(rev int64) bool {
	if p == nil {
		return false
	}
	if p.ValidFromRev > rev {
		return false
	}
	return p.ValidToRev == nil || *p.ValidToRev > rev
}

// RevisionSummary augments a Revision with SCD2 counts of what changed
// relative to the prior state on its branch.
type RevisionSummary struct {
	Revision
	Added     int `json:"added"`
	Modified  int `json:"modified"`
	Deleted   int `json:"deleted"`
	Unchanged int `json:"unchanged"`
}
