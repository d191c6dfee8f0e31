package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/bimatlas/bimatlas/internal/domain"
)

// AutoMigrateAll creates/updates the base columns for every relational
// table. Composite/partial indexes beyond what gorm tags can express are
// added by EnsureProductIndexes below.
func AutoMigrateAll(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&types.Project{},
		&types.Branch{},
		&types.Revision{},
		&types.Product{},
	)
}

// EnsureProductIndexes creates the branch-first composite indexes the
// query and diff paths rely on: open products by (branch_id, global_id), by (branch_id,
// ifc_class, valid_to_rev), by (branch_id, contained_in), and by
// (branch_id, valid_from_rev, valid_to_rev). The "open products" index is
// partial on valid_to_rev IS NULL since that's the hot lookup for diffing
// and point-reads at latest.
func EnsureProductIndexes(conn *gorm.DB) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_product_branch_gid_open
			ON ifc_products(branch_id, global_id)
			WHERE valid_to_rev IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_product_branch_class_open
			ON ifc_products(branch_id, ifc_class, valid_to_rev)`,
		`CREATE INDEX IF NOT EXISTS idx_product_branch_contained
			ON ifc_products(branch_id, contained_in)`,
		`CREATE INDEX IF NOT EXISTS idx_product_branch_window
			ON ifc_products(branch_id, valid_from_rev, valid_to_rev)`,
		`CREATE INDEX IF NOT EXISTS idx_revision_branch_id
			ON revisions(branch_id, id)`,
	}
	for _, stmt := range stmts {
		if err := conn.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure product indexes: %w", err)
		}
	}
	return nil
}
