package repos

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	types "github.com/bimatlas/bimatlas/internal/domain"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
)

type ProductRepo interface {
	// CreateOpen inserts new open rows (valid_to_rev = null).
	CreateOpen(ctx context.Context, tx *gorm.DB, products []*types.Product) error
	// CloseOpen sets valid_to_rev = atRev on the single open row for
	// (branchID, globalID), asserting the open-window invariant held
	// beforehand (exactly one row affected).
	CloseOpen(ctx context.Context, tx *gorm.DB, branchID int64, globalID string, atRev int64) error
	// OpenHashesByBranch returns global_id -> content_hash for every
	// currently-open row on branchID — the Diff Engine's input.
	OpenHashesByBranch(ctx context.Context, tx *gorm.DB, branchID int64) (map[string]string, error)
	// ListOpenByBranch returns every currently-open row on branchID in
	// full — used by the graph mirror step and the repair sweep, both of
	// which need ifc_class and contained_in, not just the hash.
	ListOpenByBranch(ctx context.Context, tx *gorm.DB, branchID int64) ([]*types.Product, error)
	// OpenByBranchAndGlobalID returns the single open row, or
	// gorm.ErrRecordNotFound if none.
	OpenByBranchAndGlobalID(ctx context.Context, tx *gorm.DB, branchID int64, globalID string) (*types.Product, error)
	// VisibleAt returns the row visible at rev for (branchID, globalID), or
	// gorm.ErrRecordNotFound.
	VisibleAt(ctx context.Context, tx *gorm.DB, branchID int64, globalID string, rev int64) (*types.Product, error)
	// ListVisibleAt returns every row visible at rev on branchID.
	ListVisibleAt(ctx context.Context, tx *gorm.DB, branchID int64, rev int64) ([]*types.Product, error)
	// RowsIntroducedAt returns rows whose valid_from_rev == rev (used by
	// revision_diff's "added" and "modified" detection).
	RowsIntroducedAt(ctx context.Context, tx *gorm.DB, branchID int64, rev int64) ([]*types.Product, error)
	// RowsClosedAt returns rows whose valid_to_rev == rev.
	RowsClosedAt(ctx context.Context, tx *gorm.DB, branchID int64, rev int64) ([]*types.Product, error)
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return &productRepo{db: db, log: baseLog.With("repo", "ProductRepo")}
}

func (r *productRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *productRepo) CreateOpen(ctx context.Context, tx *gorm.DB, products []*types.Product) error {
	if len(products) == 0 {
		return nil
	}
	for _, p := range products {
		p.ValidToRev = nil
	}
	return r.tx(tx).WithContext(ctx).Create(&products).Error
}

func (r *productRepo) CloseOpen(ctx context.Context, tx *gorm.DB, branchID int64, globalID string, atRev int64) error {
	conn := r.tx(tx).WithContext(ctx)
	res := conn.Model(&types.Product{}).
		Where("branch_id = ? AND global_id = ? AND valid_to_rev IS NULL", branchID, globalID).
		Update("valid_to_rev", atRev)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("product repo: close open: expected exactly 1 open row for branch=%d global_id=%s, affected=%d (open-window invariant violated)", branchID, globalID, res.RowsAffected)
	}
	return nil
}

func (r *productRepo) OpenHashesByBranch(ctx context.Context, tx *gorm.DB, branchID int64) (map[string]string, error) {
	type row struct {
		GlobalID    string
		ContentHash string
	}
	var rows []row
	if err := r.tx(tx).WithContext(ctx).
		Model(&types.Product{}).
		Select("global_id", "content_hash").
		Where("branch_id = ? AND valid_to_rev IS NULL", branchID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.GlobalID] = row.ContentHash
	}
	return out, nil
}

func (r *productRepo) ListOpenByBranch(ctx context.Context, tx *gorm.DB, branchID int64) ([]*types.Product, error) {
	var out []*types.Product
	err := r.tx(tx).WithContext(ctx).
		Where("branch_id = ? AND valid_to_rev IS NULL", branchID).
		Order("global_id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) OpenByBranchAndGlobalID(ctx context.Context, tx *gorm.DB, branchID int64, globalID string) (*types.Product, error) {
	var p types.Product
	err := r.tx(tx).WithContext(ctx).
		Where("branch_id = ? AND global_id = ? AND valid_to_rev IS NULL", branchID, globalID).
		Take(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) VisibleAt(ctx context.Context, tx *gorm.DB, branchID int64, globalID string, rev int64) (*types.Product, error) {
	var p types.Product
	err := r.tx(tx).WithContext(ctx).
		Where("branch_id = ? AND global_id = ? AND valid_from_rev <= ? AND (valid_to_rev IS NULL OR valid_to_rev > ?)", branchID, globalID, rev, rev).
		Take(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) ListVisibleAt(ctx context.Context, tx *gorm.DB, branchID int64, rev int64) ([]*types.Product, error) {
	var out []*types.Product
	err := r.tx(tx).WithContext(ctx).
		Where("branch_id = ? AND valid_from_rev <= ? AND (valid_to_rev IS NULL OR valid_to_rev > ?)", branchID, rev, rev).
		Order("global_id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) RowsIntroducedAt(ctx context.Context, tx *gorm.DB, branchID int64, rev int64) ([]*types.Product, error) {
	var out []*types.Product
	err := r.tx(tx).WithContext(ctx).
		Where("branch_id = ? AND valid_from_rev = ?", branchID, rev).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) RowsClosedAt(ctx context.Context, tx *gorm.DB, branchID int64, rev int64) ([]*types.Product, error) {
	var out []*types.Product
	err := r.tx(tx).WithContext(ctx).
		Where("branch_id = ? AND valid_to_rev = ?", branchID, rev).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
