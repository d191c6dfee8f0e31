package repos

import (
	"context"

	"gorm.io/gorm"

	types "github.com/bimatlas/bimatlas/internal/domain"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
)

type RevisionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, r *types.Revision) (*types.Revision, error)
	GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Revision, error)
	ListByBranch(ctx context.Context, tx *gorm.DB, branchID int64) ([]*types.Revision, error)
	Latest(ctx context.Context, tx *gorm.DB, branchID int64) (*types.Revision, error)
	AppendDiagnostics(ctx context.Context, tx *gorm.DB, id int64, diagnostics []string) error
}

type revisionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRevisionRepo(db *gorm.DB, baseLog *logger.Logger) RevisionRepo {
	return &revisionRepo{db: db, log: baseLog.With("repo", "RevisionRepo")}
}

func (r *revisionRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *revisionRepo) Create(ctx context.Context, tx *gorm.DB, rev *types.Revision) (*types.Revision, error) {
	if err := r.tx(tx).WithContext(ctx).Create(rev).Error; err != nil {
		return nil, err
	}
	return rev, nil
}

func (r *revisionRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Revision, error) {
	var rev types.Revision
	if err := r.tx(tx).WithContext(ctx).Where("id = ?", id).Take(&rev).Error; err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *revisionRepo) ListByBranch(ctx context.Context, tx *gorm.DB, branchID int64) ([]*types.Revision, error) {
	var out []*types.Revision
	if err := r.tx(tx).WithContext(ctx).
		Where("branch_id = ?", branchID).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Latest returns the revision with the highest id bound to branchID, or
// gorm.ErrRecordNotFound if the branch has none yet.
func (r *revisionRepo) Latest(ctx context.Context, tx *gorm.DB, branchID int64) (*types.Revision, error) {
	var rev types.Revision
	if err := r.tx(tx).WithContext(ctx).
		Where("branch_id = ?", branchID).
		Order("id DESC").
		Limit(1).
		Take(&rev).Error; err != nil {
		return nil, err
	}
	return &rev, nil
}

// AppendDiagnostics merges additional diagnostics (typically from the
// best-effort graph mirror, which runs after the revision row is already
// committed) onto an existing revision's diagnostics column.
func (r *revisionRepo) AppendDiagnostics(ctx context.Context, tx *gorm.DB, id int64, diagnostics []string) error {
	if len(diagnostics) == 0 {
		return nil
	}
	rev, err := r.GetByID(ctx, tx, id)
	if err != nil {
		return err
	}
	merged := append(types.ParseDiagnostics(rev.Diagnostics), diagnostics...)
	return r.tx(tx).WithContext(ctx).
		Model(&types.Revision{}).
		Where("id = ?", id).
		Update("diagnostics", types.DiagnosticsJSON(merged)).Error
}
