package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	types "github.com/bimatlas/bimatlas/internal/domain"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
)

type BranchRepo interface {
	Create(ctx context.Context, tx *gorm.DB, b *types.Branch) (*types.Branch, error)
	GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Branch, error)
	GetByProjectAndName(ctx context.Context, tx *gorm.DB, projectID int64, name string) (*types.Branch, error)
	ListByProject(ctx context.Context, tx *gorm.DB, projectID int64) ([]*types.Branch, error)
	Delete(ctx context.Context, tx *gorm.DB, id int64) error
}

type branchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBranchRepo(db *gorm.DB, baseLog *logger.Logger) BranchRepo {
	return &branchRepo{db: db, log: baseLog.With("repo", "BranchRepo")}
}

func (r *branchRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *branchRepo) Create(ctx context.Context, tx *gorm.DB, b *types.Branch) (*types.Branch, error) {
	if err := r.tx(tx).WithContext(ctx).Create(b).Error; err != nil {
		return nil, err
	}
	return b, nil
}

func (r *branchRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Branch, error) {
	var b types.Branch
	if err := r.tx(tx).WithContext(ctx).Where("id = ?", id).Take(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *branchRepo) GetByProjectAndName(ctx context.Context, tx *gorm.DB, projectID int64, name string) (*types.Branch, error) {
	var b types.Branch
	err := r.tx(tx).WithContext(ctx).
		Where("project_id = ? AND name = ?", projectID, name).
		Take(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, err
	}
	return &b, nil
}

func (r *branchRepo) ListByProject(ctx context.Context, tx *gorm.DB, projectID int64) ([]*types.Branch, error) {
	var out []*types.Branch
	if err := r.tx(tx).WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *branchRepo) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	conn := r.tx(tx).WithContext(ctx)
	if err := conn.Where("branch_id = ?", id).Delete(&types.Product{}).Error; err != nil {
		return err
	}
	if err := conn.Where("branch_id = ?", id).Delete(&types.Revision{}).Error; err != nil {
		return err
	}
	res := conn.Where("id = ?", id).Delete(&types.Branch{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
