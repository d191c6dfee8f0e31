package repos

import (
	"context"

	"gorm.io/gorm"

	types "github.com/bimatlas/bimatlas/internal/domain"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
)

type ProjectRepo interface {
	Create(ctx context.Context, tx *gorm.DB, p *types.Project) (*types.Project, error)
	GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Project, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Project, error)
	Delete(ctx context.Context, tx *gorm.DB, id int64) error
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: baseLog.With("repo", "ProjectRepo")}
}

func (r *projectRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *projectRepo) Create(ctx context.Context, tx *gorm.DB, p *types.Project) (*types.Project, error) {
	if err := r.tx(tx).WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *projectRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Project, error) {
	var p types.Project
	if err := r.tx(tx).WithContext(ctx).Where("id = ?", id).Take(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Project, error) {
	var out []*types.Project
	if err := r.tx(tx).WithContext(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *projectRepo) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	conn := r.tx(tx).WithContext(ctx)
	branchIDs, err := branchIDsForProject(conn, id)
	if err != nil {
		return err
	}
	if len(branchIDs) > 0 {
		if err := conn.Where("branch_id IN ?", branchIDs).Delete(&types.Product{}).Error; err != nil {
			return err
		}
		if err := conn.Where("branch_id IN ?", branchIDs).Delete(&types.Revision{}).Error; err != nil {
			return err
		}
	}
	if err := conn.Where("project_id = ?", id).Delete(&types.Branch{}).Error; err != nil {
		return err
	}
	res := conn.Where("id = ?", id).Delete(&types.Project{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func branchIDsForProject(conn *gorm.DB, projectID int64) ([]int64, error) {
	var ids []int64
	if err := conn.Model(&types.Branch{}).Where("project_id = ?", projectID).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
