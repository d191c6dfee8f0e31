package app

import (
	"gorm.io/gorm"

	"github.com/bimatlas/bimatlas/internal/data/repos"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
	"github.com/bimatlas/bimatlas/internal/platform/revcache"
)

// Repos groups the repositories every service-level component above them
// is constructed with.
type Repos struct {
	Project  repos.ProjectRepo
	Branch   repos.BranchRepo
	Revision repos.RevisionRepo
	Product  repos.ProductRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger, cache *revcache.Cache) Repos {
	log.Info("Wiring repos...")
	revisionRp := repos.NewRevisionRepo(db, log)
	if cache.Enabled() {
		revisionRp = revcache.NewRevisionRepo(revisionRp, cache)
	}
	return Repos{
		Project:  repos.NewProjectRepo(db, log),
		Branch:   repos.NewBranchRepo(db, log),
		Revision: revisionRp,
		Product:  repos.NewProductRepo(db, log),
	}
}
