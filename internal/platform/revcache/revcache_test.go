package revcache

import (
	"context"
	"testing"

	"gorm.io/gorm"

	types "github.com/bimatlas/bimatlas/internal/domain"
)

type fakeRevisionRepo struct {
	latestCalls int
	getByIDArgs []int64
	rev         *types.Revision
}

func (f *fakeRevisionRepo) Create(ctx context.Context, tx *gorm.DB, r *types.Revision) (*types.Revision, error) {
	r.ID = 99
	return r, nil
}

func (f *fakeRevisionRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Revision, error) {
	f.getByIDArgs = append(f.getByIDArgs, id)
	return &types.Revision{ID: id, BranchID: f.rev.BranchID}, nil
}

func (f *fakeRevisionRepo) ListByBranch(ctx context.Context, tx *gorm.DB, branchID int64) ([]*types.Revision, error) {
	return nil, nil
}

func (f *fakeRevisionRepo) Latest(ctx context.Context, tx *gorm.DB, branchID int64) (*types.Revision, error) {
	f.latestCalls++
	return f.rev, nil
}

func (f *fakeRevisionRepo) AppendDiagnostics(ctx context.Context, tx *gorm.DB, id int64, diagnostics []string) error {
	return nil
}

// disabledCache exercises the nil-safe no-op path without a real redis
// server, matching how the wrapper behaves when REDIS_ADDR is unset.
func disabledCache() *Cache { return &Cache{} }

func TestRevisionRepo_DisabledCachePassesThrough(t *testing.T) {
	inner := &fakeRevisionRepo{rev: &types.Revision{ID: 5, BranchID: 1}}
	repo := NewRevisionRepo(inner, disabledCache())

	for i := 0; i < 3; i++ {
		rev, err := repo.Latest(context.Background(), nil, 1)
		if err != nil {
			t.Fatalf("Latest: %v", err)
		}
		if rev.ID != 5 {
			t.Fatalf("expected revision 5, got %d", rev.ID)
		}
	}
	if inner.latestCalls != 3 {
		t.Fatalf("expected every call to pass through when cache disabled, got %d calls", inner.latestCalls)
	}
}

func TestRevisionRepo_CreateInvalidatesSafely(t *testing.T) {
	inner := &fakeRevisionRepo{rev: &types.Revision{ID: 5, BranchID: 1}}
	repo := NewRevisionRepo(inner, disabledCache())

	created, err := repo.Create(context.Background(), nil, &types.Revision{BranchID: 1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != 99 {
		t.Fatalf("expected inner Create result to pass through, got id %d", created.ID)
	}
}
